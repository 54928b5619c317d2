package mcpserver

// LinkSyntaxContract describes how notes reference each other. LLM consumers
// should read it before writing note bodies.
const LinkSyntaxContract = `# Notebook Link Syntax

Notes are identified by a numeric id. A note body references another note
with a link of the form:

` + "```" + `
[[<id>|<label>]]
` + "```" + `

## Rules

1. **id** is the positive decimal id of the target note in the same space
   (personal notebook or organization). Use ` + "`" + `search_notes` + "`" + ` or
   ` + "`" + `list_notes` + "`" + ` to find it.
2. **label** is the display text. It must not be empty and must not contain
   ` + "`" + `]` + "`" + `.
3. Links to notes that do not exist, or that live in another space, are kept
   in the text but ignored by the graph and by backlinks.
4. A note linking to itself is ignored by the graph.
5. Linking the same note several times from one body yields a single graph
   edge; every link still counts as a reference.
6. Deleting a note does not rewrite links pointing to it.

## Example

` + "```" + `markdown
Follow-up of [[12|Weekly standup]]; see also [[40|Roadmap Q3]].
` + "```" + `
`
