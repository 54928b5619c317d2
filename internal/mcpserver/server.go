// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notebook tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notebook/internal/models"
	"github.com/starford/notebook/internal/noteservice"
	"github.com/starford/notebook/internal/tenant"
)

const linkSyntaxURI = "notebook://link-syntax"

// Server wraps the MCP server with notebook tools. Every tool call runs as
// the tenant the server was started for.
type Server struct {
	mcp    *server.MCPServer
	svc    *noteservice.Service
	tenant tenant.Identity
}

// New creates a new MCP server with all notebook tools registered.
func New(svc *noteservice.Service, id tenant.Identity) *Server {
	s := &Server{svc: svc, tenant: id}

	s.mcp = server.NewMCPServer(
		"Notebook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Substring search through note titles, excerpts and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note, including its body and revision."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. Reference other notes with [[id|label]]; "+
			"read the syntax first via the get_link_syntax tool or the "+linkSyntaxURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown body")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated tags")),
		mcp.WithNumber("folder_id", mcp.Description("Optional folder id")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_link_syntax",
		mcp.WithDescription("Returns the note link syntax. "+
			"Call this before writing note bodies that reference other notes."),
	), s.getLinkSyntax)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, pinned first, optionally in one folder."),
		mcp.WithNumber("folder_id", mcp.Description("Optional folder id")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Id of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Return the knowledge graph (nodes and link edges) as JSON."),
	), s.getGraph)

	s.mcp.AddResource(
		mcp.NewResource(linkSyntaxURI, "Link Syntax",
			mcp.WithResourceDescription("How notes reference each other."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) scoped(ctx context.Context) context.Context {
	return tenant.WithIdentity(ctx, s.tenant)
}

func toolError(err error) *mcp.CallToolResult {
	if noteservice.IsNotFound(err) {
		return mcp.NewToolResultError("note not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// summaryLines renders one "id<TAB>title" line per note.
func summaryLines(items []models.NoteSummary) string {
	lines := make([]string, len(items))
	for i, n := range items {
		lines[i] = strconv.FormatInt(n.ID, 10) + "\t" + n.Title
	}
	return strings.Join(lines, "\n")
}

func optionalFolder(req mcp.CallToolRequest) *int64 {
	if v := req.GetInt("folder_id", 0); v > 0 {
		id := int64(v)
		return &id
	}
	return nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(s.scoped(ctx), query)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(s.scoped(ctx), int64(id))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := noteservice.NoteInput{
		Title:    title,
		Content:  content,
		FolderID: optionalFolder(req),
	}
	if tags := req.GetString("tags", ""); tags != "" {
		in.Tags = strings.Split(tags, ",")
	}

	note, err := s.svc.CreateNote(s.scoped(ctx), in)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %d", note.ID)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListNotes(s.scoped(ctx), optionalFolder(req))
	if err != nil {
		return toolError(err), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	return mcp.NewToolResultText(summaryLines(items)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(s.scoped(ctx), int64(id))
	if err != nil {
		return toolError(err), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(summaryLines(bl)), nil
}

func (s *Server) getGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := s.svc.Graph(s.scoped(ctx))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(g), nil
}

func (s *Server) getLinkSyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LinkSyntaxContract), nil
}

func (s *Server) readLinkSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      linkSyntaxURI,
			MIMEType: "text/markdown",
			Text:     LinkSyntaxContract,
		},
	}, nil
}
