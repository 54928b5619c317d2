// Package parser extracts note references from note bodies and derives the
// small pieces of metadata the service stores alongside them.
//
// A reference is written inline as [[<id>|<label>]], where <id> is a base-10
// positive integer and <label> is any text without ']'. This syntax is part
// of persisted note content and must not change.
package parser

import (
	"iter"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var linkRe = regexp.MustCompile(`\[\[(\d+)\|([^\]]+)\]\]`)

// Reference is one [[id|label]] occurrence.
type Reference struct {
	TargetID int64
	Label    string
}

// Links lazily yields every reference in body, left to right, without
// overlap. Occurrences whose id does not parse as a positive int64 are
// skipped. The returned sequence holds no state and may be ranged over any
// number of times.
func Links(body string) iter.Seq[Reference] {
	return func(yield func(Reference) bool) {
		rest := body
		for rest != "" {
			loc := linkRe.FindStringSubmatchIndex(rest)
			if loc == nil {
				return
			}
			idText, label := rest[loc[2]:loc[3]], rest[loc[4]:loc[5]]
			rest = rest[loc[1]:]

			id, err := strconv.ParseInt(idText, 10, 64)
			if err != nil || id <= 0 {
				continue
			}
			if !yield(Reference{TargetID: id, Label: label}) {
				return
			}
		}
	}
}

// References reports whether body holds at least one reference to target.
func References(body string, target int64) bool {
	for ref := range Links(body) {
		if ref.TargetID == target {
			return true
		}
	}
	return false
}

// LinkPrefix is the literal FormatLink starts a reference to id with.
func LinkPrefix(id int64) string {
	return "[[" + strconv.FormatInt(id, 10) + "|"
}

// Needle is a literal contained in every reference to id, including ones
// written with leading zeros such as [[007|x]]. It is only good for a coarse
// textual pre-filter; the final decision belongs to Links.
func Needle(id int64) string {
	return strconv.FormatInt(id, 10) + "|"
}

// FormatLink renders a reference to id. Closing brackets in the label would
// end the reference early, so they are dropped.
func FormatLink(id int64, label string) string {
	label = strings.ReplaceAll(label, "]", "")
	if label == "" {
		label = strconv.FormatInt(id, 10)
	}
	return LinkPrefix(id) + label + "]]"
}

// Excerpt returns up to max runes of body as plain text: references are
// rendered as their labels, heading markers dropped and whitespace collapsed.
func Excerpt(body string, max int) string {
	plain := linkRe.ReplaceAllString(body, "$2")

	var words []string
	for _, line := range strings.Split(plain, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "#")
		words = append(words, strings.Fields(line)...)
	}
	out := strings.Join(words, " ")

	if max <= 0 || utf8.RuneCountInString(out) <= max {
		return out
	}
	runes := []rune(out)
	return strings.TrimSpace(string(runes[:max]))
}

// NormalizeTags trims tags, drops empty ones and removes duplicates while
// keeping first-seen order. The result is never nil.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
