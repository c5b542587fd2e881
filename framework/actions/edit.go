package actions

import (
	"sort"

	"go.lsp.dev/protocol"
)

// Edit replaces Length bytes at Offset of the document at URI with Text. A
// zero Length is an insertion.
type Edit struct {
	URI      string            `json:"uri"`
	Offset   int               `json:"offset"`
	Length   int               `json:"length,omitempty"`
	Position protocol.Position `json:"position"`
	Text     string            `json:"text"`
}

// EditSet is the result of one operation. It is applied as a unit or not at
// all.
type EditSet struct {
	Description string `json:"description"`
	Edits       []Edit `json:"edits"`
}

// URIs lists the documents touched by the set, in first-edit order.
func (s *EditSet) URIs() []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range s.Edits {
		if !seen[e.URI] {
			seen[e.URI] = true
			out = append(out, e.URI)
		}
	}
	return out
}

// For returns the edits targeting uri in set order.
func (s *EditSet) For(uri string) []Edit {
	var out []Edit
	for _, e := range s.Edits {
		if e.URI == uri {
			out = append(out, e)
		}
	}
	return out
}

// ApplyToText applies edits to text. Edits at the same offset keep their
// relative order in the result.
func ApplyToText(text string, edits []Edit) string {
	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := edits[order[a]], edits[order[b]]
		if ea.Offset != eb.Offset {
			return ea.Offset > eb.Offset
		}
		return order[a] > order[b]
	})
	for _, i := range order {
		e := edits[i]
		start := min(max(e.Offset, 0), len(text))
		end := min(start+e.Length, len(text))
		text = text[:start] + e.Text + text[end:]
	}
	return text
}
