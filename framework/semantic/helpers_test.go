package semantic

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/symbols"
)

// node describes an analyzer symbol by text needles. The range starts at the
// first occurrence of from after the parent's start and ends after the first
// occurrence of to (or after from when to is empty). The selection is the
// first occurrence of sel, or of name, inside the range.
type node struct {
	name     string
	kind     protocol.SymbolKind
	from, to string
	sel      string
	children []node
}

func build(t *testing.T, uri, text string, nodes ...node) *symbols.Tree {
	t.Helper()
	doc := document.New(uri, text)
	return symbols.Build(doc, convert(t, doc, 0, nodes))
}

func convert(t *testing.T, doc *document.Document, base int, nodes []node) []protocol.DocumentSymbol {
	t.Helper()
	text := doc.Text()
	var out []protocol.DocumentSymbol
	for _, n := range nodes {
		start := strings.Index(text[base:], n.from)
		require.GreaterOrEqual(t, start, 0, "range start %q", n.from)
		start += base
		end := start + len(n.from)
		if n.to != "" {
			idx := strings.Index(text[start:], n.to)
			require.GreaterOrEqual(t, idx, 0, "range end %q", n.to)
			end = start + idx + len(n.to)
		}
		sel := n.sel
		if sel == "" {
			sel = n.name
		}
		selStart := strings.Index(text[start:], sel)
		require.GreaterOrEqual(t, selStart, 0, "selection %q", sel)
		selStart += start
		out = append(out, protocol.DocumentSymbol{
			Name:           n.name,
			Kind:           n.kind,
			Range:          doc.RangeOf(document.Span{Start: start, End: end}),
			SelectionRange: doc.RangeOf(document.Span{Start: selStart, End: selStart + len(sel)}),
			Children:       convert(t, doc, start, n.children),
		})
	}
	return out
}

// find returns the first symbol named name, refined over a shared source.
func find(t *testing.T, tree *symbols.Tree, name string) *Symbol {
	t.Helper()
	var found *symbols.Symbol
	tree.Walk(func(s *symbols.Symbol) bool {
		if found == nil && s.Name == name {
			found = s
		}
		return true
	})
	require.NotNil(t, found, "symbol %q", name)
	return New(found, sourceFor(tree))
}

var sources = map[*symbols.Tree]*Source{}

func sourceFor(tree *symbols.Tree) *Source {
	if src, ok := sources[tree]; ok {
		return src
	}
	src := NewSource(tree.Document())
	sources[tree] = src
	return src
}

func offsetOf(t *testing.T, text, needle string) int {
	t.Helper()
	i := strings.Index(text, needle)
	require.GreaterOrEqual(t, i, 0, "needle %q", needle)
	return i
}

// fakeResolver resolves names by looking them up across a fixed set of trees.
type fakeResolver struct {
	trees map[string]*symbols.Tree
}

func newFakeResolver(trees ...*symbols.Tree) *fakeResolver {
	r := &fakeResolver{trees: map[string]*symbols.Tree{}}
	for _, tree := range trees {
		r.trees[tree.URI()] = tree
	}
	return r
}

func (r *fakeResolver) FindDefinition(_ context.Context, uri string, pos protocol.Position) (*Location, error) {
	tree, ok := r.trees[uri]
	if !ok {
		return nil, nil
	}
	word := wordAt(tree.Document(), tree.Document().OffsetAt(pos))
	for _, candidate := range r.trees {
		var hit *symbols.Symbol
		candidate.Walk(func(s *symbols.Symbol) bool {
			if hit == nil && s.Name == word && s.Kind.IsType() {
				hit = s
			}
			return true
		})
		if hit != nil {
			return &Location{URI: candidate.URI(), Range: hit.NameRange}, nil
		}
	}
	return nil, nil
}

func (r *fakeResolver) SymbolAt(_ context.Context, loc Location) (*Symbol, error) {
	tree, ok := r.trees[loc.URI]
	if !ok {
		return nil, nil
	}
	sym := tree.NameAt(loc.Range.Start)
	if sym == nil {
		return nil, nil
	}
	return New(sym, sourceFor(tree)), nil
}

func (r *fakeResolver) FindMatchingSymbols(_ context.Context, sym *symbols.Symbol, targetURI string) ([]*Symbol, error) {
	tree, ok := r.trees[targetURI]
	if !ok {
		return nil, nil
	}
	var out []*Symbol
	for _, m := range tree.FindMatching(sym) {
		out = append(out, New(m, sourceFor(tree)))
	}
	return out, nil
}

func wordAt(doc *document.Document, offset int) string {
	text := doc.Text()
	start, end := offset, offset
	for start > 0 && isIdent(text[start-1]) {
		start--
	}
	for end < len(text) && isIdent(text[end]) {
		end++
	}
	return text[start:end]
}
