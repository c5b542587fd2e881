package synth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/semantic"
	"github.com/lexcodex/cppsynth/framework/symbols"
)

// node describes an analyzer symbol by text needles: the range runs from the
// first from after the parent's start to the end of the first to after it.
type node struct {
	name     string
	kind     protocol.SymbolKind
	from, to string
	children []node
}

type fixture struct {
	tree *symbols.Tree
	src  *semantic.Source
}

func parse(t *testing.T, uri, text string, nodes ...node) fixture {
	t.Helper()
	doc := document.New(uri, text)
	tree := symbols.Build(doc, convert(t, doc, 0, nodes))
	return fixture{tree: tree, src: semantic.NewSource(doc)}
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
		sel := strings.Index(text[start:end], n.name) + start
		out = append(out, protocol.DocumentSymbol{
			Name:           n.name,
			Kind:           n.kind,
			Range:          doc.RangeOf(document.Span{Start: start, End: end}),
			SelectionRange: doc.RangeOf(document.Span{Start: sel, End: sel + len(n.name)}),
			Children:       convert(t, doc, start, n.children),
		})
	}
	return out
}

func (f fixture) find(t *testing.T, name string) *semantic.Symbol {
	t.Helper()
	var found *symbols.Symbol
	f.tree.Walk(func(s *symbols.Symbol) bool {
		if found == nil && s.Name == name {
			found = s
		}
		return true
	})
	require.NotNil(t, found, "symbol %q", name)
	return semantic.New(found, f.src)
}

func (f fixture) doc() *document.Document { return f.tree.Document() }

func endOf(doc *document.Document) protocol.Position {
	return doc.PositionAt(doc.Len())
}

// resolver matches symbols across a fixed set of fixtures.
type resolver map[string]fixture

func resolverOf(fixtures ...fixture) resolver {
	r := resolver{}
	for _, f := range fixtures {
		r[f.tree.URI()] = f
	}
	return r
}

func (resolver) FindDefinition(context.Context, string, protocol.Position) (*semantic.Location, error) {
	return nil, nil
}

func (resolver) SymbolAt(context.Context, semantic.Location) (*semantic.Symbol, error) {
	return nil, nil
}

func (r resolver) FindMatchingSymbols(_ context.Context, sym *symbols.Symbol, uri string) ([]*semantic.Symbol, error) {
	f, ok := r[uri]
	if !ok {
		return nil, nil
	}
	var out []*semantic.Symbol
	for _, m := range f.tree.FindMatching(sym) {
		out = append(out, semantic.New(m, f.src))
	}
	return out, nil
}
