package actions

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/semantic"
	"github.com/lexcodex/cppsynth/framework/symbols"
)

type node struct {
	name     string
	kind     protocol.SymbolKind
	from, to string
	children []node
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
		sel := strings.Index(text[start:end], n.name)
		require.GreaterOrEqual(t, sel, 0, "selection %q", n.name)
		sel += start
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

// fakeWorkspace serves fixed documents. Headers end in ".h".
type fakeWorkspace struct {
	trees   map[string]*symbols.Tree
	sources map[*symbols.Tree]*semantic.Source
	paired  map[string]string
}

func newWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		trees:   map[string]*symbols.Tree{},
		sources: map[*symbols.Tree]*semantic.Source{},
		paired:  map[string]string{},
	}
}

func (w *fakeWorkspace) add(t *testing.T, uri, text string, nodes ...node) *symbols.Tree {
	t.Helper()
	doc := document.New(uri, text)
	tree := symbols.Build(doc, convert(t, doc, 0, nodes))
	w.trees[uri] = tree
	w.sources[tree] = semantic.NewSource(doc)
	return tree
}

func (w *fakeWorkspace) Source(tree *symbols.Tree) *semantic.Source {
	if src, ok := w.sources[tree]; ok {
		return src
	}
	return semantic.NewSource(tree.Document())
}

func (w *fakeWorkspace) pair(a, b string) {
	w.paired[a] = b
	w.paired[b] = a
}

func (w *fakeWorkspace) Symbols(_ context.Context, uri string) (*symbols.Tree, error) {
	tree, ok := w.trees[uri]
	if !ok {
		return nil, fmt.Errorf("unknown document %s", uri)
	}
	return tree, nil
}

func (w *fakeWorkspace) PairedURI(_ context.Context, uri string) (string, error) {
	return w.paired[uri], nil
}

func (w *fakeWorkspace) IsHeader(uri string) bool { return strings.HasSuffix(uri, ".h") }

func (w *fakeWorkspace) FindDefinition(_ context.Context, uri string, pos protocol.Position) (*semantic.Location, error) {
	tree, ok := w.trees[uri]
	if !ok {
		return nil, nil
	}
	doc := tree.Document()
	text, offset := doc.Text(), doc.OffsetAt(pos)
	start, end := offset, offset
	for start > 0 && isIdent(text[start-1]) {
		start--
	}
	for end < len(text) && isIdent(text[end]) {
		end++
	}
	word := text[start:end]
	for _, candidate := range w.trees {
		var hit *symbols.Symbol
		candidate.Walk(func(s *symbols.Symbol) bool {
			if hit == nil && s.Name == word && s.Kind.IsType() {
				hit = s
			}
			return true
		})
		if hit != nil {
			return &semantic.Location{URI: candidate.URI(), Range: hit.NameRange}, nil
		}
	}
	return nil, nil
}

func (w *fakeWorkspace) SymbolAt(_ context.Context, loc semantic.Location) (*semantic.Symbol, error) {
	tree, ok := w.trees[loc.URI]
	if !ok {
		return nil, nil
	}
	sym := tree.NameAt(loc.Range.Start)
	if sym == nil {
		return nil, nil
	}
	return semantic.New(sym, w.Source(tree)), nil
}

func (w *fakeWorkspace) FindMatchingSymbols(_ context.Context, sym *symbols.Symbol, uri string) ([]*semantic.Symbol, error) {
	tree, ok := w.trees[uri]
	if !ok {
		return nil, nil
	}
	src := w.Source(tree)
	var out []*semantic.Symbol
	for _, m := range tree.FindMatching(sym) {
		out = append(out, semantic.New(m, src))
	}
	return out, nil
}

func isIdent(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// at returns the position of the first occurrence of needle in the tree.
func at(t *testing.T, tree *symbols.Tree, needle string) protocol.Position {
	t.Helper()
	i := strings.Index(tree.Document().Text(), needle)
	require.GreaterOrEqual(t, i, 0, "needle %q", needle)
	return tree.Document().PositionAt(i)
}

// apply returns the text of uri after the set's edits.
func apply(t *testing.T, w *fakeWorkspace, set *EditSet, uri string) string {
	t.Helper()
	tree, ok := w.trees[uri]
	require.True(t, ok, uri)
	return ApplyToText(tree.Document().Text(), set.For(uri))
}
