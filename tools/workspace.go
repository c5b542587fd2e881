package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/tliron/commonlog"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/actions"
	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/semantic"
	"github.com/lexcodex/cppsynth/framework/symbols"
)

// SymbolSource supplies analyzer results to a Workspace. *Proxy implements
// it.
type SymbolSource interface {
	DocumentSymbols(ctx context.Context, doc *document.Document) ([]protocol.DocumentSymbol, error)
	Definition(ctx context.Context, uri string, pos protocol.Position) ([]protocol.Location, error)
}

type loaded struct {
	tree *symbols.Tree
	src  *semantic.Source
}

// Workspace serves documents from disk with symbols from an analyzer. It
// implements actions.Workspace.
type Workspace struct {
	source SymbolSource
	pairer *Pairer
	log    commonlog.Logger

	mu   sync.Mutex
	docs map[string]*loaded
}

var _ actions.Workspace = (*Workspace)(nil)

// NewWorkspace creates a workspace. A nil pairer disables pairing.
func NewWorkspace(source SymbolSource, pairer *Pairer) *Workspace {
	return &Workspace{
		source: source,
		pairer: pairer,
		log:    commonlog.GetLogger("cppsynth.tools"),
		docs:   make(map[string]*loaded),
	}
}

// Symbols loads the document at uri and returns its symbol tree. Trees are
// kept until Invalidate.
func (w *Workspace) Symbols(ctx context.Context, uri string) (*symbols.Tree, error) {
	l, err := w.load(ctx, uri)
	if err != nil {
		return nil, err
	}
	return l.tree, nil
}

func (w *Workspace) load(ctx context.Context, uri string) (*loaded, error) {
	w.mu.Lock()
	l, ok := w.docs[uri]
	w.mu.Unlock()
	if ok {
		return l, nil
	}
	data, err := os.ReadFile(document.PathFromURI(uri))
	if err != nil {
		return nil, err
	}
	doc := document.New(uri, string(data))
	raw, err := w.source.DocumentSymbols(ctx, doc)
	if err != nil {
		return nil, err
	}
	l = &loaded{tree: symbols.Build(doc, raw), src: semantic.NewSource(doc)}
	w.mu.Lock()
	w.docs[uri] = l
	w.mu.Unlock()
	return l, nil
}

// Invalidate drops the cached tree of uri.
func (w *Workspace) Invalidate(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, uri)
}

// Source returns the cached masked views of tree. A tree the workspace did
// not load, or has since dropped, gets fresh ones.
func (w *Workspace) Source(tree *symbols.Tree) *semantic.Source {
	w.mu.Lock()
	l, ok := w.docs[tree.URI()]
	w.mu.Unlock()
	if ok && l.tree == tree {
		return l.src
	}
	return semantic.NewSource(tree.Document())
}

// PairedURI returns the header or source counterpart of uri, or "".
func (w *Workspace) PairedURI(_ context.Context, uri string) (string, error) {
	if w.pairer == nil {
		return "", nil
	}
	path, err := w.pairer.FindPairedFile(document.PathFromURI(uri))
	if err != nil || path == "" {
		return "", err
	}
	return document.URIFromPath(path), nil
}

// IsHeader reports whether uri names a header.
func (w *Workspace) IsHeader(uri string) bool {
	return w.pairer != nil && w.pairer.IsHeader(document.PathFromURI(uri))
}

// FindDefinition returns the first definition the analyzer reports.
func (w *Workspace) FindDefinition(ctx context.Context, uri string, pos protocol.Position) (*semantic.Location, error) {
	locs, err := w.source.Definition(ctx, uri, pos)
	if err != nil {
		if errors.Is(err, ErrNoAnalyzer) {
			return nil, nil
		}
		return nil, err
	}
	if len(locs) == 0 {
		return nil, nil
	}
	return &semantic.Location{URI: string(locs[0].URI), Range: locs[0].Range}, nil
}

// SymbolAt returns the symbol named at loc.
func (w *Workspace) SymbolAt(ctx context.Context, loc semantic.Location) (*semantic.Symbol, error) {
	l, err := w.load(ctx, loc.URI)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sym := l.tree.NameAt(loc.Range.Start)
	if sym == nil {
		sym = l.tree.At(loc.Range.Start)
	}
	if sym == nil {
		return nil, nil
	}
	return semantic.New(sym, l.src), nil
}

// FindMatchingSymbols returns the symbols of targetURI matching sym. A
// target that does not exist has no matches.
func (w *Workspace) FindMatchingSymbols(ctx context.Context, sym *symbols.Symbol, targetURI string) ([]*semantic.Symbol, error) {
	l, err := w.load(ctx, targetURI)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []*semantic.Symbol
	for _, m := range l.tree.FindMatching(sym) {
		out = append(out, semantic.New(m, l.src))
	}
	return out, nil
}

// Apply writes the edit set to disk atomically. Every touched document must
// still have the content the edits were computed against.
func (w *Workspace) Apply(set *actions.EditSet) error {
	contents := make(map[string]string)
	for _, uri := range set.URIs() {
		path := document.PathFromURI(uri)
		w.mu.Lock()
		l, ok := w.docs[uri]
		w.mu.Unlock()
		if !ok {
			return fmt.Errorf("%s was not loaded", uri)
		}
		current, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if string(current) != l.tree.Document().Text() {
			return fmt.Errorf("%s changed on disk", path)
		}
		contents[path] = actions.ApplyToText(string(current), set.For(uri))
	}
	if err := WriteFiles(contents); err != nil {
		return err
	}
	for _, uri := range set.URIs() {
		w.Invalidate(uri)
		w.log.Infof("wrote %s", document.PathFromURI(uri))
	}
	return nil
}
