package semantic

import (
	"context"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/symbols"
)

// Location is a range inside a document.
type Location struct {
	URI   string
	Range protocol.Range
}

// Resolver answers the cross-document questions refined symbols cannot answer
// from their own text. Every method may block on the analyzer. Unresolved
// lookups return a nil result and a nil error.
type Resolver interface {
	// FindDefinition returns where the entity referenced at pos is defined.
	FindDefinition(ctx context.Context, uri string, pos protocol.Position) (*Location, error)
	// SymbolAt returns the symbol whose name lies at loc.
	SymbolAt(ctx context.Context, loc Location) (*Symbol, error)
	// FindMatchingSymbols returns the symbols of targetURI that match sym, in
	// declaration order. Reopened namespaces yield one entry per block.
	FindMatchingSymbols(ctx context.Context, sym *symbols.Symbol, targetURI string) ([]*Symbol, error)
}

// FindMatchingSymbol returns the first counterpart of sym in targetURI.
func FindMatchingSymbol(ctx context.Context, r Resolver, sym *symbols.Symbol, targetURI string) (*Symbol, error) {
	if r == nil {
		return nil, nil
	}
	matches, err := r.FindMatchingSymbols(ctx, sym, targetURI)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}
