package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/tools"
)

var _ tools.SymbolStore = (*SymbolStore)(nil)

func openStore(t *testing.T) *SymbolStore {
	t.Helper()
	store, err := NewSymbolStore(filepath.Join(t.TempDir(), "cache", "symbols.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSymbolStoreRoundTrip(t *testing.T) {
	store := openStore(t)
	syms := []protocol.DocumentSymbol{{
		Name:     "Widget",
		Kind:     protocol.SymbolKindClass,
		Range:    protocol.Range{End: protocol.Position{Line: 3, Character: 2}},
		Children: []protocol.DocumentSymbol{{Name: "count", Kind: protocol.SymbolKindMethod}},
	}}

	_, ok, err := store.LoadSymbols("/src/widget.h", "v1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveSymbols("/src/widget.h", "v1", syms))
	got, ok, err := store.LoadSymbols("/src/widget.h", "v1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Widget", got[0].Name)
	assert.Equal(t, uint32(3), got[0].Range.End.Line)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, protocol.SymbolKindMethod, got[0].Children[0].Kind)
}

func TestSymbolStoreKeepsNewestVersion(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.SaveSymbols("/src/a.h", "v1", nil))
	require.NoError(t, store.SaveSymbols("/src/b.h", "v1", nil))
	require.NoError(t, store.SaveSymbols("/src/a.h", "v2", []protocol.DocumentSymbol{{Name: "a"}}))

	_, ok, err := store.LoadSymbols("/src/a.h", "v1")
	require.NoError(t, err)
	assert.False(t, ok)
	got, ok, err := store.LoadSymbols("/src/b.h", "v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	removed, err := store.Prune(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}
