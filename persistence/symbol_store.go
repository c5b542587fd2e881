package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.lsp.dev/protocol"
)

// SymbolStore keeps analyzer symbol responses in a SQLite database, keyed by
// file path and content hash. Only the newest hash of a path is kept.
type SymbolStore struct {
	db *sql.DB
}

// NewSymbolStore opens or creates the database at dbPath.
func NewSymbolStore(dbPath string) (*SymbolStore, error) {
	if dbPath == "" {
		return nil, errors.New("symbol store path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	store := &SymbolStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("symbol store schema: %w", err)
	}
	return store, nil
}

func (s *SymbolStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS document_symbols (
		path TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		symbols TEXT NOT NULL,
		indexed_at TIMESTAMP,
		PRIMARY KEY(path, content_hash)
	);
	CREATE INDEX IF NOT EXISTS idx_document_symbols_indexed ON document_symbols(indexed_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *SymbolStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadSymbols returns the symbols stored for path at hash. The boolean is
// false when nothing is stored.
func (s *SymbolStore) LoadSymbols(path, hash string) ([]protocol.DocumentSymbol, bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT symbols FROM document_symbols WHERE path = ? AND content_hash = ?`, path, hash).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var syms []protocol.DocumentSymbol
	if err := json.Unmarshal([]byte(raw), &syms); err != nil {
		return nil, false, fmt.Errorf("decode symbols of %s: %w", path, err)
	}
	return syms, true, nil
}

// SaveSymbols stores syms for path at hash and drops older versions of path.
func (s *SymbolStore) SaveSymbols(path, hash string, syms []protocol.DocumentSymbol) error {
	if syms == nil {
		syms = []protocol.DocumentSymbol{}
	}
	data, err := json.Marshal(syms)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM document_symbols WHERE path = ? AND content_hash != ?`, path, hash); err != nil {
		tx.Rollback()
		return err
	}
	_, err = tx.Exec(`
	INSERT INTO document_symbols (path, content_hash, symbols, indexed_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(path, content_hash) DO UPDATE SET
		symbols=excluded.symbols,
		indexed_at=excluded.indexed_at
	`, path, hash, string(data), time.Now().UTC())
	if err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Prune removes entries indexed before cutoff and reports how many.
func (s *SymbolStore) Prune(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM document_symbols WHERE indexed_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of stored documents.
func (s *SymbolStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM document_symbols`).Scan(&n)
	return n, err
}
