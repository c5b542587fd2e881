package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/maypok86/otter"
	"github.com/tliron/commonlog"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/document"
)

// ErrNoAnalyzer is returned for a file no analyzer is registered for.
var ErrNoAnalyzer = errors.New("no analyzer for file")

// Analyzer supplies the coarse symbol information the engine refines.
type Analyzer interface {
	// DocumentSymbols returns the hierarchical symbols of doc.
	DocumentSymbols(ctx context.Context, doc *document.Document) ([]protocol.DocumentSymbol, error)
	// Definition returns the definitions of the entity referenced at pos.
	Definition(ctx context.Context, uri string, pos protocol.Position) ([]protocol.Location, error)
	Close() error
}

// SymbolStore persists analyzer responses across runs.
type SymbolStore interface {
	LoadSymbols(path, hash string) ([]protocol.DocumentSymbol, bool, error)
	SaveSymbols(path, hash string, syms []protocol.DocumentSymbol) error
}

// ContentHash identifies a document version.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Proxy routes requests to the analyzer registered for a file extension and
// caches symbol responses by content.
type Proxy struct {
	mu        sync.RWMutex
	analyzers map[string]Analyzer
	cache     otter.Cache[string, []protocol.DocumentSymbol]
	store     SymbolStore
	log       commonlog.Logger
}

// NewProxy creates a proxy whose symbol cache holds capacity documents for
// ttl.
func NewProxy(ttl time.Duration, capacity int) (*Proxy, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if capacity <= 0 {
		capacity = 256
	}
	cache, err := otter.MustBuilder[string, []protocol.DocumentSymbol](capacity).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("symbol cache: %w", err)
	}
	return &Proxy{
		analyzers: make(map[string]Analyzer),
		cache:     cache,
		log:       commonlog.GetLogger("cppsynth.tools"),
	}, nil
}

// Register registers an analyzer for an extension, with or without the dot.
func (p *Proxy) Register(ext string, a Analyzer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.analyzers[strings.TrimPrefix(ext, ".")] = a
}

// RegisterPatterns registers a for every "*.ext" pattern.
func (p *Proxy) RegisterPatterns(patterns []string, a Analyzer) {
	for _, pattern := range patterns {
		if ext, ok := strings.CutPrefix(pattern, "*."); ok && !strings.ContainsAny(ext, "*?[{") {
			p.Register(ext, a)
		}
	}
}

// SetStore attaches a persistent store behind the in-memory cache.
func (p *Proxy) SetStore(s SymbolStore) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store = s
}

func (p *Proxy) analyzerFor(uri string) (Analyzer, error) {
	ext := strings.TrimPrefix(filepath.Ext(document.PathFromURI(uri)), ".")
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.analyzers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAnalyzer, uri)
	}
	return a, nil
}

// DocumentSymbols returns the symbols of doc from the cache, the store or the
// analyzer, in that order.
func (p *Proxy) DocumentSymbols(ctx context.Context, doc *document.Document) ([]protocol.DocumentSymbol, error) {
	a, err := p.analyzerFor(doc.URI())
	if err != nil {
		return nil, err
	}
	hash := ContentHash(doc.Text())
	key := doc.URI() + "@" + hash
	if syms, ok := p.cache.Get(key); ok {
		p.log.Debugf("symbol cache hit: %s", doc.URI())
		return syms, nil
	}

	p.mu.RLock()
	store := p.store
	p.mu.RUnlock()
	if store != nil {
		syms, ok, err := store.LoadSymbols(doc.Path(), hash)
		if err != nil {
			p.log.Warningf("symbol store: %s", err)
		} else if ok {
			p.log.Debugf("symbol store hit: %s", doc.URI())
			p.cache.Set(key, syms)
			return syms, nil
		}
	}

	p.log.Debugf("symbol cache miss: %s", doc.URI())
	syms, err := a.DocumentSymbols(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("document symbols of %s: %w", doc.URI(), err)
	}
	p.cache.Set(key, syms)
	if store != nil {
		if err := store.SaveSymbols(doc.Path(), hash, syms); err != nil {
			p.log.Warningf("symbol store: %s", err)
		}
	}
	return syms, nil
}

// Definition forwards a definition lookup. Results are not cached since
// they depend on other documents.
func (p *Proxy) Definition(ctx context.Context, uri string, pos protocol.Position) ([]protocol.Location, error) {
	a, err := p.analyzerFor(uri)
	if err != nil {
		return nil, err
	}
	return a.Definition(ctx, uri, pos)
}

// Close shuts down every registered analyzer once.
func (p *Proxy) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	seen := map[Analyzer]bool{}
	var errs []error
	for _, a := range p.analyzers {
		if seen[a] {
			continue
		}
		seen[a] = true
		errs = append(errs, a.Close())
	}
	p.analyzers = map[string]Analyzer{}
	p.cache.Close()
	return errors.Join(errs...)
}
