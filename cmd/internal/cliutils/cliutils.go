// Package cliutils wires configuration, analyzers and the workspace together
// for the command line.
package cliutils

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/lexcodex/cppsynth/framework/actions"
	"github.com/lexcodex/cppsynth/framework/config"
	"github.com/lexcodex/cppsynth/persistence"
	"github.com/lexcodex/cppsynth/tools"
)

// AnalyzerDescriptor captures how to start an analyzer.
type AnalyzerDescriptor struct {
	ID      string
	Factory func(ctx context.Context, root string, cfg *config.Config) (tools.Analyzer, error)
}

var analyzerDescriptors = map[string]AnalyzerDescriptor{}

func init() {
	addDescriptor([]string{"clangd", "clang", "lsp"}, AnalyzerDescriptor{
		ID: "clangd",
		Factory: func(ctx context.Context, root string, cfg *config.Config) (tools.Analyzer, error) {
			return tools.NewClangdClient(ctx, cfg.Analyzer.ClangdPath, cfg.Analyzer.ClangdArgs, root, cfg.Analyzer.Timeout)
		},
	})
	addDescriptor([]string{"treesitter", "tree-sitter", "ts"}, AnalyzerDescriptor{
		ID: "treesitter",
		Factory: func(context.Context, string, *config.Config) (tools.Analyzer, error) {
			return tools.NewTreeSitterAnalyzer(), nil
		},
	})
}

func addDescriptor(keys []string, desc AnalyzerDescriptor) {
	for _, key := range keys {
		analyzerDescriptors[strings.ToLower(key)] = desc
	}
}

// LookupAnalyzer finds the descriptor for a name or alias.
func LookupAnalyzer(name string) (AnalyzerDescriptor, bool) {
	desc, ok := analyzerDescriptors[strings.ToLower(name)]
	return desc, ok
}

// SupportedAnalyzers lists the known names and aliases.
func SupportedAnalyzers() []string {
	keys := make([]string, 0, len(analyzerDescriptors))
	for key := range analyzerDescriptors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Env is everything one CLI invocation needs.
type Env struct {
	Root      string
	Config    *config.Config
	Analyzer  tools.Analyzer
	Proxy     *tools.Proxy
	Workspace *tools.Workspace
	Session   *actions.Session

	store   *persistence.SymbolStore
	matches *tools.MatchCache
}

// Options selects the workspace and overrides configuration.
type Options struct {
	Root       string
	ConfigFile string
	// Analyzer overrides analyzer.name when set.
	Analyzer string
}

// Open loads configuration, starts the analyzer and builds the workspace.
// Close must be called to stop the analyzer.
func Open(ctx context.Context, opts Options) (*Env, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	cfg, err := config.NewLoader(root, opts.ConfigFile).Load()
	if err != nil {
		return nil, err
	}
	name := cfg.Analyzer.Name
	if opts.Analyzer != "" {
		name = opts.Analyzer
	}
	desc, ok := LookupAnalyzer(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", config.ErrInvalidAnalyzer, name, strings.Join(SupportedAnalyzers(), ", "))
	}

	env := &Env{Root: root, Config: cfg}
	if env.Proxy, err = tools.NewProxy(cfg.Cache.TTL, cfg.Cache.Capacity); err != nil {
		return nil, err
	}
	if env.Analyzer, err = desc.Factory(ctx, root, cfg); err != nil {
		env.Close()
		return nil, fmt.Errorf("start %s: %w", desc.ID, err)
	}
	env.Proxy.RegisterPatterns(cfg.Pairing.HeaderExtensions, env.Analyzer)
	env.Proxy.RegisterPatterns(cfg.Pairing.SourceExtensions, env.Analyzer)

	if path := cfg.Cache.SymbolStore; path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if env.store, err = persistence.NewSymbolStore(path); err != nil {
			env.Close()
			return nil, err
		}
		env.Proxy.SetStore(env.store)
	}

	if env.matches, err = tools.NewMatchCache(cfg.Cache.Capacity, cfg.Cache.TTL); err != nil {
		env.Close()
		return nil, err
	}
	pairer, err := tools.NewPairer(root, cfg.Pairing.HeaderExtensions, cfg.Pairing.SourceExtensions, cfg.Pairing.SearchDepth, env.matches)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Workspace = tools.NewWorkspace(env.Proxy, pairer)
	env.Session = actions.NewSession(env.Workspace, cfg)
	return env, nil
}

// Close stops the analyzer and releases caches.
func (e *Env) Close() error {
	var err error
	if e.Proxy != nil {
		err = e.Proxy.Close()
	} else if e.Analyzer != nil {
		err = e.Analyzer.Close()
	}
	e.matches.Close()
	if e.store != nil {
		if cerr := e.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ParsePosition parses a 1-based "line:col" into a protocol position. The
// column defaults to 1.
func ParsePosition(s string) (protocol.Position, error) {
	lineText, colText, hasCol := strings.Cut(s, ":")
	line, err := strconv.Atoi(lineText)
	if err != nil || line < 1 {
		return protocol.Position{}, fmt.Errorf("invalid position %q: want line:col", s)
	}
	col := 1
	if hasCol {
		if col, err = strconv.Atoi(colText); err != nil || col < 1 {
			return protocol.Position{}, fmt.Errorf("invalid column in %q", s)
		}
	}
	return protocol.Position{Line: uint32(line - 1), Character: uint32(col - 1)}, nil
}
