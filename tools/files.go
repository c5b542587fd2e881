package tools

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/maypok86/otter"
	ignore "github.com/sabhiram/go-gitignore"
)

var errBinaryFile = errors.New("binary file detected")

var skipDirs = map[string]bool{
	"node_modules": true,
	"build":        true,
	"out":          true,
	"third_party":  true,
}

// MatchCache remembers header/source pairings for the lifetime of a
// session. An empty value records that a file has no counterpart.
type MatchCache struct {
	cache otter.Cache[string, string]
}

// NewMatchCache creates a cache holding capacity pairings for ttl.
func NewMatchCache(capacity int, ttl time.Duration) (*MatchCache, error) {
	if capacity <= 0 {
		capacity = 256
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	c, err := otter.MustBuilder[string, string](capacity).WithTTL(ttl).Build()
	if err != nil {
		return nil, fmt.Errorf("match cache: %w", err)
	}
	return &MatchCache{cache: c}, nil
}

func (m *MatchCache) get(path string) (string, bool) {
	if m == nil {
		return "", false
	}
	return m.cache.Get(path)
}

func (m *MatchCache) set(path, match string) {
	if m == nil {
		return
	}
	m.cache.Set(path, match)
	if match != "" {
		m.cache.Set(match, path)
	}
}

// Forget drops the pairing of path, used after files are created or moved.
func (m *MatchCache) Forget(path string) {
	if m == nil {
		return
	}
	if match, ok := m.cache.Get(path); ok && match != "" {
		m.cache.Delete(match)
	}
	m.cache.Delete(path)
}

// Close releases the cache.
func (m *MatchCache) Close() {
	if m != nil {
		m.cache.Close()
	}
}

// Pairer finds the source file of a header and the header of a source file
// by base name.
type Pairer struct {
	root    string
	headers []glob.Glob
	sources []glob.Glob
	depth   int
	ignore  *ignore.GitIgnore
	cache   *MatchCache
}

// NewPairer compiles the extension patterns. Searches start in the file's
// directory and climb at most depth parents, never above root.
func NewPairer(root string, headerPatterns, sourcePatterns []string, depth int, cache *MatchCache) (*Pairer, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	p := &Pairer{root: absRoot, depth: depth, cache: cache}
	if p.headers, err = compileGlobs(headerPatterns); err != nil {
		return nil, err
	}
	if p.sources, err = compileGlobs(sourcePatterns); err != nil {
		return nil, err
	}
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(absRoot, ".gitignore")); err == nil {
		p.ignore = gi
	}
	return p, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// IsHeader reports whether path matches a header pattern.
func (p *Pairer) IsHeader(path string) bool { return matchAny(p.headers, filepath.Base(path)) }

// IsSource reports whether path matches a source pattern.
func (p *Pairer) IsSource(path string) bool { return matchAny(p.sources, filepath.Base(path)) }

// FindPairedFile returns the counterpart of path, or "" when there is none.
// Candidates in the same directory win; otherwise the candidate closest to
// path in the directory tree is chosen, ties broken by name.
func (p *Pairer) FindPairedFile(path string) (string, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if match, ok := p.cache.get(path); ok {
		return match, nil
	}
	var want []glob.Glob
	switch {
	case p.IsHeader(path):
		want = p.sources
	case p.IsSource(path):
		want = p.headers
	default:
		return "", nil
	}
	stem := stemOf(path)

	dir := filepath.Dir(path)
	match := p.inDir(dir, stem, want)
	for level := 0; match == "" && level < p.depth; level++ {
		parent := filepath.Dir(dir)
		if parent == dir || !within(p.root, parent) {
			break
		}
		dir = parent
		match = p.below(dir, path, stem, want)
	}
	p.cache.set(path, match)
	return match, nil
}

func (p *Pairer) inDir(dir, stem string, want []glob.Glob) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && stemOf(e.Name()) == stem && matchAny(want, e.Name()) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

// below searches the tree under dir, skipping hidden, vendored and
// gitignored directories.
func (p *Pairer) below(dir, from, stem string, want []glob.Glob) string {
	var candidates []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(name, ".") || skipDirs[name] || p.ignored(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if stemOf(name) == stem && matchAny(want, name) && !p.ignored(path) {
			candidates = append(candidates, path)
		}
		return nil
	})
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := distance(from, candidates[i]), distance(from, candidates[j])
		if di != dj {
			return di < dj
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0]
}

func (p *Pairer) ignored(path string) bool {
	if p.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		return false
	}
	return p.ignore.MatchesPath(filepath.ToSlash(rel))
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// distance counts the directory steps between the directories of a and b.
func distance(a, b string) int {
	pa := strings.Split(filepath.Dir(a), string(filepath.Separator))
	pb := strings.Split(filepath.Dir(b), string(filepath.Separator))
	common := 0
	for common < len(pa) && common < len(pb) && pa[common] == pb[common] {
		common++
	}
	return len(pa) - common + len(pb) - common
}

// WriteFiles replaces the content of every file in contents, all or none:
// each file is first written to a temporary sibling, then the temporaries
// are renamed over the originals. A failed rename restores the files
// already replaced.
func WriteFiles(contents map[string]string) error {
	paths := make([]string, 0, len(contents))
	for path := range contents {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	originals := make(map[string][]byte, len(paths))
	modes := make(map[string]fs.FileMode, len(paths))
	temps := make(map[string]string, len(paths))
	cleanup := func() {
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
	}
	for _, path := range paths {
		mode := fs.FileMode(0o644)
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if !isText(data) {
				cleanup()
				return fmt.Errorf("%s: %w", path, errBinaryFile)
			}
			if info, err := os.Stat(path); err == nil {
				mode = info.Mode().Perm()
			}
			originals[path] = data
		case !errors.Is(err, fs.ErrNotExist):
			cleanup()
			return err
		}
		modes[path] = mode
		tmp, err := writeTemp(path, contents[path], mode)
		if err != nil {
			cleanup()
			return err
		}
		temps[path] = tmp
	}

	for i, path := range paths {
		if err := os.Rename(temps[path], path); err != nil {
			for _, done := range paths[:i] {
				if data, ok := originals[done]; ok {
					_ = os.WriteFile(done, data, modes[done])
				} else {
					_ = os.Remove(done)
				}
			}
			for _, pending := range paths[i:] {
				_ = os.Remove(temps[pending])
			}
			return fmt.Errorf("replace %s: %w", path, err)
		}
	}
	return nil
}

func writeTemp(path, content string, mode fs.FileMode) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	if err := os.Chmod(name, mode); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func isText(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return true
}
