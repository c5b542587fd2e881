package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/cppsynth/framework/synth"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, synth.DefaultNaming(), cfg.SynthNaming())
	assert.Equal(t, synth.NewLine, cfg.BraceStyle())
	assert.Equal(t, synth.Compact, cfg.AccessorBraceStyle())
	assert.Equal(t, PairedFile, cfg.DefinitionLocation())
	assert.Equal(t, Inline, cfg.AccessorLocation())
	assert.Equal(t, "clangd", cfg.Analyzer.Name)
}

func TestLoadUsesDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesFileWithDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, Dir), 0o755))
	yml := `naming:
  case: camelCase
  member_prefixes: [m]
format:
  brace_style: same-line
cache:
  ttl: 30s
`
	require.NoError(t, os.WriteFile(Path(dir), []byte(yml), 0o644))

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "camelCase", cfg.Naming.Case)
	assert.Equal(t, []string{"m"}, cfg.Naming.MemberPrefixes)
	assert.Equal(t, "get", cfg.Naming.GetterPrefix)
	assert.Equal(t, synth.SameLine, cfg.BraceStyle())
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, Dir), 0o755))
	require.NoError(t, os.WriteFile(Path(dir), []byte("naming:\n  case: camelCase\n"), 0o644))
	t.Setenv("CPPSYNTH_NAMING_CASE", "PascalCase")
	t.Setenv("CPPSYNTH_ANALYZER_NAME", "treesitter")

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "PascalCase", cfg.Naming.Case)
	assert.Equal(t, "treesitter", cfg.Analyzer.Name)
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format:\n  definition_location: inline\n"), 0o644))

	cfg, err := NewLoader(t.TempDir(), path).Load()
	require.NoError(t, err)
	assert.Equal(t, Inline, cfg.DefinitionLocation())

	cfg, err = NewLoader(t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, PairedFile, cfg.DefinitionLocation())
}

func TestLoadRejectsMalformedAndInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, Dir), 0o755))

	require.NoError(t, os.WriteFile(Path(dir), []byte("naming: [unclosed\n"), 0o644))
	_, err := LoadFromDir(dir)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(Path(dir), []byte("naming:\n  case: kebab-case\n"), 0o644))
	_, err = LoadFromDir(dir)
	require.ErrorIs(t, err, ErrInvalidCaseStyle)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Format.BraceStyle = "compact"
	cfg.Format.DefinitionLocation = "elsewhere"
	cfg.Analyzer.Name = "ctags"
	cfg.Cache.Capacity = -1
	cfg.Naming.SetterPrefix = ""

	err := Validate(cfg)
	require.Error(t, err)
	for _, want := range []error{ErrInvalidBraceStyle, ErrInvalidLocation, ErrInvalidAnalyzer, ErrInvalidCacheSettings, ErrEmptyPrefix} {
		assert.ErrorIs(t, err, want)
	}
	assert.NotErrorIs(t, err, ErrInvalidCaseStyle)
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Naming.Case = string(synth.PascalCase)
	cfg.Analyzer.Timeout = 3 * time.Second
	require.NoError(t, Save(Path(dir), cfg))

	loaded, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
