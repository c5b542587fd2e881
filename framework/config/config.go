// Package config holds the options that steer synthesis: naming
// conventions, brace placement, where definitions go and how the external
// analyzer is reached.
package config

import (
	"time"

	"github.com/lexcodex/cppsynth/framework/synth"
)

// DefinitionLocation selects where new function definitions are written.
type DefinitionLocation string

const (
	// Inline defines the function inside the class body.
	Inline DefinitionLocation = "inline"
	// CurrentFile defines it after the class in the same file.
	CurrentFile DefinitionLocation = "current-file"
	// PairedFile defines it in the matching source file.
	PairedFile DefinitionLocation = "paired-file"
)

// Config is the complete cppsynth configuration. It is loaded from
// .cppsynth/config.yaml with CPPSYNTH_* environment overrides.
type Config struct {
	Naming   NamingConfig   `yaml:"naming" mapstructure:"naming"`
	Format   FormatConfig   `yaml:"format" mapstructure:"format"`
	Pairing  PairingConfig  `yaml:"pairing" mapstructure:"pairing"`
	Analyzer AnalyzerConfig `yaml:"analyzer" mapstructure:"analyzer"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
}

// NamingConfig configures accessor names.
type NamingConfig struct {
	Case           string   `yaml:"case" mapstructure:"case"` // snake_case, camelCase or PascalCase
	GetterPrefix   string   `yaml:"getter_prefix" mapstructure:"getter_prefix"`
	SetterPrefix   string   `yaml:"setter_prefix" mapstructure:"setter_prefix"`
	BoolPrefix     string   `yaml:"bool_prefix" mapstructure:"bool_prefix"`
	UseBoolPrefix  bool     `yaml:"use_bool_prefix" mapstructure:"use_bool_prefix"`
	BareGetters    bool     `yaml:"bare_getters" mapstructure:"bare_getters"`
	MemberPrefixes []string `yaml:"member_prefixes" mapstructure:"member_prefixes"`
	MemberSuffixes []string `yaml:"member_suffixes" mapstructure:"member_suffixes"`
}

// FormatConfig configures generated text layout.
type FormatConfig struct {
	BraceStyle         string `yaml:"brace_style" mapstructure:"brace_style"`                   // same-line or new-line
	AccessorBraceStyle string `yaml:"accessor_brace_style" mapstructure:"accessor_brace_style"` // same-line, new-line or compact
	DefinitionLocation string `yaml:"definition_location" mapstructure:"definition_location"`
	// AccessorLocation places accessor definitions; defaults to inline.
	AccessorLocation string `yaml:"accessor_location" mapstructure:"accessor_location"`
}

// PairingConfig configures header/source matching.
type PairingConfig struct {
	HeaderExtensions []string `yaml:"header_extensions" mapstructure:"header_extensions"` // glob patterns
	SourceExtensions []string `yaml:"source_extensions" mapstructure:"source_extensions"`
	// SearchDepth bounds how many parent directories are searched.
	SearchDepth int `yaml:"search_depth" mapstructure:"search_depth"`
}

// AnalyzerConfig selects the symbol provider.
type AnalyzerConfig struct {
	Name       string        `yaml:"name" mapstructure:"name"` // clangd or treesitter
	ClangdPath string        `yaml:"clangd_path" mapstructure:"clangd_path"`
	ClangdArgs []string      `yaml:"clangd_args" mapstructure:"clangd_args"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig configures in-memory and on-disk caches.
type CacheConfig struct {
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Capacity int           `yaml:"capacity" mapstructure:"capacity"`
	// SymbolStore is the sqlite file for analyzer responses; empty disables
	// the store.
	SymbolStore string `yaml:"symbol_store" mapstructure:"symbol_store"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Naming: NamingConfig{
			Case:           string(synth.SnakeCase),
			GetterPrefix:   "get",
			SetterPrefix:   "set",
			BoolPrefix:     "is",
			UseBoolPrefix:  true,
			MemberPrefixes: []string{"m_", "s_", "_"},
			MemberSuffixes: []string{"_"},
		},
		Format: FormatConfig{
			BraceStyle:         string(synth.NewLine),
			AccessorBraceStyle: string(synth.Compact),
			DefinitionLocation: string(PairedFile),
			AccessorLocation:   string(Inline),
		},
		Pairing: PairingConfig{
			HeaderExtensions: []string{"*.h", "*.hh", "*.hpp", "*.hxx", "*.h++"},
			SourceExtensions: []string{"*.c", "*.cc", "*.cpp", "*.cxx", "*.c++"},
			SearchDepth:      2,
		},
		Analyzer: AnalyzerConfig{
			Name:       "clangd",
			ClangdPath: "clangd",
			ClangdArgs: []string{"--background-index=false"},
			Timeout:    10 * time.Second,
		},
		Cache: CacheConfig{
			TTL:      5 * time.Minute,
			Capacity: 1024,
		},
	}
}

// SynthNaming converts the naming section for the synthesizer.
func (c *Config) SynthNaming() synth.Naming {
	n := c.Naming
	return synth.Naming{
		Case:           synth.CaseStyle(n.Case),
		GetterPrefix:   n.GetterPrefix,
		SetterPrefix:   n.SetterPrefix,
		BoolPrefix:     n.BoolPrefix,
		UseBoolPrefix:  n.UseBoolPrefix,
		BareGetters:    n.BareGetters,
		MemberPrefixes: append([]string(nil), n.MemberPrefixes...),
		MemberSuffixes: append([]string(nil), n.MemberSuffixes...),
	}
}

// BraceStyle is the brace style for function definitions.
func (c *Config) BraceStyle() synth.BraceStyle { return synth.BraceStyle(c.Format.BraceStyle) }

// AccessorBraceStyle is the brace style for accessor definitions.
func (c *Config) AccessorBraceStyle() synth.BraceStyle {
	return synth.BraceStyle(c.Format.AccessorBraceStyle)
}

// DefinitionLocation is where function definitions go.
func (c *Config) DefinitionLocation() DefinitionLocation {
	return DefinitionLocation(c.Format.DefinitionLocation)
}

// AccessorLocation is where accessor definitions go.
func (c *Config) AccessorLocation() DefinitionLocation {
	return DefinitionLocation(c.Format.AccessorLocation)
}
