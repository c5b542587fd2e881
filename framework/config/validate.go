package config

import (
	"errors"
	"fmt"

	"github.com/lexcodex/cppsynth/framework/synth"
)

var (
	// ErrInvalidCaseStyle indicates an unknown naming case style.
	ErrInvalidCaseStyle = errors.New("invalid case style")
	// ErrInvalidBraceStyle indicates an unknown brace style.
	ErrInvalidBraceStyle = errors.New("invalid brace style")
	// ErrInvalidLocation indicates an unknown definition location.
	ErrInvalidLocation = errors.New("invalid definition location")
	// ErrInvalidAnalyzer indicates an unknown analyzer name.
	ErrInvalidAnalyzer = errors.New("invalid analyzer")
	// ErrEmptyPrefix indicates a missing getter or setter prefix.
	ErrEmptyPrefix = errors.New("empty accessor prefix")
	// ErrInvalidCacheSettings indicates negative cache limits.
	ErrInvalidCacheSettings = errors.New("invalid cache settings")
	// ErrEmptyExtensions indicates a pairing section without patterns.
	ErrEmptyExtensions = errors.New("empty extension patterns")
)

// Validate checks every section and reports all problems at once.
func Validate(cfg *Config) error {
	var errs []error

	if !synth.CaseStyle(cfg.Naming.Case).Valid() {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidCaseStyle, cfg.Naming.Case))
	}
	if cfg.Naming.GetterPrefix == "" && !cfg.Naming.BareGetters {
		errs = append(errs, fmt.Errorf("%w: getter_prefix is required unless bare_getters is set", ErrEmptyPrefix))
	}
	if cfg.Naming.SetterPrefix == "" {
		errs = append(errs, fmt.Errorf("%w: setter_prefix", ErrEmptyPrefix))
	}

	switch synth.BraceStyle(cfg.Format.BraceStyle) {
	case synth.SameLine, synth.NewLine:
	default:
		errs = append(errs, fmt.Errorf("%w: brace_style must be same-line or new-line, got %q", ErrInvalidBraceStyle, cfg.Format.BraceStyle))
	}
	if !synth.BraceStyle(cfg.Format.AccessorBraceStyle).Valid() {
		errs = append(errs, fmt.Errorf("%w: accessor_brace_style %q", ErrInvalidBraceStyle, cfg.Format.AccessorBraceStyle))
	}
	for key, value := range map[string]string{
		"definition_location": cfg.Format.DefinitionLocation,
		"accessor_location":   cfg.Format.AccessorLocation,
	} {
		switch DefinitionLocation(value) {
		case Inline, CurrentFile, PairedFile:
		default:
			errs = append(errs, fmt.Errorf("%w: %s %q", ErrInvalidLocation, key, value))
		}
	}

	if len(cfg.Pairing.HeaderExtensions) == 0 || len(cfg.Pairing.SourceExtensions) == 0 {
		errs = append(errs, ErrEmptyExtensions)
	}

	switch cfg.Analyzer.Name {
	case "clangd", "treesitter":
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'clangd' or 'treesitter', got %q", ErrInvalidAnalyzer, cfg.Analyzer.Name))
	}

	if cfg.Cache.Capacity < 0 || cfg.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("%w: capacity and ttl must not be negative", ErrInvalidCacheSettings))
	}

	return errors.Join(errs...)
}
