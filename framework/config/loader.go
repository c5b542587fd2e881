package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Dir is the per-workspace configuration directory.
const Dir = ".cppsynth"

// Path returns the configuration file of a workspace.
func Path(rootDir string) string {
	return filepath.Join(rootDir, Dir, "config.yaml")
}

// Loader loads configuration for one workspace.
type Loader struct {
	rootDir string
	file    string
}

// NewLoader creates a loader for rootDir. A non-empty file overrides the
// workspace configuration path.
func NewLoader(rootDir, file string) *Loader {
	return &Loader{rootDir: rootDir, file: file}
}

var envKeys = []string{
	"naming.case",
	"naming.getter_prefix",
	"naming.setter_prefix",
	"naming.bool_prefix",
	"naming.use_bool_prefix",
	"naming.bare_getters",
	"naming.member_prefixes",
	"naming.member_suffixes",
	"format.brace_style",
	"format.accessor_brace_style",
	"format.definition_location",
	"format.accessor_location",
	"pairing.header_extensions",
	"pairing.source_extensions",
	"pairing.search_depth",
	"analyzer.name",
	"analyzer.clangd_path",
	"analyzer.clangd_args",
	"analyzer.timeout",
	"cache.ttl",
	"cache.capacity",
	"cache.symbol_store",
}

// Load reads configuration with the following priority, highest first:
// environment variables (CPPSYNTH_*), the config file, defaults.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, Dir))
	}

	v.SetEnvPrefix("CPPSYNTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: defaults and env vars still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("naming.case", d.Naming.Case)
	v.SetDefault("naming.getter_prefix", d.Naming.GetterPrefix)
	v.SetDefault("naming.setter_prefix", d.Naming.SetterPrefix)
	v.SetDefault("naming.bool_prefix", d.Naming.BoolPrefix)
	v.SetDefault("naming.use_bool_prefix", d.Naming.UseBoolPrefix)
	v.SetDefault("naming.bare_getters", d.Naming.BareGetters)
	v.SetDefault("naming.member_prefixes", d.Naming.MemberPrefixes)
	v.SetDefault("naming.member_suffixes", d.Naming.MemberSuffixes)

	v.SetDefault("format.brace_style", d.Format.BraceStyle)
	v.SetDefault("format.accessor_brace_style", d.Format.AccessorBraceStyle)
	v.SetDefault("format.definition_location", d.Format.DefinitionLocation)
	v.SetDefault("format.accessor_location", d.Format.AccessorLocation)

	v.SetDefault("pairing.header_extensions", d.Pairing.HeaderExtensions)
	v.SetDefault("pairing.source_extensions", d.Pairing.SourceExtensions)
	v.SetDefault("pairing.search_depth", d.Pairing.SearchDepth)

	v.SetDefault("analyzer.name", d.Analyzer.Name)
	v.SetDefault("analyzer.clangd_path", d.Analyzer.ClangdPath)
	v.SetDefault("analyzer.clangd_args", d.Analyzer.ClangdArgs)
	v.SetDefault("analyzer.timeout", d.Analyzer.Timeout)

	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.symbol_store", d.Cache.SymbolStore)
}

// LoadFromDir loads the configuration of the workspace at rootDir.
func LoadFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir, "").Load()
}

// Save writes cfg as YAML to path, creating directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
