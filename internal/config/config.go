package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/drift-labs/pyapidoc/internal/pysource"
)

// Config represents the complete pyapidoc configuration.
// It can be loaded from .pyapidoc/config.yml with environment variable overrides.
type Config struct {
	RootPackage string       `yaml:"root_package" mapstructure:"root_package"` // package loaded before resolution
	FQNs        []string     `yaml:"fqns" mapstructure:"fqns"`                 // symbols to document, like repeated --fqn
	Input       string       `yaml:"input" mapstructure:"input"`               // file with one FQN per line
	Search      SearchConfig `yaml:"search" mapstructure:"search"`
	Output      OutputConfig `yaml:"output" mapstructure:"output"`
	Watch       WatchConfig  `yaml:"watch" mapstructure:"watch"`
}

// SearchConfig defines where Python sources are looked up.
type SearchConfig struct {
	Paths     []string `yaml:"paths" mapstructure:"paths"`           // source roots, in priority order
	CacheSize int      `yaml:"cache_size" mapstructure:"cache_size"` // max parsed modules kept in memory
}

// OutputConfig defines where and how the JSON document is written.
type OutputConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// DefaultOutputPath is where the document goes unless configured otherwise.
const DefaultOutputPath = "public/sdk/python/api.json"

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		RootPackage: "driftpy",
		Search: SearchConfig{
			Paths:     nil, // resolved at run time by DefaultSearchPaths
			CacheSize: pysource.DefaultCacheSize,
		},
		Output: OutputConfig{
			Path: DefaultOutputPath,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// DefaultSearchPaths returns <base>/driftpy/src for the first base where that
// directory exists, otherwise "src".
func DefaultSearchPaths(bases ...string) []string {
	for _, base := range bases {
		candidate := filepath.Join(base, "driftpy", "src")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return []string{candidate}
		}
	}
	return []string{"src"}
}
