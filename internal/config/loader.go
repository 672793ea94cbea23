package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// LoaderOption customizes a Loader.
type LoaderOption func(*loader)

// WithConfigFile reads the given file instead of searching .pyapidoc/ under
// the root directory. Unlike the default location, the file must exist.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) {
		l.configFile = path
	}
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{
		rootDir: rootDir,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (PYAPIDOC_*)
// 2. Config file (.pyapidoc/config.yml or .pyapidoc/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		if _, err := os.Stat(l.configFile); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".pyapidoc"))
	}

	v.SetEnvPrefix("PYAPIDOC")
	v.AutomaticEnv()
	// PYAPIDOC_OUTPUT_PATH maps to output.path
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("root_package")
	v.BindEnv("input")
	v.BindEnv("search.cache_size")
	v.BindEnv("output.path")
	v.BindEnv("output.pretty")
	v.BindEnv("watch.debounce")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file in the default location means defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
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

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("root_package", defaults.RootPackage)
	v.SetDefault("fqns", defaults.FQNs)
	v.SetDefault("input", defaults.Input)

	v.SetDefault("search.paths", defaults.Search.Paths)
	v.SetDefault("search.cache_size", defaults.Search.CacheSize)

	v.SetDefault("output.path", defaults.Output.Path)
	v.SetDefault("output.pretty", defaults.Output.Pretty)

	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
}
