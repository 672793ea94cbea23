package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyRootPackage indicates a missing root package name
	ErrEmptyRootPackage = errors.New("empty root package")

	// ErrInvalidFQN indicates a malformed symbol name
	ErrInvalidFQN = errors.New("invalid fqn")

	// ErrEmptyOutputPath indicates a missing output path
	ErrEmptyOutputPath = errors.New("empty output path")

	// ErrInvalidCacheSize indicates a non-positive module cache size
	ErrInvalidCacheSize = errors.New("invalid cache size")

	// ErrInvalidDebounce indicates a negative watch debounce
	ErrInvalidDebounce = errors.New("invalid watch debounce")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.RootPackage) == "" {
		errs = append(errs, fmt.Errorf("%w: root_package is required", ErrEmptyRootPackage))
	} else if err := validateDotted(cfg.RootPackage); err != nil {
		errs = append(errs, fmt.Errorf("%w: root_package %v", ErrInvalidFQN, err))
	}

	for _, fqn := range cfg.FQNs {
		if err := validateDotted(fqn); err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidFQN, err))
		}
	}

	if err := validateSearch(&cfg.Search); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(cfg.Output.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: output.path is required", ErrEmptyOutputPath))
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce cannot be negative, got %s", ErrInvalidDebounce, cfg.Watch.Debounce))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateSearch(cfg *SearchConfig) error {
	// Empty paths are allowed; the CLI falls back to DefaultSearchPaths
	if cfg.CacheSize <= 0 {
		return fmt.Errorf("%w: cache_size must be positive, got %d", ErrInvalidCacheSize, cfg.CacheSize)
	}
	return nil
}

// validateDotted rejects names with empty segments such as "a..b" or ".a".
func validateDotted(name string) error {
	if strings.TrimSpace(name) != name || name == "" {
		return fmt.Errorf("%q has surrounding whitespace or is empty", name)
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return fmt.Errorf("%q has an empty segment", name)
		}
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// The individual errors stay reachable through errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return &validationError{
		msg:  fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - ")),
		errs: errs,
	}
}

type validationError struct {
	msg  string
	errs []error
}

func (e *validationError) Error() string   { return e.msg }
func (e *validationError) Unwrap() []error { return e.errs }
