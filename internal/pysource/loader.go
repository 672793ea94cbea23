// Package pysource loads Python modules from source trees into a navigable
// object model of modules, classes, functions, attributes and import aliases.
package pysource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"
)

// DefaultCacheSize bounds the number of parsed modules kept in memory.
const DefaultCacheSize = 1024

// Option configures a Loader.
type Option func(*Loader)

// WithCacheSize sets the maximum number of cached modules.
func WithCacheSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.cacheSize = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger log.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader finds, parses and caches Python modules under a set of search paths.
// It is not safe for concurrent use.
type Loader struct {
	searchPaths []string
	cacheSize   int
	logger      log.Logger

	modules *otter.Cache[string, *Module]
	stats   *stats.Counter
}

// NewLoader creates a loader that resolves module names against searchPaths in order.
func NewLoader(searchPaths []string, opts ...Option) (*Loader, error) {
	if len(searchPaths) == 0 {
		return nil, errors.New("at least one search path is required")
	}

	l := &Loader{
		searchPaths: append([]string(nil), searchPaths...),
		cacheSize:   DefaultCacheSize,
		logger:      log.NewNopLogger(),
		stats:       stats.NewCounter(),
	}
	for _, opt := range opts {
		opt(l)
	}

	cache, err := otter.New(&otter.Options[string, *Module]{
		MaximumSize:   l.cacheSize,
		StatsRecorder: l.stats,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create module cache: %w", err)
	}
	l.modules = cache

	return l, nil
}

// CacheStats returns module cache hits and misses so far.
func (l *Loader) CacheStats() (hits, misses uint64) {
	snapshot := l.stats.Snapshot()
	return snapshot.Hits, snapshot.Misses
}

// Load finds and loads the module with the given dotted name from the search
// paths. Packages (a/b/__init__.py) take precedence over modules (a/b.py),
// which take precedence over namespace directories.
func (l *Loader) Load(name string) (*Module, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty module name", ErrNotFound)
	}

	parts := strings.Split(name, ".")
	for _, root := range l.searchPaths {
		base := filepath.Join(append([]string{root}, parts...)...)
		if m, err := l.loadCandidate(name, base, nil); err == nil {
			return m, nil
		} else if !IsMiss(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: module %s in %v", ErrNotFound, name, l.searchPaths)
}

// LoadPath parses the file at path as the module called name. parent, when
// set, becomes the module's parent object.
func (l *Loader) LoadPath(name, path string, parent *Module) (*Module, error) {
	isPackage := filepath.Base(path) == "__init__.py"
	return l.loadFile(name, path, isPackage, parent)
}

// Resolve finds the object at a dotted path by loading the longest module
// prefix that exists and walking the remaining names as members.
func (l *Loader) Resolve(path string) (Object, error) {
	parts := strings.Split(path, ".")
	var errs []error
	for i := len(parts); i > 0; i-- {
		m, err := l.Load(strings.Join(parts[:i], "."))
		if err != nil {
			if !IsMiss(err) {
				errs = append(errs, err)
			}
			continue
		}
		obj, err := MemberPath(m, parts[i:])
		if err != nil {
			if !IsMiss(err) {
				errs = append(errs, err)
			}
			continue
		}
		return obj, nil
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, errors.Join(errs...))
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// loadCandidate loads the module whose path without extension is base.
func (l *Loader) loadCandidate(name, base string, parent *Module) (*Module, error) {
	initPath := filepath.Join(base, "__init__.py")
	if isFile(initPath) {
		return l.loadFile(name, initPath, true, parent)
	}
	if isFile(base + ".py") {
		return l.loadFile(name, base+".py", false, parent)
	}
	if isDir(base) && containsPython(base) {
		return l.loadNamespace(name, base, parent), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, base)
}

func (l *Loader) loadFile(name, path string, isPackage bool, parent *Module) (*Module, error) {
	key := name + "\x00" + path
	if m, ok := l.modules.GetIfPresent(key); ok {
		return m, nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	m := l.newModule(name, filepath.Dir(path), isPackage, parent)
	m.FilePath = path
	if err := buildModule(m, source, l); err != nil {
		return nil, fmt.Errorf("failed to load module %s: %w", name, err)
	}

	level.Debug(l.logger).Log("msg", "loaded module", "module", name, "path", path)
	l.modules.Set(key, m)
	return m, nil
}

func (l *Loader) loadNamespace(name, dir string, parent *Module) *Module {
	key := name + "\x00" + dir + string(filepath.Separator)
	if m, ok := l.modules.GetIfPresent(key); ok {
		return m
	}
	m := l.newModule(name, dir, true, parent)
	level.Debug(l.logger).Log("msg", "loaded namespace package", "module", name, "dir", dir)
	l.modules.Set(key, m)
	return m
}

func (l *Loader) newModule(name, dir string, isPackage bool, parent *Module) *Module {
	m := &Module{
		base: base{
			name: name[strings.LastIndex(name, ".")+1:],
			path: name,
		},
		members:   newMembers(),
		dir:       dir,
		isPackage: isPackage,
		loader:    l,
	}
	if parent != nil && parent.path != name {
		m.parent = parent
	}
	return m
}

// loadSubmodule loads name from a package's directory.
func (l *Loader) loadSubmodule(pkg *Module, name string) (*Module, error) {
	return l.loadCandidate(joinPath(pkg.path, name), filepath.Join(pkg.dir, name), pkg)
}

// listSubmodules returns the module names available in a package directory, sorted.
func (l *Loader) listSubmodules(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir():
			if isIdentifier(name) && containsPython(filepath.Join(dir, name)) {
				names = append(names, name)
			}
		case strings.HasSuffix(name, ".py") && name != "__init__.py":
			if stem := strings.TrimSuffix(name, ".py"); isIdentifier(stem) {
				names = append(names, stem)
			}
		}
	}
	sort.Strings(names)
	return names
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// containsPython reports whether dir holds any .py file or package directly.
func containsPython(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".py") {
			return true
		}
		if entry.IsDir() && isFile(filepath.Join(dir, entry.Name(), "__init__.py")) {
			return true
		}
	}
	return false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
