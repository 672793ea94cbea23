// Package resolve maps fully-qualified Python names to loaded objects.
package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/drift-labs/pyapidoc/internal/pysource"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ErrUnresolved is wrapped by every UnresolvedError.
var ErrUnresolved = errors.New("could not resolve")

// UnresolvedError reports an FQN that no search path or strategy could
// resolve. Causes holds the unexpected failures seen along the way; ordinary
// misses are not recorded.
type UnresolvedError struct {
	FQN    string
	Causes []error
}

func (e *UnresolvedError) Error() string {
	msg := fmt.Sprintf("%s %s", ErrUnresolved, e.FQN)
	if len(e.Causes) > 0 {
		msg += ": " + errors.Join(e.Causes...).Error()
	}
	return msg
}

func (e *UnresolvedError) Unwrap() []error {
	return append([]error{ErrUnresolved}, e.Causes...)
}

// ModuleLoader is the part of the source loader resolution needs.
type ModuleLoader interface {
	Load(name string) (*pysource.Module, error)
	LoadPath(name, path string, parent *pysource.Module) (*pysource.Module, error)
}

// Resolver finds objects for FQNs.
type Resolver struct {
	loader      ModuleLoader
	root        *pysource.Module
	searchPaths []string
	logger      log.Logger
}

// New creates a resolver. root is the already-loaded root package; modules
// under it are loaded with root as their parent.
func New(loader ModuleLoader, root *pysource.Module, searchPaths []string, logger log.Logger) *Resolver {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Resolver{
		loader:      loader,
		root:        root,
		searchPaths: searchPaths,
		logger:      logger,
	}
}

// Resolve returns the object named by fqn. For every search path it first
// tries to load the longest dotted prefix that exists as a file under that
// path, then falls back to loading the prefix by module name.
func (r *Resolver) Resolve(fqn string) (pysource.Object, error) {
	parts := strings.Split(fqn, ".")
	var causes []error

	for _, searchPath := range r.searchPaths {
		obj, errs := r.resolveByPath(searchPath, parts)
		if obj != nil {
			return obj, nil
		}
		causes = append(causes, errs...)

		obj, errs = r.resolveByName(parts)
		if obj != nil {
			return obj, nil
		}
		causes = append(causes, errs...)
	}

	return nil, &UnresolvedError{FQN: fqn, Causes: causes}
}

func (r *Resolver) resolveByPath(searchPath string, parts []string) (pysource.Object, []error) {
	var errs []error
	for i := len(parts); i > 0; i-- {
		moduleParts := parts[:i]
		modulePath := modulePathUnder(searchPath, moduleParts)
		if modulePath == "" {
			continue
		}

		moduleName := strings.Join(moduleParts, ".")
		var parent *pysource.Module
		if r.root != nil && moduleParts[0] == r.root.Name() {
			parent = r.root
		}

		obj, err := r.attempt(func() (*pysource.Module, error) {
			return r.loader.LoadPath(moduleName, modulePath, parent)
		}, parts[i:])
		if err != nil {
			errs = r.record(errs, "path", moduleName, err)
			continue
		}
		return obj, nil
	}
	return nil, errs
}

func (r *Resolver) resolveByName(parts []string) (pysource.Object, []error) {
	var errs []error
	for i := len(parts); i > 0; i-- {
		moduleName := strings.Join(parts[:i], ".")

		obj, err := r.attempt(func() (*pysource.Module, error) {
			return r.loader.Load(moduleName)
		}, parts[i:])
		if err != nil {
			errs = r.record(errs, "name", moduleName, err)
			continue
		}
		return obj, nil
	}
	return nil, errs
}

func (r *Resolver) attempt(load func() (*pysource.Module, error), remainder []string) (pysource.Object, error) {
	m, err := load()
	if err != nil {
		return nil, err
	}
	return pysource.MemberPath(m, remainder)
}

// record keeps unexpected errors and drops ordinary misses.
func (r *Resolver) record(errs []error, strategy, module string, err error) []error {
	if pysource.IsMiss(err) {
		return errs
	}
	level.Debug(r.logger).Log("msg", "resolution attempt failed", "strategy", strategy, "module", module, "err", err)
	return append(errs, err)
}

// modulePathUnder returns <root>/<parts>.py or <root>/<parts>/__init__.py,
// whichever exists first, or "" if neither does.
func modulePathUnder(root string, parts []string) string {
	base := filepath.Join(append([]string{root}, parts...)...)
	for _, candidate := range []string{base + ".py", filepath.Join(base, "__init__.py")} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
