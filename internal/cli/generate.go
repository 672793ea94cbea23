package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/drift-labs/pyapidoc/internal/apidoc"
	"github.com/drift-labs/pyapidoc/internal/fqn"
	"github.com/drift-labs/pyapidoc/internal/pysource"
	"github.com/drift-labs/pyapidoc/internal/resolve"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ErrNoSearchPaths is returned when generation has nowhere to look for sources.
var ErrNoSearchPaths = errors.New("no search paths")

// GenerateOptions is everything a generation run needs, after config and
// flags have been merged.
type GenerateOptions struct {
	FQNs        []string
	Input       string
	OutPath     string
	SearchPaths []string
	Pretty      bool
	RootPackage string
	CacheSize   int
}

// GenerateResult summarizes a successful run.
type GenerateResult struct {
	Document *apidoc.Document
	Elapsed  time.Duration
}

// executeGenerate collects the requested FQNs, resolves and extracts each one
// in order and writes the document. Any unresolved FQN aborts the run before
// anything is written.
func executeGenerate(opts GenerateOptions, logger log.Logger, progress *ProgressReporter) (*GenerateResult, error) {
	start := time.Now()

	if len(opts.SearchPaths) == 0 {
		return nil, ErrNoSearchPaths
	}

	fqns, err := fqn.Collect(opts.FQNs, opts.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to collect FQNs: %w", err)
	}

	loaderOpts := []pysource.Option{pysource.WithLogger(logger)}
	if opts.CacheSize > 0 {
		loaderOpts = append(loaderOpts, pysource.WithCacheSize(opts.CacheSize))
	}
	loader, err := pysource.NewLoader(opts.SearchPaths, loaderOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}

	root, err := loader.Load(opts.RootPackage)
	if err != nil {
		return nil, fmt.Errorf("failed to load root package %s: %w", opts.RootPackage, err)
	}

	resolver := resolve.New(loader, root, opts.SearchPaths, logger)
	doc := apidoc.NewDocument()

	progress.OnStart(len(fqns))
	for _, name := range fqns {
		obj, err := resolver.Resolve(name)
		if err != nil {
			progress.Abort()
			return nil, err
		}
		doc.Add(apidoc.Extract(name, obj))
		level.Debug(logger).Log("msg", "extracted symbol", "fqn", name, "kind", obj.Kind())
		progress.OnSymbol(name)
	}

	if err := doc.Write(opts.OutPath, opts.Pretty); err != nil {
		progress.Abort()
		return nil, err
	}

	hits, misses := loader.CacheStats()
	level.Debug(logger).Log("msg", "module cache", "hits", hits, "misses", misses)

	result := &GenerateResult{Document: doc, Elapsed: time.Since(start)}
	progress.OnComplete(doc.Len(), opts.OutPath, result.Elapsed)
	return result, nil
}
