package cli

import (
	"fmt"
	"io"

	"github.com/drift-labs/pyapidoc/internal/config"
	"github.com/drift-labs/pyapidoc/internal/fqn"
	"github.com/drift-labs/pyapidoc/internal/pysource"
	"github.com/go-kit/log"
	"github.com/spf13/cobra"
)

var listKindsFlag bool

// listCmd prints documentable names under the root package.
var listCmd = &cobra.Command{
	Use:   "list [PATTERN...]",
	Short: "List public FQNs under the root package",
	Long: `List walks the root package and prints the fully-qualified name of every
public module, class, function and attribute it defines. Patterns are globs
where '*' matches within one dotted segment and '**' across segments.

The output is a valid --input file.

Examples:
  # Everything under driftpy
  pyapidoc list

  # Methods of DriftClient
  pyapidoc list 'driftpy.drift_client.DriftClient.*'

  # All constants modules, with kinds
  pyapidoc list --kinds 'driftpy.constants.**'
`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listKindsFlag, "kinds", false, "print the kind next to each name")
}

func runList(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd.ErrOrStderr(), verbose)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := generateOptions(cmd, cfg)
	if err != nil {
		return err
	}

	return executeList(cmd.OutOrStdout(), opts, args, listKindsFlag, logger)
}

func executeList(out io.Writer, opts GenerateOptions, patterns []string, withKinds bool, logger log.Logger) error {
	matcher, err := fqn.NewMatcher(patterns)
	if err != nil {
		return err
	}

	searchPaths := opts.SearchPaths
	if len(searchPaths) == 0 {
		searchPaths = config.DefaultSearchPaths(".")
	}
	loader, err := pysource.NewLoader(searchPaths, pysource.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create loader: %w", err)
	}

	root, err := loader.Load(opts.RootPackage)
	if err != nil {
		return fmt.Errorf("failed to load root package %s: %w", opts.RootPackage, err)
	}

	return pysource.Walk(root, func(obj pysource.Object) error {
		if !matcher.Match(obj.Path()) {
			return nil
		}
		if withKinds {
			_, err := fmt.Fprintf(out, "%s\t%s\n", obj.Path(), obj.Kind())
			return err
		}
		_, err := fmt.Fprintln(out, obj.Path())
		return err
	})
}
