package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/drift-labs/pyapidoc/internal/config"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

var (
	cfgFile         string
	verbose         bool
	quietFlag       bool
	watchFlag       bool
	fqnFlags        []string
	inputFlag       string
	outFlag         string
	searchPathFlags []string
	prettyFlag      bool
	rootPackageFlag string
)

// rootCmd generates the API document when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "pyapidoc",
	Short: "Generate a JSON API reference from Python SDK docstrings",
	Long: `pyapidoc resolves fully-qualified Python names against a source tree,
parses their Google-style docstrings and signatures, and writes a JSON
document for documentation rendering.

Without --fqn or --input the built-in DriftPy symbol list is used.

Examples:
  # Generate the default symbols into public/sdk/python/api.json
  pyapidoc

  # Document specific symbols, pretty-printed
  pyapidoc --fqn driftpy.drift_client.DriftClient --fqn driftpy.keypair.load_keypair --pretty

  # Read symbols from a file and search a custom source root
  pyapidoc --input symbols.txt --search-path ../driftpy/src

  # Regenerate whenever sources change
  pyapidoc --watch
`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGenerate,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .pyapidoc/config.yml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&quietFlag, "quiet", "q", false, "disable progress bars and non-error output")
	flags.StringArrayVar(&searchPathFlags, "search-path", nil, "Python source root (repeatable, default driftpy/src or src)")
	flags.StringVar(&rootPackageFlag, "root-package", "driftpy", "package loaded before resolving symbols")

	rootCmd.Flags().StringArrayVar(&fqnFlags, "fqn", nil, "fully qualified name to document (repeatable)")
	rootCmd.Flags().StringVar(&inputFlag, "input", "", "text file with one FQN per line")
	rootCmd.Flags().StringVar(&outFlag, "out", config.DefaultOutputPath, "output JSON path")
	rootCmd.Flags().BoolVar(&prettyFlag, "pretty", false, "pretty-print JSON output")
	rootCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "regenerate when Python sources change")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd.ErrOrStderr(), verbose)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := generateOptions(cmd, cfg)
	if err != nil {
		return err
	}

	progress := NewProgressReporter(cmd.OutOrStdout(), quietFlag)
	if _, err := executeGenerate(opts, logger, progress); err != nil {
		if !watchFlag {
			return err
		}
		level.Error(logger).Log("msg", "generation failed", "err", err)
	}

	if !watchFlag {
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return executeWatch(ctx, opts, cfg.Watch.Debounce, logger, func() error {
		_, err := executeGenerate(opts, logger, NewProgressReporter(cmd.OutOrStdout(), quietFlag))
		return err
	})
}

func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	var opts []config.LoaderOption
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	cfg, err := config.NewLoader(wd, opts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// generateOptions merges cfg with the flags the user set explicitly.
// Flags win; unset flags fall back to the config file.
func generateOptions(cmd *cobra.Command, cfg *config.Config) (GenerateOptions, error) {
	opts := GenerateOptions{
		FQNs:        cfg.FQNs,
		Input:       cfg.Input,
		OutPath:     cfg.Output.Path,
		SearchPaths: cfg.Search.Paths,
		Pretty:      cfg.Output.Pretty,
		RootPackage: cfg.RootPackage,
		CacheSize:   cfg.Search.CacheSize,
	}

	flags := cmd.Flags()
	if flags.Changed("fqn") {
		opts.FQNs = fqnFlags
	}
	if flags.Changed("input") {
		opts.Input = inputFlag
	}
	if flags.Changed("out") {
		opts.OutPath = outFlag
	}
	if flags.Changed("search-path") {
		opts.SearchPaths = searchPathFlags
	}
	if flags.Changed("pretty") {
		opts.Pretty = prettyFlag
	}
	if flags.Changed("root-package") {
		opts.RootPackage = rootPackageFlag
	}

	if len(opts.SearchPaths) == 0 {
		bases, err := searchBases()
		if err != nil {
			return opts, err
		}
		opts.SearchPaths = config.DefaultSearchPaths(bases...)
	}

	return opts, nil
}

// searchBases lists where a driftpy/src checkout is looked for: the working
// directory, then the directory holding the binary and its parent.
func searchBases() ([]string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	bases := []string{wd}

	exe, err := os.Executable()
	if err != nil {
		return bases, nil
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	toolDir := filepath.Dir(exe)
	return append(bases, toolDir, filepath.Dir(toolDir)), nil
}
