// Package cli provides the command-line interface for candyshop.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/appsecsanta/research/internal/config"
	"github.com/appsecsanta/research/internal/logging"
)

// Version is set at build time
var Version = "dev"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	ConfigFile string
	Verbose    bool
	NoColor    bool
}

var rootOpts rootOptions

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "candyshop",
		Short: "Benchmark security scanners against known-vulnerable targets",
		Long: `candyshop turns raw scanner output into benchmark metrics:

  normalize   parse native tool reports into one canonical findings table
  triage      cluster findings across tools and assign consensus verdicts
  score       compute precision/recall/F1 against ground truth
  run         all three stages in one pass

Raw results are discovered by filename convention, findings that describe
the same vulnerability are grouped per (target, CWE), and the triage
verdicts are scored against per-target ground-truth files.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&rootOpts.ConfigFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&rootOpts.NoColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(newNormalizeCmd())
	rootCmd.AddCommand(newTriageCmd())
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("candyshop version %s\n", Version)
		},
	}
}

// setup builds the logger and resolves the effective configuration. An
// explicit --config path wins; otherwise candidate names are probed in the
// working directory; otherwise defaults apply.
func setup() (*config.Config, *zap.SugaredLogger, error) {
	log, err := logging.New(rootOpts.Verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}

	path := rootOpts.ConfigFile
	if path == "" {
		path, _ = config.FindConfig(".")
	}

	cfg := config.DefaultConfig()
	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		log.Debugw("loaded config", "path", path)
	}

	if rootOpts.NoColor {
		cfg.Output.NoColor = true
	}
	return cfg, log, nil
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}
