package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gnoverse/eqsat"
	"github.com/gnoverse/eqsat/internal/runner"
)

const defaultTimeout = 5 * time.Minute

var (
	cfgFile     string
	timeout     time.Duration
	verbose     bool
	showMetrics bool

	// overrides for the configuration file
	rulesFile     string
	costName      string
	maxIterations int
	maxNodes      int
	timeLimit     time.Duration

	logger   *zap.Logger
	registry *prometheus.Registry
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:              "eqsat [expr...]",
		Short:            "eqsat - simplify and compare boolean expressions by equality saturation",
		TraverseChildren: true, // Prioritize subcommands
		SilenceUsage:     true,
		Args:             cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = newLogger(verbose)
			if err != nil {
				return fmt.Errorf("error creating logger: %w", err)
			}
			registry = prometheus.NewRegistry()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if showMetrics {
				if err := writeMetrics(cmd.ErrOrStderr(), registry); err != nil {
					logger.Error("Error writing metrics", zap.Error(err))
				}
			}
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// no subcommand
			if len(args) == 0 && batchFile == "" {
				return cmd.Help()
			}
			// eqsat [expr...] behaves like the simplify subcommand
			return runSimplify(cmd, args)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", fmt.Sprintf("Configuration file (default %s when present)", eqsat.DefaultConfigFile))
	pf.DurationVar(&timeout, "timeout", defaultTimeout, "Overall timeout for a command")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log every saturation run")
	pf.BoolVar(&showMetrics, "metrics", false, "Print Prometheus metrics to stderr when done")
	pf.StringVar(&rulesFile, "rules", "", "Rule file replacing the built-in rules")
	pf.StringVar(&costName, "cost", "", "Extraction cost: size or depth")
	pf.IntVar(&maxIterations, "max-iterations", 0, "Iteration limit per run")
	pf.IntVar(&maxNodes, "max-nodes", 0, "E-graph node limit per run")
	pf.DurationVar(&timeLimit, "time-limit", 0, "Wall-clock limit per run")

	addJobFlags(rootCmd)

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newSimplifyCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newWatchCmd())
	return rootCmd
}

func Execute() error {
	return newRootCmd().Execute()
}

// newLogger logs warnings and errors as JSON, or everything in the
// development format when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

// loadConfig reads --config, or the default file in the working directory
// if there is one, and applies the command-line overrides.
func loadConfig(cmd *cobra.Command) (eqsat.Config, error) {
	cfg := eqsat.DefaultConfig()

	path := cfgFile
	if path == "" {
		if _, err := os.Stat(eqsat.DefaultConfigFile); err == nil {
			path = eqsat.DefaultConfigFile
		}
	}
	if path != "" {
		var err error
		cfg, err = eqsat.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		logger.Debug("Loaded configuration", zap.String("path", path))
	}

	flags := cmd.Flags()
	if flags.Changed("rules") {
		abs, err := filepath.Abs(rulesFile)
		if err != nil {
			return cfg, err
		}
		cfg.Rules = abs
	}
	if flags.Changed("cost") {
		cfg.Cost = costName
	}
	if flags.Changed("max-iterations") {
		cfg.Limits.Iterations = maxIterations
	}
	if flags.Changed("max-nodes") {
		cfg.Limits.Nodes = maxNodes
	}
	if flags.Changed("time-limit") {
		cfg.Limits.Time = timeLimit
	}
	return cfg, cfg.Validate()
}

func loadEngine(cmd *cobra.Command) (*eqsat.Engine, eqsat.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	engine, err := cfg.Engine(logger, eqsat.WithMetrics(runner.NewMetrics(registry)))
	if err != nil {
		return nil, cfg, err
	}
	return engine, cfg, nil
}

func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
