package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoverse/eqsat"
)

var (
	batchFile  string
	workers    int
	verify     bool
	details    bool
	jsonOutput bool
	outPath    string
	cacheDir   string
)

var (
	errFailedJobs = errors.New("some expressions could not be processed")
	errNotProven  = errors.New("some equivalences were not proven")
)

func addJobFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&batchFile, "file", "f", "", "Batch file with one expression, or one 'a == b' check, per line")
	f.IntVarP(&workers, "workers", "j", 0, "Concurrent jobs for a batch file (default from config, or one per CPU)")
	f.BoolVar(&verify, "verify", false, "Cross-check every result with a truth table")
	f.BoolVar(&details, "details", false, "Print run statistics under each result")
	f.BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	f.StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	f.StringVar(&cacheDir, "cache", "", "Directory for cached results; repeated jobs skip saturation")
}

// openCache returns nil when --cache is not set.
func openCache() (*eqsat.ResultCache, error) {
	if cacheDir == "" {
		return nil, nil
	}
	return eqsat.OpenResultCache(cacheDir, 0)
}

func flushCache(rc *eqsat.ResultCache) {
	if rc == nil {
		return
	}
	if err := rc.Flush(); err != nil {
		logger.Warn("Error writing result cache", zap.String("dir", cacheDir), zap.Error(err))
	}
}

func newSimplifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simplify [expr...]",
		Short: "Print the smallest equivalent form of each expression",
		Long: `Simplify saturates an e-graph with the rewrite rules and extracts the
cheapest member of the input's class.

Arguments and batch lines of the form "a == b" are equivalence checks.`,
		RunE: runSimplify,
	}
	addJobFlags(cmd)
	return cmd
}

func runSimplify(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && batchFile == "" {
		return errors.New("please provide expressions or a batch file")
	}

	var results []eqsat.Result
	for i, arg := range args {
		job, ok, err := eqsat.ParseJob(i+1, arg)
		if !ok {
			continue
		}
		results = append(results, eqsat.Result{Job: job, Err: err})
	}
	return runJobs(cmd, results)
}

// runJobs appends the batch file, if any, to results, processes
// everything and prints the outcome.
func runJobs(cmd *cobra.Command, results []eqsat.Result) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	engine, cfg, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	name := "args"
	if batchFile != "" {
		name = batchFile
		f, err := os.Open(batchFile)
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", batchFile, err)
		}
		defer f.Close()
		batch, err := eqsat.ReadJobs(f)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", batchFile, err)
		}
		results = append(results, batch...)
	}

	opts := eqsat.ProcessOptions{Workers: cfg.Workers}
	if cmd.Flags().Changed("workers") {
		opts.Workers = workers
	}
	if batchFile != "" && !jsonOutput && isatty.IsTerminal(os.Stderr.Fd()) {
		opts.Progress = os.Stderr
	}
	if opts.Cache, err = openCache(); err != nil {
		return err
	}
	defer flushCache(opts.Cache)

	results, err = eqsat.ProcessResults(ctx, logger, engine, name, results, opts)
	if err != nil {
		logger.Error("Error processing expressions", zap.Error(err))
		return err
	}
	return report(cmd.OutOrStdout(), results)
}

func report(out io.Writer, results []eqsat.Result) error {
	if jsonOutput {
		if err := writeJSON(out, results, outPath); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Fprint(out, formatResult(r, details, verify))
		}
	}
	return outcome(results)
}

// outcome turns failed jobs into an error, so the process exits non-zero.
func outcome(results []eqsat.Result) error {
	var failed, unproven int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Job.IsCheck() && !r.Report.Equivalent:
			unproven++
		}
	}
	switch {
	case failed > 0:
		return fmt.Errorf("%w: %d of %d", errFailedJobs, failed, len(results))
	case unproven > 0:
		return fmt.Errorf("%w: %d of %d", errNotProven, unproven, len(results))
	}
	return nil
}
