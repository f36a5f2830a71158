package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gnoverse/eqsat"
	"github.com/gnoverse/eqsat/internal/term"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [a b]",
		Short: "Check whether two expressions are equivalent",
		Long: `Check seeds one e-graph with both expressions and saturates until their
classes merge or a limit is reached. A negative answer means "not proven"
within the limits; use --verify for a truth-table verdict.

Exits with status 1 when any equivalence is not proven.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return errors.New("check needs two expressions")
			}
			if len(args) == 0 && batchFile == "" {
				return errors.New("please provide two expressions or a batch file")
			}

			var results []eqsat.Result
			if len(args) == 2 {
				results = append(results, checkArgs(args[0], args[1]))
			}
			return runJobs(cmd, results)
		},
	}
	addJobFlags(cmd)
	return cmd
}

func checkArgs(a, b string) eqsat.Result {
	job := eqsat.Job{Line: 1, Source: a + " " + eqsat.CheckSeparator + " " + b}

	var err error
	if job.Left, err = term.Parse(a); err != nil {
		return eqsat.Result{Job: job, Err: err}
	}
	if job.Right, err = term.Parse(b); err != nil {
		return eqsat.Result{Job: job, Err: err}
	}
	return eqsat.Result{Job: job}
}
