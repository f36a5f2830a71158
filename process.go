package eqsat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnoverse/eqsat/internal/runner"
	"github.com/gnoverse/eqsat/internal/term"
)

// CheckSeparator splits a batch line into the two sides of an
// equivalence check: "a == b".
const CheckSeparator = "=="

// Job is one line of a batch file: an expression to simplify, or two
// expressions to compare.
type Job struct {
	Line   int
	Source string
	Left   term.Expr
	// Right is nil for a simplification.
	Right term.Expr
}

func (j Job) IsCheck() bool {
	return j.Right != nil
}

// Result pairs a job with its report, or with the error that stopped it
// from running.
type Result struct {
	Job    Job
	Report Report
	Err    error
}

// ParseJob parses one batch line. Blank lines and lines starting with '#'
// or ';' yield ok == false.
func ParseJob(line int, src string) (job Job, ok bool, err error) {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "#") || strings.HasPrefix(src, ";") {
		return Job{}, false, nil
	}
	job = Job{Line: line, Source: src}

	left, right, isCheck := strings.Cut(src, CheckSeparator)
	job.Left, err = term.Parse(left)
	if err != nil {
		return job, true, fmt.Errorf("line %d: %w", line, err)
	}
	if isCheck {
		job.Right, err = term.Parse(right)
		if err != nil {
			return job, true, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return job, true, nil
}

// ReadJobs parses every line of r. Lines have no length limit. A malformed
// line does not stop the scan; it comes back as a Result with Err set, in
// its input position.
func ReadJobs(r io.Reader) ([]Result, error) {
	var out []Result
	br := bufio.NewReader(r)
	for n := 1; ; n++ {
		line, readErr := br.ReadString('\n')
		if line != "" {
			job, ok, err := ParseJob(n, line)
			if ok {
				out = append(out, Result{Job: job, Err: err})
			}
		}
		if readErr == io.EOF {
			return out, nil
		}
		if readErr != nil {
			return out, readErr
		}
	}
}

// ProcessOptions tunes batch processing.
type ProcessOptions struct {
	// Workers bounds concurrent jobs; zero means one per CPU.
	Workers int
	// Progress receives a progress bar; nil disables it.
	Progress io.Writer
	// Cache, when set, answers repeated jobs without saturating and
	// records new results. The caller flushes it.
	Cache *ResultCache
}

// ProcessFile runs every job of the batch file at path. Results come back
// in input order.
func ProcessFile(
	ctx context.Context,
	logger *zap.Logger,
	engine *Engine,
	path string,
	opts ProcessOptions,
) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}
	defer f.Close()

	results, err := ReadJobs(f)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return ProcessResults(ctx, logger, engine, path, results, opts)
}

// ProcessResults runs the parsed jobs in results on a bounded worker group
// and fills in their reports. Entries that already carry a parse error are
// left untouched. It stops early only when ctx is cancelled.
func ProcessResults(
	ctx context.Context,
	logger *zap.Logger,
	engine *Engine,
	name string,
	results []Result,
	opts ProcessOptions,
) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	bar := newProgressBar(len(results), name, opts.Progress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range results {
		if results[i].Err != nil {
			logger.Warn("Skipping malformed line", zap.String("file", name), zap.Error(results[i].Err))
			_ = bar.Add(1)
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := &results[i]
			if opts.Cache != nil {
				if rep, ok := opts.Cache.get(engine, res.Job); ok {
					res.Report = rep
					logger.Debug("Job cached", zap.String("file", name), zap.Int("line", res.Job.Line))
					_ = bar.Add(1)
					return nil
				}
			}
			if res.Job.IsCheck() {
				res.Report = engine.CheckReport(res.Job.Left, res.Job.Right)
			} else {
				res.Report = engine.SimplifyReport(res.Job.Left)
			}
			if opts.Cache != nil && res.Report.Stop != runner.TimeLimitReached {
				opts.Cache.put(engine, res.Job, res.Report)
			}
			logger.Debug("Job finished",
				zap.String("file", name),
				zap.Int("line", res.Job.Line),
				zap.Stringer("reason", res.Report.Stop),
			)
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_ = bar.Finish()
	return results, nil
}

func newProgressBar(n int, description string, w io.Writer) *progressbar.ProgressBar {
	if w == nil {
		return progressbar.NewOptions(n, progressbar.OptionSetVisibility(false))
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
