package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/gnoverse/eqsat"
)

var (
	errorStyle  = color.New(color.FgRed, color.Bold)
	inputStyle  = color.New(color.FgCyan, color.Bold)
	resultStyle = color.New(color.FgGreen, color.Bold)
	arrowStyle  = color.New(color.FgBlue, color.Bold)
	noteStyle   = color.New(color.FgYellow)
)

func formatResult(r eqsat.Result, details, verify bool) string {
	var b strings.Builder
	if r.Err != nil {
		b.WriteString(errorStyle.Sprint("error: ") + r.Err.Error() + "\n")
		b.WriteString(arrowStyle.Sprint(" --> ") + inputStyle.Sprint(r.Job.Source) + "\n")
		return b.String()
	}

	rep := r.Report
	if r.Job.IsCheck() {
		verdict := resultStyle.Sprint("equivalent")
		if !rep.Equivalent {
			verdict = errorStyle.Sprint("not proven")
		}
		b.WriteString(inputStyle.Sprint(rep.Input) + arrowStyle.Sprint(" == ") +
			inputStyle.Sprint(rep.Other) + ": " + verdict + "\n")
	} else {
		b.WriteString(inputStyle.Sprint(rep.Input) + arrowStyle.Sprint(" => ") +
			resultStyle.Sprint(rep.Best) + "\n")
	}

	if details {
		b.WriteString(fmt.Sprintf("  stop: %s, iterations: %d, nodes: %d, classes: %d, cost: %d -> %d, elapsed: %s\n",
			rep.Stop, rep.Iterations, rep.Nodes, rep.Classes, rep.OriginalCost, rep.Cost, rep.Elapsed))
	}
	if verify {
		b.WriteString(verifyNote(r))
	}
	return b.String()
}

func verifyNote(r eqsat.Result) string {
	ok, err := r.Report.Verify()
	switch {
	case err != nil:
		return noteStyle.Sprintf("  verify: skipped (%v)\n", err)
	case r.Job.IsCheck() && ok && !r.Report.Equivalent:
		return noteStyle.Sprint("  verify: equivalent by truth table, not proven within limits\n")
	case r.Job.IsCheck() && !ok:
		return noteStyle.Sprint("  verify: not equivalent by truth table\n")
	case !ok:
		return errorStyle.Sprint("  verify: result differs from input\n")
	}
	return noteStyle.Sprint("  verify: ok\n")
}

type jsonResult struct {
	Line         int    `json:"line"`
	Source       string `json:"source"`
	Error        string `json:"error,omitempty"`
	Best         string `json:"best,omitempty"`
	Equivalent   *bool  `json:"equivalent,omitempty"`
	Cost         uint64 `json:"cost,omitempty"`
	OriginalCost uint64 `json:"originalCost,omitempty"`
	Stop         string `json:"stop,omitempty"`
	Iterations   int    `json:"iterations,omitempty"`
	Nodes        int    `json:"nodes,omitempty"`
	Classes      int    `json:"classes,omitempty"`
	ElapsedMS    int64  `json:"elapsedMs,omitempty"`
	RunID        string `json:"runId,omitempty"`
}

func toJSON(r eqsat.Result) jsonResult {
	out := jsonResult{Line: r.Job.Line, Source: r.Job.Source}
	if r.Err != nil {
		out.Error = r.Err.Error()
		return out
	}
	rep := r.Report
	if rep.Best != nil {
		out.Best = rep.Best.String()
	}
	if r.Job.IsCheck() {
		eq := rep.Equivalent
		out.Equivalent = &eq
	}
	out.Cost = rep.Cost
	out.OriginalCost = rep.OriginalCost
	out.Stop = rep.Stop.String()
	out.Iterations = rep.Iterations
	out.Nodes = rep.Nodes
	out.Classes = rep.Classes
	out.ElapsedMS = rep.Elapsed.Milliseconds()
	out.RunID = rep.RunID
	return out
}

// writeJSON writes results to path, or to out when path is empty.
func writeJSON(out io.Writer, results []eqsat.Result, path string) error {
	items := make([]jsonResult, len(results))
	for i, r := range results {
		items[i] = toJSON(r)
	}
	d, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling results to JSON: %w", err)
	}
	if path == "" {
		_, err = fmt.Fprintln(out, string(d))
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating JSON output file: %w", err)
	}
	defer f.Close()
	_, err = f.Write(d)
	return err
}
