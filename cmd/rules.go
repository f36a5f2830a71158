package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gnoverse/eqsat/internal/rewrite"
)

var (
	dumpRules  bool
	checkRules bool
)

var errUnsoundRules = errors.New("unsound rules")

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rewrite rules in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := loadEngine(cmd)
			if err != nil {
				return err
			}
			rs := engine.Rules()
			out := cmd.OutOrStdout()

			if dumpRules {
				d, err := rewrite.Marshal(rs)
				if err != nil {
					return err
				}
				_, err = out.Write(d)
				return err
			}

			printRules(out, rs)
			if checkRules {
				return soundness(out, rs)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dumpRules, "dump", false, "Print the rules as a YAML rule file")
	cmd.Flags().BoolVar(&checkRules, "check", false, "Check every rule by truth table")
	return cmd
}

func printRules(out io.Writer, rs *rewrite.RuleSet) {
	width := 0
	for _, name := range rs.Names() {
		width = max(width, len(name))
	}
	for _, r := range rs.Rules() {
		fmt.Fprintf(out, "%s  %s %s %s\n",
			inputStyle.Sprintf("%-*s", width, r.Name),
			r.LHS, arrowStyle.Sprint("=>"), resultStyle.Sprint(r.RHS))
	}
}

func soundness(out io.Writer, rs *rewrite.RuleSet) error {
	bad := 0
	for _, r := range rs.Rules() {
		ok, err := r.Sound()
		switch {
		case err != nil:
			bad++
			fmt.Fprintf(out, "%s%s: %v\n", errorStyle.Sprint("error: "), r.Name, err)
		case !ok:
			bad++
			fmt.Fprintf(out, "%s%s does not preserve meaning\n", errorStyle.Sprint("error: "), r.Name)
		}
	}
	if bad > 0 {
		return fmt.Errorf("%w: %d of %d", errUnsoundRules, bad, rs.Len())
	}
	fmt.Fprintf(out, "%s all %d rules are sound\n", resultStyle.Sprint("ok:"), rs.Len())
	return nil
}
