package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/screenlens/internal/report"
	"github.com/ivlev/screenlens/internal/rules"
)

func newRulesCommand(app *App) *cobra.Command {
	var example bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the active rule set",
		Long: `Lists the rules in evaluation order with the tasks each unlocks.
With --example the built-in rules are printed as a YAML rules file that
can be edited and passed back with --rules or rules_file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if example {
				return report.Write(cmd.OutOrStdout(), rules.File{Rules: rules.DefaultSpecs()}, report.YAML, false)
			}

			rs, err := app.rules()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, r := range rs {
				tasks := make([]string, len(r.Tasks))
				for j, t := range r.Tasks {
					tasks[j] = string(t)
				}
				fmt.Fprintf(out, "%d. %s: %s\n", i+1, r.Name, strings.Join(tasks, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&example, "example", false, "print the built-in rules as a YAML rules file")
	return cmd
}
