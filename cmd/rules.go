package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"maidchan/pkg/config"
	"maidchan/pkg/rule"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var scopeHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rules in dispatch order",
	Long:  "Prints every registered rule per scope, in the order messages are matched against them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		cfg, err := config.LoadOrDefault()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		registry, err := newRegistry(cfg, slog.Default())
		if err != nil {
			return err
		}

		writeRules(cmd.OutOrStdout(), registry)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func writeRules(out io.Writer, registry *rule.Registry) {
	for i, scope := range rule.Scopes {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, scopeHeading.Render(fmt.Sprintf("[%s]", scope)))
		for n, r := range registry.Rules(scope) {
			fmt.Fprintf(out, "%2d. %-13s %s\n", n+1, r.Name(), r.Description())
		}
	}
}
