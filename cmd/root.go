package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maidchan",
	Short: "A chat assistant that answers with keyword rules",
	Long: `maidchan watches chat messages and answers the ones that match one of its
rules: greetings, compliments, horoscopes, weather, and random choices.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
