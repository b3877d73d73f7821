package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stubd",
	Short: "Programmable HTTP mock server",
	Long: `stubd serves canned HTTP responses from YAML rule files.

Each rule pairs request-matching conditions with a response template and an
optional call-count expectation. Incoming requests are answered by the most
recently loaded matching rule; unmatched requests receive an empty 404.
Expectations are verified at shutdown and violations set a non-zero exit
code.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("stubd %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
