package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sitewatch/sitewatch/internal/version"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sitewatch",
		Short:        "Website uptime and health monitor",
		SilenceUsage: true,
	}

	root.AddCommand(versionCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(checkCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sitewatch %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
