// Package main provides the entry point for the gopherscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for gopherscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gopherscan",
		Short: "Recursive content crawler for Gopher servers",
		Long: `Gopherscan is a recursive content crawler for Gopher servers.

It walks a server's listing tree depth-first, downloads every text and
binary file it finds, probes referenced external servers for liveness,
and reports statistics about the crawl.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
