package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ibnctl",
		Short: "OpenIBN - Intent-Based Networking Controller Client",
		Long: `OpenIBN reconciles network intents against a RESTCONF controller.

Features:
  - Declarative intent apply with structural config diffing
  - Idempotent intent and intent-type deletion
  - Audit and synchronize operations
  - Intent-type bundle upload (script, YANG modules, resources, views)
  - Paged intent search`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newUploadCommand())
	rootCmd.AddCommand(newRemoveTypeCommand())
	rootCmd.AddCommand(newSearchCommand())

	return rootCmd
}
