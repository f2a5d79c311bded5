package commands

import (
	"folio/internal/config"

	"github.com/spf13/cobra"
)

var globalConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "folio - browse and manage a portfolio from the terminal",
	Long: `folio is a terminal client for a portfolio backend.
It shows the public gallery of projects, sends messages through the contact form,
and lets the site owner create, update and delete projects, categories and tags.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors are returned unprinted; see PrintError.
func Execute(cfg *config.Config) error {
	globalConfig = cfg
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("server-url", "", "Backend URL for this invocation (overrides config)")

	// Add all commands
	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(contactCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(devserverCmd)
}
