package commands

import (
	"fmt"
	"folio/internal/config"
	"folio/internal/models"
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage folio configuration",
	Long: `View and update folio configuration settings.
FOLIO_SERVER_URL, FOLIO_CACHE_TTL, FOLIO_RATE_LIMIT and FOLIO_LOG_LEVEL (also read from .env)
override the file for a single run.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get configuration value",
	Long:  "Display a specific configuration value or all of them, as stored in the config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadGlobalConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		out := cmd.OutOrStdout()

		// If no argument is provided, show all config
		if len(args) == 0 {
			fmt.Fprintln(out, "Current configuration:")
			for _, key := range config.Keys() {
				value, _ := cfg.Get(key)
				if value != "" {
					fmt.Fprintf(out, "%s: %s\n", key, value)
				}
			}
			return nil
		}

		value, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set configuration values",
	Long:  "Update configuration settings like the server URL or cache TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadGlobalConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		out := cmd.OutOrStdout()

		// Update configuration based on provided flags
		configUpdated := false
		for _, f := range configFlags {
			if !cmd.Flags().Changed(f.flag) {
				continue
			}
			value, _ := cmd.Flags().GetString(f.flag)
			old, _ := cfg.Get(f.key)
			if err := cfg.Set(f.key, value); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s updated: %s -> %s\n", f.key, old, value)
			configUpdated = true
		}

		// Save configuration if it was updated
		if !configUpdated {
			fmt.Fprintln(out, "No changes were made to the configuration.")
			return nil
		}
		if err := config.SaveGlobalConfig(cfg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		fmt.Fprintln(out, "Configuration updated successfully.")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  "Create a new configuration file with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetGlobalConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		out := cmd.OutOrStdout()

		// Check if config file exists
		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintln(out, "Configuration file already exists.")
			fmt.Fprintln(out, "Use 'folio config set' to modify existing configuration.")
			return nil
		}

		cfg := config.Default()
		if cmd.Flags().Changed("server-url") {
			value, _ := cmd.Flags().GetString("server-url")
			if err := cfg.Set("server_url", value); err != nil {
				return err
			}
		}

		if err := config.SaveGlobalConfig(cfg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}

		fmt.Fprintln(out, "Configuration initialized successfully.")
		fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
		return nil
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show configuration file paths",
	Long:  "Display paths to the configuration and saved session files",
	RunE: func(cmd *cobra.Command, args []string) error {
		globalConfigDir, err := config.GetGlobalConfigDir()
		if err != nil {
			return err
		}
		globalConfigPath, err := config.GetGlobalConfigPath()
		if err != nil {
			return err
		}
		sessionPath := models.NewSessionStore(globalConfigDir).SessionFile
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Config paths:")
		fmt.Fprintf(out, "- Config directory: %s\n", globalConfigDir)
		fmt.Fprintf(out, "- Config file: %s\n", globalConfigPath)
		fmt.Fprintf(out, "- Session file: %s\n", sessionPath)

		// Check existence
		fmt.Fprintln(out, "\nExistence status:")
		for _, p := range []struct{ name, path string }{
			{"Config file", globalConfigPath},
			{"Saved session", sessionPath},
		} {
			if _, err := os.Stat(p.path); os.IsNotExist(err) {
				fmt.Fprintf(out, "- %s: Does not exist\n", p.name)
			} else {
				fmt.Fprintf(out, "- %s: Exists\n", p.name)
			}
		}
		return nil
	},
}

// configFlags maps `config set` flags onto config keys
var configFlags = []struct {
	flag, key, usage string
}{
	{"server-url", "server_url", "Set backend URL"},
	{"cache-ttl", "cache_ttl", "Set how long fetched content is reused, e.g. 5m"},
	{"rate-limit", "requests_per_second", "Set the outbound request budget per second (0 disables)"},
	{"log-level", "log_level", "Set log level: debug, info, warn or error"},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathsCmd)

	for _, f := range configFlags {
		// server-url is already a persistent flag on the root command
		if f.flag == "server-url" {
			continue
		}
		configSetCmd.Flags().String(f.flag, "", f.usage)
	}
}
