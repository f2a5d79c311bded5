package commands

import (
	"errors"
	"fmt"
	"folio/internal/auth"
	"folio/internal/config"
	"folio/internal/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the admin area",
	Long:  "Authenticate with the backend to create, update and delete content",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if err := a.start(cmd.Context()); err != nil {
			return err
		}
		if a.gate.State() == auth.Authenticated {
			fmt.Fprintf(out, "Already logged in as %s\n", a.gate.User().Email)
			return nil
		}

		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		user, err := a.login(cmd.Context(), email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		color.New(color.FgGreen).Fprintf(out, "Successfully logged in as %s\n", user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out of the admin area",
	Long:  "End the session on the backend and remove the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		// the session is ended locally even if the backend cannot be reached
		if err := a.start(cmd.Context()); err != nil {
			a.logger.Warn("session check failed before logout", "error", err)
		}
		logoutErr := a.gate.Logout(cmd.Context())
		a.clearSession()

		fileCfg, err := config.LoadGlobalConfig()
		if err == nil {
			fileCfg.Email = ""
			fileCfg.UserID = 0
			err = config.SaveGlobalConfig(fileCfg)
		}
		if err != nil {
			return fmt.Errorf("error saving global config: %w", err)
		}

		if logoutErr != nil {
			color.New(color.FgYellow).Fprintf(out, "Logged out locally; the server could not be told (%s)\n",
				messageOf(logoutErr, logoutErr.Error()))
			return nil
		}
		fmt.Fprintln(out, "Successfully logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current user information",
	Long:  "Display the user of the current session as reported by the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		err = a.start(cmd.Context())
		if errors.Is(err, models.ErrNetwork) && a.cfg.Email != "" {
			color.New(color.FgYellow).Fprintln(out, "The server is unreachable; showing the last login.")
			fmt.Fprintf(out, "Logged in as: %s\n", a.cfg.Email)
			fmt.Fprintf(out, "User ID: %d\n", a.cfg.UserID)
			fmt.Fprintf(out, "Server: %s\n", a.cfg.ServerURL)
			return nil
		}
		if err != nil {
			return err
		}

		user := a.gate.User()
		if a.gate.State() != auth.Authenticated || user == nil {
			fmt.Fprintln(out, "You are not logged in")
			return nil
		}

		fmt.Fprintf(out, "Logged in as: %s\n", user.Email)
		if user.Username != "" {
			fmt.Fprintf(out, "Username: %s\n", user.Username)
		}
		fmt.Fprintf(out, "User ID: %d\n", user.ID)
		fmt.Fprintf(out, "Server: %s\n", a.cfg.ServerURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password (prompted when omitted)")
}
