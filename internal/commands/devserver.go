package commands

import (
	"context"
	"fmt"
	"folio/internal/devserver"
	"folio/internal/models"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory portfolio backend",
	Long: `Run a local backend implementing the portfolio API, for trying folio without
a real server. Content lives in memory and is lost on exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		seed, _ := cmd.Flags().GetBool("seed")

		if password == "" {
			password = os.Getenv("FOLIO_DEV_PASSWORD")
		}
		if password == "" {
			return fmt.Errorf("an admin password is required: pass --password or set FOLIO_DEV_PASSWORD")
		}

		logger := slog.Default()
		if !logger.Enabled(cmd.Context(), slog.LevelDebug) {
			gin.SetMode(gin.ReleaseMode)
		}

		srv, err := devserver.New(devserver.Options{
			Email:    email,
			Password: password,
			Logger:   logger,
			Seed:     seed,
			Deliver: func(m models.ContactMessage) error {
				logger.Info("contact message", "from", m.Email, "subject", m.Subject)
				return nil
			},
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "Serving the portfolio API on %s (admin: %s)\n", addr, email)
		fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop.")
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	devserverCmd.Flags().String("addr", "localhost:8000", "Address to listen on")
	devserverCmd.Flags().String("email", "admin@example.com", "Admin email")
	devserverCmd.Flags().String("password", "", "Admin password (or FOLIO_DEV_PASSWORD)")
	devserverCmd.Flags().Bool("seed", true, "Start with sample categories, tags and projects")
}
