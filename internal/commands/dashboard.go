package commands

import (
	"fmt"
	"folio/internal/admin"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show content counts and recent projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		var stats *admin.Stats
		err = a.protected(ctx, func() error {
			stats, err = a.admin.Dashboard(ctx)
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		bold := color.New(color.Bold)
		bold.Fprintln(out, "Dashboard")
		fmt.Fprintf(out, "  Projects:   %d (%d featured)\n", stats.Projects, stats.Featured)
		fmt.Fprintf(out, "  Categories: %d\n", stats.Categories)
		fmt.Fprintf(out, "  Tags:       %d\n", stats.Tags)

		if len(stats.Recent) > 0 {
			fmt.Fprintln(out)
			bold.Fprintln(out, "Recent projects")
			for i, p := range stats.Recent {
				printProjectSummary(out, i+1, p)
			}
		}
		return nil
	},
}
