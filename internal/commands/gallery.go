package commands

import (
	"fmt"
	"folio/internal/gallery"
	"folio/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Browse the public project gallery",
	Long: `Open the public gallery in the terminal. Use the arrow keys to switch category,
enter to open a project and r to refresh. --plain prints the filtered list instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		filter, _ := cmd.Flags().GetString("category")
		plain, _ := cmd.Flags().GetBool("plain")

		if !plain {
			p := tea.NewProgram(ui.NewModel(a.cache, filter), tea.WithAltScreen())
			_, err := p.Run()
			return err
		}

		projects, err := a.cache.Projects(cmd.Context())
		if err != nil {
			return err
		}
		controller := gallery.NewController()
		controller.SetProjects(projects)
		controller.SetFilter(filter)

		out := cmd.OutOrStdout()
		items := controller.Items()
		if len(items) == 0 {
			fmt.Fprintf(out, "No projects in %q\n", controller.Filter())
			return nil
		}
		for _, it := range items {
			category := ""
			if it.Project.CategoryDetails != nil {
				category = it.Project.CategoryDetails.Name
			}
			fmt.Fprintf(out, "%2d  %s (%s)\n", it.Reveal+1, it.Project.Title, category)
		}
		return nil
	},
}

func init() {
	galleryCmd.Flags().String("category", gallery.All, "Category slug to start on, or all")
	galleryCmd.Flags().Bool("plain", false, "Print the filtered projects instead of opening the gallery")
}
