package commands

import (
	"errors"
	"fmt"
	"folio/internal/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"categories"},
	Short:   "Manage categories",
	Long:    "Create, list, update, and delete the categories projects are grouped by",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories in display order",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		var categories []models.Category
		err = a.protected(ctx, func() error {
			categories, err = a.admin.Categories.List(ctx)
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(categories) == 0 {
			fmt.Fprintln(out, "No categories found. Create one with 'folio category create'")
			return nil
		}
		for _, c := range categories {
			fmt.Fprintf(out, "%d. %s [%s] (ID: %d)\n", c.Order, c.Name, c.Slug, c.ID)
			if c.Description != "" {
				fmt.Fprintf(out, "   %s\n", c.Description)
			}
		}
		return nil
	},
}

var categoryCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a category",
	Long:  "Create a category. The slug is derived from the name by the backend.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		in := &models.CategoryInput{}
		in.Name, _ = cmd.Flags().GetString("name")
		in.Description, _ = cmd.Flags().GetString("description")
		in.Order, _ = cmd.Flags().GetInt("order")
		if in.Name == "" && a.prompt.interactive() {
			in.Name = a.prompt.ask("Category name", "")
		}

		var category *models.Category
		err = a.protected(ctx, func() error {
			category, err = a.admin.Categories.Create(ctx, in)
			return err
		})
		if err != nil {
			return err
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Category created: %s [%s] (ID: %d)\n",
			category.Name, category.Slug, category.ID)
		return nil
	},
}

var categoryUpdateCmd = &cobra.Command{
	Use:   "update [category_id]",
	Short: "Update a category",
	Long:  "Update a category. Only the flags given are changed; renaming changes the slug.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		var categories []models.Category
		err = a.protected(ctx, func() error {
			categories, err = a.admin.Categories.List(ctx)
			return err
		})
		if err != nil {
			return err
		}

		var current *models.Category
		for i := range categories {
			if categories[i].ID == id {
				current = &categories[i]
				break
			}
		}
		if current == nil {
			return &models.APIError{Kind: models.ErrNotFound, Message: fmt.Sprintf("category %d", id)}
		}

		in := &models.CategoryInput{Name: current.Name, Description: current.Description, Order: current.Order}
		if cmd.Flags().Changed("name") {
			in.Name, _ = cmd.Flags().GetString("name")
		}
		if cmd.Flags().Changed("description") {
			in.Description, _ = cmd.Flags().GetString("description")
		}
		if cmd.Flags().Changed("order") {
			in.Order, _ = cmd.Flags().GetInt("order")
		}

		category, err := a.admin.Categories.Update(ctx, id, in)
		if err != nil {
			return err
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Category updated: %s [%s] (ID: %d)\n",
			category.Name, category.Slug, category.ID)
		return nil
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete [category_id]",
	Short: "Delete a category",
	Long:  "Delete a category. The backend refuses while projects still use it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		name := fmt.Sprintf("#%d", id)
		var categories []models.Category
		err = a.protected(ctx, func() error {
			categories, err = a.admin.Categories.List(ctx)
			return err
		})
		if err != nil {
			return err
		}
		for _, c := range categories {
			if c.ID == id {
				name = c.Name
			}
		}

		out := cmd.OutOrStdout()
		err = a.admin.Categories.Delete(ctx, id, name)
		if errors.Is(err, models.ErrNotConfirmed) {
			fmt.Fprintln(out, "Category deletion cancelled.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "Category deleted successfully!")
		return nil
	},
}

var tagCmd = &cobra.Command{
	Use:     "tag",
	Aliases: []string{"tags"},
	Short:   "Manage tags",
	Long:    "Create, list, rename, and delete project tags",
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		var tags []models.Tag
		err = a.protected(ctx, func() error {
			tags, err = a.admin.Tags.List(ctx)
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(tags) == 0 {
			fmt.Fprintln(out, "No tags found. Create one with 'folio tag create'")
			return nil
		}
		for _, t := range tags {
			fmt.Fprintf(out, "%s [%s] (ID: %d)\n", t.Name, t.Slug, t.ID)
		}
		return nil
	},
}

var tagCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		var tag *models.Tag
		err = a.protected(ctx, func() error {
			tag, err = a.admin.Tags.Create(ctx, &models.TagInput{Name: args[0]})
			return err
		})
		if err != nil {
			return err
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Tag created: %s [%s] (ID: %d)\n", tag.Name, tag.Slug, tag.ID)
		return nil
	},
}

var tagUpdateCmd = &cobra.Command{
	Use:   "update [tag_id] [name]",
	Short: "Rename a tag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		var tag *models.Tag
		err = a.protected(ctx, func() error {
			tag, err = a.admin.Tags.Update(ctx, id, &models.TagInput{Name: args[1]})
			return err
		})
		if err != nil {
			return err
		}

		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Tag updated: %s [%s] (ID: %d)\n", tag.Name, tag.Slug, tag.ID)
		return nil
	},
}

var tagDeleteCmd = &cobra.Command{
	Use:   "delete [tag_id]",
	Short: "Delete a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		err = a.protected(ctx, func() error {
			return a.admin.Tags.Delete(ctx, id, fmt.Sprintf("#%d", id))
		})
		if errors.Is(err, models.ErrNotConfirmed) {
			fmt.Fprintln(out, "Tag deletion cancelled.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "Tag deleted successfully!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoryCmd)
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryCreateCmd)
	categoryCmd.AddCommand(categoryUpdateCmd)
	categoryCmd.AddCommand(categoryDeleteCmd)

	for _, cmd := range []*cobra.Command{categoryCreateCmd, categoryUpdateCmd} {
		cmd.Flags().String("name", "", "Category name")
		cmd.Flags().String("description", "", "Category description")
		cmd.Flags().Int("order", 0, "Sort weight; lower comes first")
	}
	categoryDeleteCmd.Flags().Bool("force", false, "Force deletion without confirmation")

	rootCmd.AddCommand(tagCmd)
	tagCmd.AddCommand(tagListCmd)
	tagCmd.AddCommand(tagCreateCmd)
	tagCmd.AddCommand(tagUpdateCmd)
	tagCmd.AddCommand(tagDeleteCmd)

	tagDeleteCmd.Flags().Bool("force", false, "Force deletion without confirmation")
}
