package commands

import (
	"context"
	"errors"
	"fmt"
	"folio/internal/gallery"
	"folio/internal/models"
	"folio/internal/util"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  "Create, list, update, and delete portfolio projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	Long:  "List projects, newest first, optionally limited to one category or re-sorted by the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		category, _ := cmd.Flags().GetString("category")
		sortBy, _ := cmd.Flags().GetString("sort")

		var projects []models.Project
		err = a.protected(ctx, func() error {
			var err error
			projects, err = a.admin.Projects.List(ctx)
			return err
		})
		if err != nil {
			return err
		}
		if sortBy != "" {
			// sorting is done by the backend and bypasses the cache
			if projects, err = a.client.SortProjects(ctx, sortBy); err != nil {
				return err
			}
		}
		projects = gallery.Filter(projects, category)

		out := cmd.OutOrStdout()
		if len(projects) == 0 {
			fmt.Fprintln(out, "No projects found. Create one with 'folio project create'")
			return nil
		}

		fmt.Fprintf(out, "Projects:\n\n")
		for i, p := range projects {
			printProjectSummary(out, i+1, p)
		}
		return nil
	},
}

var projectSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search projects by title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		projects, err := a.client.SearchProjects(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(projects) == 0 {
			fmt.Fprintf(out, "No projects match %q\n", args[0])
			return nil
		}
		for i, p := range projects {
			printProjectSummary(out, i+1, p)
		}
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show [project_id]",
	Short: "Show project details",
	Long:  "Show detailed information about a project",
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

		project, err := a.client.GetProject(cmd.Context(), id)
		if err != nil {
			return err
		}
		printProject(cmd.OutOrStdout(), project)
		return nil
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new project",
	Long: `Create a new project. The thumbnail is required; --image may be repeated
and images keep the order they are given in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := a.start(ctx); err != nil {
			return err
		}

		in := &models.ProjectInput{}
		in.Title, _ = cmd.Flags().GetString("title")
		in.Description, _ = cmd.Flags().GetString("description")

		// If title or description weren't provided via flags, prompt for them
		if in.Title == "" && a.prompt.interactive() {
			in.Title = a.prompt.ask("Project title", "")
		}
		if in.Description == "" && a.prompt.interactive() {
			in.Description = a.prompt.ask("Project description", "")
		}

		files, err := readProjectFlags(ctx, cmd, a, in)
		defer closeAll(files)
		if err != nil {
			return err
		}

		var project *models.Project
		err = a.protected(ctx, func() error {
			project, err = a.admin.Projects.Create(ctx, in)
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintln(out, "Project created successfully!")
		printUploads(out, files)
		printProject(out, project)
		return nil
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update [project_id]",
	Short: "Update project",
	Long:  "Update a project's details. Only the flags given are changed.",
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

		// Get current project details
		var current *models.Project
		err = a.protected(ctx, func() error {
			current, err = a.admin.Projects.Get(ctx, id)
			return err
		})
		if err != nil {
			return err
		}

		in := inputFromProject(current)
		if cmd.Flags().Changed("title") {
			in.Title, _ = cmd.Flags().GetString("title")
		}
		if cmd.Flags().Changed("description") {
			in.Description, _ = cmd.Flags().GetString("description")
		}

		files, err := readProjectFlags(ctx, cmd, a, in)
		defer closeAll(files)
		if err != nil {
			return err
		}

		project, err := a.admin.Projects.Update(ctx, id, in)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintln(out, "Project updated successfully!")
		printUploads(out, files)
		printProject(out, project)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete [project_id]",
	Short: "Delete project",
	Long:  "Delete a project and its images",
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

		var project *models.Project
		err = a.protected(ctx, func() error {
			project, err = a.admin.Projects.Get(ctx, id)
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		err = a.admin.Projects.Delete(ctx, id, project.Title)
		if errors.Is(err, models.ErrNotConfirmed) {
			fmt.Fprintln(out, "Project deletion cancelled.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "Project deleted successfully!")
		return nil
	},
}

// upload is a file opened for a project form
type upload struct {
	field string
	path  string
	size  int64
	file  *os.File
}

// readProjectFlags applies the flags shared by create and update to in and
// opens the files they name. The returned files must be closed by the caller,
// also on error.
func readProjectFlags(ctx context.Context, cmd *cobra.Command, a *app, in *models.ProjectInput) ([]*upload, error) {
	flags := cmd.Flags()

	if flags.Changed("category") {
		value, _ := flags.GetString("category")
		id, err := resolveCategory(ctx, a, value)
		if err != nil {
			return nil, err
		}
		in.Category = id
	}
	if flags.Changed("tag") {
		values, _ := flags.GetStringSlice("tag")
		ids, err := resolveTags(ctx, a, values)
		if err != nil {
			return nil, err
		}
		in.Tags = ids
	}
	if flags.Changed("tool") {
		in.Tools, _ = flags.GetStringSlice("tool")
	}
	if flags.Changed("link") {
		in.Link, _ = flags.GetString("link")
	}
	if flags.Changed("featured") {
		in.Featured, _ = flags.GetBool("featured")
	}

	var files []*upload
	if thumbnail, _ := flags.GetString("thumbnail"); thumbnail != "" {
		f, err := openUpload("thumbnail", thumbnail)
		if err != nil {
			return files, err
		}
		files = append(files, f)
		in.Thumbnail = &models.Upload{Filename: filepath.Base(f.path), Content: f.file}
	}

	images, _ := flags.GetStringArray("image")
	for _, path := range images {
		f, err := openUpload("images", path)
		if err != nil {
			return files, err
		}
		files = append(files, f)
		in.Images = append(in.Images, models.Upload{Filename: filepath.Base(f.path), Content: f.file})
	}
	return files, nil
}

func openUpload(field, path string) (*upload, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", field, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("error reading %s: %w", field, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%s %s is a directory", field, path)
	}
	return &upload{field: field, path: path, size: info.Size(), file: file}, nil
}

func closeAll(files []*upload) {
	for _, f := range files {
		f.file.Close()
	}
}

// resolveCategory accepts a category id or slug
func resolveCategory(ctx context.Context, a *app, value string) (int64, error) {
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id, nil
	}

	categories, err := a.cache.Categories(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range categories {
		if c.Slug == value {
			return c.ID, nil
		}
	}
	return 0, (&models.ValidationError{}).Add("category", fmt.Sprintf("unknown category %q", value))
}

// resolveTags accepts tag ids or slugs
func resolveTags(ctx context.Context, a *app, values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	var tags []models.Tag

	for _, value := range values {
		if id, err := strconv.ParseInt(value, 10, 64); err == nil {
			ids = append(ids, id)
			continue
		}
		if tags == nil {
			var err error
			if tags, err = a.cache.Tags(ctx); err != nil {
				return nil, err
			}
		}
		found := false
		for _, t := range tags {
			if t.Slug == value {
				ids = append(ids, t.ID)
				found = true
				break
			}
		}
		if !found {
			return nil, (&models.ValidationError{}).Add("tags", fmt.Sprintf("unknown tag %q", value))
		}
	}
	return ids, nil
}

// inputFromProject starts an update from the project's current values. Files
// are left out so the backend keeps the existing ones.
func inputFromProject(p *models.Project) *models.ProjectInput {
	in := &models.ProjectInput{
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Featured:    p.Featured,
		Tools:       p.Tools,
	}
	if p.Link != nil {
		in.Link = *p.Link
	}
	for _, t := range p.Tags {
		in.Tags = append(in.Tags, t.ID)
	}
	return in
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printUploads(w io.Writer, files []*upload) {
	for _, f := range files {
		fmt.Fprintf(w, "Uploaded %s: %s (%s)\n", f.field, filepath.Base(f.path), util.FormatSize(f.size))
	}
}

func printProjectSummary(w io.Writer, n int, p models.Project) {
	title := p.Title
	if p.Featured {
		title = "★ " + title
	}
	fmt.Fprintf(w, "%d. %s (ID: %d)\n", n, title, p.ID)
	if p.CategoryDetails != nil {
		fmt.Fprintf(w, "   Category: %s\n", p.CategoryDetails.Name)
	}
	fmt.Fprintf(w, "   Description: %s\n", util.Truncate(p.Description, 72))
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(w, "   Created: %s\n", p.CreatedAt.Format(time.RFC1123))
	}
	fmt.Fprintln(w)
}

func printProject(w io.Writer, p *models.Project) {
	fmt.Fprintf(w, "ID: %d\n", p.ID)
	fmt.Fprintf(w, "Title: %s\n", p.Title)
	if p.CategoryDetails != nil {
		fmt.Fprintf(w, "Category: %s (%s)\n", p.CategoryDetails.Name, p.CategoryDetails.Slug)
	}
	fmt.Fprintf(w, "Description: %s\n", p.Description)
	fmt.Fprintf(w, "Featured: %t\n", p.Featured)
	if len(p.Tools) > 0 {
		fmt.Fprintf(w, "Tools: %s\n", strings.Join(p.Tools, ", "))
	}
	if len(p.Tags) > 0 {
		names := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			names[i] = t.Name
		}
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(names, ", "))
	}
	if p.Link != nil && *p.Link != "" {
		fmt.Fprintf(w, "Link: %s\n", *p.Link)
	}
	if p.Thumbnail != "" {
		fmt.Fprintf(w, "Thumbnail: %s\n", p.Thumbnail)
	}
	for _, img := range p.Images {
		fmt.Fprintf(w, "Image %d: %s\n", img.Order, img.Image)
	}
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created: %s\n", p.CreatedAt.Format(time.RFC1123))
	}
}

func addProjectFormFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Project title")
	cmd.Flags().String("description", "", "Project description")
	cmd.Flags().String("category", "", "Category slug or id")
	cmd.Flags().StringSlice("tag", nil, "Tag slug or id (repeatable)")
	cmd.Flags().StringSlice("tool", nil, "Tool used (repeatable, kept in order)")
	cmd.Flags().String("link", "", "Project URL")
	cmd.Flags().Bool("featured", false, "Show the project as featured")
	cmd.Flags().String("thumbnail", "", "Thumbnail image file")
	cmd.Flags().StringArray("image", nil, "Gallery image file (repeatable, kept in order)")
}

func init() {
	rootCmd.AddCommand(projectCmd)

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectSearchCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectUpdateCmd)
	projectCmd.AddCommand(projectDeleteCmd)

	projectListCmd.Flags().String("category", gallery.All, "Only show projects in this category slug")
	projectListCmd.Flags().String("sort", "", "Sort by field on the backend, e.g. title or -created_at")

	addProjectFormFlags(projectCreateCmd)
	addProjectFormFlags(projectUpdateCmd)

	projectDeleteCmd.Flags().Bool("force", false, "Force deletion without confirmation")
}
