package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"folio/internal/models"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// ListProjects retrieves all projects with nested category and tags
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	return c.listProjects(ctx, &request{method: http.MethodGet, path: "/projects/"})
}

// SearchProjects returns projects whose title contains q
func (c *Client) SearchProjects(ctx context.Context, q string) ([]models.Project, error) {
	return c.listProjects(ctx, &request{
		method: http.MethodGet,
		path:   "/projects/search/",
		query:  url.Values{"q": {q}},
	})
}

// FilterProjects returns projects in the given category
func (c *Client) FilterProjects(ctx context.Context, categoryID int64) ([]models.Project, error) {
	return c.listProjects(ctx, &request{
		method: http.MethodGet,
		path:   "/projects/filter/",
		query:  url.Values{"category": {strconv.FormatInt(categoryID, 10)}},
	})
}

// SortProjects returns all projects ordered by field; a leading "-" sorts descending
func (c *Client) SortProjects(ctx context.Context, field string) ([]models.Project, error) {
	return c.listProjects(ctx, &request{
		method: http.MethodGet,
		path:   "/projects/sort/",
		query:  url.Values{"sort_by": {field}},
	})
}

func (c *Client) listProjects(ctx context.Context, req *request) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, req, &projects); err != nil {
		return nil, err
	}

	for i := range projects {
		if err := projects[i].Validate(); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// GetProject retrieves a project by ID
func (c *Client) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, &request{method: http.MethodGet, path: projectPath(id)}, &project); err != nil {
		return nil, err
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject uploads a new project with its thumbnail and images
func (c *Client) CreateProject(ctx context.Context, in *models.ProjectInput) (*models.Project, error) {
	return c.sendProject(ctx, http.MethodPost, "/projects/", in)
}

// UpdateProject partially updates a project. Files are only replaced when given.
func (c *Client) UpdateProject(ctx context.Context, id int64, in *models.ProjectInput) (*models.Project, error) {
	return c.sendProject(ctx, http.MethodPatch, projectPath(id), in)
}

// DeleteProject deletes a project
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.do(ctx, &request{method: http.MethodDelete, path: projectPath(id)}, nil)
}

func (c *Client) sendProject(ctx context.Context, method, path string, in *models.ProjectInput) (*models.Project, error) {
	body, contentType, err := encodeProject(in)
	if err != nil {
		return nil, err
	}

	var project models.Project
	if err := c.do(ctx, &request{method: method, path: path, body: body, contentType: contentType}, &project); err != nil {
		return nil, err
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}
	return &project, nil
}

// encodeProject builds the multipart form the backend expects: scalar fields,
// tools as a JSON array, one "tags" field per tag and one "images" part per image.
func encodeProject(in *models.ProjectInput) ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	tools := in.Tools
	if tools == nil {
		tools = []string{}
	}
	toolsJSON, err := json.Marshal(tools)
	if err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"title", in.Title},
		{"description", in.Description},
		{"category", strconv.FormatInt(in.Category, 10)},
		{"featured", strconv.FormatBool(in.Featured)},
		{"tools", string(toolsJSON)},
	}
	if in.Link != "" {
		fields = append(fields, [2]string{"link", in.Link})
	}
	for _, tagID := range in.Tags {
		fields = append(fields, [2]string{"tags", strconv.FormatInt(tagID, 10)})
	}

	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", err
		}
	}

	if in.Thumbnail != nil {
		if err := writeFile(writer, "thumbnail", in.Thumbnail); err != nil {
			return nil, "", err
		}
	}
	for i := range in.Images {
		if err := writeFile(writer, "images", &in.Images[i]); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body.Bytes(), writer.FormDataContentType(), nil
}

func writeFile(writer *multipart.Writer, field string, upload *models.Upload) error {
	part, err := writer.CreateFormFile(field, upload.Filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return fmt.Errorf("error reading %s: %w", upload.Filename, err)
	}
	return nil
}

func projectPath(id int64) string {
	return fmt.Sprintf("/projects/%d/", id)
}
