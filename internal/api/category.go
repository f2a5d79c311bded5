package api

import (
	"context"
	"fmt"
	"folio/internal/models"
	"net/http"
)

// ListCategories retrieves all categories in display order
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/categories/"}, &categories); err != nil {
		return nil, err
	}
	for i := range categories {
		if err := categories[i].Validate(); err != nil {
			return nil, err
		}
	}
	return categories, nil
}

// CreateCategory creates a category; the backend derives the slug from the name
func (c *Client) CreateCategory(ctx context.Context, in *models.CategoryInput) (*models.Category, error) {
	return c.sendCategory(ctx, http.MethodPost, "/categories/", in)
}

// UpdateCategory updates a category
func (c *Client) UpdateCategory(ctx context.Context, id int64, in *models.CategoryInput) (*models.Category, error) {
	return c.sendCategory(ctx, http.MethodPatch, categoryPath(id), in)
}

// DeleteCategory deletes a category. The backend refuses while projects reference it.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, &request{method: http.MethodDelete, path: categoryPath(id)}, nil)
}

func (c *Client) sendCategory(ctx context.Context, method, path string, in *models.CategoryInput) (*models.Category, error) {
	req, err := jsonRequest(method, path, in)
	if err != nil {
		return nil, err
	}

	var category models.Category
	if err := c.do(ctx, req, &category); err != nil {
		return nil, err
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	return &category, nil
}

func categoryPath(id int64) string {
	return fmt.Sprintf("/categories/%d/", id)
}

// ListTags retrieves all tags
func (c *Client) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/tags/"}, &tags); err != nil {
		return nil, err
	}
	for i := range tags {
		if err := tags[i].Validate(); err != nil {
			return nil, err
		}
	}
	return tags, nil
}

// CreateTag creates a tag
func (c *Client) CreateTag(ctx context.Context, in *models.TagInput) (*models.Tag, error) {
	return c.sendTag(ctx, http.MethodPost, "/tags/", in)
}

// UpdateTag renames a tag
func (c *Client) UpdateTag(ctx context.Context, id int64, in *models.TagInput) (*models.Tag, error) {
	return c.sendTag(ctx, http.MethodPatch, tagPath(id), in)
}

// DeleteTag deletes a tag
func (c *Client) DeleteTag(ctx context.Context, id int64) error {
	return c.do(ctx, &request{method: http.MethodDelete, path: tagPath(id)}, nil)
}

func (c *Client) sendTag(ctx context.Context, method, path string, in *models.TagInput) (*models.Tag, error) {
	req, err := jsonRequest(method, path, in)
	if err != nil {
		return nil, err
	}

	var tag models.Tag
	if err := c.do(ctx, req, &tag); err != nil {
		return nil, err
	}
	if err := tag.Validate(); err != nil {
		return nil, err
	}
	return &tag, nil
}

func tagPath(id int64) string {
	return fmt.Sprintf("/tags/%d/", id)
}

// SubmitContact sends a message through the contact form
func (c *Client) SubmitContact(ctx context.Context, msg *models.ContactMessage) error {
	req, err := jsonRequest(http.MethodPost, "/contact/", msg)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}
