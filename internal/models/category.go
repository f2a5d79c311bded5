package models

import (
	"fmt"
	"strings"
)

// Category groups projects in the gallery
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// Validate checks the response schema of a category
func (c *Category) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: category id %d", ErrMalformedResponse, c.ID)
	}
	if c.Slug == "" {
		return fmt.Errorf("%w: category %d has no slug", ErrMalformedResponse, c.ID)
	}
	return nil
}

// CategoryInput is the JSON payload for creating or updating a category.
// The slug is derived from name by the backend.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// Validate checks required fields
func (in *CategoryInput) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "this field is required")
	}
	if in.Order < 0 {
		v.Add("order", "must be zero or greater")
	}
	return v.Err()
}

// Tag is a free label attached to projects
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Validate checks the response schema of a tag
func (t *Tag) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("%w: tag id %d", ErrMalformedResponse, t.ID)
	}
	if t.Slug == "" {
		return fmt.Errorf("%w: tag %d has no slug", ErrMalformedResponse, t.ID)
	}
	return nil
}

// TagInput is the JSON payload for creating or updating a tag
type TagInput struct {
	Name string `json:"name"`
}

// Validate checks required fields
func (in *TagInput) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "this field is required")
	}
	return v.Err()
}
