package models

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProjectImage is one gallery image attached to a project
type ProjectImage struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
	Order int    `json:"order"`
}

// Project represents a portfolio project as returned by the backend
type Project struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	Category        int64          `json:"category"`
	CategoryDetails *Category      `json:"category_details"`
	Description     string         `json:"description"`
	Thumbnail       string         `json:"thumbnail"`
	Featured        bool           `json:"featured"`
	Tools           []string       `json:"tools"`
	Link            *string        `json:"link,omitempty"`
	Images          []ProjectImage `json:"images"`
	Tags            []Tag          `json:"tags"`
	CreatedAt       time.Time      `json:"created_at"`
}

// CategorySlug returns the slug of the nested category, or "" if absent
func (p *Project) CategorySlug() string {
	if p.CategoryDetails == nil {
		return ""
	}
	return p.CategoryDetails.Slug
}

// Validate checks the response schema of a project
func (p *Project) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("%w: project id %d", ErrMalformedResponse, p.ID)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: project %d has no title", ErrMalformedResponse, p.ID)
	}
	if p.CategoryDetails == nil {
		return fmt.Errorf("%w: project %d has no category details", ErrMalformedResponse, p.ID)
	}
	if p.CategoryDetails.ID != p.Category {
		return fmt.Errorf("%w: project %d category %d does not match details %d",
			ErrMalformedResponse, p.ID, p.Category, p.CategoryDetails.ID)
	}
	if err := p.CategoryDetails.Validate(); err != nil {
		return err
	}

	// image order must be unique and increasing
	for i := 1; i < len(p.Images); i++ {
		if p.Images[i].Order <= p.Images[i-1].Order {
			return fmt.Errorf("%w: project %d image order %d after %d",
				ErrMalformedResponse, p.ID, p.Images[i].Order, p.Images[i-1].Order)
		}
	}

	for i := range p.Tags {
		if err := p.Tags[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Upload is a file sent as one part of a multipart request
type Upload struct {
	Filename string
	Content  io.Reader
}

// ProjectInput is the payload for creating or updating a project
type ProjectInput struct {
	Title       string
	Description string
	Category    int64
	Featured    bool
	Tools       []string
	Link        string
	Tags        []int64

	// Thumbnail is required on create and optional on update
	Thumbnail *Upload
	Images    []Upload
}

// Validate checks required fields. Thumbnail is only required when creating.
func (in *ProjectInput) Validate(creating bool) error {
	v := &ValidationError{}

	if strings.TrimSpace(in.Title) == "" {
		v.Add("title", "this field is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		v.Add("description", "this field is required")
	}
	if in.Category <= 0 {
		v.Add("category", "this field is required")
	}
	if creating && in.Thumbnail == nil {
		v.Add("thumbnail", "this field is required")
	}
	if in.Thumbnail != nil && (in.Thumbnail.Filename == "" || in.Thumbnail.Content == nil) {
		v.Add("thumbnail", "no file was submitted")
	}
	for _, img := range in.Images {
		if img.Filename == "" || img.Content == nil {
			v.Add("images", "no file was submitted")
			break
		}
	}

	return v.Err()
}
