// Package gallery computes the filtered project sequence shown by the public
// gallery and the staggered reveal order of its cards.
package gallery

import (
	"folio/internal/models"
	"slices"
	"sync"
)

// All selects every project
const All = "all"

// Item is one visible project. Reveal is its position in the filtered
// sequence and only drives presentation timing.
type Item struct {
	Project models.Project
	Reveal  int
}

// Filter returns the projects whose category slug matches filter, keeping
// their relative order. All returns every project.
func Filter(projects []models.Project, filter string) []models.Project {
	if filter == "" || filter == All {
		return slices.Clone(projects)
	}

	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if p.CategorySlug() == filter {
			out = append(out, p)
		}
	}
	return out
}

// Controller holds the current collection and filter. Revision increases only
// when the visible sequence really changes, so a renderer can restart the
// reveal animation on that and ignore ticks from an older revision.
type Controller struct {
	mu       sync.Mutex
	projects []models.Project
	filter   string
	items    []Item
	ids      []int64
	revision uint64
}

// NewController creates a controller showing all projects
func NewController() *Controller {
	return &Controller{filter: All}
}

// SetProjects replaces the collection. Returns true if the reveal restarted.
func (c *Controller) SetProjects(projects []models.Project) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects = slices.Clone(projects)
	return c.recomputeLocked()
}

// SetFilter selects a category slug or All. Returns true if the reveal restarted.
func (c *Controller) SetFilter(filter string) bool {
	if filter == "" {
		filter = All
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = filter
	return c.recomputeLocked()
}

// Filter returns the selected filter
func (c *Controller) Filter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Items returns the visible sequence
func (c *Controller) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Revision identifies the current reveal sequence
func (c *Controller) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

func (c *Controller) recomputeLocked() bool {
	filtered := Filter(c.projects, c.filter)

	ids := make([]int64, len(filtered))
	for i, p := range filtered {
		ids[i] = p.ID
	}

	// same projects in the same order: keep the running reveal
	if c.items != nil && slices.Equal(ids, c.ids) {
		for i := range c.items {
			c.items[i].Project = filtered[i]
		}
		return false
	}

	items := make([]Item, len(filtered))
	for i, p := range filtered {
		items[i] = Item{Project: p, Reveal: i}
	}
	c.items = items
	c.ids = ids
	c.revision++
	return true
}
