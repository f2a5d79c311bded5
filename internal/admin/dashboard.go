package admin

import (
	"context"
	"folio/internal/models"
)

// recentLimit is how many projects the dashboard lists
const recentLimit = 5

// Stats summarises the content for the dashboard
type Stats struct {
	Projects   int
	Featured   int
	Categories int
	Tags       int

	// Newest projects first, as served by the backend
	Recent []models.Project
}

// Dashboard reads the three collections through the cache and counts them
func (a *Admin) Dashboard(ctx context.Context) (*Stats, error) {
	b := a.base
	if err := b.guard("/admin"); err != nil {
		return nil, err
	}

	projects, err := b.cache.Projects(ctx)
	if err != nil {
		b.gate.Observe(err)
		return nil, err
	}
	categories, err := b.cache.Categories(ctx)
	if err != nil {
		b.gate.Observe(err)
		return nil, err
	}
	tags, err := b.cache.Tags(ctx)
	if err != nil {
		b.gate.Observe(err)
		return nil, err
	}

	stats := &Stats{
		Projects:   len(projects),
		Categories: len(categories),
		Tags:       len(tags),
	}
	for _, p := range projects {
		if p.Featured {
			stats.Featured++
		}
	}
	stats.Recent = projects[:min(recentLimit, len(projects))]
	return stats, nil
}
