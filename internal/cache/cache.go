// Package cache keeps fetched content collections in memory, one entry per
// resource type, with a freshness window and wholesale invalidation.
package cache

import (
	"context"
	"folio/internal/models"
	"log/slog"
	"time"
)

// Resource names a cacheable collection
type Resource string

const (
	Projects   Resource = "projects"
	Categories Resource = "categories"
	Tags       Resource = "tags"
)

// DefaultTTL is how long an entry is served before it is fetched again
const DefaultTTL = 5 * time.Minute

type options struct {
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func defaultOptions() options {
	return options{
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
}

// Option configures a cache or slot
type Option func(*options)

// WithTTL sets the staleness window. ttl <= 0 disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Gateway is the part of the content backend the cache reads from
type Gateway interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
}

// Cache owns the collections shared by the gallery and the admin controllers.
// Create one per application and pass it to whoever needs it.
type Cache struct {
	projects   *Slot[models.Project]
	categories *Slot[models.Category]
	tags       *Slot[models.Tag]
}

// New creates a cache reading through gw
func New(gw Gateway, opts ...Option) *Cache {
	return &Cache{
		projects:   NewSlot(Projects, gw.ListProjects, opts...),
		categories: NewSlot(Categories, gw.ListCategories, opts...),
		tags:       NewSlot(Tags, gw.ListTags, opts...),
	}
}

// Projects returns all projects, newest first as served by the backend
func (c *Cache) Projects(ctx context.Context) ([]models.Project, error) {
	return c.projects.Get(ctx)
}

// Categories returns all categories in display order
func (c *Cache) Categories(ctx context.Context) ([]models.Category, error) {
	return c.categories.Get(ctx)
}

// Tags returns all tags
func (c *Cache) Tags(ctx context.Context) ([]models.Tag, error) {
	return c.tags.Get(ctx)
}

// Invalidate clears the entries for the given resources
func (c *Cache) Invalidate(resources ...Resource) {
	for _, r := range resources {
		switch r {
		case Projects:
			c.projects.Invalidate()
		case Categories:
			c.categories.Invalidate()
		case Tags:
			c.tags.Invalidate()
		}
	}
}

// InvalidateAll clears every entry
func (c *Cache) InvalidateAll() {
	c.Invalidate(Projects, Categories, Tags)
}

// Fetches reports how many backend fetches have been issued for r
func (c *Cache) Fetches(r Resource) uint64 {
	switch r {
	case Projects:
		return c.projects.Fetches()
	case Categories:
		return c.categories.Fetches()
	case Tags:
		return c.tags.Fetches()
	}
	return 0
}
