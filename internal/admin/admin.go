// Package admin implements the create, update and delete flows of the admin
// area on top of the gateway, the cache and the auth gate.
package admin

import (
	"context"
	"folio/internal/cache"
	"folio/internal/models"
	"log/slog"
)

// Gateway is the set of backend writes the controllers dispatch
type Gateway interface {
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, in *models.ProjectInput) (*models.Project, error)
	UpdateProject(ctx context.Context, id int64, in *models.ProjectInput) (*models.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, in *models.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, in *models.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateTag(ctx context.Context, in *models.TagInput) (*models.Tag, error)
	UpdateTag(ctx context.Context, id int64, in *models.TagInput) (*models.Tag, error)
	DeleteTag(ctx context.Context, id int64) error
}

// Cache is what the controllers need from the cache layer
type Cache interface {
	Projects(ctx context.Context) ([]models.Project, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Tags(ctx context.Context) ([]models.Tag, error)
	Invalidate(resources ...cache.Resource)
}

// Gate guards the admin area
type Gate interface {
	Require(location string) error
	Observe(err error)
}

// Confirmer asks the user to confirm a destructive action
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// AlwaysConfirm accepts every prompt, for --force
var AlwaysConfirm = ConfirmFunc(func(string) (bool, error) { return true, nil })

// Admin bundles the per-resource controllers
type Admin struct {
	Projects   *Projects
	Categories *Categories
	Tags       *Tags

	base *base
}

// New creates the controllers. A nil confirm declines every delete.
func New(gw Gateway, c Cache, gate Gate, confirm Confirmer, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	if confirm == nil {
		confirm = ConfirmFunc(func(string) (bool, error) { return false, nil })
	}

	b := &base{gw: gw, cache: c, gate: gate, confirm: confirm, logger: logger}
	return &Admin{
		Projects:   &Projects{b},
		Categories: &Categories{b},
		Tags:       &Tags{b},
		base:       b,
	}
}

type base struct {
	gw      Gateway
	cache   Cache
	gate    Gate
	confirm Confirmer
	logger  *slog.Logger
}

// guard checks the session before any protected operation
func (b *base) guard(location string) error {
	return b.gate.Require(location)
}

// finish reports err to the gate and, on success, clears the given entries
func (b *base) finish(err error, resources ...cache.Resource) error {
	if err != nil {
		b.gate.Observe(err)
		return err
	}
	b.cache.Invalidate(resources...)
	b.logger.Debug("invalidated after write", "resources", resources)
	return nil
}

func (b *base) confirmDelete(prompt string) error {
	ok, err := b.confirm.Confirm(prompt)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrNotConfirmed
	}
	return nil
}
