package admin

import (
	"context"
	"fmt"
	"folio/internal/cache"
	"folio/internal/models"
)

// Categories manages project categories. Projects embed their category, so
// every write also clears the projects entry.
type Categories struct {
	*base
}

// List returns the cached categories
func (c *Categories) List(ctx context.Context) ([]models.Category, error) {
	if err := c.guard("/admin/categories"); err != nil {
		return nil, err
	}
	categories, err := c.cache.Categories(ctx)
	if err != nil {
		c.gate.Observe(err)
		return nil, err
	}
	return categories, nil
}

func (c *Categories) Create(ctx context.Context, in *models.CategoryInput) (*models.Category, error) {
	if err := c.guard("/admin/categories/new"); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	category, err := c.gw.CreateCategory(ctx, in)
	if err := c.finish(err, cache.Categories, cache.Projects); err != nil {
		return nil, err
	}
	return category, nil
}

func (c *Categories) Update(ctx context.Context, id int64, in *models.CategoryInput) (*models.Category, error) {
	if err := c.guard(fmt.Sprintf("/admin/categories/%d/edit", id)); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	category, err := c.gw.UpdateCategory(ctx, id, in)
	if err := c.finish(err, cache.Categories, cache.Projects); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes category id after confirmation. The backend refuses with a
// conflict while projects still reference it, and nothing is invalidated.
func (c *Categories) Delete(ctx context.Context, id int64, name string) error {
	if err := c.guard("/admin/categories"); err != nil {
		return err
	}
	if err := c.confirmDelete(fmt.Sprintf("Delete category %q?", name)); err != nil {
		return err
	}
	return c.finish(c.gw.DeleteCategory(ctx, id), cache.Categories, cache.Projects)
}

// Tags manages project tags
type Tags struct {
	*base
}

// List returns the cached tags
func (t *Tags) List(ctx context.Context) ([]models.Tag, error) {
	if err := t.guard("/admin/tags"); err != nil {
		return nil, err
	}
	tags, err := t.cache.Tags(ctx)
	if err != nil {
		t.gate.Observe(err)
		return nil, err
	}
	return tags, nil
}

func (t *Tags) Create(ctx context.Context, in *models.TagInput) (*models.Tag, error) {
	if err := t.guard("/admin/tags/new"); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tag, err := t.gw.CreateTag(ctx, in)
	if err := t.finish(err, cache.Tags, cache.Projects); err != nil {
		return nil, err
	}
	return tag, nil
}

func (t *Tags) Update(ctx context.Context, id int64, in *models.TagInput) (*models.Tag, error) {
	if err := t.guard(fmt.Sprintf("/admin/tags/%d/edit", id)); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tag, err := t.gw.UpdateTag(ctx, id, in)
	if err := t.finish(err, cache.Tags, cache.Projects); err != nil {
		return nil, err
	}
	return tag, nil
}

func (t *Tags) Delete(ctx context.Context, id int64, name string) error {
	if err := t.guard("/admin/tags"); err != nil {
		return err
	}
	if err := t.confirmDelete(fmt.Sprintf("Delete tag %q?", name)); err != nil {
		return err
	}
	return t.finish(t.gw.DeleteTag(ctx, id), cache.Tags, cache.Projects)
}
