package admin

import (
	"context"
	"fmt"
	"folio/internal/cache"
	"folio/internal/models"
)

// Projects manages portfolio projects
type Projects struct {
	*base
}

// List returns the cached projects
func (p *Projects) List(ctx context.Context) ([]models.Project, error) {
	if err := p.guard("/admin/projects"); err != nil {
		return nil, err
	}
	projects, err := p.cache.Projects(ctx)
	if err != nil {
		p.gate.Observe(err)
		return nil, err
	}
	return projects, nil
}

// Get fetches a single project from the backend
func (p *Projects) Get(ctx context.Context, id int64) (*models.Project, error) {
	if err := p.guard(fmt.Sprintf("/admin/projects/%d", id)); err != nil {
		return nil, err
	}
	project, err := p.gw.GetProject(ctx, id)
	if err != nil {
		p.gate.Observe(err)
		return nil, err
	}
	return project, nil
}

// Create validates and submits a new project
func (p *Projects) Create(ctx context.Context, in *models.ProjectInput) (*models.Project, error) {
	if err := p.guard("/admin/projects/new"); err != nil {
		return nil, err
	}
	if err := in.Validate(true); err != nil {
		return nil, err
	}

	project, err := p.gw.CreateProject(ctx, in)
	if err := p.finish(err, cache.Projects); err != nil {
		return nil, err
	}
	p.logger.Info("project created", "id", project.ID)
	return project, nil
}

// Update validates and submits changes to project id
func (p *Projects) Update(ctx context.Context, id int64, in *models.ProjectInput) (*models.Project, error) {
	if err := p.guard(fmt.Sprintf("/admin/projects/%d/edit", id)); err != nil {
		return nil, err
	}
	if err := in.Validate(false); err != nil {
		return nil, err
	}

	project, err := p.gw.UpdateProject(ctx, id, in)
	if err := p.finish(err, cache.Projects); err != nil {
		return nil, err
	}
	p.logger.Info("project updated", "id", project.ID)
	return project, nil
}

// Delete removes project id after confirmation. title is used in the prompt.
func (p *Projects) Delete(ctx context.Context, id int64, title string) error {
	if err := p.guard("/admin/projects"); err != nil {
		return err
	}
	if err := p.confirmDelete(fmt.Sprintf("Delete project %q?", title)); err != nil {
		return err
	}

	if err := p.finish(p.gw.DeleteProject(ctx, id), cache.Projects); err != nil {
		return err
	}
	p.logger.Info("project deleted", "id", id)
	return nil
}
