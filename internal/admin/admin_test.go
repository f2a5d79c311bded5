package admin

import (
	"context"
	"folio/internal/auth"
	"folio/internal/cache"
	"folio/internal/models"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway answers with the func fields; unset ones fail the test
type fakeGateway struct {
	t *testing.T

	createProject  func(in *models.ProjectInput) (*models.Project, error)
	updateProject  func(id int64, in *models.ProjectInput) (*models.Project, error)
	deleteProject  func(id int64) error
	createCategory func(in *models.CategoryInput) (*models.Category, error)
	deleteCategory func(id int64) error
	createTag      func(in *models.TagInput) (*models.Tag, error)
}

func (f *fakeGateway) unexpected(name string) {
	f.t.Helper()
	f.t.Fatalf("unexpected call to %s", name)
}

func (f *fakeGateway) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	f.unexpected("GetProject")
	return nil, nil
}

func (f *fakeGateway) CreateProject(ctx context.Context, in *models.ProjectInput) (*models.Project, error) {
	if f.createProject == nil {
		f.unexpected("CreateProject")
	}
	return f.createProject(in)
}

func (f *fakeGateway) UpdateProject(ctx context.Context, id int64, in *models.ProjectInput) (*models.Project, error) {
	if f.updateProject == nil {
		f.unexpected("UpdateProject")
	}
	return f.updateProject(id, in)
}

func (f *fakeGateway) DeleteProject(ctx context.Context, id int64) error {
	if f.deleteProject == nil {
		f.unexpected("DeleteProject")
	}
	return f.deleteProject(id)
}

func (f *fakeGateway) CreateCategory(ctx context.Context, in *models.CategoryInput) (*models.Category, error) {
	if f.createCategory == nil {
		f.unexpected("CreateCategory")
	}
	return f.createCategory(in)
}

func (f *fakeGateway) UpdateCategory(ctx context.Context, id int64, in *models.CategoryInput) (*models.Category, error) {
	f.unexpected("UpdateCategory")
	return nil, nil
}

func (f *fakeGateway) DeleteCategory(ctx context.Context, id int64) error {
	if f.deleteCategory == nil {
		f.unexpected("DeleteCategory")
	}
	return f.deleteCategory(id)
}

func (f *fakeGateway) CreateTag(ctx context.Context, in *models.TagInput) (*models.Tag, error) {
	if f.createTag == nil {
		f.unexpected("CreateTag")
	}
	return f.createTag(in)
}

func (f *fakeGateway) UpdateTag(ctx context.Context, id int64, in *models.TagInput) (*models.Tag, error) {
	f.unexpected("UpdateTag")
	return nil, nil
}

func (f *fakeGateway) DeleteTag(ctx context.Context, id int64) error {
	f.unexpected("DeleteTag")
	return nil
}

type fakeCache struct {
	projects    []models.Project
	categories  []models.Category
	tags        []models.Tag
	invalidated []cache.Resource
}

func (c *fakeCache) Projects(ctx context.Context) ([]models.Project, error) { return c.projects, nil }

func (c *fakeCache) Categories(ctx context.Context) ([]models.Category, error) {
	return c.categories, nil
}

func (c *fakeCache) Tags(ctx context.Context) ([]models.Tag, error) { return c.tags, nil }

func (c *fakeCache) Invalidate(resources ...cache.Resource) {
	c.invalidated = append(c.invalidated, resources...)
}

type fakeGate struct {
	allowed  bool
	observed []error
}

func (g *fakeGate) Require(location string) error {
	if g.allowed {
		return nil
	}
	return &auth.RedirectError{Login: auth.LoginPath, From: location}
}

func (g *fakeGate) Observe(err error) {
	g.observed = append(g.observed, err)
}

func setup(t *testing.T, gw *fakeGateway, confirm Confirmer) (*Admin, *fakeCache, *fakeGate) {
	gw.t = t
	c := &fakeCache{}
	gate := &fakeGate{allowed: true}
	return New(gw, c, gate, confirm, nil), c, gate
}

func validProjectInput() *models.ProjectInput {
	return &models.ProjectInput{
		Title:       "Dashboard",
		Description: "An admin dashboard",
		Category:    2,
		Thumbnail:   &models.Upload{Filename: "t.png", Content: strings.NewReader("png")},
	}
}

func TestCreateProjectInvalidatesProjects(t *testing.T) {
	a, c, _ := setup(t, &fakeGateway{createProject: func(in *models.ProjectInput) (*models.Project, error) {
		return &models.Project{ID: 10, Title: in.Title}, nil
	}}, nil)

	project, err := a.Projects.Create(context.Background(), validProjectInput())
	require.NoError(t, err)
	assert.Equal(t, int64(10), project.ID)
	assert.Equal(t, []cache.Resource{cache.Projects}, c.invalidated)
}

func TestCreateProjectValidatesLocally(t *testing.T) {
	a, c, _ := setup(t, &fakeGateway{}, nil)

	in := validProjectInput()
	in.Title = " "
	in.Thumbnail = nil

	_, err := a.Projects.Create(context.Background(), in)
	assert.ErrorIs(t, err, models.ErrValidation)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "thumbnail")
	assert.Empty(t, c.invalidated)
}

func TestUpdateMissingProjectIsNotFound(t *testing.T) {
	a, c, gate := setup(t, &fakeGateway{updateProject: func(id int64, in *models.ProjectInput) (*models.Project, error) {
		return nil, &models.APIError{Kind: models.ErrNotFound, Status: 404}
	}}, nil)

	in := validProjectInput()
	in.Thumbnail = nil
	_, err := a.Projects.Update(context.Background(), 99, in)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, c.invalidated)
	assert.Len(t, gate.observed, 1)
}

func TestDuplicateSlugKeepsFieldMessages(t *testing.T) {
	a, c, _ := setup(t, &fakeGateway{createCategory: func(in *models.CategoryInput) (*models.Category, error) {
		return nil, &models.APIError{
			Kind:   models.ErrConflict,
			Status: 400,
			Fields: map[string][]string{"slug": {"category with this slug already exists."}},
		}
	}}, nil)

	_, err := a.Categories.Create(context.Background(), &models.CategoryInput{Name: "UI"})
	assert.ErrorIs(t, err, models.ErrConflict)

	var apiErr *models.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"category with this slug already exists."}, apiErr.Fields["slug"])
	assert.Empty(t, c.invalidated)
}

func TestDeleteReferencedCategoryLeavesProjectsCached(t *testing.T) {
	a, c, _ := setup(t, &fakeGateway{deleteCategory: func(id int64) error {
		return &models.APIError{Kind: models.ErrConflict, Status: 409, Message: "category is used by 1 project"}
	}}, AlwaysConfirm)

	err := a.Categories.Delete(context.Background(), 2, "UI")
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.NotContains(t, c.invalidated, cache.Projects)
	assert.Empty(t, c.invalidated)
}

func TestDeleteCategoryInvalidatesBoth(t *testing.T) {
	a, c, _ := setup(t, &fakeGateway{deleteCategory: func(id int64) error { return nil }}, AlwaysConfirm)

	require.NoError(t, a.Categories.Delete(context.Background(), 2, "UI"))
	assert.ElementsMatch(t, []cache.Resource{cache.Categories, cache.Projects}, c.invalidated)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	var prompt string
	a, c, _ := setup(t, &fakeGateway{}, ConfirmFunc(func(p string) (bool, error) {
		prompt = p
		return false, nil
	}))

	err := a.Projects.Delete(context.Background(), 3, "Dashboard")
	assert.ErrorIs(t, err, models.ErrNotConfirmed)
	assert.Equal(t, `Delete project "Dashboard"?`, prompt)
	assert.Empty(t, c.invalidated)
}

func TestDeleteWithoutConfirmerDeclines(t *testing.T) {
	a, _, _ := setup(t, &fakeGateway{}, nil)
	assert.ErrorIs(t, a.Tags.Delete(context.Background(), 1, "go"), models.ErrNotConfirmed)
}

func TestAnonymousIsRedirected(t *testing.T) {
	a, c, gate := setup(t, &fakeGateway{}, AlwaysConfirm)
	gate.allowed = false

	_, err := a.Tags.Create(context.Background(), &models.TagInput{Name: "go"})
	assert.ErrorIs(t, err, models.ErrAuth)

	var redirect *auth.RedirectError
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, "/admin/tags/new", redirect.From)
	assert.Empty(t, c.invalidated)
}

func TestCreateTagInvalidatesTagsAndProjects(t *testing.T) {
	a, c, _ := setup(t, &fakeGateway{createTag: func(in *models.TagInput) (*models.Tag, error) {
		return &models.Tag{ID: 1, Name: in.Name, Slug: "go"}, nil
	}}, nil)

	tag, err := a.Tags.Create(context.Background(), &models.TagInput{Name: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "go", tag.Slug)
	assert.Equal(t, []cache.Resource{cache.Tags, cache.Projects}, c.invalidated)
}

func TestDashboardCounts(t *testing.T) {
	a, c, _ := setup(t, &fakeGateway{}, nil)
	for i := 1; i <= 7; i++ {
		c.projects = append(c.projects, models.Project{ID: int64(i), Featured: i%2 == 0})
	}
	c.categories = []models.Category{{ID: 1}, {ID: 2}}
	c.tags = []models.Tag{{ID: 1}}

	stats, err := a.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Projects)
	assert.Equal(t, 3, stats.Featured)
	assert.Equal(t, 2, stats.Categories)
	assert.Equal(t, 1, stats.Tags)
	assert.Len(t, stats.Recent, recentLimit)
	assert.Equal(t, int64(1), stats.Recent[0].ID)
}
