package devserver

import (
	"errors"
	"fmt"
	"folio/internal/models"
	"folio/internal/util"
	"sort"
	"strings"
	"sync"
	"time"
)

var errNotFound = errors.New("not found")

// fieldErrors is the backend's per-field rejection, sent as {"field": ["msg"]}
type fieldErrors map[string][]string

func (f fieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+": "+strings.Join(v, " "))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// protectedError is returned when deleting a category that projects still use
type protectedError struct {
	name     string
	projects int
}

func (e *protectedError) Error() string {
	return fmt.Sprintf("Cannot delete category %q because it is referenced by %d project(s).", e.name, e.projects)
}

type project struct {
	id          int64
	title       string
	description string
	category    int64
	thumbnail   string
	featured    bool
	tools       []string
	link        *string
	images      []models.ProjectImage
	tags        []int64
	createdAt   time.Time
}

// projectFields carries a create or partial update; nil means "not sent"
type projectFields struct {
	Title       *string
	Description *string
	Category    *int64
	Featured    *bool
	Tools       *[]string
	Link        *string
	Tags        *[]int64
	Thumbnail   *string
	Images      []string
}

// Store is the in-memory content database
type Store struct {
	now func() time.Time

	mu         sync.RWMutex
	nextID     int64
	categories map[int64]*models.Category
	tags       map[int64]*models.Tag
	projects   map[int64]*project
	messages   []models.ContactMessage
}

// NewStore creates an empty store
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:        now,
		categories: make(map[int64]*models.Category),
		tags:       make(map[int64]*models.Tag),
		projects:   make(map[int64]*project),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Categories returns all categories ordered by (order, name)
func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// CreateCategory derives the slug from the name and rejects duplicates
func (s *Store) CreateCategory(name, description string, order int) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Category{Name: strings.TrimSpace(name), Description: description, Order: order}
	if err := s.checkCategoryLocked(0, &c); err != nil {
		return models.Category{}, err
	}
	c.ID = s.id()
	s.categories[c.ID] = &c
	return c, nil
}

// UpdateCategory applies the non-nil fields
func (s *Store) UpdateCategory(id int64, name, description *string, order *int) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[id]
	if !ok {
		return models.Category{}, errNotFound
	}

	c := *existing
	if name != nil {
		c.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		c.Description = *description
	}
	if order != nil {
		c.Order = *order
	}
	if err := s.checkCategoryLocked(id, &c); err != nil {
		return models.Category{}, err
	}
	*existing = c
	return c, nil
}

func (s *Store) checkCategoryLocked(id int64, c *models.Category) error {
	errs := fieldErrors{}
	if c.Name == "" {
		errs.add("name", "This field may not be blank.")
	}
	if c.Order < 0 {
		errs.add("order", "Ensure this value is greater than or equal to 0.")
	}
	c.Slug = util.Slugify(c.Name)
	if c.Name != "" && c.Slug == "" {
		errs.add("slug", "Enter a valid slug.")
	}
	for otherID, other := range s.categories {
		if otherID != id && c.Slug != "" && other.Slug == c.Slug {
			errs.add("slug", "project category with this slug already exists.")
			break
		}
	}
	return errs.err()
}

// DeleteCategory refuses while any project references the category
func (s *Store) DeleteCategory(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return errNotFound
	}
	refs := 0
	for _, p := range s.projects {
		if p.category == id {
			refs++
		}
	}
	if refs > 0 {
		return &protectedError{name: c.Name, projects: refs}
	}
	delete(s.categories, id)
	return nil
}

// Tags returns all tags ordered by name
func (s *Store) Tags() []models.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Tag returns one tag
func (s *Store) Tag(id int64) (models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tags[id]
	if !ok {
		return models.Tag{}, errNotFound
	}
	return *t, nil
}

// Category returns one category
func (s *Store) Category(id int64) (models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return models.Category{}, errNotFound
	}
	return *c, nil
}

// SaveTag creates a tag when id is 0, otherwise renames it
func (s *Store) SaveTag(id int64, name string) (models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *models.Tag
	if id != 0 {
		var ok bool
		if existing, ok = s.tags[id]; !ok {
			return models.Tag{}, errNotFound
		}
	}

	t := models.Tag{ID: id, Name: strings.TrimSpace(name)}
	t.Slug = util.Slugify(t.Name)

	errs := fieldErrors{}
	if t.Name == "" {
		errs.add("name", "This field may not be blank.")
	}
	for otherID, other := range s.tags {
		if otherID != id && t.Slug != "" && other.Slug == t.Slug {
			errs.add("slug", "project tag with this slug already exists.")
			break
		}
	}
	if err := errs.err(); err != nil {
		return models.Tag{}, err
	}

	if existing != nil {
		*existing = t
		return t, nil
	}
	t.ID = s.id()
	s.tags[t.ID] = &t
	return t, nil
}

// DeleteTag removes the tag and detaches it from every project
func (s *Store) DeleteTag(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tags[id]; !ok {
		return errNotFound
	}
	delete(s.tags, id)
	for _, p := range s.projects {
		kept := p.tags[:0]
		for _, tagID := range p.tags {
			if tagID != id {
				kept = append(kept, tagID)
			}
		}
		p.tags = kept
	}
	return nil
}

// Projects returns all projects, newest first
func (s *Store) Projects() []models.Project {
	return s.Select(nil, "-created_at")
}

// Select returns the projects matching keep ordered by sortBy, one of
// created_at, title or id with an optional leading "-".
func (s *Store) Select(keep func(models.Project) bool, sortBy string) []models.Project {
	s.mu.RLock()
	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		rendered := s.renderLocked(p)
		if keep == nil || keep(rendered) {
			out = append(out, rendered)
		}
	}
	s.mu.RUnlock()

	desc := strings.HasPrefix(sortBy, "-")
	field := strings.TrimPrefix(sortBy, "-")
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if desc {
			a, b = b, a
		}
		switch field {
		case "title":
			if a.Title != b.Title {
				return a.Title < b.Title
			}
		case "created_at":
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
	return out
}

// SortFields are the orderings Select accepts
var SortFields = []string{"created_at", "-created_at", "title", "-title", "id", "-id"}

// Project returns one project
func (s *Store) Project(id int64) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return models.Project{}, errNotFound
	}
	return s.renderLocked(p), nil
}

// SaveProject creates a project when id is 0, otherwise applies the sent fields
func (s *Store) SaveProject(id int64, f projectFields) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creating := id == 0
	p := &project{}
	if !creating {
		existing, ok := s.projects[id]
		if !ok {
			return models.Project{}, errNotFound
		}
		copied := *existing
		copied.images = append([]models.ProjectImage(nil), existing.images...)
		copied.tags = append([]int64(nil), existing.tags...)
		p = &copied
	}

	errs := fieldErrors{}
	required := func(field string, sent bool) bool {
		if !sent && creating {
			errs.add(field, "This field is required.")
			return false
		}
		return sent
	}

	if required("title", f.Title != nil) {
		p.title = strings.TrimSpace(*f.Title)
		if p.title == "" {
			errs.add("title", "This field may not be blank.")
		}
	}
	if required("description", f.Description != nil) {
		p.description = *f.Description
		if strings.TrimSpace(p.description) == "" {
			errs.add("description", "This field may not be blank.")
		}
	}
	if required("category", f.Category != nil) {
		if _, ok := s.categories[*f.Category]; !ok {
			errs.add("category", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *f.Category))
		}
		p.category = *f.Category
	}
	if required("tools", f.Tools != nil) {
		p.tools = append([]string{}, (*f.Tools)...)
	}
	if required("thumbnail", f.Thumbnail != nil) {
		p.thumbnail = *f.Thumbnail
	}
	if f.Featured != nil {
		p.featured = *f.Featured
	}
	if f.Link != nil {
		link := *f.Link
		p.link = &link
	}
	if f.Tags != nil {
		for _, tagID := range *f.Tags {
			if _, ok := s.tags[tagID]; !ok {
				errs.add("tags", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", tagID))
			}
		}
		p.tags = append([]int64{}, (*f.Tags)...)
	}

	if err := errs.err(); err != nil {
		return models.Project{}, err
	}

	if creating {
		p.id = s.id()
		p.createdAt = s.now()
	}
	order := 0
	if n := len(p.images); n > 0 {
		order = p.images[n-1].Order + 1
	}
	for _, path := range f.Images {
		p.images = append(p.images, models.ProjectImage{ID: s.id(), Image: path, Order: order})
		order++
	}

	s.projects[p.id] = p
	return s.renderLocked(p), nil
}

// DeleteProject removes a project and its images
func (s *Store) DeleteProject(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return errNotFound
	}
	delete(s.projects, id)
	return nil
}

// renderLocked builds the response shape with nested category and tags
func (s *Store) renderLocked(p *project) models.Project {
	out := models.Project{
		ID:          p.id,
		Title:       p.title,
		Category:    p.category,
		Description: p.description,
		Thumbnail:   p.thumbnail,
		Featured:    p.featured,
		Tools:       append([]string{}, p.tools...),
		Link:        p.link,
		Images:      append([]models.ProjectImage{}, p.images...),
		Tags:        []models.Tag{},
		CreatedAt:   p.createdAt,
	}
	if c, ok := s.categories[p.category]; ok {
		details := *c
		out.CategoryDetails = &details
	}
	for _, tagID := range p.tags {
		if t, ok := s.tags[tagID]; ok {
			out.Tags = append(out.Tags, *t)
		}
	}
	return out
}

// AddMessage records a contact submission
func (s *Store) AddMessage(m models.ContactMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// Messages returns the recorded contact submissions
func (s *Store) Messages() []models.ContactMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ContactMessage(nil), s.messages...)
}

// Seed fills an empty store with sample content
func (s *Store) Seed() error {
	ui, err := s.CreateCategory("UI Design", "Interfaces and design systems", 0)
	if err != nil {
		return err
	}
	web, err := s.CreateCategory("Web", "Sites and web apps", 1)
	if err != nil {
		return err
	}
	goTag, err := s.SaveTag(0, "Go")
	if err != nil {
		return err
	}
	figma, err := s.SaveTag(0, "Figma")
	if err != nil {
		return err
	}

	samples := []struct {
		title, description string
		category           int64
		tools              []string
		tags               []int64
		featured           bool
	}{
		{"Design System", "Component library and tokens for a banking app.", ui.ID, []string{"Figma"}, []int64{figma.ID}, true},
		{"Portfolio Site", "This portfolio, served by a small Go backend.", web.ID, []string{"Go", "HTML"}, []int64{goTag.ID}, false},
		{"Mobile Onboarding", "Onboarding flow redesign with usability tests.", ui.ID, []string{"Figma", "Maze"}, []int64{figma.ID}, false},
	}
	for i, sample := range samples {
		thumb := fmt.Sprintf("/media/projects/thumbnails/sample-%d.png", i+1)
		_, err := s.SaveProject(0, projectFields{
			Title:       &sample.title,
			Description: &sample.description,
			Category:    &sample.category,
			Tools:       &sample.tools,
			Tags:        &sample.tags,
			Featured:    &sample.featured,
			Thumbnail:   &thumb,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
