package devserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"folio/internal/models"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct horse"
)

func newServer(t *testing.T, opts Options) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if opts.Email == "" {
		opts.Email = adminEmail
		opts.Password = adminPassword
	}
	srv, err := New(opts)
	require.NoError(t, err)
	return srv
}

// browser carries cookies between recorder requests the way a client would
type browser struct {
	t       *testing.T
	srv     *Server
	cookies map[string]*http.Cookie
	token   string
}

func newBrowser(t *testing.T, srv *Server) *browser {
	return &browser{t: t, srv: srv, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	if b.token != "" {
		req.Header.Set(csrfHeader, b.token)
	}

	rr := httptest.NewRecorder()
	b.srv.Handler().ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rr
}

func (b *browser) json(method, target string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		require.NoError(b.t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func (b *browser) fetchCSRF() {
	rr := b.json(http.MethodGet, "/api/auth/csrf/", nil)
	require.Equal(b.t, http.StatusOK, rr.Code)

	var resp struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(b.t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(b.t, resp.CSRFToken)
	b.token = resp.CSRFToken
}

func (b *browser) login() {
	b.fetchCSRF()
	rr := b.json(http.MethodPost, "/api/auth/login/", models.Credentials{Email: adminEmail, Password: adminPassword})
	require.Equal(b.t, http.StatusOK, rr.Code, rr.Body.String())
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Options{Email: adminEmail})
	assert.Error(t, err)
}

func TestAuthFlow(t *testing.T) {
	b := newBrowser(t, newServer(t, Options{}))

	status := decode[models.AuthStatus](t, b.json(http.MethodGet, "/api/auth/status/", nil))
	assert.False(t, status.IsAuthenticated)
	assert.Nil(t, status.User)

	b.fetchCSRF()

	rr := b.json(http.MethodPost, "/api/auth/login/", models.Credentials{Email: adminEmail, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error": "Invalid credentials"}`, rr.Body.String())

	rr = b.json(http.MethodPost, "/api/auth/login/", models.Credentials{Email: adminEmail})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = b.json(http.MethodPost, "/api/auth/login/", models.Credentials{Email: adminEmail, Password: adminPassword})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, b.cookies, sessionCookie)

	status = decode[models.AuthStatus](t, b.json(http.MethodGet, "/api/auth/status/", nil))
	assert.True(t, status.IsAuthenticated)
	assert.Equal(t, "admin", status.User.Username)

	rr = b.json(http.MethodPost, "/api/auth/logout/", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	status = decode[models.AuthStatus](t, b.json(http.MethodGet, "/api/auth/status/", nil))
	assert.False(t, status.IsAuthenticated)
}

func TestCSRFIsEnforced(t *testing.T) {
	b := newBrowser(t, newServer(t, Options{}))

	rr := b.json(http.MethodPost, "/api/auth/login/", models.Credentials{Email: adminEmail, Password: adminPassword})
	assert.Equal(t, http.StatusForbidden, rr.Code, "no cookie")

	b.fetchCSRF()
	b.token = "forged"
	rr = b.json(http.MethodPost, "/api/auth/login/", models.Credentials{Email: adminEmail, Password: adminPassword})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "CSRF token incorrect")
}

func TestWritesRequireAdmin(t *testing.T) {
	b := newBrowser(t, newServer(t, Options{}))
	b.fetchCSRF()

	rr := b.json(http.MethodPost, "/api/tags/", models.TagInput{Name: "Go"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = b.json(http.MethodGet, "/api/tags/", nil)
	assert.Equal(t, http.StatusOK, rr.Code, "reads are public")
}

func TestCategoryRules(t *testing.T) {
	b := newBrowser(t, newServer(t, Options{}))
	b.login()

	rr := b.json(http.MethodPost, "/api/categories/", models.CategoryInput{Name: "Web", Order: 1})
	require.Equal(t, http.StatusCreated, rr.Code)
	web := decode[models.Category](t, rr)
	assert.Equal(t, "web", web.Slug)

	rr = b.json(http.MethodPost, "/api/categories/", models.CategoryInput{Name: "UI Design"})
	require.Equal(t, http.StatusCreated, rr.Code)
	ui := decode[models.Category](t, rr)
	assert.Equal(t, "ui-design", ui.Slug)

	rr = b.json(http.MethodPost, "/api/categories/", models.CategoryInput{Name: "ui design"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"slug": ["project category with this slug already exists."]}`, rr.Body.String())

	categories := decode[[]models.Category](t, b.json(http.MethodGet, "/api/categories/", nil))
	require.Len(t, categories, 2)
	assert.Equal(t, "ui-design", categories[0].Slug, "ordered by order then name")

	rr = b.json(http.MethodPatch, "/api/categories/999/", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func multipartProject(t *testing.T, fields map[string][]string, files map[string][]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(name, v))
		}
	}
	for name, filenames := range files {
		for _, filename := range filenames {
			part, err := w.CreateFormFile(name, filename)
			require.NoError(t, err)
			_, err = part.Write([]byte("bytes"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/projects/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestProjectLifecycle(t *testing.T) {
	srv := newServer(t, Options{})
	b := newBrowser(t, srv)
	b.login()

	category := decode[models.Category](t, b.json(http.MethodPost, "/api/categories/", models.CategoryInput{Name: "UI"}))
	tag := decode[models.Tag](t, b.json(http.MethodPost, "/api/tags/", models.TagInput{Name: "Go"}))

	rr := b.do(multipartProject(t, map[string][]string{"title": {"No thumb"}}, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	missing := decode[map[string][]string](t, rr)
	assert.Contains(t, missing, "thumbnail")
	assert.Contains(t, missing, "category")

	rr = b.do(multipartProject(t, map[string][]string{
		"title":       {"Dashboard"},
		"description": {"Admin dashboard"},
		"category":    {"1"},
		"featured":    {"true"},
		"tools":       {`["Figma"]`},
		"tags":        {"2"},
	}, map[string][]string{
		"thumbnail": {"thumb.png"},
		"images":    {"a.png", "b.png"},
	}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	p := decode[models.Project](t, rr)
	require.NoError(t, p.Validate())
	assert.Equal(t, category.ID, p.CategoryDetails.ID)
	assert.Equal(t, "/media/projects/thumbnails/thumb.png", p.Thumbnail)
	require.Len(t, p.Images, 2)
	assert.Equal(t, []int{0, 1}, []int{p.Images[0].Order, p.Images[1].Order})
	assert.Equal(t, []models.Tag{tag}, p.Tags)

	rr = b.json(http.MethodDelete, "/api/categories/1/", nil)
	assert.Equal(t, http.StatusConflict, rr.Code, "category is still referenced")

	rr = b.json(http.MethodDelete, "/api/tags/2/", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	got := decode[models.Project](t, b.json(http.MethodGet, "/api/projects/3/", nil))
	assert.Empty(t, got.Tags, "deleted tags are detached")

	rr = b.json(http.MethodDelete, "/api/projects/3/", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = b.json(http.MethodDelete, "/api/categories/1/", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestSearchFilterSort(t *testing.T) {
	srv := newServer(t, Options{Seed: true})
	b := newBrowser(t, srv)

	all := decode[[]models.Project](t, b.json(http.MethodGet, "/api/projects/", nil))
	require.Len(t, all, 3)
	assert.Equal(t, "Mobile Onboarding", all[0].Title, "newest first")

	found := decode[[]models.Project](t, b.json(http.MethodGet, "/api/projects/search/?q=SITE", nil))
	require.Len(t, found, 1)
	assert.Equal(t, "Portfolio Site", found[0].Title)

	empty := decode[[]models.Project](t, b.json(http.MethodGet, "/api/projects/search/", nil))
	assert.Empty(t, empty)

	filtered := decode[[]models.Project](t, b.json(http.MethodGet, "/api/projects/filter/?category=1", nil))
	assert.Len(t, filtered, 2)

	sorted := decode[[]models.Project](t, b.json(http.MethodGet, "/api/projects/sort/?sort_by=title", nil))
	require.Len(t, sorted, 3)
	assert.Equal(t, "Design System", sorted[0].Title)

	rr := b.json(http.MethodGet, "/api/projects/sort/?sort_by=password", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestContact(t *testing.T) {
	var delivered []models.ContactMessage
	fail := false
	srv := newServer(t, Options{Deliver: func(m models.ContactMessage) error {
		if fail {
			return errors.New("smtp unavailable")
		}
		delivered = append(delivered, m)
		return nil
	}})
	b := newBrowser(t, srv)
	b.fetchCSRF()

	msg := models.ContactMessage{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello"}
	rr := b.json(http.MethodPost, "/api/contact/", msg)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []models.ContactMessage{msg}, delivered)
	assert.Len(t, srv.Store().Messages(), 1)

	rr = b.json(http.MethodPost, "/api/contact/", models.ContactMessage{Name: "Ada", Email: "nope"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "email"))

	fail = true
	rr = b.json(http.MethodPost, "/api/contact/", msg)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error": "smtp unavailable"}`, rr.Body.String())
}
