package api

import (
	"context"
	"encoding/json"
	"folio/internal/models"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectsJSON = `[
  {"id": 1, "title": "Dashboard", "category": 2,
   "category_details": {"id": 2, "name": "UI", "slug": "ui", "description": "", "order": 0},
   "description": "d", "thumbnail": "/media/t.png", "featured": true, "tools": ["Figma"],
   "images": [{"id": 7, "image": "/media/a.png", "order": 0}, {"id": 8, "image": "/media/b.png", "order": 1}],
   "tags": [{"id": 3, "name": "Go", "slug": "go"}], "created_at": "2024-05-01T10:00:00Z"}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, WithRateLimit(0, 0))
	require.NoError(t, err)
	return client
}

func TestListProjects(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, projectsJSON)
	})

	projects, err := client.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)

	p := projects[0]
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "ui", p.CategorySlug())
	assert.Equal(t, []string{"Figma"}, p.Tools)
	assert.Len(t, p.Images, 2)
	assert.Nil(t, p.Link)
}

func TestListProjectsRejectsMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id": 1, "title": "No category", "category": 2}]`)
	})

	_, err := client.ListProjects(context.Background())
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
}

func TestListProjectsRejectsNonJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html>oops</html>`)
	})

	_, err := client.ListProjects(context.Background())
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
}

func TestMutationWithoutCSRFIsRefused(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})

	err := client.DeleteTag(context.Background(), 4)
	assert.ErrorIs(t, err, models.ErrAuth)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits), "request must not be sent")
}

func TestCreateProjectSendsMultipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "tok", r.Header.Get(CSRFHeader))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Dashboard", r.FormValue("title"))
		assert.Equal(t, "2", r.FormValue("category"))
		assert.Equal(t, "true", r.FormValue("featured"))
		assert.Equal(t, `["Figma","Go"]`, r.FormValue("tools"))
		assert.Equal(t, []string{"3", "4"}, r.MultipartForm.Value["tags"])
		assert.Len(t, r.MultipartForm.File["thumbnail"], 1)
		assert.Len(t, r.MultipartForm.File["images"], 2)

		w.WriteHeader(http.StatusCreated)
		var projects []json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(projectsJSON), &projects))
		w.Write(projects[0])
	})
	client.SetCSRFToken("tok")

	project, err := client.CreateProject(context.Background(), &models.ProjectInput{
		Title:       "Dashboard",
		Description: "d",
		Category:    2,
		Featured:    true,
		Tools:       []string{"Figma", "Go"},
		Tags:        []int64{3, 4},
		Thumbnail:   &models.Upload{Filename: "t.png", Content: strings.NewReader("thumb")},
		Images: []models.Upload{
			{Filename: "a.png", Content: strings.NewReader("a")},
			{Filename: "b.png", Content: strings.NewReader("b")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), project.ID)
}

func TestStatusTranslation(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
		fields  map[string][]string
	}{
		{"field errors", http.StatusBadRequest, `{"slug": ["category with this slug already exists."]}`, models.ErrConflict, "",
			map[string][]string{"slug": {"category with this slug already exists."}}},
		{"protected", http.StatusConflict, `{"detail": "category is used by 2 projects"}`, models.ErrConflict, "category is used by 2 projects", nil},
		{"not found", http.StatusNotFound, ``, models.ErrNotFound, "", nil},
		{"csrf rejected", http.StatusForbidden, `{"detail": "CSRF Failed"}`, models.ErrAuth, "CSRF Failed", nil},
		{"server error", http.StatusInternalServerError, `{"error": "smtp down"}`, models.ErrNetwork, "smtp down", nil},
		{"plain text", http.StatusBadGateway, `bad gateway`, models.ErrNetwork, "bad gateway", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})
			client.SetCSRFToken("tok")

			_, err := client.UpdateCategory(context.Background(), 9, &models.CategoryInput{Name: "UI"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)

			var apiErr *models.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.message, apiErr.Message)
			assert.Equal(t, tc.fields, apiErr.Fields)
		})
	}
}

func TestTransportErrorIsNetwork(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.ListTags(context.Background())
	assert.ErrorIs(t, err, models.ErrNetwork)
}

func TestLoginFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{"wrong password", http.StatusUnauthorized, `{"error": "Invalid credentials"}`, models.ErrInvalidCredentials, "Invalid credentials"},
		{"no message", http.StatusBadRequest, ``, models.ErrInvalidCredentials, loginFailedMessage},
		{"csrf", http.StatusForbidden, `{"detail": "CSRF Failed"}`, models.ErrAuth, "CSRF Failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})
			client.SetCSRFToken("tok")

			user, err := client.Login(context.Background(), "admin@example.com", "nope")
			assert.Nil(t, user)
			assert.ErrorIs(t, err, tc.kind)

			var apiErr *models.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestSessionRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/csrf/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"csrfToken": "tok-1"}`)
	})
	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-1", r.Header.Get(CSRFHeader))
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "s3cr3t", Path: "/"})
		io.WriteString(w, `{"user": {"id": 1, "email": "admin@example.com", "username": "admin"}}`)
	})
	mux.HandleFunc("/api/auth/status/", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("sessionid")
		if err != nil || cookie.Value != "s3cr3t" {
			io.WriteString(w, `{"isAuthenticated": false, "user": null}`)
			return
		}
		io.WriteString(w, `{"isAuthenticated": true, "user": {"id": 1, "email": "admin@example.com"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx := context.Background()
	first, err := NewClient(server.URL)
	require.NoError(t, err)

	token, err := first.FetchCSRFToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	user, err := first.Login(ctx, "admin@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	saved := first.ExportSession()
	assert.Equal(t, "tok-1", saved.CSRFToken)
	assert.Contains(t, saved.Cookies, models.SavedCookie{Name: "sessionid", Value: "s3cr3t"})

	second, err := NewClient(server.URL)
	require.NoError(t, err)
	second.RestoreSession(saved)

	status, err := second.AuthStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsAuthenticated)
	assert.Equal(t, "tok-1", second.CSRFToken())

	other, err := NewClient("http://elsewhere.invalid")
	require.NoError(t, err)
	other.RestoreSession(saved)
	assert.Empty(t, other.CSRFToken(), "sessions for another server are ignored")
}

func TestSearchAndSortQueries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects/search/":
			assert.Equal(t, "dash", r.URL.Query().Get("q"))
		case "/api/projects/sort/":
			assert.Equal(t, "-created_at", r.URL.Query().Get("sort_by"))
		case "/api/projects/filter/":
			assert.Equal(t, "2", r.URL.Query().Get("category"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, projectsJSON)
	})

	ctx := context.Background()
	_, err := client.SearchProjects(ctx, "dash")
	require.NoError(t, err)
	_, err = client.SortProjects(ctx, "-created_at")
	require.NoError(t, err)
	_, err = client.FilterProjects(ctx, 2)
	require.NoError(t, err)
}
