package commands

import (
	"bytes"
	"errors"
	"folio/internal/auth"
	"folio/internal/config"
	"folio/internal/devserver"
	"folio/internal/models"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct horse"
)

type harness struct {
	t    *testing.T
	srv  *devserver.Server
	url  string
	home string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv, err := devserver.New(devserver.Options{Email: adminEmail, Password: adminPassword, Seed: true})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	home := t.TempDir()
	t.Setenv("HOME", home)
	return &harness{t: t, srv: srv, url: ts.URL, home: home}
}

// run executes one folio invocation with fresh flags, as a new process would
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	globalConfig = &config.Config{ServerURL: h.url, CacheTTL: "1m"}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))

	err := rootCmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) login() {
	h.t.Helper()
	out := h.mustRun("login", "--email", adminEmail, "--password", adminPassword)
	require.Contains(h.t, out, "Successfully logged in as "+adminEmail)
}

func (h *harness) categoryID(slug string) int64 {
	h.t.Helper()
	for _, c := range h.srv.Store().Categories() {
		if c.Slug == slug {
			return c.ID
		}
	}
	h.t.Fatalf("no category %q", slug)
	return 0
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoginSessionIsResumed(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("whoami")
	assert.Contains(t, out, "You are not logged in")

	_, err := h.run("", "login", "--email", adminEmail, "--password", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	h.login()
	_, err = os.Stat(filepath.Join(h.home, ".folio", ".session"))
	require.NoError(t, err, "session is saved for the next invocation")

	out = h.mustRun("whoami")
	assert.Contains(t, out, "Logged in as: "+adminEmail)

	cfg, err := config.LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, adminEmail, cfg.Email)

	out = h.mustRun("logout")
	assert.Contains(t, out, "Successfully logged out")
	_, err = os.Stat(filepath.Join(h.home, ".folio", ".session"))
	assert.True(t, os.IsNotExist(err))

	_, err = h.run("", "category", "list")
	var redirect *auth.RedirectError
	require.True(t, errors.As(err, &redirect), "got %v", err)
	assert.Equal(t, "/admin/categories", redirect.From)
}

func TestCategoryCommands(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.mustRun("category", "create", "--name", "Branding", "--order", "3")
	assert.Contains(t, out, "Category created: Branding [branding]")

	out = h.mustRun("category", "list")
	assert.Contains(t, out, "[branding]")
	assert.Contains(t, out, "[ui-design]")

	_, err := h.run("", "category", "create", "--name", "Branding")
	require.ErrorIs(t, err, models.ErrConflict)
	var printed bytes.Buffer
	PrintError(&printed, err)
	assert.Contains(t, printed.String(), "slug:")

	id := h.categoryID("branding")
	out = h.mustRun("category", "update", strconv.FormatInt(id, 10), "--name", "Brand Identity")
	assert.Contains(t, out, "[brand-identity]")

	// referenced by seeded projects
	_, err = h.run("", "category", "delete", strconv.FormatInt(h.categoryID("ui-design"), 10), "--force")
	assert.ErrorIs(t, err, models.ErrConflict)

	out = h.mustRun("category", "delete", strconv.FormatInt(id, 10), "--force")
	assert.Contains(t, out, "Category deleted successfully!")
}

func TestProjectCommands(t *testing.T) {
	h := newHarness(t)
	h.login()

	thumb := writeFile(t, "thumb.png", "thumbnail bytes")
	first := writeFile(t, "first.png", "a")
	second := writeFile(t, "second.png", "bb")

	out := h.mustRun("project", "create",
		"--title", "CLI Tool",
		"--description", "A terminal client",
		"--category", "web",
		"--tag", "go",
		"--tool", "Go", "--tool", "Cobra",
		"--thumbnail", thumb,
		"--image", first, "--image", second,
	)
	assert.Contains(t, out, "Project created successfully!")
	assert.Contains(t, out, "Uploaded thumbnail: thumb.png (15 B)")
	assert.Contains(t, out, "Tools: Go, Cobra")

	var created models.Project
	for _, p := range h.srv.Store().Projects() {
		if p.Title == "CLI Tool" {
			created = p
		}
	}
	require.NotZero(t, created.ID)
	assert.Len(t, created.Images, 2)
	id := strconv.FormatInt(created.ID, 10)

	out = h.mustRun("project", "list", "--category", "web")
	assert.Contains(t, out, "CLI Tool")
	assert.Contains(t, out, "Portfolio Site")
	assert.NotContains(t, out, "Design System")

	out = h.mustRun("project", "update", id, "--featured")
	assert.Contains(t, out, "Featured: true")
	assert.Contains(t, out, "Title: CLI Tool", "fields not given keep their values")

	_, err := h.run("", "project", "create", "--title", "No thumbnail")
	assert.ErrorIs(t, err, models.ErrValidation)

	out, err = h.run("n\n", "project", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Project deletion cancelled.")

	out, err = h.run("y\n", "project", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Project deleted successfully!")

	_, err = h.run("", "project", "show", id)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.mustRun("dashboard")
	assert.Contains(t, out, "Projects:   3 (1 featured)")
	assert.Contains(t, out, "Categories: 2")
	assert.Contains(t, out, "Tags:       2")
}

func TestGalleryPlain(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("gallery", "--plain", "--category", "ui-design")
	assert.Contains(t, out, "Design System")
	assert.Contains(t, out, "Mobile Onboarding")
	assert.NotContains(t, out, "Portfolio Site")
	assert.Contains(t, out, " 1  ")
	assert.Contains(t, out, " 2  ")

	out = h.mustRun("gallery", "--plain", "--category", "nothing-here")
	assert.Contains(t, out, `No projects in "nothing-here"`)
}

func TestContact(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "contact", "--name", "Ana", "--email", "not-an-address", "--subject", "Hi", "--message", "Hello")
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, h.srv.Store().Messages())

	out := h.mustRun("contact", "--name", "Ana", "--email", "ana@example.com", "--subject", "Hi", "--message", "Hello")
	assert.Contains(t, out, "Your message has been sent")

	messages := h.srv.Store().Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "ana@example.com", messages[0].Email)
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("config", "init")
	assert.Contains(t, out, "Configuration initialized successfully.")

	out = h.mustRun("config", "set", "--cache-ttl", "10m", "--log-level", "DEBUG")
	assert.Contains(t, out, "cache_ttl updated: 5m0s -> 10m")

	out = h.mustRun("config", "get", "cache_ttl")
	assert.Equal(t, "10m\n", out)
	out = h.mustRun("config", "get", "log_level")
	assert.Equal(t, "debug\n", out)

	_, err := h.run("", "config", "set", "--cache-ttl", "soon")
	assert.Error(t, err)
	_, err = h.run("", "config", "get", "nope")
	assert.Error(t, err)
}

func TestPrintError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"redirect": {
			err:  &auth.RedirectError{Login: auth.LoginPath, From: "/admin/tags"},
			want: "Run 'folio login', then retry to open /admin/tags.",
		},
		"validation": {
			err:  (&models.ValidationError{}).Add("title", "this field is required"),
			want: "  title: this field is required\n",
		},
		"conflict": {
			err: &models.APIError{Kind: models.ErrConflict, Status: 400,
				Fields: map[string][]string{"slug": {"tag with this slug already exists."}}},
			want: "  slug: tag with this slug already exists.\n",
		},
		"network": {
			err:  &models.APIError{Kind: models.ErrNetwork, Message: "connection refused"},
			want: "Could not reach the server: connection refused",
		},
		"credentials": {
			err:  &models.APIError{Kind: models.ErrInvalidCredentials, Status: 401, Message: "Invalid credentials"},
			want: "Invalid credentials",
		},
		"not confirmed": {
			err:  models.ErrNotConfirmed,
			want: "Cancelled.",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintError(&buf, tc.err)
			assert.Contains(t, buf.String(), tc.want)
		})
	}
}
