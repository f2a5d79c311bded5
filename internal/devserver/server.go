// Package devserver is an in-memory implementation of the content backend's
// REST API, for local development and integration tests.
package devserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"folio/internal/models"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookie = "sessionid"
	csrfCookie    = "csrftoken"
	csrfHeader    = "X-CSRFToken"
)

// Options configures a Server
type Options struct {
	// Admin credentials accepted by /api/auth/login/
	Email    string
	Password string

	Logger *slog.Logger
	Now    func() time.Time

	// Deliver is called for each contact message after it is recorded.
	// An error is reported to the client as a 500.
	Deliver func(models.ContactMessage) error

	// Seed fills the store with sample content
	Seed bool
}

// Server serves the API from a Store
type Server struct {
	store   *Store
	logger  *slog.Logger
	admin   models.User
	hash    []byte
	deliver func(models.ContactMessage) error
	engine  *gin.Engine

	mu       sync.Mutex
	sessions map[string]int64
}

// New creates a server. The admin password is kept only as a bcrypt hash.
func New(opts Options) (*Server, error) {
	if opts.Email == "" || opts.Password == "" {
		return nil, fmt.Errorf("admin email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	username, _, _ := strings.Cut(opts.Email, "@")
	s := &Server{
		store:    NewStore(opts.Now),
		logger:   logger,
		admin:    models.User{ID: 1, Email: opts.Email, Username: username},
		hash:     hash,
		deliver:  opts.Deliver,
		sessions: make(map[string]int64),
	}
	if opts.Seed {
		if err := s.store.Seed(); err != nil {
			return nil, fmt.Errorf("seeding store: %w", err)
		}
	}

	s.engine = s.routes()
	return s, nil
}

// Store returns the backing store
func (s *Server) Store() *Store {
	return s.store
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.csrfProtect())

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.GET("/csrf/", s.csrf)
	auth.GET("/status/", s.status)
	auth.POST("/login/", s.login)
	auth.POST("/logout/", s.logout)

	api.GET("/projects/", s.listProjects)
	api.GET("/projects/search/", s.searchProjects)
	api.GET("/projects/filter/", s.filterProjects)
	api.GET("/projects/sort/", s.sortProjects)
	api.GET("/projects/:id/", s.getProject)

	api.GET("/categories/", s.listCategories)
	api.GET("/categories/:id/", s.getCategory)
	api.GET("/tags/", s.listTags)
	api.GET("/tags/:id/", s.getTag)

	api.POST("/contact/", s.contact)

	admin := api.Group("", s.requireAdmin())
	admin.POST("/projects/", s.createProject)
	admin.PATCH("/projects/:id/", s.updateProject)
	admin.DELETE("/projects/:id/", s.deleteProject)
	admin.POST("/categories/", s.createCategory)
	admin.PATCH("/categories/:id/", s.updateCategory)
	admin.DELETE("/categories/:id/", s.deleteCategory)
	admin.POST("/tags/", s.createTag)
	admin.PATCH("/tags/:id/", s.updateTag)
	admin.DELETE("/tags/:id/", s.deleteTag)

	return r
}

// requestLogger echoes or assigns X-Request-ID and logs each request
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if strings.TrimSpace(rid) == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Writer.Header().Set("X-Request-ID", rid)

		start := time.Now()
		c.Next()

		s.logger.Info("request",
			"id", rid,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// csrfProtect rejects unsafe requests whose X-CSRFToken header does not match the csrftoken cookie
func (s *Server) csrfProtect() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		cookie, err := c.Cookie(csrfCookie)
		if err != nil || cookie == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "CSRF Failed: CSRF cookie not set."})
			return
		}
		header := c.GetHeader(csrfHeader)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "CSRF Failed: CSRF token missing."})
			return
		}
		if subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "CSRF Failed: CSRF token incorrect."})
			return
		}
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := s.currentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		c.Next()
	}
}

func (s *Server) currentUser(c *gin.Context) (models.User, bool) {
	sid, err := c.Cookie(sessionCookie)
	if err != nil || sid == "" {
		return models.User{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sid]; !ok {
		return models.User{}, false
	}
	return s.admin, true
}

func (s *Server) csrf(c *gin.Context) {
	token, err := c.Cookie(csrfCookie)
	if err != nil || token == "" {
		token = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(csrfCookie, token, int((365 * 24 * time.Hour).Seconds()), "/", "", false, false)
	c.JSON(http.StatusOK, gin.H{"csrfToken": token})
}

func (s *Server) status(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false, "user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"isAuthenticated": true, "user": user})
}

func (s *Server) login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please provide both email and password"})
		return
	}

	if !strings.EqualFold(req.Email, s.admin.Email) ||
		bcrypt.CompareHashAndPassword(s.hash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	sid := uuid.NewString()
	s.mu.Lock()
	s.sessions[sid] = s.admin.ID
	s.mu.Unlock()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, sid, int((14 * 24 * time.Hour).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"user": s.admin})
}

func (s *Server) logout(c *gin.Context) {
	if sid, err := c.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, sid)
		s.mu.Unlock()
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
