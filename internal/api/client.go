package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"folio/internal/models"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// API_PREFIX is prepended to every endpoint path
const API_PREFIX = "/api"

// CSRFHeader carries the anti-forgery token on mutating requests
const CSRFHeader = "X-CSRFToken"

// Client handles communication with the content backend
type Client struct {
	// Base URL of the backend, without the /api prefix
	BaseURL string

	// HTTP client with a timeout and a cookie jar holding the session
	client *http.Client

	// Outbound request throttle
	limiter *rate.Limiter

	logger *slog.Logger

	mu        sync.RWMutex
	csrfToken string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. A cookie jar is added if it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRateLimit throttles outbound requests to rps with the given burst. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new API client
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("error creating cookie jar: %w", err)
		}
		c.client.Jar = jar
	}

	return c, nil
}

// SetCSRFToken sets the token attached to mutating requests
func (c *Client) SetCSRFToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrfToken = token
}

// CSRFToken returns the current token, or "" if none was fetched
func (c *Client) CSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrfToken
}

// ExportSession returns the cookies and token needed to resume the session later
func (c *Client) ExportSession() *models.Session {
	session := &models.Session{
		ServerURL: c.BaseURL,
		CSRFToken: c.CSRFToken(),
	}

	u, err := url.Parse(c.BaseURL + API_PREFIX + "/")
	if err != nil {
		return session
	}
	for _, cookie := range c.client.Jar.Cookies(u) {
		session.Cookies = append(session.Cookies, models.SavedCookie{Name: cookie.Name, Value: cookie.Value})
	}
	return session
}

// RestoreSession loads cookies and token saved by ExportSession. Sessions saved
// for a different server are ignored.
func (c *Client) RestoreSession(session *models.Session) {
	if session == nil || session.ServerURL != c.BaseURL {
		return
	}

	u, err := url.Parse(c.BaseURL + "/")
	if err != nil {
		return
	}

	cookies := make([]*http.Cookie, 0, len(session.Cookies))
	for _, saved := range session.Cookies {
		cookies = append(cookies, &http.Cookie{Name: saved.Name, Value: saved.Value, Path: "/"})
	}
	c.client.Jar.SetCookies(u, cookies)
	c.SetCSRFToken(session.CSRFToken)
}

// request describes one call to the backend
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func jsonRequest(method, path string, payload any) (*request, error) {
	req := &request{method: method, path: path}
	if payload == nil {
		return req, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling request: %w", err)
	}
	req.body = data
	req.contentType = "application/json"
	return req, nil
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// do sends the request and decodes a successful JSON response into out, when out is non-nil.
// Every failure is translated into one of the models error kinds.
func (c *Client) do(ctx context.Context, r *request, out any) error {
	endpoint := c.BaseURL + API_PREFIX + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var token string
	if isMutating(r.method) {
		token = c.CSRFToken()
		if token == "" {
			return &models.APIError{Kind: models.ErrAuth, Message: "no CSRF token; refusing to send " + r.method + " " + r.path}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &models.APIError{Kind: models.ErrNetwork, Message: err.Error()}
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token != "" {
		req.Header.Set(CSRFHeader, token)
		req.Header.Set("Referer", c.BaseURL+"/")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", r.method, "path", r.path, "request_id", requestID, "error", err)
		return &models.APIError{Kind: models.ErrNetwork, Message: err.Error()}
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Warn("failed to close response body", "error", err)
		}
	}(resp.Body)

	c.logger.Debug("request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return translateStatus(resp.StatusCode, responseBody)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body from %s %s", models.ErrMalformedResponse, r.method, r.path)
		}
		return fmt.Errorf("%w: decoding %s %s: %v", models.ErrMalformedResponse, r.method, r.path, err)
	}

	return nil
}
