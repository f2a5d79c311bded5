package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultServerURL is used when nothing is configured
	DefaultServerURL = "http://localhost:8000"

	DefaultCacheTTL          = 5 * time.Minute
	DefaultRequestsPerSecond = 10
	DefaultLogLevel          = "warn"
)

// Config represents the application configuration
type Config struct {
	// Content backend URL, without the /api prefix
	ServerURL string `json:"server_url"`

	// Last logged in user, for whoami when the backend is unreachable
	UserID int64  `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`

	// How long cached collections are served before refetching, as a Go duration
	CacheTTL string `json:"cache_ttl,omitempty"`

	// Outbound request budget. 0 disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		ServerURL:         DefaultServerURL,
		CacheTTL:          DefaultCacheTTL.String(),
		RequestsPerSecond: DefaultRequestsPerSecond,
		LogLevel:          DefaultLogLevel,
	}
}

// Load loads the configuration from the given file path
func Load(path string) (*Config, error) {
	// If config file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Save saves the configuration to the given file path
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetGlobalConfigDir returns ~/.folio
func GetGlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}
	return filepath.Join(home, ".folio"), nil
}

// GetGlobalConfigPath returns ~/.folio/config.json
func GetGlobalConfigPath() (string, error) {
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadGlobalConfig loads the file configuration without environment overrides
func LoadGlobalConfig() (*Config, error) {
	path, err := GetGlobalConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// SaveGlobalConfig writes cfg to ~/.folio/config.json
func SaveGlobalConfig(cfg *Config) error {
	path, err := GetGlobalConfigPath()
	if err != nil {
		return err
	}
	return cfg.Save(path)
}

// LoadDotEnv loads .env from the working directory if there is one
func LoadDotEnv() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides fields from FOLIO_* environment variables
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("FOLIO_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("FOLIO_CACHE_TTL"); v != "" {
		c.CacheTTL = v
	}
	if v := os.Getenv("FOLIO_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("FOLIO_RATE_LIMIT: %w", err)
		}
		c.RequestsPerSecond = rps
	}
	if v := os.Getenv("FOLIO_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks the server URL and cache TTL
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("server_url must be an absolute URL, got %q", c.ServerURL)
	}
	if _, err := c.TTL(); err != nil {
		return err
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	return nil
}

// TTL parses CacheTTL. An empty value means the default.
func (c *Config) TTL() (time.Duration, error) {
	if c.CacheTTL == "" {
		return DefaultCacheTTL, nil
	}
	ttl, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("cache_ttl: %w", err)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("cache_ttl must not be negative")
	}
	return ttl, nil
}

// Keys lists the names accepted by Get and Set
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type accessor struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

var accessors = map[string]accessor{
	"server_url": {
		get: func(c *Config) string { return c.ServerURL },
		set: func(c *Config, v string) error { c.ServerURL = strings.TrimRight(v, "/"); return nil },
	},
	"cache_ttl": {
		get: func(c *Config) string { return c.CacheTTL },
		set: func(c *Config, v string) error { c.CacheTTL = v; return nil },
	},
	"requests_per_second": {
		get: func(c *Config) string { return strconv.FormatFloat(c.RequestsPerSecond, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			rps, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("requests_per_second: %w", err)
			}
			c.RequestsPerSecond = rps
			return nil
		},
	},
	"log_level": {
		get: func(c *Config) string { return c.LogLevel },
		set: func(c *Config, v string) error { c.LogLevel = strings.ToLower(v); return nil },
	},
	"email": {
		get: func(c *Config) string { return c.Email },
	},
}

// Get returns the value of key
func (c *Config) Get(key string) (string, error) {
	a, ok := accessors[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return a.get(c), nil
}

// Set updates key and validates the result. On error c is unchanged.
func (c *Config) Set(key, value string) error {
	a, ok := accessors[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if a.set == nil {
		return fmt.Errorf("config key %q is read-only", key)
	}

	next := *c
	if err := a.set(&next, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
