package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DirName is the name of both the global (~/.statustracker) and the repo-level config directory.
const DirName = ".statustracker"

// Environment variables that override file configuration.
const (
	EnvServer    = "STATUSTRACKER_SERVER"
	EnvLogLevel  = "STATUSTRACKER_LOG_LEVEL"
	EnvLogFormat = "STATUSTRACKER_LOG_FORMAT"
)

// Config holds application configuration.
type Config struct {
	// ServerURL is the base address of the statustracker server (e.g. https://tracker.example.net).
	// Resolved once at startup; every fetch builds its URL from it.
	ServerURL string `json:"server_url,omitempty"`

	// RequestTimeoutSecs bounds a single fetch. A stalled fetch otherwise delays results indefinitely.
	RequestTimeoutSecs int `json:"request_timeout_secs,omitempty"`

	// UUIDCacheTTLSecs is how long a resolved player name -> uuid mapping is reused.
	UUIDCacheTTLSecs int `json:"uuid_cache_ttl_secs,omitempty"`

	// NameMapTTLSecs is how long a fetched name map is reused. The server only ever appends to it.
	NameMapTTLSecs int `json:"name_map_ttl_secs,omitempty"`

	// MaxRangeMinutes rejects queries spanning more than this many minutes.
	// Matches the server's own limit of five years by default.
	MaxRangeMinutes uint64 `json:"max_range_minutes,omitempty"`

	// DefaultWindows lists the rolling-average windows (in minutes) used when a query names none.
	DefaultWindows []uint64 `json:"default_windows,omitempty"`

	// Categories restricts reconstructed series to these categories (plus "all" if listed).
	// Empty means "all" plus every category the server reports.
	Categories []string `json:"categories,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "counts", "player", "names".
	DisabledTypes []string `json:"disabled_types,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RequestTimeoutSecs: 30,
		UUIDCacheTTLSecs:   3600,
		NameMapTTLSecs:     60,
		MaxRangeMinutes:    60 * 24 * 365 * 5,
		DefaultWindows:     []uint64{0},
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// RequestTimeout returns RequestTimeoutSecs as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// UUIDCacheTTL returns UUIDCacheTTLSecs as a duration.
func (c *Config) UUIDCacheTTL() time.Duration {
	return time.Duration(c.UUIDCacheTTLSecs) * time.Second
}

// NameMapTTL returns NameMapTTLSecs as a duration.
func (c *Config) NameMapTTL() time.Duration {
	return time.Duration(c.NameMapTTLSecs) * time.Second
}

// Validate checks the server URL and category filter. An empty URL is
// allowed so that help and version output work without configuration;
// fetch commands check for it.
func (c *Config) Validate() error {
	if slices.Contains(c.Categories, "all") {
		return fmt.Errorf("categories must not contain the reserved name \"all\"")
	}
	if c.ServerURL == "" {
		return nil
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server_url %q: scheme must be http or https", c.ServerURL)
	}
	return nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.statustracker.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.statustracker) and repo (.statustracker) directories.
// Repo config is found by walking upward from startDir to find the nearest .statustracker/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .statustracker/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ApplyEnv overrides fields from environment variables. getenv is
// os.Getenv outside of tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvServer)); v != "" {
		c.ServerURL = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvLogFormat)); v != "" {
		c.LogFormat = v
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated,
// except DefaultWindows which the overlay replaces wholesale.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.ServerURL = firstNonEmpty(overlay.ServerURL, base.ServerURL)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)
	result.LogFormat = firstNonEmpty(overlay.LogFormat, base.LogFormat)

	result.RequestTimeoutSecs = overlay.RequestTimeoutSecs
	if result.RequestTimeoutSecs == 0 {
		result.RequestTimeoutSecs = base.RequestTimeoutSecs
	}

	result.UUIDCacheTTLSecs = overlay.UUIDCacheTTLSecs
	if result.UUIDCacheTTLSecs == 0 {
		result.UUIDCacheTTLSecs = base.UUIDCacheTTLSecs
	}

	result.NameMapTTLSecs = overlay.NameMapTTLSecs
	if result.NameMapTTLSecs == 0 {
		result.NameMapTTLSecs = base.NameMapTTLSecs
	}

	result.MaxRangeMinutes = overlay.MaxRangeMinutes
	if result.MaxRangeMinutes == 0 {
		result.MaxRangeMinutes = base.MaxRangeMinutes
	}

	result.DefaultWindows = overlay.DefaultWindows
	if len(result.DefaultWindows) == 0 {
		result.DefaultWindows = base.DefaultWindows
	}

	// Arrays: merge and deduplicate
	result.Categories = mergeStringSlice(base.Categories, overlay.Categories)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
