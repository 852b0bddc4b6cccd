package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// DirName is the name of both the global (~/.langroutes) and repo config directories.
const DirName = ".langroutes"

// DefaultBaseURL is the REST Countries v3.1 API root.
const DefaultBaseURL = "https://restcountries.com/v3.1"

// Config holds application configuration.
type Config struct {
	// BaseURL is the root of the countries API; requests go to {BaseURL}/lang/{key}.
	BaseURL string `json:"base_url,omitempty"`

	// TimeoutSeconds bounds every upstream request.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// TopN is the default ranking size used by the CLI, web UI and MCP tools.
	TopN int `json:"top_n,omitempty"`

	// CacheTTLSeconds is how long a fetched language stays cached in memory.
	CacheTTLSeconds int `json:"cache_ttl_seconds,omitempty"`

	// CacheMaxEntries caps the number of cached languages. Least recently used go first.
	CacheMaxEntries int `json:"cache_max_entries,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// WebBind and WebPort are the listen address defaults for `langroutes serve`.
	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`

	// AllowedPaths lists extra directories exports may be written to.
	// Exports otherwise go only to ~/.langroutes/exports. Relative entries are ignored.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths lifts the directory restriction on exports.
	// Traversal, extension and symlink checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		TimeoutSeconds:  10,
		TopN:            10,
		CacheTTLSeconds: 3600,
		CacheMaxEntries: 64,
		LogLevel:        "info",
		WebBind:         "127.0.0.1",
		WebPort:         8080,
	}
}

// Timeout returns TimeoutSeconds as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.langroutes.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.langroutes) and repo (.langroutes) directories.
// Repo config is found by walking upward from startDir.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .langroutes/config.json.
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

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error. Variables already set are not overwritten.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// ApplyEnv overlays LANGROUTES_* environment variables onto cfg.
// Unparseable numbers are ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) *Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	overlay := &Config{
		BaseURL:         strings.TrimSpace(getenv("LANGROUTES_BASE_URL")),
		TimeoutSeconds:  envInt(getenv, "LANGROUTES_TIMEOUT_SECONDS"),
		TopN:            envInt(getenv, "LANGROUTES_TOP_N"),
		CacheTTLSeconds: envInt(getenv, "LANGROUTES_CACHE_TTL_SECONDS"),
		CacheMaxEntries: envInt(getenv, "LANGROUTES_CACHE_MAX_ENTRIES"),
		LogLevel:        strings.TrimSpace(getenv("LANGROUTES_LOG_LEVEL")),
		WebBind:         strings.TrimSpace(getenv("LANGROUTES_WEB_BIND")),
		WebPort:         envInt(getenv, "LANGROUTES_WEB_PORT"),
	}
	return Merge(cfg, overlay)
}

func envInt(getenv func(string) string, key string) int {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return 0
	}
	n, err := cast.ToIntE(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
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
		return nil, err
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
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		BaseURL:         pickString(overlay.BaseURL, base.BaseURL),
		TimeoutSeconds:  pickInt(overlay.TimeoutSeconds, base.TimeoutSeconds),
		TopN:            pickInt(overlay.TopN, base.TopN),
		CacheTTLSeconds: pickInt(overlay.CacheTTLSeconds, base.CacheTTLSeconds),
		CacheMaxEntries: pickInt(overlay.CacheMaxEntries, base.CacheMaxEntries),
		LogLevel:        pickString(overlay.LogLevel, base.LogLevel),
		WebBind:         pickString(overlay.WebBind, base.WebBind),
		WebPort:         pickInt(overlay.WebPort, base.WebPort),
	}

	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pickString(overlay, base string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
	}
	return base
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
