package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.TopN != 10 {
		t.Errorf("TopN = %d, want 10", cfg.TopN)
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %v, want 10s", cfg.Timeout())
	}
	if cfg.CacheTTL() != time.Hour {
		t.Errorf("CacheTTL() = %v, want 1h", cfg.CacheTTL())
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"top_n": 5, "base_url": "http://localhost:9999"}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TopN != 5 {
		t.Errorf("TopN = %d, want 5", cfg.TopN)
	}
	if cfg.BaseURL != "http://localhost:9999" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "http://localhost:9999")
	}
	if cfg.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds = %d, want 10 (default)", cfg.TimeoutSeconds)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	writeConfig(t, globalDir, `{"top_n": 8, "disabled_tools": ["country_detail"]}`)
	writeConfig(t, filepath.Join(repoRoot, DirName), `{"top_n": 3, "disabled_tools": ["countries_top"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.TopN != 3 {
		t.Errorf("TopN = %d, want 3 (repo override)", cfg.TopN)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want 2 entries", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.TopN != 10 {
		t.Errorf("TopN = %d, want 10", cfg.TopN)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestFindRepoConfig_InParentDir(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, filepath.Join(root, DirName), `{}`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	got := FindRepoConfig(nested)
	want := filepath.Join(root, DirName, "config.json")
	if got != want {
		t.Errorf("FindRepoConfig() = %q, want %q", got, want)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	// The walk may find a config above the temp dir on a developer machine,
	// but never one inside it.
	dir := t.TempDir()
	if got := FindRepoConfig(dir); got == filepath.Join(dir, DirName, "config.json") {
		t.Errorf("FindRepoConfig() = %q, want no match inside %q", got, dir)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{TopN: 10, TimeoutSeconds: 10, LogLevel: "info"}
	overlay := &Config{TopN: 3, LogLevel: "debug"}

	got := Merge(base, overlay)
	if got.TopN != 3 {
		t.Errorf("TopN = %d, want 3", got.TopN)
	}
	if got.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds = %d, want 10 (base preserved)", got.TimeoutSeconds)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", got.LogLevel)
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"a", " b "}}
	overlay := &Config{DisabledTools: []string{"b", "c", ""}}

	got := Merge(base, overlay).DisabledTools
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMerge_ExportPaths(t *testing.T) {
	base := &Config{AllowedPaths: []string{"/data/exports"}, AllowUnsafePaths: true}
	overlay := &Config{AllowedPaths: []string{"/srv/out", "/data/exports"}}

	got := Merge(base, overlay)
	if len(got.AllowedPaths) != 2 || got.AllowedPaths[0] != "/data/exports" || got.AllowedPaths[1] != "/srv/out" {
		t.Errorf("AllowedPaths = %v, want [/data/exports /srv/out]", got.AllowedPaths)
	}
	if !got.AllowUnsafePaths {
		t.Error("AllowUnsafePaths from either side should survive the merge")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LANGROUTES_TOP_N":             "4",
		"LANGROUTES_TIMEOUT_SECONDS":   "not-a-number",
		"LANGROUTES_BASE_URL":          " http://upstream.test ",
		"LANGROUTES_CACHE_MAX_ENTRIES": "-3",
	}
	cfg := ApplyEnv(DefaultConfig(), func(k string) string { return env[k] })

	if cfg.TopN != 4 {
		t.Errorf("TopN = %d, want 4", cfg.TopN)
	}
	if cfg.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds = %d, want 10 (unparseable ignored)", cfg.TimeoutSeconds)
	}
	if cfg.BaseURL != "http://upstream.test" {
		t.Errorf("BaseURL = %q, want trimmed override", cfg.BaseURL)
	}
	if cfg.CacheMaxEntries != 64 {
		t.Errorf("CacheMaxEntries = %d, want 64 (negative ignored)", cfg.CacheMaxEntries)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if err := LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("LoadEnvFile() error = %v, want nil", err)
		}
	})

	t.Run("sets unset variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("LANGROUTES_TEST_ENV_FILE=hello\n"), 0600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("LANGROUTES_TEST_ENV_FILE") })

		if err := LoadEnvFile(path); err != nil {
			t.Fatalf("LoadEnvFile() error = %v", err)
		}
		if got := os.Getenv("LANGROUTES_TEST_ENV_FILE"); got != "hello" {
			t.Errorf("env = %q, want hello", got)
		}
	})
}
