package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSourceFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCacheLoadsSources(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "city_events", `
type: nyc_open_data
url: https://data.cityofnewyork.us/resource/tvpp-9vvx.json
enabled: true
priority: 100
settings:
  timeout: 10
  max_results: 50
  rate_limit:
    tokens: 5
    refill_interval: 12
`)
	writeSourceFile(t, dir, "disabled_feed", `
type: rss
url: https://example.com/feed.xml
enabled: false
priority: 25
`)

	cache := NewCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	if cache.GetConfigCount() != 2 {
		t.Errorf("Expected 2 configs, got %d", cache.GetConfigCount())
	}

	cfg, err := cache.GetConfig("city_events")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != TypeNYCOpenData {
		t.Errorf("Expected nyc_open_data type, got %q", cfg.Type)
	}
	if cfg.Priority != 100 {
		t.Errorf("Expected priority 100, got %d", cfg.Priority)
	}
	if cfg.Settings.Timeout != 10 || cfg.Settings.MaxResults != 50 {
		t.Errorf("Unexpected settings: %+v", cfg.Settings)
	}
	if cfg.Settings.RateLimit.Tokens != 5 || cfg.Settings.RateLimit.RefillInterval != 12 {
		t.Errorf("Unexpected rate limit: %+v", cfg.Settings.RateLimit)
	}

	enabled := cache.GetEnabledConfigs()
	if len(enabled) != 1 {
		t.Errorf("Expected 1 enabled config, got %d", len(enabled))
	}
	if _, ok := enabled["disabled_feed"]; ok {
		t.Error("Expected disabled source to be excluded")
	}
}

func TestCacheDefaults(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "minimal", `
type: rss
url: https://example.com/feed.xml
enabled: true
priority: 25
`)

	cache := NewCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	cfg, err := cache.GetConfig("minimal")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", cfg.Settings.Timeout)
	}
	if cfg.Settings.MaxResults != 100 {
		t.Errorf("Expected default max results 100, got %d", cfg.Settings.MaxResults)
	}
	if cfg.Settings.RateLimit.Tokens != 10 {
		t.Errorf("Expected default tokens 10, got %d", cfg.Settings.RateLimit.Tokens)
	}
	if cfg.Settings.RateLimit.RefillInterval != 6 {
		t.Errorf("Expected default refill interval 6, got %d", cfg.Settings.RateLimit.RefillInterval)
	}
}

func TestCacheRejectsInvalidType(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "bad_type", `
type: carrier_pigeon
url: https://example.com
enabled: true
`)

	if err := NewCache(dir).Run(); err == nil {
		t.Error("Expected invalid source type to be rejected")
	}
}

func TestCacheRejectsMissingURL(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "no_url", `
type: rss
enabled: true
`)

	if err := NewCache(dir).Run(); err == nil {
		t.Error("Expected missing URL to be rejected")
	}
}

func TestCacheMissingDirIsEmpty(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}
	if cache.GetConfigCount() != 0 {
		t.Errorf("Expected empty cache, got %d configs", cache.GetConfigCount())
	}
}

func TestPriorities(t *testing.T) {
	dir := t.TempDir()
	writeSourceFile(t, dir, "official", `
type: nyc_open_data
url: https://example.com/a
enabled: true
priority: 100
`)
	writeSourceFile(t, dir, "feed", `
type: rss
url: https://example.com/b
enabled: true
priority: 25
`)

	cache := NewCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	p := cache.Priorities()
	if p["official"] != 100 || p["feed"] != 25 {
		t.Errorf("Unexpected priorities: %+v", p)
	}
}

func TestGetConfigUnknownSource(t *testing.T) {
	cache := NewCache(t.TempDir())
	if _, err := cache.GetConfig("nope"); err == nil {
		t.Error("Expected error for unknown source")
	}
}
