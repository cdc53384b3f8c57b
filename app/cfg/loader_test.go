package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		SourcesDir:       "./sources",
		Port:             "8080",
		WorkerCount:      3,
		RefreshInterval:  900,
		AggregateTimeout: 15,
		APIAccessKey:     "test-key",
		DedupThreshold:   0.8,
		MaxResults:       100,
		DefaultPageSize:  20,
		DBPath:           "./test.db",
		RedisAddr:        "localhost:6379",
		CacheTTL:         120,
		UserAgent:        "Test Agent",
		Timezone:         "America/New_York",
		Debug:            true,
		Version:          "test-version",
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.WorkerCount != 3 {
		t.Errorf("Expected worker count 3, got %d", cfg.WorkerCount)
	}
	if cfg.AggregateTimeout != 15 {
		t.Errorf("Expected aggregate timeout 15, got %d", cfg.AggregateTimeout)
	}
	if cfg.DedupThreshold != 0.8 {
		t.Errorf("Expected dedup threshold 0.8, got %v", cfg.DedupThreshold)
	}
	if cfg.DefaultPageSize != 20 {
		t.Errorf("Expected page size 20, got %d", cfg.DefaultPageSize)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
}

func TestApplyTimezone(t *testing.T) {
	original := time.Local
	defer func() { time.Local = original }()

	if err := applyTimezone("America/New_York"); err != nil {
		t.Errorf("Expected valid timezone to apply, got %v", err)
	}
	if time.Local.String() != "America/New_York" {
		t.Errorf("Expected time.Local updated, got %s", time.Local.String())
	}

	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected invalid timezone to be rejected")
	}

	// Empty timezone leaves the current setting alone.
	if err := applyTimezone(""); err != nil {
		t.Errorf("Expected empty timezone to be a no-op, got %v", err)
	}
}

func TestGetPanicsWhenUnloaded(t *testing.T) {
	original := globalCfg
	defer func() { globalCfg = original }()
	globalCfg = nil

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected Get to panic before Load")
		}
	}()
	Get()
}
