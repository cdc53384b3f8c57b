package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type Cache struct {
	sourcesDir string
	cache      map[string]*Config
	mu         sync.RWMutex
}

func NewCache(sourcesDir string) *Cache {
	return &Cache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Config),
	}
}

func (c *Cache) Run() error {
	if _, err := os.Stat(c.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		sourceName := fileName[:len(fileName)-4] // Remove .yml extension

		cfg, err := c.LoadConfig(sourceName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source configuration loaded", "source", sourceName,
			"type", cfg.Type, "enabled", cfg.Enabled, "priority", cfg.Priority)
	}

	return nil
}

func (c *Cache) LoadConfig(sourceName string) (*Config, error) {
	configFile := c.getConfigFilePath(sourceName)
	sourceConfig, err := c.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	sourceConfig.Name = sourceName

	if err := c.validateConfig(sourceConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[sourceConfig.Name] = sourceConfig

	return sourceConfig, nil
}

func (c *Cache) GetConfig(sourceName string) (*Config, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sourceConfig, ok := c.cache[sourceName]
	if !ok {
		return nil, fmt.Errorf("source config with name '%s' not found", sourceName)
	}
	return sourceConfig, nil
}

func (c *Cache) GetConfigs() map[string]*Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(c.cache))
	for k, v := range c.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (c *Cache) GetEnabledConfigs() map[string]*Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range c.cache {
		if v.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (c *Cache) GetConfigCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Priorities returns the source name to priority mapping used by the
// deduplicator to pick duplicate survivors.
func (c *Cache) Priorities() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	priorities := make(map[string]int, len(c.cache))
	for name, cfg := range c.cache {
		priorities[name] = cfg.Priority
	}
	return priorities
}

func (c *Cache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var sourceConfig Config
	if err := yaml.Unmarshal(data, &sourceConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if sourceConfig.Settings.Timeout == 0 {
		sourceConfig.Settings.Timeout = 30
	}
	if sourceConfig.Settings.MaxResults == 0 {
		sourceConfig.Settings.MaxResults = 100
	}
	if sourceConfig.Settings.RateLimit.Tokens == 0 {
		sourceConfig.Settings.RateLimit.Tokens = 10
	}
	if sourceConfig.Settings.RateLimit.RefillInterval == 0 {
		sourceConfig.Settings.RateLimit.RefillInterval = 6
	}

	return &sourceConfig, nil
}

func (c *Cache) validateConfig(sourceConfig *Config) error {
	if sourceConfig == nil {
		return fmt.Errorf("sourceConfig is nil")
	}

	validTypes := map[SourceType]bool{
		TypeNYCOpenData: true,
		TypeEventbrite:  true,
		TypeRSS:         true,
	}
	if !validTypes[sourceConfig.Type] {
		return fmt.Errorf("invalid source type: %s", sourceConfig.Type)
	}

	if sourceConfig.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if sourceConfig.URL == "" {
		return fmt.Errorf("source URL is required")
	}
	if sourceConfig.Priority < 0 {
		return fmt.Errorf("priority must be non-negative")
	}

	nonNegativeFields := map[string]int{
		"timeout":     sourceConfig.Settings.Timeout,
		"max results": sourceConfig.Settings.MaxResults,
	}
	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if sourceConfig.Settings.RateLimit.Tokens < 1 {
		return fmt.Errorf("rate limit tokens must be positive")
	}
	if sourceConfig.Settings.RateLimit.RefillInterval < 1 {
		return fmt.Errorf("rate limit refill interval must be positive")
	}

	return nil
}

func (c *Cache) getConfigFilePath(sourceName string) string {
	return filepath.Join(c.sourcesDir, sourceName+".yml")
}
