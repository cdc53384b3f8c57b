package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Application configuration
	SourcesDir       string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	Port             string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount      int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for source refresh tasks"`
	RefreshInterval  int    `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"900" description:"Background source refresh interval in seconds"`
	AggregateTimeout int    `long:"aggregate-timeout" env:"AGGREGATE_TIMEOUT" default:"15" description:"Wall-clock budget for one aggregation fan-out in seconds"`
	APIAccessKey     string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for management endpoints (optional)"`

	// Pipeline tuning
	DedupThreshold  float64 `long:"dedup-threshold" env:"DEDUP_THRESHOLD" default:"0.8" description:"Title token-overlap ratio above which events are considered duplicates"`
	MaxResults      int     `long:"max-results" env:"MAX_RESULTS" default:"100" description:"Maximum raw records requested per source"`
	DefaultPageSize int     `long:"page-size" env:"PAGE_SIZE" default:"20" description:"Default page size for discovery results"`

	// Storage and cache
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./eventcomb.db" description:"SQLite archive database path"`
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the result cache (empty disables caching)"`
	CacheTTL  int    `long:"cache-ttl" env:"CACHE_TTL" default:"120" description:"Result cache TTL in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"EventComb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"America/New_York" description:"Timezone for timestamps"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SourcesDir:       raw.SourcesDir,
		Port:             raw.Port,
		WorkerCount:      raw.WorkerCount,
		RefreshInterval:  raw.RefreshInterval,
		AggregateTimeout: raw.AggregateTimeout,
		APIAccessKey:     raw.APIAccessKey,
		DedupThreshold:   raw.DedupThreshold,
		MaxResults:       raw.MaxResults,
		DefaultPageSize:  raw.DefaultPageSize,
		DBPath:           raw.DBPath,
		RedisAddr:        raw.RedisAddr,
		CacheTTL:         raw.CacheTTL,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
