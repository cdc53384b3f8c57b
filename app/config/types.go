package config

// Source configuration types. Each configured upstream provider has one
// YAML file in the sources directory; the file name (without extension)
// becomes the source name and the provenance tag on every event it yields.

type SourceType string

const (
	TypeNYCOpenData SourceType = "nyc_open_data"
	TypeEventbrite  SourceType = "eventbrite"
	TypeRSS         SourceType = "rss"
)

type Config struct {
	Name     string     // Derived from filename (without .yml extension)
	Type     SourceType `yaml:"type"`
	URL      string     `yaml:"url"`
	Enabled  bool       `yaml:"enabled"`
	Priority int        `yaml:"priority"` // higher survives dedup collisions

	Settings Settings `yaml:"settings"`
	Auth     Auth     `yaml:"auth"`
}

type Settings struct {
	Timeout    int       `yaml:"timeout"`     // seconds
	MaxResults int       `yaml:"max_results"` // upper bound on raw records per fetch
	RateLimit  RateLimit `yaml:"rate_limit"`
}

// RateLimit describes the per-source token bucket: Tokens requests allowed
// per bucket, one token restored every RefillInterval seconds.
type RateLimit struct {
	Tokens         int `yaml:"tokens"`
	RefillInterval int `yaml:"refill_interval"` // seconds
}

type Auth struct {
	TokenEnv string `yaml:"token_env"` // environment variable holding the API token
}
