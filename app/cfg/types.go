package cfg

type Cfg struct {
	// Application configuration
	SourcesDir       string
	Port             string
	WorkerCount      int
	RefreshInterval  int
	AggregateTimeout int
	APIAccessKey     string

	// Pipeline tuning
	DedupThreshold  float64
	MaxResults      int
	DefaultPageSize int

	// Storage and cache
	DBPath    string
	RedisAddr string
	CacheTTL  int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
