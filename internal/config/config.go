package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for byteflow.
type Config struct {
	Scheduling SchedulingConfig `mapstructure:"scheduling" yaml:"scheduling"`
	Batch      BatchConfig      `mapstructure:"batch"      yaml:"batch"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"    yaml:"fetcher"`
	Proxy      ProxyConfig      `mapstructure:"proxy"      yaml:"proxy"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"   yaml:"pipeline"`
	Storage    StorageConfig    `mapstructure:"storage"    yaml:"storage"`
	Resources  []ResourceConfig `mapstructure:"resources"  yaml:"resources"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
}

// SchedulingConfig controls the supervisor's collector-pool wait loop.
type SchedulingConfig struct {
	LookupInterval time.Duration `mapstructure:"lookup_interval" yaml:"lookup_interval"`
}

// BatchConfig controls the shared per-resource request budget and the
// default retry ceiling collectors apply to transient fetch failures.
type BatchConfig struct {
	MaxBatch   int `mapstructure:"max_batch"   yaml:"max_batch"`
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// ResourceConfig declares one collection target: its URL generation shape,
// end-of-resource triggers, launch schedule, and storage destination.
type ResourceConfig struct {
	Name     string          `mapstructure:"name"      yaml:"name"`
	BaseURL  string          `mapstructure:"base_url"  yaml:"base_url"`
	MaxPages int             `mapstructure:"max_pages" yaml:"max_pages"`
	Requests []RequestConfig `mapstructure:"requests"  yaml:"requests"`
	EOR      EORConfig       `mapstructure:"eor"       yaml:"eor"`
	Schedule ScheduleConfig  `mapstructure:"schedule"  yaml:"schedule"`
	Storage  StorageConfig   `mapstructure:"storage"   yaml:"storage"` // Proto=="" means "use the top-level default"
}

// RequestConfig declares one named query variant against a Resource.
type RequestConfig struct {
	Name          string              `mapstructure:"name"           yaml:"name"`
	PersistFields map[string]string   `mapstructure:"persist_fields" yaml:"persist_fields"`
	MutableFields map[string][]string `mapstructure:"mutable_fields" yaml:"mutable_fields"`
}

// EORConfig configures the built-in end-of-resource triggers a Resource's
// Collector uses to detect that it has run off the end of a paginated feed.
type EORConfig struct {
	StopCodes        []int `mapstructure:"stop_codes"         yaml:"stop_codes"`
	MinContentLength int   `mapstructure:"min_content_length" yaml:"min_content_length"`
	MaxRounds        int   `mapstructure:"max_rounds"         yaml:"max_rounds"`
}

// ScheduleConfig configures the ActionCondition a Collector waits on
// between runs. Type "always" ignores every other field (AlwaysRun).
// "daily" and "weekday" build a *schedule.TimeCondition over the matching
// ScheduleInterval.
type ScheduleConfig struct {
	Type           string   `mapstructure:"type"            yaml:"type"` // "always", "daily", "weekday"
	IntervalDays   int      `mapstructure:"interval_days"   yaml:"interval_days"`
	Weekdays       []string `mapstructure:"weekdays"        yaml:"weekdays"`
	LaunchHour     int      `mapstructure:"launch_hour"     yaml:"launch_hour"`
	LaunchMinute   int      `mapstructure:"launch_minute"   yaml:"launch_minute"`
	FrequencyHours float64  `mapstructure:"frequency_hours" yaml:"frequency_hours"`
}

// FetcherConfig controls the request fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	Enabled      bool     `mapstructure:"enabled"       yaml:"enabled"`
	Rotation     string   `mapstructure:"rotation"      yaml:"rotation"`
	URLs         []string `mapstructure:"urls"           yaml:"urls"`
	HealthCheck  bool     `mapstructure:"health_check"   yaml:"health_check"`
	RotateOnFail bool     `mapstructure:"rotate_on_fail" yaml:"rotate_on_fail"`
}

// PipelineConfig controls the processing pipeline: every collector builds
// its own Pipeline from this one block, with the same concurrency, timeout
// and middlewares; there are no per-collector overrides.
type PipelineConfig struct {
	Concurrency int                `mapstructure:"concurrency" yaml:"concurrency"`
	Timeout     time.Duration      `mapstructure:"timeout"     yaml:"timeout"`
	Middlewares []MiddlewareConfig `mapstructure:"middlewares" yaml:"middlewares"`
}

// MiddlewareConfig defines a single pipeline step, by name, to wire onto
// every collector's Pipeline[*types.Item] in registration order.
type MiddlewareConfig struct {
	Name    string         `mapstructure:"name"    yaml:"name"`
	Options map[string]any `mapstructure:"options" yaml:"options"`
}

// StorageConfig selects and configures a storage engine. A Resource may
// set its own Storage to override the top-level default.
type StorageConfig struct {
	Proto           string `mapstructure:"proto"            yaml:"proto"` // "file" or "mongo"
	Root            string `mapstructure:"root"             yaml:"root"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus-text-format metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scheduling: SchedulingConfig{
			LookupInterval: 10 * time.Minute,
		},
		Batch: BatchConfig{
			MaxBatch:   10,
			MaxRetries: 3,
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			RequestTimeout:  30 * time.Second,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Proxy: ProxyConfig{
			Enabled:      false,
			Rotation:     "round_robin",
			HealthCheck:  true,
			RotateOnFail: true,
		},
		Pipeline: PipelineConfig{
			Concurrency: 8,
			Timeout:     30 * time.Second,
		},
		Storage: StorageConfig{
			Proto: "file",
			Root:  "./output",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
