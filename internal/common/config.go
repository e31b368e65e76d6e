package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production" - controls log shaping
	Service     ServiceConfig   `toml:"service"`
	Server      ServerConfig    `toml:"server"`
	Database    DatabaseConfig  `toml:"database"`
	Redis       RedisConfig     `toml:"redis"`
	Queue       QueueConfig     `toml:"queue"`
	Workers     WorkersConfig   `toml:"workers"`
	Crawler     CrawlerConfig   `toml:"crawler"`
	Dedup       DedupConfig     `toml:"dedup"`
	Analysis    AnalysisConfig  `toml:"analysis"`
	Retention   RetentionConfig `toml:"retention"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServiceConfig struct {
	Name       string `toml:"name"`        // Service name reported in health/metrics
	CORSOrigin string `toml:"cors_origin"` // Allowed origin for browser clients
	RateLimit  int    `toml:"rate_limit"`  // Requests per minute per client identity
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type DatabaseConfig struct {
	URL string `toml:"url"` // PostgreSQL connection string (required)
}

type RedisConfig struct {
	URL string `toml:"url"` // Redis connection string (required; queue + dedup backing)
}

type QueueConfig struct {
	Name                 string        `toml:"name"`                   // Key prefix for queue structures in Redis
	Attempts             int           `toml:"attempts"`               // Max delivery attempts before dead-letter
	BackoffBase          time.Duration `toml:"backoff_base"`           // Initial retry backoff (doubles per attempt)
	LockDuration         time.Duration `toml:"lock_duration"`          // Lease duration for an active job
	LeaseRenewInterval   time.Duration `toml:"lease_renew_interval"`   // How often workers renew their lease
	StalledCheckInterval time.Duration `toml:"stalled_check_interval"` // How often lapsed leases are swept back to the queue
	CompletedRetention   time.Duration `toml:"completed_retention"`    // Completed job records retained by age
	CompletedKeep        int           `toml:"completed_keep"`         // Completed job records retained by count
	FailedRetention      time.Duration `toml:"failed_retention"`       // Failed job records retained by age
}

type WorkersConfig struct {
	Concurrency int `toml:"concurrency"` // Number of concurrent scan workers
}

// CrawlerConfig controls the headless browser drive
type CrawlerConfig struct {
	UserAgent         string        `toml:"user_agent"`         // Fixed desktop user agent
	Headless          bool          `toml:"headless"`
	NoSandbox         bool          `toml:"no_sandbox"`
	DisableGPU        bool          `toml:"disable_gpu"`
	NavigationTimeout time.Duration `toml:"navigation_timeout"` // domcontentloaded deadline
	SettleTimeout     time.Duration `toml:"settle_timeout"`     // load-event wait ceiling after navigation
	ScriptSettleWait  time.Duration `toml:"script_settle_wait"` // Additional JS settle window
	SitemapTimeout    time.Duration `toml:"sitemap_timeout"`    // /sitemap.xml fetch budget
	MaxSubPages       int           `toml:"max_sub_pages"`      // Additional same-host pages per scan
}

type DedupConfig struct {
	Window time.Duration `toml:"window"` // Recent-success + in-flight dedup horizon
}

type AnalysisConfig struct {
	ScriptFetchTimeout time.Duration `toml:"script_fetch_timeout"` // Per-script download deadline
	ScriptMaxBytes     int           `toml:"script_max_bytes"`     // Analysis cap per script body
	MaxScripts         int           `toml:"max_scripts"`          // External scripts fetched per scan
	MaxCookieReports   int           `toml:"max_cookie_reports"`   // Cookie records returned in the result
}

// RetentionConfig controls database-side pruning of old job rows
type RetentionConfig struct {
	JobMaxAge time.Duration `toml:"job_max_age"` // Terminal jobs older than this are pruned; 0 disables
	Schedule  string        `toml:"schedule"`    // Cron schedule for the prune sweep
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in vigil.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Service: ServiceConfig{
			Name:       "privacy-analyzer",
			CORSOrigin: "http://localhost:5173",
			RateLimit:  10,
		},
		Server: ServerConfig{
			Port: 8000,
			Host: "0.0.0.0",
		},
		Database: DatabaseConfig{
			URL: "", // Required: DATABASE_URL
		},
		Redis: RedisConfig{
			URL: "", // Required: REDIS_URL
		},
		Queue: QueueConfig{
			Name:                 "vigil_scans",
			Attempts:             3,
			BackoffBase:          5 * time.Second,
			LockDuration:         120 * time.Second,
			LeaseRenewInterval:   30 * time.Second,
			StalledCheckInterval: 30 * time.Second,
			CompletedRetention:   2 * time.Hour,
			CompletedKeep:        500,
			FailedRetention:      24 * time.Hour,
		},
		Workers: WorkersConfig{
			Concurrency: 2,
		},
		Crawler: CrawlerConfig{
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Headless:          true,
			NoSandbox:         true,
			DisableGPU:        true,
			NavigationTimeout: 25 * time.Second,
			SettleTimeout:     6 * time.Second,
			ScriptSettleWait:  2 * time.Second,
			SitemapTimeout:    5 * time.Second,
			MaxSubPages:       3,
		},
		Dedup: DedupConfig{
			Window: 10 * time.Minute,
		},
		Analysis: AnalysisConfig{
			ScriptFetchTimeout: 8 * time.Second,
			ScriptMaxBytes:     100 * 1024,
			MaxScripts:         8,
			MaxCookieReports:   30,
		},
		Retention: RetentionConfig{
			JobMaxAge: 30 * 24 * time.Hour,
			Schedule:  "@hourly",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration from files with priority:
// defaults -> file1 -> file2 -> ... -> env -> CLI flags.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// Validate checks that required settings are present
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required (set DATABASE_URL or [database] url)")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("redis url is required (set REDIS_URL or [redis] url)")
	}
	if c.Workers.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be positive, got %d", c.Workers.Concurrency)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment (highest priority: VIGIL_ENV, fallback: GO_ENV)
	if env := os.Getenv("VIGIL_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Deployment contract variables
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		config.Redis.URL = redisURL
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if concurrency := os.Getenv("WORKER_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Workers.Concurrency = c
		}
	}
	if origin := os.Getenv("CORS_ORIGIN"); origin != "" {
		config.Service.CORSOrigin = origin
	}
	if name := os.Getenv("SERVICE_NAME"); name != "" {
		config.Service.Name = name
	}

	// Server configuration
	if host := os.Getenv("VIGIL_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Queue configuration
	if name := os.Getenv("VIGIL_QUEUE_NAME"); name != "" {
		config.Queue.Name = name
	}
	if attempts := os.Getenv("VIGIL_QUEUE_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil {
			config.Queue.Attempts = a
		}
	}
	if backoff := os.Getenv("VIGIL_QUEUE_BACKOFF_BASE"); backoff != "" {
		if d, err := time.ParseDuration(backoff); err == nil {
			config.Queue.BackoffBase = d
		}
	}
	if lock := os.Getenv("VIGIL_QUEUE_LOCK_DURATION"); lock != "" {
		if d, err := time.ParseDuration(lock); err == nil {
			config.Queue.LockDuration = d
		}
	}

	// Crawler configuration
	if userAgent := os.Getenv("VIGIL_CRAWLER_USER_AGENT"); userAgent != "" {
		config.Crawler.UserAgent = userAgent
	}
	if headless := os.Getenv("VIGIL_CRAWLER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Crawler.Headless = h
		}
	}
	if noSandbox := os.Getenv("VIGIL_CRAWLER_NO_SANDBOX"); noSandbox != "" {
		if ns, err := strconv.ParseBool(noSandbox); err == nil {
			config.Crawler.NoSandbox = ns
		}
	}
	if navTimeout := os.Getenv("VIGIL_CRAWLER_NAVIGATION_TIMEOUT"); navTimeout != "" {
		if d, err := time.ParseDuration(navTimeout); err == nil {
			config.Crawler.NavigationTimeout = d
		}
	}
	if maxSubPages := os.Getenv("VIGIL_CRAWLER_MAX_SUB_PAGES"); maxSubPages != "" {
		if n, err := strconv.Atoi(maxSubPages); err == nil {
			config.Crawler.MaxSubPages = n
		}
	}

	// Dedup configuration
	if window := os.Getenv("VIGIL_DEDUP_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil {
			config.Dedup.Window = d
		}
	}

	// Logging configuration
	if level := os.Getenv("VIGIL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("VIGIL_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("VIGIL_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
