package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"FinDash/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level      string `yaml:"level" default:"info"`
		Format     string `yaml:"format" default:"console"`
		Output     string `yaml:"output" default:"stdout"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"100"`
		MaxBackups int    `yaml:"max_backups" default:"5"`
		MaxAgeDays int    `yaml:"max_age_days" default:"14"`
	} `yaml:"log"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"1s"`
	} `yaml:"metrics"`
	Supabase struct {
		URL            string        `yaml:"url"`
		AnonKey        string        `yaml:"anon_key"`
		ServiceRoleKey string        `yaml:"service_role_key"`
		Timeout        time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"supabase"`
	Session struct {
		CookiePrefix string        `yaml:"cookie_prefix" default:"sb"`
		Secure       bool          `yaml:"secure"`
		MaxAge       time.Duration `yaml:"max_age" default:"720h"`
	} `yaml:"session"`
	Chart struct {
		Symbol         string        `yaml:"symbol" default:"SAMPLE"`
		Source         string        `yaml:"source" default:"sample"`
		RetryDelay     time.Duration `yaml:"retry_delay" default:"100ms"`
		MaxRetries     int           `yaml:"max_retries" default:"10"`
		FallbackWidth  int           `yaml:"fallback_width" default:"400"`
		FallbackHeight int           `yaml:"fallback_height" default:"300"`
		ViewportWidth  int           `yaml:"viewport_width" default:"960"`
		ViewportHeight int           `yaml:"viewport_height" default:"540"`
		Theme          struct {
			Background string `yaml:"background" default:"transparent"`
			Text       string `yaml:"text" default:"#ffffff"`
			Border     string `yaml:"border" default:"#374151"`
			Grid       string `yaml:"grid" default:"#374151"`
			Up         string `yaml:"up" default:"#10b981"`
			Down       string `yaml:"down" default:"#ef4444"`
		} `yaml:"theme"`
	} `yaml:"chart"`
	Cache struct {
		Backend    string        `yaml:"backend" default:"memory"`
		ProfileTTL time.Duration `yaml:"profile_ttl" default:"5m"`
		MaxEntries int           `yaml:"max_entries" default:"10000"`
		Redis      struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"findash"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity" default:"5"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"0.5"`
	} `yaml:"rate_limit"`
	Kafka struct {
		Enabled       bool          `yaml:"enabled"`
		Brokers       []string      `yaml:"brokers"`
		EventsTopic   string        `yaml:"events_topic" default:"findash.auth.events"`
		BackfillTopic string        `yaml:"backfill_topic" default:"findash.profile.backfill"`
		DLQTopic      string        `yaml:"dlq_topic" default:"findash.profile.backfill.dlq"`
		RequiredAcks  int           `yaml:"required_acks" default:"-1"`
		Compression   string        `yaml:"compression" default:"snappy"`
		WriteTimeout  time.Duration `yaml:"write_timeout" default:"5s"`
		Consumer      struct {
			GroupID    string        `yaml:"group_id" default:"findash-profile-backfill"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	// Queue is the Redis-backed profile backfill used when Kafka is disabled.
	// It connects with the cache.redis settings.
	Queue struct {
		Enabled     bool          `yaml:"enabled"`
		Prefix      string        `yaml:"prefix" default:"findash:queue"`
		Workers     int           `yaml:"workers" default:"1"`
		RetryLimit  int           `yaml:"retry_limit" default:"5"`
		RetryDelay  time.Duration `yaml:"retry_delay" default:"30s"`
		PollTimeout time.Duration `yaml:"poll_timeout" default:"1s"`
	} `yaml:"queue"`
	ClickHouse struct {
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"findash"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		Table        string        `yaml:"table" default:"candles"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML, overrides with environment variables and validates.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("SUPABASE_URL"); v != "" {
		c.Supabase.URL = v
	}
	if v := getenv("SUPABASE_ANON_KEY"); v != "" {
		c.Supabase.AnonKey = v
	}
	if v := getenv("SUPABASE_SERVICE_ROLE_KEY"); v != "" {
		c.Supabase.ServiceRoleKey = v
	}
	c.Server.Port = util.ParseIntDefault(getenv("PORT"), c.Server.Port)
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Host = host
		if ok {
			c.Cache.Redis.Port = util.ParseIntDefault(port, c.Cache.Redis.Port)
		}
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Supabase.URL == "" {
		return fmt.Errorf("supabase.url is required")
	}
	if u, err := url.Parse(c.Supabase.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("supabase.url must be an absolute URL, got '%s'", c.Supabase.URL)
	}
	if c.Supabase.AnonKey == "" {
		return fmt.Errorf("supabase.anon_key is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.Chart.Source != "sample" && c.Chart.Source != "clickhouse" {
		return fmt.Errorf("chart.source must be 'sample' or 'clickhouse', got '%s'", c.Chart.Source)
	}
	if c.Chart.MaxRetries < 0 {
		return fmt.Errorf("chart.max_retries cannot be negative")
	}
	if c.Chart.FallbackWidth <= 0 || c.Chart.FallbackHeight <= 0 {
		return fmt.Errorf("chart fallback dimensions must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Queue.Enabled {
		return fmt.Errorf("enable either kafka or queue for profile backfill, not both")
	}
	return nil
}
