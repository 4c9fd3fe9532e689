package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	feed "antarctic-explorer/internal/feed/domain"
)

// PathEnv names the variable that points at an optional YAML config file.
const PathEnv = "DASHBOARD_CONFIG"

const (
	SourceRandom   = "random"
	SourcePostgres = "postgres"
)

// Config is the dashboard startup configuration.
type Config struct {
	HTTPAddr    string       `yaml:"http_addr" env:"HTTP_ADDR"`
	LogLevel    string       `yaml:"log_level" env:"LOG_LEVEL"`
	DatabaseURL string       `yaml:"database_url" env:"DATABASE_URL"`
	Feed        FeedConfig   `yaml:"feed" envPrefix:"FEED_"`
	Source      SourceConfig `yaml:"source" envPrefix:"SOURCE_"`
	Auth        AuthConfig   `yaml:"auth" envPrefix:"AUTH_"`
	Page        PageConfig   `yaml:"page" envPrefix:"PAGE_"`
}

// FeedConfig holds tick and window settings.
type FeedConfig struct {
	Interval        time.Duration `yaml:"interval" env:"INTERVAL"`
	Capacity        int           `yaml:"capacity" env:"CAPACITY"`
	Eager           bool          `yaml:"eager" env:"EAGER"`
	GenerateTimeout time.Duration `yaml:"generate_timeout" env:"GENERATE_TIMEOUT"`
}

// SourceConfig selects and tunes the sample source.
type SourceConfig struct {
	Kind         string        `yaml:"kind" env:"KIND"`
	Min          float64       `yaml:"min" env:"MIN"`
	Max          float64       `yaml:"max" env:"MAX"`
	Precision    int           `yaml:"precision" env:"PRECISION"`
	Seed         uint64        `yaml:"seed" env:"SEED"`
	StationID    string        `yaml:"station_id" env:"STATION_ID"`
	PointKey     string        `yaml:"point_key" env:"POINT_KEY"`
	Location     string        `yaml:"location" env:"LOCATION"`
	QueryTimeout time.Duration `yaml:"query_timeout" env:"QUERY_TIMEOUT"`
}

// AuthConfig enables bearer auth when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

// PageConfig holds dashboard page text.
type PageConfig struct {
	Title     string `yaml:"title" env:"TITLE"`
	Heading   string `yaml:"heading" env:"HEADING"`
	Blurb     string `yaml:"blurb" env:"BLURB"`
	SourceURL string `yaml:"source_url" env:"SOURCE_URL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
		Feed: FeedConfig{
			Interval:        5 * time.Second,
			Capacity:        30,
			Eager:           true,
			GenerateTimeout: 2 * time.Second,
		},
		Source: SourceConfig{
			Kind:         SourceRandom,
			Min:          -18,
			Max:          -16,
			Precision:    1,
			StationID:    "station-demo-001",
			PointKey:     "temperature_c",
			Location:     "Local",
			QueryTimeout: 2 * time.Second,
		},
		Page: PageConfig{
			Title:   "Antarctic Explorer: Live Temperature",
			Heading: "Antarctic Explorer",
			Blurb:   "A demonstration of real-time temperature readings in Antarctica.",
		},
	}
}

// Load reads .env, the optional YAML file named by DASHBOARD_CONFIG and the
// process environment, in that order of increasing precedence.
func Load() (Config, error) {
	_ = godotenv.Load()
	return LoadFrom(os.Getenv(PathEnv), nil)
}

// LoadFrom builds a config from defaults, the YAML file at path (if any) and
// environ. A nil environ reads the process environment.
func LoadFrom(path string, environ map[string]string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the feed cannot start with.
func (c Config) Validate() error {
	if c.Feed.Capacity < 1 {
		return fmt.Errorf("%w: feed.capacity must be >= 1, got %d", feed.ErrInvalidConfig, c.Feed.Capacity)
	}
	if c.Feed.Interval <= 0 {
		return fmt.Errorf("%w: feed.interval must be > 0, got %s", feed.ErrInvalidConfig, c.Feed.Interval)
	}
	if c.Feed.GenerateTimeout < 0 {
		return fmt.Errorf("%w: feed.generate_timeout must be >= 0", feed.ErrInvalidConfig)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: http_addr is required", feed.ErrInvalidConfig)
	}
	switch c.Source.Kind {
	case SourceRandom:
		if c.Source.Min > c.Source.Max {
			return fmt.Errorf("%w: source.min %v > source.max %v", feed.ErrInvalidConfig, c.Source.Min, c.Source.Max)
		}
		if c.Source.Precision < 0 || c.Source.Precision > 6 {
			return fmt.Errorf("%w: source.precision must be in [0, 6]", feed.ErrInvalidConfig)
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for the postgres source", feed.ErrInvalidConfig)
		}
		if c.Source.StationID == "" || c.Source.PointKey == "" {
			return fmt.Errorf("%w: source.station_id and source.point_key are required", feed.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source.kind %q", feed.ErrInvalidConfig, c.Source.Kind)
	}
	if _, err := c.Source.TimeLocation(); err != nil {
		return fmt.Errorf("%w: source.location: %w", feed.ErrInvalidConfig, err)
	}
	return nil
}

// TimeLocation resolves Location, defaulting to the local zone.
func (s SourceConfig) TimeLocation() (*time.Location, error) {
	if s.Location == "" || s.Location == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Location)
}
