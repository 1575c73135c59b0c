// Package config loads scraper configuration from the environment.
//
// Sources, lowest precedence first: envconfig defaults, an optional .env
// file, process environment (prefix BOOKTOPIA_). The CLI applies its flags
// on top of the returned Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix.
const Prefix = "BOOKTOPIA"

// Config holds every run setting.
type Config struct {
	InputURL     string `envconfig:"INPUT_URL" default:"https://drive.google.com/uc?id=1u4f-SSnZsgleZCK0533EC5VJauoFHjuM"`
	InputPath    string `envconfig:"INPUT_PATH" default:"input_list.csv"`
	OutputPath   string `envconfig:"OUTPUT_PATH" default:"book_details.csv"`
	SkipDownload bool   `envconfig:"SKIP_DOWNLOAD" default:"false"`

	BaseURL   string        `envconfig:"BASE_URL" default:"https://www.booktopia.com.au"`
	UserAgent string        `envconfig:"USER_AGENT"` // empty: pick one at startup
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"30s"`

	MaxWorkers int `envconfig:"MAX_WORKERS" default:"4"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`

	Redis RedisConfig `envconfig:"REDIS"`

	PushgatewayURL  string `envconfig:"PUSHGATEWAY_URL"`
	MetricsTextfile string `envconfig:"METRICS_TEXTFILE"`
}

// RedisConfig configures the optional page cache. Caching is off when Addr is empty.
type RedisConfig struct {
	Addr     string        `envconfig:"ADDR"`
	Password string        `envconfig:"PASSWORD"`
	DB       int           `envconfig:"DB" default:"0"`
	TTL      time.Duration `envconfig:"TTL" default:"24h"`
}

// Load reads envFile when it exists (an empty name skips it) and then the
// process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load env file %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would make the run meaningless.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input path is required")
	}
	if c.OutputPath == "" {
		return errors.New("output path is required")
	}
	if !c.SkipDownload && c.InputURL == "" {
		return errors.New("input url is required unless download is skipped")
	}
	if c.BaseURL == "" {
		return errors.New("base url is required")
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max workers must be >= 1 (got %d)", c.MaxWorkers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0 (got %s)", c.Timeout)
	}
	return nil
}

// CacheEnabled reports whether a Redis page cache should be used.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}
