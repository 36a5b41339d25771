// Package config loads service configuration in layers: built-in defaults,
// an optional YAML file, then environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// #region config

// Config holds every tunable of the service.
type Config struct {
	Environment string `yaml:"environment"`

	HTTP struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`

	Data struct {
		StreamsPath   string `yaml:"streams_path"`
		QuestionsPath string `yaml:"questions_path"`
		Watch         bool   `yaml:"watch"`
	} `yaml:"data"`

	Cache struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"cache"`

	Explain struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"explain"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{Environment: "development"}
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.Data.StreamsPath = "data/streams.json"
	cfg.Data.QuestionsPath = "data/questions.json"
	cfg.Data.Watch = true
	cfg.Cache.DBPath = "course_matrix.db"
	cfg.Explain.Timeout = 15 * time.Second
	cfg.Logging.Level = "info"
	return cfg
}

// #endregion config

// #region load

// Load builds the configuration. path may be empty; a missing file at the
// default location is not an error, an unreadable or malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables. Highest
// priority layer.
func applyEnv(cfg *Config) {
	if v := os.Getenv("COMPASS_ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("COMPASS_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("COMPASS_STREAMS"); v != "" {
		cfg.Data.StreamsPath = v
	}
	if v := os.Getenv("COMPASS_QUESTIONS"); v != "" {
		cfg.Data.QuestionsPath = v
	}
	if v := os.Getenv("COMPASS_DB"); v != "" {
		cfg.Cache.DBPath = v
	}
	if v := os.Getenv("COMPASS_EXPLAIN_URL"); v != "" {
		cfg.Explain.BaseURL = v
	}
	if v := os.Getenv("COMPASS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("COMPASS_WATCH"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.Data.Watch = parsed
		}
	}
}

// #endregion load

// #region validate

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr must not be empty")
	}
	if c.Data.StreamsPath == "" || c.Data.QuestionsPath == "" {
		return fmt.Errorf("data.streams_path and data.questions_path are required")
	}
	if c.Cache.DBPath == "" {
		return fmt.Errorf("cache.db_path must not be empty")
	}
	if c.Explain.Timeout <= 0 {
		return fmt.Errorf("explain.timeout must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// #endregion validate
