// Package config provides unified configuration loading for the extraction
// pipeline. Supports a YAML file, a .env file and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the extraction pipeline.
type Config struct {
	InputDir      string              `yaml:"input_dir"`
	OutputDir     string              `yaml:"output_dir"`
	API           APIConfig           `yaml:"api"`
	Retry         RetryConfig         `yaml:"retry"`
	Batch         BatchConfig         `yaml:"batch"`
	Ledger        LedgerConfig        `yaml:"ledger"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// APIConfig holds chat completions API settings. The key is only ever read
// from the environment, never from the file.
type APIConfig struct {
	APIKey    string        `yaml:"-"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// RetryConfig holds the retry policy for model requests. Zero retries means
// every image gets exactly one attempt.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// BatchConfig holds batch orchestration settings.
type BatchConfig struct {
	Workers    int  `yaml:"workers"`
	IncludePDF bool `yaml:"include_pdf"`
}

// LedgerConfig holds run ledger settings.
type LedgerConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// ServerConfig holds report server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from an optional YAML file and applies
// environment overrides. A .env file in the working directory is loaded
// first, best effort, so the API key can live there.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with the defaults the pipeline
// shipped with: read from ./images, write to ./extracted_text.
func DefaultConfig() *Config {
	return &Config{
		InputDir:  "images",
		OutputDir: "extracted_text",
		API: APIConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-4o",
			MaxTokens: 4096,
			Timeout:   2 * time.Minute,
		},
		Retry: RetryConfig{
			MaxRetries:     0,
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     30 * time.Second,
		},
		Batch: BatchConfig{
			Workers:    1,
			IncludePDF: true,
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Driver:  "sqlite",
		},
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input_dir must not be empty")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}

	if c.API.MaxTokens < 1 {
		return fmt.Errorf("api max_tokens must be positive, got %d", c.API.MaxTokens)
	}

	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry max_retries must not be negative, got %d", c.Retry.MaxRetries)
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch workers must be at least 1, got %d", c.Batch.Workers)
	}

	if c.Ledger.Driver != "sqlite" && c.Ledger.Driver != "postgres" {
		return fmt.Errorf("invalid ledger driver: %s", c.Ledger.Driver)
	}

	if c.Ledger.Enabled && c.Ledger.Driver == "postgres" && c.Ledger.Postgres.DSN == "" {
		return fmt.Errorf("ledger postgres driver requires a dsn")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

// LedgerDSN returns the connection string for the configured ledger driver.
// The SQLite file defaults to runs.db inside the output directory.
func (c *Config) LedgerDSN() string {
	if c.Ledger.Driver == "postgres" {
		return c.Ledger.Postgres.DSN
	}
	if c.Ledger.SQLite.Path != "" {
		return c.Ledger.SQLite.Path
	}
	return filepath.Join(c.OutputDir, "runs.db")
}

// ServerAddr returns the host:port the report server binds to.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}

	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}

	if v := os.Getenv("EXTRACT_MODEL"); v != "" {
		cfg.API.Model = v
	}

	if v := os.Getenv("EXTRACT_INPUT_DIR"); v != "" {
		cfg.InputDir = v
	}

	if v := os.Getenv("EXTRACT_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}

	if v := os.Getenv("EXTRACT_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Workers = workers
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Ledger.Driver = "sqlite"
			cfg.Ledger.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Ledger.Driver = "postgres"
			cfg.Ledger.Postgres.DSN = v
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
