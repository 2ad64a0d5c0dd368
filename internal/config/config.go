// Package config loads the application configuration from the environment,
// with a .env file honoured for local runs.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/voyago-poc/server/internal/adapters/llm"
	"github.com/voyago-poc/server/internal/adapters/serp"
	"github.com/voyago-poc/server/internal/adapters/weather"
	"github.com/voyago-poc/server/internal/storage"
	logx "github.com/voyago-poc/server/pkg/logger"
	pkgredis "github.com/voyago-poc/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the planner, sourced
// from environment variables.
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	Server struct {
		Addr string `envconfig:"SERVER_ADDR" default:":8080"`
	}

	// Infrastructure
	Redis    pkgredis.Config
	Database storage.Config

	// External services
	Serp    serp.Config
	Weather weather.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
	Draft   llm.DraftModelConfig
	Extract llm.ExtractModelConfig

	Checkpoint struct {
		TTL string `envconfig:"CHECKPOINT_TTL" default:"24h"`
	}
}

// Load reads .env when present and processes the environment into an
// AppConfig.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil {
		logx.Debug().Err(err).Msg("no .env file loaded")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, nil
}

// CheckpointTTL parses the configured checkpoint lifetime.
func (c *AppConfig) CheckpointTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.Checkpoint.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid CHECKPOINT_TTL %q: %w", c.Checkpoint.TTL, err)
	}
	return ttl, nil
}

// LLM assembles the generator configuration.
func (c *AppConfig) LLM() llm.Config {
	return llm.Config{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Draft:   c.Draft,
		Extract: c.Extract,
	}
}
