package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port" env:"PORT"`
		AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Pretty bool   `yaml:"pretty" env:"LOG_PRETTY"`
	} `yaml:"log"`

	PoolService struct {
		URL   string `yaml:"url" env:"POOL_SERVICE_URL"`
		Token string `yaml:"-" env:"POOL_SERVICE_TOKEN"`
	} `yaml:"pool_service"`

	StatsAPI struct {
		URL string `yaml:"url" env:"STATS_API_URL"`
	} `yaml:"stats_api"`

	GamesNight struct {
		Timezone     string        `yaml:"timezone" env:"POOL_TIMEZONE"`
		IdleInterval time.Duration `yaml:"idle_interval"`
		LiveInterval time.Duration `yaml:"live_interval"`
	} `yaml:"games_night"`

	NATS struct {
		URL           string `yaml:"url" env:"NATS_URL"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
		ConsumerName  string `yaml:"consumer_name"`
	} `yaml:"nats"`

	Outbox struct {
		FallbackInterval time.Duration `yaml:"fallback_interval"`
		MaxRetries       int           `yaml:"max_retries"`
		RetryDelay       time.Duration `yaml:"retry_delay"`
	} `yaml:"outbox"`
}

func defaultConfig() *Config {
	var c Config
	c.Server.Port = "8080"
	c.Server.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.PoolService.URL = "http://localhost:3000"
	c.StatsAPI.URL = "https://api-web.nhle.com"
	c.GamesNight.Timezone = "America/Montreal"
	c.GamesNight.IdleInterval = 10 * time.Minute
	c.GamesNight.LiveInterval = 30 * time.Second
	c.NATS.URL = "nats://127.0.0.1:4222"
	c.NATS.StreamName = "POOL_EVENTS"
	c.NATS.SubjectPrefix = "pool.events"
	c.NATS.ConsumerName = "pool-gateway"
	c.Outbox.FallbackInterval = 30 * time.Second
	c.Outbox.MaxRetries = 5
	c.Outbox.RetryDelay = 200 * time.Millisecond
	return &c
}

// loadConfig layers the YAML file and then the environment over the defaults.
// A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", path).Msg("config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return config, nil
}

func (c *Config) location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.GamesNight.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.GamesNight.Timezone, err)
	}
	return loc, nil
}
