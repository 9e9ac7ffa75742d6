package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultProviderURL is the quiz data provider used when nothing is configured.
const DefaultProviderURL = "http://localhost:5500/quiz"

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Provider struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"provider"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Quiz struct {
		// TTL caches the provider document; zero refetches on every load.
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	View struct {
		Countdown int    `yaml:"countdown"`
		Tick      string `yaml:"tick"`
		TimeLimit string `yaml:"time_limit"`
	} `yaml:"view"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Provider.URL = DefaultProviderURL
	cfg.Provider.Timeout = "10s"
	cfg.View.Countdown = 3
	cfg.View.Tick = "1s"
	cfg.View.TimeLimit = "60s"
	return cfg
}

// Load reads YAML config from path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if url := os.Getenv("QUIZ_URL"); url != "" {
		cfg.Provider.URL = url
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
