package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Auth struct {
		// Secret is used directly when set; SecretFile is read (and
		// cached per SecretCacheTTL) otherwise.
		Secret         string `yaml:"secret"`
		SecretFile     string `yaml:"secret_file"`
		SecretCacheTTL string `yaml:"secret_cache_ttl"`
		TokenTTL       string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Leaderboard struct {
		Limit int `yaml:"limit"`
	} `yaml:"leaderboard"`
	Delete struct {
		PageSize   int    `yaml:"page_size"`
		BatchSize  int    `yaml:"batch_size"`
		MaxRetries int    `yaml:"max_retries"`
		Backoff    string `yaml:"backoff"`
	} `yaml:"delete"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
