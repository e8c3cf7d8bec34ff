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
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Quiz struct {
		SessionSize       int    `yaml:"session_size"`
		PointsPerQuestion int    `yaml:"points_per_question"`
		LockAnswers       *bool  `yaml:"lock_answers"`
		CacheTTL          string `yaml:"cache_ttl"`
	} `yaml:"quiz"`
	Scores struct {
		AtomicRatchet bool `yaml:"atomic_ratchet"`
	} `yaml:"scores"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
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

// TTLDuration parses a duration string or returns the fallback if empty or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// SessionSize returns the configured session size or the default of 10.
func (c Config) SessionSize() int {
	if c.Quiz.SessionSize > 0 {
		return c.Quiz.SessionSize
	}
	return 10
}

// PointsPerQuestion returns the configured per-question award or the default of 10.
func (c Config) PointsPerQuestion() int {
	if c.Quiz.PointsPerQuestion > 0 {
		return c.Quiz.PointsPerQuestion
	}
	return 10
}

// LockAnswers defaults to true: a question cannot be re-answered after the
// first submission. Set quiz.lock_answers to false to allow re-scoring.
func (c Config) LockAnswers() bool {
	if c.Quiz.LockAnswers == nil {
		return true
	}
	return *c.Quiz.LockAnswers
}
