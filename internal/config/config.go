package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Events   EventsConfig   `yaml:"events"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the local facade listener configuration.
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST"`
	Port int    `yaml:"port" env:"SERVER_PORT"`
}

// SupabaseConfig holds the backend connection configuration. URL and AnonKey
// are required; the gateway cannot start without them.
type SupabaseConfig struct {
	URL     string `yaml:"url" env:"SUPABASE_URL"`
	AnonKey string `yaml:"anon_key" env:"SUPABASE_ANON_KEY"`
	Bucket  string `yaml:"bucket" env:"SUPABASE_BUCKET"`
}

// EventsConfig bounds the nearby-events search radius. Callers that pass no
// radius get DefaultRadiusKm; anything above MaxRadiusKm is clamped.
type EventsConfig struct {
	DefaultRadiusKm float64 `yaml:"default_radius_km" env:"EVENTS_DEFAULT_RADIUS_KM"`
	MaxRadiusKm     float64 `yaml:"max_radius_km" env:"EVENTS_MAX_RADIUS_KM"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// Load reads configuration from a YAML file, applies environment-variable
// overrides, and validates required fields.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8484
	}
	if c.Supabase.Bucket == "" {
		c.Supabase.Bucket = "event-photos"
	}
	if c.Events.DefaultRadiusKm <= 0 {
		c.Events.DefaultRadiusKm = 25
	}
	if c.Events.MaxRadiusKm <= 0 {
		c.Events.MaxRadiusKm = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Supabase.URL == "" {
		return errors.New("supabase.url is required")
	}
	if c.Supabase.AnonKey == "" {
		return errors.New("supabase.anon_key is required")
	}
	return nil
}
