package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Remote   RemoteConfig
	Logger   LoggerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// DSN builds a libpq style connection string for pgxpool.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.MaxConns,
	)
}

// RemoteConfig configures the GPU job API client.
type RemoteConfig struct {
	BaseURL     string
	APIKey      string
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	SyncTimeout time.Duration
	RateLimit   float64 // requests per second, 0 disables pacing
	RateBurst   int
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_NAME", "marketplace")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_CONNS", 10)
	v.SetDefault("REMOTE_BASE_URL", "https://api.runpod.ai/v2")
	v.SetDefault("REMOTE_API_KEY", "")
	v.SetDefault("REMOTE_MAX_RETRIES", 3)
	v.SetDefault("REMOTE_RETRY_DELAY", "1s")
	v.SetDefault("REMOTE_TIMEOUT", "30s")
	v.SetDefault("REMOTE_SYNC_TIMEOUT", "90s")
	v.SetDefault("REMOTE_RATE_LIMIT", 0)
	v.SetDefault("REMOTE_RATE_BURST", 1)
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DATABASE_HOST"),
			Port:     v.GetInt("DATABASE_PORT"),
			User:     v.GetString("DATABASE_USER"),
			Password: v.GetString("DATABASE_PASSWORD"),
			Name:     v.GetString("DATABASE_NAME"),
			SSLMode:  v.GetString("DATABASE_SSLMODE"),
			MaxConns: v.GetInt32("DATABASE_MAX_CONNS"),
		},
		Remote: RemoteConfig{
			BaseURL:     v.GetString("REMOTE_BASE_URL"),
			APIKey:      v.GetString("REMOTE_API_KEY"),
			MaxRetries:  v.GetInt("REMOTE_MAX_RETRIES"),
			RetryDelay:  durationOr(v, "REMOTE_RETRY_DELAY", time.Second),
			Timeout:     durationOr(v, "REMOTE_TIMEOUT", 30*time.Second),
			SyncTimeout: durationOr(v, "REMOTE_SYNC_TIMEOUT", 90*time.Second),
			RateLimit:   v.GetFloat64("REMOTE_RATE_LIMIT"),
			RateBurst:   v.GetInt("REMOTE_RATE_BURST"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	if c.Remote.BaseURL == "" {
		return errors.New("REMOTE_BASE_URL is required")
	}
	if c.Remote.APIKey == "" {
		return errors.New("REMOTE_API_KEY is required")
	}
	if c.Remote.MaxRetries < 0 {
		return fmt.Errorf("REMOTE_MAX_RETRIES must not be negative, got %d", c.Remote.MaxRetries)
	}
	if c.Remote.RateLimit < 0 {
		return fmt.Errorf("REMOTE_RATE_LIMIT must not be negative, got %v", c.Remote.RateLimit)
	}
	return nil
}

func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}
