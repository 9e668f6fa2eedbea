// Package config loads server configuration.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${VAR} references expanded
//  2. Environment variables (fallback)
//
// A .env file in the working directory is loaded into the environment
// first, so both sources can refer to it.
//
// Example usage:
//
//	config.LoadDotEnv()
//	cfg := config.LoadOrEnv("config.yaml")
//	dbPath := cfg.Storage.DatabasePath
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the entire server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Auth       AuthConfig       `yaml:"auth"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Session    SessionConfig    `yaml:"session"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`

	// AllowedOrigins restricts CORS; empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// AuthConfig holds token settings.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenDuration time.Duration `yaml:"token_duration"`
}

// RecognizerConfig points at the receipt analysis service.
type RecognizerConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxDimension int           `yaml:"max_dimension"`
}

// SessionConfig controls in-memory split sessions.
type SessionConfig struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" (colored) or "json"
}

// Default returns the configuration used for anything a source leaves unset.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{DatabasePath: "./data/splitty.db"},
		Auth:    AuthConfig{TokenDuration: 24 * time.Hour},
		Recognizer: RecognizerConfig{
			BaseURL:      "http://localhost:5000",
			Timeout:      60 * time.Second,
			MaxDimension: 2048,
		},
		Session: SessionConfig{
			IdleTimeout:   2 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads and parses the config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${JWT_SECRET})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	def := Default()
	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("PORT", def.Server.Port),
			AllowedOrigins: getEnvList("ALLOWED_ORIGINS"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("DB_PATH", def.Storage.DatabasePath),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			TokenDuration: getEnvDuration("TOKEN_DURATION", def.Auth.TokenDuration),
		},
		Recognizer: RecognizerConfig{
			BaseURL:      getEnv("RECOGNIZER_URL", def.Recognizer.BaseURL),
			Timeout:      getEnvDuration("RECOGNIZER_TIMEOUT", def.Recognizer.Timeout),
			MaxDimension: getEnvInt("RECOGNIZER_MAX_DIMENSION", def.Recognizer.MaxDimension),
		},
		Session: SessionConfig{
			IdleTimeout:   getEnvDuration("SESSION_IDLE_TIMEOUT", def.Session.IdleTimeout),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", def.Session.SweepInterval),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", def.Logging.Level),
			Format: getEnv("LOG_FORMAT", def.Logging.Format),
		},
	}
}

// LoadOrEnv tries to load from path, falls back to environment variables.
func LoadOrEnv(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// LoadDotEnv loads .env files into the environment. Missing files are
// ignored and variables already set are not overridden.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Server.Port))
	}
	if c.Storage.DatabasePath == "" {
		errs = append(errs, errors.New("storage.database_path is required"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Auth.TokenDuration <= 0 {
		errs = append(errs, errors.New("auth.token_duration must be positive"))
	}
	if c.Recognizer.BaseURL == "" {
		errs = append(errs, errors.New("recognizer.base_url is required"))
	}
	if c.Recognizer.MaxDimension < 0 {
		errs = append(errs, errors.New("recognizer.max_dimension cannot be negative"))
	}
	if c.Session.IdleTimeout > 0 && c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session.sweep_interval must be positive when idle_timeout is set"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be text or json", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
