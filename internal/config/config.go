package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Env      string `mapstructure:"BLOG_ENV"`
	LogLevel string `mapstructure:"BLOG_LOG_LEVEL"`
	HTTPAddr string `mapstructure:"BLOG_HTTP_ADDR"`

	Database DBConfig       `mapstructure:",squash"`
	Server   ServerConfig   `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`
}

type DBConfig struct {
	Type         string `mapstructure:"BLOG_DB_TYPE"` // "memory", "sqlite", "postgres"
	DSN          string `mapstructure:"BLOG_DB_DSN"`
	MaxOpenConns int    `mapstructure:"BLOG_DB_MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"BLOG_DB_MAX_IDLE_CONNS"`
	Seed         bool   `mapstructure:"BLOG_DB_SEED"`
}

type ServerConfig struct {
	RequestTimeout  time.Duration `mapstructure:"BLOG_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"BLOG_SHUTDOWN_TIMEOUT"`
}

type SecurityConfig struct {
	RateLimitRPM       int      `mapstructure:"BLOG_RATE_LIMIT_RPM"`
	CORSAllowedOrigins []string `mapstructure:"BLOG_CORS_ALLOWED_ORIGINS"`
}

func loadDotEnvFiles() {
	candidates := []string{
		".env",
		filepath.Join("..", ".env"),
	}

	seen := make(map[string]struct{})
	for _, path := range candidates {
		abs := path
		if !filepath.IsAbs(path) {
			if resolved, err := filepath.Abs(path); err == nil {
				abs = resolved
			}
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}

		if _, err := os.Stat(path); err == nil {
			_ = gotenv.Load(path) // ignore errors; env vars already set take precedence
		}
	}
}

func Load() (*Config, error) {
	loadDotEnvFiles()

	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()

	// DATABASE_URL is honoured as a fallback for the DSN
	if err := v.BindEnv("BLOG_DB_DSN", "BLOG_DB_DSN", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	// Set defaults
	v.SetDefault("BLOG_ENV", "dev")
	v.SetDefault("BLOG_LOG_LEVEL", "")
	v.SetDefault("BLOG_HTTP_ADDR", ":8000")
	v.SetDefault("BLOG_DB_TYPE", "sqlite")
	v.SetDefault("BLOG_DB_DSN", "blog.db")
	v.SetDefault("BLOG_DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("BLOG_DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("BLOG_DB_SEED", false)
	v.SetDefault("BLOG_REQUEST_TIMEOUT", "15s")
	v.SetDefault("BLOG_SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("BLOG_RATE_LIMIT_RPM", 600)
	v.SetDefault("BLOG_CORS_ALLOWED_ORIGINS", "*")

	// Handle array parsing for comma-separated values
	if origins := v.GetString("BLOG_CORS_ALLOWED_ORIGINS"); origins != "" {
		v.Set("BLOG_CORS_ALLOWED_ORIGINS", splitList(origins))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Database.Type = strings.ToLower(strings.TrimSpace(cfg.Database.Type))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) validate() error {
	switch c.Database.Type {
	case "memory":
	case "sqlite", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("BLOG_DB_DSN is required for BLOG_DB_TYPE=%s", c.Database.Type)
		}
	default:
		return fmt.Errorf("invalid BLOG_DB_TYPE %q (must be memory, sqlite, or postgres)", c.Database.Type)
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database connection limits must not be negative")
	}
	if c.Security.RateLimitRPM < 0 {
		return fmt.Errorf("BLOG_RATE_LIMIT_RPM must not be negative")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("BLOG_REQUEST_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("BLOG_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
