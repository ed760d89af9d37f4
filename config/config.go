package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Poll     PollConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Archive  ArchiveConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string // "*" allows all (CORS_ALLOWED_ORIGINS, comma-separated)
}

// PollConfig bounds what a teacher may create.
type PollConfig struct {
	DefaultTimer int
	MinTimer     int
	MaxTimer     int
	MinOptions   int
	MaxOptions   int
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	EventsChannel string
	HistoryKey    string
}

// Enabled reports whether Redis is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// DatabaseConfig holds PostgreSQL settings. An empty URL disables the archive table.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether Postgres is configured.
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// ArchiveConfig tunes the history archiver.
type ArchiveConfig struct {
	Buffer     int
	MaxRetries int
	BackoffSec int
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5001"),
			ReadTimeout:    getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:   getEnvInt("WRITE_TIMEOUT_SEC", 30),
			AllowedOrigins: splitTrim(getEnv("CORS_ALLOWED_ORIGINS", "*"), ","),
		},
		Poll: PollConfig{
			DefaultTimer: getEnvInt("POLL_DEFAULT_TIMER_SEC", 60),
			MinTimer:     getEnvInt("POLL_MIN_TIMER_SEC", 10),
			MaxTimer:     getEnvInt("POLL_MAX_TIMER_SEC", 300),
			MinOptions:   getEnvInt("POLL_MIN_OPTIONS", 2),
			MaxOptions:   getEnvInt("POLL_MAX_OPTIONS", 6),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", ""),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvInt("REDIS_DB", 0),
			EventsChannel: getEnv("REDIS_EVENTS_CHANNEL", "livepoll:events"),
			HistoryKey:    getEnv("REDIS_HISTORY_KEY", "livepoll:history"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Archive: ArchiveConfig{
			Buffer:     getEnvInt("ARCHIVE_BUFFER", 64),
			MaxRetries: getEnvInt("ARCHIVE_MAX_RETRIES", 3),
			BackoffSec: getEnvInt("ARCHIVE_BACKOFF_SEC", 2),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	p := c.Poll
	if p.MinTimer <= 0 || p.MinTimer > p.MaxTimer {
		return fmt.Errorf("invalid poll timer bounds [%d,%d]", p.MinTimer, p.MaxTimer)
	}
	if p.DefaultTimer < p.MinTimer || p.DefaultTimer > p.MaxTimer {
		return fmt.Errorf("default poll timer %d outside [%d,%d]", p.DefaultTimer, p.MinTimer, p.MaxTimer)
	}
	if p.MinOptions < 2 || p.MinOptions > p.MaxOptions {
		return fmt.Errorf("invalid poll option bounds [%d,%d]", p.MinOptions, p.MaxOptions)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
