// Package config loads host settings from the environment (and an optional
// .env file) and builds the process logger.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds host settings. The quest core itself reads no environment.
type Config struct {
	LogLevel         string `env:"QUESTTRIGGER_LOG_LEVEL"         envDefault:"warn"`
	LogFormat        string `env:"QUESTTRIGGER_LOG_FORMAT"        envDefault:"text"`
	RegistryCapacity int    `env:"QUESTTRIGGER_REGISTRY_CAPACITY" envDefault:"10"`
	MaxReveal        int    `env:"QUESTTRIGGER_MAX_REVEAL"        envDefault:"120"`
	BoxWidth         int    `env:"QUESTTRIGGER_BOX_WIDTH"         envDefault:"60"`
	FrameRate        int    `env:"QUESTTRIGGER_FRAME_RATE"        envDefault:"30"`
}

// Load reads dotenv (if present; existing variables win) and parses the
// environment into a Config.
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", dotenv, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RegistryCapacity <= 0 {
		return Config{}, fmt.Errorf("QUESTTRIGGER_REGISTRY_CAPACITY must be positive, got %d", cfg.RegistryCapacity)
	}
	if cfg.FrameRate <= 0 {
		return Config{}, fmt.Errorf("QUESTTRIGGER_FRAME_RATE must be positive, got %d", cfg.FrameRate)
	}
	return cfg, nil
}

// NewLogger builds a slog logger writing to w: JSON when LogFormat is
// "json", text otherwise.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
