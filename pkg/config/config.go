// Package config resolves the dashboard's runtime settings from the
// environment, optionally seeded from a .env file.
package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration of the dashboard.
type Config struct {
	// BaseURL is the backend base URL, e.g. http://localhost:8000.
	BaseURL string
	// LogFile receives slog output; the terminal itself is owned by the TUI.
	LogFile string
	// LogLevel is the slog level for LogFile.
	LogLevel slog.Level
}

const (
	defaultBaseURL = "http://localhost:8000"
	defaultLogFile = "dashboard.log"
)

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() Config {
	// Best effort; a missing .env file is fine.
	_ = godotenv.Load()

	cfg := Config{
		BaseURL:  defaultBaseURL,
		LogFile:  defaultLogFile,
		LogLevel: slog.LevelInfo,
	}

	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		switch strings.ToUpper(v) {
		case "DEBUG":
			cfg.LogLevel = slog.LevelDebug
		case "INFO":
			cfg.LogLevel = slog.LevelInfo
		case "WARN":
			cfg.LogLevel = slog.LevelWarn
		case "ERROR":
			cfg.LogLevel = slog.LevelError
		}
	}

	return cfg
}
