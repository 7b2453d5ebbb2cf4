package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names recognized by FromEnv.
const (
	EnvLogLevel     = "PROCUREMESH_LOG_LEVEL"
	EnvDebug        = "PROCUREMESH_DEBUG"
	EnvSessionTTL   = "PROCUREMESH_SESSION_TTL"
	EnvMaxSessions  = "PROCUREMESH_MAX_SESSIONS"
	EnvHistoryLimit = "PROCUREMESH_HISTORY_LIMIT"
)

// Settings holds the tunables of a running mesh.
type Settings struct {
	// LogLevel selects the slog level: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Debug enables verbose message tracing on the bus observers.
	Debug bool `yaml:"debug"`

	// SessionTTL is how long an idle workflow session is retained
	// before cleanup reclaims it.
	SessionTTL time.Duration `yaml:"session_ttl"`

	// MaxSessions caps concurrently tracked workflow sessions.
	MaxSessions int `yaml:"max_sessions"`

	// HistoryLimit bounds the bus's global message history. Zero keeps
	// the history unbounded.
	HistoryLimit int `yaml:"history_limit"`
}

// Default returns the compiled-in settings.
func Default() Settings {
	return Settings{
		LogLevel:     "info",
		Debug:        false,
		SessionTTL:   time.Hour,
		MaxSessions:  100,
		HistoryLimit: 0,
	}
}

// Load reads settings from the YAML file at path, layered over
// Default and under environment overrides. An empty path skips the
// file layer. A .env file in the working directory, when present, is
// loaded into the environment first.
func Load(path string) (Settings, error) {
	_ = godotenv.Load()

	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := s.FromEnv(); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// FromEnv applies PROCUREMESH_* environment overrides in place.
func (s *Settings) FromEnv() error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		s.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvDebug); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvDebug, err)
		}
		s.Debug = b
	}
	if v, ok := os.LookupEnv(EnvSessionTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvSessionTTL, err)
		}
		s.SessionTTL = d
	}
	if v, ok := os.LookupEnv(EnvMaxSessions); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvMaxSessions, err)
		}
		s.MaxSessions = n
	}
	if v, ok := os.LookupEnv(EnvHistoryLimit); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvHistoryLimit, err)
		}
		s.HistoryLimit = n
	}
	return nil
}

// Validate reports the first nonsensical setting.
func (s Settings) Validate() error {
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", s.LogLevel)
	}
	if s.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive, got %s", s.SessionTTL)
	}
	if s.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive, got %d", s.MaxSessions)
	}
	if s.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative, got %d", s.HistoryLimit)
	}
	return nil
}
