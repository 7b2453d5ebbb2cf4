package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := Default()
	assert.Equal(t, "info", s.LogLevel)
	assert.False(t, s.Debug)
	assert.Equal(t, time.Hour, s.SessionTTL)
	assert.Equal(t, 100, s.MaxSessions)
	assert.Equal(t, 0, s.HistoryLimit)
	assert.NoError(t, s.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"log_level: debug\ndebug: true\nsession_ttl: 30m\nmax_sessions: 5\nhistory_limit: 250\n",
	), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.True(t, s.Debug)
	assert.Equal(t, 30*time.Minute, s.SessionTTL)
	assert.Equal(t, 5, s.MaxSessions)
	assert.Equal(t, 250, s.HistoryLimit)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\nmax_sessions: 5\n"), 0o600))

	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvSessionTTL, "15m")
	t.Setenv(EnvMaxSessions, "7")
	t.Setenv(EnvDebug, "true")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", s.LogLevel)
	assert.Equal(t, 15*time.Minute, s.SessionTTL)
	assert.Equal(t, 7, s.MaxSessions)
	assert.True(t, s.Debug)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv(EnvSessionTTL, "soon")
	s := Default()
	assert.Error(t, s.FromEnv())
}

func TestValidateRejectsBadSettings(t *testing.T) {
	for name, mutate := range map[string]func(*Settings){
		"unknown log level":     func(s *Settings) { s.LogLevel = "loud" },
		"non-positive ttl":      func(s *Settings) { s.SessionTTL = 0 },
		"non-positive sessions": func(s *Settings) { s.MaxSessions = -1 },
		"negative history":      func(s *Settings) { s.HistoryLimit = -1 },
	} {
		t.Run(name, func(t *testing.T) {
			s := Default()
			mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}
