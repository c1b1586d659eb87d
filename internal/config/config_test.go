package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	// Move the default file somewhere empty without marking the flag as set.
	require.NoError(t, fs.Lookup("config").Value.Set(filepath.Join(t.TempDir(), "cuecard.yaml")))
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cuecard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 5, cfg.ChunkSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Duration(0), cfg.SyncInterval)
	assert.True(t, strings.HasSuffix(cfg.DB, "cuecard.db"))
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, "addr: \":9000\"\nchunk-size: 7\nlog-level: debug\nsync-interval: 10m\n")

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := Load(newFlags(t, "--config", path))
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Addr)
		assert.Equal(t, 7, cfg.ChunkSize)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 10*time.Minute, cfg.SyncInterval)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("CUECARD_CHUNK_SIZE", "10")
		t.Setenv("CUECARD_SYNC_INTERVAL", "1h")
		cfg, err := Load(newFlags(t, "--config", path))
		require.NoError(t, err)
		assert.Equal(t, 10, cfg.ChunkSize)
		assert.Equal(t, time.Hour, cfg.SyncInterval)
		assert.Equal(t, ":9000", cfg.Addr)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("CUECARD_CHUNK_SIZE", "10")
		cfg, err := Load(newFlags(t, "--config", path, "--chunk-size", "3"))
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.ChunkSize)
	})
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero chunk size", []string{"--chunk-size", "0"}},
		{"unknown log level", []string{"--log-level", "loud"}},
		{"negative interval", []string{"--sync-interval", "-1m"}},
		{"empty db", []string{"--db", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlags(t, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn"}
	logger := cfg.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "key=value")
}
