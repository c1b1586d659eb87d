// Package config loads cuecard settings from flags, a YAML file and the
// environment.
//
// Precedence, lowest first: flag defaults, the YAML file, CUECARD_*
// environment variables, flags set on the command line. Keys match the flag
// names, so chunk-size can be set with --chunk-size, CUECARD_CHUNK_SIZE or
// "chunk-size:" in the file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	envPrefix         = "CUECARD_"
	defaultConfigFile = "cuecard.yaml"
)

// Config holds the runtime settings.
type Config struct {
	DB           string        `koanf:"db" validate:"required"`
	Addr         string        `koanf:"addr" validate:"required"`
	ChunkSize    int           `koanf:"chunk-size" validate:"gte=1"`
	LogLevel     string        `koanf:"log-level" validate:"oneof=debug info warn error"`
	SyncInterval time.Duration `koanf:"sync-interval" validate:"gte=0"`
	ReposDir     string        `koanf:"repos-dir" validate:"required"`
}

// RegisterFlags adds every setting to fs with its default value.
func RegisterFlags(fs *pflag.FlagSet) {
	dataDir := defaultDataDir()
	fs.String("config", defaultConfigFile, "path to a YAML config file")
	fs.String("db", filepath.Join(dataDir, "cuecard.db"), "path to the SQLite database file")
	fs.String("addr", ":8080", "address the web server listens on")
	fs.Int("chunk-size", 5, "lines per chunk for new scripts")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.Duration("sync-interval", 0, "how often serve syncs sources, 0 to disable")
	fs.String("repos-dir", filepath.Join(dataDir, "repos"), "directory for git source checkouts")
}

// Load builds the configuration from the flags registered by RegisterFlags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, _ := fs.GetString("config")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// The default file is optional; one named explicitly is not.
		if !errors.Is(err, os.ErrNotExist) || fs.Changed("config") {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Unchanged flags only fill keys that are still unset.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey maps CUECARD_CHUNK_SIZE to chunk-size.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", "-")
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "cuecard")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "cuecard")
}
