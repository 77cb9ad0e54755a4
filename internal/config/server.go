package config

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/lgbarn/escort-chess-go/internal/errors"
)

// ServerConfig holds settings for the HTTP transport.
type ServerConfig struct {
	// Addr is the listen address
	Addr string

	// AllowedOrigins lists the CORS origins; "*" allows any
	AllowedOrigins []string
}

// NewServerConfig creates a ServerConfig with default values.
func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:           ":8080",
		AllowedOrigins: []string{"*"},
	}
}

// Validate checks that the server configuration is valid.
func (s *ServerConfig) Validate() error {
	if s.Addr == "" {
		return fmt.Errorf("empty listen address: %w", errors.ErrInvalidConfig)
	}
	return nil
}

// StorageConfig holds snapshot persistence settings.
type StorageConfig struct {
	// Dir is the badger directory; empty disables persistence
	Dir string
}

// NewStorageConfig creates a StorageConfig with default values.
// Persistence is disabled by default.
func NewStorageConfig() *StorageConfig {
	return &StorageConfig{}
}

// Enabled reports whether snapshots are persisted.
func (s *StorageConfig) Enabled() bool {
	return s.Dir != ""
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is a zerolog level name (trace, debug, info, warn, error)
	Level string

	// Pretty enables human-readable console output
	Pretty bool
}

// NewLogConfig creates a LogConfig with default values.
func NewLogConfig() *LogConfig {
	return &LogConfig{Level: "info"}
}

// Validate checks that the level parses.
func (l *LogConfig) Validate() error {
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("log level %q: %w", l.Level, errors.ErrInvalidConfig)
	}
	return nil
}

// Logger builds a logger writing to w.
func (l *LogConfig) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", l.Level, errors.ErrInvalidConfig)
	}
	if l.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
