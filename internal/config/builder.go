package config

import (
	"io"
	"time"
)

// ConfigBuilder provides a fluent API for building Config instances.
type ConfigBuilder struct {
	cfg *Config
}

// NewConfigBuilder creates a new ConfigBuilder with default values.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: NewConfig(),
	}
}

// Build returns the built Config.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

// WithBoardSize sets the board dimensions. The default layout only fits
// 8x8, so a different size also clears the layout.
func (b *ConfigBuilder) WithBoardSize(width, height int) *ConfigBuilder {
	if width != b.cfg.Board.Width || height != b.cfg.Board.Height {
		b.cfg.Board.Layout = ""
	}
	b.cfg.Board.Width = width
	b.cfg.Board.Height = height
	return b
}

// WithLayout sets the initial placement.
func (b *ConfigBuilder) WithLayout(s string) *ConfigBuilder {
	b.cfg.Board.Layout = s
	return b
}

// WithTileSize sets the world size of one tile.
func (b *ConfigBuilder) WithTileSize(size float64) *ConfigBuilder {
	b.cfg.Board.TileSize = size
	return b
}

// WithSpeed sets the traversal speed in tiles per second.
func (b *ConfigBuilder) WithSpeed(tilesPerSecond float64) *ConfigBuilder {
	b.cfg.Motion.Speed = tilesPerSecond
	return b
}

// WithTickInterval sets how often the server advances motion.
func (b *ConfigBuilder) WithTickInterval(d time.Duration) *ConfigBuilder {
	b.cfg.Motion.TickInterval = d
	return b
}

// WithAddr sets the listen address.
func (b *ConfigBuilder) WithAddr(addr string) *ConfigBuilder {
	b.cfg.Server.Addr = addr
	return b
}

// WithAllowedOrigins sets the CORS origins.
func (b *ConfigBuilder) WithAllowedOrigins(origins ...string) *ConfigBuilder {
	b.cfg.Server.AllowedOrigins = origins
	return b
}

// WithStorageDir enables snapshot persistence in dir.
func (b *ConfigBuilder) WithStorageDir(dir string) *ConfigBuilder {
	b.cfg.Storage.Dir = dir
	return b
}

// WithLogLevel sets the log level.
func (b *ConfigBuilder) WithLogLevel(level string) *ConfigBuilder {
	b.cfg.Log.Level = level
	return b
}

// WithPrettyLogs enables console log output.
func (b *ConfigBuilder) WithPrettyLogs(enabled bool) *ConfigBuilder {
	b.cfg.Log.Pretty = enabled
	return b
}

// WithOutput sets the output writer.
func (b *ConfigBuilder) WithOutput(w io.Writer) *ConfigBuilder {
	b.cfg.OutputFile = w
	return b
}
