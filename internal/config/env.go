package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lgbarn/escort-chess-go/internal/errors"
)

// Environment variables read by ApplyEnv.
const (
	EnvWidth      = "ESCORT_WIDTH"
	EnvHeight     = "ESCORT_HEIGHT"
	EnvTileSize   = "ESCORT_TILE_SIZE"
	EnvLayout     = "ESCORT_LAYOUT"
	EnvSpeed      = "ESCORT_SPEED"
	EnvTick       = "ESCORT_TICK"
	EnvAddr       = "ESCORT_ADDR"
	EnvOrigins    = "ESCORT_ORIGINS"
	EnvStorageDir = "ESCORT_STORAGE_DIR"
	EnvLogLevel   = "ESCORT_LOG_LEVEL"
	EnvLogPretty  = "ESCORT_LOG_PRETTY"
)

// ApplyEnv overrides settings from the environment. Unset or empty
// variables leave the current value. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var err error
	setInt := func(key string, dst *int) {
		if v := getenv(key); v != "" && err == nil {
			n, perr := strconv.Atoi(strings.TrimSpace(v))
			if perr != nil {
				err = fmt.Errorf("%s=%q: %w", key, v, errors.ErrInvalidConfig)
				return
			}
			*dst = n
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := getenv(key); v != "" && err == nil {
			f, perr := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if perr != nil {
				err = fmt.Errorf("%s=%q: %w", key, v, errors.ErrInvalidConfig)
				return
			}
			*dst = f
		}
	}
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setInt(EnvWidth, &c.Board.Width)
	setInt(EnvHeight, &c.Board.Height)
	setFloat(EnvTileSize, &c.Board.TileSize)
	setString(EnvLayout, &c.Board.Layout)
	setFloat(EnvSpeed, &c.Motion.Speed)
	if v := getenv(EnvTick); v != "" && err == nil {
		d, perr := time.ParseDuration(strings.TrimSpace(v))
		if perr != nil {
			return fmt.Errorf("%s=%q: %w", EnvTick, v, errors.ErrInvalidConfig)
		}
		c.Motion.TickInterval = d
	}
	setString(EnvAddr, &c.Server.Addr)
	if v := getenv(EnvOrigins); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	setString(EnvStorageDir, &c.Storage.Dir)
	setString(EnvLogLevel, &c.Log.Level)
	if v := getenv(EnvLogPretty); v != "" {
		c.Log.Pretty = ParseBool(v, c.Log.Pretty)
	}
	return err
}

// ParseBool reads the usual spellings of a boolean, returning def for
// anything else.
func ParseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
