// flags.go - Command-line flag definitions and configuration
package main

import (
	"flag"
	"strings"
	"time"

	"github.com/lgbarn/escort-chess-go/internal/config"
)

var (
	// Board
	boardWidth  = flag.Int("width", 0, "Board width for new sessions")
	boardHeight = flag.Int("height", 0, "Board height for new sessions")
	boardLayout = flag.String("layout", "", "Layout string for new sessions (overrides -width/-height)")

	// Motion
	speed        = flag.Float64("speed", 0, "Piece speed in tiles per second")
	tickInterval = flag.Duration("tick", 0, "Interval between motion ticks")

	// Server
	addr    = flag.String("addr", "", "Listen address")
	origins = flag.String("origins", "", "Comma-separated allowed origins (* for any)")

	// Storage
	storageDir = flag.String("data", "", "Snapshot directory (empty disables save/load)")

	// Logging
	logLevel  = flag.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	logPretty = flag.Bool("pretty", false, "Human-readable console logs")

	// Other options
	showVersion = flag.Bool("version", false, "Show version information")
	help        = flag.Bool("h", false, "Show help")
)

// applyFlags applies the flags given on the command line. Flags left at
// their defaults keep the value from the environment or config defaults.
func applyFlags(cfg *config.Config) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applySetFlags(cfg, set)
}

func applySetFlags(cfg *config.Config, set map[string]bool) {
	applyBoardFlags(cfg, set)

	if set["speed"] {
		cfg.Motion.Speed = *speed
	}
	if set["tick"] {
		cfg.Motion.TickInterval = *tickInterval
	}
	if set["addr"] {
		cfg.Server.Addr = *addr
	}
	if set["origins"] {
		cfg.Server.AllowedOrigins = splitOrigins(*origins)
	}
	if set["data"] {
		cfg.Storage.Dir = *storageDir
	}
	if set["log-level"] {
		cfg.Log.Level = *logLevel
	}
	if set["pretty"] {
		cfg.Log.Pretty = *logPretty
	}
}

// applyBoardFlags configures the default board for new sessions.
func applyBoardFlags(cfg *config.Config, set map[string]bool) {
	if set["width"] {
		cfg.Board.Width = *boardWidth
	}
	if set["height"] {
		cfg.Board.Height = *boardHeight
	}
	if set["layout"] {
		cfg.Board.Layout = *boardLayout
	}
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second
