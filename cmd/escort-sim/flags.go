// flags.go - Command-line flag definitions and configuration
package main

import (
	"flag"

	"github.com/lgbarn/escort-chess-go/internal/config"
)

var (
	// Run options
	numWorkers = flag.Int("workers", 0, "Number of parallel workers (0 = number of CPUs)")
	speed      = flag.Float64("speed", 0, "Piece speed in tiles per second (0 = default)")

	// Output format
	jsonOutput = flag.Bool("json", false, "Write results as one JSON document")
	jsonLines  = flag.Bool("json-each", false, "Write each result as its own JSON object")
	showBoards = flag.Bool("boards", false, "Print the final board after each result")
	useColor   = flag.Bool("color", false, "Colorize text output")
	outputFile = flag.String("o", "", "Output file (default: stdout)")

	// Logging
	logLevel  = flag.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	logPretty = flag.Bool("pretty", true, "Human-readable console logs")
	quiet     = flag.Bool("s", false, "Silent mode: only report failures on stderr")

	// Other options
	showVersion = flag.Bool("version", false, "Show version information")
	help        = flag.Bool("h", false, "Show help")
)

// applyFlags applies command-line flags to the configuration.
func applyFlags(cfg *config.Config) {
	if *speed > 0 {
		cfg.Motion.Speed = *speed
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	cfg.Log.Pretty = *logPretty
	if *quiet {
		cfg.Log.Level = "error"
	}
}
