// escort-sim runs scripted escort chess scenarios and reports whether each
// ends in its expected placement.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/lgbarn/escort-chess-go/internal/config"
	"github.com/lgbarn/escort-chess-go/internal/output"
	"github.com/lgbarn/escort-chess-go/internal/scenario"
)

const programVersion = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "escort-sim v%s - escort chess scenario runner\n\n", programVersion)
	fmt.Fprintf(os.Stderr, "Usage: escort-sim [options] file|dir|glob ...\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}
	if *showVersion {
		fmt.Printf("escort-sim v%s\n", programVersion)
		os.Exit(0)
	}
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg := config.NewConfig()
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := cfg.Log.Logger(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	paths, err := collectPaths(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	workers := *numWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results := runPaths(ctx, paths, workers, log,
		scenario.WithSpeed(cfg.Motion.Speed),
		scenario.WithLogger(log),
	)

	var sum output.Summary
	err = withOutputFile(cfg, func() error {
		var werr error
		sum, werr = writeResults(newResultWriter(cfg.OutputFile), results, log)
		return werr
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log.Info().
		Int("total", sum.Total).
		Int("passed", sum.Passed).
		Int("failed", sum.Failed).
		Dur("took", time.Since(start)).
		Msg("done")

	if sum.Failed > 0 {
		os.Exit(1)
	}
}
