// escort-server serves escort chess sessions over HTTP and websockets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/lgbarn/escort-chess-go/internal/config"
	"github.com/lgbarn/escort-chess-go/internal/server"
	"github.com/lgbarn/escort-chess-go/internal/storage"
)

const programVersion = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "escort-server v%s - escort chess session server\n\n", programVersion)
	fmt.Fprintf(os.Stderr, "Usage: escort-server [options]\n\n")
	fmt.Fprintf(os.Stderr, "Settings are read from ESCORT_* environment variables first,\n")
	fmt.Fprintf(os.Stderr, "then overridden by any flags given.\n\n")
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
		fmt.Printf("escort-server v%s\n", programVersion)
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := cfg.Log.Logger(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// loadConfig layers defaults, environment and flags.
func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config, log zerolog.Logger) error {
	var store server.SnapshotStore
	if cfg.Storage.Enabled() {
		db, err := storage.Open(cfg.Storage.Dir)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("close storage")
			}
		}()
		store = db
		log.Info().Str("dir", cfg.Storage.Dir).Msg("snapshots enabled")
	}

	srv := server.New(cfg, store, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.Run(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(cfg.Server.Addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Close(shutdownCtx); err != nil {
		return err
	}
	select {
	case err := <-errCh:
		return err
	case <-shutdownCtx.Done():
		return shutdownCtx.Err()
	}
}
