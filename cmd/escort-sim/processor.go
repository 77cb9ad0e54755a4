package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/lgbarn/escort-chess-go/internal/config"
	"github.com/lgbarn/escort-chess-go/internal/output"
	"github.com/lgbarn/escort-chess-go/internal/scenario"
	"github.com/lgbarn/escort-chess-go/internal/worker"
)

// collectPaths expands globs and directories into scenario files.
// Directories contribute their *.json files.
func collectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: no such file", arg)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				paths = append(paths, m)
				continue
			}
			inDir, err := filepath.Glob(filepath.Join(m, "*.json"))
			if err != nil {
				return nil, err
			}
			sort.Strings(inDir)
			paths = append(paths, inDir...)
		}
	}
	return paths, nil
}

// runPaths loads and runs every file. A file that fails to load is reported
// as a failed result in its place. Cancelling ctx stops the run; files not
// yet run are reported as failed.
func runPaths(ctx context.Context, paths []string, workers int, log zerolog.Logger, opts ...scenario.Option) []scenario.Result {
	results := make([]scenario.Result, len(paths))
	var loaded []*scenario.Scenario
	var slots []int

	for i, path := range paths {
		sc, err := scenario.LoadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping scenario")
			results[i] = scenario.Result{Name: path, Source: path, Error: err.Error()}
			continue
		}
		loaded = append(loaded, sc)
		slots = append(slots, i)
	}

	pool := worker.NewPool(workers, len(loaded), worker.RunScenario(opts...))
	log.Debug().Int("workers", pool.NumWorkers()).Int("scenarios", len(loaded)).Msg("running")

	for j, pr := range worker.RunAll(ctx, pool, loaded) {
		r := pr.Result
		if pr.Error != nil {
			r = scenario.Result{Name: loaded[j].Name, Source: loaded[j].Source, Error: pr.Error.Error()}
		}
		results[slots[j]] = r
	}
	return results
}

// newResultWriter picks the writer for the output flags.
func newResultWriter(w io.Writer) output.ResultWriter {
	switch {
	case *jsonLines:
		return output.NewJSONWriterSingle(w)
	case *jsonOutput:
		return output.NewJSONWriter(w)
	default:
		return output.NewTextWriter(w, *showBoards, *useColor)
	}
}

// writeResults writes every result, logs failures and returns the tally.
func writeResults(rw output.ResultWriter, results []scenario.Result, log zerolog.Logger) (output.Summary, error) {
	var sum output.Summary
	for _, r := range results {
		sum.Add(r)
		if !r.Passed {
			log.Error().Str("scenario", r.Name).Str("error", r.Error).Msg("scenario failed")
		}
		if err := rw.WriteResult(r); err != nil {
			return sum, err
		}
	}
	return sum, rw.Close()
}

// withOutputFile points cfg at the -o file for the duration of fn.
func withOutputFile(cfg *config.Config, fn func() error) error {
	if *outputFile == "" {
		return fn()
	}
	f, err := os.Create(*outputFile)
	if err != nil {
		return err
	}
	old := cfg.OutputFile
	cfg.SetOutput(f)
	defer cfg.SetOutput(old)

	if err := fn(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
