package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ExportAll writes each table to dir as a BOM-prefixed CSV, in parallel.
// It returns the written paths sorted by name. The first failure cancels
// the writes that have not started yet.
func ExportAll(ctx context.Context, dir string, tables []Table, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	w := NewCSVWriter(dir, logger)

	var (
		mu    sync.Mutex
		paths = make([]string, 0, len(tables))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, t := range tables {
		t := t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := w.WriteTable(t)
			if err != nil {
				return err
			}
			mu.Lock()
			paths = append(paths, path)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "Export failed",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("export to %s: %w", dir, err)
	}

	sort.Strings(paths)
	logger.InfoContext(ctx, "Export complete",
		slog.String("dir", dir),
		slog.Int("files", len(paths)),
		slog.Duration("duration", time.Since(start)))
	return paths, nil
}
