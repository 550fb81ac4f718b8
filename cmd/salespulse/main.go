package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"salespulse/internal/app"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run parses flags, builds the application and serves until interrupted.
func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("salespulse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataset := fs.String("data", "", `dataset to load before serving: a path under the data directory, an absolute path, or "latest"`)
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stderr, "salespulse %s (%s)\n", app.Version, app.BuildID)
		return nil
	}

	application, err := app.NewApplication()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := application.Preload(ctx, *dataset); err != nil {
		return err
	}

	return application.Run(ctx)
}
