package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/exporter"
	"salespulse/internal/files"
	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// CombinedFileName is the merged output written next to the per-file CSVs.
const CombinedFileName = "combined_orders.csv"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// inputFile pairs a source table with its canonical CSV.
type inputFile struct {
	files.FileInfo
	Output string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = config.Default()
	}

	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inDir := fs.String("in", filepath.Join(cfg.Server.DataDir, "incoming"), "input directory of .csv/.xlsx order tables")
	outDir := fs.String("out", cfg.Server.DataDir, "output directory for canonical CSV files")
	fullRework := fs.Bool("full", false, "force full rework of all files")
	combined := fs.Bool("combined", true, "also write "+CombinedFileName)
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := infrastructure.NewLoggerWithWriter(stderr, cfg.Logging)

	absIn, _ := filepath.Abs(*inDir)
	absOut, _ := filepath.Abs(*outDir)
	if absIn == absOut {
		return fmt.Errorf("output directory must differ from input directory %s", *inDir)
	}

	logger.InfoContext(ctx, "Starting order table processing",
		slog.String("input_dir", *inDir),
		slog.String("output_dir", *outDir),
		slog.Bool("full_rework", *fullRework))

	inputs, err := files.NewCatalog(*inDir, logger).List()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Found %d input files\n", len(inputs))

	outputs := files.NewCatalog(*outDir, logger)
	if err := outputs.EnsureDir(); err != nil {
		return err
	}

	toProcess, existing := determineFilesToProcess(inputs, *outDir, *fullRework)
	logger.InfoContext(ctx, "Update status",
		slog.Int("files_to_process", len(toProcess)),
		slog.Int("up_to_date", len(existing)))

	loader := dataprocessing.NewLoader(cfg.Analysis.TotalTolerance, logger)
	writer := exporter.NewCSVWriter(*outDir, logger)

	var datasets []*dataprocessing.Dataset
	failed := 0
	for i, in := range toProcess {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Processing file %d of %d: %s\n", i+1, len(toProcess), in.Name)

		ds, err := loader.Load(ctx, in.Path)
		if err != nil {
			failed++
			logger.ErrorContext(ctx, "Error parsing file",
				slog.String("filename", in.Name),
				slog.String("error", err.Error()))
			continue
		}
		rows, err := writeCanonical(writer, in.Output, ds)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Canonical file written",
			slog.String("input", in.Name),
			slog.String("output", in.Output),
			slog.Int("rows", rows))
		datasets = append(datasets, ds)
	}

	for _, in := range existing {
		ds, err := loader.Load(ctx, filepath.Join(*outDir, in.Output))
		if err != nil {
			logger.WarnContext(ctx, "Skipping unreadable canonical file",
				slog.String("output", in.Output),
				slog.String("error", err.Error()))
			continue
		}
		datasets = append(datasets, ds)
	}

	if *combined && len(datasets) > 0 {
		rows, err := writeCombined(writer, datasets)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Saved combined table",
			slog.String("path", filepath.Join(*outDir, CombinedFileName)),
			slog.Int("rows", rows))
	}

	fmt.Fprintf(stdout, "Processing complete: %d processed, %d up to date, %d failed\n",
		len(toProcess)-failed, len(existing), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to parse", failed, len(toProcess))
	}
	return nil
}

// canonicalName maps an input file onto its output name. Non-CSV sources
// keep their extension in the stem so a.csv and a.xlsx do not collide.
func canonicalName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if strings.EqualFold(ext, ".csv") {
		return stem + ".csv"
	}
	return stem + "_" + strings.ToLower(strings.TrimPrefix(ext, ".")) + ".csv"
}

// determineFilesToProcess splits inputs into those that need (re)processing
// and those whose canonical output is at least as new as the source.
func determineFilesToProcess(inputs []files.FileInfo, outDir string, full bool) (process, existing []inputFile) {
	sorted := make([]files.FileInfo, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, in := range sorted {
		f := inputFile{FileInfo: in, Output: canonicalName(in.Name)}
		if f.Output == CombinedFileName {
			continue
		}
		if !full {
			if info, err := os.Stat(filepath.Join(outDir, f.Output)); err == nil && !info.ModTime().Before(in.ModTime) {
				existing = append(existing, f)
				continue
			}
		}
		process = append(process, f)
	}
	return process, existing
}

func writeCanonical(w *exporter.CSVWriter, name string, ds *dataprocessing.Dataset) (int, error) {
	cols := ds.Columns().Sorted()
	return writeRecords(w, name, cols, ds.Records())
}

// writeCombined merges every dataset, keeping only the columns they all
// share, ordered by date then order id.
func writeCombined(w *exporter.CSVWriter, datasets []*dataprocessing.Dataset) (int, error) {
	shared := datasets[0].Columns()
	var records []domain.OrderRecord
	for _, ds := range datasets {
		for c := range shared {
			if !ds.Has(c) {
				delete(shared, c)
			}
		}
		records = append(records, ds.Records()...)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].OrderID < records[j].OrderID
	})
	return writeRecords(w, CombinedFileName, shared.Sorted(), records)
}

func writeRecords(w *exporter.CSVWriter, name string, cols []domain.Column, records []domain.OrderRecord) (int, error) {
	sw, err := w.CreateStreamWriter(name, exporter.OrderHeader(cols))
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}
	for _, rec := range records {
		if err := sw.WriteRecord(exporter.OrderRow(rec, cols)); err != nil {
			sw.Close()
			return 0, fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := sw.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", name, err)
	}
	return sw.Rows(), nil
}
