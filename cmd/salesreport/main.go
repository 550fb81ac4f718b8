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
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"salespulse/internal/config"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

// WorkbookName is the file written into the output directory by -xlsx.
const WorkbookName = "sales_report.xlsx"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type options struct {
	file     string
	outDir   string
	xlsx     bool
	calendar string
	report   domain.ReportOptions
}

func parseFlags(cfg *config.Config, args []string, stderr io.Writer) (options, error) {
	var (
		opts   options
		unit   string
		fs     = flag.NewFlagSet("salesreport", flag.ContinueOnError)
		stamp  = time.Now().Format("20060102_150405")
		defOut = filepath.Join(cfg.Export.Dir, stamp)
	)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.file, "file", "", "order table to analyse (.csv or .xlsx)")
	fs.StringVar(&opts.outDir, "out", defOut, "output directory for the derived tables")
	fs.BoolVar(&opts.xlsx, "xlsx", false, "also write every table into "+WorkbookName)
	fs.StringVar(&opts.calendar, "calendar", cfg.Calendar.Path, "promotional calendar YAML (default built-in)")
	fs.StringVar(&opts.report.Category, "category", "", "restrict trend, top products, forecast and advice to one category")
	fs.StringVar(&opts.report.ForecastMethod, "method", cfg.Analysis.ForecastMethod, "forecast method")
	fs.StringVar(&unit, "unit", string(domain.UnitMonth), "forecast time unit")
	fs.IntVar(&opts.report.Periods, "periods", cfg.Analysis.ForecastPeriods, "forecast horizon")
	fs.IntVar(&opts.report.Clusters, "clusters", cfg.Analysis.Clusters, "customer segments")
	seed := fs.Int64("seed", cfg.Analysis.Seed, "clustering seed")
	fs.IntVar(&opts.report.TopN, "top", cfg.Analysis.TopN, "number of top products")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.file == "" && fs.NArg() > 0 {
		opts.file = fs.Arg(0)
	}
	if opts.file == "" {
		fs.Usage()
		return opts, fmt.Errorf("an input file is required")
	}

	opts.report.ForecastUnit = domain.TimeUnit(unit)
	opts.report.Seed = seed
	if p := opts.report.Periods; p < config.MinForecastPeriods || p > config.MaxForecastPeriods {
		return opts, apierrors.NewRangeError("periods", p, config.MinForecastPeriods, config.MaxForecastPeriods)
	}
	if opts.report.Clusters < 1 || opts.report.Clusters > config.MaxClusters {
		return opts, apierrors.NewRangeError("clusters", opts.report.Clusters, 1, config.MaxClusters)
	}
	if opts.report.TopN < 1 || opts.report.TopN > config.MaxTopN {
		return opts, apierrors.NewRangeError("top", opts.report.TopN, 1, config.MaxTopN)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = config.Default()
	}

	opts, err := parseFlags(cfg, args, stderr)
	if err != nil {
		return err
	}

	logger := infrastructure.NewLoggerWithWriter(stderr, cfg.Logging)

	cal, err := config.LoadCalendar(opts.calendar)
	if err != nil {
		return err
	}
	if err := cal.Validate(); err != nil {
		return apierrors.NewConfigError("invalid promotional calendar", err)
	}

	svc := services.NewAnalyticsService(cfg.Analysis, cal, nil, logger)
	session, err := svc.Load(ctx, opts.file)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Dataset ready", slog.String("session", session.String()))

	report, err := svc.Report(ctx, opts.report)
	if err != nil {
		return err
	}

	tables := exporter.Tables(report)
	paths, err := exporter.ExportAll(ctx, opts.outDir, tables, logger)
	if err != nil {
		return err
	}
	if opts.xlsx {
		path := filepath.Join(opts.outDir, WorkbookName)
		if err := exporter.NewWorkbookWriter(logger).Write(path, tables); err != nil {
			return err
		}
		paths = append(paths, path)
	}

	printReport(stdout, report, paths)
	return nil
}

func printReport(w io.Writer, r *domain.Report, paths []string) {
	p := message.NewPrinter(language.English)

	if s := r.Summary; s != nil {
		p.Fprintf(w, "%d orders from %s to %s, %d customers, revenue %.2f\n",
			s.TotalRecords,
			s.StartDate.Format("2006-01-02"),
			s.EndDate.Format("2006-01-02"),
			s.CustomerCount,
			s.TotalRevenue)
	}

	p.Fprintf(w, "\nWrote %d files:\n", len(paths))
	for _, path := range paths {
		fmt.Fprintf(w, "  %s\n", path)
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintln(w, "\nSkipped sections:")
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  %s: %s\n", s.Section, s.Reason)
		}
	}

	if len(r.Advice) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		for _, a := range r.Advice {
			fmt.Fprintf(w, "  [%s] %s\n", a.Category, a.Text)
		}
	}
}
