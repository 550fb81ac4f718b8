package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salespulse/internal/config"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts/domain"
)

func dataset(t *testing.T) string {
	t.Helper()
	t.Setenv(config.ConfigFileEnv, "")
	orders := testutil.RandomOrders(testutil.OrderOptions{Seed: 21, Count: 400, Customers: 30})
	return testutil.WriteOrdersCSV(t, t.TempDir(), orders)
}

func TestParseFlags(t *testing.T) {
	cfg := config.Default()

	t.Run("defaults", func(t *testing.T) {
		opts, err := parseFlags(cfg, []string{"orders.csv"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "orders.csv", opts.file)
		assert.Equal(t, cfg.Export.Dir, filepath.Dir(opts.outDir))
		assert.Equal(t, domain.UnitMonth, opts.report.ForecastUnit)
		assert.Equal(t, cfg.Analysis.ForecastPeriods, opts.report.Periods)
		assert.Equal(t, cfg.Analysis.Clusters, opts.report.Clusters)
		assert.False(t, opts.xlsx)
	})

	t.Run("explicit", func(t *testing.T) {
		opts, err := parseFlags(cfg, []string{
			"-file", "a.xlsx", "-out", "out", "-xlsx", "-category", "Books",
			"-method", "holt-winters", "-unit", "quarter", "-periods", "4", "-clusters", "3", "-seed", "7", "-top", "5",
		}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "a.xlsx", opts.file)
		assert.Equal(t, "out", opts.outDir)
		assert.True(t, opts.xlsx)
		seed := int64(7)
		assert.Equal(t, domain.ReportOptions{
			Category:       "Books",
			TopN:           5,
			Clusters:       3,
			Seed:           &seed,
			ForecastMethod: "holt-winters",
			ForecastUnit:   domain.UnitQuarter,
			Periods:        4,
		}, opts.report)
	})

	tests := []struct {
		name  string
		args  []string
		param string
	}{
		{"periods too large", []string{"-periods", "25", "x.csv"}, "periods"},
		{"no clusters", []string{"-clusters", "0", "x.csv"}, "clusters"},
		{"top too large", []string{"-top", "101", "x.csv"}, "top"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(cfg, tt.args, &bytes.Buffer{})
			require.Error(t, err)
			assert.True(t, apierrors.IsType(err, apierrors.ErrTypeRange))
			assert.Contains(t, err.Error(), tt.param)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		var stderr bytes.Buffer
		_, err := parseFlags(cfg, nil, &stderr)
		assert.EqualError(t, err, "an input file is required")
		assert.Contains(t, stderr.String(), "-file")
	})
}

func TestRun(t *testing.T) {
	path := dataset(t)
	outDir := filepath.Join(t.TempDir(), "report")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-file", path, "-out", outDir, "-xlsx"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	for _, name := range []string{"summary.csv", "sales_by_month.csv", "top_products.csv", "advice.csv", WorkbookName} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	out := stdout.String()
	assert.Contains(t, out, "400 orders")
	assert.Contains(t, out, "Wrote ")
	assert.Contains(t, out, "Suggestions:")
	assert.Contains(t, out, "[trend]")

	f, err := excelize.OpenFile(filepath.Join(outDir, WorkbookName))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "summary")
}

func TestRun_CSVOnly(t *testing.T) {
	path := dataset(t)
	outDir := filepath.Join(t.TempDir(), "report")

	require.NoError(t, run(context.Background(), []string{"-out", outDir, path}, &bytes.Buffer{}, &bytes.Buffer{}))
	assert.NoFileExists(t, filepath.Join(outDir, WorkbookName))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestRun_Errors(t *testing.T) {
	t.Setenv(config.ConfigFileEnv, "")

	t.Run("missing input", func(t *testing.T) {
		err := run(context.Background(), []string{filepath.Join(t.TempDir(), "absent.csv")}, &bytes.Buffer{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, apierrors.IsType(err, apierrors.ErrTypeNotFound))
	})

	t.Run("unsupported format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "orders.json")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
		err := run(context.Background(), []string{path}, &bytes.Buffer{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, apierrors.IsType(err, apierrors.ErrTypeUnsupportedFormat))
	})

	t.Run("missing calendar", func(t *testing.T) {
		err := run(context.Background(), []string{"-calendar", filepath.Join(t.TempDir(), "none.yaml"), "x.csv"}, &bytes.Buffer{}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}
