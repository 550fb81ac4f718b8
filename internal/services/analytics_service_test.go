package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"salespulse/internal/analytics"
	"salespulse/internal/config"
	"salespulse/internal/errors"
	"salespulse/internal/forecast"
	"salespulse/internal/infrastructure"
	"salespulse/internal/segmentation"
	"salespulse/internal/shared/testutil"
	"salespulse/pkg/contracts/domain"
)

func newTestService(t *testing.T) (*AnalyticsService, *testutil.CaptureHandler) {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	return NewAnalyticsService(config.Default().Analysis, nil, nil, logger), logs
}

func writeFixture(t *testing.T, seed int64) string {
	t.Helper()
	orders := testutil.RandomOrders(testutil.OrderOptions{Seed: seed, Count: 300, Customers: 30})
	return testutil.WriteOrdersCSV(t, t.TempDir(), orders)
}

func TestAnalyticsService_NotLoaded(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	calls := map[string]func() error{
		"summary":    func() error { _, err := svc.Summary(ctx); return err },
		"time":       func() error { _, err := svc.SalesByTime(ctx, domain.UnitMonth, ""); return err },
		"category":   func() error { _, err := svc.SalesByCategory(ctx, false); return err },
		"region":     func() error { _, err := svc.SalesByRegion(ctx, analytics.LevelCity); return err },
		"top":        func() error { _, err := svc.TopProducts(ctx, 5, analytics.MeasureRevenue, ""); return err },
		"pivot":      func() error { _, err := svc.Pivot(ctx, ""); return err },
		"segments":   func() error { _, err := svc.Segments(ctx, 0, nil); return err },
		"festivals":  func() error { _, err := svc.Festivals(ctx); return err },
		"buckets":    func() error { _, err := svc.DiscountBuckets(ctx); return err },
		"effect":     func() error { _, err := svc.DiscountEffect(ctx); return err },
		"seasonal":   func() error { _, err := svc.SeasonalTrends(ctx); return err },
		"forecast":   func() error { _, err := svc.Forecast(ctx, ForecastRequest{}); return err },
		"advice":     func() error { _, err := svc.Advice(ctx, ""); return err },
		"report":     func() error { _, err := svc.Report(ctx, domain.ReportOptions{}); return err },
		"reload":     func() error { _, err := svc.Reload(ctx); return err },
		"session":    func() error { _, err := svc.Session(); return err },
		"mismatches": func() error { _, err := svc.Mismatches(ctx); return err },
	}

	for name, fn := range calls {
		t.Run(name, func(t *testing.T) {
			err := fn()
			assert.True(t, errors.IsType(err, errors.ErrTypeNotLoaded), "got %v", err)
		})
	}
	assert.Nil(t, svc.Dataset())
}

func TestAnalyticsService_LoadReloadInvalidate(t *testing.T) {
	svc, logs := newTestService(t)
	ctx := context.Background()
	path := writeFixture(t, 1)

	first, err := svc.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 300, first.Rows)
	assert.Equal(t, 1, first.Generation)
	assert.Equal(t, path, first.Path)
	assert.NotEmpty(t, first.ID)
	assert.Len(t, first.Columns, len(domain.AllColumns))
	assert.True(t, logs.Contains(slog.LevelInfo, "Dataset session started"))

	second, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Generation)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = svc.Load(ctx, filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
	current, err := svc.Session()
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID, "failed load keeps the previous session")

	svc.Invalidate(ctx)
	_, err = svc.Summary(ctx)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotLoaded))

	third, err := svc.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, third.Generation)
}

func TestAnalyticsService_ReloadSeesFileChanges(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	path := writeFixture(t, 2)

	_, err := svc.Load(ctx, path)
	require.NoError(t, err)

	orders := testutil.RandomOrders(testutil.OrderOptions{Seed: 3, Count: 50})
	fresh := testutil.WriteOrdersCSV(t, t.TempDir(), orders)
	data, err := os.ReadFile(fresh)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, s.Rows)
}

func TestAnalyticsService_Calls(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Load(ctx, writeFixture(t, 4))
	require.NoError(t, err)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, sum.TotalRecords)

	series, err := svc.SalesByTime(ctx, domain.UnitMonth, "")
	require.NoError(t, err)
	assert.InDelta(t, sum.TotalRevenue, series.Sum(), 0.01)

	top, err := svc.TopProducts(ctx, 0, analytics.MeasureRevenue, "")
	require.NoError(t, err)
	assert.Len(t, top, 10, "n == 0 takes the configured default")

	seg, err := svc.Segments(ctx, 0, nil)
	require.NoError(t, err)
	assert.Len(t, seg.Clusters, config.DefaultClusters)

	seed := int64(7)
	again, err := svc.Segments(ctx, 3, &seed)
	require.NoError(t, err)
	assert.Len(t, again.Clusters, 3)

	fc, err := svc.Forecast(ctx, ForecastRequest{})
	require.NoError(t, err)
	assert.Equal(t, forecast.MethodLinear, fc.Method)
	assert.Equal(t, series.Len()+6, len(fc.Rows))

	_, err = svc.Forecast(ctx, ForecastRequest{Periods: 99})
	assert.True(t, errors.IsType(err, errors.ErrTypeRange))

	advice, err := svc.Advice(ctx, "")
	require.NoError(t, err)
	assert.Len(t, advice, 5)
	if !advice[0].Fallback {
		assert.Contains(t, advice[0].Text, config.Default().Analysis.ForecastMethod+" forecast projects")
	}

	effect, err := svc.DiscountEffect(ctx)
	require.NoError(t, err)
	assert.Len(t, effect.Overall, 2)

	_, err = svc.SalesByTime(ctx, domain.UnitMonth, "Toys")
	assert.True(t, errors.IsType(err, errors.ErrTypeEmptyResult))
	_, err = svc.Summary(ctx)
	assert.NoError(t, err, "a failed call leaves the dataset loaded")

	assert.Contains(t, svc.ForecastMethods(), forecast.MethodExponentialSmoothing)
}

func TestAnalyticsService_Report(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Load(ctx, writeFixture(t, 5))
	require.NoError(t, err)

	r, err := svc.Report(ctx, domain.ReportOptions{})
	require.NoError(t, err)
	assert.Empty(t, r.Skipped)
	assert.NotNil(t, r.Summary)
	assert.NotNil(t, r.Daily)
	assert.NotNil(t, r.Monthly)
	assert.NotNil(t, r.Quarterly)
	assert.NotNil(t, r.Yearly)
	assert.NotEmpty(t, r.Categories)
	assert.NotEmpty(t, r.Subcategories)
	assert.NotEmpty(t, r.Provinces)
	assert.NotEmpty(t, r.Cities)
	assert.Len(t, r.TopProducts, 10)
	assert.NotNil(t, r.Pivot)
	assert.NotEmpty(t, r.SegmentCounts)
	assert.Len(t, r.DiscountBuckets, 4)
	assert.NotNil(t, r.Seasonal)
	assert.NotNil(t, r.Forecast)
	assert.Len(t, r.Advice, 5)

	filtered, err := svc.Report(ctx, domain.ReportOptions{Category: "Toys"})
	require.NoError(t, err)
	var skipped []string
	for _, s := range filtered.Skipped {
		skipped = append(skipped, s.Section)
	}
	assert.Contains(t, skipped, "sales_by_month")
	assert.Contains(t, skipped, "forecast")
	assert.NotContains(t, skipped, "sales_by_category")
	assert.NotNil(t, filtered.Summary)
}

func TestAnalyticsService_ReportSeed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Load(ctx, writeFixture(t, 9))
	require.NoError(t, err)
	ds := svc.Dataset()
	clusters := config.Default().Analysis.Clusters

	zero := int64(0)
	r, err := svc.Report(ctx, domain.ReportOptions{Seed: &zero})
	require.NoError(t, err)
	want, err := segmentation.Segment(ds, clusters, 0)
	require.NoError(t, err)
	assert.Equal(t, want, r.Segments)

	r, err = svc.Report(ctx, domain.ReportOptions{})
	require.NoError(t, err)
	want, err = segmentation.Segment(ds, clusters, config.Default().Analysis.Seed)
	require.NoError(t, err)
	assert.Equal(t, want, r.Segments)
}

func TestAnalyticsService_Instrumentation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.NewAnalyticsMetrics(mp.Meter("test"))
	require.NoError(t, err)

	svc := NewAnalyticsService(config.Default().Analysis, nil, metrics, nil)
	ctx := context.Background()

	_, err = svc.Summary(ctx)
	require.Error(t, err)
	_, err = svc.Load(ctx, writeFixture(t, 6))
	require.NoError(t, err)
	_, err = svc.SalesByCategory(ctx, false)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, s := range recorder.Ended() {
		names[s.Name()] = true
	}
	assert.True(t, names["analytics.summary"])
	assert.True(t, names["analytics.load"])
	assert.True(t, names["analytics.sales_by_category"])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					counts[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(3), counts["analysis_calls_total"])
	assert.Equal(t, int64(1), counts["analysis_errors_total"])
	assert.Equal(t, int64(1), counts["dataset_loads_total"])
}

func TestAnalyticsService_ConcurrentCalls(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Load(ctx, writeFixture(t, 8))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.SalesByTime(ctx, domain.UnitQuarter, "")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Reload(ctx)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestHealthService(t *testing.T) {
	svc, _ := newTestService(t)
	hs := NewHealthService("1.2.3", "", svc, nil)
	ctx := context.Background()

	assert.Equal(t, "not_ready", hs.ReadinessCheck(ctx).Status)
	assert.Equal(t, "ok", hs.HealthCheck(ctx).Status)
	assert.Equal(t, "alive", hs.LivenessCheck(ctx).Status)
	assert.Equal(t, "1.2.3", hs.Version()["version"])

	_, err := svc.Load(ctx, writeFixture(t, 9))
	require.NoError(t, err)
	ready := hs.ReadinessCheck(ctx)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ready", ready.Services["dataset"].(ServiceHealth).Status)
}
