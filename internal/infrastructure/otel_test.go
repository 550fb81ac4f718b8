package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salespulse/internal/errors"
)

func TestInitializeOTel_Metrics(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "none"
	cfg.EnableTracing = false

	providers, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := NewAnalyticsMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordLoad(ctx, 120)
	metrics.RecordAnalysis(ctx, "sales_by_time", 5*time.Millisecond, nil)
	metrics.RecordAnalysis(ctx, "forecast", time.Millisecond, apperrors.NewRangeError("periods", 0, 1, 24))

	w := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "analysis_calls_total")
	assert.Contains(t, w.Body.String(), "RANGE")
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "zipkin"

	_, err := InitializeOTel(cfg, nil)
	assert.Error(t, err)
}

func TestAnalyticsMetrics_NilSafe(t *testing.T) {
	var m *AnalyticsMetrics
	assert.NotPanics(t, func() {
		m.RecordAnalysis(context.Background(), "x", time.Second, errors.New("boom"))
		m.RecordLoad(context.Background(), 1)
		m.RecordHTTPRequest(context.Background(), "GET", "/", 200, time.Second)
	})

	noop, err := NewAnalyticsMetrics(nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		noop.RecordAnalysis(context.Background(), "x", time.Second, nil)
	})
}

func TestErrorType(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), apperrors.NewNotLoadedError("advice"))
	assert.Equal(t, "NOT_LOADED", errorType(wrapped))
	assert.Equal(t, "*errors.errorString", errorType(errors.New("plain")))
}
