package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salespulse/internal/analytics"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/files"
	"salespulse/internal/middleware"
	"salespulse/internal/services"
	"salespulse/internal/shared/testutil"
	api "salespulse/pkg/contracts/api/v1"
	"salespulse/pkg/contracts/domain"
)

// MockAnalyticsService is a mock implementation of AnalyticsServiceInterface
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Load(ctx context.Context, path string) (services.Session, error) {
	args := m.Called(path)
	return args.Get(0).(services.Session), args.Error(1)
}

func (m *MockAnalyticsService) Reload(ctx context.Context) (services.Session, error) {
	args := m.Called()
	return args.Get(0).(services.Session), args.Error(1)
}

func (m *MockAnalyticsService) Session() (services.Session, error) {
	args := m.Called()
	return args.Get(0).(services.Session), args.Error(1)
}

func (m *MockAnalyticsService) Summary(ctx context.Context) (domain.DatasetSummary, error) {
	args := m.Called()
	return args.Get(0).(domain.DatasetSummary), args.Error(1)
}

func (m *MockAnalyticsService) Mismatches(ctx context.Context) ([]domain.TotalMismatch, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TotalMismatch), args.Error(1)
}

func (m *MockAnalyticsService) SalesByTime(ctx context.Context, unit domain.TimeUnit, category string) (*domain.Series, error) {
	args := m.Called(unit, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Series), args.Error(1)
}

func (m *MockAnalyticsService) SalesByCategory(ctx context.Context, withSubcategory bool) ([]domain.GroupTotal, error) {
	args := m.Called(withSubcategory)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GroupTotal), args.Error(1)
}

func (m *MockAnalyticsService) SalesByRegion(ctx context.Context, level analytics.RegionLevel) ([]domain.GroupTotal, error) {
	args := m.Called(level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GroupTotal), args.Error(1)
}

func (m *MockAnalyticsService) TopProducts(ctx context.Context, n int, measure analytics.Measure, category string) ([]domain.ProductRank, error) {
	args := m.Called(n, measure, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductRank), args.Error(1)
}

func (m *MockAnalyticsService) Pivot(ctx context.Context, category string) (*domain.PivotTable, error) {
	args := m.Called(category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PivotTable), args.Error(1)
}

func (m *MockAnalyticsService) Segments(ctx context.Context, k int, seed *int64) (*domain.Segmentation, error) {
	args := m.Called(k, seed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Segmentation), args.Error(1)
}

func (m *MockAnalyticsService) Festivals(ctx context.Context) ([]domain.FestivalSummary, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FestivalSummary), args.Error(1)
}

func (m *MockAnalyticsService) DiscountBuckets(ctx context.Context) ([]domain.DiscountBucketSummary, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DiscountBucketSummary), args.Error(1)
}

func (m *MockAnalyticsService) DiscountEffect(ctx context.Context) (services.DiscountEffectResult, error) {
	args := m.Called()
	return args.Get(0).(services.DiscountEffectResult), args.Error(1)
}

func (m *MockAnalyticsService) SeasonalTrends(ctx context.Context) (*domain.SeasonalTrends, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeasonalTrends), args.Error(1)
}

func (m *MockAnalyticsService) Forecast(ctx context.Context, req services.ForecastRequest) (*domain.Forecast, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Forecast), args.Error(1)
}

func (m *MockAnalyticsService) ForecastMethods() []string {
	return m.Called().Get(0).([]string)
}

func (m *MockAnalyticsService) Advice(ctx context.Context, category string) ([]domain.Advice, error) {
	args := m.Called(category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Advice), args.Error(1)
}

func (m *MockAnalyticsService) Report(ctx context.Context, opts domain.ReportOptions) (*domain.Report, error) {
	args := m.Called(opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func newTestRouter(t *testing.T, svc AnalyticsServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := middleware.NewValidator(logger, errorHandler)
	handler := NewAnalyticsHandler(svc, validator, logger, errorHandler)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api", handler.Routes())
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestAnalyticsHandler_LoadDataset(t *testing.T) {
	session := services.Session{
		ID:         "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Path:       "orders.csv",
		Rows:       120,
		Columns:    []domain.Column{domain.ColDate, domain.ColTotalPrice},
		LoadedAt:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Generation: 1,
	}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockAnalyticsService)
		expectedStatus int
		checkResponse  func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name: "loads file",
			body: `{"path":"orders.csv"}`,
			setupMock: func(m *MockAnalyticsService) {
				m.On("Load", "orders.csv").Return(session, nil)
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp api.DatasetResponse
				decode(t, w, &resp)
				assert.Equal(t, session.ID, resp.ID)
				assert.Equal(t, 120, resp.Rows)
				assert.Equal(t, 1, resp.Generation)
			},
		},
		{
			name:           "missing path fails validation",
			body:           `{}`,
			setupMock:      func(m *MockAnalyticsService) {},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Contains(t, w.Body.String(), "path is required")
			},
		},
		{
			name:           "malformed json",
			body:           `{"path":`,
			setupMock:      func(m *MockAnalyticsService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "file not found",
			body: `{"path":"missing.csv"}`,
			setupMock: func(m *MockAnalyticsService) {
				m.On("Load", "missing.csv").Return(services.Session{}, apierrors.NewNotFoundError("missing.csv"))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "unsupported format",
			body: `{"path":"orders.json"}`,
			setupMock: func(m *MockAnalyticsService) {
				m.On("Load", "orders.json").Return(services.Session{}, apierrors.NewUnsupportedFormatError(".json"))
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var problem map[string]interface{}
				decode(t, w, &problem)
				assert.Equal(t, apierrors.TypeUnsupportedFormat, problem["type"])
				assert.Equal(t, "UNSUPPORTED_FORMAT", problem["error_code"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalyticsService)
			tt.setupMock(svc)

			w := do(t, newTestRouter(t, svc), http.MethodPost, "/api/dataset", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalyticsHandler_NotLoadedIsConflict(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("SalesByTime", domain.UnitMonth, "").Return(nil, apierrors.NewNotLoadedError("sales_by_time"))
	svc.On("Reload").Return(services.Session{}, apierrors.NewNotLoadedError("reload"))
	svc.On("Session").Return(services.Session{}, apierrors.NewNotLoadedError("session"))
	router := newTestRouter(t, svc)

	for _, target := range []struct{ method, path string }{
		{http.MethodGet, "/api/sales/time"},
		{http.MethodPost, "/api/dataset/reload"},
		{http.MethodGet, "/api/dataset"},
	} {
		w := do(t, router, target.method, target.path, "")
		assert.Equal(t, http.StatusConflict, w.Code, target.path)

		var problem map[string]interface{}
		decode(t, w, &problem)
		assert.Equal(t, apierrors.TypeDatasetNotLoaded, problem["type"])
		assert.Equal(t, target.path, problem["instance"])
		assert.NotEmpty(t, problem["trace_id"])
	}
	svc.AssertExpectations(t)
}

func TestAnalyticsHandler_QueryValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
		field  string
	}{
		{"bad unit", "/api/sales/time?unit=week", "unit"},
		{"bad level", "/api/sales/region?level=country", "level"},
		{"n too large", "/api/products/top?n=1000", "n"},
		{"n not a number", "/api/products/top?n=ten", "n"},
		{"bad measure", "/api/products/top?measure=profit", "measure"},
		{"k too large", "/api/customers/segments?k=50", "k"},
		{"seed not a number", "/api/customers/segments?seed=x", "seed"},
		{"periods too large", "/api/forecast?periods=25", "periods"},
		{"bad subcategory flag", "/api/sales/category?subcategory=maybe", "subcategory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalyticsService)
			w := do(t, newTestRouter(t, svc), http.MethodGet, tt.target, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var problem map[string]interface{}
			decode(t, w, &problem)
			assert.Equal(t, apierrors.TypeValidation, problem["type"])
			assert.Contains(t, w.Body.String(), `"field":"`+tt.field+`"`)
			svc.AssertNotCalled(t, "SalesByTime", mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "Forecast", mock.Anything)
		})
	}
}

func TestAnalyticsHandler_SalesEndpoints(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := new(MockAnalyticsService)
	svc.On("SalesByTime", domain.UnitQuarter, "Books").Return(&domain.Series{
		Unit:     domain.UnitQuarter,
		Category: "Books",
		Rows:     []domain.BucketRow{{Label: "2024-Q1", Start: jan, Total: 300}},
	}, nil)
	svc.On("SalesByCategory", true).Return([]domain.GroupTotal{{Key: "Books", Subcategory: "Fiction", Total: 300}}, nil)
	svc.On("SalesByRegion", analytics.LevelProvince).Return([]domain.GroupTotal{{Key: "Zhejiang", Total: 300}}, nil)
	svc.On("TopProducts", 3, analytics.MeasureQuantity, "").Return([]domain.ProductRank{{ProductName: "Novel", Value: 12}}, nil)
	router := newTestRouter(t, svc)

	w := do(t, router, http.MethodGet, "/api/sales/time?unit=quarter&category=Books", "")
	require.Equal(t, http.StatusOK, w.Code)
	var series domain.Series
	decode(t, w, &series)
	assert.Equal(t, "2024-Q1", series.Rows[0].Label)

	w = do(t, router, http.MethodGet, "/api/sales/category?subcategory=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var groups api.SalesResponse
	decode(t, w, &groups)
	assert.Equal(t, "Fiction", groups.Groups[0].Subcategory)

	w = do(t, router, http.MethodGet, "/api/sales/region", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/products/top?n=3&measure=quantity", "")
	require.Equal(t, http.StatusOK, w.Code)
	var top api.TopProductsResponse
	decode(t, w, &top)
	assert.Equal(t, "quantity", top.Measure)
	assert.Equal(t, "Novel", top.Products[0].ProductName)

	svc.AssertExpectations(t)
}

func TestAnalyticsHandler_Segments(t *testing.T) {
	seed := int64(7)
	svc := new(MockAnalyticsService)
	svc.On("Segments", 3, &seed).Return(&domain.Segmentation{
		Customers: []domain.CustomerFeatures{
			{CustomerID: "C1", TotalSpend: 100, Label: "active high-value"},
			{CustomerID: "C2", TotalSpend: 50, Label: "active high-value"},
		},
		Clusters: []domain.ClusterProfile{{Cluster: 0, Label: "active high-value", Size: 2, TotalSpend: 75}},
	}, nil)

	w := do(t, newTestRouter(t, svc), http.MethodGet, "/api/customers/segments?k=3&seed=7", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.SegmentsResponse
	decode(t, w, &resp)
	require.Len(t, resp.Counts, 1)
	assert.Equal(t, 2, resp.Counts[0].Customers)
	svc.AssertExpectations(t)
}

func TestAnalyticsHandler_Forecast(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		req            services.ForecastRequest
		result         *domain.Forecast
		err            error
		expectedStatus int
	}{
		{
			name:           "defaults left to the service",
			target:         "/api/forecast",
			req:            services.ForecastRequest{},
			result:         &domain.Forecast{Method: "linear", Unit: domain.UnitMonth, Periods: 6},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "explicit parameters",
			target:         "/api/forecast?unit=quarter&category=Books&method=holt_winters&periods=4",
			req:            services.ForecastRequest{Unit: domain.UnitQuarter, Category: "Books", Method: "holt_winters", Periods: 4},
			result:         &domain.Forecast{Method: "holt_winters", Unit: domain.UnitQuarter, Periods: 4},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unavailable method",
			target:         "/api/forecast?method=seasonal_regression",
			req:            services.ForecastRequest{Method: "seasonal_regression"},
			err:            apierrors.NewUnavailableMethodError("seasonal_regression"),
			expectedStatus: http.StatusNotImplemented,
		},
		{
			name:           "unknown method",
			target:         "/api/forecast?method=arima",
			req:            services.ForecastRequest{Method: "arima"},
			err:            apierrors.NewUnsupportedValueError("forecast method", "arima"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "insufficient data",
			target:         "/api/forecast?method=holt_winters",
			req:            services.ForecastRequest{Method: "holt_winters"},
			err:            apierrors.NewInsufficientDataError("holt-winters needs two seasons", 11, 24),
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalyticsService)
			if tt.err != nil {
				svc.On("Forecast", tt.req).Return(nil, tt.err)
			} else {
				svc.On("Forecast", tt.req).Return(tt.result, nil)
			}

			w := do(t, newTestRouter(t, svc), http.MethodGet, tt.target, "")
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.err == nil {
				var fc domain.Forecast
				decode(t, w, &fc)
				assert.Equal(t, tt.result.Method, fc.Method)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalyticsHandler_ForecastMethods(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("ForecastMethods").Return([]string{"holt_winters", "linear"})

	w := do(t, newTestRouter(t, svc), http.MethodGet, "/api/forecast/methods", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ForecastMethodsResponse
	decode(t, w, &resp)
	assert.Equal(t, []string{"holt_winters", "linear"}, resp.Methods)
}

func TestAnalyticsHandler_PromotionsAndAdvice(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("Festivals").Return([]domain.FestivalSummary{{Tag: "Double Eleven", OrderCount: 3, Revenue: 900}}, nil)
	svc.On("DiscountBuckets").Return([]domain.DiscountBucketSummary{{Bucket: ">30% off", OrderCount: 1}}, nil)
	svc.On("DiscountEffect").Return(services.DiscountEffectResult{
		Overall: []domain.DiscountSplit{{Discounted: true, OrderCount: 1}},
	}, nil)
	svc.On("SeasonalTrends").Return(&domain.SeasonalTrends{}, nil)
	svc.On("Advice", "Books").Return([]domain.Advice{{Category: domain.AdviceTrend, Text: "Sales are flat"}}, nil)
	router := newTestRouter(t, svc)

	w := do(t, router, http.MethodGet, "/api/promotions/festivals", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Double Eleven")

	w = do(t, router, http.MethodGet, "/api/promotions/discounts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var discounts api.DiscountsResponse
	decode(t, w, &discounts)
	assert.Len(t, discounts.Buckets, 1)
	assert.Len(t, discounts.Overall, 1)

	w = do(t, router, http.MethodGet, "/api/promotions/seasonal", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/api/advice?category=Books", "")
	require.Equal(t, http.StatusOK, w.Code)
	var advice api.AdviceResponse
	decode(t, w, &advice)
	assert.Equal(t, "Books", advice.Category)
	assert.Equal(t, domain.AdviceTrend, advice.Advice[0].Category)

	svc.AssertExpectations(t)
}

func TestAnalyticsHandler_Summary(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("Summary").Return(domain.DatasetSummary{TotalRecords: 3, TotalRevenue: 10000}, nil)
	svc.On("Mismatches").Return(nil, nil)

	w := do(t, newTestRouter(t, svc), http.MethodGet, "/api/dataset/summary", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.SummaryResponse
	decode(t, w, &resp)
	assert.Equal(t, 3, resp.Summary.TotalRecords)
	assert.NotNil(t, resp.Mismatches)
	assert.Contains(t, w.Body.String(), `"mismatches":[]`)
}

func TestAnalyticsHandler_UnexpectedErrorIs500(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("Festivals").Return(nil, errors.New("disk on fire"))

	w := do(t, newTestRouter(t, svc), http.MethodGet, "/api/promotions/festivals", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestAnalyticsHandler_Catalog(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "orders.csv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "readme.md"), []byte("x"), 0644))

	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	svc := new(MockAnalyticsService)
	svc.On("Load", filepath.Join(dataDir, "orders.csv")).Return(services.Session{ID: "s1", Generation: 1}, nil)

	handler := NewAnalyticsHandler(svc, middleware.NewValidator(logger, errorHandler), logger, errorHandler).
		WithCatalog(files.NewCatalog(dataDir, logger))
	router := chi.NewRouter()
	router.Mount("/api", handler.Routes())

	w := do(t, router, http.MethodPost, "/api/dataset", `{"path":"orders.csv"}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/api/dataset", `{"path":"../etc/passwd.csv"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apierrors.TypeUnsupportedValue)

	w = do(t, router, http.MethodGet, "/api/dataset/files", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list api.FilesResponse
	decode(t, w, &list)
	require.Len(t, list.Files, 1)
	assert.Equal(t, "orders.csv", list.Files[0].Name)

	svc.AssertExpectations(t)
}

func TestAnalyticsHandler_FilesWithoutCatalog(t *testing.T) {
	w := do(t, newTestRouter(t, new(MockAnalyticsService)), http.MethodGet, "/api/dataset/files", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"files":[]`)
}
