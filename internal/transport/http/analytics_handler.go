package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salespulse/internal/analytics"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/middleware"
	"salespulse/internal/segmentation"
	"salespulse/internal/services"
	api "salespulse/pkg/contracts/api/v1"
	"salespulse/pkg/contracts/domain"
)

// AnalyticsHandler exposes the dataset session and its analyses as JSON.
type AnalyticsHandler struct {
	service      AnalyticsServiceInterface
	catalog      DatasetCatalog
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalyticsHandler creates the handler
func NewAnalyticsHandler(service AnalyticsServiceInterface, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalyticsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "analytics_handler")),
		errorHandler: errorHandler,
	}
}

// WithCatalog resolves POST /dataset paths through c and enables
// GET /dataset/files.
func (h *AnalyticsHandler) WithCatalog(c DatasetCatalog) *AnalyticsHandler {
	h.catalog = c
	return h
}

// Routes returns the analytics routes, mounted under /api.
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/dataset", func(r chi.Router) {
		r.Post("/", h.LoadDataset)
		r.Get("/", h.GetDataset)
		r.Post("/reload", h.ReloadDataset)
		r.Get("/files", h.ListFiles)
		r.Get("/summary", h.GetSummary)
	})

	r.Route("/sales", func(r chi.Router) {
		r.Get("/time", h.GetSalesByTime)
		r.Get("/category", h.GetSalesByCategory)
		r.Get("/region", h.GetSalesByRegion)
		r.Get("/pivot", h.GetPivot)
	})

	r.Get("/products/top", h.GetTopProducts)
	r.Get("/customers/segments", h.GetSegments)

	r.Route("/promotions", func(r chi.Router) {
		r.Get("/festivals", h.GetFestivals)
		r.Get("/discounts", h.GetDiscounts)
		r.Get("/seasonal", h.GetSeasonal)
	})

	r.Get("/forecast", h.GetForecast)
	r.Get("/forecast/methods", h.GetForecastMethods)
	r.Get("/advice", h.GetAdvice)
	r.Get("/report", h.GetReport)

	return r
}

func (h *AnalyticsHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.DebugContext(r.Context(), "analytics request failed",
		slog.String("operation", op),
		slog.String("error_type", string(apierrors.TypeOf(err))),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.errorHandler.HandleError(w, r, err)
}

func sessionResponse(s services.Session) api.DatasetResponse {
	return api.DatasetResponse{
		ID:         s.ID,
		Path:       s.Path,
		Rows:       s.Rows,
		Columns:    s.Columns,
		LoadedAt:   s.LoadedAt,
		Generation: s.Generation,
		Mismatches: s.Mismatches,
	}
}

// LoadDataset handles POST /api/dataset
func (h *AnalyticsHandler) LoadDataset(w http.ResponseWriter, r *http.Request) {
	var req api.LoadDatasetRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	path := req.Path
	if h.catalog != nil {
		resolved, err := h.catalog.Resolve(path)
		if err != nil {
			h.fail(w, r, "load", err)
			return
		}
		path = resolved
	}

	session, err := h.service.Load(r.Context(), path)
	if err != nil {
		h.fail(w, r, "load", err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset loaded via API",
		slog.String("session_id", session.ID),
		slog.Int("rows", session.Rows))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, sessionResponse(session))
}

// GetDataset handles GET /api/dataset
func (h *AnalyticsHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session()
	if err != nil {
		h.fail(w, r, "session", err)
		return
	}
	render.JSON(w, r, sessionResponse(session))
}

// ListFiles handles GET /api/dataset/files
func (h *AnalyticsHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	resp := api.FilesResponse{Files: []api.DatasetFile{}}
	if h.catalog == nil {
		render.JSON(w, r, resp)
		return
	}
	list, err := h.catalog.List()
	if err != nil {
		h.fail(w, r, "list_files", err)
		return
	}
	for _, f := range list {
		resp.Files = append(resp.Files, api.DatasetFile{
			Name:    f.Name,
			Path:    f.Path,
			Size:    f.Size,
			ModTime: f.ModTime,
		})
	}
	render.JSON(w, r, resp)
}

// ReloadDataset handles POST /api/dataset/reload
func (h *AnalyticsHandler) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Reload(r.Context())
	if err != nil {
		h.fail(w, r, "reload", err)
		return
	}
	render.JSON(w, r, sessionResponse(session))
}

// GetSummary handles GET /api/dataset/summary
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, r, "summary", err)
		return
	}
	mismatches, err := h.service.Mismatches(r.Context())
	if err != nil {
		h.fail(w, r, "mismatches", err)
		return
	}
	if mismatches == nil {
		mismatches = []domain.TotalMismatch{}
	}
	render.JSON(w, r, api.SummaryResponse{Summary: summary, Mismatches: mismatches})
}

// GetSalesByTime handles GET /api/sales/time
func (h *AnalyticsHandler) GetSalesByTime(w http.ResponseWriter, r *http.Request) {
	var q api.SalesByTimeQuery
	if err := h.validator.DecodeQuery(r, &q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	unit := domain.UnitMonth
	if q.Unit != "" {
		unit = domain.TimeUnit(q.Unit)
	}

	series, err := h.service.SalesByTime(r.Context(), unit, q.Category)
	if err != nil {
		h.fail(w, r, "sales_by_time", err)
		return
	}
	render.JSON(w, r, series)
}

// GetSalesByCategory handles GET /api/sales/category
func (h *AnalyticsHandler) GetSalesByCategory(w http.ResponseWriter, r *http.Request) {
	var q api.SalesByCategoryQuery
	if err := h.validator.DecodeQuery(r, &q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	groups, err := h.service.SalesByCategory(r.Context(), q.Subcategory)
	if err != nil {
		h.fail(w, r, "sales_by_category", err)
		return
	}
	render.JSON(w, r, api.SalesResponse{Groups: groups})
}

// GetSalesByRegion handles GET /api/sales/region
func (h *AnalyticsHandler) GetSalesByRegion(w http.ResponseWriter, r *http.Request) {
	var q api.SalesByRegionQuery
	if err := h.validator.DecodeQuery(r, &q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	level := analytics.LevelProvince
	if q.Level != "" {
		level = analytics.RegionLevel(q.Level)
	}

	groups, err := h.service.SalesByRegion(r.Context(), level)
	if err != nil {
		h.fail(w, r, "sales_by_region", err)
		return
	}
	render.JSON(w, r, api.SalesResponse{Groups: groups})
}

// GetPivot handles GET /api/sales/pivot
func (h *AnalyticsHandler) GetPivot(w http.ResponseWriter, r *http.Request) {
	pivot, err := h.service.Pivot(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.fail(w, r, "pivot", err)
		return
	}
	render.JSON(w, r, pivot)
}

// GetTopProducts handles GET /api/products/top
func (h *AnalyticsHandler) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	var q api.TopProductsQuery
	if err := h.validator.DecodeQuery(r, &q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	measure := analytics.MeasureRevenue
	if q.Measure != "" {
		measure = analytics.Measure(q.Measure)
	}

	products, err := h.service.TopProducts(r.Context(), q.N, measure, q.Category)
	if err != nil {
		h.fail(w, r, "top_products", err)
		return
	}
	render.JSON(w, r, api.TopProductsResponse{
		Measure:  string(measure),
		Category: q.Category,
		Products: products,
	})
}

// GetSegments handles GET /api/customers/segments
func (h *AnalyticsHandler) GetSegments(w http.ResponseWriter, r *http.Request) {
	var q api.SegmentsQuery
	if err := h.validator.DecodeQuery(r, &q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	seg, err := h.service.Segments(r.Context(), q.K, q.Seed)
	if err != nil {
		h.fail(w, r, "segments", err)
		return
	}
	render.JSON(w, r, api.SegmentsResponse{
		Segmentation: seg,
		Counts:       segmentation.Counts(seg),
	})
}

// GetFestivals handles GET /api/promotions/festivals
func (h *AnalyticsHandler) GetFestivals(w http.ResponseWriter, r *http.Request) {
	festivals, err := h.service.Festivals(r.Context())
	if err != nil {
		h.fail(w, r, "festivals", err)
		return
	}
	render.JSON(w, r, festivals)
}

// GetDiscounts handles GET /api/promotions/discounts
func (h *AnalyticsHandler) GetDiscounts(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.DiscountBuckets(r.Context())
	if err != nil {
		h.fail(w, r, "discount_buckets", err)
		return
	}
	effect, err := h.service.DiscountEffect(r.Context())
	if err != nil {
		h.fail(w, r, "discount_effect", err)
		return
	}
	render.JSON(w, r, api.DiscountsResponse{
		Buckets:    buckets,
		Overall:    effect.Overall,
		ByCategory: effect.ByCategory,
	})
}

// GetSeasonal handles GET /api/promotions/seasonal
func (h *AnalyticsHandler) GetSeasonal(w http.ResponseWriter, r *http.Request) {
	trends, err := h.service.SeasonalTrends(r.Context())
	if err != nil {
		h.fail(w, r, "seasonal_trends", err)
		return
	}
	render.JSON(w, r, trends)
}

// GetForecast handles GET /api/forecast
func (h *AnalyticsHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	var q api.ForecastQuery
	if err := h.validator.DecodeQuery(r, &q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	fc, err := h.service.Forecast(r.Context(), services.ForecastRequest{
		Unit:     domain.TimeUnit(q.Unit),
		Category: q.Category,
		Method:   q.Method,
		Periods:  q.Periods,
	})
	if err != nil {
		h.fail(w, r, "forecast", err)
		return
	}
	render.JSON(w, r, fc)
}

// GetForecastMethods handles GET /api/forecast/methods
func (h *AnalyticsHandler) GetForecastMethods(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.ForecastMethodsResponse{Methods: h.service.ForecastMethods()})
}

// GetAdvice handles GET /api/advice
func (h *AnalyticsHandler) GetAdvice(w http.ResponseWriter, r *http.Request) {
	var q api.AdviceQuery
	if err := h.validator.DecodeQuery(r, &q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	advice, err := h.service.Advice(r.Context(), q.Category)
	if err != nil {
		h.fail(w, r, "advice", err)
		return
	}
	render.JSON(w, r, api.AdviceResponse{Category: q.Category, Advice: advice})
}

// GetReport handles GET /api/report
func (h *AnalyticsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	var q api.ForecastQuery
	if err := h.validator.DecodeQuery(r, &q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Report(r.Context(), domain.ReportOptions{
		Category:       q.Category,
		ForecastMethod: q.Method,
		ForecastUnit:   domain.TimeUnit(q.Unit),
		Periods:        q.Periods,
	})
	if err != nil {
		h.fail(w, r, "report", err)
		return
	}
	render.JSON(w, r, report)
}
