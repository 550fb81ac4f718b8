package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/advisor"
	"salespulse/internal/analytics"
	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/errors"
	"salespulse/internal/forecast"
	"salespulse/internal/infrastructure"
	"salespulse/internal/promotion"
	"salespulse/internal/segmentation"
	"salespulse/pkg/contracts/domain"
)

// Session describes the currently loaded dataset.
type Session struct {
	ID         string          `json:"id"`
	Path       string          `json:"path"`
	Rows       int             `json:"rows"`
	Columns    []domain.Column `json:"columns"`
	LoadedAt   time.Time       `json:"loaded_at"`
	Generation int             `json:"generation"`
	Mismatches int             `json:"total_mismatches"`
}

// AnalyticsService owns one analysis session. Every analytic call runs
// against the dataset of the last successful Load or Reload and fails with
// a NotLoaded error before the first one. Calls are serialized.
type AnalyticsService struct {
	mu sync.Mutex

	loader     *dataprocessing.Loader
	promo      *promotion.Analyzer
	forecaster *forecast.Engine
	advisor    *advisor.Generator
	defaults   config.AnalysisConfig

	metrics *infrastructure.AnalyticsMetrics
	tracer  trace.Tracer
	logger  *slog.Logger

	dataset *dataprocessing.Dataset
	session Session
}

// NewAnalyticsService creates a service with no dataset loaded. cal may be
// nil for the default promotional calendar; metrics may be nil.
func NewAnalyticsService(defaults config.AnalysisConfig, cal *config.Calendar, metrics *infrastructure.AnalyticsMetrics, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "analytics_service")

	if defaults.Clusters < 1 {
		defaults.Clusters = config.DefaultClusters
	}
	if defaults.TopN < 1 {
		defaults.TopN = 10
	}
	if defaults.ForecastPeriods < config.MinForecastPeriods {
		defaults.ForecastPeriods = 6
	}
	if defaults.ForecastMethod == "" {
		defaults.ForecastMethod = forecast.MethodLinear
	}
	if defaults.TotalTolerance <= 0 {
		defaults.TotalTolerance = dataprocessing.DefaultTotalTolerance
	}

	return &AnalyticsService{
		loader:     dataprocessing.NewLoader(defaults.TotalTolerance, logger),
		promo:      promotion.NewAnalyzer(cal),
		forecaster: forecast.NewEngine(logger),
		advisor:    advisor.NewGenerator(cal, logger),
		defaults:   defaults,
		metrics:    metrics,
		tracer:     otel.Tracer(infrastructure.MeterName),
		logger:     logger,
	}
}

// Load replaces the session dataset with the table at path. On failure the
// previous dataset stays loaded.
func (s *AnalyticsService) Load(ctx context.Context, path string) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.load", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	start := time.Now()
	ds, err := s.loader.Load(ctx, path)
	s.metrics.RecordAnalysis(ctx, "load", time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "Dataset load failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataset = ds
	s.session = Session{
		ID:         uuid.New().String(),
		Path:       path,
		Rows:       ds.Len(),
		Columns:    ds.Columns().Sorted(),
		LoadedAt:   time.Now().UTC(),
		Generation: s.session.Generation + 1,
		Mismatches: len(ds.CheckTotals(s.defaults.TotalTolerance)),
	}
	s.metrics.RecordLoad(ctx, ds.Len())
	span.SetAttributes(attribute.Int("rows", ds.Len()), attribute.String("session.id", s.session.ID))

	s.logger.InfoContext(ctx, "Dataset session started",
		slog.String("session_id", s.session.ID),
		slog.String("path", path),
		slog.Int("rows", ds.Len()),
		slog.Int("generation", s.session.Generation))
	return s.session, nil
}

// Reload reads the current session's file again.
func (s *AnalyticsService) Reload(ctx context.Context) (Session, error) {
	s.mu.Lock()
	path := s.session.Path
	s.mu.Unlock()

	if path == "" {
		return Session{}, errors.NewNotLoadedError("reload")
	}
	return s.Load(ctx, path)
}

// Invalidate drops the loaded dataset. Later calls fail with NotLoaded
// until the next Load.
func (s *AnalyticsService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dataset != nil {
		s.logger.InfoContext(ctx, "Dataset session closed", slog.String("session_id", s.session.ID))
	}
	s.dataset = nil
	s.session = Session{Generation: s.session.Generation}
}

// Dataset returns the loaded dataset, or nil.
func (s *AnalyticsService) Dataset() *dataprocessing.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset
}

// Session returns the current session.
func (s *AnalyticsService) Session() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset == nil {
		return Session{}, errors.NewNotLoadedError("session")
	}
	return s.session, nil
}

// Defaults returns the analysis defaults applied to unset parameters.
func (s *AnalyticsService) Defaults() config.AnalysisConfig { return s.defaults }

// call runs fn against the loaded dataset under the session lock, inside a
// span, and records its outcome.
func call[T any](ctx context.Context, s *AnalyticsService, op string, fn func(ctx context.Context, ds *dataprocessing.Dataset) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, "analytics."+op)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	var (
		out T
		err error
	)
	if s.dataset == nil {
		err = errors.NewNotLoadedError(op)
	} else {
		span.SetAttributes(attribute.String("session.id", s.session.ID))
		out, err = fn(ctx, s.dataset)
	}
	elapsed := time.Since(start)
	s.metrics.RecordAnalysis(ctx, op, elapsed, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "Analytics call failed",
			slog.String("operation", op),
			slog.String("error_type", string(errors.TypeOf(err))),
			slog.String("error", err.Error()))
		var zero T
		return zero, err
	}
	s.logger.DebugContext(ctx, "Analytics call completed",
		slog.String("operation", op),
		slog.Duration("duration", elapsed))
	return out, nil
}

// Summary returns the dataset overview.
func (s *AnalyticsService) Summary(ctx context.Context) (domain.DatasetSummary, error) {
	return call(ctx, s, "summary", func(_ context.Context, ds *dataprocessing.Dataset) (domain.DatasetSummary, error) {
		return ds.Summary()
	})
}

// Mismatches lists records whose stored total disagrees with the computed one.
func (s *AnalyticsService) Mismatches(ctx context.Context) ([]domain.TotalMismatch, error) {
	return call(ctx, s, "total_mismatches", func(_ context.Context, ds *dataprocessing.Dataset) ([]domain.TotalMismatch, error) {
		return ds.CheckTotals(s.defaults.TotalTolerance), nil
	})
}

// SalesByTime aggregates revenue per time bucket.
func (s *AnalyticsService) SalesByTime(ctx context.Context, unit domain.TimeUnit, category string) (*domain.Series, error) {
	return call(ctx, s, "sales_by_time", func(_ context.Context, ds *dataprocessing.Dataset) (*domain.Series, error) {
		return analytics.SalesByTime(ds, unit, category)
	})
}

// SalesByCategory aggregates revenue per category.
func (s *AnalyticsService) SalesByCategory(ctx context.Context, withSubcategory bool) ([]domain.GroupTotal, error) {
	return call(ctx, s, "sales_by_category", func(_ context.Context, ds *dataprocessing.Dataset) ([]domain.GroupTotal, error) {
		return analytics.SalesByCategory(ds, withSubcategory)
	})
}

// SalesByRegion aggregates revenue per province or city.
func (s *AnalyticsService) SalesByRegion(ctx context.Context, level analytics.RegionLevel) ([]domain.GroupTotal, error) {
	return call(ctx, s, "sales_by_region", func(_ context.Context, ds *dataprocessing.Dataset) ([]domain.GroupTotal, error) {
		return analytics.SalesByRegion(ds, level)
	})
}

// TopProducts ranks products. n == 0 selects the configured default.
func (s *AnalyticsService) TopProducts(ctx context.Context, n int, measure analytics.Measure, category string) ([]domain.ProductRank, error) {
	if n == 0 {
		n = s.defaults.TopN
	}
	return call(ctx, s, "top_products", func(_ context.Context, ds *dataprocessing.Dataset) ([]domain.ProductRank, error) {
		return analytics.TopProducts(ds, n, measure, category)
	})
}

// Pivot returns the category by month revenue matrix.
func (s *AnalyticsService) Pivot(ctx context.Context, category string) (*domain.PivotTable, error) {
	return call(ctx, s, "category_month_pivot", func(_ context.Context, ds *dataprocessing.Dataset) (*domain.PivotTable, error) {
		return analytics.CategoryMonthPivot(ds, category)
	})
}

// Segments clusters customers. k == 0 selects the configured default.
func (s *AnalyticsService) Segments(ctx context.Context, k int, seed *int64) (*domain.Segmentation, error) {
	if k == 0 {
		k = s.defaults.Clusters
	}
	sd := s.defaults.Seed
	if seed != nil {
		sd = *seed
	}
	return call(ctx, s, "segment_customers", func(_ context.Context, ds *dataprocessing.Dataset) (*domain.Segmentation, error) {
		return segmentation.Segment(ds, k, sd)
	})
}

// Festivals summarizes revenue per promotional tag.
func (s *AnalyticsService) Festivals(ctx context.Context) ([]domain.FestivalSummary, error) {
	return call(ctx, s, "festival_summary", func(_ context.Context, ds *dataprocessing.Dataset) ([]domain.FestivalSummary, error) {
		return s.promo.FestivalSummary(ds)
	})
}

// DiscountBuckets summarizes orders per discount range.
func (s *AnalyticsService) DiscountBuckets(ctx context.Context) ([]domain.DiscountBucketSummary, error) {
	return call(ctx, s, "discount_buckets", func(_ context.Context, ds *dataprocessing.Dataset) ([]domain.DiscountBucketSummary, error) {
		return s.promo.DiscountBuckets(ds)
	})
}

// DiscountEffectResult pairs the overall and per-category discount splits.
type DiscountEffectResult struct {
	Overall    []domain.DiscountSplit `json:"overall"`
	ByCategory []domain.DiscountSplit `json:"by_category"`
}

// DiscountEffect compares discounted with full-price orders.
func (s *AnalyticsService) DiscountEffect(ctx context.Context) (DiscountEffectResult, error) {
	return call(ctx, s, "discount_effect", func(_ context.Context, ds *dataprocessing.Dataset) (DiscountEffectResult, error) {
		overall, byCategory, err := promotion.DiscountEffect(ds)
		return DiscountEffectResult{Overall: overall, ByCategory: byCategory}, err
	})
}

// SeasonalTrends returns monthly, quarterly and festival revenue.
func (s *AnalyticsService) SeasonalTrends(ctx context.Context) (*domain.SeasonalTrends, error) {
	return call(ctx, s, "seasonal_trends", func(_ context.Context, ds *dataprocessing.Dataset) (*domain.SeasonalTrends, error) {
		return s.promo.SeasonalTrends(ds)
	})
}

// ForecastRequest selects the series and model of a forecast. Zero values
// take the configured defaults; Unit defaults to month.
type ForecastRequest struct {
	Unit     domain.TimeUnit
	Category string
	Method   string
	Periods  int
}

func (s *AnalyticsService) withDefaults(req ForecastRequest) ForecastRequest {
	if req.Unit == "" {
		req.Unit = domain.UnitMonth
	}
	if req.Method == "" {
		req.Method = s.defaults.ForecastMethod
	}
	if req.Periods == 0 {
		req.Periods = s.defaults.ForecastPeriods
	}
	return req
}

// Forecast aggregates the requested series and projects it.
func (s *AnalyticsService) Forecast(ctx context.Context, req ForecastRequest) (*domain.Forecast, error) {
	req = s.withDefaults(req)
	return call(ctx, s, "forecast", func(ctx context.Context, ds *dataprocessing.Dataset) (*domain.Forecast, error) {
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("forecast.method", req.Method),
			attribute.Int("forecast.periods", req.Periods))
		return s.projectSeries(ctx, ds, req)
	})
}

// ForecastMethods lists the methods available in this build.
func (s *AnalyticsService) ForecastMethods() []string {
	return forecast.Methods()
}

// Advice generates the five decision suggestions. The trend step includes
// the default monthly forecast when one can be fitted.
func (s *AnalyticsService) Advice(ctx context.Context, category string) ([]domain.Advice, error) {
	req := s.withDefaults(ForecastRequest{Category: category})
	return call(ctx, s, "advice", func(ctx context.Context, ds *dataprocessing.Dataset) ([]domain.Advice, error) {
		fc, err := s.projectSeries(ctx, ds, req)
		if err != nil {
			s.logger.DebugContext(ctx, "Advice without forecast", slog.String("error", err.Error()))
			fc = nil
		}
		return s.advisor.Generate(ctx, ds, advisor.Options{
			Category: category,
			Clusters: s.defaults.Clusters,
			Seed:     s.defaults.Seed,
			Forecast: fc,
		})
	})
}

func (s *AnalyticsService) projectSeries(ctx context.Context, ds *dataprocessing.Dataset, req ForecastRequest) (*domain.Forecast, error) {
	series, err := analytics.SalesByTime(ds, req.Unit, req.Category)
	if err != nil {
		return nil, err
	}
	return s.forecaster.Forecast(ctx, series, req.Method, req.Periods)
}

// Report computes every derived table. Sections that fail are recorded in
// Skipped; only a missing dataset fails the whole run.
func (s *AnalyticsService) Report(ctx context.Context, opts domain.ReportOptions) (*domain.Report, error) {
	if opts.TopN == 0 {
		opts.TopN = s.defaults.TopN
	}
	if opts.Clusters == 0 {
		opts.Clusters = s.defaults.Clusters
	}
	seed := s.defaults.Seed
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	req := s.withDefaults(ForecastRequest{
		Unit:     opts.ForecastUnit,
		Category: opts.Category,
		Method:   opts.ForecastMethod,
		Periods:  opts.Periods,
	})

	return call(ctx, s, "report", func(ctx context.Context, ds *dataprocessing.Dataset) (*domain.Report, error) {
		r := &domain.Report{
			ID:          uuid.New().String(),
			Source:      ds.Source(),
			Category:    opts.Category,
			GeneratedAt: time.Now().UTC(),
		}
		section := func(name string, fn func() error) {
			if err := fn(); err != nil {
				r.Skipped = append(r.Skipped, domain.SkippedSection{Section: name, Reason: err.Error()})
				s.logger.DebugContext(ctx, "Report section skipped",
					slog.String("section", name),
					slog.String("error", err.Error()))
			}
		}
		series := func(unit domain.TimeUnit, dst **domain.Series) func() error {
			return func() (err error) {
				*dst, err = analytics.SalesByTime(ds, unit, opts.Category)
				return err
			}
		}

		section("summary", func() error {
			sum, err := ds.Summary()
			r.Summary = &sum
			if err != nil {
				r.Summary = nil
			}
			return err
		})
		section("sales_by_day", series(domain.UnitDay, &r.Daily))
		section("sales_by_month", series(domain.UnitMonth, &r.Monthly))
		section("sales_by_quarter", series(domain.UnitQuarter, &r.Quarterly))
		section("sales_by_year", series(domain.UnitYear, &r.Yearly))
		section("sales_by_category", func() (err error) {
			r.Categories, err = analytics.SalesByCategory(ds, false)
			return err
		})
		section("sales_by_subcategory", func() (err error) {
			r.Subcategories, err = analytics.SalesByCategory(ds, true)
			return err
		})
		section("sales_by_province", func() (err error) {
			r.Provinces, err = analytics.SalesByRegion(ds, analytics.LevelProvince)
			return err
		})
		section("sales_by_city", func() (err error) {
			r.Cities, err = analytics.SalesByRegion(ds, analytics.LevelCity)
			return err
		})
		section("top_products", func() (err error) {
			r.TopProducts, err = analytics.TopProducts(ds, opts.TopN, analytics.MeasureRevenue, opts.Category)
			return err
		})
		section("category_month_pivot", func() (err error) {
			r.Pivot, err = analytics.CategoryMonthPivot(ds, opts.Category)
			return err
		})
		section("customer_segments", func() (err error) {
			r.Segments, err = segmentation.Segment(ds, opts.Clusters, seed)
			if err == nil {
				r.SegmentCounts = segmentation.Counts(r.Segments)
			}
			return err
		})
		section("festival_summary", func() (err error) {
			r.Festivals, err = s.promo.FestivalSummary(ds)
			return err
		})
		section("discount_buckets", func() (err error) {
			r.DiscountBuckets, err = s.promo.DiscountBuckets(ds)
			return err
		})
		section("discount_effect", func() (err error) {
			r.DiscountEffect, r.DiscountByCategory, err = promotion.DiscountEffect(ds)
			return err
		})
		section("seasonal_trends", func() (err error) {
			r.Seasonal, err = s.promo.SeasonalTrends(ds)
			return err
		})
		section("forecast", func() (err error) {
			r.Forecast, err = s.projectSeries(ctx, ds, req)
			return err
		})
		section("advice", func() (err error) {
			r.Advice, err = s.advisor.Generate(ctx, ds, advisor.Options{
				Category: opts.Category,
				Clusters: opts.Clusters,
				Seed:     seed,
				Forecast: r.Forecast,
			})
			return err
		})

		if len(r.Skipped) > 0 {
			s.logger.InfoContext(ctx, "Report generated with skipped sections",
				slog.Int("skipped", len(r.Skipped)))
		}
		return r, nil
	})
}

// String implements fmt.Stringer for log output.
func (s Session) String() string {
	return fmt.Sprintf("session %s (%s, %d rows, generation %d)", s.ID, s.Path, s.Rows, s.Generation)
}
