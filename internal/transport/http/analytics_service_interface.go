package http

import (
	"context"

	"salespulse/internal/analytics"
	"salespulse/internal/files"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

// AnalyticsServiceInterface defines the session operations the API exposes
type AnalyticsServiceInterface interface {
	Load(ctx context.Context, path string) (services.Session, error)
	Reload(ctx context.Context) (services.Session, error)
	Session() (services.Session, error)

	Summary(ctx context.Context) (domain.DatasetSummary, error)
	Mismatches(ctx context.Context) ([]domain.TotalMismatch, error)
	SalesByTime(ctx context.Context, unit domain.TimeUnit, category string) (*domain.Series, error)
	SalesByCategory(ctx context.Context, withSubcategory bool) ([]domain.GroupTotal, error)
	SalesByRegion(ctx context.Context, level analytics.RegionLevel) ([]domain.GroupTotal, error)
	TopProducts(ctx context.Context, n int, measure analytics.Measure, category string) ([]domain.ProductRank, error)
	Pivot(ctx context.Context, category string) (*domain.PivotTable, error)
	Segments(ctx context.Context, k int, seed *int64) (*domain.Segmentation, error)
	Festivals(ctx context.Context) ([]domain.FestivalSummary, error)
	DiscountBuckets(ctx context.Context) ([]domain.DiscountBucketSummary, error)
	DiscountEffect(ctx context.Context) (services.DiscountEffectResult, error)
	SeasonalTrends(ctx context.Context) (*domain.SeasonalTrends, error)
	Forecast(ctx context.Context, req services.ForecastRequest) (*domain.Forecast, error)
	ForecastMethods() []string
	Advice(ctx context.Context, category string) ([]domain.Advice, error)
	Report(ctx context.Context, opts domain.ReportOptions) (*domain.Report, error)
}

// DatasetCatalog resolves load paths and lists loadable files
type DatasetCatalog interface {
	Resolve(path string) (string, error)
	List() ([]files.FileInfo, error)
}
