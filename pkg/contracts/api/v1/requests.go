// Package api contains the HTTP API contract of the SalesPulse server.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"salespulse/pkg/contracts/domain"
)

// Dataset requests

// LoadDatasetRequest is the body of POST /api/dataset.
type LoadDatasetRequest struct {
	Path string `json:"path" validate:"required"`
}

// Query parameters. Empty values fall back to the server's analysis defaults.

// SalesByTimeQuery selects GET /api/sales/time.
type SalesByTimeQuery struct {
	Unit     string `query:"unit" validate:"omitempty,oneof=day month quarter year"`
	Category string `query:"category"`
}

// SalesByCategoryQuery selects GET /api/sales/category.
type SalesByCategoryQuery struct {
	Subcategory bool `query:"subcategory"`
}

// SalesByRegionQuery selects GET /api/sales/region.
type SalesByRegionQuery struct {
	Level string `query:"level" validate:"omitempty,oneof=province city"`
}

// TopProductsQuery selects GET /api/products/top.
type TopProductsQuery struct {
	N        int    `query:"n" validate:"omitempty,min=1,max=100"`
	Measure  string `query:"measure" validate:"omitempty,oneof=revenue quantity"`
	Category string `query:"category"`
}

// SegmentsQuery selects GET /api/customers/segments.
type SegmentsQuery struct {
	K    int    `query:"k" validate:"omitempty,min=1,max=20"`
	Seed *int64 `query:"seed"`
}

// ForecastQuery selects GET /api/forecast.
type ForecastQuery struct {
	Unit     string `query:"unit" validate:"omitempty,oneof=day month quarter year"`
	Category string `query:"category"`
	Method   string `query:"method"`
	Periods  int    `query:"periods" validate:"omitempty,min=1,max=24"`
}

// AdviceQuery selects GET /api/advice.
type AdviceQuery struct {
	Category string `query:"category"`
}

// Responses

// DatasetResponse describes the loaded dataset session.
type DatasetResponse struct {
	ID         string          `json:"id"`
	Path       string          `json:"path"`
	Rows       int             `json:"rows"`
	Columns    []domain.Column `json:"columns"`
	LoadedAt   time.Time       `json:"loaded_at"`
	Generation int             `json:"generation"`
	Mismatches int             `json:"total_mismatches"`
}

// DatasetFile is a loadable file in the server's data directory.
type DatasetFile struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// FilesResponse lists loadable files, newest first.
type FilesResponse struct {
	Files []DatasetFile `json:"files"`
}

// SummaryResponse wraps the dataset summary with the total-price check.
type SummaryResponse struct {
	Summary    domain.DatasetSummary  `json:"summary"`
	Mismatches []domain.TotalMismatch `json:"mismatches"`
}

// SalesResponse wraps grouped totals.
type SalesResponse struct {
	Groups []domain.GroupTotal `json:"groups"`
}

// TopProductsResponse wraps a product ranking.
type TopProductsResponse struct {
	Measure  string               `json:"measure"`
	Category string               `json:"category,omitempty"`
	Products []domain.ProductRank `json:"products"`
}

// SegmentsResponse wraps a segmentation and its label counts.
type SegmentsResponse struct {
	Segmentation *domain.Segmentation  `json:"segmentation"`
	Counts       []domain.SegmentCount `json:"counts"`
}

// DiscountsResponse combines the discount bucket and effect analyses.
type DiscountsResponse struct {
	Buckets    []domain.DiscountBucketSummary `json:"buckets"`
	Overall    []domain.DiscountSplit         `json:"overall"`
	ByCategory []domain.DiscountSplit         `json:"by_category"`
}

// ForecastMethodsResponse lists forecasting methods available in this build.
type ForecastMethodsResponse struct {
	Methods []string `json:"methods"`
}

// AdviceResponse wraps the decision suggestions.
type AdviceResponse struct {
	Category string          `json:"category,omitempty"`
	Advice   []domain.Advice `json:"advice"`
}
