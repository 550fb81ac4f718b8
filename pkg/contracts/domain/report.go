package domain

import (
	"time"
)

// Report bundles every derived table of one analysis run. Sections that
// could not be computed are left nil and listed in Skipped.
type Report struct {
	ID          string    `json:"id" validate:"required,uuid"`
	Source      string    `json:"source"`
	Category    string    `json:"category,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`

	Summary            *DatasetSummary         `json:"summary,omitempty"`
	Daily              *Series                 `json:"daily,omitempty"`
	Monthly            *Series                 `json:"monthly,omitempty"`
	Quarterly          *Series                 `json:"quarterly,omitempty"`
	Yearly             *Series                 `json:"yearly,omitempty"`
	Categories         []GroupTotal            `json:"categories,omitempty"`
	Subcategories      []GroupTotal            `json:"subcategories,omitempty"`
	Provinces          []GroupTotal            `json:"provinces,omitempty"`
	Cities             []GroupTotal            `json:"cities,omitempty"`
	TopProducts        []ProductRank           `json:"top_products,omitempty"`
	Pivot              *PivotTable             `json:"pivot,omitempty"`
	Segments           *Segmentation           `json:"segments,omitempty"`
	SegmentCounts      []SegmentCount          `json:"segment_counts,omitempty"`
	Festivals          []FestivalSummary       `json:"festivals,omitempty"`
	DiscountBuckets    []DiscountBucketSummary `json:"discount_buckets,omitempty"`
	DiscountEffect     []DiscountSplit         `json:"discount_effect,omitempty"`
	DiscountByCategory []DiscountSplit         `json:"discount_by_category,omitempty"`
	Seasonal           *SeasonalTrends         `json:"seasonal,omitempty"`
	Forecast           *Forecast               `json:"forecast,omitempty"`
	Advice             []Advice                `json:"advice,omitempty"`

	Skipped []SkippedSection `json:"skipped,omitempty"`
}

// SkippedSection records why a report section is missing.
type SkippedSection struct {
	Section string `json:"section"`
	Reason  string `json:"reason"`
}

// ReportFormat defines the export file format
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatJSON ReportFormat = "json"
)

// ReportOptions selects what a report run computes.
type ReportOptions struct {
	Category       string   `json:"category,omitempty"`
	TopN           int      `json:"top_n" validate:"min=1"`
	Clusters       int      `json:"clusters" validate:"min=1"`
	Seed           *int64   `json:"seed,omitempty"` // nil selects the configured seed
	ForecastMethod string   `json:"forecast_method"`
	ForecastUnit   TimeUnit `json:"forecast_unit"`
	Periods        int      `json:"periods" validate:"min=1,max=24"`
}
