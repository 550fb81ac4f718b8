package dataprocessing

import (
	"math"
	"slices"
	"time"

	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Dataset is a normalized, read-only order table together with the set of
// columns present in its source. Every method leaves the receiver unchanged;
// derived datasets are new values.
type Dataset struct {
	records []domain.OrderRecord
	columns domain.ColumnSet
	source  string
}

// NewDataset wraps records. When columns is nil every column is assumed
// present. The records slice is copied.
func NewDataset(records []domain.OrderRecord, columns domain.ColumnSet, source string) *Dataset {
	if columns == nil {
		columns = domain.NewColumnSet(domain.AllColumns...)
	}
	return &Dataset{
		records: slices.Clone(records),
		columns: columns.Clone(),
		source:  source,
	}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Source returns the path the dataset was loaded from.
func (d *Dataset) Source() string { return d.source }

// Records returns a copy of the records.
func (d *Dataset) Records() []domain.OrderRecord {
	return slices.Clone(d.records)
}

// Each calls fn for every record in order. fn receives a copy.
func (d *Dataset) Each(fn func(i int, rec domain.OrderRecord)) {
	for i, rec := range d.records {
		fn(i, rec)
	}
}

// Columns returns the columns present in the source.
func (d *Dataset) Columns() domain.ColumnSet { return d.columns.Clone() }

// Has reports whether a column is present.
func (d *Dataset) Has(c domain.Column) bool { return d.columns.Has(c) }

// Require fails with a MissingColumnError listing every absent column.
func (d *Dataset) Require(cols ...domain.Column) error {
	missing := d.columns.Missing(cols...)
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, len(missing))
	for i, c := range missing {
		names[i] = string(c)
	}
	return errors.NewMissingColumnError(names...)
}

// MaxDate returns the latest order date, or the zero time for an empty table.
func (d *Dataset) MaxDate() time.Time {
	var latest time.Time
	for _, r := range d.records {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return latest
}

// Categories returns distinct categories in first-appearance order.
func (d *Dataset) Categories() []string {
	return distinct(d.records, func(r domain.OrderRecord) string { return r.Category })
}

// HasCategory reports whether any record belongs to category.
func (d *Dataset) HasCategory(category string) bool {
	for _, r := range d.records {
		if r.Category == category {
			return true
		}
	}
	return false
}

// FilterOptions selects records; zero fields match everything.
type FilterOptions struct {
	Year     int    `json:"year,omitempty" validate:"omitempty,min=1"`
	Quarter  int    `json:"quarter,omitempty" validate:"omitempty,min=1,max=4"`
	Month    int    `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Category string `json:"category,omitempty"`
}

// IsZero reports whether the filter selects everything.
func (f FilterOptions) IsZero() bool {
	return f == FilterOptions{}
}

func (f FilterOptions) match(r domain.OrderRecord) bool {
	if f.Year != 0 && r.Year != f.Year {
		return false
	}
	if f.Quarter != 0 && r.Quarter != f.Quarter {
		return false
	}
	if f.Month != 0 && r.Month != f.Month {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	return true
}

// Filter returns a new dataset holding the matching records. The receiver
// is not modified.
func (d *Dataset) Filter(opts FilterOptions) *Dataset {
	out := make([]domain.OrderRecord, 0, len(d.records))
	for _, r := range d.records {
		if opts.match(r) {
			out = append(out, r)
		}
	}
	return &Dataset{records: out, columns: d.columns.Clone(), source: d.source}
}

// Summary returns the dataset overview.
func (d *Dataset) Summary() (domain.DatasetSummary, error) {
	if len(d.records) == 0 {
		return domain.DatasetSummary{}, errors.NewEmptyResultError("dataset has no records")
	}
	if err := d.Require(domain.ColDate, domain.ColTotalPrice, domain.ColCategory); err != nil {
		return domain.DatasetSummary{}, err
	}

	s := domain.DatasetSummary{
		TotalRecords: len(d.records),
		StartDate:    d.records[0].Date,
		EndDate:      d.records[0].Date,
		MaxOrder:     math.Inf(-1),
	}
	for _, r := range d.records {
		if r.Date.Before(s.StartDate) {
			s.StartDate = r.Date
		}
		if r.Date.After(s.EndDate) {
			s.EndDate = r.Date
		}
		s.TotalRevenue += r.TotalPrice
		if r.TotalPrice > s.MaxOrder {
			s.MaxOrder = r.TotalPrice
		}
	}
	s.Categories = d.Categories()
	s.CategoryCount = len(s.Categories)
	s.AverageOrder = round2(s.TotalRevenue / float64(len(d.records)))
	s.MaxOrder = round2(s.MaxOrder)
	s.CustomerCount = len(distinct(d.records, func(r domain.OrderRecord) string { return r.CustomerID }))
	s.StoreCount = len(distinct(d.records, func(r domain.OrderRecord) string { return r.Store }))
	return s, nil
}

// CheckTotals reports records whose stored total differs from
// price × quantity × discount by more than tolerance. Rows are 1-based
// record positions.
func (d *Dataset) CheckTotals(tolerance float64) []domain.TotalMismatch {
	if !d.Has(domain.ColUnitPrice) || !d.Has(domain.ColQuantity) || !d.Has(domain.ColTotalPrice) {
		return nil
	}
	var out []domain.TotalMismatch
	for i, r := range d.records {
		expected := r.ExpectedTotal()
		if math.Abs(expected-r.TotalPrice) > tolerance {
			out = append(out, domain.TotalMismatch{
				OrderID:  r.OrderID,
				Row:      i + 1,
				Stored:   r.TotalPrice,
				Expected: expected,
			})
		}
	}
	return out
}

func distinct(records []domain.OrderRecord, key func(domain.OrderRecord) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		k := key(r)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
