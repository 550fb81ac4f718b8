package domain

import "time"

// TimeUnit is the bucket granularity of a sales series.
type TimeUnit string

const (
	UnitDay     TimeUnit = "day"
	UnitMonth   TimeUnit = "month"
	UnitQuarter TimeUnit = "quarter"
	UnitYear    TimeUnit = "year"
)

// BucketRow is one (time bucket, revenue) pair.
type BucketRow struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	Total float64   `json:"total"`
}

// Series is an aggregated revenue series in chronological order.
type Series struct {
	Unit     TimeUnit    `json:"unit"`
	Category string      `json:"category,omitempty"`
	Rows     []BucketRow `json:"rows"`
}

// Len returns the number of buckets.
func (s *Series) Len() int {
	return len(s.Rows)
}

// Values returns the bucket totals in order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Total
	}
	return out
}

// Sum returns the total over all buckets.
func (s *Series) Sum() float64 {
	var sum float64
	for _, r := range s.Rows {
		sum += r.Total
	}
	return sum
}

// GroupTotal is a revenue total for one key of a categorical breakdown.
type GroupTotal struct {
	Key         string  `json:"key"`
	Subcategory string  `json:"subcategory,omitempty"`
	Total       float64 `json:"total"`
}

// ProductRank is one row of a top-N product ranking.
type ProductRank struct {
	ProductName string  `json:"product_name"`
	Value       float64 `json:"value"`
}

// PivotTable is a category by month revenue matrix.
type PivotTable struct {
	Rows    []string    `json:"rows"`
	Columns []int       `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// RecordKind separates fitted history from projected rows.
type RecordKind string

const (
	KindHistorical RecordKind = "historical"
	KindForecast   RecordKind = "forecast"
)

// ForecastRow is one row of a forecast result. Actual is nil on forecast
// rows; Lower and Upper are nil when the model does not produce bounds.
type ForecastRow struct {
	Date      time.Time  `json:"date"`
	Label     string     `json:"label"`
	Actual    *float64   `json:"actual,omitempty"`
	Predicted float64    `json:"predicted"`
	Lower     *float64   `json:"lower,omitempty"`
	Upper     *float64   `json:"upper,omitempty"`
	Kind      RecordKind `json:"kind"`
}

// Forecast is the assembled output of a forecasting run.
type Forecast struct {
	Method  string        `json:"method"`
	Unit    TimeUnit      `json:"unit"`
	Periods int           `json:"periods"`
	Rows    []ForecastRow `json:"rows"`
}

// Trend returns the relative change from the last historical prediction to
// the last forecast prediction. It returns 0 when either is missing.
func (f *Forecast) Trend() float64 {
	var lastHist, lastFc *ForecastRow
	for i := range f.Rows {
		switch f.Rows[i].Kind {
		case KindHistorical:
			lastHist = &f.Rows[i]
		case KindForecast:
			lastFc = &f.Rows[i]
		}
	}
	if lastHist == nil || lastFc == nil || lastHist.Predicted == 0 {
		return 0
	}
	return (lastFc.Predicted - lastHist.Predicted) / lastHist.Predicted
}
