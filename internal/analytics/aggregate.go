package analytics

import (
	"fmt"
	"sort"
	"time"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// RegionLevel selects the geographic grouping of SalesByRegion.
type RegionLevel string

const (
	LevelProvince RegionLevel = "province"
	LevelCity     RegionLevel = "city"
)

// Measure selects the ranking value of TopProducts.
type Measure string

const (
	MeasureRevenue  Measure = "revenue"
	MeasureQuantity Measure = "quantity"
)

// ParseUnit converts a request value into a TimeUnit.
func ParseUnit(s string) (domain.TimeUnit, error) {
	switch u := domain.TimeUnit(s); u {
	case domain.UnitDay, domain.UnitMonth, domain.UnitQuarter, domain.UnitYear:
		return u, nil
	}
	return "", errors.NewUnsupportedValueError("time unit", s)
}

// BucketOf returns the label and start date of the bucket containing t.
// Labels sort lexicographically in chronological order.
func BucketOf(t time.Time, unit domain.TimeUnit) (string, time.Time, error) {
	y, m, d := t.Date()
	switch unit {
	case domain.UnitDay:
		start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01-02"), start, nil
	case domain.UnitMonth:
		return fmt.Sprintf("%04d-%02d", y, int(m)), time.Date(y, m, 1, 0, 0, 0, 0, time.UTC), nil
	case domain.UnitQuarter:
		q := domain.QuarterOf(int(m))
		return fmt.Sprintf("%04d-Q%d", y, q), time.Date(y, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC), nil
	case domain.UnitYear:
		return fmt.Sprintf("%04d", y), time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return "", time.Time{}, errors.NewUnsupportedValueError("time unit", string(unit))
}

// prepare runs the shared validate-then-filter prologue: nil check, column
// check, empty table, unknown category.
func prepare(ds *dataprocessing.Dataset, op, category string, cols ...domain.Column) (*dataprocessing.Dataset, error) {
	if ds == nil {
		return nil, errors.NewNotLoadedError(op)
	}
	if err := ds.Require(cols...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ds.Len() == 0 {
		return nil, errors.NewEmptyResultError(op + ": dataset has no records")
	}
	if category == "" {
		return ds, nil
	}
	if !ds.Has(domain.ColCategory) {
		return nil, fmt.Errorf("%s: %w", op, errors.NewMissingColumnError(string(domain.ColCategory)))
	}
	if !ds.HasCategory(category) {
		return nil, errors.NewEmptyResultError(fmt.Sprintf("%s: category %q does not exist", op, category)).
			WithContext("category", category)
	}
	return ds.Filter(dataprocessing.FilterOptions{Category: category}), nil
}

// SalesByTime sums total price per time bucket. Rows are in chronological
// order and their totals add up to the filtered input.
func SalesByTime(ds *dataprocessing.Dataset, unit domain.TimeUnit, category string) (*domain.Series, error) {
	if _, _, err := BucketOf(time.Time{}, unit); err != nil {
		return nil, err
	}
	data, err := prepare(ds, "sales by time", category, domain.ColDate, domain.ColTotalPrice, domain.ColCategory)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var rows []domain.BucketRow
	data.Each(func(_ int, r domain.OrderRecord) {
		label, start, _ := BucketOf(r.Date, unit)
		i, ok := index[label]
		if !ok {
			i = len(rows)
			index[label] = i
			rows = append(rows, domain.BucketRow{Label: label, Start: start})
		}
		rows[i].Total += r.TotalPrice
	})

	sort.Slice(rows, func(i, j int) bool { return rows[i].Start.Before(rows[j].Start) })
	return &domain.Series{Unit: unit, Category: category, Rows: rows}, nil
}

// SalesByCategory sums revenue per category, or per (category, subcategory)
// pair, ordered by revenue descending. Ties keep first-appearance order.
func SalesByCategory(ds *dataprocessing.Dataset, withSubcategory bool) ([]domain.GroupTotal, error) {
	cols := []domain.Column{domain.ColCategory, domain.ColTotalPrice}
	if withSubcategory {
		cols = append(cols, domain.ColSubcategory)
	}
	data, err := prepare(ds, "sales by category", "", cols...)
	if err != nil {
		return nil, err
	}

	type key struct{ cat, sub string }
	index := make(map[key]int)
	var out []domain.GroupTotal
	data.Each(func(_ int, r domain.OrderRecord) {
		k := key{cat: r.Category}
		if withSubcategory {
			k.sub = r.Subcategory
		}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, domain.GroupTotal{Key: k.cat, Subcategory: k.sub})
		}
		out[i].Total += r.TotalPrice
	})

	rankGroups(out)
	return out, nil
}

// SalesByRegion sums revenue per province or city, ordered by revenue
// descending.
func SalesByRegion(ds *dataprocessing.Dataset, level RegionLevel) ([]domain.GroupTotal, error) {
	var col domain.Column
	switch level {
	case LevelProvince:
		col = domain.ColProvince
	case LevelCity:
		col = domain.ColCity
	default:
		return nil, errors.NewUnsupportedValueError("region level", string(level))
	}
	data, err := prepare(ds, "sales by region", "", col, domain.ColTotalPrice)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var out []domain.GroupTotal
	data.Each(func(_ int, r domain.OrderRecord) {
		k := r.Province
		if level == LevelCity {
			k = r.City
		}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, domain.GroupTotal{Key: k})
		}
		out[i].Total += r.TotalPrice
	})

	rankGroups(out)
	return out, nil
}

// TopProducts ranks products by revenue or quantity and returns at most n.
// Products with equal values keep the order in which they first appear.
func TopProducts(ds *dataprocessing.Dataset, n int, measure Measure, category string) ([]domain.ProductRank, error) {
	if n < 1 {
		return nil, errors.NewRangeError("n", n, 1, 0)
	}
	var col domain.Column
	switch measure {
	case MeasureRevenue:
		col = domain.ColTotalPrice
	case MeasureQuantity:
		col = domain.ColQuantity
	default:
		return nil, errors.NewUnsupportedValueError("measure", string(measure))
	}
	data, err := prepare(ds, "top products", category, domain.ColProductName, col)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var out []domain.ProductRank
	data.Each(func(_ int, r domain.OrderRecord) {
		i, ok := index[r.ProductName]
		if !ok {
			i = len(out)
			index[r.ProductName] = i
			out = append(out, domain.ProductRank{ProductName: r.ProductName})
		}
		if measure == MeasureQuantity {
			out[i].Value += float64(r.Quantity)
		} else {
			out[i].Value += r.TotalPrice
		}
	})

	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// CategoryMonthPivot builds a category × calendar-month revenue matrix.
// Columns are the months present in the data, ascending; missing cells are 0.
func CategoryMonthPivot(ds *dataprocessing.Dataset, category string) (*domain.PivotTable, error) {
	data, err := prepare(ds, "category month pivot", category, domain.ColCategory, domain.ColDate, domain.ColTotalPrice)
	if err != nil {
		return nil, err
	}

	cats := data.Categories()
	sort.Strings(cats)
	row := make(map[string]int, len(cats))
	for i, c := range cats {
		row[c] = i
	}

	var cells [12][]float64
	var present [12]bool
	data.Each(func(_ int, r domain.OrderRecord) {
		m := int(r.Date.Month()) - 1
		if cells[m] == nil {
			cells[m] = make([]float64, len(cats))
		}
		present[m] = true
		cells[m][row[r.Category]] += r.TotalPrice
	})

	pt := &domain.PivotTable{Rows: cats, Values: make([][]float64, len(cats))}
	for m := range present {
		if present[m] {
			pt.Columns = append(pt.Columns, m+1)
		}
	}
	for i := range cats {
		pt.Values[i] = make([]float64, len(pt.Columns))
		for j, m := range pt.Columns {
			pt.Values[i][j] = cells[m-1][i]
		}
	}
	return pt, nil
}

func rankGroups(out []domain.GroupTotal) {
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
}
