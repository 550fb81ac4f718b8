package exporter

import (
	"fmt"
	"strconv"
	"time"

	"salespulse/pkg/contracts/domain"
)

// Table is a derived table flattened to strings, ready for CSV or a sheet.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// FileName returns the table name with the given extension.
func (t Table) FileName(ext string) string {
	return t.Name + "." + ext
}

const dateLayout = "2006-01-02"

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func ratio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return money(*v)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// Tables flattens every computed section of r. Nil sections are skipped.
func Tables(r *domain.Report) []Table {
	if r == nil {
		return nil
	}

	var out []Table
	add := func(t Table) {
		out = append(out, t)
	}

	if r.Summary != nil {
		add(SummaryTable(r.Summary))
	}
	for _, s := range []*domain.Series{r.Daily, r.Monthly, r.Quarterly, r.Yearly} {
		if s != nil {
			add(SeriesTable(s))
		}
	}
	if r.Categories != nil {
		add(groupTable("sales_by_category", "category", r.Categories, false))
	}
	if r.Subcategories != nil {
		add(groupTable("sales_by_subcategory", "category", r.Subcategories, true))
	}
	if r.Provinces != nil {
		add(groupTable("sales_by_province", "province", r.Provinces, false))
	}
	if r.Cities != nil {
		add(groupTable("sales_by_city", "city", r.Cities, false))
	}
	if r.TopProducts != nil {
		add(topProductsTable(r.TopProducts))
	}
	if r.Pivot != nil {
		add(pivotTable(r.Pivot))
	}
	if r.Segments != nil {
		add(customersTable(r.Segments.Customers))
		add(clustersTable(r.Segments.Clusters))
	}
	if r.SegmentCounts != nil {
		add(segmentCountsTable(r.SegmentCounts))
	}
	if r.Festivals != nil {
		add(festivalTable("festival_sales", r.Festivals))
	}
	if r.DiscountBuckets != nil {
		add(discountBucketTable(r.DiscountBuckets))
	}
	if r.DiscountEffect != nil {
		add(discountSplitTable("discount_effect", r.DiscountEffect))
	}
	if r.DiscountByCategory != nil {
		add(discountSplitTable("discount_by_category", r.DiscountByCategory))
	}
	if r.Seasonal != nil {
		add(periodTable("seasonal_monthly", "month", r.Seasonal.Monthly))
		add(periodTable("seasonal_quarterly", "quarter", r.Seasonal.Quarterly))
	}
	if r.Forecast != nil {
		add(ForecastTable(r.Forecast))
	}
	if r.Advice != nil {
		add(AdviceTable(r.Advice))
	}
	if len(r.Skipped) > 0 {
		t := Table{Name: "skipped_sections", Headers: []string{"section", "reason"}}
		for _, s := range r.Skipped {
			t.Rows = append(t.Rows, []string{s.Section, s.Reason})
		}
		add(t)
	}
	return out
}

// SummaryTable renders the dataset summary as key/value rows.
func SummaryTable(s *domain.DatasetSummary) Table {
	return Table{
		Name:    "summary",
		Headers: []string{"metric", "value"},
		Rows: [][]string{
			{"total_records", strconv.Itoa(s.TotalRecords)},
			{"start_date", date(s.StartDate)},
			{"end_date", date(s.EndDate)},
			{"category_count", strconv.Itoa(s.CategoryCount)},
			{"average_order", money(s.AverageOrder)},
			{"max_order", money(s.MaxOrder)},
			{"customer_count", strconv.Itoa(s.CustomerCount)},
			{"store_count", strconv.Itoa(s.StoreCount)},
			{"total_revenue", money(s.TotalRevenue)},
		},
	}
}

// SeriesTable renders a time series; the name carries the bucket unit.
func SeriesTable(s *domain.Series) Table {
	t := Table{
		Name:    fmt.Sprintf("sales_by_%s", s.Unit),
		Headers: []string{"period", "start", "total_price"},
	}
	for _, r := range s.Rows {
		t.Rows = append(t.Rows, []string{r.Label, date(r.Start), money(r.Total)})
	}
	return t
}

func groupTable(name, key string, rows []domain.GroupTotal, withSub bool) Table {
	t := Table{Name: name, Headers: []string{key, "total_price"}}
	if withSub {
		t.Headers = []string{key, "subcategory", "total_price"}
	}
	for _, g := range rows {
		if withSub {
			t.Rows = append(t.Rows, []string{g.Key, g.Subcategory, money(g.Total)})
			continue
		}
		t.Rows = append(t.Rows, []string{g.Key, money(g.Total)})
	}
	return t
}

func topProductsTable(rows []domain.ProductRank) Table {
	t := Table{Name: "top_products", Headers: []string{"rank", "product_name", "value"}}
	for i, p := range rows {
		t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), p.ProductName, money(p.Value)})
	}
	return t
}

func pivotTable(p *domain.PivotTable) Table {
	t := Table{Name: "category_month_pivot", Headers: []string{"category"}}
	for _, m := range p.Columns {
		t.Headers = append(t.Headers, time.Month(m).String())
	}
	for i, cat := range p.Rows {
		row := []string{cat}
		for _, v := range p.Values[i] {
			row = append(row, money(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func customersTable(rows []domain.CustomerFeatures) Table {
	t := Table{
		Name: "customer_segments",
		Headers: []string{
			"customer_id", "order_count", "total_spend", "distinct_products",
			"first_order", "last_order", "recency_days", "active_span_days",
			"monthly_rate", "cluster", "label",
		},
	}
	for _, c := range rows {
		t.Rows = append(t.Rows, []string{
			c.CustomerID,
			strconv.Itoa(c.OrderCount),
			money(c.TotalSpend),
			strconv.Itoa(c.DistinctProducts),
			date(c.FirstOrder),
			date(c.LastOrder),
			strconv.Itoa(c.RecencyDays),
			strconv.Itoa(c.ActiveSpanDays),
			ratio(c.MonthlyRate),
			strconv.Itoa(c.Cluster),
			c.Label,
		})
	}
	return t
}

func clustersTable(rows []domain.ClusterProfile) Table {
	t := Table{
		Name: "cluster_profiles",
		Headers: []string{
			"cluster", "label", "size", "order_count", "total_spend",
			"distinct_products", "recency_days", "monthly_rate",
		},
	}
	for _, c := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(c.Cluster),
			c.Label,
			strconv.Itoa(c.Size),
			money(c.OrderCount),
			money(c.TotalSpend),
			money(c.DistinctProducts),
			money(c.RecencyDays),
			ratio(c.MonthlyRate),
		})
	}
	return t
}

func segmentCountsTable(rows []domain.SegmentCount) Table {
	t := Table{Name: "segment_counts", Headers: []string{"label", "customers", "mean_spend"}}
	for _, c := range rows {
		t.Rows = append(t.Rows, []string{c.Label, strconv.Itoa(c.Customers), money(c.MeanSpend)})
	}
	return t
}

func festivalTable(name string, rows []domain.FestivalSummary) Table {
	t := Table{Name: name, Headers: []string{"tag", "order_count", "revenue", "mean_discount"}}
	for _, f := range rows {
		t.Rows = append(t.Rows, []string{f.Tag, strconv.Itoa(f.OrderCount), money(f.Revenue), ratio(f.MeanDiscount)})
	}
	return t
}

func discountBucketTable(rows []domain.DiscountBucketSummary) Table {
	t := Table{
		Name:    "discount_buckets",
		Headers: []string{"bucket", "quantity", "revenue", "order_count", "average_order_value"},
	}
	for _, b := range rows {
		t.Rows = append(t.Rows, []string{
			b.Bucket,
			strconv.Itoa(b.Quantity),
			money(b.Revenue),
			strconv.Itoa(b.OrderCount),
			money(b.AverageOrderValue),
		})
	}
	return t
}

func discountSplitTable(name string, rows []domain.DiscountSplit) Table {
	t := Table{Name: name, Headers: []string{"category", "discounted", "order_count", "revenue", "quantity"}}
	for _, d := range rows {
		t.Rows = append(t.Rows, []string{
			d.Category,
			strconv.FormatBool(d.Discounted),
			strconv.Itoa(d.OrderCount),
			money(d.Revenue),
			strconv.Itoa(d.Quantity),
		})
	}
	return t
}

func periodTable(name, period string, rows []domain.PeriodTotal) Table {
	t := Table{Name: name, Headers: []string{"year", period, "revenue"}}
	for _, p := range rows {
		t.Rows = append(t.Rows, []string{strconv.Itoa(p.Year), strconv.Itoa(p.Period), money(p.Revenue)})
	}
	return t
}

// ForecastTable renders historical and forecast rows. Empty cells mark
// values the row does not have.
func ForecastTable(f *domain.Forecast) Table {
	t := Table{
		Name:    "forecast",
		Headers: []string{"date", "period", "kind", "actual", "predicted", "lower", "upper"},
	}
	for _, r := range f.Rows {
		t.Rows = append(t.Rows, []string{
			date(r.Date),
			r.Label,
			string(r.Kind),
			optional(r.Actual),
			money(r.Predicted),
			optional(r.Lower),
			optional(r.Upper),
		})
	}
	return t
}

// AdviceTable renders one row per advice category.
func AdviceTable(advice []domain.Advice) Table {
	t := Table{Name: "advice", Headers: []string{"category", "advice", "fallback"}}
	for _, a := range advice {
		t.Rows = append(t.Rows, []string{string(a.Category), a.Text, strconv.FormatBool(a.Fallback)})
	}
	return t
}
