package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/pkg/contracts/domain"
)

func ptr(v float64) *float64 { return &v }

func sampleReport() *domain.Report {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Report{
		ID:     "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Source: "orders.csv",
		Summary: &domain.DatasetSummary{
			TotalRecords: 3,
			StartDate:    jan,
			EndDate:      feb,
			TotalRevenue: 10000,
		},
		Monthly: &domain.Series{
			Unit: domain.UnitMonth,
			Rows: []domain.BucketRow{
				{Label: "2024-01", Start: jan, Total: 6000},
				{Label: "2024-02", Start: feb, Total: 4000},
			},
		},
		Categories:    []domain.GroupTotal{{Key: "Electronics", Total: 10000}},
		Subcategories: []domain.GroupTotal{{Key: "Electronics", Subcategory: "Phones", Total: 10000}},
		TopProducts:   []domain.ProductRank{{ProductName: "Phone", Value: 10000}},
		Pivot: &domain.PivotTable{
			Rows:    []string{"Electronics"},
			Columns: []int{1, 2},
			Values:  [][]float64{{6000, 4000}},
		},
		Segments: &domain.Segmentation{
			Customers: []domain.CustomerFeatures{{CustomerID: "007", OrderCount: 3, TotalSpend: 10000, Label: "active high-value"}},
			Clusters:  []domain.ClusterProfile{{Cluster: 0, Label: "active high-value", Size: 1}},
		},
		Forecast: &domain.Forecast{
			Method: "linear",
			Unit:   domain.UnitMonth,
			Rows: []domain.ForecastRow{
				{Date: jan, Label: "2024-01", Actual: ptr(6000), Predicted: 6000, Kind: domain.KindHistorical},
				{Date: feb, Label: "2024-02", Predicted: 4000, Lower: ptr(3500), Upper: ptr(4500), Kind: domain.KindForecast},
			},
		},
		Advice:  []domain.Advice{{Category: domain.AdviceTrend, Text: "Sales are declining"}},
		Skipped: []domain.SkippedSection{{Section: "seasonal", Reason: "missing column discount_rate"}},
	}
}

func tableNames(tables []Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

func findTable(t *testing.T, tables []Table, name string) Table {
	t.Helper()
	for _, tb := range tables {
		if tb.Name == name {
			return tb
		}
	}
	require.Failf(t, "table not found", "no table %q in %v", name, tableNames(tables))
	return Table{}
}

func TestTables(t *testing.T) {
	tables := Tables(sampleReport())

	assert.Equal(t, []string{
		"summary",
		"sales_by_month",
		"sales_by_category",
		"sales_by_subcategory",
		"top_products",
		"category_month_pivot",
		"customer_segments",
		"cluster_profiles",
		"forecast",
		"advice",
		"skipped_sections",
	}, tableNames(tables))

	for _, tb := range tables {
		for i, row := range tb.Rows {
			assert.Len(t, row, len(tb.Headers), "%s row %d", tb.Name, i)
		}
	}
}

func TestTables_NilReport(t *testing.T) {
	assert.Nil(t, Tables(nil))
	assert.Empty(t, Tables(&domain.Report{}))
}

func TestTables_Values(t *testing.T) {
	tables := Tables(sampleReport())

	monthly := findTable(t, tables, "sales_by_month")
	assert.Equal(t, []string{"period", "start", "total_price"}, monthly.Headers)
	assert.Equal(t, []string{"2024-01", "2024-01-01", "6000.00"}, monthly.Rows[0])

	sub := findTable(t, tables, "sales_by_subcategory")
	assert.Equal(t, []string{"Electronics", "Phones", "10000.00"}, sub.Rows[0])

	pivot := findTable(t, tables, "category_month_pivot")
	assert.Equal(t, []string{"category", "January", "February"}, pivot.Headers)
	assert.Equal(t, []string{"Electronics", "6000.00", "4000.00"}, pivot.Rows[0])

	fc := findTable(t, tables, "forecast")
	assert.Equal(t, []string{"2024-01-01", "2024-01", "historical", "6000.00", "6000.00", "", ""}, fc.Rows[0])
	assert.Equal(t, []string{"2024-02-01", "2024-02", "forecast", "", "4000.00", "3500.00", "4500.00"}, fc.Rows[1])

	summary := findTable(t, tables, "summary")
	assert.Contains(t, summary.Rows, []string{"total_revenue", "10000.00"})
	assert.Contains(t, summary.Rows, []string{"start_date", "2024-01-01"})

	advice := findTable(t, tables, "advice")
	assert.Equal(t, []string{"trend", "Sales are declining", "false"}, advice.Rows[0])
}

func TestTable_FileName(t *testing.T) {
	assert.Equal(t, "forecast.csv", Table{Name: "forecast"}.FileName("csv"))
}
