// Package dataprocessing loads order tables and exposes them as immutable
// datasets.
//
// # Loading
//
// A Loader reads comma-separated text (.csv, UTF-8 BOM tolerated) or a
// spreadsheet (.xlsx). Headers are matched case-insensitively against the
// canonical column names and the Chinese headers of the original order
// export:
//
//	loader := dataprocessing.NewLoader(0, logger)
//	ds, err := loader.Load(ctx, "orders.xlsx")
//
// The date column is required. Year, month, day and quarter are derived from
// it when absent and checked against it when present. A missing total is
// derived as unit price × quantity × discount; stored totals are kept as is
// and divergent rows are reported by CheckTotals.
//
// # Datasets
//
// A Dataset never changes after construction. Filter returns a new dataset;
// Require reports absent columns as a MissingColumnError so that analytic
// operations can validate their inputs before grouping.
package dataprocessing
