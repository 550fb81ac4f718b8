// Package exporter writes derived sales tables to disk.
//
// Tables converts a domain.Report into flat string tables. CSVWriter writes
// them as UTF-8 CSV with a byte order mark so spreadsheet tools detect the
// encoding, and its StreamWriter handles large row-by-row outputs.
// WorkbookWriter puts every table on its own sheet of one .xlsx file.
// ExportAll writes a set of tables concurrently.
//
// Example usage:
//
//	tables := exporter.Tables(report)
//	paths, err := exporter.ExportAll(ctx, "reports", tables, logger)
//	if err != nil {
//		return err
//	}
//	err = exporter.NewWorkbookWriter(logger).Write("reports/report.xlsx", tables)
package exporter
