package dataprocessing

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// DefaultTotalTolerance is the absolute difference allowed between a stored
// total and price × quantity × discount before the row is reported.
const DefaultTotalTolerance = 0.01

// headerSearchRows bounds how far into a sheet the header row may appear.
const headerSearchRows = 10

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-1-2",
	"2006/1/2",
	time.RFC3339,
}

// Loader reads order tables from CSV or XLSX files and normalizes them into
// a Dataset.
type Loader struct {
	logger    *slog.Logger
	validate  *validator.Validate
	tolerance float64
}

// NewLoader creates a loader. A non-positive tolerance selects
// DefaultTotalTolerance.
func NewLoader(tolerance float64, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if tolerance <= 0 {
		tolerance = DefaultTotalTolerance
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Loader{
		logger:    logger.With(slog.String("component", "loader")),
		validate:  v,
		tolerance: tolerance,
	}
}

// SupportedExtensions lists the file extensions Load accepts.
var SupportedExtensions = []string{".csv", ".xlsx", ".xls"}

// IsSupported reports whether path has a loadable extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ParseFile loads path with a default loader.
func ParseFile(path string) (*Dataset, error) {
	return NewLoader(0, nil).Load(context.Background(), path)
}

// Load reads and normalizes the table at path.
func (l *Loader) Load(ctx context.Context, path string) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var (
		rows [][]string
		err  error
	)
	switch ext {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xls":
		rows, err = l.readWorkbook(path)
	default:
		return nil, errors.NewUnsupportedFormatError(ext)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, columns, err := l.normalize(rows)
	if err != nil {
		return nil, err
	}

	ds := NewDataset(records, columns, path)
	l.logger.InfoContext(ctx, "Dataset loaded",
		slog.String("path", path),
		slog.Int("records", ds.Len()),
		slog.Int("columns", len(columns)))

	if mismatches := ds.CheckTotals(l.tolerance); len(mismatches) > 0 {
		l.logger.WarnContext(ctx, "Stored totals differ from price x quantity x discount",
			slog.Int("rows", len(mismatches)),
			slog.String("first_order_id", mismatches[0].OrderID))
	}
	return ds, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, errors.NewParseError("csv", line, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// readWorkbook returns the rows of the first sheet that carries a
// recognizable header, starting at the header row.
func (l *Loader) readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParseError("workbook", 0, err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			l.logger.Debug("Skipping unreadable sheet", slog.String("sheet", name), slog.String("error", err.Error()))
			continue
		}
		for i := 0; i < len(rows) && i < headerSearchRows; i++ {
			idx := columnIndex(rows[i])
			if _, ok := idx[domain.ColDate]; ok || len(idx) >= 3 {
				l.logger.Debug("Found order sheet",
					slog.String("sheet", name),
					slog.Int("header_row", i+1),
					slog.Int("rows", len(rows)-i-1))
				return rows[i:], nil
			}
		}
	}
	return nil, errors.NewParseError("header", 0, fmt.Errorf("no sheet in %s has a recognizable header row", filepath.Base(path)))
}

// normalize converts raw rows (header first) into records. Rows are numbered
// from 1 at the first data row.
func (l *Loader) normalize(rows [][]string) ([]domain.OrderRecord, domain.ColumnSet, error) {
	if len(rows) == 0 {
		return nil, nil, errors.NewEmptyResultError("input table has no header row")
	}

	idx := columnIndex(rows[0])
	columns := make(domain.ColumnSet, len(idx))
	for c := range idx {
		columns[c] = true
	}
	if !columns.Has(domain.ColDate) {
		return nil, nil, errors.NewMissingColumnError(string(domain.ColDate))
	}
	deriveTotal := !columns.Has(domain.ColTotalPrice) &&
		columns.Has(domain.ColUnitPrice) && columns.Has(domain.ColQuantity)

	fields := make([]string, 0, len(columns)+4)
	for c := range columns {
		fields = append(fields, structField[c])
	}
	for _, c := range []domain.Column{domain.ColYear, domain.ColMonth, domain.ColDay, domain.ColQuarter} {
		if !columns.Has(c) {
			fields = append(fields, structField[c])
			columns[c] = true
		}
	}
	if deriveTotal {
		fields = append(fields, structField[domain.ColTotalPrice])
		columns[domain.ColTotalPrice] = true
	}

	records := make([]domain.OrderRecord, 0, len(rows)-1)
	seen := make(map[string]bool, len(rows)-1)
	duplicates := 0

	for i, raw := range rows[1:] {
		if blankRow(raw) {
			continue
		}
		row := i + 1
		p := rowParser{raw: raw, idx: idx, row: row}

		rec, err := p.record(deriveTotal)
		if err != nil {
			return nil, nil, err
		}
		if err := l.validate.StructPartial(rec, fields...); err != nil {
			col := "record"
			if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
				col = ve[0].Field()
			}
			return nil, nil, errors.NewParseError(col, row, err)
		}

		if seen[rec.OrderID] {
			duplicates++
		}
		seen[rec.OrderID] = true
		records = append(records, rec)
	}

	if duplicates > 0 {
		l.logger.Warn("Duplicate order ids in input", slog.Int("duplicates", duplicates))
	}
	return records, columns, nil
}

type rowParser struct {
	raw []string
	idx map[domain.Column]int
	row int
}

func (p rowParser) cell(c domain.Column) (string, bool) {
	i, ok := p.idx[c]
	if !ok {
		return "", false
	}
	if i >= len(p.raw) {
		return "", true
	}
	return strings.TrimSpace(p.raw[i]), true
}

func (p rowParser) text(c domain.Column) string {
	s, _ := p.cell(c)
	return s
}

func (p rowParser) float(c domain.Column, def float64) (float64, error) {
	s, ok := p.cell(c)
	if !ok || s == "" {
		return def, nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, errors.NewParseError(string(c), p.row, err)
	}
	return v, nil
}

func (p rowParser) int(c domain.Column, def int) (int, error) {
	s, ok := p.cell(c)
	if !ok || s == "" {
		return def, nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, errors.NewParseError(string(c), p.row, err)
	}
	if v != math.Trunc(v) {
		return 0, errors.NewParseError(string(c), p.row, fmt.Errorf("%q is not a whole number", s))
	}
	return int(v), nil
}

// derived checks an explicit calendar column against the value derived from
// the order date.
func (p rowParser) derived(c domain.Column, want int) error {
	got, err := p.int(c, want)
	if err != nil {
		return err
	}
	if got != want {
		return errors.NewParseError(string(c), p.row, fmt.Errorf("value %d disagrees with order date (want %d)", got, want))
	}
	return nil
}

func (p rowParser) record(deriveTotal bool) (domain.OrderRecord, error) {
	var (
		rec domain.OrderRecord
		err error
	)

	ds := p.text(domain.ColDate)
	if ds == "" {
		return rec, errors.NewParseError(string(domain.ColDate), p.row, fmt.Errorf("empty date"))
	}
	if rec.Date, err = parseDate(ds); err != nil {
		return rec, errors.NewParseError(string(domain.ColDate), p.row, err)
	}
	rec.Year = rec.Date.Year()
	rec.Month = int(rec.Date.Month())
	rec.Day = rec.Date.Day()
	rec.Quarter = domain.QuarterOf(rec.Month)

	for c, want := range map[domain.Column]int{
		domain.ColYear:    rec.Year,
		domain.ColMonth:   rec.Month,
		domain.ColDay:     rec.Day,
		domain.ColQuarter: rec.Quarter,
	} {
		if err := p.derived(c, want); err != nil {
			return rec, err
		}
	}

	rec.OrderID = p.text(domain.ColOrderID)
	if rec.OrderID == "" {
		rec.OrderID = fmt.Sprintf("ROW%06d", p.row)
	}
	rec.Category = p.text(domain.ColCategory)
	rec.Subcategory = p.text(domain.ColSubcategory)
	rec.ProductName = p.text(domain.ColProductName)
	rec.CustomerID = p.text(domain.ColCustomerID)
	rec.CustomerName = p.text(domain.ColCustomerName)
	rec.Province = p.text(domain.ColProvince)
	rec.City = p.text(domain.ColCity)
	rec.Address = p.text(domain.ColAddress)
	rec.Store = p.text(domain.ColStore)
	rec.PaymentMethod = p.text(domain.ColPaymentMethod)

	if rec.UnitPrice, err = p.float(domain.ColUnitPrice, 0); err != nil {
		return rec, err
	}
	if rec.Quantity, err = p.int(domain.ColQuantity, 1); err != nil {
		return rec, err
	}
	if rec.DiscountRate, err = p.float(domain.ColDiscountRate, 1.0); err != nil {
		return rec, err
	}
	if rec.Rating, err = p.int(domain.ColRating, 0); err != nil {
		return rec, err
	}
	if rec.DeliveryDays, err = p.int(domain.ColDeliveryDays, 0); err != nil {
		return rec, err
	}

	if deriveTotal {
		rec.TotalPrice = rec.ExpectedTotal()
	} else if rec.TotalPrice, err = p.float(domain.ColTotalPrice, 0); err != nil {
		return rec, err
	}
	return rec, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseDate accepts the common text layouts and spreadsheet serial numbers.
// The time of day is dropped.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}
