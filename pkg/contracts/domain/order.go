package domain

import (
	"sort"
	"time"
)

// OrderRecord represents one row of the order table after normalization.
// Records are never modified once a dataset has been loaded.
type OrderRecord struct {
	OrderID       string    `json:"order_id" validate:"required"`
	Date          time.Time `json:"date" validate:"required"`
	Year          int       `json:"year" validate:"min=1"`
	Month         int       `json:"month" validate:"min=1,max=12"`
	Day           int       `json:"day" validate:"min=1,max=31"`
	Quarter       int       `json:"quarter" validate:"min=1,max=4"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory,omitempty"`
	ProductName   string    `json:"product_name"`
	UnitPrice     float64   `json:"unit_price" validate:"min=0"`
	Quantity      int       `json:"quantity" validate:"min=1"`
	DiscountRate  float64   `json:"discount_rate" validate:"gt=0,lte=1"`
	TotalPrice    float64   `json:"total_price" validate:"min=0"`
	CustomerID    string    `json:"customer_id"`
	CustomerName  string    `json:"customer_name,omitempty"`
	Province      string    `json:"province,omitempty"`
	City          string    `json:"city,omitempty"`
	Address       string    `json:"address,omitempty"`
	Store         string    `json:"store,omitempty"`
	Rating        int       `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	DeliveryDays  int       `json:"delivery_days" validate:"min=0"`
}

// ExpectedTotal returns price × quantity × discount.
func (o OrderRecord) ExpectedTotal() float64 {
	return o.UnitPrice * float64(o.Quantity) * o.DiscountRate
}

// Discounted reports whether the order was sold below list price.
func (o OrderRecord) Discounted() bool {
	return o.DiscountRate < 1.0
}

// QuarterOf returns the calendar quarter (1-4) for a month (1-12).
func QuarterOf(month int) int {
	return (month-1)/3 + 1
}

// Column identifies a field of the order table.
type Column string

const (
	ColOrderID       Column = "order_id"
	ColDate          Column = "date"
	ColYear          Column = "year"
	ColMonth         Column = "month"
	ColDay           Column = "day"
	ColQuarter       Column = "quarter"
	ColCategory      Column = "category"
	ColSubcategory   Column = "subcategory"
	ColProductName   Column = "product_name"
	ColUnitPrice     Column = "unit_price"
	ColQuantity      Column = "quantity"
	ColDiscountRate  Column = "discount_rate"
	ColTotalPrice    Column = "total_price"
	ColCustomerID    Column = "customer_id"
	ColCustomerName  Column = "customer_name"
	ColProvince      Column = "province"
	ColCity          Column = "city"
	ColAddress       Column = "address"
	ColStore         Column = "store"
	ColRating        Column = "rating"
	ColPaymentMethod Column = "payment_method"
	ColDeliveryDays  Column = "delivery_days"
)

// AllColumns lists the table columns in their canonical file order.
var AllColumns = []Column{
	ColOrderID, ColDate, ColYear, ColMonth, ColDay, ColQuarter,
	ColCategory, ColSubcategory, ColProductName, ColUnitPrice, ColQuantity,
	ColDiscountRate, ColTotalPrice, ColCustomerID, ColCustomerName,
	ColProvince, ColCity, ColAddress, ColStore, ColRating,
	ColPaymentMethod, ColDeliveryDays,
}

// ColumnSet records which columns were present in a source table.
type ColumnSet map[Column]bool

// NewColumnSet builds a set from the given columns.
func NewColumnSet(cols ...Column) ColumnSet {
	set := make(ColumnSet, len(cols))
	for _, c := range cols {
		set[c] = true
	}
	return set
}

// Has reports whether the column is present.
func (s ColumnSet) Has(c Column) bool {
	return s[c]
}

// Missing returns the subset of required columns that are absent, in the
// order they were requested.
func (s ColumnSet) Missing(required ...Column) []Column {
	var missing []Column
	for _, c := range required {
		if !s[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// Sorted returns the present columns in canonical order.
func (s ColumnSet) Sorted() []Column {
	order := make(map[Column]int, len(AllColumns))
	for i, c := range AllColumns {
		order[c] = i
	}
	cols := make([]Column, 0, len(s))
	for c, ok := range s {
		if ok {
			cols = append(cols, c)
		}
	}
	sort.Slice(cols, func(i, j int) bool {
		return order[cols[i]] < order[cols[j]]
	})
	return cols
}

// Clone returns an independent copy of the set.
func (s ColumnSet) Clone() ColumnSet {
	out := make(ColumnSet, len(s))
	for c, ok := range s {
		out[c] = ok
	}
	return out
}

// DatasetSummary is the overview shown after a table is loaded.
type DatasetSummary struct {
	TotalRecords  int       `json:"total_records"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	CategoryCount int       `json:"category_count"`
	Categories    []string  `json:"categories"`
	AverageOrder  float64   `json:"average_order"`
	MaxOrder      float64   `json:"max_order"`
	CustomerCount int       `json:"customer_count"`
	StoreCount    int       `json:"store_count"`
	TotalRevenue  float64   `json:"total_revenue"`
}

// TotalMismatch describes a record whose stored total does not match
// price × quantity × discount.
type TotalMismatch struct {
	OrderID  string  `json:"order_id"`
	Row      int     `json:"row"`
	Stored   float64 `json:"stored"`
	Expected float64 `json:"expected"`
}
