package testutil

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"salespulse/pkg/contracts/domain"
)

// Categories used by generated fixtures.
var Categories = []string{"Electronics", "Clothing", "Food", "Books", "Home"}

var subcategories = map[string][]string{
	"Electronics": {"Phones", "Laptops", "Audio"},
	"Clothing":    {"Tops", "Shoes"},
	"Food":        {"Snacks", "Drinks"},
	"Books":       {"Fiction", "Education"},
	"Home":        {"Kitchen", "Bedding"},
}

var discounts = []float64{0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0, 1.0, 1.0}

// OrderOptions controls fixture generation.
type OrderOptions struct {
	Seed      int64
	Count     int
	Customers int
	Start     time.Time
	End       time.Time
}

// RandomOrders returns a reproducible table of valid order records. Totals
// always equal price × quantity × discount rounded to cents.
func RandomOrders(opts OrderOptions) []domain.OrderRecord {
	if opts.Count <= 0 {
		opts.Count = 200
	}
	if opts.Customers <= 0 {
		opts.Customers = 40
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.End.IsZero() {
		opts.End = time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	}

	f := gofakeit.New(opts.Seed)

	customers := make([]string, opts.Customers)
	names := make([]string, opts.Customers)
	for i := range customers {
		customers[i] = fmt.Sprintf("C%04d", i+1)
		names[i] = f.Name()
	}

	days := int(opts.End.Sub(opts.Start).Hours()/24) + 1
	orders := make([]domain.OrderRecord, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		date := opts.Start.AddDate(0, 0, f.Number(0, days-1))
		category := f.RandomString(Categories)
		sub := f.RandomString(subcategories[category])
		price := math.Round(f.Float64Range(5, 500)*100) / 100
		qty := f.Number(1, 5)
		discount := discounts[f.Number(0, len(discounts)-1)]
		cust := f.Number(0, opts.Customers-1)
		addr := f.Address()

		orders = append(orders, domain.OrderRecord{
			OrderID:       fmt.Sprintf("ORD%06d", i+1),
			Date:          date,
			Year:          date.Year(),
			Month:         int(date.Month()),
			Day:           date.Day(),
			Quarter:       domain.QuarterOf(int(date.Month())),
			Category:      category,
			Subcategory:   sub,
			ProductName:   fmt.Sprintf("%s %s %d", category, sub, f.Number(1, 8)),
			UnitPrice:     price,
			Quantity:      qty,
			DiscountRate:  discount,
			TotalPrice:    math.Round(price*float64(qty)*discount*100) / 100,
			CustomerID:    customers[cust],
			CustomerName:  names[cust],
			Province:      addr.State,
			City:          addr.City,
			Address:       addr.Street,
			Store:         fmt.Sprintf("Store %d", f.Number(1, 6)),
			Rating:        f.Number(1, 5),
			PaymentMethod: f.RandomString([]string{"card", "wallet", "cash"}),
			DeliveryDays:  f.Number(0, 7),
		})
	}
	return orders
}

// Order builds a single record with the fields most tests care about; the
// rest are filled with fixed values.
func Order(id string, date time.Time, category, product, customer string, price float64, qty int, discount float64) domain.OrderRecord {
	return domain.OrderRecord{
		OrderID:       id,
		Date:          date,
		Year:          date.Year(),
		Month:         int(date.Month()),
		Day:           date.Day(),
		Quarter:       domain.QuarterOf(int(date.Month())),
		Category:      category,
		Subcategory:   category + " general",
		ProductName:   product,
		UnitPrice:     price,
		Quantity:      qty,
		DiscountRate:  discount,
		TotalPrice:    price * float64(qty) * discount,
		CustomerID:    customer,
		Province:      "North",
		City:          "Harbor",
		Store:         "Main",
		Rating:        5,
		PaymentMethod: "card",
		DeliveryDays:  2,
	}
}

// Date is shorthand for a UTC calendar date.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WriteOrdersCSV writes orders with canonical headers and returns the path.
func WriteOrdersCSV(t *testing.T, dir string, orders []domain.OrderRecord) string {
	t.Helper()

	path := filepath.Join(dir, "orders.csv")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := make([]string, len(domain.AllColumns))
	for i, c := range domain.AllColumns {
		header[i] = string(c)
	}
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, o := range orders {
		if err := w.Write(OrderRow(o)); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush fixture: %v", err)
	}
	return path
}

// OrderRow renders a record in canonical column order.
func OrderRow(o domain.OrderRecord) []string {
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		o.OrderID,
		o.Date.Format("2006-01-02"),
		strconv.Itoa(o.Year),
		strconv.Itoa(o.Month),
		strconv.Itoa(o.Day),
		strconv.Itoa(o.Quarter),
		o.Category,
		o.Subcategory,
		o.ProductName,
		ff(o.UnitPrice),
		strconv.Itoa(o.Quantity),
		ff(o.DiscountRate),
		ff(o.TotalPrice),
		o.CustomerID,
		o.CustomerName,
		o.Province,
		o.City,
		o.Address,
		o.Store,
		strconv.Itoa(o.Rating),
		o.PaymentMethod,
		strconv.Itoa(o.DeliveryDays),
	}
}
