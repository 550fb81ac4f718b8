package exporter

import (
	"strconv"

	"salespulse/pkg/contracts/domain"
)

// OrderHeader returns the canonical header cells for cols.
func OrderHeader(cols []domain.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}

// OrderRow renders rec in the order of cols. Numbers keep full precision so
// a reload reproduces the same record.
func OrderRow(rec domain.OrderRecord, cols []domain.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = orderField(rec, c)
	}
	return out
}

func orderField(rec domain.OrderRecord, c domain.Column) string {
	exact := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	switch c {
	case domain.ColOrderID:
		return rec.OrderID
	case domain.ColDate:
		return date(rec.Date)
	case domain.ColYear:
		return strconv.Itoa(rec.Year)
	case domain.ColMonth:
		return strconv.Itoa(rec.Month)
	case domain.ColDay:
		return strconv.Itoa(rec.Day)
	case domain.ColQuarter:
		return strconv.Itoa(rec.Quarter)
	case domain.ColCategory:
		return rec.Category
	case domain.ColSubcategory:
		return rec.Subcategory
	case domain.ColProductName:
		return rec.ProductName
	case domain.ColUnitPrice:
		return exact(rec.UnitPrice)
	case domain.ColQuantity:
		return strconv.Itoa(rec.Quantity)
	case domain.ColDiscountRate:
		return exact(rec.DiscountRate)
	case domain.ColTotalPrice:
		return exact(rec.TotalPrice)
	case domain.ColCustomerID:
		return rec.CustomerID
	case domain.ColCustomerName:
		return rec.CustomerName
	case domain.ColProvince:
		return rec.Province
	case domain.ColCity:
		return rec.City
	case domain.ColAddress:
		return rec.Address
	case domain.ColStore:
		return rec.Store
	case domain.ColRating:
		if rec.Rating == 0 {
			return ""
		}
		return strconv.Itoa(rec.Rating)
	case domain.ColPaymentMethod:
		return rec.PaymentMethod
	case domain.ColDeliveryDays:
		return strconv.Itoa(rec.DeliveryDays)
	}
	return ""
}
