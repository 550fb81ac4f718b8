package dataprocessing

import (
	"strings"

	"salespulse/pkg/contracts/domain"
)

// headerAliases maps normalized header text to a column. Canonical English
// names and the Chinese headers written by the original order exporter are
// both accepted.
var headerAliases = map[string]domain.Column{
	"订单id":    domain.ColOrderID,
	"日期":      domain.ColDate,
	"年":       domain.ColYear,
	"月":       domain.ColMonth,
	"日":       domain.ColDay,
	"季度":      domain.ColQuarter,
	"商品类别":    domain.ColCategory,
	"子类别":     domain.ColSubcategory,
	"商品名称":    domain.ColProductName,
	"单价":      domain.ColUnitPrice,
	"数量":      domain.ColQuantity,
	"折扣率":     domain.ColDiscountRate,
	"总价":      domain.ColTotalPrice,
	"顾客id":    domain.ColCustomerID,
	"顾客姓名":    domain.ColCustomerName,
	"省份":      domain.ColProvince,
	"城市":      domain.ColCity,
	"地址":      domain.ColAddress,
	"店铺":      domain.ColStore,
	"评分":      domain.ColRating,
	"支付方式":    domain.ColPaymentMethod,
	"配送时间(天)": domain.ColDeliveryDays,
	"配送时间（天）": domain.ColDeliveryDays,

	"order date":    domain.ColDate,
	"order_date":    domain.ColDate,
	"product":       domain.ColProductName,
	"price":         domain.ColUnitPrice,
	"discount":      domain.ColDiscountRate,
	"total":         domain.ColTotalPrice,
	"customer":      domain.ColCustomerID,
	"region":        domain.ColProvince,
	"payment":       domain.ColPaymentMethod,
	"delivery":      domain.ColDeliveryDays,
	"delivery days": domain.ColDeliveryDays,
}

func init() {
	for _, c := range domain.AllColumns {
		headerAliases[string(c)] = c
		headerAliases[strings.ReplaceAll(string(c), "_", " ")] = c
	}
}

// MatchHeader resolves a header cell to a column.
func MatchHeader(header string) (domain.Column, bool) {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	c, ok := headerAliases[key]
	return c, ok
}

// columnIndex maps each recognized column to its position in the header row.
// The first occurrence of a column wins.
func columnIndex(header []string) map[domain.Column]int {
	idx := make(map[domain.Column]int)
	for i, h := range header {
		if c, ok := MatchHeader(h); ok {
			if _, dup := idx[c]; !dup {
				idx[c] = i
			}
		}
	}
	return idx
}

// structField returns the OrderRecord field name backing a column.
var structField = map[domain.Column]string{
	domain.ColOrderID:       "OrderID",
	domain.ColDate:          "Date",
	domain.ColYear:          "Year",
	domain.ColMonth:         "Month",
	domain.ColDay:           "Day",
	domain.ColQuarter:       "Quarter",
	domain.ColCategory:      "Category",
	domain.ColSubcategory:   "Subcategory",
	domain.ColProductName:   "ProductName",
	domain.ColUnitPrice:     "UnitPrice",
	domain.ColQuantity:      "Quantity",
	domain.ColDiscountRate:  "DiscountRate",
	domain.ColTotalPrice:    "TotalPrice",
	domain.ColCustomerID:    "CustomerID",
	domain.ColCustomerName:  "CustomerName",
	domain.ColProvince:      "Province",
	domain.ColCity:          "City",
	domain.ColAddress:       "Address",
	domain.ColStore:         "Store",
	domain.ColRating:        "Rating",
	domain.ColPaymentMethod: "PaymentMethod",
	domain.ColDeliveryDays:  "DeliveryDays",
}
