package segmentation

import (
	"fmt"
	"sort"
	"time"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

const (
	hoursPerDay  = 24
	daysPerMonth = 30.0
)

// RequiredColumns lists the columns BuildFeatures reads.
var RequiredColumns = []domain.Column{
	domain.ColCustomerID, domain.ColDate, domain.ColTotalPrice, domain.ColProductName,
}

// BuildFeatures aggregates orders per customer. Recency is measured against
// the latest order date in the dataset. Customers are sorted by id.
func BuildFeatures(ds *dataprocessing.Dataset) ([]domain.CustomerFeatures, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.NewNotLoadedError("customer segmentation")
	}
	if err := ds.Require(RequiredColumns...); err != nil {
		return nil, fmt.Errorf("customer segmentation: %w", err)
	}

	type acc struct {
		f        domain.CustomerFeatures
		products map[string]struct{}
	}
	byID := make(map[string]*acc)
	ds.Each(func(_ int, r domain.OrderRecord) {
		a, ok := byID[r.CustomerID]
		if !ok {
			a = &acc{
				f:        domain.CustomerFeatures{CustomerID: r.CustomerID, FirstOrder: r.Date, LastOrder: r.Date},
				products: make(map[string]struct{}),
			}
			byID[r.CustomerID] = a
		}
		a.f.OrderCount++
		a.f.TotalSpend += r.TotalPrice
		a.products[r.ProductName] = struct{}{}
		if r.Date.Before(a.f.FirstOrder) {
			a.f.FirstOrder = r.Date
		}
		if r.Date.After(a.f.LastOrder) {
			a.f.LastOrder = r.Date
		}
	})

	maxDate := ds.MaxDate()
	out := make([]domain.CustomerFeatures, 0, len(byID))
	for _, a := range byID {
		f := a.f
		f.DistinctProducts = len(a.products)
		f.RecencyDays = daysBetween(f.LastOrder, maxDate)
		f.ActiveSpanDays = max(daysBetween(f.FirstOrder, f.LastOrder), 1)
		f.MonthlyRate = float64(f.OrderCount) / (float64(f.ActiveSpanDays) / daysPerMonth)
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / hoursPerDay)
}
