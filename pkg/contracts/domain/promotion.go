package domain

// FestivalSummary aggregates orders sharing one promotional tag.
type FestivalSummary struct {
	Tag          string  `json:"tag"`
	OrderCount   int     `json:"order_count"`
	Revenue      float64 `json:"revenue"`
	MeanDiscount float64 `json:"mean_discount"`
}

// DiscountBucketSummary aggregates orders within one discount range.
type DiscountBucketSummary struct {
	Bucket            string  `json:"bucket"`
	Quantity          int     `json:"quantity"`
	Revenue           float64 `json:"revenue"`
	OrderCount        int     `json:"order_count"`
	AverageOrderValue float64 `json:"average_order_value"`
}

// DiscountSplit compares discounted and full-price orders.
type DiscountSplit struct {
	Category   string  `json:"category,omitempty"`
	Discounted bool    `json:"discounted"`
	OrderCount int     `json:"order_count"`
	Revenue    float64 `json:"revenue"`
	Quantity   int     `json:"quantity"`
}

// PeriodTotal is revenue for a (year, period) pair where period is a month
// or a quarter.
type PeriodTotal struct {
	Year    int     `json:"year"`
	Period  int     `json:"period"`
	Revenue float64 `json:"revenue"`
}

// SeasonalTrends bundles monthly, quarterly and festival revenue.
type SeasonalTrends struct {
	Monthly   []PeriodTotal     `json:"monthly"`
	Quarterly []PeriodTotal     `json:"quarterly"`
	Festivals []FestivalSummary `json:"festivals"`
}

// AdviceCategory names one section of the decision suggestions.
type AdviceCategory string

const (
	AdviceTrend      AdviceCategory = "trend"
	AdviceInventory  AdviceCategory = "inventory"
	AdvicePromotion  AdviceCategory = "promotion"
	AdviceCustomer   AdviceCategory = "customer"
	AdviceProductMix AdviceCategory = "product-mix"
)

// Advice is one decision suggestion entry.
type Advice struct {
	Category AdviceCategory `json:"category"`
	Text     string         `json:"text"`
	Fallback bool           `json:"fallback,omitempty"`
}
