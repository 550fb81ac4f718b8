package domain

import "time"

// CustomerFeatures holds the behavioral features of one customer plus the
// cluster it was assigned to.
type CustomerFeatures struct {
	CustomerID       string    `json:"customer_id"`
	OrderCount       int       `json:"order_count"`
	TotalSpend       float64   `json:"total_spend"`
	DistinctProducts int       `json:"distinct_products"`
	FirstOrder       time.Time `json:"first_order"`
	LastOrder        time.Time `json:"last_order"`
	RecencyDays      int       `json:"recency_days"`
	ActiveSpanDays   int       `json:"active_span_days"`
	MonthlyRate      float64   `json:"monthly_rate"`
	Cluster          int       `json:"cluster"`
	Label            string    `json:"label"`
}

// Vector returns the five clustering features in fixed order: order count,
// total spend, distinct products, recency days, monthly rate.
func (c CustomerFeatures) Vector() []float64 {
	return []float64{
		float64(c.OrderCount),
		c.TotalSpend,
		float64(c.DistinctProducts),
		float64(c.RecencyDays),
		c.MonthlyRate,
	}
}

// ClusterProfile is the mean feature vector of one cluster.
type ClusterProfile struct {
	Cluster          int     `json:"cluster"`
	Label            string  `json:"label"`
	Size             int     `json:"size"`
	OrderCount       float64 `json:"order_count"`
	TotalSpend       float64 `json:"total_spend"`
	DistinctProducts float64 `json:"distinct_products"`
	RecencyDays      float64 `json:"recency_days"`
	MonthlyRate      float64 `json:"monthly_rate"`
}

// Segmentation is the result of a customer segmentation run.
type Segmentation struct {
	Customers []CustomerFeatures `json:"customers"`
	Clusters  []ClusterProfile   `json:"clusters"`
}

// SegmentCount summarizes one label across clusters.
type SegmentCount struct {
	Label     string  `json:"label"`
	Customers int     `json:"customers"`
	MeanSpend float64 `json:"mean_spend"`
}
