// Package promotion measures promotional and seasonal effects: festival
// tagging from a calendar of promotional windows, discount-rate buckets,
// the discounted versus full-price split, and monthly and quarterly revenue.
//
// Tags are computed on the fly and returned as new slices; the dataset is
// never annotated, so every call is repeatable.
package promotion
