// Package advisor turns the analytic tables into five plain-text decision
// suggestions: trend, inventory, promotion, customer and product mix.
//
// The rules are fixed thresholds. Each step is isolated: an error or panic
// inside one step yields that step's fallback text and never aborts the
// others.
package advisor
