package advisor

import (
	"fmt"
	"strings"

	"salespulse/internal/analytics"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/segmentation"
	"salespulse/pkg/contracts/domain"
)

const (
	fallbackTrend      = "Unable to analyze the sales trend"
	fallbackInventory  = "Unable to generate inventory advice"
	fallbackPromotion  = "Unable to generate promotion advice"
	fallbackCustomer   = "Unable to generate customer marketing advice"
	fallbackProductMix = "Unable to generate product mix advice"
)

// Rule thresholds. Growth is month over month; concentration is a revenue share.
const (
	strongGrowth   = 0.10
	flatDecline    = -0.05
	trendWindow    = 3
	minTrendBucket = 2
	concentration  = 0.4
	projectionBand = 1.0 // percent
)

func (g *Generator) trend(ds *dataprocessing.Dataset, opts Options) (string, error) {
	series, err := analytics.SalesByTime(ds, domain.UnitMonth, opts.Category)
	if err != nil {
		return "", err
	}
	if series.Len() < minTrendBucket {
		return "Not enough monthly data to analyze the recent trend", nil
	}

	recent := series.Values()
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}
	prev, last := recent[len(recent)-2], recent[len(recent)-1]
	if prev == 0 {
		return "", fmt.Errorf("previous month has no revenue")
	}
	growth := (last - prev) / prev
	pct := growth * 100

	var text string
	switch {
	case growth > strongGrowth:
		text = g.printer.Sprintf("Sales show a strong upward trend (growth %.1f%%); increase stock and step up marketing to meet demand", pct)
	case growth > 0:
		text = g.printer.Sprintf("Sales show a mild upward trend (growth %.1f%%); maintain the current strategy and watch customer feedback", pct)
	case growth > flatDecline:
		text = g.printer.Sprintf("Sales are flat or slightly down (change %.1f%%); run promotions to lift volume", pct)
	default:
		text = g.printer.Sprintf("Sales are declining (change %.1f%%); investigate the causes and reassess pricing or the product line", pct)
	}
	if note := g.projection(opts.Forecast); note != "" {
		text = join(text, note)
	}
	return text, nil
}

// projection describes where the forecast ends relative to the last fitted
// bucket. Forecasts without future rows yield "".
func (g *Generator) projection(f *domain.Forecast) string {
	if f == nil || f.Periods < 1 || len(f.Rows) <= f.Periods {
		return ""
	}
	pct := f.Trend() * 100
	horizon := fmt.Sprintf("%d %ss", f.Periods, f.Unit)
	if f.Periods == 1 {
		horizon = string(f.Unit)
	}

	switch {
	case pct > projectionBand:
		return g.printer.Sprintf("the %s forecast projects growth of %.1f%% over the next %s", f.Method, pct, horizon)
	case pct < -projectionBand:
		return g.printer.Sprintf("the %s forecast projects a decline of %.1f%% over the next %s", f.Method, -pct, horizon)
	default:
		return g.printer.Sprintf("the %s forecast projects a stable level over the next %s", f.Method, horizon)
	}
}

func (g *Generator) inventory(ds *dataprocessing.Dataset, opts Options) (string, error) {
	top, err := analytics.TopProducts(ds, 5, analytics.MeasureQuantity, opts.Category)
	if err != nil {
		return "", err
	}

	if ds.Has(domain.ColDiscountRate) {
		if len(top) == 0 {
			return "Not enough data for specific inventory advice", nil
		}
		return join(
			fmt.Sprintf("Keep best seller '%s' well stocked with safety stock and an automatic reorder point", top[0].ProductName),
			"Monitor stock levels regularly and stock up early on items with high forecast demand",
			"Apply a seasonal inventory policy to seasonal items and build stock before peak season",
		), nil
	}
	if len(top) == 0 {
		return "Adopt data-driven inventory management that adjusts to historical sales", nil
	}
	return fmt.Sprintf("Keep best seller '%s' well stocked; adopt data-driven inventory management", top[0].ProductName), nil
}

func (g *Generator) promotion(ds *dataprocessing.Dataset, _ Options) (string, error) {
	if !ds.Has(domain.ColDiscountRate) {
		return "Discount data is missing; no promotion advice is available", nil
	}

	buckets, err := g.promo.DiscountBuckets(ds)
	if err != nil {
		return "", err
	}
	byQty, byRev := -1, -1
	for i, b := range buckets {
		if b.OrderCount == 0 {
			continue
		}
		if byQty < 0 || b.Quantity > buckets[byQty].Quantity {
			byQty = i
		}
		if byRev < 0 || b.Revenue > buckets[byRev].Revenue {
			byRev = i
		}
	}
	if byQty < 0 {
		return "Use light discounts on best sellers and deep discounts on slow movers", nil
	}

	var points []string
	qty, rev := buckets[byQty].Bucket, buckets[byRev].Bucket
	if byQty == byRev {
		points = append(points, fmt.Sprintf("'%s' performs best on both volume and revenue, make it the main discount strategy", qty))
	} else {
		points = append(points,
			fmt.Sprintf("'%s' performs best on volume", qty),
			fmt.Sprintf("'%s' performs best on total revenue", rev),
			fmt.Sprintf("Choose the discount by goal: use '%s' to lift volume and '%s' to lift revenue", qty, rev),
		)
	}

	festivals, err := g.promo.FestivalSummary(ds)
	if err != nil {
		return "", err
	}
	if len(festivals) > 0 {
		best := festivals[0]
		for _, f := range festivals[1:] {
			if f.Revenue > best.Revenue {
				best = f
			}
		}
		points = append(points, fmt.Sprintf("'%s' is the strongest sales period, concentrate promotions there", best.Tag))
	}
	return join(points...), nil
}

func (g *Generator) customer(ds *dataprocessing.Dataset, opts Options) (string, error) {
	seg, err := segmentation.Segment(ds, opts.Clusters, opts.Seed)
	if err != nil {
		return "", err
	}
	counts := segmentation.Counts(seg)
	if len(counts) == 0 {
		return "No distinct customer groups found; improve customer data collection", nil
	}

	var points []string
	for _, c := range counts {
		if action := customerAction(c.Label); action != "" {
			points = append(points, g.printer.Sprintf("For '%s' (%d customers, mean spend %.2f): %s",
				c.Label, c.Customers, c.MeanSpend, action))
		}
	}
	points = append(points, "Build customer lifecycle management and tailor marketing to each stage")
	return join(points...), nil
}

func customerAction(label string) string {
	high := strings.Contains(label, "high-value")
	low := strings.Contains(label, "low-value")
	active := strings.Contains(label, segmentation.PrefixActive)
	atRisk := strings.Contains(label, segmentation.PrefixAtRisk)

	switch {
	case high && active:
		return "offer VIP service and exclusive deals to deepen loyalty"
	case high && atRisk:
		return "run a win-back program with personalized offers and rewards"
	case low && active:
		return "up-sell and cross-sell to raise the average order value"
	case low && atRisk:
		return "weigh the marketing cost and use low-cost automated campaigns or let them go"
	}
	return ""
}

func (g *Generator) productMix(ds *dataprocessing.Dataset, opts Options) (string, error) {
	cats, err := analytics.SalesByCategory(ds, false)
	if err != nil {
		return "", err
	}
	if len(cats) == 0 {
		return "Not enough data for product mix advice", nil
	}

	var total float64
	for _, c := range cats {
		total += c.Total
	}
	if total == 0 {
		return "", fmt.Errorf("categories have no revenue")
	}
	top := cats[0]
	share := top.Total / total

	bottom := cats[len(cats)-1:]
	if len(cats) >= 3 {
		bottom = cats[len(cats)-3:]
	}
	names := make([]string, len(bottom))
	for i, c := range bottom {
		names[i] = c.Key
	}

	points := []string{
		g.printer.Sprintf("Develop the '%s' category, which brings in %.2f (%.1f%% of revenue), consider widening the line or raising margins",
			top.Key, top.Total, share*100),
		fmt.Sprintf("Review the strategy for '%s': innovate, reprice or retire weak products", strings.Join(names, ", ")),
	}
	if share > concentration {
		points = append(points, fmt.Sprintf("The mix depends heavily on '%s', diversify to spread the risk", top.Key))
	} else {
		points = append(points, "The mix is fairly balanced, keep it diversified and adjust to market feedback")
	}

	products, err := analytics.TopProducts(ds, 3, analytics.MeasureRevenue, opts.Category)
	if err != nil {
		return "", err
	}
	if len(products) > 0 {
		pn := make([]string, len(products))
		for i, p := range products {
			pn[i] = p.ProductName
		}
		points = append(points, fmt.Sprintf("Best sellers '%s' stand out, strengthen the supply chain to keep them in stock", strings.Join(pn, ", ")))
	}
	return join(points...), nil
}
