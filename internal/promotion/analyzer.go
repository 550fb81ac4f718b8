package promotion

import (
	"fmt"
	"sort"
	"time"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Analyzer tags and buckets orders according to a promotional calendar.
type Analyzer struct {
	cal *config.Calendar
}

// NewAnalyzer creates an analyzer. A nil calendar selects
// config.DefaultCalendar.
func NewAnalyzer(cal *config.Calendar) *Analyzer {
	if cal == nil {
		cal = config.DefaultCalendar()
	}
	return &Analyzer{cal: cal}
}

// Calendar returns the calendar in use.
func (a *Analyzer) Calendar() *config.Calendar { return a.cal }

// Tag returns the promotional tag for a date. Windows are applied in order
// and the last matching window wins.
func (a *Analyzer) Tag(t time.Time) string {
	tag := a.cal.DefaultTag
	for _, w := range a.cal.Windows {
		if w.Matches(t) {
			tag = w.Name
		}
	}
	return tag
}

// TagAll returns one tag per record, in dataset order.
func (a *Analyzer) TagAll(ds *dataprocessing.Dataset) []string {
	tags := make([]string, 0, ds.Len())
	ds.Each(func(_ int, r domain.OrderRecord) {
		tags = append(tags, a.Tag(r.Date))
	})
	return tags
}

// Bucket returns the discount bucket label for a rate. Buckets are
// right-inclusive: a rate equal to an edge belongs to the lower bucket. It
// returns "" for a rate above the last edge.
func (a *Analyzer) Bucket(rate float64) string {
	for _, b := range a.cal.DiscountBuckets {
		if rate <= b.Upper {
			return b.Label
		}
	}
	return ""
}

func checkDataset(ds *dataprocessing.Dataset, op string, cols ...domain.Column) error {
	if ds == nil {
		return errors.NewNotLoadedError(op)
	}
	if err := ds.Require(cols...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ds.Len() == 0 {
		return errors.NewEmptyResultError(op + ": dataset has no records")
	}
	return nil
}

// FestivalSummary aggregates order count, revenue and mean discount per
// tag. Rows follow the calendar's tag order; tags without orders are
// omitted.
func (a *Analyzer) FestivalSummary(ds *dataprocessing.Dataset) ([]domain.FestivalSummary, error) {
	if err := checkDataset(ds, "festival summary", domain.ColDate, domain.ColTotalPrice); err != nil {
		return nil, err
	}

	sums := make(map[string]*domain.FestivalSummary)
	ds.Each(func(_ int, r domain.OrderRecord) {
		tag := a.Tag(r.Date)
		s, ok := sums[tag]
		if !ok {
			s = &domain.FestivalSummary{Tag: tag}
			sums[tag] = s
		}
		s.OrderCount++
		s.Revenue += r.TotalPrice
		s.MeanDiscount += r.DiscountRate
	})

	out := make([]domain.FestivalSummary, 0, len(sums))
	for _, tag := range a.cal.Tags() {
		s, ok := sums[tag]
		if !ok {
			continue
		}
		s.MeanDiscount /= float64(s.OrderCount)
		out = append(out, *s)
	}
	return out, nil
}

// DiscountBuckets aggregates quantity, revenue and order count per discount
// bucket. Every bucket is returned in calendar order; the average order
// value of an empty bucket is 0.
func (a *Analyzer) DiscountBuckets(ds *dataprocessing.Dataset) ([]domain.DiscountBucketSummary, error) {
	if err := checkDataset(ds, "discount buckets", domain.ColDiscountRate, domain.ColQuantity, domain.ColTotalPrice); err != nil {
		return nil, err
	}

	out := make([]domain.DiscountBucketSummary, len(a.cal.DiscountBuckets))
	index := make(map[string]int, len(out))
	for i, b := range a.cal.DiscountBuckets {
		out[i].Bucket = b.Label
		index[b.Label] = i
	}

	ds.Each(func(_ int, r domain.OrderRecord) {
		label := a.Bucket(r.DiscountRate)
		if label == "" {
			return
		}
		s := &out[index[label]]
		s.Quantity += r.Quantity
		s.Revenue += r.TotalPrice
		s.OrderCount++
	})

	for i := range out {
		if out[i].OrderCount > 0 {
			out[i].AverageOrderValue = out[i].Revenue / float64(out[i].OrderCount)
		}
	}
	return out, nil
}

// DiscountEffect splits orders into full-price and discounted groups, overall
// and per category. Full-price rows come first; categories are sorted by
// name.
func DiscountEffect(ds *dataprocessing.Dataset) (overall, byCategory []domain.DiscountSplit, err error) {
	if err := checkDataset(ds, "discount effect", domain.ColDiscountRate, domain.ColTotalPrice, domain.ColQuantity, domain.ColCategory); err != nil {
		return nil, nil, err
	}

	type key struct {
		overall    bool
		category   string
		discounted bool
	}
	groups := make(map[key]*domain.DiscountSplit)
	add := func(k key, r domain.OrderRecord) {
		s, ok := groups[k]
		if !ok {
			s = &domain.DiscountSplit{Category: k.category, Discounted: k.discounted}
			groups[k] = s
		}
		s.OrderCount++
		s.Revenue += r.TotalPrice
		s.Quantity += r.Quantity
	}
	ds.Each(func(_ int, r domain.OrderRecord) {
		add(key{overall: true, discounted: r.Discounted()}, r)
		add(key{category: r.Category, discounted: r.Discounted()}, r)
	})

	for k, s := range groups {
		if k.overall {
			overall = append(overall, *s)
		} else {
			byCategory = append(byCategory, *s)
		}
	}
	less := func(x, y domain.DiscountSplit) bool {
		if x.Category != y.Category {
			return x.Category < y.Category
		}
		return !x.Discounted && y.Discounted
	}
	sort.Slice(overall, func(i, j int) bool { return less(overall[i], overall[j]) })
	sort.Slice(byCategory, func(i, j int) bool { return less(byCategory[i], byCategory[j]) })
	return overall, byCategory, nil
}

// SeasonalTrends returns revenue per (year, month) and (year, quarter) in
// chronological order together with the festival summary.
func (a *Analyzer) SeasonalTrends(ds *dataprocessing.Dataset) (*domain.SeasonalTrends, error) {
	if err := checkDataset(ds, "seasonal trends", domain.ColDate, domain.ColTotalPrice); err != nil {
		return nil, err
	}

	festivals, err := a.FestivalSummary(ds)
	if err != nil {
		return nil, err
	}

	type period struct{ year, n int }
	monthly := make(map[period]float64)
	quarterly := make(map[period]float64)
	ds.Each(func(_ int, r domain.OrderRecord) {
		m := int(r.Date.Month())
		monthly[period{r.Date.Year(), m}] += r.TotalPrice
		quarterly[period{r.Date.Year(), domain.QuarterOf(m)}] += r.TotalPrice
	})

	flatten := func(in map[period]float64) []domain.PeriodTotal {
		out := make([]domain.PeriodTotal, 0, len(in))
		for p, v := range in {
			out = append(out, domain.PeriodTotal{Year: p.year, Period: p.n, Revenue: v})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Year != out[j].Year {
				return out[i].Year < out[j].Year
			}
			return out[i].Period < out[j].Period
		})
		return out
	}

	return &domain.SeasonalTrends{
		Monthly:   flatten(monthly),
		Quarterly: flatten(quarterly),
		Festivals: festivals,
	}, nil
}
