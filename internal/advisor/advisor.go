package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	"salespulse/internal/errors"
	"salespulse/internal/promotion"
	"salespulse/pkg/contracts/domain"
)

// Options narrows the analysis behind the suggestions.
type Options struct {
	// Category restricts the trend, inventory and top-product steps.
	Category string
	Clusters int
	Seed     int64
	// Forecast, when set, adds the projected direction to the trend step.
	Forecast *domain.Forecast
}

// Step computes one advice entry. A step that returns an error or panics is
// replaced by its Fallback text.
type Step struct {
	Category domain.AdviceCategory
	Fallback string
	Run      func(ds *dataprocessing.Dataset, opts Options) (string, error)
}

// Generator produces the decision suggestions.
type Generator struct {
	steps   []Step
	promo   *promotion.Analyzer
	printer *message.Printer
	logger  *slog.Logger
}

// NewGenerator creates a generator that tags promotions with cal (nil for
// the default calendar).
func NewGenerator(cal *config.Calendar, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		promo:   promotion.NewAnalyzer(cal),
		printer: message.NewPrinter(language.English),
		logger:  logger.With(slog.String("component", "advisor")),
	}
	g.steps = []Step{
		{Category: domain.AdviceTrend, Fallback: fallbackTrend, Run: g.trend},
		{Category: domain.AdviceInventory, Fallback: fallbackInventory, Run: g.inventory},
		{Category: domain.AdvicePromotion, Fallback: fallbackPromotion, Run: g.promotion},
		{Category: domain.AdviceCustomer, Fallback: fallbackCustomer, Run: g.customer},
		{Category: domain.AdviceProductMix, Fallback: fallbackProductMix, Run: g.productMix},
	}
	return g
}

// Generate returns one entry per step, always in the order trend, inventory,
// promotion, customer, product-mix. Only a missing dataset fails the call.
func (g *Generator) Generate(ctx context.Context, ds *dataprocessing.Dataset, opts Options) ([]domain.Advice, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.NewNotLoadedError("generate suggestions")
	}
	if opts.Clusters == 0 {
		opts.Clusters = config.DefaultClusters
	}

	out := make([]domain.Advice, 0, len(g.steps))
	for _, step := range g.steps {
		text, err := runStep(step, ds, opts)
		if err != nil {
			g.logger.WarnContext(ctx, "advice step fell back",
				slog.String("category", string(step.Category)),
				slog.String("error", err.Error()))
			out = append(out, domain.Advice{Category: step.Category, Text: step.Fallback, Fallback: true})
			continue
		}
		out = append(out, domain.Advice{Category: step.Category, Text: text})
	}
	return out, nil
}

// Generate runs a default generator.
func Generate(ds *dataprocessing.Dataset, opts Options) ([]domain.Advice, error) {
	return NewGenerator(nil, nil).Generate(context.Background(), ds, opts)
}

func runStep(step Step, ds *dataprocessing.Dataset, opts Options) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step.Run(ds, opts)
}

func join(points ...string) string {
	return strings.Join(points, "; ")
}
