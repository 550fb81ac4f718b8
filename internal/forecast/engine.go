package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"salespulse/internal/analytics"
	"salespulse/internal/config"
	"salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Horizon bounds.
const (
	MinPeriods = config.MinForecastPeriods
	MaxPeriods = config.MaxForecastPeriods
)

// Engine runs forecasts: validate, select, fit and project, assemble.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger.With(slog.String("component", "forecast"))}
}

// Forecast projects series forward by periods buckets with the named method.
func (e *Engine) Forecast(ctx context.Context, series *domain.Series, method string, periods int) (*domain.Forecast, error) {
	in, err := validate(series, periods)
	if err != nil {
		return nil, err
	}

	model, err := Select(method)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	proj, err := model.Project(in)
	if err != nil {
		e.logger.WarnContext(ctx, "forecast fit failed",
			slog.String("method", method),
			slog.Int("points", len(in.Values)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s forecast: %w", method, err)
	}

	fc := assemble(series, in, proj, method)
	e.logger.DebugContext(ctx, "forecast complete",
		slog.String("method", method),
		slog.String("unit", string(series.Unit)),
		slog.Int("points", len(in.Values)),
		slog.Int("periods", periods),
		slog.Duration("duration", time.Since(start)))
	return fc, nil
}

// Forecast runs a forecast with a default engine.
func Forecast(series *domain.Series, method string, periods int) (*domain.Forecast, error) {
	return NewEngine(nil).Forecast(context.Background(), series, method, periods)
}

// Select returns the model registered under method. Unknown names fail with
// an UnsupportedValueError; known names compiled out of this build fail with
// an UnavailableMethodError.
func Select(method string) (Model, error) {
	if ctor, ok := registry[method]; ok {
		return ctor(), nil
	}
	if isKnown(method) {
		return nil, errors.NewUnavailableMethodError(method)
	}
	return nil, errors.NewUnsupportedValueError("forecast method", method)
}

func validate(series *domain.Series, periods int) (Input, error) {
	if periods < MinPeriods || periods > MaxPeriods {
		return Input{}, errors.NewRangeError("periods", periods, MinPeriods, MaxPeriods)
	}
	if series == nil || series.Len() == 0 {
		return Input{}, errors.NewEmptyResultError("forecast: series has no buckets")
	}
	switch series.Unit {
	case domain.UnitDay, domain.UnitMonth, domain.UnitQuarter:
	default:
		return Input{}, errors.NewUnsupportedValueError("forecast unit", string(series.Unit))
	}

	in := Input{
		Unit:   series.Unit,
		Values: series.Values(),
		Dates:  make([]time.Time, series.Len()),
		Future: make([]time.Time, periods),
	}
	for i, r := range series.Rows {
		in.Dates[i] = r.Start
	}
	last := in.Dates[len(in.Dates)-1]
	for h := range in.Future {
		in.Future[h] = NextBucket(last, series.Unit, h+1)
	}
	return in, nil
}

// NextBucket returns the start of the bucket h steps after start.
func NextBucket(start time.Time, unit domain.TimeUnit, h int) time.Time {
	switch unit {
	case domain.UnitDay:
		return start.AddDate(0, 0, h)
	case domain.UnitMonth:
		return start.AddDate(0, h, 0)
	case domain.UnitQuarter:
		return start.AddDate(0, 3*h, 0)
	}
	return start.AddDate(h, 0, 0)
}

func assemble(series *domain.Series, in Input, proj Projection, method string) *domain.Forecast {
	n := len(in.Values)
	fc := &domain.Forecast{
		Method:  method,
		Unit:    series.Unit,
		Periods: in.Periods(),
		Rows:    make([]domain.ForecastRow, 0, n+in.Periods()),
	}

	bounds := func(i int) (*float64, *float64) {
		if proj.Lower == nil || proj.Upper == nil {
			return nil, nil
		}
		lo, hi := proj.Lower[i], proj.Upper[i]
		return &lo, &hi
	}

	for i, r := range series.Rows {
		actual := r.Total
		lo, hi := bounds(i)
		fc.Rows = append(fc.Rows, domain.ForecastRow{
			Date:      r.Start,
			Label:     r.Label,
			Actual:    &actual,
			Predicted: proj.Predicted[i],
			Lower:     lo,
			Upper:     hi,
			Kind:      domain.KindHistorical,
		})
	}
	for h, d := range in.Future {
		label, _, _ := analytics.BucketOf(d, series.Unit)
		lo, hi := bounds(n + h)
		fc.Rows = append(fc.Rows, domain.ForecastRow{
			Date:      d,
			Label:     label,
			Predicted: proj.Predicted[n+h],
			Lower:     lo,
			Upper:     hi,
			Kind:      domain.KindForecast,
		})
	}
	return fc
}
