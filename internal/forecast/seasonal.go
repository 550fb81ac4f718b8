//go:build !noseasonal

package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	apierrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

func init() {
	registry[MethodSeasonalRegression] = func() Model { return NewSeasonalRegression() }
}

const (
	daysPerYear = 365.25
	daysPerWeek = 7.0
	// z80 is the standard normal quantile for a two-sided 80% interval.
	z80 = 1.2816
)

// SeasonalRegression fits a linear trend plus yearly Fourier terms (and
// weekly terms for daily series) by ridge regression. Seasonal coefficients
// are shrunk toward zero; intercept and trend are not. Every row carries an
// 80% interval from the residual standard error, widened with the horizon.
type SeasonalRegression struct {
	YearlyOrder map[domain.TimeUnit]int
	WeeklyOrder int
	Ridge       float64
}

// NewSeasonalRegression returns the default configuration.
func NewSeasonalRegression() *SeasonalRegression {
	return &SeasonalRegression{
		YearlyOrder: map[domain.TimeUnit]int{
			domain.UnitDay:     10,
			domain.UnitMonth:   6,
			domain.UnitQuarter: 2,
		},
		WeeklyOrder: 3,
		Ridge:       1.0,
	}
}

// Name implements Model.
func (sr *SeasonalRegression) Name() string { return MethodSeasonalRegression }

// Project implements Model.
func (sr *SeasonalRegression) Project(in Input) (Projection, error) {
	n := len(in.Values)
	if n < 2 {
		return Projection{}, apierrors.NewInsufficientDataError("seasonal regression needs two buckets", n, 2)
	}
	yearly := sr.YearlyOrder[in.Unit]
	weekly := 0
	if in.Unit == domain.UnitDay {
		weekly = sr.WeeklyOrder
	}
	for 2+2*(yearly+weekly) >= n && yearly+weekly > 0 {
		if weekly > 0 {
			weekly--
		} else {
			yearly--
		}
	}

	origin := in.Dates[0]
	span := in.Dates[n-1].Sub(origin).Hours() / 24
	if span <= 0 {
		span = 1
	}
	scale := 0.0
	for _, v := range in.Values {
		scale = math.Max(scale, math.Abs(v))
	}
	if scale == 0 {
		scale = 1
	}

	row := func(days float64) []float64 {
		r := []float64{1, days / span}
		for k := 1; k <= yearly; k++ {
			w := 2 * math.Pi * float64(k) * days / daysPerYear
			r = append(r, math.Sin(w), math.Cos(w))
		}
		for k := 1; k <= weekly; k++ {
			w := 2 * math.Pi * float64(k) * days / daysPerWeek
			r = append(r, math.Sin(w), math.Cos(w))
		}
		return r
	}

	p := 2 + 2*(yearly+weekly)
	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i, d := range in.Dates {
		x.SetRow(i, row(d.Sub(origin).Hours()/24))
		y.SetVec(i, in.Values[i]/scale)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 2; j < p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+sr.Ridge)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var coef mat.VecDense
	var cond mat.Condition
	if err := coef.SolveVec(&xtx, &xty); err != nil && !errors.As(err, &cond) {
		return Projection{}, fmt.Errorf("solve seasonal regression: %w", err)
	}

	total := n + in.Periods()
	out := Projection{
		Predicted: make([]float64, total),
		Lower:     make([]float64, total),
		Upper:     make([]float64, total),
	}
	predict := func(days float64) float64 {
		return mat.Dot(mat.NewVecDense(p, row(days)), &coef) * scale
	}

	var sse float64
	for i, d := range in.Dates {
		out.Predicted[i] = predict(d.Sub(origin).Hours() / 24)
		e := in.Values[i] - out.Predicted[i]
		sse += e * e
	}
	dof := n - p
	if dof < 1 {
		dof = n
	}
	sigma := math.Sqrt(sse / float64(dof))

	for h, d := range in.Future {
		out.Predicted[n+h] = predict(d.Sub(origin).Hours() / 24)
	}
	for i := range out.Predicted {
		width := z80 * sigma
		if i >= n {
			width *= math.Sqrt(1 + float64(i-n+1)/float64(n))
		}
		out.Lower[i] = out.Predicted[i] - width
		out.Upper[i] = out.Predicted[i] + width
	}
	return out, nil
}
