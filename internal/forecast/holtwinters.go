package forecast

import (
	"math"

	"salespulse/internal/config"
	"salespulse/internal/errors"
)

// SeasonalPeriod is the season length, in buckets, of the Holt-Winters model.
const SeasonalPeriod = config.SeasonalPeriod

// HoltWinters is additive-trend, additive-season triple exponential
// smoothing:
//
//	L_t = α(Y_t - S_{t-m}) + (1-α)(L_{t-1} + T_{t-1})
//	T_t = β(L_t - L_{t-1}) + (1-β)T_{t-1}
//	S_t = γ(Y_t - L_t) + (1-γ)S_{t-m}
//	F_{t+h} = L_t + h·T_t + S_{t-m+h}
//
// α, β and γ are chosen by grid search on the one-step-ahead squared error.
type HoltWinters struct {
	period int
}

// NewHoltWinters creates a model with season length m.
func NewHoltWinters(m int) *HoltWinters {
	return &HoltWinters{period: m}
}

// Name implements Model.
func (hw *HoltWinters) Name() string { return MethodExponentialSmoothing }

type hwState struct {
	level, trend float64
	seasonals    []float64
}

type hwParams struct {
	alpha, beta, gamma float64
}

// Project implements Model.
func (hw *HoltWinters) Project(in Input) (Projection, error) {
	m := hw.period
	data := in.Values
	n := len(data)
	if n < m {
		return Projection{}, errors.NewInsufficientDataError(
			"exponential smoothing needs a full season", n, m)
	}

	init := hw.initialize(data)
	best := hwParams{alpha: 0.2, beta: 0.1, gamma: 0.1}
	bestSSE := math.MaxFloat64
	for a := 1; a <= 9; a++ {
		for b := 0; b < 10; b++ {
			for g := 0; g < 10; g++ {
				p := hwParams{alpha: float64(a) / 10, beta: 0.01 + 0.05*float64(b), gamma: 0.01 + 0.05*float64(g)}
				if sse := hw.sse(data, init, p); sse < bestSSE {
					best, bestSSE = p, sse
				}
			}
		}
	}

	fitted, final := hw.smooth(data, init, best)
	pred := make([]float64, n+in.Periods())
	copy(pred, fitted)
	for h := 1; h <= in.Periods(); h++ {
		idx := (n + h - 1) % m
		pred[n+h-1] = final.level + float64(h)*final.trend + final.seasonals[idx]
	}
	return Projection{Predicted: pred}, nil
}

// initialize sets the level to the first-season mean, the trend to the mean
// per-bucket change between the first two seasons (0 with fewer than two),
// and seasonals to first-season deviations centered on zero.
func (hw *HoltWinters) initialize(data []float64) hwState {
	m := hw.period
	var sum float64
	for i := 0; i < m; i++ {
		sum += data[i]
	}
	st := hwState{level: sum / float64(m), seasonals: make([]float64, m)}

	if len(data) >= 2*m {
		var trendSum float64
		for i := 0; i < m; i++ {
			trendSum += (data[m+i] - data[i]) / float64(m)
		}
		st.trend = trendSum / float64(m)
	}

	var seasonSum float64
	for i := 0; i < m; i++ {
		st.seasonals[i] = data[i] - st.level
		seasonSum += st.seasonals[i]
	}
	avg := seasonSum / float64(m)
	for i := range st.seasonals {
		st.seasonals[i] -= avg
	}
	return st
}

func (st hwState) update(y float64, idx int, p hwParams) hwState {
	prev := st.level
	st.level = p.alpha*(y-st.seasonals[idx]) + (1-p.alpha)*(st.level+st.trend)
	st.trend = p.beta*(st.level-prev) + (1-p.beta)*st.trend
	st.seasonals[idx] = p.gamma*(y-st.level) + (1-p.gamma)*st.seasonals[idx]
	return st
}

func (st hwState) clone() hwState {
	st.seasonals = append([]float64(nil), st.seasonals...)
	return st
}

func (hw *HoltWinters) sse(data []float64, init hwState, p hwParams) float64 {
	m := hw.period
	st := init.clone()
	var sse float64
	for t := m - 1; t < len(data); t++ {
		idx := t % m
		if t >= m {
			e := data[t] - (st.level + st.trend + st.seasonals[idx])
			sse += e * e
		}
		st = st.update(data[t], idx, p)
	}
	return sse
}

// smooth returns one-step-ahead fitted values and the final state. The
// first season only seeds the state; updates start at its last bucket.
func (hw *HoltWinters) smooth(data []float64, init hwState, p hwParams) ([]float64, hwState) {
	m := hw.period
	st := init.clone()
	fitted := make([]float64, len(data))
	for t := range data {
		idx := t % m
		fitted[t] = st.level + st.trend + st.seasonals[idx]
		if t >= m-1 {
			st = st.update(data[t], idx, p)
		}
	}
	return fitted, st
}
