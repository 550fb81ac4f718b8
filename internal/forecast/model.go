package forecast

import (
	"time"

	"salespulse/pkg/contracts/domain"
)

// Method names.
const (
	MethodLinear               = "linear"
	MethodExponentialSmoothing = "exponential_smoothing"
	MethodSeasonalRegression   = "seasonal_regression"
)

// knownMethods lists every method name in presentation order, including
// those that may be compiled out.
var knownMethods = []string{MethodLinear, MethodExponentialSmoothing, MethodSeasonalRegression}

// Input is a validated series handed to a model.
type Input struct {
	Unit   domain.TimeUnit
	Values []float64
	Dates  []time.Time
	Future []time.Time
}

// Periods returns the number of buckets to project.
func (in Input) Periods() int { return len(in.Future) }

// Projection holds len(Values)+Periods predictions. Lower and Upper are nil
// for models without bounds.
type Projection struct {
	Predicted []float64
	Lower     []float64
	Upper     []float64
}

// Model fits a series and projects it.
type Model interface {
	Name() string
	Project(in Input) (Projection, error)
}

var registry = map[string]func() Model{
	MethodLinear:               func() Model { return Linear{} },
	MethodExponentialSmoothing: func() Model { return NewHoltWinters(SeasonalPeriod) },
}

// IsMethodAvailable reports whether method can be selected in this build.
func IsMethodAvailable(method string) bool {
	_, ok := registry[method]
	return ok
}

// Methods returns the available method names.
func Methods() []string {
	var out []string
	for _, m := range knownMethods {
		if IsMethodAvailable(m) {
			out = append(out, m)
		}
	}
	return out
}

func isKnown(method string) bool {
	for _, m := range knownMethods {
		if m == method {
			return true
		}
	}
	return false
}
