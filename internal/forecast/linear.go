package forecast

import "gonum.org/v1/gonum/stat"

// Linear fits y = a + b·i by ordinary least squares on the bucket index.
type Linear struct{}

// Name implements Model.
func (Linear) Name() string { return MethodLinear }

// Project implements Model.
func (Linear) Project(in Input) (Projection, error) {
	n := len(in.Values)
	total := n + in.Periods()

	var alpha, beta float64
	if n == 1 {
		alpha = in.Values[0]
	} else {
		x := make([]float64, n)
		for i := range x {
			x[i] = float64(i)
		}
		alpha, beta = stat.LinearRegression(x, in.Values, nil, false)
	}

	pred := make([]float64, total)
	for i := range pred {
		pred[i] = alpha + beta*float64(i)
	}
	return Projection{Predicted: pred}, nil
}
