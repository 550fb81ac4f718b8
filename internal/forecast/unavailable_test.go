//go:build noseasonal

package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"salespulse/internal/errors"
)

func TestSeasonalRegression_CompiledOut(t *testing.T) {
	assert.False(t, IsMethodAvailable(MethodSeasonalRegression))
	assert.Equal(t, []string{MethodLinear, MethodExponentialSmoothing}, Methods())

	_, err := Forecast(monthlySeries(24), MethodSeasonalRegression, 3)
	assert.True(t, errors.IsType(err, errors.ErrTypeUnavailableMethod), "got %v", err)
}
