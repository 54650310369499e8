package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentileLinear(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, percentile(s, 25), 1e-12)
	assert.InDelta(t, 2.5, percentile(s, 50), 1e-12)
	assert.InDelta(t, 3.25, percentile(s, 75), 1e-12)
	assert.Equal(t, 1.0, percentile(s, 0))
	assert.Equal(t, 4.0, percentile(s, 100))
}

func TestFitRobustScaler(t *testing.T) {
	X := [][]float64{{5, 7}, {1, 7}, {3, 7}, {2, 7}, {4, 7}}

	s, err := FitRobustScaler(X)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Dim())
	assert.InDelta(t, 3.0, s.Center[0], 1e-12)
	assert.InDelta(t, 2.0, s.Scale[0], 1e-12)
	// constant column keeps unit scale
	assert.InDelta(t, 7.0, s.Center[1], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1])

	out, err := s.Transform([]float64{7, 9})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 2}, out, 1e-12)
}

func TestRobustScalerErrors(t *testing.T) {
	_, err := FitRobustScaler(nil)
	assert.Error(t, err)

	_, err = FitRobustScaler([][]float64{{1, 2}, {3}})
	assert.Error(t, err)

	s := &RobustScaler{Center: []float64{0}, Scale: []float64{1}}
	_, err = s.Transform([]float64{1, 2})
	assert.Error(t, err)
}
