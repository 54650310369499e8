package training

import (
	"fmt"
	"math"
	"sort"

	"StockPulse/internal/domain/service"
)

// RobustScaler centers on the median and scales by the interquartile range.
type RobustScaler struct {
	Center []float64 `json:"center"`
	Scale  []float64 `json:"scale"`
}

var _ service.Scaler = (*RobustScaler)(nil)

// FitRobustScaler fits one center and scale per column of X.
// Columns with zero IQR get scale 1.
func FitRobustScaler(X [][]float64) (*RobustScaler, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("robust scaler: empty matrix")
	}
	p := len(X[0])
	s := &RobustScaler{Center: make([]float64, p), Scale: make([]float64, p)}
	col := make([]float64, len(X))
	for j := 0; j < p; j++ {
		for i, row := range X {
			if len(row) != p {
				return nil, fmt.Errorf("robust scaler: row %d has %d columns, want %d", i, len(row), p)
			}
			col[i] = row[j]
		}
		sort.Float64s(col)
		s.Center[j] = percentile(col, 50)
		iqr := percentile(col, 75) - percentile(col, 25)
		if iqr == 0 || math.IsNaN(iqr) {
			iqr = 1
		}
		s.Scale[j] = iqr
	}
	return s, nil
}

func (s *RobustScaler) Dim() int { return len(s.Center) }

func (s *RobustScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Center) {
		return nil, fmt.Errorf("robust scaler: got %d features, fitted on %d", len(x), len(s.Center))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Center[j]) / s.Scale[j]
	}
	return out, nil
}

// percentile interpolates linearly between closest ranks of sorted data.
func percentile(sorted []float64, q float64) float64 {
	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
