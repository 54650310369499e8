package partition

import (
	"fmt"
	"math"

	"StockPulse/internal/domain/models"
)

// Policy sets the minimum segment sizes.
type Policy struct {
	MinTrainSize int     `yaml:"min_train_size" default:"100"`
	MinTestSize  int     `yaml:"min_test_size" default:"60"`
	MinValSize   int     `yaml:"min_val_size" default:"30"`
	TestFraction float64 `yaml:"test_fraction" default:"0.2"`
	ValFraction  float64 `yaml:"val_fraction" default:"0.1"`
	MaxWindow    int     `yaml:"max_window" default:"20"`
}

func DefaultPolicy() Policy {
	return Policy{
		MinTrainSize: 100,
		MinTestSize:  60,
		MinValSize:   30,
		TestFraction: 0.2,
		ValFraction:  0.1,
		MaxWindow:    20,
	}
}

// MinTotal is the smallest series that can be split.
func (p Policy) MinTotal() int { return p.MinTrainSize + 2*p.MaxWindow }

// Sizes is the number of bars in each segment.
type Sizes struct {
	Train      int
	Val        int
	Test       int
	Rebalanced bool
}

// Plan computes segment sizes for a series of total bars.
func (p Policy) Plan(total int) (Sizes, error) {
	if total < p.MinTotal() {
		return Sizes{}, &models.InsufficientDataError{Stage: "split", Need: p.MinTotal(), Have: total}
	}
	test := max(p.MinTestSize, int(math.Round(p.TestFraction*float64(total))))
	val := max(p.MinValSize, int(math.Round(p.ValFraction*float64(total))))

	s := Sizes{Train: total - test - val, Val: val, Test: test}
	if s.Train >= p.MinTrainSize {
		return s, nil
	}

	// shrink test and val in proportion so train is exactly the minimum
	budget := total - p.MinTrainSize
	s.Test = int(math.Round(float64(test) * float64(budget) / float64(test+val)))
	s.Val = budget - s.Test
	s.Train = p.MinTrainSize
	s.Rebalanced = true
	return s, nil
}

// SplitBars cuts bars by position into contiguous train, validation and test segments.
func SplitBars(bars []models.PriceBar, p Policy) (train, val, test []models.PriceBar, err error) {
	s, err := p.Plan(len(bars))
	if err != nil {
		return nil, nil, nil, err
	}
	trainEnd := s.Train
	valEnd := s.Train + s.Val
	return bars[:trainEnd:trainEnd], bars[trainEnd:valEnd:valEnd], bars[valEnd:], nil
}

// Deriver derives feature rows from bars.
type Deriver interface {
	Derive(bars []models.PriceBar) []models.FeatureRow
}

// Split holds per-segment feature rows and the raw segment sizes.
type Split struct {
	Train []models.FeatureRow
	Val   []models.FeatureRow
	Test  []models.FeatureRow
	Sizes Sizes
}

// Partition splits bars and derives each segment independently, so no row in one
// segment is computed from bars of another.
func Partition(bars []models.PriceBar, p Policy, d Deriver) (*Split, error) {
	train, val, test, err := SplitBars(bars, p)
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	s, _ := p.Plan(len(bars))
	return &Split{
		Train: d.Derive(train),
		Val:   d.Derive(val),
		Test:  d.Derive(test),
		Sizes: s,
	}, nil
}
