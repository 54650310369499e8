package partition

import (
	"errors"
	"testing"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/services/features"
	"StockPulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanWithoutRebalance(t *testing.T) {
	s, err := DefaultPolicy().Plan(500)
	require.NoError(t, err)

	assert.Equal(t, Sizes{Train: 350, Val: 50, Test: 100}, s)
}

func TestPlanRebalancesToMinimumTrain(t *testing.T) {
	s, err := DefaultPolicy().Plan(150)
	require.NoError(t, err)

	assert.True(t, s.Rebalanced)
	assert.Equal(t, 100, s.Train)
	assert.Equal(t, 33, s.Test)
	assert.Equal(t, 17, s.Val)
}

func TestPlanMinimumsDominateSmallSeries(t *testing.T) {
	s, err := DefaultPolicy().Plan(260)
	require.NoError(t, err)

	// round(52) < 60 and round(26) < 30
	assert.Equal(t, Sizes{Train: 170, Val: 30, Test: 60}, s)
}

func TestPlanRejectsShortSeries(t *testing.T) {
	_, err := DefaultPolicy().Plan(139)

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
	var ide *models.InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 140, ide.Need)
	assert.Equal(t, 139, ide.Have)
}

func TestSplitBarsIsContiguousAndDisjoint(t *testing.T) {
	bars := testutil.SyntheticBars(300, 2)
	train, val, test, err := SplitBars(bars, DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, len(bars), len(train)+len(val)+len(test))
	assert.Equal(t, bars[0].Date, train[0].Date)
	assert.Equal(t, bars[len(train)].Date, val[0].Date)
	assert.Equal(t, bars[len(train)+len(val)].Date, test[0].Date)
	assert.True(t, train[len(train)-1].Date.Before(val[0].Date))
	assert.True(t, val[len(val)-1].Date.Before(test[0].Date))
}

func TestPartitionDerivesEachSegmentSeparately(t *testing.T) {
	e := features.MustEngine()
	bars := testutil.SyntheticBars(500, 4)
	split, err := Partition(bars, DefaultPolicy(), e)
	require.NoError(t, err)

	warm := e.Warmup() - 1
	assert.Len(t, split.Train, 350-warm)
	assert.Len(t, split.Val, 50-warm)
	assert.Len(t, split.Test, 100-warm)

	// the first warmup bars of each non-train segment produce no rows
	valStart := bars[350].Date
	testStart := bars[400].Date
	assert.Equal(t, bars[350+warm].Date, split.Val[0].Date)
	assert.Equal(t, bars[400+warm].Date, split.Test[0].Date)
	assert.True(t, split.Val[0].Date.After(valStart))
	assert.True(t, split.Test[0].Date.After(testStart))

	// rows away from the boundary match a full-series derivation
	full := e.Derive(bars)
	byDate := make(map[string]models.FeatureRow, len(full))
	for _, r := range full {
		byDate[r.Date.Format(models.DateLayout)] = r
	}
	for _, r := range split.Test {
		assert.Equal(t, byDate[r.Date.Format(models.DateLayout)].Values, r.Values)
	}
}

func TestPartitionSmallValSegmentYieldsNoRows(t *testing.T) {
	split, err := Partition(testutil.SyntheticBars(150, 9), DefaultPolicy(), features.MustEngine())
	require.NoError(t, err)

	assert.Len(t, split.Train, 71)
	assert.Empty(t, split.Val)
	assert.Len(t, split.Test, 4)
}
