package evaluation

import (
	"math"
	"sort"
	"time"

	"StockPulse/internal/domain/models"
)

// Point is a dated value.
type Point struct {
	Date  time.Time
	Value float64
}

type pair struct {
	pi, ai           int
	actual, predicted float64
}

// Evaluate matches predicted and actual points by calendar date and scores the matches.
// Points present in only one sequence are counted but excluded from every statistic.
// Direction is compared only between consecutive matches that are adjacent in both sequences.
func Evaluate(predicted, actual []Point) models.MetricsReport {
	pred := sortedByDay(predicted)
	act := sortedByDay(actual)

	actIdx := make(map[time.Time]int, len(act))
	for i, p := range act {
		actIdx[p.Date] = i
	}

	var pairs []pair
	matchedActual := make(map[int]bool, len(act))
	for i, p := range pred {
		j, ok := actIdx[p.Date]
		if !ok {
			continue
		}
		pairs = append(pairs, pair{pi: i, ai: j, actual: act[j].Value, predicted: p.Value})
		matchedActual[j] = true
	}

	r := models.MetricsReport{
		Matched:       len(pairs),
		PredictedOnly: len(pred) - len(pairs),
		ActualOnly:    len(act) - len(matchedActual),
	}
	pointMetrics(&r, pairs)

	for k := 1; k < len(pairs); k++ {
		prev, cur := pairs[k-1], pairs[k]
		if cur.pi != prev.pi+1 || cur.ai != prev.ai+1 {
			continue
		}
		r.DirectionSamples++
		if sign(cur.actual-prev.actual) == sign(cur.predicted-prev.predicted) {
			r.CorrectDirections++
		}
	}
	r.DirectionAccuracy = percent(r.CorrectDirections, r.DirectionSamples)
	return r
}

// Aligned scores two equal-length sequences that are already index aligned.
func Aligned(actual, predicted []float64) models.MetricsReport {
	n := min(len(actual), len(predicted))
	pairs := make([]pair, n)
	for i := 0; i < n; i++ {
		pairs[i] = pair{pi: i, ai: i, actual: actual[i], predicted: predicted[i]}
	}
	r := models.MetricsReport{Matched: n}
	pointMetrics(&r, pairs)
	for i := 1; i < n; i++ {
		r.DirectionSamples++
		if sign(actual[i]-actual[i-1]) == sign(predicted[i]-predicted[i-1]) {
			r.CorrectDirections++
		}
	}
	r.DirectionAccuracy = percent(r.CorrectDirections, r.DirectionSamples)
	return r
}

func pointMetrics(r *models.MetricsReport, pairs []pair) {
	nan := math.NaN()
	r.MSE, r.RMSE, r.MAE, r.MAPE, r.R2 = nan, nan, nan, nan, nan
	if len(pairs) == 0 {
		return
	}

	n := float64(len(pairs))
	var se, ae, ape, meanActual float64
	apeN := 0
	for _, p := range pairs {
		e := p.actual - p.predicted
		se += e * e
		ae += math.Abs(e)
		meanActual += p.actual
		if p.actual != 0 {
			ape += math.Abs(e / p.actual)
			apeN++
		}
	}
	meanActual /= n

	r.MSE = se / n
	r.RMSE = math.Sqrt(r.MSE)
	r.MAE = ae / n
	if apeN > 0 {
		r.MAPE = ape / float64(apeN) * 100
	}

	var ssTot float64
	for _, p := range pairs {
		d := p.actual - meanActual
		ssTot += d * d
	}
	if ssTot > 0 {
		r.R2 = 1 - se/ssTot
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func percent(k, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return float64(k) / float64(n) * 100
}

// sortedByDay truncates dates to the day and sorts; a repeated day keeps its last value.
func sortedByDay(pts []Point) []Point {
	byDay := make(map[time.Time]float64, len(pts))
	for _, p := range pts {
		byDay[models.Day(p.Date)] = p.Value
	}
	out := make([]Point, 0, len(byDay))
	for d, v := range byDay {
		out = append(out, Point{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FromPredictionRows splits a prediction table into predicted and actual points.
func FromPredictionRows(rows []models.PredictionRow) (predicted, actual []Point) {
	for _, r := range rows {
		predicted = append(predicted, Point{Date: r.Date, Value: r.Predicted})
		if r.Actual != nil {
			actual = append(actual, Point{Date: r.Date, Value: *r.Actual})
		}
	}
	return predicted, actual
}
