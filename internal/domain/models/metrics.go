package models

import (
	"encoding/json"
	"math"
	"time"
)

// MetricsReport holds point and direction accuracy. Undefined statistics are NaN.
type MetricsReport struct {
	MSE               float64
	RMSE              float64
	MAE               float64
	MAPE              float64 // percent
	R2                float64
	DirectionAccuracy float64 // percent

	Matched           int
	PredictedOnly     int
	ActualOnly        int
	DirectionSamples  int
	CorrectDirections int
}

type metricsJSON struct {
	MSE               *float64 `json:"mse"`
	RMSE              *float64 `json:"rmse"`
	MAE               *float64 `json:"mae"`
	MAPE              *float64 `json:"mape"`
	R2                *float64 `json:"r2"`
	DirectionAccuracy *float64 `json:"direction_accuracy"`
	Matched           int      `json:"matched"`
	PredictedOnly     int      `json:"predicted_only"`
	ActualOnly        int      `json:"actual_only"`
	DirectionSamples  int      `json:"direction_samples"`
	CorrectDirections int      `json:"correct_directions"`
}

// MarshalJSON encodes NaN statistics as null.
func (m MetricsReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricsJSON{
		MSE:               finite(m.MSE),
		RMSE:              finite(m.RMSE),
		MAE:               finite(m.MAE),
		MAPE:              finite(m.MAPE),
		R2:                finite(m.R2),
		DirectionAccuracy: finite(m.DirectionAccuracy),
		Matched:           m.Matched,
		PredictedOnly:     m.PredictedOnly,
		ActualOnly:        m.ActualOnly,
		DirectionSamples:  m.DirectionSamples,
		CorrectDirections: m.CorrectDirections,
	})
}

func (m *MetricsReport) UnmarshalJSON(b []byte) error {
	var j metricsJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*m = MetricsReport{
		MSE:               orNaN(j.MSE),
		RMSE:              orNaN(j.RMSE),
		MAE:               orNaN(j.MAE),
		MAPE:              orNaN(j.MAPE),
		R2:                orNaN(j.R2),
		DirectionAccuracy: orNaN(j.DirectionAccuracy),
		Matched:           j.Matched,
		PredictedOnly:     j.PredictedOnly,
		ActualOnly:        j.ActualOnly,
		DirectionSamples:  j.DirectionSamples,
		CorrectDirections: j.CorrectDirections,
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// StoredMetrics is a metrics report persisted for a symbol and pipeline stage.
type StoredMetrics struct {
	Symbol    string        `json:"symbol"`
	Kind      string        `json:"kind"` // "train" | "predict" | "evaluation"
	RunID     string        `json:"run_id"`
	CreatedAt time.Time     `json:"created_at"`
	Report    MetricsReport `json:"report"`
}
