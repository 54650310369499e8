package training

import (
	"fmt"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/service"
	"StockPulse/internal/services/evaluation"
)

// Config holds estimator settings.
type Config struct {
	Alpha   float64 `yaml:"alpha" default:"1.0" validate:"gt=0"`
	MinRows int     `yaml:"min_rows" default:"100" validate:"gte=1"`
}

func DefaultConfig() Config { return Config{Alpha: 1.0, MinRows: 100} }

// Artifact is a fitted model, its scaler and the exact feature order used at fit time.
type Artifact struct {
	Model    service.Regressor
	Scaler   service.Scaler
	Features []string
}

// Validate checks that model, scaler and feature list agree on cardinality.
func (a *Artifact) Validate() error {
	if a.Model == nil || a.Scaler == nil {
		return fmt.Errorf("artifact: model and scaler are required")
	}
	if len(a.Features) != a.Scaler.Dim() || len(a.Features) != a.Model.Dim() {
		return fmt.Errorf("artifact: %d features, scaler dim %d, model dim %d",
			len(a.Features), a.Scaler.Dim(), a.Model.Dim())
	}
	return nil
}

// Predict assembles the recorded features from row, applies the fitted scaler and predicts.
func (a *Artifact) Predict(row models.FeatureRow) (float64, error) {
	x, err := row.Vector(a.Features)
	if err != nil {
		return 0, err
	}
	xs, err := a.Scaler.Transform(x)
	if err != nil {
		return 0, err
	}
	return a.Model.Predict(xs)
}

// PredictAll predicts every row in order.
func (a *Artifact) PredictAll(rows []models.FeatureRow) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, r := range rows {
		p, err := a.Predict(r)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", r.Date.Format(models.DateLayout), err)
		}
		out[i] = p
	}
	return out, nil
}

// FitReport summarizes a fit.
type FitReport struct {
	TrainRows  int
	ValRows    int
	Validation *models.MetricsReport
}

// Trainer fits a robust scaler and ridge regression on closing prices.
type Trainer struct {
	cfg Config
}

func NewTrainer(cfg Config) *Trainer { return &Trainer{cfg: cfg} }

// Fit trains on train rows only. Validation rows, when present, are scored but never fitted.
func (t *Trainer) Fit(train, val []models.FeatureRow) (*Artifact, *FitReport, error) {
	if len(train) < t.cfg.MinRows {
		return nil, nil, &models.InsufficientDataError{Stage: "fit", Need: t.cfg.MinRows, Have: len(train)}
	}
	names := train[0].Schema.Columns()

	X := make([][]float64, len(train))
	y := make([]float64, len(train))
	for i, r := range train {
		x, err := r.Vector(names)
		if err != nil {
			return nil, nil, fmt.Errorf("fit: %w", err)
		}
		X[i] = x
		y[i] = r.Close
	}

	scaler, err := FitRobustScaler(X)
	if err != nil {
		return nil, nil, fmt.Errorf("fit: %w", err)
	}
	Xs := make([][]float64, len(X))
	for i, x := range X {
		if Xs[i], err = scaler.Transform(x); err != nil {
			return nil, nil, fmt.Errorf("fit: %w", err)
		}
	}
	model, err := FitRidge(Xs, y, t.cfg.Alpha)
	if err != nil {
		return nil, nil, fmt.Errorf("fit: %w", err)
	}

	art := &Artifact{Model: model, Scaler: scaler, Features: names}
	rep := &FitReport{TrainRows: len(train), ValRows: len(val)}
	if len(val) > 0 {
		held, err := EvaluateHeldOut(art, val)
		if err != nil {
			return nil, nil, fmt.Errorf("validate: %w", err)
		}
		rep.Validation = &held.Metrics
	}
	return art, rep, nil
}

// HeldOut is the scored prediction table for a held-out segment.
type HeldOut struct {
	Metrics models.MetricsReport
	Rows    []models.PredictionRow
}

// EvaluateHeldOut predicts rows and scores them. MAPE skips zero actuals.
func EvaluateHeldOut(a *Artifact, rows []models.FeatureRow) (*HeldOut, error) {
	preds, err := a.PredictAll(rows)
	if err != nil {
		return nil, err
	}
	actual := make([]float64, len(rows))
	dates := make([]models.PriceBar, len(rows))
	for i, r := range rows {
		actual[i] = r.Close
		dates[i] = r.PriceBar
	}
	return &HeldOut{
		Metrics: evaluation.Aligned(actual, preds),
		Rows:    evaluation.Table(dates, preds),
	}, nil
}
