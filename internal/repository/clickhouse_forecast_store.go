package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	pkgch "StockPulse/pkg/clickhouse"
	applogger "StockPulse/pkg/logger"
)

// CHForecastStore implements ForecastStore. Every save is a new run; readers pick the latest by created_at.
type CHForecastStore struct {
	ch          *pkgch.Client
	predictions string
	metrics     string
	l           *applogger.Logger
}

var _ domrepo.ForecastStore = (*CHForecastStore)(nil)

func NewCHForecastStore(ch *pkgch.Client, l *applogger.Logger) *CHForecastStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHForecastStore{
		ch:          ch,
		predictions: qualify(ch.Database(), "predictions"),
		metrics:     qualify(ch.Database(), "forecast_metrics"),
		l:           l,
	}
}

func (s *CHForecastStore) SavePredictions(ctx context.Context, rows []models.StoredPrediction) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	q := fmt.Sprintf(`INSERT INTO %s (symbol, run_id, stage, date, actual, predicted, error, error_pct,
		direction_actual, direction_predicted, created_at)`, s.predictions)
	err := s.ch.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, predictionArgs(r, now)...); err != nil {
				return fmt.Errorf("append %s: %w", r.Date.Format(models.DateLayout), err)
			}
		}
		return nil
	})
	if err != nil {
		s.l.Error("clickhouse save_predictions error", applogger.Symbol(rows[0].Symbol), applogger.Error(err))
		return fmt.Errorf("save predictions: %w", err)
	}
	return nil
}

func (s *CHForecastStore) LatestPredictions(ctx context.Context, symbol, stage string) ([]models.PredictionRow, error) {
	q := fmt.Sprintf(`
        SELECT date, actual, predicted, error, error_pct, direction_actual, direction_predicted
        FROM %[1]s
        WHERE symbol = ? AND stage = ? AND run_id = (
            SELECT run_id FROM %[1]s
            WHERE symbol = ? AND stage = ?
            ORDER BY created_at DESC
            LIMIT 1
        )
        ORDER BY date ASC
    `, s.predictions)
	rows, err := s.ch.DB().QueryContext(ctx, q, symbol, stage, symbol, stage)
	if err != nil {
		s.l.Error("clickhouse latest_predictions query error", applogger.Symbol(symbol), applogger.String("stage", stage), applogger.Error(err))
		return nil, fmt.Errorf("latest predictions: %w", err)
	}
	defer rows.Close()

	var out []models.PredictionRow
	for rows.Next() {
		var (
			r                     models.PredictionRow
			actual, errv, errPct  sql.NullFloat64
			dirActual, dirPredict sql.NullInt64
		)
		if err := rows.Scan(&r.Date, &actual, &r.Predicted, &errv, &errPct, &dirActual, &dirPredict); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		r.Date = models.Day(r.Date)
		r.Actual = fromNullFloat(actual)
		r.Error = fromNullFloat(errv)
		r.ErrorPct = fromNullFloat(errPct)
		r.DirectionActual = fromNullInt(dirActual)
		r.DirectionPredicted = fromNullInt(dirPredict)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *CHForecastStore) SaveMetrics(ctx context.Context, m *models.StoredMetrics) error {
	q := fmt.Sprintf(`INSERT INTO %s (symbol, kind, run_id, created_at, mse, rmse, mae, mape, r2,
		direction_accuracy, matched, predicted_only, actual_only, direction_samples, correct_directions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.metrics)
	if _, err := s.ch.DB().ExecContext(ctx, q, metricsArgs(m)...); err != nil {
		s.l.Error("clickhouse save_metrics error", applogger.Symbol(m.Symbol), applogger.String("kind", m.Kind), applogger.Error(err))
		return fmt.Errorf("save metrics: %w", err)
	}
	return nil
}

func (s *CHForecastStore) DeletePredictions(ctx context.Context, symbol, stage, runID string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE symbol = ? AND stage = ? AND run_id = ?`, s.predictions)
	if _, err := s.ch.DB().ExecContext(ctx, q, symbol, stage, runID); err != nil {
		s.l.Error("clickhouse delete_predictions error", applogger.Symbol(symbol), applogger.String("run_id", runID), applogger.Error(err))
		return fmt.Errorf("delete predictions: %w", err)
	}
	return nil
}

func (s *CHForecastStore) DeleteMetrics(ctx context.Context, symbol, kind, runID string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE symbol = ? AND kind = ? AND run_id = ?`, s.metrics)
	if _, err := s.ch.DB().ExecContext(ctx, q, symbol, kind, runID); err != nil {
		s.l.Error("clickhouse delete_metrics error", applogger.Symbol(symbol), applogger.String("run_id", runID), applogger.Error(err))
		return fmt.Errorf("delete metrics: %w", err)
	}
	return nil
}

// LatestMetrics returns models.ErrNoPredictions when nothing has been recorded for kind.
func (s *CHForecastStore) LatestMetrics(ctx context.Context, symbol, kind string) (*models.StoredMetrics, error) {
	q := fmt.Sprintf(`
        SELECT run_id, created_at, mse, rmse, mae, mape, r2, direction_accuracy,
               matched, predicted_only, actual_only, direction_samples, correct_directions
        FROM %s
        WHERE symbol = ? AND kind = ?
        ORDER BY created_at DESC
        LIMIT 1
    `, s.metrics)
	var (
		m                               = models.StoredMetrics{Symbol: symbol, Kind: kind}
		mse, rmse, mae, mape, r2, dirAc sql.NullFloat64
		matched, pOnly, aOnly, dS, dC   int64
	)
	err := s.ch.DB().QueryRowContext(ctx, q, symbol, kind).Scan(
		&m.RunID, &m.CreatedAt, &mse, &rmse, &mae, &mape, &r2, &dirAc,
		&matched, &pOnly, &aOnly, &dS, &dC,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s metrics for %s: %w", kind, symbol, models.ErrNoPredictions)
	}
	if err != nil {
		return nil, fmt.Errorf("latest metrics: %w", err)
	}
	m.Report = models.MetricsReport{
		MSE:               orNaN(mse),
		RMSE:              orNaN(rmse),
		MAE:               orNaN(mae),
		MAPE:              orNaN(mape),
		R2:                orNaN(r2),
		DirectionAccuracy: orNaN(dirAc),
		Matched:           int(matched),
		PredictedOnly:     int(pOnly),
		ActualOnly:        int(aOnly),
		DirectionSamples:  int(dS),
		CorrectDirections: int(dC),
	}
	return &m, nil
}

func predictionArgs(r models.StoredPrediction, now time.Time) []any {
	return []any{
		r.Symbol, r.RunID, r.Stage, models.Day(r.Date),
		nullFloatPtr(r.Actual), r.Predicted, nullFloatPtr(r.Error), nullFloatPtr(r.ErrorPct),
		nullDir(r.DirectionActual), nullDir(r.DirectionPredicted), now,
	}
}

func metricsArgs(m *models.StoredMetrics) []any {
	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	rep := m.Report
	return []any{
		m.Symbol, m.Kind, m.RunID, created,
		nullFloat(rep.MSE), nullFloat(rep.RMSE), nullFloat(rep.MAE), nullFloat(rep.MAPE), nullFloat(rep.R2),
		nullFloat(rep.DirectionAccuracy),
		uint32(rep.Matched), uint32(rep.PredictedOnly), uint32(rep.ActualOnly),
		uint32(rep.DirectionSamples), uint32(rep.CorrectDirections),
	}
}

// nullFloat maps NaN and Inf to NULL.
func nullFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func nullFloatPtr(p *float64) any {
	if p == nil {
		return nil
	}
	return nullFloat(*p)
}

func nullDir(p *int) any {
	if p == nil {
		return nil
	}
	return int8(*p)
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
