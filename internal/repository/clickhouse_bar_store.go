package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	pkgch "StockPulse/pkg/clickhouse"
	applogger "StockPulse/pkg/logger"
)

// CHBarStore implements BarStore backed by a ReplacingMergeTree keyed on (symbol, date).
type CHBarStore struct {
	ch    *pkgch.Client
	table string
	l     *applogger.Logger
}

var _ domrepo.BarStore = (*CHBarStore)(nil)

func NewCHBarStore(ch *pkgch.Client, l *applogger.Logger) *CHBarStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHBarStore{ch: ch, table: qualify(ch.Database(), "daily_bars"), l: l}
}

func (s *CHBarStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, Schema)
}

// UpsertBars writes bars in one batch. Re-ingesting a date replaces it on merge; reads use FINAL.
func (s *CHBarStore) UpsertBars(ctx context.Context, symbol string, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	now := time.Now().UTC()
	q := fmt.Sprintf("INSERT INTO %s (symbol, date, open, high, low, close, volume, ingested_at)", s.table)
	err := s.ch.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()
		for _, b := range bars {
			if _, err := stmt.ExecContext(ctx, symbol, models.Day(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume, now); err != nil {
				return fmt.Errorf("append %s: %w", b.Date.Format(models.DateLayout), err)
			}
		}
		return nil
	})
	if err != nil {
		s.l.Error("clickhouse upsert_bars error", applogger.Symbol(symbol), applogger.Int("rows", len(bars)), applogger.Error(err))
		return fmt.Errorf("upsert bars %s: %w", symbol, err)
	}
	return nil
}

// LoadBars returns the symbol's bars in ascending date order.
func (s *CHBarStore) LoadBars(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT date, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY date ASC
    `, s.table)
	rows, err := s.ch.DB().QueryContext(ctx, q, symbol)
	if err != nil {
		s.l.Error("clickhouse load_bars query error", applogger.Symbol(symbol), applogger.Error(err))
		return nil, fmt.Errorf("load bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, 512)
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Date = models.Day(b.Date)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse load_bars ok",
		applogger.Symbol(symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHBarStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.ch.DB().QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol", s.table))
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func qualify(db, table string) string {
	if db == "" {
		return table
	}
	return db + "." + table
}
