package usecase

import (
	"context"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
)

type memBars struct {
	mu   sync.Mutex
	bars map[string][]models.PriceBar
}

func newMemBars() *memBars { return &memBars{bars: map[string][]models.PriceBar{}} }

func (m *memBars) Init(context.Context) error { return nil }

func (m *memBars) UpsertBars(_ context.Context, symbol string, bars []models.PriceBar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	merged, err := models.NormalizeBars(append(append([]models.PriceBar(nil), m.bars[symbol]...), bars...))
	if err != nil {
		return err
	}
	m.bars[symbol] = merged
	return nil
}

func (m *memBars) LoadBars(_ context.Context, symbol string) ([]models.PriceBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.PriceBar(nil), m.bars[symbol]...), nil
}

func (m *memBars) Symbols(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for s := range m.bars {
		out = append(out, s)
	}
	return out, nil
}

func (m *memBars) Health(context.Context) error { return nil }

type memForecasts struct {
	mu      sync.Mutex
	preds   map[string][]models.StoredPrediction
	metrics map[string]*models.StoredMetrics

	failPredictions error
	failMetrics     error
}

func newMemForecasts() *memForecasts {
	return &memForecasts{preds: map[string][]models.StoredPrediction{}, metrics: map[string]*models.StoredMetrics{}}
}

func (m *memForecasts) SavePredictions(_ context.Context, rows []models.StoredPrediction) error {
	if m.failPredictions != nil {
		return m.failPredictions
	}
	if len(rows) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preds[rows[0].Symbol+"|"+rows[0].Stage] = rows
	return nil
}

func (m *memForecasts) LatestPredictions(_ context.Context, symbol, stage string) ([]models.PredictionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PredictionRow
	for _, r := range m.preds[symbol+"|"+stage] {
		out = append(out, r.PredictionRow)
	}
	return out, nil
}

func (m *memForecasts) SaveMetrics(_ context.Context, s *models.StoredMetrics) error {
	if m.failMetrics != nil {
		return m.failMetrics
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics[s.Symbol+"|"+s.Kind] = s
	return nil
}

func (m *memForecasts) LatestMetrics(_ context.Context, symbol, kind string) (*models.StoredMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.metrics[symbol+"|"+kind]
	if !ok {
		return nil, models.ErrNoPredictions
	}
	return s, nil
}

func (m *memForecasts) DeletePredictions(_ context.Context, symbol, stage, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := symbol + "|" + stage
	if rows := m.preds[key]; len(rows) > 0 && rows[0].RunID == runID {
		delete(m.preds, key)
	}
	return nil
}

func (m *memForecasts) DeleteMetrics(_ context.Context, symbol, kind, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := symbol + "|" + kind
	if s, ok := m.metrics[key]; ok && s.RunID == runID {
		delete(m.metrics, key)
	}
	return nil
}

type memArtifacts struct {
	mu     sync.Mutex
	blobs  map[string]models.ArtifactBlobs
	locked map[string]bool

	failSave error
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{blobs: map[string]models.ArtifactBlobs{}, locked: map[string]bool{}}
}

func (m *memArtifacts) SaveArtifact(_ context.Context, symbol string, b models.ArtifactBlobs) error {
	if m.failSave != nil {
		return m.failSave
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[symbol] = b
	return nil
}

func (m *memArtifacts) LoadArtifact(_ context.Context, symbol string) (models.ArtifactBlobs, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[symbol]
	if !ok {
		return models.ArtifactBlobs{}, models.ErrArtifactNotFound
	}
	return b, nil
}

func (m *memArtifacts) Lock(_ context.Context, symbol string, _ time.Duration) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked[symbol] {
		return func() {}, false, nil
	}
	m.locked[symbol] = true
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.locked, symbol)
	}, true, nil
}

type fakeSource struct {
	bars map[string][]models.PriceBar
	err  error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) DailyBars(_ context.Context, symbol string, _, _ time.Time) ([]models.PriceBar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars[symbol], nil
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []*models.SymbolHistory
}

func (f *fakePublisher) PublishHistory(_ context.Context, h *models.SymbolHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, h)
	return nil
}

func (f *fakePublisher) Close() error { return nil }
