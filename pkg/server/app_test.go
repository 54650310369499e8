package server

import (
	"context"
	"path/filepath"
	"testing"

	"StockPulse/pkg/config"
	applogger "StockPulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMissingSymbolsFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.Symbols.File = filepath.Join(t.TempDir(), "missing.csv")

	res, err := New(cfg, applogger.Nop(), nil, nil).Run(context.Background(), "train", nil)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "open symbols file")
}

func TestRunWithoutSymbols(t *testing.T) {
	_, err := New(&config.Config{}, applogger.Nop(), nil, nil).Run(context.Background(), "train", []string{" ", ""})
	assert.EqualError(t, err, "no symbols configured")
}
