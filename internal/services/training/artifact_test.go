package training

import (
	"errors"
	"testing"

	"StockPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedArtifact() *Artifact {
	return &Artifact{
		Model:    &Ridge{Alpha: 1, Coef: []float64{2, -1}, Intercept: 3},
		Scaler:   &RobustScaler{Center: []float64{1, 0}, Scale: []float64{2, 1}},
		Features: []string{"b", "a"},
	}
}

func row(a, b float64) models.FeatureRow {
	return models.FeatureRow{
		Schema: models.NewSchema([]string{"a", "b"}),
		Values: []models.Value{models.Some(a), models.Some(b)},
	}
}

func TestArtifactPredictUsesRecordedOrder(t *testing.T) {
	// x = [b, a] = [5, 4]; scaled = [2, 4]; 3 + 4 - 4
	p, err := fixedArtifact().Predict(row(4, 5))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, p, 1e-12)
}

func TestArtifactPredictMissingFeature(t *testing.T) {
	a := fixedArtifact()
	a.Features = []string{"b", "bogus"}

	_, err := a.Predict(row(1, 2))
	assert.True(t, errors.Is(err, models.ErrMissingFeature))
}

func TestArtifactEncodeDecode(t *testing.T) {
	b, err := EncodeArtifact(fixedArtifact())
	require.NoError(t, err)
	assert.Equal(t, "b\na\n", string(b.Features))

	got, err := DecodeArtifact(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got.Features)

	want, _ := fixedArtifact().Predict(row(4, 5))
	p, err := got.Predict(row(4, 5))
	require.NoError(t, err)
	assert.Equal(t, want, p)
}

func TestDecodeArtifactRejectsMismatch(t *testing.T) {
	b, err := EncodeArtifact(fixedArtifact())
	require.NoError(t, err)

	b.Features = []byte("a\n")
	_, err = DecodeArtifact(b)
	assert.Error(t, err)

	_, err = DecodeArtifact(Blobs{Model: []byte(`{"type":"lasso"}`), Scaler: b.Scaler, Features: b.Features})
	assert.Error(t, err)
}

func TestParseFeatureList(t *testing.T) {
	assert.Equal(t, []string{"open", "high"}, ParseFeatureList([]byte(" open \n\nhigh\r\n")))
}
