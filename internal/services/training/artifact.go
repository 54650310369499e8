package training

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"StockPulse/internal/domain/models"
)

type Blobs = models.ArtifactBlobs

type modelEnvelope struct {
	Type  string `json:"type"`
	Ridge *Ridge `json:"ridge,omitempty"`
}

type scalerEnvelope struct {
	Type   string        `json:"type"`
	Robust *RobustScaler `json:"robust,omitempty"`
}

// EncodeArtifact serializes model and scaler as JSON and features as newline-delimited text.
func EncodeArtifact(a *Artifact) (Blobs, error) {
	if err := a.Validate(); err != nil {
		return Blobs{}, err
	}
	var (
		b   Blobs
		err error
	)
	switch m := a.Model.(type) {
	case *Ridge:
		b.Model, err = json.Marshal(modelEnvelope{Type: "ridge", Ridge: m})
	default:
		return Blobs{}, fmt.Errorf("encode artifact: unsupported model %T", a.Model)
	}
	if err != nil {
		return Blobs{}, fmt.Errorf("encode model: %w", err)
	}
	switch s := a.Scaler.(type) {
	case *RobustScaler:
		b.Scaler, err = json.Marshal(scalerEnvelope{Type: "robust", Robust: s})
	default:
		return Blobs{}, fmt.Errorf("encode artifact: unsupported scaler %T", a.Scaler)
	}
	if err != nil {
		return Blobs{}, fmt.Errorf("encode scaler: %w", err)
	}

	var buf bytes.Buffer
	for _, f := range a.Features {
		buf.WriteString(f)
		buf.WriteByte('\n')
	}
	b.Features = buf.Bytes()
	return b, nil
}

// DecodeArtifact restores an artifact and checks that the three blobs agree.
func DecodeArtifact(b Blobs) (*Artifact, error) {
	var me modelEnvelope
	if err := json.Unmarshal(b.Model, &me); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if me.Type != "ridge" || me.Ridge == nil {
		return nil, fmt.Errorf("decode model: unsupported type %q", me.Type)
	}
	var se scalerEnvelope
	if err := json.Unmarshal(b.Scaler, &se); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	if se.Type != "robust" || se.Robust == nil {
		return nil, fmt.Errorf("decode scaler: unsupported type %q", se.Type)
	}
	if len(se.Robust.Center) != len(se.Robust.Scale) {
		return nil, fmt.Errorf("decode scaler: %d centers, %d scales", len(se.Robust.Center), len(se.Robust.Scale))
	}

	a := &Artifact{Model: me.Ridge, Scaler: se.Robust, Features: ParseFeatureList(b.Features)}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// ParseFeatureList reads one name per line, ignoring blank lines and surrounding space.
func ParseFeatureList(b []byte) []string {
	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			out = append(out, name)
		}
	}
	return out
}
