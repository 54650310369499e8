package models

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrMissingFeature   = errors.New("missing feature")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrNoPredictions    = errors.New("no predictions")
)

// InsufficientDataError is returned when history cannot satisfy a window or split minimum.
type InsufficientDataError struct {
	Stage string
	Need  int
	Have  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: need %d rows, have %d", e.Stage, e.Need, e.Have)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// MissingFeatureError is returned when a recorded feature name is absent from the schema.
type MissingFeatureError struct {
	Name string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing feature %q", e.Name)
}

func (e *MissingFeatureError) Is(target error) bool { return target == ErrMissingFeature }
