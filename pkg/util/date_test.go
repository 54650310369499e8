package util

import (
	"testing"
	"time"
)

func TestLookbackRange(t *testing.T) {
	now := time.Date(2024, 10, 10, 15, 4, 5, 0, time.UTC)
	from, to := LookbackRange(now, 365)
	if !to.Equal(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected to %v", to)
	}
	if !from.Equal(time.Date(2023, 10, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", from)
	}
}
