package model

import (
	"testing"
	"time"
)

func TestWithinDedupWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	tests := []struct {
		name    string
		checkIn time.Time
		want    bool
	}{
		{"just now", now, true},
		{"two minutes ago", now.Add(-2 * time.Minute), true},
		{"exactly at the window boundary", now.Add(-window), true},
		{"one second outside the window", now.Add(-window - time.Second), false},
		{"an hour ago", now.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinDedupWindow(tt.checkIn, now, window); got != tt.want {
				t.Errorf("WithinDedupWindow(%v) = %v, want %v", tt.checkIn, got, tt.want)
			}
		})
	}
}
