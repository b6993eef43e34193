package model

import "testing"

func TestDurationInDays(t *testing.T) {
	tests := []struct {
		name  string
		value int
		unit  DurationUnit
		want  int
	}{
		{"days pass through", 14, DurationDays, 14},
		{"one month is 30 days", 1, DurationMonths, 30},
		{"three months is 90 days", 3, DurationMonths, 90},
		{"one year is 365 days", 1, DurationYears, 365},
		{"two years is 730 days", 2, DurationYears, 730},
		{"unknown unit falls back to value", 7, DurationUnit("weeks"), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Plan{DurationValue: tt.value, DurationUnit: tt.unit}
			if got := p.DurationInDays(); got != tt.want {
				t.Errorf("DurationInDays() = %d, want %d", got, tt.want)
			}
		})
	}
}
