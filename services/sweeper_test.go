package services

import (
	"testing"
	"time"
)

func TestNextMidnight(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "midday",
			now:  time.Date(2025, 3, 10, 12, 30, 0, 0, loc),
			want: time.Date(2025, 3, 11, 0, 0, 0, 0, loc),
		},
		{
			name: "exactly midnight rolls to the next day",
			now:  time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
			want: time.Date(2025, 3, 11, 0, 0, 0, 0, loc),
		},
		{
			name: "month boundary",
			now:  time.Date(2025, 3, 31, 23, 59, 59, 0, loc),
			want: time.Date(2025, 4, 1, 0, 0, 0, 0, loc),
		},
		{
			name: "year boundary",
			now:  time.Date(2025, 12, 31, 6, 0, 0, 0, loc),
			want: time.Date(2026, 1, 1, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextMidnight(tt.now)
			if !got.Equal(tt.want) {
				t.Errorf("NextMidnight(%v) = %v, want %v", tt.now, got, tt.want)
			}
			if !got.After(tt.now) {
				t.Errorf("NextMidnight must be strictly after now")
			}
		})
	}
}
