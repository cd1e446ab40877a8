package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want Weekday
		ok   bool
	}{
		{"Monday", Monday, true},
		{"monday", Monday, true},
		{"  SUN ", Sunday, true},
		{"thu", Thursday, true},
		{"Thurs", "", false},
		{"mo", "", false},
		{"", "", false},
		{"Funday", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseWeekday(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeekdayValid(t *testing.T) {
	for _, day := range Week {
		assert.True(t, day.Valid(), day)
	}
	assert.False(t, Weekday("monday").Valid())
	assert.False(t, Weekday("").Valid())
	assert.Equal(t, 0, Sunday.Index())
	assert.Equal(t, 6, Saturday.Index())
}

func TestStartOfWeek(t *testing.T) {
	// Wednesday 2024-05-15 14:30.
	now := time.Date(2024, time.May, 15, 14, 30, 0, 0, time.UTC)

	start := StartOfWeek(now)
	assert.Equal(t, time.Date(2024, time.May, 12, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, Sunday, WeekdayOf(start))
	assert.Equal(t, Wednesday, WeekdayOf(now))

	// A Sunday is its own week start.
	assert.Equal(t, start, StartOfWeek(start.Add(3*time.Hour)))
}

func TestStatusNormalize(t *testing.T) {
	assert.Equal(t, StatusActive, Status("not-completed").Normalize())
	assert.Equal(t, StatusActive, StatusActive.Normalize())
	assert.Equal(t, StatusCompleted, StatusCompleted.Normalize())
	assert.False(t, Status("not-completed").Valid())
}
