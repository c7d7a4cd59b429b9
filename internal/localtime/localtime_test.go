package localtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const ist = Offset(330) // UTC+5:30

func TestDayWindow(t *testing.T) {
	// 00:30 local on the 16th is 19:00 UTC on the 15th; the window must
	// still cover the local 16th.
	at := time.Date(2025, 3, 15, 19, 0, 0, 0, time.UTC)
	start, end := ist.DayWindow(at)

	assert.Equal(t, time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC), start)
	assert.Equal(t, start.Add(24*time.Hour), end)
	assert.True(t, !at.Before(start) && at.Before(end))
}

func TestDayWindowIsHalfOpen(t *testing.T) {
	at := time.Date(2025, 3, 16, 12, 0, 0, 0, time.UTC)
	start, end := ist.DayWindow(at)

	// Local midnight of the next day belongs to the next window.
	nextStart, _ := ist.DayWindow(end)
	assert.Equal(t, end, nextStart)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestDayWindowConsistentAcrossDay(t *testing.T) {
	morning := time.Date(2025, 3, 15, 19, 0, 0, 0, time.UTC)  // 00:30 local
	evening := time.Date(2025, 3, 16, 17, 45, 0, 0, time.UTC) // 23:15 local

	mStart, mEnd := ist.DayWindow(morning)
	eStart, eEnd := ist.DayWindow(evening)
	assert.Equal(t, mStart, eStart)
	assert.Equal(t, mEnd, eEnd)
}

func TestMinuteOfDay(t *testing.T) {
	// 02:30 UTC is 08:00 local.
	at := time.Date(2025, 3, 16, 2, 30, 0, 0, time.UTC)
	assert.Equal(t, 8*60, ist.MinuteOfDay(at))

	// Local midnight.
	at = time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, 0, ist.MinuteOfDay(at))
}

func TestClockAndDate(t *testing.T) {
	at := time.Date(2025, 3, 16, 2, 30, 45, 0, time.UTC)
	assert.Equal(t, "08:00:45", ist.Clock(at))
	assert.Equal(t, "2025-03-16", ist.Date(at))

	// Late local evening rolls the date forward relative to UTC.
	at = time.Date(2025, 3, 16, 19, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-17", ist.Date(at))
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		minutes int
		ok      bool
	}{
		{"08:00", 480, true},
		{"8:05", 485, true},
		{"23:59", 1439, true},
		{"00:00", 0, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.ok {
			assert.NoError(t, err, tc.in)
			assert.Equal(t, tc.minutes, got, tc.in)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}
