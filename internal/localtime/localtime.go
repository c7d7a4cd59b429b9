// Package localtime fixes the local calendar offset used everywhere a
// "today" window or an HH:MM schedule string needs interpreting. All
// callers must go through this package; divergent day-boundary logic
// between callers is a correctness bug.
package localtime

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Offset is a fixed local offset expressed in minutes east of UTC.
// The reference deployment runs at UTC+5:30 (330 minutes).
type Offset int

var clockRe = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// Location returns the fixed-zone location for the offset.
func (o Offset) Location() *time.Location {
	return time.FixedZone("local", int(o)*60)
}

// DayWindow returns the half-open window [start, end) covering the
// local calendar day that contains t, expressed in UTC.
func (o Offset) DayWindow(t time.Time) (time.Time, time.Time) {
	lt := t.In(o.Location())
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, o.Location()).UTC()
	return start, start.Add(24 * time.Hour)
}

// MinuteOfDay returns t's minute within its local calendar day,
// comparable against a parsed HH:MM schedule value.
func (o Offset) MinuteOfDay(t time.Time) int {
	lt := t.In(o.Location())
	return lt.Hour()*60 + lt.Minute()
}

// Clock formats t as a local HH:MM:SS string.
func (o Offset) Clock(t time.Time) string {
	return t.In(o.Location()).Format("15:04:05")
}

// Date formats t's local calendar date as YYYY-MM-DD.
func (o Offset) Date(t time.Time) string {
	return t.In(o.Location()).Format("2006-01-02")
}

// ParseClock converts an HH:MM schedule string into a minute-of-day
// integer.
func ParseClock(s string) (int, error) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid HH:MM time %q", s)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes, nil
}
