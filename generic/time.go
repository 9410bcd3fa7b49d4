package generic

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - Calendar day used for every case date
// =============================================================================

// DateLayout is the wire format of every date in a case document.
const DateLayout = "2006-01-02"

// TimePoint is a calendar day in UTC. The zero value means "not set".
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates t to its calendar day. The caller's location is kept
// for the truncation so "today" in the caller's zone stays today.
func FromTime(t time.Time) TimePoint {
	if t.IsZero() {
		return TimePoint{}
	}
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseTimePoint accepts "YYYY-MM-DD" or a full RFC3339 timestamp.
// An empty string yields the zero TimePoint.
func ParseTimePoint(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimePoint{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return FromTime(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return FromTime(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.normalize().Weekday() }
func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (tp TimePoint) IsWorkday() bool { return !tp.IsWeekend() }
func (tp TimePoint) IsZero() bool    { return tp.Time.IsZero() }
func (tp TimePoint) IsSet() bool     { return !tp.IsZero() }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.normalize().Format(DateLayout)
}

// =============================================================================
// JSON - "YYYY-MM-DD", empty string or null for unset
// =============================================================================

func (tp TimePoint) MarshalJSON() ([]byte, error) {
	if tp.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + tp.String() + `"`), nil
}

func (tp *TimePoint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*tp = TimePoint{}
		return nil
	}
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseTimePoint(s)
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the signed number of calendar days from -> to. Works
// on Unix seconds, not time.Duration, so any span of years is exact.
func DaysBetween(from, to TimePoint) int {
	return int((to.normalize().Unix() - from.normalize().Unix()) / secondsPerDay)
}

// AbsDaysBetween is DaysBetween without the sign.
func AbsDaysBetween(a, b TimePoint) int {
	d := DaysBetween(a, b)
	if d < 0 {
		return -d
	}
	return d
}

// BusinessDaysBetween counts Monday-Friday days in the inclusive range
// between the earlier and the later of a and b. Argument order does not matter.
func BusinessDaysBetween(a, b TimePoint) int {
	start, end := a, b
	if end.Before(start) {
		start, end = end, start
	}

	total := DaysBetween(start, end) + 1
	weeks := total / 7
	count := weeks * 5

	// Remainder days after the whole weeks.
	current := start.AddDays(weeks * 7)
	for current.BeforeOrEqual(end) {
		if current.IsWorkday() {
			count++
		}
		current = current.AddDays(1)
	}
	return count
}

// Latest returns the latest set TimePoint, or the zero value if none is set.
func Latest(points ...TimePoint) TimePoint {
	var latest TimePoint
	for _, p := range points {
		if p.IsZero() {
			continue
		}
		if latest.IsZero() || p.After(latest) {
			latest = p
		}
	}
	return latest
}
