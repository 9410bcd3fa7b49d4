package generic

// =============================================================================
// PERIOD - A start/end pair of calendar days
// =============================================================================

// Period is an inclusive range of days. Either end may be unset while a
// case is being filled in.
type Period struct {
	Start TimePoint
	End   TimePoint
}

func NewPeriod(start, end TimePoint) Period {
	return Period{Start: start, End: end}
}

// IsComplete is true when both ends are set.
func (p Period) IsComplete() bool {
	return p.Start.IsSet() && p.End.IsSet()
}

// Inverted is true when both ends are set and End falls before Start.
func (p Period) Inverted() bool {
	return p.IsComplete() && p.End.Before(p.Start)
}

// DayCount is the number of calendar days in the period, both ends
// included. Zero for an incomplete or inverted period.
func (p Period) DayCount() int {
	if !p.IsComplete() || p.Inverted() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}
