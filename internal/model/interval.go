package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a wall-clock time of day expressed as minutes since midnight.
// Reservations compare times of day only; the calendar date is a separate
// equality predicate and is never folded into a single timestamp, so an
// interval can never silently wrap across midnight.
type Clock int

// ParseClock parses an "HH:mm" string into a Clock. Seconds, when present
// (MySQL TIME columns come back as "HH:mm:ss"), are ignored.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return Clock(h*60 + m), nil
}

// String renders the clock back to "HH:mm".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Interval is a half-open time range [Start, End) on a single calendar
// date. The end instant itself is excluded, so back-to-back bookings
// (one ending exactly when the next starts) never conflict.
type Interval struct {
	Start Clock
	End   Clock
}

// Valid reports whether the interval is well formed (Start strictly
// before End). Every reservation ever created satisfies this.
func (iv Interval) Valid() bool { return iv.Start < iv.End }

// Overlaps reports whether two intervals on the same seat and date
// intersect under half-open semantics: a.Start < b.End && b.Start < a.End.
// Equal boundaries do not count as overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}
