package booking

import (
	"iter"
	"slices"
	"time"
)

// DefaultRecurrenceCount is the number of future bookings derived from a recurring primary.
const DefaultRecurrenceCount = 3

// Expand yields count dates after anchor, spaced by the cadence interval in
// calendar days: anchor+1*interval, anchor+2*interval, ... The anchor itself
// is excluded. Days are counted in the anchor's location, so the wall-clock
// time is kept across DST changes. The sequence holds no state; ranging over
// it twice yields the same dates. Non-recurring cadences and non-positive
// counts yield nothing.
func Expand(anchor time.Time, cadence Cadence, count int) iter.Seq[time.Time] {
	days := cadence.IntervalDays()
	return func(yield func(time.Time) bool) {
		if days == 0 {
			return
		}
		for k := 1; k <= count; k++ {
			if !yield(anchor.AddDate(0, 0, k*days)) {
				return
			}
		}
	}
}

// ExpandDates collects Expand into a slice.
func ExpandDates(anchor time.Time, cadence Cadence, count int) []time.Time {
	return slices.Collect(Expand(anchor, cadence, count))
}
