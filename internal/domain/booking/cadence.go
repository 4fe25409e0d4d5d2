package booking

import "fmt"

// Cadence is the repeat frequency chosen for a booking.
type Cadence string

const (
	CadenceNone     Cadence = "none"
	CadenceWeekly   Cadence = "weekly"
	CadenceBiweekly Cadence = "biweekly"
	CadenceMonthly  Cadence = "monthly"
)

// intervalDays maps each repeating cadence to its fixed day interval.
// Monthly is 30 days, not a calendar month.
var intervalDays = map[Cadence]int{
	CadenceWeekly:   7,
	CadenceBiweekly: 14,
	CadenceMonthly:  30,
}

// IsValid returns true if the cadence is recognized.
func (c Cadence) IsValid() bool {
	if c == CadenceNone {
		return true
	}
	_, ok := intervalDays[c]
	return ok
}

// IsRecurring returns true for every cadence except none.
func (c Cadence) IsRecurring() bool {
	return c != CadenceNone && c.IsValid()
}

// IntervalDays returns the day interval, or 0 for none.
func (c Cadence) IntervalDays() int {
	return intervalDays[c]
}

// String returns the string representation of the cadence.
func (c Cadence) String() string {
	return string(c)
}

// ParseCadence converts a string to a Cadence. An empty string means none.
func ParseCadence(s string) (Cadence, error) {
	if s == "" {
		return CadenceNone, nil
	}
	c := Cadence(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid recurrence cadence: %s", s)
	}
	return c, nil
}
