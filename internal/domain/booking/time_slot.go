package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeSlot is a start time from the fixed daily set, formatted "HH:MM".
type TimeSlot string

// DailySlots is the fixed set of bookable start times.
var DailySlots = []TimeSlot{"08:00", "09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}

// IsValid returns true if the slot belongs to DailySlots.
func (s TimeSlot) IsValid() bool {
	for _, d := range DailySlots {
		if s == d {
			return true
		}
	}
	return false
}

// String returns the string representation of the slot.
func (s TimeSlot) String() string {
	return string(s)
}

// clock returns the slot's hour and minute.
func (s TimeSlot) clock() (int, int) {
	if len(s) != len("00:00") {
		return 0, 0
	}
	h, _ := strconv.Atoi(string(s[:2]))
	m, _ := strconv.Atoi(string(s[3:]))
	return h, m
}

// On returns the slot's start on the calendar day of date, in loc.
func (s TimeSlot) On(date time.Time, loc *time.Location) time.Time {
	h, m := s.clock()
	y, mo, d := date.In(loc).Date()
	return time.Date(y, mo, d, h, m, 0, 0, loc)
}

// NextOccurrence returns the first start of this slot strictly after now.
func (s TimeSlot) NextOccurrence(now time.Time, loc *time.Location) time.Time {
	today := s.On(now, loc)
	if today.After(now) {
		return today
	}
	return s.On(now.In(loc).AddDate(0, 0, 1), loc)
}

// ParseTimeSlot accepts "08:00" or the legacy "08h00" form.
func ParseTimeSlot(s string) (TimeSlot, error) {
	slot := TimeSlot(strings.Replace(strings.TrimSpace(s), "h", ":", 1))
	if !slot.IsValid() {
		return "", fmt.Errorf("invalid time slot: %s", s)
	}
	return slot, nil
}

// ScheduleFor resolves when a booking for slot takes place: on date when one was
// chosen, otherwise at the slot's next occurrence after now.
func ScheduleFor(slot TimeSlot, date *time.Time, now time.Time, loc *time.Location) time.Time {
	if date != nil {
		return slot.On(*date, loc)
	}
	return slot.NextOccurrence(now, loc)
}
