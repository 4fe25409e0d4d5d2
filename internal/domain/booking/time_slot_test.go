package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSlot_IsValid(t *testing.T) {
	for _, s := range DailySlots {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, TimeSlot("12:00").IsValid())
	assert.False(t, TimeSlot("").IsValid())
}

func TestParseTimeSlot(t *testing.T) {
	slot, err := ParseTimeSlot("08h00")
	require.NoError(t, err)
	assert.Equal(t, TimeSlot("08:00"), slot)

	slot, err = ParseTimeSlot(" 14:00 ")
	require.NoError(t, err)
	assert.Equal(t, TimeSlot("14:00"), slot)

	_, err = ParseTimeSlot("13:00")
	assert.Error(t, err)
}

func TestScheduleFor(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2025, 3, 2, 9, 30, 0, 0, loc)

	t.Run("explicit date", func(t *testing.T) {
		date := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
		got := ScheduleFor("15:00", &date, now, loc)
		assert.Equal(t, time.Date(2025, 3, 10, 15, 0, 0, 0, loc), got)
	})

	t.Run("later today", func(t *testing.T) {
		got := ScheduleFor("10:00", nil, now, loc)
		assert.Equal(t, time.Date(2025, 3, 2, 10, 0, 0, 0, loc), got)
	})

	t.Run("already passed rolls to tomorrow", func(t *testing.T) {
		got := ScheduleFor("09:00", nil, now, loc)
		assert.Equal(t, time.Date(2025, 3, 3, 9, 0, 0, 0, loc), got)
	})
}
