package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(hour, minute int) time.Time {
	return time.Date(2026, time.September, 5, hour, minute, 0, 0, time.UTC)
}

func TestExpandSlotsValidation(t *testing.T) {
	window := TimeWindow{Start: day(9, 0), End: day(12, 0)}

	_, err := ExpandSlots(SlotConfig{Windows: []TimeWindow{window}, CourtIDs: []int{1}})
	require.ErrorIs(t, err, ErrInvalidSlotConfig) // no duration

	_, err = ExpandSlots(SlotConfig{Windows: []TimeWindow{window}, MatchDuration: time.Hour})
	require.ErrorIs(t, err, ErrInvalidSlotConfig) // no courts

	_, err = ExpandSlots(SlotConfig{MatchDuration: time.Hour, CourtIDs: []int{1}})
	require.ErrorIs(t, err, ErrInvalidSlotConfig) // nothing to expand

	_, err = ExpandSlots(SlotConfig{
		Windows:       []TimeWindow{{Start: day(12, 0), End: day(9, 0)}},
		MatchDuration: time.Hour,
		CourtIDs:      []int{1},
	})
	require.ErrorIs(t, err, ErrInvalidSlotConfig) // inverted window
}

func TestExpandSlotsTilesWindows(t *testing.T) {
	slots, err := ExpandSlots(SlotConfig{
		Windows:       []TimeWindow{{Start: day(9, 0), End: day(11, 0)}},
		MatchDuration: 30 * time.Minute,
		CourtIDs:      []int{1, 2},
	})
	require.NoError(t, err)
	// 4 starts x 2 courts, chronological court-major.
	require.Len(t, slots, 8)
	assert.Equal(t, day(9, 0), slots[0].StartsAt)
	assert.Equal(t, day(9, 30), slots[0].EndsAt)
	assert.Equal(t, 1, slots[0].CourtID)
	assert.Equal(t, day(9, 0), slots[1].StartsAt)
	assert.Equal(t, 2, slots[1].CourtID)
	assert.Equal(t, day(9, 30), slots[2].StartsAt)
	assert.Equal(t, day(10, 30), slots[6].StartsAt)
}

func TestExpandSlotsDropsPartialTailSlot(t *testing.T) {
	slots, err := ExpandSlots(SlotConfig{
		Windows:       []TimeWindow{{Start: day(9, 0), End: day(10, 30)}},
		MatchDuration: time.Hour,
		CourtIDs:      []int{1},
	})
	require.NoError(t, err)
	// Only 09:00 fits; a 10:00 slot would spill past 10:30.
	require.Len(t, slots, 1)
	assert.Equal(t, day(9, 0), slots[0].StartsAt)
}

func TestExpandSlotsCatalogueModeSortsStarts(t *testing.T) {
	slots, err := ExpandSlots(SlotConfig{
		SlotStarts:    []time.Time{day(15, 0), day(9, 0), day(12, 0)},
		MatchDuration: time.Hour,
		CourtIDs:      []int{3},
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, day(9, 0), slots[0].StartsAt)
	assert.Equal(t, day(12, 0), slots[1].StartsAt)
	assert.Equal(t, day(15, 0), slots[2].StartsAt)
	assert.Equal(t, day(10, 0), slots[0].EndsAt)
}

func TestExpandSlotsOrdersMultipleWindows(t *testing.T) {
	slots, err := ExpandSlots(SlotConfig{
		Windows: []TimeWindow{
			{Start: day(14, 0), End: day(15, 0)},
			{Start: day(9, 0), End: day(10, 0)},
		},
		MatchDuration: time.Hour,
		CourtIDs:      []int{1},
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].StartsAt.Before(slots[1].StartsAt))
}
