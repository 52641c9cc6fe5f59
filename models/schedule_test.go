package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func slot(start time.Time, d time.Duration, courtID int) ScheduleSlot {
	return ScheduleSlot{StartsAt: start, EndsAt: start.Add(d), CourtID: courtID}
}

func TestScheduleSlotOverlaps(t *testing.T) {
	base := time.Date(2026, time.September, 5, 9, 0, 0, 0, time.UTC)

	a := slot(base, time.Hour, 1)
	assert.True(t, a.Overlaps(slot(base.Add(30*time.Minute), time.Hour, 2)))
	// Back to back is not an overlap.
	assert.False(t, a.Overlaps(slot(base.Add(time.Hour), time.Hour, 1)))
	assert.True(t, a.SameDay(slot(base.Add(5*time.Hour), time.Hour, 1)))
	assert.False(t, a.SameDay(slot(base.AddDate(0, 0, 1), time.Hour, 1)))
}

func TestRestrictionBlocks(t *testing.T) {
	base := time.Date(2026, time.September, 5, 9, 0, 0, 0, time.UTC)
	courtTwo := 2

	anyCourt := &TeamScheduleRestriction{TeamID: 1, StartsAt: base, EndsAt: base.Add(2 * time.Hour)}
	assert.True(t, anyCourt.Blocks(slot(base.Add(time.Hour), time.Hour, 1)))
	assert.False(t, anyCourt.Blocks(slot(base.Add(2*time.Hour), time.Hour, 1)))

	oneCourt := &TeamScheduleRestriction{TeamID: 1, StartsAt: base, EndsAt: base.Add(2 * time.Hour), CourtID: &courtTwo}
	assert.True(t, oneCourt.Blocks(slot(base, time.Hour, 2)))
	assert.False(t, oneCourt.Blocks(slot(base, time.Hour, 1)))
}
