package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/padelops/tournament-engine/models"
)

var ErrInvalidSlotConfig = errors.New("invalid schedule configuration")

// TimeWindow is one open interval of one playing day.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// SlotConfig describes the raw material for candidate slots: either open
// day windows to tile with MatchDuration, or an explicit catalogue of start
// times (SlotStarts), each crossed with every usable court.
type SlotConfig struct {
	Windows       []TimeWindow
	SlotStarts    []time.Time
	MatchDuration time.Duration
	CourtIDs      []int
}

// ExpandSlots expands the configuration into a chronologically ordered
// candidate sequence. Every start time yields one slot per court
// (court-major within the interval), so an interval with C usable courts
// contributes C candidates.
func ExpandSlots(cfg SlotConfig) ([]models.ScheduleSlot, error) {
	if cfg.MatchDuration <= 0 {
		return nil, fmt.Errorf("%w: match duration must be positive", ErrInvalidSlotConfig)
	}
	if len(cfg.CourtIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one court must be selected", ErrInvalidSlotConfig)
	}
	if len(cfg.Windows) == 0 && len(cfg.SlotStarts) == 0 {
		return nil, fmt.Errorf("%w: no playing days or slot catalogue provided", ErrInvalidSlotConfig)
	}

	starts := append([]time.Time(nil), cfg.SlotStarts...)
	if len(starts) == 0 {
		windows := append([]TimeWindow(nil), cfg.Windows...)
		sort.Slice(windows, func(i, j int) bool { return windows[i].Start.Before(windows[j].Start) })
		for _, w := range windows {
			if !w.Start.Before(w.End) {
				return nil, fmt.Errorf("%w: window start %s is not before end %s",
					ErrInvalidSlotConfig, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
			}
			for t := w.Start; !t.Add(cfg.MatchDuration).After(w.End); t = t.Add(cfg.MatchDuration) {
				starts = append(starts, t)
			}
		}
	} else {
		sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	}

	slots := make([]models.ScheduleSlot, 0, len(starts)*len(cfg.CourtIDs))
	for _, start := range starts {
		for _, courtID := range cfg.CourtIDs {
			slots = append(slots, models.ScheduleSlot{
				StartsAt: start,
				EndsAt:   start.Add(cfg.MatchDuration),
				CourtID:  courtID,
			})
		}
	}
	return slots, nil
}
