package models

import "time"

// Court is a playable court of the club running the tournament.
type Court struct {
	ID           int    `json:"id"`
	TournamentID int    `json:"tournament_id"`
	Name         string `json:"name"`
}

// ScheduleSlot is a pure scheduling candidate: a concrete time interval on a
// concrete court. It is not owned by anything until assigned to a match.
type ScheduleSlot struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	CourtID  int       `json:"court_id"`
}

// SameDay reports whether both slots fall on the same calendar day.
func (s ScheduleSlot) SameDay(other ScheduleSlot) bool {
	y1, m1, d1 := s.StartsAt.Date()
	y2, m2, d2 := other.StartsAt.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Overlaps reports whether the two time intervals intersect, regardless of
// court.
func (s ScheduleSlot) Overlaps(other ScheduleSlot) bool {
	return s.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(s.EndsAt)
}

// TeamScheduleRestriction blacks out an interval for a team. A nil CourtID
// applies to every court (the common "can't play Saturday morning" case).
type TeamScheduleRestriction struct {
	ID       int       `json:"id"`
	TeamID   int       `json:"team_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	CourtID  *int      `json:"court_id,omitempty"`
}

// Blocks reports whether the restriction forbids the given slot.
func (r *TeamScheduleRestriction) Blocks(slot ScheduleSlot) bool {
	if r.CourtID != nil && *r.CourtID != slot.CourtID {
		return false
	}
	return r.StartsAt.Before(slot.EndsAt) && slot.StartsAt.Before(r.EndsAt)
}
