package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/padelops/tournament-engine/engine"
	"github.com/padelops/tournament-engine/models"
	"github.com/padelops/tournament-engine/repositories"
)

// DayInput is one playing day as submitted by clients: a date plus the
// club's open/close range for that day.
type DayInput struct {
	Date  string `json:"date"`  // "2006-01-02"
	Open  string `json:"open"`  // "15:04"
	Close string `json:"close"` // "15:04"
}

// ScheduleConfig is the client-facing scheduling input shared by
// close-registration, close-groups and regeneration.
type ScheduleConfig struct {
	Days                 []DayInput  `json:"days,omitempty"`
	SlotStarts           []time.Time `json:"slot_starts,omitempty"`
	MatchDurationMinutes int         `json:"match_duration_minutes"`
	CourtIDs             []int       `json:"court_ids"`
}

func (c *ScheduleConfig) engineConfig() (engine.SlotConfig, error) {
	cfg := engine.SlotConfig{
		SlotStarts:    append([]time.Time(nil), c.SlotStarts...),
		MatchDuration: time.Duration(c.MatchDurationMinutes) * time.Minute,
		CourtIDs:      c.CourtIDs,
	}
	for _, day := range c.Days {
		date, err := time.ParseInLocation("2006-01-02", day.Date, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("%w: invalid date %q", ErrValidationFailed, day.Date)
		}
		open, err := time.Parse("15:04", day.Open)
		if err != nil {
			return cfg, fmt.Errorf("%w: invalid open time %q", ErrValidationFailed, day.Open)
		}
		closeAt, err := time.Parse("15:04", day.Close)
		if err != nil {
			return cfg, fmt.Errorf("%w: invalid close time %q", ErrValidationFailed, day.Close)
		}
		start := date.Add(time.Duration(open.Hour())*time.Hour + time.Duration(open.Minute())*time.Minute)
		end := date.Add(time.Duration(closeAt.Hour())*time.Hour + time.Duration(closeAt.Minute())*time.Minute)
		if !start.Before(end) {
			return cfg, fmt.Errorf("%w: day %s opens at %s but closes at %s", ErrValidationFailed, day.Date, day.Open, day.Close)
		}
		cfg.Windows = append(cfg.Windows, engine.TimeWindow{Start: start, End: end})
	}
	return cfg, nil
}

// FixtureRef ties a scheduling fixture back to its concrete match row.
type FixtureRef struct {
	Playoff bool
	MatchID int
	Team1ID *int
	Team2ID *int
}

// RestrictionInput creates a blackout for one team. A nil CourtID blacks
// out every court for the interval.
type RestrictionInput struct {
	TeamID   int       `json:"team_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	CourtID  *int      `json:"court_id,omitempty"`
}

type RegenerateResult struct {
	FixturesCleared   int `json:"fixtures_cleared"`
	FixturesScheduled int `json:"fixtures_scheduled"`
}

type ScheduleService interface {
	// Regenerate re-runs slot assignment over every fixture that has no
	// recorded result, clearing their previous date/time/court first.
	// Fixtures already holding a result are never touched, which is what
	// makes the operation safe to retry.
	Regenerate(ctx context.Context, ownerID, tournamentID int, cfg ScheduleConfig, sink engine.ProgressSink) (*RegenerateResult, error)

	// ScheduleFixtures assigns slots to the given fixtures and persists the
	// assignments atomically. Callers are expected to hold the tournament
	// lock and to have verified ownership.
	ScheduleFixtures(ctx context.Context, tournamentID int, refs []FixtureRef, cfg ScheduleConfig, sink engine.ProgressSink) (int, error)

	AddRestriction(ctx context.Context, ownerID int, input RestrictionInput) (*models.TeamScheduleRestriction, error)
}

type scheduleService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	teamRepo        repositories.TeamRepository
	groupMatchRepo  repositories.GroupMatchRepository
	playoffRepo     repositories.PlayoffMatchRepository
	courtRepo       repositories.CourtRepository
	restrictionRepo repositories.RestrictionRepository
	locks           *TournamentLocks
}

func NewScheduleService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	groupMatchRepo repositories.GroupMatchRepository,
	playoffRepo repositories.PlayoffMatchRepository,
	courtRepo repositories.CourtRepository,
	restrictionRepo repositories.RestrictionRepository,
	locks *TournamentLocks,
) ScheduleService {
	return &scheduleService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		teamRepo:        teamRepo,
		groupMatchRepo:  groupMatchRepo,
		playoffRepo:     playoffRepo,
		courtRepo:       courtRepo,
		restrictionRepo: restrictionRepo,
		locks:           locks,
	}
}

func (s *scheduleService) Regenerate(ctx context.Context, ownerID, tournamentID int, cfg ScheduleConfig, sink engine.ProgressSink) (*RegenerateResult, error) {
	sink = orNopSink(sink)
	unlock := s.locks.Acquire(tournamentID)
	defer unlock()

	if _, err := s.tournamentRepo.GetByIDForOwner(ctx, tournamentID, ownerID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	refs, err := s.pendingFixtures(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	sink.Log(fmt.Sprintf("regenerating schedule for %d unresolved fixtures", len(refs)))

	scheduled, err := s.assignAndPersist(ctx, tournamentID, refs, cfg, sink, true)
	if err != nil {
		return nil, err
	}
	return &RegenerateResult{FixturesCleared: len(refs), FixturesScheduled: scheduled}, nil
}

// pendingFixtures collects every fixture without a recorded first-set
// score: those are the only rows regeneration may touch.
func (s *scheduleService) pendingFixtures(ctx context.Context, tournamentID int) ([]FixtureRef, error) {
	groupMatches, err := s.groupMatchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group matches: %w", err)
	}
	playoffMatches, err := s.playoffRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playoff matches: %w", err)
	}

	refs := make([]FixtureRef, 0, len(groupMatches)+len(playoffMatches))
	for _, m := range groupMatches {
		if m.HasResult() || m.Status == models.MatchStatusCancelled {
			continue
		}
		refs = append(refs, FixtureRef{MatchID: m.ID, Team1ID: m.Team1ID, Team2ID: m.Team2ID})
	}
	for _, m := range playoffMatches {
		if m.HasResult() || m.IsBye || m.Status == models.MatchStatusFinished || m.Status == models.MatchStatusCancelled {
			continue
		}
		refs = append(refs, FixtureRef{Playoff: true, MatchID: m.ID, Team1ID: m.Team1ID, Team2ID: m.Team2ID})
	}
	return refs, nil
}

func (s *scheduleService) ScheduleFixtures(ctx context.Context, tournamentID int, refs []FixtureRef, cfg ScheduleConfig, sink engine.ProgressSink) (int, error) {
	return s.assignAndPersist(ctx, tournamentID, refs, cfg, orNopSink(sink), false)
}

func (s *scheduleService) assignAndPersist(ctx context.Context, tournamentID int, refs []FixtureRef, cfg ScheduleConfig, sink engine.ProgressSink, clearFirst bool) (int, error) {
	if err := s.validateCourts(ctx, tournamentID, cfg.CourtIDs); err != nil {
		return 0, err
	}
	slotCfg, err := cfg.engineConfig()
	if err != nil {
		return 0, err
	}
	slots, err := engine.ExpandSlots(slotCfg)
	if err != nil {
		return 0, err
	}
	restrictions, err := s.restrictionRepo.MapByTournament(ctx, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to load schedule restrictions: %w", err)
	}

	fixtures, ordered := orderFixtures(refs)
	assignments, err := engine.AssignSchedule(fixtures, slots, restrictions, sink)
	if err != nil {
		return 0, err
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if clearFirst {
			for _, ref := range ordered {
				if err := s.updateSchedule(ctx, tx, ref, nil); err != nil {
					return err
				}
			}
		}
		for _, a := range assignments {
			slot := a.Slot
			if err := s.updateSchedule(ctx, tx, ordered[a.FixtureID], &slot); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("schedule: tournament %d, %d fixtures assigned", tournamentID, len(assignments))
	return len(assignments), nil
}

func (s *scheduleService) updateSchedule(ctx context.Context, tx *sql.Tx, ref FixtureRef, slot *models.ScheduleSlot) error {
	if ref.Playoff {
		return s.playoffRepo.UpdateSchedule(ctx, tx, ref.MatchID, slot)
	}
	return s.groupMatchRepo.UpdateSchedule(ctx, tx, ref.MatchID, slot)
}

func (s *scheduleService) validateCourts(ctx context.Context, tournamentID int, courtIDs []int) error {
	unique := uniqueIDs(courtIDs)
	if len(unique) == 0 {
		return fmt.Errorf("%w: at least one court must be selected", ErrValidationFailed)
	}
	count, err := s.courtRepo.CountByTournamentAndIDs(ctx, tournamentID, unique)
	if err != nil {
		return fmt.Errorf("failed to verify courts: %w", err)
	}
	if count != len(unique) {
		return ErrForeignCourts
	}
	return nil
}

// orderFixtures puts fixtures with both teams resolved before dependents
// with unknown teams, keeping the incoming order inside each band. The
// assigner itself does no dependency reasoning; this ordering is the whole
// of it.
func orderFixtures(refs []FixtureRef) ([]engine.Fixture, []FixtureRef) {
	ordered := make([]FixtureRef, 0, len(refs))
	for _, ref := range refs {
		if ref.Team1ID != nil && ref.Team2ID != nil {
			ordered = append(ordered, ref)
		}
	}
	for _, ref := range refs {
		if ref.Team1ID == nil || ref.Team2ID == nil {
			ordered = append(ordered, ref)
		}
	}

	fixtures := make([]engine.Fixture, len(ordered))
	for i, ref := range ordered {
		fixtures[i] = engine.Fixture{ID: i, Team1ID: ref.Team1ID, Team2ID: ref.Team2ID}
	}
	return fixtures, ordered
}

func (s *scheduleService) AddRestriction(ctx context.Context, ownerID int, input RestrictionInput) (*models.TeamScheduleRestriction, error) {
	team, err := s.teamRepo.GetByID(ctx, input.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if _, err := s.tournamentRepo.GetByIDForOwner(ctx, team.TournamentID, ownerID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if !input.StartsAt.Before(input.EndsAt) {
		return nil, fmt.Errorf("%w: restriction start must be before end", ErrValidationFailed)
	}

	restriction := &models.TeamScheduleRestriction{
		TeamID:   input.TeamID,
		StartsAt: input.StartsAt,
		EndsAt:   input.EndsAt,
		CourtID:  input.CourtID,
	}
	if err := s.restrictionRepo.Create(ctx, nil, restriction); err != nil {
		return nil, err
	}
	return restriction, nil
}
