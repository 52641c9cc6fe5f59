package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/padelops/tournament-engine/engine"
	"github.com/padelops/tournament-engine/models"
	"github.com/padelops/tournament-engine/repositories"
	"github.com/padelops/tournament-engine/stream"
)

type ResultInput struct {
	Sets []models.SetScore `json:"sets"`
}

// GroupResultOutcome reports what a group result submission did. The result
// itself is always committed when Match is non-nil; the derived work
// (standings refresh, unlocking deferred fixtures) can fail independently
// and is then reported through DownstreamError without undoing the result.
type GroupResultOutcome struct {
	Match           *models.GroupMatch   `json:"match"`
	Standings       []*models.Standing   `json:"standings"`
	UnlockedMatches []*models.GroupMatch `json:"unlocked_matches,omitempty"`
	DownstreamError string               `json:"downstream_error,omitempty"`
}

// PlayoffResultOutcome mirrors GroupResultOutcome for bracket matches:
// NextMatch is the successor the winner was advanced into, nil for the final.
type PlayoffResultOutcome struct {
	Match              *models.PlayoffMatch `json:"match"`
	NextMatch          *models.PlayoffMatch `json:"next_match,omitempty"`
	TournamentFinished bool                 `json:"tournament_finished"`
	DownstreamError    string               `json:"downstream_error,omitempty"`
}

type MatchService interface {
	// SubmitGroupResult records a validated result on a group fixture,
	// recomputes the group's standings and materializes any deferred
	// fixtures whose predecessors just completed. Resubmitting over an
	// earlier result replaces it and re-pairs the open deferred fixtures;
	// it is rejected once a deferred fixture built on this match has
	// recorded its own result.
	SubmitGroupResult(ctx context.Context, ownerID, matchID int, input ResultInput) (*GroupResultOutcome, error)

	// SubmitPlayoffResult records a result on a bracket match and advances
	// the winner along the stored forward edge. Playoff results are final:
	// resubmission over a finished match is rejected.
	SubmitPlayoffResult(ctx context.Context, ownerID, matchID int, input ResultInput) (*PlayoffResultOutcome, error)
}

type matchService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	groupRepo      repositories.GroupRepository
	groupMatchRepo repositories.GroupMatchRepository
	playoffRepo    repositories.PlayoffMatchRepository
	standingRepo   repositories.StandingRepository
	locks          *TournamentLocks
	hub            *stream.Hub
}

func NewMatchService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	groupRepo repositories.GroupRepository,
	groupMatchRepo repositories.GroupMatchRepository,
	playoffRepo repositories.PlayoffMatchRepository,
	standingRepo repositories.StandingRepository,
	locks *TournamentLocks,
	hub *stream.Hub,
) MatchService {
	return &matchService{
		db:             db,
		tournamentRepo: tournamentRepo,
		groupRepo:      groupRepo,
		groupMatchRepo: groupMatchRepo,
		playoffRepo:    playoffRepo,
		standingRepo:   standingRepo,
		locks:          locks,
		hub:            hub,
	}
}

func (s *matchService) SubmitGroupResult(ctx context.Context, ownerID, matchID int, input ResultInput) (*GroupResultOutcome, error) {
	if len(input.Sets) == 0 {
		return nil, ErrNoSetScores
	}

	// Ownership resolves through the group/tournament join; a match that
	// belongs to someone else is indistinguishable from a missing one.
	match, tournamentID, err := s.groupMatchRepo.GetByIDForOwner(ctx, matchID, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	unlock := s.locks.Acquire(tournamentID)
	defer unlock()

	// Re-read under the lock; a concurrent submission may have changed it.
	match, _, err = s.groupMatchRepo.GetByIDForOwner(ctx, matchID, ownerID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusCancelled {
		return nil, ErrMatchCancelled
	}
	if match.Team1ID == nil || match.Team2ID == nil {
		return nil, ErrMatchTeamsNotSet
	}

	// A replaced result flows into deferred fixtures that are still open;
	// once a dependent has recorded its own result the original stands.
	if match.HasResult() {
		siblings, err := s.groupMatchRepo.ListByGroup(ctx, match.GroupID)
		if err != nil {
			return nil, err
		}
		for _, sib := range siblings {
			if sib.SourceMatch1ID == nil || !sib.HasResult() {
				continue
			}
			if *sib.SourceMatch1ID == match.ID || *sib.SourceMatch2ID == match.ID {
				return nil, ErrDependentResultRecorded
			}
		}
	}

	t, err := s.tournamentRepo.GetByIDForOwner(ctx, tournamentID, ownerID)
	if err != nil {
		return nil, err
	}
	if err := engine.ValidateSetScores(input.Sets, t.SuperTiebreakAllowed); err != nil {
		return nil, err
	}

	setsT1, setsT2, gamesT1, gamesT2, winnerSide := engine.SummarizeSets(input.Sets)
	match.Sets = input.Sets
	match.SetsTeam1 = setsT1
	match.SetsTeam2 = setsT2
	match.GamesTeam1 = gamesT1
	match.GamesTeam2 = gamesT2
	if winnerSide == 1 {
		match.WinnerID = match.Team1ID
	} else {
		match.WinnerID = match.Team2ID
	}
	match.Status = models.MatchStatusFinished

	if err := s.groupMatchRepo.UpdateResult(ctx, nil, match); err != nil {
		return nil, err
	}

	outcome := &GroupResultOutcome{Match: match}
	if err := s.refreshAfterGroupResult(ctx, match, outcome); err != nil {
		// The result is committed; the derived refresh failed. Callers see
		// both facts instead of a rollback they would have to re-submit.
		log.Printf("group result %d: downstream refresh failed: %v", matchID, err)
		outcome.DownstreamError = err.Error()
	}

	s.hub.Publish(stream.TournamentRoom(tournamentID), stream.Event{
		Type:    "log",
		Message: fmt.Sprintf("group match %d finished %d-%d sets", matchID, setsT1, setsT2),
		Payload: outcome,
	})
	return outcome, nil
}

// refreshAfterGroupResult recomputes the group's standings (full replace)
// and fills in deferred order3/order4 fixtures whose predecessors are now
// both finished, all in one transaction.
func (s *matchService) refreshAfterGroupResult(ctx context.Context, match *models.GroupMatch, outcome *GroupResultOutcome) error {
	members, err := s.groupRepo.ListMemberTeamIDs(ctx, match.GroupID)
	if err != nil {
		return err
	}
	matches, err := s.groupMatchRepo.ListByGroup(ctx, match.GroupID)
	if err != nil {
		return err
	}

	rows := engine.ComputeStandings(members, matches)
	standings := make([]*models.Standing, 0, len(rows))
	for _, row := range rows {
		standings = append(standings, standingFromRow(match.GroupID, row))
	}

	fills := materializeDeferred(matches)

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.standingRepo.DeleteByGroupID(ctx, tx, match.GroupID); err != nil {
			return err
		}
		if err := s.standingRepo.BatchCreate(ctx, tx, standings); err != nil {
			return err
		}
		for _, f := range fills {
			if err := s.groupMatchRepo.UpdateTeams(ctx, tx, f.matchID, f.team1, f.team2, models.MatchStatusScheduled); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	byID := make(map[int]*models.GroupMatch, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	outcome.Standings = standings
	for _, f := range fills {
		m := byID[f.matchID]
		m.Team1ID = f.team1
		m.Team2ID = f.team2
		outcome.UnlockedMatches = append(outcome.UnlockedMatches, m)
	}
	return nil
}

type deferredFill struct {
	matchID int
	team1   *int
	team2   *int
}

// materializeDeferred computes the pairings of deferred fixtures whose
// predecessors are both finished. Fixtures holding a recorded result are left
// alone; pairings that were already set are recomputed, so a replaced
// predecessor result reaches its dependents instead of leaving them stale.
func materializeDeferred(matches []*models.GroupMatch) []deferredFill {
	byID := make(map[int]*models.GroupMatch, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}

	var fills []deferredFill
	for _, m := range matches {
		if m.SourceRule == nil || m.HasResult() || m.Status == models.MatchStatusCancelled {
			continue
		}
		s1 := byID[*m.SourceMatch1ID]
		s2 := byID[*m.SourceMatch2ID]
		if s1 == nil || s2 == nil || s1.Status != models.MatchStatusFinished || s2.Status != models.MatchStatusFinished {
			continue
		}
		fills = append(fills, deferredFill{
			matchID: m.ID,
			team1:   sideOf(s1, *m.SourceRule),
			team2:   sideOf(s2, *m.SourceRule),
		})
	}
	return fills
}

// sideOf picks the winner's or loser's team id from a finished match.
func sideOf(m *models.GroupMatch, rule models.SourceRule) *int {
	if m.WinnerID == nil {
		return nil
	}
	if rule == models.SourceRuleWinner {
		return m.WinnerID
	}
	if m.Team1ID != nil && *m.Team1ID == *m.WinnerID {
		return m.Team2ID
	}
	return m.Team1ID
}

func (s *matchService) SubmitPlayoffResult(ctx context.Context, ownerID, matchID int, input ResultInput) (*PlayoffResultOutcome, error) {
	if len(input.Sets) == 0 {
		return nil, ErrNoSetScores
	}

	match, err := s.playoffRepo.GetByIDForOwner(ctx, matchID, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayoffMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	unlock := s.locks.Acquire(match.TournamentID)
	defer unlock()

	match, err = s.playoffRepo.GetByIDForOwner(ctx, matchID, ownerID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusCancelled {
		return nil, ErrMatchCancelled
	}
	if match.IsBye || match.Status == models.MatchStatusFinished {
		return nil, ErrMatchAlreadyFinished
	}
	if match.Team1ID == nil || match.Team2ID == nil {
		return nil, ErrMatchTeamsNotSet
	}

	t, err := s.tournamentRepo.GetByIDForOwner(ctx, match.TournamentID, ownerID)
	if err != nil {
		return nil, err
	}
	superAllowed := t.SuperTiebreakAllowed && match.Round.AllowsSuperTiebreak()
	if err := engine.ValidateSetScores(input.Sets, superAllowed); err != nil {
		return nil, err
	}

	setsT1, setsT2, gamesT1, gamesT2, winnerSide := engine.SummarizeSets(input.Sets)
	match.Sets = input.Sets
	match.SetsTeam1 = setsT1
	match.SetsTeam2 = setsT2
	match.GamesTeam1 = gamesT1
	match.GamesTeam2 = gamesT2
	if winnerSide == 1 {
		match.WinnerID = match.Team1ID
	} else {
		match.WinnerID = match.Team2ID
	}
	match.Status = models.MatchStatusFinished

	if err := s.playoffRepo.UpdateResult(ctx, nil, match); err != nil {
		return nil, err
	}

	outcome := &PlayoffResultOutcome{Match: match}
	if err := s.advanceWinner(ctx, match, outcome); err != nil {
		log.Printf("playoff result %d: advancement failed: %v", matchID, err)
		outcome.DownstreamError = err.Error()
	}

	s.hub.Publish(stream.TournamentRoom(match.TournamentID), stream.Event{
		Type:    "log",
		Message: fmt.Sprintf("playoff %s match %d finished", match.Round, match.BracketPos),
		Payload: outcome,
	})
	return outcome, nil
}

// advanceWinner moves the winner along the stored forward edge, or closes
// the tournament when the final just finished.
func (s *matchService) advanceWinner(ctx context.Context, match *models.PlayoffMatch, outcome *PlayoffResultOutcome) error {
	if match.NextMatchID == nil {
		if match.Round != models.RoundFinal {
			return fmt.Errorf("match %d has no successor but is not the final", match.ID)
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, match.TournamentID, models.TournamentStatusFinished); err != nil {
			return err
		}
		outcome.TournamentFinished = true
		return nil
	}
	if match.NextSlot == nil {
		return fmt.Errorf("match %d has a successor but no slot", match.ID)
	}

	// Successors are created scheduled and stay scheduled until their own
	// result, so advancement only writes the slot.
	if err := s.playoffRepo.UpdateTeamSlot(ctx, nil, *match.NextMatchID, *match.NextSlot, *match.WinnerID); err != nil {
		return err
	}

	next, err := s.playoffRepo.GetByID(ctx, *match.NextMatchID)
	if err != nil {
		return err
	}
	outcome.NextMatch = next
	return nil
}
