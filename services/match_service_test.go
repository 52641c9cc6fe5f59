package services

import (
	"context"
	"testing"

	"github.com/padelops/tournament-engine/engine"
	"github.com/padelops/tournament-engine/models"
	"github.com/padelops/tournament-engine/repositories"
	"github.com/padelops/tournament-engine/stream"
	"github.com/stretchr/testify/require"
)

// Fakes embed the repository interfaces so only the methods a test path
// actually reaches need implementations.

type fakeGroupMatchRepo struct {
	repositories.GroupMatchRepository
	match        *models.GroupMatch
	siblings     []*models.GroupMatch
	tournamentID int
	err          error
}

func (f *fakeGroupMatchRepo) GetByIDForOwner(ctx context.Context, id, ownerID int) (*models.GroupMatch, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.match, f.tournamentID, nil
}

func (f *fakeGroupMatchRepo) ListByGroup(ctx context.Context, groupID int) ([]*models.GroupMatch, error) {
	return f.siblings, nil
}

type slotWrite struct {
	matchID int
	slot    int
	teamID  int
}

type fakePlayoffRepo struct {
	repositories.PlayoffMatchRepository
	match *models.PlayoffMatch
	next  *models.PlayoffMatch
	err   error

	slotWrites []slotWrite
}

func (f *fakePlayoffRepo) GetByIDForOwner(ctx context.Context, id, ownerID int) (*models.PlayoffMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.match, nil
}

func (f *fakePlayoffRepo) GetByID(ctx context.Context, id int) (*models.PlayoffMatch, error) {
	return f.next, nil
}

func (f *fakePlayoffRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, match *models.PlayoffMatch) error {
	return nil
}

func (f *fakePlayoffRepo) UpdateTeamSlot(ctx context.Context, exec repositories.SQLExecutor, id, slot, teamID int) error {
	f.slotWrites = append(f.slotWrites, slotWrite{matchID: id, slot: slot, teamID: teamID})
	return nil
}

type fakeTournamentRepo struct {
	repositories.TournamentRepository
	tournament   *models.Tournament
	statusWrites []models.TournamentStatus
}

func (f *fakeTournamentRepo) GetByIDForOwner(ctx context.Context, id, ownerID int) (*models.Tournament, error) {
	return f.tournament, nil
}

func (f *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	f.statusWrites = append(f.statusWrites, status)
	return nil
}

func groupMatchService(repo *fakeGroupMatchRepo, tournament *models.Tournament) *matchService {
	return &matchService{
		tournamentRepo: &fakeTournamentRepo{tournament: tournament},
		groupMatchRepo: repo,
		locks:          NewTournamentLocks(),
		hub:            stream.NewHub(),
	}
}

func playoffMatchService(repo *fakePlayoffRepo, tournament *models.Tournament) *matchService {
	return &matchService{
		tournamentRepo: &fakeTournamentRepo{tournament: tournament},
		playoffRepo:    repo,
		locks:          NewTournamentLocks(),
		hub:            stream.NewHub(),
	}
}

func validSets() []models.SetScore {
	return []models.SetScore{{Team1: 6, Team2: 3}, {Team1: 6, Team2: 4}}
}

func TestSubmitGroupResultRequiresSets(t *testing.T) {
	s := &matchService{}
	_, err := s.SubmitGroupResult(context.Background(), 1, 10, ResultInput{})
	require.ErrorIs(t, err, ErrNoSetScores)
}

func TestSubmitGroupResultUnknownMatch(t *testing.T) {
	s := groupMatchService(&fakeGroupMatchRepo{err: repositories.ErrGroupMatchNotFound}, nil)
	_, err := s.SubmitGroupResult(context.Background(), 1, 10, ResultInput{Sets: validSets()})
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestSubmitGroupResultCancelledMatch(t *testing.T) {
	one, two := 1, 2
	repo := &fakeGroupMatchRepo{
		match:        &models.GroupMatch{ID: 10, Team1ID: &one, Team2ID: &two, Status: models.MatchStatusCancelled},
		tournamentID: 5,
	}
	s := groupMatchService(repo, &models.Tournament{ID: 5})
	_, err := s.SubmitGroupResult(context.Background(), 1, 10, ResultInput{Sets: validSets()})
	require.ErrorIs(t, err, ErrMatchCancelled)
}

func TestSubmitGroupResultDeferredMatchWithoutTeams(t *testing.T) {
	repo := &fakeGroupMatchRepo{
		match:        &models.GroupMatch{ID: 10, Status: models.MatchStatusScheduled},
		tournamentID: 5,
	}
	s := groupMatchService(repo, &models.Tournament{ID: 5})
	_, err := s.SubmitGroupResult(context.Background(), 1, 10, ResultInput{Sets: validSets()})
	require.ErrorIs(t, err, ErrMatchTeamsNotSet)
}

func TestSubmitGroupResultRejectsInvalidScores(t *testing.T) {
	one, two := 1, 2
	repo := &fakeGroupMatchRepo{
		match:        &models.GroupMatch{ID: 10, Team1ID: &one, Team2ID: &two, Status: models.MatchStatusScheduled},
		tournamentID: 5,
	}
	s := groupMatchService(repo, &models.Tournament{ID: 5})

	_, err := s.SubmitGroupResult(context.Background(), 1, 10, ResultInput{
		Sets: []models.SetScore{{Team1: 6, Team2: 5}, {Team1: 6, Team2: 0}},
	})
	require.ErrorIs(t, err, engine.ErrInvalidSets)
}

func TestSubmitGroupResultSuperTiebreakFollowsTournamentFlag(t *testing.T) {
	one, two := 1, 2
	repo := &fakeGroupMatchRepo{
		match:        &models.GroupMatch{ID: 10, Team1ID: &one, Team2ID: &two, Status: models.MatchStatusScheduled},
		tournamentID: 5,
	}
	s := groupMatchService(repo, &models.Tournament{ID: 5, SuperTiebreakAllowed: false})

	superTB := ResultInput{Sets: []models.SetScore{{Team1: 6, Team2: 2}, {Team1: 2, Team2: 6}, {Team1: 10, Team2: 7}}}
	_, err := s.SubmitGroupResult(context.Background(), 1, 10, superTB)
	require.ErrorIs(t, err, engine.ErrInvalidSets)
}

func TestSubmitPlayoffResultRequiresSets(t *testing.T) {
	s := &matchService{}
	_, err := s.SubmitPlayoffResult(context.Background(), 1, 10, ResultInput{})
	require.ErrorIs(t, err, ErrNoSetScores)
}

func TestSubmitPlayoffResultUnknownMatch(t *testing.T) {
	s := playoffMatchService(&fakePlayoffRepo{err: repositories.ErrPlayoffMatchNotFound}, nil)
	_, err := s.SubmitPlayoffResult(context.Background(), 1, 10, ResultInput{Sets: validSets()})
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestSubmitPlayoffResultRejectsResubmission(t *testing.T) {
	one, two := 1, 2
	repo := &fakePlayoffRepo{
		match: &models.PlayoffMatch{
			ID: 10, TournamentID: 5, Round: models.RoundSemifinal,
			Team1ID: &one, Team2ID: &two, Status: models.MatchStatusFinished,
		},
	}
	s := playoffMatchService(repo, &models.Tournament{ID: 5})
	_, err := s.SubmitPlayoffResult(context.Background(), 1, 10, ResultInput{Sets: validSets()})
	require.ErrorIs(t, err, ErrMatchAlreadyFinished)
}

func TestSubmitPlayoffResultRejectsBye(t *testing.T) {
	one := 1
	repo := &fakePlayoffRepo{
		match: &models.PlayoffMatch{
			ID: 10, TournamentID: 5, Round: models.RoundCuartos,
			Team1ID: &one, IsBye: true, Status: models.MatchStatusFinished,
		},
	}
	s := playoffMatchService(repo, &models.Tournament{ID: 5})
	_, err := s.SubmitPlayoffResult(context.Background(), 1, 10, ResultInput{Sets: validSets()})
	require.ErrorIs(t, err, ErrMatchAlreadyFinished)
}

func TestSubmitPlayoffResultRejectsUnresolvedSlots(t *testing.T) {
	one := 1
	repo := &fakePlayoffRepo{
		match: &models.PlayoffMatch{
			ID: 10, TournamentID: 5, Round: models.RoundSemifinal,
			Team1ID: &one, Status: models.MatchStatusScheduled,
		},
	}
	s := playoffMatchService(repo, &models.Tournament{ID: 5})
	_, err := s.SubmitPlayoffResult(context.Background(), 1, 10, ResultInput{Sets: validSets()})
	require.ErrorIs(t, err, ErrMatchTeamsNotSet)
}

func TestSubmitGroupResultRejectsResubmissionAfterDependentResult(t *testing.T) {
	one, three, four := 1, 3, 4
	order1ID, order2ID := 10, 11
	winnerRule := models.SourceRuleWinner
	order1 := &models.GroupMatch{
		ID: order1ID, GroupID: 3, Team1ID: &one, Team2ID: &four,
		Sets: validSets(), WinnerID: &one, Status: models.MatchStatusFinished,
	}
	order3 := &models.GroupMatch{
		ID: 12, GroupID: 3, Team1ID: &one, Team2ID: &three,
		SourceMatch1ID: &order1ID, SourceMatch2ID: &order2ID, SourceRule: &winnerRule,
		Sets: validSets(), WinnerID: &three, Status: models.MatchStatusFinished,
	}
	repo := &fakeGroupMatchRepo{
		match:        order1,
		siblings:     []*models.GroupMatch{order1, order3},
		tournamentID: 5,
	}
	s := groupMatchService(repo, &models.Tournament{ID: 5})

	flipped := ResultInput{Sets: []models.SetScore{{Team1: 3, Team2: 6}, {Team1: 4, Team2: 6}}}
	_, err := s.SubmitGroupResult(context.Background(), 1, order1ID, flipped)
	require.ErrorIs(t, err, ErrDependentResultRecorded)
}

func TestSideOf(t *testing.T) {
	one, four := 1, 4
	m := &models.GroupMatch{ID: 10, Team1ID: &one, Team2ID: &four, WinnerID: &one, Status: models.MatchStatusFinished}

	require.Equal(t, &one, sideOf(m, models.SourceRuleWinner))
	require.Equal(t, &four, sideOf(m, models.SourceRuleLoser))

	unfinished := &models.GroupMatch{ID: 11, Team1ID: &one, Team2ID: &four}
	require.Nil(t, sideOf(unfinished, models.SourceRuleWinner))
}

// fourTeamGroup builds the order1..order4 fixture set of one group: order1
// and order2 finished, order3 (winners) and order4 (losers) deferred.
func fourTeamGroup(order1Winner int) []*models.GroupMatch {
	one, two, three, four := 1, 2, 3, 4
	order1ID, order2ID := 10, 11
	winnerRule, loserRule := models.SourceRuleWinner, models.SourceRuleLoser

	w1 := order1Winner
	w2 := three
	return []*models.GroupMatch{
		{ID: order1ID, GroupID: 3, Team1ID: &one, Team2ID: &four, Sets: validSets(), WinnerID: &w1, Status: models.MatchStatusFinished},
		{ID: order2ID, GroupID: 3, Team1ID: &two, Team2ID: &three, Sets: validSets(), WinnerID: &w2, Status: models.MatchStatusFinished},
		{ID: 12, GroupID: 3, SourceMatch1ID: &order1ID, SourceMatch2ID: &order2ID, SourceRule: &winnerRule, Status: models.MatchStatusScheduled},
		{ID: 13, GroupID: 3, SourceMatch1ID: &order1ID, SourceMatch2ID: &order2ID, SourceRule: &loserRule, Status: models.MatchStatusScheduled},
	}
}

func TestMaterializeDeferredFillsPairings(t *testing.T) {
	matches := fourTeamGroup(1)

	fills := materializeDeferred(matches)
	require.Len(t, fills, 2)

	require.Equal(t, 12, fills[0].matchID)
	require.Equal(t, 1, *fills[0].team1)
	require.Equal(t, 3, *fills[0].team2)

	require.Equal(t, 13, fills[1].matchID)
	require.Equal(t, 4, *fills[1].team1)
	require.Equal(t, 2, *fills[1].team2)
}

func TestMaterializeDeferredSkipsUnfinishedPredecessors(t *testing.T) {
	matches := fourTeamGroup(1)
	matches[1].Status = models.MatchStatusScheduled
	matches[1].WinnerID = nil
	matches[1].Sets = nil

	require.Empty(t, materializeDeferred(matches))
}

func TestMaterializeDeferredRecomputesAfterReplacedResult(t *testing.T) {
	matches := fourTeamGroup(1)

	// First materialization set order3 to winners 1 v 3 and order4 to
	// losers 4 v 2.
	first := materializeDeferred(matches)
	require.Len(t, first, 2)
	matches[2].Team1ID = first[0].team1
	matches[2].Team2ID = first[0].team2
	matches[3].Team1ID = first[1].team1
	matches[3].Team2ID = first[1].team2

	// The order1 result is replaced with the opposite winner. Both deferred
	// fixtures are still open, so their pairings follow.
	four := 4
	matches[0].WinnerID = &four

	second := materializeDeferred(matches)
	require.Len(t, second, 2)
	require.Equal(t, 12, second[0].matchID)
	require.Equal(t, 4, *second[0].team1)
	require.Equal(t, 3, *second[0].team2)
	require.Equal(t, 13, second[1].matchID)
	require.Equal(t, 1, *second[1].team1)
	require.Equal(t, 2, *second[1].team2)
}

func TestMaterializeDeferredLeavesRecordedResultsAlone(t *testing.T) {
	matches := fourTeamGroup(1)

	first := materializeDeferred(matches)
	matches[2].Team1ID = first[0].team1
	matches[2].Team2ID = first[0].team2
	matches[2].Sets = validSets()
	matches[2].WinnerID = matches[2].Team1ID
	matches[2].Status = models.MatchStatusFinished

	fills := materializeDeferred(matches)
	require.Len(t, fills, 1)
	require.Equal(t, 13, fills[0].matchID)
}

func TestSubmitPlayoffResultAdvancesWinner(t *testing.T) {
	one, two := 1, 2
	nextID, slot := 20, 2
	repo := &fakePlayoffRepo{
		match: &models.PlayoffMatch{
			ID: 10, TournamentID: 5, Round: models.RoundSemifinal, BracketPos: 1,
			Team1ID: &one, Team2ID: &two, Status: models.MatchStatusScheduled,
			NextMatchID: &nextID, NextSlot: &slot,
		},
		next: &models.PlayoffMatch{ID: 20, TournamentID: 5, Round: models.RoundFinal, BracketPos: 1, Team2ID: &one},
	}
	s := playoffMatchService(repo, &models.Tournament{ID: 5})

	// Team 1 takes both sets.
	outcome, err := s.SubmitPlayoffResult(context.Background(), 1, 10, ResultInput{Sets: validSets()})
	require.NoError(t, err)
	require.Empty(t, outcome.DownstreamError)
	require.Equal(t, 1, *outcome.Match.WinnerID)
	require.Equal(t, models.MatchStatusFinished, outcome.Match.Status)

	require.Equal(t, []slotWrite{{matchID: 20, slot: 2, teamID: 1}}, repo.slotWrites)
	require.NotNil(t, outcome.NextMatch)
	require.Equal(t, 20, outcome.NextMatch.ID)
	require.False(t, outcome.TournamentFinished)
}

func TestSubmitPlayoffResultFinalFinishesTournament(t *testing.T) {
	one, two := 1, 2
	repo := &fakePlayoffRepo{
		match: &models.PlayoffMatch{
			ID: 30, TournamentID: 5, Round: models.RoundFinal, BracketPos: 1,
			Team1ID: &one, Team2ID: &two, Status: models.MatchStatusScheduled,
		},
	}
	tournamentRepo := &fakeTournamentRepo{tournament: &models.Tournament{ID: 5}}
	s := &matchService{
		tournamentRepo: tournamentRepo,
		playoffRepo:    repo,
		locks:          NewTournamentLocks(),
		hub:            stream.NewHub(),
	}

	outcome, err := s.SubmitPlayoffResult(context.Background(), 1, 30, ResultInput{Sets: validSets()})
	require.NoError(t, err)
	require.Empty(t, outcome.DownstreamError)
	require.True(t, outcome.TournamentFinished)
	require.Nil(t, outcome.NextMatch)
	require.Empty(t, repo.slotWrites)
	require.Equal(t, []models.TournamentStatus{models.TournamentStatusFinished}, tournamentRepo.statusWrites)
}

func TestSubmitPlayoffResultLateRoundsForbidSuperTiebreak(t *testing.T) {
	one, two := 1, 2
	repo := &fakePlayoffRepo{
		match: &models.PlayoffMatch{
			ID: 10, TournamentID: 5, Round: models.RoundSemifinal,
			Team1ID: &one, Team2ID: &two, Status: models.MatchStatusScheduled,
		},
	}
	// The tournament allows super tiebreaks, but a semifinal never does.
	s := playoffMatchService(repo, &models.Tournament{ID: 5, SuperTiebreakAllowed: true})

	superTB := ResultInput{Sets: []models.SetScore{{Team1: 6, Team2: 2}, {Team1: 2, Team2: 6}, {Team1: 10, Team2: 7}}}
	_, err := s.SubmitPlayoffResult(context.Background(), 1, 10, superTB)
	require.ErrorIs(t, err, engine.ErrInvalidSets)
}
