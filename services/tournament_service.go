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
	"golang.org/x/sync/errgroup"
)

type TournamentInput struct {
	Name                 string `json:"name"`
	SuperTiebreakAllowed bool   `json:"super_tiebreak_allowed"`
}

type TeamInput struct {
	Player1     string  `json:"player1"`
	Player2     string  `json:"player2"`
	DisplayName *string `json:"display_name,omitempty"`
	Seed        *int    `json:"seed,omitempty"`
}

type CloseRegistrationResult struct {
	Groups            []*models.Group      `json:"groups"`
	Matches           []*models.GroupMatch `json:"matches"`
	UnassignedTeamID  *int                 `json:"unassigned_team_id,omitempty"`
	FixturesScheduled int                  `json:"fixtures_scheduled,omitempty"`
}

type CloseGroupsResult struct {
	Standings         []*models.Standing     `json:"standings"`
	Bracket           []*models.PlayoffMatch `json:"bracket"`
	FixturesScheduled int                    `json:"fixtures_scheduled,omitempty"`
}

// BracketPreviewMatch is one row of the placeholder bracket: symbolic
// labels ("1A", "Ganador Cuartos2") instead of team ids, nothing persisted.
type BracketPreviewMatch struct {
	Round       models.PlayoffRound  `json:"round"`
	BracketPos  int                  `json:"bracket_pos"`
	Team1       string               `json:"team1"`
	Team2       string               `json:"team2,omitempty"`
	WinnerLabel string               `json:"winner_label"`
	IsBye       bool                 `json:"is_bye"`
	Slot        *models.ScheduleSlot `json:"slot,omitempty"`
}

type TournamentOverview struct {
	Tournament     *models.Tournament     `json:"tournament"`
	Teams          []*models.Team         `json:"teams"`
	Groups         []*models.Group        `json:"groups"`
	GroupMatches   []*models.GroupMatch   `json:"group_matches"`
	Standings      []*models.Standing     `json:"standings"`
	PlayoffMatches []*models.PlayoffMatch `json:"playoff_matches"`
	Courts         []*models.Court        `json:"courts"`
}

type TournamentService interface {
	Create(ctx context.Context, ownerID int, input TournamentInput) (*models.Tournament, error)
	List(ctx context.Context, ownerID int) ([]*models.Tournament, error)
	GetOverview(ctx context.Context, ownerID, tournamentID int) (*TournamentOverview, error)
	AddTeam(ctx context.Context, ownerID, tournamentID int, input TeamInput) (*models.Team, error)
	AddCourt(ctx context.Context, ownerID, tournamentID int, name string) (*models.Court, error)

	// CloseRegistration partitions the given teams into groups of 3 or 4,
	// creates the group-stage fixtures and optionally schedules them. It
	// refuses to run twice. A scheduling failure after the groups were
	// committed is surfaced as the returned error; the groups stay.
	CloseRegistration(ctx context.Context, ownerID, tournamentID int, teamIDs []int, cfg *ScheduleConfig, sink engine.ProgressSink) (*CloseRegistrationResult, error)

	// CloseGroups finalizes standings, builds and persists the playoff
	// bracket with forward advancement edges, and optionally schedules it.
	CloseGroups(ctx context.Context, ownerID, tournamentID int, cfg *ScheduleConfig, sink engine.ProgressSink) (*CloseGroupsResult, error)

	// PreviewBracket renders the bracket shape from the current group
	// structure using symbolic placeholders. No state is read beyond group
	// sizes and nothing is written, so it works while group matches are
	// still being played.
	PreviewBracket(ctx context.Context, ownerID, tournamentID int, cfg *ScheduleConfig) ([]*BracketPreviewMatch, error)
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	groupRepo      repositories.GroupRepository
	groupMatchRepo repositories.GroupMatchRepository
	playoffRepo    repositories.PlayoffMatchRepository
	standingRepo   repositories.StandingRepository
	courtRepo      repositories.CourtRepository
	scheduleSvc    ScheduleService
	locks          *TournamentLocks
	hub            *stream.Hub
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	groupRepo repositories.GroupRepository,
	groupMatchRepo repositories.GroupMatchRepository,
	playoffRepo repositories.PlayoffMatchRepository,
	standingRepo repositories.StandingRepository,
	courtRepo repositories.CourtRepository,
	scheduleSvc ScheduleService,
	locks *TournamentLocks,
	hub *stream.Hub,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		groupRepo:      groupRepo,
		groupMatchRepo: groupMatchRepo,
		playoffRepo:    playoffRepo,
		standingRepo:   standingRepo,
		courtRepo:      courtRepo,
		scheduleSvc:    scheduleSvc,
		locks:          locks,
		hub:            hub,
	}
}

func (s *tournamentService) Create(ctx context.Context, ownerID int, input TournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameEmpty
	}
	t := &models.Tournament{
		OwnerID:              ownerID,
		Name:                 input.Name,
		SuperTiebreakAllowed: input.SuperTiebreakAllowed,
		Status:               models.TournamentStatusRegistration,
	}
	if err := s.tournamentRepo.Create(ctx, nil, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, ownerID int) ([]*models.Tournament, error) {
	return s.tournamentRepo.ListByOwner(ctx, ownerID)
}

func (s *tournamentService) getOwned(ctx context.Context, ownerID, tournamentID int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByIDForOwner(ctx, tournamentID, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) AddTeam(ctx context.Context, ownerID, tournamentID int, input TeamInput) (*models.Team, error) {
	t, err := s.getOwned(ctx, ownerID, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TournamentStatusRegistration {
		return nil, ErrGroupsAlreadyExist
	}
	if input.Player1 == "" || input.Player2 == "" {
		return nil, ErrTeamPlayersRequired
	}
	team := &models.Team{
		TournamentID: tournamentID,
		Player1:      input.Player1,
		Player2:      input.Player2,
		DisplayName:  input.DisplayName,
		Seed:         input.Seed,
	}
	if err := s.teamRepo.Create(ctx, nil, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *tournamentService) AddCourt(ctx context.Context, ownerID, tournamentID int, name string) (*models.Court, error) {
	if _, err := s.getOwned(ctx, ownerID, tournamentID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: court name is required", ErrValidationFailed)
	}
	court := &models.Court{TournamentID: tournamentID, Name: name}
	if err := s.courtRepo.Create(ctx, nil, court); err != nil {
		return nil, err
	}
	return court, nil
}

// GetOverview assembles the full tournament view, fetching the independent
// collections in parallel.
func (s *tournamentService) GetOverview(ctx context.Context, ownerID, tournamentID int) (*TournamentOverview, error) {
	t, err := s.getOwned(ctx, ownerID, tournamentID)
	if err != nil {
		return nil, err
	}

	overview := &TournamentOverview{Tournament: t}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		overview.Teams, err = s.teamRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		overview.Groups, err = s.groupRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		overview.GroupMatches, err = s.groupMatchRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		overview.Standings, err = s.standingRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		overview.PlayoffMatches, err = s.playoffRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		overview.Courts, err = s.courtRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble tournament %d overview: %w", tournamentID, err)
	}
	return overview, nil
}

func (s *tournamentService) CloseRegistration(ctx context.Context, ownerID, tournamentID int, teamIDs []int, cfg *ScheduleConfig, sink engine.ProgressSink) (*CloseRegistrationResult, error) {
	sink = orNopSink(sink)
	unlock := s.locks.Acquire(tournamentID)
	defer unlock()

	if _, err := s.getOwned(ctx, ownerID, tournamentID); err != nil {
		return nil, err
	}

	existing, err := s.groupRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrGroupsAlreadyExist
	}

	unique := uniqueIDs(teamIDs)
	if len(unique) != len(teamIDs) {
		return nil, ErrDuplicateTeams
	}
	owned, err := s.teamRepo.CountByTournamentAndIDs(ctx, tournamentID, teamIDs)
	if err != nil {
		return nil, err
	}
	if owned != len(teamIDs) {
		return nil, ErrForeignTeams
	}

	formation, err := engine.FormGroups(teamIDs)
	if err != nil {
		return nil, err
	}
	sink.Log(fmt.Sprintf("forming %d groups from %d teams", len(formation.Groups), len(teamIDs)))
	if formation.UnassignedTeamID != nil {
		// Known sizing anomaly of the single-group remainder-2 case; the
		// caller gets to see it rather than lose the team silently.
		sink.Log(fmt.Sprintf("warning: team %d left without a group", *formation.UnassignedTeamID))
		log.Printf("close registration: tournament %d leaves team %d unassigned", tournamentID, *formation.UnassignedTeamID)
	}

	result := &CloseRegistrationResult{UnassignedTeamID: formation.UnassignedTeamID}
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		groupByOrdinal := make(map[int]*models.Group, len(formation.Groups))
		for _, plan := range formation.Groups {
			group := &models.Group{TournamentID: tournamentID, Ordinal: plan.Ordinal, Size: len(plan.TeamIDs)}
			if err := s.groupRepo.Create(ctx, tx, group); err != nil {
				return err
			}
			for seq, teamID := range plan.TeamIDs {
				if err := s.groupRepo.AddMember(ctx, tx, group.ID, teamID, seq); err != nil {
					return err
				}
			}
			groupByOrdinal[plan.Ordinal] = group
			result.Groups = append(result.Groups, group)
		}

		// Two passes: playable fixtures first, then the deferred order3/
		// order4 rows pointing at their predecessors' fresh ids.
		matchByGroupOrder := make(map[int]map[int]*models.GroupMatch)
		for _, plan := range formation.Fixtures {
			if plan.SourceRule != nil {
				continue
			}
			m := &models.GroupMatch{
				GroupID:    groupByOrdinal[plan.GroupOrdinal].ID,
				Team1ID:    plan.Team1ID,
				Team2ID:    plan.Team2ID,
				MatchOrder: plan.MatchOrder,
				Status:     models.MatchStatusScheduled,
			}
			if err := s.groupMatchRepo.Create(ctx, tx, m); err != nil {
				return err
			}
			if plan.MatchOrder != nil {
				if matchByGroupOrder[plan.GroupOrdinal] == nil {
					matchByGroupOrder[plan.GroupOrdinal] = make(map[int]*models.GroupMatch)
				}
				matchByGroupOrder[plan.GroupOrdinal][*plan.MatchOrder] = m
			}
			result.Matches = append(result.Matches, m)
		}
		for _, plan := range formation.Fixtures {
			if plan.SourceRule == nil {
				continue
			}
			source1 := matchByGroupOrder[plan.GroupOrdinal][*plan.Source1Order]
			source2 := matchByGroupOrder[plan.GroupOrdinal][*plan.Source2Order]
			m := &models.GroupMatch{
				GroupID:        groupByOrdinal[plan.GroupOrdinal].ID,
				MatchOrder:     plan.MatchOrder,
				SourceMatch1ID: &source1.ID,
				SourceMatch2ID: &source2.ID,
				SourceRule:     plan.SourceRule,
				Status:         models.MatchStatusScheduled,
			}
			if err := s.groupMatchRepo.Create(ctx, tx, m); err != nil {
				return err
			}
			result.Matches = append(result.Matches, m)
		}

		return s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.TournamentStatusGroups)
	})
	if err != nil {
		return nil, err
	}
	sink.Progress(60, "groups and fixtures created")

	if cfg != nil {
		refs := make([]FixtureRef, 0, len(result.Matches))
		for _, m := range result.Matches {
			refs = append(refs, FixtureRef{MatchID: m.ID, Team1ID: m.Team1ID, Team2ID: m.Team2ID})
		}
		scheduled, err := s.scheduleSvc.ScheduleFixtures(ctx, tournamentID, refs, *cfg, rangeSink{parent: sink, lo: 60, hi: 95})
		if err != nil {
			// Groups are already committed; the scheduling failure is
			// surfaced, not rolled back.
			return nil, err
		}
		result.FixturesScheduled = scheduled
	}
	sink.Progress(100, "registration closed")
	s.hub.Publish(stream.TournamentRoom(tournamentID), stream.Event{
		Type:    "log",
		Message: fmt.Sprintf("registration closed: %d groups, %d fixtures", len(result.Groups), len(result.Matches)),
	})
	return result, nil
}

func (s *tournamentService) CloseGroups(ctx context.Context, ownerID, tournamentID int, cfg *ScheduleConfig, sink engine.ProgressSink) (*CloseGroupsResult, error) {
	sink = orNopSink(sink)
	unlock := s.locks.Acquire(tournamentID)
	defer unlock()

	if _, err := s.getOwned(ctx, ownerID, tournamentID); err != nil {
		return nil, err
	}

	groups, err := s.groupRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrGroupsNotFormed
	}
	existing, err := s.playoffRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrBracketAlreadyExists
	}
	unfinished, err := s.groupMatchRepo.CountUnfinishedByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if unfinished > 0 {
		return nil, fmt.Errorf("%w (%d remaining)", ErrGroupStageNotFinished, unfinished)
	}

	result := &CloseGroupsResult{}
	qualifiers := make([]engine.Qualifier, 0, len(groups)*3)
	standingsByGroup := make(map[int][]*models.Standing, len(groups))
	for i, group := range groups {
		members, err := s.groupRepo.ListMemberTeamIDs(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		matches, err := s.groupMatchRepo.ListByGroup(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		rows := engine.ComputeStandings(members, matches)
		standings := make([]*models.Standing, 0, len(rows))
		for _, row := range rows {
			standings = append(standings, standingFromRow(group.ID, row))
		}
		standingsByGroup[group.ID] = standings
		result.Standings = append(result.Standings, standings...)
		qualifiers = append(qualifiers, engine.QualifiersFromRows(group.Ordinal, group.Size, rows)...)
		sink.Progress((i+1)*30/len(groups), fmt.Sprintf("group %s ranked", group.Label()))
	}

	// Full replace of all derived rows in one batch, never row patches.
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, group := range groups {
			if err := s.standingRepo.DeleteByGroupID(ctx, tx, group.ID); err != nil {
				return err
			}
			if err := s.standingRepo.BatchCreate(ctx, tx, standingsByGroup[group.ID]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sink.Progress(40, "final standings persisted")

	bracket, err := engine.BuildBracket(qualifiers)
	if err != nil {
		return nil, err
	}
	sink.Log(fmt.Sprintf("bracket built: %d matches, %d qualifiers", len(bracket), len(qualifiers)))

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		// First pass: create every match. Byes are persisted finished with
		// their winner already set so bracket positions stay contiguous.
		idByRoundPos := make(map[string]int, len(bracket))
		for _, bm := range bracket {
			pm := &models.PlayoffMatch{
				TournamentID: tournamentID,
				Round:        bm.Round,
				BracketPos:   bm.Pos,
				Team1ID:      bm.Team1ID,
				Team2ID:      bm.Team2ID,
				IsBye:        bm.IsBye,
				Status:       models.MatchStatusScheduled,
			}
			if bm.IsBye {
				pm.Status = models.MatchStatusFinished
				pm.WinnerID = bm.ByeTeamID
			}
			if err := s.playoffRepo.Create(ctx, tx, pm); err != nil {
				return err
			}
			idByRoundPos[roundPosKey(bm.Round, bm.Pos)] = pm.ID
		}

		// Second pass: wire the forward edges.
		for _, bm := range bracket {
			if bm.NextPos == 0 {
				continue
			}
			id := idByRoundPos[roundPosKey(bm.Round, bm.Pos)]
			nextID, ok := idByRoundPos[roundPosKey(bm.Round.NextRound(), bm.NextPos)]
			if !ok {
				return fmt.Errorf("bracket linking: successor of %s pos %d not found", bm.Round, bm.Pos)
			}
			slot := bm.NextSlot
			if err := s.playoffRepo.UpdateNextMatchInfo(ctx, tx, id, &nextID, &slot); err != nil {
				return err
			}
		}

		return s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.TournamentStatusPlayoffs)
	})
	if err != nil {
		return nil, err
	}
	sink.Progress(80, "bracket persisted")

	persisted, err := s.playoffRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	result.Bracket = persisted

	if cfg != nil {
		refs := make([]FixtureRef, 0, len(persisted))
		for _, pm := range persisted {
			if pm.IsBye {
				continue
			}
			refs = append(refs, FixtureRef{Playoff: true, MatchID: pm.ID, Team1ID: pm.Team1ID, Team2ID: pm.Team2ID})
		}
		scheduled, err := s.scheduleSvc.ScheduleFixtures(ctx, tournamentID, refs, *cfg, rangeSink{parent: sink, lo: 80, hi: 95})
		if err != nil {
			// Standings and bracket are already committed; surfaced, not
			// rolled back.
			return nil, err
		}
		result.FixturesScheduled = scheduled
	}
	sink.Progress(100, "groups closed")
	s.hub.Publish(stream.TournamentRoom(tournamentID), stream.Event{
		Type:    "log",
		Message: fmt.Sprintf("groups closed: bracket of %d matches created", len(persisted)),
	})
	return result, nil
}

func (s *tournamentService) PreviewBracket(ctx context.Context, ownerID, tournamentID int, cfg *ScheduleConfig) ([]*BracketPreviewMatch, error) {
	if _, err := s.getOwned(ctx, ownerID, tournamentID); err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrGroupsNotFormed
	}

	// Structure only depends on group count and sizes, so the preview works
	// with placeholder qualifiers regardless of match progress.
	qualifiers := make([]engine.Qualifier, 0, len(groups)*3)
	for _, group := range groups {
		for pos := 1; pos <= engine.QualifierCount(group.Size); pos++ {
			qualifiers = append(qualifiers, engine.Qualifier{GroupOrdinal: group.Ordinal, Position: pos})
		}
	}
	bracket, err := engine.BuildBracket(qualifiers)
	if err != nil {
		return nil, err
	}

	preview := make([]*BracketPreviewMatch, 0, len(bracket))
	for _, bm := range bracket {
		preview = append(preview, &BracketPreviewMatch{
			Round:       bm.Round,
			BracketPos:  bm.Pos,
			Team1:       bm.Team1Label,
			Team2:       bm.Team2Label,
			WinnerLabel: models.WinnerLabel(bm.Round, bm.Pos),
			IsBye:       bm.IsBye,
		})
	}

	if cfg != nil {
		if err := s.previewSchedule(preview, cfg); err != nil {
			return nil, err
		}
	}
	return preview, nil
}

// previewSchedule dry-runs slot assignment over the placeholder bracket.
// Teams are unknown, so only capacity and slot supply are exercised.
func (s *tournamentService) previewSchedule(preview []*BracketPreviewMatch, cfg *ScheduleConfig) error {
	slotCfg, err := cfg.engineConfig()
	if err != nil {
		return err
	}
	slots, err := engine.ExpandSlots(slotCfg)
	if err != nil {
		return err
	}
	fixtures := make([]engine.Fixture, 0, len(preview))
	playable := make([]*BracketPreviewMatch, 0, len(preview))
	for _, pm := range preview {
		if pm.IsBye {
			continue
		}
		fixtures = append(fixtures, engine.Fixture{ID: len(fixtures)})
		playable = append(playable, pm)
	}
	assignments, err := engine.AssignSchedule(fixtures, slots, nil, nil)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		slot := a.Slot
		playable[a.FixtureID].Slot = &slot
	}
	return nil
}

func standingFromRow(groupID int, row engine.StandingRow) *models.Standing {
	return &models.Standing{
		GroupID:       groupID,
		TeamID:        row.TeamID,
		MatchesPlayed: row.MatchesPlayed,
		Wins:          row.Wins,
		Losses:        row.Losses,
		SetsWon:       row.SetsWon,
		SetsLost:      row.SetsLost,
		GamesWon:      row.GamesWon,
		GamesLost:     row.GamesLost,
		Position:      row.Position,
	}
}

func roundPosKey(round models.PlayoffRound, pos int) string {
	return fmt.Sprintf("%s#%d", round, pos)
}
