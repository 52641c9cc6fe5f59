package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/padelops/tournament-engine/models"
)

var ErrGroupMatchNotFound = errors.New("group match not found")

type GroupMatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.GroupMatch) error
	GetByID(ctx context.Context, id int) (*models.GroupMatch, error)
	// GetByIDForOwner resolves the match together with its tournament id,
	// scoped to the owner. Foreign matches come back as not found.
	GetByIDForOwner(ctx context.Context, id, ownerID int) (*models.GroupMatch, int, error)
	ListByGroup(ctx context.Context, groupID int) ([]*models.GroupMatch, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.GroupMatch, error)
	UpdateTeams(ctx context.Context, exec SQLExecutor, id int, team1ID, team2ID *int, status models.MatchStatus) error
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.GroupMatch) error
	UpdateSchedule(ctx context.Context, exec SQLExecutor, id int, slot *models.ScheduleSlot) error
	CountUnfinishedByTournament(ctx context.Context, tournamentID int) (int, error)
}

type postgresGroupMatchRepository struct {
	db *sql.DB
}

func NewPostgresGroupMatchRepository(db *sql.DB) GroupMatchRepository {
	return &postgresGroupMatchRepository{db: db}
}

func (r *postgresGroupMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const groupMatchColumns = `
	gm.id, gm.group_id, gm.team1_id, gm.team2_id, gm.match_order,
	gm.source_match1_id, gm.source_match2_id, gm.source_rule,
	gm.s1t1, gm.s1t2, gm.s2t1, gm.s2t2, gm.s3t1, gm.s3t2,
	gm.sets_team1, gm.sets_team2, gm.games_team1, gm.games_team2,
	gm.winner_team_id, gm.status, gm.starts_at, gm.ends_at, gm.court_id`

func scanGroupMatch(scanner interface{ Scan(...interface{}) error }) (*models.GroupMatch, error) {
	m := &models.GroupMatch{}
	var cols [6]*int
	err := scanner.Scan(
		&m.ID, &m.GroupID, &m.Team1ID, &m.Team2ID, &m.MatchOrder,
		&m.SourceMatch1ID, &m.SourceMatch2ID, &m.SourceRule,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5],
		&m.SetsTeam1, &m.SetsTeam2, &m.GamesTeam1, &m.GamesTeam2,
		&m.WinnerID, &m.Status, &m.StartsAt, &m.EndsAt, &m.CourtID,
	)
	if err != nil {
		return nil, err
	}
	m.Sets = setsFromColumns(cols)
	return m, nil
}

func (r *postgresGroupMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.GroupMatch) error {
	query := `
		INSERT INTO group_matches
			(group_id, team1_id, team2_id, match_order,
			 source_match1_id, source_match2_id, source_rule, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.GroupID, m.Team1ID, m.Team2ID, m.MatchOrder,
		m.SourceMatch1ID, m.SourceMatch2ID, m.SourceRule, m.Status,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to create group match: %w", err)
	}
	return nil
}

func (r *postgresGroupMatchRepository) GetByID(ctx context.Context, id int) (*models.GroupMatch, error) {
	query := `SELECT ` + groupMatchColumns + ` FROM group_matches gm WHERE gm.id = $1`
	m, err := scanGroupMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan group match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresGroupMatchRepository) GetByIDForOwner(ctx context.Context, id, ownerID int) (*models.GroupMatch, int, error) {
	query := `
		SELECT ` + groupMatchColumns + `, g.tournament_id
		FROM group_matches gm
		JOIN groups g ON g.id = gm.group_id
		JOIN tournaments t ON t.id = g.tournament_id
		WHERE gm.id = $1 AND t.owner_id = $2`
	m := &models.GroupMatch{}
	var cols [6]*int
	var tournamentID int
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&m.ID, &m.GroupID, &m.Team1ID, &m.Team2ID, &m.MatchOrder,
		&m.SourceMatch1ID, &m.SourceMatch2ID, &m.SourceRule,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5],
		&m.SetsTeam1, &m.SetsTeam2, &m.GamesTeam1, &m.GamesTeam2,
		&m.WinnerID, &m.Status, &m.StartsAt, &m.EndsAt, &m.CourtID,
		&tournamentID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrGroupMatchNotFound
		}
		return nil, 0, fmt.Errorf("failed to scan group match %d: %w", id, err)
	}
	m.Sets = setsFromColumns(cols)
	return m, tournamentID, nil
}

func (r *postgresGroupMatchRepository) ListByGroup(ctx context.Context, groupID int) ([]*models.GroupMatch, error) {
	query := `
		SELECT ` + groupMatchColumns + `
		FROM group_matches gm
		WHERE gm.group_id = $1
		ORDER BY gm.match_order NULLS FIRST, gm.id`
	return r.queryMatches(ctx, query, groupID)
}

func (r *postgresGroupMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.GroupMatch, error) {
	query := `
		SELECT ` + groupMatchColumns + `
		FROM group_matches gm
		JOIN groups g ON g.id = gm.group_id
		WHERE g.tournament_id = $1
		ORDER BY g.ordinal, gm.match_order NULLS FIRST, gm.id`
	return r.queryMatches(ctx, query, tournamentID)
}

func (r *postgresGroupMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.GroupMatch, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.GroupMatch, 0)
	for rows.Next() {
		m, err := scanGroupMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresGroupMatchRepository) UpdateTeams(ctx context.Context, exec SQLExecutor, id int, team1ID, team2ID *int, status models.MatchStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE group_matches SET team1_id = $1, team2_id = $2, status = $3 WHERE id = $4`,
		team1ID, team2ID, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupMatchNotFound)
}

func (r *postgresGroupMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, m *models.GroupMatch) error {
	cols := setScoreColumns(m.Sets)
	query := `
		UPDATE group_matches SET
			s1t1 = $1, s1t2 = $2, s2t1 = $3, s2t2 = $4, s3t1 = $5, s3t2 = $6,
			sets_team1 = $7, sets_team2 = $8, games_team1 = $9, games_team2 = $10,
			winner_team_id = $11, status = $12
		WHERE id = $13`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		cols[0], cols[1], cols[2], cols[3], cols[4], cols[5],
		m.SetsTeam1, m.SetsTeam2, m.GamesTeam1, m.GamesTeam2,
		m.WinnerID, m.Status, m.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupMatchNotFound)
}

func (r *postgresGroupMatchRepository) UpdateSchedule(ctx context.Context, exec SQLExecutor, id int, slot *models.ScheduleSlot) error {
	var result sql.Result
	var err error
	if slot == nil {
		result, err = r.getExecutor(exec).ExecContext(ctx,
			`UPDATE group_matches SET starts_at = NULL, ends_at = NULL, court_id = NULL WHERE id = $1`, id)
	} else {
		result, err = r.getExecutor(exec).ExecContext(ctx,
			`UPDATE group_matches SET starts_at = $1, ends_at = $2, court_id = $3 WHERE id = $4`,
			slot.StartsAt, slot.EndsAt, slot.CourtID, id)
	}
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGroupMatchNotFound)
}

func (r *postgresGroupMatchRepository) CountUnfinishedByTournament(ctx context.Context, tournamentID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM group_matches gm
		JOIN groups g ON g.id = gm.group_id
		WHERE g.tournament_id = $1 AND gm.status NOT IN ($2, $3)`
	var count int
	err := r.db.QueryRowContext(ctx, query, tournamentID,
		models.MatchStatusFinished, models.MatchStatusCancelled).Scan(&count)
	return count, err
}
