package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/padelops/tournament-engine/models"
)

var ErrPlayoffMatchNotFound = errors.New("playoff match not found")

type PlayoffMatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.PlayoffMatch) error
	GetByID(ctx context.Context, id int) (*models.PlayoffMatch, error)
	GetByIDForOwner(ctx context.Context, id, ownerID int) (*models.PlayoffMatch, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.PlayoffMatch, error)
	// UpdateNextMatchInfo wires the forward edge after the whole bracket has
	// been created (second pass of bracket persistence).
	UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, id int, nextMatchID, nextSlot *int) error
	// UpdateTeamSlot writes a team id into slot 1 or 2 of the match.
	UpdateTeamSlot(ctx context.Context, exec SQLExecutor, id, slot, teamID int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.PlayoffMatch) error
	UpdateSchedule(ctx context.Context, exec SQLExecutor, id int, slot *models.ScheduleSlot) error
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
}

type postgresPlayoffMatchRepository struct {
	db *sql.DB
}

func NewPostgresPlayoffMatchRepository(db *sql.DB) PlayoffMatchRepository {
	return &postgresPlayoffMatchRepository{db: db}
}

func (r *postgresPlayoffMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playoffMatchColumns = `
	pm.id, pm.tournament_id, pm.round, pm.bracket_pos, pm.team1_id, pm.team2_id,
	pm.next_match_id, pm.next_slot, pm.is_bye,
	pm.s1t1, pm.s1t2, pm.s2t1, pm.s2t2, pm.s3t1, pm.s3t2,
	pm.sets_team1, pm.sets_team2, pm.games_team1, pm.games_team2,
	pm.winner_team_id, pm.status, pm.starts_at, pm.ends_at, pm.court_id`

func scanPlayoffMatch(scanner interface{ Scan(...interface{}) error }) (*models.PlayoffMatch, error) {
	m := &models.PlayoffMatch{}
	var cols [6]*int
	err := scanner.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.BracketPos, &m.Team1ID, &m.Team2ID,
		&m.NextMatchID, &m.NextSlot, &m.IsBye,
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

func (r *postgresPlayoffMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.PlayoffMatch) error {
	query := `
		INSERT INTO playoff_matches
			(tournament_id, round, bracket_pos, team1_id, team2_id, is_bye,
			 sets_team1, sets_team2, games_team1, games_team2, winner_team_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		m.TournamentID, m.Round, m.BracketPos, m.Team1ID, m.Team2ID, m.IsBye,
		m.SetsTeam1, m.SetsTeam2, m.GamesTeam1, m.GamesTeam2, m.WinnerID, m.Status,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to create playoff match: %w", err)
	}
	return nil
}

func (r *postgresPlayoffMatchRepository) GetByID(ctx context.Context, id int) (*models.PlayoffMatch, error) {
	query := `SELECT ` + playoffMatchColumns + ` FROM playoff_matches pm WHERE pm.id = $1`
	m, err := scanPlayoffMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayoffMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan playoff match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresPlayoffMatchRepository) GetByIDForOwner(ctx context.Context, id, ownerID int) (*models.PlayoffMatch, error) {
	query := `
		SELECT ` + playoffMatchColumns + `
		FROM playoff_matches pm
		JOIN tournaments t ON t.id = pm.tournament_id
		WHERE pm.id = $1 AND t.owner_id = $2`
	m, err := scanPlayoffMatch(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayoffMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan playoff match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresPlayoffMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.PlayoffMatch, error) {
	// Round ordering follows the forward progression, not the alphabet.
	query := `
		SELECT ` + playoffMatchColumns + `
		FROM playoff_matches pm
		WHERE pm.tournament_id = $1
		ORDER BY CASE pm.round
			WHEN '16avos' THEN 1
			WHEN 'octavos' THEN 2
			WHEN 'cuartos' THEN 3
			WHEN 'semifinal' THEN 4
			WHEN 'final' THEN 5
		END, pm.bracket_pos`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.PlayoffMatch, 0)
	for rows.Next() {
		m, err := scanPlayoffMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresPlayoffMatchRepository) UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, id int, nextMatchID, nextSlot *int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE playoff_matches SET next_match_id = $1, next_slot = $2 WHERE id = $3`,
		nextMatchID, nextSlot, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayoffMatchNotFound)
}

func (r *postgresPlayoffMatchRepository) UpdateTeamSlot(ctx context.Context, exec SQLExecutor, id, slot, teamID int) error {
	if slot != 1 && slot != 2 {
		return fmt.Errorf("invalid team slot %d for playoff match %d", slot, id)
	}
	column := "team1_id"
	if slot == 2 {
		column = "team2_id"
	}
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE playoff_matches SET `+column+` = $1 WHERE id = $2`, teamID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayoffMatchNotFound)
}

func (r *postgresPlayoffMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE playoff_matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayoffMatchNotFound)
}

func (r *postgresPlayoffMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, m *models.PlayoffMatch) error {
	cols := setScoreColumns(m.Sets)
	query := `
		UPDATE playoff_matches SET
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
	return checkAffectedRows(result, ErrPlayoffMatchNotFound)
}

func (r *postgresPlayoffMatchRepository) UpdateSchedule(ctx context.Context, exec SQLExecutor, id int, slot *models.ScheduleSlot) error {
	var result sql.Result
	var err error
	if slot == nil {
		result, err = r.getExecutor(exec).ExecContext(ctx,
			`UPDATE playoff_matches SET starts_at = NULL, ends_at = NULL, court_id = NULL WHERE id = $1`, id)
	} else {
		result, err = r.getExecutor(exec).ExecContext(ctx,
			`UPDATE playoff_matches SET starts_at = $1, ends_at = $2, court_id = $3 WHERE id = $4`,
			slot.StartsAt, slot.EndsAt, slot.CourtID, id)
	}
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayoffMatchNotFound)
}

func (r *postgresPlayoffMatchRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM playoff_matches WHERE tournament_id = $1`, tournamentID).Scan(&count)
	return count, err
}
