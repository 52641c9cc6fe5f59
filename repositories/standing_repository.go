package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/padelops/tournament-engine/models"
)

var ErrStandingNotFound = errors.New("standing not found")

// StandingRepository persists the derived per-group ranking table. Writes
// follow the full-replace pattern: DeleteByGroupID then BatchCreate inside
// one transaction, never row-level patches.
type StandingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error
	DeleteByGroupID(ctx context.Context, exec SQLExecutor, groupID int) error
	ListByGroup(ctx context.Context, groupID int) ([]*models.Standing, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Standing, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error {
	if len(standings) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO standings
			(group_id, team_id, matches_played, wins, losses,
			 sets_won, sets_lost, games_won, games_lost, position, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	for _, s := range standings {
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = time.Now()
		}
		err := executor.QueryRowContext(ctx, query,
			s.GroupID, s.TeamID, s.MatchesPlayed, s.Wins, s.Losses,
			s.SetsWon, s.SetsLost, s.GamesWon, s.GamesLost, s.Position, s.UpdatedAt,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to insert standing for team %d: %w", s.TeamID, err)
		}
	}
	return nil
}

func (r *postgresStandingRepository) DeleteByGroupID(ctx context.Context, exec SQLExecutor, groupID int) error {
	_, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM standings WHERE group_id = $1`, groupID)
	return err
}

const standingColumns = `
	s.id, s.group_id, s.team_id, s.matches_played, s.wins, s.losses,
	s.sets_won, s.sets_lost, s.games_won, s.games_lost, s.position, s.updated_at`

func scanStanding(scanner interface{ Scan(...interface{}) error }) (*models.Standing, error) {
	s := &models.Standing{}
	err := scanner.Scan(
		&s.ID, &s.GroupID, &s.TeamID, &s.MatchesPlayed, &s.Wins, &s.Losses,
		&s.SetsWon, &s.SetsLost, &s.GamesWon, &s.GamesLost, &s.Position, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *postgresStandingRepository) ListByGroup(ctx context.Context, groupID int) ([]*models.Standing, error) {
	query := `SELECT ` + standingColumns + ` FROM standings s WHERE s.group_id = $1 ORDER BY s.position`
	return r.queryStandings(ctx, query, groupID)
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Standing, error) {
	query := `
		SELECT ` + standingColumns + `
		FROM standings s
		JOIN groups g ON g.id = s.group_id
		WHERE g.tournament_id = $1
		ORDER BY g.ordinal, s.position`
	return r.queryStandings(ctx, query, tournamentID)
}

func (r *postgresStandingRepository) queryStandings(ctx context.Context, query string, args ...interface{}) ([]*models.Standing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, err := scanStanding(rows)
		if err != nil {
			return nil, err
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}
