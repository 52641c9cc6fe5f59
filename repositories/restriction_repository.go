package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/padelops/tournament-engine/models"
)

type RestrictionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, restriction *models.TeamScheduleRestriction) error
	// MapByTournament returns all restrictions of the tournament's teams,
	// keyed by team id, the shape the schedule assigner consumes.
	MapByTournament(ctx context.Context, tournamentID int) (map[int][]models.TeamScheduleRestriction, error)
}

type postgresRestrictionRepository struct {
	db *sql.DB
}

func NewPostgresRestrictionRepository(db *sql.DB) RestrictionRepository {
	return &postgresRestrictionRepository{db: db}
}

func (r *postgresRestrictionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRestrictionRepository) Create(ctx context.Context, exec SQLExecutor, restriction *models.TeamScheduleRestriction) error {
	query := `
		INSERT INTO team_schedule_restrictions (team_id, starts_at, ends_at, court_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		restriction.TeamID, restriction.StartsAt, restriction.EndsAt, restriction.CourtID,
	).Scan(&restriction.ID)
	if err != nil {
		return fmt.Errorf("failed to create schedule restriction: %w", err)
	}
	return nil
}

func (r *postgresRestrictionRepository) MapByTournament(ctx context.Context, tournamentID int) (map[int][]models.TeamScheduleRestriction, error) {
	query := `
		SELECT r.id, r.team_id, r.starts_at, r.ends_at, r.court_id
		FROM team_schedule_restrictions r
		JOIN teams t ON t.id = r.team_id
		WHERE t.tournament_id = $1`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	restrictions := make(map[int][]models.TeamScheduleRestriction)
	for rows.Next() {
		var restriction models.TeamScheduleRestriction
		if err := rows.Scan(
			&restriction.ID, &restriction.TeamID,
			&restriction.StartsAt, &restriction.EndsAt, &restriction.CourtID,
		); err != nil {
			return nil, err
		}
		restrictions[restriction.TeamID] = append(restrictions[restriction.TeamID], restriction)
	}
	return restrictions, rows.Err()
}
