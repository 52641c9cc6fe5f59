package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/padelops/tournament-engine/models"
)

var ErrCourtNotFound = errors.New("court not found")

type CourtRepository interface {
	Create(ctx context.Context, exec SQLExecutor, court *models.Court) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Court, error)
	CountByTournamentAndIDs(ctx context.Context, tournamentID int, ids []int) (int, error)
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCourtRepository) Create(ctx context.Context, exec SQLExecutor, court *models.Court) error {
	query := `INSERT INTO courts (tournament_id, name) VALUES ($1, $2) RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		court.TournamentID, court.Name,
	).Scan(&court.ID)
	if err != nil {
		return fmt.Errorf("failed to create court: %w", err)
	}
	return nil
}

func (r *postgresCourtRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Court, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tournament_id, name FROM courts WHERE tournament_id = $1 ORDER BY id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := make([]*models.Court, 0)
	for rows.Next() {
		c := &models.Court{}
		if err := rows.Scan(&c.ID, &c.TournamentID, &c.Name); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func (r *postgresCourtRepository) CountByTournamentAndIDs(ctx context.Context, tournamentID int, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM courts WHERE tournament_id = $1 AND id = ANY($2)`,
		tournamentID, pq.Array(ids)).Scan(&count)
	return count, err
}
