package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/padelops/tournament-engine/models"
)

var ErrGroupNotFound = errors.New("group not found")

type GroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.Group) error
	AddMember(ctx context.Context, exec SQLExecutor, groupID, teamID, seq int) error
	GetByID(ctx context.Context, id int) (*models.Group, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Group, error)
	// ListMemberTeamIDs returns member team ids in membership order, which is
	// also the residual tie-break order of the standings table.
	ListMemberTeamIDs(ctx context.Context, groupID int) ([]int, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.Group) error {
	query := `
		INSERT INTO groups (tournament_id, ordinal, size)
		VALUES ($1, $2, $3)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		group.TournamentID, group.Ordinal, group.Size,
	).Scan(&group.ID)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

func (r *postgresGroupRepository) AddMember(ctx context.Context, exec SQLExecutor, groupID, teamID, seq int) error {
	_, err := r.getExecutor(exec).ExecContext(ctx,
		`INSERT INTO group_members (group_id, team_id, seq) VALUES ($1, $2, $3)`,
		groupID, teamID, seq)
	if err != nil {
		return fmt.Errorf("failed to add team %d to group %d: %w", teamID, groupID, err)
	}
	return nil
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	query := `SELECT id, tournament_id, ordinal, size FROM groups WHERE id = $1`
	g := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.TournamentID, &g.Ordinal, &g.Size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan group %d: %w", id, err)
	}
	return g, nil
}

func (r *postgresGroupRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Group, error) {
	query := `
		SELECT id, tournament_id, ordinal, size
		FROM groups
		WHERE tournament_id = $1
		ORDER BY ordinal`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.TournamentID, &g.Ordinal, &g.Size); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *postgresGroupRepository) ListMemberTeamIDs(ctx context.Context, groupID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT team_id FROM group_members WHERE group_id = $1 ORDER BY seq`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0, 4)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresGroupRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM groups WHERE tournament_id = $1`, tournamentID).Scan(&count)
	return count, err
}
