package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/padelops/tournament-engine/models"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx so services can run
// repository calls inside their own transactions.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// setScoreColumns flattens up to 3 set-score pairs into the six nullable
// columns (s1t1, s1t2, s2t1, s2t2, s3t1, s3t2) the match tables use.
func setScoreColumns(sets []models.SetScore) [6]*int {
	var cols [6]*int
	for i, s := range sets {
		if i > 2 {
			break
		}
		t1, t2 := s.Team1, s.Team2
		cols[i*2] = &t1
		cols[i*2+1] = &t2
	}
	return cols
}

// setsFromColumns is the inverse of setScoreColumns: trailing unplayed sets
// are dropped, a half-written pair is treated as absent.
func setsFromColumns(cols [6]*int) []models.SetScore {
	sets := make([]models.SetScore, 0, 3)
	for i := 0; i < 3; i++ {
		t1, t2 := cols[i*2], cols[i*2+1]
		if t1 == nil || t2 == nil {
			break
		}
		sets = append(sets, models.SetScore{Team1: *t1, Team2: *t2})
	}
	return sets
}
