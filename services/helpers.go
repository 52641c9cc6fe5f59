package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/padelops/tournament-engine/engine"
)

// runInTx begins a transaction, runs fn, and commits; any error or panic
// rolls back.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("rollback failed: %v (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func orNopSink(sink engine.ProgressSink) engine.ProgressSink {
	if sink == nil {
		return engine.NopSink()
	}
	return sink
}

// rangeSink remaps a nested operation's 0..100 progress into the [lo,hi]
// band of the surrounding operation, so a chained stream stays monotonic.
type rangeSink struct {
	parent engine.ProgressSink
	lo, hi int
}

func (s rangeSink) Log(message string) {
	s.parent.Log(message)
}

func (s rangeSink) Progress(percent int, status string) {
	s.parent.Progress(s.lo+(s.hi-s.lo)*percent/100, status)
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}
