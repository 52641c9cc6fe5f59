package models

import (
	"fmt"
	"time"
)

// Team is a registered pair. Rows are immutable once created.
type Team struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	Player1      string    `json:"player1"`
	Player2      string    `json:"player2"`
	DisplayName  *string   `json:"display_name,omitempty"`
	Seed         *int      `json:"seed,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (t *Team) Name() string {
	if t.DisplayName != nil && *t.DisplayName != "" {
		return *t.DisplayName
	}
	return fmt.Sprintf("%s / %s", t.Player1, t.Player2)
}
