package models

import "time"

type TournamentStatus string

const (
	TournamentStatusRegistration TournamentStatus = "registration"
	TournamentStatusGroups       TournamentStatus = "groups"
	TournamentStatusPlayoffs     TournamentStatus = "playoffs"
	TournamentStatusFinished     TournamentStatus = "finished"
)

type Tournament struct {
	ID                   int              `json:"id"`
	OwnerID              int              `json:"owner_id"`
	Name                 string           `json:"name"`
	SuperTiebreakAllowed bool             `json:"super_tiebreak_allowed"`
	Status               TournamentStatus `json:"status"`
	CreatedAt            time.Time        `json:"created_at"`
}
