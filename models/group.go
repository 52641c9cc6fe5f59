package models

// Group is a round-robin pool of 3 or 4 teams. Ordinal is the zero-based
// position among the tournament's groups and drives the letter label.
type Group struct {
	ID           int `json:"id"`
	TournamentID int `json:"tournament_id"`
	Ordinal      int `json:"ordinal"`
	Size         int `json:"size"`
}

// Label returns the single-letter group label: ordinal 0 -> "A", 1 -> "B", ...
func (g *Group) Label() string {
	return GroupLabel(g.Ordinal)
}

func GroupLabel(ordinal int) string {
	return string(rune('A' + ordinal))
}
