package services

import "sync"

// TournamentLocks serializes mutating operations per tournament. The engine
// assumes single-writer-per-tournament semantics; this makes the assumption
// hold instead of leaving concurrent submissions as an undocumented hazard.
// One instance is shared by every service touching tournament state.
type TournamentLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{locks: make(map[int]*sync.Mutex)}
}

// Acquire blocks until the tournament's lock is held and returns the
// release function. Lock entries are kept for the process lifetime; the
// number of tournaments an owner mutates is small.
func (l *TournamentLocks) Acquire(tournamentID int) func() {
	l.mu.Lock()
	m, ok := l.locks[tournamentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[tournamentID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
