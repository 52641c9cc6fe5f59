package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	// Not found (absent or owned by someone else, indistinguishable).
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrGroupNotFound      = errors.New("group not found")

	// Validation errors: malformed input, abort before any write.
	ErrValidationFailed    = errors.New("validation failed")
	ErrTournamentNameEmpty = errors.New("tournament name is required")
	ErrTeamPlayersRequired = errors.New("both player names are required")
	ErrDuplicateTeams      = errors.New("team list contains duplicates")
	ErrForeignTeams        = errors.New("one or more teams do not belong to this tournament")
	ErrForeignCourts       = errors.New("one or more courts do not belong to this tournament")
	ErrNoSetScores         = errors.New("at least one set score is required")

	// Precondition errors: operation disallowed in the current state.
	ErrGroupsAlreadyExist    = errors.New("groups already exist for this tournament")
	ErrGroupsNotFormed       = errors.New("groups have not been formed yet")
	ErrGroupStageNotFinished = errors.New("not all group matches are finished")
	ErrBracketAlreadyExists  = errors.New("playoff bracket already exists for this tournament")
	ErrMatchTeamsNotSet      = errors.New("match teams are not resolved yet")
	ErrMatchAlreadyFinished  = errors.New("match result has already been recorded")
	ErrMatchCancelled        = errors.New("match is cancelled")

	// A group result can be replaced only while no deferred fixture built on
	// it has recorded its own result.
	ErrDependentResultRecorded = errors.New("a later match already recorded a result based on this one")
)
