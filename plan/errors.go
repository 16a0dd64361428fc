package plan

import "errors"

var (
	// ErrMissingData marks an action whose unit or upgrade is not in the catalog.
	// The action is skipped; the rest of the plan still runs.
	ErrMissingData = errors.New("missing game data")

	// ErrUndefinedRace means no race is known for the session, so no
	// race-specific decision can be made this pass.
	ErrUndefinedRace = errors.New("undefined race")

	ErrNoPlan = errors.New("no build order selected")
)
