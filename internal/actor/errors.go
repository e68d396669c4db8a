package actor

import "errors"

// Sentinel errors for the valuation core. Callers distinguish them with
// errors.Is; lookup misses on removal/decrement paths are tolerated as
// no-ops and never reach these.
var (
	// ErrUnknownGoal is returned when a goal type does not resolve in the
	// actor's hierarchy. During registration this is a caller mistake;
	// during ranking it indicates registration-order corruption and is
	// surfaced, never swallowed.
	ErrUnknownGoal = errors.New("goal type not ranked in hierarchy")

	// ErrNoSatisfiableGoal is returned when an item has no current use:
	// every goal type it could serve is absent or fully satisfied.
	ErrNoSatisfiableGoal = errors.New("item has no satisfiable goal")

	// ErrGoalNotFound is returned by operations that require a registered
	// goal when the registry has no entry for the type.
	ErrGoalNotFound = errors.New("goal not registered")

	// ErrUnknownItemType is returned when an item type has no entry in the
	// actor's satisfactions table.
	ErrUnknownItemType = errors.New("item type not in satisfactions table")
)
