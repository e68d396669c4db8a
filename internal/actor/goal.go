// Package actor provides the ordinal valuation core: goal hierarchies,
// goal registries, preference structures, and item inventories. An Actor
// ranks its goals ordinally and values every item it holds by the highest-
// ranked goal that item can still serve — no cardinal utility anywhere.
package actor

// GoalType identifies a category of need ("food", "shelter"), distinct from
// any Goal instance's remaining-units or timer state.
type GoalType string

// Goal tracks the satisfaction state of one goal type for one actor. Its
// rank is not stored here — rank is always looked up in the Hierarchy.
type Goal struct {
	Type GoalType `json:"type"`

	// UnitsRequired is the number of units one activation demands.
	// UnitsRemaining counts down as satisfying items are consumed.
	UnitsRequired  int `json:"units_required"`
	UnitsRemaining int `json:"units_remaining"`

	// RecurrenceTicks is the period at which the goal re-activates after
	// being satisfied. Zero means one-shot: the goal leaves the registry
	// for good once satisfied.
	RecurrenceTicks uint64 `json:"recurrence_ticks,omitempty"`

	// Countdown is the number of ticks until a satisfied recurring goal
	// re-activates. Only meaningful while UnitsRemaining is zero.
	Countdown uint64 `json:"countdown,omitempty"`
}

// Active reports whether the goal currently demands units.
func (g *Goal) Active() bool { return g.UnitsRemaining > 0 }

// Recurring reports whether the goal re-activates after satisfaction.
func (g *Goal) Recurring() bool { return g.RecurrenceTicks > 0 }

// GoalSpec describes a goal for registration: how many units it needs per
// activation and how often it recurs (zero recurrence = one-shot).
type GoalSpec struct {
	Type            GoalType `json:"type"`
	Units           int      `json:"units"`
	RecurrenceTicks uint64   `json:"recurrence_ticks,omitempty"`
}
