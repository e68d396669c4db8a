package actor

import "fmt"

// Registry is the authoritative store of every goal the actor currently
// tracks. A goal lives here exactly while it is relevant: unsatisfied, or
// satisfied but waiting on its recurrence countdown. A one-shot goal that
// reaches zero remaining units is removed outright.
//
// Registration and removal carry preference-structure maintenance costs:
// registering touches every item heap that can serve the goal, and removal
// rebuilds each of those heaps from scratch.
type Registry struct {
	hier  *Hierarchy
	prefs *PreferenceList
	goals map[GoalType]*Goal
}

func newRegistry(hier *Hierarchy, prefs *PreferenceList) *Registry {
	r := &Registry{
		hier:  hier,
		prefs: prefs,
		goals: make(map[GoalType]*Goal),
	}
	prefs.attach(r)
	return r
}

// Lookup returns the registered goal for the type, or nil.
func (r *Registry) Lookup(gt GoalType) *Goal {
	return r.goals[gt]
}

// Register inserts a goal or merges with an existing entry of the same type.
// The type must already be ranked in the hierarchy. Slow path: the goal is
// pushed into (or verified present in) the preference heap of every item
// type capable of serving it.
func (r *Registry) Register(gt GoalType, units int, recurrence uint64) error {
	if !r.hier.Ranked(gt) {
		return fmt.Errorf("register %q: %w", gt, ErrUnknownGoal)
	}
	if units <= 0 {
		return fmt.Errorf("register %q: units must be positive, got %d", gt, units)
	}

	if g := r.goals[gt]; g != nil {
		// Merge: re-arm the existing entry with the new demand.
		g.UnitsRequired = units
		g.UnitsRemaining = units
		g.RecurrenceTicks = recurrence
		g.Countdown = 0
		r.prefs.ensureGoal(gt)
		return nil
	}

	r.goals[gt] = &Goal{
		Type:            gt,
		UnitsRequired:   units,
		UnitsRemaining:  units,
		RecurrenceTicks: recurrence,
	}
	r.prefs.addGoal(gt)
	return nil
}

// reregister re-activates a recurring goal whose countdown expired. Cheaper
// than a fresh Register — the structure shape is already known — but it
// still walks every affected preference entry.
func (r *Registry) reregister(g *Goal) {
	g.UnitsRemaining = g.UnitsRequired
	g.Countdown = 0
	r.prefs.ensureGoal(g.Type)
}

// Remove deregisters a goal type and rebuilds every preference heap that
// references it. Removing an unknown type is a no-op. This is the most
// expensive mutation the registry performs; callers on the hot path should
// prefer letting goals satisfy out naturally.
func (r *Registry) Remove(gt GoalType) bool {
	if _, ok := r.goals[gt]; !ok {
		return false
	}
	delete(r.goals, gt)
	r.prefs.removeGoal(gt)
	return true
}

// Decrement records one unit of satisfaction against the goal type, consumed
// from an item. At zero remaining units a recurring goal arms its countdown
// and stays registered; a one-shot goal is removed. Absence is tolerated as
// a no-op — the caller may be racing a recurrence boundary.
func (r *Registry) Decrement(gt GoalType) {
	g := r.goals[gt]
	if g == nil || g.UnitsRemaining <= 0 {
		return
	}
	g.UnitsRemaining--
	if g.UnitsRemaining > 0 {
		return
	}
	if g.Recurring() {
		g.Countdown = g.RecurrenceTicks
		return
	}
	r.Remove(gt)
}

// TickRecurrence advances every armed countdown by one tick. Goals whose
// countdown reaches zero re-activate through the slow re-registration path.
// Iteration follows hierarchy order so re-activation is deterministic.
func (r *Registry) TickRecurrence() []GoalType {
	var reactivated []GoalType
	for _, gt := range r.hier.Order() {
		g := r.goals[gt]
		if g == nil || g.Active() || !g.Recurring() {
			continue
		}
		if g.Countdown > 0 {
			g.Countdown--
		}
		if g.Countdown == 0 {
			r.reregister(g)
			reactivated = append(reactivated, gt)
		}
	}
	return reactivated
}

// Active returns the goal types currently demanding units, in rank order.
// This is the actor's current goal list for the tick.
func (r *Registry) Active() []GoalType {
	var out []GoalType
	for _, gt := range r.hier.Order() {
		if g := r.goals[gt]; g != nil && g.Active() {
			out = append(out, gt)
		}
	}
	return out
}

// Goals returns a snapshot of all registered goals in hierarchy order.
func (r *Registry) Goals() []Goal {
	var out []Goal
	for _, gt := range r.hier.Order() {
		if g := r.goals[gt]; g != nil {
			out = append(out, *g)
		}
	}
	return out
}

// Len returns the number of registered goals.
func (r *Registry) Len() int { return len(r.goals) }
