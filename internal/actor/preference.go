package actor

import (
	"container/heap"
	"fmt"
	"sort"
)

// prefEntry is one goal type inside an item type's preference heap. The rank
// is captured from the hierarchy at insertion; hierarchy positions never
// change for ranked types (new types only append below), so captured ranks
// stay valid for the actor's lifetime.
type prefEntry struct {
	goal GoalType
	rank int
}

// goalHeap orders preference entries by rank, most valued (lowest rank) on top.
type goalHeap []prefEntry

func (h goalHeap) Len() int            { return len(h) }
func (h goalHeap) Less(i, j int) bool  { return h[i].rank < h[j].rank }
func (h goalHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *goalHeap) Push(x any)         { *h = append(*h, x.(prefEntry)) }
func (h *goalHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// PreferenceList maps each item type to the registered goal types it can
// serve, ordered by hierarchy rank. The top of a type's heap — filtered to
// goals that still demand units — is that type's current best use, and the
// rank of the best use is the item's value for every comparison the actor
// makes. Entries for satisfied-but-recurring goals stay in the heap and are
// skipped lazily; entries for goals removed from the registry are rebuilt
// away eagerly on removal and compacted away if ever encountered.
type PreferenceList struct {
	hier *Hierarchy
	reg  *Registry

	// serves is the capability table: which goal types each item type can
	// serve at all. Fixed at construction; heaps only ever hold the
	// registered subset of it.
	serves    map[ItemType][]GoalType
	servesRev map[GoalType][]ItemType

	byType map[ItemType]*goalHeap
}

// newPreferenceList validates the capability table against the hierarchy and
// builds empty heaps. Goals are inserted as the registry registers them.
func newPreferenceList(hier *Hierarchy, serves map[ItemType][]GoalType) (*PreferenceList, error) {
	p := &PreferenceList{
		hier:      hier,
		serves:    make(map[ItemType][]GoalType, len(serves)),
		servesRev: make(map[GoalType][]ItemType),
		byType:    make(map[ItemType]*goalHeap, len(serves)),
	}
	// Deterministic iteration keeps heap layouts reproducible across runs.
	types := make([]ItemType, 0, len(serves))
	for t := range serves {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		goals := serves[t]
		for _, gt := range goals {
			if !hier.Ranked(gt) {
				return nil, fmt.Errorf("item type %q serves %q: %w", t, gt, ErrUnknownGoal)
			}
			p.servesRev[gt] = append(p.servesRev[gt], t)
		}
		p.serves[t] = append([]GoalType(nil), goals...)
		h := make(goalHeap, 0, len(goals))
		p.byType[t] = &h
	}
	return p, nil
}

func (p *PreferenceList) attach(reg *Registry) { p.reg = reg }

// CanServe reports whether the item type is capable of serving the goal type,
// regardless of the goal's current registration or satisfaction state.
func (p *PreferenceList) CanServe(t ItemType, gt GoalType) bool {
	for _, g := range p.serves[t] {
		if g == gt {
			return true
		}
	}
	return false
}

// Knows reports whether the item type has a preference entry at all.
func (p *PreferenceList) Knows(t ItemType) bool {
	_, ok := p.byType[t]
	return ok
}

// addGoal pushes a newly registered goal type into the heap of every item
// type capable of serving it. Touches k item types at O(log n) each.
func (p *PreferenceList) addGoal(gt GoalType) {
	rank, err := p.hier.RankOf(gt)
	if err != nil {
		// Registration discipline guarantees ranked-before-registered.
		panic(fmt.Sprintf("preference: %v", err))
	}
	for _, t := range p.servesRev[gt] {
		heap.Push(p.byType[t], prefEntry{goal: gt, rank: rank})
	}
}

// ensureGoal re-inserts the goal type wherever a rebuild dropped it. This is
// the re-registration maintenance path: it walks every affected heap even
// when nothing is missing, which is what makes re-registration slow.
func (p *PreferenceList) ensureGoal(gt GoalType) {
	rank, err := p.hier.RankOf(gt)
	if err != nil {
		panic(fmt.Sprintf("preference: %v", err))
	}
	for _, t := range p.servesRev[gt] {
		h := p.byType[t]
		present := false
		for _, e := range *h {
			if e.goal == gt {
				present = true
				break
			}
		}
		if !present {
			heap.Push(h, prefEntry{goal: gt, rank: rank})
		}
	}
}

// removeGoal rebuilds the heap of every item type that references the goal
// type. Heaps have no arbitrary-key deletion, so each affected structure is
// reconstructed from scratch; entries whose goals have meanwhile left the
// registry are compacted away in the same pass, which absorbs the cascade
// where a removal exposes a previously shadowed stale entry.
func (p *PreferenceList) removeGoal(gt GoalType) {
	for _, t := range p.servesRev[gt] {
		old := p.byType[t]
		fresh := make(goalHeap, 0, len(*old))
		for _, e := range *old {
			if e.goal == gt {
				continue
			}
			if p.reg != nil && p.reg.Lookup(e.goal) == nil {
				continue
			}
			fresh = append(fresh, e)
		}
		heap.Init(&fresh)
		p.byType[t] = &fresh
	}
}

// BestUse returns the highest-ranked goal type the item type can still serve:
// the heap top after skipping entries whose goal is absent or fully
// satisfied. Dead entries (absent goals) are dropped permanently as they
// surface; satisfied-but-recurring entries are parked and restored, since
// they become live again when the goal's countdown expires.
func (p *PreferenceList) BestUse(t ItemType) (GoalType, error) {
	h, ok := p.byType[t]
	if !ok {
		return "", fmt.Errorf("best use of %q: %w", t, ErrUnknownItemType)
	}

	var parked []prefEntry
	var found GoalType
	for h.Len() > 0 {
		top := (*h)[0]
		g := p.reg.Lookup(top.goal)
		if g == nil {
			heap.Pop(h)
			continue
		}
		if !g.Active() {
			parked = append(parked, heap.Pop(h).(prefEntry))
			continue
		}
		found = top.goal
		break
	}
	for _, e := range parked {
		heap.Push(h, e)
	}
	if found == "" {
		return "", fmt.Errorf("best use of %q: %w", t, ErrNoSatisfiableGoal)
	}
	return found, nil
}

// TopGoal returns the highest-ranked registered goal type the item type
// serves, with satisfied-but-recurring goals still holding their place. This
// is the item's standing assignment: consuming the item for its top goal
// forgoes nothing, consuming it for anything else is substitution. Dead
// entries are dropped permanently as they surface, as in BestUse.
func (p *PreferenceList) TopGoal(t ItemType) (GoalType, error) {
	h, ok := p.byType[t]
	if !ok {
		return "", fmt.Errorf("top goal of %q: %w", t, ErrUnknownItemType)
	}
	for h.Len() > 0 {
		top := (*h)[0]
		if p.reg.Lookup(top.goal) == nil {
			heap.Pop(h)
			continue
		}
		return top.goal, nil
	}
	return "", fmt.Errorf("top goal of %q: %w", t, ErrNoSatisfiableGoal)
}

// ValueOf returns the rank of the item type's best use. Lower rank = more
// valuable. A hierarchy miss here means registration-order corruption and is
// surfaced to the caller rather than swallowed.
func (p *PreferenceList) ValueOf(t ItemType) (int, error) {
	gt, err := p.BestUse(t)
	if err != nil {
		return 0, err
	}
	return p.hier.RankOf(gt)
}

// GoalsFor returns the item type's current heap contents in rank order, for
// inspection. Satisfied and armed entries are included; dead ones are not
// (they cannot exist outside the window between lazy skips).
func (p *PreferenceList) GoalsFor(t ItemType) []GoalType {
	h, ok := p.byType[t]
	if !ok {
		return nil
	}
	entries := append(goalHeap(nil), *h...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].rank < entries[j].rank })
	out := make([]GoalType, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.goal)
	}
	return out
}

// Types returns the item types with preference entries, sorted.
func (p *PreferenceList) Types() []ItemType {
	out := make([]ItemType, 0, len(p.byType))
	for t := range p.byType {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Satisfactions returns a copy of the capability table.
func (p *PreferenceList) Satisfactions() map[ItemType][]GoalType {
	out := make(map[ItemType][]GoalType, len(p.serves))
	for t, goals := range p.serves {
		out[t] = append([]GoalType(nil), goals...)
	}
	return out
}
