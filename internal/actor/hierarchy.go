package actor

import "fmt"

// Hierarchy is a strict ordinal ranking of goal types. Rank equals position:
// index 0 is the most valued goal type, and no two types share a rank.
// Mutation (append/insert) is rare and off the hot path; rank lookup is O(1).
type Hierarchy struct {
	order []GoalType
	index map[GoalType]int
}

// NewHierarchy builds a hierarchy from most-valued to least-valued goal type.
// Duplicate types are rejected — ties have no meaning in an ordinal ranking.
func NewHierarchy(order ...GoalType) (*Hierarchy, error) {
	h := &Hierarchy{
		order: make([]GoalType, 0, len(order)),
		index: make(map[GoalType]int, len(order)),
	}
	for _, gt := range order {
		if err := h.Append(gt); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// RankOf returns the goal type's position. Lower rank = higher value.
func (h *Hierarchy) RankOf(gt GoalType) (int, error) {
	rank, ok := h.index[gt]
	if !ok {
		return 0, fmt.Errorf("rank %q: %w", gt, ErrUnknownGoal)
	}
	return rank, nil
}

// Ranked reports whether the goal type resolves in the hierarchy.
func (h *Hierarchy) Ranked(gt GoalType) bool {
	_, ok := h.index[gt]
	return ok
}

// Compare orders two goal types by value: negative when a is valued above b,
// positive when below. Equal only when a == b.
func (h *Hierarchy) Compare(a, b GoalType) (int, error) {
	ra, err := h.RankOf(a)
	if err != nil {
		return 0, err
	}
	rb, err := h.RankOf(b)
	if err != nil {
		return 0, err
	}
	return ra - rb, nil
}

// Append ranks a new goal type below every existing one.
func (h *Hierarchy) Append(gt GoalType) error {
	if gt == "" {
		return fmt.Errorf("append: empty goal type")
	}
	if _, ok := h.index[gt]; ok {
		return fmt.Errorf("append %q: already ranked", gt)
	}
	h.index[gt] = len(h.order)
	h.order = append(h.order, gt)
	return nil
}

// Len returns the number of ranked goal types.
func (h *Hierarchy) Len() int { return len(h.order) }

// Order returns the ranking from most valued to least valued (a copy).
func (h *Hierarchy) Order() []GoalType {
	out := make([]GoalType, len(h.order))
	copy(out, h.order)
	return out
}
