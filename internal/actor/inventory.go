package actor

import "github.com/google/uuid"

// Inventory exclusively owns an actor's item instances. An item enters on
// endowment or trade receipt and leaves on consumption or trade away; there
// is no other path. Storage order is arrival order — decision passes order
// items by valuation on demand, since valuations shift as goals are met.
type Inventory struct {
	items []Item
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{}
}

// Add takes ownership of an item.
func (inv *Inventory) Add(item Item) {
	inv.items = append(inv.items, item)
}

// Remove releases the item with the given ID, returning it.
func (inv *Inventory) Remove(id uuid.UUID) (Item, bool) {
	for i, it := range inv.items {
		if it.ID == id {
			inv.items = append(inv.items[:i], inv.items[i+1:]...)
			return it, true
		}
	}
	return Item{}, false
}

// Items returns the held instances in arrival order (a copy).
func (inv *Inventory) Items() []Item {
	out := make([]Item, len(inv.items))
	copy(out, inv.items)
	return out
}

// Len returns the number of held instances.
func (inv *Inventory) Len() int { return len(inv.items) }

// CountByType tallies held instances per item type.
func (inv *Inventory) CountByType() map[ItemType]int {
	counts := make(map[ItemType]int)
	for _, it := range inv.items {
		counts[it.Type]++
	}
	return counts
}
