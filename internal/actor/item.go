package actor

import "github.com/google/uuid"

// ItemType identifies a kind of item ("bread", "plank"). Items of different
// types are never fungible; items of the same type are interchangeable for
// valuation but remain distinct owned instances.
type ItemType string

// Item is one indivisible owned instance. The type is immutable for the
// item's lifetime; the ID exists so inventories, trades, and tick outcomes
// can refer to a specific instance.
type Item struct {
	ID   uuid.UUID `json:"id"`
	Type ItemType  `json:"type"`
}

// NewItem mints a fresh instance of the given type.
func NewItem(t ItemType) Item {
	return Item{ID: uuid.New(), Type: t}
}
