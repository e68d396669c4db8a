// Package economy defines the shared goods catalog: which item types exist
// and which goal types each is capable of serving. Valuation is not here —
// value is subjective, computed per actor from its own hierarchy and goal
// state. The catalog only fixes the objective capability facts.
package economy

import "github.com/talgya/menger/internal/actor"

// Goal types shared by the default scenario.
const (
	GoalFood    actor.GoalType = "food"
	GoalShelter actor.GoalType = "shelter"
	GoalRest    actor.GoalType = "rest"
	GoalLeisure actor.GoalType = "leisure"
)

// Item types shared by the default scenario.
const (
	ItemBread   actor.ItemType = "bread"
	ItemFish    actor.ItemType = "fish"
	ItemPlank   actor.ItemType = "plank"
	ItemBedroll actor.ItemType = "bedroll"
	ItemTrinket actor.ItemType = "trinket"
)

// Catalog maps each item type to the goal types it can serve. The mapping is
// objective and shared by every actor in a scenario; actors diverge only in
// how they rank the goals.
type Catalog struct {
	Serves map[actor.ItemType][]actor.GoalType `json:"serves" yaml:"serves"`
}

// DefaultCatalog returns the built-in goods table. Several items serve more
// than one goal, which is what gives substitution and trade something to
// work with.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Serves: map[actor.ItemType][]actor.GoalType{
			ItemBread:   {GoalFood, GoalLeisure},
			ItemFish:    {GoalFood},
			ItemPlank:   {GoalShelter, GoalLeisure},
			ItemBedroll: {GoalRest, GoalShelter},
			ItemTrinket: {GoalLeisure},
		},
	}
}

// Satisfactions returns a defensive copy of the capability table, suitable
// for handing to actor constructors.
func (c *Catalog) Satisfactions() map[actor.ItemType][]actor.GoalType {
	out := make(map[actor.ItemType][]actor.GoalType, len(c.Serves))
	for t, goals := range c.Serves {
		out[t] = append([]actor.GoalType(nil), goals...)
	}
	return out
}

// Knows reports whether the catalog defines the item type.
func (c *Catalog) Knows(t actor.ItemType) bool {
	_, ok := c.Serves[t]
	return ok
}

// GoalTypes returns the set of goal types referenced anywhere in the catalog.
func (c *Catalog) GoalTypes() map[actor.GoalType]struct{} {
	out := make(map[actor.GoalType]struct{})
	for _, goals := range c.Serves {
		for _, gt := range goals {
			out[gt] = struct{}{}
		}
	}
	return out
}
