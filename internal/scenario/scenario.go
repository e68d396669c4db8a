// Package scenario loads and validates simulation setups: the goods catalog,
// the hand-authored actors, and optional procedurally generated populations.
// Scenarios are YAML files; omitted fields fall back to the built-in setup.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/menger/internal/actor"
	"github.com/talgya/menger/internal/economy"
)

// Scenario describes a complete simulation setup.
type Scenario struct {
	// Seed drives endowment generation and ranking shuffles. 0 picks a
	// random seed at build time.
	Seed int64 `yaml:"seed"`

	Catalog *economy.Catalog `yaml:"catalog"`

	Actors []ActorSpec `yaml:"actors"`

	// Generated optionally adds a procedural population on top of the
	// hand-authored actors.
	Generated *GeneratedSpec `yaml:"generated_actors"`
}

// ActorSpec is one hand-authored actor.
type ActorSpec struct {
	ID      string           `yaml:"id"`
	Name    string           `yaml:"name"`
	Ranking []actor.GoalType `yaml:"ranking"`
	Goals   []GoalSpec       `yaml:"goals"`

	// Endowment is the starting inventory: instances minted per item type.
	Endowment map[actor.ItemType]int `yaml:"endowment"`
}

// GoalSpec is one goal registration in YAML form.
type GoalSpec struct {
	Type            actor.GoalType `yaml:"type"`
	Units           int            `yaml:"units"`
	RecurrenceTicks uint64         `yaml:"recurrence_ticks"`
}

// GeneratedSpec describes a procedural population. Endowments are drawn from
// a noise field so neighbouring actors get correlated but unequal holdings;
// ranking shuffles give each generated actor its own valuations.
type GeneratedSpec struct {
	Count      int              `yaml:"count"`
	NamePrefix string           `yaml:"name_prefix"`
	Ranking    []actor.GoalType `yaml:"ranking"`
	Goals      []GoalSpec       `yaml:"goals"`

	// MaxPerType caps the generated instances of each item type.
	MaxPerType int `yaml:"max_per_type"`

	// ShuffleRanking permutes each generated actor's ranking so valuations
	// differ across the population.
	ShuffleRanking bool `yaml:"shuffle_ranking"`
}

// Load reads a scenario from a YAML file, applies defaults, and validates.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes scenario YAML, applies defaults, and validates.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// applyDefaults fills in anything the file omitted.
func (sc *Scenario) applyDefaults() {
	if sc.Catalog == nil || len(sc.Catalog.Serves) == 0 {
		sc.Catalog = economy.DefaultCatalog()
	}
	if len(sc.Actors) == 0 && sc.Generated == nil {
		def := Default()
		sc.Actors = def.Actors
	}
	if sc.Generated != nil {
		g := sc.Generated
		if g.NamePrefix == "" {
			g.NamePrefix = "actor"
		}
		if g.MaxPerType <= 0 {
			g.MaxPerType = 3
		}
		if len(g.Ranking) == 0 {
			g.Ranking = defaultRanking()
		}
		if len(g.Goals) == 0 {
			g.Goals = defaultGoals()
		}
	}
}

// Validate checks internal consistency: unique actor IDs, rankings that cover
// every referenced goal type, and endowments drawn from the catalog.
func (sc *Scenario) Validate() error {
	seen := make(map[string]struct{}, len(sc.Actors))
	for i, as := range sc.Actors {
		if as.ID == "" {
			return fmt.Errorf("actor %d: missing id", i)
		}
		if _, dup := seen[as.ID]; dup {
			return fmt.Errorf("actor %q: duplicate id", as.ID)
		}
		seen[as.ID] = struct{}{}
		if len(as.Ranking) == 0 {
			return fmt.Errorf("actor %q: empty ranking", as.ID)
		}
		if err := checkGoals(as.Ranking, as.Goals); err != nil {
			return fmt.Errorf("actor %q: %w", as.ID, err)
		}
		for t := range as.Endowment {
			if !sc.Catalog.Knows(t) {
				return fmt.Errorf("actor %q: endowment item %q not in catalog", as.ID, t)
			}
		}
	}
	if g := sc.Generated; g != nil {
		if g.Count < 0 {
			return fmt.Errorf("generated_actors: negative count %d", g.Count)
		}
		if err := checkGoals(g.Ranking, g.Goals); err != nil {
			return fmt.Errorf("generated_actors: %w", err)
		}
	}
	return nil
}

func checkGoals(ranking []actor.GoalType, goals []GoalSpec) error {
	ranked := make(map[actor.GoalType]struct{}, len(ranking))
	for _, gt := range ranking {
		if gt == "" {
			return fmt.Errorf("ranking contains empty goal type")
		}
		if _, dup := ranked[gt]; dup {
			return fmt.Errorf("ranking repeats %q", gt)
		}
		ranked[gt] = struct{}{}
	}
	for _, gs := range goals {
		if _, ok := ranked[gs.Type]; !ok {
			return fmt.Errorf("goal %q not in ranking", gs.Type)
		}
		if gs.Units <= 0 {
			return fmt.Errorf("goal %q: units must be positive", gs.Type)
		}
	}
	return nil
}

func defaultRanking() []actor.GoalType {
	return []actor.GoalType{
		economy.GoalFood,
		economy.GoalShelter,
		economy.GoalRest,
		economy.GoalLeisure,
	}
}

func defaultGoals() []GoalSpec {
	return []GoalSpec{
		{Type: economy.GoalFood, Units: 2, RecurrenceTicks: 10},
		{Type: economy.GoalShelter, Units: 10},
		{Type: economy.GoalRest, Units: 10, RecurrenceTicks: 30},
		{Type: economy.GoalLeisure, Units: 4},
	}
}

// Default returns the built-in two-actor scenario: a baker rich in bread and
// a carpenter rich in planks, each with the standard goal set. Their
// complementary surpluses make trade happen within the first few ticks.
func Default() *Scenario {
	return &Scenario{
		Seed:    42,
		Catalog: economy.DefaultCatalog(),
		Actors: []ActorSpec{
			{
				ID:      "actor-baker",
				Name:    "Baker",
				Ranking: defaultRanking(),
				Goals:   defaultGoals(),
				Endowment: map[actor.ItemType]int{
					economy.ItemBread:   4,
					economy.ItemTrinket: 1,
				},
			},
			{
				ID:      "actor-carpenter",
				Name:    "Carpenter",
				Ranking: defaultRanking(),
				Goals:   defaultGoals(),
				Endowment: map[actor.ItemType]int{
					economy.ItemPlank:   4,
					economy.ItemBedroll: 1,
				},
			},
		},
	}
}
