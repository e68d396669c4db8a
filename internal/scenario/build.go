package scenario

import (
	"fmt"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/menger/internal/actor"
)

// Build constructs the actor population the scenario describes. Hand-authored
// actors come first, then the generated population. The same seed yields the
// same population shape and holdings (instance IDs are freshly minted).
func (sc *Scenario) Build() ([]*actor.Actor, error) {
	seed := sc.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	sat := sc.Catalog.Satisfactions()
	actors := make([]*actor.Actor, 0, len(sc.Actors))

	for _, as := range sc.Actors {
		a, err := actor.New(as.ID, as.Name, as.Ranking, goalSpecs(as.Goals), sat)
		if err != nil {
			return nil, err
		}
		endow(a, as.Endowment)
		actors = append(actors, a)
	}

	if sc.Generated != nil && sc.Generated.Count > 0 {
		gen, err := sc.buildGenerated(seed, sat)
		if err != nil {
			return nil, err
		}
		actors = append(actors, gen...)
	}
	return actors, nil
}

// buildGenerated creates the procedural population. Endowments sample a
// normalized noise field: one axis walks the population, the other separates
// item types, so nearby actors hold similar but not identical goods.
func (sc *Scenario) buildGenerated(seed int64, sat map[actor.ItemType][]actor.GoalType) ([]*actor.Actor, error) {
	g := sc.Generated
	noise := opensimplex.NewNormalized(seed)
	rng := rand.New(rand.NewSource(seed))

	types := make([]actor.ItemType, 0, len(sc.Catalog.Serves))
	for t := range sc.Catalog.Serves {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	actors := make([]*actor.Actor, 0, g.Count)
	for i := 0; i < g.Count; i++ {
		id := fmt.Sprintf("%s-%03d", g.NamePrefix, i+1)
		name := fmt.Sprintf("%s %d", g.NamePrefix, i+1)

		ranking := append([]actor.GoalType(nil), g.Ranking...)
		if g.ShuffleRanking {
			rng.Shuffle(len(ranking), func(a, b int) {
				ranking[a], ranking[b] = ranking[b], ranking[a]
			})
		}

		a, err := actor.New(id, name, ranking, goalSpecs(g.Goals), sat)
		if err != nil {
			return nil, err
		}
		for j, t := range types {
			v := noise.Eval2(float64(i)*0.7, float64(j)*1.3)
			count := int(v * float64(g.MaxPerType+1))
			if count > g.MaxPerType {
				count = g.MaxPerType
			}
			a.Endow(t, count)
		}
		actors = append(actors, a)
	}
	return actors, nil
}

// endow mints the starting inventory in sorted type order so instance IDs
// are assigned in a stable sequence.
func endow(a *actor.Actor, counts map[actor.ItemType]int) {
	types := make([]actor.ItemType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		a.Endow(t, counts[t])
	}
}

func goalSpecs(specs []GoalSpec) []actor.GoalSpec {
	out := make([]actor.GoalSpec, 0, len(specs))
	for _, gs := range specs {
		out = append(out, actor.GoalSpec{
			Type:            gs.Type,
			Units:           gs.Units,
			RecurrenceTicks: gs.RecurrenceTicks,
		})
	}
	return out
}
