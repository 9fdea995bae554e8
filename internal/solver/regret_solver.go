package solver

import (
	"time"

	"golang.org/x/exp/rand"

	"github.com/freeeve/territory/pkg/field"
)

// RegretMatching plays both sides' SimpleDP candidate tables against each
// other with regret matching, then assigns each agent by its averaged
// strategy so the output stays collision-free.
type RegretMatching struct {
	Params Params
	Eval   EachEvaluator
	rng    *rand.Rand
}

// NewRegretMatching creates a regret solver valuing candidates with SimpleDP.
func NewRegretMatching(p Params, rng *rand.Rand) *RegretMatching {
	return &RegretMatching{Params: p, Eval: &SimpleDP{Params: p}, rng: rng}
}

func (r *RegretMatching) Name() string { return NameRegret }

func (r *RegretMatching) Solve(f *field.Field, side field.Side) []field.Act {
	defer observeSolve(r.Name(), time.Now())
	var tables [2][][]Candidate
	for _, s := range field.Sides() {
		tables[s.Index()] = EvalTable(f, s, r.Eval, r.Params.PlaceBorder)
	}
	res := RefineRegret(f, side, tables, r.Params.RegretIterations, r.rng)

	own := tables[side.Index()]
	weighted := make([][]Candidate, len(own))
	for id, cs := range own {
		weighted[id] = make([]Candidate, len(cs))
		for j, c := range cs {
			weighted[id][j] = Candidate{Act: c.Act, Value: res.Average[id][j]}
		}
	}
	return Assign(f, side, weighted)
}
