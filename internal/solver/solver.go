package solver

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/exp/rand"

	"github.com/freeeve/territory/pkg/field"
)

// ErrUnknownSolver is returned by ForName for names with no registered solver.
var ErrUnknownSolver = errors.New("solver: unknown solver")

// Solver produces one action per agent of side for the current turn of f.
// The returned slice has f.AgentCount() entries and never sends two agents
// of side to the same tile.
type Solver interface {
	Name() string
	Solve(f *field.Field, side field.Side) []field.Act
}

// EachEvaluator values a single agent's action in isolation. Returning false
// drops the action from the agent's candidate set.
type EachEvaluator interface {
	Eval(f *field.Field, side field.Side, id int, act field.Act) (float64, bool)
}

// EvalTable builds the valued candidate table for every agent of side.
// Stay is always kept, valued 0 when the evaluator rejects it, so every row
// is non-empty.
func EvalTable(f *field.Field, side field.Side, ev EachEvaluator, border int) [][]Candidate {
	table := make([][]Candidate, f.AgentCount())
	for id := range table {
		for _, act := range Candidates(f, side, id, border) {
			v, ok := ev.Eval(f, side, id, act)
			if !ok {
				if act.Kind != field.Stay {
					continue
				}
				v = 0
			}
			table[id] = append(table[id], Candidate{Act: act, Value: v})
		}
	}
	return table
}

// SolveEach values every candidate independently with ev and lets the
// assignment solver pick a collision-free joint action.
func SolveEach(f *field.Field, side field.Side, ev EachEvaluator, border int) []field.Act {
	return Assign(f, side, EvalTable(f, side, ev, border))
}

func observeSolve(name string, start time.Time) {
	solveDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// Solver names accepted by ForName.
const (
	NameGreedy         = "greedy"
	NameSimpleDP       = "dp"
	NameRegret         = "regret"
	NameSocialDistance = "social"
)

var constructors = map[string]func(Params, *rand.Rand) Solver{
	NameGreedy:         func(p Params, _ *rand.Rand) Solver { return &GreedySelect{Params: p} },
	NameSimpleDP:       func(p Params, _ *rand.Rand) Solver { return &SimpleDP{Params: p} },
	NameRegret:         func(p Params, rng *rand.Rand) Solver { return NewRegretMatching(p, rng) },
	NameSocialDistance: func(p Params, rng *rand.Rand) Solver { return NewSocialDistance(p, rng) },
}

// ForName returns the solver registered under name. Solvers that sample
// draw from rng, which must not be shared across goroutines.
func ForName(name string, p Params, rng *rand.Rand) (Solver, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSolver, name)
	}
	return ctor(p, rng), nil
}

// Names lists the registered solver names in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
