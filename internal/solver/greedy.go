package solver

import (
	"time"

	"github.com/freeeve/territory/pkg/field"
)

// GreedySelect values each action by its immediate tile swing and assigns.
type GreedySelect struct {
	Params Params
}

func (g *GreedySelect) Name() string { return NameGreedy }

func (g *GreedySelect) Eval(f *field.Field, side field.Side, _ int, act field.Act) (float64, bool) {
	v, ok := TilePoint(f, side, act)
	return float64(v), ok
}

func (g *GreedySelect) Solve(f *field.Field, side field.Side) []field.Act {
	defer observeSolve(g.Name(), time.Now())
	return SolveEach(f, side, g, g.Params.PlaceBorder)
}
