package solver

import (
	"slices"
	"time"

	"github.com/freeeve/territory/pkg/field"
)

// SimpleDP values an action by its immediate swing plus the best Per-decayed
// continuation the same agent could walk in the following DPDepth-1 turns,
// assuming the board otherwise stays as it is.
type SimpleDP struct {
	Params Params
}

func (d *SimpleDP) Name() string { return NameSimpleDP }

func (d *SimpleDP) Eval(f *field.Field, side field.Side, id int, act field.Act) (float64, bool) {
	v, ok := TilePoint(f, side, act)
	if !ok {
		return 0, false
	}
	pos, placed := f.Agent(side, id)
	switch act.Kind {
	case field.Stay:
		if !placed {
			return 0, true
		}
	case field.Move, field.Place:
		pos = act.Target
	}
	return float64(v) + d.Params.Per*d.best(f, side, pos, []field.Point{pos}, d.Params.DPDepth-1), true
}

// best is the maximal discounted gain of depth further steps from pos.
// A neighbouring enemy wall is removed in place; tiles in visited score 0.
func (d *SimpleDP) best(f *field.Field, side field.Side, pos field.Point, visited []field.Point, depth int) float64 {
	if depth <= 0 {
		return 0
	}
	out := 0.0
	for _, nb := range Neighbors(f, pos) {
		next := nb
		act := field.MoveAct(nb)
		if f.Tile(nb).State.IsWallOf(side.Other()) {
			next = pos
			act = field.RemoveAct(nb)
		}
		gain := 0.0
		if !slices.Contains(visited, nb) {
			v, _ := TilePoint(f, side, act)
			gain = float64(v)
		}
		gain += d.Params.Per * d.best(f, side, next, append(visited, nb), depth-1)
		out = max(out, gain)
	}
	return out
}

func (d *SimpleDP) Solve(f *field.Field, side field.Side) []field.Act {
	defer observeSolve(d.Name(), time.Now())
	return SolveEach(f, side, d, d.Params.PlaceBorder)
}
