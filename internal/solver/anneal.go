package solver

import (
	"math"
	"time"

	"golang.org/x/exp/rand"

	"github.com/freeeve/territory/pkg/field"
)

// Annealer picks one beam result per agent so the combination scores well
// as a whole: spread out, not fighting over tiles, and enclosing region.
type Annealer struct {
	f      *field.Field
	side   field.Side
	params Params
	rng    *rand.Rand
	now    func() time.Time

	scratch *field.Field
	enemies []field.Point
}

// NewAnnealer creates a combiner for side on f.
func NewAnnealer(f *field.Field, side field.Side, p Params, rng *rand.Rand) *Annealer {
	a := &Annealer{f: f, side: side, params: p, rng: rng, now: time.Now, scratch: f.Clone()}
	for id := 0; id < f.AgentCount(); id++ {
		if pos, ok := f.Agent(side.Other(), id); ok {
			a.enemies = append(a.enemies, pos)
		}
	}
	return a
}

type undo struct {
	agent, idx int
}

// Combine returns the chosen index into lists[i] for every agent, and the
// objective of that choice. Agents with an empty list get -1. The search
// runs until SABudget elapses (or SAMaxIterations proposals, when set) and
// always returns the best assignment seen, so the result never scores below
// the all-zero starting assignment.
func (a *Annealer) Combine(lists [][]BeamResult) ([]int, float64) {
	sel := make([]int, len(lists))
	var movable []int
	for i, l := range lists {
		switch {
		case len(l) == 0:
			sel[i] = -1
		case len(l) > 1:
			movable = append(movable, i)
		}
	}

	cur := a.score(lists, sel)
	best, bestSel := cur, append([]int(nil), sel...)
	if len(movable) == 0 {
		return bestSel, best
	}

	start := a.now()
	budget := a.params.SABudget.Seconds()
	var stack []undo
	iter := 0
	for {
		progress := a.now().Sub(start).Seconds() / budget
		if limit := a.params.SAMaxIterations; limit > 0 {
			progress = math.Max(progress, float64(iter)/float64(limit))
		}
		if progress >= 1 {
			break
		}
		iter++

		stack = stack[:0]
		first := movable[a.rng.Intn(len(movable))]
		stack = a.reassign(lists, sel, first, stack)
		if len(movable) > 1 && a.rng.Float64() >= a.params.SASingleProb {
			second := first
			for second == first {
				second = movable[a.rng.Intn(len(movable))]
			}
			stack = a.reassign(lists, sel, second, stack)
		}

		next := a.score(lists, sel)
		temp := a.params.StartTemp + (a.params.EndTemp-a.params.StartTemp)*progress
		if next >= cur || a.rng.Float64() < math.Exp((next-cur)/temp) {
			cur = next
			if cur > best {
				best = cur
				copy(bestSel, sel)
			}
			continue
		}
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			sel[u.agent] = u.idx
		}
	}
	annealIterations.Observe(float64(iter))
	return bestSel, best
}

// reassign moves agent to a different, uniformly chosen index.
func (a *Annealer) reassign(lists [][]BeamResult, sel []int, agent int, stack []undo) []undo {
	stack = append(stack, undo{agent, sel[agent]})
	to := a.rng.Intn(len(lists[agent]) - 1)
	if to >= sel[agent] {
		to++
	}
	sel[agent] = to
	return stack
}

// Score evaluates a selection with the same objective Combine maximizes.
func (a *Annealer) Score(lists [][]BeamResult, sel []int) float64 {
	return a.score(lists, sel)
}

// score projects every selected path depth by depth. Each agent carries an
// arrival probability that shrinks whenever another agent's projection (or
// an adjacent enemy, on the first step) contends for the same tile. Gains
// are weighted by that probability, nearby agents repel each other, the
// tiles the paths would wall off are credited through a region recount, and
// paths that are unlikely to be completed are penalized.
func (a *Annealer) score(lists [][]BeamResult, sel []int) float64 {
	p := a.params
	var chosen []*BeamResult
	depth := 0
	for i, idx := range sel {
		if idx < 0 {
			continue
		}
		r := &lists[i][idx]
		chosen = append(chosen, r)
		depth = max(depth, len(r.Path)-1)
	}
	if len(chosen) == 0 {
		return 0
	}

	prob := make([]float64, len(chosen))
	for i := range prob {
		prob[i] = 1
	}
	at := func(r *BeamResult, t int) field.Point {
		return r.Path[min(t, len(r.Path)-1)]
	}

	total := 0.0
	counts := make(map[field.Point]int, len(chosen))
	for t := 1; t <= depth; t++ {
		clear(counts)
		for _, r := range chosen {
			counts[at(r, t)]++
		}
		decay := math.Pow(p.Per, float64(t-1))
		for i, r := range chosen {
			pos := at(r, t)
			if pos != at(r, t-1) {
				contenders := counts[pos] - 1
				if t == 1 {
					for _, e := range a.enemies {
						if e.Neighbor(pos) {
							contenders++
						}
					}
				}
				if contenders > 0 {
					prob[i] *= math.Pow(p.SAConfPer, float64(contenders))
					total -= p.SAConfPena * float64(contenders) * decay
				}
			}
			if t < len(r.Gains) {
				g := r.Gains[t] * prob[i]
				if t == 1 {
					g *= p.FirstMoveBonus
				}
				total += g
			}
		}
		for i := range chosen {
			for j := i + 1; j < len(chosen); j++ {
				d2 := float64(at(chosen[i], t).Dist2(at(chosen[j], t)))
				if d2 < 0.5 {
					d2 = 0.5
				}
				total -= p.SADistPena * prob[i] * prob[j] * decay / math.Pow(d2, p.SADistPow)
			}
		}
	}

	total += p.RegionPer * signedPow(a.regionDelta(chosen), p.RegionPow)

	for i, r := range chosen {
		upside := 0.0
		for _, g := range r.Gains {
			upside += math.Max(g, 0)
		}
		total -= p.SALastPena * math.Pow(1-prob[i], p.SALastPow) * upside
		if prob[i] < p.SALastSuperBorder {
			total -= p.SALastSuperPena
		}
	}
	return total
}

// regionDelta marks every projected tile as an own wall on a scratch copy
// and returns the change in own region points minus the enemy's.
func (a *Annealer) regionDelta(chosen []*BeamResult) float64 {
	a.f.CloneInto(a.scratch)
	for _, r := range chosen {
		for _, pos := range r.Path[1:] {
			a.scratch.SetState(pos, field.WallOf(a.side))
		}
	}
	a.scratch.UpdateRegion()
	a.scratch.UpdateScore()
	own := a.scratch.Score(a.side).Region - a.f.Score(a.side).Region
	opp := a.scratch.Score(a.side.Other()).Region - a.f.Score(a.side.Other()).Region
	return float64(own - opp)
}

func signedPow(v, exp float64) float64 {
	if v < 0 {
		return -math.Pow(-v, exp)
	}
	return math.Pow(v, exp)
}
