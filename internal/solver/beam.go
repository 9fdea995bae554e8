package solver

import (
	"math"
	"slices"
	"sort"

	"github.com/freeeve/territory/pkg/field"
)

// BeamResult is one planned move sequence for an agent.
type BeamResult struct {
	Score float64       // discounted cumulative value
	First field.Act     // action taken at depth 1
	Path  []field.Point // position at each depth, start included
	Gains []float64     // discounted value earned at each depth, Gains[0] = 0
}

// beamRef addresses a state in the layered arena.
type beamRef struct {
	layer, idx int
}

var noRef = beamRef{-1, -1}

type beamState struct {
	score float64
	pos   field.Point
	first field.Act
	used  []field.Point // tiles already entered, for self-avoidance
	gains []float64
	prev  beamRef
}

func (s *beamState) visited(p field.Point) bool {
	return slices.Contains(s.used, p)
}

// child derives a successor. steps holds the discounted gain for each depth
// the transition spans.
func (s *beamState) child(pos field.Point, act field.Act, enter bool, prev beamRef, steps ...float64) beamState {
	used := s.used
	if enter {
		used = append(slices.Clip(s.used), pos)
	}
	first := s.first
	if prev.layer == 0 {
		first = act
	}
	score := s.score
	for _, g := range steps {
		score += g
	}
	return beamState{
		score: score,
		pos:   pos,
		first: first,
		used:  used,
		gains: append(slices.Clip(s.gains), steps...),
		prev:  prev,
	}
}

// BeamPlanner searches bounded-depth move sequences for single agents on a
// fixed board snapshot.
type BeamPlanner struct {
	f      *field.Field
	side   field.Side
	params Params
}

// NewBeamPlanner creates a planner for side on f.
func NewBeamPlanner(f *field.Field, side field.Side, p Params) *BeamPlanner {
	return &BeamPlanner{f: f, side: side, params: p}
}

// PlanAll runs Plan for every start position.
func (b *BeamPlanner) PlanAll(starts []field.Point) [][]BeamResult {
	out := make([][]BeamResult, len(starts))
	for i, s := range starts {
		out[i] = b.Plan(s)
	}
	return out
}

// Plan returns up to BeamWidth diverse paths of Depth steps from start,
// ordered by descending score. A Move scores the valuator's point discounted
// by Per^t; revisits score zero. Removing an enemy wall costs two steps
// (remove, then step in) except on the last step, and is discounted by
// AgConfPer when an enemy agent stands on the wall.
func (b *BeamPlanner) Plan(start field.Point) []BeamResult {
	depth := b.params.Depth
	layers := make([][]beamState, depth+1)
	layers[0] = []beamState{{pos: start, first: field.StayAct, used: []field.Point{start}, gains: []float64{0}, prev: noRef}}

	for t := 0; t < depth; t++ {
		layers[t] = b.reduce(layers, t)
		decay := math.Pow(b.params.Per, float64(t))
		for idx := range layers[t] {
			st := &layers[t][idx]
			ref := beamRef{t, idx}
			for _, nb := range Neighbors(b.f, st.pos) {
				tile := b.f.Tile(nb)
				if tile.State.IsWallOf(b.side.Other()) {
					act := field.RemoveAct(nb)
					v, ok := b.stepValue(st, nb, act)
					if !ok {
						continue
					}
					if enemy, _, occ := b.f.AgentAt(nb); occ && enemy != b.side {
						v *= b.params.AgConfPer
					}
					if t == depth-1 {
						layers[t+1] = append(layers[t+1], st.child(st.pos, act, false, ref, v*decay))
					} else {
						layers[t+2] = append(layers[t+2], st.child(nb, act, true, ref, v*decay, v*b.params.Per*decay))
					}
					continue
				}
				act := field.MoveAct(nb)
				v, ok := b.stepValue(st, nb, act)
				if !ok {
					continue
				}
				layers[t+1] = append(layers[t+1], st.child(nb, act, true, ref, v*decay))
			}
		}
	}

	final := b.reduce(layers, depth)
	layers[depth] = final
	out := make([]BeamResult, len(final))
	for i := range final {
		out[i] = BeamResult{
			Score: final[i].score,
			First: final[i].first,
			Path:  b.path(layers, beamRef{depth, i}),
			Gains: final[i].gains,
		}
	}
	return out
}

func (b *BeamPlanner) stepValue(st *beamState, nb field.Point, act field.Act) (float64, bool) {
	v, ok := TilePoint(b.f, b.side, act)
	if !ok {
		return 0, false
	}
	if st.visited(nb) {
		return 0, true
	}
	return float64(v), true
}

// path walks back-references from ref to the root and returns one position
// per depth, repeating the last known position across two-step removals.
func (b *BeamPlanner) path(layers [][]beamState, ref beamRef) []field.Point {
	known := make([]*field.Point, ref.layer+1)
	for r := ref; r.layer >= 0; {
		st := &layers[r.layer][r.idx]
		p := st.pos
		known[r.layer] = &p
		r = st.prev
	}
	out := make([]field.Point, ref.layer+1)
	var cur field.Point
	for i, p := range known {
		if p != nil {
			cur = *p
		}
		out[i] = cur
	}
	return out
}

type scoredState struct {
	adjusted float64
	state    beamState
}

// reduce caps layer t at BeamWidth states. States are visited best raw score
// first; each gets a bonus that grows the earlier its path leaves every
// previously accepted path, and a penalty for the tiles it shares with
// accepted states. Exact duplicate paths are dropped. The survivors are
// returned ordered by descending raw score.
func (b *BeamPlanner) reduce(layers [][]beamState, t int) []beamState {
	cand := layers[t]
	sort.SliceStable(cand, func(i, j int) bool { return cand[i].score > cand[j].score })

	seen := make(map[string]struct{})
	var accepted [][]field.Point
	res := make([]scoredState, 0, len(cand))
	for i := range cand {
		st := cand[i]
		p := b.path(layers, beamRef{t, i})

		lcp := len(p)
		for k := range p {
			if _, ok := seen[pathKey(p[:k+1])]; !ok {
				lcp = k
				break
			}
		}
		if lcp == len(p) {
			continue
		}

		overlap := 0.0
		for _, other := range accepted {
			n := 0
			for _, q := range st.used {
				if slices.Contains(other, q) {
					n++
				}
			}
			overlap += math.Pow(float64(n), b.params.SameTilePow)
		}
		if len(accepted) > 0 {
			overlap /= float64(len(accepted))
		}

		bonus := b.params.LCPPer * math.Pow(float64(b.params.Depth+1-max(lcp, 1)), b.params.LCPPow)
		for k := range p {
			seen[pathKey(p[:k+1])] = struct{}{}
		}
		accepted = append(accepted, st.used)
		res = append(res, scoredState{adjusted: st.score + bonus - b.params.SameTilePer*overlap, state: st})
	}

	sort.SliceStable(res, func(i, j int) bool { return res[i].adjusted > res[j].adjusted })
	if len(res) > b.params.BeamWidth {
		res = res[:b.params.BeamWidth]
	}
	out := make([]beamState, len(res))
	for i := range res {
		out[i] = res[i].state
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

func pathKey(p []field.Point) string {
	buf := make([]byte, 0, 2*len(p))
	for _, q := range p {
		buf = append(buf, byte(q.X), byte(q.Y))
	}
	return string(buf)
}
