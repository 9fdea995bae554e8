package solver

import (
	"math"
	"time"

	"golang.org/x/exp/rand"

	"github.com/freeeve/territory/pkg/field"
)

// SocialDistance plans every placed agent with beam search, picks a joint
// combination of plans by simulated annealing, and then places unplaced
// agents on the best free tiles the plans leave alone.
type SocialDistance struct {
	Params Params
	rng    *rand.Rand
}

// NewSocialDistance creates the lookahead solver.
func NewSocialDistance(p Params, rng *rand.Rand) *SocialDistance {
	return &SocialDistance{Params: p, rng: rng}
}

func (s *SocialDistance) Name() string { return NameSocialDistance }

func (s *SocialDistance) Solve(f *field.Field, side field.Side) []field.Act {
	defer observeSolve(s.Name(), time.Now())
	n := f.AgentCount()
	planned := make([]field.Act, n)
	for id := range planned {
		planned[id] = field.StayAct
	}

	var ids []int
	var starts []field.Point
	for id := 0; id < n; id++ {
		if pos, ok := f.Agent(side, id); ok {
			ids = append(ids, id)
			starts = append(starts, pos)
		}
	}
	if len(ids) > 0 {
		lists := NewBeamPlanner(f, side, s.Params).PlanAll(starts)
		sel, _ := NewAnnealer(f, side, s.Params, s.rng).Combine(lists)
		for i, id := range ids {
			if sel[i] >= 0 {
				planned[id] = lists[i][sel[i]].First
			}
		}
	}

	// The annealer only discourages shared first steps; settle them here,
	// then fix the placed agents and fill in placements around them.
	confirm := make([][]Candidate, n)
	for id := range confirm {
		confirm[id] = []Candidate{{Act: field.StayAct}}
		if planned[id].Kind != field.Stay {
			confirm[id] = append(confirm[id], Candidate{Act: planned[id], Value: 1})
		}
	}
	moves := Assign(f, side, confirm)

	placing := make([][]Candidate, n)
	for id := range placing {
		if _, ok := f.Agent(side, id); ok {
			placing[id] = []Candidate{{Act: moves[id]}}
			continue
		}
		placing[id] = s.placements(f, side, id)
	}
	return Assign(f, side, placing)
}

// placements values every Place candidate of an unplaced agent by its tile
// swing, shrunk by how many enemy agents could contest the tile next turn.
func (s *SocialDistance) placements(f *field.Field, side field.Side, id int) []Candidate {
	var enemies []field.Point
	for eid := 0; eid < f.AgentCount(); eid++ {
		if pos, ok := f.Agent(side.Other(), eid); ok {
			enemies = append(enemies, pos)
		}
	}

	var out []Candidate
	for _, act := range Candidates(f, side, id, s.Params.PlaceBorder) {
		v, ok := TilePoint(f, side, act)
		if !ok {
			continue
		}
		value := float64(v)
		if act.Kind == field.Place && value > 0 {
			contenders := 0
			for _, e := range enemies {
				if e.Neighbor(act.Target) {
					contenders++
				}
			}
			conf := math.Pow(s.Params.SAConfPer, float64(contenders))
			value *= math.Pow(conf, s.Params.PutConfPow)
		}
		out = append(out, Candidate{Act: act, Value: value})
	}
	return out
}
