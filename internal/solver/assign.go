package solver

import (
	"fmt"

	"github.com/freeeve/territory/pkg/field"
)

// Candidate is one valued action for one agent.
type Candidate struct {
	Act   field.Act
	Value float64
}

// destKey identifies a destination node in the assignment network. Real
// tiles use stay=-1; an unplaced agent's Stay gets a private node.
type destKey struct {
	p    field.Point
	stay int
}

// destOf is the tile the agent stands on after act. A remover stays put, so
// Remove and Stay share the agent's own tile.
func destOf(f *field.Field, side field.Side, id int, act field.Act) destKey {
	pos, placed := f.Agent(side, id)
	if act.Kind == field.Remove && placed {
		return destKey{p: pos, stay: -1}
	}
	if p, ok := act.Dest(); ok {
		return destKey{p: p, stay: -1}
	}
	if placed {
		return destKey{p: pos, stay: -1}
	}
	return destKey{stay: id}
}

// Assign picks one action per agent so that no two agents claim the same
// tile and the summed value is maximal. A Stay claims the agent's own tile; a
// Remove claims the remover's own tile and its target. cands[id] must be
// non-empty and should contain Stay; the result for an agent whose chosen edge
// is Stay is field.StayAct.
//
// The flow network gives each agent a single tile, the one it stands on. When
// two chosen Removes share a target, the lower-valued one is dropped and the
// assignment is solved again, so the result is optimal only among
// assignments without that Remove.
//
// Ties between equal-value assignments are broken by the order of cands, so
// callers that need reproducible output must pass them in a fixed order.
// Panics if a full assignment does not exist.
func Assign(f *field.Field, side field.Side, cands [][]Candidate) []field.Act {
	for {
		out := assignFlow(f, side, cands)
		id, ok := removeConflict(f, side, cands, out)
		if !ok {
			return out
		}
		cands = dropCandidate(cands, id, out[id])
	}
}

// removeConflict finds an agent whose chosen Remove targets a tile another
// agent also claims, preferring the lower-valued Remove.
func removeConflict(f *field.Field, side field.Side, cands [][]Candidate, out []field.Act) (int, bool) {
	claimants := make(map[field.Point][]int)
	for id, a := range out {
		if k := destOf(f, side, id, a); k.stay < 0 {
			claimants[k.p] = append(claimants[k.p], id)
		}
		if a.Kind == field.Remove {
			claimants[a.Target] = append(claimants[a.Target], id)
		}
	}
	worst, found := -1, false
	for id, a := range out {
		if a.Kind != field.Remove || len(claimants[a.Target]) < 2 {
			continue
		}
		if !found || candidateValue(cands[id], a) <= candidateValue(cands[worst], out[worst]) {
			worst, found = id, true
		}
	}
	return worst, found
}

func candidateValue(cs []Candidate, a field.Act) float64 {
	for _, c := range cs {
		if c.Act == a {
			return c.Value
		}
	}
	return 0
}

// dropCandidate returns cands without act for agent id. An agent left with
// nothing falls back to a zero-valued Stay, which uses the same tile.
func dropCandidate(cands [][]Candidate, id int, act field.Act) [][]Candidate {
	out := append([][]Candidate(nil), cands...)
	kept := make([]Candidate, 0, len(cands[id]))
	for _, c := range cands[id] {
		if c.Act != act {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, Candidate{Act: field.StayAct})
	}
	out[id] = kept
	return out
}

func assignFlow(f *field.Field, side field.Side, cands [][]Candidate) []field.Act {
	agents := len(cands)
	out := make([]field.Act, agents)
	if agents == 0 {
		return out
	}

	maxValue := 0.0
	first := true
	for id, cs := range cands {
		if len(cs) == 0 {
			panic(fmt.Sprintf("solver: agent %d has no candidates", id))
		}
		for _, c := range cs {
			if first || c.Value > maxValue {
				maxValue = c.Value
				first = false
			}
		}
	}

	destIdx := make(map[destKey]int)
	var destOrder []destKey
	for id, cs := range cands {
		for _, c := range cs {
			k := destOf(f, side, id, c.Act)
			if _, ok := destIdx[k]; !ok {
				destIdx[k] = len(destOrder)
				destOrder = append(destOrder, k)
			}
		}
	}

	source := 0
	agentNode := func(id int) int { return 1 + id }
	tileNode := func(i int) int { return 1 + agents + i }
	sink := 1 + agents + len(destOrder)
	net := newFlowNetwork(sink + 1)

	// tags index into flat so saturated edges map back to their action.
	var flat []field.Act
	for id, cs := range cands {
		net.addEdge(source, agentNode(id), 1, 0, -1)
		for _, c := range cs {
			k := destOf(f, side, id, c.Act)
			net.addEdge(agentNode(id), tileNode(destIdx[k]), 1, maxValue-c.Value, len(flat))
			flat = append(flat, c.Act)
		}
	}
	for i := range destOrder {
		net.addEdge(tileNode(i), sink, 1, 0, -1)
	}

	flow, _, augments := net.minCostFlow(source, sink, agents)
	flowAugmentations.Add(float64(augments))
	if flow < agents {
		panic(fmt.Sprintf("solver: assignment infeasible, routed %d of %d agents", flow, agents))
	}

	for id := range cands {
		out[id] = field.StayAct
		for _, e := range net.g[agentNode(id)] {
			if e.tag >= 0 && e.capacity == 0 {
				out[id] = flat[e.tag]
				break
			}
		}
	}
	return out
}

// AssignValue sums the candidate values of the chosen actions.
func AssignValue(cands [][]Candidate, acts []field.Act) float64 {
	total := 0.0
	for id, a := range acts {
		for _, c := range cands[id] {
			if c.Act == a {
				total += c.Value
				break
			}
		}
	}
	return total
}
