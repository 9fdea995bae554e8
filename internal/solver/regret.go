package solver

import (
	"slices"

	"golang.org/x/exp/rand"

	"github.com/freeeve/territory/pkg/field"
)

// RegretResult is the outcome of a regret-matching run for one side.
type RegretResult struct {
	// Final is the last iteration's regret-proportional strategy per agent,
	// aligned with the candidate tables passed in.
	Final [][]float64
	// Average is the mean of the strategies played across iterations.
	Average [][]float64
	// Iterations is the number of rounds run.
	Iterations int
}

// claim is the tile an action contends for, plus a tile it only holds. Stay
// of an unplaced agent claims nothing. A Remove contends for its target and
// holds the remover's tile, which blocks others without failing the Remove.
type claim struct {
	p    field.Point
	ok   bool
	hold field.Point
	held bool
}

// tiles lists every tile the claim occupies.
func (c claim) tiles() []field.Point {
	switch {
	case c.ok && c.held:
		return []field.Point{c.p, c.hold}
	case c.ok:
		return []field.Point{c.p}
	}
	return nil
}

func (c claim) touches(p field.Point) bool {
	return (c.ok && c.p == p) || (c.held && c.hold == p)
}

// wins reports whether the action succeeds given per-tile claim counts.
func (c claim) wins(count func(field.Point) int) bool {
	return !c.ok || count(c.p) == 1
}

type regretAgent struct {
	side field.Side
	id   int
}

// regretMatcher holds one run's state. Regrets only ever grow: each round
// adds max(0, deviation gain) per alternative.
type regretMatcher struct {
	tables      [2][][]Candidate
	claims      [2][][]claim
	regrets     [2][][]float64
	strategy    [2][][]float64
	strategySum [2][][]float64
	rng         *rand.Rand

	realized  [2][]int
	counts    map[field.Point]int
	occupants map[field.Point][]regretAgent
	rounds    int
}

func newRegretMatcher(f *field.Field, tables [2][][]Candidate, rng *rand.Rand) *regretMatcher {
	m := &regretMatcher{tables: tables, rng: rng}
	for _, s := range field.Sides() {
		si := s.Index()
		n := len(tables[si])
		m.claims[si] = make([][]claim, n)
		m.regrets[si] = make([][]float64, n)
		m.strategy[si] = make([][]float64, n)
		m.strategySum[si] = make([][]float64, n)
		m.realized[si] = make([]int, n)
		for id, cs := range tables[si] {
			if len(cs) == 0 {
				panic("solver: regret matching needs at least one candidate per agent")
			}
			m.claims[si][id] = make([]claim, len(cs))
			for j, c := range cs {
				m.claims[si][id][j] = claimOf(f, s, id, c.Act)
			}
			m.regrets[si][id] = make([]float64, len(cs))
			m.strategy[si][id] = regretStrategy(m.regrets[si][id], nil)
			m.strategySum[si][id] = make([]float64, len(cs))
		}
	}
	return m
}

func claimOf(f *field.Field, s field.Side, id int, act field.Act) claim {
	pos, placed := f.Agent(s, id)
	if p, ok := act.Dest(); ok {
		return claim{p: p, ok: true, hold: pos, held: act.Kind == field.Remove && placed}
	}
	return claim{p: pos, ok: placed}
}

// RefineRegret runs iterations rounds of regret matching over both sides'
// candidate tables and returns the strategy for side. tables[s][id] must be
// non-empty for every agent.
func RefineRegret(f *field.Field, side field.Side, tables [2][][]Candidate, iterations int, rng *rand.Rand) RegretResult {
	m := newRegretMatcher(f, tables, rng)
	for range iterations {
		m.step()
	}
	regretIterations.Add(float64(iterations))
	si := side.Index()
	res := RegretResult{
		Final:      make([][]float64, len(tables[si])),
		Average:    make([][]float64, len(tables[si])),
		Iterations: m.rounds,
	}
	for id := range tables[si] {
		res.Final[id] = append([]float64(nil), m.strategy[si][id]...)
		res.Average[id] = normalize(m.strategySum[si][id])
	}
	return res
}

// step samples a joint action, accumulates counterfactual regrets for every
// agent of both sides and recomputes the strategies.
func (m *regretMatcher) step() {
	for _, s := range field.Sides() {
		si := s.Index()
		for id := range m.tables[si] {
			m.realized[si][id] = sampleIndex(m.strategy[si][id], m.rng)
		}
	}
	m.countClaims()

	for _, s := range field.Sides() {
		si := s.Index()
		for id := range m.tables[si] {
			a := m.realized[si][id]
			for b := range m.tables[si][id] {
				if b == a {
					continue
				}
				if gain := m.deviationGain(s, id, a, b); gain > 0 {
					m.regrets[si][id][b] += gain
				}
			}
		}
	}

	for _, s := range field.Sides() {
		si := s.Index()
		for id := range m.tables[si] {
			for j, p := range m.strategy[si][id] {
				m.strategySum[si][id][j] += p
			}
			m.strategy[si][id] = regretStrategy(m.regrets[si][id], m.strategy[si][id])
		}
	}
	m.rounds++
}

func (m *regretMatcher) countClaims() {
	m.counts = make(map[field.Point]int)
	m.occupants = make(map[field.Point][]regretAgent)
	for _, s := range field.Sides() {
		si := s.Index()
		for id, j := range m.realized[si] {
			for _, p := range m.claims[si][id][j].tiles() {
				m.counts[p]++
				m.occupants[p] = append(m.occupants[p], regretAgent{s, id})
			}
		}
	}
}

// realizedValue is the value agent (s, id) scores with its realized action,
// as seen by side view: positive for allies of view, negative otherwise.
func (m *regretMatcher) realizedValue(view field.Side, ag regretAgent) float64 {
	v := m.tables[ag.side.Index()][ag.id][m.realized[ag.side.Index()][ag.id]].Value
	if ag.side != view {
		return -v
	}
	return v
}

// deviationGain is how much side s's payoff changes if agent id alone
// switches from candidate a to b. It uses the claim counts instead of
// recomputing the joint payoff: only agents on the tiles the two claims
// touch can change outcome.
func (m *regretMatcher) deviationGain(s field.Side, id, a, b int) float64 {
	if a == b {
		return 0
	}
	si := s.Index()
	self := regretAgent{s, id}
	ca, cb := m.claims[si][id][a], m.claims[si][id][b]
	before := func(p field.Point) int { return m.counts[p] }
	after := func(p field.Point) int {
		n := m.counts[p]
		if ca.touches(p) {
			n--
		}
		if cb.touches(p) {
			n++
		}
		return n
	}

	gain := 0.0
	if ca.wins(before) {
		gain -= m.tables[si][id][a].Value
	}
	if cb.wins(after) {
		gain += m.tables[si][id][b].Value
	}

	var seen []regretAgent
	for _, p := range append(ca.tiles(), cb.tiles()...) {
		for _, o := range m.occupants[p] {
			if o == self || slices.Contains(seen, o) {
				continue
			}
			seen = append(seen, o)
			c := m.claims[o.side.Index()][o.id][m.realized[o.side.Index()][o.id]]
			v := m.realizedValue(s, o)
			if c.wins(before) {
				gain -= v
			}
			if c.wins(after) {
				gain += v
			}
		}
	}
	return gain
}

// regretStrategy returns the regret-proportional distribution, uniform when
// every regret is zero. dst is reused when it has the right length.
func regretStrategy(regrets, dst []float64) []float64 {
	if len(dst) != len(regrets) {
		dst = make([]float64, len(regrets))
	}
	total := 0.0
	for _, r := range regrets {
		total += r
	}
	if total <= 0 {
		u := 1.0 / float64(len(regrets))
		for i := range dst {
			dst[i] = u
		}
		return dst
	}
	for i, r := range regrets {
		dst[i] = r / total
	}
	return dst
}

func normalize(w []float64) []float64 {
	return regretStrategy(w, nil)
}

// sampleIndex draws an index from probs by inverse CDF.
func sampleIndex(probs []float64, rng *rand.Rand) int {
	r := rng.Float64()
	cum := 0.0
	for i, p := range probs {
		cum += p
		if r < cum {
			return i
		}
	}
	return len(probs) - 1
}
