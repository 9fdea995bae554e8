package solver

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/freeeve/territory/pkg/field"
)

// contested has one ally and one enemy agent next to the same rich tile.
const contested = "3x3:0:10/1,2,1;3,9,3;1,2,1/...;...;.../0.0,2.2/0.2,-"

// walled puts every agent next to enemy walls so Remove candidates appear.
const walled = "3x3:0:10/1,2,1;3,9,3;1,2,1/AE.;EEA;E.A/0.0,2.2/0.2,1.1"

// jointPayoff recomputes side s's payoff for the realized joint action from
// scratch: own successful values minus enemy successful values.
func (m *regretMatcher) jointPayoff(s field.Side) float64 {
	count := func(p field.Point) int { return m.counts[p] }
	total := 0.0
	for _, t := range field.Sides() {
		ti := t.Index()
		for id, j := range m.realized[ti] {
			if m.claims[ti][id][j].wins(count) {
				total += m.realizedValue(s, regretAgent{t, id})
			}
		}
	}
	return total
}

func contestedTables(t *testing.T) (*field.Field, [2][][]Candidate) {
	t.Helper()
	return tablesFor(t, contested)
}

func tablesFor(t *testing.T, tfen string) (*field.Field, [2][][]Candidate) {
	t.Helper()
	f := field.MustDecodeTFEN(tfen)
	ev := &GreedySelect{Params: DefaultParams()}
	var tables [2][][]Candidate
	for _, s := range field.Sides() {
		tables[s.Index()] = EvalTable(f, s, ev, -17)
	}
	return f, tables
}

func TestRegret_UniformBeforeAnyRegret(t *testing.T) {
	f, tables := contestedTables(t)
	m := newRegretMatcher(f, tables, rand.New(rand.NewSource(1)))
	for _, s := range field.Sides() {
		for id, probs := range m.strategy[s.Index()] {
			for _, p := range probs {
				require.InDelta(t, 1.0/float64(len(tables[s.Index()][id])), p, 1e-12)
			}
		}
	}
}

func TestRegret_NonNegativeAndMonotone(t *testing.T) {
	f, tables := contestedTables(t)
	m := newRegretMatcher(f, tables, rand.New(rand.NewSource(3)))

	prev := snapshotRegrets(m)
	for round := 0; round < 60; round++ {
		m.step()
		cur := snapshotRegrets(m)
		for si := range cur {
			for id := range cur[si] {
				for j, r := range cur[si][id] {
					require.GreaterOrEqual(t, r, 0.0)
					require.GreaterOrEqual(t, r, prev[si][id][j], "round %d side %d agent %d action %d", round, si, id, j)
				}
				sum := 0.0
				for _, p := range m.strategy[si][id] {
					sum += p
				}
				require.InDelta(t, 1.0, sum, 1e-9)
			}
		}
		prev = cur
	}
}

func snapshotRegrets(m *regretMatcher) [2][][]float64 {
	var out [2][][]float64
	for si := range m.regrets {
		out[si] = make([][]float64, len(m.regrets[si]))
		for id, r := range m.regrets[si] {
			out[si][id] = append([]float64(nil), r...)
		}
	}
	return out
}

// TestRegret_DeviationGainMatchesRecompute compares the incremental
// deviation gain with a full payoff recomputation for every unilateral
// deviation of sampled joint actions.
func TestRegret_DeviationGainMatchesRecompute(t *testing.T) {
	for _, board := range []string{contested, walled} {
		checkDeviationGains(t, board)
	}
}

func checkDeviationGains(t *testing.T, board string) {
	t.Helper()
	f, tables := tablesFor(t, board)
	rng := rand.New(rand.NewSource(11))
	m := newRegretMatcher(f, tables, rng)

	for round := 0; round < 40; round++ {
		for _, s := range field.Sides() {
			for id := range m.tables[s.Index()] {
				m.realized[s.Index()][id] = rng.Intn(len(m.tables[s.Index()][id]))
			}
		}
		m.countClaims()

		for _, s := range field.Sides() {
			si := s.Index()
			for id := range m.tables[si] {
				a := m.realized[si][id]
				before := m.jointPayoff(s)
				for b := range m.tables[si][id] {
					want := m.deviationGain(s, id, a, b)

					m.realized[si][id] = b
					m.countClaims()
					got := m.jointPayoff(s) - before
					m.realized[si][id] = a
					m.countClaims()

					require.InDelta(t, got, want, 1e-9, "%s round %d side %s agent %d %d->%d", board, round, s, id, a, b)
				}
			}
		}
	}
}

func TestRegret_RemoveHoldsRemoverTile(t *testing.T) {
	f := field.MustDecodeTFEN("3x1:0:10/1,1,1/AAE/1.0,0.0/-,-")
	remove := claimOf(f, field.Ally, 0, field.RemoveAct(field.Pt(2, 0)))
	require.Equal(t, []field.Point{field.Pt(2, 0), field.Pt(1, 0)}, remove.tiles())

	tables := [2][][]Candidate{
		{
			{{Act: field.RemoveAct(field.Pt(2, 0)), Value: 5}},
			{{Act: field.StayAct}, {Act: field.MoveAct(field.Pt(1, 0)), Value: 1}},
		},
		{{{Act: field.StayAct}}, {{Act: field.StayAct}}},
	}
	m := newRegretMatcher(f, tables, rand.New(rand.NewSource(1)))
	m.realized[0][1] = 1
	m.countClaims()

	// The mover collides with the remover's tile, the remove itself succeeds.
	require.Equal(t, 5.0, m.jointPayoff(field.Ally))
	require.InDelta(t, 0, m.deviationGain(field.Ally, 1, 1, 0), 1e-12)
}

func TestRefineRegret_AverageIsDistribution(t *testing.T) {
	f, tables := contestedTables(t)
	res := RefineRegret(f, field.Ally, tables, 50, rand.New(rand.NewSource(5)))

	require.Equal(t, 50, res.Iterations)
	require.Len(t, res.Average, len(tables[field.Ally.Index()]))
	for id, probs := range res.Average {
		require.Len(t, probs, len(tables[field.Ally.Index()][id]))
		sum := 0.0
		for _, p := range probs {
			require.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		require.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestRegretStrategy(t *testing.T) {
	require.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, regretStrategy([]float64{0, 0, 0, 0}, nil))
	require.Equal(t, []float64{0.75, 0, 0.25}, regretStrategy([]float64{3, 0, 1}, nil))
}

func TestSampleIndex_FollowsDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	probs := []float64{0.1, 0, 0.9}
	counts := make([]int, len(probs))
	for range 5000 {
		counts[sampleIndex(probs, rng)]++
	}
	require.Zero(t, counts[1])
	require.InDelta(t, 0.9, float64(counts[2])/5000, 0.03)
}
