package field

// Legal reports whether act is a well-formed action for the agent under the
// board's rules, ignoring interaction with other agents' actions.
func Legal(f *Field, side Side, id int, act Act) bool {
	pos, placed := f.Agent(side, id)
	if act.Kind == Stay {
		return true
	}
	if !f.Inside(act.Target) {
		return false
	}
	tile := f.Tile(act.Target)
	switch act.Kind {
	case Place:
		if placed || tile.State.IsWallOf(side.Other()) {
			return false
		}
		_, _, taken := f.AgentAt(act.Target)
		return !taken
	case Move:
		return placed && pos != act.Target && pos.Neighbor(act.Target) && !tile.State.IsWallOf(side.Other())
	case Remove:
		return placed && pos != act.Target && pos.Neighbor(act.Target) && tile.State.IsWall()
	}
	return false
}

type actor struct {
	side Side
	id   int
}

// Resolve executes one simultaneous turn and returns the resulting board. f is
// not modified. Illegal actions and actions whose destination is claimed by
// more than one agent are downgraded to Stay; a Stay claims the agent's own
// tile, so downgrades can cascade. A Remove contends for its target and holds
// the remover's own tile like a Stay; it fails while an agent stands on the
// target.
func Resolve(f *Field, acts [2][]Act) *Field {
	next := f.Clone()
	final := make(map[actor]Act, 2*f.AgentCount())
	for _, s := range Sides() {
		for id := 0; id < f.AgentCount(); id++ {
			a := StayAct
			if id < len(acts[s.Index()]) {
				a = acts[s.Index()][id]
			}
			if !Legal(f, s, id, a) {
				a = StayAct
			}
			final[actor{s, id}] = a
		}
	}

	for changed := true; changed; {
		changed = false
		claims := make(map[Point]int, len(final))
		for k, a := range final {
			for _, p := range claimsOf(f, k, a) {
				claims[p]++
			}
		}
		for k, a := range final {
			if a.Kind == Stay {
				continue
			}
			if claims[a.Target] > 1 {
				final[k] = StayAct
				changed = true
			}
		}
	}

	for k, a := range final {
		if a.Kind != Remove {
			continue
		}
		if _, _, occupied := f.AgentAt(a.Target); occupied {
			final[k] = StayAct
		}
	}

	for _, s := range Sides() {
		for id := 0; id < f.AgentCount(); id++ {
			a := final[actor{s, id}]
			switch a.Kind {
			case Remove:
				next.SetState(a.Target, NeutralState)
			case Move, Place:
				next.SetAgent(s, id, a.Target, true)
				next.SetState(a.Target, WallOf(s))
			}
		}
	}
	next.UpdateRegion()
	next.UpdateScore()
	if !next.Finished() {
		next.UpdateTurn()
	}
	return next
}

// claimsOf lists the tiles an action occupies during the turn.
func claimsOf(f *Field, k actor, a Act) []Point {
	pos, placed := f.Agent(k.side, k.id)
	switch a.Kind {
	case Stay:
		if placed {
			return []Point{pos}
		}
		return nil
	case Remove:
		return []Point{a.Target, pos}
	}
	return []Point{a.Target}
}
