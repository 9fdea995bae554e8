package solver

import "github.com/freeeve/territory/pkg/field"

// Candidates lists the actions agent id of side may consider this turn, in a
// fixed order. Stay is always first. A placed agent gets a Move to each
// in-bounds neighbour plus a Remove for neighbouring enemy walls. An unplaced
// agent gets a Place on every free tile that is not its own wall and whose
// point is at least border.
func Candidates(f *field.Field, side field.Side, id int, border int) []field.Act {
	acts := []field.Act{field.StayAct}
	if pos, placed := f.Agent(side, id); placed {
		for _, d := range field.Directions8 {
			nb := pos.Add(d)
			if !f.Inside(nb) {
				continue
			}
			acts = append(acts, field.MoveAct(nb))
			if f.Tile(nb).State.IsWallOf(side.Other()) {
				acts = append(acts, field.RemoveAct(nb))
			}
		}
		return acts
	}

	occupied := f.Occupied()
	for x := 0; x < f.Width(); x++ {
		for y := 0; y < f.Height(); y++ {
			p := field.Pt(x, y)
			tile := f.Tile(p)
			if occupied[p] || tile.State.IsWallOf(side) || int(tile.Point) < border {
				continue
			}
			acts = append(acts, field.PlaceAct(p))
		}
	}
	return acts
}

// Neighbors returns the in-bounds king-move neighbours of p in fixed order.
func Neighbors(f *field.Field, p field.Point) []field.Point {
	out := make([]field.Point, 0, 8)
	for _, d := range field.Directions8 {
		if nb := p.Add(d); f.Inside(nb) {
			out = append(out, nb)
		}
	}
	return out
}
