// Package field models the shared tile grid: ownership, point values,
// agent positions, region control and scoring, plus turn execution.
package field

import "fmt"

// DefaultFinalTurn is the turn count used when none is given.
const DefaultFinalTurn = 50

type agentSlot struct {
	pos    Point
	placed bool
}

// Field is the full board state for one match at one turn.
// Tiles are indexed [x][y].
type Field struct {
	nowTurn   int
	finalTurn int
	tiles     [][]Tile
	agents    [2][]agentSlot
	scores    [2]Score
}

// New creates an all-neutral board with zero points and unplaced agents.
func New(width, height, agentCount, finalTurn int) *Field {
	if width <= 0 || height <= 0 || width > 127 || height > 127 {
		panic(fmt.Sprintf("field: invalid size %dx%d", width, height))
	}
	f := &Field{finalTurn: finalTurn, tiles: make([][]Tile, width)}
	for x := range f.tiles {
		f.tiles[x] = make([]Tile, height)
	}
	for i := range f.agents {
		f.agents[i] = make([]agentSlot, agentCount)
	}
	return f
}

// FromPoints builds a board from a points matrix indexed [x][y]. All rows
// must share one length.
func FromPoints(points [][]int8, agentCount, finalTurn int) (*Field, error) {
	if len(points) == 0 || len(points[0]) == 0 {
		return nil, fmt.Errorf("field: empty points matrix")
	}
	h := len(points[0])
	for x, col := range points {
		if len(col) != h {
			return nil, fmt.Errorf("field: column %d has %d rows, want %d", x, len(col), h)
		}
	}
	f := New(len(points), h, agentCount, finalTurn)
	for x := range points {
		for y, p := range points[x] {
			f.tiles[x][y].Point = p
		}
	}
	return f, nil
}

func (f *Field) Width() int      { return len(f.tiles) }
func (f *Field) Height() int     { return len(f.tiles[0]) }
func (f *Field) AgentCount() int { return len(f.agents[0]) }
func (f *Field) NowTurn() int    { return f.nowTurn }
func (f *Field) FinalTurn() int  { return f.finalTurn }

// Finished reports whether the last turn has been played.
func (f *Field) Finished() bool { return f.nowTurn >= f.finalTurn }

// Score returns the side's last computed score.
func (f *Field) Score(s Side) Score { return f.scores[s.Index()] }

// Inside reports whether p lies on the board.
func (f *Field) Inside(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && int(p.X) < f.Width() && int(p.Y) < f.Height()
}

// Tile returns the tile at p. p must be inside.
func (f *Field) Tile(p Point) Tile { return f.tiles[p.X][p.Y] }

// SetState overwrites the ownership state at p.
func (f *Field) SetState(p Point, s State) { f.tiles[p.X][p.Y].State = s }

// SetPoint overwrites the point value at p.
func (f *Field) SetPoint(p Point, v int8) { f.tiles[p.X][p.Y].Point = v }

// Agent returns the agent's position and whether it has been placed.
func (f *Field) Agent(s Side, id int) (Point, bool) {
	a := f.agents[s.Index()][id]
	return a.pos, a.placed
}

// SetAgent places the agent at p, or removes it from the board when placed is false.
func (f *Field) SetAgent(s Side, id int, p Point, placed bool) {
	f.agents[s.Index()][id] = agentSlot{pos: p, placed: placed}
}

// AgentAt returns the side and id of the agent standing on p, if any.
func (f *Field) AgentAt(p Point) (Side, int, bool) {
	for _, s := range Sides() {
		for id, a := range f.agents[s.Index()] {
			if a.placed && a.pos == p {
				return s, id, true
			}
		}
	}
	return Ally, 0, false
}

// Occupied returns the set of tiles holding any agent of either side.
func (f *Field) Occupied() map[Point]bool {
	occ := make(map[Point]bool, 2*f.AgentCount())
	for _, s := range Sides() {
		for _, a := range f.agents[s.Index()] {
			if a.placed {
				occ[a.pos] = true
			}
		}
	}
	return occ
}

// SetTurn sets the current and final turn numbers.
func (f *Field) SetTurn(now, final int) {
	f.nowTurn = now
	f.finalTurn = final
}

// UpdateTurn advances the turn counter. Advancing past the final turn is a
// programming error.
func (f *Field) UpdateTurn() {
	if f.nowTurn >= f.finalTurn {
		panic("field: turn advanced past final turn")
	}
	f.nowTurn++
}

// UpdateScore recomputes both sides' tile and region points.
func (f *Field) UpdateScore() {
	var scores [2]Score
	for x := range f.tiles {
		for _, t := range f.tiles[x] {
			switch t.State.Kind {
			case Wall:
				scores[t.State.Side.Index()].Tile += int(t.Point)
			case Position:
				scores[t.State.Side.Index()].Region += int(abs8(t.Point))
			}
		}
	}
	f.scores = scores
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := &Field{
		nowTurn:   f.nowTurn,
		finalTurn: f.finalTurn,
		tiles:     make([][]Tile, len(f.tiles)),
		scores:    f.scores,
	}
	for x := range f.tiles {
		c.tiles[x] = append([]Tile(nil), f.tiles[x]...)
	}
	for i := range f.agents {
		c.agents[i] = append([]agentSlot(nil), f.agents[i]...)
	}
	return c
}

// CloneInto copies f into dst, reusing dst's tile storage when the sizes match.
func (f *Field) CloneInto(dst *Field) {
	if len(dst.tiles) != len(f.tiles) || len(dst.tiles) == 0 || len(dst.tiles[0]) != len(f.tiles[0]) {
		*dst = *f.Clone()
		return
	}
	dst.nowTurn, dst.finalTurn, dst.scores = f.nowTurn, f.finalTurn, f.scores
	for x := range f.tiles {
		copy(dst.tiles[x], f.tiles[x])
	}
	for i := range f.agents {
		dst.agents[i] = append(dst.agents[i][:0], f.agents[i]...)
	}
}
