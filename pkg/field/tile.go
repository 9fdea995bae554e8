package field

import "fmt"

// StateKind distinguishes the three tile ownership states.
type StateKind uint8

const (
	Neutral  StateKind = iota
	Position           // enclosed region controlled by a side
	Wall               // tile claimed by a side
)

// State is a tile's ownership. Side is meaningful only for Position and Wall.
type State struct {
	Kind StateKind
	Side Side
}

// NeutralState is the unowned state.
var NeutralState = State{Kind: Neutral}

// WallOf returns the wall state for side s.
func WallOf(s Side) State { return State{Kind: Wall, Side: s} }

// PositionOf returns the region-controlled state for side s.
func PositionOf(s Side) State { return State{Kind: Position, Side: s} }

// IsWall reports whether the state is a wall of either side.
func (s State) IsWall() bool { return s.Kind == Wall }

// IsWallOf reports whether the state is a wall of side.
func (s State) IsWallOf(side Side) bool { return s.Kind == Wall && s.Side == side }

// IsPositionOf reports whether the state is region-controlled by side.
func (s State) IsPositionOf(side Side) bool { return s.Kind == Position && s.Side == side }

func (s State) String() string {
	switch s.Kind {
	case Position:
		return fmt.Sprintf("position(%s)", s.Side)
	case Wall:
		return fmt.Sprintf("wall(%s)", s.Side)
	default:
		return "neutral"
	}
}

// Tile is a snapshot of one board cell.
type Tile struct {
	State State
	Point int8
}

// Score is a side's tile and region points.
type Score struct {
	Tile   int `json:"tile"`
	Region int `json:"region"`
}

// Sum returns tile plus region points.
func (s Score) Sum() int { return s.Tile + s.Region }
