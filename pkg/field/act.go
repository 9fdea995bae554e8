package field

import (
	"encoding/json"
	"fmt"
)

// ActKind is the type of action an agent takes in a turn.
type ActKind uint8

const (
	Stay ActKind = iota
	Place
	Move
	Remove
)

var actKindNames = [...]string{"stay", "put", "move", "remove"}

func (k ActKind) String() string {
	if int(k) < len(actKindNames) {
		return actKindNames[k]
	}
	return fmt.Sprintf("ActKind(%d)", k)
}

// ParseActKind converts a name produced by ActKind.String back to a kind.
func ParseActKind(s string) (ActKind, error) {
	for i, n := range actKindNames {
		if n == s {
			return ActKind(i), nil
		}
	}
	return Stay, fmt.Errorf("unknown act kind %q", s)
}

// Act is one agent's action. Target is unused for Stay. Act is comparable
// and usable as a map key.
type Act struct {
	Kind   ActKind
	Target Point
}

// StayAct is the do-nothing action.
var StayAct = Act{Kind: Stay}

func PlaceAct(p Point) Act  { return Act{Kind: Place, Target: p} }
func MoveAct(p Point) Act   { return Act{Kind: Move, Target: p} }
func RemoveAct(p Point) Act { return Act{Kind: Remove, Target: p} }

// Dest returns the tile the action claims and whether it has one.
func (a Act) Dest() (Point, bool) {
	if a.Kind == Stay {
		return Point{}, false
	}
	return a.Target, true
}

func (a Act) String() string {
	if a.Kind == Stay {
		return "stay"
	}
	return fmt.Sprintf("%s(%d,%d)", a.Kind, a.Target.X, a.Target.Y)
}

type actJSON struct {
	Type string `json:"type"`
	X    int8   `json:"x"`
	Y    int8   `json:"y"`
}

func (a Act) MarshalJSON() ([]byte, error) {
	return json.Marshal(actJSON{Type: a.Kind.String(), X: a.Target.X, Y: a.Target.Y})
}

func (a *Act) UnmarshalJSON(data []byte) error {
	var raw actJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := ParseActKind(raw.Type)
	if err != nil {
		return err
	}
	*a = Act{Kind: kind}
	if kind != Stay {
		a.Target = Point{X: raw.X, Y: raw.Y}
	}
	return nil
}
