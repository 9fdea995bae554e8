package contest

import (
	"errors"
	"fmt"

	"github.com/freeeve/territory/pkg/field"
)

// ErrParse is wrapped by every error converting server payloads.
var ErrParse = errors.New("contest: malformed payload")

// MatchList is the body of GET /matches.
type MatchList struct {
	Matches []MatchInfo `json:"matches"`
}

// MatchInfo describes one match the team takes part in.
type MatchInfo struct {
	MatchID           int        `json:"matchID"`
	Turns             int        `json:"turns"`
	OperationMillis   int        `json:"operationMillis"`
	TransitionMillis  int        `json:"transitionMillis"`
	IntervalMillis    int        `json:"intervalMillis"`
	Teams             []TeamInfo `json:"teams"`
	MatchTo           string     `json:"matchTo,omitempty"`
	StartedAtUnixTime int64      `json:"startedAtUnixTime,omitempty"`
}

// TeamInfo lists a team's agents. Agent coordinates are 1-based; 0 means
// the agent has not been placed yet.
type TeamInfo struct {
	TeamID    int         `json:"teamID"`
	Agents    []AgentInfo `json:"agents"`
	WallPoint int         `json:"wallPoint,omitempty"`
	AreaPoint int         `json:"areaPoint,omitempty"`
}

// AgentInfo is one agent's id and position.
type AgentInfo struct {
	AgentID int `json:"agentID"`
	X       int `json:"x"`
	Y       int `json:"y"`
}

// MatchState is the body of GET /matches/{id}. Points and Walls are
// row-major ([y][x]); Walls holds the owning team id or 0.
type MatchState struct {
	Width             int        `json:"width"`
	Height            int        `json:"height"`
	Points            [][]int    `json:"points"`
	Walls             [][]int    `json:"walls"`
	Turn              int        `json:"turn"`
	StartedAtUnixTime int64      `json:"startedAtUnixTime,omitempty"`
	Teams             []TeamInfo `json:"teams"`
}

// ActionRequest is the body of POST /matches/{id}/action.
type ActionRequest struct {
	Actions []AgentAction `json:"actions"`
}

// AgentAction is one agent's submitted action with a 1-based target.
type AgentAction struct {
	AgentID int    `json:"agentID"`
	Type    string `json:"type"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

// Board is a parsed match state from one team's point of view: Ally is
// Teams[0], Enemy is Teams[1].
type Board struct {
	Field *field.Field
	Teams [2]TeamInfo
}

// Board converts the state into a field oriented so that team is the Ally
// side. finalTurn comes from the match listing.
func (s *MatchState) Board(team, finalTurn int) (*Board, error) {
	if len(s.Teams) != 2 {
		return nil, fmt.Errorf("%w: %d teams", ErrParse, len(s.Teams))
	}
	teams := [2]TeamInfo{s.Teams[0], s.Teams[1]}
	switch team {
	case teams[0].TeamID:
	case teams[1].TeamID:
		teams[0], teams[1] = teams[1], teams[0]
	default:
		return nil, fmt.Errorf("%w: team %d not in match", ErrParse, team)
	}
	if len(teams[0].Agents) != len(teams[1].Agents) {
		return nil, fmt.Errorf("%w: agent counts differ (%d vs %d)", ErrParse, len(teams[0].Agents), len(teams[1].Agents))
	}
	if s.Width <= 0 || s.Height <= 0 || s.Width > 127 || s.Height > 127 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrParse, s.Width, s.Height)
	}

	points, err := transpose(s.Points, s.Width, s.Height, "points")
	if err != nil {
		return nil, err
	}
	walls, err := transpose(s.Walls, s.Width, s.Height, "walls")
	if err != nil {
		return nil, err
	}

	pts := make([][]int8, s.Width)
	for x := range pts {
		pts[x] = make([]int8, s.Height)
		for y, v := range points[x] {
			if v < -128 || v > 127 {
				return nil, fmt.Errorf("%w: point %d at (%d,%d)", ErrParse, v, x, y)
			}
			pts[x][y] = int8(v)
		}
	}
	f, err := field.FromPoints(pts, len(teams[0].Agents), finalTurn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if s.Turn < 0 || s.Turn > finalTurn {
		return nil, fmt.Errorf("%w: turn %d of %d", ErrParse, s.Turn, finalTurn)
	}
	f.SetTurn(s.Turn, finalTurn)

	for x := range walls {
		for y, owner := range walls[x] {
			switch owner {
			case 0:
			case teams[0].TeamID:
				f.SetState(field.Pt(x, y), field.WallOf(field.Ally))
			case teams[1].TeamID:
				f.SetState(field.Pt(x, y), field.WallOf(field.Enemy))
			default:
				return nil, fmt.Errorf("%w: wall owner %d at (%d,%d)", ErrParse, owner, x, y)
			}
		}
	}

	for i, side := range field.Sides() {
		for id, a := range teams[i].Agents {
			if a.X == 0 && a.Y == 0 {
				continue
			}
			p := field.Pt(a.X-1, a.Y-1)
			if !f.Inside(p) {
				return nil, fmt.Errorf("%w: %s agent %d at (%d,%d)", ErrParse, side, a.AgentID, a.X, a.Y)
			}
			if _, _, taken := f.AgentAt(p); taken {
				return nil, fmt.Errorf("%w: agent %d shares (%d,%d) with another agent", ErrParse, a.AgentID, a.X, a.Y)
			}
			f.SetAgent(side, id, p, true)
		}
	}
	f.UpdateRegion()
	f.UpdateScore()
	return &Board{Field: f, Teams: teams}, nil
}

func transpose(rows [][]int, w, h int, what string) ([][]int, error) {
	if len(rows) != h {
		return nil, fmt.Errorf("%w: %s has %d rows, want %d", ErrParse, what, len(rows), h)
	}
	out := make([][]int, w)
	for x := range out {
		out[x] = make([]int, h)
	}
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: %s row %d has %d values, want %d", ErrParse, what, y, len(row), w)
		}
		for x, v := range row {
			out[x][y] = v
		}
	}
	return out, nil
}

// Actions converts the ally side's acts into the submission payload.
func (b *Board) Actions(acts []field.Act) []AgentAction {
	out := make([]AgentAction, 0, len(acts))
	for id, a := range acts {
		aa := AgentAction{AgentID: b.Teams[0].Agents[id].AgentID, Type: a.Kind.String()}
		target, ok := a.Dest()
		if !ok {
			target, ok = b.Field.Agent(field.Ally, id)
		}
		if ok {
			aa.X, aa.Y = int(target.X)+1, int(target.Y)+1
		}
		out = append(out, aa)
	}
	return out
}
