package contest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/freeeve/territory/pkg/field"
)

const stateJSON = `{
  "width": 3, "height": 2, "turn": 4,
  "points": [[1, 2, 3], [-4, 5, 6]],
  "walls":  [[7, 0, 9], [0, 0, 0]],
  "teams": [
    {"teamID": 7, "agents": [{"agentID": 11, "x": 1, "y": 1}, {"agentID": 12, "x": 0, "y": 0}]},
    {"teamID": 9, "agents": [{"agentID": 21, "x": 3, "y": 1}, {"agentID": 22, "x": 2, "y": 2}]}
  ]
}`

func decodeState(t *testing.T) *MatchState {
	t.Helper()
	var st MatchState
	if err := json.Unmarshal([]byte(stateJSON), &st); err != nil {
		t.Fatal(err)
	}
	return &st
}

func TestBoard_OrientsToTeam(t *testing.T) {
	st := decodeState(t)

	b, err := st.Board(9, 30)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	f := b.Field
	if f.Width() != 3 || f.Height() != 2 || f.NowTurn() != 4 || f.FinalTurn() != 30 {
		t.Fatalf("got %dx%d turn %d/%d", f.Width(), f.Height(), f.NowTurn(), f.FinalTurn())
	}
	if got := f.Tile(field.Pt(0, 1)).Point; got != -4 {
		t.Errorf("point (0,1) = %d, want -4", got)
	}
	if !f.Tile(field.Pt(2, 0)).State.IsWallOf(field.Ally) {
		t.Errorf("team 9 wall should be an ally wall")
	}
	if !f.Tile(field.Pt(0, 0)).State.IsWallOf(field.Enemy) {
		t.Errorf("team 7 wall should be an enemy wall")
	}
	if p, ok := f.Agent(field.Ally, 0); !ok || p != field.Pt(2, 0) {
		t.Errorf("ally agent 0 = %v placed=%v, want (2,0)", p, ok)
	}
	if _, ok := f.Agent(field.Enemy, 1); ok {
		t.Errorf("enemy agent 1 should be unplaced")
	}
	if b.Teams[0].TeamID != 9 {
		t.Errorf("ally team = %d, want 9", b.Teams[0].TeamID)
	}
}

func TestBoard_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MatchState)
		team   int
	}{
		{"unknown team", func(*MatchState) {}, 5},
		{"one team", func(s *MatchState) { s.Teams = s.Teams[:1] }, 7},
		{"short row", func(s *MatchState) { s.Points[1] = []int{1} }, 7},
		{"bad wall owner", func(s *MatchState) { s.Walls[1][1] = 3 }, 7},
		{"agent off board", func(s *MatchState) { s.Teams[0].Agents[0].X = 9 }, 7},
		{"agent counts", func(s *MatchState) { s.Teams[1].Agents = s.Teams[1].Agents[:1] }, 7},
		{"turn past end", func(s *MatchState) { s.Turn = 31 }, 7},
		{"agents share a tile", func(s *MatchState) {
			s.Teams[1].Agents[0].X, s.Teams[1].Agents[0].Y = 1, 1
		}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := decodeState(t)
			tt.mutate(st)
			if _, err := st.Board(tt.team, 30); !errors.Is(err, ErrParse) {
				t.Fatalf("err = %v, want ErrParse", err)
			}
		})
	}
}

func TestBoard_Actions(t *testing.T) {
	b, err := decodeState(t).Board(7, 30)
	if err != nil {
		t.Fatal(err)
	}
	got := b.Actions([]field.Act{field.MoveAct(field.Pt(1, 1)), field.StayAct})
	want := []AgentAction{
		{AgentID: 11, Type: "move", X: 2, Y: 2},
		{AgentID: 12, Type: "stay"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d actions", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestClient_RoundTrip(t *testing.T) {
	var submitted ActionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-token") != "secret" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/matches":
			w.Write([]byte(`{"matches":[{"matchID":3,"turns":30,"teams":[{"teamID":7},{"teamID":9}]}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/matches/3":
			w.Write([]byte(stateJSON))
		case r.Method == http.MethodPost && r.URL.Path == "/matches/3/action":
			json.NewDecoder(r.Body).Decode(&submitted)
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL+"/", "secret", 0)

	matches, err := c.Matches(ctx)
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(matches) != 1 || matches[0].MatchID != 3 || matches[0].Turns != 30 {
		t.Fatalf("matches = %+v", matches)
	}

	st, err := c.Match(ctx, 3)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if st.Turn != 4 {
		t.Errorf("turn = %d, want 4", st.Turn)
	}

	if err := c.SubmitActions(ctx, 3, []AgentAction{{AgentID: 11, Type: "stay"}}); err != nil {
		t.Fatalf("SubmitActions: %v", err)
	}
	if len(submitted.Actions) != 1 || submitted.Actions[0].AgentID != 11 {
		t.Errorf("server got %+v", submitted)
	}

	if _, err := c.Match(ctx, 4); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("missing match err = %v, want ErrMatchNotFound", err)
	}

	bad := NewClient(srv.URL, "wrong", 0)
	_, err = bad.Matches(ctx)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Errorf("bad token err = %v, want 401 StatusError", err)
	}
}
