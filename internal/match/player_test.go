package match

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/freeeve/territory/internal/contest"
	"github.com/freeeve/territory/internal/solver"
)

type fakeAPI struct {
	state     contest.MatchState
	listErr   error
	matchErr  error
	submitted [][]contest.AgentAction
}

func (f *fakeAPI) Matches(context.Context) ([]contest.MatchInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []contest.MatchInfo{{MatchID: 1, Turns: 3, Teams: []contest.TeamInfo{{TeamID: 7}, {TeamID: 9}}}}, nil
}

func (f *fakeAPI) Match(context.Context, int) (*contest.MatchState, error) {
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	st := f.state
	return &st, nil
}

func (f *fakeAPI) SubmitActions(_ context.Context, _ int, actions []contest.AgentAction) error {
	f.submitted = append(f.submitted, actions)
	return nil
}

const playerState = `{
  "width": 3, "height": 1, "turn": 0,
  "points": [[2, 9, 1]],
  "walls":  [[0, 0, 0]],
  "teams": [
    {"teamID": 7, "agents": [{"agentID": 70, "x": 1, "y": 1}]},
    {"teamID": 9, "agents": [{"agentID": 90, "x": 0, "y": 0}]}
  ]
}`

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	if err := json.Unmarshal([]byte(playerState), &api.state); err != nil {
		t.Fatal(err)
	}
	return api
}

func TestPlayerSubmitsOncePerTurn(t *testing.T) {
	api := newFakeAPI(t)
	rec := &memRecorder{}
	p := NewPlayer(api, 7, &solver.GreedySelect{Params: solver.DefaultParams()}, 0, rec)
	ctx := context.Background()

	if err := p.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(api.submitted) != 1 {
		t.Fatalf("submitted %d times, want 1", len(api.submitted))
	}
	got := api.submitted[0][0]
	if got.AgentID != 70 || got.Type != "move" || got.X != 2 || got.Y != 1 {
		t.Errorf("action = %+v, want move to (2,1)", got)
	}

	// Same turn again: nothing new is sent.
	p.Tick(ctx)
	if len(api.submitted) != 1 {
		t.Fatalf("resubmitted on an unchanged turn")
	}

	api.state.Turn = 1
	api.state.Walls = [][]int{{0, 7, 0}}
	api.state.Teams[0].Agents[0].X = 2
	p.Tick(ctx)
	if len(api.submitted) != 2 {
		t.Fatalf("submitted %d times, want 2", len(api.submitted))
	}
	if rec.started != 1 || rec.turns["m1"] != 1 {
		t.Errorf("recorded started=%d turns=%v", rec.started, rec.turns)
	}

	api.state.Turn = 3
	p.Tick(ctx)
	if len(api.submitted) != 2 {
		t.Errorf("submitted after the final turn")
	}
	if len(rec.finished) != 1 {
		t.Errorf("finished %d, want 1", len(rec.finished))
	}
}

func TestPlayerSurvivesMatchErrors(t *testing.T) {
	api := newFakeAPI(t)
	api.matchErr = errors.New("boom")
	p := NewPlayer(api, 7, &solver.GreedySelect{Params: solver.DefaultParams()}, 0, nil)

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("a failing match should not fail the tick: %v", err)
	}

	api.matchErr = nil
	api.state.Teams[0].TeamID = 8
	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("a parse error should not fail the tick: %v", err)
	}
	if len(api.submitted) != 0 {
		t.Errorf("submitted despite errors")
	}

	api.listErr = errors.New("down")
	if err := p.Tick(context.Background()); err == nil {
		t.Errorf("listing failure should be returned")
	}
}
