package service

import (
	"context"
	"errors"
	"testing"

	"github.com/freeeve/territory/internal/model"
	"github.com/freeeve/territory/pkg/field"
)

const startTFEN = "3x1:0:2/1,4,2/.../0.0/2.0"

func newTestService() (*MatchService, *mockCache, *mockBroadcaster) {
	cache := newMockCache()
	bc := &mockBroadcaster{}
	return NewMatchService(newMockMatchRepo(), newMockTurnRepo(), cache, bc), cache, bc
}

func TestMatchLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, cache, bc := newTestService()

	f := field.MustDecodeTFEN(startTFEN)
	m := &model.Match{Name: "t", Source: model.SourceSelfPlay, AllySolver: "greedy", EnemySolver: "dp"}
	if err := svc.StartMatch(ctx, m, f); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	if m.ID == "" || m.Width != 3 || m.FinalTurn != 2 {
		t.Fatalf("unexpected match %+v", m)
	}
	if !cache.active[m.ID] || cache.fields[m.ID] != field.EncodeTFEN(f) {
		t.Fatalf("live board not cached")
	}

	acts := [2][]field.Act{{field.MoveAct(field.Pt(1, 0))}, {field.StayAct}}
	next := field.Resolve(f, acts)
	if err := svc.RecordTurn(ctx, m.ID, f, acts, next); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}

	live, err := svc.LiveField(ctx, m.ID)
	if err != nil {
		t.Fatalf("LiveField: %v", err)
	}
	if live.NowTurn() != 1 || live.Score(field.Ally).Tile != 4 {
		t.Fatalf("live field turn %d score %+v", live.NowTurn(), live.Score(field.Ally))
	}
	if string(cache.acts[m.ID+":ally"]) != `[{"type":"move","x":1,"y":0}]` {
		t.Errorf("cached ally acts = %s", cache.acts[m.ID+":ally"])
	}

	m.AllyScore, m.EnemyScore, m.Winner = 4, 2, "ally"
	if err := svc.FinishMatch(ctx, m); err != nil {
		t.Fatalf("FinishMatch: %v", err)
	}
	if cache.active[m.ID] || cache.fields[m.ID] != "" {
		t.Errorf("live data should be cleared")
	}

	// With the cache cleared the board comes from the turn history.
	live, err = svc.LiveField(ctx, m.ID)
	if err != nil {
		t.Fatalf("LiveField after finish: %v", err)
	}
	if live.NowTurn() != 1 {
		t.Errorf("history field turn = %d, want 1", live.NowTurn())
	}

	got, err := svc.GetMatch(ctx, m.ID)
	if err != nil || got.Status != model.StatusFinished || got.Winner != "ally" {
		t.Fatalf("GetMatch = %+v, %v", got, err)
	}
	turns, err := svc.ListTurns(ctx, m.ID)
	if err != nil || len(turns) != 1 || turns[0].AllyScore != 4 {
		t.Fatalf("ListTurns = %+v, %v", turns, err)
	}

	want := []string{EventMatchStarted, EventTurnResolved, EventMatchEnded}
	if len(bc.events) != len(want) {
		t.Fatalf("events = %+v", bc.events)
	}
	for i, ev := range bc.events {
		if ev.typ != want[i] || ev.matchID != m.ID {
			t.Errorf("event %d = %+v, want %s", i, ev, want[i])
		}
	}
}

func TestMatchNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	if _, err := svc.GetMatch(ctx, "nope"); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("GetMatch err = %v", err)
	}
	if _, err := svc.ListTurns(ctx, "nope"); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("ListTurns err = %v", err)
	}
	if _, err := svc.LiveField(ctx, "nope"); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("LiveField err = %v", err)
	}
}

func TestListMatchesFiltersSource(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	f := field.MustDecodeTFEN(startTFEN)
	for _, src := range []string{model.SourceSelfPlay, model.SourceContest, model.SourceSelfPlay} {
		if err := svc.StartMatch(ctx, &model.Match{Source: src}, f); err != nil {
			t.Fatal(err)
		}
	}
	all, _ := svc.ListMatches(ctx, "", 10)
	self, _ := svc.ListMatches(ctx, model.SourceSelfPlay, 10)
	if len(all) != 3 || len(self) != 2 {
		t.Fatalf("all=%d selfplay=%d", len(all), len(self))
	}
}

func TestActiveMatchesAndLastActs(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	f := field.MustDecodeTFEN(startTFEN)
	m := &model.Match{Source: model.SourceSelfPlay}
	if err := svc.StartMatch(ctx, m, f); err != nil {
		t.Fatal(err)
	}

	ids, err := svc.ActiveMatches(ctx)
	if err != nil || len(ids) != 1 || ids[0] != m.ID {
		t.Fatalf("ActiveMatches = %v, %v", ids, err)
	}

	acts, err := svc.LastActs(ctx, m.ID)
	if err != nil || len(acts) != 0 {
		t.Fatalf("LastActs before any turn = %v, %v", acts, err)
	}

	turn := [2][]field.Act{{field.StayAct}, {field.MoveAct(field.Pt(1, 0))}}
	if err := svc.RecordTurn(ctx, m.ID, f, turn, field.Resolve(f, turn)); err != nil {
		t.Fatal(err)
	}
	acts, err = svc.LastActs(ctx, m.ID)
	if err != nil || len(acts) != 2 {
		t.Fatalf("LastActs = %v, %v", acts, err)
	}
	if string(acts["enemy"]) != `[{"type":"move","x":1,"y":0}]` {
		t.Errorf("enemy acts = %s", acts["enemy"])
	}
}

func TestDeleteMatch(t *testing.T) {
	ctx := context.Background()
	svc, cache, _ := newTestService()
	m := &model.Match{Source: model.SourceSelfPlay}
	if err := svc.StartMatch(ctx, m, field.MustDecodeTFEN(startTFEN)); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteMatch(ctx, m.ID); err != nil {
		t.Fatalf("DeleteMatch: %v", err)
	}
	if _, err := svc.GetMatch(ctx, m.ID); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("match still present: %v", err)
	}
	if cache.active[m.ID] {
		t.Error("match still marked active")
	}
	if err := svc.DeleteMatch(ctx, m.ID); !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestRecoverActiveMatches(t *testing.T) {
	ctx := context.Background()
	svc, cache, _ := newTestService()
	f := field.MustDecodeTFEN(startTFEN)

	self := &model.Match{Source: model.SourceSelfPlay}
	contest := &model.Match{Source: model.SourceContest}
	for _, m := range []*model.Match{self, contest} {
		if err := svc.StartMatch(ctx, m, f); err != nil {
			t.Fatal(err)
		}
	}
	turn := [2][]field.Act{{field.MoveAct(field.Pt(1, 0))}, {field.StayAct}}
	if err := svc.RecordTurn(ctx, self.ID, f, turn, field.Resolve(f, turn)); err != nil {
		t.Fatal(err)
	}
	cache.active["ghost"] = true

	closed, err := svc.RecoverActiveMatches(ctx)
	if err != nil || closed != 1 {
		t.Fatalf("RecoverActiveMatches = %d, %v", closed, err)
	}
	got, _ := svc.GetMatch(ctx, self.ID)
	if got.Status != model.StatusFinished || got.Winner != model.WinnerAbandoned || got.AllyScore != 4 {
		t.Errorf("self-play match = %+v", got)
	}
	got, _ = svc.GetMatch(ctx, contest.ID)
	if got.Status != model.StatusActive || !cache.active[contest.ID] {
		t.Errorf("contest match should stay active: %+v", got)
	}
	if cache.active["ghost"] {
		t.Error("orphaned live data should be dropped")
	}
}
