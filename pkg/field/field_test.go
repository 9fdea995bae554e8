package field

import (
	"errors"
	"testing"

	"golang.org/x/exp/rand"
)

const threeByThree = "3x3:0:10/1,2,3;4,5,6;7,8,9/...;...;.../0.0/2.2"

func TestUpdateRegion_EnclosedTile(t *testing.T) {
	f := MustDecodeTFEN("3x3:0:10/1,2,3;4,-5,6;7,8,9/.A.;A.A;.A./-/-")
	f.UpdateRegion()
	f.UpdateScore()

	if got := f.Tile(Pt(1, 1)).State; got != PositionOf(Ally) {
		t.Fatalf("center state = %s, want position(ally)", got)
	}
	for _, p := range []Point{Pt(0, 0), Pt(2, 0), Pt(0, 2), Pt(2, 2)} {
		if got := f.Tile(p).State; got != NeutralState {
			t.Errorf("corner %v state = %s, want neutral", p, got)
		}
	}
	s := f.Score(Ally)
	if s.Tile != 2+4+6+8 {
		t.Errorf("tile score = %d, want 20", s.Tile)
	}
	if s.Region != 5 {
		t.Errorf("region score = %d, want 5 (absolute value of -5)", s.Region)
	}
	if f.Score(Enemy).Sum() != 0 {
		t.Errorf("enemy score = %+v, want zero", f.Score(Enemy))
	}
}

func TestUpdateRegion_SmallerEnclosureWins(t *testing.T) {
	// The enemy ring is closed around (1,1); the ally has nothing closed.
	f := MustDecodeTFEN("4x3:0:10/1,1,1,1;1,1,1,1;1,1,1,1/.E..;E.E.;.E../-/-")
	f.UpdateRegion()
	if got := f.Tile(Pt(1, 1)).State; got != PositionOf(Enemy) {
		t.Fatalf("center = %s, want position(enemy)", got)
	}
	if got := f.Tile(Pt(3, 1)).State; got != NeutralState {
		t.Fatalf("open tile = %s, want neutral", got)
	}
}

func TestResolve_SingleMove(t *testing.T) {
	f := MustDecodeTFEN(threeByThree)
	next := Resolve(f, [2][]Act{{MoveAct(Pt(1, 1))}, {StayAct}})

	if p, ok := next.Agent(Ally, 0); !ok || p != Pt(1, 1) {
		t.Fatalf("ally agent at %v placed=%v, want (1,1)", p, ok)
	}
	if !next.Tile(Pt(1, 1)).State.IsWallOf(Ally) {
		t.Errorf("destination should become an ally wall")
	}
	if next.Score(Ally).Tile != 5 {
		t.Errorf("ally tile score = %d, want 5", next.Score(Ally).Tile)
	}
	if next.NowTurn() != 1 {
		t.Errorf("turn = %d, want 1", next.NowTurn())
	}
	if p, _ := f.Agent(Ally, 0); p != Pt(0, 0) {
		t.Errorf("Resolve must not modify its input")
	}
}

func TestResolve_CollisionBothStay(t *testing.T) {
	f := MustDecodeTFEN(threeByThree)
	next := Resolve(f, [2][]Act{{MoveAct(Pt(1, 1))}, {MoveAct(Pt(1, 1))}})

	if p, _ := next.Agent(Ally, 0); p != Pt(0, 0) {
		t.Errorf("ally moved to %v despite collision", p)
	}
	if p, _ := next.Agent(Enemy, 0); p != Pt(2, 2) {
		t.Errorf("enemy moved to %v despite collision", p)
	}
	if next.Tile(Pt(1, 1)).State != NeutralState {
		t.Errorf("contested tile changed state to %s", next.Tile(Pt(1, 1)).State)
	}
}

func TestResolve_RemoverHoldsItsTile(t *testing.T) {
	f := MustDecodeTFEN("3x1:0:10/1,1,1/AAE/1.0,0.0/-,-")
	next := Resolve(f, [2][]Act{{RemoveAct(Pt(2, 0)), MoveAct(Pt(1, 0))}, nil})

	if p, _ := next.Agent(Ally, 0); p != Pt(1, 0) {
		t.Errorf("remover at %v, want (1,0)", p)
	}
	if p, _ := next.Agent(Ally, 1); p != Pt(0, 0) {
		t.Errorf("mover at %v, want (0,0): the remover's tile is taken", p)
	}
	if got := next.Tile(Pt(2, 0)).State; got != NeutralState {
		t.Errorf("removed wall is %s, want neutral", got)
	}
}

func TestResolve_CascadingFailure(t *testing.T) {
	f := MustDecodeTFEN("3x3:0:10/1,1,1;1,1,1;1,1,1/...;...;.../0.0,2.2,1.0/-,-,-")
	acts := [2][]Act{{MoveAct(Pt(1, 1)), MoveAct(Pt(1, 1)), MoveAct(Pt(0, 0))}, nil}
	next := Resolve(f, acts)

	for id, want := range []Point{Pt(0, 0), Pt(2, 2), Pt(1, 0)} {
		if p, _ := next.Agent(Ally, id); p != want {
			t.Errorf("agent %d at %v, want %v", id, p, want)
		}
	}
}

func TestResolve_RemoveAndIllegalMove(t *testing.T) {
	f := MustDecodeTFEN("3x3:0:10/1,2,3;4,5,6;7,8,9/.E.;...;.../0.0,2.0/-,-")
	acts := [2][]Act{{RemoveAct(Pt(1, 0)), MoveAct(Pt(1, 0))}, nil}
	next := Resolve(f, acts)

	// The move onto an enemy wall is illegal and downgraded, so the remove is uncontested.
	if next.Tile(Pt(1, 0)).State != NeutralState {
		t.Fatalf("wall not removed: %s", next.Tile(Pt(1, 0)).State)
	}
	if p, _ := next.Agent(Ally, 1); p != Pt(2, 0) {
		t.Errorf("agent 1 moved onto an enemy wall")
	}
}

func TestResolve_RemoveBlockedByAgent(t *testing.T) {
	f := MustDecodeTFEN("3x3:0:10/1,2,3;4,5,6;7,8,9/.E.;...;.../0.0/1.0")
	next := Resolve(f, [2][]Act{{RemoveAct(Pt(1, 0))}, {StayAct}})
	if !next.Tile(Pt(1, 0)).State.IsWallOf(Enemy) {
		t.Fatalf("wall under an agent was removed")
	}
}

func TestResolve_Place(t *testing.T) {
	f := MustDecodeTFEN("2x2:0:10/3,4;5,6/..;../-/-")
	next := Resolve(f, [2][]Act{{PlaceAct(Pt(1, 1))}, {PlaceAct(Pt(0, 0))}})
	if p, ok := next.Agent(Ally, 0); !ok || p != Pt(1, 1) {
		t.Errorf("ally not placed: %v %v", p, ok)
	}
	if next.Score(Enemy).Tile != 3 || next.Score(Ally).Tile != 6 {
		t.Errorf("scores = %+v / %+v", next.Score(Ally), next.Score(Enemy))
	}
}

func TestUpdateTurn_PanicsAtFinal(t *testing.T) {
	f := New(2, 2, 1, 1)
	f.UpdateTurn()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic advancing past final turn")
		}
	}()
	f.UpdateTurn()
}

func TestTFEN_RoundTrip(t *testing.T) {
	f := Generate(rand.New(rand.NewSource(7)), GenerateOptions{Width: 13, Height: 17, AgentCount: 6})
	f.SetAgent(Ally, 2, Pt(4, 5), true)
	f.SetState(Pt(4, 5), WallOf(Ally))
	f.SetState(Pt(7, 9), WallOf(Enemy))
	f.UpdateScore()

	s := EncodeTFEN(f)
	g, err := DecodeTFEN(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if EncodeTFEN(g) != s {
		t.Fatalf("round trip mismatch:\n%s\n%s", s, EncodeTFEN(g))
	}
	if g.Score(Ally) != f.Score(Ally) {
		t.Errorf("score mismatch %+v vs %+v", g.Score(Ally), f.Score(Ally))
	}
}

func TestDecodeTFEN_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"sections", "2x2:0:10/1,2;3,4"},
		{"header", "2y2:0:10/1,2;3,4/..;../-/-"},
		{"row count", "2x2:0:10/1,2/..;../-/-"},
		{"point", "2x2:0:10/1,x;3,4/..;../-/-"},
		{"state", "2x2:0:10/1,2;3,4/.Q;../-/-"},
		{"agent counts", "2x2:0:10/1,2;3,4/..;../-,-/-"},
		{"agent off board", "2x2:0:10/1,2;3,4/..;../5.5/-"},
		{"agents share a tile", "1x1:0:10/3/./0.0,0.0/-,-"},
		{"agents of both sides share a tile", "2x1:0:10/1,2/../0.0/0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTFEN(tt.in)
			if !errors.Is(err, ErrTFEN) {
				t.Fatalf("err = %v, want ErrTFEN", err)
			}
		})
	}
}

func TestGenerate_Ranges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5; i++ {
		f := Generate(rng, GenerateOptions{})
		if f.Width() < 12 || f.Width() > 24 || f.Height() < 12 || f.Height() > 24 {
			t.Fatalf("size %dx%d out of range", f.Width(), f.Height())
		}
		if f.AgentCount() < 6 || f.AgentCount() > 14 {
			t.Fatalf("agent count %d out of range", f.AgentCount())
		}
		for x := 0; x < f.Width(); x++ {
			for y := 0; y < f.Height(); y++ {
				if p := f.Tile(Pt(x, y)).Point; p < -16 || p > 16 {
					t.Fatalf("point %d out of range", p)
				}
			}
		}
	}
}

func TestParseSide(t *testing.T) {
	for _, s := range Sides() {
		got, err := ParseSide(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSide(%q) = %v, %v", s.String(), got, err)
		}
	}
	if got, err := ParseSide(""); err != nil || got != Ally {
		t.Errorf("empty side = %v, %v; want ally", got, err)
	}
	if _, err := ParseSide("both"); err == nil {
		t.Error("expected error for unknown side")
	}
}
