package field

import "golang.org/x/exp/rand"

// GenerateOptions pins parts of a random board. Zero values are randomized.
type GenerateOptions struct {
	Width      int
	Height     int
	AgentCount int
	FinalTurn  int
}

// Generate builds a random neutral board: 12-24 tiles per side, 6-14 agents
// per team, roughly a quarter of tiles negative in [-16,-1] and the rest in
// [0,16]. All agents start unplaced.
func Generate(rng *rand.Rand, opts GenerateOptions) *Field {
	w := opts.Width
	if w == 0 {
		w = 12 + rng.Intn(13)
	}
	h := opts.Height
	if h == 0 {
		h = 12 + rng.Intn(13)
	}
	agents := opts.AgentCount
	if agents == 0 {
		agents = 6 + rng.Intn(9)
	}
	final := opts.FinalTurn
	if final == 0 {
		final = DefaultFinalTurn
	}
	f := New(w, h, agents, final)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if rng.Float64() < 0.25 {
				f.tiles[x][y].Point = int8(-16 + rng.Intn(16))
			} else {
				f.tiles[x][y].Point = int8(rng.Intn(17))
			}
		}
	}
	return f
}
