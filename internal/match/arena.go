// Package match plays full games: solver-vs-solver self-play on generated
// boards, and a team's live loop against the contest server.
package match

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/freeeve/territory/internal/model"
	"github.com/freeeve/territory/internal/solver"
	"github.com/freeeve/territory/pkg/field"
)

// Recorder receives a match as it is played. MatchService implements it;
// pass nil to play without recording.
type Recorder interface {
	StartMatch(ctx context.Context, m *model.Match, f *field.Field) error
	RecordTurn(ctx context.Context, matchID string, before *field.Field, acts [2][]field.Act, after *field.Field) error
	FinishMatch(ctx context.Context, m *model.Match) error
}

// ArenaConfig configures a single solver-vs-solver game.
type ArenaConfig struct {
	Name        string
	AllySolver  string
	EnemySolver string
	Params      solver.Params
	Board       field.GenerateOptions
	Seed        uint64 // 0 = time-based
}

// ArenaResult describes the outcome of a completed arena game.
type ArenaResult struct {
	MatchID string         `json:"match_id,omitempty"`
	Seed    uint64         `json:"seed"`
	Turns   int            `json:"turns"`
	Scores  [2]field.Score `json:"scores"`
	Winner  string         `json:"winner"` // ally, enemy or draw
}

// Diff is the ally's total score minus the enemy's.
func (r *ArenaResult) Diff() int {
	return r.Scores[field.Ally.Index()].Sum() - r.Scores[field.Enemy.Index()].Sum()
}

func winnerOf(f *field.Field) string {
	a, e := f.Score(field.Ally).Sum(), f.Score(field.Enemy).Sum()
	switch {
	case a > e:
		return "ally"
	case e > a:
		return "enemy"
	}
	return "draw"
}

// RunGame plays one game to its final turn.
func RunGame(ctx context.Context, cfg ArenaConfig, rec Recorder) (*ArenaResult, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	f := field.Generate(rand.New(rand.NewSource(seed)), cfg.Board)

	var solvers [2]solver.Solver
	for i, name := range [2]string{cfg.AllySolver, cfg.EnemySolver} {
		s, err := solver.ForName(name, cfg.Params, rand.New(rand.NewSource(seed+uint64(i)+1)))
		if err != nil {
			return nil, fmt.Errorf("%s solver: %w", field.Sides()[i], err)
		}
		solvers[i] = s
	}

	m := &model.Match{
		Name:        cfg.Name,
		Source:      model.SourceSelfPlay,
		Seed:        int64(seed),
		AllySolver:  solvers[0].Name(),
		EnemySolver: solvers[1].Name(),
	}
	if rec != nil {
		if err := rec.StartMatch(ctx, m, f); err != nil {
			return nil, fmt.Errorf("start match: %w", err)
		}
	}

	result := &ArenaResult{MatchID: m.ID, Seed: seed}
	for !f.Finished() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var acts [2][]field.Act
		for _, s := range field.Sides() {
			acts[s.Index()] = solvers[s.Index()].Solve(f, s)
		}
		next := field.Resolve(f, acts)
		if rec != nil {
			if err := rec.RecordTurn(ctx, m.ID, f, acts, next); err != nil {
				return nil, fmt.Errorf("record turn %d: %w", f.NowTurn(), err)
			}
		}
		f = next
		result.Turns++
	}

	for _, s := range field.Sides() {
		result.Scores[s.Index()] = f.Score(s)
	}
	result.Winner = winnerOf(f)
	m.AllyScore, m.EnemyScore, m.Winner = f.Score(field.Ally).Sum(), f.Score(field.Enemy).Sum(), result.Winner
	if rec != nil {
		if err := rec.FinishMatch(ctx, m); err != nil {
			return nil, fmt.Errorf("finish match: %w", err)
		}
	}
	return result, nil
}

// SeriesResult aggregates a batch of arena games.
type SeriesResult struct {
	Games   []ArenaResult `json:"games"`
	DiffSum int           `json:"diff_sum"`
	Wins    [2]int        `json:"wins"`
	Draws   int           `json:"draws"`
}

// RunSeries plays games games with up to workers in parallel. Game i uses
// seed cfg.Seed+i*16 so a series is reproducible when cfg.Seed is set.
func RunSeries(ctx context.Context, cfg ArenaConfig, games, workers int, rec Recorder) (*SeriesResult, error) {
	if workers < 1 {
		workers = 1
	}
	base := cfg.Seed
	if base == 0 {
		base = uint64(time.Now().UnixNano())
	}

	results := make([]ArenaResult, games)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range games {
		gc := cfg
		gc.Seed = base + uint64(i)*16
		gc.Name = fmt.Sprintf("%s-%d", cfg.Name, i+1)
		g.Go(func() error {
			res, err := RunGame(ctx, gc, rec)
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			results[i] = *res
			log.Info().Int("game", i+1).Str("matchId", res.MatchID).
				Int("ally", res.Scores[0].Sum()).Int("enemy", res.Scores[1].Sum()).
				Str("winner", res.Winner).Msg("Arena game finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &SeriesResult{Games: results}
	for i := range results {
		out.DiffSum += results[i].Diff()
		switch results[i].Winner {
		case "ally":
			out.Wins[field.Ally.Index()]++
		case "enemy":
			out.Wins[field.Enemy.Index()]++
		default:
			out.Draws++
		}
	}
	return out, nil
}
