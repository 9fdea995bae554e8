package match

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/territory/internal/contest"
	"github.com/freeeve/territory/internal/model"
	"github.com/freeeve/territory/internal/solver"
	"github.com/freeeve/territory/pkg/field"
)

// ContestAPI is the part of contest.Client the player needs.
type ContestAPI interface {
	Matches(ctx context.Context) ([]contest.MatchInfo, error)
	Match(ctx context.Context, id int) (*contest.MatchState, error)
	SubmitActions(ctx context.Context, id int, actions []contest.AgentAction) error
}

// Player polls the contest server and answers every new turn of every
// match its team is in.
type Player struct {
	api      ContestAPI
	team     int
	solver   solver.Solver
	interval time.Duration
	rec      Recorder

	lastTurn map[int]int
	recorded map[int]*recordedMatch
}

type recordedMatch struct {
	m    *model.Match
	prev *field.Field
	acts []field.Act
}

// NewPlayer creates a player for team. rec may be nil.
func NewPlayer(api ContestAPI, team int, s solver.Solver, interval time.Duration, rec Recorder) *Player {
	return &Player{
		api:      api,
		team:     team,
		solver:   s,
		interval: interval,
		rec:      rec,
		lastTurn: make(map[int]int),
		recorded: make(map[int]*recordedMatch),
	}
}

// Run ticks until ctx is cancelled. Failures are logged and the loop goes on.
func (p *Player) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if err := p.Tick(ctx); err != nil {
			log.Error().Err(err).Msg("Contest tick failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick handles one poll: for every listed match whose turn advanced since
// the last submission, solve and submit. A failure in one match is logged
// and does not stop the others.
func (p *Player) Tick(ctx context.Context) error {
	matches, err := p.api.Matches(ctx)
	if err != nil {
		return err
	}
	for _, mi := range matches {
		if err := p.playMatch(ctx, mi); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.Warn().Err(err).Int("match", mi.MatchID).Msg("Skipping turn")
		}
	}
	return nil
}

func (p *Player) playMatch(ctx context.Context, mi contest.MatchInfo) error {
	st, err := p.api.Match(ctx, mi.MatchID)
	if err != nil {
		return err
	}
	if last, ok := p.lastTurn[mi.MatchID]; ok && last == st.Turn {
		return nil
	}
	board, err := st.Board(p.team, mi.Turns)
	if err != nil {
		return err
	}
	p.record(ctx, mi, board.Field)
	if board.Field.Finished() {
		p.lastTurn[mi.MatchID] = st.Turn
		p.finish(ctx, mi.MatchID, board.Field)
		return nil
	}

	start := time.Now()
	acts := p.solver.Solve(board.Field, field.Ally)
	if err := p.api.SubmitActions(ctx, mi.MatchID, board.Actions(acts)); err != nil {
		return err
	}
	p.lastTurn[mi.MatchID] = st.Turn
	if r := p.recorded[mi.MatchID]; r != nil {
		r.acts = acts
	}
	log.Info().Int("match", mi.MatchID).Int("turn", st.Turn).Dur("took", time.Since(start)).
		Int("ally", board.Field.Score(field.Ally).Sum()).Int("enemy", board.Field.Score(field.Enemy).Sum()).
		Msg("Submitted actions")
	return nil
}

// record mirrors a contest match into the recorder. The server does not
// reveal enemy acts, so recorded turns carry only our own.
func (p *Player) record(ctx context.Context, mi contest.MatchInfo, f *field.Field) {
	if p.rec == nil {
		return
	}
	r := p.recorded[mi.MatchID]
	if r == nil {
		m := &model.Match{
			Name:        "contest-" + strconv.Itoa(mi.MatchID),
			Source:      model.SourceContest,
			AllySolver:  p.solver.Name(),
			EnemySolver: "opponent-" + strconv.Itoa(opponent(mi, p.team)),
		}
		if err := p.rec.StartMatch(ctx, m, f); err != nil {
			log.Warn().Err(err).Int("match", mi.MatchID).Msg("Failed to record match start")
			return
		}
		p.recorded[mi.MatchID] = &recordedMatch{m: m, prev: f}
		return
	}
	if r.prev != nil && f.NowTurn() > r.prev.NowTurn() {
		acts := [2][]field.Act{r.acts, nil}
		if err := p.rec.RecordTurn(ctx, r.m.ID, r.prev, acts, f); err != nil {
			log.Warn().Err(err).Int("match", mi.MatchID).Msg("Failed to record turn")
		}
		r.prev, r.acts = f, nil
	}
}

func (p *Player) finish(ctx context.Context, matchID int, f *field.Field) {
	r := p.recorded[matchID]
	if p.rec == nil || r == nil || r.m.Status == model.StatusFinished {
		return
	}
	r.m.AllyScore, r.m.EnemyScore, r.m.Winner = f.Score(field.Ally).Sum(), f.Score(field.Enemy).Sum(), winnerOf(f)
	if err := p.rec.FinishMatch(ctx, r.m); err != nil {
		log.Warn().Err(err).Int("match", matchID).Msg("Failed to record match end")
		return
	}
	r.m.Status = model.StatusFinished
}

func opponent(mi contest.MatchInfo, team int) int {
	for _, t := range mi.Teams {
		if t.TeamID != team {
			return t.TeamID
		}
	}
	return 0
}
