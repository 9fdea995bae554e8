package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/territory/internal/model"
	"github.com/freeeve/territory/internal/repository"
	"github.com/freeeve/territory/pkg/field"
)

// ErrMatchNotFound is returned for unknown match ids.
var ErrMatchNotFound = errors.New("match not found")

// MatchService records matches as they are played and serves their history.
// It persists to the repositories, keeps the live board in the cache and
// pushes every change to spectators.
type MatchService struct {
	matches repository.MatchRepository
	turns   repository.TurnRepository
	cache   repository.FieldCache
	bc      Broadcaster
}

// NewMatchService creates a MatchService. A nil broadcaster disables events.
func NewMatchService(matches repository.MatchRepository, turns repository.TurnRepository, cache repository.FieldCache, bc Broadcaster) *MatchService {
	if bc == nil {
		bc = NoopBroadcaster{}
	}
	return &MatchService{matches: matches, turns: turns, cache: cache, bc: bc}
}

// StartMatch stores a new match with its initial board.
func (s *MatchService) StartMatch(ctx context.Context, m *model.Match, f *field.Field) error {
	m.Width, m.Height, m.Agents, m.FinalTurn = f.Width(), f.Height(), f.AgentCount(), f.FinalTurn()
	if err := s.matches.Create(ctx, m); err != nil {
		return err
	}
	tfen := field.EncodeTFEN(f)
	if err := s.cache.SetField(ctx, m.ID, tfen); err != nil {
		return fmt.Errorf("cache field: %w", err)
	}
	if err := s.cache.MarkActive(ctx, m.ID); err != nil {
		return fmt.Errorf("mark active: %w", err)
	}
	s.bc.BroadcastMatchEvent(m.ID, EventMatchStarted, map[string]any{"match": m, "field": tfen})
	log.Info().Str("matchId", m.ID).Str("ally", m.AllySolver).Str("enemy", m.EnemySolver).
		Int("width", m.Width).Int("height", m.Height).Int("agents", m.Agents).Msg("Match started")
	return nil
}

// RecordTurn stores one resolved turn and the board it produced.
func (s *MatchService) RecordTurn(ctx context.Context, matchID string, before *field.Field, acts [2][]field.Act, after *field.Field) error {
	ally, err := json.Marshal(acts[field.Ally.Index()])
	if err != nil {
		return fmt.Errorf("marshal ally acts: %w", err)
	}
	enemy, err := json.Marshal(acts[field.Enemy.Index()])
	if err != nil {
		return fmt.Errorf("marshal enemy acts: %w", err)
	}
	t := &model.Turn{
		MatchID:    matchID,
		Turn:       before.NowTurn(),
		Before:     field.EncodeTFEN(before),
		After:      field.EncodeTFEN(after),
		AllyActs:   ally,
		EnemyActs:  enemy,
		AllyScore:  after.Score(field.Ally).Sum(),
		EnemyScore: after.Score(field.Enemy).Sum(),
	}
	if err := s.turns.SaveTurn(ctx, t); err != nil {
		return err
	}
	if err := s.cache.SetField(ctx, matchID, t.After); err != nil {
		return fmt.Errorf("cache field: %w", err)
	}
	if err := s.cache.SetActs(ctx, matchID, field.Ally.String(), ally); err != nil {
		return fmt.Errorf("cache acts: %w", err)
	}
	if err := s.cache.SetActs(ctx, matchID, field.Enemy.String(), enemy); err != nil {
		return fmt.Errorf("cache acts: %w", err)
	}
	s.bc.BroadcastMatchEvent(matchID, EventTurnResolved, t)
	return nil
}

// FinishMatch records the final scores and drops the live data.
func (s *MatchService) FinishMatch(ctx context.Context, m *model.Match) error {
	if err := s.matches.SetFinished(ctx, m.ID, m.AllyScore, m.EnemyScore, m.Winner); err != nil {
		return err
	}
	m.Status = model.StatusFinished
	if err := s.cache.DeleteMatchData(ctx, m.ID); err != nil {
		log.Warn().Err(err).Str("matchId", m.ID).Msg("Failed to clear live match data")
	}
	s.bc.BroadcastMatchEvent(m.ID, EventMatchEnded, m)
	log.Info().Str("matchId", m.ID).Int("ally", m.AllyScore).Int("enemy", m.EnemyScore).
		Str("winner", m.Winner).Msg("Match finished")
	return nil
}

// GetMatch returns a match by id.
func (s *MatchService) GetMatch(ctx context.Context, id string) (*model.Match, error) {
	m, err := s.matches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// ListMatches returns the newest matches, optionally only from source.
func (s *MatchService) ListMatches(ctx context.Context, source string, limit int) ([]model.Match, error) {
	return s.matches.List(ctx, source, limit)
}

// ListTurns returns the turn history of a match.
func (s *MatchService) ListTurns(ctx context.Context, id string) ([]model.Turn, error) {
	if _, err := s.GetMatch(ctx, id); err != nil {
		return nil, err
	}
	return s.turns.ListTurns(ctx, id)
}

// LiveField returns the current board of a match: the cached live board
// while it runs, otherwise the board after its last recorded turn.
func (s *MatchService) LiveField(ctx context.Context, id string) (*field.Field, error) {
	tfen, err := s.cache.GetField(ctx, id)
	if err != nil {
		return nil, err
	}
	if tfen == "" {
		if _, err := s.GetMatch(ctx, id); err != nil {
			return nil, err
		}
		last, err := s.turns.LatestTurn(ctx, id)
		if err != nil {
			return nil, err
		}
		if last == nil {
			return nil, ErrMatchNotFound
		}
		tfen = last.After
	}
	f, err := field.DecodeTFEN(tfen)
	if err != nil {
		return nil, fmt.Errorf("decode live field %s: %w", id, err)
	}
	return f, nil
}

// ActiveMatches returns the ids of matches still being played.
func (s *MatchService) ActiveMatches(ctx context.Context) ([]string, error) {
	return s.cache.ActiveMatches(ctx)
}

// LastActs returns the most recently resolved acts of a running match,
// keyed by side. Sides with nothing cached are omitted.
func (s *MatchService) LastActs(ctx context.Context, id string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, 2)
	for _, side := range field.Sides() {
		acts, err := s.cache.GetActs(ctx, id, side.String())
		if err != nil {
			return nil, err
		}
		if len(acts) > 0 {
			out[side.String()] = acts
		}
	}
	return out, nil
}

// DeleteMatch removes a match, its turns and any live data.
func (s *MatchService) DeleteMatch(ctx context.Context, id string) error {
	if _, err := s.GetMatch(ctx, id); err != nil {
		return err
	}
	if err := s.cache.DeleteMatchData(ctx, id); err != nil {
		return fmt.Errorf("clear live data: %w", err)
	}
	return s.matches.Delete(ctx, id)
}

// RecoverActiveMatches closes out self-play matches left running by a
// previous process, scoring them from their last live board. Contest
// matches stay active since the player picks them up again. It returns the
// number of matches closed.
func (s *MatchService) RecoverActiveMatches(ctx context.Context) (int, error) {
	ids, err := s.cache.ActiveMatches(ctx)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, id := range ids {
		m, err := s.matches.FindByID(ctx, id)
		if err != nil {
			return closed, err
		}
		if m == nil {
			if err := s.cache.DeleteMatchData(ctx, id); err != nil {
				return closed, fmt.Errorf("drop orphaned live data: %w", err)
			}
			continue
		}
		if m.Source != model.SourceSelfPlay || m.Status == model.StatusFinished {
			continue
		}
		if f, err := s.LiveField(ctx, id); err == nil {
			m.AllyScore, m.EnemyScore = f.Score(field.Ally).Sum(), f.Score(field.Enemy).Sum()
		}
		m.Winner = model.WinnerAbandoned
		if err := s.FinishMatch(ctx, m); err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}
