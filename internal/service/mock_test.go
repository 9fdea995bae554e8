package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/freeeve/territory/internal/model"
)

type mockMatchRepo struct {
	matches map[string]*model.Match
}

func newMockMatchRepo() *mockMatchRepo {
	return &mockMatchRepo{matches: make(map[string]*model.Match)}
}

func (m *mockMatchRepo) Create(_ context.Context, match *model.Match) error {
	if match.ID == "" {
		match.ID = fmt.Sprintf("match-%d", len(m.matches)+1)
	}
	if match.Status == "" {
		match.Status = model.StatusActive
	}
	match.CreatedAt = time.Now()
	cp := *match
	m.matches[match.ID] = &cp
	return nil
}

func (m *mockMatchRepo) FindByID(_ context.Context, id string) (*model.Match, error) {
	match, ok := m.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *match
	return &cp, nil
}

func (m *mockMatchRepo) List(_ context.Context, source string, limit int) ([]model.Match, error) {
	var out []model.Match
	for _, match := range m.matches {
		if source == "" || match.Source == source {
			out = append(out, *match)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockMatchRepo) SetFinished(_ context.Context, id string, ally, enemy int, winner string) error {
	match, ok := m.matches[id]
	if !ok {
		return fmt.Errorf("no match %s", id)
	}
	now := time.Now()
	match.Status = model.StatusFinished
	match.AllyScore, match.EnemyScore, match.Winner = ally, enemy, winner
	match.FinishedAt = &now
	return nil
}

func (m *mockMatchRepo) Delete(_ context.Context, id string) error {
	delete(m.matches, id)
	return nil
}

type mockTurnRepo struct {
	turns map[string][]model.Turn
}

func newMockTurnRepo() *mockTurnRepo {
	return &mockTurnRepo{turns: make(map[string][]model.Turn)}
}

func (m *mockTurnRepo) SaveTurn(_ context.Context, t *model.Turn) error {
	t.ID = fmt.Sprintf("%s-turn-%d", t.MatchID, t.Turn)
	t.CreatedAt = time.Now()
	m.turns[t.MatchID] = append(m.turns[t.MatchID], *t)
	return nil
}

func (m *mockTurnRepo) ListTurns(_ context.Context, matchID string) ([]model.Turn, error) {
	return m.turns[matchID], nil
}

func (m *mockTurnRepo) LatestTurn(_ context.Context, matchID string) (*model.Turn, error) {
	ts := m.turns[matchID]
	if len(ts) == 0 {
		return nil, nil
	}
	t := ts[len(ts)-1]
	return &t, nil
}

type mockCache struct {
	fields map[string]string
	acts   map[string]json.RawMessage
	active map[string]bool
}

func newMockCache() *mockCache {
	return &mockCache{
		fields: make(map[string]string),
		acts:   make(map[string]json.RawMessage),
		active: make(map[string]bool),
	}
}

func (c *mockCache) SetField(_ context.Context, matchID, tfen string) error {
	c.fields[matchID] = tfen
	return nil
}

func (c *mockCache) GetField(_ context.Context, matchID string) (string, error) {
	return c.fields[matchID], nil
}

func (c *mockCache) SetActs(_ context.Context, matchID, side string, acts json.RawMessage) error {
	c.acts[matchID+":"+side] = acts
	return nil
}

func (c *mockCache) GetActs(_ context.Context, matchID, side string) (json.RawMessage, error) {
	return c.acts[matchID+":"+side], nil
}

func (c *mockCache) MarkActive(_ context.Context, matchID string) error {
	c.active[matchID] = true
	return nil
}

func (c *mockCache) ActiveMatches(_ context.Context) ([]string, error) {
	var ids []string
	for id := range c.active {
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *mockCache) DeleteMatchData(_ context.Context, matchID string) error {
	delete(c.fields, matchID)
	delete(c.acts, matchID+":ally")
	delete(c.acts, matchID+":enemy")
	delete(c.active, matchID)
	return nil
}

type recordedEvent struct {
	matchID string
	typ     string
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *mockBroadcaster) BroadcastMatchEvent(matchID, eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{matchID, eventType})
}
