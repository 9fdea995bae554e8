package repository

import (
	"context"
	"encoding/json"

	"github.com/freeeve/territory/internal/model"
)

// Page sizes for MatchRepository.List. A non-positive limit means
// DefaultListLimit; larger ones are capped at MaxListLimit.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// MatchRepository defines match data operations. Lookups of unknown ids
// return nil, nil.
type MatchRepository interface {
	Create(ctx context.Context, m *model.Match) error
	FindByID(ctx context.Context, id string) (*model.Match, error)
	List(ctx context.Context, source string, limit int) ([]model.Match, error)
	SetFinished(ctx context.Context, id string, allyScore, enemyScore int, winner string) error
	Delete(ctx context.Context, id string) error
}

// TurnRepository defines per-turn history operations.
type TurnRepository interface {
	SaveTurn(ctx context.Context, t *model.Turn) error
	ListTurns(ctx context.Context, matchID string) ([]model.Turn, error)
	LatestTurn(ctx context.Context, matchID string) (*model.Turn, error)
}

// FieldCache holds the live board and last submitted acts of running
// matches (Redis). Missing entries read as empty values with a nil error.
type FieldCache interface {
	SetField(ctx context.Context, matchID, tfen string) error
	GetField(ctx context.Context, matchID string) (string, error)
	SetActs(ctx context.Context, matchID, side string, acts json.RawMessage) error
	GetActs(ctx context.Context, matchID, side string) (json.RawMessage, error)
	MarkActive(ctx context.Context, matchID string) error
	ActiveMatches(ctx context.Context) ([]string, error)
	DeleteMatchData(ctx context.Context, matchID string) error
}
