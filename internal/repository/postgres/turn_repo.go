package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/freeeve/territory/internal/model"
)

// TurnRepo handles per-turn history.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

func rawOrEmpty(m json.RawMessage) json.RawMessage {
	if len(m) == 0 {
		return json.RawMessage("[]")
	}
	return m
}

// SaveTurn inserts t and fills in its id and creation time.
func (r *TurnRepo) SaveTurn(ctx context.Context, t *model.Turn) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO turns (match_id, turn, before, after, ally_acts, enemy_acts, ally_score, enemy_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		t.MatchID, t.Turn, t.Before, t.After, []byte(rawOrEmpty(t.AllyActs)), []byte(rawOrEmpty(t.EnemyActs)), t.AllyScore, t.EnemyScore,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

const turnColumns = `id, match_id, turn, before, after, ally_acts, enemy_acts, ally_score, enemy_score, created_at`

func scanTurn(row interface{ Scan(...any) error }) (*model.Turn, error) {
	var t model.Turn
	var ally, enemy []byte
	if err := row.Scan(&t.ID, &t.MatchID, &t.Turn, &t.Before, &t.After, &ally, &enemy, &t.AllyScore, &t.EnemyScore, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.AllyActs = json.RawMessage(ally)
	t.EnemyActs = json.RawMessage(enemy)
	return &t, nil
}

// ListTurns returns a match's turns in order.
func (r *TurnRepo) ListTurns(ctx context.Context, matchID string) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+turnColumns+` FROM turns WHERE match_id = $1 ORDER BY turn`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, *t)
	}
	return turns, rows.Err()
}

// LatestTurn returns the last recorded turn, or nil when there is none.
func (r *TurnRepo) LatestTurn(ctx context.Context, matchID string) (*model.Turn, error) {
	t, err := scanTurn(r.db.QueryRowContext(ctx,
		`SELECT `+turnColumns+` FROM turns WHERE match_id = $1 ORDER BY turn DESC LIMIT 1`, matchID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest turn: %w", err)
	}
	return t, nil
}
