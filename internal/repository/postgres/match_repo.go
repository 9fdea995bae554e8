package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/freeeve/territory/internal/model"
	"github.com/freeeve/territory/internal/repository"
)

// MatchRepo handles match database operations.
type MatchRepo struct {
	db *sql.DB
}

// NewMatchRepo creates a MatchRepo.
func NewMatchRepo(db *sql.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

const matchColumns = `id, name, source, status, seed, width, height, agents, final_turn,
	ally_solver, enemy_solver, ally_score, enemy_score, winner, created_at, finished_at`

func scanMatch(row interface{ Scan(...any) error }) (*model.Match, error) {
	var m model.Match
	var winner sql.NullString
	err := row.Scan(&m.ID, &m.Name, &m.Source, &m.Status, &m.Seed, &m.Width, &m.Height, &m.Agents, &m.FinalTurn,
		&m.AllySolver, &m.EnemySolver, &m.AllyScore, &m.EnemyScore, &winner, &m.CreatedAt, &m.FinishedAt)
	if err != nil {
		return nil, err
	}
	m.Winner = winner.String
	return &m, nil
}

// Create inserts m, assigning a new id when m.ID is empty.
func (r *MatchRepo) Create(ctx context.Context, m *model.Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = model.StatusActive
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO matches (id, name, source, status, seed, width, height, agents, final_turn, ally_solver, enemy_solver)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at`,
		m.ID, m.Name, m.Source, m.Status, m.Seed, m.Width, m.Height, m.Agents, m.FinalTurn, m.AllySolver, m.EnemySolver,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// FindByID returns a match, or nil when it does not exist.
func (r *MatchRepo) FindByID(ctx context.Context, id string) (*model.Match, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	m, err := scanMatch(r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find match: %w", err)
	}
	return m, nil
}

// List returns the newest matches, optionally filtered by source.
func (r *MatchRepo) List(ctx context.Context, source string, limit int) ([]model.Match, error) {
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}
	limit = min(limit, repository.MaxListLimit)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches
		 WHERE $1 = '' OR source = $1
		 ORDER BY created_at DESC LIMIT $2`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// SetFinished records the final scores and winner.
func (r *MatchRepo) SetFinished(ctx context.Context, id string, allyScore, enemyScore int, winner string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = 'finished', ally_score = $2, enemy_score = $3, winner = $4, finished_at = now()
		 WHERE id = $1`, id, allyScore, enemyScore, winner)
	if err != nil {
		return fmt.Errorf("set match finished: %w", err)
	}
	return nil
}

// Delete removes a match and its turns.
func (r *MatchRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	return nil
}
