package model

import (
	"encoding/json"
	"time"
)

// Match sources.
const (
	SourceSelfPlay = "selfplay"
	SourceContest  = "contest"
)

// WinnerAbandoned marks a self-play match cut short by a restart.
const WinnerAbandoned = "abandoned"

// Match statuses.
const (
	StatusActive   = "active"
	StatusFinished = "finished"
)

// Match is one played or in-progress game between two solvers.
type Match struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Source      string     `json:"source"` // selfplay, contest
	Status      string     `json:"status"` // active, finished
	Seed        int64      `json:"seed,omitempty"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Agents      int        `json:"agents"`
	FinalTurn   int        `json:"final_turn"`
	AllySolver  string     `json:"ally_solver"`
	EnemySolver string     `json:"enemy_solver"`
	AllyScore   int        `json:"ally_score"`
	EnemyScore  int        `json:"enemy_score"`
	Winner      string     `json:"winner,omitempty"` // ally, enemy, draw, abandoned
	CreatedAt   time.Time  `json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Turn is one resolved turn of a match. Before and After are TFEN strings.
type Turn struct {
	ID         string          `json:"id"`
	MatchID    string          `json:"match_id"`
	Turn       int             `json:"turn"`
	Before     string          `json:"before"`
	After      string          `json:"after"`
	AllyActs   json.RawMessage `json:"ally_acts"`
	EnemyActs  json.RawMessage `json:"enemy_acts"`
	AllyScore  int             `json:"ally_score"`
	EnemyScore int             `json:"enemy_score"`
	CreatedAt  time.Time       `json:"created_at"`
}
