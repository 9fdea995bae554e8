package handler

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/territory/internal/auth"
	"github.com/freeeve/territory/internal/match"
	"github.com/freeeve/territory/internal/solver"
	"github.com/freeeve/territory/pkg/field"
)

// SelfPlayHandler starts solver-vs-solver series in the background. Games
// are recorded and broadcast like any other match.
type SelfPlayHandler struct {
	ctx    context.Context
	rec    match.Recorder
	params solver.Params
	wg     sync.WaitGroup
}

// NewSelfPlayHandler creates a SelfPlayHandler. Series stop when ctx is
// cancelled.
func NewSelfPlayHandler(ctx context.Context, rec match.Recorder, params solver.Params) *SelfPlayHandler {
	return &SelfPlayHandler{ctx: ctx, rec: rec, params: params}
}

type selfPlayRequest struct {
	Name    string `json:"name"`
	Ally    string `json:"ally" validate:"required"`
	Enemy   string `json:"enemy" validate:"required"`
	Games   int    `json:"games" validate:"min=1,max=100"`
	Workers int    `json:"workers" validate:"omitempty,min=1,max=16"`
	Seed    uint64 `json:"seed"`
	Width   int    `json:"width" validate:"omitempty,min=2,max=64"`
	Height  int    `json:"height" validate:"omitempty,min=2,max=64"`
	Agents  int    `json:"agents" validate:"omitempty,min=1,max=32"`
	Turns   int    `json:"turns" validate:"omitempty,min=1,max=200"`
}

// Start handles POST /api/v1/selfplay
func (h *SelfPlayHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req selfPlayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	names := solver.Names()
	for _, n := range []string{req.Ally, req.Enemy} {
		if !slices.Contains(names, n) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown solver %q", n))
			return
		}
	}
	if req.Seed == 0 {
		req.Seed = uint64(time.Now().UnixNano())
	}
	if req.Name == "" {
		req.Name = fmt.Sprintf("%s-vs-%s", req.Ally, req.Enemy)
	}
	if req.Workers == 0 {
		req.Workers = 1
	}

	cfg := match.ArenaConfig{
		Name:        req.Name,
		AllySolver:  req.Ally,
		EnemySolver: req.Enemy,
		Params:      h.params,
		Board: field.GenerateOptions{
			Width:      req.Width,
			Height:     req.Height,
			AgentCount: req.Agents,
			FinalTurn:  req.Turns,
		},
		Seed: req.Seed,
	}
	operator := auth.OperatorFromContext(r.Context())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		res, err := match.RunSeries(h.ctx, cfg, req.Games, req.Workers, h.rec)
		if err != nil {
			log.Error().Err(err).Str("series", cfg.Name).Msg("Self-play series failed")
			return
		}
		log.Info().Str("series", cfg.Name).Str("operator", operator).
			Int("games", len(res.Games)).Int("diffSum", res.DiffSum).
			Int("allyWins", res.Wins[0]).Int("enemyWins", res.Wins[1]).Int("draws", res.Draws).
			Msg("Self-play series finished")
	}()

	writeJSON(w, http.StatusAccepted, req)
}

// Wait blocks until every started series has finished.
func (h *SelfPlayHandler) Wait() {
	h.wg.Wait()
}
