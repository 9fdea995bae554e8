package handler

import (
	"net/http"
	"time"

	"github.com/freeeve/territory/internal/auth"
	"github.com/freeeve/territory/internal/logger"
	"github.com/freeeve/territory/internal/service"
	"github.com/freeeve/territory/pkg/field"
)

// SolveHandler answers one-off solve requests.
type SolveHandler struct {
	solveSvc *service.SolveService
}

// NewSolveHandler creates a SolveHandler.
func NewSolveHandler(solveSvc *service.SolveService) *SolveHandler {
	return &SolveHandler{solveSvc: solveSvc}
}

type solveRequest struct {
	TFEN   string `json:"tfen" validate:"required"`
	Side   string `json:"side" validate:"omitempty,oneof=ally enemy"`
	Solver string `json:"solver"`
	// Resolve also plays the acts against an all-Stay opponent and returns the board.
	Resolve bool `json:"resolve"`
}

type solveResponse struct {
	Solver string       `json:"solver"`
	Side   string       `json:"side"`
	Acts   []field.Act  `json:"acts"`
	TookMs int64        `json:"took_ms"`
	Next   *field.Field `json:"next,omitempty"`
}

// Solve handles POST /api/v1/solve
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	f, err := field.DecodeTFEN(req.TFEN)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	side, err := field.ParseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Finished() {
		writeError(w, http.StatusBadRequest, "board is already at its final turn")
		return
	}

	start := time.Now()
	acts, err := h.solveSvc.Solve(req.Solver, f, side)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := solveResponse{
		Solver: h.solveSvc.Resolve(req.Solver),
		Side:   side.String(),
		Acts:   acts,
		TookMs: time.Since(start).Milliseconds(),
	}
	if req.Resolve {
		var turn [2][]field.Act
		turn[side.Index()] = acts
		resp.Next = field.Resolve(f, turn)
	}

	l := logger.ForRequest(r.Context())
	l.Info().Str("operator", auth.OperatorFromContext(r.Context())).Str("solver", resp.Solver).
		Str("side", resp.Side).Int64("tookMs", resp.TookMs).Msg("Solved")
	writeJSON(w, http.StatusOK, resp)
}

// ListSolvers handles GET /api/v1/solvers
func (h *SolveHandler) ListSolvers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"solvers": h.solveSvc.Solvers(),
		"default": h.solveSvc.Resolve(""),
	})
}
