package service

import (
	"sync"

	"golang.org/x/exp/rand"

	"github.com/freeeve/territory/internal/solver"
	"github.com/freeeve/territory/pkg/field"
)

// SolveService answers one-off solve requests for arbitrary boards.
type SolveService struct {
	params      solver.Params
	defaultName string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSolveService creates a SolveService. defaultName is used when a
// request names no solver.
func NewSolveService(params solver.Params, defaultName string, seed uint64) *SolveService {
	return &SolveService{params: params, defaultName: defaultName, rng: rand.New(rand.NewSource(seed))}
}

// Solve runs the named solver for side on f. Requests are serialized
// because solvers share the service's random source.
func (s *SolveService) Solve(name string, f *field.Field, side field.Side) ([]field.Act, error) {
	name = s.Resolve(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, err := solver.ForName(name, s.params, s.rng)
	if err != nil {
		return nil, err
	}
	return sv.Solve(f, side), nil
}

// Resolve returns the solver name a request for name will use.
func (s *SolveService) Resolve(name string) string {
	if name == "" {
		return s.defaultName
	}
	return name
}

// Solvers lists the solver names accepted by Solve.
func (s *SolveService) Solvers() []string {
	return solver.Names()
}
