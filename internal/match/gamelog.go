package match

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/freeeve/territory/internal/model"
	"github.com/freeeve/territory/pkg/field"
)

// GameRecord is one finished game as stored in a JSONL game log. Only the
// start board and the acts are kept; every later board is replayed.
type GameRecord struct {
	Name        string     `json:"name"`
	Source      string     `json:"source"`
	Seed        int64      `json:"seed,omitempty"`
	AllySolver  string     `json:"ally_solver"`
	EnemySolver string     `json:"enemy_solver"`
	Start       string     `json:"start"` // TFEN
	Turns       []TurnActs `json:"turns"`
	Scores      [2]int     `json:"scores"`
	Winner      string     `json:"winner"`
}

// TurnActs holds both sides' acts for one turn.
type TurnActs struct {
	Ally  []field.Act `json:"ally"`
	Enemy []field.Act `json:"enemy"`
}

// GameLog is a Recorder that appends each finished game to w as one JSON
// line. It is safe for concurrent games.
type GameLog struct {
	mu   sync.Mutex
	enc  *json.Encoder
	open map[string]*GameRecord
	seq  int
}

// NewGameLog creates a GameLog writing to w.
func NewGameLog(w io.Writer) *GameLog {
	return &GameLog{enc: json.NewEncoder(w), open: make(map[string]*GameRecord)}
}

func (g *GameLog) StartMatch(_ context.Context, m *model.Match, f *field.Field) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m.ID == "" {
		g.seq++
		m.ID = fmt.Sprintf("local-%d", g.seq)
	}
	g.open[m.ID] = &GameRecord{
		Name:        m.Name,
		Source:      m.Source,
		Seed:        m.Seed,
		AllySolver:  m.AllySolver,
		EnemySolver: m.EnemySolver,
		Start:       field.EncodeTFEN(f),
	}
	return nil
}

func (g *GameLog) RecordTurn(_ context.Context, matchID string, _ *field.Field, acts [2][]field.Act, _ *field.Field) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.open[matchID]
	if !ok {
		return fmt.Errorf("game log: unknown match %s", matchID)
	}
	r.Turns = append(r.Turns, TurnActs{Ally: acts[0], Enemy: acts[1]})
	return nil
}

func (g *GameLog) FinishMatch(_ context.Context, m *model.Match) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.open[m.ID]
	if !ok {
		return fmt.Errorf("game log: unknown match %s", m.ID)
	}
	delete(g.open, m.ID)
	r.Scores = [2]int{m.AllyScore, m.EnemyScore}
	r.Winner = m.Winner
	return g.enc.Encode(r)
}

// ReadGameLog parses a JSONL game log. Blank lines are skipped; a bad line
// is an error naming its line number.
func ReadGameLog(r io.Reader) ([]GameRecord, error) {
	scanner := bufio.NewScanner(r)
	// Long games on big boards make long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []GameRecord
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec GameRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return out, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, scanner.Err()
}

// Replay plays a logged game into rec, recomputing every board from the
// start position. The whole game is checked against the logged scores first,
// so a rejected record leaves nothing behind in rec.
func Replay(ctx context.Context, g GameRecord, rec Recorder) (*model.Match, error) {
	start, err := field.DecodeTFEN(g.Start)
	if err != nil {
		return nil, fmt.Errorf("start board: %w", err)
	}
	boards := make([]*field.Field, 0, len(g.Turns)+1)
	boards = append(boards, start)
	for i, t := range g.Turns {
		f := boards[len(boards)-1]
		if f.Finished() {
			return nil, fmt.Errorf("turn %d: game already finished", i)
		}
		boards = append(boards, field.Resolve(f, [2][]field.Act{t.Ally, t.Enemy}))
	}
	last := boards[len(boards)-1]
	allyScore, enemyScore := last.Score(field.Ally).Sum(), last.Score(field.Enemy).Sum()
	if allyScore != g.Scores[0] || enemyScore != g.Scores[1] {
		return nil, fmt.Errorf("replayed scores %d:%d, log says %d:%d", allyScore, enemyScore, g.Scores[0], g.Scores[1])
	}

	source := g.Source
	if source == "" {
		source = model.SourceSelfPlay
	}
	m := &model.Match{
		Name:        g.Name,
		Source:      source,
		Seed:        g.Seed,
		AllySolver:  g.AllySolver,
		EnemySolver: g.EnemySolver,
	}
	if err := rec.StartMatch(ctx, m, start); err != nil {
		return nil, fmt.Errorf("start match: %w", err)
	}
	for i, t := range g.Turns {
		if err := rec.RecordTurn(ctx, m.ID, boards[i], [2][]field.Act{t.Ally, t.Enemy}, boards[i+1]); err != nil {
			return nil, fmt.Errorf("record turn %d: %w", i, err)
		}
	}
	m.AllyScore, m.EnemyScore = allyScore, enemyScore
	m.Winner = winnerOf(last)
	if err := rec.FinishMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("finish match: %w", err)
	}
	return m, nil
}

// Tee returns a Recorder forwarding to every non-nil rec in order. The
// first recorder to assign a match id wins; later ones see it.
func Tee(recs ...Recorder) Recorder {
	var out tee
	for _, r := range recs {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

type tee []Recorder

func (t tee) StartMatch(ctx context.Context, m *model.Match, f *field.Field) error {
	for _, r := range t {
		if err := r.StartMatch(ctx, m, f); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) RecordTurn(ctx context.Context, matchID string, before *field.Field, acts [2][]field.Act, after *field.Field) error {
	for _, r := range t {
		if err := r.RecordTurn(ctx, matchID, before, acts, after); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) FinishMatch(ctx context.Context, m *model.Match) error {
	for _, r := range t {
		if err := r.FinishMatch(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
