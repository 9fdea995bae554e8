package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/freeeve/territory/internal/match"
	"github.com/freeeve/territory/internal/solver"
	"github.com/freeeve/territory/pkg/field"
)

var selfPlayOpts struct {
	ally, enemy string
	games       int
	workers     int
	seed        uint64
	board       field.GenerateOptions
	record      bool
	out         string
	jsonOut     bool
}

var selfPlayCmd = &cobra.Command{
	Use:   "selfplay",
	Short: "Play solver-vs-solver games on generated boards",
	Long: `Plays a series of games between two solvers on random boards and
reports the summed score difference. Games can be recorded to the database
(--record) and/or appended to a JSONL game log (--out).`,
	Args: cobra.NoArgs,
	RunE: runSelfPlay,
}

func init() {
	f := selfPlayCmd.Flags()
	f.StringVar(&selfPlayOpts.ally, "ally", solver.NameSocialDistance, "ally solver")
	f.StringVar(&selfPlayOpts.enemy, "enemy", solver.NameGreedy, "enemy solver")
	f.IntVarP(&selfPlayOpts.games, "games", "n", 10, "number of games")
	f.IntVar(&selfPlayOpts.workers, "workers", 1, "games played in parallel")
	f.Uint64Var(&selfPlayOpts.seed, "seed", 0, "base seed (0 = random)")
	f.IntVar(&selfPlayOpts.board.Width, "width", 0, "board width (0 = random 12-24)")
	f.IntVar(&selfPlayOpts.board.Height, "height", 0, "board height (0 = random 12-24)")
	f.IntVar(&selfPlayOpts.board.AgentCount, "agents", 0, "agents per side (0 = random 6-14)")
	f.IntVar(&selfPlayOpts.board.FinalTurn, "turns", 0, "turns per game (0 = 50)")
	f.BoolVar(&selfPlayOpts.record, "record", false, "record games to Postgres and Redis")
	f.StringVar(&selfPlayOpts.out, "out", "", "append games to this JSONL file")
	f.BoolVar(&selfPlayOpts.jsonOut, "json", false, "print results as JSON")
}

func runSelfPlay(cmd *cobra.Command, _ []string) error {
	o := selfPlayOpts
	if o.games < 1 {
		return fmt.Errorf("--games must be positive")
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var recs []match.Recorder
	if o.record {
		svc, closeFn, err := openMatchService(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		recs = append(recs, svc)
	}
	if o.out != "" {
		f, err := os.OpenFile(o.out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open game log: %w", err)
		}
		defer f.Close()
		recs = append(recs, match.NewGameLog(f))
	}

	cfg := match.ArenaConfig{
		Name:        fmt.Sprintf("%s-vs-%s", o.ally, o.enemy),
		AllySolver:  o.ally,
		EnemySolver: o.enemy,
		Params:      params,
		Board:       o.board,
		Seed:        o.seed,
	}
	log.Info().Str("ally", o.ally).Str("enemy", o.enemy).Int("games", o.games).Int("workers", o.workers).Msg("Starting self-play")
	res, err := match.RunSeries(ctx, cfg, o.games, o.workers, match.Tee(recs...))
	if err != nil {
		return err
	}
	if o.jsonOut {
		return printSeriesJSON(cmd.OutOrStdout(), res)
	}
	printSeriesSummary(cmd.OutOrStdout(), o.ally, o.enemy, res)
	return nil
}

func printSeriesSummary(w io.Writer, ally, enemy string, res *match.SeriesResult) {
	n := len(res.Games)
	fmt.Fprintf(w, "\nResults (%d games):\n", n)
	fmt.Fprintf(w, "  %-8s (ally):   %d wins\n", ally, res.Wins[0])
	fmt.Fprintf(w, "  %-8s (enemy):  %d wins\n", enemy, res.Wins[1])
	fmt.Fprintf(w, "  draws:            %d\n", res.Draws)
	avg := 0.0
	if n > 0 {
		avg = float64(res.DiffSum) / float64(n)
	}
	fmt.Fprintf(w, "  score diff:       %+d total, %+.1f per game\n", res.DiffSum, avg)
}

func printSeriesJSON(w io.Writer, res *match.SeriesResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// signalContext is shared by long-running commands.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
