package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/freeeve/territory/internal/service"
	"github.com/freeeve/territory/pkg/field"
)

var solveOpts struct {
	side    string
	solver  string
	seed    uint64
	resolve bool
}

var solveCmd = &cobra.Command{
	Use:   "solve [tfen]",
	Short: "Print one turn of actions for a board",
	Long: `Reads a board in TFEN from the argument or stdin and prints the chosen
actions as JSON, one per agent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVar(&solveOpts.side, "side", "ally", "side to move (ally or enemy)")
	f.StringVar(&solveOpts.solver, "solver", "", "solver name (default SOLVER)")
	f.Uint64Var(&solveOpts.seed, "seed", 0, "random seed (0 = time-based)")
	f.BoolVar(&solveOpts.resolve, "resolve", false, "also print the board after the turn, opponent staying")
}

func runSolve(cmd *cobra.Command, args []string) error {
	f, err := readBoard(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	side, err := field.ParseSide(solveOpts.side)
	if err != nil {
		return err
	}
	seed := solveOpts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	svc := service.NewSolveService(params, cfg.Solver, seed)
	acts, err := svc.Solve(solveOpts.solver, f, side)
	if err != nil {
		return err
	}

	out := map[string]any{"solver": svc.Resolve(solveOpts.solver), "side": side.String(), "acts": acts}
	if solveOpts.resolve {
		var turn [2][]field.Act
		turn[side.Index()] = acts
		out["next"] = field.EncodeTFEN(field.Resolve(f, turn))
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// readBoard decodes the TFEN given as the only argument, or read from in.
func readBoard(args []string, in io.Reader) (*field.Field, error) {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		b, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read board: %w", err)
		}
		text = string(b)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("no board given")
	}
	f, err := field.DecodeTFEN(text)
	if err != nil {
		return nil, err
	}
	if f.Finished() {
		return nil, fmt.Errorf("board is already at its final turn")
	}
	return f, nil
}
