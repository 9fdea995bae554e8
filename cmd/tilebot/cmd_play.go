package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"github.com/freeeve/territory/internal/contest"
	"github.com/freeeve/territory/internal/match"
	"github.com/freeeve/territory/internal/solver"
)

var playOpts struct {
	url, token string
	team       int
	solver     string
	interval   time.Duration
	rps        float64
	record     bool
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play live matches on the contest server",
	Long: `Polls the contest server and submits actions for every match the team
is in. Defaults come from CONTEST_URL, CONTEST_TOKEN, TEAM_ID and SOLVER.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	f := playCmd.Flags()
	f.StringVar(&playOpts.url, "url", "", "contest server base URL")
	f.StringVar(&playOpts.token, "token", "", "contest API token")
	f.IntVar(&playOpts.team, "team", 0, "our team id")
	f.StringVar(&playOpts.solver, "solver", "", "solver name")
	f.DurationVar(&playOpts.interval, "interval", 0, "poll interval")
	f.Float64Var(&playOpts.rps, "rps", 0, "max requests per second")
	f.BoolVar(&playOpts.record, "record", false, "record matches to Postgres and Redis")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	o := playOpts
	o.url = orDefault(o.url, cfg.ContestURL)
	o.token = orDefault(o.token, cfg.ContestToken)
	o.solver = orDefault(o.solver, cfg.Solver)
	if o.team == 0 {
		o.team = cfg.TeamID
	}
	if o.interval == 0 {
		o.interval = cfg.ContestInterval
	}
	if o.rps == 0 {
		o.rps = cfg.ContestRPS
	}
	if o.url == "" || o.team == 0 {
		return fmt.Errorf("contest url and team are required")
	}

	s, err := solver.ForName(o.solver, params, rand.New(rand.NewSource(uint64(time.Now().UnixNano()))))
	if err != nil {
		return err
	}
	var rec match.Recorder
	if o.record {
		svc, closeFn, err := openMatchService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		rec = svc
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	client := contest.NewClient(o.url, o.token, o.rps)
	player := match.NewPlayer(client, o.team, s, o.interval, rec)
	log.Info().Str("url", o.url).Int("team", o.team).Str("solver", s.Name()).Msg("Contest player started")
	if err := player.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}
	log.Info().Msg("Contest player stopped")
	return nil
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
