// Command tilebot runs the territory solvers from the command line: solver
// series on generated boards, the live contest player, one-off solves and
// game-log imports.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/freeeve/territory/internal/config"
	"github.com/freeeve/territory/internal/logger"
	"github.com/freeeve/territory/internal/repository/postgres"
	redisrepo "github.com/freeeve/territory/internal/repository/redis"
	"github.com/freeeve/territory/internal/service"
	"github.com/freeeve/territory/internal/solver"
	"github.com/freeeve/territory/migrations"
)

var (
	logLevel   string
	paramsPath string

	cfg    *config.Config
	params solver.Params

	rootCmd = &cobra.Command{
		Use:           "tilebot",
		Short:         "Territory solver toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.InitWith(logger.Options{Level: logLevel})
			cfg = config.Load()
			if paramsPath == "" {
				paramsPath = cfg.ParamsPath
			}
			p, err := solver.LoadParams(paramsPath)
			if err != nil {
				return err
			}
			params = p
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&paramsPath, "params", "", "solver params YAML (default PARAMS_PATH)")
	rootCmd.AddCommand(selfPlayCmd, playCmd, solveCmd, importCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("tilebot failed")
		os.Exit(1)
	}
}

// openMatchService connects to Postgres and Redis for recording, applying any
// pending migrations. The returned func closes both.
func openMatchService(ctx context.Context) (*service.MatchService, func(), error) {
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if _, err := postgres.Migrate(ctx, db, migrations.FS); err != nil {
		db.Close()
		return nil, nil, err
	}
	rdb, err := redisrepo.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	svc := service.NewMatchService(postgres.NewMatchRepo(db), postgres.NewTurnRepo(db), rdb, nil)
	return svc, func() {
		rdb.Close()
		db.Close()
	}, nil
}
