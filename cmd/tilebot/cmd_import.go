package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/freeeve/territory/internal/match"
)

var importNamePrefix string

var importCmd = &cobra.Command{
	Use:   "import <games.jsonl>",
	Short: "Import a JSONL game log into the database",
	Long: `Replays every game of a log written by "selfplay --out" and records it,
so the games can be browsed through the API. Games whose replayed scores do
not match the log are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importNamePrefix, "name-prefix", "", "prefix added to imported game names")
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	games, err := match.ReadGameLog(f)
	if err != nil {
		return err
	}
	svc, closeFn, err := openMatchService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	imported := 0
	for i, g := range games {
		if importNamePrefix != "" {
			g.Name = importNamePrefix + g.Name
		}
		m, err := match.Replay(ctx, g, svc)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Int("game", i+1).Msg("Skipping game")
			continue
		}
		imported++
		log.Info().Int("game", i+1).Str("matchId", m.ID).Int("turns", len(g.Turns)).Msg("Imported game")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d games\n", imported, len(games))
	return nil
}
