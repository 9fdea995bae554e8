package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/freeeve/territory/internal/auth"
	"github.com/freeeve/territory/internal/config"
	"github.com/freeeve/territory/internal/contest"
	"github.com/freeeve/territory/internal/handler"
	"github.com/freeeve/territory/internal/logger"
	"github.com/freeeve/territory/internal/match"
	"github.com/freeeve/territory/internal/middleware"
	"github.com/freeeve/territory/internal/repository/postgres"
	redisrepo "github.com/freeeve/territory/internal/repository/redis"
	"github.com/freeeve/territory/internal/service"
	"github.com/freeeve/territory/internal/solver"
	"github.com/freeeve/territory/migrations"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Str("solver", cfg.Solver).Msg("Config loaded")

	params, err := solver.LoadParams(cfg.ParamsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ParamsPath).Msg("Invalid solver params")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()
	if _, err := postgres.Migrate(ctx, db, migrations.FS); err != nil {
		log.Fatal().Err(err).Msg("Database migration failed")
	}

	// Redis
	redisClient, err := redisrepo.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Repos
	matchRepo := postgres.NewMatchRepo(db)
	turnRepo := postgres.NewTurnRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, 0)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	matchSvc := service.NewMatchService(matchRepo, turnRepo, redisClient, wsHub)
	solveSvc := service.NewSolveService(params, cfg.Solver, uint64(time.Now().UnixNano()))
	if _, err := solver.ForName(cfg.Solver, params, nil); err != nil {
		log.Fatal().Err(err).Msg("Invalid default solver")
	}

	// Handlers
	matchHandler := handler.NewMatchHandler(matchSvc)
	solveHandler := handler.NewSolveHandler(solveSvc)
	selfPlayHandler := handler.NewSelfPlayHandler(ctx, matchSvc, params)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Public API routes
	mux.HandleFunc("GET /api/v1/solvers", solveHandler.ListSolvers)
	mux.HandleFunc("GET /api/v1/matches", matchHandler.ListMatches)
	mux.HandleFunc("GET /api/v1/matches/active", matchHandler.ActiveMatches)
	mux.HandleFunc("GET /api/v1/matches/{id}", matchHandler.GetMatch)
	mux.HandleFunc("GET /api/v1/matches/{id}/turns", matchHandler.ListTurns)
	mux.HandleFunc("GET /api/v1/matches/{id}/field", matchHandler.LiveField)

	// Operator routes
	mux.Handle("POST /api/v1/solve", authMw(http.HandlerFunc(solveHandler.Solve)))
	mux.Handle("POST /api/v1/selfplay", authMw(http.HandlerFunc(selfPlayHandler.Start)))
	mux.Handle("DELETE /api/v1/matches/{id}", authMw(http.HandlerFunc(matchHandler.DeleteMatch)))

	// WebSocket (optional auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.Metrics)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Close out self-play matches a previous process left running.
	if n, err := matchSvc.RecoverActiveMatches(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to recover active matches (non-fatal)")
	} else if n > 0 {
		log.Info().Int("closed", n).Msg("Closed stale self-play matches")
	}

	// Contest player
	if cfg.ContestEnabled() {
		s, err := solver.ForName(cfg.Solver, params, rand.New(rand.NewSource(uint64(time.Now().UnixNano()))))
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid contest solver")
		}
		client := contest.NewClient(cfg.ContestURL, cfg.ContestToken, cfg.ContestRPS)
		player := match.NewPlayer(client, cfg.TeamID, s, cfg.ContestInterval, matchSvc)
		go player.Run(ctx)
		log.Info().Str("url", cfg.ContestURL).Int("team", cfg.TeamID).Msg("Contest player started")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	selfPlayHandler.Wait()
	log.Info().Msg("Server stopped")
}
