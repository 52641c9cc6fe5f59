package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/padelops/tournament-engine/config"
	"github.com/padelops/tournament-engine/db"
	"github.com/padelops/tournament-engine/handlers"
	"github.com/padelops/tournament-engine/repositories"
	api "github.com/padelops/tournament-engine/routes"
	"github.com/padelops/tournament-engine/services"
	"github.com/padelops/tournament-engine/stream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	hub := stream.NewHub()
	go hub.Run()
	logger.Info("event hub started")

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	groupMatchRepo := repositories.NewPostgresGroupMatchRepository(dbConn)
	playoffRepo := repositories.NewPostgresPlayoffMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	restrictionRepo := repositories.NewPostgresRestrictionRepository(dbConn)
	logger.Info("repositories initialized")

	// One lock set shared by every service; all mutations of a tournament
	// serialize on it.
	locks := services.NewTournamentLocks()

	scheduleService := services.NewScheduleService(
		dbConn,
		tournamentRepo,
		teamRepo,
		groupMatchRepo,
		playoffRepo,
		courtRepo,
		restrictionRepo,
		locks,
	)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		teamRepo,
		groupRepo,
		groupMatchRepo,
		playoffRepo,
		standingRepo,
		courtRepo,
		scheduleService,
		locks,
		hub,
	)
	matchService := services.NewMatchService(
		dbConn,
		tournamentRepo,
		groupRepo,
		groupMatchRepo,
		playoffRepo,
		standingRepo,
		locks,
		hub,
	)
	logger.Info("services initialized")

	tournamentHandler := handlers.NewTournamentHandler(tournamentService, hub)
	matchHandler := handlers.NewMatchHandler(matchService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, hub)
	webSocketHandler := handlers.NewWebSocketHandler(hub)

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.JWTSecretKey, tournamentHandler, matchHandler, scheduleHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
