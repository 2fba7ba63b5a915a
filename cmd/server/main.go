// Package main is the entry point for the quantstats performance service.
// It stores daily price histories, converts them to returns and NAV tracks,
// and serves precomputed performance factsheets over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sharavsambuu/quantstats/internal/config"
	"github.com/sharavsambuu/quantstats/internal/database"
	"github.com/sharavsambuu/quantstats/internal/modules/factsheet"
	factsheethandlers "github.com/sharavsambuu/quantstats/internal/modules/factsheet/handlers"
	"github.com/sharavsambuu/quantstats/internal/modules/prices"
	priceshandlers "github.com/sharavsambuu/quantstats/internal/modules/prices/handlers"
	"github.com/sharavsambuu/quantstats/internal/perfstats"
	"github.com/sharavsambuu/quantstats/internal/scheduler"
	"github.com/sharavsambuu/quantstats/internal/server"
	"github.com/sharavsambuu/quantstats/pkg/logger"
)

// snapshotRetention is how long stored factsheet snapshots are kept
const snapshotRetention = 90 * 24 * time.Hour

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting quantstats service")

	// Prices are expensive to re-fetch, snapshots can always be rebuilt.
	pricesDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "prices.db"),
		Profile: database.ProfileDurable,
		Name:    "prices",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open prices database")
	}
	defer pricesDB.Close()

	factsheetsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "factsheets.db"),
		Profile: database.ProfileCache,
		Name:    "factsheets",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open factsheets database")
	}
	defer factsheetsDB.Close()

	for _, db := range []*database.DB{pricesDB, factsheetsDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
	}

	// Repositories and services
	priceRepo := prices.NewRepository(pricesDB.Conn(), log)
	snapshotRepo := factsheet.NewSnapshotRepository(factsheetsDB.Conn(), log)

	factsheetService := factsheet.NewService(priceRepo, snapshotRepo, factsheet.Params{
		DaysPerYear: cfg.DaysPerYear,
		Fees: perfstats.FeeParams{
			ManagementFee:       cfg.ManagementFee,
			PerformanceFee:      cfg.PerformanceFee,
			CrystallizationFreq: perfstats.DefaultFeeParams().CrystallizationFreq,
		},
	}, log)

	// Background snapshot refresh
	sched := scheduler.New(log)
	refreshJob := scheduler.NewSnapshotRefreshJob(factsheetService, snapshotRepo, snapshotRetention, log)
	if err := sched.AddJob(cfg.SnapshotSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SnapshotSchedule).Msg("Failed to register snapshot job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:               log,
		Config:            cfg,
		Port:              cfg.Port,
		DevMode:           cfg.DevMode,
		PricesDB:          pricesDB,
		FactsheetsDB:      factsheetsDB,
		PricesHandlers:    priceshandlers.NewHandler(priceRepo, log),
		FactsheetHandlers: factsheethandlers.NewHandler(factsheetService, snapshotRepo, log),
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
