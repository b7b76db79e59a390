package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/stock-optimizer/internal/config"
	"github.com/aristath/stock-optimizer/internal/modules/analysis"
	"github.com/aristath/stock-optimizer/internal/modules/metrics"
	"github.com/aristath/stock-optimizer/internal/modules/optimizer"
	"github.com/aristath/stock-optimizer/internal/modules/sectors"
	"github.com/aristath/stock-optimizer/internal/scheduler"
	"github.com/aristath/stock-optimizer/internal/server"
	"github.com/aristath/stock-optimizer/internal/store"
	"github.com/aristath/stock-optimizer/pkg/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting portfolio optimizer")

	db, err := store.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	marketStore := store.New(db, log)
	if err := marketStore.WarmCache(); err != nil {
		log.Warn().Err(err).Msg("Series cache warm failed, continuing cold")
	}

	engine := metrics.NewEngine(cfg.RiskFreeRate, log)
	lookup := sectors.LookupFunc(marketStore.Sector)
	adjuster := sectors.NewAdjuster(lookup, marketStore, log)

	analysisService := analysis.NewService(marketStore, engine, lookup, log)
	search := optimizer.NewSearch(marketStore, engine, lookup, adjuster, optimizer.SearchConfig{
		TimeBudget: cfg.SearchTimeBudget,
		MaxRetries: cfg.SearchMaxRetries,
		Workers:    cfg.SearchWorkers,
	}, log)

	sched := scheduler.New(log)
	if err := sched.AddJob("@daily", scheduler.NewCacheWarmJob(marketStore, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache warm job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Analysis:  analysisService,
		Optimizer: search,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
	return nil
}
