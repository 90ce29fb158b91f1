// Package main is the entry point for the real-time production monitoring
// service. It polls the factory data feed, normalizes the records, maintains
// the hierarchical efficiency rollup, and serves the dashboard API.
//
// Startup sequence:
// 1. Load configuration from environment variables
// 2. Initialize structured logging
// 3. Open the cache database (snapshot + alert log persistence)
// 4. Wire the monitor service, filter coordinator and HTTP handlers
// 5. Restore the last persisted snapshot so the API serves data immediately
// 6. Register background jobs (refresh cycle, hourly report, maintenance)
// 7. Start the HTTP server and wait for a shutdown signal
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fabricpulse/rtms/internal/clients/rtms"
	"github.com/fabricpulse/rtms/internal/config"
	"github.com/fabricpulse/rtms/internal/database"
	"github.com/fabricpulse/rtms/internal/events"
	"github.com/fabricpulse/rtms/internal/modules/alerts"
	"github.com/fabricpulse/rtms/internal/modules/filters"
	"github.com/fabricpulse/rtms/internal/modules/monitor"
	monitorhandlers "github.com/fabricpulse/rtms/internal/modules/monitor/handlers"
	"github.com/fabricpulse/rtms/internal/modules/reports"
	"github.com/fabricpulse/rtms/internal/modules/snapshots"
	"github.com/fabricpulse/rtms/internal/scheduler"
	"github.com/fabricpulse/rtms/internal/server"
	"github.com/fabricpulse/rtms/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("source_url", cfg.SourceURL).
		Float64("alert_threshold", cfg.AlertThreshold).
		Dur("refresh_interval", cfg.RefreshInterval).
		Msg("Starting production monitor")

	// The cache database holds the latest raw snapshot and the alert log.
	// Losing it on power failure only costs one refresh cycle.
	cacheDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath("cache"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	snapshotStore := snapshots.NewStore(cacheDB.Conn(), log)
	if err := snapshotStore.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate snapshot store")
	}

	alertRepo := alerts.NewRepository(cacheDB.Conn(), log)
	if err := alertRepo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate alert log")
	}

	eventBus := events.NewBus()
	eventManager := events.NewManager(eventBus, log)

	feedClient := rtms.New(cfg.SourceURL, log)
	notifier := alerts.NewWebhookNotifier(cfg.WebhookURL, log)

	monitorService := monitor.New(monitor.Config{
		Source:    feedClient,
		Store:     snapshotStore,
		AlertSink: alertRepo,
		Notifier:  notifier,
		EventMgr:  eventManager,
		Threshold: cfg.AlertThreshold,
		Log:       log,
	})

	// Serve the last persisted snapshot until the first live fetch lands.
	if err := monitorService.RestoreFromStore(); err != nil {
		log.Warn().Err(err).Msg("Could not restore persisted snapshot")
	}

	// Filter options resolve against the in-memory projection tree; the
	// coordinator debounces rapid selection changes and discards stale
	// option responses.
	optionsSource := filters.NewTreeSource(monitorService)
	coordinator := filters.NewCoordinator(optionsSource, log)
	coordinator.SetDebounce(cfg.FilterDebounce)
	coordinator.SetOnChange(monitorService.ApplySelection)

	reportWriter := reports.NewWriter(cfg.ReportDir, log)

	monitorHandlers := monitorhandlers.NewHandler(
		monitorService,
		coordinator,
		alertRepo,
		reportWriter,
		log,
	)

	srv := server.New(server.Config{
		Log:             log,
		Config:          cfg,
		CacheDB:         cacheDB,
		EventBus:        eventBus,
		Monitor:         monitorService,
		MonitorHandlers: monitorHandlers,
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
	})

	sched := scheduler.New(log)
	if err := sched.AddJob(cronEvery(cfg.RefreshInterval), scheduler.NewRefreshCycleJob(monitorService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	if err := sched.AddJob("0 0 * * * *", scheduler.NewHourlyReportJob(monitorService, reportWriter, eventManager, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register hourly report job")
	}
	if err := sched.AddJob("0 0 8 * * *", scheduler.NewDailySummaryJob(monitorService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register daily summary job")
	}
	if err := sched.AddJob("0 30 3 * * *", scheduler.NewAlertPruneJob(alertRepo, 30*24*time.Hour, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register alert prune job")
	}
	if err := sched.AddJob("0 15 * * * *", scheduler.NewWALCheckpointJob([]*database.DB{cacheDB}, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register WAL checkpoint job")
	}
	sched.Start()

	// First fetch happens in the background so a slow or down feed does
	// not delay serving the restored snapshot.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := monitorService.Refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial snapshot fetch failed")
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// cronEvery converts a refresh interval into a seconds-resolution cron spec.
func cronEvery(d time.Duration) string {
	return "@every " + d.String()
}
