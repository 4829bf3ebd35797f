package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/camwatch/camwatch-go/internal/adapters/blink"
	"github.com/camwatch/camwatch-go/internal/api"
	"github.com/camwatch/camwatch-go/internal/config"
	"github.com/camwatch/camwatch-go/internal/core/alerts"
	"github.com/camwatch/camwatch-go/internal/core/capture"
	"github.com/camwatch/camwatch-go/internal/core/scheduler"
	"github.com/camwatch/camwatch-go/internal/core/snooze"
	"github.com/camwatch/camwatch-go/internal/core/storage"
	"github.com/camwatch/camwatch-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Logging.Path, cfg.Logging.Level, cfg.Logging.RetentionDays)

	log.Main("############################################################")
	log.Main("CAMWATCH STARTING")
	log.Mainf("  Cameras: %v", cfg.Capture.Cameras)
	log.Mainf("  Poll interval: %s", cfg.Capture.GetPollInterval())
	log.Mainf("  Photo retention: %d days", cfg.Storage.RetentionDays)
	log.Main("############################################################")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Photo store, with a one-time migration of any flat legacy layout
	store := storage.NewPhotoStore(cfg.Storage.CamerasPath, cfg.Storage.RetentionDays, log.Logger)
	for _, stats := range store.MigrateAll() {
		if stats.Migrated > 0 {
			log.Mainf("Migrated %d legacy photos for %s", stats.Migrated, stats.Camera)
		}
	}

	// Blink session. Failure here is not recoverable without a fresh token
	// file, so startup aborts.
	adapter := blink.NewAdapter(cfg.Blink.CredentialsFile, cfg.Blink.DeviceName, log.Logger)
	initCtx, initCancel := context.WithTimeout(ctx, 60*time.Second)
	err = adapter.Initialize(initCtx)
	initCancel()
	if err != nil {
		log.Mainf("FATAL: Blink initialization failed: %v", err)
		log.Main("Run the setup flow to produce a fresh credentials file, then restart.")
		os.Exit(1)
	}

	masked, accountID := adapter.SessionInfo()
	log.Mainf("Blink session established (account %d, token %s)", accountID, masked)
	log.Mainf("Cameras on account: %v", adapter.CameraNames())

	// Capture pipeline
	dedup := capture.NewDuplicateDetector(store, log, cfg.Capture.GetDuplicateCutoff(), cfg.Capture.DuplicateThreshold)
	processor := capture.NewProcessor(adapter, store, dedup, log, capture.Options{
		SettleDelay:      cfg.Capture.GetSettleDelay(),
		SnapshotAttempts: cfg.Capture.SnapshotRetries,
		RetryDelay:       cfg.Capture.GetRetryDelay(),
	})

	// Snooze state
	snoozes := snooze.NewManager(cfg.Snooze.File, log)

	// Alert monitors
	alertState := alerts.NewState()
	if cfg.Alerts.NWSZone != "" {
		go alerts.NewNWSMonitor(cfg.Alerts.NWSZone, cfg.Alerts.UserAgent, alertState, log).Run(ctx)
	} else {
		log.Main("No NWS zone configured; weather alert monitor disabled")
	}
	go alerts.NewNHCMonitor(cfg.Alerts.UserAgent, alertState, log).Run(ctx)

	// Watch the credentials file for external refreshes
	var tokenChanged <-chan struct{}
	watcher, err := scheduler.NewFileWatcher(cfg.Blink.CredentialsFile, log)
	if err != nil {
		log.Mainf("WARNING: credentials watcher unavailable: %v", err)
	} else {
		tokenChanged = watcher.Changed()
		go watcher.Run(ctx)
	}

	// Polling loop
	sched := scheduler.New(adapter, processor, adapter, snoozes, log,
		cfg.Capture.Cameras, cfg.Capture.GetPollInterval(), tokenChanged)
	go sched.Run(ctx)

	// Nightly retention jobs
	c := cron.New()
	c.AddFunc("0 0 * * *", func() {
		for _, stats := range store.CleanupAll() {
			if stats.DeletedFolders > 0 {
				log.Mainf("Retention: removed %d expired folders for %s", stats.DeletedFolders, stats.Camera)
			}
		}
	})
	c.AddFunc("30 0 * * *", func() {
		removed, err := log.CleanupOldLogs()
		if err != nil {
			log.Mainf("WARNING: log cleanup failed: %v", err)
			return
		}
		if removed > 0 {
			log.Mainf("Retention: removed %d expired log files", removed)
		}
	})
	c.Start()

	// HTTP API
	router := api.NewRouter(cfg, store, alertState, snoozes, log.Logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Mainf("Starting status API on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Mainf("FATAL: Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Main("Shutting down...")
	cancel()
	c.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Mainf("WARNING: server forced to shutdown: %v", err)
	}

	log.Main("CamWatch exited")
}
