package commands

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"vrchat-albums/internal/handlers"
	"vrchat-albums/internal/indexer"
	"vrchat-albums/internal/logging"
	"vrchat-albums/internal/metrics"
	"vrchat-albums/internal/middleware"
	"vrchat-albums/internal/startup"

	"github.com/spf13/cobra"
)

const (
	collectorInterval = time.Minute
	shutdownTimeout   = 30 * time.Second
)

func (c *CLI) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Index photos continuously and expose metrics",
		Long: "Runs an incremental scan at startup, then again every scan interval and " +
			"whenever the watcher sees photos added or removed. Stops on SIGINT or SIGTERM.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *CLI) serve(ctx context.Context) error {
	startTime := time.Now()

	comp, err := c.setup(ctx)
	if err != nil {
		return err
	}
	defer comp.close()
	config := comp.config

	metrics.InitializeMetrics()
	comp.indexer.SetOnScanComplete(func(result *indexer.ScanResult) {
		comp.afterScan(ctx, result)
	})

	stats := comp.stats(ctx)
	collector := metrics.NewCollector(stats, collectorInterval)
	collector.Start()

	var srv *http.Server
	if config.MetricsEnabled {
		srv = handlers.NewServer(":"+config.MetricsPort, handlers.New(comp.indexer, stats))
		srv.Handler = middleware.Logger(middleware.DefaultLoggingConfig())(srv.Handler)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	startup.LogIndexerInit(config.ScanInterval, config.PhotoDirs(), config.WatchEnabled)

	var wg sync.WaitGroup
	if config.WatchEnabled {
		watcher, err := indexer.NewWatcher(config.PhotoDirs(), indexer.DefaultWatchDebounce, comp.indexer.TriggerScan)
		if err != nil {
			logging.Warn("Folder watcher unavailable, relying on periodic scans: %v", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				watcher.Run(ctx)
			}()
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		comp.indexer.Run(ctx, config.ScanInterval)
	}()
	startup.LogIndexerStarted()

	startup.LogServerStarted(startup.ServerConfig{
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	<-ctx.Done()
	startup.LogShutdownInitiated("shutdown signal")

	startup.LogShutdownStep("Stopping indexer and watcher")
	wg.Wait()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	if srv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownComplete()
	return nil
}
