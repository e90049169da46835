package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/martinsuchenak/vlanaudit/internal/api"
	"github.com/martinsuchenak/vlanaudit/internal/audit"
	"github.com/martinsuchenak/vlanaudit/internal/config"
	"github.com/martinsuchenak/vlanaudit/internal/log"
	"github.com/martinsuchenak/vlanaudit/internal/mcp"
	"github.com/martinsuchenak/vlanaudit/internal/watch"
	"github.com/martinsuchenak/vlanaudit/internal/worker"
	"github.com/paularlott/cli"
)

const shutdownTimeout = 10 * time.Second

// ServerConfig holds configuration for running the server
type ServerConfig struct {
	Config     *config.Config
	APIHandler *api.Handler
	MCPServer  *mcp.Server
}

// initializeScheduler wires the manifest to the cron schedule and file watcher.
// The returned stop function is never nil.
func initializeScheduler(cfg *config.Config, auditor *audit.Auditor) (*worker.Scheduler, func(), error) {
	if !cfg.IsSchedulerEnabled() {
		log.Info("Background audits disabled (no manifest with schedule or watch)")
		return nil, func() {}, nil
	}

	m, err := audit.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return nil, nil, err
	}
	runner := audit.NewBatchRunner(auditor, cfg.Workers, cfg.OutputDir)

	scheduler := worker.NewScheduler(func(ctx context.Context) error {
		// reload so edits to the manifest apply on the next run
		current, err := audit.LoadManifest(cfg.ManifestPath)
		if err != nil {
			log.Warn("Manifest reload failed, using last good manifest", "error", err)
			current = m
		}
		_, err = runner.Run(ctx, current)
		return err
	})

	if cfg.Schedule != "" {
		if err := scheduler.AddSchedule(cfg.Schedule); err != nil {
			return nil, nil, err
		}
		log.Info("Scheduled audits enabled", "schedule", cfg.Schedule, "manifest", cfg.ManifestPath)
	}

	var watcher *watch.Watcher
	if cfg.Watch {
		debounce := time.Duration(cfg.WatchDebounceMS) * time.Millisecond
		watcher, err = watch.New(m.Files(), debounce, func() { scheduler.Trigger("watch") }, log.GetLogger().WithGroup("watch"))
		if err != nil {
			return nil, nil, err
		}
		watcher.Start()
		log.Info("Watching dump files", "files", len(m.Files()), "debounce", debounce)
	}

	scheduler.Start()
	scheduler.Trigger("startup")

	stop := func() {
		log.Info("Stopping background audits...")
		if watcher != nil {
			watcher.Stop()
		}
		scheduler.Stop()
		log.Info("Background audits stopped")
	}
	return scheduler, stop, nil
}

// RunServer starts the HTTP server and blocks until ctx is cancelled
func RunServer(ctx context.Context, cfg *ServerConfig) error {
	router := cfg.APIHandler.Router(cfg.Config.APIAuthToken)

	// MCP endpoint
	router.HandleFunc("/mcp", cfg.MCPServer.GetHTTPHandler())

	server := &http.Server{
		Addr:              cfg.Config.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info("Starting vlanaudit server", "addr", cfg.Config.ListenAddr)
	log.Info("API available", "url", "http://localhost"+cfg.Config.ListenAddr+"/api/")
	log.Info("MCP available", "url", "http://localhost"+cfg.Config.ListenAddr+"/mcp")
	if cfg.Config.IsAPIAuthEnabled() {
		log.Info("API authentication enabled")
	}
	if cfg.Config.IsMCPEnabled() {
		log.Info("MCP authentication enabled")
	}
	cfg.MCPServer.LogStartup()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server error", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", "error", err)
		return err
	}

	log.Info("Server stopped")
	return nil
}

// Command returns the server command
func Command(version string) *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the vlanaudit server",
		Description: "Start the HTTP API and MCP endpoints, optionally re-running a manifest on a schedule or on file changes",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.FromCommand(cmd)
			log.Info("Configuration loaded", "config", cfg.String())

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			auditor := audit.NewAuditor()

			scheduler, stopScheduler, err := initializeScheduler(cfg, auditor)
			if err != nil {
				log.Error("Failed to start background audits", "error", err)
				return err
			}
			defer stopScheduler()

			apiHandler := api.NewHandler(auditor, version)
			if scheduler != nil {
				apiHandler.SetScheduleStatus(scheduler.Status)
			}

			return RunServer(ctx, &ServerConfig{
				Config:     cfg,
				APIHandler: apiHandler,
				MCPServer:  mcp.NewServer(auditor, cfg.MCPAuthToken, version),
			})
		},
	}
}
