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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/OpenNSW/customs/internal/api"
	"github.com/OpenNSW/customs/internal/archive"
	"github.com/OpenNSW/customs/internal/config"
	"github.com/OpenNSW/customs/internal/database"
	"github.com/OpenNSW/customs/internal/desk"
	"github.com/OpenNSW/customs/internal/events"
	"github.com/OpenNSW/customs/internal/metrics"
	"github.com/OpenNSW/customs/internal/officeconfig"
	"github.com/OpenNSW/customs/internal/processor"
	"github.com/OpenNSW/customs/internal/store"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Run the HTTP API. Configuration is read from the environment (DB_*, SERVER_*, STORAGE_*, REDIS_*, OFFICES_FILE, SELECTION_SEED).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("configuration loaded successfully",
		"db_driver", cfg.Database.Driver,
		"db_host", cfg.Database.Host,
		"db_name", cfg.Database.Name,
		"storage", cfg.Storage.Type,
		"port", cfg.Server.Port,
	)
	gin.SetMode(cfg.Server.Mode)

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()
	if err := database.HealthCheck(db); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	repo := store.New(db)
	if err := repo.Migrate(ctx); err != nil {
		return err
	}

	var policy processor.SelectionPolicy
	if cfg.Processor.SelectionSeed != 0 {
		policy = processor.NewRandomPolicy(cfg.Processor.SelectionSeed)
	}
	proc, err := repo.LoadProcessor(ctx, policy)
	if err != nil {
		return err
	}
	if cfg.Processor.OfficesFile != "" {
		if err := seedOffices(ctx, cfg.Processor.OfficesFile, proc, repo); err != nil {
			return err
		}
	}

	driver, err := archive.NewStorageFromConfig(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	publisher, err := events.NewPublisherFromConfig(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("failed to close event publisher", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d := desk.New(proc, repo, archive.NewArchiver(driver), publisher, metrics.New(reg))
	handler := api.NewHandler(d, func() error { return database.HealthCheck(db) })

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, reg),
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "port", cfg.Server.Port, "offices", len(proc.Offices()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	} else {
		slog.Info("server gracefully stopped")
	}
	return nil
}

// seedOffices connects the offices of the pool file that storage does not know yet.
func seedOffices(ctx context.Context, path string, proc *processor.Processor, repo *store.Repository) error {
	f, err := officeconfig.Load(path)
	if err != nil {
		return err
	}
	offices, err := f.Build()
	if err != nil {
		return err
	}
	for _, o := range offices {
		if _, err := proc.Office(o.ID()); err == nil {
			slog.Debug("office already restored from storage", "officeID", o.ID())
			continue
		}
		if err := repo.SaveOffice(ctx, o); err != nil {
			return err
		}
		proc.Connect(o)
	}
	slog.Info("office pool file applied", "path", path, "offices", len(offices))
	return nil
}
