package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/classdata/internal/catalog"
	"github.com/JonMunkholm/classdata/internal/config"
	"github.com/JonMunkholm/classdata/internal/logging"
	"github.com/JonMunkholm/classdata/internal/tabular"
	"github.com/JonMunkholm/classdata/internal/web"
)

func main() {
	// Load .env file if it exists; real environment variables take precedence.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	// Flat files are required; a missing one stops startup here.
	tables, err := tabular.Open(
		tabular.StudentsSpec(cfg.Data.StudentsPath),
		tabular.CoffeeSpec(cfg.Data.CoffeePath),
	)
	if err != nil {
		slog.Error("failed to load datasets", "error", err)
		os.Exit(1)
	}
	for _, name := range tables.Names() {
		t, _ := tables.Table(name)
		slog.Info("dataset loaded", "name", name, "rows", t.Len(), "columns", len(t.Columns()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := catalog.Open(ctx, catalog.Config{
		Driver:          cfg.Database.Driver,
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to open catalog", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		slog.Error("failed to migrate catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog ready", "dialect", store.Dialect().Name)
	if cfg.Database.Seed {
		inserted, err := store.Seed(ctx)
		if err != nil {
			slog.Error("failed to seed catalog", "error", err)
			os.Exit(1)
		}
		slog.Info("catalog seeded",
			"courses", inserted[catalog.TableCourses],
			"resources", inserted[catalog.TableResources],
		)
	}

	server, err := web.NewServer(cfg, tables, store)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}
	server.LogRoutes(slog.Default())

	// Graceful shutdown
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		stop()
		_ = store.Close()
		os.Exit(1)
	}
	<-drained
	slog.Info("server stopped")
}
