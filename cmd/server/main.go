package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmops/internal/config"
	"farmops/internal/db"
	httpapi "farmops/internal/http"
	"farmops/internal/logger"
	"farmops/internal/repository"
	"farmops/internal/sensor"
	"farmops/internal/service"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slg := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(cfg.Database.URL); err != nil {
		slg.Error("migration failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		slg.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.New(pool)
	svc := service.New(repo)

	if cfg.Sensor.Enabled {
		gen := sensor.NewGenerator(repo, cfg.Sensor.Interval, slg)
		go gen.Run(ctx)
		slg.Info("sensor feed started", "interval", cfg.Sensor.Interval)
	}

	handler := httpapi.NewHandler(svc)
	router := httpapi.NewRouter(handler, slg, httpapi.RouterOptions{Metrics: cfg.Metrics.Enabled})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slg.Info("listening", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slg.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slg.Error("graceful shutdown failed", "err", err)
		if closeErr := server.Close(); closeErr != nil {
			slg.Error("force close failed", "err", closeErr)
		}
	}
}
