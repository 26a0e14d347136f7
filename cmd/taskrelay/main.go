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

	"github.com/antoniostano/taskrelay/internal/config"
	"github.com/antoniostano/taskrelay/internal/httpapi"
	"github.com/antoniostano/taskrelay/internal/observability"
	"github.com/antoniostano/taskrelay/internal/tasks"
	"github.com/antoniostano/taskrelay/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := observability.NewStdLogger("[taskrelay]")
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	var (
		store   tasks.Store
		fetcher httpapi.TaskFetcher
	)
	switch cfg.Mode {
	case config.ModeProxy:
		client := upstream.NewClient(cfg.UpstreamURL)
		fetcher = client
		log.Printf("mode: proxy (upstream %s)", client.BaseURL())
	default:
		store, err = tasks.NewStore(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("task store init failed: %v", err)
		}
		defer store.Close()
		log.Printf("mode: local (%s task store)", store.Mode())
	}

	api := httpapi.New(cfg, store, fetcher, tasks.NewFeed(32), metrics, logger)
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
