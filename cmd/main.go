package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/routecraft/anchor/internal/config"
	"github.com/routecraft/anchor/internal/costing"
	"github.com/routecraft/anchor/internal/graph"
	"github.com/routecraft/anchor/internal/metrics"
	"github.com/routecraft/anchor/internal/search"
	"github.com/routecraft/anchor/internal/server"
	"github.com/routecraft/anchor/internal/worker"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the correlation worker.
func main() {
	// Cancel the root context on an interrupt signal for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the worker configuration once; it is immutable afterwards.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for application metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	hierarchy := buildHierarchy(cfg.Tiles.Levels)

	// The tile source is the seam to the graph storage module. Until one is
	// wired this process starts with an empty in-memory source and every
	// correlation reports no suitable edges.
	source := graph.NewStaticSource()
	logger.WarnContext(ctx, "No graph storage backend configured, starting with an empty tile source")

	searcher := search.New()

	// Each replica owns an independent reader cache and cost factory.
	newWorker := func() *worker.Worker {
		reader, err := graph.NewCachedReader(ctx, source, hierarchy, cfg.Tiles.CacheBudgetBytes, logger)
		if err != nil {
			log.Fatalf("Failed to create graph reader: %v", err)
		}
		return worker.New(cfg, logger, appMetrics, reader, costing.NewFactory(), searcher)
	}

	front := server.New(
		logger,
		appMetrics,
		server.DefaultActions(),
		server.NewHTTPForwarder(cfg.Server.Downstream),
		cfg.Server.Workers,
		newWorker,
	)
	front.Run(ctx)

	logger.InfoContext(ctx, "Correlation worker started",
		"listen", cfg.Server.Listen,
		"workers", cfg.Server.Workers,
		"downstream", cfg.Server.Downstream,
	)

	// Start the monitoring server in a goroutine to allow main to listen
	// for signals.
	go startMonitoringServer(ctx, logger, reg, cfg.Server.MonitorPort)

	httpServer := &http.Server{
		Addr:        cfg.Server.Listen,
		Handler:     front,
		ReadTimeout: 30 * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorContext(ctx, "HTTP server failed", "error", err)
			stop()
		}
	}()

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()
	logger.InfoContext(ctx, "Shutdown signal received. Stopping worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "HTTP server shutdown failed", "error", err)
	}
	front.Wait()

	logger.InfoContext(ctx, "Worker stopped gracefully.")
}

// buildHierarchy converts the configured tiling levels, least detailed
// first, into the graph hierarchy.
func buildHierarchy(levels []config.LevelConfig) graph.Hierarchy {
	sorted := make([]config.LevelConfig, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	h := graph.Hierarchy{Levels: make([]graph.Level, 0, len(sorted))}
	for _, level := range sorted {
		h.Levels = append(h.Levels, graph.Level{
			Index:    uint8(level.Level),
			Name:     level.Name,
			TileSize: level.Size,
		})
	}
	return h
}

// startMonitoringServer starts an HTTP server that provides health check
// and metrics endpoints.
func startMonitoringServer(ctx context.Context, log *slog.Logger, reg *prometheus.Registry, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
		if _, err := writer.Write([]byte("OK")); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelWarn,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelError,
			}),
		)
		logger.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return logger
}
