package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qenanews/cardbot/internal/app"
	"github.com/qenanews/cardbot/internal/config"
	"github.com/qenanews/cardbot/internal/logger"
	"github.com/qenanews/cardbot/internal/metrics"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Check if we should start HTTP server for monitoring
	if cfg.EnableHTTPMonitoring {
		srv := startMonitoringServer(cfg.HTTPPort)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	bot, cleanup, err := app.New(ctx, cfg)
	if err != nil {
		cleanup()
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	out, err := bot.Run(ctx)
	if err != nil {
		metrics.Global.SetError(err.Error())
		logger.Error("run failed", "error", err)
		cleanup()
		os.Exit(1)
	}
	if out.Posted {
		logger.Info("run complete", "title", out.Article.Title, "feed", out.Article.Feed.Name, "post_id", out.PostID)
	}
}

func startMonitoringServer(port string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/metrics", metricsHandler)

	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("starting monitoring server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("monitoring server error", "error", err)
		}
	}()
	return srv
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	code := http.StatusOK
	if !metrics.Global.Healthy() {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
