package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-circuit-lab/internal/api"
	"go-circuit-lab/internal/config"
	"go-circuit-lab/internal/events"
	"go-circuit-lab/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// Command line flags override the environment
	flag.StringVar(&cfg.Port, "port", cfg.Port, "Port to run the server on")
	flag.StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "NATS URL for semantic events (empty disables)")
	flag.StringVar(&cfg.CORSOrigin, "cors-origin", cfg.CORSOrigin, "Allowed CORS origin")
	flag.Parse()

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Semantic events ---
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			return err
		}
		publisher = nc
		logger.Info("publishing semantic events", "nats", cfg.NATSURL, "subject", events.AllSubjects)
	}

	manager := session.NewManager(publisher, logger)
	server, err := api.NewServer(manager, api.Options{
		Logger:        logger,
		CORSOrigin:    cfg.CORSOrigin,
		RateLimit:     cfg.RateLimit,
		RateBurst:     cfg.RateBurst,
		ScriptTimeout: cfg.ScriptTimeout,
	})
	if err != nil {
		publisher.Close()
		return err
	}
	defer server.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ScriptTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("circuit lab server starting", "port", cfg.Port, "docs", "/api/docs")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
