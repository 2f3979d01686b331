package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justsurfingit/jobhunter/internal/backend"
	"github.com/justsurfingit/jobhunter/internal/config"
	"github.com/justsurfingit/jobhunter/internal/handlers"
	flag "github.com/spf13/pflag"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Configuration (.env, configs/config.yml, environment)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	flag.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "address to listen on")
	flag.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "JobHunter backend base URL")
	flag.Parse()

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Backend client
	client, err := backend.Connect(ctx, cfg.BackendURL, cfg.BackendTimeout)
	if err != nil {
		slog.Error("failed to create backend client", "error", err)
		os.Exit(1)
	}

	// 3. Per-browser sessions
	sessions := handlers.NewSessionStore(func(id string) *handlers.Session {
		return handlers.NewSession(id, client, cfg.AlertTTL, loc)
	}, cfg.SessionIdleTTL)
	sessions.StartSweeper(ctx)

	// 4. Router
	routerCfg := handlers.RouterConfig{}
	if !cfg.AllowsAllOrigins() {
		routerCfg.AllowOrigins = cfg.AllowOrigins
	}
	r := handlers.NewRouter(routerCfg, handlers.NewPageHandler(sessions))

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}
	go func() {
		slog.Info("🚀 Server starting", "addr", cfg.ListenAddr, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
