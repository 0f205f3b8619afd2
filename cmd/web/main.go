package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/bank-demo-web/internal/api"
	"github.com/baharkarakas/bank-demo-web/internal/bankapi"
	"github.com/baharkarakas/bank-demo-web/internal/config"
	"github.com/baharkarakas/bank-demo-web/internal/logger"
	"github.com/baharkarakas/bank-demo-web/internal/metrics"
	"github.com/baharkarakas/bank-demo-web/internal/session"
	"github.com/baharkarakas/bank-demo-web/internal/transfer"
	"github.com/baharkarakas/bank-demo-web/internal/views"
	"github.com/baharkarakas/bank-demo-web/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := bankapi.New(cfg.APIBaseURL,
		bankapi.WithTimeout(cfg.APITimeout),
		bankapi.WithLogger(log),
	)
	if err != nil {
		log.Error("bank api client", "err", err)
		os.Exit(1)
	}

	wp := worker.NewPool(4, log)
	defer wp.Stop()

	store := session.NewStore(cfg.SessionTTL, func(id string) *session.Session {
		return &session.Session{
			Accounts: views.NewAccountsView(),
			Transfer: transfer.NewForm(client, transfer.WithLogger(log.With("sid", id))),
		}
	}, wp, log)
	defer store.Close()
	go store.Janitor(ctx, time.Minute)

	metrics.Init()
	r, err := api.NewRouter(api.RouterDeps{Cfg: cfg, API: client, Sessions: store, Log: log})
	if err != nil {
		log.Error("router", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "api", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
