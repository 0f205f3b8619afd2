package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/bank-demo-web/internal/api/httpx"
	"github.com/baharkarakas/bank-demo-web/internal/config"
	"github.com/baharkarakas/bank-demo-web/internal/metrics"
	"github.com/baharkarakas/bank-demo-web/internal/middleware"
	"github.com/baharkarakas/bank-demo-web/internal/session"
)

type RouterDeps struct {
	Cfg      config.Config
	API      BankAPI
	Sessions *session.Store
	Log      *slog.Logger
}

func NewRouter(deps RouterDeps) (http.Handler, error) {
	rd, err := newRenderer(deps.Log)
	if err != nil {
		return nil, err
	}
	p := &pages{api: deps.API, sessions: deps.Sessions, rd: rd, log: deps.Log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover(deps.Log), middleware.AccessLog(deps.Log))
	r.Use(middleware.HTTPMetrics, middleware.RateLimit(deps.Cfg.RateRPS))
	r.Use(chimw.Timeout(deps.Cfg.APITimeout + 5*time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	// ---------- pages ----------
	r.Get("/", p.accounts)
	r.Get("/accounts/{iban}", p.account)
	r.Get("/transfers", p.transfers)

	r.Route("/transfer", func(r chi.Router) {
		r.Get("/", p.transferForm)
		r.Post("/", p.submitTransfer)
		r.Post("/toast/view", p.viewToast)
		r.Post("/toast/close", p.closeToast)
	})

	r.NotFound(p.notFound)
	return r, nil
}
