// Package server wires the gateway's HTTP surface.
package server

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/intervue-ai/intervue/pkg/gateway/config"
	"github.com/intervue-ai/intervue/pkg/gateway/handlers"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/plan"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/proctor"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/store"
	"github.com/intervue-ai/intervue/pkg/gateway/lifecycle"
	"github.com/intervue-ai/intervue/pkg/gateway/live/session"
	"github.com/intervue-ai/intervue/pkg/gateway/live/sessions"
)

// Dependencies holds the collaborators the serving surface routes to.
type Dependencies struct {
	Store     *store.Store
	Catalog   *plan.Catalog
	Tracker   *sessions.Tracker
	Lifecycle *lifecycle.Lifecycle
	Proctor   proctor.Service

	Evaluator  session.Evaluator
	Speech     session.Synthesizer
	Aggregator session.Aggregator
	Notifier   session.Notifier
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	deps   Dependencies
	mux    *http.ServeMux
}

// NewUpstreamClient builds the shared HTTP client for outbound provider
// calls, with the gateway's dial and response-header budgets.
func NewUpstreamClient(cfg config.Config) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: cfg.UpstreamConnectTimeout,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: cfg.UpstreamResponseHeaderTimeout,
		},
	}
}

func New(cfg config.Config, logger *slog.Logger, deps Dependencies) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		deps:   deps,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("GET /healthz", handlers.HealthHandler{})

	s.mux.Handle("POST /v1/interviews", handlers.CreateSessionHandler{
		Config:    s.cfg,
		Store:     s.deps.Store,
		Catalog:   s.deps.Catalog,
		Proctor:   s.deps.Proctor,
		Lifecycle: s.deps.Lifecycle,
		Logger:    s.logger,
	})
	s.mux.Handle("GET /v1/interviews/{id}", handlers.GetSessionHandler{
		Store:  s.deps.Store,
		Logger: s.logger,
	})
	s.mux.Handle("GET /v1/interviews/{id}/report", handlers.GetReportHandler{
		Store:  s.deps.Store,
		Logger: s.logger,
	})

	s.mux.Handle("GET /v1/live/interview", handlers.LiveHandler{
		Config:     s.cfg,
		Store:      s.deps.Store,
		Tracker:    s.deps.Tracker,
		Lifecycle:  s.deps.Lifecycle,
		Logger:     s.logger,
		Evaluator:  s.deps.Evaluator,
		Speech:     s.deps.Speech,
		Aggregator: s.deps.Aggregator,
		Notifier:   s.deps.Notifier,
	})
	s.mux.Handle("GET /v1/live/proctoring", handlers.ProctoringHandler{
		Config:    s.cfg,
		Store:     s.deps.Store,
		Tracker:   s.deps.Tracker,
		Proctor:   s.deps.Proctor,
		Lifecycle: s.deps.Lifecycle,
		Logger:    s.logger,
	})

	// Synthesized prompt audio referenced by question frames.
	s.mux.Handle("GET /audio/", http.StripPrefix("/audio/",
		http.FileServer(http.Dir(s.cfg.AudioDir))))
}

func (s *Server) Handler() http.Handler {
	return s.mux
}
