package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/intervue-ai/intervue/pkg/core"
	"github.com/intervue-ai/intervue/pkg/gateway/config"
	"github.com/intervue-ai/intervue/pkg/gateway/interview"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/store"
	"github.com/intervue-ai/intervue/pkg/gateway/lifecycle"
	"github.com/intervue-ai/intervue/pkg/gateway/live/session"
	"github.com/intervue-ai/intervue/pkg/gateway/live/sessions"
)

// LiveHandler handles /v1/live/interview websocket sessions.
type LiveHandler struct {
	Config    config.Config
	Store     *store.Store
	Tracker   *sessions.Tracker
	Lifecycle *lifecycle.Lifecycle
	Logger    *slog.Logger

	Evaluator  session.Evaluator
	Speech     session.Synthesizer
	Aggregator session.Aggregator
	Notifier   session.Notifier
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Lifecycle.IsDraining() {
		writeErrorJSON(w, &core.Error{
			Type: core.ErrOverloaded, Message: "gateway is draining", Code: "draining",
		}, http.StatusServiceUnavailable)
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeError(w, core.NewInvalidRequestError("session_id is required"))
		return
	}
	sess, err := h.Store.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if sess.Concluded() {
		writeError(w, core.NewInvalidRequestError("session already concluded: "+sessionID))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	orch, err := session.New(session.Config{
		WriteTimeout:        h.Config.LiveWSWriteTimeout,
		MaxJSONMessageBytes: h.Config.LiveMaxJSONMessageBytes,
		EvalDrainTimeout:    h.Config.EvalDrainTimeout,
		ReportTimeout:       h.Config.ReportTimeout,
	}, session.Dependencies{
		Conn:       conn,
		Session:    sess,
		Logger:     h.Logger,
		Evaluator:  h.Evaluator,
		Speech:     h.Speech,
		Aggregator: h.Aggregator,
		Notifier:   h.Notifier,
		Store:      h.Store,
	})
	if err != nil {
		h.Logger.Error("orchestrator setup failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	unregister := h.Tracker.Register(sessionID, sessions.Handle{
		Cancel: cancel,
		Violation: func(v interview.ViolationRecord) {
			orch.ReportViolation(v)
		},
	})
	defer unregister()

	if err := orch.Run(ctx); err != nil && ctx.Err() == nil {
		h.Logger.Warn("live session ended with error",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
	}
}
