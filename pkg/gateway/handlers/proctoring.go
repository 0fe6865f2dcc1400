package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/intervue-ai/intervue/pkg/core"
	"github.com/intervue-ai/intervue/pkg/gateway/config"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/proctor"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/store"
	"github.com/intervue-ai/intervue/pkg/gateway/lifecycle"
	"github.com/intervue-ai/intervue/pkg/gateway/live/protocol"
	"github.com/intervue-ai/intervue/pkg/gateway/live/sessions"
)

// ProctoringHandler handles /v1/live/proctoring websocket sessions. Frames
// go to the proctoring collaborator; violations flow back to the paired
// interview loop and to the proctoring client.
type ProctoringHandler struct {
	Config    config.Config
	Store     *store.Store
	Tracker   *sessions.Tracker
	Proctor   proctor.Service
	Lifecycle *lifecycle.Lifecycle
	Logger    *slog.Logger
}

func (h ProctoringHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if h.Config.LiveMaxJSONMessageBytes > 0 {
		conn.SetReadLimit(h.Config.LiveMaxJSONMessageBytes)
	}

	logger := h.Logger.With(slog.String("session_id", sessionID))
	defer func() {
		if err := h.Proctor.EndSession(r.Context(), sessionID); err != nil {
			logger.Debug("proctoring end failed", slog.String("error", err.Error()))
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			logger.Info("proctoring connection closed", slog.String("error", err.Error()))
			return
		}
		msg, err := protocol.DecodeProctorMessage(data)
		if err != nil {
			logger.Debug("ignoring malformed proctoring frame", slog.String("error", err.Error()))
			continue
		}

		switch m := msg.(type) {
		case protocol.ClientReferenceFace:
			if err := h.Proctor.SetReferenceFace(r.Context(), sessionID, m.ImageB64); err != nil {
				logger.Warn("reference face registration failed", slog.String("error", err.Error()))
			}
		case protocol.ClientProctorFrame:
			violations, err := h.Proctor.ProcessFrame(r.Context(), sessionID, m.ImageB64)
			if err != nil {
				logger.Warn("frame analysis failed", slog.String("error", err.Error()))
				continue
			}
			for _, v := range violations {
				// The interview loop owns the session record; fall back to a
				// direct append when the loop is not connected.
				if !h.Tracker.ReportViolation(sessionID, v) {
					sess.AppendViolation(v)
					h.Store.MirrorAsync(sess)
				}
				h.sendViolation(conn, protocol.NewViolation(v.Category, v.Message, v.Severity, v.Terminate))
			}
		}
	}
}

func (h ProctoringHandler) sendViolation(conn *websocket.Conn, v protocol.ServerViolation) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	timeout := h.Config.LiveWSWriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	_ = conn.WriteMessage(websocket.TextMessage, data)
}
