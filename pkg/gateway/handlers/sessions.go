package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/intervue-ai/intervue/pkg/core"
	"github.com/intervue-ai/intervue/pkg/gateway/config"
	"github.com/intervue-ai/intervue/pkg/gateway/interview"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/plan"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/proctor"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/store"
	"github.com/intervue-ai/intervue/pkg/gateway/lifecycle"
)

// CreateSessionHandler handles POST /v1/interviews.
type CreateSessionHandler struct {
	Config    config.Config
	Store     *store.Store
	Catalog   *plan.Catalog
	Proctor   proctor.Service
	Lifecycle *lifecycle.Lifecycle
	Logger    *slog.Logger
}

type createSessionRequest struct {
	Candidate interview.Candidate `json:"candidate"`

	// PlanID selects a catalog template. Questions, when present, override
	// the catalog entirely.
	PlanID    string `json:"plan_id,omitempty"`
	Questions []struct {
		Text string `json:"text"`
		Kind string `json:"kind"`
	} `json:"questions,omitempty"`

	MaxQuestions        int `json:"max_questions,omitempty"`
	TextQuestionTimer   int `json:"text_question_timer,omitempty"`
	CodingQuestionTimer int `json:"coding_question_timer,omitempty"`
}

type createSessionResponse struct {
	SessionID           string `json:"session_id"`
	WebsocketURL        string `json:"websocket_url"`
	ProctoringURL       string `json:"proctoring_url"`
	PlanLength          int    `json:"plan_length"`
	MaxQuestions        int    `json:"max_questions"`
	TextQuestionTimer   int    `json:"text_question_timer"`
	CodingQuestionTimer int    `json:"coding_question_timer"`
}

func (h CreateSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Lifecycle.IsDraining() {
		writeErrorJSON(w, &core.Error{
			Type: core.ErrOverloaded, Message: "gateway is draining", Code: "draining",
		}, http.StatusServiceUnavailable)
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.NewInvalidRequestError("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Candidate.Name) == "" {
		writeError(w, core.NewInvalidRequestError("candidate.name is required"))
		return
	}

	items, tpl, err := h.resolvePlan(req)
	if err != nil {
		writeError(w, err)
		return
	}

	textTimer, codingTimer := tpl.Timers(h.Config.TextQuestionTimer, h.Config.CodingQuestionTimer)
	if req.TextQuestionTimer > 0 {
		textTimer = time.Duration(req.TextQuestionTimer) * time.Second
	}
	if req.CodingQuestionTimer > 0 {
		codingTimer = time.Duration(req.CodingQuestionTimer) * time.Second
	}
	maxQuestions := h.Config.MaxQuestions
	if tpl.MaxQuestions > 0 {
		maxQuestions = tpl.MaxQuestions
	}
	if req.MaxQuestions > 0 {
		maxQuestions = req.MaxQuestions
	}

	sess := interview.NewSession(uuid.NewString(), req.Candidate, items)
	sess.SetTimers(textTimer, codingTimer)
	sess.SetMaxQuestions(maxQuestions)

	h.Store.Put(sess)
	h.Store.MirrorAsync(sess)

	if h.Proctor != nil {
		if err := h.Proctor.CreateSession(r.Context(), sess.ID()); err != nil {
			h.Logger.Warn("proctoring session setup failed, continuing without",
				slog.String("session_id", sess.ID()),
				slog.String("error", err.Error()))
		}
	}

	h.Logger.Info("interview session created",
		slog.String("session_id", sess.ID()),
		slog.Int("plan_length", sess.PlanLength()),
		slog.Int("max_questions", maxQuestions))

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:           sess.ID(),
		WebsocketURL:        "/v1/live/interview?session_id=" + sess.ID(),
		ProctoringURL:       "/v1/live/proctoring?session_id=" + sess.ID(),
		PlanLength:          sess.PlanLength(),
		MaxQuestions:        maxQuestions,
		TextQuestionTimer:   int(textTimer.Seconds()),
		CodingQuestionTimer: int(codingTimer.Seconds()),
	})
}

func (h CreateSessionHandler) resolvePlan(req createSessionRequest) ([]interview.QuestionItem, plan.Template, error) {
	if len(req.Questions) > 0 {
		items := make([]interview.QuestionItem, 0, len(req.Questions))
		for i, q := range req.Questions {
			if strings.TrimSpace(q.Text) == "" {
				return nil, plan.Template{}, core.NewInvalidRequestError("questions[" + strconv.Itoa(i) + "].text is required")
			}
			kind := q.Kind
			switch kind {
			case "":
				kind = "text"
			case "text", "coding":
			default:
				return nil, plan.Template{}, core.NewInvalidRequestError("questions[" + strconv.Itoa(i) + "].kind must be text or coding")
			}
			items = append(items, interview.QuestionItem{Text: q.Text, Kind: kind})
		}
		return items, plan.Template{}, nil
	}

	if req.PlanID != "" {
		tpl, ok := h.Catalog.Get(req.PlanID)
		if !ok {
			return nil, plan.Template{}, core.NewNotFoundError("plan not found: " + req.PlanID)
		}
		return tpl.Items(), tpl, nil
	}

	tpl := h.Catalog.First()
	return tpl.Items(), tpl, nil
}

// GetSessionHandler handles GET /v1/interviews/{id}.
type GetSessionHandler struct {
	Store  *store.Store
	Logger *slog.Logger
}

type sessionStatusResponse struct {
	SessionID    string          `json:"session_id"`
	State        interview.State `json:"state"`
	Candidate    string          `json:"candidate"`
	Cursor       int             `json:"questions_delivered"`
	PlanLength   int             `json:"plan_length"`
	Evaluations  int             `json:"evaluations_completed"`
	AverageScore float64         `json:"average_score"`
	Violations   int             `json:"violations"`
}

func (h GetSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionStatusResponse{
		SessionID:    sess.ID(),
		State:        sess.State(),
		Candidate:    sess.Candidate().Name,
		Cursor:       sess.Cursor(),
		PlanLength:   sess.PlanLength(),
		Evaluations:  sess.EvaluationCount(),
		AverageScore: sess.AverageScore(),
		Violations:   len(sess.ViolationsSnapshot()),
	})
}

// GetReportHandler handles GET /v1/interviews/{id}/report.
type GetReportHandler struct {
	Store  *store.Store
	Logger *slog.Logger
}

func (h GetReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	rep, err := h.Store.Report(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
