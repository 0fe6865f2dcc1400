package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/intervue-ai/intervue/pkg/gateway/config"
	"github.com/intervue-ai/intervue/pkg/gateway/interview"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/notify"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/plan"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/proctor"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/store"
	"github.com/intervue-ai/intervue/pkg/gateway/lifecycle"
	"github.com/intervue-ai/intervue/pkg/gateway/live/sessions"
)

type stubEvaluator struct{}

func (stubEvaluator) Evaluate(ctx context.Context, question, answer string) interview.EvaluationRecord {
	return interview.EvaluationRecord{
		Question: question,
		Answer:   answer,
		Scores:   interview.RubricScores{Overall: 7},
	}
}

type stubAggregator struct{}

func (stubAggregator) Generate(ctx context.Context, sess *interview.Session) interview.Report {
	return interview.Report{SessionID: sess.ID(), OverallScore: 70}
}

type stubNotifier struct{}

func (stubNotifier) DispatchReport(ctx context.Context, rep interview.Report) notify.Outcome {
	return notify.Outcome{Success: true, Kind: notify.KindDelivered}
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	cfg := config.Config{
		AudioDir:            t.TempDir(),
		MaxQuestions:        7,
		TextQuestionTimer:   2 * time.Minute,
		CodingQuestionTimer: 5 * time.Minute,
		EvalDrainTimeout:    2 * time.Second,
		ReportTimeout:       5 * time.Second,
		LiveWSWriteTimeout:  2 * time.Second,
	}
	st := store.New(store.Config{}, store.Dependencies{})
	srv := New(cfg, nil, Dependencies{
		Store:      st,
		Catalog:    plan.Default(),
		Tracker:    sessions.NewTracker(),
		Lifecycle:  &lifecycle.Lifecycle{},
		Proctor:    proctor.Noop{},
		Evaluator:  stubEvaluator{},
		Aggregator: stubAggregator{},
		Notifier:   stubNotifier{},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok\n" {
		t.Fatalf("body = %q", body)
	}
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/interviews", "application/json", strings.NewReader(`{
		"candidate": {"name": "Ada"},
		"questions": [{"text": "Explain goroutines."}]
	}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return created.SessionID
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return frame
}

func TestLiveInterviewRoundTrip(t *testing.T) {
	ts, st := newTestServer(t)
	sessionID := createSession(t, ts)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/live/interview?session_id=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	greeting := readFrame(t, conn)
	if greeting["type"] != "question" || !strings.Contains(greeting["content"].(string), "ready to begin") {
		t.Fatalf("greeting = %v", greeting)
	}

	if err := conn.WriteJSON(map[string]any{"type": "text_response", "content": "yes"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	question := readFrame(t, conn)
	if question["type"] != "question" || question["content"] != "Explain goroutines." {
		t.Fatalf("question = %v", question)
	}

	if err := conn.WriteJSON(map[string]any{"type": "text_response", "content": "lightweight threads managed by the runtime"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	processing := readFrame(t, conn)
	if processing["type"] != "processing_response" {
		t.Fatalf("processing = %v", processing)
	}
	concluded := readFrame(t, conn)
	if concluded["type"] != "interview_concluded" {
		t.Fatalf("concluded = %v", concluded)
	}

	// The report lands once the conclusion sequence finishes.
	deadline := time.Now().Add(3 * time.Second)
	for {
		if rep, err := st.Report(context.Background(), sessionID); err == nil {
			if rep.OverallScore != 70 {
				t.Fatalf("report = %+v", rep)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("report never persisted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLiveInterviewUnknownSession(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/live/interview?session_id=missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestProctoringForwardsViolationsToInterview(t *testing.T) {
	ts, st := newTestServer(t)
	sessionID := createSession(t, ts)

	base := "ws" + strings.TrimPrefix(ts.URL, "http")
	interviewConn, _, err := websocket.DefaultDialer.Dial(base+"/v1/live/interview?session_id="+sessionID, nil)
	if err != nil {
		t.Fatalf("dial interview: %v", err)
	}
	defer interviewConn.Close()
	readFrame(t, interviewConn) // greeting

	proctorConn, _, err := websocket.DefaultDialer.Dial(base+"/v1/live/proctoring?session_id="+sessionID, nil)
	if err != nil {
		t.Fatalf("dial proctoring: %v", err)
	}
	defer proctorConn.Close()

	// Noop collaborator reports nothing; the frame is simply accepted.
	if err := proctorConn.WriteJSON(map[string]any{"type": "frame", "image_b64": "aGVsbG8="}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	sess, err := st.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(sess.ViolationsSnapshot()) != 0 {
		t.Fatalf("violations = %+v", sess.ViolationsSnapshot())
	}
}
