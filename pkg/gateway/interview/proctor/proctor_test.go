package proctor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/intervue-ai/intervue/pkg/core"
)

func TestProcessFrameDecodesViolations(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body struct {
			ImageB64 string `json:"image_b64"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.ImageB64 != "aGVsbG8=" {
			t.Fatalf("image = %q", body.ImageB64)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"violations": []map[string]any{
				{"category": "multiple_faces", "message": "2 faces detected", "severity": "high", "terminate": true},
			},
		})
	}))
	defer server.Close()

	svc := NewHTTP(server.URL)
	violations, err := svc.ProcessFrame(context.Background(), "sess-1", "aGVsbG8=")
	if err != nil {
		t.Fatalf("process frame: %v", err)
	}
	if gotPath != "/sessions/sess-1/frames" {
		t.Fatalf("path = %q", gotPath)
	}
	if len(violations) != 1 {
		t.Fatalf("violations = %+v", violations)
	}
	v := violations[0]
	if v.Category != "multiple_faces" || !v.Terminate || v.Timestamp.IsZero() {
		t.Fatalf("violation = %+v", v)
	}
}

func TestProcessFrameNoViolations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"violations": []any{}})
	}))
	defer server.Close()

	violations, err := NewHTTP(server.URL).ProcessFrame(context.Background(), "sess-1", "aGVsbG8=")
	if err != nil {
		t.Fatalf("process frame: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("violations = %+v", violations)
	}
}

func TestErrorClassification(t *testing.T) {
	status := http.StatusNotFound
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()
	svc := NewHTTP(server.URL)

	if err := svc.EndSession(context.Background(), "missing"); !core.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}

	status = http.StatusBadGateway
	err := svc.CreateSession(context.Background(), "sess-1")
	var ce *core.Error
	if !errors.As(err, &ce) || ce.Type != core.ErrProvider {
		t.Fatalf("err = %v, want provider error", err)
	}
}

func TestNoopNeverReports(t *testing.T) {
	var svc Service = Noop{}
	if err := svc.CreateSession(context.Background(), "s"); err != nil {
		t.Fatalf("create: %v", err)
	}
	violations, err := svc.ProcessFrame(context.Background(), "s", "aGVsbG8=")
	if err != nil || len(violations) != 0 {
		t.Fatalf("violations = %v err = %v", violations, err)
	}
}
