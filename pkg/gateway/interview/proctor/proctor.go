// Package proctor integrates the external exam-integrity collaborator that
// analyzes webcam frames for violations.
package proctor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/intervue-ai/intervue/pkg/core"
	"github.com/intervue-ai/intervue/pkg/gateway/interview"
)

// Service is the proctoring collaborator contract. Implementations must be
// safe for concurrent use across sessions.
type Service interface {
	CreateSession(ctx context.Context, sessionID string) error
	SetReferenceFace(ctx context.Context, sessionID string, imageB64 string) error
	ProcessFrame(ctx context.Context, sessionID string, imageB64 string) ([]interview.ViolationRecord, error)
	EndSession(ctx context.Context, sessionID string) error
}

// HTTPService talks to a proctoring server over JSON HTTP.
type HTTPService struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures an HTTPService.
type Option func(*HTTPService)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPService) {
		s.httpClient = client
	}
}

// NewHTTP creates a proctoring client for baseURL.
func NewHTTP(baseURL string, opts ...Option) *HTTPService {
	s := &HTTPService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPService) CreateSession(ctx context.Context, sessionID string) error {
	return s.post(ctx, "/sessions", map[string]string{"session_id": sessionID}, nil)
}

func (s *HTTPService) SetReferenceFace(ctx context.Context, sessionID string, imageB64 string) error {
	return s.post(ctx, "/sessions/"+sessionID+"/reference-face",
		map[string]string{"image_b64": imageB64}, nil)
}

func (s *HTTPService) ProcessFrame(ctx context.Context, sessionID string, imageB64 string) ([]interview.ViolationRecord, error) {
	var out struct {
		Violations []struct {
			Category  string `json:"category"`
			Message   string `json:"message"`
			Severity  string `json:"severity"`
			Terminate bool   `json:"terminate"`
		} `json:"violations"`
	}
	err := s.post(ctx, "/sessions/"+sessionID+"/frames",
		map[string]string{"image_b64": imageB64}, &out)
	if err != nil {
		return nil, err
	}

	violations := make([]interview.ViolationRecord, 0, len(out.Violations))
	now := time.Now()
	for _, v := range out.Violations {
		violations = append(violations, interview.ViolationRecord{
			Category:  v.Category,
			Message:   v.Message,
			Severity:  v.Severity,
			Terminate: v.Terminate,
			Timestamp: now,
		})
	}
	return violations, nil
}

func (s *HTTPService) EndSession(ctx context.Context, sessionID string) error {
	return s.post(ctx, "/sessions/"+sessionID+"/end", nil, nil)
}

func (s *HTTPService) post(ctx context.Context, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("proctoring request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return s.parseError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *HTTPService) parseError(status int, body []byte) error {
	message := string(body)
	if message == "" {
		message = http.StatusText(status)
	}
	switch {
	case status == http.StatusNotFound:
		return core.NewNotFoundError(message)
	case status >= 500:
		return core.NewProviderError(fmt.Sprintf("proctoring server error (%d): %s", status, message))
	default:
		return core.NewAPIError(fmt.Sprintf("proctoring error (%d): %s", status, message))
	}
}

// Noop is the proctoring service used when no collaborator is configured.
// Frames are accepted and no violations are ever reported.
type Noop struct{}

func (Noop) CreateSession(ctx context.Context, sessionID string) error { return nil }

func (Noop) SetReferenceFace(ctx context.Context, sessionID string, imageB64 string) error {
	return nil
}

func (Noop) ProcessFrame(ctx context.Context, sessionID string, imageB64 string) ([]interview.ViolationRecord, error) {
	return nil, nil
}

func (Noop) EndSession(ctx context.Context, sessionID string) error { return nil }
