package eval

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/intervue-ai/intervue/pkg/core"
)

type fakeCompleter struct {
	calls atomic.Int64
	fn    func(system, user string) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls.Add(1)
	return f.fn(system, user)
}

func newEvaluator(c Completer) *Evaluator {
	return New(Config{
		Timeout:          5 * time.Second,
		RateLimitBackoff: time.Millisecond,
	}, Dependencies{Completer: c})
}

const sampleCompletion = `SCORE: 8
TECHNICAL_ACCURACY: 7.5
COMMUNICATION_CLARITY: 9
RELEVANCE: 8
DEPTH: 6
CONFIDENCE: 7
PROBLEM_SOLVING: 8
STRENGTHS: Clear structure, correct core concept
WEAKNESSES: Missing edge cases
FEEDBACK: Good answer overall.
FOLLOW_UP_SUGGESTION: Ask about failure modes.`

func TestEvaluateParsesRubric(t *testing.T) {
	c := &fakeCompleter{fn: func(system, user string) (string, error) {
		if !strings.Contains(user, "QUESTION ASKED") {
			t.Fatalf("expected text prompt, got: %.80s", user)
		}
		return sampleCompletion, nil
	}}
	rec := newEvaluator(c).Evaluate(context.Background(), "Explain goroutines.", "They are lightweight threads.")

	if rec.Scores.Overall != 8 || rec.Scores.TechnicalAccuracy != 7.5 {
		t.Fatalf("scores = %+v", rec.Scores)
	}
	if rec.Strengths != "Clear structure, correct core concept" {
		t.Fatalf("strengths = %q", rec.Strengths)
	}
	if rec.FollowUpSuggestion != "Ask about failure modes." {
		t.Fatalf("follow up = %q", rec.FollowUpSuggestion)
	}
}

func TestEvaluateDetectsCodingAnswers(t *testing.T) {
	c := &fakeCompleter{fn: func(system, user string) (string, error) {
		if !strings.Contains(system, "coding assessments") {
			t.Fatalf("expected coding system prompt, got: %.80s", system)
		}
		if !strings.Contains(user, "func reverse") {
			t.Fatalf("code body missing from prompt")
		}
		if strings.Contains(user, "[CODE]") {
			t.Fatalf("fences must be stripped from the prompt")
		}
		return sampleCompletion, nil
	}}
	answer := "Here is my solution [CODE]func reverse(s string) string { return s }[/CODE] it runs in O(n)."
	rec := newEvaluator(c).Evaluate(context.Background(), "Reverse a string.", answer)
	if rec.Answer != answer {
		t.Fatalf("record must keep the original answer")
	}
}

func TestEvaluateClampsAndDefaults(t *testing.T) {
	c := &fakeCompleter{fn: func(system, user string) (string, error) {
		return "SCORE: 15\nTECHNICAL_ACCURACY: -3\nFEEDBACK: ok", nil
	}}
	rec := newEvaluator(c).Evaluate(context.Background(), "q", "a")

	if rec.Scores.Overall != 10 {
		t.Fatalf("overall = %v, want clamped 10", rec.Scores.Overall)
	}
	if rec.Scores.TechnicalAccuracy != 0 {
		t.Fatalf("technical = %v, want clamped 0", rec.Scores.TechnicalAccuracy)
	}
	if rec.Scores.Depth != 5 {
		t.Fatalf("depth = %v, want default 5", rec.Scores.Depth)
	}
	if rec.Strengths != "Not available" {
		t.Fatalf("strengths = %q", rec.Strengths)
	}
	if rec.Feedback != "ok" {
		t.Fatalf("feedback = %q", rec.Feedback)
	}
}

func TestEvaluateRetriesRateLimits(t *testing.T) {
	c := &fakeCompleter{}
	c.fn = func(system, user string) (string, error) {
		if c.calls.Load() < 3 {
			return "", core.NewRateLimitError("slow down", 0)
		}
		return sampleCompletion, nil
	}
	rec := newEvaluator(c).Evaluate(context.Background(), "q", "a")

	if got := c.calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
	if rec.Scores.Overall != 8 {
		t.Fatalf("overall = %v, want 8", rec.Scores.Overall)
	}
}

func TestEvaluateNeutralOnProviderFailure(t *testing.T) {
	c := &fakeCompleter{fn: func(system, user string) (string, error) {
		return "", fmt.Errorf("connection refused")
	}}
	rec := newEvaluator(c).Evaluate(context.Background(), "q", "a")

	if got := c.calls.Load(); got != 1 {
		t.Fatalf("calls = %d, non-429 failures must not retry", got)
	}
	if rec.Scores.Overall != 5 || rec.Scores.Confidence != 5 {
		t.Fatalf("scores = %+v, want all neutral", rec.Scores)
	}
	if rec.Weaknesses != "Evaluation temporarily unavailable" {
		t.Fatalf("weaknesses = %q", rec.Weaknesses)
	}
}

func TestParseRubricMultilineSections(t *testing.T) {
	completion := "SCORE: 6\nSTRENGTHS: first strength\nsecond strength\nWEAKNESSES: vague"
	scores, text := parseRubric(completion)
	if scores.Overall != 6 {
		t.Fatalf("overall = %v", scores.Overall)
	}
	if !strings.Contains(text.Strengths, "second strength") {
		t.Fatalf("strengths = %q, want multi-line capture", text.Strengths)
	}
	if text.Weaknesses != "vague" {
		t.Fatalf("weaknesses = %q", text.Weaknesses)
	}
}

func TestParseScoreTolerantOfCommentary(t *testing.T) {
	if got := parseScore("8.5 - solid work"); got != 8.5 {
		t.Fatalf("got %v", got)
	}
	if got := parseScore("7/10"); got != 7 {
		t.Fatalf("got %v", got)
	}
	if got := parseScore("excellent"); got != 5 {
		t.Fatalf("got %v, want default", got)
	}
}
