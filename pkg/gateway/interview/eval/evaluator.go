// Package eval scores candidate answers against a fixed rubric using a
// completion provider.
package eval

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/intervue-ai/intervue/pkg/core"
	"github.com/intervue-ai/intervue/pkg/gateway/interview"
)

// Completer produces a completion for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config holds evaluator tuning.
type Config struct {
	// Timeout bounds each provider call, retries included.
	Timeout time.Duration

	// RateLimitRetries is how many extra attempts follow a 429.
	RateLimitRetries uint64

	// RateLimitBackoff is the base of the exponential backoff between
	// rate-limited attempts. Jitter is applied on top.
	RateLimitBackoff time.Duration
}

// Dependencies holds evaluator collaborators.
type Dependencies struct {
	Completer Completer
	Logger    *slog.Logger
}

// Evaluator scores one answer at a time. Evaluate never fails: a provider
// outage yields a neutral record so the interview can continue.
type Evaluator struct {
	completer Completer
	logger    *slog.Logger

	timeout          time.Duration
	rateLimitRetries uint64
	rateLimitBackoff time.Duration
}

// New creates an Evaluator with defaults filled in.
func New(cfg Config, deps Dependencies) *Evaluator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.RateLimitRetries == 0 {
		cfg.RateLimitRetries = 3
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = time.Second
	}
	return &Evaluator{
		completer:        deps.Completer,
		logger:           logger,
		timeout:          cfg.Timeout,
		rateLimitRetries: cfg.RateLimitRetries,
		rateLimitBackoff: cfg.RateLimitBackoff,
	}
}

// Evaluate scores one question/answer pair. Coding answers, marked by
// [CODE]...[/CODE] fences, are judged on the code body alone.
func (e *Evaluator) Evaluate(ctx context.Context, question, answer string) interview.EvaluationRecord {
	system := textSystemPrompt
	user := textEvaluationPrompt(question, answer)
	if isCodingAnswer(answer) {
		code, explanation := splitCodingAnswer(answer)
		system = codingSystemPrompt
		user = codingEvaluationPrompt(question, code, explanation)
	}

	completion, err := e.complete(ctx, system, user)
	if err != nil {
		e.logger.Warn("evaluation failed, recording neutral scores",
			slog.String("error", err.Error()))
		return neutralRecord(question, answer)
	}

	scores, text := parseRubric(completion)
	return interview.EvaluationRecord{
		Question:           question,
		Answer:             answer,
		Scores:             scores,
		Strengths:          text.Strengths,
		Weaknesses:         text.Weaknesses,
		Feedback:           text.Feedback,
		FollowUpSuggestion: text.FollowUpSuggestion,
		Timestamp:          time.Now(),
	}
}

// complete calls the provider, retrying only rate-limit failures with
// exponential backoff plus jitter.
func (e *Evaluator) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	backoff := retry.WithJitterPercent(20,
		retry.WithMaxRetries(e.rateLimitRetries, retry.NewExponential(e.rateLimitBackoff)))

	var completion string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := e.completer.Complete(ctx, system, user)
		if err != nil {
			if core.IsRateLimit(err) {
				e.logger.Warn("evaluation rate limited, backing off")
				return retry.RetryableError(err)
			}
			return err
		}
		completion = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return completion, nil
}

// neutralRecord is the score recorded when the provider cannot be reached.
func neutralRecord(question, answer string) interview.EvaluationRecord {
	return interview.EvaluationRecord{
		Question: question,
		Answer:   answer,
		Scores: interview.RubricScores{
			Overall:              defaultScore,
			TechnicalAccuracy:    defaultScore,
			CommunicationClarity: defaultScore,
			Relevance:            defaultScore,
			Depth:                defaultScore,
			Confidence:           defaultScore,
			ProblemSolving:       defaultScore,
		},
		Strengths:          "Response provided",
		Weaknesses:         "Evaluation temporarily unavailable",
		Feedback:           "Please continue with the interview",
		FollowUpSuggestion: "Ask a follow-up question based on the response",
		Timestamp:          time.Now(),
	}
}
