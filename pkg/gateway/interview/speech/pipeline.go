// Package speech turns interviewer prompts into audio artifacts served
// alongside the live dialogue.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/intervue-ai/intervue/pkg/core"
	corespeech "github.com/intervue-ai/intervue/pkg/core/speech"
)

// Config holds pipeline tuning.
type Config struct {
	// AudioDir is where synthesized artifacts land. Created on demand.
	AudioDir string

	// Timeout bounds each provider call.
	Timeout time.Duration

	// FallbackRetries is how many times the fallback provider is attempted
	// after the primary fails.
	FallbackRetries uint64

	// FallbackDelay is the pause between fallback attempts.
	FallbackDelay time.Duration

	// Options are passed to every synthesis call.
	Options corespeech.SynthesizeOptions
}

// Dependencies holds the pipeline's providers.
type Dependencies struct {
	// Primary is optional. Nil means every prompt goes straight to the
	// fallback.
	Primary corespeech.Provider

	// Fallback is attempted with constant-delay retries when the primary
	// fails or is absent.
	Fallback corespeech.Provider

	Logger *slog.Logger
}

// Pipeline synthesizes one prompt at a time: primary provider once, then the
// fallback with bounded retries. Exhausting the fallback surfaces an error;
// the dialogue layer decides whether to degrade to text-only.
type Pipeline struct {
	primary  corespeech.Provider
	fallback corespeech.Provider
	logger   *slog.Logger

	audioDir        string
	timeout         time.Duration
	fallbackRetries uint64
	fallbackDelay   time.Duration
	opts            corespeech.SynthesizeOptions
}

// New creates a Pipeline with defaults filled in.
func New(cfg Config, deps Dependencies) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AudioDir == "" {
		cfg.AudioDir = "audio_files"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FallbackRetries == 0 {
		cfg.FallbackRetries = 3
	}
	if cfg.FallbackDelay <= 0 {
		cfg.FallbackDelay = 2 * time.Second
	}
	if cfg.Options.Language == "" {
		cfg.Options.Language = "en-IN"
	}
	return &Pipeline{
		primary:         deps.Primary,
		fallback:        deps.Fallback,
		logger:          logger,
		audioDir:        cfg.AudioDir,
		timeout:         cfg.Timeout,
		fallbackRetries: cfg.FallbackRetries,
		fallbackDelay:   cfg.FallbackDelay,
		opts:            cfg.Options,
	}
}

// Synthesize produces an audio artifact for text and returns its filename
// handle, relative to the audio directory. An empty handle with a nil error
// means synthesis was skipped; exhausting the fallback's retries is the one
// case that errors, so the caller can tell degradation from a skip.
func (p *Pipeline) Synthesize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	syn, err := p.trySynthesize(ctx, text)
	if err != nil {
		return "", err
	}
	if syn == nil {
		return "", nil
	}

	name := fmt.Sprintf("audio_%s.%s", uuid.NewString(), syn.Format)
	if err := p.write(name, syn.Audio); err != nil {
		p.logger.Warn("audio write failed",
			slog.String("file", name),
			slog.String("error", err.Error()))
		return "", nil
	}
	return name, nil
}

func (p *Pipeline) trySynthesize(ctx context.Context, text string) (*corespeech.Synthesis, error) {
	if p.primary != nil {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		syn, err := p.primary.Synthesize(callCtx, text, p.opts)
		cancel()
		if err == nil {
			return syn, nil
		}
		p.logger.Warn("primary synthesis failed, switching to fallback",
			slog.String("provider", p.primary.Name()),
			slog.String("error", err.Error()))
		if core.IsConfiguration(err) {
			// No point re-sending an unauthenticated request next prompt,
			// but the fallback below needs no credentials.
			p.primary = nil
		}
	}

	if p.fallback == nil {
		return nil, nil
	}

	var syn *corespeech.Synthesis
	backoff := retry.WithMaxRetries(p.fallbackRetries, retry.NewConstant(p.fallbackDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		out, err := p.fallback.Synthesize(callCtx, text, p.opts)
		if err != nil {
			return retry.RetryableError(err)
		}
		syn = out
		return nil
	})
	if err != nil {
		p.logger.Warn("fallback synthesis exhausted",
			slog.String("provider", p.fallback.Name()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("fallback synthesis exhausted: %w", err)
	}
	return syn, nil
}

func (p *Pipeline) write(name string, audio []byte) error {
	if err := os.MkdirAll(p.audioDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(p.audioDir, name), audio, 0o644)
}

// AudioDir returns the directory artifacts are written to.
func (p *Pipeline) AudioDir() string {
	return p.audioDir
}
