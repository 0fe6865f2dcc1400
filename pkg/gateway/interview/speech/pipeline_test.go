package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	corespeech "github.com/intervue-ai/intervue/pkg/core/speech"
)

type fakeProvider struct {
	name  string
	calls atomic.Int64
	fn    func(text string) (*corespeech.Synthesis, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Synthesize(ctx context.Context, text string, opts corespeech.SynthesizeOptions) (*corespeech.Synthesis, error) {
	f.calls.Add(1)
	return f.fn(text)
}

func newPipeline(t *testing.T, primary, fallback corespeech.Provider) *Pipeline {
	t.Helper()
	return New(Config{
		AudioDir:      t.TempDir(),
		Timeout:       time.Second,
		FallbackDelay: time.Millisecond,
	}, Dependencies{Primary: primary, Fallback: fallback})
}

func TestSynthesizeUsesPrimaryFirst(t *testing.T) {
	primary := &fakeProvider{name: "sarvam", fn: func(string) (*corespeech.Synthesis, error) {
		return &corespeech.Synthesis{Audio: []byte("wav-bytes"), Format: "wav"}, nil
	}}
	fallback := &fakeProvider{name: "translate", fn: func(string) (*corespeech.Synthesis, error) {
		t.Fatalf("fallback must not run when primary succeeds")
		return nil, nil
	}}
	p := newPipeline(t, primary, fallback)

	name, err := p.Synthesize(context.Background(), "Tell me about yourself.")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !strings.HasPrefix(name, "audio_") || !strings.HasSuffix(name, ".wav") {
		t.Fatalf("handle = %q", name)
	}
	data, err := os.ReadFile(filepath.Join(p.AudioDir(), name))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "wav-bytes" {
		t.Fatalf("artifact = %q", data)
	}
}

func TestSynthesizeFallsBackWithRetries(t *testing.T) {
	primary := &fakeProvider{name: "sarvam", fn: func(string) (*corespeech.Synthesis, error) {
		return nil, fmt.Errorf("upstream 500")
	}}
	fallback := &fakeProvider{name: "translate"}
	fallback.fn = func(string) (*corespeech.Synthesis, error) {
		if fallback.calls.Load() < 3 {
			return nil, fmt.Errorf("transient")
		}
		return &corespeech.Synthesis{Audio: []byte("mp3"), Format: "mp3"}, nil
	}
	p := newPipeline(t, primary, fallback)

	name, err := p.Synthesize(context.Background(), "Explain goroutines.")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !strings.HasSuffix(name, ".mp3") {
		t.Fatalf("handle = %q", name)
	}
	if got := fallback.calls.Load(); got != 3 {
		t.Fatalf("fallback calls = %d, want 3", got)
	}
}

func TestSynthesizeErrorsWhenFallbackExhausted(t *testing.T) {
	fallback := &fakeProvider{name: "translate", fn: func(string) (*corespeech.Synthesis, error) {
		return nil, fmt.Errorf("unreachable")
	}}
	p := newPipeline(t, nil, fallback)

	name, err := p.Synthesize(context.Background(), "Explain channels.")
	if err == nil {
		t.Fatalf("exhausted fallback must surface an error")
	}
	if name != "" {
		t.Fatalf("handle = %q, want empty", name)
	}
	// 1 initial attempt + 3 retries.
	if got := fallback.calls.Load(); got != 4 {
		t.Fatalf("fallback calls = %d, want 4", got)
	}
}

func TestSynthesizeSkipsWhenNoFallbackConfigured(t *testing.T) {
	primary := &fakeProvider{name: "sarvam", fn: func(string) (*corespeech.Synthesis, error) {
		return nil, fmt.Errorf("upstream 500")
	}}
	p := newPipeline(t, primary, nil)

	name, err := p.Synthesize(context.Background(), "Explain select.")
	if err != nil || name != "" {
		t.Fatalf("name = %q err = %v, want silent skip", name, err)
	}
}

func TestSynthesizeSkipsEmptyText(t *testing.T) {
	fallback := &fakeProvider{name: "translate", fn: func(string) (*corespeech.Synthesis, error) {
		t.Fatalf("no provider call expected for empty text")
		return nil, nil
	}}
	p := newPipeline(t, nil, fallback)

	name, err := p.Synthesize(context.Background(), "   ")
	if err != nil || name != "" {
		t.Fatalf("name = %q err = %v", name, err)
	}
}
