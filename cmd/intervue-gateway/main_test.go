package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/intervue-ai/intervue/pkg/gateway/config"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/store"
)

func TestRunMain_ReturnsNonZeroWhenConfigLoadFails(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	exitCode := runMain(context.Background(), &stderr, gatewayDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{}, errors.New("boom")
		},
		newDurable: func(ctx context.Context, databaseURL string) (*store.Postgres, error) {
			t.Fatalf("newDurable should not be called when config load fails")
			return nil, nil
		},
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {},
		signalStop:   func(c chan<- os.Signal) {},
	})

	if exitCode != 1 {
		t.Fatalf("exitCode=%d, want 1", exitCode)
	}
	if got := stderr.String(); got == "" {
		t.Fatalf("expected stderr output for startup error")
	}
}

func TestRunGateway_FailsWhenDurableStoreUnavailable(t *testing.T) {
	t.Parallel()

	err := runGateway(context.Background(), nil, gatewayDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{
				Addr:             "127.0.0.1:0",
				DatabaseURL:      "postgres://nope",
				AudioDir:         t.TempDir(),
				MaxQuestions:     7,
				EvalDrainTimeout: time.Second,
				ReportTimeout:    time.Second,
			}, nil
		},
		newDurable: func(ctx context.Context, databaseURL string) (*store.Postgres, error) {
			return nil, errors.New("connection refused")
		},
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {},
		signalStop:   func(c chan<- os.Signal) {},
	})
	if err == nil {
		t.Fatalf("expected error when durable store cannot be opened")
	}
}

func TestBuildHTTPServer_UsesConfiguredAddress(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Addr:              "127.0.0.1:9999",
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       3 * time.Second,
	}

	srv := buildHTTPServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if srv.Addr != cfg.Addr {
		t.Fatalf("Addr=%q, want %q", srv.Addr, cfg.Addr)
	}
	if srv.ReadHeaderTimeout != cfg.ReadHeaderTimeout {
		t.Fatalf("ReadHeaderTimeout=%v, want %v", srv.ReadHeaderTimeout, cfg.ReadHeaderTimeout)
	}
	if srv.ReadTimeout != cfg.ReadTimeout {
		t.Fatalf("ReadTimeout=%v, want %v", srv.ReadTimeout, cfg.ReadTimeout)
	}
}

func TestBuildCatalog_FallsBackOnMissingPath(t *testing.T) {
	t.Parallel()

	catalog := buildCatalog(config.Config{PlanCatalogPath: "/does/not/exist.yaml"}, nil)
	if catalog == nil {
		t.Fatalf("expected fallback catalog")
	}
	if tmpl := catalog.First(); len(tmpl.Items()) == 0 {
		t.Fatalf("fallback catalog is empty")
	}
}
