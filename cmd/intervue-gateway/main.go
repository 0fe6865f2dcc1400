package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/intervue-ai/intervue/pkg/core/providers/openrouter"
	corespeech "github.com/intervue-ai/intervue/pkg/core/speech"
	"github.com/intervue-ai/intervue/pkg/gateway/config"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/eval"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/notify"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/plan"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/proctor"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/report"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/speech"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/store"
	"github.com/intervue-ai/intervue/pkg/gateway/lifecycle"
	"github.com/intervue-ai/intervue/pkg/gateway/live/sessions"
	gatewayserver "github.com/intervue-ai/intervue/pkg/gateway/server"
)

type gatewayDeps struct {
	loadConfig   func() (config.Config, error)
	newDurable   func(ctx context.Context, databaseURL string) (*store.Postgres, error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultGatewayDeps() gatewayDeps {
	return gatewayDeps{
		loadConfig:   config.LoadFromEnv,
		newDurable:   store.NewPostgres,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) },
		signalStop:   signal.Stop,
	}
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

// buildCatalog loads the plan catalog from disk when configured, falling back
// to the built-in general template.
func buildCatalog(cfg config.Config, logger *slog.Logger) *plan.Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PlanCatalogPath == "" {
		return plan.Default()
	}
	catalog, err := plan.Load(cfg.PlanCatalogPath)
	if err != nil {
		logger.Warn("plan catalog load failed, using built-in plans",
			"path", cfg.PlanCatalogPath, "error", err.Error())
		return plan.Default()
	}
	return catalog
}

func buildSpeechPipeline(cfg config.Config, client *http.Client, logger *slog.Logger) *speech.Pipeline {
	var primary corespeech.Provider
	if cfg.SarvamAPIKey != "" {
		primary = corespeech.NewSarvamWithClient(cfg.SarvamAPIKey, client)
	}
	return speech.New(speech.Config{
		AudioDir: cfg.AudioDir,
		Timeout:  cfg.SpeechTimeout,
	}, speech.Dependencies{
		Primary:  primary,
		Fallback: corespeech.NewTranslateWithClient(client),
		Logger:   logger,
	})
}

func runGateway(ctx context.Context, logger *slog.Logger, deps gatewayDeps) error {
	if deps.loadConfig == nil {
		return errors.New("missing loadConfig dependency")
	}
	if deps.newDurable == nil {
		return errors.New("missing newDurable dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var durable store.Durable
	var pg *store.Postgres
	if cfg.DatabaseURL != "" {
		pg, err = deps.newDurable(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open durable store: %w", err)
		}
		defer pg.Close()
		durable = pg
	} else {
		logger.Warn("no database configured, sessions will not survive the process")
	}

	sessionStore := store.New(store.Config{
		MirrorTimeout: cfg.MirrorTimeout,
	}, store.Dependencies{
		Durable: durable,
		Logger:  logger,
	})

	upstream := gatewayserver.NewUpstreamClient(cfg)
	completer := openrouter.New(cfg.OpenRouterAPIKey,
		openrouter.WithBaseURL(cfg.OpenRouterBaseURL),
		openrouter.WithModel(cfg.OpenRouterModel),
		openrouter.WithHTTPClient(upstream))

	var proctorSvc proctor.Service = proctor.Noop{}
	if cfg.ProctorBaseURL != "" {
		proctorSvc = proctor.NewHTTP(cfg.ProctorBaseURL, proctor.WithHTTPClient(upstream))
	}

	tracker := sessions.NewTracker()
	lc := &lifecycle.Lifecycle{}

	gw := gatewayserver.New(cfg, logger, gatewayserver.Dependencies{
		Store:     sessionStore,
		Catalog:   buildCatalog(cfg, logger),
		Tracker:   tracker,
		Lifecycle: lc,
		Proctor:   proctorSvc,
		Evaluator: eval.New(eval.Config{
			Timeout: cfg.EvalTimeout,
		}, eval.Dependencies{
			Completer: completer,
			Logger:    logger,
		}),
		Speech: buildSpeechPipeline(cfg, upstream, logger),
		Aggregator: report.New(report.Dependencies{
			Completer: completer,
			Logger:    logger,
		}),
		Notifier: notify.New(notify.Config{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromName:  cfg.SMTPFromName,
			UseTLS:    cfg.SMTPUseTLS,
			Recipient: cfg.ReportRecipient,
		}, logger),
	})
	httpSrv := buildHTTPServer(cfg, gw.Handler())

	logger.Info("starting gateway",
		"addr", cfg.Addr,
		"durable", durable != nil,
		"proctoring", cfg.ProctorBaseURL != "")

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	// Stop admitting new sessions, then let live interviews finish their
	// conclusion sequences before pulling the plug.
	lc.SetDraining(true)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !tracker.Wait(waitCtx) {
		canceled := tracker.CancelAll()
		logger.Warn("live sessions canceled at shutdown", "count", canceled)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	// Outstanding session mirrors flush before the durable pool closes.
	sessionStore.Wait()

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("gateway stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps gatewayDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "intervue-gateway: %v\n", err)
		return 1
	}

	if err := runGateway(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "intervue-gateway: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultGatewayDeps()))
}
