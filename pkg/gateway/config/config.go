package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Durable tier. Empty means the gateway runs memory-only and session
	// state does not survive the process.
	DatabaseURL string

	// Directory for synthesized audio artifacts.
	AudioDir string

	// Optional YAML catalog of interview plan templates.
	PlanCatalogPath string

	// Reasoning provider (evaluations + report narratives).
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	EvalTimeout       time.Duration

	// Speech synthesis.
	SarvamAPIKey  string
	SpeechTimeout time.Duration

	// Report notification over SMTP.
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFromName    string
	SMTPUseTLS      bool
	ReportRecipient string

	// Proctoring collaborator base URL. Empty disables proctoring.
	ProctorBaseURL string

	// Interview pacing defaults, overridable per plan template.
	MaxQuestions        int
	TextQuestionTimer   time.Duration
	CodingQuestionTimer time.Duration

	// Shutdown sequencing for a concluding session.
	EvalDrainTimeout time.Duration
	ReportTimeout    time.Duration
	MirrorTimeout    time.Duration

	// Live WebSocket mode.
	LiveHandshakeTimeout    time.Duration
	LiveWSWriteTimeout      time.Duration
	LiveWSPingInterval      time.Duration
	LiveMaxJSONMessageBytes int64

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration

	// Upstream HTTP client defaults.
	UpstreamConnectTimeout        time.Duration
	UpstreamResponseHeaderTimeout time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                          envOr("INTERVUE_ADDR", ":8500"),
		DatabaseURL:                   envOr("INTERVUE_DATABASE_URL", ""),
		AudioDir:                      envOr("INTERVUE_AUDIO_DIR", "audio_files"),
		PlanCatalogPath:               envOr("INTERVUE_PLAN_CATALOG", ""),
		OpenRouterAPIKey:              envOr("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:             envOr("INTERVUE_OPENROUTER_BASE_URL", ""),
		OpenRouterModel:               envOr("INTERVUE_OPENROUTER_MODEL", ""),
		EvalTimeout:                   envDurationOr("INTERVUE_EVAL_TIMEOUT", 45*time.Second),
		SarvamAPIKey:                  envOr("SARVAM_API_KEY", ""),
		SpeechTimeout:                 envDurationOr("INTERVUE_SPEECH_TIMEOUT", 30*time.Second),
		SMTPHost:                      envOr("EMAIL_SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:                      envIntOr("EMAIL_SMTP_PORT", 587),
		SMTPUsername:                  envOr("EMAIL_USERNAME", ""),
		SMTPPassword:                  envOr("EMAIL_PASSWORD", ""),
		SMTPFromName:                  envOr("EMAIL_FROM_NAME", "AI Interview System"),
		SMTPUseTLS:                    envBoolOr("EMAIL_USE_TLS", true),
		ReportRecipient:               envOr("INTERVUE_REPORT_RECIPIENT", ""),
		ProctorBaseURL:                envOr("INTERVUE_PROCTOR_BASE_URL", ""),
		MaxQuestions:                  envIntOr("INTERVUE_MAX_QUESTIONS", 7),
		TextQuestionTimer:             envDurationOr("INTERVUE_TEXT_QUESTION_TIMER", 2*time.Minute),
		CodingQuestionTimer:           envDurationOr("INTERVUE_CODING_QUESTION_TIMER", 5*time.Minute),
		EvalDrainTimeout:              envDurationOr("INTERVUE_EVAL_DRAIN_TIMEOUT", 10*time.Second),
		ReportTimeout:                 envDurationOr("INTERVUE_REPORT_TIMEOUT", 90*time.Second),
		MirrorTimeout:                 envDurationOr("INTERVUE_MIRROR_TIMEOUT", 10*time.Second),
		LiveHandshakeTimeout:          envDurationOr("INTERVUE_LIVE_HANDSHAKE_TIMEOUT", 5*time.Second),
		LiveWSWriteTimeout:            envDurationOr("INTERVUE_LIVE_WS_WRITE_TIMEOUT", 5*time.Second),
		LiveWSPingInterval:            envDurationOr("INTERVUE_LIVE_WS_PING_INTERVAL", 20*time.Second),
		LiveMaxJSONMessageBytes:       envInt64Or("INTERVUE_LIVE_MAX_JSON_MESSAGE_BYTES", 1<<20), // 1 MiB, coding answers included
		ReadHeaderTimeout:             envDurationOr("INTERVUE_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:                   envDurationOr("INTERVUE_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod:           envDurationOr("INTERVUE_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		UpstreamConnectTimeout:        envDurationOr("INTERVUE_CONNECT_TIMEOUT", 10*time.Second),
		UpstreamResponseHeaderTimeout: envDurationOr("INTERVUE_RESPONSE_HEADER_TIMEOUT", 30*time.Second),
	}

	if cfg.MaxQuestions <= 0 {
		return Config{}, fmt.Errorf("INTERVUE_MAX_QUESTIONS must be > 0")
	}
	if cfg.EvalDrainTimeout <= 0 {
		return Config{}, fmt.Errorf("INTERVUE_EVAL_DRAIN_TIMEOUT must be > 0")
	}
	if cfg.ReportTimeout <= 0 {
		return Config{}, fmt.Errorf("INTERVUE_REPORT_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(cfg.AudioDir) == "" {
		return Config{}, fmt.Errorf("INTERVUE_AUDIO_DIR must not be empty")
	}
	return cfg, nil
}

// NotificationConfigured reports whether SMTP credentials are present.
func (c Config) NotificationConfigured() bool {
	return strings.TrimSpace(c.SMTPUsername) != "" && strings.TrimSpace(c.SMTPPassword) != ""
}

func envOr(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func envIntOr(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func envInt64Or(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

func envDurationOr(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return d
}
