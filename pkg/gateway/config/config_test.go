package config

import (
	"testing"
	"time"
)

var configEnvKeys = []string{
	"INTERVUE_ADDR",
	"INTERVUE_DATABASE_URL",
	"INTERVUE_AUDIO_DIR",
	"INTERVUE_PLAN_CATALOG",
	"OPENROUTER_API_KEY",
	"INTERVUE_OPENROUTER_BASE_URL",
	"INTERVUE_OPENROUTER_MODEL",
	"INTERVUE_EVAL_TIMEOUT",
	"SARVAM_API_KEY",
	"INTERVUE_SPEECH_TIMEOUT",
	"EMAIL_SMTP_SERVER",
	"EMAIL_SMTP_PORT",
	"EMAIL_USERNAME",
	"EMAIL_PASSWORD",
	"EMAIL_FROM_NAME",
	"EMAIL_USE_TLS",
	"INTERVUE_REPORT_RECIPIENT",
	"INTERVUE_PROCTOR_BASE_URL",
	"INTERVUE_MAX_QUESTIONS",
	"INTERVUE_TEXT_QUESTION_TIMER",
	"INTERVUE_CODING_QUESTION_TIMER",
	"INTERVUE_EVAL_DRAIN_TIMEOUT",
	"INTERVUE_REPORT_TIMEOUT",
	"INTERVUE_MIRROR_TIMEOUT",
	"INTERVUE_LIVE_HANDSHAKE_TIMEOUT",
	"INTERVUE_LIVE_WS_WRITE_TIMEOUT",
	"INTERVUE_LIVE_WS_PING_INTERVAL",
	"INTERVUE_LIVE_MAX_JSON_MESSAGE_BYTES",
	"INTERVUE_READ_HEADER_TIMEOUT",
	"INTERVUE_READ_TIMEOUT",
	"INTERVUE_SHUTDOWN_GRACE_PERIOD",
	"INTERVUE_CONNECT_TIMEOUT",
	"INTERVUE_RESPONSE_HEADER_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":8500" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.MaxQuestions != 7 {
		t.Fatalf("MaxQuestions = %d", cfg.MaxQuestions)
	}
	if cfg.TextQuestionTimer != 2*time.Minute {
		t.Fatalf("TextQuestionTimer = %v", cfg.TextQuestionTimer)
	}
	if cfg.CodingQuestionTimer != 5*time.Minute {
		t.Fatalf("CodingQuestionTimer = %v", cfg.CodingQuestionTimer)
	}
	if cfg.EvalDrainTimeout != 10*time.Second {
		t.Fatalf("EvalDrainTimeout = %v", cfg.EvalDrainTimeout)
	}
	if cfg.ReportTimeout != 90*time.Second {
		t.Fatalf("ReportTimeout = %v", cfg.ReportTimeout)
	}
	if cfg.SMTPPort != 587 || !cfg.SMTPUseTLS {
		t.Fatalf("SMTP defaults = %d tls=%v", cfg.SMTPPort, cfg.SMTPUseTLS)
	}
	if cfg.NotificationConfigured() {
		t.Fatalf("notification should be unconfigured by default")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("INTERVUE_ADDR", ":9000")
	t.Setenv("INTERVUE_MAX_QUESTIONS", "3")
	t.Setenv("INTERVUE_REPORT_TIMEOUT", "2m")
	t.Setenv("EMAIL_USERNAME", "ops@example.com")
	t.Setenv("EMAIL_PASSWORD", "hunter2")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.MaxQuestions != 3 {
		t.Fatalf("MaxQuestions = %d", cfg.MaxQuestions)
	}
	if cfg.ReportTimeout != 2*time.Minute {
		t.Fatalf("ReportTimeout = %v", cfg.ReportTimeout)
	}
	if !cfg.NotificationConfigured() {
		t.Fatalf("notification should be configured")
	}
}

func TestLoadFromEnv_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("INTERVUE_MAX_QUESTIONS", "not-a-number")
	t.Setenv("INTERVUE_REPORT_TIMEOUT", "soon")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.MaxQuestions != 7 {
		t.Fatalf("MaxQuestions = %d, want default 7", cfg.MaxQuestions)
	}
	if cfg.ReportTimeout != 90*time.Second {
		t.Fatalf("ReportTimeout = %v, want default", cfg.ReportTimeout)
	}
}
