// Package notify delivers finished interview reports over SMTP.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/intervue-ai/intervue/pkg/gateway/interview"
)

// Outcome kinds. Configuration outcomes mean no delivery was attempted.
const (
	KindConfiguration = "configuration"
	KindSending       = "sending"
	KindDelivered     = "delivered"
)

// Outcome reports how a dispatch attempt ended.
type Outcome struct {
	Success bool
	Message string
	Kind    string
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
	UseTLS   bool

	// Recipient overrides the candidate email when set.
	Recipient string
}

// Dispatcher sends report summaries. The zero credentials case is a
// configuration outcome, not an error: no connection is attempted.
type Dispatcher struct {
	cfg    Config
	logger *slog.Logger

	// send is swapped in tests.
	send func(ctx context.Context, msg *mail.Msg) error
}

// New creates a Dispatcher.
func New(cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{cfg: cfg, logger: logger}
	d.send = d.smtpSend
	return d
}

// Configured reports whether SMTP credentials are present.
func (d *Dispatcher) Configured() bool {
	return strings.TrimSpace(d.cfg.Username) != "" && strings.TrimSpace(d.cfg.Password) != ""
}

// DispatchReport emails the report summary to the candidate, or to the
// configured recipient override.
func (d *Dispatcher) DispatchReport(ctx context.Context, rep interview.Report) Outcome {
	if !d.Configured() {
		d.logger.Warn("email credentials not configured, skipping report notification",
			slog.String("session_id", rep.SessionID))
		return Outcome{
			Message: "Email not configured. Please contact administrator to set up email credentials.",
			Kind:    KindConfiguration,
		}
	}

	to := d.cfg.Recipient
	if to == "" {
		to = rep.CandidateEmail
	}
	if strings.TrimSpace(to) == "" {
		return Outcome{
			Message: "No recipient address available for this session.",
			Kind:    KindConfiguration,
		}
	}

	msg, err := d.buildMessage(to, rep)
	if err != nil {
		return Outcome{
			Message: fmt.Sprintf("Failed to build report email: %v", err),
			Kind:    KindSending,
		}
	}

	if err := d.send(ctx, msg); err != nil {
		d.logger.Error("report email delivery failed",
			slog.String("session_id", rep.SessionID),
			slog.String("recipient", to),
			slog.String("error", err.Error()))
		return Outcome{
			Message: fmt.Sprintf("Failed to send report email: %v", err),
			Kind:    KindSending,
		}
	}

	d.logger.Info("report email delivered",
		slog.String("session_id", rep.SessionID),
		slog.String("recipient", to))
	return Outcome{
		Success: true,
		Message: "Interview report sent to " + to,
		Kind:    KindDelivered,
	}
}

func (d *Dispatcher) buildMessage(to string, rep interview.Report) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(d.cfg.FromName, d.cfg.Username); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject("Your Interview Report - " + rep.CandidateName)
	msg.SetBodyString(mail.TypeTextPlain, reportBody(rep))
	return msg, nil
}

func (d *Dispatcher) smtpSend(ctx context.Context, msg *mail.Msg) error {
	tlsPolicy := mail.TLSOpportunistic
	if d.cfg.UseTLS {
		tlsPolicy = mail.TLSMandatory
	}
	client, err := mail.NewClient(d.cfg.Host,
		mail.WithPort(d.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(d.cfg.Username),
		mail.WithPassword(d.cfg.Password),
		mail.WithTLSPolicy(tlsPolicy),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func reportBody(rep interview.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", rep.CandidateName)
	b.WriteString("Thank you for participating in our AI-powered interview process. ")
	b.WriteString("Please find your interview evaluation summary below.\n\n")
	b.WriteString("Interview Summary:\n\n")
	fmt.Fprintf(&b, "- Overall Score: %.1f/100\n", rep.OverallScore)
	fmt.Fprintf(&b, "- Communication Score: %.1f/100\n", rep.CommunicationScore)
	fmt.Fprintf(&b, "- Technical Score: %.1f/100\n", rep.TechnicalScore)
	fmt.Fprintf(&b, "- Interview Date: %s\n\n", rep.InterviewDate.Format(time.DateTime))

	if len(rep.Strengths) > 0 {
		b.WriteString("Strengths:\n")
		for _, s := range rep.Strengths {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
	if len(rep.AreasForImprovement) > 0 {
		b.WriteString("Areas for Improvement:\n")
		for _, s := range rep.AreasForImprovement {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	b.WriteString("We encourage you to review the feedback carefully as it provides valuable insights to help you succeed in future interviews.\n\n")
	b.WriteString("Best regards,\nAI Interview System Team\n\n---\nThis is an automated message. Please do not reply to this email.\n")
	return b.String()
}
