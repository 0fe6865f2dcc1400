package notify

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/wneessen/go-mail"

	"github.com/intervue-ai/intervue/pkg/gateway/interview"
)

func sampleReport() interview.Report {
	return interview.Report{
		SessionID:          "sess-1",
		CandidateName:      "Ada Lovelace",
		CandidateEmail:     "ada@example.com",
		OverallScore:       72.5,
		TechnicalScore:     68,
		CommunicationScore: 80,
		Strengths:          []string{"clear reasoning"},
	}
}

func TestDispatchWithoutCredentialsIsConfigurationOutcome(t *testing.T) {
	d := New(Config{Host: "smtp.example.com", Port: 587}, nil)
	d.send = func(ctx context.Context, msg *mail.Msg) error {
		t.Fatalf("no delivery attempt expected without credentials")
		return nil
	}

	out := d.DispatchReport(context.Background(), sampleReport())
	if out.Success || out.Kind != KindConfiguration {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestDispatchDeliversToCandidate(t *testing.T) {
	d := New(Config{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "bot@example.com",
		Password: "secret",
		FromName: "AI Interview System",
	}, nil)

	var sent *mail.Msg
	d.send = func(ctx context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	}

	out := d.DispatchReport(context.Background(), sampleReport())
	if !out.Success || out.Kind != KindDelivered {
		t.Fatalf("outcome = %+v", out)
	}
	if sent == nil {
		t.Fatalf("message not sent")
	}
	to := sent.GetToString()
	if len(to) != 1 || !strings.Contains(to[0], "ada@example.com") {
		t.Fatalf("to = %v", to)
	}
}

func TestDispatchRecipientOverride(t *testing.T) {
	d := New(Config{
		Host: "smtp.example.com", Port: 587,
		Username: "bot@example.com", Password: "secret",
		Recipient: "hiring@example.com",
	}, nil)

	var sent *mail.Msg
	d.send = func(ctx context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	}

	out := d.DispatchReport(context.Background(), sampleReport())
	if !out.Success {
		t.Fatalf("outcome = %+v", out)
	}
	to := sent.GetToString()
	if len(to) != 1 || !strings.Contains(to[0], "hiring@example.com") {
		t.Fatalf("to = %v", to)
	}
}

func TestDispatchTransportFailureIsSendingOutcome(t *testing.T) {
	d := New(Config{
		Host: "smtp.example.com", Port: 587,
		Username: "bot@example.com", Password: "secret",
	}, nil)
	d.send = func(ctx context.Context, msg *mail.Msg) error {
		return fmt.Errorf("dial tcp: connection refused")
	}

	out := d.DispatchReport(context.Background(), sampleReport())
	if out.Success || out.Kind != KindSending {
		t.Fatalf("outcome = %+v", out)
	}
	if !strings.Contains(out.Message, "connection refused") {
		t.Fatalf("message = %q", out.Message)
	}
}

func TestDispatchMissingRecipient(t *testing.T) {
	d := New(Config{
		Host: "smtp.example.com", Port: 587,
		Username: "bot@example.com", Password: "secret",
	}, nil)

	rep := sampleReport()
	rep.CandidateEmail = ""
	out := d.DispatchReport(context.Background(), rep)
	if out.Success || out.Kind != KindConfiguration {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestReportBodyMentionsScores(t *testing.T) {
	body := reportBody(sampleReport())
	for _, want := range []string{"Dear Ada Lovelace", "72.5/100", "80.0/100", "clear reasoning"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}
