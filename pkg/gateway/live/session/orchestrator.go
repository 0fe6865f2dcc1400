// Package session runs the live interview dialogue over one websocket
// connection: consent gate, question delivery, silent answer evaluation,
// and the conclusion sequence that produces the report.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/intervue-ai/intervue/pkg/gateway/interview"
	"github.com/intervue-ai/intervue/pkg/gateway/interview/notify"
	"github.com/intervue-ai/intervue/pkg/gateway/live/protocol"
)

// Consent is granted when the candidate's reply contains any of these.
var consentKeywords = []string{"yes", "sure", "ready", "start", "okay", "go ahead", "begin"}

// timeoutSentinel is recorded when the question timer expired with no
// answer. It is never evaluated and is filtered out of report transcripts.
const timeoutSentinel = "[No response - Time expired]"

// Conn is the slice of *websocket.Conn the orchestrator needs.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Evaluator scores one answer. Implementations never fail; outages yield
// neutral records.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string) interview.EvaluationRecord
}

// Synthesizer produces an audio artifact handle for a prompt. An empty
// handle means the prompt goes out as text only.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Aggregator builds the final report for a session.
type Aggregator interface {
	Generate(ctx context.Context, sess *interview.Session) interview.Report
}

// Notifier delivers a finished report.
type Notifier interface {
	DispatchReport(ctx context.Context, rep interview.Report) notify.Outcome
}

// ReportStore is the slice of the session store the orchestrator uses.
type ReportStore interface {
	PutReport(ctx context.Context, rep interview.Report, status string) error
	MirrorAsync(sess *interview.Session)
	Evict(id string)
}

// Config holds orchestrator tuning.
type Config struct {
	WriteTimeout        time.Duration
	MaxJSONMessageBytes int64

	// EvalDrainTimeout bounds the wait for in-flight evaluations at
	// conclusion.
	EvalDrainTimeout time.Duration

	// ReportTimeout bounds report aggregation. Expiry means no report for
	// this session, never a hang.
	ReportTimeout time.Duration
}

// Dependencies holds orchestrator collaborators.
type Dependencies struct {
	Conn    Conn
	Session *interview.Session
	Logger  *slog.Logger

	Evaluator  Evaluator
	Speech     Synthesizer
	Aggregator Aggregator
	Notifier   Notifier
	Store      ReportStore

	Now func() time.Time
}

// Orchestrator owns one session for the lifetime of its connection.
type Orchestrator struct {
	conn   Conn
	sess   *interview.Session
	logger *slog.Logger

	evaluator  Evaluator
	speech     Synthesizer
	aggregator Aggregator
	notifier   Notifier
	store      ReportStore

	cfg Config
	now func() time.Time

	tasks *taskGroup

	terminateOnce sync.Once
	terminate     chan struct{}

	wroteConcluded bool
}

// New creates an Orchestrator with defaults filled in.
func New(cfg Config, deps Dependencies) (*Orchestrator, error) {
	if deps.Conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if deps.Evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if deps.Aggregator == nil {
		return nil, fmt.Errorf("aggregator is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.EvalDrainTimeout <= 0 {
		cfg.EvalDrainTimeout = 10 * time.Second
	}
	if cfg.ReportTimeout <= 0 {
		cfg.ReportTimeout = 90 * time.Second
	}
	return &Orchestrator{
		conn:       deps.Conn,
		sess:       deps.Session,
		logger:     deps.Logger.With(slog.String("session_id", deps.Session.ID())),
		evaluator:  deps.Evaluator,
		speech:     deps.Speech,
		aggregator: deps.Aggregator,
		notifier:   deps.Notifier,
		store:      deps.Store,
		cfg:        cfg,
		now:        deps.Now,
		terminate:  make(chan struct{}),
	}, nil
}

// ReportViolation records a proctoring violation against the session. A
// terminate-flagged violation trips the dialogue loop.
func (o *Orchestrator) ReportViolation(v interview.ViolationRecord) {
	o.sess.AppendViolation(v)
	o.logger.Warn("proctoring violation",
		slog.String("category", v.Category),
		slog.String("severity", v.Severity),
		slog.Bool("terminate", v.Terminate))
	if v.Terminate {
		o.terminateOnce.Do(func() { close(o.terminate) })
	}
}

type inboundFrame struct {
	data []byte
	err  error
}

// Run drives the dialogue until conclusion or disconnect. The connection is
// not closed here; the handler that upgraded it owns the close.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.cfg.MaxJSONMessageBytes > 0 {
		o.conn.SetReadLimit(o.cfg.MaxJSONMessageBytes)
	}
	o.tasks = newTaskGroup(context.Background())

	inbound := make(chan inboundFrame, 16)
	done := make(chan struct{})
	defer close(done)
	go o.readLoop(inbound, done)

	o.greet(ctx)

	defer o.concludeSession(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.terminate:
			o.logger.Warn("session terminated by proctoring violation")
			o.writeConcluded(ctx,
				"The interview has been terminated due to a proctoring violation.")
			return nil
		case frame := <-inbound:
			if frame.err != nil {
				o.logger.Info("connection closed", slog.String("error", frame.err.Error()))
				return nil
			}
			msg, err := protocol.DecodeClientMessage(frame.data)
			if err != nil {
				// Malformed frames never end an interview.
				o.logger.Debug("ignoring malformed frame", slog.String("error", err.Error()))
				continue
			}
			switch m := msg.(type) {
			case protocol.ClientEndInterview:
				o.logger.Info("client requested end of interview")
				o.writeConcluded(ctx,
					"Thank you for your time. Your interview report will be available shortly.")
				return nil
			case protocol.ClientTextResponse:
				if finished := o.handleAnswer(ctx, m); finished {
					return nil
				}
			}
		}
	}
}

// readLoop pumps frames into the dialogue loop. Once the loop has exited
// nothing drains inbound, so sends race the done channel instead of
// blocking forever behind a chatty client.
func (o *Orchestrator) readLoop(inbound chan<- inboundFrame, done <-chan struct{}) {
	for {
		_, data, err := o.conn.ReadMessage()
		if err != nil {
			select {
			case inbound <- inboundFrame{err: err}:
			case <-done:
			}
			return
		}
		select {
		case inbound <- inboundFrame{data: data}:
		case <-done:
			return
		}
	}
}

// greet opens the dialogue. Fresh sessions get the consent prompt; a
// reconnecting active session gets its pending question again.
func (o *Orchestrator) greet(ctx context.Context) {
	if o.sess.ConsentGranted() {
		if q := o.sess.LastQuestion(); q != "" {
			o.writeQuestion(ctx, q, o.lastQuestionKind())
		}
		return
	}
	text, coding := o.sess.Timers()
	greeting := fmt.Sprintf(
		"I'm an AI interviewer. I'm here to conduct a technical interview with you. You'll have %s for text questions and %s for coding questions. Are you ready to begin?",
		minutesPhrase(text), minutesPhrase(coding))
	// A pre-consent reconnect re-sends the greeting without recording a
	// duplicate interviewer turn.
	if len(o.sess.DialogueSnapshot()) == 0 {
		o.sess.AppendTurn(interview.RoleInterviewer, greeting)
	}
	o.writeQuestion(ctx, greeting, protocol.QuestionKindText)
}

// handleAnswer processes one candidate reply. It reports whether the
// conclusion frame was sent and the loop should exit.
func (o *Orchestrator) handleAnswer(ctx context.Context, msg protocol.ClientTextResponse) bool {
	content := strings.TrimSpace(msg.Content)
	empty := content == "" || strings.HasPrefix(content, "[No response")

	if empty && !msg.TimeoutSubmission {
		reprompt := "I didn't catch that. Could you please repeat your answer?"
		o.writeQuestion(ctx, reprompt, o.lastQuestionKind())
		return false
	}

	if !o.sess.ConsentGranted() {
		return o.handleConsent(ctx, content)
	}

	if empty {
		content = timeoutSentinel
	}
	o.sess.AppendTurn(interview.RoleCandidate, content)

	// Evaluation runs silently off the dialogue path. Timeout sentinels
	// carry nothing to score.
	if content != timeoutSentinel {
		o.writeJSON(ctx, protocol.NewProcessing("Thank you for your response. Processing next question..."))
		question := o.sess.LastQuestion()
		answer := content
		o.tasks.Go(func(taskCtx context.Context) {
			rec := o.evaluator.Evaluate(taskCtx, question, answer)
			o.sess.AppendEvaluation(rec)
			o.logger.Info("answer evaluated",
				slog.Float64("score", rec.Scores.Overall),
				slog.Float64("average", o.sess.AverageScore()))
		})
	}

	done := !o.deliverNextQuestion(ctx)
	o.store.MirrorAsync(o.sess)
	return done
}

func (o *Orchestrator) handleConsent(ctx context.Context, content string) bool {
	o.sess.AppendTurn(interview.RoleCandidate, content)
	if !isAffirmative(content) {
		o.writeQuestion(ctx, "Just let me know when you're ready to begin the interview.", protocol.QuestionKindText)
		return false
	}

	o.sess.GrantConsent()
	o.logger.Info("consent received, starting interview")
	done := !o.deliverNextQuestion(ctx)
	o.store.MirrorAsync(o.sess)
	return done
}

// deliverNextQuestion advances the plan cursor and sends the question, or
// sends the conclusion frame when the plan or the question cap is spent. It
// reports whether the interview continues.
func (o *Orchestrator) deliverNextQuestion(ctx context.Context) bool {
	if maxQ := o.sess.MaxQuestions(); maxQ > 0 && o.sess.Cursor() >= maxQ {
		o.writeConcluded(ctx,
			"Thank you for attending the interview. Your report will be generated shortly.")
		return false
	}
	q, ok := o.sess.NextQuestion()
	if !ok {
		o.writeConcluded(ctx,
			"Thank you for attending the interview. Your report will be generated shortly.")
		return false
	}

	o.sess.AppendTurn(interview.RoleInterviewer, q.Text)
	o.writeQuestion(ctx, q.Text, q.Kind)
	return true
}

// concludeSession runs the conclusion sequence exactly once, whatever path
// ended the loop: drain evaluations, aggregate, persist, notify, evict.
func (o *Orchestrator) concludeSession(ctx context.Context) {
	if o.sess.Concluded() {
		return
	}

	if !o.tasks.Drain(o.cfg.EvalDrainTimeout) {
		o.logger.Warn("evaluation drain timed out, proceeding with report",
			slog.Duration("timeout", o.cfg.EvalDrainTimeout))
	}

	reportCtx, cancel := context.WithTimeout(context.Background(), o.cfg.ReportTimeout)
	defer cancel()
	rep := o.aggregator.Generate(reportCtx, o.sess)

	if reportCtx.Err() != nil {
		o.logger.Error("report generation timed out, no report for this session")
	} else {
		if err := o.store.PutReport(reportCtx, rep, "completed"); err != nil {
			o.logger.Error("report persistence failed", slog.String("error", err.Error()))
		}
		if o.notifier != nil && o.sess.MarkNotified() {
			outcome := o.notifier.DispatchReport(reportCtx, rep)
			if !outcome.Success {
				o.logger.Warn("report notification not delivered",
					slog.String("kind", outcome.Kind),
					slog.String("message", outcome.Message))
			}
		}
	}

	o.sess.Conclude()
	o.store.MirrorAsync(o.sess)
	o.store.Evict(o.sess.ID())
	o.logger.Info("session concluded",
		slog.Int("questions_delivered", o.sess.Cursor()),
		slog.Int("evaluations", o.sess.EvaluationCount()))
}

func (o *Orchestrator) writeQuestion(ctx context.Context, text, kind string) {
	textTimer, codingTimer := o.sess.Timers()
	timer := textTimer
	if kind == protocol.QuestionKindCoding {
		timer = codingTimer
	}
	audio := o.synthesize(ctx, text)
	o.writeJSON(ctx, protocol.NewQuestion(text, audio, kind, int(timer.Seconds())))
}

func (o *Orchestrator) writeConcluded(ctx context.Context, text string) {
	if o.wroteConcluded {
		return
	}
	o.wroteConcluded = true
	o.sess.AppendTurn(interview.RoleInterviewer, text)
	audio := o.synthesize(ctx, text)
	o.writeJSON(ctx, protocol.NewConcluded(text, audio, o.sess.EvaluationCount()))
}

func (o *Orchestrator) synthesize(ctx context.Context, text string) string {
	if o.speech == nil {
		return ""
	}
	audio, err := o.speech.Synthesize(ctx, text)
	if err != nil {
		o.logger.Warn("speech synthesis failed", slog.String("error", err.Error()))
		return ""
	}
	return audio
}

func (o *Orchestrator) writeJSON(ctx context.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		o.logger.Error("encode outbound frame", slog.String("error", err.Error()))
		return
	}
	_ = o.conn.SetWriteDeadline(o.now().Add(o.cfg.WriteTimeout))
	if err := o.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		o.logger.Debug("outbound write failed", slog.String("error", err.Error()))
	}
}

// lastQuestionKind is the kind of the question currently awaiting an
// answer; it decides the timer on a re-prompt or a reconnect re-delivery.
// The session carries it so it survives durable snapshots.
func (o *Orchestrator) lastQuestionKind() string {
	if kind := o.sess.LastQuestionKind(); kind != "" {
		return kind
	}
	return protocol.QuestionKindText
}

func isAffirmative(content string) bool {
	lower := strings.ToLower(content)
	for _, kw := range consentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func minutesPhrase(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
