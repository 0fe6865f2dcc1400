// Package interview holds the domain model for live interview sessions:
// the session entity, its dialogue and question plan, evaluation and
// violation records, and the final report.
package interview

import (
	"sync"
	"time"
)

// State is the session lifecycle state.
type State string

const (
	StateAwaitingConsent State = "awaiting_consent"
	StateActive          State = "active"
	StateConcluded       State = "concluded"
)

// Dialogue roles.
const (
	RoleInterviewer = "interviewer"
	RoleCandidate   = "candidate"
)

// Candidate identifies the interviewee.
type Candidate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// DialogueTurn is one utterance by either party. Turns are append-only and
// never reordered or mutated once recorded.
type DialogueTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// QuestionItem is one planned question.
type QuestionItem struct {
	Text string `json:"text"`
	Kind string `json:"kind"` // "text" or "coding"
}

// RubricScores are the seven bounded sub-scores of one evaluation, each in
// [0,10].
type RubricScores struct {
	Overall              float64 `json:"overall_score"`
	TechnicalAccuracy    float64 `json:"technical_accuracy"`
	CommunicationClarity float64 `json:"communication_clarity"`
	Relevance            float64 `json:"relevance"`
	Depth                float64 `json:"depth"`
	Confidence           float64 `json:"confidence"`
	ProblemSolving       float64 `json:"problem_solving"`
}

// EvaluationRecord is the scored assessment of one candidate answer.
type EvaluationRecord struct {
	Question           string       `json:"question"`
	Answer             string       `json:"answer"`
	Scores             RubricScores `json:"scores"`
	Strengths          string       `json:"strengths"`
	Weaknesses         string       `json:"weaknesses"`
	Feedback           string       `json:"feedback"`
	FollowUpSuggestion string       `json:"follow_up_suggestion"`
	Timestamp          time.Time    `json:"timestamp"`
}

// ViolationRecord is one proctoring violation reported by the external
// collaborator.
type ViolationRecord struct {
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Terminate bool      `json:"terminate"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one candidate's end-to-end interview instance. A session is
// owned by exactly one orchestrator at a time; evaluation tasks spawned by
// the owner append records concurrently, so mutating accessors are
// mutex-guarded.
type Session struct {
	mu sync.Mutex

	id        string
	candidate Candidate
	plan      []QuestionItem

	textTimer    time.Duration
	codingTimer  time.Duration
	maxQuestions int

	state          State
	dialogue       []DialogueTurn
	cursor         int
	lastQuestion   string
	lastKind       string
	evaluations    []EvaluationRecord
	violations     []ViolationRecord
	totalScore     float64
	averageScore   float64
	active         bool
	reportNotified bool

	createdAt   time.Time
	completedAt time.Time
}

// NewSession creates a session in the consent-gate state.
func NewSession(id string, candidate Candidate, plan []QuestionItem) *Session {
	return &Session{
		id:        id,
		candidate: candidate,
		plan:      plan,
		state:     StateAwaitingConsent,
		active:    true,
		createdAt: time.Now(),
	}
}

// ID returns the opaque session identifier.
func (s *Session) ID() string { return s.id }

// Candidate returns the interviewee identity.
func (s *Session) Candidate() Candidate { return s.candidate }

// PlanLength returns the number of planned questions.
func (s *Session) PlanLength() int { return len(s.plan) }

// SetTimers configures the per-kind answer timers.
func (s *Session) SetTimers(text, coding time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textTimer = text
	s.codingTimer = coding
}

// Timers returns the per-kind answer timers.
func (s *Session) Timers() (text, coding time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textTimer, s.codingTimer
}

// SetMaxQuestions caps how many questions this session may deliver.
func (s *Session) SetMaxQuestions(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxQuestions = n
}

// MaxQuestions returns the session question cap.
func (s *Session) MaxQuestions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxQuestions
}

// AppendTurn records one utterance in arrival order.
func (s *Session) AppendTurn(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialogue = append(s.dialogue, DialogueTurn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// NextQuestion returns the question under the cursor and advances it by
// exactly one. ok is false when the plan is exhausted; the cursor never
// moves past the plan length.
func (s *Session) NextQuestion() (QuestionItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.plan) {
		return QuestionItem{}, false
	}
	item := s.plan[s.cursor]
	s.cursor++
	s.lastQuestion = item.Text
	s.lastKind = item.Kind
	return item, true
}

// Cursor returns the current question cursor.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// LastQuestion returns the most recently delivered question text.
func (s *Session) LastQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuestion
}

// LastQuestionKind returns the kind of the most recently delivered
// question. It survives snapshots so a reconnect re-delivers a pending
// coding question with the coding timer.
func (s *Session) LastQuestionKind() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKind
}

// SetLastQuestion records the prompt currently awaiting an answer.
func (s *Session) SetLastQuestion(text, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuestion = text
	s.lastKind = kind
}

// GrantConsent transitions the session out of the consent gate.
func (s *Session) GrantConsent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAwaitingConsent {
		s.state = StateActive
	}
}

// ConsentGranted reports whether the consent gate has been passed.
func (s *Session) ConsentGranted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateAwaitingConsent
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AppendEvaluation records one completed evaluation and folds it into the
// running score accumulator. Records are never removed.
func (s *Session) AppendEvaluation(rec EvaluationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluations = append(s.evaluations, rec)
	s.totalScore += rec.Scores.Overall
	s.averageScore = s.totalScore / float64(len(s.evaluations))
}

// AppendViolation records one proctoring violation.
func (s *Session) AppendViolation(v ViolationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	s.violations = append(s.violations, v)
}

// Conclude moves the session to its terminal state. Safe to call more than
// once.
func (s *Session) Conclude() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConcluded {
		return
	}
	s.state = StateConcluded
	s.active = false
	s.completedAt = time.Now()
}

// Concluded reports whether the session reached its terminal state.
func (s *Session) Concluded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateConcluded
}

// MarkNotified flips the at-most-once notification marker. It returns true
// only for the caller that performed the flip; every later call sees false.
func (s *Session) MarkNotified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reportNotified {
		return false
	}
	s.reportNotified = true
	return true
}

// Notified reports whether the report notification marker is set.
func (s *Session) Notified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reportNotified
}

// AverageScore returns the running mean of overall scores.
func (s *Session) AverageScore() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.averageScore
}

// EvaluationCount returns how many evaluations have completed so far.
func (s *Session) EvaluationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.evaluations)
}

// DialogueSnapshot returns a copy of the dialogue safe to read outside the
// session lock.
func (s *Session) DialogueSnapshot() []DialogueTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DialogueTurn, len(s.dialogue))
	copy(out, s.dialogue)
	return out
}

// EvaluationsSnapshot returns a copy of the evaluation list.
func (s *Session) EvaluationsSnapshot() []EvaluationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EvaluationRecord, len(s.evaluations))
	copy(out, s.evaluations)
	return out
}

// ViolationsSnapshot returns a copy of the violation list.
func (s *Session) ViolationsSnapshot() []ViolationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ViolationRecord, len(s.violations))
	copy(out, s.violations)
	return out
}
