package interview

import "time"

// Record is the serializable snapshot of a Session, the shape written to
// the durable tier. Mirroring always serializes a Record, never the live
// entity.
type Record struct {
	ID        string         `json:"session_id"`
	Candidate Candidate      `json:"candidate"`
	Plan      []QuestionItem `json:"plan"`

	TextTimerSeconds   int `json:"text_timer_seconds"`
	CodingTimerSeconds int `json:"coding_timer_seconds"`
	MaxQuestions       int `json:"max_questions"`

	State          State              `json:"state"`
	Dialogue       []DialogueTurn     `json:"dialogue"`
	Cursor         int                `json:"cursor"`
	LastQuestion   string             `json:"last_question"`
	LastKind       string             `json:"last_question_kind,omitempty"`
	Evaluations    []EvaluationRecord `json:"evaluations"`
	Violations     []ViolationRecord  `json:"violations"`
	TotalScore     float64            `json:"total_score"`
	AverageScore   float64            `json:"average_score"`
	Active         bool               `json:"active"`
	ReportNotified bool               `json:"report_notified"`

	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Snapshot copies the session into a Record under the session lock.
func (s *Session) Snapshot() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Record{
		ID:                 s.id,
		Candidate:          s.candidate,
		TextTimerSeconds:   int(s.textTimer.Seconds()),
		CodingTimerSeconds: int(s.codingTimer.Seconds()),
		MaxQuestions:       s.maxQuestions,
		State:              s.state,
		Cursor:             s.cursor,
		LastQuestion:       s.lastQuestion,
		LastKind:           s.lastKind,
		TotalScore:         s.totalScore,
		AverageScore:       s.averageScore,
		Active:             s.active,
		ReportNotified:     s.reportNotified,
		CreatedAt:          s.createdAt,
		CompletedAt:        s.completedAt,
	}
	r.Plan = append([]QuestionItem(nil), s.plan...)
	r.Dialogue = append([]DialogueTurn(nil), s.dialogue...)
	r.Evaluations = append([]EvaluationRecord(nil), s.evaluations...)
	r.Violations = append([]ViolationRecord(nil), s.violations...)
	return r
}

// FromRecord rebuilds a live session from its durable snapshot.
func FromRecord(r Record) *Session {
	s := &Session{
		id:             r.ID,
		candidate:      r.Candidate,
		plan:           append([]QuestionItem(nil), r.Plan...),
		textTimer:      time.Duration(r.TextTimerSeconds) * time.Second,
		codingTimer:    time.Duration(r.CodingTimerSeconds) * time.Second,
		maxQuestions:   r.MaxQuestions,
		state:          r.State,
		dialogue:       append([]DialogueTurn(nil), r.Dialogue...),
		cursor:         r.Cursor,
		lastQuestion:   r.LastQuestion,
		lastKind:       r.LastKind,
		evaluations:    append([]EvaluationRecord(nil), r.Evaluations...),
		violations:     append([]ViolationRecord(nil), r.Violations...),
		totalScore:     r.TotalScore,
		averageScore:   r.AverageScore,
		active:         r.Active,
		reportNotified: r.ReportNotified,
		createdAt:      r.CreatedAt,
		completedAt:    r.CompletedAt,
	}
	if s.state == "" {
		s.state = StateAwaitingConsent
	}
	return s
}
