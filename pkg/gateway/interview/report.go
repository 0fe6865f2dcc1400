package interview

import "time"

// Engagement tiers derived from averaged evaluation scores.
const (
	EngagementHigh   = "High"
	EngagementMedium = "Medium"
	EngagementLow    = "Low"
)

// KPIBundle aggregates per-dimension evaluation averages and session-level
// counters. All dimension scores are on the evaluation 0-10 scale.
type KPIBundle struct {
	CommunicationScore    float64 `json:"communication_score"`
	TechnicalScore        float64 `json:"technical_score"`
	ProblemSolvingScore   float64 `json:"problem_solving_score"`
	ConfidenceScore       float64 `json:"confidence_score"`
	ClarityScore          float64 `json:"clarity_score"`
	QuestionsAnswered     int     `json:"questions_answered"`
	CompletionRate        float64 `json:"completion_rate"`
	EngagementLevel       string  `json:"engagement_level"`
	StrengthsCount        int     `json:"strengths_count"`
	ImprovementAreasCount int     `json:"improvement_areas_count"`
}

// Report is the final scored artifact of a session. Aggregate scores are
// on a 0-100 scale. At most one report exists per session id.
type Report struct {
	SessionID      string    `json:"session_id"`
	CandidateName  string    `json:"candidate_name"`
	CandidateEmail string    `json:"candidate_email"`
	CandidatePhone string    `json:"candidate_phone"`
	InterviewDate  time.Time `json:"interview_date"`

	OverallScore        float64 `json:"overall_score"`
	TechnicalScore      float64 `json:"technical_score"`
	CommunicationScore  float64 `json:"communication_score"`
	ProblemSolvingScore float64 `json:"problem_solving_score"`

	DetailedFeedback    string   `json:"detailed_feedback"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`

	Transcript []DialogueTurn    `json:"interview_transcript"`
	KPIs       KPIBundle         `json:"kpis"`
	Violations []ViolationRecord `json:"proctoring_violations"`
}
