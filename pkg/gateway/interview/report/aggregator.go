// Package report folds a concluded session's evaluations, dialogue, and
// violations into the final scored report.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/intervue-ai/intervue/pkg/gateway/interview"
)

// Completer produces the narrative analysis for a report.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Dependencies holds aggregator collaborators.
type Dependencies struct {
	// Completer is optional. Nil skips the narrative and the report carries
	// the raw evaluation summary alone.
	Completer Completer
	Logger    *slog.Logger
}

// Aggregator builds reports. Generation never fails: a narrative provider
// outage degrades to the evaluation summary without one.
type Aggregator struct {
	completer Completer
	logger    *slog.Logger
}

// New creates an Aggregator.
func New(deps Dependencies) *Aggregator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{completer: deps.Completer, logger: logger}
}

// Generate builds the report for a session. Zero completed evaluations yield
// a zero-score report rather than a neutral-looking one.
func (a *Aggregator) Generate(ctx context.Context, sess *interview.Session) interview.Report {
	evals := sess.EvaluationsSnapshot()
	dialogue := filterDialogue(sess.DialogueSnapshot())
	kpis := computeKPIs(evals, sess.MaxQuestions())

	var avgOverall, avgTechnical, avgCommunication float64
	summary := "No evaluations available"
	var strengths, improvements []string
	if len(evals) > 0 {
		for _, e := range evals {
			avgOverall += e.Scores.Overall
			avgTechnical += e.Scores.TechnicalAccuracy
			avgCommunication += e.Scores.CommunicationClarity
		}
		n := float64(len(evals))
		avgOverall /= n
		avgTechnical /= n
		avgCommunication /= n
		summary = evaluationSummary(evals)
		strengths = collect(evals, func(e interview.EvaluationRecord) string { return e.Strengths })
		improvements = collect(evals, func(e interview.EvaluationRecord) string { return e.Weaknesses })
	}

	candidate := sess.Candidate()
	rep := interview.Report{
		SessionID:           sess.ID(),
		CandidateName:       nameOr(candidate.Name),
		CandidateEmail:      candidate.Email,
		CandidatePhone:      candidate.Phone,
		InterviewDate:       time.Now(),
		OverallScore:        avgOverall * 10, // evaluation scale 0-10, report scale 0-100
		TechnicalScore:      avgTechnical * 10,
		CommunicationScore:  avgCommunication * 10,
		ProblemSolvingScore: kpis.ProblemSolvingScore * 10,
		DetailedFeedback:    summary,
		Strengths:           top(strengths, 5),
		AreasForImprovement: top(improvements, 5),
		Transcript:          dialogue,
		KPIs:                kpis,
		Violations:          sess.ViolationsSnapshot(),
	}

	if analysis := a.narrative(ctx, dialogue, summary); analysis != "" {
		rep.DetailedFeedback = fmt.Sprintf(
			"Real-time AI Evaluations:\n\n%s\n\nOverall Analysis:\n%s", summary, analysis)
	}
	return rep
}

// narrative asks the completion provider for an overall analysis. Any
// failure returns an empty string and the report keeps its raw summary.
func (a *Aggregator) narrative(ctx context.Context, dialogue []interview.DialogueTurn, summary string) string {
	if a.completer == nil {
		return ""
	}

	var transcript strings.Builder
	for _, turn := range dialogue {
		fmt.Fprintf(&transcript, "%s: %s\n", capitalize(turn.Role), turn.Content)
	}

	prompt := fmt.Sprintf(`Generate a comprehensive interview analysis based on the following data:

INTERVIEW TRANSCRIPT:
%s

AI EVALUATION SUMMARY:
%s

Provide detailed analysis covering overall performance, technical skills, communication abilities, and recommendations.
Focus on constructive feedback and specific areas for improvement.`, transcript.String(), summary)

	analysis, err := a.completer.Complete(ctx,
		"You are an experienced technical hiring analyst writing candidate evaluation reports.", prompt)
	if err != nil {
		a.logger.Warn("report narrative failed, keeping raw evaluation summary",
			slog.String("error", err.Error()))
		return ""
	}
	return strings.TrimSpace(analysis)
}

// filterDialogue drops turns with no analytical value: blanks, timeout
// placeholders, and fragments of three characters or fewer.
func filterDialogue(turns []interview.DialogueTurn) []interview.DialogueTurn {
	out := make([]interview.DialogueTurn, 0, len(turns))
	for _, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if content == "" || len(content) <= 3 {
			continue
		}
		if strings.HasPrefix(content, "[No response") {
			continue
		}
		out = append(out, turn)
	}
	return out
}

func computeKPIs(evals []interview.EvaluationRecord, expectedQuestions int) interview.KPIBundle {
	if len(evals) == 0 {
		return interview.KPIBundle{EngagementLevel: interview.EngagementMedium}
	}

	var communication, technical, problemSolving, confidence float64
	var strengthsCount, improvementsCount int
	for _, e := range evals {
		communication += e.Scores.CommunicationClarity
		technical += e.Scores.TechnicalAccuracy
		problemSolving += e.Scores.ProblemSolving
		confidence += e.Scores.Confidence
		if e.Strengths != "Not available" {
			strengthsCount++
		}
		if e.Weaknesses != "Not available" {
			improvementsCount++
		}
	}
	n := float64(len(evals))
	communication /= n
	technical /= n
	problemSolving /= n
	confidence /= n

	completionRate := 0.0
	if expectedQuestions > 0 {
		completionRate = float64(len(evals)) / float64(expectedQuestions) * 100
	}

	return interview.KPIBundle{
		CommunicationScore:    communication,
		TechnicalScore:        technical,
		ProblemSolvingScore:   problemSolving,
		ConfidenceScore:       confidence,
		ClarityScore:          communication, // communication stands in for clarity
		QuestionsAnswered:     len(evals),
		CompletionRate:        completionRate,
		EngagementLevel:       engagementLevel((communication + technical + problemSolving + confidence) / 4),
		StrengthsCount:        strengthsCount,
		ImprovementAreasCount: improvementsCount,
	}
}

func engagementLevel(avg float64) string {
	switch {
	case avg >= 8:
		return interview.EngagementHigh
	case avg >= 6:
		return interview.EngagementMedium
	default:
		return interview.EngagementLow
	}
}

func evaluationSummary(evals []interview.EvaluationRecord) string {
	parts := make([]string, 0, len(evals))
	for i, e := range evals {
		answer := e.Answer
		if len(answer) > 200 {
			answer = answer[:200] + "..."
		}
		parts = append(parts, fmt.Sprintf(
			"Q%d: %s\nAnswer: %s\nScore: %g/10\nCommunication: %g/10\nTechnical: %g/10\nConfidence: %g/10\nFeedback: %s\nStrengths: %s\nAreas for Improvement: %s",
			i+1, e.Question, answer,
			e.Scores.Overall, e.Scores.CommunicationClarity, e.Scores.TechnicalAccuracy, e.Scores.Confidence,
			e.Feedback, e.Strengths, e.Weaknesses))
	}
	return strings.Join(parts, "\n\n")
}

func collect(evals []interview.EvaluationRecord, pick func(interview.EvaluationRecord) string) []string {
	var out []string
	for _, e := range evals {
		if v := pick(e); v != "Not available" && strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func top(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func nameOr(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Candidate"
	}
	return name
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
