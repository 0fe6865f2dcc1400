package eval

import (
	"strconv"
	"strings"

	"github.com/intervue-ai/intervue/pkg/gateway/interview"
)

// Labels of the rubric sections the model is instructed to emit.
var rubricLabels = []string{
	"SCORE",
	"TECHNICAL_ACCURACY",
	"COMMUNICATION_CLARITY",
	"RELEVANCE",
	"DEPTH",
	"CONFIDENCE",
	"PROBLEM_SOLVING",
	"STRENGTHS",
	"WEAKNESSES",
	"FEEDBACK",
	"FOLLOW_UP_SUGGESTION",
}

const (
	defaultScore = 5.0
	defaultText  = "Not available"
)

// parseRubric extracts the labeled rubric sections from a model completion.
// Missing or malformed numeric sections fall back to a neutral 5.0, missing
// text sections to "Not available". Scores are clamped to [0,10] so a
// misbehaving model can never skew aggregates.
func parseRubric(completion string) (interview.RubricScores, rubricText) {
	sections := splitSections(completion)

	scores := interview.RubricScores{
		Overall:              parseScore(sections["SCORE"]),
		TechnicalAccuracy:    parseScore(sections["TECHNICAL_ACCURACY"]),
		CommunicationClarity: parseScore(sections["COMMUNICATION_CLARITY"]),
		Relevance:            parseScore(sections["RELEVANCE"]),
		Depth:                parseScore(sections["DEPTH"]),
		Confidence:           parseScore(sections["CONFIDENCE"]),
		ProblemSolving:       parseScore(sections["PROBLEM_SOLVING"]),
	}
	text := rubricText{
		Strengths:          textOr(sections["STRENGTHS"]),
		Weaknesses:         textOr(sections["WEAKNESSES"]),
		Feedback:           textOr(sections["FEEDBACK"]),
		FollowUpSuggestion: textOr(sections["FOLLOW_UP_SUGGESTION"]),
	}
	return scores, text
}

type rubricText struct {
	Strengths          string
	Weaknesses         string
	Feedback           string
	FollowUpSuggestion string
}

// splitSections walks the completion line by line. A line starting with a
// known label followed by a colon opens that section; subsequent lines
// accumulate into it until the next label.
func splitSections(completion string) map[string]string {
	sections := make(map[string]string, len(rubricLabels))
	var current string
	var buf []string

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
		buf = buf[:0]
	}

	for _, line := range strings.Split(completion, "\n") {
		trimmed := strings.TrimSpace(line)
		if label, rest, ok := matchLabel(trimmed); ok {
			flush()
			current = label
			if rest != "" {
				buf = append(buf, rest)
			}
			continue
		}
		if current != "" {
			buf = append(buf, line)
		}
	}
	flush()
	return sections
}

func matchLabel(line string) (label, rest string, ok bool) {
	for _, l := range rubricLabels {
		if !strings.HasPrefix(line, l) {
			continue
		}
		tail := line[len(l):]
		tail = strings.TrimLeft(tail, " ")
		if !strings.HasPrefix(tail, ":") {
			continue
		}
		return l, strings.TrimSpace(tail[1:]), true
	}
	return "", "", false
}

func parseScore(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultScore
	}
	// Models sometimes append commentary after the number ("8.5 - solid").
	if i := strings.IndexAny(raw, " \t/-"); i > 0 {
		raw = raw[:i]
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultScore
	}
	return clampScore(n)
}

func clampScore(n float64) float64 {
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}

func textOr(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultText
	}
	return raw
}
