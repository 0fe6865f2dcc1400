package eval

import (
	"fmt"
	"regexp"
	"strings"
)

var codeBlockRe = regexp.MustCompile(`(?s)\[CODE\](.*?)\[/CODE\]`)

// isCodingAnswer reports whether the answer carries a fenced code submission.
func isCodingAnswer(answer string) bool {
	return strings.Contains(answer, "[CODE]") && strings.Contains(answer, "[/CODE]")
}

// splitCodingAnswer separates the code body from the surrounding explanation.
func splitCodingAnswer(answer string) (code, explanation string) {
	m := codeBlockRe.FindStringSubmatch(answer)
	if len(m) == 2 {
		code = strings.TrimSpace(m[1])
	}
	explanation = strings.TrimSpace(codeBlockRe.ReplaceAllString(answer, ""))
	return code, explanation
}

const textSystemPrompt = `You are a fair and balanced interview evaluator. Analyze the candidate's response for factual correctness and practical understanding. Give credit for correct concepts even if phrased informally, but be thorough in checking accuracy. Partial answers should receive partial credit. Deduct points for factual errors, missing key concepts, or vague responses that don't demonstrate understanding.`

const codingSystemPrompt = `You are a STRICT technical interview evaluator specializing in coding assessments. Focus PRIMARILY on the CODE QUALITY, not the explanation.`

func textEvaluationPrompt(question, answer string) string {
	return fmt.Sprintf(`QUESTION ASKED:
%s

CANDIDATE'S ANSWER:
%s

Provide evaluation in this EXACT format:

SCORE: [0-10]
TECHNICAL_ACCURACY: [Rate technical correctness 0-10]
COMMUNICATION_CLARITY: [Rate clarity and articulation 0-10]
RELEVANCE: [Rate how well answer addresses question 0-10]
DEPTH: [Rate depth of explanation 0-10]
CONFIDENCE: [Rate confidence level 0-10]
PROBLEM_SOLVING: [Rate problem-solving approach 0-10]
STRENGTHS: [List 2-3 key strengths in the answer]
WEAKNESSES: [List 2-3 areas for improvement]
FEEDBACK: [Constructive feedback in 2-3 sentences]
FOLLOW_UP_SUGGESTION: [Suggest what interviewer should ask next based on this answer]

Evaluation Criteria:
- Technical Accuracy (40%%): Is the answer factually correct? Are key concepts covered?
- Relevance (25%%): How well does the answer address the specific question asked?
- Problem-Solving (15%%): Does the answer show reasoning, understanding of tradeoffs?
- Depth (10%%): Are important details, examples, or rationale provided?
- Communication Clarity (5%%): Is the answer clear and well-structured?
- Confidence (5%%): Does the answer demonstrate solid understanding?

SCORING GUIDELINES:
- 9-10: Comprehensive, accurate answer covering all key points with examples
- 7-8: Good answer with correct concepts but missing some details or depth
- 5-6: Partially correct answer with some gaps or minor inaccuracies
- 3-4: Incomplete answer with significant gaps or conceptual errors
- 0-2: Incorrect answer or completely off-topic

Provide specific, actionable feedback that helps the candidate improve.`, question, answer)
}

func codingEvaluationPrompt(question, code, explanation string) string {
	if explanation == "" {
		explanation = "No explanation provided"
	}
	return fmt.Sprintf(`CODING QUESTION:
%s

CANDIDATE'S CODE:
%s

CANDIDATE'S EXPLANATION (SECONDARY - only for context):
%s

Provide evaluation in this EXACT format:

SCORE: [0-10]
TECHNICAL_ACCURACY: [Rate code correctness and logic 0-10]
COMMUNICATION_CLARITY: [Rate code readability and structure 0-10]
RELEVANCE: [Rate how well solution addresses the problem 0-10]
DEPTH: [Rate code quality, edge cases, optimization 0-10]
CONFIDENCE: [Rate code completeness and robustness 0-10]
PROBLEM_SOLVING: [Rate algorithmic approach and reasoning 0-10]
STRENGTHS: [List 2-3 key strengths in the CODE ONLY]
WEAKNESSES: [List 2-3 areas for improvement in the CODE]
FEEDBACK: [Constructive feedback on CODE quality, logic, and implementation - IGNORE explanation quality]
FOLLOW_UP_SUGGESTION: [Suggest what interviewer should ask next]

STRICT Evaluation Criteria for Coding Questions:
- Technical Accuracy (50%%): Does the code actually work? Is the logic correct? Test mentally with edge cases.
- Problem-Solving (25%%): Is the algorithmic approach optimal? Are edge cases handled? Is complexity reasonable?
- Code Quality (15%%): Is the code clean, readable, maintainable? Proper naming? Good structure?
- Depth (10%%): Are optimizations present? Error handling? Input validation?

SCORING GUIDELINES (BE STRICT):
- 9-10: Perfect or near-perfect solution with optimal approach, edge cases, and clean code
- 7-8: Working solution with good approach but minor issues or missing optimizations
- 5-6: Working solution with significant issues, poor approach, or missing edge cases
- 3-4: Partially working code with major logical errors or incomplete implementation
- 0-2: Non-working code, completely wrong approach, or missing critical logic

IMPORTANT:
- IGNORE the candidate's explanation quality - focus ONLY on the CODE itself
- Be strict with scoring - most candidates should score 4-7, not 7-10
- Deduct points for: missing edge cases, poor variable names, no error handling, inefficient algorithms
- Only give 8+ for truly excellent, production-ready code`, question, code, explanation)
}
