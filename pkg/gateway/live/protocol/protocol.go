// Package protocol defines the typed message set spoken over the interview
// and proctoring websockets.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	QuestionKindText   = "text"
	QuestionKindCoding = "coding"
)

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

// ClientTextResponse carries one candidate answer. TimeoutSubmission marks
// answers auto-submitted when the question timer expired; those may be
// empty and are accepted as-is.
type ClientTextResponse struct {
	Type              string `json:"type"`
	Content           string `json:"content"`
	TimeoutSubmission bool   `json:"timeout_submission,omitempty"`
}

// ClientEndInterview asks the server to conclude the session now.
type ClientEndInterview struct {
	Type string `json:"type"`
}

// DecodeClientMessage decodes one inbound frame into a typed message.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case "text_response":
		var msg ClientTextResponse
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid text_response frame", "")
		}
		return msg, nil
	case "end_interview":
		var msg ClientEndInterview
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid end_interview frame", "")
		}
		return msg, nil
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}

// ServerQuestion delivers the next interviewer prompt with its synthesized
// audio reference and the timer the client should run.
type ServerQuestion struct {
	Type           string `json:"type"`
	Content        string `json:"content"`
	AudioFile      string `json:"audio_file,omitempty"`
	QuestionType   string `json:"question_type,omitempty"`
	TimerSeconds   int    `json:"timer_seconds,omitempty"`
	StartRecording bool   `json:"start_recording,omitempty"`
}

// ServerProcessing acknowledges an answer while the next prompt is prepared.
type ServerProcessing struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ServerConcluded ends the dialogue. TotalQuestions reports how many
// answers were collected for evaluation.
type ServerConcluded struct {
	Type           string `json:"type"`
	Content        string `json:"content"`
	AudioFile      string `json:"audio_file,omitempty"`
	TotalQuestions int    `json:"total_questions"`
	StopRecording  bool   `json:"stop_recording"`
}

// ServerError tells the candidate something went wrong without detail.
type ServerError struct {
	Type          string `json:"type"`
	Content       string `json:"content"`
	StopRecording bool   `json:"stop_recording,omitempty"`
}

func NewQuestion(content, audioFile, kind string, timerSeconds int) ServerQuestion {
	return ServerQuestion{
		Type:           "question",
		Content:        content,
		AudioFile:      audioFile,
		QuestionType:   kind,
		TimerSeconds:   timerSeconds,
		StartRecording: kind != QuestionKindCoding,
	}
}

func NewProcessing(content string) ServerProcessing {
	return ServerProcessing{Type: "processing_response", Content: content}
}

func NewConcluded(content, audioFile string, totalQuestions int) ServerConcluded {
	return ServerConcluded{
		Type:           "interview_concluded",
		Content:        content,
		AudioFile:      audioFile,
		TotalQuestions: totalQuestions,
		StopRecording:  true,
	}
}

func NewError(content string) ServerError {
	return ServerError{Type: "error", Content: content, StopRecording: true}
}

// ClientProctorFrame carries one webcam frame for violation analysis.
// Image data is base64-encoded JPEG.
type ClientProctorFrame struct {
	Type     string `json:"type"`
	ImageB64 string `json:"image_b64"`
}

// ClientReferenceFace registers the candidate's reference face.
type ClientReferenceFace struct {
	Type     string `json:"type"`
	ImageB64 string `json:"image_b64"`
}

// DecodeProctorMessage decodes one inbound proctoring frame.
func DecodeProctorMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}

	switch strings.TrimSpace(envelope.Type) {
	case "frame":
		var msg ClientProctorFrame
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid frame", "")
		}
		if strings.TrimSpace(msg.ImageB64) == "" {
			return nil, badRequest("frame.image_b64 is required", "image_b64")
		}
		return msg, nil
	case "reference_face":
		var msg ClientReferenceFace
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid reference_face", "")
		}
		if strings.TrimSpace(msg.ImageB64) == "" {
			return nil, badRequest("reference_face.image_b64 is required", "image_b64")
		}
		return msg, nil
	case "":
		return nil, badRequest("missing type", "type")
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}

// ServerViolation reports a proctoring violation back to the client UI.
type ServerViolation struct {
	Type      string `json:"type"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	Terminate bool   `json:"terminate,omitempty"`
}

func NewViolation(category, message, severity string, terminate bool) ServerViolation {
	return ServerViolation{
		Type:      "violation",
		Category:  category,
		Message:   message,
		Severity:  severity,
		Terminate: terminate,
	}
}
