package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	sarvamBaseURL      = "https://api.sarvam.ai"
	sarvamModel        = "bulbul:v2"
	sarvamDefaultVoice = "anushka"
)

// SarvamProvider implements the TTS Provider interface using Sarvam's
// bulbul API.
type SarvamProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSarvam creates a new Sarvam TTS provider.
func NewSarvam(apiKey string) *SarvamProvider {
	return &SarvamProvider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    sarvamBaseURL,
		httpClient: &http.Client{},
	}
}

// NewSarvamWithClient creates a new Sarvam TTS provider with a custom HTTP
// client.
func NewSarvamWithClient(apiKey string, client *http.Client) *SarvamProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &SarvamProvider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    sarvamBaseURL,
		httpClient: client,
	}
}

// WithBaseURL overrides the API base URL.
func (s *SarvamProvider) WithBaseURL(base string) *SarvamProvider {
	base = strings.TrimSpace(base)
	if base != "" {
		s.baseURL = base
	}
	return s
}

// Name returns the provider identifier.
func (s *SarvamProvider) Name() string {
	return "sarvam"
}

type sarvamRequest struct {
	Inputs              []string `json:"inputs"`
	TargetLanguageCode  string   `json:"target_language_code"`
	Speaker             string   `json:"speaker"`
	Pitch               float64  `json:"pitch"`
	Pace                float64  `json:"pace"`
	Loudness            float64  `json:"loudness"`
	SpeechSampleRate    int      `json:"speech_sample_rate"`
	EnablePreprocessing bool     `json:"enable_preprocessing"`
	Model               string   `json:"model"`
}

type sarvamResponse struct {
	Audios []string `json:"audios"`
}

// Synthesize converts text to audio using Sarvam's TTS API. The response
// carries base64 WAV audio.
func (s *SarvamProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("sarvam api key is required")
	}

	voice := opts.Voice
	if voice == "" {
		voice = sarvamDefaultVoice
	}
	language := opts.Language
	if language == "" {
		language = "en-IN"
	}
	pace := opts.Speed
	if pace == 0 {
		pace = 1
	}
	loudness := opts.Volume
	if loudness == 0 {
		loudness = 1
	}

	reqBody := sarvamRequest{
		Inputs:              []string{text},
		TargetLanguageCode:  language,
		Speaker:             voice,
		Pace:                pace,
		Loudness:            loudness,
		SpeechSampleRate:    22050,
		EnablePreprocessing: true,
		Model:               sarvamModel,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.baseURL, "/")+"/text-to-speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("api-subscription-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sarvam returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded sarvamResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Audios) == 0 {
		return nil, fmt.Errorf("sarvam returned no audio")
	}

	audio, err := base64.StdEncoding.DecodeString(decoded.Audios[0])
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return &Synthesis{Audio: audio, Format: "wav"}, nil
}
