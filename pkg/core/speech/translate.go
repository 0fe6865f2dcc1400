package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const translateBaseURL = "https://translate.google.com/translate_tts"

// TranslateProvider is a keyless fallback synthesizer backed by the Google
// Translate TTS endpoint. Quality is lower than the primary provider; it
// exists so a prompt can always be voiced.
type TranslateProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewTranslate creates the fallback provider.
func NewTranslate() *TranslateProvider {
	return &TranslateProvider{
		baseURL:    translateBaseURL,
		httpClient: &http.Client{},
	}
}

// NewTranslateWithClient creates the fallback provider with a custom HTTP
// client.
func NewTranslateWithClient(client *http.Client) *TranslateProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &TranslateProvider{
		baseURL:    translateBaseURL,
		httpClient: client,
	}
}

// WithBaseURL overrides the endpoint URL.
func (t *TranslateProvider) WithBaseURL(base string) *TranslateProvider {
	base = strings.TrimSpace(base)
	if base != "" {
		t.baseURL = base
	}
	return t
}

// Name returns the provider identifier.
func (t *TranslateProvider) Name() string {
	return "google-translate"
}

// Synthesize fetches MP3 audio for text. The endpoint caps input length, so
// long prompts are truncated rather than rejected.
func (t *TranslateProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	// The unofficial endpoint rejects inputs over ~200 characters. Cut on a
	// rune boundary so a multi-byte character is never split.
	if len(text) > 200 {
		cut := 200
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translate tts returned %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("translate tts returned empty audio")
	}
	return &Synthesis{Audio: audio, Format: "mp3"}, nil
}
