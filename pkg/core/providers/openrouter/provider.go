// Package openrouter implements a chat-completions client for the
// OpenRouter API. The gateway uses it for every reasoning task: answer
// evaluation and report narrative generation.
package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "meta-llama/llama-3.1-70b-instruct"
)

// Provider is an OpenRouter chat-completions client.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	referer    string
	title      string
	httpClient *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL overrides the API base URL.
func WithBaseURL(base string) Option {
	return func(p *Provider) {
		base = strings.TrimSpace(base)
		if base != "" {
			p.baseURL = base
		}
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(p *Provider) {
		model = strings.TrimSpace(model)
		if model != "" {
			p.model = model
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithAttribution sets the HTTP-Referer and X-Title attribution headers.
func WithAttribution(referer, title string) Option {
	return func(p *Provider) {
		p.referer = strings.TrimSpace(referer)
		p.title = strings.TrimSpace(title)
	}
}

// New creates an OpenRouter provider.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "openrouter"
}

// Complete sends a single system+user exchange and returns the assistant
// text. The context bounds the whole call.
func (p *Provider) Complete(ctx context.Context, system, user string) (string, error) {
	if p.apiKey == "" {
		return "", errMissingKey
	}

	req := &chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   1500,
	}

	resp, err := p.doRequest(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
