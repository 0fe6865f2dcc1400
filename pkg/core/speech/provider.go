// Package speech provides text-to-speech providers for interview prompts.
package speech

import "context"

// Provider is the interface for text-to-speech services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error)
}

// SynthesizeOptions configures a synthesis request.
type SynthesizeOptions struct {
	Language string  // Language code, e.g. "en-IN"
	Voice    string  // Voice identifier
	Speed    float64 // Pace multiplier
	Volume   float64 // Loudness multiplier
}

// Synthesis is the result of a text-to-speech call.
type Synthesis struct {
	Audio  []byte // Encoded audio bytes
	Format string // "mp3" or "wav"
}
