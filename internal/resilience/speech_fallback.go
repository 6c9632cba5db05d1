package resilience

import (
	"context"

	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

// SpeechFallback implements [speech.Provider] with automatic failover across
// multiple speech backends. Each backend has its own circuit breaker, so a
// primary that keeps failing is skipped until its reset timeout elapses.
type SpeechFallback struct {
	group *FallbackGroup[speech.Provider]
}

var _ speech.Provider = (*SpeechFallback)(nil)

// NewSpeechFallback creates a [SpeechFallback] with primary as the preferred
// backend.
func NewSpeechFallback(primary speech.Provider, primaryName string, cfg FallbackConfig) *SpeechFallback {
	return &SpeechFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional speech provider as a fallback.
func (f *SpeechFallback) AddFallback(name string, provider speech.Provider) {
	f.group.AddFallback(name, provider)
}

// Synthesize implements speech.Synthesizer, trying the first healthy backend.
func (f *SpeechFallback) Synthesize(ctx context.Context, req speech.SynthesisRequest) (speech.SynthesisResult, error) {
	return ExecuteWithResult(f.group, func(p speech.Provider) (speech.SynthesisResult, error) {
		return p.Synthesize(ctx, req)
	})
}

// Recognize implements speech.Recognizer, trying the first healthy backend.
func (f *SpeechFallback) Recognize(ctx context.Context, req speech.RecognitionRequest) (string, error) {
	return ExecuteWithResult(f.group, func(p speech.Provider) (string, error) {
		return p.Recognize(ctx, req)
	})
}

// BreakerStates reports the breaker state per backend name.
func (f *SpeechFallback) BreakerStates() map[string]BreakerState {
	return f.group.BreakerStates()
}
