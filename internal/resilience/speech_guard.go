package resilience

import (
	"context"

	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

// GuardedSpeech wraps a [speech.Provider] with independent circuit breakers
// for the synthesis and recognition directions, so a failing TTS backend does
// not also block transcription (and vice versa).
//
// An open breaker surfaces as [ErrCircuitOpen], which the HTTP surface maps
// to 503 like any other provider-unavailable condition.
type GuardedSpeech struct {
	inner      speech.Provider
	synthesize *Breaker
	recognize  *Breaker
}

// Ensure GuardedSpeech remains a drop-in speech provider.
var _ speech.Provider = (*GuardedSpeech)(nil)

// NewGuardedSpeech wraps inner with fresh breakers named "tts" and "stt",
// tuned by cfg (Name is overridden per direction).
func NewGuardedSpeech(inner speech.Provider, cfg BreakerConfig) *GuardedSpeech {
	ttsCfg, sttCfg := cfg, cfg
	ttsCfg.Name = "tts"
	sttCfg.Name = "stt"
	return &GuardedSpeech{
		inner:      inner,
		synthesize: NewBreaker(ttsCfg),
		recognize:  NewBreaker(sttCfg),
	}
}

// Synthesize implements speech.Synthesizer.
func (g *GuardedSpeech) Synthesize(ctx context.Context, req speech.SynthesisRequest) (speech.SynthesisResult, error) {
	var res speech.SynthesisResult
	err := g.synthesize.Execute(func() error {
		var callErr error
		res, callErr = g.inner.Synthesize(ctx, req)
		return callErr
	})
	return res, err
}

// States reports the current breaker state per direction. Used by the
// readiness probe.
func (g *GuardedSpeech) States() (tts, stt BreakerState) {
	return g.synthesize.State(), g.recognize.State()
}

// Recognize implements speech.Recognizer.
func (g *GuardedSpeech) Recognize(ctx context.Context, req speech.RecognitionRequest) (string, error) {
	var transcript string
	err := g.recognize.Execute(func() error {
		var callErr error
		transcript, callErr = g.inner.Recognize(ctx, req)
		return callErr
	})
	return transcript, err
}
