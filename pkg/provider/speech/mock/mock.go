// Package mock provides a test double for the speech provider interfaces.
//
// Zero values cause methods to succeed with empty results; set the Err and
// result fields to script behaviour. Safe for concurrent use.
package mock

import (
	"context"
	"sync"

	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

// Provider is a mock implementation of speech.Provider.
type Provider struct {
	mu sync.Mutex

	// --- Configurable behaviour ---

	// SynthesisResult is returned from Synthesize.
	SynthesisResult speech.SynthesisResult

	// SynthesizeErr, if non-nil, is returned from Synthesize.
	SynthesizeErr error

	// Transcript is returned from Recognize.
	Transcript string

	// RecognizeErr, if non-nil, is returned from Recognize.
	RecognizeErr error

	// --- Recorded calls ---

	// Synthesized holds the requests passed to Synthesize, in order.
	Synthesized []speech.SynthesisRequest

	// Recognized holds the requests passed to Recognize, in order.
	Recognized []speech.RecognitionRequest
}

var _ speech.Provider = (*Provider)(nil)

// Synthesize implements speech.Synthesizer.
func (p *Provider) Synthesize(_ context.Context, req speech.SynthesisRequest) (speech.SynthesisResult, error) {
	p.mu.Lock()
	p.Synthesized = append(p.Synthesized, req)
	res, err := p.SynthesisResult, p.SynthesizeErr
	p.mu.Unlock()
	return res, err
}

// Recognize implements speech.Recognizer.
func (p *Provider) Recognize(_ context.Context, req speech.RecognitionRequest) (string, error) {
	p.mu.Lock()
	p.Recognized = append(p.Recognized, req)
	transcript, err := p.Transcript, p.RecognizeErr
	p.mu.Unlock()
	return transcript, err
}

// SynthesizeCalls returns the number of Synthesize calls made so far.
func (p *Provider) SynthesizeCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Synthesized)
}

// RecognizeCalls returns the number of Recognize calls made so far.
func (p *Provider) RecognizeCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Recognized)
}
