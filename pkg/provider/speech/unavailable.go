package speech

import "context"

// Unavailable is the Provider used when no speech backend is configured.
// Every call fails with [ErrUnavailable], so the speech endpoints answer 503
// while the rest of the server keeps running.
type Unavailable struct{}

var _ Provider = Unavailable{}

// Synthesize implements Synthesizer; it always fails with [ErrUnavailable].
func (Unavailable) Synthesize(context.Context, SynthesisRequest) (SynthesisResult, error) {
	return SynthesisResult{}, ErrUnavailable
}

// Recognize implements Recognizer; it always fails with [ErrUnavailable].
func (Unavailable) Recognize(context.Context, RecognitionRequest) (string, error) {
	return "", ErrUnavailable
}
