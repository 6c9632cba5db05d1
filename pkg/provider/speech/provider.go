// Package speech defines the provider interfaces for the Text-to-Speech and
// Speech-to-Text backends used by the Interactive Trainer gateway.
//
// Unlike streaming voice pipelines, the trainer only needs one-shot calls:
// synthesize a complete utterance into an encoded audio blob, or transcribe a
// recorded audio blob into text. Both interfaces are deliberately small so
// that test code can provide mock implementations (see the mock subpackage)
// and so that vendor SDKs stay confined to their own subpackages.
//
// Implementations must be safe for concurrent use once constructed; the
// gateway shares a single provider instance across all request handlers.
package speech

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when a provider client was never successfully
// initialised (missing credentials, failed construction). It maps to a 503 at
// the HTTP surface, distinct from per-call provider failures which map to 500.
var ErrUnavailable = errors.New("speech: provider not available")

// SynthesisRequest carries everything a Synthesizer needs for one utterance.
type SynthesisRequest struct {
	// Text is the utterance to synthesise. Must be non-empty after trimming;
	// callers validate before invoking the provider.
	Text string

	// Voice optionally overrides the provider's configured voice name.
	Voice string
}

// SynthesisResult is the outcome of a successful synthesis call.
type SynthesisResult struct {
	// Audio is the complete encoded audio blob.
	Audio []byte

	// MIMEType is the media type of Audio (e.g., "audio/mpeg"), suitable for
	// use as an HTTP Content-Type header.
	MIMEType string
}

// RecognitionRequest carries one recorded audio blob for transcription.
type RecognitionRequest struct {
	// Audio is the complete encoded audio blob as received from the client.
	Audio []byte

	// Encoding identifies the audio codec. Must not be EncodingUnknown;
	// callers reject undeterminable uploads before reaching the provider.
	Encoding Encoding
}

// Synthesizer converts text into encoded speech audio.
type Synthesizer interface {
	// Synthesize renders req.Text into audio. Returns ErrUnavailable if the
	// underlying client is not initialised, or a wrapped provider error on
	// failure. A successful result always has non-empty Audio and MIMEType.
	Synthesize(ctx context.Context, req SynthesisRequest) (SynthesisResult, error)
}

// Recognizer converts recorded speech audio into text.
type Recognizer interface {
	// Recognize transcribes req.Audio. An empty transcript with a nil error is
	// a valid outcome meaning the provider detected no speech — callers must
	// not treat it as a failure. Returns ErrUnavailable if the underlying
	// client is not initialised, or a wrapped provider error on failure.
	Recognize(ctx context.Context, req RecognitionRequest) (string, error)
}

// Provider bundles both speech directions. All shipped backends implement
// both; the interfaces stay separate so tests can stub one side only.
type Provider interface {
	Synthesizer
	Recognizer
}
