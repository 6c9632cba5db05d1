package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Aditya-402/Interactive-trainer/pkg/provider/speech"
)

var errBoom = errors.New("boom")

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 3, ResetTimeout: time.Hour})

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: expected errBoom, got %v", i, err)
		}
	}
	if got := b.State(); got != BreakerOpen {
		t.Fatalf("expected open, got %v", got)
	}

	// Further calls are rejected without invoking fn.
	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("fn must not be called while the breaker is open")
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 2, ResetTimeout: time.Hour})

	_ = b.Execute(func() error { return errBoom })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return errBoom })

	if got := b.State(); got != BreakerClosed {
		t.Fatalf("expected closed after interleaved success, got %v", got)
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 1, ResetTimeout: 10 * time.Millisecond})

	_ = b.Execute(func() error { return errBoom })
	if got := b.State(); got != BreakerOpen {
		t.Fatalf("expected open, got %v", got)
	}

	time.Sleep(20 * time.Millisecond)
	if got := b.State(); got != BreakerHalfOpen {
		t.Fatalf("expected half-open after reset timeout, got %v", got)
	}

	// A successful probe closes the breaker.
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("unexpected probe error: %v", err)
	}
	if got := b.State(); got != BreakerClosed {
		t.Fatalf("expected closed after successful probe, got %v", got)
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 1, ResetTimeout: 10 * time.Millisecond})

	_ = b.Execute(func() error { return errBoom })
	time.Sleep(20 * time.Millisecond)

	if err := b.Execute(func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if got := b.State(); got != BreakerOpen {
		t.Fatalf("expected re-opened, got %v", got)
	}
}

// failingSpeech always errors, to drive the guard's breakers.
type failingSpeech struct{ calls int }

func (f *failingSpeech) Synthesize(context.Context, speech.SynthesisRequest) (speech.SynthesisResult, error) {
	f.calls++
	return speech.SynthesisResult{}, errBoom
}

func (f *failingSpeech) Recognize(context.Context, speech.RecognitionRequest) (string, error) {
	f.calls++
	return "", errBoom
}

func TestGuardedSpeech_DirectionsTripIndependently(t *testing.T) {
	inner := &failingSpeech{}
	g := NewGuardedSpeech(inner, BreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})
	ctx := context.Background()

	// Trip the synthesis breaker only.
	for i := 0; i < 2; i++ {
		if _, err := g.Synthesize(ctx, speech.SynthesisRequest{Text: "hi"}); !errors.Is(err, errBoom) {
			t.Fatalf("expected errBoom, got %v", err)
		}
	}
	if _, err := g.Synthesize(ctx, speech.SynthesisRequest{Text: "hi"}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open synthesis breaker, got %v", err)
	}

	// Recognition still passes through to the inner provider.
	if _, err := g.Recognize(ctx, speech.RecognitionRequest{Audio: []byte{1}, Encoding: speech.EncodingMP3}); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom from inner recognizer, got %v", err)
	}
}
