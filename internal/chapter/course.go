package chapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Aditya-402/Interactive-trainer/internal/content"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant"
)

// Course is the free-form chat counterpart of [Cache]: a single lazily-built
// conversation grounded on every configured chapter at once. The first chat
// request triggers the build; concurrent first requests share it; a failed
// build is retried on the next request.
type Course struct {
	provider assistant.Provider
	store    content.Store
	sentinel string
	refusal  string

	mu      sync.Mutex
	ctx     assistant.Context
	pending chan struct{}

	// sendMu serialises sends into the shared conversation; a Context is a
	// single ordered dialogue and interleaved sends would corrupt it.
	sendMu sync.Mutex
}

// NewCourse creates a course-wide chat session over the given provider and
// content store.
func NewCourse(provider assistant.Provider, store content.Store, opts ...Option) *Course {
	// Reuse the cache options for sentinel and refusal overrides.
	c := &Cache{sentinel: DefaultSentinel, refusal: DefaultRefusal}
	for _, o := range opts {
		o(c)
	}
	return &Course{
		provider: provider,
		store:    store,
		sentinel: c.sentinel,
		refusal:  c.refusal,
	}
}

// Ask resolves the course conversation and sends a message, applying the same
// sentinel and blocked-reply normalization as the per-chapter cache.
func (s *Course) Ask(ctx context.Context, message string) (string, error) {
	cctx, err := s.resolve(ctx)
	if err != nil {
		return "", err
	}

	s.sendMu.Lock()
	reply, err := cctx.Send(ctx, message)
	s.sendMu.Unlock()
	if err != nil {
		return "", err
	}
	if reply.Blocked {
		return s.refusal, nil
	}
	if strings.EqualFold(strings.TrimSpace(reply.Text), s.sentinel) {
		return s.refusal, nil
	}
	return reply.Text, nil
}

// Refusal returns the message substituted for out-of-scope replies.
func (s *Course) Refusal() string {
	return s.refusal
}

// resolve returns the grounded conversation, building it on first use. Only
// one build runs at a time; followers wait for it and re-check.
func (s *Course) resolve(ctx context.Context) (assistant.Context, error) {
	for {
		s.mu.Lock()
		if s.ctx != nil {
			cctx := s.ctx
			s.mu.Unlock()
			return cctx, nil
		}
		if s.pending == nil {
			done := make(chan struct{})
			s.pending = done
			s.mu.Unlock()

			cctx, err := s.build(ctx)

			s.mu.Lock()
			if err == nil {
				s.ctx = cctx
			}
			s.pending = nil
			s.mu.Unlock()
			close(done)

			return cctx, err
		}
		wait := s.pending
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// build assembles one document from every configured chapter and grounds a
// fresh conversation on it.
func (s *Course) build(ctx context.Context) (assistant.Context, error) {
	chapters := s.store.Chapters()
	if len(chapters) == 0 {
		return nil, fmt.Errorf("chapter: course build: %w", content.ErrNotFound)
	}

	var sb strings.Builder
	for _, n := range chapters {
		text, err := s.store.Load(n)
		if err != nil {
			return nil, fmt.Errorf("chapter: course build chapter %d: %w", n, err)
		}
		fmt.Fprintf(&sb, "=== Chapter %d ===\n%s\n\n", n, text)
	}

	start := time.Now()
	cctx, err := s.provider.CreateGroundedContext(ctx, assistant.Document{
		Name: "course",
		Text: sb.String(),
	})
	if err != nil {
		return nil, err
	}
	slog.Info("course conversation grounded",
		"chapters", len(chapters),
		"doc_bytes", sb.Len(),
		"elapsed", time.Since(start),
	)
	return cctx, nil
}
