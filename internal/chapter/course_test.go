package chapter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aditya-402/Interactive-trainer/internal/content"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant/mock"
)

func TestCourse_GroundsOnAllChapters(t *testing.T) {
	p := &mock.Provider{Reply: assistant.Reply{Text: "ok"}}
	s := NewCourse(p, newTestStore())

	got, err := s.Ask(context.Background(), "what is this course about?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("unexpected reply %q", got)
	}
	if p.CreateCalls() != 1 {
		t.Fatalf("expected 1 grounding call, got %d", p.CreateCalls())
	}
	doc := p.Created[0]
	if doc.Name != "course" {
		t.Errorf("unexpected document name %q", doc.Name)
	}
	if !strings.Contains(doc.Text, "gravity") || !strings.Contains(doc.Text, "momentum") {
		t.Errorf("document must include every chapter, got %q", doc.Text)
	}
}

func TestCourse_BuildsOnce(t *testing.T) {
	p := &mock.Provider{Reply: assistant.Reply{Text: "ok"}}
	s := NewCourse(p, newTestStore())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Ask(ctx, "q"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if p.CreateCalls() != 1 {
		t.Errorf("expected 1 grounding call for 3 requests, got %d", p.CreateCalls())
	}
}

func TestCourse_ConcurrentFirstRequestsShareOneBuild(t *testing.T) {
	release := make(chan struct{})
	p := &mock.Provider{
		Reply:       assistant.Reply{Text: "shared"},
		CreateDelay: release,
	}
	s := NewCourse(p, newTestStore())

	const callers = 6
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Ask(context.Background(), "race")
		}(i)
	}
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if got := p.CreateCalls(); got != 1 {
		t.Errorf("expected 1 grounding call, got %d", got)
	}
}

// overlapProvider hands out a context that detects interleaved Send calls,
// which the assistant.Context contract forbids.
type overlapProvider struct {
	ctx overlapContext
}

func (p *overlapProvider) CreateGroundedContext(context.Context, assistant.Document) (assistant.Context, error) {
	return &p.ctx, nil
}

type overlapContext struct {
	inFlight atomic.Int32
	overlaps atomic.Int32
}

func (c *overlapContext) Send(context.Context, string) (assistant.Reply, error) {
	if c.inFlight.Add(1) > 1 {
		c.overlaps.Add(1)
	}
	time.Sleep(time.Millisecond)
	c.inFlight.Add(-1)
	return assistant.Reply{Text: "ok"}, nil
}

func TestCourse_ConcurrentAsksSerialiseSends(t *testing.T) {
	p := &overlapProvider{}
	s := NewCourse(p, newTestStore())

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Ask(context.Background(), "q")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if got := p.ctx.overlaps.Load(); got != 0 {
		t.Errorf("detected %d interleaved sends into one conversation", got)
	}
}

func TestCourse_FailedBuildRetries(t *testing.T) {
	p := &mock.Provider{
		Reply:     assistant.Reply{Text: "recovered"},
		CreateErr: assistant.ErrGroundingFailed,
	}
	s := NewCourse(p, newTestStore())
	ctx := context.Background()

	if _, err := s.Ask(ctx, "q"); !errors.Is(err, assistant.ErrGroundingFailed) {
		t.Fatalf("expected ErrGroundingFailed, got %v", err)
	}

	p.CreateErr = nil
	got, err := s.Ask(ctx, "q")
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if got != "recovered" {
		t.Errorf("unexpected reply %q", got)
	}
}

func TestCourse_EmptyStore(t *testing.T) {
	p := &mock.Provider{}
	s := NewCourse(p, &memStore{docs: map[int]string{}})

	if _, err := s.Ask(context.Background(), "q"); !errors.Is(err, content.ErrNotFound) {
		t.Fatalf("expected content.ErrNotFound, got %v", err)
	}
}

func TestCourse_SentinelNormalised(t *testing.T) {
	p := &mock.Provider{Reply: assistant.Reply{Text: " not_in_scope "}}
	s := NewCourse(p, newTestStore())

	got, err := s.Ask(context.Background(), "off-topic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DefaultRefusal {
		t.Errorf("expected refusal, got %q", got)
	}
}
