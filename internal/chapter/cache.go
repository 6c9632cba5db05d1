// Package chapter implements the chapter-scoped conversational session cache
// — the one piece of server-side state in the Interactive Trainer gateway.
//
// Each configured chapter maps to at most one grounded assistant context.
// The context is built lazily on the first query for its chapter: the
// reference document is loaded from the content store, uploaded to the
// assistant provider, and the resulting conversation handle is cached for
// the process lifetime. Per chapter the lifecycle is
//
//	absent → building → ready
//
// with a failed build reverting to absent so that a later request retries
// rather than getting stuck. Concurrent first-time queries for the same
// chapter share a single in-flight build (singleflight), so the document is
// uploaded at most once no matter how many callers race.
//
// The cache has no eviction policy. Entries live until process exit; with a
// small fixed chapter set this is bounded, but it is a deliberate, documented
// limitation rather than a feature.
package chapter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Aditya-402/Interactive-trainer/internal/content"
	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant"
)

// DefaultSentinel is the exact reply the system prompt instructs the model to
// emit when the grounding document does not answer the query. It is an
// internal signal and must never reach a client verbatim.
const DefaultSentinel = "NOT_IN_SCOPE"

// DefaultRefusal is the user-facing text substituted for sentinel and blocked
// replies.
const DefaultRefusal = "I can only answer questions about this chapter's content. Please ask about something covered in the chapter."

// Cache owns the chapter → grounded context mapping. Safe for concurrent use.
type Cache struct {
	provider assistant.Provider
	store    content.Store
	sentinel string
	refusal  string

	group singleflight.Group

	mu      sync.RWMutex
	entries map[int]*entry
}

// entry is one ready chapter context. Its mutex serialises sends so that
// turns within the conversation keep their arrival order — the grounding
// document must remain the first turn, and interleaved sends would corrupt
// the provider-side history.
type entry struct {
	mu           sync.Mutex
	ctx          assistant.Context
	buildElapsed time.Duration
}

// Answer is the outcome of one [Cache.Ask] call.
type Answer struct {
	// Text is the normalised reply: sentinel and blocked replies are already
	// substituted with the refusal message.
	Text string

	// Built reports whether this call executed the grounding build (rather
	// than finding the chapter ready or joining another caller's in-flight
	// build). At most one of any set of racing callers has Built set, which
	// makes it safe to drive build counters from.
	Built bool

	// BuildElapsed is the duration of that build. Zero unless Built is true.
	BuildElapsed time.Duration
}

// Option is a functional option for [NewCache].
type Option func(*Cache)

// WithSentinel overrides the out-of-scope sentinel string. Comparison is
// case-insensitive after trimming.
func WithSentinel(s string) Option {
	return func(c *Cache) { c.sentinel = s }
}

// WithRefusal overrides the user-facing refusal message.
func WithRefusal(msg string) Option {
	return func(c *Cache) { c.refusal = msg }
}

// NewCache creates an empty [Cache] over the given provider and content
// store.
func NewCache(provider assistant.Provider, store content.Store, opts ...Option) *Cache {
	c := &Cache{
		provider: provider,
		store:    store,
		sentinel: DefaultSentinel,
		refusal:  DefaultRefusal,
		entries:  make(map[int]*entry),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Resolve returns the grounded context for chapter, building it on first
// use. A ready chapter is served from the cache with zero provider calls.
// Build failures leave the chapter absent so the next request retries; the
// error is propagated unwrapped where it carries a typed sentinel
// ([content.ErrNotFound], [assistant.ErrGroundingFailed]).
//
// Concurrent callers for the same absent chapter share one in-flight build.
func (c *Cache) Resolve(ctx context.Context, chapter int) (assistant.Context, error) {
	e, _, err := c.resolveEntry(ctx, chapter)
	if err != nil {
		return nil, err
	}
	return e.ctx, nil
}

// Ask resolves the chapter's context and sends query into it, serialising
// with any other in-flight sends for the same chapter. On a build failure the
// returned [Answer] still carries Built so callers can attribute the failed
// build to exactly one request.
func (c *Cache) Ask(ctx context.Context, chapter int, query string) (Answer, error) {
	e, built, err := c.resolveEntry(ctx, chapter)
	if err != nil {
		return Answer{Built: built}, err
	}
	ans := Answer{Built: built}
	if built {
		ans.BuildElapsed = e.buildElapsed
	}

	e.mu.Lock()
	reply, err := e.ctx.Send(ctx, query)
	e.mu.Unlock()
	if err != nil {
		return ans, err
	}

	if reply.Blocked {
		slog.Warn("assistant blocked a chapter query", "chapter", chapter)
		ans.Text = c.refusal
		return ans, nil
	}
	if c.isSentinel(reply.Text) {
		slog.Debug("query outside chapter scope", "chapter", chapter)
		ans.Text = c.refusal
		return ans, nil
	}
	ans.Text = reply.Text
	return ans, nil
}

// Ready reports whether the chapter already has a cached context.
func (c *Cache) Ready(chapter int) bool {
	return c.lookup(chapter) != nil
}

// Refusal returns the message substituted for out-of-scope replies.
func (c *Cache) Refusal() string {
	return c.refusal
}

// resolveEntry returns the chapter's entry, building it on first use.
// Builds run under singleflight so that racing first requests trigger
// exactly one document upload; the group key is dropped when Do returns,
// which is precisely the revert-to-absent behaviour failed builds need.
//
// The returned bool is true only for the caller whose singleflight closure
// actually ran the build, success or failure.
func (c *Cache) resolveEntry(ctx context.Context, chapter int) (*entry, bool, error) {
	if e := c.lookup(chapter); e != nil {
		return e, false, nil
	}
	var built bool
	v, err, shared := c.group.Do(strconv.Itoa(chapter), func() (any, error) {
		// Another caller may have completed the build between our lookup and
		// the group admitting us.
		if e := c.lookup(chapter); e != nil {
			return e, nil
		}
		built = true
		return c.build(ctx, chapter)
	})
	if err != nil {
		return nil, built, err
	}
	if shared {
		slog.Debug("chapter context build shared with concurrent caller", "chapter", chapter)
	}
	return v.(*entry), built, nil
}

// build loads the chapter document and creates the grounded context. Called
// at most once per chapter at a time, under singleflight. No cache-wide lock
// is held across the provider calls.
func (c *Cache) build(ctx context.Context, chapter int) (*entry, error) {
	start := time.Now()

	doc, err := c.store.Load(chapter)
	if err != nil {
		return nil, err
	}

	assistantCtx, err := c.provider.CreateGroundedContext(ctx, assistant.Document{
		Name: fmt.Sprintf("chapter%d", chapter),
		Text: doc,
	})
	if err != nil {
		slog.Error("chapter context build failed",
			"chapter", chapter,
			"elapsed", time.Since(start),
			"err", err,
		)
		return nil, err
	}

	e := &entry{ctx: assistantCtx, buildElapsed: time.Since(start)}
	c.mu.Lock()
	c.entries[chapter] = e
	c.mu.Unlock()

	slog.Info("chapter context ready",
		"chapter", chapter,
		"doc_bytes", len(doc),
		"elapsed", e.buildElapsed,
	)
	return e, nil
}

func (c *Cache) lookup(chapter int) *entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[chapter]
}

func (c *Cache) isSentinel(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), c.sentinel)
}
