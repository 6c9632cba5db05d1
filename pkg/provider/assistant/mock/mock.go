// Package mock provides a test double for the assistant.Provider interface.
//
// Use Provider in unit tests to verify grounding-call counts (the chapter
// cache's single-flight property) and to feed controlled replies without a
// live LLM backend.
//
// Example:
//
//	p := &mock.Provider{Reply: assistant.Reply{Text: "The hero wins."}}
//	c, err := p.CreateGroundedContext(ctx, doc)
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant"
)

// Provider is a mock implementation of assistant.Provider.
// Zero values cause methods to succeed with zero-value results; set the Err
// fields to inject failures. Safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	// --- Configurable behaviour ---

	// CreateErr, if non-nil, is returned from CreateGroundedContext.
	CreateErr error

	// CreateDelay, if non-nil, is closed by the test to release in-flight
	// CreateGroundedContext calls; used to hold builds open while concurrent
	// callers pile up.
	CreateDelay chan struct{}

	// Reply is returned from every Send on contexts created by this provider
	// unless ReplyFunc is set.
	Reply assistant.Reply

	// ReplyFunc, when non-nil, computes the reply for each Send from the
	// message. Takes precedence over Reply.
	ReplyFunc func(message string) (assistant.Reply, error)

	// SendErr, if non-nil, is returned from every Send.
	SendErr error

	// --- Recorded calls ---

	// Created holds the documents passed to CreateGroundedContext, in order.
	Created []assistant.Document

	// Sent holds every message passed to Send across all contexts, in order.
	Sent []string
}

var _ assistant.Provider = (*Provider)(nil)

// CreateGroundedContext implements assistant.Provider.
func (p *Provider) CreateGroundedContext(ctx context.Context, doc assistant.Document) (assistant.Context, error) {
	p.mu.Lock()
	p.Created = append(p.Created, doc)
	delay := p.CreateDelay
	err := p.CreateErr
	p.mu.Unlock()

	if delay != nil {
		select {
		case <-delay:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &Context{provider: p, doc: doc}, nil
}

// CreateCalls returns the number of grounding calls made so far.
func (p *Provider) CreateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Created)
}

// Context is the conversation handle returned by the mock provider.
type Context struct {
	provider *Provider
	doc      assistant.Document
}

var _ assistant.Context = (*Context)(nil)

// Document returns the grounding document this context was created with.
func (c *Context) Document() assistant.Document { return c.doc }

// Send implements assistant.Context.
func (c *Context) Send(_ context.Context, message string) (assistant.Reply, error) {
	if strings.TrimSpace(message) == "" {
		return assistant.Reply{}, assistant.ErrEmptyInput
	}

	c.provider.mu.Lock()
	c.provider.Sent = append(c.provider.Sent, message)
	replyFunc := c.provider.ReplyFunc
	reply := c.provider.Reply
	err := c.provider.SendErr
	c.provider.mu.Unlock()

	if err != nil {
		return assistant.Reply{}, err
	}
	if replyFunc != nil {
		return replyFunc(message)
	}
	return reply, nil
}
