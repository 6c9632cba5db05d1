// Package inline provides an assistant provider backed by
// github.com/mozilla-ai/any-llm-go. It grounds conversations by embedding the
// chapter document directly in the system prompt, which makes it work with
// any chat backend regardless of file-upload support (OpenAI, Anthropic,
// Ollama, Mistral, Groq, and local llama.cpp servers included).
package inline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/Aditya-402/Interactive-trainer/pkg/provider/assistant"
)

// promptTemplate is the scaffold the chapter document gets embedded into. The
// first verb is the sentinel the backend must emit for out-of-scope questions.
const promptTemplate = "You are a study assistant for a single chapter of a training course. " +
	"Answer questions using only the chapter document below. " +
	"If the question cannot be answered from the document, reply with exactly %s and nothing else.\n\n" +
	"--- CHAPTER DOCUMENT: %s ---\n%s\n--- END OF DOCUMENT ---"

// Option is a functional option for configuring the inline Provider.
type Option func(*Provider)

// WithSentinel sets the out-of-scope marker written into the system prompt.
func WithSentinel(s string) Option {
	return func(p *Provider) {
		p.sentinel = s
	}
}

// WithTemperature sets the sampling temperature for all completions.
func WithTemperature(t float64) Option {
	return func(p *Provider) {
		p.temperature = &t
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(p *Provider) {
		p.maxTokens = &n
	}
}

// Provider implements assistant.Provider on top of any chat backend supported
// by any-llm-go.
type Provider struct {
	backend     anyllmlib.Provider
	model       string
	sentinel    string
	temperature *float64
	maxTokens   *int
}

// New creates a Provider backed by the named chat backend.
//
// backendName is one of: "openai", "anthropic", "gemini", "ollama", "mistral",
// "groq". libOpts are any-llm-go options (e.g., anyllmlib.WithAPIKey,
// anyllmlib.WithBaseURL); without an API key option the backend falls back to
// its usual environment variable.
func New(backendName, model string, libOpts []anyllmlib.Option, opts ...Option) (*Provider, error) {
	if model == "" {
		return nil, errors.New("inline: model must not be empty")
	}
	backend, err := createBackend(backendName, libOpts...)
	if err != nil {
		return nil, fmt.Errorf("inline: create %q backend: %w", backendName, err)
	}
	p := &Provider{
		backend:  backend,
		model:    model,
		sentinel: "NOT_IN_SCOPE",
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

func createBackend(name string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(name) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported backend %q; supported: openai, anthropic, gemini, ollama, mistral, groq", name)
	}
}

// groundingPrompt renders the full system prompt for a document.
func (p *Provider) groundingPrompt(doc assistant.Document) string {
	return fmt.Sprintf(promptTemplate, p.sentinel, doc.Name, doc.Text)
}

// CreateGroundedContext builds a conversation whose system prompt carries the
// whole chapter document. No upload round-trip is involved, so the handle is
// ready immediately.
func (p *Provider) CreateGroundedContext(_ context.Context, doc assistant.Document) (assistant.Context, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("inline: %w: document %q is empty", assistant.ErrGroundingFailed, doc.Name)
	}
	return &Context{
		provider: p,
		messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleSystem, Content: p.groundingPrompt(doc)},
		},
	}, nil
}

// Context is a grounded conversation handle with client-side history.
type Context struct {
	provider *Provider

	mu       sync.Mutex
	messages []anyllmlib.Message
}

// Send submits a user message with the full history and returns the backend
// reply. A response without choices is reported as blocked rather than failed.
func (c *Context) Send(ctx context.Context, message string) (assistant.Reply, error) {
	if strings.TrimSpace(message) == "" {
		return assistant.Reply{}, assistant.ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := append(append([]anyllmlib.Message{}, c.messages...), anyllmlib.Message{
		Role:    anyllmlib.RoleUser,
		Content: message,
	})
	params := anyllmlib.CompletionParams{
		Model:       c.provider.model,
		Messages:    msgs,
		Temperature: c.provider.temperature,
		MaxTokens:   c.provider.maxTokens,
	}

	resp, err := c.provider.backend.Completion(ctx, params)
	if err != nil {
		return assistant.Reply{}, fmt.Errorf("inline: %w: completion: %v", assistant.ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return assistant.Reply{Blocked: true}, nil
	}
	text := resp.Choices[0].Message.ContentString()

	c.messages = append(c.messages, anyllmlib.Message{
		Role:    anyllmlib.RoleUser,
		Content: message,
	}, anyllmlib.Message{
		Role:    anyllmlib.RoleAssistant,
		Content: text,
	})
	return assistant.Reply{Text: text}, nil
}
