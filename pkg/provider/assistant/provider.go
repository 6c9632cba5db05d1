// Package assistant defines the Provider interface for document-grounded
// conversational LLM backends.
//
// A grounded context is a stateful conversation whose very first turn is a
// reference document. The provider uploads the document once (some backends
// register it as a remote asset with its own processing lifecycle), waits for
// it to become usable, and then answers queries against it. The Interactive
// Trainer's chapter assistant builds exactly one such context per chapter and
// keeps it for the process lifetime; this package only specifies the per-
// context contract.
//
// Implementations must be safe for concurrent use at the Provider level.
// A Context is a single ordered conversation: callers must serialise Send
// calls on one Context themselves (the chapter session cache does this), but
// distinct Contexts may be used concurrently.
package assistant

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the provider client was never successfully
// initialised (e.g., missing API key). Maps to 503 at the HTTP surface.
var ErrUnavailable = errors.New("assistant: provider not available")

// ErrEmptyInput is returned by Send when the message is empty after trimming.
var ErrEmptyInput = errors.New("assistant: message must not be empty")

// ErrGroundingFailed is returned by CreateGroundedContext when the uploaded
// document never became usable: the asset reached a terminal failed state, or
// the bounded activation wait was exhausted. The condition is retryable — a
// later attempt may succeed.
var ErrGroundingFailed = errors.New("assistant: document grounding failed")

// AssetState is the processing lifecycle of an uploaded reference document on
// the provider side.
type AssetState string

const (
	// AssetPending means the provider is still processing the upload.
	AssetPending AssetState = "pending"

	// AssetActive means the asset is usable for grounding.
	AssetActive AssetState = "active"

	// AssetFailed is terminal: the asset can never be used.
	AssetFailed AssetState = "failed"
)

// Document is an immutable reference text to ground a conversation on.
type Document struct {
	// Name is a human-readable label for the document (used in provider-side
	// display names and logs, e.g., "chapter3").
	Name string

	// Text is the full plain-text content.
	Text string
}

// Reply is the outcome of a Send call that reached the provider.
//
// Blocked is reported as data rather than as an error so that callers are
// forced to handle the refusal case distinctly from transport failures: a
// blocked reply still warrants a well-formed, user-appropriate response,
// never a raw provider error.
type Reply struct {
	// Text is the assistant's reply. Empty when Blocked is true.
	Text string

	// Blocked is true when the provider returned a response with no content
	// parts — safety filtering or a quota refusal.
	Blocked bool
}

// Context is a stateful grounded conversation handle. It is not safe for
// concurrent Send calls; turn order within one conversation matters because
// the grounding document must remain the first turn.
type Context interface {
	// Send appends the message as the next user turn, obtains the assistant's
	// reply, and appends that too. Returns ErrEmptyInput for empty messages
	// and a wrapped provider error for transport failures. A Blocked reply is
	// not an error.
	Send(ctx context.Context, message string) (Reply, error)
}

// Provider creates grounded conversation contexts.
type Provider interface {
	// CreateGroundedContext uploads doc, waits (bounded) for it to become
	// usable, and opens a conversation seeded with the document as the sole
	// prior turn. Returns ErrGroundingFailed if the asset fails or the wait
	// budget is exhausted, or a wrapped provider error on transport failure.
	CreateGroundedContext(ctx context.Context, doc Document) (Context, error)
}
