package assistant

import "context"

// Unavailable is the Provider used when no assistant backend is configured.
// Grounding always fails with [ErrUnavailable], so the assistant endpoints
// answer 503 while the rest of the server keeps running.
type Unavailable struct{}

var _ Provider = Unavailable{}

// CreateGroundedContext implements Provider; it always fails with
// [ErrUnavailable].
func (Unavailable) CreateGroundedContext(context.Context, Document) (Context, error) {
	return nil, ErrUnavailable
}
