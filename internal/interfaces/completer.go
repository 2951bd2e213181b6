package interfaces

import "context"

// Completer is the opaque external completion provider: prompt in, free-form
// text out, bounded by the ctx deadline and a completion token ceiling.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}
