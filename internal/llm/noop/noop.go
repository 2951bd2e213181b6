package noop

import "context"

// Completer is a deterministic stand-in used when no provider is configured
// and by tests: it echoes a fixed response regardless of the prompt.
type Completer struct {
	Text string
}

// New returns a completer that always answers with a flat position.
func New() *Completer {
	return &Completer{Text: "POSITION_SIZE=0.0"}
}

// NewScripted returns a completer answering with the given text.
func NewScripted(text string) *Completer {
	return &Completer{Text: text}
}

func (c *Completer) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.Text, nil
}
