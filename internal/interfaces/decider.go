package interfaces

import (
	"context"

	"llm-tick-trader/internal/types"
)

// Decider turns one feature frame into a validated decision. Implementations
// must respect the deadline carried by ctx and return a typed error instead of
// letting a parse failure or provider failure escape as a panic.
type Decider interface {
	Decide(ctx context.Context, frame types.FeatureFrame) (types.Decision, error)
}
