package interfaces

import (
	"context"

	"llm-tick-trader/internal/types"
)

// Connector is the opaque exchange order API. PlaceOrderToReachTarget returns
// only after the venue confirms acceptance; an error means nothing was filled
// and the caller's position state must stay untouched.
type Connector interface {
	PlaceOrderToReachTarget(ctx context.Context, accountID, instrument string, target float64) (types.OrderSummary, error)
	GetCurrentPrice(instrument string) (float64, bool)
}
