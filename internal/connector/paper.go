// Package connector ships the paper implementation of the opaque exchange
// order API. Real venue connectors live outside this repository and plug in
// through interfaces.Connector.
package connector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"llm-tick-trader/internal/marketdata"
	"llm-tick-trader/internal/types"
)

var (
	// ErrPriceUnavailable means no market snapshot exists yet for the
	// instrument; nothing can be sized.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrBelowMinNotional mirrors venue minimum order size constraints.
	ErrBelowMinNotional = errors.New("order notional below venue minimum")
)

// Paper simulates an exchange that always accepts orders above the minimum
// notional. It keeps its own book so fills are consistent across calls.
type Paper struct {
	prices      marketdata.Source
	equity      float64
	minNotional float64

	mu   sync.Mutex
	book map[string]float64 // position weight per account/instrument
}

func NewPaper(prices marketdata.Source, equity, minNotional float64) *Paper {
	return &Paper{
		prices:      prices,
		equity:      equity,
		minNotional: minNotional,
		book:        map[string]float64{},
	}
}

func (p *Paper) PlaceOrderToReachTarget(ctx context.Context, accountID, instrument string, target float64) (types.OrderSummary, error) {
	if err := ctx.Err(); err != nil {
		return types.OrderSummary{}, err
	}
	snap, ok := p.prices.Latest(instrument)
	if !ok || snap.Price <= 0 {
		return types.OrderSummary{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, instrument)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := accountID + "/" + instrument
	delta := target - p.book[key]
	notional := math.Abs(delta) * p.equity
	if notional < p.minNotional {
		return types.OrderSummary{}, fmt.Errorf("%w: %.2f < %.2f", ErrBelowMinNotional, notional, p.minNotional)
	}

	side := "BUY"
	if delta < 0 {
		side = "SELL"
	}
	p.book[key] = target

	return types.OrderSummary{
		OrderID:    uuid.NewString(),
		Instrument: instrument,
		Side:       side,
		Delta:      delta,
		Notional:   notional,
		Price:      snap.Price,
	}, nil
}

func (p *Paper) GetCurrentPrice(instrument string) (float64, bool) {
	snap, ok := p.prices.Latest(instrument)
	if !ok || snap.Price <= 0 {
		return 0, false
	}
	return snap.Price, true
}
