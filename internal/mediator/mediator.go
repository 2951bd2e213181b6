// Package mediator applies validated decisions to live position state. It is
// the single writer of per-pair position weights: no other component may
// read-modify-write them.
package mediator

import (
	"context"
	"math"
	"sync"

	"llm-tick-trader/internal/interfaces"
	"llm-tick-trader/internal/logger"
	"llm-tick-trader/internal/metrics"
	"llm-tick-trader/internal/trace"
	"llm-tick-trader/internal/types"
)

// Outcome of applying one decision.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeNoOp     Outcome = "noop"
	OutcomeRejected Outcome = "rejected"
)

// ApplyResult reports what happened to one decision and the position weight
// after resolution.
type ApplyResult struct {
	Outcome  Outcome
	Order    *types.OrderSummary
	Reason   string
	Position float64
}

type pairState struct {
	mu       sync.Mutex
	position float64
}

// Mediator reconciles decision targets against current positions and issues
// the minimal order needed to reach the target exposure.
type Mediator struct {
	connector interfaces.Connector
	minDelta  float64

	mu     sync.Mutex
	states map[string]*pairState
}

func New(connector interfaces.Connector, minDelta float64) *Mediator {
	return &Mediator{
		connector: connector,
		minDelta:  minDelta,
		states:    map[string]*pairState{},
	}
}

func pairKey(accountID, instrument string) string {
	return accountID + "/" + instrument
}

func (m *Mediator) state(accountID, instrument string) *pairState {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(accountID, instrument)
	st, ok := m.states[key]
	if !ok {
		st = &pairState{}
		m.states[key] = st
	}
	return st
}

// Position returns a read-only snapshot of the current position weight, for
// inclusion in the next feature frame.
func (m *Mediator) Position(accountID, instrument string) float64 {
	st := m.state(accountID, instrument)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.position
}

// Apply executes one decision. The per-pair lock is held across the connector
// call: a second instruction for the same pair waits until the prior order is
// confirmed or rejected, so overlapping rebalances cannot race on the same
// position state. Position is updated only after connector confirmation.
func (m *Mediator) Apply(ctx context.Context, accountID string, d types.Decision) ApplyResult {
	ctx, span := trace.StartSpan(ctx, "mediator-apply")
	defer span.End()

	st := m.state(accountID, d.Instrument)
	st.mu.Lock()
	defer st.mu.Unlock()

	switch d.Cmd {
	case types.CmdHold:
		return ApplyResult{Outcome: OutcomeNoOp, Reason: "hold", Position: st.position}

	case types.CmdAdjust:
		target := clampWeight(d.TargetPos)
		delta := target - st.position
		if math.Abs(delta) < m.minDelta {
			logger.Debug(ctx, "Rebalance below minimum order size",
				"account_id", accountID, "instrument", d.Instrument,
				"delta", delta, "min_delta", m.minDelta)
			return ApplyResult{Outcome: OutcomeNoOp, Reason: "delta below minimum order size", Position: st.position}
		}

		summary, err := m.connector.PlaceOrderToReachTarget(ctx, accountID, d.Instrument, target)
		if err != nil {
			logger.ErrorWithErr(ctx, "Connector rejected order", err,
				"account_id", accountID, "instrument", d.Instrument, "target", target)
			return ApplyResult{Outcome: OutcomeRejected, Reason: err.Error(), Position: st.position}
		}

		st.position = target
		metrics.PositionWeight.WithLabelValues(accountID, d.Instrument).Set(target)
		metrics.OrdersTotal.WithLabelValues(accountID, d.Instrument, summary.Side).Inc()
		logger.Order(ctx, accountID, d.Instrument, summary.Side, summary.OrderID, delta,
			"target", target, "notional", summary.Notional)
		return ApplyResult{Outcome: OutcomeApplied, Order: &summary, Position: st.position}

	default:
		logger.Warn(ctx, "Unknown decision command", "cmd", d.Cmd, "instrument", d.Instrument)
		return ApplyResult{Outcome: OutcomeRejected, Reason: "unknown command " + d.Cmd, Position: st.position}
	}
}

// clampWeight bounds exposure to the valid [-1, 1] domain regardless of what
// the decision carries; the mediator never issues an order outside it.
func clampWeight(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
