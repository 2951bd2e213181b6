package worker

import (
	"context"
	"errors"
	"time"

	"llm-tick-trader/internal/interfaces"
	"llm-tick-trader/internal/logger"
	"llm-tick-trader/internal/wire"
)

// Host serves all deciders bound to one transport endpoint, routed by model
// id. It implements transport.Handler.
type Host struct {
	deciders map[string]interfaces.Decider
}

func NewHost() *Host {
	return &Host{deciders: map[string]interfaces.Decider{}}
}

func (h *Host) Register(modelID string, d interfaces.Decider) {
	h.deciders[modelID] = d
}

func (h *Host) ModelIDs() []string {
	ids := make([]string, 0, len(h.deciders))
	for id := range h.deciders {
		ids = append(ids, id)
	}
	return ids
}

// Handle answers one request with one response; decider failures become
// structured error kinds on the wire, never dropped frames.
func (h *Host) Handle(ctx context.Context, req wire.Request) wire.Response {
	w, ok := h.deciders[req.ModelID]
	if !ok {
		logger.Warn(ctx, "No worker for model id", "model_id", req.ModelID, "request_id", req.RequestID)
		return wire.Failure(req.RequestID, wire.ErrKindModelNotFound)
	}

	// Bound the provider call by the scheduler's remaining time budget.
	if req.DeadlineMS > 0 {
		deadline := time.UnixMilli(req.DeadlineMS)
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	d, err := w.Decide(ctx, req.Frame())
	if err != nil {
		logger.Warn(ctx, "Decision failed", "model_id", req.ModelID, "request_id", req.RequestID, "error", err.Error())
		switch {
		case errors.Is(err, ErrParse):
			return wire.Failure(req.RequestID, wire.ErrKindParse)
		case errors.Is(err, ErrDeadline):
			return wire.Failure(req.RequestID, wire.ErrKindDeadline)
		case errors.Is(err, ErrInvalidInput):
			return wire.Failure(req.RequestID, wire.ErrKindInvalidInput)
		default:
			return wire.Failure(req.RequestID, wire.ErrKindProvider)
		}
	}
	return wire.FromDecision(d)
}
