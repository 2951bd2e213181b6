// Package scheduler drives the tick cadence for one (account, instrument)
// pair: build a feature frame, dispatch it, wait up to the deadline, hand the
// validated decision to the execution mediator, or skip the tick.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"llm-tick-trader/internal/audit"
	"llm-tick-trader/internal/logger"
	"llm-tick-trader/internal/marketdata"
	"llm-tick-trader/internal/mediator"
	"llm-tick-trader/internal/metrics"
	"llm-tick-trader/internal/trace"
	"llm-tick-trader/internal/transport"
	"llm-tick-trader/internal/types"
	"llm-tick-trader/internal/wire"
)

// DecisionClient is the producer end of a transport channel.
type DecisionClient interface {
	Request(ctx context.Context, req wire.Request) (wire.Response, error)
}

// Applier consumes validated decisions and owns position state.
type Applier interface {
	Apply(ctx context.Context, accountID string, d types.Decision) mediator.ApplyResult
	Position(accountID, instrument string) float64
}

// Recorder persists resolved ticks for audit. Optional.
type Recorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Config fixes one pair's cadence. Deadline must not exceed Interval so a
// tick always resolves before the next one is due.
type Config struct {
	AccountID  string
	Instrument string
	ModelID    string
	Interval   time.Duration
	Deadline   time.Duration
}

// Scheduler runs strictly sequential ticks for one pair. Sequential execution
// is what enforces at-most-one in-flight request: a new tick cannot start
// while the previous one is still waiting on its decision or its order.
type Scheduler struct {
	cfg    Config
	client DecisionClient
	source marketdata.Source
	med    Applier
	rec    Recorder
}

func New(cfg Config, client DecisionClient, source marketdata.Source, med Applier, rec Recorder) *Scheduler {
	return &Scheduler{cfg: cfg, client: client, source: source, med: med, rec: rec}
}

// Run loops until ctx is cancelled. Per-tick failures never abort the loop.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info(ctx, "Tick scheduler started",
		"account_id", s.cfg.AccountID,
		"instrument", s.cfg.Instrument,
		"model_id", s.cfg.ModelID,
		"interval", s.cfg.Interval.String(),
		"deadline", s.cfg.Deadline.String(),
	)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Tick scheduler stopped", "account_id", s.cfg.AccountID, "instrument", s.cfg.Instrument)
			return
		case <-ticker.C:
			res := s.RunTick(ctx)
			outcome := res.Applied
			if res.Skipped != types.SkipNone {
				outcome = "skipped:" + string(res.Skipped)
			}
			logger.TickOutcome(ctx, res.AccountID, res.Instrument, outcome,
				"request_id", res.RequestID, "position", res.Position)
		}
	}
}

// RunTick executes exactly one tick and resolves it to a decision or a skip.
func (s *Scheduler) RunTick(ctx context.Context) types.TickResult {
	ctx, span := trace.StartSpan(ctx, "tick")
	defer span.End()

	res := types.TickResult{AccountID: s.cfg.AccountID, Instrument: s.cfg.Instrument}

	snap, ok := s.source.Latest(s.cfg.Instrument)
	if !ok || snap.Price <= 0 {
		// Expected right after startup, before the feed has delivered
		// anything. Not an error.
		logger.Debug(ctx, "Market data not yet available", "instrument", s.cfg.Instrument)
		return s.skip(ctx, res, types.SkipDataUnavailable)
	}

	pos := s.med.Position(s.cfg.AccountID, s.cfg.Instrument)
	res.Position = pos

	frame := types.FeatureFrame{
		RequestID:       uuid.NewString(),
		AccountID:       s.cfg.AccountID,
		ModelID:         s.cfg.ModelID,
		Instrument:      s.cfg.Instrument,
		Timestamp:       snap.Timestamp,
		Price:           snap.Price,
		OpenInterest:    snap.OpenInterest,
		CurrentPosition: pos,
		Features:        snap.Features,
		FeatureNames:    snap.FeatureNames,
	}
	res.RequestID = frame.RequestID

	deadline := time.Now().Add(s.cfg.Deadline)
	tctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	req := wire.FromFrame(frame)
	req.DeadlineMS = deadline.UnixMilli()

	start := time.Now()
	resp, err := s.client.Request(tctx, req)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, transport.ErrTimeout) || tctx.Err() != nil {
			logger.Warn(ctx, "Decision round trip timed out",
				"request_id", frame.RequestID,
				"instrument", s.cfg.Instrument,
				"elapsed_ms", elapsed.Milliseconds(),
				"deadline_ms", s.cfg.Deadline.Milliseconds(),
			)
			return s.skip(ctx, res, types.SkipTimeout)
		}
		logger.ErrorWithErr(ctx, "Transport failure", err, "request_id", frame.RequestID, "instrument", s.cfg.Instrument)
		return s.skip(ctx, res, types.SkipTransportError)
	}

	// The client already drops mismatched ids; this guards the invariant at
	// the protocol boundary regardless of transport implementation.
	if resp.RequestID != frame.RequestID {
		return s.skip(ctx, res, types.SkipStaleResponse)
	}

	if resp.ErrorKind != "" {
		return s.skip(ctx, res, skipForErrorKind(ctx, resp.ErrorKind, frame.RequestID))
	}

	d := resp.Decision()
	if d.Instrument != s.cfg.Instrument {
		logger.Warn(ctx, "Decision for wrong instrument dropped",
			"request_id", frame.RequestID, "got", d.Instrument, "want", s.cfg.Instrument)
		return s.skip(ctx, res, types.SkipParseError)
	}

	metrics.DecisionLatency.WithLabelValues(s.cfg.Instrument).Observe(elapsed.Seconds())

	applied := s.med.Apply(ctx, s.cfg.AccountID, d)
	res.Decision = &d
	res.Applied = string(applied.Outcome)
	res.Order = applied.Order
	res.Position = applied.Position

	metrics.TicksTotal.WithLabelValues(s.cfg.AccountID, s.cfg.Instrument, res.Applied).Inc()
	s.record(ctx, audit.Entry{
		RequestID:  d.RequestID,
		AccountID:  s.cfg.AccountID,
		Instrument: s.cfg.Instrument,
		Cmd:        d.Cmd,
		TargetPos:  d.TargetPos,
		LatencyMS:  d.LatencyMS,
		Outcome:    res.Applied,
		RawText:    d.RawText,
	})
	return res
}

func (s *Scheduler) skip(ctx context.Context, res types.TickResult, reason types.SkipReason) types.TickResult {
	res.Skipped = reason
	metrics.TicksTotal.WithLabelValues(s.cfg.AccountID, s.cfg.Instrument, "skipped:"+string(reason)).Inc()
	if res.RequestID != "" {
		s.record(ctx, audit.Entry{
			RequestID:  res.RequestID,
			AccountID:  s.cfg.AccountID,
			Instrument: s.cfg.Instrument,
			Cmd:        "",
			Outcome:    "skipped:" + string(reason),
		})
	}
	return res
}

func (s *Scheduler) record(ctx context.Context, e audit.Entry) {
	if s.rec == nil {
		return
	}
	if err := s.rec.Record(ctx, e); err != nil {
		logger.ErrorWithErr(ctx, "Audit write failed", err, "request_id", e.RequestID)
	}
}

func skipForErrorKind(ctx context.Context, kind, requestID string) types.SkipReason {
	switch kind {
	case wire.ErrKindParse:
		return types.SkipParseError
	case wire.ErrKindDeadline:
		return types.SkipTimeout
	case wire.ErrKindInvalidInput:
		return types.SkipDataUnavailable
	case wire.ErrKindModelNotFound:
		// Configuration drift between trader and agent; repeated occurrences
		// warrant operator attention.
		logger.Error(ctx, "Worker endpoint has no such model", "request_id", requestID)
		return types.SkipProviderError
	default:
		return types.SkipProviderError
	}
}
