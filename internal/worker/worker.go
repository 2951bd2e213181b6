// Package worker implements the decision worker: it turns one feature frame
// into a validated position decision by prompting an external completion
// provider and tolerantly parsing whatever text comes back.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"llm-tick-trader/internal/interfaces"
	"llm-tick-trader/internal/logger"
	"llm-tick-trader/internal/store"
	"llm-tick-trader/internal/trace"
	"llm-tick-trader/internal/types"
)

// Structured failure kinds. These are reportable tick outcomes, never panics;
// nothing crosses the worker boundary except a Decision or one of these.
var (
	ErrParse        = errors.New("could not extract instruction from model output")
	ErrProvider     = errors.New("completion provider failed")
	ErrDeadline     = errors.New("provider did not answer before deadline")
	ErrInvalidInput = errors.New("feature frame contains non-finite values")
)

// Worker owns one model binding and its immutable trading style for the
// lifetime of the process.
type Worker struct {
	binding   store.ModelBinding
	style     string
	completer interfaces.Completer
}

func New(binding store.ModelBinding, style string, completer interfaces.Completer) *Worker {
	return &Worker{binding: binding, style: style, completer: completer}
}

func (w *Worker) ModelID() string { return w.binding.ModelID }

// Decide implements interfaces.Decider. Latency is measured from entry to
// validated decision and is observability-only.
func (w *Worker) Decide(ctx context.Context, frame types.FeatureFrame) (types.Decision, error) {
	start := time.Now()
	ctx, span := trace.StartSpan(ctx, "worker-decide")
	defer span.End()

	if err := checkFinite(frame); err != nil {
		return types.Decision{}, err
	}

	prompt := BuildPrompt(frame, w.style)
	logger.Debug(ctx, "Prompt assembled", "model_id", w.binding.ModelID, "chars", len(prompt))

	text, err := w.completer.Complete(ctx, prompt, w.binding.MaxTokens)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return types.Decision{}, fmt.Errorf("%w: %v", ErrDeadline, err)
		}
		return types.Decision{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	instr, err := Parse(text, frame.Instrument)
	if err != nil {
		// Raw text is the only diagnosis material for a parse failure.
		logger.Warn(ctx, "Unparsable model output",
			"model_id", w.binding.ModelID,
			"request_id", frame.RequestID,
			"raw_text", truncate(text, 500),
		)
		return types.Decision{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	d := types.Decision{
		RequestID:  frame.RequestID,
		Cmd:        instr.Cmd,
		Instrument: frame.Instrument,
		TargetPos:  Clamp(instr.TargetPos),
		LatencyMS:  time.Since(start).Milliseconds(),
		RawText:    text,
	}
	if d.Cmd == types.CmdHold {
		d.TargetPos = frame.CurrentPosition
	}

	logger.Decision(ctx, d.Instrument, d.Cmd, d.TargetPos, d.LatencyMS,
		"model_id", w.binding.ModelID, "request_id", d.RequestID)
	return d, nil
}

func checkFinite(frame types.FeatureFrame) error {
	if math.IsNaN(frame.Price) || math.IsInf(frame.Price, 0) {
		return fmt.Errorf("%w: price", ErrInvalidInput)
	}
	for i, v := range frame.Features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: feature %d", ErrInvalidInput, i)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
