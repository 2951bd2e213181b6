// Package wire defines the msgpack request/response schema exchanged between
// the tick scheduler (client) and a decision worker endpoint (server).
package wire

import (
	"github.com/vmihailenco/msgpack/v5"

	"llm-tick-trader/internal/types"
)

// Failure kinds carried in Response.ErrorKind. Empty means success.
const (
	ErrKindParse         = "parse_error"
	ErrKindProvider      = "provider_error"
	ErrKindDeadline      = "deadline_exceeded"
	ErrKindModelNotFound = "model_not_found"
	ErrKindInvalidInput  = "invalid_input"
)

// Request is one dispatched feature frame. Feature order is significant;
// names travel alongside values so the worker can label them in the prompt.
type Request struct {
	RequestID       string    `msgpack:"request_id"`
	AccountID       string    `msgpack:"account_id"`
	ModelID         string    `msgpack:"model_id"`
	Instrument      string    `msgpack:"instrument"`
	Timestamp       int64     `msgpack:"timestamp"`
	Price           float64   `msgpack:"price"`
	OpenInterest    float64   `msgpack:"open_interest"`
	CurrentPosition float64   `msgpack:"current_position"`
	Features        []float64 `msgpack:"features"`
	FeatureNames    []string  `msgpack:"feature_names,omitempty"`
	// DeadlineMS is the scheduler's absolute deadline (unix milliseconds).
	// The worker bounds its provider call by the remaining time; answers
	// produced later than this are dead on arrival anyway.
	DeadlineMS int64 `msgpack:"deadline_ms,omitempty"`
}

// Response is the worker's answer to exactly one Request, matched by
// RequestID. A non-empty ErrorKind marks a structured failure; the other
// decision fields are then meaningless.
type Response struct {
	RequestID  string  `msgpack:"request_id"`
	Cmd        string  `msgpack:"cmd,omitempty"`
	Instrument string  `msgpack:"instrument,omitempty"`
	TargetPos  float64 `msgpack:"target_pos,omitempty"`
	LatencyMS  int64   `msgpack:"latency_ms,omitempty"`
	RawText    string  `msgpack:"raw_text,omitempty"`
	ErrorKind  string  `msgpack:"error_kind,omitempty"`
}

func EncodeRequest(r Request) ([]byte, error)  { return msgpack.Marshal(r) }
func EncodeResponse(r Response) ([]byte, error) { return msgpack.Marshal(r) }

func DecodeRequest(b []byte) (Request, error) {
	var r Request
	err := msgpack.Unmarshal(b, &r)
	return r, err
}

func DecodeResponse(b []byte) (Response, error) {
	var r Response
	err := msgpack.Unmarshal(b, &r)
	return r, err
}

// Frame converts a Request to the worker-side feature frame.
func (r Request) Frame() types.FeatureFrame {
	return types.FeatureFrame{
		RequestID:       r.RequestID,
		AccountID:       r.AccountID,
		ModelID:         r.ModelID,
		Instrument:      r.Instrument,
		Timestamp:       r.Timestamp,
		Price:           r.Price,
		OpenInterest:    r.OpenInterest,
		CurrentPosition: r.CurrentPosition,
		Features:        r.Features,
		FeatureNames:    r.FeatureNames,
	}
}

// FromFrame builds a Request from a scheduler-side feature frame.
func FromFrame(f types.FeatureFrame) Request {
	return Request{
		RequestID:       f.RequestID,
		AccountID:       f.AccountID,
		ModelID:         f.ModelID,
		Instrument:      f.Instrument,
		Timestamp:       f.Timestamp,
		Price:           f.Price,
		OpenInterest:    f.OpenInterest,
		CurrentPosition: f.CurrentPosition,
		Features:        f.Features,
		FeatureNames:    f.FeatureNames,
	}
}

// Decision converts a successful Response into a validated decision value.
func (r Response) Decision() types.Decision {
	return types.Decision{
		RequestID:  r.RequestID,
		Cmd:        r.Cmd,
		Instrument: r.Instrument,
		TargetPos:  r.TargetPos,
		LatencyMS:  r.LatencyMS,
		RawText:    r.RawText,
	}
}

// FromDecision builds a success Response from a validated decision.
func FromDecision(d types.Decision) Response {
	return Response{
		RequestID:  d.RequestID,
		Cmd:        d.Cmd,
		Instrument: d.Instrument,
		TargetPos:  d.TargetPos,
		LatencyMS:  d.LatencyMS,
		RawText:    d.RawText,
	}
}

// Failure builds a structured failure Response for a request id.
func Failure(requestID, kind string) Response {
	return Response{RequestID: requestID, ErrorKind: kind}
}
