package types

// Commands a decision worker may return.
const (
	CmdHold   = "hold"
	CmdAdjust = "adjust_position"
)

// FeatureFrame is the fixed-schema market snapshot dispatched to a decision
// worker for one instrument at one tick. Frames are immutable once dispatched;
// the scheduler never mutates an in-flight request. Feature order is
// significant: position encodes feature identity.
type FeatureFrame struct {
	RequestID       string
	AccountID       string
	ModelID         string
	Instrument      string
	Timestamp       int64
	Price           float64
	OpenInterest    float64
	CurrentPosition float64
	Features        []float64
	FeatureNames    []string
}

// Decision is the validated position instruction produced by a decision worker.
// TargetPos is always within [-1, 1] after validation. RawText keeps the
// unparsed model output for audit only and must never drive execution.
type Decision struct {
	RequestID  string  `json:"request_id"`
	Cmd        string  `json:"cmd"`
	Instrument string  `json:"instrument"`
	TargetPos  float64 `json:"target_pos"`
	LatencyMS  int64   `json:"latency_ms"`
	RawText    string  `json:"raw_text,omitempty"`
}

// SkipReason classifies why a tick resolved without a decision being applied.
type SkipReason string

const (
	SkipNone            SkipReason = ""
	SkipDataUnavailable SkipReason = "DATA_UNAVAILABLE"
	SkipTimeout         SkipReason = "TIMEOUT"
	SkipParseError      SkipReason = "PARSE_ERROR"
	SkipProviderError   SkipReason = "PROVIDER_ERROR"
	SkipTransportError  SkipReason = "TRANSPORT_ERROR"
	SkipStaleResponse   SkipReason = "STALE_RESPONSE"
)

// OrderSummary describes a confirmed connector order.
type OrderSummary struct {
	OrderID    string  `json:"order_id"`
	Instrument string  `json:"instrument"`
	Side       string  `json:"side"`
	Delta      float64 `json:"delta"`
	Notional   float64 `json:"notional"`
	Price      float64 `json:"price"`
}

// TickResult is the resolution of one scheduled tick for one
// (account, instrument) pair: either a decision (possibly with the order it
// produced) or a skip with its reason.
type TickResult struct {
	AccountID  string        `json:"account_id"`
	Instrument string        `json:"instrument"`
	RequestID  string        `json:"request_id,omitempty"`
	Decision   *Decision     `json:"decision,omitempty"`
	Skipped    SkipReason    `json:"skipped,omitempty"`
	Order      *OrderSummary `json:"order,omitempty"`
	Applied    string        `json:"applied,omitempty"`
	Position   float64       `json:"position"`
}
