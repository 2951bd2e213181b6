package worker

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"llm-tick-trader/internal/types"
)

// Instruction is the structured fragment extracted from free-form model text.
type Instruction struct {
	Cmd       string
	TargetPos float64
}

// Model output is natural language with an embedded instruction, not a strict
// grammar. The extractor scans anywhere in the text for the position fragment
// and tolerates commentary around it.
var (
	rePosition   = regexp.MustCompile(`(?i)(?:POSITION_SIZE|TARGET_POSITION)\s*[=:]\s*(-?(?:\d+\.?\d*|\.\d+))`)
	reInstrument = regexp.MustCompile(`(?i)(?:INSTRUMENT|INST)\s*[=:]\s*([A-Za-z0-9_\-/]+)`)
	reHold       = regexp.MustCompile(`(?i)\b(?:hold|no action|stay flat|noop|do nothing)\b`)
)

// Parse extracts an instruction from model output. instrument is the
// originating request's instrument: if the text names a different one the
// model answered the wrong question, which is a parse failure, not a decision.
func Parse(text, instrument string) (Instruction, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return Instruction{}, fmt.Errorf("empty model output")
	}

	if m := reInstrument.FindStringSubmatch(t); m != nil {
		got := strings.ToUpper(strings.TrimSpace(m[1]))
		want := strings.ToUpper(strings.TrimSpace(instrument))
		if want != "" && got != want {
			return Instruction{}, fmt.Errorf("instrument mismatch: model answered %q, asked about %q", got, want)
		}
	}

	if m := rePosition.FindStringSubmatch(t); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Instruction{}, fmt.Errorf("non-finite position target %q", m[1])
		}
		return Instruction{Cmd: types.CmdAdjust, TargetPos: v}, nil
	}

	if reHold.MatchString(t) {
		return Instruction{Cmd: types.CmdHold}, nil
	}

	return Instruction{}, fmt.Errorf("no recognizable instruction in model output")
}

// Clamp bounds a position target to the valid [-1, 1] domain. Overshoot is a
// known model failure mode; user-visible exposure stays bounded regardless.
func Clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
