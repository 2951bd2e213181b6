package worker

import (
	"fmt"
	"math"
	"strings"

	"llm-tick-trader/internal/types"
)

// maxFeatureLines bounds prompt length: larger prompts raise provider latency
// and the whole round trip has to fit under the scheduler's deadline.
const maxFeatureLines = 32

// BuildPrompt renders one feature frame plus the worker's fixed trading style
// into a compact prompt ending with a strict output contract.
func BuildPrompt(frame types.FeatureFrame, style string) string {
	var b strings.Builder

	b.WriteString("You are a quantitative trading agent making fully automated position decisions from live market data.\n\n")

	if style != "" {
		b.WriteString("## Trading style\n")
		b.WriteString(strings.TrimSpace(style))
		b.WriteString("\n\n")
	}

	b.WriteString("## Market\n")
	fmt.Fprintf(&b, "- Instrument: %s\n", frame.Instrument)
	fmt.Fprintf(&b, "- Current price: %g\n", frame.Price)
	fmt.Fprintf(&b, "- Current position weight: %.4f (range -1 to 1; 1 = fully long, 0 = flat, -1 = fully short)\n", frame.CurrentPosition)
	if frame.OpenInterest != 0 {
		fmt.Fprintf(&b, "- Open interest: %g\n", frame.OpenInterest)
	}
	b.WriteString("\n")

	writeFeatures(&b, frame)

	b.WriteString("## Task\n")
	fmt.Fprintf(&b, "Decide the target position weight for %s based on the data above.\n", frame.Instrument)
	b.WriteString("Output format (required): POSITION_SIZE=<value>\n")
	b.WriteString("- value range: -1 to 1 (1 = fully long, 0 = flat, -1 = fully short)\n")
	b.WriteString("- example: POSITION_SIZE=0.5 or POSITION_SIZE=-0.3\n")
	b.WriteString("- if no position change is warranted, output HOLD instead\n")
	b.WriteString("Respond with the POSITION_SIZE line only.\n")

	return b.String()
}

func writeFeatures(b *strings.Builder, frame types.FeatureFrame) {
	if len(frame.Features) == 0 {
		return
	}

	named := len(frame.FeatureNames) == len(frame.Features)
	b.WriteString("## Features\n")
	if !named && len(frame.FeatureNames) > 0 {
		// Count mismatch: fall back to index labels rather than mislabeling.
		fmt.Fprintf(b, "(feature names unavailable: %d names for %d values)\n", len(frame.FeatureNames), len(frame.Features))
	}

	n := len(frame.Features)
	if n > maxFeatureLines {
		n = maxFeatureLines
	}
	for i := 0; i < n; i++ {
		if named {
			name := frame.FeatureNames[i]
			if strings.HasPrefix(name, "z_") {
				fmt.Fprintf(b, "- %s: %.4f%s\n", name, frame.Features[i], zScoreTag(frame.Features[i]))
			} else {
				fmt.Fprintf(b, "- %s: %.6f\n", name, frame.Features[i])
			}
		} else {
			fmt.Fprintf(b, "- feature[%d]: %.6f\n", i, frame.Features[i])
		}
	}
	if len(frame.Features) > n {
		fmt.Fprintf(b, "- ... (%d features total)\n", len(frame.Features))
	}
	b.WriteString("\n")
}

// zScoreTag annotates standardized features the way a human analyst would read
// them; values are expected roughly within [-3, 3].
func zScoreTag(v float64) string {
	switch abs := math.Abs(v); {
	case abs > 2.0:
		return " (significant deviation)"
	case abs > 1.0:
		return " (moderate deviation)"
	default:
		return ""
	}
}
