package worker

import (
	"strings"
	"testing"
)

func TestBuildPromptNamedFeatures(t *testing.T) {
	p := BuildPrompt(testFrame(), "Aggressive momentum trader.")

	for _, want := range []string{
		"## Trading style",
		"Aggressive momentum trader.",
		"Instrument: BTCUSDT",
		"Current position weight: 0.2000",
		"momentum_1h: 0.500000",
		"z_funding: -1.3000 (moderate deviation)",
		"z_oi_change: 2.4000 (significant deviation)",
		"POSITION_SIZE=<value>",
		"output HOLD instead",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q\n%s", want, p)
		}
	}
}

func TestBuildPromptFallsBackToIndexLabels(t *testing.T) {
	frame := testFrame()
	frame.FeatureNames = []string{"only_one_name"}
	p := BuildPrompt(frame, "")

	if strings.Contains(p, "only_one_name") {
		t.Error("mismatched names must not be used")
	}
	if !strings.Contains(p, "feature[0]:") || !strings.Contains(p, "feature[2]:") {
		t.Errorf("index labels missing:\n%s", p)
	}
}

func TestBuildPromptTruncatesLongFeatureVectors(t *testing.T) {
	frame := testFrame()
	frame.Features = make([]float64, maxFeatureLines+8)
	frame.FeatureNames = nil
	p := BuildPrompt(frame, "")

	if !strings.Contains(p, "40 features total") {
		t.Errorf("truncation note missing:\n%s", p)
	}
	if strings.Contains(p, "feature[32]:") {
		t.Error("features past the cap must not be rendered")
	}
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	frame := testFrame()
	frame.Features = nil
	frame.FeatureNames = nil
	frame.OpenInterest = 0
	p := BuildPrompt(frame, "")

	if strings.Contains(p, "## Features") {
		t.Error("empty feature vector must not render a section")
	}
	if strings.Contains(p, "Open interest") {
		t.Error("zero open interest must not be rendered")
	}
	if strings.Contains(p, "## Trading style") {
		t.Error("empty style must not render a section")
	}
}
