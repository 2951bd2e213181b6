package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
pairs:
  - account_id: acct-1
    instrument: BTCUSDT
    model_id: model-a
    endpoint: localhost:8001
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TickSeconds != 60 || cfg.DecisionTimeoutSeconds != 30 {
		t.Fatalf("cadence defaults: %+v", cfg)
	}
	if cfg.MinOrderDelta != 0.01 {
		t.Fatalf("min_order_delta = %v", cfg.MinOrderDelta)
	}
	if cfg.MetricsAddr != ":9090" || cfg.AuditPath != "decisions.db" {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.Paper.Equity != 10000 || cfg.Paper.MinNotional != 6 {
		t.Fatalf("paper defaults: %+v", cfg.Paper)
	}
}

func TestLoadConfigFull(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
tick_seconds: 180
decision_timeout_seconds: 45
min_order_delta: 0.05
pairs:
  - account_id: acct-1
    instrument: BTCUSDT
    model_id: model-a
    endpoint: localhost:8001
    seed:
      price: 65000
      features: [0.5, -1.3]
      feature_names: [momentum_1h, z_funding]
  - account_id: acct-1
    instrument: ETHUSDT
    model_id: model-b
    endpoint: localhost:8002
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TickSeconds != 180 || cfg.DecisionTimeoutSeconds != 45 {
		t.Fatalf("cadence: %+v", cfg)
	}
	if len(cfg.Pairs) != 2 {
		t.Fatalf("pairs: %d", len(cfg.Pairs))
	}
	seed := cfg.Pairs[0].Seed
	if seed == nil || seed.Price != 65000 || len(seed.Features) != 2 {
		t.Fatalf("seed: %+v", seed)
	}
	if cfg.Pairs[1].Seed != nil {
		t.Fatal("unset seed must stay nil")
	}
}

func TestLoadConfigExplicitZeroMinOrderDelta(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "min_order_delta: 0\n"+minimalConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MinOrderDelta != 0 {
		t.Fatalf("min_order_delta = %v, explicit zero must not be defaulted", cfg.MinOrderDelta)
	}
}

func TestLoadConfigRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"no pairs", "tick_seconds: 60\n", "pairs cannot be empty"},
		{"duplicate pair", minimalConfig + `
  - account_id: acct-1
    instrument: BTCUSDT
    model_id: model-b
    endpoint: localhost:8002
`, "duplicate pair"},
		{"missing model id", `
pairs:
  - account_id: acct-1
    instrument: BTCUSDT
    endpoint: localhost:8001
`, "model_id is required"},
		{"tick shorter than timeout", "tick_seconds: 10\ndecision_timeout_seconds: 30\n" + minimalConfig, "must be >="},
		{"min delta out of range", "min_order_delta: 1.5\n" + minimalConfig, "min_order_delta"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

const bindingsDoc = `
bindings:
  - port: 8001
    model_id: model-a
    account_id: acct-1
    provider: GEMINI
    model_name: gemini-2.0-flash
  - port: 8001
    model_id: model-b
    account_id: acct-2
    provider: NOOP
    max_tokens: 512
    temperature: 0.2
  - port: 8002
    model_id: model-c
    account_id: acct-3
    provider: OPENAI
    model_name: gpt-4o-mini
`

func TestLoadBindingsFiltersByPort(t *testing.T) {
	path := writeConfig(t, bindingsDoc)

	got, err := LoadBindings(path, 8001)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("bindings = %d, want 2", len(got))
	}
	if got[0].ModelID != "model-a" || got[1].ModelID != "model-b" {
		t.Fatalf("got %+v", got)
	}

	// Defaults fill only unset fields.
	if got[0].MaxTokens != 256 || got[0].Temperature != 0.7 {
		t.Fatalf("defaults not applied: %+v", got[0])
	}
	if got[1].MaxTokens != 512 || got[1].Temperature != 0.2 {
		t.Fatalf("explicit values overridden: %+v", got[1])
	}
}

func TestLoadBindingsExplicitZeroTemperature(t *testing.T) {
	path := writeConfig(t, `
bindings:
  - port: 8001
    model_id: model-a
    provider: NOOP
    temperature: 0
`)
	got, err := LoadBindings(path, 8001)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Temperature != 0 {
		t.Fatalf("temperature = %v, explicit zero must not be defaulted", got[0].Temperature)
	}
}

func TestLoadBindingsNoMatchIsError(t *testing.T) {
	path := writeConfig(t, bindingsDoc)
	if _, err := LoadBindings(path, 9999); err == nil {
		t.Fatal("expected error for port with no bindings")
	}
}

func TestLoadBindingsRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
bindings:
  - port: 8001
    model_id: model-a
    provider: LLAMA_AT_HOME
`)
	if _, err := LoadBindings(path, 8001); err == nil {
		t.Fatal("expected provider validation error")
	}
}
