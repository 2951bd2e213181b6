package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelBinding is one worker binding from the agent-side configuration: which
// model serves which account on which port, and how to reach its provider.
type ModelBinding struct {
	Port        int     `yaml:"port"`
	ModelID     string  `yaml:"model_id"`
	AccountID   string  `yaml:"account_id"`
	Provider    string  `yaml:"provider"` // GEMINI, OPENAI or NOOP
	ModelName   string  `yaml:"model_name"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	APIKeyEnv   string  `yaml:"api_key_env,omitempty"`
}

func (b *ModelBinding) validate(i int) error {
	if b.Port <= 0 {
		return fmt.Errorf("bindings[%d]: port is required", i)
	}
	if b.ModelID == "" {
		return fmt.Errorf("bindings[%d]: model_id is required", i)
	}
	switch b.Provider {
	case "GEMINI", "OPENAI", "NOOP":
	default:
		return fmt.Errorf("bindings[%d]: provider must be GEMINI, OPENAI or NOOP, got %q", i, b.Provider)
	}
	return nil
}

// LoadBindings reads the full binding list and keeps only the entries for the
// given port: one agent process hosts the workers of exactly one endpoint.
func LoadBindings(path string, port int) ([]ModelBinding, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Bindings []ModelBinding `yaml:"bindings"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}

	// Zero is a valid temperature (fully deterministic sampling), so absence
	// is detected separately from the value.
	var probe struct {
		Bindings []struct {
			Temperature *float32 `yaml:"temperature"`
		} `yaml:"bindings"`
	}
	if err := yaml.Unmarshal(b, &probe); err != nil {
		return nil, err
	}

	var out []ModelBinding
	for i := range doc.Bindings {
		bind := doc.Bindings[i]
		if err := bind.validate(i); err != nil {
			return nil, err
		}
		if bind.Port != port {
			continue
		}
		if bind.MaxTokens == 0 {
			bind.MaxTokens = 256
		}
		if probe.Bindings[i].Temperature == nil {
			bind.Temperature = 0.7
		}
		out = append(out, bind)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no bindings configured for port %d in %s", port, path)
	}
	return out, nil
}
