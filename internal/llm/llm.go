package llm

import (
	"fmt"

	"llm-tick-trader/internal/interfaces"
	"llm-tick-trader/internal/llm/gemini"
	"llm-tick-trader/internal/llm/noop"
	"llm-tick-trader/internal/llm/openai"
	"llm-tick-trader/internal/store"
)

// NewCompleter selects the completion provider for one model binding.
func NewCompleter(binding store.ModelBinding) (interfaces.Completer, error) {
	switch binding.Provider {
	case "GEMINI":
		return gemini.New(binding), nil
	case "OPENAI":
		return openai.New(binding), nil
	case "NOOP":
		return noop.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", binding.Provider)
	}
}
