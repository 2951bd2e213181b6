package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"llm-tick-trader/internal/store"
	"llm-tick-trader/internal/trace"
)

type Completer struct {
	apiKey      string
	url         string
	model       string
	temperature float32
}

func New(binding store.ModelBinding) *Completer {
	keyEnv := binding.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}
	base := binding.BaseURL
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	model := binding.ModelName
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Completer{
		apiKey:      os.Getenv(keyEnv),
		url:         base + "/chat/completions",
		model:       model,
		temperature: binding.Temperature,
	}
}

func (c *Completer) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	if c.apiKey == "" {
		return "", errors.New("openai api key missing")
	}

	body := map[string]any{
		"model":       c.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"temperature": c.temperature,
		"max_tokens":  maxTokens,
	}
	bb, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
