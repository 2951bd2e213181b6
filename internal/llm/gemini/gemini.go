package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"llm-tick-trader/internal/store"
	"llm-tick-trader/internal/trace"
)

// Completer calls the Gemini generateContent REST API.
type Completer struct {
	apiKey      string
	url         string
	temperature float32
}

func New(binding store.ModelBinding) *Completer {
	keyEnv := binding.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "GEMINI_API_KEY"
	}
	base := binding.BaseURL
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := binding.ModelName
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Completer{
		apiKey:      os.Getenv(keyEnv),
		url:         fmt.Sprintf("%s/models/%s:generateContent", base, model),
		temperature: binding.Temperature,
	}
}

func (c *Completer) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, span := trace.StartSpan(ctx, "gemini-api-call")
	defer span.End()

	if c.apiKey == "" {
		return "", errors.New("gemini api key missing")
	}

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     c.temperature,
			"maxOutputTokens": maxTokens,
		},
	}
	bb, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url+"?key="+c.apiKey, bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini http %d: %s", resp.StatusCode, string(body))
	}

	// candidates[0].content.parts[0].text
	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no candidates in gemini response")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
