// Package style resolves the trading style text that anchors every prompt.
package style

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultStyle is used when the operator supplies nothing.
const DefaultStyle = "You are a conservative trader. Prefer small position adjustments, " +
	"reduce exposure when signals conflict, and hold when the market gives no clear edge."

// Resolve picks the style text by priority: inline flag, style file, then an
// interactive prompt on in/out when both are attached. An unreadable or
// unparseable style file is a hard error so a typo never silently downgrades
// to the default.
func Resolve(inline, file string, in io.Reader, out io.Writer) (string, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return s, nil
	}
	if file != "" {
		s, err := fromFile(file)
		if err != nil {
			return "", err
		}
		return s, nil
	}
	if in != nil && out != nil {
		return prompt(in, out)
	}
	return DefaultStyle, nil
}

func fromFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read style file: %w", err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", fmt.Errorf("style file %s is empty", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return fromJSON(path, b)
	}
	return text, nil
}

// fromJSON accepts either {"trading_style": "..."} or a bare JSON string.
func fromJSON(path string, b []byte) (string, error) {
	var doc struct {
		TradingStyle string `json:"trading_style"`
	}
	if err := json.Unmarshal(b, &doc); err == nil && strings.TrimSpace(doc.TradingStyle) != "" {
		return strings.TrimSpace(doc.TradingStyle), nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s), nil
	}
	return "", fmt.Errorf("style file %s: expected {\"trading_style\": ...} or a JSON string", path)
}

func prompt(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Describe your trading style (empty for default): ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read style: %w", err)
	}
	if s := strings.TrimSpace(line); s != "" {
		return s, nil
	}
	return DefaultStyle, nil
}
