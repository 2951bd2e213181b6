package style

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveInlineWinsOverFile(t *testing.T) {
	path := writeFile(t, "style.txt", "file style")
	got, err := Resolve("inline style", path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "inline style" {
		t.Fatalf("got %q", got)
	}
}

func TestResolvePlainTextFile(t *testing.T) {
	path := writeFile(t, "style.txt", "  Swing trader, wide stops.  \n")
	got, err := Resolve("", path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Swing trader, wide stops." {
		t.Fatalf("got %q", got)
	}
}

func TestResolveJSONFile(t *testing.T) {
	path := writeFile(t, "style.json", `{"trading_style": "Scalper, quick exits."}`)
	got, err := Resolve("", path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Scalper, quick exits." {
		t.Fatalf("got %q", got)
	}

	path = writeFile(t, "bare.json", `"Bare JSON string style."`)
	got, err = Resolve("", path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Bare JSON string style." {
		t.Fatalf("got %q", got)
	}
}

func TestResolveBadFileIsHardError(t *testing.T) {
	if _, err := Resolve("", filepath.Join(t.TempDir(), "missing.txt"), nil, nil); err == nil {
		t.Fatal("missing file must not fall back to the default")
	}

	path := writeFile(t, "style.json", `{"something_else": true}`)
	if _, err := Resolve("", path, nil, nil); err == nil {
		t.Fatal("unusable JSON must not fall back to the default")
	}

	path = writeFile(t, "empty.txt", "   \n")
	if _, err := Resolve("", path, nil, nil); err == nil {
		t.Fatal("empty file must not fall back to the default")
	}
}

func TestResolveInteractive(t *testing.T) {
	var out strings.Builder
	got, err := Resolve("", "", strings.NewReader("Momentum chaser.\n"), &out)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Momentum chaser." {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(out.String(), "trading style") {
		t.Fatalf("prompt not shown: %q", out.String())
	}

	got, err = Resolve("", "", strings.NewReader("\n"), &out)
	if err != nil {
		t.Fatal(err)
	}
	if got != DefaultStyle {
		t.Fatalf("empty answer must yield the default, got %q", got)
	}
}

func TestResolveDefaultWithoutTerminal(t *testing.T) {
	got, err := Resolve("", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != DefaultStyle {
		t.Fatalf("got %q", got)
	}
}
