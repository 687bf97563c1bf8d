package preset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinCatalogOrderIsStable(t *testing.T) {
	c, err := NewCatalog(Builtin())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := c.List()
	second := c.List()
	if len(first) == 0 {
		t.Fatal("expected built-in presets")
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("list order not stable at %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}

func TestGetUnknownPreset(t *testing.T) {
	c, err := NewCatalog(Builtin())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Get("gibt-es-nicht"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("want ErrUnknownPreset, got %v", err)
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	presets := []Preset{
		{ID: "a", Title: "A", Text: "eins"},
		{ID: "a", Title: "A2", Text: "zwei"},
	}
	if _, err := NewCatalog(presets); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	body := `presets:
  - id: bordbistro
    title: Bordbistro
    description: Hinweis auf das Bordbistro.
    text: Unser Bordbistro in der Wagenmitte ist fuer Sie geoeffnet.
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	presets, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(presets) != 1 || presets[0].ID != "bordbistro" {
		t.Fatalf("unexpected presets: %+v", presets)
	}
}

func TestLoadFileRejectsMissingText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	body := `presets:
  - id: kaputt
    title: Kaputt
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildMergesFilePresets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	body := `presets:
  - id: bordbistro
    title: Bordbistro
    description: Hinweis auf das Bordbistro.
    text: Unser Bordbistro ist geoeffnet.
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := Build(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Get("bordbistro"); err != nil {
		t.Fatalf("file preset missing: %v", err)
	}
	if _, err := c.Get("sicherheitshinweis"); err != nil {
		t.Fatalf("built-in preset missing: %v", err)
	}
	// Built-ins come first.
	if c.List()[0].ID != Builtin()[0].ID {
		t.Fatalf("built-ins must precede file presets")
	}
}
