package preset

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownPreset is returned by Get for ids not in the catalog.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a canned announcement independent of route position.
type Preset struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Text        string `yaml:"text" json:"-"`
}

// Catalog holds presets in a fixed order. It is assembled at startup and
// never mutated afterwards.
type Catalog struct {
	order []string
	byID  map[string]Preset
}

// NewCatalog builds a catalog from the given presets, preserving order.
func NewCatalog(presets []Preset) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Preset, len(presets))}
	for _, p := range presets {
		if err := validatePreset(p); err != nil {
			return nil, err
		}
		if _, exists := c.byID[p.ID]; exists {
			return nil, fmt.Errorf("duplicate preset id %q", p.ID)
		}
		c.order = append(c.order, p.ID)
		c.byID[p.ID] = p
	}
	return c, nil
}

// List returns all presets in catalog order.
func (c *Catalog) List() []Preset {
	out := make([]Preset, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Get looks up a preset by id.
func (c *Catalog) Get(id string) (Preset, error) {
	p, ok := c.byID[id]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
	}
	return p, nil
}

type catalogFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadFile reads additional presets from a YAML catalog file.
func LoadFile(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse preset catalog: %w", err)
	}
	for _, p := range file.Presets {
		if err := validatePreset(p); err != nil {
			return nil, err
		}
	}
	return file.Presets, nil
}

// Build assembles the runtime catalog: built-in presets first, then the
// optional catalog file. File entries may not shadow built-in ids.
func Build(path string) (*Catalog, error) {
	presets := Builtin()
	if path != "" {
		extra, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		presets = append(presets, extra...)
	}
	return NewCatalog(presets)
}

func validatePreset(p Preset) error {
	if p.ID == "" {
		return errors.New("preset id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("preset %q: title is required", p.ID)
	}
	if p.Text == "" {
		return fmt.Errorf("preset %q: text is required", p.ID)
	}
	return nil
}
