package core

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrPresetExists   = errors.New("preset already exists")
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidPreset  = errors.New("invalid preset")
)

// Catalog is a registry of named presets. It is safe for concurrent use;
// the engine itself never touches it.
type Catalog struct {
	mu      sync.RWMutex
	presets map[string]*Preset
}

// NewCatalog creates a catalog holding the given presets.
func NewCatalog(presets ...*Preset) (*Catalog, error) {
	c := &Catalog{presets: make(map[string]*Preset)}
	for _, p := range presets {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers p under its name.
func (c *Catalog) Add(p *Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.presets[p.Name]; exists {
		return fmt.Errorf("%w: %q", ErrPresetExists, p.Name)
	}
	cp := *p
	c.presets[p.Name] = &cp
	return nil
}

// Put registers p, replacing any preset with the same name.
func (c *Catalog) Put(p *Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *p
	c.presets[p.Name] = &cp
	return nil
}

// Get returns a copy of the named preset.
func (c *Catalog) Get(name string) (Preset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return *p, nil
}

// Remove deletes the named preset.
func (c *Catalog) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.presets[name]; !ok {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	delete(c.presets, name)
	return nil
}

// List returns copies of all presets sorted by name.
func (c *Catalog) List() []Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Preset, 0, len(c.presets))
	for _, p := range c.presets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered presets.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.presets)
}
