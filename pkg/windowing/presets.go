package windowing

import (
	"fmt"
	"sort"
	"strings"
)

// Presets maps a preset name to a window. Names are matched without regard to case.
type Presets map[string]Window

// DefaultPresets returns the common CT viewing windows
func DefaultPresets() Presets {
	return Presets{
		"SOFT_TISSUE": {Center: 40, Width: 400},
		"BONE":        {Center: 400, Width: 2000},
		"LUNG":        {Center: -600, Width: 1500},
		"BRAIN":       {Center: 50, Width: 350},
	}
}

// Lookup finds a preset by case-insensitive name
func (p Presets) Lookup(name string) (Window, error) {
	name = strings.TrimSpace(name)
	if w, ok := p[strings.ToUpper(name)]; ok {
		return w, nil
	}
	for key, w := range p {
		if strings.EqualFold(key, name) {
			return w, nil
		}
	}
	return Window{}, fmt.Errorf("unknown window preset %q (have %s)", name, strings.Join(p.Names(), ", "))
}

// Names returns the preset names in sorted order
func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
