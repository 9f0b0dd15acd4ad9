package palette

import "sync"

// House ramp: the block of indices rewritten by faction color schemes.
var HouseRamp = Range{80, 95}

// HouseParams blends each step of the house ramp toward the matching step of
// a scheme ramp, so the shading of the ramp carries over to the house color.
func HouseParams(ramp Range, frac int) Params {
	return Params{
		Target:      uint8(ramp.Lo),
		TargetRamp:  ramp,
		Frac:        frac,
		Blend:       BlendModern,
		Remap:       HouseRamp,
		Match:       Opaque,
		AllowSelf:   true,
		StopOnExact: true,
	}
}

// ShadowParams darkens every index by half toward the shadow color.
// Uses the legacy blend, matching the game's unit shadow table.
func ShadowParams() Params {
	return Params{
		Target: IndexShadow,
		Frac:   0x80,
		Blend:  BlendLegacy,
		Remap:  Opaque,
		Match:  Range{1, 254},
	}
}

// BrightenParams lifts every index uniformly toward white.
func BrightenParams(frac int) Params {
	return Params{
		Target:       IndexWhite,
		Frac:         frac,
		Blend:        BlendModern,
		Remap:        Opaque,
		Match:        Opaque,
		OrEqual:      true,
		SelfIfTarget: true,
	}
}

// TintParams pulls every index toward a single hue, e.g. the yellow highlight.
func TintParams(target uint8, frac int) Params {
	return Params{
		Target:      target,
		Frac:        frac,
		Blend:       BlendModern,
		Remap:       Opaque,
		Match:       Opaque,
		AllowSelf:   true,
		StopOnExact: true,
	}
}

// ClosestParams is the full-range, any-match, early-exit nearest-color query.
func ClosestParams() Params {
	return Params{
		Remap:       Full,
		Match:       Full,
		AllowSelf:   true,
		StopOnExact: true,
	}
}

// RemapCache memoizes remap tables per (palette, params).
// Tables are immutable once stored and may be shared across workers.
type RemapCache struct {
	mu    sync.RWMutex
	items map[remapKey]*Remap
}

type remapKey struct {
	pal *Palette
	prm Params
}

// NewRemapCache creates an empty cache.
func NewRemapCache() *RemapCache {
	return &RemapCache{items: make(map[remapKey]*Remap)}
}

// Get returns the table for (p, prm), building it on first use.
func (c *RemapCache) Get(p *Palette, prm Params) *Remap {
	key := remapKey{p, prm}

	// Fast path: read lock
	c.mu.RLock()
	if r, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return r
	}
	c.mu.RUnlock()

	r := Build(p, prm)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[key]; ok {
		return existing
	}
	c.items[key] = &r
	return &r
}

// Len returns the number of cached tables.
func (c *RemapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
