package theater

import (
	"sort"
	"strings"

	"rts-map-renderer/internal/palette"
	"rts-map-renderer/internal/rules"
)

// Scheme is a house color scheme: each step of the house ramp is blended
// toward the matching step of Ramp by Frac, and the radar shows the house
// as Radar.
type Scheme struct {
	Ramp  palette.Range
	Frac  int
	Radar int
}

// Sixteen-step ramps shared by several houses.
var (
	rampGold   = palette.Range{Lo: 0xD0, Hi: 0xDF}
	rampBlue   = palette.Range{Lo: 0x50, Hi: 0x5F}
	rampRed    = palette.Range{Lo: 0xE0, Hi: 0xEF}
	rampGreen  = palette.Range{Lo: 0x90, Hi: 0x9F}
	rampOrange = palette.Range{Lo: 0xC0, Hi: 0xCF}
	rampGrey   = palette.Range{Lo: 0x70, Hi: 0x7F}
	rampTeal   = palette.Range{Lo: 0xB0, Hi: 0xBF}
	rampBrown  = palette.Range{Lo: 0xA0, Hi: 0xAF}
)

var schemes = map[string]Scheme{
	"spain":   {Ramp: rampGold, Frac: 0xFF, Radar: 0xD0},
	"greece":  {Ramp: rampBlue, Frac: 0xFF, Radar: 0x87},
	"ussr":    {Ramp: rampRed, Frac: 0xFF, Radar: 0xE4},
	"england": {Ramp: rampGreen, Frac: 0xFF, Radar: 0x9F},
	"ukraine": {Ramp: rampOrange, Frac: 0xFF, Radar: 0xC8},
	"germany": {Ramp: rampGrey, Frac: 0xFF, Radar: 0x83},
	"france":  {Ramp: rampTeal, Frac: 0xFF, Radar: 0xB1},
	"turkey":  {Ramp: rampBrown, Frac: 0xFF, Radar: 0xBB},
	"goodguy": {Ramp: rampBlue, Frac: 0xFF, Radar: 0x87},
	"badguy":  {Ramp: rampRed, Frac: 0xFF, Radar: 0xE4},
	"neutral": {Ramp: rampGrey, Frac: 0xFF, Radar: 0x83},
	"special": {Ramp: rampGrey, Frac: 0xFF, Radar: 0x83},
	"multi1":  {Ramp: rampGold, Frac: 0xFF, Radar: 0xD0},
	"multi2":  {Ramp: rampBlue, Frac: 0xFF, Radar: 0x87},
	"multi3":  {Ramp: rampRed, Frac: 0xFF, Radar: 0xE4},
	"multi4":  {Ramp: rampGreen, Frac: 0xFF, Radar: 0x9F},
	"multi5":  {Ramp: rampOrange, Frac: 0xFF, Radar: 0xC8},
	"multi6":  {Ramp: rampTeal, Frac: 0xFF, Radar: 0xB1},
	"multi7":  {Ramp: rampBrown, Frac: 0xFF, Radar: 0xBB},
	"multi8":  {Ramp: rampGrey, Frac: 0xFF, Radar: 0x83},
}

// SchemeFor returns the scheme of a house by case-insensitive name.
func SchemeFor(house string) (Scheme, bool) {
	s, ok := schemes[strings.ToLower(strings.TrimSpace(house))]
	return s, ok
}

// HouseNames lists every house with a scheme, sorted.
func HouseNames() []string {
	names := make([]string, 0, len(schemes))
	for n := range schemes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Houses resolves house remaps against one palette. Tables come from a
// shared cache, so every map on the same palette reuses them.
type Houses struct {
	pal   *palette.Palette
	cache *palette.RemapCache
}

// NewHouses binds the house schemes to pal.
func NewHouses(pal *palette.Palette, cache *palette.RemapCache) *Houses {
	return &Houses{pal: pal, cache: cache}
}

// Remap returns the house color table, or nil for unknown houses.
func (h *Houses) Remap(house string) *palette.Remap {
	s, ok := SchemeFor(house)
	if !ok {
		return nil
	}
	return h.cache.Get(h.pal, palette.HouseParams(s.Ramp, s.Frac))
}

// RadarColor returns the radar fill index of a house, or rules.NoRadarColor
// for unknown houses.
func (h *Houses) RadarColor(house string) int {
	s, ok := SchemeFor(house)
	if !ok {
		return rules.NoRadarColor
	}
	return s.Radar
}

// Border returns the table shading the area outside the playable bounds.
func (h *Houses) Border(t Theater) *palette.Remap {
	return h.cache.Get(h.pal, t.Border)
}

// Shadow returns the table darkening pixels under unit shadows.
func (h *Houses) Shadow() *palette.Remap {
	return h.cache.Get(h.pal, palette.ShadowParams())
}
