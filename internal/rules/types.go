package rules

import (
	"strings"

	"rts-map-renderer/internal/grid"
)

// Kind is the entity variant a type belongs to.
type Kind uint8

const (
	KindStructure Kind = iota
	KindOverlay
	KindTerrain
	KindUnit
	KindVessel
	KindInfantry
	KindSmudge
	KindFlag
)

var kindNames = [...]string{"structure", "overlay", "terrain", "unit", "vessel", "infantry", "smudge", "flag"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Mobile reports whether the kind is drawn in the radar unit pass.
func (k Kind) Mobile() bool {
	return k == KindUnit || k == KindVessel || k == KindInfantry
}

// Ore identifies resource overlay categories.
type Ore uint8

const (
	OreNone Ore = iota
	OreGold
	OreGem
)

// NoRadarColor means the entity is blitted onto the radar instead of filled.
const NoRadarColor = -1

// Type holds the numeric and boolean rules the compositor needs for one type id.
// Values are shared between workers and must not be modified after lookup.
type Type struct {
	Name    string
	Kind    Kind
	Image   string // sprite name
	Theater bool   // sprite has per-theater variants

	Size    grid.Pos   // footprint in tiles
	Occupy  []grid.Pos // cells the type covers
	Overlap []grid.Pos // extra cells painted on the radar only

	Strength int
	Bands    int // damage bands: 0 (none), 2, 3 or 4
	Facings  int // rotation frames: 0, 8, 16 or 32

	Turrets  []int // turret offsets in pixels along the facing
	Rotors   []int // rotor offsets in pixels along the facing
	Elevated bool  // drawn above ground units with a shadow

	Bib       bool
	Storage   int
	Levels    int // storage fill stages per damage band
	Invisible bool
	Fake      bool
	Wall      bool
	Ore       Ore

	RadarColor int // palette index, or NoRadarColor
}

// Clone returns a copy whose slices may be modified independently.
func (t *Type) Clone() *Type {
	c := *t
	c.Occupy = append([]grid.Pos(nil), t.Occupy...)
	c.Overlap = append([]grid.Pos(nil), t.Overlap...)
	c.Turrets = append([]int(nil), t.Turrets...)
	c.Rotors = append([]int(nil), t.Rotors...)
	return &c
}

// rect returns a w by h block of offsets in row-major order.
func rect(w, h int) []grid.Pos {
	out := make([]grid.Pos, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out = append(out, grid.Pos{X: x, Y: y})
		}
	}
	return out
}

// normalizeName upper-cases a type id for table lookups.
func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
