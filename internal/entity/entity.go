package entity

import (
	"fmt"
	"image"

	"rts-map-renderer/internal/asset"
	"rts-map-renderer/internal/grid"
	"rts-map-renderer/internal/palette"
	"rts-map-renderer/internal/rules"
)

// Plane is the coarse draw layer, compared before any pixel key.
type Plane uint8

const (
	PlaneBackground Plane = iota // smudges, bibs, resources
	PlaneNormal
	PlaneElevated // aircraft
	PlaneFlag
)

var planeNames = [...]string{"background", "normal", "elevated", "flag"}

func (p Plane) String() string {
	if int(p) < len(planeNames) {
		return planeNames[p]
	}
	return fmt.Sprintf("plane(%d)", p)
}

// Mode selects how a sprite's pixels reach the buffer.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeGhost       // every other pixel, checkerboard
	ModeHidden      // not drawn
	ModeShadow      // destination pixels are darkened through the shadow table
)

// MaxAttachments bounds the sprites chained after one owner.
const MaxAttachments = 4

// Sprite is one drawable frame at a tile position.
type Sprite struct {
	Name   string
	Frames asset.Frames
	Frame  int
	Pos    grid.Pos
	Offset image.Point    // pixels from the tile's top-left corner
	Remap  *palette.Remap // nil draws source indices unchanged
	Mode   Mode
}

// Entity is a resolved map object: its own sprite plus attachments that are
// always drawn immediately after it.
type Entity struct {
	Sprite

	Kind      rules.Kind
	Type      *rules.Type // nil when Undefined
	TypeName  string
	House     string
	Undefined bool

	Plane    Plane
	Priority image.Point // sort bias added to the draw offset

	Attachments []Sprite

	Radar      int        // radar fill index, or rules.NoRadarColor to blit
	RadarCells []grid.Pos // offsets from Pos filled on the radar

	Seq int // insertion order
}

// Attach appends an attachment. Exceeding MaxAttachments is a coding error.
func (e *Entity) Attach(s Sprite) {
	if len(e.Attachments) >= MaxAttachments {
		panic(fmt.Sprintf("entity: %s has more than %d attachments", e.TypeName, MaxAttachments))
	}
	s.Pos = e.Pos
	e.Attachments = append(e.Attachments, s)
}

// Sprites appends the owner and its attachments to dst in draw order.
func (e *Entity) Sprites(dst []Sprite) []Sprite {
	dst = append(dst, e.Sprite)
	return append(dst, e.Attachments...)
}

// Visible reports whether the owner sprite is drawn at all.
func (e *Entity) Visible() bool {
	return e.Mode != ModeHidden
}

// Occupies returns the absolute cells covered by the entity's type.
func (e *Entity) Occupies() []grid.Pos {
	if e.Type == nil {
		return []grid.Pos{e.Pos}
	}
	out := make([]grid.Pos, len(e.Type.Occupy))
	for i, d := range e.Type.Occupy {
		out[i] = e.Pos.Add(d)
	}
	return out
}
