// Package composite draws the ground layer and ordered sprites of one map
// into an indexed buffer, at full size or at a radar scale.
package composite

import (
	"image"

	"rts-map-renderer/internal/asset"
	"rts-map-renderer/internal/drawsort"
	"rts-map-renderer/internal/entity"
	"rts-map-renderer/internal/grid"
	"rts-map-renderer/internal/ground"
	"rts-map-renderer/internal/palette"
	"rts-map-renderer/internal/raster"
)

// TileSet resolves a ground tile to its frame. A nil frame draws nothing.
type TileSet interface {
	TileFrame(t ground.Tile) *asset.Frame
}

// Canvas is one render target. Tile is the source tile size in pixels and
// Scale the destination pixels per tile; they are equal for the full map.
type Canvas struct {
	Image *raster.Image
	Tile  int
	Scale int
	Clip  image.Rectangle // destination pixels; empty means the whole image

	// Shadow darkens the destination under ModeShadow sprites.
	// Nil skips them.
	Shadow *palette.Remap
}

// NewCanvas wraps img for drawing tiles of tile pixels at scale pixels per tile.
func NewCanvas(img *raster.Image, tile, scale int) *Canvas {
	return &Canvas{Image: img, Tile: tile, Scale: scale}
}

func (c *Canvas) clip() image.Rectangle {
	if c.Clip.Empty() {
		return c.Image.Bounds()
	}
	return c.Clip.Intersect(c.Image.Bounds())
}

// at converts a tile position plus source-pixel offset to destination pixels.
func (c *Canvas) at(x, y int, off image.Point) image.Point {
	return image.Point{
		X: x*c.Scale + floorDiv(off.X*c.Scale, c.Tile),
		Y: y*c.Scale + floorDiv(off.Y*c.Scale, c.Tile),
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func (c *Canvas) op() raster.Op {
	return raster.Op{Num: c.Scale, Den: c.Tile, Clip: c.clip()}
}

// Ground draws every tile of l that intersects the clip.
func (c *Canvas) Ground(l *ground.Layer, tiles TileSet) {
	clip := c.clip()
	if clip.Empty() || tiles == nil {
		return
	}
	x0, y0 := clip.Min.X/c.Scale, clip.Min.Y/c.Scale
	x1 := (clip.Max.X + c.Scale - 1) / c.Scale
	y1 := (clip.Max.Y + c.Scale - 1) / c.Scale
	if x1 > l.Width() {
		x1 = l.Width()
	}
	if y1 > l.Height() {
		y1 = l.Height()
	}

	op := c.op()
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			f := tiles.TileFrame(l.At(x, y))
			if f == nil {
				continue
			}
			raster.Blit(c.Image, f, c.at(x, y, image.Point{}), op)
		}
	}
}

// Sprite draws one sprite according to its mode.
func (c *Canvas) Sprite(s entity.Sprite) {
	if s.Frames == nil || s.Mode == entity.ModeHidden {
		return
	}
	f := s.Frames.Frame(s.Frame)
	if f == nil {
		return
	}
	op := c.op()
	switch s.Mode {
	case entity.ModeShadow:
		if c.Shadow == nil {
			return
		}
		op.Shadow = c.Shadow
	case entity.ModeGhost:
		op.Dither = true
		op.Remap = s.Remap
	default:
		op.Remap = s.Remap
	}
	raster.Blit(c.Image, f, c.at(s.Pos.X, s.Pos.Y, s.Offset), op)
}

// Map draws the ground and then every entity of ordered with its
// attachments, in the given order.
func (c *Canvas) Map(l *ground.Layer, tiles TileSet, ordered []*entity.Entity) {
	if l != nil {
		c.Ground(l, tiles)
	}
	for _, s := range drawsort.Sprites(ordered) {
		c.Sprite(s)
	}
}

// Radar draws the ground and then the radar subset of entities in radar
// order. Entities with a radar color fill their cells; the rest are drawn
// as scaled sprites.
func (c *Canvas) Radar(l *ground.Layer, tiles TileSet, entities []*entity.Entity) {
	if l != nil {
		c.Ground(l, tiles)
	}
	clip := c.clip()
	for _, e := range drawsort.Radar(entities) {
		if e.Radar < 0 {
			c.Sprite(e.Sprite)
			continue
		}
		cells := e.RadarCells
		if len(cells) == 0 {
			cells = origin
		}
		for _, d := range cells {
			p := e.Pos.Add(d)
			r := image.Rect(p.X*c.Scale, p.Y*c.Scale, (p.X+1)*c.Scale, (p.Y+1)*c.Scale)
			c.Image.Fill(r.Intersect(clip), uint8(e.Radar))
		}
	}
}

var origin = []grid.Pos{{}}

// Shade passes every pixel outside the border, given in tiles, through t.
func (c *Canvas) Shade(border image.Rectangle, t *palette.Remap) {
	if t == nil {
		return
	}
	keep := image.Rect(
		border.Min.X*c.Scale, border.Min.Y*c.Scale,
		border.Max.X*c.Scale, border.Max.Y*c.Scale,
	)
	c.Image.RemapOutside(keep, t)
}
