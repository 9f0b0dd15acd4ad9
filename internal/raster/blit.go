package raster

import (
	"image"

	"rts-map-renderer/internal/asset"
	"rts-map-renderer/internal/palette"
)

// Op configures one Blit.
type Op struct {
	// Num/Den scale the frame: destination size = source size * Num / Den.
	// Zero values draw at 1:1.
	Num, Den int

	// Remap substitutes source indices. Nil copies them unchanged.
	Remap *palette.Remap

	// Dither draws only destination pixels where (x+y) is even.
	Dither bool

	// Shadow, when set, ignores source colors: every destination pixel
	// under an opaque source pixel is passed through this table instead.
	Shadow *palette.Remap

	// Clip limits drawing. The empty rectangle means the whole image.
	Clip image.Rectangle
}

// Blit draws f with its top-left corner at dst pixel at. Source index 0 is
// transparent and never written.
//
// This is the hot path: no allocation per pixel.
func Blit(dst *Image, f *asset.Frame, at image.Point, op Op) {
	if f == nil || f.Width == 0 || f.Height == 0 {
		return
	}
	num, den := op.Num, op.Den
	if num <= 0 || den <= 0 {
		num, den = 1, 1
	}
	dw := f.Width * num / den
	dh := f.Height * num / den
	if dw == 0 || dh == 0 {
		return
	}

	clip := dst.Bounds()
	if !op.Clip.Empty() {
		clip = clip.Intersect(op.Clip)
	}
	r := image.Rect(at.X, at.Y, at.X+dw, at.Y+dh).Intersect(clip)
	if r.Empty() {
		return
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		sy := (y - at.Y) * den / num
		srow := f.Pix[sy*f.Width : (sy+1)*f.Width]
		drow := dst.Pix[y*dst.Width : (y+1)*dst.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			if op.Dither && (x+y)&1 != 0 {
				continue
			}
			c := srow[(x-at.X)*den/num]
			if c == 0 {
				continue
			}
			switch {
			case op.Shadow != nil:
				drow[x] = op.Shadow[drow[x]]
			case op.Remap != nil:
				drow[x] = op.Remap[c]
			default:
				drow[x] = c
			}
		}
	}
}
