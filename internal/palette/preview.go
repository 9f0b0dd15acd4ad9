package palette

import "image"

// Swatch lays out the palette as a 16x16 grid of cell-sized squares.
func Swatch(p *Palette, cell int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, 16*cell, 16*cell), p.Color())
	for i := 0; i < 256; i++ {
		fill(img, (i%16)*cell, (i/16)*cell, cell, uint8(i))
	}
	return img
}

// RemapPreview draws one row per table: the 256 source indices as seen
// through that table, cell pixels square each. A nil table is the identity.
func RemapPreview(p *Palette, tables []*Remap, cell int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, 256*cell, len(tables)*cell), p.Color())
	for row, t := range tables {
		for i := 0; i < 256; i++ {
			c := uint8(i)
			if t != nil {
				c = t[i]
			}
			fill(img, i*cell, row*cell, cell, c)
		}
	}
	return img
}

func fill(img *image.Paletted, x0, y0, n int, c uint8) {
	for y := y0; y < y0+n; y++ {
		row := img.Pix[img.PixOffset(x0, y):]
		for x := 0; x < n; x++ {
			row[x] = c
		}
	}
}
