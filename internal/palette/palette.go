package palette

import (
	"fmt"
	"image/color"
	"os"
)

// FileSize is the length of a raw palette file: 256 RGB triples.
const FileSize = 256 * 3

// Well-known palette indices shared by every theater palette.
const (
	IndexTransparent = 0
	IndexShadow      = 12
	IndexWhite       = 15
	IndexPulse       = 16
	IndexYellow      = 157
)

// RGB is one palette entry with 6-bit channels (0-63).
type RGB struct {
	R, G, B uint8
}

// To8 expands a 6-bit entry to 8-bit channels.
func (c RGB) To8() (r, g, b uint8) {
	return c.R << 2, c.G << 2, c.B << 2
}

// From8 reduces 8-bit channels to a 6-bit entry.
func From8(r, g, b uint8) RGB {
	return RGB{r >> 2, g >> 2, b >> 2}
}

// Palette is an immutable 256-entry color table.
type Palette [256]RGB

// Parse decodes a raw 768-byte palette. Channel values above 63 are masked.
func Parse(data []byte) (*Palette, error) {
	if len(data) != FileSize {
		return nil, fmt.Errorf("palette: expected %d bytes, got %d", FileSize, len(data))
	}
	var p Palette
	for i := range p {
		p[i] = RGB{data[i*3] & 0x3F, data[i*3+1] & 0x3F, data[i*3+2] & 0x3F}
	}
	return &p, nil
}

// Load reads a raw palette file from disk.
func Load(path string) (*Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("palette: read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("palette: %s: %w", path, err)
	}
	return p, nil
}

// Bytes encodes the palette in the raw file layout.
func (p *Palette) Bytes() []byte {
	out := make([]byte, FileSize)
	for i, c := range p {
		out[i*3] = c.R
		out[i*3+1] = c.G
		out[i*3+2] = c.B
	}
	return out
}

// NRGBA returns the 8-bit color of index i. Index 0 is fully transparent.
func (p *Palette) NRGBA(i uint8) color.NRGBA {
	r, g, b := p[i].To8()
	a := uint8(255)
	if i == IndexTransparent {
		a = 0
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// Color returns a color.Palette suitable for image.Paletted output.
func (p *Palette) Color() color.Palette {
	cp := make(color.Palette, len(p))
	for i := range p {
		cp[i] = p.NRGBA(uint8(i))
	}
	return cp
}

// Closest returns the non-transparent index nearest to c.
// Ties keep the lowest index.
func (p *Palette) Closest(c RGB) uint8 {
	best, bestDiff := 1, -1
	for i := 1; i < len(p); i++ {
		d := distance(p[i], c)
		if bestDiff < 0 || d < bestDiff {
			best, bestDiff = i, d
			if d == 0 {
				break
			}
		}
	}
	return uint8(best)
}

// Closest8 is Closest for an 8-bit color.
func (p *Palette) Closest8(r, g, b uint8) uint8 {
	return p.Closest(From8(r, g, b))
}

func distance(a, b RGB) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}
