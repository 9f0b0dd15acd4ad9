package palette

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

// FromImage derives a palette from a truecolor image with median-cut
// quantization. Index 0 stays reserved for transparency.
func FromImage(img image.Image) *Palette {
	q := quantize.MedianCutQuantizer{}
	colors := q.Quantize(make(color.Palette, 0, 255), img)

	var p Palette
	for i, c := range colors {
		if i+1 >= len(p) {
			break
		}
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		p[i+1] = From8(n.R, n.G, n.B)
	}
	return &p
}

// Paletted converts img to palette indices by nearest color.
// Pixels with zero alpha become index 0.
func (p *Palette) Paletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), p.Color())
	memo := make(map[RGB]uint8)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			n := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if n.A == 0 {
				continue
			}
			c := From8(n.R, n.G, n.B)
			idx, ok := memo[c]
			if !ok {
				idx = p.Closest(c)
				memo[c] = idx
			}
			dst.Pix[(y-b.Min.Y)*dst.Stride+(x-b.Min.X)] = idx
		}
	}
	return dst
}
