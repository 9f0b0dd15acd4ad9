package raster

import (
	"image"
	"sync"

	"rts-map-renderer/internal/palette"
)

// Image holds an indexed render target as one flat slice.
type Image struct {
	Width  int
	Height int
	Pix    []uint8 // palette indices, len = W*H
}

// New allocates a transparent image.
func New(w, h int) *Image {
	return &Image{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

// Bounds returns the image rectangle anchored at the origin.
func (im *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, im.Width, im.Height)
}

// Clear resets every pixel to the transparent index.
func (im *Image) Clear() {
	for i := range im.Pix {
		im.Pix[i] = 0
	}
}

// At returns the index at (x, y), or 0 outside the image.
func (im *Image) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		return 0
	}
	return im.Pix[y*im.Width+x]
}

// Set writes index c at (x, y). Off-image writes are dropped.
func (im *Image) Set(x, y int, c uint8) {
	if x < 0 || y < 0 || x >= im.Width || y >= im.Height {
		return
	}
	im.Pix[y*im.Width+x] = c
}

// Fill paints r, clipped to the image, with index c.
func (im *Image) Fill(r image.Rectangle, c uint8) {
	r = r.Intersect(im.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := im.Pix[y*im.Width : (y+1)*im.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = c
		}
	}
}

// RemapOutside passes every pixel outside keep through t.
func (im *Image) RemapOutside(keep image.Rectangle, t *palette.Remap) {
	for y := 0; y < im.Height; y++ {
		row := im.Pix[y*im.Width : (y+1)*im.Width]
		inRow := y >= keep.Min.Y && y < keep.Max.Y
		for x := range row {
			if inRow && x >= keep.Min.X && x < keep.Max.X {
				continue
			}
			row[x] = t[row[x]]
		}
	}
}

// Paletted copies the clip rectangle into a standard paletted image whose
// index 0 is fully transparent.
func (im *Image) Paletted(clip image.Rectangle, pal *palette.Palette) *image.Paletted {
	clip = clip.Intersect(im.Bounds())
	out := image.NewPaletted(image.Rect(0, 0, clip.Dx(), clip.Dy()), pal.Color())
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		src := im.Pix[y*im.Width+clip.Min.X : y*im.Width+clip.Max.X]
		copy(out.Pix[(y-clip.Min.Y)*out.Stride:], src)
	}
	return out
}

// Pool recycles images of identical size between maps.
type Pool struct {
	mu   sync.Mutex
	free map[image.Point][]*Image
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{free: make(map[image.Point][]*Image)}
}

// Get returns a cleared image of w by h pixels, reusing a released one when
// the size matches.
func (p *Pool) Get(w, h int) *Image {
	key := image.Pt(w, h)
	p.mu.Lock()
	list := p.free[key]
	if n := len(list); n > 0 {
		im := list[n-1]
		p.free[key] = list[:n-1]
		p.mu.Unlock()
		im.Clear()
		return im
	}
	p.mu.Unlock()
	return New(w, h)
}

// Put releases im for reuse. The caller must not touch it afterwards.
func (p *Pool) Put(im *Image) {
	if im == nil {
		return
	}
	key := image.Pt(im.Width, im.Height)
	p.mu.Lock()
	p.free[key] = append(p.free[key], im)
	p.mu.Unlock()
}
