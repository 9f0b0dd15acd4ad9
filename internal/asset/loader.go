package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ftrvxmtrx/tga"

	"rts-map-renderer/internal/palette"
)

// Layout is the optional JSON sidecar describing the frame grid of a sheet.
type Layout struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Count  int `json:"count"`
}

// LoadSheet reads a PNG or TGA sheet and slices it into frames.
// Paletted images keep their indices; truecolor images are matched against pal.
func LoadSheet(path string, pal *palette.Palette) (*Sheet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("asset: read %s: %w", path, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("asset: decode %s: %w", path, err)
	}

	layout, err := readLayout(path)
	if err != nil {
		return nil, err
	}

	return Slice(sheetName(path), toIndexed(img, pal), layout), nil
}

// Slice cuts an indexed image into frames in row-major grid order.
// A zero layout treats the image as a vertical strip of square frames.
func Slice(name string, img *image.Paletted, layout Layout) *Sheet {
	b := img.Bounds()
	fw, fh := layout.Width, layout.Height
	if fw <= 0 {
		fw = b.Dx()
	}
	if fh <= 0 {
		fh = fw
		if b.Dy()%fh != 0 {
			fh = b.Dy()
		}
	}

	cols, rows := b.Dx()/fw, b.Dy()/fh
	count := cols * rows
	if layout.Count > 0 && layout.Count < count {
		count = layout.Count
	}

	frames := make([]*Frame, 0, count)
	for i := 0; i < count; i++ {
		ox := b.Min.X + (i%cols)*fw
		oy := b.Min.Y + (i/cols)*fh
		f := NewFrame(fw, fh)
		for y := 0; y < fh; y++ {
			src := img.Pix[(oy-b.Min.Y+y)*img.Stride+(ox-b.Min.X):]
			copy(f.Pix[y*fw:(y+1)*fw], src[:fw])
		}
		frames = append(frames, f)
	}
	return NewSheet(name, frames)
}

func toIndexed(img image.Image, pal *palette.Palette) *image.Paletted {
	if pm, ok := img.(*image.Paletted); ok {
		return pm
	}
	return pal.Paletted(img)
}

func readLayout(path string) (Layout, error) {
	var layout Layout
	sidecar := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	data, err := os.ReadFile(sidecar)
	if err != nil {
		if os.IsNotExist(err) {
			return layout, nil
		}
		return layout, fmt.Errorf("asset: read %s: %w", sidecar, err)
	}
	if err := json.Unmarshal(data, &layout); err != nil {
		return layout, fmt.Errorf("asset: parse %s: %w", sidecar, err)
	}
	return layout, nil
}

func sheetName(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
