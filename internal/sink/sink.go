// Package sink persists finished indexed rasters as PNG or WebP files.
package sink

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"

	"rts-map-renderer/internal/palette"
	"rts-map-renderer/internal/raster"
)

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

// ParseFormat accepts "png" or "webp" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case PNG, WebP:
		return f, nil
	}
	return "", fmt.Errorf("sink: unknown format %q", s)
}

// Writer encodes rasters to disk.
type Writer struct {
	Format    Format
	Crop      bool // keep only the clip rectangle
	Thumbnail int  // longest side of an extra thumbnail; 0 disables
}

// Ext returns the file extension including the dot.
func (w Writer) Ext() string {
	if w.Format == WebP {
		return ".webp"
	}
	return ".png"
}

// Write encodes img to path. Index 0 becomes fully transparent. When a
// thumbnail is configured it is written next to path as "<name>.thumb<ext>".
// It returns every file written.
func (w Writer) Write(path string, img *raster.Image, clip image.Rectangle, pal *palette.Palette) ([]string, error) {
	region := img.Bounds()
	if w.Crop && !clip.Empty() {
		region = clip
	}
	p := img.Paletted(region, pal)

	if err := w.Encode(path, p); err != nil {
		return nil, err
	}
	written := []string{path}

	if w.Thumbnail > 0 {
		thumbPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".thumb" + w.Ext()
		if err := w.Encode(thumbPath, Thumbnail(p, w.Thumbnail)); err != nil {
			return written, err
		}
		written = append(written, thumbPath)
	}
	return written, nil
}

// Encode writes any image to path in the writer's format, creating the
// parent directory.
func (w Writer) Encode(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	defer f.Close()

	switch w.Format {
	case WebP:
		err = nativewebp.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("sink: encode %s: %w", path, err)
	}
	return f.Close()
}
