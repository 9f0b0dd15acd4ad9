// Package ground decodes the packed ground layer of a map: one template id
// and one icon index per tile.
package ground

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ClearTemplate marks a tile with no explicit template.
const ClearTemplate uint16 = 0xFFFF

// ErrPackedSize is returned when the packed buffer has neither zero length
// nor exactly three bytes per tile.
var ErrPackedSize = errors.New("ground: packed size mismatch")

// Tile is the template and icon drawn at one cell.
type Tile struct {
	Template uint16
	Icon     uint8
}

// Options selects decoding quirks.
type Options struct {
	// LegacyClear also treats templates 0x0000 and 0x00FF as clear.
	LegacyClear bool
}

// IsClear reports whether template id has no explicit tile.
func (o Options) IsClear(template uint16) bool {
	if template == ClearTemplate {
		return true
	}
	return o.LegacyClear && (template == 0x0000 || template == 0x00FF)
}

// ClearIcon is the icon computed for a clear tile from its own coordinates.
func ClearIcon(x, y int) uint8 {
	return uint8((x & 3) | ((y & 3) << 2))
}

// Layer is a decoded ground layer.
type Layer struct {
	width, height int
	opt           Options
	templates     []uint16
	icons         []uint8
}

// NewClear returns a layer where every tile is clear.
func NewClear(w, h int, opt Options) *Layer {
	l := &Layer{
		width:     w,
		height:    h,
		opt:       opt,
		templates: make([]uint16, w*h),
		icons:     make([]uint8, w*h),
	}
	for i := range l.templates {
		l.templates[i] = ClearTemplate
	}
	return l
}

// Decode parses a packed buffer of w*h little-endian template ids followed by
// w*h icon bytes. An empty buffer yields an all-clear layer.
func Decode(data []byte, w, h int, opt Options) (*Layer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("ground: invalid size %dx%d", w, h)
	}
	l := NewClear(w, h, opt)
	if len(data) == 0 {
		return l, nil
	}
	n := w * h
	if len(data) != n*3 {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrPackedSize, len(data), n*3)
	}
	for i := 0; i < n; i++ {
		l.templates[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	copy(l.icons, data[n*2:])
	return l, nil
}

// Width returns the layer width in tiles.
func (l *Layer) Width() int { return l.width }

// Height returns the layer height in tiles.
func (l *Layer) Height() int { return l.height }

// At returns the tile to draw at (x, y). Clear tiles read as ClearTemplate
// with the computed icon regardless of the stored bytes. Off-grid positions
// read as clear.
func (l *Layer) At(x, y int) Tile {
	if x < 0 || y < 0 || x >= l.width || y >= l.height {
		return Tile{Template: ClearTemplate, Icon: ClearIcon(x, y)}
	}
	i := x + y*l.width
	t := Tile{Template: l.templates[i], Icon: l.icons[i]}
	if l.opt.IsClear(t.Template) {
		t = Tile{Template: ClearTemplate, Icon: ClearIcon(x, y)}
	}
	return t
}

// Clear reports whether the tile at (x, y) has no explicit template.
func (l *Layer) Clear(x, y int) bool {
	return l.At(x, y).Template == ClearTemplate
}

// Set stores an explicit tile. Off-grid positions are ignored.
func (l *Layer) Set(x, y int, t Tile) {
	if x < 0 || y < 0 || x >= l.width || y >= l.height {
		return
	}
	i := x + y*l.width
	l.templates[i] = t.Template
	l.icons[i] = t.Icon
}

// Encode packs the layer back into the Decode format. Clear tiles are
// written with their computed icon.
func (l *Layer) Encode() []byte {
	n := l.width * l.height
	out := make([]byte, n*3)
	for y := 0; y < l.height; y++ {
		for x := 0; x < l.width; x++ {
			i := x + y*l.width
			t := l.At(x, y)
			binary.LittleEndian.PutUint16(out[i*2:], l.templates[i])
			out[n*2+i] = t.Icon
		}
	}
	return out
}

// Templates returns the distinct explicit template ids in first-seen order.
func (l *Layer) Templates() []uint16 {
	seen := make(map[uint16]bool)
	var out []uint16
	for _, id := range l.templates {
		if l.opt.IsClear(id) || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
