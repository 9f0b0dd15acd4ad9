package asset

// Frame is one decoded indexed image. Index 0 is transparent.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8 // row-major, len = Width*Height
}

// NewFrame allocates a transparent frame.
func NewFrame(w, h int) *Frame {
	return &Frame{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

// At returns the index at (x, y), or 0 outside the frame.
func (f *Frame) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.Pix[y*f.Width+x]
}

// Frames is a decoded sprite or tile set.
type Frames interface {
	Len() int
	// Frame returns frame i, or nil when i is out of range.
	Frame(i int) *Frame
}

// Sheet is a decoded multi-frame asset.
type Sheet struct {
	Name   string
	frames []*Frame
}

// NewSheet wraps already-decoded frames.
func NewSheet(name string, frames []*Frame) *Sheet {
	return &Sheet{Name: name, frames: frames}
}

// Len implements Frames.
func (s *Sheet) Len() int { return len(s.frames) }

// Frame implements Frames.
func (s *Sheet) Frame(i int) *Frame {
	if i < 0 || i >= len(s.frames) {
		return nil
	}
	return s.frames[i]
}

// cost estimates the cached size in bytes.
func (s *Sheet) cost() int64 {
	var n int64
	for _, f := range s.frames {
		n += int64(len(f.Pix))
	}
	return n + 64
}

// Empty stands in for a missing asset. Every frame index yields the same
// transparent frame, so callers draw nothing without special cases.
type Empty struct {
	blank *Frame
}

// NewEmpty returns a transparent frame source of the given frame size.
func NewEmpty(w, h int) *Empty {
	return &Empty{blank: NewFrame(w, h)}
}

// Len implements Frames.
func (e *Empty) Len() int { return 1 }

// Frame implements Frames.
func (e *Empty) Frame(int) *Frame { return e.blank }

// NewPlaceholder returns a single-frame outlined box used for entities whose
// type is unknown.
func NewPlaceholder(w, h int, color uint8) *Sheet {
	f := NewFrame(w, h)
	for x := 0; x < w; x++ {
		f.Pix[x] = color
		f.Pix[(h-1)*w+x] = color
	}
	for y := 0; y < h; y++ {
		f.Pix[y*w] = color
		f.Pix[y*w+w-1] = color
	}
	for i := 0; i < w && i < h; i++ {
		f.Pix[i*w+i] = color
		f.Pix[i*w+(w-1-i)] = color
	}
	return NewSheet("placeholder", []*Frame{f})
}

// Solid returns a single-frame sheet filled with one index.
func Solid(name string, w, h int, color uint8) *Sheet {
	f := NewFrame(w, h)
	for i := range f.Pix {
		f.Pix[i] = color
	}
	return NewSheet(name, []*Frame{f})
}
