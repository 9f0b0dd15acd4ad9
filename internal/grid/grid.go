package grid

// Pos is a tile coordinate.
type Pos struct {
	X, Y int
}

// Add offsets p by d.
func (p Pos) Add(d Pos) Pos {
	return Pos{p.X + d.X, p.Y + d.Y}
}

// Cell converts p to a linear cell number for a map of the given width.
func (p Pos) Cell(width int) int {
	return p.X + p.Y*width
}

// FromCell converts a linear cell number back to a position.
func FromCell(cell, width int) Pos {
	return Pos{cell % width, cell / width}
}

// Orthogonal neighbour offsets in wall-bit order: N, E, S, W.
var Orthogonal = [4]Pos{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Surround lists the 8 neighbour offsets clockwise from north-west.
var Surround = [8]Pos{
	{-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1},
	{-1, 1}, {-1, 0},
}

// Index is a dense grid holding at most one occupant per tile.
// The zero value of T marks an empty tile.
type Index[T comparable] struct {
	width, height int
	cells         []T
}

// NewIndex allocates an empty index of w by h tiles.
func NewIndex[T comparable](w, h int) *Index[T] {
	return &Index[T]{width: w, height: h, cells: make([]T, w*h)}
}

// Width returns the grid width in tiles.
func (ix *Index[T]) Width() int { return ix.width }

// Height returns the grid height in tiles.
func (ix *Index[T]) Height() int { return ix.height }

// InBounds reports whether p lies on the grid.
func (ix *Index[T]) InBounds(p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < ix.width && p.Y < ix.height
}

// Set stores v at p. Out-of-range positions are ignored and report false.
func (ix *Index[T]) Set(p Pos, v T) bool {
	if !ix.InBounds(p) {
		return false
	}
	ix.cells[p.Cell(ix.width)] = v
	return true
}

// Get returns the occupant at p, or the zero value when empty or off-grid.
func (ix *Index[T]) Get(p Pos) T {
	var zero T
	if !ix.InBounds(p) {
		return zero
	}
	return ix.cells[p.Cell(ix.width)]
}

// Has reports whether p holds a non-zero occupant.
func (ix *Index[T]) Has(p Pos) bool {
	var zero T
	return ix.Get(p) != zero
}

// Neighbors4 returns the N, E, S, W occupants of p. Off-grid neighbours are zero.
func (ix *Index[T]) Neighbors4(p Pos) [4]T {
	var out [4]T
	for i, d := range Orthogonal {
		out[i] = ix.Get(p.Add(d))
	}
	return out
}

// Neighbors8 returns the 8 surrounding occupants of p in Surround order.
func (ix *Index[T]) Neighbors8(p Pos) [8]T {
	var out [8]T
	for i, d := range Surround {
		out[i] = ix.Get(p.Add(d))
	}
	return out
}

// Count returns how many of the 8 neighbours of p satisfy match.
func (ix *Index[T]) Count(p Pos, match func(T) bool) int {
	n := 0
	for _, v := range ix.Neighbors8(p) {
		if match(v) {
			n++
		}
	}
	return n
}

// Each calls fn for every occupied tile in row-major order.
func (ix *Index[T]) Each(fn func(Pos, T)) {
	var zero T
	for i, v := range ix.cells {
		if v != zero {
			fn(FromCell(i, ix.width), v)
		}
	}
}
