package entity

import (
	"fmt"
	"image"

	"rts-map-renderer/internal/rules"
)

// FullHealth is the health ratio of an undamaged entity.
const FullHealth = 256

// Band is a damage classification.
type Band uint8

const (
	BandNormal Band = iota
	BandDamaged
	BandCritical
	BandDestroyed
)

// Strength converts a 0-256 health ratio to hit points, rounding half up.
// Non-zero results within 3 of max snap back to max.
func Strength(max, health int) int {
	s := (max*health + 128) >> 8
	if s > 0 && max-s <= 3 {
		s = max
	}
	return s
}

// Condition classifies health against the damaged and critical thresholds,
// both ratios out of 256.
func Condition(max, health, damaged, critical int) Band {
	if max <= 0 {
		return BandNormal
	}
	s := Strength(max, health)
	if s <= 0 {
		return BandDestroyed
	}
	ratio := s * 256 / max
	switch {
	case ratio <= critical:
		return BandCritical
	case ratio <= damaged:
		return BandDamaged
	}
	return BandNormal
}

// DamageFrame returns the first frame of the band's block. Types with 3 or 4
// bands are removed rather than drawn when destroyed.
func DamageFrame(bands int, band Band, frames int) (frame int, removed bool) {
	switch bands {
	case 0:
		return 0, false
	case 2:
		if band != BandNormal {
			return frames / 2, false
		}
		return 0, false
	case 3:
		switch band {
		case BandDestroyed:
			return 0, true
		case BandNormal:
			return 0, false
		}
		return frames / 2, false
	case 4:
		if band == BandDestroyed {
			return 0, true
		}
		return int(band) * (frames / 3), false
	}
	panic(fmt.Sprintf("entity: unsupported band count %d", bands))
}

// Quantize maps a 0-255 facing onto n rotation steps. Each step covers a
// range centred on its nominal direction.
func Quantize(facing, n int) int {
	step := 256 / n
	return ((facing&0xFF + step/2) / step) % n
}

// BodyFrame returns the sprite frame for a facing. Rotation frames are stored
// counter-clockwise starting at north.
func BodyFrame(facing, n int) int {
	if n <= 0 {
		return 0
	}
	return (n - Quantize(facing, n)) % n
}

// Wall connectivity bits.
const (
	WallNorth = 1
	WallEast  = 2
	WallSouth = 4
	WallWest  = 8
)

// WallFrame sums the bits of the orthogonal neighbours present, given in
// N, E, S, W order.
func WallFrame(present [4]bool) int {
	bits := [4]int{WallNorth, WallEast, WallSouth, WallWest}
	frame := 0
	for i, ok := range present {
		if ok {
			frame += bits[i]
		}
	}
	return frame
}

var goldFrames = [9]int{0, 1, 3, 4, 6, 7, 8, 10, 11}

// OreFrame maps the number of resource neighbours (0-8) to a frame.
func OreFrame(ore rules.Ore, count int) int {
	if count < 0 || count > 8 {
		panic(fmt.Sprintf("entity: neighbour count %d out of range", count))
	}
	if ore == rules.OreGem {
		return count / 3
	}
	return goldFrames[count]
}

// StorageLevel returns the fill stage for stored out of capacity.
// Stored equal to capacity lands one past the last stage and is clamped.
func StorageLevel(stored, capacity, levels int) int {
	if capacity <= 0 || levels <= 1 {
		return 0
	}
	level := stored * levels / capacity
	if level >= levels {
		level = levels - 1
	}
	if level < 0 {
		level = 0
	}
	return level
}

// directions holds unit vectors for the 32 facings, scaled by 256, north first
// and turning clockwise.
var directions = [32]image.Point{
	{0, -256}, {50, -251}, {98, -237}, {142, -213}, {181, -181}, {213, -142}, {237, -98}, {251, -50},
	{256, 0}, {251, 50}, {237, 98}, {213, 142}, {181, 181}, {142, 213}, {98, 237}, {50, 251},
	{0, 256}, {-50, 251}, {-98, 237}, {-142, 213}, {-181, 181}, {-213, 142}, {-237, 98}, {-251, 50},
	{-256, 0}, {-251, -50}, {-237, -98}, {-213, -142}, {-181, -181}, {-142, -213}, {-98, -237}, {-50, -251},
}

// DirectionOffset returns the pixel offset of a point dist pixels away along
// the facing. Negative distances point backwards.
func DirectionOffset(facing, dist int) image.Point {
	d := directions[Quantize(facing, 32)]
	return image.Point{X: d.X * dist / 256, Y: d.Y * dist / 256}
}

// subCells are the infantry spot centres as fractions of a tile in 1/24ths.
var subCells = [5]image.Point{{12, 12}, {6, 6}, {18, 6}, {6, 18}, {18, 18}}

// SubCellCenter returns the pixel centre of an infantry spot within a tile.
// Unknown spots fall back to the centre.
func SubCellCenter(spot, tile int) image.Point {
	if spot < 0 || spot >= len(subCells) {
		spot = 0
	}
	c := subCells[spot]
	return image.Point{X: c.X * tile / 24, Y: c.Y * tile / 24}
}
