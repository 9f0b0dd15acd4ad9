package drawsort

import (
	"sort"

	"rts-map-renderer/internal/entity"
	"rts-map-renderer/internal/rules"
)

// Key is the sortable priority of one entity. Attachments have no key of
// their own; they follow their owner.
type Key struct {
	Plane entity.Plane
	Y     int // tileY*tile + drawOffsetY + priorityY
	X     int // tileX*tile + drawOffsetX + priorityX
	Seq   int
}

// KeyOf computes the key of e for a tile size.
func KeyOf(e *entity.Entity, tile int) Key {
	return Key{
		Plane: e.Plane,
		Y:     e.Pos.Y*tile + e.Offset.Y + e.Priority.Y,
		X:     e.Pos.X*tile + e.Offset.X + e.Priority.X,
		Seq:   e.Seq,
	}
}

// Less orders by plane, then vertical key, then horizontal key.
// Equal keys are left to the stable sort.
func (k Key) Less(o Key) bool {
	if k.Plane != o.Plane {
		return k.Plane < o.Plane
	}
	if k.Y != o.Y {
		return k.Y < o.Y
	}
	return k.X < o.X
}

// Map returns the painter's-algorithm order for the full map raster.
// The input is not modified.
func Map(entities []*entity.Entity, tile int) []*entity.Entity {
	keys := make([]Key, len(entities))
	idx := make([]int, len(entities))
	for i, e := range entities {
		keys[i] = KeyOf(e, tile)
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].Less(keys[idx[b]])
	})

	out := make([]*entity.Entity, len(entities))
	for i, j := range idx {
		out[i] = entities[j]
	}
	return out
}

// Sprites flattens ordered entities into their draw sequence, each owner
// immediately followed by its attachments.
func Sprites(ordered []*entity.Entity) []entity.Sprite {
	n := 0
	for _, e := range ordered {
		n += 1 + len(e.Attachments)
	}
	out := make([]entity.Sprite, 0, n)
	for _, e := range ordered {
		out = e.Sprites(out)
	}
	return out
}

// radarGroups is the fixed radar pass order after the ground layer.
var radarGroups = []func(rules.Kind) bool{
	func(k rules.Kind) bool { return k == rules.KindStructure },
	func(k rules.Kind) bool { return k == rules.KindOverlay },
	func(k rules.Kind) bool { return k == rules.KindTerrain },
	rules.Kind.Mobile,
}

// Radar returns the entities drawn on the radar: structures, overlays,
// terrain, then mobile units, each group in insertion order. Smudges,
// flags and hidden entities are left out.
func Radar(entities []*entity.Entity) []*entity.Entity {
	var out []*entity.Entity
	for _, in := range radarGroups {
		for _, e := range entities {
			if in(e.Kind) && e.Visible() {
				out = append(out, e)
			}
		}
	}
	return out
}
