package drawsort

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rts-map-renderer/internal/entity"
	"rts-map-renderer/internal/grid"
	"rts-map-renderer/internal/rules"
)

func ent(name string, kind rules.Kind, plane entity.Plane, x, y int, prioY int) *entity.Entity {
	return &entity.Entity{
		Sprite:   entity.Sprite{Name: name, Pos: grid.Pos{X: x, Y: y}},
		Kind:     kind,
		TypeName: name,
		Plane:    plane,
		Priority: image.Point{Y: prioY},
	}
}

func names(es []*entity.Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.TypeName
	}
	return out
}

func TestPlaneDominates(t *testing.T) {
	in := []*entity.Entity{
		ent("flag", rules.KindFlag, entity.PlaneFlag, 0, 0, 0),
		ent("heli", rules.KindUnit, entity.PlaneElevated, 0, 0, 0),
		ent("tank", rules.KindUnit, entity.PlaneNormal, 0, 9, 0),
		ent("crater", rules.KindSmudge, entity.PlaneBackground, 0, 20, 0),
	}
	assert.Equal(t, []string{"crater", "tank", "heli", "flag"}, names(Map(in, 24)))
}

func TestSouthDrawsOverNorth(t *testing.T) {
	in := []*entity.Entity{
		ent("south", rules.KindUnit, entity.PlaneNormal, 3, 6, 12),
		ent("north", rules.KindUnit, entity.PlaneNormal, 3, 2, 12),
		ent("east", rules.KindUnit, entity.PlaneNormal, 4, 2, 12),
	}
	assert.Equal(t, []string{"north", "east", "south"}, names(Map(in, 24)))
	// Input untouched.
	assert.Equal(t, "south", in[0].TypeName)
}

func TestStableOnEqualKeys(t *testing.T) {
	var in []*entity.Entity
	for i := 0; i < 20; i++ {
		e := ent(string(rune('a'+i)), rules.KindInfantry, entity.PlaneNormal, 1, 1, 12)
		e.Seq = i
		in = append(in, e)
	}
	out := Map(in, 24)
	for i, e := range out {
		assert.Equal(t, i, e.Seq)
	}
}

func TestUnitBeforeStructureBottomEdge(t *testing.T) {
	s := ent("POWR", rules.KindStructure, entity.PlaneNormal, 5, 5, 48)
	u := ent("HARV", rules.KindUnit, entity.PlaneNormal, 4, 5, 12)
	assert.Equal(t, 168, KeyOf(s, 24).Y)
	assert.Equal(t, 132, KeyOf(u, 24).Y)
	assert.Equal(t, []string{"HARV", "POWR"}, names(Map([]*entity.Entity{s, u}, 24)))
}

func TestAttachmentsFollowOwner(t *testing.T) {
	tank := ent("tank", rules.KindUnit, entity.PlaneNormal, 0, 9, 12)
	tank.Attach(entity.Sprite{Name: "turret"})
	wall := ent("wall", rules.KindOverlay, entity.PlaneNormal, 0, 1, 24)
	ordered := Map([]*entity.Entity{tank, wall}, 24)
	sprites := Sprites(ordered)
	require.Len(t, sprites, 3)
	assert.Equal(t, "wall", sprites[0].Name)
	assert.Equal(t, "tank", sprites[1].Name)
	assert.Equal(t, "turret", sprites[2].Name)
	assert.Equal(t, tank.Pos, sprites[2].Pos)
}

func TestRadarOrder(t *testing.T) {
	hidden := ent("mine", rules.KindStructure, entity.PlaneNormal, 0, 0, 0)
	hidden.Mode = entity.ModeHidden
	in := []*entity.Entity{
		ent("inf", rules.KindInfantry, entity.PlaneNormal, 0, 0, 0),
		ent("tree", rules.KindTerrain, entity.PlaneNormal, 0, 0, 0),
		ent("crater", rules.KindSmudge, entity.PlaneBackground, 0, 0, 0),
		ent("ore", rules.KindOverlay, entity.PlaneBackground, 0, 0, 0),
		ent("ship", rules.KindVessel, entity.PlaneNormal, 0, 0, 0),
		ent("fact", rules.KindStructure, entity.PlaneNormal, 9, 9, 0),
		hidden,
		ent("flag", rules.KindFlag, entity.PlaneFlag, 0, 0, 0),
	}
	assert.Equal(t, []string{"fact", "ore", "tree", "inf", "ship"}, names(Radar(in)))
}
