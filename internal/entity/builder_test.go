package entity

import (
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"

	"rts-map-renderer/internal/asset"
	"rts-map-renderer/internal/grid"
	"rts-map-renderer/internal/palette"
	"rts-map-renderer/internal/rules"
)

// fakeSprites serves solid sheets of a fixed size; names in missing fail.
type fakeSprites struct {
	w, h    int
	count   int
	missing map[string]bool
	calls   int
}

func (f *fakeSprites) Sprite(name string, theater bool) (asset.Frames, error) {
	f.calls++
	if f.missing[name] {
		return nil, fmt.Errorf("%w: %s", asset.ErrNotFound, name)
	}
	frames := make([]*asset.Frame, f.count)
	for i := range frames {
		frames[i] = asset.Solid(name, f.w, f.h, 1).Frame(0)
	}
	return asset.NewSheet(name, frames), nil
}

type fakeColors struct{ remap palette.Remap }

func (c *fakeColors) Remap(house string) *palette.Remap { return &c.remap }
func (c *fakeColors) RadarColor(house string) int      { return 200 }

type warnings []string

func (w *warnings) Warnf(kind, subject, format string, args ...interface{}) {
	*w = append(*w, kind+":"+subject)
}

func newBuilder(t *testing.T, local string, opts Options) (*Builder, *warnings) {
	t.Helper()
	var src rules.Source
	if local != "" {
		f, err := ini.LoadSources(rules.LoadOptions, []byte(local))
		require.NoError(t, err)
		src = rules.NewIniSource(f)
	}
	w := &warnings{}
	b := NewBuilder(16, 16, rules.NewSet(nil).NewResolver(src),
		&fakeSprites{w: 24, h: 24, count: 64}, &fakeColors{remap: palette.Identity()}, w, opts)
	return b, w
}

func TestStructureAndUnitScenario(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())

	s := b.Add(Record{Kind: rules.KindStructure, House: "Greece", Type: "POWR", Cell: grid.Pos{X: 5, Y: 5}.Cell(16), Health: 256})
	u := b.Add(Record{Kind: rules.KindUnit, House: "USSR", Type: "HARV", Cell: grid.Pos{X: 4, Y: 5}.Cell(16), Health: 256, Facing: 128})
	require.NotNil(t, s)
	require.NotNil(t, u)

	assert.Equal(t, grid.Pos{X: 5, Y: 5}, s.Pos)
	assert.Equal(t, image.Point{}, s.Offset)
	assert.Equal(t, 0, s.Frame)
	assert.Equal(t, 48, s.Priority.Y)

	assert.Equal(t, 16, u.Frame)
	assert.Equal(t, image.Point{}, u.Offset)

	all := b.Finish()
	// POWR lays its 2x2 bib first, then the structure and the unit.
	require.Len(t, all, 6)
	assert.Equal(t, "BIB3", all[0].TypeName)
	assert.Equal(t, PlaneBackground, all[0].Plane)
	assert.Equal(t, grid.Pos{X: 5, Y: 6}, all[0].Pos)
	assert.Equal(t, 3, all[3].Frame)
	assert.Same(t, s, all[4])
	assert.Same(t, u, all[5])
}

func TestDamagedStructureFrame(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	e := b.Add(Record{Kind: rules.KindStructure, Type: "SILO", Cell: 0, Health: 100})
	require.NotNil(t, e)
	// 64 frames: damaged block starts at 32, silo always full (stage 4).
	assert.Equal(t, 36, e.Frame)
}

func TestThreeBandRemovedWhenDestroyed(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	assert.Nil(t, b.Add(Record{Kind: rules.KindStructure, Type: "BARL", Cell: 0, Health: 0}))
	assert.NotNil(t, b.Add(Record{Kind: rules.KindStructure, Type: "BARL", Cell: 1, Health: 200}))
	assert.Len(t, b.Finish(), 1)
}

func TestUndefinedPolicies(t *testing.T) {
	omit, w := newBuilder(t, "", DefaultOptions())
	assert.Nil(t, omit.Add(Record{Kind: rules.KindUnit, Type: "ZZZZ", Cell: 3, Health: 256}))
	assert.Empty(t, omit.Finish())
	assert.Equal(t, []string{"undefined:ZZZZ"}, []string(*w))

	opts := DefaultOptions()
	opts.Undefined = PlaceholderUndefined
	keep, _ := newBuilder(t, "", opts)
	e := keep.Add(Record{Kind: rules.KindUnit, Type: "ZZZZ", Cell: 3, Health: 256})
	require.NotNil(t, e)
	assert.True(t, e.Undefined)
	assert.Nil(t, e.Type)
	assert.Equal(t, grid.Pos{X: 3, Y: 0}, e.Pos)
	assert.Equal(t, uint8(palette.IndexYellow), e.Frames.Frame(0).At(0, 0))
	assert.Len(t, keep.Finish(), 1)
}

func TestWrongKindIsUndefined(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	assert.Nil(t, b.Add(Record{Kind: rules.KindUnit, Type: "POWR", Cell: 0, Health: 256}))
}

func TestOutOfGridCellSkipped(t *testing.T) {
	b, w := newBuilder(t, "", DefaultOptions())
	assert.Nil(t, b.Add(Record{Kind: rules.KindTerrain, Type: "T01", Cell: 16 * 16}))
	assert.Equal(t, []string{"cell:T01"}, []string(*w))
}

func TestWallConnectivity(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	at := func(x, y int) int { return grid.Pos{X: x, Y: y}.Cell(16) }
	centre := b.AddOverlay(at(5, 5), "BRIK")
	b.AddOverlay(at(5, 4), "BRIK") // north
	b.AddOverlay(at(6, 5), "BRIK") // east
	b.AddOverlay(at(4, 5), "SBAG") // west, other wall type
	b.Finish()
	assert.Equal(t, WallNorth+WallEast, centre.Frame)
}

func TestOreCountsAllResourceNeighbours(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	var centre *Entity
	for y := 4; y <= 6; y++ {
		for x := 4; x <= 6; x++ {
			name := "GOLD01"
			if x == 5 && y == 5 {
				name = "GOLD04"
			}
			if x == 6 && y == 6 {
				name = "GEM02"
			}
			e := b.AddOverlay(grid.Pos{X: x, Y: y}.Cell(16), name)
			if x == 5 && y == 5 {
				centre = e
			}
		}
	}
	b.Finish()
	require.NotNil(t, centre)
	assert.Equal(t, 11, centre.Frame)
	assert.Equal(t, PlaneBackground, centre.Plane)
}

func TestOreCorner(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	corner := b.AddOverlay(0, "GEM01")
	b.AddOverlay(1, "GEM01")
	b.AddOverlay(16, "GEM01")
	b.AddOverlay(17, "GOLD01")
	b.Finish()
	assert.Equal(t, 1, corner.Frame)
}

func TestOverlayReplacedOnSameCell(t *testing.T) {
	b, w := newBuilder(t, "", DefaultOptions())
	b.AddOverlay(3, "BRIK")
	b.AddOverlay(5, "BRIK")
	b.AddOverlay(4, "SBAG")
	gold := b.AddOverlay(5, "GOLD01")

	all := b.Finish()
	require.Len(t, all, 3)
	assert.Equal(t, "BRIK", all[0].TypeName)
	assert.Equal(t, "SBAG", all[1].TypeName)
	assert.Same(t, gold, all[2])
	for i, e := range all {
		assert.Equal(t, i, e.Seq)
	}
	assert.Contains(t, *w, "overlay:GOLD01")

	var at5 int
	for _, e := range all {
		if e.Pos == (grid.Pos{X: 5}) {
			at5++
		}
	}
	assert.Equal(t, 1, at5)
}

func TestGhostHelicopterShadowHead(t *testing.T) {
	opts := DefaultOptions()
	opts.Viewer = "Greece"
	opts.ShowInvisible = true
	b, _ := newBuilder(t, "[TRAN]\nInvisible=yes\n", opts)
	e := b.Add(Record{Kind: rules.KindUnit, House: "USSR", Type: "TRAN", Cell: 0, Health: 256})
	require.NotNil(t, e)

	assert.Equal(t, ModeShadow, e.Mode)
	assert.Nil(t, e.Remap)
	assert.True(t, e.Visible())
	require.Len(t, e.Attachments, 3)
	for _, a := range e.Attachments {
		assert.Equal(t, ModeGhost, a.Mode, a.Name)
	}

	opts.ShowInvisible = false
	b, _ = newBuilder(t, "[TRAN]\nInvisible=yes\n", opts)
	hidden := b.Add(Record{Kind: rules.KindUnit, House: "USSR", Type: "TRAN", Cell: 0, Health: 256})
	assert.Equal(t, ModeHidden, hidden.Mode)
	assert.False(t, hidden.Visible())
}

func TestInvisibleVisibility(t *testing.T) {
	opts := DefaultOptions()
	opts.Viewer = "Greece"
	b, _ := newBuilder(t, "", opts)
	own := b.Add(Record{Kind: rules.KindStructure, House: "Greece", Type: "MINV", Cell: 0, Health: 256})
	enemy := b.Add(Record{Kind: rules.KindStructure, House: "USSR", Type: "MINV", Cell: 1, Health: 256})
	assert.Equal(t, ModeNormal, own.Mode)
	assert.Equal(t, ModeHidden, enemy.Mode)
	assert.False(t, enemy.Visible())

	opts.ShowInvisible = true
	b, _ = newBuilder(t, "[MINV]\nInvisible=yes\n[POWR]\nInvisible=yes\n", opts)
	ghost := b.Add(Record{Kind: rules.KindStructure, House: "USSR", Type: "POWR", Cell: 0, Health: 256})
	assert.Equal(t, ModeGhost, ghost.Mode)
}

func TestLocalRuleOverride(t *testing.T) {
	b, _ := newBuilder(t, "[POWR]\nBib=no\n", DefaultOptions())
	b.Add(Record{Kind: rules.KindStructure, Type: "POWR", Cell: 0, Health: 256})
	all := b.Finish()
	require.Len(t, all, 1)
	assert.Equal(t, "POWR", all[0].TypeName)
}

func TestTurretAttachment(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	e := b.Add(Record{Kind: rules.KindUnit, Type: "2TNK", Cell: 0, Health: 256, Facing: 64})
	require.Len(t, e.Attachments, 1)
	assert.Equal(t, 24, e.Frame)
	assert.Equal(t, 32+24, e.Attachments[0].Frame)
	assert.Equal(t, e.Pos, e.Attachments[0].Pos)
	assert.Same(t, e.Remap, e.Attachments[0].Remap)

	ship := b.Add(Record{Kind: rules.KindVessel, Type: "CA", Cell: 5, Health: 256, Facing: 0})
	require.Len(t, ship.Attachments, 2)
	assert.Equal(t, "turr", ship.Attachments[0].Name)
	assert.Equal(t, image.Point{X: 0, Y: -16}, ship.Attachments[0].Offset)
	assert.Equal(t, image.Point{X: 0, Y: 16}, ship.Attachments[1].Offset)
}

func TestHelicopterChain(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	e := b.Add(Record{Kind: rules.KindUnit, Type: "TRAN", Cell: 0, Health: 256})
	assert.Equal(t, PlaneElevated, e.Plane)
	assert.Equal(t, ModeShadow, e.Mode)
	assert.Nil(t, e.Remap)
	require.Len(t, e.Attachments, 3)
	assert.Equal(t, -12, e.Attachments[0].Offset.Y)
	assert.Equal(t, "lrotor", e.Attachments[1].Name)
	assert.Equal(t, "rrotor", e.Attachments[2].Name)

	sprites := e.Sprites(nil)
	assert.Len(t, sprites, 4)
}

func TestFakeStructureSign(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	e := b.Add(Record{Kind: rules.KindStructure, Type: "DOMF", Cell: 0, Health: 256})
	require.Len(t, e.Attachments, 1)
	assert.Equal(t, "fake", e.Attachments[0].Name)
	assert.Equal(t, "dome", e.Name)
	assert.Equal(t, image.Point{X: 12, Y: 0}, e.Attachments[0].Offset)
}

func TestMissingAssetUsesEmpty(t *testing.T) {
	w := &warnings{}
	src := &fakeSprites{w: 24, h: 24, count: 1, missing: map[string]bool{"t01": true}}
	b := NewBuilder(8, 8, rules.NewSet(nil).NewResolver(nil), src, nil, w, DefaultOptions())
	e := b.Add(Record{Kind: rules.KindTerrain, Type: "T01", Cell: 0})
	b.Add(Record{Kind: rules.KindTerrain, Type: "T01", Cell: 3})
	require.NotNil(t, e)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, []string{"asset:t01"}, []string(*w))
	for _, v := range e.Frames.Frame(0).Pix {
		assert.Equal(t, uint8(0), v)
	}
	assert.Equal(t, rules.RadarTree, e.Radar)
	assert.Len(t, e.RadarCells, 4)
}

func TestInfantrySubCell(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	b.sprites = &fakeSprites{w: 10, h: 8, count: 8}
	e := b.Add(Record{Kind: rules.KindInfantry, Type: "E1", Cell: 0, Health: 256, SubCell: 2, Facing: 128})
	assert.Equal(t, image.Point{X: 13, Y: 2}, e.Offset)
	assert.Equal(t, 4, e.Frame)
}

func TestSmudgeFrameClamped(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	e := b.Add(Record{Kind: rules.KindSmudge, Type: "CR1", Cell: 0, Data: 99})
	assert.Equal(t, 63, e.Frame)

	bib := b.Add(Record{Kind: rules.KindSmudge, Type: "BIB2", Cell: 0})
	require.NotNil(t, bib)
	all := b.Finish()
	assert.Len(t, all, 1+6)
	assert.Equal(t, 5, all[6].Frame)
}

func TestFlag(t *testing.T) {
	b, _ := newBuilder(t, "", DefaultOptions())
	e := b.AddFlag("Greece", 17)
	require.NotNil(t, e)
	assert.Equal(t, PlaneFlag, e.Plane)
	assert.Equal(t, grid.Pos{X: 1, Y: 1}, e.Pos)
	assert.NotNil(t, e.Remap)
}

func TestAttachLimit(t *testing.T) {
	e := &Entity{}
	for i := 0; i < MaxAttachments; i++ {
		e.Attach(Sprite{})
	}
	assert.Panics(t, func() { e.Attach(Sprite{}) })
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord(rules.KindStructure, "0", "Greece,POWR,256,1234,0,None,1,0")
	require.NoError(t, err)
	assert.Equal(t, Record{Kind: rules.KindStructure, Key: "0", House: "Greece", Type: "POWR", Health: 256, Cell: 1234}, rec)

	rec, err = ParseRecord(rules.KindInfantry, "3", "USSR,E1,128,77,4,Guard,192,None")
	require.NoError(t, err)
	assert.Equal(t, 4, rec.SubCell)
	assert.Equal(t, 192, rec.Facing)

	rec, err = ParseRecord(rules.KindTerrain, "4100", "T01,None")
	require.NoError(t, err)
	assert.Equal(t, 4100, rec.Cell)

	rec, err = ParseRecord(rules.KindSmudge, "0", "CR1,300,2")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Data)
}

func TestParseRecordMalformed(t *testing.T) {
	for _, c := range []struct {
		kind  rules.Kind
		key   string
		value string
	}{
		{rules.KindUnit, "0", "USSR,HARV,full,12,0,Guard,None"},
		{rules.KindUnit, "0", "USSR,HARV,256,12"},
		{rules.KindStructure, "0", "USSR,POWR,300,12,0"},
		{rules.KindInfantry, "0", "USSR,E1,256,12,7,Guard,0"},
		{rules.KindTerrain, "x", "T01"},
		{rules.KindSmudge, "0", "CR1,12,a"},
	} {
		_, err := ParseRecord(c.kind, c.key, c.value)
		require.Error(t, err, c.value)
		assert.True(t, errors.Is(err, ErrMalformedRecord), c.value)
	}
}
