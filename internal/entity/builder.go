package entity

import (
	"errors"
	"image"
	"strings"

	"rts-map-renderer/internal/asset"
	"rts-map-renderer/internal/grid"
	"rts-map-renderer/internal/palette"
	"rts-map-renderer/internal/rules"
)

// UndefinedPolicy decides what happens to records with unknown type ids.
type UndefinedPolicy uint8

const (
	OmitUndefined        UndefinedPolicy = iota // drop the record
	PlaceholderUndefined                        // draw an outlined box
)

// Options tune frame selection for one render.
type Options struct {
	TileSize      int
	Undefined     UndefinedPolicy
	Viewer        string // house whose invisible objects stay visible
	ShowInvisible bool   // draw other houses' invisible objects ghosted
	Damaged       int    // damage ratio threshold out of 256
	Critical      int    // critical ratio threshold out of 256
	FlightHeight  int    // pixels aircraft float above their shadow
}

// DefaultOptions mirrors the game's stock thresholds.
func DefaultOptions() Options {
	return Options{
		TileSize:     24,
		Undefined:    OmitUndefined,
		Damaged:      rules.ConditionYellow,
		Critical:     rules.ConditionRed,
		FlightHeight: 12,
	}
}

// SpriteSource resolves sprite names to decoded frames.
type SpriteSource interface {
	Sprite(name string, theater bool) (asset.Frames, error)
}

// Colors supplies per-house remap tables and radar colors.
type Colors interface {
	Remap(house string) *palette.Remap
	RadarColor(house string) int
}

// Warner records degraded conditions.
type Warner interface {
	Warnf(kind, subject, format string, args ...interface{})
}

// Builder turns records into resolved entities for one map. It is not safe
// for concurrent use.
type Builder struct {
	rules   *rules.Resolver
	sprites SpriteSource
	colors  Colors
	warn    Warner
	opts    Options

	width, height int

	entities []*Entity
	overlays *grid.Index[*Entity]
	frames   map[string]asset.Frames

	placeholder asset.Frames
	empty       asset.Frames
}

// NewBuilder creates a builder for a w by h tile grid.
func NewBuilder(w, h int, r *rules.Resolver, src SpriteSource, colors Colors, warn Warner, opts Options) *Builder {
	if opts.TileSize <= 0 {
		opts.TileSize = 24
	}
	return &Builder{
		rules:       r,
		sprites:     src,
		colors:      colors,
		warn:        warn,
		opts:        opts,
		width:       w,
		height:      h,
		overlays:    grid.NewIndex[*Entity](w, h),
		frames:      make(map[string]asset.Frames),
		placeholder: asset.NewPlaceholder(opts.TileSize, opts.TileSize, palette.IndexYellow),
		empty:       asset.NewEmpty(opts.TileSize, opts.TileSize),
	}
}

// Add resolves one record. It returns the owning entity, or nil when the
// record was omitted.
func (b *Builder) Add(rec Record) *Entity {
	pos, ok := b.cellPos(rec)
	if !ok {
		return nil
	}

	t, ok := b.rules.Lookup(rec.Type)
	if !ok || t.Kind != rec.Kind {
		return b.undefined(rec, pos)
	}

	switch rec.Kind {
	case rules.KindStructure:
		return b.addStructure(rec, t, pos)
	case rules.KindUnit, rules.KindVessel:
		return b.addVehicle(rec, t, pos)
	case rules.KindInfantry:
		return b.addInfantry(rec, t, pos)
	case rules.KindTerrain:
		return b.addTerrain(t, pos)
	case rules.KindSmudge:
		return b.addSmudge(rec, t, pos)
	case rules.KindOverlay:
		return b.addOverlay(t, pos)
	case rules.KindFlag:
		return b.addFlag(rec, t, pos)
	}
	return nil
}

// AddOverlay places a packed overlay at a cell. Frames that depend on
// neighbours are chosen by Finish.
func (b *Builder) AddOverlay(cell int, name string) *Entity {
	return b.Add(Record{Kind: rules.KindOverlay, Type: name, Cell: cell, Health: FullHealth})
}

// AddFlag places a house flag at a cell.
func (b *Builder) AddFlag(house string, cell int) *Entity {
	return b.Add(Record{Kind: rules.KindFlag, House: house, Type: "FLAG", Cell: cell, Health: FullHealth})
}

// Finish runs the neighbour-dependent frame selection and returns every
// entity in insertion order. The builder must not be used afterwards.
func (b *Builder) Finish() []*Entity {
	b.overlays.Each(func(p grid.Pos, e *Entity) {
		t := e.Type
		switch {
		case t.Wall:
			var present [4]bool
			for i, n := range b.overlays.Neighbors4(p) {
				present[i] = n != nil && n.Type == t
			}
			e.Frame = WallFrame(present)
		case t.Ore != rules.OreNone:
			count := b.overlays.Count(p, func(n *Entity) bool {
				return n != nil && n.Type.Ore != rules.OreNone
			})
			e.Frame = OreFrame(t.Ore, count)
		}
	})
	return b.entities
}

func (b *Builder) cellPos(rec Record) (grid.Pos, bool) {
	pos := grid.FromCell(rec.Cell, b.width)
	if rec.Cell < 0 || pos.Y >= b.height {
		b.warnf("cell", rec.Type, "%s %s at cell %d outside the %dx%d grid", rec.Kind, rec.Type, rec.Cell, b.width, b.height)
		return pos, false
	}
	return pos, true
}

func (b *Builder) push(e *Entity) *Entity {
	e.Seq = len(b.entities)
	b.entities = append(b.entities, e)
	return e
}

// drop removes e from the entity list and renumbers the entities after it.
func (b *Builder) drop(e *Entity) {
	i := e.Seq
	if i < 0 || i >= len(b.entities) || b.entities[i] != e {
		return
	}
	b.entities = append(b.entities[:i], b.entities[i+1:]...)
	for ; i < len(b.entities); i++ {
		b.entities[i].Seq = i
	}
}

func (b *Builder) undefined(rec Record, pos grid.Pos) *Entity {
	b.warnf("undefined", rec.Type, "unknown %s type %q", rec.Kind, rec.Type)
	if b.opts.Undefined != PlaceholderUndefined {
		return nil
	}
	return b.push(&Entity{
		Sprite: Sprite{
			Name:   strings.ToLower(rec.Type),
			Frames: b.placeholder,
			Pos:    pos,
		},
		Kind:      rec.Kind,
		TypeName:  rec.Type,
		House:     rec.House,
		Undefined: true,
		Plane:     PlaneNormal,
		Priority:  image.Point{Y: b.opts.TileSize},
		Radar:     rules.NoRadarColor,
	})
}

// sprite resolves and memoizes a sprite, substituting a transparent source
// when the asset is missing.
func (b *Builder) sprite(name string, theater bool) asset.Frames {
	key := name
	if theater {
		key += "|t"
	}
	if f, ok := b.frames[key]; ok {
		return f
	}
	f, err := b.sprites.Sprite(name, theater)
	if err != nil || f == nil {
		if errors.Is(err, asset.ErrNotFound) {
			b.warnf("asset", name, "missing sprite %s", name)
		} else {
			b.warnf("asset", name, "sprite %s: %v", name, err)
		}
		f = b.empty
	}
	b.frames[key] = f
	return f
}

func (b *Builder) warnf(kind, subject, format string, args ...interface{}) {
	if b.warn != nil {
		b.warn.Warnf(kind, subject, format, args...)
	}
}

// visibility applies the per-type invisibility rule for the viewing house.
func (b *Builder) visibility(t *rules.Type, house string) Mode {
	if !b.rules.Invisible(t.Name) || strings.EqualFold(house, b.opts.Viewer) {
		return ModeNormal
	}
	if b.opts.ShowInvisible {
		return ModeGhost
	}
	return ModeHidden
}

func (b *Builder) houseRemap(house string) *palette.Remap {
	if b.colors == nil {
		return nil
	}
	return b.colors.Remap(house)
}

func (b *Builder) houseRadar(house string) int {
	if b.colors == nil {
		return rules.NoRadarColor
	}
	return b.colors.RadarColor(house)
}

// centred returns the offset placing frame's centre on point c.
func centred(f asset.Frames, frame int, c image.Point) image.Point {
	fr := f.Frame(frame)
	if fr == nil {
		return c
	}
	return image.Point{X: c.X - fr.Width/2, Y: c.Y - fr.Height/2}
}

func frameSize(f asset.Frames, frame int) image.Point {
	fr := f.Frame(frame)
	if fr == nil {
		return image.Point{}
	}
	return image.Point{X: fr.Width, Y: fr.Height}
}

func (b *Builder) addStructure(rec Record, t *rules.Type, pos grid.Pos) *Entity {
	tile := b.opts.TileSize
	frames := b.sprite(t.Image, t.Theater)

	band := Condition(t.Strength, rec.Health, b.opts.Damaged, b.opts.Critical)
	frame, removed := DamageFrame(t.Bands, band, frames.Len())
	if removed {
		return nil
	}
	if t.Facings > 0 {
		frame += BodyFrame(rec.Facing, t.Facings)
	}
	if t.Storage > 0 && t.Levels > 1 {
		// Silos are always shown filled to capacity.
		frame += StorageLevel(t.Storage, t.Storage, t.Levels)
	}

	if t.Bib {
		b.addBib(t, pos)
	}

	e := b.push(&Entity{
		Sprite: Sprite{
			Name:   t.Image,
			Frames: frames,
			Frame:  frame,
			Pos:    pos,
			Remap:  b.houseRemap(rec.House),
			Mode:   b.visibility(t, rec.House),
		},
		Kind:       rules.KindStructure,
		Type:       t,
		TypeName:   t.Name,
		House:      rec.House,
		Plane:      PlaneNormal,
		Priority:   image.Point{Y: t.Size.Y * tile},
		Radar:      b.houseRadar(rec.House),
		RadarCells: t.Occupy,
	})

	if t.Fake {
		sign := b.sprite("fake", false)
		size := frameSize(sign, 0)
		e.Attach(Sprite{
			Name:   "fake",
			Frames: sign,
			Offset: image.Point{X: (t.Size.X*tile - size.X) / 2, Y: 0},
			Mode:   e.Mode,
		})
	}
	return e
}

// addBib lays the bib smudge under the structure's bottom row, one frame per cell.
func (b *Builder) addBib(t *rules.Type, pos grid.Pos) {
	bt, ok := b.rules.Lookup(rules.BibFor(t.Size.X))
	if !ok {
		return
	}
	origin := pos.Add(grid.Pos{Y: t.Size.Y - 1})
	b.addMultiCell(bt, origin, 0)
}

func (b *Builder) addMultiCell(t *rules.Type, origin grid.Pos, first int) *Entity {
	frames := b.sprite(t.Image, t.Theater)
	var head *Entity
	for i, d := range rect(t.Size) {
		p := origin.Add(d)
		if p.X >= b.width || p.Y >= b.height {
			continue
		}
		e := b.push(&Entity{
			Sprite: Sprite{
				Name:   t.Image,
				Frames: frames,
				Frame:  first + i,
				Pos:    p,
			},
			Kind:     rules.KindSmudge,
			Type:     t,
			TypeName: t.Name,
			Plane:    PlaneBackground,
			Radar:    rules.NoRadarColor,
		})
		if head == nil {
			head = e
		}
	}
	return head
}

func rect(size grid.Pos) []grid.Pos {
	out := make([]grid.Pos, 0, size.X*size.Y)
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			out = append(out, grid.Pos{X: x, Y: y})
		}
	}
	return out
}

func (b *Builder) addVehicle(rec Record, t *rules.Type, pos grid.Pos) *Entity {
	tile := b.opts.TileSize
	frames := b.sprite(t.Image, t.Theater)
	remap := b.houseRemap(rec.House)
	mode := b.visibility(t, rec.House)

	band := Condition(t.Strength, rec.Health, b.opts.Damaged, b.opts.Critical)
	frame, removed := DamageFrame(t.Bands, band, frames.Len())
	if removed {
		return nil
	}
	frame += BodyFrame(rec.Facing, t.Facings)

	centre := image.Point{X: tile / 2, Y: tile / 2}
	offset := centred(frames, frame, centre)
	size := frameSize(frames, frame)

	body := Sprite{
		Name:   t.Image,
		Frames: frames,
		Frame:  frame,
		Pos:    pos,
		Offset: offset,
		Remap:  remap,
		Mode:   mode,
	}

	e := &Entity{
		Kind:       t.Kind,
		Type:       t,
		TypeName:   t.Name,
		House:      rec.House,
		Plane:      PlaneNormal,
		Priority:   image.Point{X: size.X / 2, Y: size.Y / 2},
		Radar:      b.houseRadar(rec.House),
		RadarCells: t.Occupy,
	}

	if t.Elevated {
		// The ground shadow owns the chain so the raised body draws over it.
		e.Plane = PlaneElevated
		e.Sprite = body
		e.Sprite.Remap = nil
		if mode != ModeHidden {
			e.Sprite.Mode = ModeShadow
		}
		raised := body
		raised.Offset.Y -= b.opts.FlightHeight
		e.Attach(raised)
		for i, r := range t.Rotors {
			name := "lrotor"
			if i > 0 || r < 0 {
				name = "rrotor"
			}
			rf := b.sprite(name, false)
			at := raised.Offset.Add(image.Point{X: size.X / 2, Y: size.Y / 2}).Add(DirectionOffset(rec.Facing, r))
			e.Attach(Sprite{
				Name:   name,
				Frames: rf,
				Offset: centred(rf, 0, at),
				Mode:   mode,
			})
		}
	} else {
		e.Sprite = body
		for _, d := range t.Turrets {
			e.Attach(b.turret(t, rec.Facing, d, body, size, mode))
		}
	}

	return b.push(e)
}

// turret builds a turret attachment. Ground vehicles keep turret frames after
// the 32 body frames of their own sheet; vessels use a separate sheet.
func (b *Builder) turret(t *rules.Type, facing, dist int, body Sprite, size image.Point, mode Mode) Sprite {
	name, frames, first := body.Name, body.Frames, 32
	if t.Kind == rules.KindVessel {
		name = vesselTurrets[t.Name]
		frames = b.sprite(name, false)
		first = 0
	}
	frame := first + BodyFrame(facing, 32)
	centre := body.Offset.Add(image.Point{X: size.X / 2, Y: size.Y / 2}).Add(DirectionOffset(facing, dist))
	return Sprite{
		Name:   name,
		Frames: frames,
		Frame:  frame,
		Offset: centred(frames, frame, centre),
		Remap:  body.Remap,
		Mode:   mode,
	}
}

var vesselTurrets = map[string]string{
	"DD": "ssam",
	"CA": "turr",
	"PT": "mgun",
}

func (b *Builder) addInfantry(rec Record, t *rules.Type, pos grid.Pos) *Entity {
	frames := b.sprite(t.Image, t.Theater)
	frame := BodyFrame(rec.Facing, t.Facings)
	size := frameSize(frames, frame)
	centre := SubCellCenter(rec.SubCell, b.opts.TileSize)

	return b.push(&Entity{
		Sprite: Sprite{
			Name:   t.Image,
			Frames: frames,
			Frame:  frame,
			Pos:    pos,
			Offset: centred(frames, frame, centre),
			Remap:  b.houseRemap(rec.House),
			Mode:   b.visibility(t, rec.House),
		},
		Kind:       rules.KindInfantry,
		Type:       t,
		TypeName:   t.Name,
		House:      rec.House,
		Plane:      PlaneNormal,
		Priority:   image.Point{X: size.X / 2, Y: size.Y / 2},
		Radar:      b.houseRadar(rec.House),
		RadarCells: t.Occupy,
	})
}

func (b *Builder) addTerrain(t *rules.Type, pos grid.Pos) *Entity {
	cells := make([]grid.Pos, 0, len(t.Occupy)+len(t.Overlap))
	cells = append(cells, t.Occupy...)
	cells = append(cells, t.Overlap...)

	return b.push(&Entity{
		Sprite: Sprite{
			Name:   t.Image,
			Frames: b.sprite(t.Image, t.Theater),
			Pos:    pos,
		},
		Kind:       rules.KindTerrain,
		Type:       t,
		TypeName:   t.Name,
		Plane:      PlaneNormal,
		Priority:   image.Point{Y: t.Size.Y * b.opts.TileSize},
		Radar:      t.RadarColor,
		RadarCells: cells,
	})
}

func (b *Builder) addSmudge(rec Record, t *rules.Type, pos grid.Pos) *Entity {
	if t.Size.X > 1 || t.Size.Y > 1 {
		return b.addMultiCell(t, pos, 0)
	}
	frames := b.sprite(t.Image, t.Theater)
	frame := rec.Data
	if n := frames.Len(); frame >= n {
		frame = n - 1
	}
	if frame < 0 {
		frame = 0
	}
	return b.push(&Entity{
		Sprite: Sprite{
			Name:   t.Image,
			Frames: frames,
			Frame:  frame,
			Pos:    pos,
		},
		Kind:     rules.KindSmudge,
		Type:     t,
		TypeName: t.Name,
		Plane:    PlaneBackground,
		Radar:    rules.NoRadarColor,
	})
}

func (b *Builder) addOverlay(t *rules.Type, pos grid.Pos) *Entity {
	if prev := b.overlays.Get(pos); prev != nil {
		b.warnf("overlay", t.Name, "overlay %s replaces %s at %v", t.Name, prev.TypeName, pos)
		b.drop(prev)
	}

	plane := PlaneNormal
	if t.Ore != rules.OreNone {
		plane = PlaneBackground
	}
	e := b.push(&Entity{
		Sprite: Sprite{
			Name:   t.Image,
			Frames: b.sprite(t.Image, t.Theater),
			Pos:    pos,
		},
		Kind:       rules.KindOverlay,
		Type:       t,
		TypeName:   t.Name,
		Plane:      plane,
		Priority:   image.Point{Y: b.opts.TileSize},
		Radar:      t.RadarColor,
		RadarCells: t.Occupy,
	})
	b.overlays.Set(pos, e)
	return e
}

func (b *Builder) addFlag(rec Record, t *rules.Type, pos grid.Pos) *Entity {
	tile := b.opts.TileSize
	frames := b.sprite(t.Image, t.Theater)
	size := frameSize(frames, 0)
	return b.push(&Entity{
		Sprite: Sprite{
			Name:   t.Image,
			Frames: frames,
			Pos:    pos,
			Offset: image.Point{X: tile/2 - size.X/2, Y: tile/2 - size.Y},
			Remap:  b.houseRemap(rec.House),
		},
		Kind:     rules.KindFlag,
		Type:     t,
		TypeName: t.Name,
		House:    rec.House,
		Plane:    PlaneFlag,
		Priority: image.Point{Y: size.Y},
		Radar:    rules.NoRadarColor,
	})
}
