// Package render runs the per-map pipeline: rule resolution, frame
// selection, draw ordering and compositing of the full map and its radars.
package render

import (
	"fmt"
	"image"
	"sync"

	"rts-map-renderer/internal/asset"
	"rts-map-renderer/internal/composite"
	"rts-map-renderer/internal/diag"
	"rts-map-renderer/internal/drawsort"
	"rts-map-renderer/internal/entity"
	"rts-map-renderer/internal/ground"
	"rts-map-renderer/internal/mapfile"
	"rts-map-renderer/internal/palette"
	"rts-map-renderer/internal/raster"
	"rts-map-renderer/internal/rules"
	"rts-map-renderer/internal/theater"
)

// Options configure every render of a Renderer.
type Options struct {
	TileSize      int
	RadarScales   []int
	Undefined     entity.UndefinedPolicy
	ShowInvisible bool
	LegacyClear   bool
	ShadeBorder   bool
}

// Layer is one finished raster and the rectangle worth keeping.
type Layer struct {
	Image *raster.Image
	Clip  image.Rectangle
	Scale int // pixels per tile
}

// Output is the result of one map render.
type Output struct {
	Map      *mapfile.Map
	Palette  *palette.Palette
	Full     Layer
	Radars   []Layer
	Entities []*entity.Entity // draw order

	pool *raster.Pool
}

// Release returns the output's buffers to the renderer pool.
func (o *Output) Release() {
	if o.pool == nil {
		return
	}
	o.pool.Put(o.Full.Image)
	for _, r := range o.Radars {
		o.pool.Put(r.Image)
	}
	o.pool = nil
}

// Renderer holds the process-wide shared state. It is safe for concurrent
// use; every Render call keeps its own per-map state.
type Renderer struct {
	lib       *asset.Library
	rules     *rules.Set
	templates *theater.Templates
	remaps    *palette.RemapCache
	pool      *raster.Pool
	opts      Options

	mu       sync.Mutex
	palettes map[string]*palette.Palette
}

// New creates a renderer.
func New(lib *asset.Library, set *rules.Set, templates *theater.Templates, opts Options) *Renderer {
	if opts.TileSize <= 0 {
		opts.TileSize = 24
	}
	if templates == nil {
		templates = theater.NewTemplates()
	}
	return &Renderer{
		lib:       lib,
		rules:     set,
		templates: templates,
		remaps:    palette.NewRemapCache(),
		pool:      raster.NewPool(),
		opts:      opts,
		palettes:  make(map[string]*palette.Palette),
	}
}

// Palette returns the palette of a theater, loading it once.
func (r *Renderer) Palette(th theater.Theater) (*palette.Palette, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.palettes[th.Palette]; ok {
		return p, nil
	}
	p, err := r.lib.LoadPalette(th.Palette)
	if err != nil {
		return nil, fmt.Errorf("render: theater %s: %w", th.Name, err)
	}
	r.palettes[th.Palette] = p
	return p, nil
}

// Remaps exposes the shared remap table cache.
func (r *Renderer) Remaps() *palette.RemapCache { return r.remaps }

// Render draws one map. Structural errors fail the map; degraded
// conditions are recorded in rep.
func (r *Renderer) Render(m *mapfile.Map, rep *diag.Report) (*Output, error) {
	if rep == nil {
		rep = diag.NewReport(m.Name, nil)
	}
	tile := r.opts.TileSize

	th, ok := theater.Lookup(m.Theater)
	if !ok {
		th = theater.Default()
		if m.Theater != "" {
			rep.Warnf("theater", m.Theater, "unknown theater %q, using %s", m.Theater, th.Name)
		}
	}
	pal, err := r.Palette(th)
	if err != nil {
		return nil, err
	}

	layer, err := ground.Decode(m.Ground, m.Width, m.Height, ground.Options{LegacyClear: r.opts.LegacyClear})
	if err != nil {
		return nil, fmt.Errorf("render: %s: MapPack: %w", m.Name, err)
	}

	view := asset.View{Library: r.lib, Ext: th.Ext, Palette: pal}
	houses := theater.NewHouses(pal, r.remaps)

	entities := r.resolve(m, view, houses, rep)
	ordered := drawsort.Map(entities, tile)
	tiles := newTileSet(view, r.templates, th, rep)

	out := &Output{Map: m, Palette: pal, Entities: ordered, pool: r.pool}

	// Full map
	img := r.pool.Get(m.Width*tile, m.Height*tile)
	c := composite.NewCanvas(img, tile, tile)
	c.Shadow = houses.Shadow()
	bounds := scaleRect(m.Bounds, tile)
	if !r.opts.ShadeBorder {
		c.Clip = bounds
	}
	c.Map(layer, tiles, ordered)
	if r.opts.ShadeBorder {
		c.Shade(m.Bounds, houses.Border(th))
	}
	out.Full = Layer{Image: img, Clip: bounds, Scale: tile}

	// Radars
	for _, scale := range r.opts.RadarScales {
		rimg := r.pool.Get(m.Width*scale, m.Height*scale)
		rc := composite.NewCanvas(rimg, tile, scale)
		rc.Clip = scaleRect(m.Bounds, scale)
		rc.Radar(layer, tiles, entities)
		out.Radars = append(out.Radars, Layer{Image: rimg, Clip: rc.Clip, Scale: scale})
	}
	return out, nil
}

// resolve builds every entity of the map: terrain and smudges, then packed
// overlays, then objects, then flags.
func (r *Renderer) resolve(m *mapfile.Map, view asset.View, houses *theater.Houses, rep *diag.Report) []*entity.Entity {
	opts := entity.DefaultOptions()
	opts.TileSize = r.opts.TileSize
	opts.Undefined = r.opts.Undefined
	opts.ShowInvisible = r.opts.ShowInvisible
	opts.Viewer = m.Player

	b := entity.NewBuilder(m.Width, m.Height, r.rules.NewResolver(m.Rules()), view, houses, rep, opts)

	background := func(k rules.Kind) bool {
		return k == rules.KindTerrain || k == rules.KindSmudge
	}
	for _, rec := range m.Records {
		if background(rec.Kind) {
			b.Add(rec)
		}
	}
	for cell, id := range m.Overlays {
		if id == mapfile.NoOverlay {
			continue
		}
		name, ok := rules.OverlayName(id)
		if !ok {
			rep.Warnf("overlay", fmt.Sprint(id), "unknown overlay id %d at cell %d", id, cell)
			continue
		}
		b.AddOverlay(cell, name)
	}
	for _, rec := range m.Records {
		if !background(rec.Kind) {
			b.Add(rec)
		}
	}
	for _, f := range m.Flags {
		b.AddFlag(f.House, f.Cell)
	}
	return b.Finish()
}

func scaleRect(r image.Rectangle, s int) image.Rectangle {
	return image.Rect(r.Min.X*s, r.Min.Y*s, r.Max.X*s, r.Max.Y*s)
}
