package render

import (
	"fmt"

	"rts-map-renderer/internal/asset"
	"rts-map-renderer/internal/diag"
	"rts-map-renderer/internal/ground"
	"rts-map-renderer/internal/theater"
)

// tileSet resolves ground tiles for one map. Templates missing from the
// theater or from disk resolve to nil and draw transparent.
type tileSet struct {
	view      asset.View
	templates *theater.Templates
	theater   theater.Theater
	rep       *diag.Report
	sets      map[uint16]asset.Frames
}

func newTileSet(view asset.View, templates *theater.Templates, th theater.Theater, rep *diag.Report) *tileSet {
	return &tileSet{
		view:      view,
		templates: templates,
		theater:   th,
		rep:       rep,
		sets:      make(map[uint16]asset.Frames),
	}
}

func (ts *tileSet) TileFrame(t ground.Tile) *asset.Frame {
	frames, ok := ts.sets[t.Template]
	if !ok {
		frames = ts.load(t.Template)
		ts.sets[t.Template] = frames
	}
	if frames == nil {
		return nil
	}
	return frames.Frame(int(t.Icon))
}

func (ts *tileSet) load(id uint16) asset.Frames {
	subject := fmt.Sprintf("%#04x", id)
	tpl, ok := ts.templates.Lookup(id, ts.theater.Name)
	if !ok {
		ts.rep.Warnf("template", subject, "template %s not in theater %s", subject, ts.theater.Name)
		return nil
	}
	frames, err := ts.view.Sprite(tpl.Name, true)
	if err != nil {
		ts.rep.Warnf("asset", tpl.Name, "tile set %s: %v", tpl.Name, err)
		return nil
	}
	return frames
}
