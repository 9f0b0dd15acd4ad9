package asset

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"rts-map-renderer/internal/palette"
)

// ErrNotFound reports a sheet missing from the index.
var ErrNotFound = errors.New("asset: not found")

// Library loads sheets through an Index and keeps decoded sheets in a
// bounded, concurrency-safe cache shared by all workers.
type Library struct {
	index *Index
	cache *ristretto.Cache[string, *Sheet]
}

// NewLibrary creates a library whose cache holds up to maxBytes of pixels.
func NewLibrary(index *Index, maxBytes int64) (*Library, error) {
	if maxBytes <= 0 {
		maxBytes = 256 << 20
	}
	cache, err := ristretto.NewCache[string, *Sheet](&ristretto.Config[string, *Sheet]{
		NumCounters: 100000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("asset: cache: %w", err)
	}
	return &Library{index: index, cache: cache}, nil
}

// Index returns the underlying path index.
func (l *Library) Index() *Index { return l.index }

// Load returns the sheet for name in the given theater. Truecolor sheets are
// matched against pal, so the cache is keyed by palette identity as well.
func (l *Library) Load(name, theaterExt string, pal *palette.Palette) (*Sheet, error) {
	path, ok := l.index.ResolvePath(name, theaterExt)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	key := fmt.Sprintf("%s|%p", path, pal)
	if s, ok := l.cache.Get(key); ok {
		return s, nil
	}

	s, err := LoadSheet(path, pal)
	if err != nil {
		return nil, err
	}
	l.cache.Set(key, s, s.cost())
	return s, nil
}

// LoadPalette reads a palette registered in the index.
func (l *Library) LoadPalette(name string) (*palette.Palette, error) {
	path, ok := l.index.PalettePath(name)
	if !ok {
		return nil, fmt.Errorf("%w: palette %s", ErrNotFound, name)
	}
	return palette.Load(path)
}

// Close releases the cache.
func (l *Library) Close() {
	l.cache.Close()
}

// View binds a library to one theater and palette for a single map.
type View struct {
	Library *Library
	Ext     string
	Palette *palette.Palette
}

// Sprite resolves a sprite by name. theater selects the per-theater variant
// first. Missing sheets wrap ErrNotFound.
func (v View) Sprite(name string, theater bool) (Frames, error) {
	ext := ""
	if theater {
		ext = v.Ext
	}
	s, err := v.Library.Load(name, ext, v.Palette)
	if err != nil {
		return nil, err
	}
	return s, nil
}
