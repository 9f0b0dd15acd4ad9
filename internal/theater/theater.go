// Package theater holds the visual variants a map can use: which palette and
// tile-set files they load, which ground templates exist in them and how
// the area outside the playable border is shaded.
package theater

import (
	"sort"
	"strings"

	"rts-map-renderer/internal/palette"
)

// Theater is one visual variant.
type Theater struct {
	Name    string
	Ext     string // file extension of theater-specific sprites
	Palette string // palette name in the asset index
	Border  palette.Params
}

var theaters = map[string]Theater{
	"temperate": {Name: "temperate", Ext: "tem", Palette: "temperat", Border: palette.ShadowParams()},
	"snow":      {Name: "snow", Ext: "sno", Palette: "snow", Border: palette.ShadowParams()},
	"interior":  {Name: "interior", Ext: "int", Palette: "interior", Border: palette.ShadowParams()},
	"desert":    {Name: "desert", Ext: "des", Palette: "desert", Border: palette.ShadowParams()},
}

// Lookup returns the theater with the given case-insensitive name.
func Lookup(name string) (Theater, bool) {
	t, ok := theaters[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Default is the theater used when a map names none or an unknown one.
func Default() Theater {
	return theaters["temperate"]
}

// Names lists the known theaters in sorted order.
func Names() []string {
	out := make([]string, 0, len(theaters))
	for n := range theaters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
