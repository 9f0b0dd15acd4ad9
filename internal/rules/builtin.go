package rules

import (
	"strings"

	"rts-map-renderer/internal/grid"
)

// Damage ratio thresholds out of 256.
const (
	ConditionYellow = 0x80
	ConditionRed    = 0x40
)

// Built-in radar fill colors.
const (
	RadarTree  = 0x9C
	RadarMine  = 0x7B
	RadarGold  = 0xD4
	RadarGem   = 0xB3
	RadarWall  = 0x83
	RadarCrate = 0x9F
)

func structure(name string, w, h, strength int) *Type {
	return &Type{
		Name:       name,
		Kind:       KindStructure,
		Size:       grid.Pos{X: w, Y: h},
		Occupy:     rect(w, h),
		Strength:   strength,
		Bands:      2,
		RadarColor: NoRadarColor,
	}
}

func withBib(t *Type) *Type {
	t.Bib = true
	return t
}

func vehicle(kind Kind, name string, strength, facings int) *Type {
	return &Type{
		Name:       name,
		Kind:       kind,
		Size:       grid.Pos{X: 1, Y: 1},
		Occupy:     rect(1, 1),
		Strength:   strength,
		Facings:    facings,
		RadarColor: NoRadarColor,
	}
}

func terrain(name string, w, h int, occupy, overlap []grid.Pos) *Type {
	return &Type{
		Name:       name,
		Kind:       KindTerrain,
		Theater:    true,
		Size:       grid.Pos{X: w, Y: h},
		Occupy:     occupy,
		Overlap:    overlap,
		RadarColor: RadarTree,
	}
}

func overlay(name string, radar int) *Type {
	return &Type{
		Name:       name,
		Kind:       KindOverlay,
		Size:       grid.Pos{X: 1, Y: 1},
		Occupy:     rect(1, 1),
		RadarColor: radar,
	}
}

func smudge(name string, w, h int) *Type {
	return &Type{
		Name:       name,
		Kind:       KindSmudge,
		Theater:    true,
		Size:       grid.Pos{X: w, Y: h},
		Occupy:     rect(w, h),
		RadarColor: NoRadarColor,
	}
}

func p(x, y int) grid.Pos { return grid.Pos{X: x, Y: y} }

// overlayIDs maps packed overlay bytes to type ids.
var overlayIDs = []string{
	"SBAG", "CYCL", "BRIK", "BARB", "WOOD",
	"GOLD01", "GOLD02", "GOLD03", "GOLD04",
	"GEM01", "GEM02", "GEM03", "GEM04",
	"V12", "V13", "V14", "V15", "V16", "V17", "V18",
	"FPLS", "WCRATE", "SCRATE", "FENC", "WWCRATE",
}

// OverlayName returns the type id stored as packed overlay byte id.
func OverlayName(id byte) (string, bool) {
	if int(id) >= len(overlayIDs) {
		return "", false
	}
	return overlayIDs[id], true
}

// OverlayID is the inverse of OverlayName.
func OverlayID(name string) (byte, bool) {
	name = normalizeName(name)
	for i, n := range overlayIDs {
		if n == name {
			return byte(i), true
		}
	}
	return 0, false
}

func builtinTypes() []*Type {
	var types []*Type

	// Structures
	types = append(types,
		withBib(structure("FACT", 3, 3, 1000)),
		withBib(structure("POWR", 2, 2, 400)),
		withBib(structure("APWR", 3, 3, 700)),
		withBib(structure("WEAP", 3, 2, 1000)),
		withBib(structure("BARR", 2, 2, 800)),
		withBib(structure("TENT", 2, 2, 800)),
		withBib(structure("DOME", 2, 2, 1000)),
		withBib(structure("ATEK", 2, 2, 400)),
		withBib(structure("STEK", 2, 2, 600)),
		withBib(structure("HPAD", 2, 2, 800)),
		withBib(structure("HOSP", 2, 2, 400)),
		structure("AFLD", 3, 2, 1000),
		structure("SYRD", 3, 3, 1000),
		structure("SPEN", 3, 3, 1000),
		structure("FIX", 3, 3, 800),
		structure("GAP", 1, 1, 1000),
		structure("IRON", 2, 2, 400),
		structure("PDOX", 2, 2, 1000),
		structure("MSLO", 2, 1, 1000),
		structure("PBOX", 1, 1, 400),
		structure("HBOX", 1, 1, 600),
		structure("TSLA", 1, 2, 400),
		structure("FTUR", 1, 1, 400),
		structure("KENN", 1, 1, 400),
		structure("BIO", 2, 2, 600),
		structure("MISS", 3, 2, 1000),
	)

	proc := withBib(structure("PROC", 3, 3, 900))
	proc.Storage = 2000
	silo := structure("SILO", 1, 1, 300)
	silo.Storage = 1500
	silo.Levels = 5
	types = append(types, proc, silo)

	for _, name := range []string{"GUN", "AGUN", "SAM"} {
		t := structure(name, 1, 1, 400)
		if name == "SAM" {
			t.Size = p(2, 1)
			t.Occupy = rect(2, 1)
		}
		t.Facings = 32
		types = append(types, t)
	}

	for _, f := range []struct{ fake, real string }{
		{"FACF", "FACT"}, {"WEAF", "WEAP"}, {"SYRF", "SYRD"}, {"SPEF", "SPEN"}, {"DOMF", "DOME"},
	} {
		var t *Type
		for _, r := range types {
			if r.Name == f.real {
				t = r.Clone()
				break
			}
		}
		t.Name = f.fake
		t.Image = strings.ToLower(f.real)
		t.Strength = 30
		t.Fake = true
		types = append(types, t)
	}

	for _, name := range []string{"MINP", "MINV"} {
		t := structure(name, 1, 1, 1)
		t.Bands = 0
		t.Invisible = true
		types = append(types, t)
	}
	for _, name := range []string{"BARL", "BRL3"} {
		t := structure(name, 1, 1, 10)
		t.Bands = 3
		types = append(types, t)
	}

	// Vehicles
	for _, v := range []struct {
		name     string
		strength int
		turret   bool
	}{
		{"HARV", 600, false}, {"MCV", 600, false}, {"JEEP", 150, true},
		{"APC", 200, false}, {"ARTY", 75, false}, {"V2RL", 150, false},
		{"1TNK", 300, true}, {"2TNK", 400, true}, {"3TNK", 600, true},
		{"4TNK", 600, true}, {"MNLY", 100, false}, {"TRUK", 110, false},
		{"MGG", 110, false}, {"MRJ", 110, false},
	} {
		t := vehicle(KindUnit, v.name, v.strength, 32)
		if v.turret {
			t.Turrets = []int{0}
		}
		types = append(types, t)
	}

	// Aircraft parked on the map are drawn as elevated units.
	for _, a := range []struct {
		name     string
		strength int
		rotors   []int
	}{
		{"HELI", 100, []int{0}}, {"HIND", 225, []int{0}}, {"TRAN", 90, []int{8, -8}},
	} {
		t := vehicle(KindUnit, a.name, a.strength, 32)
		t.Rotors = a.rotors
		t.Elevated = true
		types = append(types, t)
	}

	// Vessels
	for _, v := range []struct {
		name     string
		strength int
		turrets  []int
	}{
		{"SS", 120, nil}, {"DD", 400, []int{8}}, {"CA", 700, []int{16, -16}},
		{"LST", 350, nil}, {"PT", 200, []int{6}},
	} {
		t := vehicle(KindVessel, v.name, v.strength, 16)
		t.Turrets = v.turrets
		types = append(types, t)
	}

	// Infantry
	for _, name := range []string{
		"E1", "E2", "E3", "E4", "E6", "E7", "SPY", "THF", "MEDI", "DOG", "EINSTEIN",
		"C1", "C2", "C3", "C4", "C5", "C6", "C7", "C8", "C9", "C10",
	} {
		types = append(types, vehicle(KindInfantry, name, 50, 8))
	}

	// Terrain
	lower := []grid.Pos{p(0, 1)}
	upper := []grid.Pos{p(0, 0), p(1, 0), p(1, 1)}
	for _, name := range []string{"T01", "T02", "T03", "T05", "T06", "T07", "T12", "T13"} {
		types = append(types, terrain(name, 2, 2, lower, upper))
	}
	for _, name := range []string{"T10", "T11", "T14", "T15", "T16", "T17"} {
		types = append(types, terrain(name, 2, 2, []grid.Pos{p(0, 1), p(1, 1)}, []grid.Pos{p(0, 0), p(1, 0)}))
	}
	types = append(types,
		terrain("T08", 2, 1, []grid.Pos{p(0, 0)}, []grid.Pos{p(1, 0)}),
		terrain("TC01", 3, 2, []grid.Pos{p(0, 1), p(1, 1)}, []grid.Pos{p(0, 0), p(1, 0), p(2, 0)}),
		terrain("TC02", 3, 2, []grid.Pos{p(1, 0), p(0, 1), p(1, 1)}, []grid.Pos{p(0, 0), p(2, 0), p(2, 1)}),
		terrain("TC03", 3, 2, []grid.Pos{p(0, 0), p(1, 0), p(0, 1)}, []grid.Pos{p(1, 1), p(2, 1)}),
		terrain("TC04", 4, 3, []grid.Pos{p(0, 1), p(1, 1), p(2, 1), p(3, 1), p(1, 2)}, []grid.Pos{p(0, 0), p(1, 0), p(2, 0), p(3, 0)}),
		terrain("TC05", 4, 3, []grid.Pos{p(2, 0), p(0, 1), p(1, 1), p(2, 1), p(3, 1), p(1, 2), p(2, 2)}, []grid.Pos{p(0, 0), p(1, 0), p(3, 0)}),
	)
	mine := terrain("MINE", 1, 1, []grid.Pos{p(0, 0)}, nil)
	mine.RadarColor = RadarMine
	types = append(types, mine)

	// Overlays
	for _, name := range []string{"SBAG", "CYCL", "BRIK", "BARB", "WOOD", "FENC"} {
		t := overlay(name, RadarWall)
		t.Wall = true
		types = append(types, t)
	}
	for _, name := range []string{"GOLD01", "GOLD02", "GOLD03", "GOLD04"} {
		t := overlay(name, RadarGold)
		t.Ore = OreGold
		t.Theater = true
		types = append(types, t)
	}
	for _, name := range []string{"GEM01", "GEM02", "GEM03", "GEM04"} {
		t := overlay(name, RadarGem)
		t.Ore = OreGem
		t.Theater = true
		types = append(types, t)
	}
	for _, name := range []string{"V12", "V13", "V14", "V15", "V16", "V17", "V18"} {
		t := overlay(name, NoRadarColor)
		t.Theater = true
		types = append(types, t)
	}
	for _, name := range []string{"WCRATE", "SCRATE", "WWCRATE"} {
		types = append(types, overlay(name, RadarCrate))
	}
	types = append(types, overlay("FPLS", NoRadarColor))

	// Smudges
	for _, name := range []string{"CR1", "CR2", "CR3", "CR4", "CR5", "CR6", "SC1", "SC2", "SC3", "SC4", "SC5", "SC6"} {
		types = append(types, smudge(name, 1, 1))
	}
	types = append(types, smudge("BIB1", 4, 2), smudge("BIB2", 3, 2), smudge("BIB3", 2, 2))

	types = append(types, &Type{
		Name:       "FLAG",
		Kind:       KindFlag,
		Image:      "flagfly",
		Size:       p(1, 1),
		Occupy:     rect(1, 1),
		RadarColor: NoRadarColor,
	})

	for _, t := range types {
		if t.Image == "" {
			t.Image = strings.ToLower(t.Name)
		}
	}
	return types
}

// BibFor returns the bib smudge type id for a structure of width w.
func BibFor(w int) string {
	switch {
	case w >= 4:
		return "BIB1"
	case w == 3:
		return "BIB2"
	default:
		return "BIB3"
	}
}
