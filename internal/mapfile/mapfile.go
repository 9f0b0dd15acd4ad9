// Package mapfile reads scenario INI files: map bounds, object sections,
// packed overlay and ground data, and the map-local rule overrides.
package mapfile

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"gopkg.in/ini.v1"

	"rts-map-renderer/internal/entity"
	"rts-map-renderer/internal/rules"
)

// GridSize is the width and height of every map grid in tiles.
const GridSize = 128

// NoOverlay marks an empty cell in the overlay pack.
const NoOverlay = 0xFF

// ErrMalformedPack is returned when a packed section does not decode.
var ErrMalformedPack = errors.New("mapfile: malformed pack")

// Section names, in the order their records are placed.
var recordSections = []struct {
	name string
	kind rules.Kind
}{
	{"TERRAIN", rules.KindTerrain},
	{"SMUDGE", rules.KindSmudge},
	{"STRUCTURES", rules.KindStructure},
	{"UNITS", rules.KindUnit},
	{"SHIPS", rules.KindVessel},
	{"INFANTRY", rules.KindInfantry},
}

// Flag is a house flag placed at a cell.
type Flag struct {
	House string
	Cell  int
}

// Map is one parsed scenario.
type Map struct {
	Name    string
	Path    string
	Theater string
	Player  string

	Width, Height int             // grid size in tiles
	Bounds        image.Rectangle // playable area in tiles

	Records  []entity.Record // in placement order
	Overlays []byte          // one overlay id per cell, NoOverlay when empty; nil when absent
	Ground   []byte          // packed ground layer; nil when absent
	Flags    []Flag

	file *ini.File
}

// Load reads and parses a map file. Text is decoded from Windows-1252.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapfile: read %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := Parse(data, name)
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Parse decodes a map from raw Windows-1252 bytes.
func Parse(data []byte, name string) (*Map, error) {
	text, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("mapfile: decode %s: %w", name, err)
	}
	f, err := ini.LoadSources(rules.LoadOptions, text)
	if err != nil {
		return nil, fmt.Errorf("mapfile: parse %s: %w", name, err)
	}

	m := &Map{Name: name, Width: GridSize, Height: GridSize, file: f}
	if err := m.readHeader(); err != nil {
		return nil, fmt.Errorf("mapfile: %s: %w", name, err)
	}
	if err := m.readRecords(); err != nil {
		return nil, fmt.Errorf("mapfile: %s: %w", name, err)
	}
	if m.Overlays, err = readPack(f, "OverlayPack"); err != nil {
		return nil, fmt.Errorf("mapfile: %s: %w", name, err)
	}
	if m.Overlays != nil && len(m.Overlays) != m.Width*m.Height {
		return nil, fmt.Errorf("mapfile: %s: %w: OverlayPack has %d cells, want %d",
			name, ErrMalformedPack, len(m.Overlays), m.Width*m.Height)
	}
	if m.Ground, err = readPack(f, "MapPack"); err != nil {
		return nil, fmt.Errorf("mapfile: %s: %w", name, err)
	}
	m.readFlags()
	return m, nil
}

func (m *Map) readHeader() error {
	sec := m.file.Section("Map")
	m.Theater = strings.ToLower(strings.TrimSpace(sec.Key("Theater").String()))

	var dims [4]int
	for i, k := range []string{"X", "Y", "Width", "Height"} {
		n, err := intKey(sec, k, 0)
		if err != nil {
			return err
		}
		dims[i] = n
	}
	if dims[2] <= 0 || dims[3] <= 0 {
		dims = [4]int{0, 0, m.Width, m.Height}
	}
	m.Bounds = image.Rect(dims[0], dims[1], dims[0]+dims[2], dims[1]+dims[3]).
		Intersect(image.Rect(0, 0, m.Width, m.Height))

	basic := m.file.Section("Basic")
	if n := strings.TrimSpace(basic.Key("Name").String()); n != "" {
		m.Name = n
	}
	m.Player = strings.TrimSpace(basic.Key("Player").String())
	return nil
}

func intKey(sec *ini.Section, key string, def int) (int, error) {
	if !sec.HasKey(key) {
		return def, nil
	}
	v := strings.TrimSpace(sec.Key(key).String())
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s %s=%q: %w", sec.Name(), key, v, entity.ErrMalformedRecord)
	}
	return n, nil
}

func (m *Map) readRecords() error {
	for _, s := range recordSections {
		sec, err := m.file.GetSection(s.name)
		if err != nil {
			continue
		}
		for _, k := range sec.Keys() {
			rec, err := entity.ParseRecord(s.kind, k.Name(), k.Value())
			if err != nil {
				return err
			}
			m.Records = append(m.Records, rec)
		}
	}
	return nil
}

// readPack joins the numbered base64 lines of a pack section.
func readPack(f *ini.File, section string) ([]byte, error) {
	sec, err := f.GetSection(section)
	if err != nil {
		return nil, nil
	}
	type line struct {
		n int
		v string
	}
	var lines []line
	for _, k := range sec.Keys() {
		n, err := strconv.Atoi(strings.TrimSpace(k.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %q", ErrMalformedPack, section, k.Name())
		}
		lines = append(lines, line{n, strings.TrimSpace(k.Value())})
	}
	if len(lines) == 0 {
		return nil, nil
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].n < lines[j].n })

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.v)
	}
	data, err := base64.StdEncoding.DecodeString(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPack, section, err)
	}
	return data, nil
}

// readFlags collects FlagHome cells from house sections.
func (m *Map) readFlags() {
	for _, sec := range m.file.Sections() {
		if !sec.HasKey("FlagHome") {
			continue
		}
		cell, err := strconv.Atoi(strings.TrimSpace(sec.Key("FlagHome").String()))
		if err != nil || cell <= 0 {
			continue
		}
		m.Flags = append(m.Flags, Flag{House: sec.Name(), Cell: cell})
	}
}

// Rules returns the map's own sections as the local rule override source.
func (m *Map) Rules() rules.Source {
	return rules.NewIniSource(m.file)
}

// Overlay returns the overlay type id at cell, or false when empty.
func (m *Map) Overlay(cell int) (string, bool) {
	if cell < 0 || cell >= len(m.Overlays) || m.Overlays[cell] == NoOverlay {
		return "", false
	}
	return rules.OverlayName(m.Overlays[cell])
}
