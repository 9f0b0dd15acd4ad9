package batch

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rts-map-renderer/internal/config"
)

const tile = 4

func writeAssets(t *testing.T, dir string) {
	t.Helper()
	pal := make([]byte, 768)
	for i := 0; i < 256; i++ {
		pal[i*3], pal[i*3+1], pal[i*3+2] = byte(i/4), byte(i/4), byte(i/4)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "temperat.pal"), pal, 0644))

	gray := make(color.Palette, 256)
	for i := range gray {
		gray[i] = color.NRGBA{R: uint8(i), G: uint8(i), B: uint8(i), A: 255}
	}
	img := image.NewPaletted(image.Rect(0, 0, tile, tile*16), gray)
	for y := 0; y < tile*16; y++ {
		for x := 0; x < tile; x++ {
			img.SetColorIndex(x, y, uint8(1+y/tile))
		}
	}
	f, err := os.Create(filepath.Join(dir, "clear1.tem.png"))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func setup(t *testing.T) (Config, []string, string) {
	t.Helper()
	root := t.TempDir()
	assets := filepath.Join(root, "assets")
	maps := filepath.Join(root, "maps")
	out := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(assets, 0755))
	require.NoError(t, os.MkdirAll(maps, 0755))
	writeAssets(t, assets)

	require.NoError(t, os.WriteFile(filepath.Join(maps, "scg01ea.ini"), []byte(`[Map]
Theater=TEMPERATE
X=1
Y=1
Width=8
Height=8

[UNITS]
0=USSR,ZZZZ,256,200,0,Guard,None
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(maps, "broken.mpr"), []byte("[Map]\nWidth=abc\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(maps, "notes.txt"), []byte("x"), 0644))

	c := config.Config{TileSize: tile, RadarScales: []int{1}, Workers: 2}
	c.Resolve(config.Flags{AssetDir: assets, OutputDir: out})

	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg, closeFn, err := Setup(c, log)
	require.NoError(t, err)
	t.Cleanup(closeFn)
	cfg.Progress = io.Discard

	paths, err := Discover(maps)
	require.NoError(t, err)
	return cfg, paths, out
}

func TestDiscover(t *testing.T) {
	_, paths, _ := setup(t)
	require.Len(t, paths, 2)
	assert.Equal(t, "broken.mpr", filepath.Base(paths[0]))
	assert.Equal(t, "scg01ea.ini", filepath.Base(paths[1]))

	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRunRendersAndSkips(t *testing.T) {
	cfg, paths, out := setup(t)

	results := Run(context.Background(), cfg, paths)
	require.Len(t, results, 2)

	broken, ok := results[0], results[1]
	assert.False(t, broken.Success)
	assert.Contains(t, broken.Error, "Width")
	assert.Equal(t, StatusFailed, broken.Status())

	require.True(t, ok.Success, ok.Error)
	assert.Equal(t, "scg01ea", ok.Name)
	assert.Equal(t, []string{
		filepath.Join(out, "scg01ea.png"),
		filepath.Join(out, "scg01ea.radar1.png"),
	}, ok.Outputs)
	var kinds []string
	for _, w := range ok.Warnings {
		kinds = append(kinds, w.Kind)
	}
	assert.Contains(t, kinds, "undefined")

	f, err := os.Open(ok.Outputs[0])
	require.NoError(t, err)
	cfgImg, err := png.DecodeConfig(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, 8*tile, cfgImg.Width, "cropped to the map bounds")

	again := Run(context.Background(), cfg, paths)
	assert.True(t, again[1].Skipped)
	assert.Equal(t, StatusSkipped, again[1].Status())
	assert.ElementsMatch(t, ok.Outputs, again[1].Outputs)
	assert.False(t, again[0].Success)
}

func TestSettingsKeyTracksIniContents(t *testing.T) {
	dir := t.TempDir()
	rulesINI := filepath.Join(dir, "rules.ini")
	templatesINI := filepath.Join(dir, "templates.ini")
	require.NoError(t, os.WriteFile(rulesINI, []byte("[POWR]\nBib=yes\n"), 0644))
	require.NoError(t, os.WriteFile(templatesINI, []byte("[temperate]\n"), 0644))

	c := config.Config{TileSize: tile, RadarScales: []int{1}, RulesINI: rulesINI, TemplatesINI: templatesINI}
	before, err := settingsKey(c)
	require.NoError(t, err)
	again, err := settingsKey(c)
	require.NoError(t, err)
	assert.Equal(t, before, again)

	require.NoError(t, os.WriteFile(rulesINI, []byte("[POWR]\nBib=no\n"), 0644))
	afterRules, err := settingsKey(c)
	require.NoError(t, err)
	assert.NotEqual(t, before, afterRules)

	require.NoError(t, os.WriteFile(templatesINI, []byte("[snow]\n"), 0644))
	afterTemplates, err := settingsKey(c)
	require.NoError(t, err)
	assert.NotEqual(t, afterRules, afterTemplates)

	c.RulesINI = filepath.Join(dir, "missing.ini")
	_, err = settingsKey(c)
	assert.Error(t, err)
}

func TestRunCancelledBeforeStart(t *testing.T) {
	cfg, paths, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Run(ctx, cfg, paths)
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Equal(t, context.Canceled.Error(), r.Error)
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	results := []Result{
		{Name: "a", Path: "maps/a.ini", Success: true, Outputs: []string{filepath.Join(dir, "a.png")}},
		{Name: "b", Path: "maps/b.ini", Error: "boom"},
	}
	require.NoError(t, WriteManifest(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, StatusRendered, entries[0].Status)
	assert.Equal(t, []string{"a.png"}, entries[0].Images)
	assert.Equal(t, StatusFailed, entries[1].Status)
	assert.Equal(t, "boom", entries[1].Error)
}
