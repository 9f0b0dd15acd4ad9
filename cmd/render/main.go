package main

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"rts-map-renderer/internal/asset"
	"rts-map-renderer/internal/batch"
	"rts-map-renderer/internal/config"
	"rts-map-renderer/internal/diag"
	"rts-map-renderer/internal/palette"
	"rts-map-renderer/internal/sink"
	"rts-map-renderer/internal/theater"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp()

	app.Name = "maprender"
	app.Usage = "Render tile-based strategy maps and radar images"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{config.EnvPrefix + "_CONFIG"},
			Usage:   "path to a JSON, YAML or TOML config file",
		},
		&cli.StringFlag{
			Name:  "assets",
			Usage: "asset directory (default: assets)",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "output directory (default: renders)",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "render",
			Usage:     "Render every map in a directory, or the given map files",
			ArgsUsage: "[MAP...]",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "format", Usage: "png or webp"},
				&cli.IntSliceFlag{Name: "radar", Usage: "radar pixels per tile, repeatable"},
				&cli.IntFlag{Name: "workers", Usage: "worker goroutines (default: NumCPU)"},
				&cli.BoolFlag{Name: "placeholders", Usage: "draw unknown types as outlined boxes"},
				&cli.BoolFlag{Name: "force", Usage: "ignore the render index"},
				&cli.IntFlag{Name: "test", Usage: "render only the first N maps"},
			},
			Action: func(c *cli.Context) error {
				return runRender(ctx, c)
			},
		},
		{
			Name:      "palette",
			Usage:     "Write palette and remap preview images for a theater",
			ArgsUsage: "[THEATER]",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "cell", Value: 8, Usage: "preview cell size in pixels"},
				&cli.StringFlag{Name: "derive", Usage: "derive the palette from a truecolor PNG or TGA instead"},
				&cli.IntFlag{Name: "brightness", Value: palette.Neutral},
				&cli.IntFlag{Name: "color", Value: palette.Neutral},
				&cli.IntFlag{Name: "contrast", Value: palette.Neutral},
				&cli.IntFlag{Name: "tint", Value: palette.Neutral},
			},
			Action: runPalette,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context, flags config.Flags) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	flags.AssetDir = c.String("assets")
	flags.OutputDir = c.String("output")
	cfg.Resolve(flags)
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*logrus.Logger, error) {
	return diag.NewLogger(diag.LogConfig{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxMB,
		MaxBackups: 3,
	}, os.Stderr)
}

func runRender(ctx context.Context, c *cli.Context) error {
	cfg, err := loadConfig(c, config.Flags{
		Format:       c.String("format"),
		RadarScales:  c.IntSlice("radar"),
		Workers:      c.Int("workers"),
		Placeholders: c.Bool("placeholders"),
	})
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if c.Bool("force") {
		cfg.IndexDB = ""
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	paths := c.Args().Slice()
	if len(paths) == 0 {
		if cfg.MapDir == "" {
			return cli.NewExitError("no maps given and no map_dir configured", 1)
		}
		if paths, err = batch.Discover(cfg.MapDir); err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	if n := c.Int("test"); n > 0 && n < len(paths) {
		paths = paths[:n]
	}
	if len(paths) == 0 {
		fmt.Println("No maps to render.")
		return nil
	}

	bc, closeFn, err := batch.Setup(cfg, logger)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer closeFn()

	fmt.Println("Map Renderer → " + strings.ToUpper(cfg.Format))
	fmt.Printf("Maps: %d, Workers: %d\n", len(paths), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	results := batch.Run(ctx, bc, paths)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	rendered, skipped, warned := 0, 0, 0
	var errors []batch.Result
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Success:
			rendered++
		default:
			errors = append(errors, r)
		}
		if len(r.Warnings) > 0 {
			warned++
		}
	}

	fmt.Printf("Rendered: %d/%d (skipped %d unchanged, %d with warnings)\n", rendered, len(paths), skipped, warned)

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(errors))
		limit := 20
		if len(errors) < limit {
			limit = len(errors)
		}
		for _, e := range errors[:limit] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		logger.WithError(err).Warn("manifest write failed")
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(errors) > 0 {
		return cli.NewExitError(fmt.Sprintf("%d maps failed", len(errors)), 1)
	}
	return nil
}

func runPalette(c *cli.Context) error {
	cfg, err := loadConfig(c, config.Flags{})
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	th := theater.Default()
	if c.NArg() > 0 {
		var ok bool
		if th, ok = theater.Lookup(c.Args().First()); !ok {
			return cli.NewExitError(fmt.Sprintf("unknown theater %q (%s)", c.Args().First(), strings.Join(theater.Names(), ", ")), 1)
		}
	}

	pal, err := loadPalette(cfg, th, c.String("derive"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	pal = palette.Adjust(pal, palette.Controls{
		Brightness: c.Int("brightness"),
		Color:      c.Int("color"),
		Contrast:   c.Int("contrast"),
		Tint:       c.Int("tint"),
	})

	cell := c.Int("cell")
	if cell <= 0 {
		cell = 1
	}

	// Rows: identity, shadow, border, then every house scheme.
	houses := theater.NewHouses(pal, palette.NewRemapCache())
	tables := []*palette.Remap{nil, houses.Shadow(), houses.Border(th)}
	var names []string
	for _, h := range theater.HouseNames() {
		if r := houses.Remap(h); r != nil {
			tables = append(tables, r)
			names = append(names, h)
		}
	}

	w := sink.Writer{Format: sink.PNG}
	swatchPath := filepath.Join(cfg.OutputDir, "palette", th.Name+".png")
	if err := w.Encode(swatchPath, palette.Swatch(pal, cell)); err != nil {
		return cli.NewExitError(err, 1)
	}
	remapPath := filepath.Join(cfg.OutputDir, "palette", th.Name+".remaps.png")
	if err := w.Encode(remapPath, palette.RemapPreview(pal, tables, cell)); err != nil {
		return cli.NewExitError(err, 1)
	}

	palPath := filepath.Join(cfg.OutputDir, "palette", th.Palette+".pal")
	if err := os.WriteFile(palPath, pal.Bytes(), 0644); err != nil {
		return cli.NewExitError(err, 1)
	}

	fmt.Printf("Palette: %s (%s)\n", swatchPath, palPath)
	fmt.Printf("Remaps:  %s (identity, shadow, border, %s)\n", remapPath, strings.Join(names, ", "))
	return nil
}

func loadPalette(cfg config.Config, th theater.Theater, derive string) (*palette.Palette, error) {
	if derive != "" {
		f, err := os.Open(derive)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", derive, err)
		}
		return palette.FromImage(img), nil
	}

	lib, err := asset.NewLibrary(asset.BuildIndex(cfg.AssetDir), int64(cfg.CacheMB)<<20)
	if err != nil {
		return nil, err
	}
	defer lib.Close()
	return lib.LoadPalette(th.Palette)
}
