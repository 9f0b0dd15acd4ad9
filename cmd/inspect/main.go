package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"rts-map-renderer/internal/asset"
	"rts-map-renderer/internal/config"
	"rts-map-renderer/internal/diag"
	"rts-map-renderer/internal/drawsort"
	"rts-map-renderer/internal/entity"
	"rts-map-renderer/internal/mapfile"
	"rts-map-renderer/internal/render"
	"rts-map-renderer/internal/rules"
	"rts-map-renderer/internal/theater"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	assetDir := flag.String("assets", "", "Asset directory (default: assets)")
	typeName := flag.String("type", "", "Only dump entities of this type")
	depth := flag.Int("depth", 3, "spew nesting depth")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: inspect [flags] MAP")
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Resolve(config.Flags{AssetDir: *assetDir})

	m, err := mapfile.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Map: %s (%s) %dx%d bounds %v, player %q\n", m.Name, m.Theater, m.Width, m.Height, m.Bounds, m.Player)
	fmt.Printf("Records: %d, Flags: %d\n", len(m.Records), len(m.Flags))

	var global rules.Source
	if cfg.RulesINI != "" {
		if global, err = rules.LoadIni(cfg.RulesINI); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	templates := theater.NewTemplates()
	if cfg.TemplatesINI != "" {
		if templates, err = theater.LoadTemplates(cfg.TemplatesINI); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	lib, err := asset.NewLibrary(asset.BuildIndex(cfg.AssetDir), int64(cfg.CacheMB)<<20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer lib.Close()

	undefined := entity.OmitUndefined
	if cfg.Undefined == "placeholder" {
		undefined = entity.PlaceholderUndefined
	}
	r := render.New(lib, rules.NewSet(global), templates, render.Options{
		TileSize:      cfg.TileSize,
		Undefined:     undefined,
		ShowInvisible: cfg.ShowInvisible,
		LegacyClear:   cfg.LegacyClear,
	})

	rep := diag.NewReport(m.Name, nil)
	out, err := r.Render(m, rep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer out.Release()

	sc := spew.ConfigState{Indent: "  ", MaxDepth: *depth, DisablePointerAddresses: true, SortKeys: true}
	fmt.Println("------------------------------------------------------------")
	for i, e := range out.Entities {
		if *typeName != "" && !strings.EqualFold(e.TypeName, *typeName) {
			continue
		}
		k := drawsort.KeyOf(e, cfg.TileSize)
		fmt.Printf("[%d] %s %s at %v plane=%s y=%d x=%d\n", i, e.Kind, e.TypeName, e.Pos, e.Plane, k.Y, k.X)
		sc.Dump(e)
	}

	if warnings := rep.Warnings(); len(warnings) > 0 {
		fmt.Println("------------------------------------------------------------")
		fmt.Printf("Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("  %s %s: %s (x%d)\n", w.Kind, w.Subject, w.Message, w.Count)
		}
	}
}
