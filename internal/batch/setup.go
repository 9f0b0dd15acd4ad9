package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"rts-map-renderer/internal/asset"
	"rts-map-renderer/internal/config"
	"rts-map-renderer/internal/entity"
	"rts-map-renderer/internal/render"
	"rts-map-renderer/internal/rules"
	"rts-map-renderer/internal/sink"
	"rts-map-renderer/internal/store"
	"rts-map-renderer/internal/theater"
)

// Setup builds the shared resources of a run from a resolved config. The
// returned close function releases the asset cache and the index.
func Setup(c config.Config, log logrus.FieldLogger) (Config, func(), error) {
	if err := c.Validate(); err != nil {
		return Config{}, nil, err
	}

	var global rules.Source
	if c.RulesINI != "" {
		src, err := rules.LoadIni(c.RulesINI)
		if err != nil {
			return Config{}, nil, err
		}
		global = src
	}

	templates := theater.NewTemplates()
	if c.TemplatesINI != "" {
		var err error
		if templates, err = theater.LoadTemplates(c.TemplatesINI); err != nil {
			return Config{}, nil, err
		}
	}

	settings, err := settingsKey(c)
	if err != nil {
		return Config{}, nil, err
	}

	index := asset.BuildIndex(c.AssetDir)
	if index.Len() == 0 {
		return Config{}, nil, fmt.Errorf("batch: no assets under %s", c.AssetDir)
	}
	lib, err := asset.NewLibrary(index, int64(c.CacheMB)<<20)
	if err != nil {
		return Config{}, nil, err
	}

	undefined := entity.OmitUndefined
	if c.Undefined == "placeholder" {
		undefined = entity.PlaceholderUndefined
	}
	r := render.New(lib, rules.NewSet(global), templates, render.Options{
		TileSize:      c.TileSize,
		RadarScales:   c.RadarScales,
		Undefined:     undefined,
		ShowInvisible: c.ShowInvisible,
		LegacyClear:   c.LegacyClear,
		ShadeBorder:   c.ShadeBorder,
	})

	format, err := sink.ParseFormat(c.Format)
	if err != nil {
		lib.Close()
		return Config{}, nil, err
	}

	cfg := Config{
		Renderer:  r,
		Writer:    sink.Writer{Format: format, Crop: c.Crop, Thumbnail: c.Thumbnail},
		OutputDir: c.OutputDir,
		Settings:  settings,
		Workers:   c.Workers,
		Log:       log,
	}

	if c.IndexDB != "" {
		if err := os.MkdirAll(filepath.Dir(c.IndexDB), 0755); err != nil {
			lib.Close()
			return Config{}, nil, fmt.Errorf("batch: %w", err)
		}
		ix, err := store.Open(c.IndexDB)
		if err != nil {
			lib.Close()
			return Config{}, nil, err
		}
		cfg.Index = ix
	}

	closeFn := func() {
		lib.Close()
		if cfg.Index != nil {
			cfg.Index.Close()
		}
	}
	return cfg, closeFn, nil
}

// settingsKey joins every setting that changes the output, including the
// contents of the rules and templates files.
func settingsKey(c config.Config) (string, error) {
	rulesSum, err := fingerprint(c.RulesINI)
	if err != nil {
		return "", err
	}
	templatesSum, err := fingerprint(c.TemplatesINI)
	if err != nil {
		return "", err
	}

	scales := make([]string, len(c.RadarScales))
	for i, s := range c.RadarScales {
		scales[i] = strconv.Itoa(s)
	}
	return store.Settings(
		"tile="+strconv.Itoa(c.TileSize),
		"radar="+strings.Join(scales, ","),
		"format="+c.Format,
		"thumb="+strconv.Itoa(c.Thumbnail),
		"undefined="+c.Undefined,
		"invisible="+strconv.FormatBool(c.ShowInvisible),
		"legacy="+strconv.FormatBool(c.LegacyClear),
		"shade="+strconv.FormatBool(c.ShadeBorder),
		"crop="+strconv.FormatBool(c.Crop),
		"rules="+c.RulesINI+"@"+rulesSum,
		"templates="+c.TemplatesINI+"@"+templatesSum,
		"out="+c.OutputDir,
	), nil
}

func fingerprint(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	sum, err := store.Fingerprint(path)
	if err != nil {
		return "", fmt.Errorf("batch: %w", err)
	}
	return sum, nil
}
