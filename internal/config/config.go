package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MAPRENDER_WORKERS.
const EnvPrefix = "MAPRENDER"

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	AssetDir     string `mapstructure:"asset_dir"`
	MapDir       string `mapstructure:"map_dir"`
	RulesINI     string `mapstructure:"rules_ini"`
	TemplatesINI string `mapstructure:"templates_ini"`
	OutputDir    string `mapstructure:"output_dir"`
	IndexDB      string `mapstructure:"index_db"`
	LogFile      string `mapstructure:"log_file"`
	LogLevel     string `mapstructure:"log_level"`
	LogMaxMB     int    `mapstructure:"log_max_mb"`

	// Render settings
	TileSize      int    `mapstructure:"tile_size"`
	RadarScales   []int  `mapstructure:"radar_scales"`
	Format        string `mapstructure:"format"`
	Thumbnail     int    `mapstructure:"thumbnail"`
	Undefined     string `mapstructure:"undefined"`
	ShowInvisible bool   `mapstructure:"show_invisible"`
	LegacyClear   bool   `mapstructure:"legacy_clear"`
	ShadeBorder   bool   `mapstructure:"shade_border"`
	Crop          bool   `mapstructure:"crop"`
	CacheMB       int    `mapstructure:"cache_mb"`
	Workers       int    `mapstructure:"workers"`
	NoIndex       bool   `mapstructure:"no_index"`
}

var keys = []string{
	"asset_dir", "map_dir", "rules_ini", "templates_ini", "output_dir", "index_db",
	"log_file", "log_level", "log_max_mb",
	"tile_size", "radar_scales", "format", "thumbnail", "undefined", "show_invisible",
	"legacy_clear", "shade_border", "crop", "cache_mb", "workers", "no_index",
}

// Load reads an optional config file (JSON, YAML or TOML by extension),
// then applies a .env file in the working directory and MAPRENDER_*
// environment overrides. An empty path reads the environment only.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: .env: %w", err)
	}

	v := viper.New()
	for _, k := range keys {
		v.SetDefault(k, nil)
	}
	v.SetDefault("crop", true)
	v.SetDefault("shade_border", true)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.AssetDir != "" {
		c.AssetDir = flags.AssetDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if len(flags.RadarScales) > 0 {
		c.RadarScales = flags.RadarScales
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Placeholders {
		c.Undefined = "placeholder"
	}

	if c.AssetDir == "" {
		c.AssetDir = "assets"
	}
	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}

	// Resolve relative paths against the asset dir
	if c.RulesINI == "" {
		c.RulesINI = existing(filepath.Join(c.AssetDir, "rules.ini"))
	} else if !filepath.IsAbs(c.RulesINI) {
		c.RulesINI = filepath.Join(c.AssetDir, c.RulesINI)
	}
	if c.TemplatesINI == "" {
		c.TemplatesINI = existing(filepath.Join(c.AssetDir, "templates.ini"))
	} else if !filepath.IsAbs(c.TemplatesINI) {
		c.TemplatesINI = filepath.Join(c.AssetDir, c.TemplatesINI)
	}
	if c.IndexDB == "" && !c.NoIndex {
		c.IndexDB = filepath.Join(c.OutputDir, "renders.db")
	}

	// Defaults for render settings
	if c.TileSize <= 0 {
		c.TileSize = 24
	}
	if len(c.RadarScales) == 0 {
		c.RadarScales = []int{2}
	}
	c.Format = strings.ToLower(c.Format)
	if c.Format == "" {
		c.Format = "png"
	}
	c.Undefined = strings.ToLower(c.Undefined)
	if c.Undefined == "" {
		c.Undefined = "omit"
	}
	if c.CacheMB <= 0 {
		c.CacheMB = 256
	}
	if c.LogMaxMB <= 0 {
		c.LogMaxMB = 20
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate reports settings Resolve cannot repair.
func (c *Config) Validate() error {
	switch c.Format {
	case "png", "webp":
	default:
		return fmt.Errorf("config: unknown format %q (png, webp)", c.Format)
	}
	switch c.Undefined {
	case "omit", "placeholder":
	default:
		return fmt.Errorf("config: unknown undefined policy %q (omit, placeholder)", c.Undefined)
	}
	for _, s := range c.RadarScales {
		if s <= 0 || s > c.TileSize {
			return fmt.Errorf("config: radar scale %d outside 1..%d", s, c.TileSize)
		}
	}
	return nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	AssetDir     string
	OutputDir    string
	Format       string
	RadarScales  []int
	Workers      int
	Placeholders bool
}

func existing(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
