package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"rts-map-renderer/internal/diag"
	"rts-map-renderer/internal/mapfile"
	"rts-map-renderer/internal/render"
	"rts-map-renderer/internal/sink"
	"rts-map-renderer/internal/store"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Renderer  *render.Renderer
	Writer    sink.Writer
	OutputDir string
	Index     *store.Index // nil renders every map
	Settings  string       // store key of the output-affecting settings
	Workers   int
	Log       logrus.FieldLogger
	Progress  io.Writer // nil for stdout
}

// Result holds the outcome of processing one map.
type Result struct {
	Name     string
	Path     string
	Success  bool
	Skipped  bool
	Error    string
	Outputs  []string
	Warnings []diag.Warning
}

// Run renders all maps using a worker pool. Cancelling ctx lets renders in
// progress finish; maps not yet started fail with the context error.
func Run(ctx context.Context, cfg Config, paths []string) []Result {
	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	progress := cfg.Progress
	if progress == nil {
		progress = os.Stdout
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Fprintf(progress, "  [%d/%d] %.1f maps/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	mapChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range mapChan {
				if err := ctx.Err(); err != nil {
					results[idx] = failed(paths[idx], err)
				} else {
					results[idx] = processMap(cfg, paths[idx])
				}
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range paths {
		mapChan <- i
	}
	close(mapChan)

	wg.Wait()
	close(done)

	return results
}

// Discover lists the map files (*.ini, *.mpr) directly under dir, sorted.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".ini", ".mpr":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func mapName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func failed(path string, err error) Result {
	return Result{Name: mapName(path), Path: path, Error: err.Error()}
}

func processMap(cfg Config, path string) Result {
	var sum string
	if cfg.Index != nil {
		var err error
		if sum, err = store.Fingerprint(path); err != nil {
			return failed(path, err)
		}
		ok, err := cfg.Index.Unchanged(path, sum, cfg.Settings)
		if err != nil {
			return failed(path, err)
		}
		if ok {
			outputs, err := cfg.Index.Outputs(path)
			if err != nil {
				return failed(path, err)
			}
			return Result{Name: mapName(path), Path: path, Success: true, Skipped: true, Outputs: outputs}
		}
	}

	m, err := mapfile.Load(path)
	if err != nil {
		return failed(path, err)
	}

	rep := diag.NewReport(m.Name, cfg.Log)
	out, err := cfg.Renderer.Render(m, rep)
	if err != nil {
		return Result{Name: m.Name, Path: path, Error: err.Error(), Warnings: rep.Warnings()}
	}
	defer out.Release()

	res := Result{Name: m.Name, Path: path, Warnings: rep.Warnings()}
	ext := cfg.Writer.Ext()

	files, err := cfg.Writer.Write(filepath.Join(cfg.OutputDir, m.Name+ext), out.Full.Image, out.Full.Clip, out.Palette)
	res.Outputs = append(res.Outputs, files...)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	// Radar images are never thumbnailed
	radarWriter := cfg.Writer
	radarWriter.Thumbnail = 0
	for _, r := range out.Radars {
		name := m.Name + ".radar" + strconv.Itoa(r.Scale) + ext
		files, err := radarWriter.Write(filepath.Join(cfg.OutputDir, name), r.Image, r.Clip, out.Palette)
		res.Outputs = append(res.Outputs, files...)
		if err != nil {
			res.Error = err.Error()
			return res
		}
	}

	if cfg.Index != nil {
		if err := cfg.Index.Record(path, sum, cfg.Settings, res.Outputs); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	res.Success = true
	return res
}
