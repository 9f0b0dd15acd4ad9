package batch

import (
	"encoding/json"
	"os"
	"path/filepath"

	"rts-map-renderer/internal/diag"
)

// ManifestEntry represents one map in the output manifest.
type ManifestEntry struct {
	Name     string         `json:"name"`
	Map      string         `json:"map"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Images   []string       `json:"images,omitempty"`
	Warnings []diag.Warning `json:"warnings,omitempty"`
}

// Status values of a manifest entry.
const (
	StatusRendered = "rendered"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// Status summarizes a result.
func (r Result) Status() string {
	switch {
	case r.Skipped:
		return StatusSkipped
	case r.Success:
		return StatusRendered
	default:
		return StatusFailed
	}
}

// WriteManifest writes manifest.json to path. Image paths are made
// relative to the manifest's directory where possible.
func WriteManifest(path string, results []Result) error {
	base := filepath.Dir(path)
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		images := make([]string, len(r.Outputs))
		for j, o := range r.Outputs {
			if rel, err := filepath.Rel(base, o); err == nil {
				o = filepath.ToSlash(rel)
			}
			images[j] = o
		}
		entries[i] = ManifestEntry{
			Name:     r.Name,
			Map:      r.Path,
			Status:   r.Status(),
			Error:    r.Error,
			Images:   images,
			Warnings: r.Warnings,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(base, 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
