package asset

import (
	"os"
	"path/filepath"
	"strings"
)

// Index maps lowercase asset stems to filesystem paths.
// PNG files take priority over TGA for the same stem (indexed pixels).
type Index struct {
	entries  map[string]string // stem.lower() → full path
	palettes map[string]string
}

// BuildIndex scans root and its subdirectories for sprite sheets and palettes.
func BuildIndex(root string) *Index {
	idx := &Index{
		entries:  make(map[string]string),
		palettes: make(map[string]string),
	}

	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		switch ext {
		case ".pal":
			idx.palettes[stem] = path
		case ".png", ".tga":
			existing, exists := idx.entries[stem]
			if !exists {
				idx.entries[stem] = path
			} else if ext == ".png" && strings.ToLower(filepath.Ext(existing)) == ".tga" {
				// PNG wins over TGA (already indexed)
				idx.entries[stem] = path
			}
		}
		return nil
	})

	return idx
}

// ResolvePath returns the sheet path for name, preferring the theater
// variant "<name>.<ext>" when ext is given.
func (idx *Index) ResolvePath(name, ext string) (string, bool) {
	name = strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
	name = filepath.Base(name)
	if ext != "" {
		if path, ok := idx.entries[name+"."+strings.ToLower(ext)]; ok {
			return path, true
		}
	}
	path, ok := idx.entries[name]
	return path, ok
}

// PalettePath returns the path of a palette file by stem.
func (idx *Index) PalettePath(name string) (string, bool) {
	path, ok := idx.palettes[strings.ToLower(name)]
	return path, ok
}

// Add registers a path under a stem, replacing any previous entry.
func (idx *Index) Add(stem, path string) {
	idx.entries[strings.ToLower(stem)] = path
}

// Len returns the number of indexed sheets.
func (idx *Index) Len() int {
	return len(idx.entries)
}
