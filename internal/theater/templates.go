package theater

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"rts-map-renderer/internal/ground"
	"rts-map-renderer/internal/rules"
)

// Template is a ground tile-set. Icons index its frames.
type Template struct {
	ID       uint16
	Name     string
	Theaters []string // empty means every theater
}

// In reports whether the template exists in the named theater.
func (t Template) In(theater string) bool {
	if len(t.Theaters) == 0 {
		return true
	}
	for _, n := range t.Theaters {
		if strings.EqualFold(n, theater) {
			return true
		}
	}
	return false
}

// Templates maps template ids to tile-sets.
type Templates struct {
	byID map[uint16]Template
}

var outdoor = []string{"temperate", "snow", "desert"}

func builtinTemplates() []Template {
	out := []Template{
		{ID: ground.ClearTemplate, Name: "clear1"},
		{ID: 1, Name: "w1", Theaters: outdoor},
		{ID: 2, Name: "w2", Theaters: outdoor},
	}
	out = append(out, series("sh%02d", 3, 1, 56, outdoor)...)
	out = append(out, series("wc%02d", 59, 1, 38, outdoor)...)
	out = append(out, series("b%d", 97, 1, 3, outdoor)...)
	out = append(out, series("p%02d", 112, 1, 4, outdoor)...)
	out = append(out, series("rv%02d", 135, 1, 4, outdoor)...)
	out = append(out, series("d%02d", 173, 1, 4, outdoor)...)
	out = append(out, series("rf%02d", 227, 1, 2, outdoor)...)
	out = append(out, series("flor%04d", 268, 1, 4, indoor)...)
	out = append(out, series("wall%04d", 288, 1, 4, indoor)...)
	out = append(out, series("s%02d", 401, 1, 3, outdoor)...)
	return out
}

var indoor = []string{"interior"}

// series numbers a run of templates named by format from first..last.
func series(format string, id uint16, first, last int, theaters []string) []Template {
	out := make([]Template, 0, last-first+1)
	for n := first; n <= last; n++ {
		out = append(out, Template{ID: id, Name: fmt.Sprintf(format, n), Theaters: theaters})
		id++
	}
	return out
}

// NewTemplates returns the built-in template table.
func NewTemplates() *Templates {
	t := &Templates{byID: make(map[uint16]Template)}
	for _, tpl := range builtinTemplates() {
		t.byID[tpl.ID] = tpl
	}
	return t
}

// LoadTemplates returns the built-in table extended by an INI file with a
// [Templates] section of "id=name[,theater|theater...]" lines.
func LoadTemplates(path string) (*Templates, error) {
	t := NewTemplates()
	if path == "" {
		return t, nil
	}
	f, err := ini.LoadSources(rules.LoadOptions, path)
	if err != nil {
		return nil, fmt.Errorf("theater: load %s: %w", path, err)
	}
	if err := t.Merge(f); err != nil {
		return nil, fmt.Errorf("theater: %s: %w", path, err)
	}
	return t, nil
}

// Merge adds or replaces templates from the [Templates] section of f.
func (t *Templates) Merge(f *ini.File) error {
	sec, err := f.GetSection("Templates")
	if err != nil {
		return nil
	}
	for _, k := range sec.Keys() {
		id, err := strconv.ParseUint(strings.TrimSpace(k.Name()), 0, 16)
		if err != nil {
			return fmt.Errorf("template id %q: %w", k.Name(), err)
		}
		name, list, _ := strings.Cut(k.Value(), ",")
		tpl := Template{ID: uint16(id), Name: strings.ToLower(strings.TrimSpace(name))}
		if tpl.Name == "" {
			return fmt.Errorf("template %d: empty name", id)
		}
		for _, th := range strings.Split(list, "|") {
			if th = strings.ToLower(strings.TrimSpace(th)); th != "" {
				tpl.Theaters = append(tpl.Theaters, th)
			}
		}
		t.byID[tpl.ID] = tpl
	}
	return nil
}

// Lookup returns the template for id if it exists in the theater.
func (t *Templates) Lookup(id uint16, theater string) (Template, bool) {
	tpl, ok := t.byID[id]
	if !ok || !tpl.In(theater) {
		return Template{}, false
	}
	return tpl, true
}

// Len returns the number of known templates.
func (t *Templates) Len() int { return len(t.byID) }
