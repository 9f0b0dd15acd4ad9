package rules

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Source answers rule lookups by section (type id) and key.
type Source interface {
	Value(section, key string) (string, bool)
}

// IniSource serves rule values from a parsed INI document.
type IniSource struct {
	file *ini.File
}

// LoadOptions are the INI parse options shared by rule and map files.
var LoadOptions = ini.LoadOptions{
	Insensitive:             true,
	SkipUnrecognizableLines: true,
	AllowShadows:            false,
	IgnoreInlineComment:     false,
	AllowBooleanKeys:        true,
}

// NewIniSource wraps an already-parsed INI document.
func NewIniSource(f *ini.File) *IniSource {
	return &IniSource{file: f}
}

// LoadIni parses one or more INI files, later files overriding earlier ones.
func LoadIni(paths ...string) (*IniSource, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("rules: no ini files given")
	}
	sources := make([]interface{}, len(paths)-1)
	for i, p := range paths[1:] {
		sources[i] = p
	}
	f, err := ini.LoadSources(LoadOptions, paths[0], sources...)
	if err != nil {
		return nil, fmt.Errorf("rules: load %s: %w", strings.Join(paths, ", "), err)
	}
	return &IniSource{file: f}, nil
}

// Value implements Source.
func (s *IniSource) Value(section, key string) (string, bool) {
	if s == nil || s.file == nil {
		return "", false
	}
	sec, err := s.file.GetSection(section)
	if err != nil || sec == nil {
		return "", false
	}
	if !sec.HasKey(key) {
		return "", false
	}
	k, err := sec.GetKey(key)
	if err != nil || k == nil {
		return "", false
	}
	return strings.TrimSpace(k.Value()), true
}

// HasSection reports whether the document defines the type id.
func (s *IniSource) HasSection(section string) bool {
	if s == nil || s.file == nil {
		return false
	}
	_, err := s.file.GetSection(section)
	return err == nil
}

// parseBool accepts the yes/no spellings used by the game's rule files.
func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1", "on":
		return true, nil
	case "no", "n", "false", "0", "off":
		return false, nil
	}
	return false, fmt.Errorf("rules: invalid boolean %q", v)
}

// parseInt reads the leading integer of a rule value. Trailing text after a
// comma or semicolon is ignored the way the game's own parser ignores it.
func parseInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, ",;"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("rules: invalid number %q: %w", v, err)
	}
	return n, nil
}
