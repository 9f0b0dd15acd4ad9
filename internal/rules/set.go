package rules

import (
	"sort"
	"strings"
	"sync"
)

// Set is the process-wide rule table: built-in types overridden by an
// optional global rule source. Resolved types are cached and immutable.
type Set struct {
	builtin map[string]*Type
	global  Source

	mu    sync.RWMutex
	cache map[string]*Type
}

// NewSet builds the table. global may be nil.
func NewSet(global Source) *Set {
	s := &Set{
		builtin: make(map[string]*Type),
		global:  global,
		cache:   make(map[string]*Type),
	}
	for _, t := range builtinTypes() {
		s.builtin[t.Name] = t
	}
	return s
}

// Lookup returns the globally resolved type for a type id.
func (s *Set) Lookup(name string) (*Type, bool) {
	name = normalizeName(name)

	// Fast path: read lock
	s.mu.RLock()
	if t, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return t, t != nil
	}
	s.mu.RUnlock()

	var t *Type
	if base, ok := s.builtin[name]; ok {
		t = override(base, name, s.global)
	}

	// Write lock with double-check
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[name]; ok {
		return existing, existing != nil
	}
	s.cache[name] = t
	return t, t != nil
}

// Names lists every built-in type id in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.builtin))
	for n := range s.builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolver performs the two-tier lookup for one map: map-local overrides
// first, then the global Set. Its cache is not synchronized; use one
// Resolver per worker.
type Resolver struct {
	set   *Set
	local Source
	cache map[string]*Type
}

// NewResolver returns a map-scoped resolver. local may be nil.
func (s *Set) NewResolver(local Source) *Resolver {
	return &Resolver{set: s, local: local, cache: make(map[string]*Type)}
}

// Lookup returns the type for name with map-local overrides applied.
func (r *Resolver) Lookup(name string) (*Type, bool) {
	name = normalizeName(name)
	if t, ok := r.cache[name]; ok {
		return t, t != nil
	}
	t, ok := r.set.Lookup(name)
	if ok && r.local != nil {
		t = override(t, name, r.local)
	}
	r.cache[name] = t
	return t, t != nil
}

// Invisible resolves the per-type invisibility rule.
func (r *Resolver) Invisible(name string) bool {
	t, ok := r.Lookup(name)
	return ok && t.Invisible
}

// override applies rule keys from src to base. base is returned unchanged
// when src has nothing for the type. Unparseable values are ignored.
func override(base *Type, section string, src Source) *Type {
	if src == nil {
		return base
	}
	var t *Type
	edit := func() *Type {
		if t == nil {
			t = base.Clone()
		}
		return t
	}

	if v, ok := src.Value(section, "Strength"); ok {
		if n, err := parseInt(v); err == nil && n > 0 {
			edit().Strength = n
		}
	}
	if v, ok := src.Value(section, "Storage"); ok {
		if n, err := parseInt(v); err == nil && n >= 0 {
			edit().Storage = n
		}
	}
	if v, ok := src.Value(section, "Invisible"); ok {
		if b, err := parseBool(v); err == nil {
			edit().Invisible = b
		}
	}
	if v, ok := src.Value(section, "Bib"); ok {
		if b, err := parseBool(v); err == nil {
			edit().Bib = b
		}
	}
	if v, ok := src.Value(section, "Image"); ok && v != "" {
		edit().Image = strings.ToLower(v)
	}
	if v, ok := src.Value(section, "RadarColor"); ok {
		if n, err := parseInt(v); err == nil && n >= NoRadarColor && n < 256 {
			edit().RadarColor = n
		}
	}

	if t == nil {
		return base
	}
	return t
}
