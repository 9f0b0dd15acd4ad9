package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

func iniSource(t *testing.T, text string) *IniSource {
	t.Helper()
	f, err := ini.LoadSources(LoadOptions, []byte(text))
	require.NoError(t, err)
	return NewIniSource(f)
}

func TestBuiltinLookup(t *testing.T) {
	s := NewSet(nil)
	fact, ok := s.Lookup("fact")
	require.True(t, ok)
	assert.Equal(t, KindStructure, fact.Kind)
	assert.Equal(t, 1000, fact.Strength)
	assert.True(t, fact.Bib)
	assert.Len(t, fact.Occupy, 9)
	assert.Equal(t, "fact", fact.Image)

	_, ok = s.Lookup("NOPE")
	assert.False(t, ok)
}

func TestFakeStructuresUseRealImage(t *testing.T) {
	s := NewSet(nil)
	f, ok := s.Lookup("WEAF")
	require.True(t, ok)
	assert.True(t, f.Fake)
	assert.Equal(t, "weap", f.Image)
}

func TestGlobalOverride(t *testing.T) {
	s := NewSet(iniSource(t, "[POWR]\nStrength=250\nInvisible=yes\n"))
	powr, ok := s.Lookup("POWR")
	require.True(t, ok)
	assert.Equal(t, 250, powr.Strength)
	assert.True(t, powr.Invisible)

	again, _ := s.Lookup("POWR")
	assert.Same(t, powr, again)
}

func TestLocalOverridesGlobal(t *testing.T) {
	s := NewSet(iniSource(t, "[POWR]\nStrength=250\n"))
	r := s.NewResolver(iniSource(t, "[powr]\nStrength=100\n[MINP]\nInvisible=no\n"))

	powr, ok := r.Lookup("POWR")
	require.True(t, ok)
	assert.Equal(t, 100, powr.Strength)
	assert.False(t, r.Invisible("MINP"))

	// The shared table is untouched by map-local values.
	global, _ := s.Lookup("POWR")
	assert.Equal(t, 250, global.Strength)
	mine, _ := s.Lookup("MINP")
	assert.True(t, mine.Invisible)
}

func TestBadOverrideIgnored(t *testing.T) {
	s := NewSet(iniSource(t, "[SILO]\nStrength=lots\nStorage=900 ; comment\n"))
	silo, ok := s.Lookup("SILO")
	require.True(t, ok)
	assert.Equal(t, 300, silo.Strength)
	assert.Equal(t, 900, silo.Storage)
}

func TestOverlayIDs(t *testing.T) {
	name, ok := OverlayName(5)
	require.True(t, ok)
	assert.Equal(t, "GOLD01", name)
	id, ok := OverlayID("fenc")
	require.True(t, ok)
	assert.Equal(t, byte(23), id)
	_, ok = OverlayName(0xFF)
	assert.False(t, ok)
}

func TestEveryOverlayIDHasType(t *testing.T) {
	s := NewSet(nil)
	for _, name := range overlayIDs {
		ty, ok := s.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, KindOverlay, ty.Kind, name)
	}
}

func TestBibFor(t *testing.T) {
	assert.Equal(t, "BIB1", BibFor(4))
	assert.Equal(t, "BIB2", BibFor(3))
	assert.Equal(t, "BIB3", BibFor(2))
}
