package palette

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// distinctPalette has 256 pairwise different colors.
func distinctPalette() *Palette {
	var p Palette
	for i := range p {
		p[i] = RGB{uint8(i & 63), uint8(i >> 6), uint8((i * 7) & 63)}
	}
	return &p
}

// rampPalette has a grayscale ramp so blends have predictable matches.
func rampPalette() *Palette {
	var p Palette
	for i := range p {
		v := uint8(i / 4)
		p[i] = RGB{v, v, v}
	}
	return &p
}

func TestParseRoundTrip(t *testing.T) {
	src := distinctPalette()
	p, err := Parse(src.Bytes())
	require.NoError(t, err)
	assert.Equal(t, src, p)
}

func TestParseRejectsShortData(t *testing.T) {
	_, err := Parse(make([]byte, 100))
	require.Error(t, err)
}

func TestNRGBATransparentIndex(t *testing.T) {
	p := distinctPalette()
	assert.Equal(t, uint8(0), p.NRGBA(0).A)
	c := p.NRGBA(63)
	assert.Equal(t, color.NRGBA{R: 63 * 4, G: 0, B: (63 * 7 & 63) * 4, A: 255}, c)
}

func TestFullRangeIdentity(t *testing.T) {
	p := distinctPalette()
	r := Build(p, ClosestParams())
	for i := range r {
		assert.Equal(t, byte(i), r[i], "index %d", i)
	}
	assert.True(t, r.IsIdentity())
}

func TestBuildIsDeterministic(t *testing.T) {
	p := rampPalette()
	for _, prm := range []Params{
		ShadowParams(),
		BrightenParams(0x40),
		TintParams(IndexYellow, 0x60),
		HouseParams(Range{200, 215}, 0x80),
	} {
		a := Build(p, prm)
		b := Build(p, prm)
		assert.Equal(t, a, b)
		assert.Equal(t, byte(0), a[0])
	}
}

func TestIndexZeroAlwaysFixed(t *testing.T) {
	p := rampPalette()
	prm := Params{Target: 255, Frac: 255, Remap: Full, Match: Range{200, 255}}
	r := Build(p, prm)
	assert.Equal(t, byte(0), r[0])
	for i := 1; i < 256; i++ {
		assert.GreaterOrEqual(t, int(r[i]), 200)
	}
}

func TestOutsideRemapRangeUnchanged(t *testing.T) {
	p := rampPalette()
	r := Build(p, HouseParams(Range{240, 255}, 0xFF))
	for i := 1; i < 256; i++ {
		if i >= HouseRamp.Lo && i <= HouseRamp.Hi {
			continue
		}
		assert.Equal(t, byte(i), r[i])
	}
	// 80 (gray 20) toward 240 (gray 60) lands on gray 59, first seen at 236.
	assert.Equal(t, byte(236), r[HouseRamp.Lo])
	// 95 (gray 23) toward 255 (gray 63) lands on gray 62 at 248.
	assert.Equal(t, byte(248), r[HouseRamp.Hi])
}

func TestHouseRampKeepsShading(t *testing.T) {
	p := distinctPalette()
	r := Build(p, HouseParams(Range{0xE0, 0xEF}, 0xFF))

	seen := map[byte]bool{}
	for i := HouseRamp.Lo; i <= HouseRamp.Hi; i++ {
		seen[r[i]] = true
	}
	assert.Greater(t, len(seen), 1, "house ramp collapsed onto %v", seen)

	// A short target ramp clamps at its last entry.
	short := Build(p, HouseParams(Range{0xE0, 0xE3}, 0xFF))
	assert.Equal(t, short[HouseRamp.Lo+3], short[HouseRamp.Hi])
}

func TestTieBreakPolicies(t *testing.T) {
	p := rampPalette()
	// Indices 4..7 share one gray level; remapping 5 without self-match.
	base := Params{Remap: Range{5, 5}, Match: Range{4, 7}}

	strict := Build(p, base)
	assert.Equal(t, byte(4), strict[5], "strictly-less keeps the first equal match")

	orEqual := base
	orEqual.OrEqual = true
	assert.Equal(t, byte(7), Build(p, orEqual)[5], "later equal match wins")

	self := base
	self.AllowSelf = true
	self.StopOnExact = true
	assert.Equal(t, byte(4), Build(p, self)[5], "early exit at the first exact match")

	selfOnly := Params{Remap: Range{5, 5}, Match: Range{5, 5}, SelfIfTarget: true, Target: 5}
	assert.Equal(t, byte(5), Build(p, selfOnly)[5])
}

func TestLegacyAndModernBlendDiffer(t *testing.T) {
	assert.Equal(t, uint8(30), blendChannel(60, 0, 0x80, BlendModern))
	assert.Equal(t, uint8(30), blendChannel(60, 0, 0x80, BlendLegacy))
	// Odd fractions lose their low bit in the legacy formula.
	assert.Equal(t, uint8(10), blendChannel(10, 20, 1, BlendLegacy))
	assert.Equal(t, uint8(10), blendChannel(10, 20, 1, BlendModern))
	assert.Equal(t, uint8(14), blendChannel(10, 20, 103, BlendModern))
	assert.Equal(t, uint8(13), blendChannel(10, 20, 103, BlendLegacy))
}

func TestInvalidParamsPanic(t *testing.T) {
	p := rampPalette()
	assert.Panics(t, func() { Build(p, Params{Remap: Range{10, 300}, Match: Full}) })
	assert.Panics(t, func() { Build(p, Params{Remap: Full, Match: Full, Frac: 300}) })
	assert.Panics(t, func() { Build(p, Params{Remap: Full, Match: Full, Frac: 256}) })
	assert.Panics(t, func() { Build(p, HouseParams(Range{250, 240}, 0x80)) })
	assert.NotPanics(t, func() { Build(p, Params{Remap: Full, Match: Full, Frac: 255}) })
}

func TestMatchAgainstOtherPalette(t *testing.T) {
	src := rampPalette()
	var dst Palette
	dst[1] = RGB{0, 0, 0}
	dst[2] = RGB{63, 63, 63}
	prm := ClosestParams()
	prm.Match = Range{1, 2}
	r := Match(src, &dst, prm)
	assert.Equal(t, byte(1), r[4])
	assert.Equal(t, byte(2), r[255])
}

func TestClosest(t *testing.T) {
	p := distinctPalette()
	assert.Equal(t, uint8(70), p.Closest(p[70]))
	assert.NotEqual(t, uint8(0), p.Closest(p[0]))
}

func TestRemapCacheSharesTables(t *testing.T) {
	p := rampPalette()
	c := NewRemapCache()
	a := c.Get(p, ShadowParams())
	b := c.Get(p, ShadowParams())
	assert.Same(t, a, b)
	assert.Equal(t, 1, c.Len())
}

func TestHSVRoundTripPrimaries(t *testing.T) {
	for _, c := range [][3]uint8{{252, 0, 0}, {0, 252, 0}, {0, 0, 252}, {128, 128, 128}, {0, 0, 0}} {
		r, g, b := ToHSV(c[0], c[1], c[2]).RGB8()
		assert.Equal(t, c, [3]uint8{r, g, b})
	}
}

func TestAdjustNeutralKeepsGrays(t *testing.T) {
	p := rampPalette()
	out := Adjust(p, NeutralControls)
	assert.Equal(t, p, out)
}

func TestAdjustSkipsPulseIndex(t *testing.T) {
	p := distinctPalette()
	out := Adjust(p, Controls{Brightness: 0, Color: Neutral, Contrast: Neutral, Tint: Neutral})
	assert.Equal(t, p[IndexPulse], out[IndexPulse])
	assert.Equal(t, RGB{}, out[IndexPulse+1])
	assert.NotSame(t, p, out)
}

func TestFromImageReservesTransparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 16; i++ {
		img.Pix[i*4] = 252
		img.Pix[i*4+3] = 255
	}
	p := FromImage(img)
	assert.Equal(t, RGB{}, p[0])
	assert.Equal(t, RGB{63, 0, 0}, p[1])

	pm := p.Paletted(img)
	assert.Equal(t, uint8(1), pm.Pix[0])
}

func TestSwatchLayout(t *testing.T) {
	img := Swatch(distinctPalette(), 2)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
	assert.Equal(t, uint8(0), img.ColorIndexAt(1, 1))
	assert.Equal(t, uint8(17), img.ColorIndexAt(2, 2))
	assert.Equal(t, uint8(255), img.ColorIndexAt(31, 31))
}

func TestRemapPreviewRows(t *testing.T) {
	p := rampPalette()
	shadow := Build(p, ShadowParams())
	img := RemapPreview(p, []*Remap{nil, &shadow}, 1)
	assert.Equal(t, image.Rect(0, 0, 256, 2), img.Bounds())
	assert.Equal(t, uint8(200), img.ColorIndexAt(200, 0))
	assert.Equal(t, shadow[200], img.ColorIndexAt(200, 1))
	assert.Equal(t, uint8(0), img.ColorIndexAt(0, 1))
}
