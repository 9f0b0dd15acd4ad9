package palette

import "fmt"

// Remap substitutes palette indices at draw time. Entry 0 is always 0.
type Remap [256]byte

// Identity returns a remap that maps every index to itself.
func Identity() Remap {
	var r Remap
	for i := range r {
		r[i] = byte(i)
	}
	return r
}

// IsIdentity reports whether r leaves every index unchanged.
func (r *Remap) IsIdentity() bool {
	for i, v := range r {
		if int(v) != i {
			return false
		}
	}
	return true
}

// Blend selects how the ideal color between source and target is computed.
type Blend uint8

const (
	// BlendModern computes src + (tgt-src)*frac/256.
	BlendModern Blend = iota
	// BlendLegacy halves the fraction and shifts right by 7.
	BlendLegacy
)

// Range is an inclusive span of palette indices.
type Range struct {
	Lo, Hi int
}

// Full spans the entire palette.
var Full = Range{0, 255}

// Opaque spans every index except the transparent one.
var Opaque = Range{1, 255}

func (r Range) valid() bool {
	return r.Lo >= 0 && r.Hi <= 255 && r.Lo <= r.Hi
}

// Params describes one remap table. Every remap effect is a Params value.
type Params struct {
	Target uint8 // index whose color the source is blended toward
	Frac   int   // blend fraction 0-255; 0 keeps the source color
	Blend  Blend

	// TargetRamp, when set, replaces Target per index: the n-th remapped
	// index blends toward TargetRamp.Lo+n, clamped to TargetRamp.Hi.
	TargetRamp Range

	Remap Range // indices that get rewritten
	Match Range // indices searched for the nearest color

	OrEqual      bool // equal distance replaces the current best (later match wins)
	AllowSelf    bool // an index may match itself
	SelfIfTarget bool // an index may match itself only when it is the target
	StopOnExact  bool // stop searching at the first zero distance
}

func (p Params) validate() {
	if !p.Remap.valid() || !p.Match.valid() {
		panic(fmt.Sprintf("palette: invalid remap ranges %v / %v", p.Remap, p.Match))
	}
	if p.hasTargetRamp() && (!p.TargetRamp.valid() || p.TargetRamp.Lo == IndexTransparent) {
		panic(fmt.Sprintf("palette: invalid target ramp %v", p.TargetRamp))
	}
	if p.Frac < 0 || p.Frac > 255 {
		panic(fmt.Sprintf("palette: blend fraction %d out of range", p.Frac))
	}
}

func (p Params) hasTargetRamp() bool {
	return p.TargetRamp != Range{}
}

// targetFor returns the index the i-th palette entry blends toward.
func (p Params) targetFor(i int) int {
	if !p.hasTargetRamp() {
		return int(p.Target)
	}
	t := p.TargetRamp.Lo + i - p.Remap.Lo
	if t > p.TargetRamp.Hi {
		t = p.TargetRamp.Hi
	}
	return t
}

// Build synthesizes a remap table for p. Identical inputs yield identical tables.
func Build(p *Palette, prm Params) Remap {
	return Match(p, p, prm)
}

// Match maps every remapped index of src onto its nearest color in against.
// With a zero fraction and full ranges this is the full-range nearest-color
// variant used to translate between palettes.
func Match(src, against *Palette, prm Params) Remap {
	prm.validate()
	r := Identity()
	for i := prm.Remap.Lo; i <= prm.Remap.Hi; i++ {
		if i == IndexTransparent {
			continue
		}
		ideal := blendColor(src[i], src[prm.targetFor(i)], prm.Frac, prm.Blend)
		r[i] = byte(nearest(against, ideal, i, prm))
	}
	r[IndexTransparent] = IndexTransparent
	return r
}

func nearest(p *Palette, ideal RGB, self int, prm Params) int {
	best, bestDiff := self, -1
	for j := prm.Match.Lo; j <= prm.Match.Hi; j++ {
		if j == self && !prm.AllowSelf {
			if !prm.SelfIfTarget || j != int(prm.Target) {
				continue
			}
		}
		d := distance(p[j], ideal)
		if bestDiff < 0 || d < bestDiff || (prm.OrEqual && d == bestDiff) {
			best, bestDiff = j, d
		}
		if d == 0 && prm.StopOnExact {
			break
		}
	}
	return best
}

func blendColor(src, tgt RGB, frac int, mode Blend) RGB {
	return RGB{
		blendChannel(src.R, tgt.R, frac, mode),
		blendChannel(src.G, tgt.G, frac, mode),
		blendChannel(src.B, tgt.B, frac, mode),
	}
}

func blendChannel(src, tgt uint8, frac int, mode Blend) uint8 {
	s, t := int(src), int(tgt)
	var v int
	switch mode {
	case BlendLegacy:
		v = s + ((t-s)*(frac>>1))>>7
	default:
		v = s + (t-s)*frac/256
	}
	if v < 0 {
		v = 0
	}
	if v > 63 {
		v = 63
	}
	return uint8(v)
}
