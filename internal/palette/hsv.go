package palette

// Neutral is the control value that leaves a channel unchanged.
const Neutral = 0x80

// Controls are the fixed-point global adjustments, each 0-256.
type Controls struct {
	Brightness int
	Color      int
	Contrast   int
	Tint       int
}

// NeutralControls leaves a palette unchanged.
var NeutralControls = Controls{Neutral, Neutral, Neutral, Neutral}

// HSV holds 8-bit hue, saturation and value.
type HSV struct {
	H, S, V uint8
}

const hsvMax = 255

// ToHSV converts an 8-bit color using the integer hexagon model.
func ToHSV(r, g, b uint8) HSV {
	red, green, blue := int(r), int(g), int(b)

	value := max(red, green, blue)
	white := min(red, green, blue)

	saturation := 0
	if value != 0 {
		saturation = ((value - white) * 255) / value
	}

	hue := 0
	if saturation != 0 {
		span := value - white
		r1 := ((value - red) * 255) / span
		g1 := ((value - green) * 255) / span
		b1 := ((value - blue) * 255) / span

		var tmp int
		switch {
		case value == red && white == green:
			tmp = 5*256 + b1
		case value == red:
			tmp = 1*256 - g1
		case value == green && white == blue:
			tmp = 1*256 + r1
		case value == green:
			tmp = 3*256 - b1
		case white == red:
			tmp = 3*256 + g1
		default:
			tmp = 5*256 - r1
		}
		hue = tmp / 6
	}

	return HSV{uint8(hue), uint8(saturation), uint8(value)}
}

// RGB8 converts back to 8-bit channels. The sector index is truncated, not rounded.
func (c HSV) RGB8() (r, g, b uint8) {
	hue := int(c.H) * 6
	saturation := int(c.S)
	value := int(c.V)

	f := hue % hsvMax

	var values [7]int
	values[1] = value
	values[2] = value

	tmp := (saturation * f) / hsvMax
	values[3] = (value * (hsvMax - tmp)) / hsvMax

	values[4] = (value * (hsvMax - saturation)) / hsvMax
	values[5] = values[4]

	tmp = hsvMax - (saturation*(hsvMax-f))/hsvMax
	values[6] = (value * tmp) / hsvMax

	i := hue / hsvMax
	next := func() int {
		if i > 4 {
			i -= 4
		} else {
			i += 2
		}
		return values[i]
	}
	red := next()
	blue := next()
	green := next()

	return uint8(red), uint8(green), uint8(blue)
}

// Adjust returns a new palette with every entry except the pulse index
// transformed through HSV space. The source palette is not modified.
func Adjust(p *Palette, ctl Controls) *Palette {
	out := *p
	for i := range out {
		if i == IndexPulse {
			continue
		}
		r, g, b := p[i].To8()
		hsv := ToHSV(r, g, b)

		v := clamp(int(hsv.V)*ctl.Brightness/0x80, 0, 0xFF)
		v = clamp((v-0x80)*ctl.Contrast/0x80, -0x80, 0x7F) + 0x80
		s := clamp(int(hsv.S)*ctl.Color/0x80, 0, 0xFF)
		h := clamp(int(hsv.H)*ctl.Tint/0x80, 0, 0xFF)

		r, g, b = HSV{uint8(h), uint8(s), uint8(v)}.RGB8()
		out[i] = From8(r, g, b)
	}
	return &out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
