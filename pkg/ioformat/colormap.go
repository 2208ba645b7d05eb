package ioformat

import (
	"fmt"
	"image/color"
	"math"
)

// divergingColor maps v, relative to the symmetric range [-span, span]
// (span = max(|lo|, |hi|)), to a blue(backward)/white(zero)/red(forward)
// diverging color. Shared by the SVG and PNG plane renderers so both exports
// agree on what "forward" and "backward" look like.
func divergingColor(v, lo, hi float64) color.RGBA {
	span := math.Max(math.Abs(lo), math.Abs(hi))
	if span == 0 {
		return color.RGBA{255, 255, 255, 255}
	}
	t := clampFloat(v/span, -1, 1)
	if t >= 0 {
		return lerpColor(color.RGBA{255, 255, 255, 255}, color.RGBA{220, 30, 30, 255}, t)
	}
	return lerpColor(color.RGBA{255, 255, 255, 255}, color.RGBA{30, 60, 220, 255}, -t)
}

func divergingHexColor(v, lo, hi float64) string {
	c := divergingColor(v, lo, hi)
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	l := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{l(a.R, b.R), l(a.G, b.G), l(a.B, b.B), 255}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
