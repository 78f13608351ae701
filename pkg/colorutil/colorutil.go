// Package colorutil provides shared color utilities for the board renderer.
package colorutil

import (
	"image/color"
	"math"
)

// Common overlay colors used throughout the application.
var (
	Black       = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Selection   = color.RGBA{R: 0x66, G: 0x7e, B: 0xea, A: 255}
	Handle      = color.RGBA{R: 0x76, G: 0x4b, B: 0xa2, A: 255}
	CropShade   = color.RGBA{R: 0, G: 0, B: 0, A: 128}
	CropOutline = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// RGBToHSV converts RGB (0-1) to HSV with H in degrees [0, 360) and S, V in [0, 1].
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC

	if maxC == 0 {
		s = 0
	} else {
		s = diff / maxC
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}

	if h < 0 {
		h += 360
	}

	return h, s, v
}

// HSVToRGB converts HSV (H in degrees, S and V in 0-1) back to RGB (0-1).
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	c := v * s
	hp := math.Mod(h, 360) / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	m := v - c

	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return r + m, g + m, b + m
}

// Unit clamps v into [0, 1].
func Unit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ToByte converts a 0-1 channel value to 0-255 with rounding and clamping.
func ToByte(v float64) uint8 {
	return uint8(math.Round(Unit(v) * 255))
}
