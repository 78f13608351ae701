package colorutil

import (
	"math"
	"testing"
)

func TestHSVRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		r, g, b float64
	}{
		{"red", 1, 0, 0},
		{"green", 0, 1, 0},
		{"blue", 0, 0, 1},
		{"grey", 0.5, 0.5, 0.5},
		{"mixed", 0.2, 0.7, 0.4},
		{"magenta_ish", 0.9, 0.1, 0.8},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h, s, v := RGBToHSV(c.r, c.g, c.b)
			r, g, b := HSVToRGB(h, s, v)
			if math.Abs(r-c.r) > 1e-9 || math.Abs(g-c.g) > 1e-9 || math.Abs(b-c.b) > 1e-9 {
				t.Fatalf("round trip = (%v,%v,%v), want (%v,%v,%v)", r, g, b, c.r, c.g, c.b)
			}
		})
	}
}

func TestToByte(t *testing.T) {
	if got := ToByte(-0.5); got != 0 {
		t.Errorf("ToByte(-0.5) = %d", got)
	}
	if got := ToByte(2); got != 255 {
		t.Errorf("ToByte(2) = %d", got)
	}
	if got := ToByte(0.5); got != 128 {
		t.Errorf("ToByte(0.5) = %d", got)
	}
}
