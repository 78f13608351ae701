package geometry

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalizeDegrees(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{720, 0},
		{-90, 270},
		{-450, 270},
		{-1e-15, 0},
		{359.5, 359.5},
		{math.NaN(), 0},
		{math.Inf(-1), 0},
	}
	for _, c := range cases {
		got := NormalizeDegrees(c.in)
		if got < 0 || got >= 360 {
			t.Fatalf("NormalizeDegrees(%v) = %v, out of [0,360)", c.in, got)
		}
		if !almostEqual(got, c.want) {
			t.Errorf("NormalizeDegrees(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestRotateVector(t *testing.T) {
	cases := []struct {
		name string
		in   Point2D
		deg  float64
		want Point2D
	}{
		{"zero", Point2D{X: 1, Y: 0}, 0, Point2D{X: 1, Y: 0}},
		{"quarter_clockwise", Point2D{X: 1, Y: 0}, 90, Point2D{X: 0, Y: 1}},
		{"half", Point2D{X: 1, Y: 2}, 180, Point2D{X: -1, Y: -2}},
		{"inverse_quarter", Point2D{X: 0, Y: 1}, -90, Point2D{X: 1, Y: 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := RotateVector(c.in, c.deg)
			if !almostEqual(got.X, c.want.X) || !almostEqual(got.Y, c.want.Y) {
				t.Fatalf("RotateVector(%v, %v) = %v, want %v", c.in, c.deg, got, c.want)
			}
		})
	}
}

func TestRotatedBoundsQuarterTurn(t *testing.T) {
	r := NewRect(0, 0, 200, 100)
	b := r.RotatedBounds(90)
	if !almostEqual(b.Width, 100) || !almostEqual(b.Height, 200) {
		t.Fatalf("rotated bounds = %+v, want 100x200", b)
	}
	c := b.Center()
	if !almostEqual(c.X, 100) || !almostEqual(c.Y, 50) {
		t.Fatalf("rotated bounds center moved: %+v", c)
	}
}

func TestToLocalRoundTrip(t *testing.T) {
	r := NewRect(10, 20, 80, 40)
	local := Point2D{X: 70, Y: 5}
	world := RotateAround(Point2D{X: r.X + local.X, Y: r.Y + local.Y}, r.Center(), 33)
	back := r.ToLocal(world, 33)
	if !almostEqual(back.X, local.X) || !almostEqual(back.Y, local.Y) {
		t.Fatalf("ToLocal = %+v, want %+v", back, local)
	}
}

func TestClampInside(t *testing.T) {
	bounds := NewRect(0, 0, 100, 50)
	cases := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside", NewRect(10, 10, 20, 20), NewRect(10, 10, 20, 20)},
		{"negative_origin", NewRect(-5, -5, 20, 20), NewRect(0, 0, 20, 20)},
		{"past_far_edge", NewRect(90, 40, 20, 20), NewRect(80, 30, 20, 20)},
		{"too_large", NewRect(10, 10, 200, 80), NewRect(0, 0, 100, 50)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.in.ClampInside(bounds)
			if got != c.want {
				t.Fatalf("ClampInside(%+v) = %+v, want %+v", c.in, got, c.want)
			}
			if !bounds.ContainsRect(got) {
				t.Fatalf("result %+v escapes bounds", got)
			}
		})
	}
}

func TestPointInPolygon(t *testing.T) {
	quad := NewRect(0, 0, 100, 100).Corners(45)
	if !PointInPolygon(Point2D{X: 50, Y: 50}, quad[:]) {
		t.Error("center should be inside rotated square")
	}
	if PointInPolygon(Point2D{X: 1, Y: 1}, quad[:]) {
		t.Error("original corner should be outside square rotated by 45 degrees")
	}
}

func TestAffineCompose(t *testing.T) {
	tr := Translation(5, 7).Compose(Scale(2, 3))
	if got := tr.Apply(Point2D{X: 1, Y: 1}); !almostEqual(got.X, 7) || !almostEqual(got.Y, 10) {
		t.Errorf("scale then translate = %+v, want (7,10)", got)
	}
	quarter := Rotation(Radians(90)).Apply(Point2D{X: 1, Y: 0})
	if !almostEqual(quarter.X, 0) || !almostEqual(quarter.Y, 1) {
		t.Errorf("quarter turn of (1,0) = %+v, want (0,1)", quarter)
	}
}
