package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// NormalizeDegrees folds an angle into [0, 360). Non-finite input yields 0.
func NormalizeDegrees(deg float64) float64 {
	if !IsFinite(deg) {
		return 0
	}
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	// m+360 can round up to exactly 360 for tiny negative remainders.
	if m >= 360 {
		m = 0
	}
	return m
}

// RotateVector rotates v about the origin. Positive degrees turn clockwise
// in the y-down workspace space.
func RotateVector(v Point2D, degrees float64) Point2D {
	r := r2.Rotate(r2.Vec{X: v.X, Y: v.Y}, Radians(degrees), r2.Vec{})
	return Point2D{X: r.X, Y: r.Y}
}

// RotateAround rotates p about center.
func RotateAround(p, center Point2D, degrees float64) Point2D {
	r := r2.Rotate(r2.Vec{X: p.X, Y: p.Y}, Radians(degrees), r2.Vec{X: center.X, Y: center.Y})
	return Point2D{X: r.X, Y: r.Y}
}

// AngleTo returns the angle in radians of the ray from center to p.
func AngleTo(center, p Point2D) float64 {
	return math.Atan2(p.Y-center.Y, p.X-center.X)
}

// Corners returns the four corners of r rotated about its center, clockwise
// starting from the top-left corner.
func (r Rect) Corners(degrees float64) [4]Point2D {
	c := r.Center()
	pts := [4]Point2D{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
	if degrees == 0 {
		return pts
	}
	for i := range pts {
		pts[i] = RotateAround(pts[i], c, degrees)
	}
	return pts
}

// RotatedBounds returns the axis-aligned box covering r rotated about its center.
func (r Rect) RotatedBounds(degrees float64) Rect {
	pts := r.Corners(degrees)
	return BoundingBox(pts[:])
}

// ToLocal maps a workspace point into the unrotated frame of r, whose origin
// is r's top-left corner.
func (r Rect) ToLocal(p Point2D, degrees float64) Point2D {
	q := RotateAround(p, r.Center(), -degrees)
	return Point2D{X: q.X - r.X, Y: q.Y - r.Y}
}
