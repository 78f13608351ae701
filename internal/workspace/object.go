package workspace

import (
	"math"

	"printboard/pkg/geometry"
)

// ObjectID identifies a placed object for its whole lifetime.
type ObjectID uint64

// NoObject is the zero ObjectID; it never names a live object.
const NoObject ObjectID = 0

// DefaultMinSize is the smallest width or height an object may have.
const DefaultMinSize = 20.0

// FilterParams are the visual adjustments applied when an object is rendered.
type FilterParams struct {
	Contrast   float64 `json:"contrast"`
	Brightness float64 `json:"brightness"`
	Saturation float64 `json:"saturation"`
	Sharpness  float64 `json:"sharpness"`
}

// DefaultFilters are applied to newly ingested objects.
var DefaultFilters = FilterParams{Contrast: 1.05, Brightness: 1.02, Saturation: 1.05, Sharpness: 0}

// Filter bounds, inclusive.
const (
	MinContrast   = 0.5
	MaxContrast   = 2.0
	MinBrightness = 0.5
	MaxBrightness = 2.0
	MinSaturation = 0.0
	MaxSaturation = 3.0
	MinSharpness  = 0.0
	MaxSharpness  = 10.0
)

// Validate rejects non-finite values.
func (f FilterParams) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"contrast", f.Contrast},
		{"brightness", f.Brightness},
		{"saturation", f.Saturation},
		{"sharpness", f.Sharpness},
	}
	for _, fl := range fields {
		if !geometry.IsFinite(fl.v) {
			return &InvalidDimensionError{Field: fl.name, Value: fl.v, Reason: "not a number"}
		}
	}
	return nil
}

// Clamp returns f with every parameter forced into its bounds.
func (f FilterParams) Clamp() FilterParams {
	return FilterParams{
		Contrast:   geometry.Clamp(f.Contrast, MinContrast, MaxContrast),
		Brightness: geometry.Clamp(f.Brightness, MinBrightness, MaxBrightness),
		Saturation: geometry.Clamp(f.Saturation, MinSaturation, MaxSaturation),
		Sharpness:  geometry.Clamp(f.Sharpness, MinSharpness, MaxSharpness),
	}
}

// IsIdentity reports whether rendering with f leaves pixels unchanged.
func (f FilterParams) IsIdentity() bool {
	return f.Contrast == 1 && f.Brightness == 1 && f.Saturation == 1 && f.Sharpness == 0
}

// Object is a placed image. X/Y is the top-left corner of the unrotated box;
// rotation turns the box clockwise about its center.
type Object struct {
	ID       ObjectID
	X, Y     float64
	Width    float64
	Height   float64
	Rotation float64
	Filters  FilterParams
	Source   *Source
}

// Rect returns the unrotated box in workspace coordinates.
func (o *Object) Rect() geometry.Rect {
	return geometry.NewRect(o.X, o.Y, o.Width, o.Height)
}

// Center returns the visual center, which rotation does not move.
func (o *Object) Center() geometry.Point2D {
	return o.Rect().Center()
}

// Bounds returns the axis-aligned box covering the rotated object.
func (o *Object) Bounds() geometry.Rect {
	return o.Rect().RotatedBounds(o.Rotation)
}

// Contains reports whether p hits the rotated object body.
func (o *Object) Contains(p geometry.Point2D) bool {
	if o.Rotation == 0 {
		return o.Rect().Contains(p)
	}
	corners := o.Rect().Corners(o.Rotation)
	return geometry.PointInPolygon(p, corners[:])
}

// Geometry is the subset of object state mutated by gestures.
type Geometry struct {
	X, Y          float64
	Width, Height float64
	Rotation      float64
}

// Geometry captures the current geometric state.
func (o *Object) Geometry() Geometry {
	return Geometry{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height, Rotation: o.Rotation}
}

// Equal compares two geometries with a tolerance small enough to ignore
// floating point noise from inverse rotations.
func (g Geometry) Equal(other Geometry) bool {
	const eps = 1e-9
	return math.Abs(g.X-other.X) < eps && math.Abs(g.Y-other.Y) < eps &&
		math.Abs(g.Width-other.Width) < eps && math.Abs(g.Height-other.Height) < eps &&
		math.Abs(g.Rotation-other.Rotation) < eps
}
