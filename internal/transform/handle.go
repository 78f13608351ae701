package transform

import (
	"printboard/pkg/geometry"
)

// Handle names one of the eight resize grips of a box.
type Handle int

const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
)

// Handles lists every resize grip, corners first.
var Handles = []Handle{
	HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft,
	HandleTop, HandleRight, HandleBottom, HandleLeft,
}

// CornerHandles lists the four corner grips.
var CornerHandles = Handles[:4]

func (h Handle) String() string {
	switch h {
	case HandleTopLeft:
		return "top-left"
	case HandleTop:
		return "top"
	case HandleTopRight:
		return "top-right"
	case HandleRight:
		return "right"
	case HandleBottomRight:
		return "bottom-right"
	case HandleBottom:
		return "bottom"
	case HandleBottomLeft:
		return "bottom-left"
	case HandleLeft:
		return "left"
	default:
		return "none"
	}
}

// edges reports which edges a handle drags: -1 the left/top edge, +1 the
// right/bottom edge, 0 neither.
func (h Handle) edges() (sx, sy float64) {
	switch h {
	case HandleTopLeft:
		return -1, -1
	case HandleTop:
		return 0, -1
	case HandleTopRight:
		return 1, -1
	case HandleRight:
		return 1, 0
	case HandleBottomRight:
		return 1, 1
	case HandleBottom:
		return 0, 1
	case HandleBottomLeft:
		return -1, 1
	case HandleLeft:
		return -1, 0
	default:
		return 0, 0
	}
}

// IsCorner reports whether h constrains both axes.
func (h Handle) IsCorner() bool {
	sx, sy := h.edges()
	return sx != 0 && sy != 0
}

// LocalPosition returns the grip location in the unrotated frame of a box of
// the given size, origin at its top-left corner.
func (h Handle) LocalPosition(size geometry.Size) geometry.Point2D {
	sx, sy := h.edges()
	return geometry.Point2D{
		X: size.Width * (sx + 1) / 2,
		Y: size.Height * (sy + 1) / 2,
	}
}

// ResizeOptions controls ResizeRect.
type ResizeOptions struct {
	// Lock keeps the width:height ratio fixed.
	Lock bool
	// Ratio is the locked width/height ratio; zero means the start ratio.
	Ratio float64
	// MinSize is the smallest allowed width and height.
	MinSize float64
}

// ResizeRect applies a handle drag to start. delta is the pointer movement in
// workspace axes; rotation is the box rotation in degrees. The delta is turned
// into the box's local axes by the inverse rotation, so every angle behaves
// the same way. Edges opposite the dragged handle stay fixed in workspace
// space, and the minimum size is enforced by limiting the delta.
func ResizeRect(start geometry.Rect, rotation float64, h Handle, delta geometry.Point2D, opts ResizeOptions) geometry.Rect {
	sx, sy := h.edges()
	if (sx == 0 && sy == 0) || !delta.IsFinite() {
		return start
	}
	if rotation != 0 {
		delta = geometry.RotateVector(delta, -rotation)
	}

	w, ht := start.Width, start.Height
	minSize := opts.MinSize
	gx, gy := sx*delta.X, sy*delta.Y

	var newW, newH float64
	if opts.Lock {
		ratio := opts.Ratio
		if ratio <= 0 {
			ratio = w / ht
		}
		switch {
		case sx != 0 && sy != 0:
			newW = w + max(gx, gy)
			newH = newW / ratio
		case sx != 0:
			newW = w + gx
			newH = newW / ratio
		default:
			newH = ht + gy
			newW = newH * ratio
		}
		if low := max(minSize, minSize*ratio); newW < low {
			newW = low
			newH = newW / ratio
		}
	} else {
		newW, newH = w, ht
		if sx != 0 {
			newW = max(minSize, w+gx)
		}
		if sy != 0 {
			newH = max(minSize, ht+gy)
		}
	}

	left, right := edgeShift(sx, newW-w)
	top, bottom := edgeShift(sy, newH-ht)

	shift := geometry.Point2D{X: (left + right) / 2, Y: (top + bottom) / 2}
	if rotation != 0 {
		shift = geometry.RotateVector(shift, rotation)
	}
	center := start.Center().Add(shift)
	return geometry.NewRect(center.X-newW/2, center.Y-newH/2, newW, newH)
}

// edgeShift distributes a size change over the two edges of one axis.
func edgeShift(s, grow float64) (near, far float64) {
	switch {
	case s < 0:
		return -grow, 0
	case s > 0:
		return 0, grow
	default:
		return -grow / 2, grow / 2
	}
}
