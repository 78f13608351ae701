package canvas

import (
	"image"
	"image/color"
	"math"

	"printboard/internal/app"
	"printboard/internal/workspace"
	"printboard/pkg/geometry"
)

// drawSelection outlines the selected object and paints its grips.
func drawSelection(output *image.RGBA, o workspace.Object, spots []app.HandleSpot, rot geometry.Point2D, scale, radius float64) {
	corners := o.Rect().Corners(o.Rotation)
	drawPolygon(output, corners[:], scale, outlineColor, 2)

	// Stem from the top edge to the rotate grip.
	top := geometry.RotateAround(geometry.Point2D{X: o.X + o.Width/2, Y: o.Y}, o.Center(), o.Rotation)
	drawLine(output, px(top.X, scale), px(top.Y, scale), px(rot.X, scale), px(rot.Y, scale), outlineColor, 1)
	drawCircle(output, rot.X*scale, rot.Y*scale, radius*scale*0.6, outlineColor, handleFill)

	half := int(math.Max(3, radius*scale*0.5))
	for _, s := range spots {
		drawHandle(output, px(s.Pos.X, scale), px(s.Pos.Y, scale), half)
	}
}

// drawCrop dims everything of the target outside the crop region and
// outlines the region with its grips.
func drawCrop(output *image.RGBA, o workspace.Object, view app.CropView, scale float64) {
	region := geometry.NewRect(o.X+view.Region.X, o.Y+view.Region.Y, view.Region.Width, view.Region.Height)
	rc := geometry.RotateAround(region.Center(), o.Center(), o.Rotation)
	// Rotating the region about the object center equals rotating it
	// about its own, moved center.
	region.X, region.Y = rc.X-region.Width/2, rc.Y-region.Height/2

	outer := o.Rect().Corners(o.Rotation)
	inner := region.Corners(o.Rotation)
	shade(output, scaled(outer[:], scale), scaled(inner[:], scale))

	col := outlineColor
	if view.Pending {
		col = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	}
	drawPolygon(output, inner[:], scale, col, 2)
	if view.Pending {
		return
	}
	for _, c := range inner {
		drawHandle(output, px(c.X, scale), px(c.Y, scale), 4)
	}
	for i := range inner {
		a, b := inner[i], inner[(i+1)%len(inner)]
		drawHandle(output, px((a.X+b.X)/2, scale), px((a.Y+b.Y)/2, scale), 3)
	}
}

func scaled(pts []geometry.Point2D, scale float64) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[i] = p.Scale(scale)
	}
	return out
}

func px(v, scale float64) int {
	return int(math.Round(v * scale))
}

// shade darkens pixels inside outer but outside inner.
func shade(output *image.RGBA, outer, inner []geometry.Point2D) {
	box := geometry.BoundingBox(outer)
	r := image.Rect(int(box.X), int(box.Y), int(math.Ceil(box.X+box.Width)), int(math.Ceil(box.Y+box.Height))).
		Intersect(output.Bounds())
	a := uint32(app.CropShadeColor.A)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p := geometry.Point2D{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if !geometry.PointInPolygon(p, outer) || geometry.PointInPolygon(p, inner) {
				continue
			}
			i := output.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				output.Pix[i+c] = uint8(uint32(output.Pix[i+c]) * (255 - a) / 255)
			}
		}
	}
}

// drawPolygon outlines a closed polygon given in board units.
func drawPolygon(output *image.RGBA, pts []geometry.Point2D, scale float64, col color.RGBA, thickness int) {
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		drawLine(output, px(a.X, scale), px(a.Y, scale), px(b.X, scale), px(b.Y, scale), col, thickness)
	}
}

// drawHandle paints a square grip centered on (cx, cy).
func drawHandle(output *image.RGBA, cx, cy, half int) {
	bounds := output.Bounds()
	for y := cy - half; y <= cy+half; y++ {
		for x := cx - half; x <= cx+half; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			if x == cx-half || x == cx+half || y == cy-half || y == cy+half {
				output.SetRGBA(x, y, outlineColor)
			} else {
				output.SetRGBA(x, y, handleFill)
			}
		}
	}
}

// drawCircle paints a filled circle with a 2 pixel ring.
func drawCircle(output *image.RGBA, cx, cy, r float64, ring, fill color.RGBA) {
	bounds := output.Bounds()

	minX := int(cx - r - 1)
	maxX := int(cx + r + 1)
	minY := int(cy - r - 1)
	maxY := int(cy + r + 1)

	r2 := r * r
	innerR2 := (r - 2) * (r - 2)

	for y := minY; y <= maxY; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x) - cx
			dy := float64(y) - cy
			dist2 := dx*dx + dy*dy
			switch {
			case dist2 > r2:
			case dist2 >= innerR2:
				output.SetRGBA(x, y, ring)
			default:
				output.SetRGBA(x, y, fill)
			}
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				qx, qy := x1+s, y1+t
				if qx >= bounds.Min.X && qx < bounds.Max.X && qy >= bounds.Min.Y && qy < bounds.Max.Y {
					output.SetRGBA(qx, qy, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}
