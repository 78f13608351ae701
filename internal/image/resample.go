package image

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Resampler scales a sub-rectangle of a source raster to a new size.
type Resampler struct {
	// Interpolator defaults to Catmull-Rom.
	Interpolator draw.Interpolator
}

// Resample returns a w×h raster holding the r rectangle of src.
func (rs Resampler) Resample(ctx context.Context, src image.Image, r image.Rectangle, w, h int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r = r.Intersect(src.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("empty source rectangle %v", r)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", w, h)
	}
	interp := rs.Interpolator
	if interp == nil {
		interp = draw.CatmullRom
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	interp.Scale(dst, dst.Bounds(), src, r, draw.Src, nil)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dst, nil
}
