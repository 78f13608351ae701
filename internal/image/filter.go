package image

import (
	"context"
	"image"

	"golang.org/x/image/draw"

	"printboard/internal/workspace"
	"printboard/pkg/colorutil"
)

// ApplyFilters returns a filtered copy of src. Contrast pivots about
// mid-grey, brightness multiplies, saturation scales the HSV saturation and
// sharpness is the strength of a 3x3 unsharp mask.
func ApplyFilters(ctx context.Context, src image.Image, f workspace.FilterParams) (*image.NRGBA, error) {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	if f.IsIdentity() {
		return dst, nil
	}
	f = f.Clamp()

	for y := 0; y < b.Dy(); y++ {
		if y%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			r := adjust(float64(row[i])/255, f)
			g := adjust(float64(row[i+1])/255, f)
			bl := adjust(float64(row[i+2])/255, f)
			if f.Saturation != 1 {
				h, s, v := colorutil.RGBToHSV(r, g, bl)
				r, g, bl = colorutil.HSVToRGB(h, colorutil.Unit(s*f.Saturation), v)
			}
			row[i] = colorutil.ToByte(r)
			row[i+1] = colorutil.ToByte(g)
			row[i+2] = colorutil.ToByte(bl)
		}
	}

	if f.Sharpness > 0 {
		return sharpen(ctx, dst, f.Sharpness/workspace.MaxSharpness*2)
	}
	return dst, nil
}

func adjust(v float64, f workspace.FilterParams) float64 {
	v = (v-0.5)*f.Contrast + 0.5
	return colorutil.Unit(v * f.Brightness)
}

// sharpen adds amount times the difference between each pixel and its 3x3
// box-blurred neighbourhood. Edge pixels reuse the nearest row or column.
func sharpen(ctx context.Context, img *image.NRGBA, amount float64) (*image.NRGBA, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewNRGBA(img.Rect)
	copy(out.Pix, img.Pix)

	at := func(x, y, c int) float64 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return float64(img.Pix[y*img.Stride+x*4+c])
	}
	for y := 0; y < h; y++ {
		if y%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				var sum float64
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						sum += at(x+dx, y+dy, c)
					}
				}
				v := at(x, y, c)
				sharp := v + amount*(v-sum/9)
				out.Pix[y*out.Stride+x*4+c] = colorutil.ToByte(sharp / 255)
			}
		}
	}
	return out, nil
}
