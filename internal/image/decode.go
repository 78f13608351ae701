// Package image decodes ingested files, resamples crops, applies the
// per-object filters and composes a board snapshot into a raster.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode matches every DecodeError.
var ErrDecode = errors.New("image decode failed")

// DecodeError reports bytes that could not be turned into an image.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("decode %s image: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecode) hold.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Decoded is a decoded image with its native pixel size.
type Decoded struct {
	Image  image.Image
	Width  int
	Height int
	Format string
}

// Decoder turns raw file bytes into an image.
type Decoder struct {
	// MaxPixels rejects images larger than this many pixels; zero disables
	// the check.
	MaxPixels int
}

// Decode reads the header first so oversized images fail before the pixel
// buffers are allocated.
func (d Decoder) Decode(ctx context.Context, data []byte) (Decoded, error) {
	if err := ctx.Err(); err != nil {
		return Decoded{}, err
	}
	if len(data) == 0 {
		return Decoded{}, &DecodeError{Err: errors.New("empty input")}
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, &DecodeError{Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Decoded{}, &DecodeError{Format: format, Err: fmt.Errorf("invalid size %dx%d", cfg.Width, cfg.Height)}
	}
	if d.MaxPixels > 0 && cfg.Width*cfg.Height > d.MaxPixels {
		return Decoded{}, &DecodeError{Format: format, Err: fmt.Errorf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, d.MaxPixels)}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, &DecodeError{Format: format, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return Decoded{}, err
	}

	return Decoded{
		Image:  img,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Format: format,
	}, nil
}

// FitWithin scales a native size down so that neither side exceeds limit,
// keeping the aspect ratio and rounding to whole units. Sizes already inside
// the limit are returned unchanged.
func FitWithin(width, height int, limit float64) (float64, float64) {
	w, h := float64(width), float64(height)
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	scale := math.Min(limit/w, limit/h)
	return math.Max(1, math.Round(w*scale)), math.Max(1, math.Round(h*scale))
}

// SupportedFormats returns the file extensions the decoder accepts.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp", ".webp"}
}

// IsSupportedFormat checks the extension of path.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range SupportedFormats() {
		if ext == f {
			return true
		}
	}
	return false
}
