package image

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"printboard/internal/workspace"
	"printboard/pkg/geometry"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	data := encodePNG(t, solid(12, 7, color.White))
	d, err := Decoder{}.Decode(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	if d.Width != 12 || d.Height != 7 || d.Format != "png" {
		t.Fatalf("decoded %+v", d)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		dec  Decoder
	}{
		{"empty", nil, Decoder{}},
		{"garbage", []byte("definitely not an image"), Decoder{}},
		{"too_large", nil, Decoder{MaxPixels: 10}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data := c.data
			if c.name == "too_large" {
				data = encodePNG(t, solid(4, 4, color.Black))
			}
			_, err := c.dec.Decode(context.Background(), data)
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("err = %v, want ErrDecode", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("err %T is not a *DecodeError", err)
			}
		})
	}
}

func TestFitWithin(t *testing.T) {
	cases := []struct {
		w, h   int
		ww, wh float64
	}{
		{1000, 500, 600, 300},
		{500, 1000, 300, 600},
		{300, 200, 300, 200},
		{600, 600, 600, 600},
		{1200, 1199, 600, 600},
	}
	for _, c := range cases {
		w, h := FitWithin(c.w, c.h, 600)
		if w != c.ww || h != c.wh {
			t.Errorf("FitWithin(%d,%d) = %vx%v, want %vx%v", c.w, c.h, w, h, c.ww, c.wh)
		}
	}
}

func TestResampleSamplesRectangle(t *testing.T) {
	// Left half red, right half blue.
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			if x < 20 {
				src.Set(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				src.Set(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
	}
	out, err := Resampler{}.Resample(context.Background(), src, image.Rect(24, 4, 36, 16), 6, 6)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds() != image.Rect(0, 0, 6, 6) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	r, _, b, _ := out.At(3, 3).RGBA()
	if r != 0 || b>>8 != 255 {
		t.Fatalf("expected pure blue, got r=%d b=%d", r>>8, b>>8)
	}
}

func TestResampleRejectsEmpty(t *testing.T) {
	src := solid(10, 10, color.White)
	if _, err := (Resampler{}).Resample(context.Background(), src, image.Rect(20, 20, 30, 30), 5, 5); err == nil {
		t.Fatal("expected error for rectangle outside the source")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Resampler{}).Resample(ctx, src, src.Bounds(), 5, 5); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestApplyFilters(t *testing.T) {
	grey := solid(4, 4, color.RGBA{100, 100, 100, 255})
	ctx := context.Background()

	same, err := ApplyFilters(ctx, grey, workspace.FilterParams{Contrast: 1, Brightness: 1, Saturation: 1})
	if err != nil {
		t.Fatal(err)
	}
	if c := same.NRGBAAt(1, 1); c.R != 100 {
		t.Fatalf("identity changed pixel to %v", c)
	}

	bright, _ := ApplyFilters(ctx, grey, workspace.FilterParams{Contrast: 1, Brightness: 2, Saturation: 1})
	if c := bright.NRGBAAt(1, 1); c.R != 200 {
		t.Fatalf("brightness 2 gave %v, want 200", c.R)
	}

	red := solid(4, 4, color.RGBA{200, 100, 100, 255})
	flat, _ := ApplyFilters(ctx, red, workspace.FilterParams{Contrast: 1, Brightness: 1, Saturation: 0})
	if c := flat.NRGBAAt(1, 1); c.R != c.G || c.G != c.B {
		t.Fatalf("saturation 0 should be grey, got %v", c)
	}

	sharp, _ := ApplyFilters(ctx, grey, workspace.FilterParams{Contrast: 1, Brightness: 1, Saturation: 1, Sharpness: 10})
	if c := sharp.NRGBAAt(1, 1); c.R != 100 {
		t.Fatalf("sharpening a flat image changed it to %v", c)
	}
}

func TestRenderPlacesObjects(t *testing.T) {
	ws := workspace.New(100, 100)
	src := ws.Pool().Add(solid(10, 10, color.RGBA{255, 0, 0, 255}))
	o := ws.Add(src, 10, 20, 40, 20)
	o.Filters = workspace.FilterParams{Contrast: 1, Brightness: 1, Saturation: 1}

	page, err := NewRasterizer(nil).Render(context.Background(), ws.Snapshot(), ws.Size(), RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("bounds = %v", page.Bounds())
	}
	if c := page.RGBAAt(30, 30); c.R != 255 || c.G != 0 {
		t.Fatalf("inside object got %v", c)
	}
	if c := page.RGBAAt(5, 5); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("background got %v", c)
	}
	if c := page.RGBAAt(30, 45); c.G != 255 {
		t.Fatalf("below object got %v", c)
	}

	// A quarter turn stands the 40x20 box upright about its center (30,30).
	o.Rotation = 90
	page, _ = NewRasterizer(nil).Render(context.Background(), ws.Snapshot(), ws.Size(), RenderOptions{Scale: 2})
	if page.Bounds().Dx() != 200 {
		t.Fatalf("scaled width = %d", page.Bounds().Dx())
	}
	if c := page.RGBAAt(60, 90); c.R != 255 || c.G != 0 {
		t.Fatalf("rotated body at (30,45) got %v", c)
	}
	if c := page.RGBAAt(30, 60); c.G != 255 {
		t.Fatalf("rotated-away area at (15,30) got %v", c)
	}
}

func TestPlacementTransformCorners(t *testing.T) {
	st := workspace.ObjectState{X: 10, Y: 20, Width: 40, Height: 20}
	m := PlacementTransform(st, image.Rect(0, 0, 10, 10), 1)
	if p := m.Apply(geometry.Point2D{}); p != (geometry.Point2D{X: 10, Y: 20}) {
		t.Fatalf("origin maps to %v", p)
	}
	if p := m.Apply(geometry.Point2D{X: 10, Y: 10}); p != (geometry.Point2D{X: 50, Y: 40}) {
		t.Fatalf("far corner maps to %v", p)
	}
}

func TestIsSupportedFormat(t *testing.T) {
	for path, want := range map[string]bool{"a.PNG": true, "b.webp": true, "c.tif": true, "d.svg": false} {
		if got := IsSupportedFormat(path); got != want {
			t.Errorf("%s: got %v", path, got)
		}
	}
}
