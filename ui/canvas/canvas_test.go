package canvas

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"printboard/internal/app"
	"printboard/internal/input"
	"printboard/internal/transform"
	"printboard/internal/workspace"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/test"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newBoard(t *testing.T) (*app.Editor, workspace.ObjectID, *BoardCanvas) {
	t.Helper()
	test.NewApp()
	e, err := app.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	id, err := e.Ingest(context.Background(), pngBytes(t, 100, 100))
	if err != nil {
		t.Fatal(err)
	}
	return e, id, NewBoardCanvas(e, nil)
}

func mouse(x, y float32, mods fyne.KeyModifier) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
		Modifier:   mods,
	}
}

func TestMouseDragMovesObject(t *testing.T) {
	e, id, bc := newBoard(t)
	bc.SetZoom(2)

	c := bc.content
	c.MouseDown(mouse(200, 200, 0)) // board (100,100)
	c.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(240, 220)}})
	if !bc.gesture {
		t.Error("guard did not report an active gesture")
	}
	bc.SetZoom(1)
	if bc.Zoom() != 2 {
		t.Error("zoom changed mid-gesture")
	}
	c.DragEnd()
	c.MouseUp(mouse(240, 220, 0))

	o, _ := e.Object(id)
	if o.X != 70 || o.Y != 60 {
		t.Errorf("position = (%g,%g), want (70,60)", o.X, o.Y)
	}
	if bc.gesture {
		t.Error("gesture still active after release")
	}
}

func TestSecondaryButtonIgnored(t *testing.T) {
	e, id, bc := newBoard(t)
	ev := mouse(100, 100, 0)
	ev.Button = desktop.MouseButtonSecondary
	bc.content.MouseDown(ev)
	bc.content.MouseMoved(mouse(150, 150, 0))
	bc.content.MouseUp(ev)
	if o, _ := e.Object(id); o.X != 50 {
		t.Errorf("secondary button moved the object to x=%g", o.X)
	}
}

func TestTouchDragMovesObject(t *testing.T) {
	e, id, bc := newBoard(t)
	c := bc.content
	c.TouchDown(&mobile.TouchEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(100, 100)}})
	c.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(110, 130)}})
	c.TouchUp(&mobile.TouchEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(110, 130)}})

	if o, _ := e.Object(id); o.X != 60 || o.Y != 80 {
		t.Errorf("position = (%g,%g), want (60,80)", o.X, o.Y)
	}
}

func TestHoverCursor(t *testing.T) {
	_, _, bc := newBoard(t)
	tests := []struct {
		name string
		pos  fyne.Position
		want desktop.Cursor
	}{
		{"body", fyne.NewPos(100, 100), desktop.PointerCursor},
		{"left grip", fyne.NewPos(50, 100), desktop.HResizeCursor},
		{"bottom grip", fyne.NewPos(100, 150), desktop.VResizeCursor},
		{"corner", fyne.NewPos(150, 150), desktop.CrosshairCursor},
		{"empty", fyne.NewPos(500, 500), desktop.DefaultCursor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc.content.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: tt.pos}})
			if got := bc.content.Cursor(); got != tt.want {
				t.Errorf("cursor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCursorForHit(t *testing.T) {
	if c := cursorFor(app.Hit{Kind: app.HitCropHandle, Handle: transform.HandleTop}); c != desktop.VResizeCursor {
		t.Errorf("crop top grip cursor = %v", c)
	}
	if c := cursorFor(app.Hit{Kind: app.HitRotate}); c != desktop.CrosshairCursor {
		t.Errorf("rotate cursor = %v", c)
	}
}

func TestModifiers(t *testing.T) {
	m := modifiers(fyne.KeyModifierShift | fyne.KeyModifierAlt)
	if !m.Has(input.ModShift) || !m.Has(input.ModAlt) || m.Has(input.ModCtrl) {
		t.Errorf("modifiers = %b", m)
	}
}

func TestDrawPaintsSelection(t *testing.T) {
	e, _, bc := newBoard(t)
	size := e.Size()
	img := bc.draw(int(size.Width), int(size.Height)).(*image.RGBA)

	// The outline runs along the top edge of the object at y=50, between
	// the grips at x=50 and x=100.
	if got := img.RGBAAt(75, 50); got != outlineColor {
		t.Errorf("pixel on outline = %v, want %v", got, outlineColor)
	}
	// Interior of the object is untouched by the overlay.
	if got := img.RGBAAt(100, 100); got == outlineColor {
		t.Error("overlay painted the object interior")
	}
}

func TestDrawShadesOutsideCropRegion(t *testing.T) {
	e, id, bc := newBoard(t)
	if err := e.EnterCropMode(id); err != nil {
		t.Fatal(err)
	}
	size := e.Size()
	img := bc.draw(int(size.Width), int(size.Height)).(*image.RGBA)

	// Region is (10,10,80,80) local, so (55,55) is shaded and (100,100) not.
	shaded, clear := img.RGBAAt(55, 55), img.RGBAAt(100, 100)
	if shaded.R >= clear.R {
		t.Errorf("shaded pixel %v not darker than %v", shaded, clear)
	}
}
