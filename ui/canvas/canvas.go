// Package canvas provides the interactive board view with zoom.
package canvas

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"math"

	"printboard/internal/app"
	"printboard/internal/input"
	"printboard/internal/transform"
	"printboard/internal/workspace"
	"printboard/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25
)

// touchID is the platform id given to fyne touches, which carry none.
const touchID = 1

// Board is the part of the editor the canvas draws and drives.
type Board interface {
	Size() geometry.Size
	Frame(ctx context.Context, scale float64) (*image.RGBA, error)
	SelectedObject() (workspace.Object, bool)
	Object(id workspace.ObjectID) (workspace.Object, bool)
	HandleLayout(id workspace.ObjectID) ([]app.HandleSpot, geometry.Point2D, bool)
	HandleRadius() float64
	Crop() (app.CropView, bool)
	HitTest(p geometry.Point2D) app.Hit
	HandlePointer(ev input.Event)
}

// BoardCanvas shows the board scaled by the current zoom and turns mouse
// and touch input into canonical pointer events.
type BoardCanvas struct {
	widget.BaseWidget

	board Board
	log   *slog.Logger
	input *input.Unifier

	raster  *fynecanvas.Raster
	zoom    float64
	scroll  *zoomScroll
	content *boardContent
	imgSize fyne.Size

	// Fit to window
	fitToWindow    bool
	lastScrollSize fyne.Size

	gesture  bool // a pointer is down; zoom changes wait
	touching bool
	mods     input.Modifiers
	cursor   desktop.Cursor

	onZoomChange func(zoom float64)
}

// zoomScroll is a widget that wraps a scroll container but intercepts wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *BoardCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *BoardCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Size returns the scroll container's size.
func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

// Refresh refreshes the scroll container.
func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// Resize sets the size of the scroll container.
func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
	zs.canvas.CheckResize(size)
}

// boardContent wraps the raster to receive pointer events. Positions are
// relative to the content, so dividing by zoom gives board units.
type boardContent struct {
	widget.BaseWidget
	canvas *BoardCanvas
	raster *fynecanvas.Raster
}

var (
	_ desktop.Mouseable  = (*boardContent)(nil)
	_ desktop.Hoverable  = (*boardContent)(nil)
	_ desktop.Cursorable = (*boardContent)(nil)
	_ fyne.Draggable     = (*boardContent)(nil)
	_ mobile.Touchable   = (*boardContent)(nil)
	_ fyne.Scrollable    = (*boardContent)(nil)
)

func newBoardContent(bc *BoardCanvas, raster *fynecanvas.Raster) *boardContent {
	c := &boardContent{canvas: bc, raster: raster}
	c.ExtendBaseWidget(c)
	return c
}

func (c *boardContent) CreateRenderer() fyne.WidgetRenderer {
	return &boardContentRenderer{content: c}
}

func (c *boardContent) MinSize() fyne.Size {
	return c.raster.MinSize()
}

func (c *boardContent) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	bc := c.canvas
	bc.mods = modifiers(ev.Modifier)
	x, y := bc.toBoard(ev.Position)
	bc.input.MouseDown(x, y, bc.mods)
}

func (c *boardContent) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	bc := c.canvas
	bc.mods = modifiers(ev.Modifier)
	x, y := bc.toBoard(ev.Position)
	bc.input.MouseUp(x, y, bc.mods)
}

func (c *boardContent) MouseIn(ev *desktop.MouseEvent) {
	c.canvas.hover(ev.Position)
}

func (c *boardContent) MouseMoved(ev *desktop.MouseEvent) {
	bc := c.canvas
	bc.mods = modifiers(ev.Modifier)
	x, y := bc.toBoard(ev.Position)
	bc.input.MouseMove(x, y, bc.mods)
	bc.hover(ev.Position)
}

func (c *boardContent) MouseOut() {
	c.canvas.cursor = desktop.DefaultCursor
}

func (c *boardContent) Cursor() desktop.Cursor {
	return c.canvas.cursor
}

func (c *boardContent) Dragged(ev *fyne.DragEvent) {
	bc := c.canvas
	x, y := bc.toBoard(ev.Position)
	if bc.touching {
		bc.input.TouchMove(touchID, x, y)
		return
	}
	bc.input.MouseMove(x, y, bc.mods)
}

// DragEnd carries no position; the release arrives through MouseUp or
// TouchUp.
func (c *boardContent) DragEnd() {}

func (c *boardContent) TouchDown(ev *mobile.TouchEvent) {
	bc := c.canvas
	bc.touching = true
	x, y := bc.toBoard(ev.Position)
	bc.input.TouchDown(touchID, x, y)
}

func (c *boardContent) TouchUp(ev *mobile.TouchEvent) {
	bc := c.canvas
	x, y := bc.toBoard(ev.Position)
	bc.input.TouchUp(touchID, x, y)
	bc.touching = false
}

func (c *boardContent) TouchCancel(*mobile.TouchEvent) {
	c.canvas.input.TouchCancel(touchID)
	c.canvas.touching = false
}

func (c *boardContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		c.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		c.canvas.ZoomOut()
	}
}

type boardContentRenderer struct {
	content *boardContent
}

func (r *boardContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *boardContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *boardContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *boardContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *boardContentRenderer) Destroy() {}

// NewBoardCanvas creates a canvas showing board.
func NewBoardCanvas(board Board, log *slog.Logger) *BoardCanvas {
	if log == nil {
		log = slog.Default()
	}
	bc := &BoardCanvas{
		board:  board,
		log:    log,
		zoom:   1.0,
		cursor: desktop.DefaultCursor,
	}
	bc.input = input.New(board.HandlePointer,
		input.WithLogger(log),
		input.WithGuard(func(active bool) { bc.gesture = active }))

	bc.raster = fynecanvas.NewRaster(bc.draw)
	bc.raster.ScaleMode = fynecanvas.ImageScalePixels
	bc.content = newBoardContent(bc, bc.raster)
	bc.scroll = newZoomScroll(bc.content, bc)
	bc.updateContentSize()

	bc.ExtendBaseWidget(bc)
	return bc
}

// CreateRenderer implements fyne.Widget.
func (bc *BoardCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(bc.scroll)
}

// Container returns the scrollable view to place in a layout.
func (bc *BoardCanvas) Container() fyne.CanvasObject {
	return bc.scroll
}

// SetZoom sets the zoom level.
func (bc *BoardCanvas) SetZoom(zoom float64) {
	if bc.gesture {
		return
	}
	bc.zoom = geometry.Clamp(zoom, minZoom, maxZoom)
	bc.updateContentSize()
	if bc.onZoomChange != nil {
		bc.onZoomChange(bc.zoom)
	}
}

// Zoom returns the current zoom level.
func (bc *BoardCanvas) Zoom() float64 {
	return bc.zoom
}

// ZoomIn increases zoom by one step.
func (bc *BoardCanvas) ZoomIn() {
	bc.SetZoom(bc.zoom * zoomStep)
}

// ZoomOut decreases zoom by one step.
func (bc *BoardCanvas) ZoomOut() {
	bc.SetZoom(bc.zoom / zoomStep)
}

// FitToWindow picks the zoom that shows the whole page.
func (bc *BoardCanvas) FitToWindow() {
	size := bc.board.Size()
	view := bc.scroll.Size()
	if size.Width <= 0 || size.Height <= 0 || view.Width <= 0 || view.Height <= 0 {
		return
	}
	zoom := math.Min(float64(view.Width)/size.Width, float64(view.Height)/size.Height)
	bc.SetZoom(zoom * 0.95) // Leave a small margin
}

// SetFitToWindow enables or disables automatic fit on resize.
func (bc *BoardCanvas) SetFitToWindow(fit bool) {
	bc.fitToWindow = fit
	if fit {
		bc.FitToWindow()
	}
}

// CheckResize re-fits when the viewport size changed.
func (bc *BoardCanvas) CheckResize(size fyne.Size) {
	if !bc.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != bc.lastScrollSize {
		bc.lastScrollSize = size
		bc.FitToWindow()
	}
}

// OnZoomChange sets the callback for zoom changes.
func (bc *BoardCanvas) OnZoomChange(callback func(zoom float64)) {
	bc.onZoomChange = callback
}

// Refresh redraws the board.
func (bc *BoardCanvas) Refresh() {
	bc.raster.Refresh()
}

// CanvasChanged resizes the view after the paper changed.
func (bc *BoardCanvas) CanvasChanged() {
	bc.updateContentSize()
	if bc.fitToWindow {
		bc.FitToWindow()
	}
}

func (bc *BoardCanvas) toBoard(p fyne.Position) (float64, float64) {
	return float64(p.X) / bc.zoom, float64(p.Y) / bc.zoom
}

// hover picks the cursor for what lies under p.
func (bc *BoardCanvas) hover(p fyne.Position) {
	if bc.gesture {
		return
	}
	x, y := bc.toBoard(p)
	hit := bc.board.HitTest(geometry.Point2D{X: x, Y: y})
	bc.cursor = cursorFor(hit)
}

func cursorFor(hit app.Hit) desktop.Cursor {
	switch hit.Kind {
	case app.HitHandle, app.HitCropHandle:
		switch hit.Handle {
		case transform.HandleLeft, transform.HandleRight:
			return desktop.HResizeCursor
		case transform.HandleTop, transform.HandleBottom:
			return desktop.VResizeCursor
		default:
			return desktop.CrosshairCursor
		}
	case app.HitRotate:
		return desktop.CrosshairCursor
	case app.HitBody, app.HitCropRegion:
		return desktop.PointerCursor
	default:
		return desktop.DefaultCursor
	}
}

func modifiers(m fyne.KeyModifier) input.Modifiers {
	var out input.Modifiers
	if m&fyne.KeyModifierShift != 0 {
		out |= input.ModShift
	}
	if m&fyne.KeyModifierControl != 0 {
		out |= input.ModCtrl
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= input.ModAlt
	}
	return out
}

func (bc *BoardCanvas) updateContentSize() {
	size := bc.board.Size()
	bc.imgSize = fyne.NewSize(float32(size.Width*bc.zoom), float32(size.Height*bc.zoom))

	bc.raster.SetMinSize(bc.imgSize)
	bc.raster.Resize(bc.imgSize)
	if bc.content != nil {
		bc.content.Resize(bc.imgSize)
		bc.content.Refresh()
	}
	bc.raster.Refresh()
	if bc.scroll != nil {
		bc.scroll.Refresh()
	}
}

// draw renders the board at the raster's pixel size and paints the
// selection and crop overlays on top.
func (bc *BoardCanvas) draw(w, h int) image.Image {
	size := bc.board.Size()
	if w <= 0 || h <= 0 || size.Width <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	scale := float64(w) / size.Width

	output, err := bc.board.Frame(context.Background(), scale)
	if err != nil {
		bc.log.Warn("frame render failed", "err", err)
		output = image.NewRGBA(image.Rect(0, 0, w, h))
		for i := range output.Pix {
			output.Pix[i] = 0xff
		}
	}

	if view, ok := bc.board.Crop(); ok {
		if o, ok := bc.board.Object(view.Target); ok {
			drawCrop(output, o, view, scale)
		}
		return output
	}
	if o, ok := bc.board.SelectedObject(); ok {
		spots, rot, _ := bc.board.HandleLayout(o.ID)
		drawSelection(output, o, spots, rot, scale, bc.board.HandleRadius())
	}
	return output
}

var (
	outlineColor = color.RGBA(app.AccentColor)
	handleFill   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)
