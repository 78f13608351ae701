// Package crop implements the modal crop session: a region overlay bound to
// one object, and the destructive commit that replaces the object's source
// with the selected pixels.
package crop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"

	"printboard/internal/transform"
	"printboard/internal/workspace"
	"printboard/pkg/geometry"
)

// DefaultInitialFraction sizes the initial square region relative to the
// shorter displayed side of the object.
const DefaultInitialFraction = 0.8

// AspectMode constrains the region ratio.
type AspectMode int

const (
	Free AspectMode = iota
	Horizontal
	Vertical
)

func (m AspectMode) String() string {
	switch m {
	case Horizontal:
		return "16:9"
	case Vertical:
		return "9:16"
	default:
		return "free"
	}
}

// Ratio returns the width/height ratio the mode locks, or 0 for Free.
func (m AspectMode) Ratio() float64 {
	switch m {
	case Horizontal:
		return 16.0 / 9.0
	case Vertical:
		return 9.0 / 16.0
	default:
		return 0
	}
}

// ParseAspectMode maps "free", "16:9" and "9:16" to a mode.
func ParseAspectMode(s string) (AspectMode, error) {
	switch s {
	case "free", "":
		return Free, nil
	case "16:9", "horizontal":
		return Horizontal, nil
	case "9:16", "vertical":
		return Vertical, nil
	}
	return Free, fmt.Errorf("unknown aspect mode %q", s)
}

// Resampler produces a w×h raster from the r sub-rectangle of src.
type Resampler interface {
	Resample(ctx context.Context, src image.Image, r image.Rectangle, w, h int) (image.Image, error)
}

// ErrCommitPending is returned when a crop commit is already in flight.
var ErrCommitPending = errors.New("crop commit in progress")

type regionGesture struct {
	handle transform.Handle // HandleNone moves the region
	start  geometry.Point2D
	region geometry.Rect
}

type session struct {
	target  workspace.ObjectID
	region  geometry.Rect
	mode    AspectMode
	gesture *regionGesture
	pending bool
}

// Engine owns at most one crop session. Region coordinates are local to the
// target object's displayed box: (0,0) is its top-left corner and the region
// always lies within (0,0)-(width,height).
type Engine struct {
	ws        *workspace.Workspace
	history   transform.Committer
	resampler Resampler
	log       *slog.Logger
	fraction  float64

	s *session
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithInitialFraction overrides the initial region size fraction.
func WithInitialFraction(f float64) Option {
	return func(e *Engine) {
		if f > 0 && f <= 1 {
			e.fraction = f
		}
	}
}

// NewEngine creates an inactive crop engine.
func NewEngine(ws *workspace.Workspace, history transform.Committer, r Resampler, opts ...Option) *Engine {
	e := &Engine{
		ws:        ws,
		history:   history,
		resampler: r,
		log:       slog.Default(),
		fraction:  DefaultInitialFraction,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetInitialFraction changes the size of regions created by later Enter calls.
func (e *Engine) SetInitialFraction(f float64) {
	WithInitialFraction(f)(e)
}

// Active reports whether a crop session is open.
func (e *Engine) Active() bool { return e.s != nil }

// Target returns the object being cropped, or NoObject.
func (e *Engine) Target() workspace.ObjectID {
	if e.s == nil {
		return workspace.NoObject
	}
	return e.s.target
}

// Region returns the current region in object-local coordinates.
func (e *Engine) Region() (geometry.Rect, bool) {
	if e.s == nil {
		return geometry.Rect{}, false
	}
	return e.s.region, true
}

// Mode returns the aspect mode of the session.
func (e *Engine) Mode() AspectMode {
	if e.s == nil {
		return Free
	}
	return e.s.mode
}

// Pending reports whether a commit is in flight.
func (e *Engine) Pending() bool { return e.s != nil && e.s.pending }

// Enter opens a crop session on the selected object and locks it against
// transform gestures. The region starts as a centered square.
func (e *Engine) Enter(id workspace.ObjectID) error {
	if id == workspace.NoObject || e.ws.SelectedID() != id {
		return workspace.ErrNoSelection
	}
	if e.s != nil {
		return fmt.Errorf("enter crop on %d: %w", id, workspace.ErrObjectBusy)
	}
	o, ok := e.ws.Get(id)
	if !ok {
		return fmt.Errorf("enter crop on %d: %w", id, workspace.ErrNotFound)
	}
	if err := e.ws.Lock(id); err != nil {
		return fmt.Errorf("enter crop on %d: %w", id, err)
	}

	short := math.Min(o.Width, o.Height)
	side := math.Max(short*e.fraction, math.Min(e.ws.MinSize(), short))
	e.s = &session{
		target: id,
		region: geometry.NewRect((o.Width-side)/2, (o.Height-side)/2, side, side),
		mode:   Free,
	}
	e.log.Debug("crop enter", "object", id, "region", e.s.region)
	return nil
}

// bounds returns the target's displayed box in local coordinates.
func (e *Engine) bounds() (geometry.Rect, bool) {
	o, ok := e.ws.Get(e.s.target)
	if !ok {
		return geometry.Rect{}, false
	}
	return geometry.NewRect(0, 0, o.Width, o.Height), true
}

func (e *Engine) minSize(bounds geometry.Rect) float64 {
	return math.Min(e.ws.MinSize(), math.Min(bounds.Width, bounds.Height))
}

// SetAspectMode resizes the region to the mode's ratio around its current
// center and clamps it back inside the object. Free keeps the size. On an
// object too thin to hold the ratio with both sides at the minimum, the
// minimum wins and the ratio is approximate.
func (e *Engine) SetAspectMode(mode AspectMode) error {
	if e.s == nil {
		return workspace.ErrNoActiveCrop
	}
	if e.s.pending {
		return ErrCommitPending
	}
	b, ok := e.bounds()
	if !ok {
		return fmt.Errorf("crop target %d: %w", e.s.target, workspace.ErrNotFound)
	}
	e.s.mode = mode
	r := e.s.region
	switch mode {
	case Horizontal:
		w := math.Min(b.Width, b.Height*16/9)
		r = e.sized(r.Center(), w, w*9/16, b)
	case Vertical:
		h := math.Min(b.Height, b.Width*16/9)
		r = e.sized(r.Center(), h*9/16, h, b)
	}
	e.s.region = r.ClampInside(b)
	return nil
}

// sized centers a w×h region on c with neither side below the minimum.
func (e *Engine) sized(c geometry.Point2D, w, h float64, bounds geometry.Rect) geometry.Rect {
	m := e.minSize(bounds)
	w, h = math.Max(w, m), math.Max(h, m)
	return geometry.NewRect(c.X-w/2, c.Y-h/2, w, h)
}

// MoveRegion translates the region by delta, clamped inside the object.
func (e *Engine) MoveRegion(delta geometry.Point2D) error {
	if e.s == nil {
		return workspace.ErrNoActiveCrop
	}
	if e.s.pending {
		return ErrCommitPending
	}
	if !delta.IsFinite() {
		return nil
	}
	b, ok := e.bounds()
	if !ok {
		return fmt.Errorf("crop target %d: %w", e.s.target, workspace.ErrNotFound)
	}
	e.s.region = move(e.s.region, delta, b)
	return nil
}

// ResizeRegion drags one of the region's handles by delta.
func (e *Engine) ResizeRegion(h transform.Handle, delta geometry.Point2D) error {
	if e.s == nil {
		return workspace.ErrNoActiveCrop
	}
	if e.s.pending {
		return ErrCommitPending
	}
	if !delta.IsFinite() {
		return nil
	}
	b, ok := e.bounds()
	if !ok {
		return fmt.Errorf("crop target %d: %w", e.s.target, workspace.ErrNotFound)
	}
	e.s.region = e.resize(e.s.region, h, delta, b)
	return nil
}

func move(r geometry.Rect, delta geometry.Point2D, bounds geometry.Rect) geometry.Rect {
	r.X += delta.X
	r.Y += delta.Y
	return r.ClampInside(bounds)
}

// resize applies the shared handle math, then shortens the delta until the
// result fits inside bounds.
func (e *Engine) resize(start geometry.Rect, h transform.Handle, delta geometry.Point2D, bounds geometry.Rect) geometry.Rect {
	opts := transform.ResizeOptions{
		Lock:    e.s.mode != Free,
		Ratio:   e.s.mode.Ratio(),
		MinSize: e.minSize(bounds),
	}
	r := transform.ResizeRect(start, 0, h, delta, opts)
	if bounds.ContainsRect(r) {
		return r
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < 32; i++ {
		mid := (lo + hi) / 2
		if bounds.ContainsRect(transform.ResizeRect(start, 0, h, delta.Scale(mid), opts)) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return transform.ResizeRect(start, 0, h, delta.Scale(lo), opts).ClampInside(bounds)
}

// StartMove begins dragging the region. p is in object-local coordinates.
func (e *Engine) StartMove(p geometry.Point2D) bool {
	return e.startGesture(transform.HandleNone, p)
}

// StartResize begins dragging a region handle.
func (e *Engine) StartResize(h transform.Handle, p geometry.Point2D) bool {
	if h == transform.HandleNone {
		return false
	}
	return e.startGesture(h, p)
}

func (e *Engine) startGesture(h transform.Handle, p geometry.Point2D) bool {
	if e.s == nil || e.s.pending || e.s.gesture != nil || !p.IsFinite() {
		return false
	}
	e.s.gesture = &regionGesture{handle: h, start: p, region: e.s.region}
	return true
}

// Dragging reports whether a region gesture is in progress.
func (e *Engine) Dragging() bool { return e.s != nil && e.s.gesture != nil }

// Update feeds the pointer into the active region gesture.
func (e *Engine) Update(p geometry.Point2D) {
	if e.s == nil || e.s.gesture == nil || !p.IsFinite() {
		return
	}
	b, ok := e.bounds()
	if !ok {
		return
	}
	g := e.s.gesture
	delta := p.Sub(g.start)
	if g.handle == transform.HandleNone {
		e.s.region = move(g.region, delta, b)
		return
	}
	e.s.region = e.resize(g.region, g.handle, delta, b)
}

// EndGesture finishes a region gesture. Region edits are not history entries.
func (e *Engine) EndGesture() {
	if e.s != nil {
		e.s.gesture = nil
	}
}

// RegionHandleAt returns the region handle within radius of p, or HandleNone.
func (e *Engine) RegionHandleAt(p geometry.Point2D, radius float64) transform.Handle {
	if e.s == nil {
		return transform.HandleNone
	}
	r := e.s.region
	for _, h := range transform.Handles {
		if h.LocalPosition(r.Size()).Add(r.TopLeft()).Distance(p) <= radius {
			return h
		}
	}
	return transform.HandleNone
}

// Cancel closes the session without touching the object.
func (e *Engine) Cancel() error {
	if e.s == nil {
		return workspace.ErrNoActiveCrop
	}
	id := e.s.target
	e.ws.Unlock(id)
	e.s = nil
	e.log.Debug("crop cancel", "object", id)
	return nil
}

// Job is a prepared crop commit: the source rectangle to sample and the
// displayed size of the result.
type Job struct {
	Target  workspace.ObjectID
	Source  *workspace.Source
	SrcRect image.Rectangle
	Width   int
	Height  int
	region  geometry.Rect
}

// Prepare freezes the session for commit and maps the region into source
// pixels using scale = source size / displayed size. The session stays
// pending until Apply or Abort.
func (e *Engine) Prepare() (Job, error) {
	if e.s == nil {
		return Job{}, workspace.ErrNoActiveCrop
	}
	if e.s.pending {
		return Job{}, ErrCommitPending
	}
	o, ok := e.ws.Get(e.s.target)
	if !ok {
		return Job{}, fmt.Errorf("crop target %d: %w", e.s.target, workspace.ErrNotFound)
	}
	if o.Source == nil {
		return Job{}, fmt.Errorf("crop target %d has no source: %w", o.ID, workspace.ErrNotFound)
	}
	job := Job{
		Target:  o.ID,
		Source:  o.Source,
		SrcRect: SourceRect(e.s.region, o.Width, o.Height, o.Source),
		Width:   max(1, int(math.Round(e.s.region.Width))),
		Height:  max(1, int(math.Round(e.s.region.Height))),
		region:  e.s.region,
	}
	e.s.gesture = nil
	e.s.pending = true
	return job, nil
}

// SourceRect maps a displayed region of an object of the given displayed
// size into the pixel rectangle of src.
func SourceRect(region geometry.Rect, displayW, displayH float64, src *workspace.Source) image.Rectangle {
	sx := float64(src.Width()) / displayW
	sy := float64(src.Height()) / displayH
	origin := src.Image().Bounds().Min
	r := image.Rect(
		int(math.Round(region.X*sx)),
		int(math.Round(region.Y*sy)),
		int(math.Round((region.X+region.Width)*sx)),
		int(math.Round((region.Y+region.Height)*sy)),
	)
	return r.Add(origin).Intersect(src.Image().Bounds())
}

// Apply installs the resampled raster: the object gets a new source and the
// region's size, keeps its position, leaves crop mode and a history entry is
// committed.
func (e *Engine) Apply(job Job, img image.Image) error {
	if e.s == nil || !e.s.pending || e.s.target != job.Target {
		return workspace.ErrNoActiveCrop
	}
	o, ok := e.ws.Get(job.Target)
	if !ok {
		e.abandon()
		return fmt.Errorf("crop target %d: %w", job.Target, workspace.ErrNotFound)
	}
	o.Source = e.ws.Pool().Add(img)
	o.Width = job.region.Width
	o.Height = job.region.Height
	e.abandon()
	if e.history != nil {
		e.history.Commit()
	}
	e.log.Info("crop committed", "object", o.ID, "source", job.SrcRect, "size", fmt.Sprintf("%dx%d", job.Width, job.Height))
	return nil
}

// Abort returns a pending session to editing after a failed resample.
func (e *Engine) Abort(job Job) {
	if e.s != nil && e.s.pending && e.s.target == job.Target {
		e.s.pending = false
	}
}

func (e *Engine) abandon() {
	e.ws.Unlock(e.s.target)
	e.s = nil
}

// Resample produces the cropped raster for job. It reads no session state,
// so callers may run it without holding the lock that guards the engine.
func (e *Engine) Resample(ctx context.Context, job Job) (image.Image, error) {
	img, err := e.resampler.Resample(ctx, job.Source.Image(), job.SrcRect, job.Width, job.Height)
	if err != nil {
		return nil, fmt.Errorf("resample crop of %d: %w", job.Target, err)
	}
	return img, nil
}
