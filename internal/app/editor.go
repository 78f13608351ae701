// Package app wires the workspace, gesture controllers, crop engine and
// history into the Editor that the UI and the command line drive.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"printboard/internal/config"
	"printboard/internal/crop"
	"printboard/internal/history"
	"printboard/internal/image"
	"printboard/internal/transform"
	"printboard/internal/workspace"
	"printboard/pkg/geometry"
)

// ErrGestureActive is returned by readers that must not observe a board in
// the middle of a gesture or an asynchronous commit, and by commands that
// would record history while a pointer gesture is live.
var ErrGestureActive = errors.New("gesture in progress")

// Decoder turns ingested bytes into an image.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (image.Decoded, error)
}

// Editor is the single entry point for commands and queries on one board.
// All methods are safe for concurrent use; slow steps (decode, crop
// resampling, export rendering) run without holding the lock.
type Editor struct {
	events

	mu     sync.Mutex
	queued []event

	cfg       *config.Config
	log       *slog.Logger
	ws        *workspace.Workspace
	history   *history.Manager
	transform *transform.Controller
	crop      *crop.Engine

	decoder    Decoder
	resampler  crop.Resampler
	rasterizer *image.Rasterizer
	previews   *previewCache

	paper       string
	orientation string
	inflight    int

	pointer  int // canonical pointer driving the current gesture, -1 if none
	cropDrag bool
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDecoder replaces the image decoder.
func WithDecoder(d Decoder) Option {
	return func(e *Editor) { e.decoder = d }
}

// WithResampler replaces the crop resampler.
func WithResampler(r crop.Resampler) Option {
	return func(e *Editor) { e.resampler = r }
}

// New builds an empty editor sized to the configured paper. A nil cfg uses
// config.Default.
func New(cfg *config.Config, opts ...Option) (*Editor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Editor{
		cfg:         cfg,
		log:         slog.Default(),
		decoder:     image.Decoder{MaxPixels: cfg.Objects.MaxPixels},
		resampler:   image.Resampler{},
		paper:       cfg.Canvas.Paper,
		orientation: cfg.Canvas.Orientation,
		pointer:     -1,
	}
	for _, opt := range opts {
		opt(e)
	}

	w, h := cfg.CanvasSize()
	e.ws = workspace.New(w, h, workspace.WithMinSize(cfg.Objects.MinSize))
	e.history = history.New(e.ws,
		history.WithCapacity(cfg.History.Capacity),
		history.WithLogger(e.log))
	c := committer{e}
	e.transform = transform.NewController(e.ws, c, transform.WithLogger(e.log))
	e.crop = crop.NewEngine(e.ws, c, e.resampler,
		crop.WithLogger(e.log),
		crop.WithInitialFraction(cfg.Crop.InitialFraction))
	e.rasterizer = image.NewRasterizer(e.log)
	e.previews = newPreviewCache()
	e.ws.Pool().OnRelease(e.previews.forget)
	return e, nil
}

// committer records history on behalf of the gesture controllers. It runs
// with the editor lock held.
type committer struct{ e *Editor }

func (c committer) Commit() { c.e.commitLocked() }

func (e *Editor) commitLocked() {
	e.history.Commit()
	e.collectLocked()
	e.queue(EventObjectsChanged, nil)
	e.queue(EventHistoryChanged, nil)
}

// collectLocked releases sources that neither the board nor any history
// entry references.
func (e *Editor) collectLocked() {
	keep := e.ws.LiveSources()
	for src := range e.history.Sources() {
		keep[src] = struct{}{}
	}
	if released := e.ws.Pool().Retain(keep); len(released) > 0 {
		e.log.Debug("sources released", "count", len(released))
	}
}

func (e *Editor) lock() { e.mu.Lock() }

// unlock releases the lock and then delivers the queued events.
func (e *Editor) unlock() {
	q := e.queued
	e.queued = nil
	e.mu.Unlock()
	for _, ev := range q {
		e.Emit(ev.typ, ev.data)
	}
}

func (e *Editor) queue(t EventType, data interface{}) {
	for i := range e.queued {
		if e.queued[i].typ == t {
			e.queued[i].data = data
			return
		}
	}
	e.queued = append(e.queued, event{typ: t, data: data})
}

// Config returns the active configuration.
func (e *Editor) Config() *config.Config {
	e.lock()
	defer e.unlock()
	return e.cfg
}

// HandleRadius returns the configured grip radius in board units.
func (e *Editor) HandleRadius() float64 {
	e.lock()
	defer e.unlock()
	return e.cfg.Handles.Radius
}

// Size returns the canvas size.
func (e *Editor) Size() geometry.Size {
	e.lock()
	defer e.unlock()
	return e.ws.Size()
}

// Paper returns the paper key and orientation.
func (e *Editor) Paper() (string, string) {
	e.lock()
	defer e.unlock()
	return e.paper, e.orientation
}

// Objects lists value copies of the objects in z-order.
func (e *Editor) Objects() []workspace.Object {
	e.lock()
	defer e.unlock()
	return e.ws.List()
}

// Object returns a copy of one object.
func (e *Editor) Object(id workspace.ObjectID) (workspace.Object, bool) {
	e.lock()
	defer e.unlock()
	o, ok := e.ws.Get(id)
	if !ok {
		return workspace.Object{}, false
	}
	return *o, true
}

// SelectedObject returns a copy of the selected object.
func (e *Editor) SelectedObject() (workspace.Object, bool) {
	e.lock()
	defer e.unlock()
	o, ok := e.ws.Selected()
	if !ok {
		return workspace.Object{}, false
	}
	return *o, true
}

// Bounds returns the axis-aligned box covering the rotated object.
func (e *Editor) Bounds(id workspace.ObjectID) (geometry.Rect, error) {
	e.lock()
	defer e.unlock()
	o, ok := e.ws.Get(id)
	if !ok {
		return geometry.Rect{}, fmt.Errorf("bounds of %d: %w", id, workspace.ErrNotFound)
	}
	return o.Bounds(), nil
}

// CanUndo reports whether Undo would change the board.
func (e *Editor) CanUndo() bool {
	e.lock()
	defer e.unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether Redo would change the board.
func (e *Editor) CanRedo() bool {
	e.lock()
	defer e.unlock()
	return e.history.CanRedo()
}

// GestureState returns the active transform gesture.
func (e *Editor) GestureState() transform.State {
	e.lock()
	defer e.unlock()
	return e.transform.State()
}

// CropView describes an open crop session. Region is local to the target's
// displayed box.
type CropView struct {
	Target  workspace.ObjectID
	Region  geometry.Rect
	Mode    crop.AspectMode
	Pending bool
}

// Crop returns the crop session, if any.
func (e *Editor) Crop() (CropView, bool) {
	e.lock()
	defer e.unlock()
	r, ok := e.crop.Region()
	if !ok {
		return CropView{}, false
	}
	return CropView{Target: e.crop.Target(), Region: r, Mode: e.crop.Mode(), Pending: e.crop.Pending()}, true
}

// Snapshot returns the current board state.
func (e *Editor) Snapshot() workspace.Snapshot {
	e.lock()
	defer e.unlock()
	return e.ws.Snapshot()
}

// busyLocked reports whether a reader would observe a torn state.
func (e *Editor) busyLocked() bool {
	return e.transform.Active() || e.crop.Pending() || e.inflight > 0
}

// gestureLocked reports whether a pointer gesture owns the board.
func (e *Editor) gestureLocked() bool {
	return e.transform.Active() || e.cropDrag
}

// ApplyConfig re-applies a reloaded configuration: paper, history
// capacity, object limits, crop size and handle metrics.
func (e *Editor) ApplyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.lock()
	prevPaper, prevOrient := e.paper, e.orientation
	e.cfg = cfg
	e.history.SetCapacity(cfg.History.Capacity)
	e.ws.SetMinSize(cfg.Objects.MinSize)
	e.crop.SetInitialFraction(cfg.Crop.InitialFraction)
	if d, ok := e.decoder.(image.Decoder); ok {
		d.MaxPixels = cfg.Objects.MaxPixels
		e.decoder = d
	}
	e.queue(EventObjectsChanged, nil)
	e.unlock()

	if cfg.Canvas.Paper != prevPaper || cfg.Canvas.Orientation != prevOrient {
		return e.SetPaper(cfg.Canvas.Paper, cfg.Canvas.Orientation)
	}
	return nil
}

// Ingest decodes data and places it as a new selected object on top of the
// board, scaled to fit the configured bound. Decoding runs without the lock.
func (e *Editor) Ingest(ctx context.Context, data []byte) (workspace.ObjectID, error) {
	e.lock()
	decoder := e.decoder
	e.unlock()
	dec, err := decoder.Decode(ctx, data)
	if err != nil {
		e.log.Warn("ingest failed", "err", err)
		return workspace.NoObject, err
	}

	e.lock()
	defer e.unlock()
	if e.gestureLocked() {
		return workspace.NoObject, ErrGestureActive
	}
	e.leaveCropLocked()
	cfg := e.cfg
	w, h := image.FitWithin(dec.Width, dec.Height, cfg.Objects.MaxIngestSize)
	src := e.ws.Pool().Add(dec.Image)
	o := e.ws.Add(src, cfg.Objects.DefaultX, cfg.Objects.DefaultY, w, h)
	o.Filters = workspace.FilterParams(cfg.Filters).Clamp()
	if err := e.ws.Select(o.ID); err == nil {
		e.queue(EventSelectionChanged, o.ID)
	}
	e.commitLocked()
	e.log.Info("image ingested", "object", o.ID, "format", dec.Format,
		"native", fmt.Sprintf("%dx%d", dec.Width, dec.Height), "size", fmt.Sprintf("%gx%g", w, h))
	return o.ID, nil
}
