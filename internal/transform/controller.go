// Package transform turns pointer gestures into drag, resize and rotate
// mutations of the selected object.
package transform

import (
	"fmt"
	"log/slog"

	"printboard/internal/workspace"
	"printboard/pkg/geometry"
)

// State is the gesture currently owned by a Controller.
type State int

const (
	Idle State = iota
	Dragging
	Resizing
	Rotating
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case Rotating:
		return "rotating"
	default:
		return "idle"
	}
}

// Committer records a history entry after a state-changing operation.
type Committer interface {
	Commit()
}

// gesture is the single active gesture. A nil gesture means Idle, so two
// simultaneous gestures cannot be represented.
type gesture interface {
	state() State
}

type dragGesture struct {
	offset geometry.Point2D
}

func (dragGesture) state() State { return Dragging }

type resizeGesture struct {
	handle   Handle
	start    geometry.Point2D
	rect     geometry.Rect
	rotation float64
	lock     bool
}

func (*resizeGesture) state() State { return Resizing }

type rotateGesture struct {
	center        geometry.Point2D
	startAngle    float64
	startRotation float64
}

func (rotateGesture) state() State { return Rotating }

// Controller owns the exclusive gesture state machine for one workspace.
type Controller struct {
	ws      *workspace.Workspace
	history Committer
	log     *slog.Logger

	active gesture
	target workspace.ObjectID
	before workspace.Geometry
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// NewController creates an idle controller. history may be nil.
func NewController(ws *workspace.Workspace, history Committer, opts ...Option) *Controller {
	c := &Controller{ws: ws, history: history, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the active gesture kind.
func (c *Controller) State() State {
	if c.active == nil {
		return Idle
	}
	return c.active.state()
}

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool { return c.active != nil }

// Target returns the object of the active gesture, or NoObject.
func (c *Controller) Target() workspace.ObjectID {
	if c.active == nil {
		return workspace.NoObject
	}
	return c.target
}

// begin validates the gesture preconditions: idle controller, id selected,
// object present and not locked.
func (c *Controller) begin(id workspace.ObjectID, p geometry.Point2D) (*workspace.Object, bool) {
	if c.active != nil || id == workspace.NoObject || c.ws.SelectedID() != id || !p.IsFinite() {
		return nil, false
	}
	o, ok := c.ws.Get(id)
	if !ok || c.ws.Locked(id) {
		return nil, false
	}
	c.target = id
	c.before = o.Geometry()
	return o, true
}

// StartDrag begins moving the selected object. It records the pointer offset
// from the object's top-left corner.
func (c *Controller) StartDrag(id workspace.ObjectID, p geometry.Point2D) bool {
	o, ok := c.begin(id, p)
	if !ok {
		return false
	}
	c.active = dragGesture{offset: p.Sub(o.Rect().TopLeft())}
	c.log.Debug("gesture start", "state", Dragging, "object", id)
	return true
}

// StartResize begins resizing from one of the eight handles. lock keeps the
// aspect ratio of the object at gesture start.
func (c *Controller) StartResize(id workspace.ObjectID, h Handle, p geometry.Point2D, lock bool) bool {
	if h == HandleNone {
		return false
	}
	o, ok := c.begin(id, p)
	if !ok {
		return false
	}
	c.active = &resizeGesture{handle: h, start: p, rect: o.Rect(), rotation: o.Rotation, lock: lock}
	c.log.Debug("gesture start", "state", Resizing, "object", id, "handle", h)
	return true
}

// StartRotate begins rotating about the object's visual center.
func (c *Controller) StartRotate(id workspace.ObjectID, p geometry.Point2D) bool {
	o, ok := c.begin(id, p)
	if !ok {
		return false
	}
	center := o.Center()
	c.active = rotateGesture{
		center:        center,
		startAngle:    geometry.AngleTo(center, p),
		startRotation: o.Rotation,
	}
	c.log.Debug("gesture start", "state", Rotating, "object", id)
	return true
}

// SetAspectLock toggles the aspect lock of an active resize.
func (c *Controller) SetAspectLock(lock bool) {
	if g, ok := c.active.(*resizeGesture); ok {
		g.lock = lock
	}
}

// Update feeds the current pointer position into the active gesture.
// Non-finite positions are ignored and the gesture continues.
func (c *Controller) Update(p geometry.Point2D) {
	if c.active == nil || !p.IsFinite() {
		return
	}
	o, ok := c.ws.Get(c.target)
	if !ok {
		// The target vanished underneath the gesture.
		c.active = nil
		return
	}

	switch g := c.active.(type) {
	case dragGesture:
		pos := p.Sub(g.offset)
		o.X, o.Y = pos.X, pos.Y
		c.ws.ClampPosition(o)
	case *resizeGesture:
		r := ResizeRect(g.rect, g.rotation, g.handle, p.Sub(g.start), ResizeOptions{
			Lock:    g.lock,
			MinSize: c.ws.MinSize(),
		})
		o.X, o.Y, o.Width, o.Height = r.X, r.Y, r.Width, r.Height
	case rotateGesture:
		delta := geometry.AngleTo(g.center, p) - g.startAngle
		o.Rotation = geometry.NormalizeDegrees(g.startRotation + geometry.Degrees(delta))
	}
}

// End returns the controller to Idle and commits history when the gesture
// changed the object's geometry. It reports whether a commit happened.
func (c *Controller) End() bool {
	if c.active == nil {
		return false
	}
	state := c.active.state()
	c.active = nil

	o, ok := c.ws.Get(c.target)
	if !ok || o.Geometry().Equal(c.before) {
		c.log.Debug("gesture end", "state", state, "object", c.target, "changed", false)
		return false
	}
	if c.history != nil {
		c.history.Commit()
	}
	c.log.Debug("gesture end", "state", state, "object", c.target, "changed", true)
	return true
}

// RotateLeft turns an object 90 degrees counter-clockwise and commits.
func (c *Controller) RotateLeft(id workspace.ObjectID) error {
	return c.rotateBy(id, -90)
}

// RotateRight turns an object 90 degrees clockwise and commits.
func (c *Controller) RotateRight(id workspace.ObjectID) error {
	return c.rotateBy(id, 90)
}

// rotateBy applies a discrete quarter turn. Width and height swap when the
// result is 90 or 270, where the box's long and short axes exchange.
func (c *Controller) rotateBy(id workspace.ObjectID, deg float64) error {
	if id == workspace.NoObject {
		return workspace.ErrNoSelection
	}
	o, ok := c.ws.Get(id)
	if !ok {
		return fmt.Errorf("rotate %d: %w", id, workspace.ErrNotFound)
	}
	if c.ws.Locked(id) || c.Target() == id {
		return fmt.Errorf("rotate %d: %w", id, workspace.ErrObjectBusy)
	}
	o.Rotation = geometry.NormalizeDegrees(o.Rotation + deg)
	if o.Rotation == 90 || o.Rotation == 270 {
		o.Width, o.Height = o.Height, o.Width
	}
	if c.history != nil {
		c.history.Commit()
	}
	c.log.Debug("rotate", "object", id, "rotation", o.Rotation)
	return nil
}
