package app

import (
	"printboard/internal/input"
	"printboard/internal/transform"
	"printboard/internal/workspace"
	"printboard/pkg/geometry"
)

// HitKind classifies what lies under a point.
type HitKind int

const (
	HitNone HitKind = iota
	HitBody
	HitHandle
	HitRotate
	HitCropRegion
	HitCropHandle
)

// Hit is the result of a hit test.
type Hit struct {
	Kind   HitKind
	Object workspace.ObjectID
	Handle transform.Handle
}

// HandleSpot is one grip of the selected object in workspace coordinates.
type HandleSpot struct {
	Handle transform.Handle
	Pos    geometry.Point2D
}

// HandleLayout returns the resize grips and the rotate grip of an object.
// Positions derive from the object's geometry alone, so every object always
// has a complete, current set.
func (e *Editor) HandleLayout(id workspace.ObjectID) ([]HandleSpot, geometry.Point2D, bool) {
	e.lock()
	defer e.unlock()
	o, ok := e.ws.Get(id)
	if !ok {
		return nil, geometry.Point2D{}, false
	}
	spots, rot := e.layoutLocked(o)
	return spots, rot, true
}

func (e *Editor) layoutLocked(o *workspace.Object) ([]HandleSpot, geometry.Point2D) {
	r := o.Rect()
	c := r.Center()
	spots := make([]HandleSpot, 0, len(transform.Handles))
	for _, h := range transform.Handles {
		local := h.LocalPosition(r.Size()).Add(r.TopLeft())
		spots = append(spots, HandleSpot{Handle: h, Pos: geometry.RotateAround(local, c, o.Rotation)})
	}
	top := geometry.Point2D{X: c.X, Y: r.Y - e.cfg.Handles.RotateOffset}
	return spots, geometry.RotateAround(top, c, o.Rotation)
}

// HitTest reports what a pointer at p would grab.
func (e *Editor) HitTest(p geometry.Point2D) Hit {
	e.lock()
	defer e.unlock()
	return e.hitLocked(p)
}

func (e *Editor) hitLocked(p geometry.Point2D) Hit {
	radius := e.cfg.Handles.Radius
	if e.crop.Active() {
		o, ok := e.ws.Get(e.crop.Target())
		if !ok {
			return Hit{}
		}
		local := o.Rect().ToLocal(p, o.Rotation)
		if h := e.crop.RegionHandleAt(local, radius); h != transform.HandleNone {
			return Hit{Kind: HitCropHandle, Object: o.ID, Handle: h}
		}
		if r, _ := e.crop.Region(); r.Contains(local) {
			return Hit{Kind: HitCropRegion, Object: o.ID}
		}
		return Hit{}
	}

	if o, ok := e.ws.Selected(); ok && !e.ws.Locked(o.ID) {
		spots, rot := e.layoutLocked(o)
		if rot.Distance(p) <= radius {
			return Hit{Kind: HitRotate, Object: o.ID}
		}
		for _, s := range spots {
			if s.Pos.Distance(p) <= radius {
				return Hit{Kind: HitHandle, Object: o.ID, Handle: s.Handle}
			}
		}
	}
	if o, ok := e.ws.TopmostAt(p); ok {
		return Hit{Kind: HitBody, Object: o.ID}
	}
	return Hit{}
}

// HandlePointer routes one canonical pointer event. Only the first pointer
// to go down drives a gesture; others are ignored until it is released.
func (e *Editor) HandlePointer(ev input.Event) {
	e.lock()
	defer e.unlock()

	switch ev.Phase {
	case input.Start:
		if e.pointer != -1 {
			return
		}
		if e.startLocked(ev) {
			e.pointer = ev.Pointer
		}
	case input.Move:
		if ev.Pointer != e.pointer {
			return
		}
		e.moveLocked(ev)
	case input.End:
		if ev.Pointer != e.pointer {
			return
		}
		e.moveLocked(ev)
		e.endLocked()
		e.pointer = -1
	}
}

// startLocked begins a gesture and reports whether the pointer should be
// tracked.
func (e *Editor) startLocked(ev input.Event) bool {
	hit := e.hitLocked(ev.Pos)
	switch hit.Kind {
	case HitCropHandle, HitCropRegion:
		o, _ := e.ws.Get(hit.Object)
		local := o.Rect().ToLocal(ev.Pos, o.Rotation)
		if hit.Kind == HitCropHandle {
			e.cropDrag = e.crop.StartResize(hit.Handle, local)
		} else {
			e.cropDrag = e.crop.StartMove(local)
		}
		return e.cropDrag
	case HitRotate:
		return e.transform.StartRotate(hit.Object, ev.Pos)
	case HitHandle:
		return e.transform.StartResize(hit.Object, hit.Handle, ev.Pos, ev.Mods.Has(input.ModShift))
	case HitBody:
		if e.crop.Active() {
			return false
		}
		if err := e.selectLocked(hit.Object); err != nil {
			return false
		}
		return e.transform.StartDrag(hit.Object, ev.Pos)
	default:
		if !e.crop.Active() {
			e.deselectLocked()
		}
		return false
	}
}

func (e *Editor) moveLocked(ev input.Event) {
	if e.cropDrag {
		o, ok := e.ws.Get(e.crop.Target())
		if !ok {
			return
		}
		e.crop.Update(o.Rect().ToLocal(ev.Pos, o.Rotation))
		e.queue(EventCropChanged, o.ID)
		return
	}
	if !e.transform.Active() {
		return
	}
	e.transform.SetAspectLock(ev.Mods.Has(input.ModShift))
	e.transform.Update(ev.Pos)
	e.queue(EventObjectsChanged, nil)
}

func (e *Editor) endLocked() {
	if e.cropDrag {
		e.crop.EndGesture()
		e.cropDrag = false
		e.queue(EventCropChanged, e.crop.Target())
		return
	}
	e.transform.End()
}
