package app

import (
	"context"
	"fmt"
	"strings"

	"printboard/internal/config"
	"printboard/internal/crop"
	"printboard/internal/workspace"
	"printboard/pkg/geometry"
)

// leaveCropLocked cancels an open crop session unless its commit is in
// flight.
func (e *Editor) leaveCropLocked() {
	if e.crop.Active() && !e.crop.Pending() {
		_ = e.crop.Cancel()
		e.queue(EventCropChanged, nil)
	}
}

// Select makes id the selected object.
func (e *Editor) Select(id workspace.ObjectID) error {
	e.lock()
	defer e.unlock()
	return e.selectLocked(id)
}

func (e *Editor) selectLocked(id workspace.ObjectID) error {
	if e.ws.SelectedID() == id {
		return nil
	}
	if err := e.ws.Select(id); err != nil {
		return err
	}
	if e.crop.Target() != id {
		e.leaveCropLocked()
	}
	e.queue(EventSelectionChanged, id)
	return nil
}

// Deselect clears the selection.
func (e *Editor) Deselect() {
	e.lock()
	defer e.unlock()
	e.deselectLocked()
}

func (e *Editor) deselectLocked() {
	if e.ws.SelectedID() == workspace.NoObject {
		return
	}
	e.ws.Deselect()
	e.leaveCropLocked()
	e.queue(EventSelectionChanged, workspace.NoObject)
}

// Delete removes an object permanently, prunes history entries that refer
// to images no longer on the board and records the deletion.
func (e *Editor) Delete(id workspace.ObjectID) error {
	if id == workspace.NoObject {
		return workspace.ErrNoSelection
	}
	e.lock()
	defer e.unlock()
	if e.gestureLocked() {
		return ErrGestureActive
	}
	if e.crop.Target() == id {
		e.leaveCropLocked()
	}
	wasSelected := e.ws.SelectedID() == id
	if _, err := e.ws.Delete(id); err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	if wasSelected {
		e.queue(EventSelectionChanged, workspace.NoObject)
	}
	pruned := e.history.PruneDangling(e.ws.LiveSources())
	e.commitLocked()
	e.log.Info("object deleted", "object", id, "pruned", pruned)
	return nil
}

// BringToFront moves an object to the top of the z-order.
func (e *Editor) BringToFront(id workspace.ObjectID) error {
	return e.restack(id, (*workspace.Workspace).BringToFront)
}

// SendToBack moves an object to the bottom of the z-order.
func (e *Editor) SendToBack(id workspace.ObjectID) error {
	return e.restack(id, (*workspace.Workspace).SendToBack)
}

func (e *Editor) restack(id workspace.ObjectID, fn func(*workspace.Workspace, workspace.ObjectID) error) error {
	if id == workspace.NoObject {
		return workspace.ErrNoSelection
	}
	e.lock()
	defer e.unlock()
	if e.gestureLocked() {
		return ErrGestureActive
	}
	before := e.ws.Snapshot()
	if err := fn(e.ws, id); err != nil {
		return err
	}
	if !e.ws.Snapshot().Equal(before) {
		e.commitLocked()
	}
	return nil
}

// RotateLeft turns an object a quarter turn counter-clockwise.
func (e *Editor) RotateLeft(id workspace.ObjectID) error {
	e.lock()
	defer e.unlock()
	if e.gestureLocked() {
		return ErrGestureActive
	}
	return e.transform.RotateLeft(id)
}

// RotateRight turns an object a quarter turn clockwise.
func (e *Editor) RotateRight(id workspace.ObjectID) error {
	e.lock()
	defer e.unlock()
	if e.gestureLocked() {
		return ErrGestureActive
	}
	return e.transform.RotateRight(id)
}

// editableLocked returns the object behind a property command.
func (e *Editor) editableLocked(id workspace.ObjectID) (*workspace.Object, error) {
	if id == workspace.NoObject {
		return nil, workspace.ErrNoSelection
	}
	if e.gestureLocked() {
		return nil, ErrGestureActive
	}
	o, ok := e.ws.Get(id)
	if !ok {
		return nil, fmt.Errorf("object %d: %w", id, workspace.ErrNotFound)
	}
	if e.ws.Locked(id) {
		return nil, fmt.Errorf("object %d: %w", id, workspace.ErrObjectBusy)
	}
	return o, nil
}

// SetFilterParams clamps params into their bounds and applies them.
// Non-finite values are rejected.
func (e *Editor) SetFilterParams(id workspace.ObjectID, params workspace.FilterParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	e.lock()
	defer e.unlock()
	o, err := e.editableLocked(id)
	if err != nil {
		return err
	}
	params = params.Clamp()
	if o.Filters == params {
		return nil
	}
	o.Filters = params
	e.commitLocked()
	return nil
}

// ResetFilterParams restores the configured default filters.
func (e *Editor) ResetFilterParams(id workspace.ObjectID) error {
	e.lock()
	defaults := workspace.FilterParams(e.cfg.Filters)
	e.unlock()
	return e.SetFilterParams(id, defaults)
}

// SetSize applies numeric width/height input. With keepRatio the changed
// dimension drives the other one; width wins when both changed.
func (e *Editor) SetSize(id workspace.ObjectID, width, height float64, keepRatio bool) error {
	e.lock()
	defer e.unlock()
	o, err := e.editableLocked(id)
	if err != nil {
		return err
	}
	minSize := e.ws.MinSize()
	if err := checkDimension("width", width, minSize); err != nil {
		return err
	}
	if err := checkDimension("height", height, minSize); err != nil {
		return err
	}
	if keepRatio {
		ratio := o.Width / o.Height
		switch {
		case width != o.Width:
			height = width / ratio
		case height != o.Height:
			width = height * ratio
		}
		if width < minSize || height < minSize {
			return &workspace.InvalidDimensionError{Field: "size", Value: min(width, height), Reason: "ratio would push a side below the minimum"}
		}
	}
	if width == o.Width && height == o.Height {
		return nil
	}
	o.Width, o.Height = width, height
	e.commitLocked()
	return nil
}

func checkDimension(field string, v, lo float64) error {
	if !geometry.IsFinite(v) {
		return &workspace.InvalidDimensionError{Field: field, Value: v, Reason: "not a number"}
	}
	if v < lo {
		return &workspace.InvalidDimensionError{Field: field, Value: v, Reason: fmt.Sprintf("below minimum %g", lo)}
	}
	return nil
}

// SetPosition moves an object's top-left corner, clamped into the canvas.
func (e *Editor) SetPosition(id workspace.ObjectID, x, y float64) error {
	if !geometry.IsFinite(x) {
		return &workspace.InvalidDimensionError{Field: "x", Value: x, Reason: "not a number"}
	}
	if !geometry.IsFinite(y) {
		return &workspace.InvalidDimensionError{Field: "y", Value: y, Reason: "not a number"}
	}
	e.lock()
	defer e.unlock()
	o, err := e.editableLocked(id)
	if err != nil {
		return err
	}
	before := o.Geometry()
	o.X, o.Y = x, y
	e.ws.ClampPosition(o)
	if !o.Geometry().Equal(before) {
		e.commitLocked()
	}
	return nil
}

// SetPaper resizes the canvas to a paper and orientation and pulls objects
// back inside it.
func (e *Editor) SetPaper(paper, orientation string) error {
	e.lock()
	defer e.unlock()
	if e.busyLocked() {
		return ErrGestureActive
	}
	if err := e.resizeLocked(paper, orientation); err != nil {
		return err
	}
	e.commitLocked()
	e.log.Info("paper changed", "paper", e.paper, "orientation", e.orientation, "size", e.ws.Size())
	return nil
}

func (e *Editor) resizeLocked(paper, orientation string) error {
	p, err := config.LookupPaper(paper)
	if err != nil {
		return err
	}
	if orientation != config.Landscape {
		orientation = config.Portrait
	}
	w, h := p.Units(orientation)
	if err := e.ws.SetSize(w, h); err != nil {
		return err
	}
	e.paper, e.orientation = strings.ToLower(paper), orientation
	e.queue(EventCanvasChanged, e.ws.Size())
	return nil
}

// Clear removes every object, releases every source, closes any crop
// session and resets history.
func (e *Editor) Clear() error {
	e.lock()
	defer e.unlock()
	if e.busyLocked() {
		return ErrGestureActive
	}
	e.leaveCropLocked()
	e.ws.Clear()
	e.history.Reset()
	e.ws.Pool().Reset()
	e.queue(EventSelectionChanged, workspace.NoObject)
	e.queue(EventObjectsChanged, nil)
	e.queue(EventHistoryChanged, nil)
	e.log.Info("canvas cleared")
	return nil
}

// Undo restores the previous snapshot. It reports false when nothing
// changed, including while a gesture or crop commit is in flight.
func (e *Editor) Undo() bool {
	return e.step((*Editor).undoLocked)
}

// Redo re-applies the next snapshot.
func (e *Editor) Redo() bool {
	return e.step((*Editor).redoLocked)
}

func (e *Editor) undoLocked() bool { return e.history.Undo() }
func (e *Editor) redoLocked() bool { return e.history.Redo() }

func (e *Editor) step(fn func(*Editor) bool) bool {
	e.lock()
	defer e.unlock()
	if e.busyLocked() {
		return false
	}
	e.leaveCropLocked()
	hadSelection := e.ws.SelectedID() != workspace.NoObject
	if !fn(e) {
		return false
	}
	if hadSelection {
		e.queue(EventSelectionChanged, workspace.NoObject)
	}
	e.queue(EventObjectsChanged, nil)
	e.queue(EventHistoryChanged, nil)
	return true
}

// EnterCropMode opens a crop session on the selected object.
func (e *Editor) EnterCropMode(id workspace.ObjectID) error {
	e.lock()
	defer e.unlock()
	if e.gestureLocked() {
		return ErrGestureActive
	}
	if err := e.crop.Enter(id); err != nil {
		return err
	}
	e.queue(EventCropChanged, id)
	return nil
}

// SetAspectMode constrains the crop region.
func (e *Editor) SetAspectMode(mode crop.AspectMode) error {
	e.lock()
	defer e.unlock()
	if e.cropDrag {
		return ErrGestureActive
	}
	if err := e.crop.SetAspectMode(mode); err != nil {
		return err
	}
	e.queue(EventCropChanged, e.crop.Target())
	return nil
}

// CancelCrop leaves crop mode without touching the object.
func (e *Editor) CancelCrop() error {
	e.lock()
	defer e.unlock()
	if e.crop.Pending() {
		return crop.ErrCommitPending
	}
	if e.cropDrag {
		return ErrGestureActive
	}
	if err := e.crop.Cancel(); err != nil {
		return err
	}
	e.queue(EventCropChanged, nil)
	return nil
}

// CommitCrop replaces the target's source with the cropped pixels. The
// resampling runs without the lock; meanwhile the target stays locked so no
// other command can change it, and a second commit is rejected.
func (e *Editor) CommitCrop(ctx context.Context) error {
	e.lock()
	if e.gestureLocked() {
		e.unlock()
		return ErrGestureActive
	}
	job, err := e.crop.Prepare()
	if err != nil {
		e.unlock()
		return err
	}
	e.inflight++
	e.queue(EventCropChanged, job.Target)
	e.unlock()

	img, rerr := e.crop.Resample(ctx, job)

	e.lock()
	defer e.unlock()
	e.inflight--
	if rerr != nil {
		e.crop.Abort(job)
		e.queue(EventCropChanged, job.Target)
		e.log.Warn("crop failed", "object", job.Target, "err", rerr)
		return rerr
	}
	if err := e.crop.Apply(job, img); err != nil {
		return err
	}
	e.queue(EventCropChanged, nil)
	return nil
}

// Restore replaces the board with a snapshot and starts a fresh history
// holding only that snapshot.
func (e *Editor) Restore(snap workspace.Snapshot) error {
	e.lock()
	defer e.unlock()
	if e.busyLocked() {
		return ErrGestureActive
	}
	e.restoreLocked(snap)
	return nil
}

func (e *Editor) restoreLocked(snap workspace.Snapshot) {
	e.leaveCropLocked()
	e.ws.Restore(snap)
	e.history.Restart()
	e.collectLocked()
	e.queue(EventSelectionChanged, workspace.NoObject)
	e.queue(EventObjectsChanged, nil)
	e.queue(EventHistoryChanged, nil)
}
