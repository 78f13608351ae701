// Package workspace holds the canonical list of placed objects, their z-order
// and the current selection.
package workspace

import (
	"fmt"

	"printboard/pkg/geometry"
)

// Workspace is the ordered object list of a fixed-size virtual canvas. The
// slice order is the z-order: the last object is drawn on top.
//
// Workspace is not safe for concurrent use; callers serialize access.
type Workspace struct {
	width   float64
	height  float64
	minSize float64

	objects  []*Object
	selected ObjectID
	nextID   ObjectID
	locks    map[ObjectID]struct{}
	pool     *SourcePool
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithMinSize overrides the minimum object dimension.
func WithMinSize(size float64) Option {
	return func(w *Workspace) {
		if size > 0 {
			w.minSize = size
		}
	}
}

// WithSourcePool shares an existing source pool.
func WithSourcePool(p *SourcePool) Option {
	return func(w *Workspace) {
		w.pool = p
	}
}

// New creates an empty workspace of the given canvas size.
func New(width, height float64, opts ...Option) *Workspace {
	w := &Workspace{
		width:   width,
		height:  height,
		minSize: DefaultMinSize,
		locks:   make(map[ObjectID]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.pool == nil {
		w.pool = NewSourcePool()
	}
	return w
}

// Pool returns the source pool backing this workspace.
func (w *Workspace) Pool() *SourcePool { return w.pool }

// MinSize returns the minimum object dimension.
func (w *Workspace) MinSize() float64 { return w.minSize }

// SetMinSize changes the minimum applied to later edits. Objects already
// smaller keep their size. Non-positive sizes are ignored.
func (w *Workspace) SetMinSize(size float64) {
	if size > 0 {
		w.minSize = size
	}
}

// Size returns the canvas size.
func (w *Workspace) Size() geometry.Size {
	return geometry.NewSize(w.width, w.height)
}

// Bounds returns the canvas rectangle.
func (w *Workspace) Bounds() geometry.Rect {
	return geometry.NewRect(0, 0, w.width, w.height)
}

// SetSize resizes the canvas and pulls every object back inside it.
func (w *Workspace) SetSize(width, height float64) error {
	if !geometry.IsFinite(width) || width < w.minSize {
		return &InvalidDimensionError{Field: "canvas width", Value: width, Reason: "below minimum"}
	}
	if !geometry.IsFinite(height) || height < w.minSize {
		return &InvalidDimensionError{Field: "canvas height", Value: height, Reason: "below minimum"}
	}
	w.width, w.height = width, height
	for _, o := range w.objects {
		w.ClampPosition(o)
	}
	return nil
}

// ClampPosition moves o so that its unrotated box lies inside the canvas.
// An object wider than the canvas is pinned to the left edge.
func (w *Workspace) ClampPosition(o *Object) {
	o.X = geometry.Clamp(o.X, 0, w.width-o.Width)
	o.Y = geometry.Clamp(o.Y, 0, w.height-o.Height)
}

// Add places a new object on top of the z-order. The size is raised to the
// minimum when needed and the position clamped inside the canvas.
func (w *Workspace) Add(src *Source, x, y, width, height float64) *Object {
	w.nextID++
	o := &Object{
		ID:      w.nextID,
		X:       x,
		Y:       y,
		Width:   max(width, w.minSize),
		Height:  max(height, w.minSize),
		Filters: DefaultFilters,
		Source:  src,
	}
	w.ClampPosition(o)
	w.objects = append(w.objects, o)
	return o
}

// Get returns the live object with the given id.
func (w *Workspace) Get(id ObjectID) (*Object, bool) {
	i := w.index(id)
	if i < 0 {
		return nil, false
	}
	return w.objects[i], true
}

// Objects returns the live objects in z-order. The slice is a copy; the
// objects are not.
func (w *Workspace) Objects() []*Object {
	out := make([]*Object, len(w.objects))
	copy(out, w.objects)
	return out
}

// List returns value copies of every object in z-order.
func (w *Workspace) List() []Object {
	out := make([]Object, len(w.objects))
	for i, o := range w.objects {
		out[i] = *o
	}
	return out
}

// Len returns the number of objects.
func (w *Workspace) Len() int { return len(w.objects) }

func (w *Workspace) index(id ObjectID) int {
	for i, o := range w.objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// TopmostAt returns the highest object whose rotated body contains p.
func (w *Workspace) TopmostAt(p geometry.Point2D) (*Object, bool) {
	for i := len(w.objects) - 1; i >= 0; i-- {
		if w.objects[i].Contains(p) {
			return w.objects[i], true
		}
	}
	return nil, false
}

// Select makes id the single selected object.
func (w *Workspace) Select(id ObjectID) error {
	if w.index(id) < 0 {
		return fmt.Errorf("select %d: %w", id, ErrNotFound)
	}
	w.selected = id
	return nil
}

// Deselect clears the selection.
func (w *Workspace) Deselect() {
	w.selected = NoObject
}

// SelectedID returns the selected id or NoObject.
func (w *Workspace) SelectedID() ObjectID { return w.selected }

// Selected returns the selected object.
func (w *Workspace) Selected() (*Object, bool) {
	if w.selected == NoObject {
		return nil, false
	}
	return w.Get(w.selected)
}

// Delete removes an object. The selection is cleared when it pointed at it.
func (w *Workspace) Delete(id ObjectID) (*Object, error) {
	i := w.index(id)
	if i < 0 {
		return nil, fmt.Errorf("delete %d: %w", id, ErrNotFound)
	}
	if _, locked := w.locks[id]; locked {
		return nil, fmt.Errorf("delete %d: %w", id, ErrObjectBusy)
	}
	o := w.objects[i]
	w.objects = append(w.objects[:i], w.objects[i+1:]...)
	if w.selected == id {
		w.selected = NoObject
	}
	return o, nil
}

// BringToFront moves an object to the top of the z-order.
func (w *Workspace) BringToFront(id ObjectID) error {
	i := w.index(id)
	if i < 0 {
		return fmt.Errorf("bring to front %d: %w", id, ErrNotFound)
	}
	o := w.objects[i]
	w.objects = append(append(w.objects[:i:i], w.objects[i+1:]...), o)
	return nil
}

// SendToBack moves an object to the bottom of the z-order.
func (w *Workspace) SendToBack(id ObjectID) error {
	i := w.index(id)
	if i < 0 {
		return fmt.Errorf("send to back %d: %w", id, ErrNotFound)
	}
	o := w.objects[i]
	copy(w.objects[1:i+1], w.objects[:i])
	w.objects[0] = o
	return nil
}

// Clear removes every object, lock and selection.
func (w *Workspace) Clear() {
	w.objects = nil
	w.selected = NoObject
	w.locks = make(map[ObjectID]struct{})
}

// LiveSources returns the set of sources referenced by live objects.
func (w *Workspace) LiveSources() map[*Source]struct{} {
	set := make(map[*Source]struct{}, len(w.objects))
	for _, o := range w.objects {
		if o.Source != nil {
			set[o.Source] = struct{}{}
		}
	}
	return set
}

// Lock marks an object as owned by a crop session or an outstanding
// asynchronous step. Gestures and structural commands refuse locked objects.
func (w *Workspace) Lock(id ObjectID) error {
	if w.index(id) < 0 {
		return fmt.Errorf("lock %d: %w", id, ErrNotFound)
	}
	if _, ok := w.locks[id]; ok {
		return fmt.Errorf("lock %d: %w", id, ErrObjectBusy)
	}
	w.locks[id] = struct{}{}
	return nil
}

// Unlock releases a lock taken with Lock. Unlocking a free id is a no-op.
func (w *Workspace) Unlock(id ObjectID) {
	delete(w.locks, id)
}

// Locked reports whether id is locked.
func (w *Workspace) Locked(id ObjectID) bool {
	_, ok := w.locks[id]
	return ok
}
