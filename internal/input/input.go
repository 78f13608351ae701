// Package input folds mouse and touch events into one canonical pointer
// stream, so gesture state machines never see which device produced an
// event.
package input

import (
	"log/slog"

	"printboard/pkg/geometry"
)

// MaxPointers bounds the simultaneous canonical pointers: pointer 0 is the
// mouse, pointers 1-9 are touch slots.
const MaxPointers = 10

// MousePointer is the canonical id of the mouse.
const MousePointer = 0

// Phase is the position of an event inside one gesture.
type Phase int

const (
	Start Phase = iota
	Move
	End
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "start"
	case Move:
		return "move"
	default:
		return "end"
	}
}

// Modifiers is a bitmask of held keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
)

// Has reports whether every bit of m2 is set.
func (m Modifiers) Has(m2 Modifiers) bool { return m&m2 == m2 }

// Event is one canonical pointer event.
type Event struct {
	Pointer int
	Pos     geometry.Point2D
	Phase   Phase
	Mods    Modifiers
}

// Sink consumes canonical events.
type Sink func(Event)

type pointerState struct {
	down bool
	last geometry.Point2D
}

// Unifier tracks every physical pointer and emits canonical events. It is
// not safe for concurrent use; feed it from the UI goroutine.
type Unifier struct {
	sink     Sink
	guard    func(active bool)
	log      *slog.Logger
	pointers [MaxPointers]pointerState
	touchMap [MaxPointers]int
	used     [MaxPointers]bool
	active   int
}

// Option configures a Unifier.
type Option func(*Unifier)

// WithGuard installs a callback fired when the first pointer goes down
// (true) and when the last one comes up (false). The UI uses it to suspend
// platform scrolling and text selection while a gesture is active.
func WithGuard(fn func(active bool)) Option {
	return func(u *Unifier) { u.guard = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(u *Unifier) {
		if l != nil {
			u.log = l
		}
	}
}

// New creates a Unifier delivering to sink.
func New(sink Sink, opts ...Option) *Unifier {
	u := &Unifier{sink: sink, log: slog.Default()}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Active returns the number of pointers currently down.
func (u *Unifier) Active() int { return u.active }

// MouseDown feeds a primary button press.
func (u *Unifier) MouseDown(x, y float64, mods Modifiers) {
	u.press(MousePointer, geometry.Point2D{X: x, Y: y}, mods)
}

// MouseMove feeds cursor motion. Hover motion with no button held is dropped.
func (u *Unifier) MouseMove(x, y float64, mods Modifiers) {
	u.move(MousePointer, geometry.Point2D{X: x, Y: y}, mods)
}

// MouseUp feeds a primary button release.
func (u *Unifier) MouseUp(x, y float64, mods Modifiers) {
	u.release(MousePointer, geometry.Point2D{X: x, Y: y}, mods)
}

// TouchDown feeds a new touch point identified by the platform id.
func (u *Unifier) TouchDown(id int, x, y float64) {
	slot := u.touchSlot(id, true)
	if slot < 0 {
		u.log.Debug("touch ignored, all slots busy", "touch", id)
		return
	}
	u.press(slot, geometry.Point2D{X: x, Y: y}, 0)
}

// TouchMove feeds motion of a known touch point.
func (u *Unifier) TouchMove(id int, x, y float64) {
	if slot := u.touchSlot(id, false); slot > 0 {
		u.move(slot, geometry.Point2D{X: x, Y: y}, 0)
	}
}

// TouchUp feeds the lift of a touch point.
func (u *Unifier) TouchUp(id int, x, y float64) {
	if slot := u.touchSlot(id, false); slot > 0 {
		u.release(slot, geometry.Point2D{X: x, Y: y}, 0)
		u.freeSlot(slot)
	}
}

// TouchCancel ends a touch point at its last known position. Gestures have
// no cancel path, so a cancelled touch ends like a lift.
func (u *Unifier) TouchCancel(id int) {
	if slot := u.touchSlot(id, false); slot > 0 {
		u.release(slot, u.pointers[slot].last, 0)
		u.freeSlot(slot)
	}
}

// touchSlot maps a platform touch id to a pointer slot 1-9, allocating one
// when alloc is set. It returns -1 when the id is unknown or all slots are
// busy.
func (u *Unifier) touchSlot(id int, alloc bool) int {
	for i := 1; i < MaxPointers; i++ {
		if u.used[i] && u.touchMap[i] == id {
			return i
		}
	}
	if !alloc {
		return -1
	}
	for i := 1; i < MaxPointers; i++ {
		if !u.used[i] {
			u.used[i] = true
			u.touchMap[i] = id
			return i
		}
	}
	return -1
}

func (u *Unifier) freeSlot(slot int) {
	u.used[slot] = false
	u.touchMap[slot] = 0
}

func (u *Unifier) press(id int, p geometry.Point2D, mods Modifiers) {
	ps := &u.pointers[id]
	if ps.down {
		// A press without a release in between: treat as motion.
		u.move(id, p, mods)
		return
	}
	ps.down = true
	ps.last = p
	u.active++
	if u.active == 1 && u.guard != nil {
		u.guard(true)
	}
	u.emit(Event{Pointer: id, Pos: p, Phase: Start, Mods: mods})
}

func (u *Unifier) move(id int, p geometry.Point2D, mods Modifiers) {
	ps := &u.pointers[id]
	if !ps.down || p == ps.last {
		return
	}
	ps.last = p
	u.emit(Event{Pointer: id, Pos: p, Phase: Move, Mods: mods})
}

func (u *Unifier) release(id int, p geometry.Point2D, mods Modifiers) {
	ps := &u.pointers[id]
	if !ps.down {
		return
	}
	ps.down = false
	ps.last = p
	u.active--
	u.emit(Event{Pointer: id, Pos: p, Phase: End, Mods: mods})
	if u.active == 0 && u.guard != nil {
		u.guard(false)
	}
}

func (u *Unifier) emit(e Event) {
	if u.sink != nil {
		u.sink(e)
	}
}
