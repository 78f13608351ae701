package app

import "sync"

// EventType identifies editor notifications.
type EventType int

const (
	// EventObjectsChanged fires when object geometry, filters, sources or
	// z-order change. Data is nil.
	EventObjectsChanged EventType = iota
	// EventSelectionChanged carries the selected workspace.ObjectID.
	EventSelectionChanged
	// EventHistoryChanged fires after commits, undo, redo and resets.
	EventHistoryChanged
	// EventCropChanged fires when crop mode is entered, edited or left.
	EventCropChanged
	// EventCanvasChanged fires when the paper size changes.
	EventCanvasChanged
)

func (t EventType) String() string {
	switch t {
	case EventObjectsChanged:
		return "objects"
	case EventSelectionChanged:
		return "selection"
	case EventHistoryChanged:
		return "history"
	case EventCropChanged:
		return "crop"
	case EventCanvasChanged:
		return "canvas"
	default:
		return "unknown"
	}
}

// EventListener is called when an event occurs.
type EventListener func(data interface{})

type event struct {
	typ  EventType
	data interface{}
}

// events is the listener registry. Listeners run outside the editor lock so
// they may query the editor.
type events struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventListener
}

// On registers an event listener for the specified event type.
func (ev *events) On(t EventType, listener EventListener) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	if ev.listeners == nil {
		ev.listeners = make(map[EventType][]EventListener)
	}
	ev.listeners[t] = append(ev.listeners[t], listener)
}

// Emit triggers all listeners for the specified event type.
func (ev *events) Emit(t EventType, data interface{}) {
	ev.mu.RLock()
	listeners := ev.listeners[t]
	ev.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
