// Package history keeps a bounded undo/redo list of workspace snapshots.
package history

import (
	"log/slog"

	"printboard/internal/workspace"
)

// DefaultCapacity is the number of snapshots kept before the oldest is evicted.
const DefaultCapacity = 50

// Manager records workspace snapshots at commit points. Entries after the
// current index form the redo tail.
type Manager struct {
	ws       *workspace.Workspace
	entries  []workspace.Snapshot
	index    int
	capacity int
	log      *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithCapacity overrides DefaultCapacity. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// New creates an empty history bound to ws.
func New(ws *workspace.Workspace, opts ...Option) *Manager {
	m := &Manager{
		ws:       ws,
		index:    -1,
		capacity: DefaultCapacity,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Commit truncates the redo tail, appends a snapshot of the workspace and
// evicts the oldest snapshot once capacity is exceeded.
func (m *Manager) Commit() {
	m.entries = append(m.entries[:m.index+1], m.ws.Snapshot())
	if len(m.entries) > m.capacity {
		// drop oldest
		m.entries[0] = workspace.Snapshot{}
		m.entries = m.entries[1:]
	}
	m.index = len(m.entries) - 1
	m.log.Debug("history commit", "index", m.index, "len", len(m.entries))
}

// Capacity returns the maximum number of snapshots.
func (m *Manager) Capacity() int { return m.capacity }

// SetCapacity changes the bound, evicting the oldest snapshots that no
// longer fit. The index follows its snapshot and stays at -1 or above.
func (m *Manager) SetCapacity(n int) {
	if n < 1 {
		return
	}
	m.capacity = n
	if drop := len(m.entries) - n; drop > 0 {
		for i := 0; i < drop; i++ {
			m.entries[i] = workspace.Snapshot{}
		}
		m.entries = m.entries[drop:]
		m.index = max(m.index-drop, min(0, len(m.entries)-1))
	}
}

// Undo steps back one snapshot. It reports false when there is nothing to
// undo.
func (m *Manager) Undo() bool {
	if m.index <= 0 {
		return false
	}
	m.index--
	m.ws.Restore(m.entries[m.index])
	m.log.Debug("history undo", "index", m.index)
	return true
}

// Redo steps forward one snapshot. It reports false at the newest entry.
func (m *Manager) Redo() bool {
	if m.index >= len(m.entries)-1 {
		return false
	}
	m.index++
	m.ws.Restore(m.entries[m.index])
	m.log.Debug("history redo", "index", m.index)
	return true
}

// CanUndo reports whether Undo would change the workspace.
func (m *Manager) CanUndo() bool { return m.index > 0 }

// CanRedo reports whether Redo would change the workspace.
func (m *Manager) CanRedo() bool { return m.index < len(m.entries)-1 }

// Len returns the number of stored snapshots.
func (m *Manager) Len() int { return len(m.entries) }

// Index returns the current position, -1 when empty.
func (m *Manager) Index() int { return m.index }

// PruneDangling drops every snapshot that references a source outside live,
// then clamps the index into the remaining entries. It returns the number of
// snapshots removed.
func (m *Manager) PruneDangling(live map[*workspace.Source]struct{}) int {
	kept := m.entries[:0]
	removed := 0
	for _, snap := range m.entries {
		if referencesOnly(snap, live) {
			kept = append(kept, snap)
			continue
		}
		removed++
	}
	for i := len(kept); i < len(m.entries); i++ {
		m.entries[i] = workspace.Snapshot{}
	}
	m.entries = kept

	m.index = min(m.index, len(m.entries)-1)
	if m.index < 0 && len(m.entries) > 0 {
		m.index = 0
	}
	if removed > 0 {
		m.log.Info("history pruned", "removed", removed, "len", len(m.entries), "index", m.index)
	}
	return removed
}

func referencesOnly(snap workspace.Snapshot, live map[*workspace.Source]struct{}) bool {
	for _, st := range snap.Objects {
		if _, ok := live[st.Source]; !ok {
			return false
		}
	}
	return true
}

// Sources returns every source referenced by a stored snapshot.
func (m *Manager) Sources() map[*workspace.Source]struct{} {
	set := make(map[*workspace.Source]struct{})
	for _, snap := range m.entries {
		for src := range snap.Sources() {
			set[src] = struct{}{}
		}
	}
	return set
}

// Reset clears the history entirely.
func (m *Manager) Reset() {
	m.entries = nil
	m.index = -1
	m.log.Debug("history reset")
}

// Restart clears the history and records the current workspace as its only
// entry.
func (m *Manager) Restart() {
	m.Reset()
	m.Commit()
}
