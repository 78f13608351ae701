package workspace

// ObjectState is the persisted shape of one object inside a Snapshot.
type ObjectState struct {
	ID       ObjectID     `json:"id"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Rotation float64      `json:"rotationDegrees"`
	Filters  FilterParams `json:"filterParams"`
	Source   *Source      `json:"-"`
}

// Snapshot is a full copy of the workspace object list at a commit point.
// Selection is deliberately absent.
type Snapshot struct {
	Objects []ObjectState
}

// Snapshot captures every object in z-order.
func (w *Workspace) Snapshot() Snapshot {
	states := make([]ObjectState, len(w.objects))
	for i, o := range w.objects {
		states[i] = ObjectState{
			ID:       o.ID,
			X:        o.X,
			Y:        o.Y,
			Width:    o.Width,
			Height:   o.Height,
			Rotation: o.Rotation,
			Filters:  o.Filters,
			Source:   o.Source,
		}
	}
	return Snapshot{Objects: states}
}

// Restore replaces the object list with the snapshot contents and clears the
// selection. Object ids are preserved so later commands keep addressing the
// same objects.
func (w *Workspace) Restore(s Snapshot) {
	objects := make([]*Object, len(s.Objects))
	for i, st := range s.Objects {
		objects[i] = &Object{
			ID:       st.ID,
			X:        st.X,
			Y:        st.Y,
			Width:    st.Width,
			Height:   st.Height,
			Rotation: st.Rotation,
			Filters:  st.Filters,
			Source:   st.Source,
		}
		if st.ID > w.nextID {
			w.nextID = st.ID
		}
	}
	w.objects = objects
	w.selected = NoObject
}

// Sources returns every source the snapshot references.
func (s Snapshot) Sources() map[*Source]struct{} {
	set := make(map[*Source]struct{}, len(s.Objects))
	for _, st := range s.Objects {
		if st.Source != nil {
			set[st.Source] = struct{}{}
		}
	}
	return set
}

// Equal compares two snapshots object by object.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.Objects) != len(other.Objects) {
		return false
	}
	for i := range s.Objects {
		if s.Objects[i] != other.Objects[i] {
			return false
		}
	}
	return true
}
