package workspace

import (
	"image"
	"sort"
)

// SourceID identifies a decoded raster inside a SourcePool.
type SourceID uint64

// Source is an immutable decoded raster shared by objects, snapshots and
// renderers. Width and Height are the native pixel dimensions.
type Source struct {
	id     SourceID
	img    image.Image
	width  int
	height int
}

// ID returns the pool-unique identifier.
func (s *Source) ID() SourceID { return s.id }

// Image returns the pixel data.
func (s *Source) Image() image.Image { return s.img }

// Width returns the native pixel width.
func (s *Source) Width() int { return s.width }

// Height returns the native pixel height.
func (s *Source) Height() int { return s.height }

// SourcePool owns the set of live sources. A source is released once neither
// a live object nor a stored snapshot references it.
type SourcePool struct {
	next      SourceID
	live      map[SourceID]*Source
	onRelease func(*Source)
}

// NewSourcePool creates an empty pool.
func NewSourcePool() *SourcePool {
	return &SourcePool{live: make(map[SourceID]*Source)}
}

// OnRelease registers a callback invoked for every released source.
func (p *SourcePool) OnRelease(fn func(*Source)) {
	p.onRelease = fn
}

// Add registers a decoded image and returns its source handle.
func (p *SourcePool) Add(img image.Image) *Source {
	p.next++
	b := img.Bounds()
	src := &Source{id: p.next, img: img, width: b.Dx(), height: b.Dy()}
	p.live[src.id] = src
	return src
}

// Get looks up a source by id.
func (p *SourcePool) Get(id SourceID) (*Source, bool) {
	s, ok := p.live[id]
	return s, ok
}

// Len returns the number of live sources.
func (p *SourcePool) Len() int {
	return len(p.live)
}

// Retain releases every source not present in keep and returns the released
// sources ordered by id.
func (p *SourcePool) Retain(keep map[*Source]struct{}) []*Source {
	var released []*Source
	for id, src := range p.live {
		if _, ok := keep[src]; ok {
			continue
		}
		delete(p.live, id)
		released = append(released, src)
	}
	sort.Slice(released, func(i, j int) bool { return released[i].id < released[j].id })
	if p.onRelease != nil {
		for _, src := range released {
			p.onRelease(src)
		}
	}
	return released
}

// Reset releases every source.
func (p *SourcePool) Reset() []*Source {
	return p.Retain(nil)
}
