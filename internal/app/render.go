package app

import (
	"context"
	"fmt"
	goimage "image"
	"path/filepath"
	"strings"
	"sync"

	"printboard/internal/config"
	"printboard/internal/export"
	"printboard/internal/image"
	"printboard/internal/project"
	"printboard/internal/workspace"
)

// Render composes the committed board at the configured export scale. It
// refuses while a gesture or crop commit is in flight.
func (e *Editor) Render(ctx context.Context) (export.Page, error) {
	e.lock()
	if e.busyLocked() {
		e.unlock()
		return export.Page{}, ErrGestureActive
	}
	snap := e.ws.Snapshot()
	size := e.ws.Size()
	scale := e.cfg.Export.Scale
	paper, orientation := e.paper, e.orientation
	e.inflight++
	e.unlock()

	defer func() {
		e.lock()
		e.inflight--
		e.unlock()
	}()

	img, err := e.rasterizer.Render(ctx, snap, size, image.RenderOptions{Scale: scale})
	if err != nil {
		return export.Page{}, fmt.Errorf("render board: %w", err)
	}
	p, err := config.LookupPaper(paper)
	if err != nil {
		return export.Page{}, err
	}
	w, h := p.MM(orientation)
	return export.Page{Image: img, WidthMM: w, HeightMM: h}, nil
}

// Export renders the board and hands it to sink.
func (e *Editor) Export(ctx context.Context, sink export.Sink) error {
	page, err := e.Render(ctx)
	if err != nil {
		return err
	}
	if err := sink.Save(ctx, page); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	e.log.Info("board exported", "size", page.Image.Bounds().Size())
	return nil
}

// Frame renders the live board for display, including a gesture in
// progress. Filtered sources are cached between frames.
func (e *Editor) Frame(ctx context.Context, scale float64) (*goimage.RGBA, error) {
	e.lock()
	snap := e.ws.Snapshot()
	size := e.ws.Size()
	e.unlock()

	for i, o := range snap.Objects {
		if o.Source == nil || o.Filters.IsIdentity() {
			continue
		}
		filtered, err := e.previews.get(ctx, o.Source, o.Filters)
		if err != nil {
			return nil, err
		}
		snap.Objects[i].Source = filtered
	}
	return e.rasterizer.Render(ctx, snap, size, image.RenderOptions{Scale: scale, Fast: true, SkipFilters: true})
}

// SaveProject writes the board to path.
func (e *Editor) SaveProject(path string) error {
	e.lock()
	if e.busyLocked() {
		e.unlock()
		return ErrGestureActive
	}
	snap := e.ws.Snapshot()
	f := project.New(projectName(path), e.paper, e.orientation)
	e.unlock()

	if err := f.Save(path, snap); err != nil {
		return err
	}
	e.log.Info("project saved", "path", path, "objects", len(snap.Objects))
	return nil
}

// OpenProject replaces the board with a saved one, including its paper.
func (e *Editor) OpenProject(path string) error {
	e.lock()
	defer e.unlock()
	if e.busyLocked() {
		return ErrGestureActive
	}
	f, snap, err := project.Load(path, e.ws.Pool())
	if err != nil {
		e.collectLocked()
		return err
	}
	if f.Paper != "" {
		if err := e.resizeLocked(f.Paper, f.Orientation); err != nil {
			e.collectLocked()
			return err
		}
	}
	e.restoreLocked(snap)
	e.log.Info("project opened", "path", path, "objects", len(snap.Objects))
	return nil
}

func projectName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// previewCache keeps filtered copies of sources keyed by filter values.
// Entries die with their source.
type previewCache struct {
	mu      sync.Mutex
	pool    *workspace.SourcePool
	entries map[previewKey]*workspace.Source
}

type previewKey struct {
	src     *workspace.Source
	filters workspace.FilterParams
}

func newPreviewCache() *previewCache {
	return &previewCache{
		pool:    workspace.NewSourcePool(),
		entries: make(map[previewKey]*workspace.Source),
	}
}

func (c *previewCache) get(ctx context.Context, src *workspace.Source, f workspace.FilterParams) (*workspace.Source, error) {
	key := previewKey{src: src, filters: f}
	c.mu.Lock()
	hit, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return hit, nil
	}

	img, err := image.ApplyFilters(ctx, src.Image(), f)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Only the latest filter values of a source are worth keeping.
	for k := range c.entries {
		if k.src == src {
			delete(c.entries, k)
		}
	}
	out := c.pool.Add(img)
	c.entries[key] = out
	c.trimLocked()
	return out, nil
}

// trimLocked releases pool entries no longer in the map.
func (c *previewCache) trimLocked() {
	keep := make(map[*workspace.Source]struct{}, len(c.entries))
	for _, v := range c.entries {
		keep[v] = struct{}{}
	}
	c.pool.Retain(keep)
}

// forget drops every entry derived from src.
func (c *previewCache) forget(src *workspace.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.src == src {
			delete(c.entries, k)
		}
	}
	c.trimLocked()
}
