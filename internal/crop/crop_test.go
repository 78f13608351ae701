package crop

import (
	"context"
	"errors"
	"image"
	"math"
	"math/rand"
	"testing"

	"printboard/internal/transform"
	"printboard/internal/workspace"
	"printboard/pkg/geometry"
)

type fakeResampler struct {
	got  image.Rectangle
	w, h int
	err  error
}

func (f *fakeResampler) Resample(_ context.Context, _ image.Image, r image.Rectangle, w, h int) (image.Image, error) {
	f.got, f.w, f.h = r, w, h
	if f.err != nil {
		return nil, f.err
	}
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

type countingCommitter struct{ n int }

func (c *countingCommitter) Commit() { c.n++ }

func setup(t *testing.T, w, h float64, srcW, srcH int) (*Engine, *workspace.Workspace, *workspace.Object, *fakeResampler, *countingCommitter) {
	t.Helper()
	ws := workspace.New(1000, 1000)
	src := ws.Pool().Add(image.NewRGBA(image.Rect(0, 0, srcW, srcH)))
	o := ws.Add(src, 40, 30, w, h)
	if err := ws.Select(o.ID); err != nil {
		t.Fatal(err)
	}
	rs := &fakeResampler{}
	cc := &countingCommitter{}
	return NewEngine(ws, cc, rs), ws, o, rs, cc
}

// commit runs the three commit phases the way the editor does.
func commit(e *Engine) error {
	job, err := e.Prepare()
	if err != nil {
		return err
	}
	img, err := e.Resample(context.Background(), job)
	if err != nil {
		e.Abort(job)
		return err
	}
	return e.Apply(job, img)
}

func contained(t *testing.T, e *Engine, o *workspace.Object) {
	t.Helper()
	r, ok := e.Region()
	if !ok {
		t.Fatal("no region")
	}
	if !geometry.NewRect(0, 0, o.Width, o.Height).ContainsRect(r) {
		t.Fatalf("region %+v escapes %vx%v", r, o.Width, o.Height)
	}
}

func TestEnterRequiresSelection(t *testing.T) {
	e, ws, o, _, _ := setup(t, 200, 100, 10, 10)
	ws.Deselect()
	if err := e.Enter(o.ID); !errors.Is(err, workspace.ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
	if e.Active() {
		t.Fatal("crop must not be active")
	}
}

func TestEnterInitialRegion(t *testing.T) {
	e, ws, o, _, _ := setup(t, 200, 100, 10, 10)
	if err := e.Enter(o.ID); err != nil {
		t.Fatal(err)
	}
	r, _ := e.Region()
	want := geometry.NewRect(60, 10, 80, 80)
	if r != want {
		t.Fatalf("region = %+v, want %+v", r, want)
	}
	if e.Mode() != Free {
		t.Fatalf("mode = %v", e.Mode())
	}
	if !ws.Locked(o.ID) {
		t.Fatal("target should be locked while cropping")
	}
}

func TestCommandsOutsideCrop(t *testing.T) {
	e, _, _, _, _ := setup(t, 200, 100, 10, 10)
	if err := e.SetAspectMode(Horizontal); !errors.Is(err, workspace.ErrNoActiveCrop) {
		t.Fatalf("SetAspectMode: %v", err)
	}
	if err := commit(e); !errors.Is(err, workspace.ErrNoActiveCrop) {
		t.Fatalf("Commit: %v", err)
	}
	if err := e.Cancel(); !errors.Is(err, workspace.ErrNoActiveCrop) {
		t.Fatalf("Cancel: %v", err)
	}
	if err := e.MoveRegion(geometry.Point2D{X: 1}); !errors.Is(err, workspace.ErrNoActiveCrop) {
		t.Fatalf("MoveRegion: %v", err)
	}
}

func TestAspectModes(t *testing.T) {
	cases := []struct {
		mode AspectMode
		w, h float64
	}{
		{Horizontal, 300, 300 * 9.0 / 16},
		{Vertical, 200 * 9.0 / 16, 200},
	}
	for _, c := range cases {
		t.Run(c.mode.String(), func(t *testing.T) {
			e, _, o, _, _ := setup(t, 300, 200, 10, 10)
			_ = e.Enter(o.ID)
			before, _ := e.Region()
			if err := e.SetAspectMode(c.mode); err != nil {
				t.Fatal(err)
			}
			r, _ := e.Region()
			if math.Abs(r.Width-c.w) > 1e-9 || math.Abs(r.Height-c.h) > 1e-9 {
				t.Fatalf("size = %vx%v, want %vx%v", r.Width, r.Height, c.w, c.h)
			}
			if math.Abs(r.Width/r.Height-c.mode.Ratio()) > 1e-9 {
				t.Fatalf("ratio = %v", r.Width/r.Height)
			}
			contained(t, e, o)
			if c.mode == Vertical && r.Center() != before.Center() {
				t.Fatalf("center moved from %v to %v", before.Center(), r.Center())
			}
		})
	}
}

func TestFreeModeKeepsSize(t *testing.T) {
	e, _, o, _, _ := setup(t, 300, 200, 10, 10)
	_ = e.Enter(o.ID)
	_ = e.SetAspectMode(Horizontal)
	before, _ := e.Region()
	_ = e.SetAspectMode(Free)
	after, _ := e.Region()
	if before != after {
		t.Fatalf("free mode changed region %+v -> %+v", before, after)
	}
}

func TestRegionStaysInsideObject(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	e, _, o, _, _ := setup(t, 320, 180, 10, 10)
	_ = e.Enter(o.ID)
	for i := 0; i < 2000; i++ {
		delta := geometry.Point2D{X: rng.Float64()*600 - 300, Y: rng.Float64()*600 - 300}
		switch rng.Intn(4) {
		case 0:
			_ = e.MoveRegion(delta)
		case 1:
			_ = e.ResizeRegion(transform.Handles[rng.Intn(len(transform.Handles))], delta)
		case 2:
			_ = e.SetAspectMode(AspectMode(rng.Intn(3)))
		case 3:
			p := geometry.Point2D{X: rng.Float64() * 320, Y: rng.Float64() * 180}
			if e.StartResize(transform.Handles[rng.Intn(len(transform.Handles))], p) {
				e.Update(p.Add(delta))
				e.EndGesture()
			}
		}
		contained(t, e, o)
		r, _ := e.Region()
		if m := e.Mode(); m != Free && math.Abs(r.Width/r.Height-m.Ratio()) > 1e-6 {
			t.Fatalf("iteration %d: ratio %v drifted from %v", i, r.Width/r.Height, m.Ratio())
		}
	}
}

func TestResizeRegionMinimum(t *testing.T) {
	e, _, o, _, _ := setup(t, 200, 200, 10, 10)
	_ = e.Enter(o.ID)
	_ = e.ResizeRegion(transform.HandleBottomRight, geometry.Point2D{X: -500, Y: -500})
	r, _ := e.Region()
	if r.Width < 20 || r.Height < 20 {
		t.Fatalf("region %vx%v below minimum", r.Width, r.Height)
	}
}

func TestResizeRegionStopsAtEdge(t *testing.T) {
	e, _, o, _, _ := setup(t, 200, 200, 10, 10)
	_ = e.Enter(o.ID) // region (20,20,160,160)
	_ = e.ResizeRegion(transform.HandleBottomRight, geometry.Point2D{X: 500, Y: 0})
	r, _ := e.Region()
	if math.Abs(r.X-20) > 1e-6 || math.Abs(r.Y-20) > 1e-6 {
		t.Fatalf("fixed corner moved to (%v,%v)", r.X, r.Y)
	}
	if math.Abs(r.Width-180) > 1e-6 || r.Height != 160 {
		t.Fatalf("size = %vx%v, want 180x160", r.Width, r.Height)
	}
}

func TestCommitMapsRegionToSourcePixels(t *testing.T) {
	e, ws, o, rs, cc := setup(t, 200, 200, 400, 400)
	_ = e.Enter(o.ID)
	_ = e.MoveRegion(geometry.Point2D{X: -1000, Y: -1000})
	_ = e.ResizeRegion(transform.HandleBottomRight, geometry.Point2D{X: -60, Y: -60})
	_ = e.MoveRegion(geometry.Point2D{X: 50, Y: 50})
	if r, _ := e.Region(); r != geometry.NewRect(50, 50, 100, 100) {
		t.Fatalf("setup region = %+v", r)
	}
	oldSrc := o.Source
	x, y := o.X, o.Y

	if err := commit(e); err != nil {
		t.Fatal(err)
	}
	if rs.got != image.Rect(100, 100, 300, 300) {
		t.Fatalf("sampled %v, want (100,100)-(300,300)", rs.got)
	}
	if rs.w != 100 || rs.h != 100 {
		t.Fatalf("resampled to %dx%d", rs.w, rs.h)
	}
	if o.Width != 100 || o.Height != 100 || o.X != x || o.Y != y {
		t.Fatalf("object after crop: %+v", o.Geometry())
	}
	if o.Source == oldSrc || o.Source.Width() != 100 {
		t.Fatal("source was not replaced")
	}
	if e.Active() || ws.Locked(o.ID) {
		t.Fatal("commit must leave crop mode and unlock")
	}
	if cc.n != 1 {
		t.Fatalf("commits = %d", cc.n)
	}
}

func TestCommitFailureKeepsSession(t *testing.T) {
	e, _, o, rs, cc := setup(t, 200, 200, 400, 400)
	rs.err = errors.New("boom")
	_ = e.Enter(o.ID)
	if err := commit(e); err == nil {
		t.Fatal("expected error")
	}
	if !e.Active() || e.Pending() {
		t.Fatal("failed commit should return to editing")
	}
	if cc.n != 0 {
		t.Fatal("failed commit must not record history")
	}
}

func TestPendingCommitBlocksEdits(t *testing.T) {
	e, _, o, _, _ := setup(t, 200, 200, 400, 400)
	_ = e.Enter(o.ID)
	job, err := e.Prepare()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Prepare(); !errors.Is(err, ErrCommitPending) {
		t.Fatalf("second Prepare: %v", err)
	}
	if err := e.MoveRegion(geometry.Point2D{X: 1}); !errors.Is(err, ErrCommitPending) {
		t.Fatalf("MoveRegion: %v", err)
	}
	if e.StartMove(geometry.Point2D{X: 50, Y: 50}) {
		t.Fatal("gesture must not start while pending")
	}
	if err := e.Apply(job, image.NewRGBA(image.Rect(0, 0, job.Width, job.Height))); err != nil {
		t.Fatal(err)
	}
}

func TestCancelLeavesObjectUntouched(t *testing.T) {
	e, ws, o, _, cc := setup(t, 200, 100, 10, 10)
	before := o.Geometry()
	src := o.Source
	_ = e.Enter(o.ID)
	_ = e.ResizeRegion(transform.HandleTopLeft, geometry.Point2D{X: 10, Y: 10})
	if err := e.Cancel(); err != nil {
		t.Fatal(err)
	}
	if !o.Geometry().Equal(before) || o.Source != src {
		t.Fatal("cancel mutated the object")
	}
	if _, ok := e.Region(); ok || ws.Locked(o.ID) || cc.n != 0 {
		t.Fatal("cancel must discard the region, unlock and not commit")
	}
}

func TestAspectModeOnThinObject(t *testing.T) {
	cases := []struct {
		name string
		mode AspectMode
		w, h float64
	}{
		{"vertical_on_wide", Vertical, 247, 33.7},
		{"horizontal_on_tall", Horizontal, 33.7, 247},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, ws, o, _, _ := setup(t, c.w, c.h, 10, 10)
			if err := e.Enter(o.ID); err != nil {
				t.Fatal(err)
			}
			if err := e.SetAspectMode(c.mode); err != nil {
				t.Fatal(err)
			}
			r, _ := e.Region()
			if r.Width < ws.MinSize() || r.Height < ws.MinSize() {
				t.Fatalf("region %vx%v below minimum %v", r.Width, r.Height, ws.MinSize())
			}
			if long := math.Max(r.Width, r.Height); math.Abs(long-33.7) > 1e-9 {
				t.Fatalf("long side = %v, want the object's short side 33.7", long)
			}
			contained(t, e, o)
		})
	}
}

func TestParseAspectMode(t *testing.T) {
	for in, want := range map[string]AspectMode{"free": Free, "16:9": Horizontal, "9:16": Vertical} {
		got, err := ParseAspectMode(in)
		if err != nil || got != want {
			t.Errorf("ParseAspectMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseAspectMode("4:3"); err == nil {
		t.Error("expected error for 4:3")
	}
}
