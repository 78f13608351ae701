package project

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"printboard/internal/workspace"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	ws := workspace.New(800, 600)
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.RGBA{10, 20, 30, 255})
	shared := ws.Pool().Add(img)
	other := ws.Pool().Add(image.NewRGBA(image.Rect(0, 0, 3, 3)))

	a := ws.Add(shared, 10, 20, 80, 40)
	a.Rotation = 33
	a.Filters.Sharpness = 2
	ws.Add(shared, 100, 100, 40, 20)
	ws.Add(other, 200, 50, 30, 30)

	path := filepath.Join(t.TempDir(), "board"+Extension)
	if err := New("board", "a4", "portrait").Save(path, ws.Snapshot()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(AssetsDir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("shared source should be stored once, got %d files", len(entries))
	}

	pool := workspace.NewSourcePool()
	f, snap, err := Load(path, pool)
	if err != nil {
		t.Fatal(err)
	}
	if f.Paper != "a4" || len(snap.Objects) != 3 || pool.Len() != 2 {
		t.Fatalf("loaded paper=%s objects=%d sources=%d", f.Paper, len(snap.Objects), pool.Len())
	}
	if snap.Objects[0].Source != snap.Objects[1].Source {
		t.Fatal("shared source should load as one Source")
	}
	got := snap.Objects[0]
	if got.X != 10 || got.Width != 80 || got.Rotation != 33 || got.Filters.Sharpness != 2 {
		t.Fatalf("object 0 = %+v", got)
	}
	if c := color.RGBAModel.Convert(got.Source.Image().At(1, 1)).(color.RGBA); c.R != 10 || c.B != 30 {
		t.Fatalf("pixel = %v", c)
	}
}

func TestSaveRemovesStaleAssets(t *testing.T) {
	ws := workspace.New(800, 600)
	src := ws.Pool().Add(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	o := ws.Add(src, 0, 0, 20, 20)
	path := filepath.Join(t.TempDir(), "b"+Extension)
	f := New("b", "a4", "portrait")
	if err := f.Save(path, ws.Snapshot()); err != nil {
		t.Fatal(err)
	}
	o.Source = ws.Pool().Add(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if err := f.Save(path, ws.Snapshot()); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(AssetsDir(path))
	if len(entries) != 1 {
		t.Fatalf("stale asset kept: %v", entries)
	}
}

func TestLoadRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evil"+Extension)
	doc := `{"version":1,"objects":[{"id":1,"x":0,"y":0,"width":20,"height":20,"sourceRef":"../x.png"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(path, workspace.NewSourcePool()); err == nil {
		t.Fatal("expected error")
	}
}
