package mainwindow

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"printboard/internal/app"
	"printboard/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/test"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newWindow(t *testing.T) (*MainWindow, *app.Editor) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	e, err := app.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(a, e, prefs.LoadFrom(t.TempDir()), nil), e
}

func TestAddImageMarksModified(t *testing.T) {
	mw, e := newWindow(t)
	if mw.Title() != "Printboard - Untitled" {
		t.Errorf("title = %q", mw.Title())
	}
	if !mw.undoItem.Disabled {
		t.Error("undo enabled on an empty board")
	}

	if err := mw.AddImage("a.png", pngBytes(t, 100, 100)); err != nil {
		t.Fatal(err)
	}
	if len(e.Objects()) != 1 {
		t.Fatalf("objects = %d, want 1", len(e.Objects()))
	}
	if !strings.HasSuffix(mw.Title(), " *") {
		t.Errorf("title = %q, want modified marker", mw.Title())
	}

	if err := mw.AddImage("b.png", []byte("not an image")); err == nil {
		t.Error("garbage accepted")
	} else if !strings.Contains(err.Error(), "b.png") {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestProjectSaveAndLoad(t *testing.T) {
	mw, e := newWindow(t)
	if err := mw.AddImage("a.png", pngBytes(t, 100, 50)); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "board.printboard")
	mw.saveProject(path)
	if mw.Title() != "Printboard - board.printboard" {
		t.Errorf("title after save = %q", mw.Title())
	}

	mw.onNew()
	if len(e.Objects()) != 0 || mw.Title() != "Printboard - Untitled" {
		t.Fatalf("new left %d objects, title %q", len(e.Objects()), mw.Title())
	}

	if err := mw.LoadProject(path); err != nil {
		t.Fatal(err)
	}
	if len(e.Objects()) != 1 {
		t.Errorf("objects after load = %d, want 1", len(e.Objects()))
	}
	if mw.modified {
		t.Error("loading marked the project modified")
	}
	if e.CanUndo() || !mw.undoItem.Disabled {
		t.Error("history survived the load")
	}
	if recent := mw.prefs.Strings(prefs.KeyRecentProjects); len(recent) != 1 || recent[0] != path {
		t.Errorf("recent = %v, want [%s]", recent, path)
	}
	if items := mw.recentItem.ChildMenu.Items; len(items) != 1 || items[0].Label != "board.printboard" {
		t.Errorf("recent menu = %d items", len(items))
	}
}

func TestPaperSelect(t *testing.T) {
	mw, e := newWindow(t)
	mw.paperSelect.SetSelected("a5")
	mw.orientationSelect.SetSelected("landscape")
	if p, o := e.Paper(); p != "a5" || o != "landscape" {
		t.Errorf("paper = %s %s, want a5 landscape", p, o)
	}

	mw.setOrientation("portrait")
	if mw.orientationSelect.Selected != "portrait" {
		t.Errorf("select shows %q after a menu change", mw.orientationSelect.Selected)
	}
}

func TestKeys(t *testing.T) {
	mw, e := newWindow(t)
	if err := mw.AddImage("a.png", pngBytes(t, 100, 100)); err != nil {
		t.Fatal(err)
	}

	o, _ := e.SelectedObject()
	if err := e.EnterCropMode(o.ID); err != nil {
		t.Fatal(err)
	}
	mw.onTypedKey(&fyne.KeyEvent{Name: fyne.KeyDelete})
	if len(e.Objects()) != 1 {
		t.Error("delete ran during crop mode")
	}
	mw.onTypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	if _, ok := e.Crop(); ok {
		t.Error("escape did not cancel the crop")
	}

	mw.onTypedKey(&fyne.KeyEvent{Name: fyne.KeyDelete})
	if len(e.Objects()) != 0 {
		t.Error("delete key left the object")
	}
	mw.onUndo()
	if len(e.Objects()) != 1 {
		t.Error("undo did not restore the object")
	}
}

func TestDroppedFiles(t *testing.T) {
	mw, e := newWindow(t)
	dir := t.TempDir()
	img := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(img, pngBytes(t, 40, 40), 0o644); err != nil {
		t.Fatal(err)
	}
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	mw.onDropped(fyne.NewPos(0, 0), []fyne.URI{storage.NewFileURI(img), storage.NewFileURI(txt)})

	if len(e.Objects()) != 1 {
		t.Errorf("objects = %d, want 1", len(e.Objects()))
	}
	if !strings.Contains(mw.statusBar.Text, "notes.txt") {
		t.Errorf("status = %q, want the skipped file named", mw.statusBar.Text)
	}
}

func TestIsExportFormat(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"out.png", true},
		{"out.PDF", true},
		{"out.jpg", false},
		{"out", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isExportFormat(tt.path); got != tt.want {
				t.Errorf("isExportFormat(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSavePreferences(t *testing.T) {
	mw, _ := newWindow(t)
	mw.onActualSize()
	mw.canvas.ZoomIn()
	mw.SavePreferences()

	p := prefs.LoadFrom(mw.prefs.Dir())
	if p.Bool(prefs.KeyFitToWindow, true) {
		t.Error("fit to window saved as on")
	}
	if z := p.Float(prefs.KeyZoom); z != 1.25 {
		t.Errorf("zoom = %g, want 1.25", z)
	}
}
