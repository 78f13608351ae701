package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.History.Capacity != 50 || cfg.Objects.MaxIngestSize != 600 || cfg.Objects.MaxPixels != 100_000_000 || cfg.Canvas.Paper != "a4" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printboard.yaml")
	data := "canvas:\n  paper: letter\n  orientation: landscape\nhistory:\n  capacity: 10\nobjects:\n  max_pixels: 4000000\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Paper != "letter" || cfg.History.Capacity != 10 || cfg.Objects.MaxPixels != 4_000_000 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Handles.Radius != 10 || cfg.Export.Scale != 3 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	w, h := cfg.CanvasSize()
	if w != 1054 || h != 816 {
		t.Fatalf("letter landscape = %vx%v, want 1054x816", w, h)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"paper":       "canvas:\n  paper: b5\n",
		"orientation": "canvas:\n  orientation: diagonal\n",
		"fraction":    "crop:\n  initial_fraction: 1.5\n",
		"level":       "log:\n  level: loud\n",
		"format":      "log:\n  format: xml\n",
		"syntax":      "canvas: [\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPaperUnits(t *testing.T) {
	cases := []struct {
		paper, orientation string
		w, h               float64
	}{
		{"a4", Portrait, 794, 1123},
		{"a4", Landscape, 1123, 794},
		{"A3", Portrait, 1123, 1587},
		{"a5", Portrait, 559, 794},
	}
	for _, c := range cases {
		p, err := LookupPaper(c.paper)
		if err != nil {
			t.Fatal(err)
		}
		w, h := p.Units(c.orientation)
		if w != c.w || h != c.h {
			t.Errorf("%s %s = %vx%v, want %vx%v", c.paper, c.orientation, w, h, c.w, c.h)
		}
	}
	if _, err := LookupPaper("b5"); err == nil {
		t.Error("b5 should be unknown")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	cfg := Default()
	cfg.Canvas.Paper = "tabloid"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *cfg {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", got, cfg)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "printboard.yaml")
	if err := os.WriteFile(path, []byte("history:\n  capacity: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := Watch(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("history:\n  capacity: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-w.Configs:
		if cfg.History.Capacity != 7 {
			t.Fatalf("capacity = %d, want 7", cfg.History.Capacity)
		}
	case err := <-w.Errors:
		t.Fatal(err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}
}
