// Package project saves and restores a board: a JSON document holding the
// ordered object list, plus one PNG per referenced source image.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"printboard/internal/workspace"
)

// Extension is the file extension of saved boards.
const Extension = ".printboard"

// Version is the current document version.
const Version = 1

// File is a saved board.
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Paper       string    `json:"paper"`
	Orientation string    `json:"orientation"`
	Objects     []Entry   `json:"objects"`
}

// Entry is one object in z-order. SourceRef names a PNG inside the assets
// directory.
type Entry struct {
	workspace.ObjectState
	SourceRef string `json:"sourceRef"`
}

// New creates an empty document.
func New(name, paper, orientation string) *File {
	now := time.Now()
	return &File{
		Version:     Version,
		Name:        name,
		Created:     now,
		Modified:    now,
		Paper:       paper,
		Orientation: orientation,
	}
}

// AssetsDir returns the directory holding the source PNGs of path.
func AssetsDir(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".assets"
}

// Save writes the snapshot and its sources. Sources shared by several
// objects are stored once.
func (f *File) Save(path string, snap workspace.Snapshot) error {
	assets := AssetsDir(path)
	if err := os.MkdirAll(assets, 0o755); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	f.Modified = time.Now()
	f.Objects = f.Objects[:0]
	written := make(map[*workspace.Source]string)
	for _, st := range snap.Objects {
		if st.Source == nil {
			return fmt.Errorf("object %d has no source", st.ID)
		}
		ref, ok := written[st.Source]
		if !ok {
			ref = fmt.Sprintf("source-%d.png", st.Source.ID())
			if err := writePNG(filepath.Join(assets, ref), st.Source); err != nil {
				return err
			}
			written[st.Source] = ref
		}
		f.Objects = append(f.Objects, Entry{ObjectState: st, SourceRef: ref})
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return removeStale(assets, written)
}

func writePNG(path string, src *workspace.Source) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(out, src.Image()); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return out.Close()
}

// removeStale deletes PNGs left over from earlier saves.
func removeStale(dir string, keep map[*workspace.Source]string) error {
	names := make(map[string]bool, len(keep))
	for _, ref := range keep {
		names[ref] = true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "source-") && !names[e.Name()] {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
	}
	return nil
}

// Load reads a saved board. Sources are decoded once per reference and
// registered in pool; the returned snapshot points at them.
func Load(path string, pool *workspace.SourcePool) (*File, workspace.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, workspace.Snapshot{}, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, workspace.Snapshot{}, fmt.Errorf("parse project %s: %w", path, err)
	}
	if f.Version > Version {
		return nil, workspace.Snapshot{}, fmt.Errorf("project version %d is newer than supported %d", f.Version, Version)
	}

	assets := AssetsDir(path)
	loaded := make(map[string]*workspace.Source)
	snap := workspace.Snapshot{Objects: make([]workspace.ObjectState, 0, len(f.Objects))}
	for _, e := range f.Objects {
		if filepath.Base(e.SourceRef) != e.SourceRef {
			return nil, workspace.Snapshot{}, fmt.Errorf("invalid source reference %q", e.SourceRef)
		}
		src, ok := loaded[e.SourceRef]
		if !ok {
			src, err = readPNG(filepath.Join(assets, e.SourceRef), pool)
			if err != nil {
				return nil, workspace.Snapshot{}, err
			}
			loaded[e.SourceRef] = src
		}
		st := e.ObjectState
		st.Source = src
		snap.Objects = append(snap.Objects, st)
	}
	return &f, snap, nil
}

func readPNG(path string, pool *workspace.SourcePool) (*workspace.Source, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()
	img, err := png.Decode(in)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return pool.Add(img), nil
}
