package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func page() Page {
	img := image.NewRGBA(image.Rect(0, 0, 21, 30))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(3, 3, color.RGBA{255, 0, 0, 255})
	return Page{Image: img, WidthMM: 210, HeightMM: 297}
}

func TestPNGSink(t *testing.T) {
	var buf bytes.Buffer
	if err := (PNGSink{W: &buf}).Save(context.Background(), page()); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 21 || img.Bounds().Dy() != 30 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
}

func TestPDFSinkWritesOnePage(t *testing.T) {
	var buf bytes.Buffer
	if err := (PDFSink{W: &buf}).Save(context.Background(), page()); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(buf.Bytes()), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatal(err)
	}
	if ctx.PageCount != 1 {
		t.Fatalf("page count = %d", ctx.PageCount)
	}
}

func TestPDFSinkRejectsEmptyPage(t *testing.T) {
	p := page()
	p.WidthMM = 0
	if err := (PDFSink{W: &bytes.Buffer{}}).Save(context.Background(), p); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"board.png", "board.PDF"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(context.Background(), path, page()); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
			t.Fatalf("%s not written: %v", name, err)
		}
	}
	if err := WriteFile(context.Background(), filepath.Join(dir, "board.gif"), page()); err == nil {
		t.Fatal("gif export should be rejected")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}
