// Package export writes rendered boards to files: PNG images and
// single-page PDF documents sized to the paper.
package export

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Page is one rendered board together with its physical size.
type Page struct {
	Image    image.Image
	WidthMM  float64
	HeightMM float64
}

// Sink persists a rendered page.
type Sink interface {
	Save(ctx context.Context, page Page) error
}

// PNGSink writes the page raster as PNG.
type PNGSink struct {
	W io.Writer
}

// Save encodes the page.
func (s PNGSink) Save(ctx context.Context, page Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bw := bufio.NewWriter(s.W)
	if err := png.Encode(bw, page.Image); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return bw.Flush()
}

// JPEGQuality is the quality of the raster embedded in PDF pages.
const JPEGQuality = 95

// PDFSink writes a one-page PDF whose page has the paper's dimensions and
// is filled by the raster.
type PDFSink struct {
	W io.Writer
}

// Save embeds the page raster as JPEG and imports it with pdfcpu.
func (s PDFSink) Save(ctx context.Context, page Page) error {
	if page.WidthMM <= 0 || page.HeightMM <= 0 {
		return fmt.Errorf("invalid page size %vx%v mm", page.WidthMM, page.HeightMM)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, page.Image, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return fmt.Errorf("encode page raster: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	desc := fmt.Sprintf("dimensions:%.2f %.2f, position:full", page.WidthMM, page.HeightMM)
	imp, err := api.Import(desc, types.MILLIMETRES)
	if err != nil {
		return fmt.Errorf("pdf import settings: %w", err)
	}
	conf := model.NewDefaultConfiguration()
	if err := api.ImportImages(nil, s.W, []io.Reader{&buf}, imp, conf); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// Formats lists the file extensions SinkFor understands.
func Formats() []string { return []string{".png", ".pdf"} }

// WriteFile renders page into path, choosing the sink by extension. The file
// is written to a temporary sibling first and renamed into place.
func WriteFile(ctx context.Context, path string, page Page) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".printboard-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	sink, err := SinkFor(path, tmp)
	if err == nil {
		err = sink.Save(ctx, page)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SinkFor returns the sink matching the extension of path.
func SinkFor(path string, w io.Writer) (Sink, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNGSink{W: w}, nil
	case ".pdf":
		return PDFSink{W: w}, nil
	}
	return nil, fmt.Errorf("unsupported export format %q", filepath.Ext(path))
}
