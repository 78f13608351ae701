package config

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Orientations.
const (
	Portrait  = "portrait"
	Landscape = "landscape"
)

// UnitsPerMM converts millimetres to canvas units at 96 DPI.
const UnitsPerMM = 3.7795275591

// Paper is a named sheet size in portrait millimetres.
type Paper struct {
	Name   string
	Width  float64
	Height float64
}

// Papers lists the supported sheets.
var Papers = map[string]Paper{
	"a3":      {Name: "A3", Width: 297, Height: 420},
	"a4":      {Name: "A4", Width: 210, Height: 297},
	"a5":      {Name: "A5", Width: 148, Height: 210},
	"letter":  {Name: "Letter", Width: 216, Height: 279},
	"legal":   {Name: "Legal", Width: 216, Height: 356},
	"tabloid": {Name: "Tabloid", Width: 279, Height: 432},
}

// PaperNames returns the paper keys in a stable order.
func PaperNames() []string {
	names := make([]string, 0, len(Papers))
	for k := range Papers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LookupPaper finds a paper by case-insensitive key.
func LookupPaper(name string) (Paper, error) {
	p, ok := Papers[strings.ToLower(name)]
	if !ok {
		return Paper{}, fmt.Errorf("unknown paper %q", name)
	}
	return p, nil
}

// MM returns the sheet size in millimetres for an orientation.
func (p Paper) MM(orientation string) (float64, float64) {
	if strings.EqualFold(orientation, Landscape) {
		return p.Height, p.Width
	}
	return p.Width, p.Height
}

// Units returns the sheet size in whole canvas units for an orientation.
func (p Paper) Units(orientation string) (float64, float64) {
	w, h := p.MM(orientation)
	return math.Round(w * UnitsPerMM), math.Round(h * UnitsPerMM)
}
