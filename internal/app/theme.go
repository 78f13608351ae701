package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Theme is the printboard look: a neutral chrome that keeps attention on
// the page, with a blue accent shared by the selection outline.
type Theme struct{}

var _ fyne.Theme = (*Theme)(nil)

// Accent colors shared with the canvas overlay.
var (
	AccentColor    = color.NRGBA{R: 0x15, G: 0x65, B: 0xC0, A: 0xFF}
	CropShadeColor = color.NRGBA{A: 0x80}
)

func (t *Theme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return AccentColor
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0x15, G: 0x65, B: 0xC0, A: 0x40}
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *Theme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *Theme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *Theme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 16
	case theme.SizeNameScrollBarSmall:
		return 12
	default:
		return theme.DefaultTheme().Size(name)
	}
}
