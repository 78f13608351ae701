// Package panels provides UI panels for the application.
package panels

import (
	"context"
	"fmt"

	"printboard/internal/app"
	"printboard/internal/crop"
	"printboard/internal/workspace"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// filterControl is one slider with its value label.
type filterControl struct {
	name   string
	slider *widget.Slider
	label  *widget.Label
	get    func(workspace.FilterParams) float64
	set    func(*workspace.FilterParams, float64)
}

// PropertiesPanel edits the selected object: numeric geometry, quarter
// turns, z-order, filters and crop.
type PropertiesPanel struct {
	editor    *app.Editor
	container fyne.CanvasObject

	widthEntry    *widget.Entry
	heightEntry   *widget.Entry
	xEntry        *widget.Entry
	yEntry        *widget.Entry
	keepRatio     *widget.Check
	rotationLabel *widget.Label

	filters []*filterControl

	aspect    *widget.Select
	cropBtn   *widget.Button
	applyBtn  *widget.Button
	cancelBtn *widget.Button

	objectCard *widget.Card
	filterCard *widget.Card
	cropCard   *widget.Card

	updating bool
	onStatus func(string)
}

// NewPropertiesPanel creates the panel and subscribes it to editor events.
func NewPropertiesPanel(editor *app.Editor) *PropertiesPanel {
	pp := &PropertiesPanel{editor: editor}
	pp.buildUI()
	pp.refresh()

	refresh := func(interface{}) { pp.refresh() }
	editor.On(app.EventSelectionChanged, refresh)
	editor.On(app.EventObjectsChanged, refresh)
	editor.On(app.EventCropChanged, refresh)
	return pp
}

// Container returns the panel for embedding.
func (pp *PropertiesPanel) Container() fyne.CanvasObject {
	return pp.container
}

// OnStatus sets the callback that receives user-facing messages.
func (pp *PropertiesPanel) OnStatus(fn func(string)) {
	pp.onStatus = fn
}

func (pp *PropertiesPanel) status(format string, args ...interface{}) {
	if pp.onStatus != nil {
		pp.onStatus(fmt.Sprintf(format, args...))
	}
}

func (pp *PropertiesPanel) buildUI() {
	pp.widthEntry = widget.NewEntry()
	pp.heightEntry = widget.NewEntry()
	pp.xEntry = widget.NewEntry()
	pp.yEntry = widget.NewEntry()
	pp.widthEntry.OnSubmitted = func(string) { pp.applySize() }
	pp.heightEntry.OnSubmitted = func(string) { pp.applySize() }
	pp.xEntry.OnSubmitted = func(string) { pp.applyPosition() }
	pp.yEntry.OnSubmitted = func(string) { pp.applyPosition() }
	pp.keepRatio = widget.NewCheck("Keep ratio", nil)
	pp.keepRatio.SetChecked(true)
	pp.rotationLabel = widget.NewLabel("0°")

	withSelected := func(fn func(workspace.ObjectID) error) func() {
		return func() {
			o, ok := pp.editor.SelectedObject()
			if !ok {
				pp.status("Select an image first")
				return
			}
			if err := fn(o.ID); err != nil {
				pp.status("%v", err)
			}
		}
	}

	form := widget.NewForm(
		widget.NewFormItem("Width", pp.widthEntry),
		widget.NewFormItem("Height", pp.heightEntry),
		widget.NewFormItem("", pp.keepRatio),
		widget.NewFormItem("X", pp.xEntry),
		widget.NewFormItem("Y", pp.yEntry),
		widget.NewFormItem("Rotation", pp.rotationLabel),
	)
	pp.objectCard = widget.NewCard("Image", "", container.NewVBox(
		form,
		container.NewGridWithColumns(2,
			widget.NewButton("Rotate Left", withSelected(pp.editor.RotateLeft)),
			widget.NewButton("Rotate Right", withSelected(pp.editor.RotateRight)),
			widget.NewButton("Bring to Front", withSelected(pp.editor.BringToFront)),
			widget.NewButton("Send to Back", withSelected(pp.editor.SendToBack)),
		),
		widget.NewButton("Delete", withSelected(pp.editor.Delete)),
	))

	pp.filters = []*filterControl{
		pp.newFilter("Contrast", workspace.MinContrast, workspace.MaxContrast,
			func(f workspace.FilterParams) float64 { return f.Contrast },
			func(f *workspace.FilterParams, v float64) { f.Contrast = v }),
		pp.newFilter("Brightness", workspace.MinBrightness, workspace.MaxBrightness,
			func(f workspace.FilterParams) float64 { return f.Brightness },
			func(f *workspace.FilterParams, v float64) { f.Brightness = v }),
		pp.newFilter("Saturation", workspace.MinSaturation, workspace.MaxSaturation,
			func(f workspace.FilterParams) float64 { return f.Saturation },
			func(f *workspace.FilterParams, v float64) { f.Saturation = v }),
		pp.newFilter("Sharpness", workspace.MinSharpness, workspace.MaxSharpness,
			func(f workspace.FilterParams) float64 { return f.Sharpness },
			func(f *workspace.FilterParams, v float64) { f.Sharpness = v }),
	}
	filterRows := container.NewVBox()
	for _, fc := range pp.filters {
		filterRows.Add(container.NewBorder(nil, nil, fc.label, nil, fc.slider))
	}
	filterRows.Add(widget.NewButton("Reset Filters", withSelected(pp.editor.ResetFilterParams)))
	pp.filterCard = widget.NewCard("Filters", "", filterRows)

	modes := []string{crop.Free.String(), crop.Horizontal.String(), crop.Vertical.String()}
	pp.aspect = widget.NewSelect(modes, func(selected string) {
		if pp.updating {
			return
		}
		mode, err := crop.ParseAspectMode(selected)
		if err != nil {
			return
		}
		if err := pp.editor.SetAspectMode(mode); err != nil {
			pp.status("%v", err)
		}
	})
	pp.aspect.Selected = crop.Free.String()
	pp.cropBtn = widget.NewButton("Crop", withSelected(pp.editor.EnterCropMode))
	pp.applyBtn = widget.NewButton("Apply", pp.commitCrop)
	pp.applyBtn.Importance = widget.HighImportance
	pp.cancelBtn = widget.NewButton("Cancel", func() {
		if err := pp.editor.CancelCrop(); err != nil {
			pp.status("%v", err)
		}
	})
	pp.cropCard = widget.NewCard("Crop", "", container.NewVBox(
		pp.cropBtn,
		widget.NewForm(widget.NewFormItem("Aspect", pp.aspect)),
		container.NewGridWithColumns(2, pp.cancelBtn, pp.applyBtn),
	))

	pp.container = container.NewVScroll(container.NewVBox(pp.objectCard, pp.filterCard, pp.cropCard))
}

func (pp *PropertiesPanel) newFilter(name string, lo, hi float64, get func(workspace.FilterParams) float64, set func(*workspace.FilterParams, float64)) *filterControl {
	fc := &filterControl{name: name, get: get, set: set}
	fc.label = widget.NewLabel(name)
	fc.slider = widget.NewSlider(lo, hi)
	fc.slider.Step = 0.01
	fc.slider.OnChanged = func(v float64) {
		fc.label.SetText(fmt.Sprintf("%s %.2f", fc.name, v))
	}
	// One history entry per slider release.
	fc.slider.OnChangeEnded = func(v float64) {
		if pp.updating {
			return
		}
		o, ok := pp.editor.SelectedObject()
		if !ok {
			return
		}
		params := o.Filters
		fc.set(&params, v)
		if err := pp.editor.SetFilterParams(o.ID, params); err != nil {
			pp.status("%v", err)
			pp.refresh()
		}
	}
	return fc
}

func (pp *PropertiesPanel) applySize() {
	o, ok := pp.editor.SelectedObject()
	if !ok {
		return
	}
	w, err := parseNumber("width", pp.widthEntry.Text)
	if err == nil {
		var h float64
		h, err = parseNumber("height", pp.heightEntry.Text)
		if err == nil {
			err = pp.editor.SetSize(o.ID, w, h, pp.keepRatio.Checked)
		}
	}
	if err != nil {
		pp.status("%v", err)
	}
	pp.refresh()
}

func (pp *PropertiesPanel) applyPosition() {
	o, ok := pp.editor.SelectedObject()
	if !ok {
		return
	}
	x, err := parseNumber("x", pp.xEntry.Text)
	if err == nil {
		var y float64
		y, err = parseNumber("y", pp.yEntry.Text)
		if err == nil {
			err = pp.editor.SetPosition(o.ID, x, y)
		}
	}
	if err != nil {
		pp.status("%v", err)
	}
	pp.refresh()
}

// commitCrop resamples in the background; the editor keeps the target
// locked until it finishes.
func (pp *PropertiesPanel) commitCrop() {
	pp.status("Cropping...")
	go func() {
		if err := pp.editor.CommitCrop(context.Background()); err != nil {
			pp.status("Crop failed: %v", err)
			return
		}
		pp.status("Cropped")
	}()
}

// refresh mirrors the editor state into the widgets.
func (pp *PropertiesPanel) refresh() {
	pp.updating = true
	defer func() { pp.updating = false }()

	o, selected := pp.editor.SelectedObject()
	view, cropping := pp.editor.Crop()

	entries := []*widget.Entry{pp.widthEntry, pp.heightEntry, pp.xEntry, pp.yEntry}
	if selected {
		pp.widthEntry.SetText(formatNumber(o.Width))
		pp.heightEntry.SetText(formatNumber(o.Height))
		pp.xEntry.SetText(formatNumber(o.X))
		pp.yEntry.SetText(formatNumber(o.Y))
		pp.rotationLabel.SetText(fmt.Sprintf("%s°", formatNumber(o.Rotation)))
		for _, fc := range pp.filters {
			fc.slider.SetValue(fc.get(o.Filters))
			fc.label.SetText(fmt.Sprintf("%s %.2f", fc.name, fc.get(o.Filters)))
		}
	} else {
		for _, e := range entries {
			e.SetText("")
		}
		pp.rotationLabel.SetText("-")
	}

	editable := selected && !cropping
	for _, e := range entries {
		setEnabled(e, editable)
	}
	setEnabled(pp.keepRatio, editable)

	setEnabled(pp.cropBtn, editable)
	setEnabled(pp.aspect, cropping && !view.Pending)
	setEnabled(pp.applyBtn, cropping && !view.Pending)
	setEnabled(pp.cancelBtn, cropping && !view.Pending)
	if cropping {
		pp.aspect.SetSelected(view.Mode.String())
	}
}

type disableable interface {
	Enable()
	Disable()
}

func setEnabled(w disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}
