// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"printboard/internal/app"
	"printboard/internal/config"
	"printboard/internal/export"
	"printboard/internal/image"
	"printboard/internal/project"
	"printboard/internal/version"
	"printboard/internal/workspace"
	"printboard/ui/canvas"
	"printboard/ui/panels"
	"printboard/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const appTitle = "Printboard"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	editor *app.Editor
	prefs  *prefs.Prefs
	log    *slog.Logger

	canvas     *canvas.BoardCanvas
	properties *panels.PropertiesPanel
	statusBar  *widget.Label
	zoomLabel  *widget.Label

	paperSelect       *widget.Select
	orientationSelect *widget.Select

	projectPath string
	modified    bool
	syncing     bool

	// Menu items that need state tracking
	undoItem        *fyne.MenuItem
	redoItem        *fyne.MenuItem
	recentItem      *fyne.MenuItem
	fitToWindowItem *fyne.MenuItem
}

// New creates the main window around editor.
func New(fyneApp fyne.App, editor *app.Editor, p *prefs.Prefs, log *slog.Logger) *MainWindow {
	if log == nil {
		log = slog.Default()
	}
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		editor: editor,
		prefs:  p,
		log:    log,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()
	mw.restorePreferences()
	mw.updateTitle()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewBoardCanvas(mw.editor, mw.log)
	mw.properties = panels.NewPropertiesPanel(mw.editor)
	mw.properties.OnStatus(mw.updateStatus)

	mw.statusBar = widget.NewLabel("Ready")
	mw.zoomLabel = widget.NewLabel("100%")
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
	})

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,               // top
		nil,                   // bottom
		nil,                   // left
		nil,                   // right
		mw.canvas.Container(), // center
	)

	split := container.NewHSplit(canvasArea, mw.properties.Container())
	split.SetOffset(0.75)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
	mw.SetOnDropped(mw.onDropped)
	mw.SetCloseIntercept(mw.onClose)
}

// createToolbar creates the zoom, history and paper controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	paper, orientation := mw.editor.Paper()
	mw.paperSelect = widget.NewSelect(config.PaperNames(), func(string) { mw.onPaperSelected() })
	mw.paperSelect.Selected = paper
	mw.orientationSelect = widget.NewSelect([]string{config.Portrait, config.Landscape}, func(string) { mw.onPaperSelected() })
	mw.orientationSelect.Selected = orientation

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.onZoomOut),
		mw.zoomLabel,
		widget.NewButton("+", mw.onZoomIn),
		widget.NewButton("Fit", mw.onToggleFitToWindow),
		widget.NewButton("1:1", mw.onActualSize),
		widget.NewSeparator(),
		widget.NewButton("Undo", mw.onUndo),
		widget.NewButton("Redo", mw.onRedo),
		widget.NewSeparator(),
		widget.NewLabel("Paper:"),
		mw.paperSelect,
		mw.orientationSelect,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	mw.recentItem = fyne.NewMenuItem("Open Recent", nil)
	mw.updateRecentMenu()
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New", mw.onNew),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		mw.recentItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Add Image...", mw.onAddImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export...", mw.onExport),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", mw.onClose),
	)

	mw.undoItem = fyne.NewMenuItem("Undo", mw.onUndo)
	mw.redoItem = fyne.NewMenuItem("Redo", mw.onRedo)
	editMenu := fyne.NewMenu("Edit",
		mw.undoItem,
		mw.redoItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete", mw.onDelete),
		fyne.NewMenuItem("Deselect", mw.editor.Deselect),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Rotate Left", mw.withSelected(mw.editor.RotateLeft)),
		fyne.NewMenuItem("Rotate Right", mw.withSelected(mw.editor.RotateRight)),
		fyne.NewMenuItem("Bring to Front", mw.withSelected(mw.editor.BringToFront)),
		fyne.NewMenuItem("Send to Back", mw.withSelected(mw.editor.SendToBack)),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Crop", mw.withSelected(mw.editor.EnterCropMode)),
		fyne.NewMenuItem("Apply Crop", mw.onApplyCrop),
		fyne.NewMenuItem("Cancel Crop", mw.onCancelCrop),
	)

	mw.fitToWindowItem = fyne.NewMenuItem("Fit to Window", mw.onToggleFitToWindow)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
	)

	var paperItems []*fyne.MenuItem
	for _, name := range config.PaperNames() {
		name := name
		p, _ := config.LookupPaper(name)
		paperItems = append(paperItems, fyne.NewMenuItem(p.Name, func() {
			_, orientation := mw.editor.Paper()
			mw.setPaper(name, orientation)
		}))
	}
	paperItems = append(paperItems,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Portrait", func() { mw.setOrientation(config.Portrait) }),
		fyne.NewMenuItem("Landscape", func() { mw.setOrientation(config.Landscape) }),
	)
	pageMenu := fyne.NewMenu("Page", paperItems...)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, pageMenu, helpMenu))
	mw.updateHistoryItems()
}

// setupShortcuts binds the keyboard.
func (mw *MainWindow) setupShortcuts() {
	c := mw.Canvas()
	add := func(key fyne.KeyName, mod fyne.KeyModifier, fn func()) {
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: mod}, func(fyne.Shortcut) { fn() })
	}
	add(fyne.KeyZ, fyne.KeyModifierShortcutDefault, mw.onUndo)
	add(fyne.KeyY, fyne.KeyModifierShortcutDefault, mw.onRedo)
	add(fyne.KeyZ, fyne.KeyModifierShortcutDefault|fyne.KeyModifierShift, mw.onRedo)
	add(fyne.KeyS, fyne.KeyModifierShortcutDefault, mw.onSaveProject)
	add(fyne.KeyO, fyne.KeyModifierShortcutDefault, mw.onAddImage)
	add(fyne.KeyE, fyne.KeyModifierShortcutDefault, mw.onExport)

	c.SetOnTypedKey(mw.onTypedKey)
}

func (mw *MainWindow) onTypedKey(ev *fyne.KeyEvent) {
	_, cropping := mw.editor.Crop()
	switch ev.Name {
	case fyne.KeyDelete, fyne.KeyBackspace:
		if !cropping {
			mw.onDelete()
		}
	case fyne.KeyEscape:
		if cropping {
			mw.onCancelCrop()
		} else {
			mw.editor.Deselect()
		}
	case fyne.KeyReturn, fyne.KeyEnter:
		if cropping {
			mw.onApplyCrop()
		}
	}
}

// setupEventHandlers registers for editor events.
func (mw *MainWindow) setupEventHandlers() {
	mw.editor.On(app.EventObjectsChanged, func(interface{}) {
		mw.canvas.Refresh()
	})
	mw.editor.On(app.EventSelectionChanged, func(interface{}) {
		mw.canvas.Refresh()
	})
	mw.editor.On(app.EventCropChanged, func(interface{}) {
		mw.canvas.Refresh()
	})
	mw.editor.On(app.EventCanvasChanged, func(interface{}) {
		mw.canvas.CanvasChanged()
		mw.syncPaperControls()
	})
	mw.editor.On(app.EventHistoryChanged, func(interface{}) {
		mw.updateHistoryItems()
		if !mw.syncing {
			mw.setModified(true)
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) showError(err error) {
	mw.log.Warn("operation failed", "error", err)
	dialog.ShowError(err, mw.Window)
}

func (mw *MainWindow) updateTitle() {
	name := "Untitled"
	if mw.projectPath != "" {
		name = filepath.Base(mw.projectPath)
	}
	title := appTitle + " - " + name
	if mw.modified {
		title += " *"
	}
	mw.SetTitle(title)
}

func (mw *MainWindow) setModified(modified bool) {
	if mw.modified == modified {
		return
	}
	mw.modified = modified
	mw.updateTitle()
}

func (mw *MainWindow) updateHistoryItems() {
	if mw.undoItem == nil {
		return
	}
	mw.undoItem.Disabled = !mw.editor.CanUndo()
	mw.redoItem.Disabled = !mw.editor.CanRedo()
	if menu := mw.MainMenu(); menu != nil {
		menu.Refresh()
	}
}

// updateRecentMenu rebuilds the Open Recent submenu from preferences.
func (mw *MainWindow) updateRecentMenu() {
	var items []*fyne.MenuItem
	for _, path := range mw.prefs.Strings(prefs.KeyRecentProjects) {
		path := path
		items = append(items, fyne.NewMenuItem(filepath.Base(path), func() {
			if err := mw.LoadProject(path); err != nil {
				mw.showError(err)
			}
		}))
	}
	if len(items) == 0 {
		none := fyne.NewMenuItem("(none)", nil)
		none.Disabled = true
		items = append(items, none)
	}
	mw.recentItem.ChildMenu = fyne.NewMenu("", items...)
	if menu := mw.MainMenu(); menu != nil {
		menu.Refresh()
	}
}

func (mw *MainWindow) rememberProject(path string) {
	mw.projectPath = path
	mw.modified = false
	mw.prefs.AddRecent(path)
	mw.prefs.SetString(prefs.KeyLastProject, path)
	mw.updateRecentMenu()
	mw.updateTitle()
}

// syncPaperControls mirrors the editor paper into the toolbar selects.
func (mw *MainWindow) syncPaperControls() {
	paper, orientation := mw.editor.Paper()
	prev := mw.syncing
	mw.syncing = true
	defer func() { mw.syncing = prev }()
	mw.paperSelect.SetSelected(paper)
	mw.orientationSelect.SetSelected(orientation)
}

// withSelected runs fn on the selected object.
func (mw *MainWindow) withSelected(fn func(workspace.ObjectID) error) func() {
	return func() {
		o, ok := mw.editor.SelectedObject()
		if !ok {
			mw.updateStatus("Select an image first")
			return
		}
		if err := fn(o.ID); err != nil {
			mw.updateStatus(err.Error())
		}
	}
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(filePath))
}

// restorePreferences applies the saved window size and view settings.
func (mw *MainWindow) restorePreferences() {
	w := mw.prefs.FloatWithFallback(prefs.KeyWindowW, 1200)
	h := mw.prefs.FloatWithFallback(prefs.KeyWindowH, 900)
	mw.Resize(fyne.NewSize(float32(w), float32(h)))

	if mw.prefs.Bool(prefs.KeyFitToWindow, true) {
		mw.setFitToWindow(true)
	} else if zoom := mw.prefs.Float(prefs.KeyZoom); zoom > 0 {
		mw.canvas.SetZoom(zoom)
	}
}

// SavePreferences stores the window and view state.
func (mw *MainWindow) SavePreferences() {
	size := mw.Canvas().Size()
	if size.Width > 0 && size.Height > 0 {
		mw.prefs.SetFloat(prefs.KeyWindowW, float64(size.Width))
		mw.prefs.SetFloat(prefs.KeyWindowH, float64(size.Height))
	}
	mw.prefs.SetFloat(prefs.KeyZoom, mw.canvas.Zoom())
	mw.prefs.SetBool(prefs.KeyFitToWindow, mw.fitToWindowItem.Checked)
	if err := mw.prefs.Save(); err != nil {
		mw.log.Warn("save preferences", "error", err)
	}
}

// LoadProject opens path and makes it the current project.
func (mw *MainWindow) LoadProject(path string) error {
	mw.syncing = true
	err := mw.editor.OpenProject(path)
	mw.syncing = false
	if err != nil {
		return err
	}
	mw.rememberProject(path)
	mw.updateStatus("Project loaded: " + path)
	return nil
}

// AddImage decodes data and places it on the board.
func (mw *MainWindow) AddImage(name string, data []byte) error {
	if _, err := mw.editor.Ingest(context.Background(), data); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	mw.updateStatus("Added " + name)
	return nil
}

// Menu action handlers

func (mw *MainWindow) onNew() {
	mw.syncing = true
	err := mw.editor.Clear()
	mw.syncing = false
	if err != nil {
		mw.showError(err)
		return
	}
	mw.projectPath = ""
	mw.modified = false
	mw.updateTitle()
	mw.updateStatus("New board")
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.LoadProject(path); err != nil {
			mw.showError(err)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{project.Extension}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAddImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		mw.saveLastDir(reader.URI().Path())
		data, err := io.ReadAll(reader)
		if err == nil {
			err = mw.AddImage(reader.URI().Name(), data)
		}
		if err != nil {
			mw.showError(err)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(image.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// onDropped ingests every supported file dropped onto the window.
func (mw *MainWindow) onDropped(_ fyne.Position, uris []fyne.URI) {
	for _, uri := range uris {
		path := uri.Path()
		if strings.EqualFold(filepath.Ext(path), project.Extension) {
			if err := mw.LoadProject(path); err != nil {
				mw.showError(err)
			}
			continue
		}
		if !image.IsSupportedFormat(path) {
			mw.updateStatus("Unsupported file: " + uri.Name())
			continue
		}
		data, err := os.ReadFile(path)
		if err == nil {
			err = mw.AddImage(uri.Name(), data)
		}
		if err != nil {
			mw.showError(err)
		}
	}
}

func (mw *MainWindow) onSaveProject() {
	if mw.projectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	mw.saveProject(mw.projectPath)
}

func (mw *MainWindow) saveProject(path string) {
	if err := mw.editor.SaveProject(path); err != nil {
		mw.showError(err)
		return
	}
	mw.rememberProject(path)
	mw.updateStatus("Project saved: " + path)
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != project.Extension {
			path += project.Extension
		}
		mw.saveLastDir(path)
		mw.saveProject(path)
	}, mw.Window)
	fd.SetFileName("board" + project.Extension)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExport() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if !isExportFormat(path) {
			path += export.Formats()[0]
		}
		mw.saveLastDir(path)
		mw.exportTo(path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(export.Formats()))
	fd.SetFileName("board" + export.Formats()[0])
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// exportTo renders in the background; the editor refuses edits that would
// race it.
func (mw *MainWindow) exportTo(path string) {
	mw.updateStatus("Exporting...")
	go func() {
		ctx := context.Background()
		page, err := mw.editor.Render(ctx)
		if err == nil {
			err = export.WriteFile(ctx, path, page)
		}
		if err != nil {
			mw.updateStatus("Export failed: " + err.Error())
			mw.log.Warn("export failed", "path", path, "error", err)
			return
		}
		mw.updateStatus("Exported " + path)
	}()
}

func isExportFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range export.Formats() {
		if ext == f {
			return true
		}
	}
	return false
}

func (mw *MainWindow) onUndo() {
	if !mw.editor.Undo() {
		mw.updateStatus("Nothing to undo")
	}
}

func (mw *MainWindow) onRedo() {
	if !mw.editor.Redo() {
		mw.updateStatus("Nothing to redo")
	}
}

func (mw *MainWindow) onDelete() {
	mw.withSelected(mw.editor.Delete)()
}

func (mw *MainWindow) onApplyCrop() {
	if _, ok := mw.editor.Crop(); !ok {
		return
	}
	mw.updateStatus("Cropping...")
	go func() {
		if err := mw.editor.CommitCrop(context.Background()); err != nil {
			mw.updateStatus("Crop failed: " + err.Error())
			return
		}
		mw.updateStatus("Cropped")
	}()
}

func (mw *MainWindow) onCancelCrop() {
	if err := mw.editor.CancelCrop(); err != nil {
		mw.updateStatus(err.Error())
	}
}

func (mw *MainWindow) onPaperSelected() {
	if mw.syncing {
		return
	}
	mw.setPaper(mw.paperSelect.Selected, mw.orientationSelect.Selected)
}

func (mw *MainWindow) setOrientation(orientation string) {
	paper, _ := mw.editor.Paper()
	mw.setPaper(paper, orientation)
}

func (mw *MainWindow) setPaper(paper, orientation string) {
	if err := mw.editor.SetPaper(paper, orientation); err != nil {
		mw.updateStatus(err.Error())
		mw.syncPaperControls()
		return
	}
	p, _ := config.LookupPaper(paper)
	mw.updateStatus(fmt.Sprintf("Paper: %s %s", p.Name, orientation))
}

func (mw *MainWindow) onZoomIn() {
	mw.setFitToWindow(false)
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.setFitToWindow(false)
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	mw.setFitToWindow(!mw.fitToWindowItem.Checked)
}

func (mw *MainWindow) setFitToWindow(enabled bool) {
	mw.canvas.SetFitToWindow(enabled)
	mw.fitToWindowItem.Checked = enabled
	if menu := mw.MainMenu(); menu != nil {
		menu.Refresh()
	}
}

func (mw *MainWindow) onActualSize() {
	mw.setFitToWindow(false)
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) onClose() {
	mw.SavePreferences()
	mw.app.Quit()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Lay out images on a printable page.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
