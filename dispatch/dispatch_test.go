package dispatch

import (
	"context"
	"errors"
	"image"
	"slices"
	"testing"

	"github.com/pinkpixel/gumdrop"
	"github.com/pinkpixel/gumdrop/export"
	"github.com/pinkpixel/gumdrop/history"
	"github.com/pinkpixel/gumdrop/project"
	"github.com/pinkpixel/gumdrop/session"
)

// memFiles is an in-memory Persistence.
type memFiles struct {
	files   map[string][]byte
	open    string
	saveAs  string
	exports map[string]export.Format
	fail    error
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string][]byte{}, exports: map[string]export.Format{}}
}

func (m *memFiles) Open(context.Context) (string, []byte, error) {
	if m.fail != nil {
		return "", nil, m.fail
	}
	data, ok := m.files[m.open]
	if !ok {
		return "", nil, errors.New("no such file")
	}
	return m.open, data, nil
}

func (m *memFiles) Save(_ context.Context, name string, data []byte) error {
	if m.fail != nil {
		return m.fail
	}
	m.files[name] = data
	return nil
}

func (m *memFiles) SaveAs(_ context.Context, suggested string, data []byte) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	name := suggested
	if m.saveAs != "" {
		name = m.saveAs
	}
	m.files[name] = data
	return name, nil
}

func (m *memFiles) Export(_ context.Context, suggested string, f export.Format, data []byte) error {
	if m.fail != nil {
		return m.fail
	}
	m.files[suggested] = data
	m.exports[suggested] = f
	return nil
}

func setup(t *testing.T, opts ...Option) (*Dispatcher, *memFiles) {
	t.Helper()
	doc, err := gumdrop.NewDocument(4, 4, gumdrop.WithTitle("Kitty"))
	if err != nil {
		t.Fatal(err)
	}
	sess := session.New(doc)
	t.Cleanup(sess.Close)
	files := newMemFiles()
	return New(sess, files, opts...), files
}

func paintRed(t *testing.T, d *Dispatcher, x, y int) {
	t.Helper()
	_, err := d.Session().Edit(func(doc *gumdrop.Document) (history.Entry, bool, error) {
		return history.Paint(doc, 0, []image.Point{image.Pt(x, y)}, gumdrop.Red)
	})
	if err != nil {
		t.Fatal(err)
	}
}

func pixel(d *Dispatcher, x, y int) gumdrop.Color {
	var c gumdrop.Color
	d.Session().Read(func(doc *gumdrop.Document) { c, _ = doc.Pixel(0, x, y) })
	return c
}

func TestCommands(t *testing.T) {
	d, _ := setup(t)
	want := []string{"export", "new", "open", "redo", "save", "save_as", "toggle_dark", "toggle_grid", "undo", "zoom_in", "zoom_out"}
	if got := d.Commands(); !slices.Equal(got, want) {
		t.Errorf("Commands() = %v, want %v", got, want)
	}
	if err := d.Dispatch(context.Background(), "explode"); !errors.Is(err, gumdrop.ErrUnknownCommand) {
		t.Errorf("unknown command: %v", err)
	}
}

func TestViewCommands(t *testing.T) {
	d, _ := setup(t)
	ctx := context.Background()
	_ = d.Dispatch(ctx, "menu:zoom_in")
	if z := d.View().Zoom; z != 40 {
		t.Errorf("zoom_in at max = %d, want 40", z)
	}
	for range 30 {
		_ = d.Dispatch(ctx, CmdZoomOut)
	}
	if z := d.View().Zoom; z != 4 {
		t.Errorf("zoom_out clamps at %d, want 4", z)
	}
	_ = d.Dispatch(ctx, "Zoom-In")
	if z := d.View().Zoom; z != 6 {
		t.Errorf("zoom = %d, want 6", z)
	}

	before := d.Session().Stamp()
	_ = d.Dispatch(ctx, CmdToggleGrid)
	_ = d.Dispatch(ctx, CmdToggleDark)
	_ = d.Dispatch(ctx, CmdToggleDark)
	if v := d.View(); v.Grid || !v.Dark {
		t.Errorf("view = %+v", v)
	}
	if d.Session().Stamp() != before {
		t.Error("view commands touched the document")
	}
}

func TestUndoRedo(t *testing.T) {
	d, _ := setup(t)
	ctx := context.Background()
	if err := d.Dispatch(ctx, CmdUndo); !errors.Is(err, gumdrop.ErrEmptyHistory) {
		t.Errorf("undo on empty history: %v", err)
	}
	paintRed(t, d, 1, 2)
	if err := d.Dispatch(ctx, CmdUndo); err != nil {
		t.Fatal(err)
	}
	if c := pixel(d, 1, 2); c != gumdrop.Transparent {
		t.Errorf("after undo = %v", c)
	}
	if err := d.Dispatch(ctx, CmdRedo); err != nil {
		t.Fatal(err)
	}
	if c := pixel(d, 1, 2); c != gumdrop.Red {
		t.Errorf("after redo = %v", c)
	}
	if err := d.Dispatch(ctx, CmdRedo); !errors.Is(err, gumdrop.ErrEmptyHistory) {
		t.Errorf("redo on empty history: %v", err)
	}
}

func TestSaveOpenNew(t *testing.T) {
	d, files := setup(t, WithNewDocument(func() (*gumdrop.Document, error) {
		return gumdrop.NewDocument(2, 3)
	}))
	ctx := context.Background()
	paintRed(t, d, 0, 0)

	// save without a name falls through to save_as
	if err := d.Dispatch(ctx, CmdSave); err != nil {
		t.Fatal(err)
	}
	if d.Name() != "Kitty.json" {
		t.Fatalf("name after first save = %q", d.Name())
	}
	saved, err := project.Unmarshal(files.files["Kitty.json"])
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := saved.Pixel(0, 0, 0); c != gumdrop.Red {
		t.Errorf("saved pixel = %v", c)
	}

	paintRed(t, d, 1, 1)
	if err := d.Dispatch(ctx, CmdSave); err != nil {
		t.Fatal(err)
	}
	saved, _ = project.Unmarshal(files.files["Kitty.json"])
	if c, _ := saved.Pixel(0, 1, 1); c != gumdrop.Red {
		t.Error("second save did not overwrite")
	}

	if err := d.Dispatch(ctx, CmdNew); err != nil {
		t.Fatal(err)
	}
	d.Session().Read(func(doc *gumdrop.Document) {
		if doc.Width() != 2 || doc.Height() != 3 {
			t.Errorf("new document %dx%d", doc.Width(), doc.Height())
		}
	})
	if d.Name() != "" || d.Session().CanUndo() {
		t.Error("new kept the name or history")
	}

	files.open = "Kitty.json"
	if err := d.Dispatch(ctx, CmdOpen); err != nil {
		t.Fatal(err)
	}
	if d.Name() != "Kitty.json" || pixel(d, 1, 1) != gumdrop.Red {
		t.Errorf("open: name %q pixel %v", d.Name(), pixel(d, 1, 1))
	}

	files.saveAs = "Copy.json"
	if err := d.Dispatch(ctx, CmdSaveAs); err != nil {
		t.Fatal(err)
	}
	if d.Name() != "Copy.json" {
		t.Errorf("name after save_as = %q", d.Name())
	}
}

func TestOpenInvalidKeepsDocument(t *testing.T) {
	d, files := setup(t)
	paintRed(t, d, 3, 3)
	files.files["bad.json"] = []byte(`{"width":1,"height":1,"layers":[]}`)
	files.open = "bad.json"
	if err := d.Dispatch(context.Background(), CmdOpen); !errors.Is(err, gumdrop.ErrEncodingFailure) {
		t.Errorf("open invalid: %v", err)
	}
	if pixel(d, 3, 3) != gumdrop.Red || !d.Session().CanUndo() {
		t.Error("failed open changed the session")
	}
}

func TestExportCommand(t *testing.T) {
	d, files := setup(t, WithExportOptions(export.Options{Scale: 2}))
	ctx := context.Background()
	for _, name := range []string{"png", "jpg", "svg", "json", "html"} {
		err := d.Dispatch(ctx, CmdExport, name)
		if name == "jpg" {
			if !errors.Is(err, gumdrop.ErrUnsupportedAlpha) {
				t.Errorf("jpg of transparent canvas: %v", err)
			}
			continue
		}
		if err != nil {
			t.Errorf("export %s: %v", name, err)
		}
	}
	for file, f := range map[string]export.Format{"Kitty.png": export.PNG, "Kitty.svg": export.SVG, "Kitty.json": export.JSON, "Kitty.html": export.HTML} {
		if got, ok := files.exports[file]; !ok || got != f {
			t.Errorf("export %s = %v, %v", file, got, ok)
		}
	}

	if err := d.Dispatch(ctx, CmdExport); !errors.Is(err, gumdrop.ErrUnsupportedFormat) {
		t.Errorf("export without format: %v", err)
	}
	if err := d.Dispatch(ctx, CmdExport, "bmp"); !errors.Is(err, gumdrop.ErrUnsupportedFormat) {
		t.Errorf("export bmp: %v", err)
	}
}

func TestPersistenceFailure(t *testing.T) {
	d, files := setup(t)
	files.fail = errors.New("permission denied")
	ctx := context.Background()
	for _, cmd := range []string{CmdOpen, CmdSave, CmdSaveAs} {
		if err := d.Dispatch(ctx, cmd); !errors.Is(err, gumdrop.ErrIOFailure) {
			t.Errorf("%s: %v, want ErrIOFailure", cmd, err)
		}
	}
	if err := d.Dispatch(ctx, CmdExport, "png"); !errors.Is(err, gumdrop.ErrIOFailure) {
		t.Errorf("export: %v", err)
	}

	files.fail = context.Canceled
	if err := d.Dispatch(ctx, CmdOpen); !errors.Is(err, context.Canceled) || errors.Is(err, gumdrop.ErrIOFailure) {
		t.Errorf("cancelled open: %v", err)
	}

	none := New(d.Session(), nil)
	if err := none.Dispatch(ctx, CmdSave); !errors.Is(err, gumdrop.ErrIOFailure) {
		t.Errorf("save without persistence: %v", err)
	}
}

func TestViewStateClamp(t *testing.T) {
	v := ViewState{Zoom: 9, MinZoom: 4, MaxZoom: 10, ZoomStep: 3}
	v.ZoomIn()
	if v.Zoom != 10 {
		t.Errorf("ZoomIn = %d, want 10", v.Zoom)
	}
	v.ZoomOut()
	v.ZoomOut()
	v.ZoomOut()
	if v.Zoom != 4 {
		t.Errorf("ZoomOut = %d, want 4", v.Zoom)
	}
}
