// Package dispatch maps shell commands onto a session.
//
// The application shell delivers named events (menu items, key bindings);
// a Dispatcher runs the matching operation. File commands hand serialized
// project bytes to a Persistence implementation and never touch the file
// system themselves. View commands change only the ViewState.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pinkpixel/gumdrop"
	"github.com/pinkpixel/gumdrop/export"
	"github.com/pinkpixel/gumdrop/project"
	"github.com/pinkpixel/gumdrop/session"
)

// Command names.
const (
	CmdNew        = "new"
	CmdOpen       = "open"
	CmdSave       = "save"
	CmdSaveAs     = "save_as"
	CmdExport     = "export"
	CmdUndo       = "undo"
	CmdRedo       = "redo"
	CmdZoomIn     = "zoom_in"
	CmdZoomOut    = "zoom_out"
	CmdToggleGrid = "toggle_grid"
	CmdToggleDark = "toggle_dark"
)

// Persistence reads and writes bytes on behalf of the core. Failures are
// reported to callers wrapped in gumdrop.ErrIOFailure.
type Persistence interface {
	// Open lets the user pick a project and returns its name and bytes.
	Open(ctx context.Context) (name string, data []byte, err error)
	// Save writes a project under an existing name.
	Save(ctx context.Context, name string, data []byte) error
	// SaveAs writes a project under a new name, starting from suggested,
	// and returns the name used.
	SaveAs(ctx context.Context, suggested string, data []byte) (string, error)
	// Export writes an export payload.
	Export(ctx context.Context, suggested string, f export.Format, data []byte) error
}

// Handler runs one command.
type Handler func(ctx context.Context, args []string) error

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNewDocument sets the factory used by the new command.
func WithNewDocument(fn func() (*gumdrop.Document, error)) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.newDoc = fn
		}
	}
}

// WithExportOptions sets the encoder options used by the export command.
func WithExportOptions(o export.Options) Option {
	return func(d *Dispatcher) {
		d.exportOpts = o
	}
}

// WithView sets the initial view state.
func WithView(v ViewState) Option {
	return func(d *Dispatcher) {
		d.view = v
	}
}

// DefaultView is the initial view: zoom 40 in [4,40] by 2, grid shown,
// dark theme.
func DefaultView() ViewState {
	return ViewState{Zoom: 40, MinZoom: 4, MaxZoom: 40, ZoomStep: 2, Grid: true, Dark: true}
}

// Dispatcher runs shell commands against a session.
type Dispatcher struct {
	sess  *session.Session
	files Persistence

	newDoc     func() (*gumdrop.Document, error)
	exportOpts export.Options

	mu   sync.Mutex // serializes file and history commands
	name string

	viewMu sync.Mutex
	view   ViewState

	handlers map[string]Handler
}

// New returns a dispatcher for sess. files may be nil, in which case the
// file commands fail with gumdrop.ErrIOFailure.
func New(sess *session.Session, files Persistence, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sess:  sess,
		files: files,
		newDoc: func() (*gumdrop.Document, error) {
			return gumdrop.NewDocument(40, 40)
		},
		view: DefaultView(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.handlers = map[string]Handler{
		CmdNew:    func(ctx context.Context, _ []string) error { return d.New(ctx) },
		CmdOpen:   func(ctx context.Context, _ []string) error { return d.Open(ctx) },
		CmdSave:   func(ctx context.Context, _ []string) error { return d.Save(ctx) },
		CmdSaveAs: func(ctx context.Context, _ []string) error { return d.SaveAs(ctx) },
		CmdExport: d.exportCommand,
		CmdUndo:   func(context.Context, []string) error { return d.Undo() },
		CmdRedo:   func(context.Context, []string) error { return d.Redo() },
		CmdZoomIn: func(context.Context, []string) error {
			d.updateView((*ViewState).ZoomIn)
			return nil
		},
		CmdZoomOut: func(context.Context, []string) error {
			d.updateView((*ViewState).ZoomOut)
			return nil
		},
		CmdToggleGrid: func(context.Context, []string) error {
			d.updateView((*ViewState).ToggleGrid)
			return nil
		},
		CmdToggleDark: func(context.Context, []string) error {
			d.updateView((*ViewState).ToggleDark)
			return nil
		},
	}
	return d
}

// Commands returns the command names in sorted order.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dispatch runs the named command. Names may use "-" for "_" and any
// case, as menu identifiers often do. A "menu:" prefix is ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args ...string) error {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "menu:"))
	key = strings.ReplaceAll(key, "-", "_")
	h, ok := d.handlers[key]
	if !ok {
		return fmt.Errorf("dispatch: %q: %w", name, gumdrop.ErrUnknownCommand)
	}
	gumdrop.Logger().Debug("dispatch: command", "name", key, "args", args)
	err := h(ctx, args)
	if err != nil && !errors.Is(err, gumdrop.ErrEmptyHistory) {
		gumdrop.Logger().Warn("dispatch: command failed", "name", key, "err", err)
	}
	return err
}

// Session returns the session commands run against.
func (d *Dispatcher) Session() *session.Session { return d.sess }

// Name returns the current project name, empty until the project has been
// opened or saved.
func (d *Dispatcher) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

// View returns a copy of the view state.
func (d *Dispatcher) View() ViewState {
	d.viewMu.Lock()
	defer d.viewMu.Unlock()
	return d.view
}

func (d *Dispatcher) updateView(fn func(*ViewState)) {
	d.viewMu.Lock()
	defer d.viewMu.Unlock()
	fn(&d.view)
}

// New replaces the document with a blank one.
func (d *Dispatcher) New(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, err := d.newDoc()
	if err != nil {
		return fmt.Errorf("dispatch: new: %w", err)
	}
	if err := d.sess.Replace(doc); err != nil {
		return err
	}
	d.name = ""
	return nil
}

// Open asks the persistence layer for a project and replaces the document
// with it. A project that fails to decode leaves the session untouched.
func (d *Dispatcher) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.files == nil {
		return errNoFiles(CmdOpen)
	}
	name, data, err := d.files.Open(ctx)
	if err != nil {
		return ioErr(CmdOpen, err)
	}
	doc, err := project.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("dispatch: open %q: %w", name, err)
	}
	if err := d.sess.Replace(doc); err != nil {
		return err
	}
	d.name = name
	return nil
}

// Save writes the project under its current name, or behaves like SaveAs
// when it has none.
func (d *Dispatcher) Save(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.name == "" {
		return d.saveAs(ctx)
	}
	if d.files == nil {
		return errNoFiles(CmdSave)
	}
	data, err := d.projectBytes()
	if err != nil {
		return err
	}
	if err := d.files.Save(ctx, d.name, data); err != nil {
		return ioErr(CmdSave, err)
	}
	return nil
}

// SaveAs writes the project under a new name.
func (d *Dispatcher) SaveAs(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saveAs(ctx)
}

func (d *Dispatcher) saveAs(ctx context.Context) error {
	if d.files == nil {
		return errNoFiles(CmdSaveAs)
	}
	data, err := d.projectBytes()
	if err != nil {
		return err
	}
	name, err := d.files.SaveAs(ctx, d.suggest(export.JSON), data)
	if err != nil {
		return ioErr(CmdSaveAs, err)
	}
	d.name = name
	return nil
}

func (d *Dispatcher) projectBytes() ([]byte, error) {
	snap, _ := d.sess.Snapshot()
	return project.Marshal(snap)
}

// Export encodes the document in format f and hands the bytes to the
// persistence layer.
func (d *Dispatcher) Export(ctx context.Context, f export.Format) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.files == nil {
		return errNoFiles(CmdExport)
	}
	res := d.sess.Export(ctx, f, d.exportOpts)
	if res.Err != nil {
		return res.Err
	}
	if err := d.files.Export(ctx, d.suggest(f), f, res.Data); err != nil {
		return ioErr(CmdExport, err)
	}
	return nil
}

func (d *Dispatcher) exportCommand(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("dispatch: export wants one format argument, got %d: %w", len(args), gumdrop.ErrUnsupportedFormat)
	}
	f, err := export.ParseFormat(args[0])
	if err != nil {
		return err
	}
	return d.Export(ctx, f)
}

// Undo reverts the last edit. gumdrop.ErrEmptyHistory means there was
// nothing to undo.
func (d *Dispatcher) Undo() error {
	_, err := d.sess.Undo()
	return err
}

// Redo re-applies the last undone edit.
func (d *Dispatcher) Redo() error {
	_, err := d.sess.Redo()
	return err
}

// suggest derives a file name from the project name or document title.
func (d *Dispatcher) suggest(f export.Format) string {
	base := strings.TrimSuffix(d.name, export.JSON.Extension())
	if base == "" {
		d.sess.Read(func(doc *gumdrop.Document) { base = doc.Metadata().Title })
	}
	if base == "" {
		base = "untitled"
	}
	return base + f.Extension()
}

func errNoFiles(cmd string) error {
	return fmt.Errorf("dispatch: %s: no persistence configured: %w", cmd, gumdrop.ErrIOFailure)
}

func ioErr(cmd string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, gumdrop.ErrIOFailure) {
		return fmt.Errorf("dispatch: %s: %w", cmd, err)
	}
	return fmt.Errorf("dispatch: %s: %v: %w", cmd, err, gumdrop.ErrIOFailure)
}
