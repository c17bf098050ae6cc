// Package session owns the live document.
//
// A Session is the one place a document is mutated from. It routes edits
// through a history.Engine, serves composites from a compositor, and runs
// exports against immutable snapshots so that an in-flight export never
// races with editing. Mutation, undo and redo share one critical section.
package session

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/pinkpixel/gumdrop"
	"github.com/pinkpixel/gumdrop/composite"
	"github.com/pinkpixel/gumdrop/history"
)

// Policy decides what an export does when the document changes while it
// is running.
type Policy int

const (
	// Snapshot completes the export against the document as it was when
	// the export started.
	Snapshot Policy = iota

	// RestartOnChange re-runs the export against the newer document, up
	// to the session's restart limit, then completes against the last
	// snapshot taken.
	RestartOnChange
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case Snapshot:
		return "snapshot"
	case RestartOnChange:
		return "restart"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// DefaultMaxRestarts bounds RestartOnChange exports.
const DefaultMaxRestarts = 3

// Option configures a Session.
type Option func(*Session)

// WithHistory passes options to the history engine.
func WithHistory(opts ...history.Option) Option {
	return func(s *Session) {
		s.historyOpts = append(s.historyOpts, opts...)
	}
}

// WithCompositor passes options to the compositor.
func WithCompositor(opts ...composite.Option) Option {
	return func(s *Session) {
		s.compositeOpts = append(s.compositeOpts, opts...)
	}
}

// WithPolicy sets the default export policy.
func WithPolicy(p Policy) Option {
	return func(s *Session) {
		s.policy = p
	}
}

// WithMaxRestarts sets the restart limit for RestartOnChange exports.
func WithMaxRestarts(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.maxRestarts = n
		}
	}
}

// Stamp identifies a document state. Gen changes when the document is
// replaced; Version changes on every mutation.
type Stamp struct {
	Gen     uint64
	Version uint64
}

// Session is the single logical owner of a document.
type Session struct {
	mu   sync.Mutex
	doc  *gumdrop.Document
	gen  uint64
	hist *history.Engine
	comp *composite.Compositor

	policy      Policy
	maxRestarts int

	historyOpts   []history.Option
	compositeOpts []composite.Option

	exports sync.WaitGroup

	// afterEncode runs between encoding a snapshot and checking it is
	// still current. Tests use it to edit mid-export.
	afterEncode func()
}

// New returns a session owning doc.
func New(doc *gumdrop.Document, opts ...Option) *Session {
	s := &Session{
		doc:         doc,
		gen:         1,
		maxRestarts: DefaultMaxRestarts,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hist = history.New(doc, s.historyOpts...)
	s.comp = composite.New(s.compositeOpts...)
	gumdrop.Logger().Info("session: document opened",
		"width", doc.Width(), "height", doc.Height(), "title", doc.Metadata().Title)
	return s
}

// Replace swaps in a new document and clears history. It fails with
// gumdrop.ErrGroupOpen while a stroke group is open.
func (s *Session) Replace(doc *gumdrop.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hist.Reset(doc); err != nil {
		return fmt.Errorf("session: replace: %w", err)
	}
	s.comp.Forget(s.doc)
	s.doc = doc
	s.gen++
	gumdrop.Logger().Info("session: document replaced",
		"width", doc.Width(), "height", doc.Height(), "title", doc.Metadata().Title, "gen", s.gen)
	return nil
}

// Stamp returns the current document state identifier.
func (s *Session) Stamp() Stamp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stampLocked()
}

func (s *Session) stampLocked() Stamp {
	return Stamp{Gen: s.gen, Version: s.doc.Version()}
}

// Snapshot returns a deep copy of the document and the state it was
// taken at.
func (s *Session) Snapshot() (*gumdrop.Document, Stamp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), s.stampLocked()
}

// Read calls fn with the live document while holding the session lock.
// fn must not retain or mutate the document.
func (s *Session) Read(fn func(doc *gumdrop.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

// Apply records one history entry.
func (s *Session) Apply(entry history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Apply(entry)
}

// Edit builds an entry from the live document and applies it in the same
// critical section. A builder that reports no change is not applied.
//
//	changed, err := sess.Edit(func(doc *gumdrop.Document) (history.Entry, bool, error) {
//	    return history.Paint(doc, doc.ActiveIndex(), raster.Line(0, 0, 9, 9), gumdrop.Red)
//	})
func (s *Session) Edit(build func(doc *gumdrop.Document) (history.Entry, bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok, err := build(s.doc)
	if err != nil || !ok {
		return false, err
	}
	if err := s.hist.Apply(entry); err != nil {
		return false, err
	}
	return true, nil
}

// Undo reverts the most recent entry.
func (s *Session) Undo() (history.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Undo()
}

// Redo re-applies the most recently undone entry.
func (s *Session) Redo() (history.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.Redo()
}

// CanUndo reports whether Undo would do something.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether Redo would do something.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// HistoryStats returns the engine's bookkeeping.
func (s *Session) HistoryStats() history.Stats { return s.hist.Stats() }

// SetActive selects the layer that tools paint on. It is not recorded in
// history.
func (s *Session) SetActive(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.SetActive(i)
}

// SetTitle renames the document.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SetTitle(title)
}

// AddPaletteColor appends c to the palette unless present.
func (s *Session) AddPaletteColor(c gumdrop.Color) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.AddPaletteColor(c)
}

// RemovePaletteColor removes c from the palette.
func (s *Session) RemovePaletteColor(c gumdrop.Color) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.RemovePaletteColor(c)
}

// Composite returns the flattened live document.
func (s *Session) Composite(ctx context.Context) (*image.NRGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.comp.CompositeContext(ctx, s.doc)
}

// Close waits for running exports and stops the compositor workers.
func (s *Session) Close() {
	s.exports.Wait()
	s.comp.Close()
}
