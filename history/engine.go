package history

import (
	"fmt"
	"slices"
	"sync"

	"github.com/pinkpixel/gumdrop"
)

// Default limits for the undo stack.
const (
	DefaultMaxEntries       = 200
	DefaultMaxBytes   int64 = 64 << 20
)

// Option configures an Engine.
type Option func(*Engine)

// WithMaxEntries caps the number of undo entries. Values below 1 are
// ignored.
func WithMaxEntries(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxEntries = n
		}
	}
}

// WithMaxBytes caps the estimated memory held by undo entries. Values
// below 1 are ignored.
func WithMaxBytes(n int64) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxBytes = n
		}
	}
}

// Engine is the single mutation entry point for a document. Apply, Undo
// and Redo form one critical section: no edit can run while an undo or
// redo of the same document is in progress.
//
// When the undo stack exceeds its entry or byte budget the oldest entries
// are dropped and cannot be recovered. The newest entry is always kept.
type Engine struct {
	mu  sync.Mutex
	doc *gumdrop.Document

	undo  []Entry
	redo  []Entry
	bytes int64

	maxEntries int
	maxBytes   int64
	evicted    int

	// open group state
	depth   int
	txn     uint64
	pending []Entry
}

// New creates an engine for doc with empty history.
func New(doc *gumdrop.Document, opts ...Option) *Engine {
	e := &Engine{
		doc:        doc,
		maxEntries: DefaultMaxEntries,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Document returns the document the engine mutates.
func (e *Engine) Document() *gumdrop.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// Reset replaces the document and clears both stacks. History is never
// carried over to a new document.
func (e *Engine) Reset(doc *gumdrop.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.depth > 0 {
		return fmt.Errorf("reset: %w", gumdrop.ErrGroupOpen)
	}
	e.doc = doc
	e.clearLocked()
	return nil
}

// Clear drops all undo and redo entries.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()
}

func (e *Engine) clearLocked() {
	e.undo = nil
	e.redo = nil
	e.bytes = 0
}

// Apply validates entry, mutates the document and records the entry.
// A new edit clears the redo stack. Inside a group the entry is applied
// immediately but recorded, and the redo stack cleared, only when the
// group ends with a net change.
func (e *Engine) Apply(entry Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	recorded, err := apply(e.doc, entry)
	if err != nil {
		gumdrop.Logger().Warn("history: entry rejected", "kind", entry.Kind.String(), "err", err)
		return err
	}
	if e.depth > 0 {
		e.pending = append(e.pending, recorded)
		return nil
	}
	e.redo = nil
	e.push(recorded)
	return nil
}

// Undo reverts the most recent entry and moves it to the redo stack.
// It returns ErrEmptyHistory when there is nothing to undo.
func (e *Engine) Undo() (Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.depth > 0 {
		return Entry{}, fmt.Errorf("undo: %w", gumdrop.ErrGroupOpen)
	}
	if len(e.undo) == 0 {
		return Entry{}, gumdrop.ErrEmptyHistory
	}
	entry := e.undo[len(e.undo)-1]
	if err := revert(e.doc, entry); err != nil {
		return Entry{}, fmt.Errorf("undo %s: %w", entry.Kind, err)
	}
	e.undo = e.undo[:len(e.undo)-1]
	e.bytes -= entry.Size()
	e.redo = append(e.redo, entry)
	return entry, nil
}

// Redo re-applies the most recently undone entry.
// It returns ErrEmptyHistory when there is nothing to redo.
func (e *Engine) Redo() (Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.depth > 0 {
		return Entry{}, fmt.Errorf("redo: %w", gumdrop.ErrGroupOpen)
	}
	if len(e.redo) == 0 {
		return Entry{}, gumdrop.ErrEmptyHistory
	}
	entry := e.redo[len(e.redo)-1]
	recorded, err := apply(e.doc, entry)
	if err != nil {
		return Entry{}, fmt.Errorf("redo %s: %w", entry.Kind, err)
	}
	e.redo = e.redo[:len(e.redo)-1]
	e.push(recorded)
	return recorded, nil
}

// push appends to the undo stack and evicts the oldest entries while the
// stack is over budget.
func (e *Engine) push(entry Entry) {
	e.undo = append(e.undo, entry)
	e.bytes += entry.Size()
	for len(e.undo) > 1 && (len(e.undo) > e.maxEntries || e.bytes > e.maxBytes) {
		dropped := e.undo[0]
		e.undo = slices.Delete(e.undo, 0, 1)
		e.bytes -= dropped.Size()
		e.evicted++
		gumdrop.Logger().Debug("history: evicted oldest entry",
			"kind", dropped.Kind.String(), "remaining", len(e.undo), "bytes", e.bytes)
	}
}

// CanUndo reports whether Undo would do something.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.undo) > 0 && e.depth == 0
}

// CanRedo reports whether Redo would do something.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.redo) > 0 && e.depth == 0
}

// Stats is a snapshot of the engine's bookkeeping.
type Stats struct {
	UndoLen int
	RedoLen int
	Bytes   int64
	Evicted int
	Grouped bool
}

// Stats returns the current stack sizes.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		UndoLen: len(e.undo),
		RedoLen: len(e.redo),
		Bytes:   e.bytes,
		Evicted: e.evicted,
		Grouped: e.depth > 0,
	}
}
