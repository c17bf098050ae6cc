package history

import "errors"

// Group is an open transaction on an Engine. Entries applied while a group
// is open are committed as a single undo step when the outermost group
// ends. Groups nest: inner groups join the outer transaction.
//
// Every group must be closed with End or Abort on all paths:
//
//	g := eng.BeginGroup()
//	defer g.End()
type Group struct {
	e      *Engine
	txn    uint64
	closed bool
}

// BeginGroup opens a group, typically on pointer-down.
func (e *Engine) BeginGroup() *Group {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.depth == 0 {
		e.txn++
		e.pending = nil
	}
	e.depth++
	return &Group{e: e, txn: e.txn}
}

// End closes the group. Closing the outermost group records everything
// applied inside it as one entry. End on a closed group is a no-op.
func (g *Group) End() {
	e := g.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if g.closed || g.txn != e.txn || e.depth == 0 {
		g.closed = true
		return
	}
	g.closed = true
	e.depth--
	if e.depth > 0 {
		return
	}

	pending := e.pending
	e.pending = nil
	if entry, ok := coalesce(pending); ok {
		e.redo = nil
		e.push(entry)
	}
}

// Abort reverts everything applied in the transaction and closes it,
// including any enclosing groups. The redo stack is left as it was. A
// failed revert does not stop the others; their errors are joined.
// Abort after End is a no-op.
func (g *Group) Abort() error {
	e := g.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if g.closed || g.txn != e.txn || e.depth == 0 {
		g.closed = true
		return nil
	}
	g.closed = true
	e.depth = 0
	e.txn++

	pending := e.pending
	e.pending = nil
	var errs []error
	for i := len(pending) - 1; i >= 0; i-- {
		if err := revert(e.doc, pending[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Closed reports whether End or Abort has been called.
func (g *Group) Closed() bool {
	g.e.mu.Lock()
	defer g.e.mu.Unlock()
	return g.closed || g.txn != g.e.txn
}

// coalesce turns the entries of a transaction into one entry. Pixel-only
// transactions merge into a single pixel edit keeping, per cell, the first
// old color and the last new color; cells that end where they started are
// dropped. Anything else becomes a batch.
func coalesce(entries []Entry) (Entry, bool) {
	switch len(entries) {
	case 0:
		return Entry{}, false
	case 1:
		if entries[0].Kind != KindPixelEdit {
			return entries[0], true
		}
	}

	for _, en := range entries {
		if en.Kind != KindPixelEdit {
			return Entry{Kind: KindBatch, Children: entries}, true
		}
	}

	index := make(map[cell]int)
	var merged []PixelChange
	for _, en := range entries {
		for _, p := range en.Pixels {
			k := cell{p.Layer, p.X, p.Y}
			if i, ok := index[k]; ok {
				merged[i].New = p.New
				continue
			}
			index[k] = len(merged)
			merged = append(merged, p)
		}
	}

	out := merged[:0]
	for _, p := range merged {
		if p.Old != p.New {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return Entry{}, false
	}
	return Entry{Kind: KindPixelEdit, Pixels: out}, true
}
