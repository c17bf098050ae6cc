// Package history records mutations of a gumdrop.Document as reversible
// entries and provides undo and redo.
//
// An Entry is a closed tagged union over the kinds of edit a document
// supports. Every kind has an apply and a revert function looked up by tag;
// apply validates before it mutates, so a rejected entry leaves the
// document untouched. Entries are stored by value in the engine's stacks.
//
// # Example
//
//	eng := history.New(doc)
//	g := eng.BeginGroup()
//	defer g.End()
//	for _, pt := range stroke {
//	    if e, ok, _ := history.Paint(doc, layer, []image.Point{pt}, gumdrop.Red); ok {
//	        eng.Apply(e)
//	    }
//	}
package history

import (
	"image"

	"github.com/pinkpixel/gumdrop"
)

// Kind identifies the type of an entry.
type Kind uint8

const (
	KindPixelEdit     Kind = iota // per-pixel old/new pairs
	KindLayerAdd                  // insert a layer
	KindLayerRemove               // remove a layer
	KindLayerReorder              // move a layer within the stack
	KindLayerProperty             // change name, visibility, opacity or blend mode
	KindCanvasResize              // change canvas dimensions
	KindBatch                     // several entries undone as one

	kindCount
)

var kindNames = [...]string{
	KindPixelEdit:     "PixelEdit",
	KindLayerAdd:      "LayerAdd",
	KindLayerRemove:   "LayerRemove",
	KindLayerReorder:  "LayerReorder",
	KindLayerProperty: "LayerProperty",
	KindCanvasResize:  "CanvasResize",
	KindBatch:         "Batch",
}

// String returns the string representation of a Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// PixelChange is one cell of a pixel edit.
type PixelChange struct {
	Layer int
	X, Y  int
	Old   gumdrop.Color
	New   gumdrop.Color
}

// Entry describes one reversible mutation. Which fields are meaningful
// depends on Kind:
//
//	KindPixelEdit     Pixels
//	KindLayerAdd      Index (insert position), Layer
//	KindLayerRemove   Index; Layer and Replaced are recorded on apply
//	KindLayerReorder  Index (from), To
//	KindLayerProperty Index, Property, New; Old is recorded on apply
//	KindCanvasResize  NewSize; OldSize and OldBuffers are recorded on apply
//	KindBatch         Children
//
// ActiveBefore is recorded for every kind that changes the stack.
// Once an entry has been applied and pushed it is never modified.
type Entry struct {
	Kind Kind

	Pixels []PixelChange

	Index    int
	To       int
	Layer    *gumdrop.Layer
	Replaced bool

	Property gumdrop.Property
	Old      gumdrop.LayerProps
	New      gumdrop.LayerProps

	OldSize    image.Point
	NewSize    image.Point
	OldBuffers []*gumdrop.Buffer

	ActiveBefore int

	Children []Entry
}

// Size estimates the memory held by the entry, in bytes.
func (e *Entry) Size() int64 {
	const overhead = 128
	switch e.Kind {
	case KindPixelEdit:
		return overhead + int64(len(e.Pixels))*32
	case KindLayerAdd, KindLayerRemove:
		if e.Layer == nil {
			return overhead
		}
		b := e.Layer.Buffer()
		return overhead + int64(b.Width()*b.Height()*4)
	case KindCanvasResize:
		n := int64(overhead)
		for _, b := range e.OldBuffers {
			n += int64(b.Width() * b.Height() * 4)
		}
		return n
	case KindBatch:
		n := int64(overhead)
		for i := range e.Children {
			n += e.Children[i].Size()
		}
		return n
	default:
		return overhead
	}
}
