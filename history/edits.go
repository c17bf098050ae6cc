package history

import (
	"fmt"
	"image"

	"github.com/pinkpixel/gumdrop"
)

// PixelEdit returns a pixel-edit entry for the given changes. Old colors
// are recorded when the entry is applied.
func PixelEdit(changes ...PixelChange) Entry {
	return Entry{Kind: KindPixelEdit, Pixels: changes}
}

// Paint returns a pixel edit setting every point on layer to c. Points
// outside the canvas are skipped, as are cells already holding c; a point
// listed twice is written once. ok is false when nothing would change.
func Paint(doc *gumdrop.Document, layer int, pts []image.Point, c gumdrop.Color) (entry Entry, ok bool, err error) {
	l, err := doc.Layers().At(layer)
	if err != nil {
		return Entry{}, false, fmt.Errorf("paint: %w", err)
	}
	buf := l.Buffer()

	seen := make(map[image.Point]struct{}, len(pts))
	changes := make([]PixelChange, 0, len(pts))
	for _, pt := range pts {
		if !buf.InBounds(pt.X, pt.Y) {
			continue
		}
		if _, dup := seen[pt]; dup {
			continue
		}
		seen[pt] = struct{}{}
		old, _ := buf.Get(pt.X, pt.Y)
		if old == c {
			continue
		}
		changes = append(changes, PixelChange{Layer: layer, X: pt.X, Y: pt.Y, Old: old, New: c})
	}
	if len(changes) == 0 {
		return Entry{}, false, nil
	}
	return PixelEdit(changes...), true, nil
}

// Erase is Paint with the transparent sentinel.
func Erase(doc *gumdrop.Document, layer int, pts []image.Point) (Entry, bool, error) {
	return Paint(doc, layer, pts, gumdrop.Transparent)
}

// Fill returns a pixel edit setting every cell of layer to c.
func Fill(doc *gumdrop.Document, layer int, c gumdrop.Color) (Entry, bool, error) {
	pts := make([]image.Point, 0, doc.Width()*doc.Height())
	for y := range doc.Height() {
		for x := range doc.Width() {
			pts = append(pts, image.Pt(x, y))
		}
	}
	return Paint(doc, layer, pts, c)
}

// AddLayer returns an entry inserting a copy of l at pos.
func AddLayer(pos int, l *gumdrop.Layer) Entry {
	var c *gumdrop.Layer
	if l != nil {
		c = l.Clone()
	}
	return Entry{Kind: KindLayerAdd, Index: pos, Layer: c}
}

// AddBlankLayer returns an entry inserting a transparent layer above the
// active one.
func AddBlankLayer(doc *gumdrop.Document, name string) Entry {
	return Entry{Kind: KindLayerAdd, Index: doc.ActiveIndex() + 1, Layer: doc.NewBlankLayer(name)}
}

// DuplicateLayer returns an entry inserting a deep copy of layer i directly
// above it.
func DuplicateLayer(doc *gumdrop.Document, i int) (Entry, error) {
	l, err := doc.Layers().At(i)
	if err != nil {
		return Entry{}, fmt.Errorf("duplicate layer: %w", err)
	}
	p := l.Props()
	p.Name += " copy"
	dup, err := gumdrop.NewLayerWithProps(p, l.Buffer().Clone())
	if err != nil {
		return Entry{}, fmt.Errorf("duplicate layer: %w", err)
	}
	return Entry{Kind: KindLayerAdd, Index: i + 1, Layer: dup}, nil
}

// RemoveLayer returns an entry removing layer i.
func RemoveLayer(i int) Entry {
	return Entry{Kind: KindLayerRemove, Index: i}
}

// ReorderLayer returns an entry moving the layer at from to position to.
func ReorderLayer(from, to int) Entry {
	return Entry{Kind: KindLayerReorder, Index: from, To: to}
}

// SetProperty returns an entry changing one property of layer i. The value
// is validated now; opacity outside [0, 1] fails with ErrInvalidValue.
func SetProperty(doc *gumdrop.Document, i int, prop gumdrop.Property, value any) (Entry, error) {
	l, err := doc.Layers().At(i)
	if err != nil {
		return Entry{}, fmt.Errorf("set %s: %w", prop, err)
	}
	next, err := l.Props().With(prop, value)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Kind: KindLayerProperty, Index: i, Property: prop, Old: l.Props(), New: next}, nil
}

// SetProps returns an entry replacing all metadata of layer i.
func SetProps(i int, p gumdrop.LayerProps) Entry {
	return Entry{Kind: KindLayerProperty, Index: i, Property: gumdrop.PropName, New: p}
}

// Resize returns an entry changing the canvas to width x height.
func Resize(width, height int) Entry {
	return Entry{Kind: KindCanvasResize, NewSize: image.Pt(width, height)}
}

// Batch returns an entry applying children in order as one undo step.
func Batch(children ...Entry) Entry {
	return Entry{Kind: KindBatch, Children: children}
}
