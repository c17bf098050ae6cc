package history

import (
	"errors"
	"fmt"
	"image"

	"github.com/pinkpixel/gumdrop"
)

// kindOps is the forward/inverse pair for one entry kind. apply returns
// the entry as recorded, with any state it needs for revert filled in.
type kindOps struct {
	apply  func(doc *gumdrop.Document, e Entry) (Entry, error)
	revert func(doc *gumdrop.Document, e Entry) error
}

// ops is indexed by Kind. Every kind must have an entry.
var ops [kindCount]kindOps

func init() {
	ops = [kindCount]kindOps{
		KindPixelEdit:     {applyPixelEdit, revertPixelEdit},
		KindLayerAdd:      {applyLayerAdd, revertLayerAdd},
		KindLayerRemove:   {applyLayerRemove, revertLayerRemove},
		KindLayerReorder:  {applyLayerReorder, revertLayerReorder},
		KindLayerProperty: {applyLayerProperty, revertLayerProperty},
		KindCanvasResize:  {applyCanvasResize, revertCanvasResize},
		KindBatch:         {applyBatch, revertBatch},
	}
}

func apply(doc *gumdrop.Document, e Entry) (Entry, error) {
	if e.Kind >= kindCount {
		return e, fmt.Errorf("apply kind %d: %w", e.Kind, gumdrop.ErrInvalidValue)
	}
	return ops[e.Kind].apply(doc, e)
}

func revert(doc *gumdrop.Document, e Entry) error {
	if e.Kind >= kindCount {
		return fmt.Errorf("revert kind %d: %w", e.Kind, gumdrop.ErrInvalidValue)
	}
	return ops[e.Kind].revert(doc, e)
}

type cell struct{ layer, x, y int }

// applyPixelEdit records the current color of every cell as Old, in order,
// so that reverting in reverse order restores the document exactly even
// when a cell appears more than once.
func applyPixelEdit(doc *gumdrop.Document, e Entry) (Entry, error) {
	writes := make([]gumdrop.PixelWrite, len(e.Pixels))
	for i, p := range e.Pixels {
		writes[i] = gumdrop.PixelWrite{Layer: p.Layer, X: p.X, Y: p.Y, Color: p.New}
	}
	if err := doc.CheckPixels(writes); err != nil {
		return e, fmt.Errorf("pixel edit: %w", err)
	}

	recorded := make([]PixelChange, len(e.Pixels))
	pending := make(map[cell]gumdrop.Color, len(e.Pixels))
	for i, p := range e.Pixels {
		k := cell{p.Layer, p.X, p.Y}
		old, seen := pending[k]
		if !seen {
			old, _ = doc.Pixel(p.Layer, p.X, p.Y)
		}
		recorded[i] = PixelChange{Layer: p.Layer, X: p.X, Y: p.Y, Old: old, New: p.New}
		pending[k] = p.New
	}

	if err := doc.WritePixels(writes); err != nil {
		return e, fmt.Errorf("pixel edit: %w", err)
	}
	e.Pixels = recorded
	return e, nil
}

func revertPixelEdit(doc *gumdrop.Document, e Entry) error {
	writes := make([]gumdrop.PixelWrite, len(e.Pixels))
	for i := range e.Pixels {
		p := e.Pixels[len(e.Pixels)-1-i]
		writes[i] = gumdrop.PixelWrite{Layer: p.Layer, X: p.X, Y: p.Y, Color: p.Old}
	}
	if err := doc.WritePixels(writes); err != nil {
		return fmt.Errorf("revert pixel edit: %w", err)
	}
	return nil
}

func applyLayerAdd(doc *gumdrop.Document, e Entry) (Entry, error) {
	e.ActiveBefore = doc.ActiveIndex()
	if err := doc.InsertLayer(e.Index, e.Layer); err != nil {
		return e, fmt.Errorf("add layer: %w", err)
	}
	return e, nil
}

func revertLayerAdd(doc *gumdrop.Document, e Entry) error {
	if _, _, err := doc.RemoveLayer(e.Index); err != nil {
		return fmt.Errorf("revert add layer: %w", err)
	}
	return restoreActive(doc, e.ActiveBefore)
}

func applyLayerRemove(doc *gumdrop.Document, e Entry) (Entry, error) {
	e.ActiveBefore = doc.ActiveIndex()
	removed, replaced, err := doc.RemoveLayer(e.Index)
	if err != nil {
		return e, fmt.Errorf("remove layer: %w", err)
	}
	e.Layer = removed
	e.Replaced = replaced
	return e, nil
}

func revertLayerRemove(doc *gumdrop.Document, e Entry) error {
	var err error
	if e.Replaced {
		_, err = doc.ReplaceLayer(0, e.Layer)
	} else {
		err = doc.InsertLayer(e.Index, e.Layer)
	}
	if err != nil {
		return fmt.Errorf("revert remove layer: %w", err)
	}
	return restoreActive(doc, e.ActiveBefore)
}

func applyLayerReorder(doc *gumdrop.Document, e Entry) (Entry, error) {
	e.ActiveBefore = doc.ActiveIndex()
	if err := doc.MoveLayer(e.Index, e.To); err != nil {
		return e, fmt.Errorf("reorder layer: %w", err)
	}
	return e, nil
}

func revertLayerReorder(doc *gumdrop.Document, e Entry) error {
	if err := doc.MoveLayer(e.To, e.Index); err != nil {
		return fmt.Errorf("revert reorder layer: %w", err)
	}
	return restoreActive(doc, e.ActiveBefore)
}

func applyLayerProperty(doc *gumdrop.Document, e Entry) (Entry, error) {
	l, err := doc.Layers().At(e.Index)
	if err != nil {
		return e, fmt.Errorf("set %s: %w", e.Property, err)
	}
	old := l.Props()
	if err := doc.SetLayerProps(e.Index, e.New); err != nil {
		return e, fmt.Errorf("set %s: %w", e.Property, err)
	}
	e.Old = old
	e.New = l.Props()
	return e, nil
}

func revertLayerProperty(doc *gumdrop.Document, e Entry) error {
	if err := doc.SetLayerProps(e.Index, e.Old); err != nil {
		return fmt.Errorf("revert set %s: %w", e.Property, err)
	}
	return nil
}

func applyCanvasResize(doc *gumdrop.Document, e Entry) (Entry, error) {
	oldSize := image.Pt(doc.Width(), doc.Height())
	bufs, err := doc.Resize(e.NewSize.X, e.NewSize.Y)
	if err != nil {
		return e, fmt.Errorf("resize canvas: %w", err)
	}
	e.OldSize = oldSize
	e.OldBuffers = bufs
	return e, nil
}

func revertCanvasResize(doc *gumdrop.Document, e Entry) error {
	if err := doc.RestoreBuffers(e.OldSize.X, e.OldSize.Y, e.OldBuffers); err != nil {
		return fmt.Errorf("revert resize canvas: %w", err)
	}
	return nil
}

// applyBatch applies children in order. If one fails, the children already
// applied are reverted so the batch is all-or-nothing.
func applyBatch(doc *gumdrop.Document, e Entry) (Entry, error) {
	recorded := make([]Entry, 0, len(e.Children))
	for i, child := range e.Children {
		r, err := apply(doc, child)
		if err != nil {
			for j := len(recorded) - 1; j >= 0; j-- {
				if rerr := revert(doc, recorded[j]); rerr != nil {
					return e, fmt.Errorf("batch child %d: %w (rollback: %v)", i, err, rerr)
				}
			}
			return e, fmt.Errorf("batch child %d: %w", i, err)
		}
		recorded = append(recorded, r)
	}
	e.Children = recorded
	return e, nil
}

// revertBatch reverts children in reverse order. A failing child does not
// stop the rest.
func revertBatch(doc *gumdrop.Document, e Entry) error {
	var errs []error
	for i := len(e.Children) - 1; i >= 0; i-- {
		if err := revert(doc, e.Children[i]); err != nil {
			errs = append(errs, fmt.Errorf("revert batch child %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func restoreActive(doc *gumdrop.Document, i int) error {
	if i >= doc.Layers().Len() {
		i = doc.Layers().Len() - 1
	}
	return doc.SetActive(i)
}
