package gumdrop

import (
	"fmt"
	"slices"
	"time"
)

const defaultLayerName = "Layer 1"

// Metadata describes a document outside of its pixels.
type Metadata struct {
	Title     string
	CreatedAt time.Time
}

// PixelWrite is one cell assignment on one layer.
type PixelWrite struct {
	Layer int
	X, Y  int
	Color Color
}

// Document is the complete editable state of one canvas: dimensions, the
// layer stack, the active layer, the quick-pick palette and metadata.
//
// Every mutator validates before changing anything, so a failed call leaves
// the document untouched, and every successful mutation advances Version.
// A Document has a single owner and is not safe for concurrent use; take a
// Clone to hand a snapshot to another goroutine.
type Document struct {
	width   int
	height  int
	stack   *LayerStack
	palette []Color
	meta    Metadata
	version uint64
}

// NewDocument creates a document with a single transparent layer.
func NewDocument(width, height int, opts ...DocumentOption) (*Document, error) {
	o := defaultDocumentOptions()
	for _, opt := range opts {
		opt(&o)
	}
	buf, err := NewBuffer(width, height)
	if err != nil {
		return nil, fmt.Errorf("new document: %w", err)
	}
	return assemble(width, height, []*Layer{NewLayer(o.layerName, buf)}, 0, o)
}

// NewDocumentWithLayers reconstructs a document from existing layers, as a
// decoder does. All layers must match width x height.
func NewDocumentWithLayers(width, height int, layers []*Layer, active int, opts ...DocumentOption) (*Document, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new document %dx%d: %w", width, height, ErrUnsupportedDimensions)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("new document: no layers: %w", ErrInvalidValue)
	}
	o := defaultDocumentOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return assemble(width, height, layers, active, o)
}

func assemble(width, height int, layers []*Layer, active int, o documentOptions) (*Document, error) {
	d := &Document{
		width:  width,
		height: height,
		meta: Metadata{
			Title:     normalizeName(o.title),
			CreatedAt: o.createdAt,
		},
	}
	if d.meta.CreatedAt.IsZero() {
		d.meta.CreatedAt = o.now()
	}
	for _, c := range o.palette {
		d.addPalette(c)
	}

	d.stack = &LayerStack{width: width, height: height, layers: make([]*Layer, 0, len(layers))}
	for i, l := range layers {
		if err := d.stack.insert(i, l); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	if err := d.stack.setActive(active); err != nil {
		return nil, fmt.Errorf("active layer: %w", err)
	}
	return d, nil
}

// Width returns the canvas width shared by every layer.
func (d *Document) Width() int { return d.width }

// Height returns the canvas height shared by every layer.
func (d *Document) Height() int { return d.height }

// Layers returns the layer stack for reading.
func (d *Document) Layers() *LayerStack { return d.stack }

// ActiveIndex returns the active layer index.
func (d *Document) ActiveIndex() int { return d.stack.active }

// ActiveLayer returns the active layer.
func (d *Document) ActiveLayer() *Layer { return d.stack.layers[d.stack.active] }

// Metadata returns the document metadata.
func (d *Document) Metadata() Metadata { return d.meta }

// Version returns a counter that advances on every mutation. Caches keyed
// on it are valid only while it is unchanged.
func (d *Document) Version() uint64 { return d.version }

// Palette returns a copy of the quick-pick palette.
func (d *Document) Palette() []Color { return slices.Clone(d.palette) }

func (d *Document) touch() { d.version++ }

// SetTitle replaces the document title.
func (d *Document) SetTitle(title string) {
	d.meta.Title = normalizeName(title)
	d.touch()
}

// Pixel returns the pixel at (x, y) on layer.
func (d *Document) Pixel(layer, x, y int) (Color, error) {
	l, err := d.stack.At(layer)
	if err != nil {
		return Color{}, err
	}
	return l.buffer.Get(x, y)
}

// SetPixel writes one pixel.
func (d *Document) SetPixel(layer, x, y int, c Color) error {
	return d.WritePixels([]PixelWrite{{Layer: layer, X: x, Y: y, Color: c}})
}

// CheckPixels validates a batch of writes without applying it.
func (d *Document) CheckPixels(writes []PixelWrite) error {
	for _, w := range writes {
		if err := d.stack.check(w.Layer); err != nil {
			return err
		}
		if !d.stack.layers[w.Layer].buffer.InBounds(w.X, w.Y) {
			return fmt.Errorf("pixel (%d,%d) on %dx%d canvas: %w", w.X, w.Y, d.width, d.height, ErrOutOfBounds)
		}
	}
	return nil
}

// WritePixels applies a batch of writes in order. Either all writes are
// applied or, if any coordinate or layer is invalid, none are.
func (d *Document) WritePixels(writes []PixelWrite) error {
	if err := d.CheckPixels(writes); err != nil {
		return err
	}
	for _, w := range writes {
		d.stack.layers[w.Layer].buffer.put(w.X, w.Y, w.Color)
	}
	d.touch()
	return nil
}

// NewBlankLayer returns a transparent layer sized for this document. It is
// not inserted.
func (d *Document) NewBlankLayer(name string) *Layer {
	buf, _ := NewBuffer(d.width, d.height)
	return NewLayer(name, buf)
}

// InsertLayer inserts l at pos (0..Len) and makes it active. The layer
// must match the canvas size.
func (d *Document) InsertLayer(pos int, l *Layer) error {
	if err := d.stack.insert(pos, l); err != nil {
		return err
	}
	d.touch()
	return nil
}

// RemoveLayer removes layer i and returns it. When i is the only layer it
// is replaced by a blank layer and replaced is true.
func (d *Document) RemoveLayer(i int) (removed *Layer, replaced bool, err error) {
	removed, replaced, err = d.stack.remove(i)
	if err != nil {
		return nil, false, err
	}
	d.touch()
	return removed, replaced, nil
}

// ReplaceLayer swaps layer i for l and returns the previous layer.
func (d *Document) ReplaceLayer(i int, l *Layer) (*Layer, error) {
	if l == nil || l.buffer == nil || l.buffer.width != d.width || l.buffer.height != d.height {
		return nil, fmt.Errorf("replace layer %d: size mismatch: %w", i, ErrInvalidValue)
	}
	old, err := d.stack.replace(i, l)
	if err != nil {
		return nil, err
	}
	d.touch()
	return old, nil
}

// MoveLayer reorders the stack, moving layer from to position to.
func (d *Document) MoveLayer(from, to int) error {
	if err := d.stack.move(from, to); err != nil {
		return err
	}
	d.touch()
	return nil
}

// SetActive selects the active layer.
func (d *Document) SetActive(i int) error {
	if err := d.stack.setActive(i); err != nil {
		return err
	}
	d.touch()
	return nil
}

// SetLayerProps replaces the metadata of layer i.
func (d *Document) SetLayerProps(i int, p LayerProps) error {
	if err := d.stack.setProps(i, p); err != nil {
		return err
	}
	d.touch()
	return nil
}

// Resize changes the canvas size, anchoring content at the top-left and
// cropping or padding with transparent cells. It returns the previous
// buffers, bottom to top, so the change can be reverted exactly.
func (d *Document) Resize(width, height int) ([]*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("resize to %dx%d: %w", width, height, ErrUnsupportedDimensions)
	}
	old := make([]*Buffer, len(d.stack.layers))
	for i, l := range d.stack.layers {
		old[i] = l.buffer
		l.buffer = l.buffer.resized(width, height)
	}
	d.setSize(width, height)
	d.touch()
	return old, nil
}

// RestoreBuffers installs one buffer per layer and the matching canvas
// size. It reverts a Resize.
func (d *Document) RestoreBuffers(width, height int, bufs []*Buffer) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("restore %dx%d: %w", width, height, ErrUnsupportedDimensions)
	}
	if len(bufs) != len(d.stack.layers) {
		return fmt.Errorf("restore %d buffers into %d layers: %w", len(bufs), len(d.stack.layers), ErrInvalidIndex)
	}
	for i, b := range bufs {
		if b == nil || b.width != width || b.height != height {
			return fmt.Errorf("restore buffer %d: size mismatch: %w", i, ErrInvalidValue)
		}
	}
	for i, l := range d.stack.layers {
		l.buffer = bufs[i]
	}
	d.setSize(width, height)
	d.touch()
	return nil
}

func (d *Document) setSize(width, height int) {
	d.width, d.height = width, height
	d.stack.width, d.stack.height = width, height
}

// AddPaletteColor appends c to the palette unless already present.
func (d *Document) AddPaletteColor(c Color) bool {
	if !d.addPalette(c) {
		return false
	}
	d.touch()
	return true
}

func (d *Document) addPalette(c Color) bool {
	if slices.Contains(d.palette, c) {
		return false
	}
	d.palette = append(d.palette, c)
	return true
}

// RemovePaletteColor removes c from the palette.
func (d *Document) RemovePaletteColor(c Color) bool {
	i := slices.Index(d.palette, c)
	if i < 0 {
		return false
	}
	d.palette = slices.Delete(d.palette, i, i+1)
	d.touch()
	return true
}

// Clone returns a deep copy that shares nothing with d. The copy keeps
// the version so snapshots can be compared against the live document.
func (d *Document) Clone() *Document {
	return &Document{
		width:   d.width,
		height:  d.height,
		stack:   d.stack.clone(),
		palette: slices.Clone(d.palette),
		meta:    d.meta,
		version: d.version,
	}
}

// Equal reports whether two documents agree in every field except version:
// dimensions, layer order, layer metadata and pixels, active layer,
// palette and metadata.
func (d *Document) Equal(o *Document) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.width != o.width || d.height != o.height {
		return false
	}
	if d.meta.Title != o.meta.Title || !d.meta.CreatedAt.Equal(o.meta.CreatedAt) {
		return false
	}
	if !slices.Equal(d.palette, o.palette) {
		return false
	}
	if d.stack.active != o.stack.active || len(d.stack.layers) != len(o.stack.layers) {
		return false
	}
	for i := range d.stack.layers {
		if !d.stack.layers[i].Equal(o.stack.layers[i]) {
			return false
		}
	}
	return true
}
