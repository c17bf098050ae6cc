// Package project reads and writes the JSON project format, the one
// encoding that keeps a document's layer structure.
//
// A project file is a single object:
//
//	{
//	  "formatVersion": 1,
//	  "title": "My Pixel Pet",
//	  "createdAt": "2024-05-01T12:00:00Z",
//	  "width": 2, "height": 1,
//	  "layers": [{
//	    "name": "Layer 1", "visible": true, "opacity": 1, "blendMode": "normal",
//	    "pixels": [[255,0,0,255], [0,0,0,0]]
//	  }],
//	  "activeLayerIndex": 0,
//	  "palette": [[255,0,0,255]]
//	}
//
// Pixels are row-major, width*height entries of [r,g,b,a] in 0..255.
// A null entry decodes as transparent. Decoding an encoded document yields
// a document Equal to the original.
package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pinkpixel/gumdrop"
)

// FormatVersion is written to every project file. Files with a higher
// version are rejected.
const FormatVersion = 1

type file struct {
	FormatVersion    int         `json:"formatVersion"`
	Title            string      `json:"title,omitempty"`
	CreatedAt        string      `json:"createdAt,omitempty"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
	Layers           []fileLayer `json:"layers"`
	ActiveLayerIndex int         `json:"activeLayerIndex"`
	Palette          []cell      `json:"palette"`
}

type fileLayer struct {
	Name      string  `json:"name"`
	Visible   bool    `json:"visible"`
	Opacity   float64 `json:"opacity"`
	BlendMode string  `json:"blendMode"`
	Pixels    []cell  `json:"pixels"`
}

// cell is one [r,g,b,a] entry. JSON null leaves it zero, which is the
// transparent sentinel.
type cell [4]int

func cellOf(c gumdrop.Color) cell {
	return cell{int(c.R), int(c.G), int(c.B), int(c.A)}
}

func (c cell) color() (gumdrop.Color, error) {
	for _, v := range c {
		if v < 0 || v > 255 {
			return gumdrop.Color{}, fmt.Errorf("channel %d outside 0..255: %w", v, gumdrop.ErrEncodingFailure)
		}
	}
	return gumdrop.Color{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: uint8(c[3])}, nil
}

// Marshal returns the project encoding of doc.
func Marshal(doc *gumdrop.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the project encoding of doc to w.
func Encode(w io.Writer, doc *gumdrop.Document) error {
	meta := doc.Metadata()
	f := file{
		FormatVersion:    FormatVersion,
		Title:            meta.Title,
		Width:            doc.Width(),
		Height:           doc.Height(),
		ActiveLayerIndex: doc.ActiveIndex(),
		Palette:          make([]cell, 0, len(doc.Palette())),
	}
	if !meta.CreatedAt.IsZero() {
		f.CreatedAt = meta.CreatedAt.Format(time.RFC3339Nano)
	}
	for _, c := range doc.Palette() {
		f.Palette = append(f.Palette, cellOf(c))
	}

	for _, l := range doc.Layers().All() {
		buf := l.Buffer()
		data := buf.Data()
		fl := fileLayer{
			Name:      l.Name(),
			Visible:   l.Visible(),
			Opacity:   l.Opacity(),
			BlendMode: l.BlendMode().String(),
			Pixels:    make([]cell, buf.Width()*buf.Height()),
		}
		for i := range fl.Pixels {
			fl.Pixels[i] = cell{int(data[i*4]), int(data[i*4+1]), int(data[i*4+2]), int(data[i*4+3])}
		}
		f.Layers = append(f.Layers, fl)
	}

	if err := json.NewEncoder(w).Encode(&f); err != nil {
		return fmt.Errorf("project: encode: %w", err)
	}
	return nil
}

// Unmarshal decodes a project. Documents without a layers field are read
// with DecodeLegacy.
func Unmarshal(data []byte) (*gumdrop.Document, error) {
	var probe struct {
		Layers json.RawMessage `json:"layers"`
		Pixels json.RawMessage `json:"pixels"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("project: %v: %w", err, gumdrop.ErrEncodingFailure)
	}
	if probe.Layers == nil && probe.Pixels != nil {
		return DecodeLegacy(data)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("project: %v: %w", err, gumdrop.ErrEncodingFailure)
	}
	return f.document()
}

// Decode reads a project from r.
func Decode(r io.Reader) (*gumdrop.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("project: read: %v: %w", err, gumdrop.ErrIOFailure)
	}
	return Unmarshal(data)
}

func (f *file) document() (*gumdrop.Document, error) {
	if f.FormatVersion > FormatVersion {
		return nil, fmt.Errorf("project: format version %d is newer than %d: %w",
			f.FormatVersion, FormatVersion, gumdrop.ErrEncodingFailure)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("project: %dx%d: %w", f.Width, f.Height, gumdrop.ErrUnsupportedDimensions)
	}
	if len(f.Layers) == 0 {
		return nil, fmt.Errorf("project: no layers: %w", gumdrop.ErrEncodingFailure)
	}

	layers := make([]*gumdrop.Layer, len(f.Layers))
	for i, fl := range f.Layers {
		l, err := fl.layer(f.Width, f.Height)
		if err != nil {
			return nil, fmt.Errorf("project: layer %d: %w", i, err)
		}
		layers[i] = l
	}

	opts := []gumdrop.DocumentOption{gumdrop.WithTitle(f.Title)}
	if f.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, f.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("project: createdAt: %v: %w", err, gumdrop.ErrEncodingFailure)
		}
		opts = append(opts, gumdrop.WithCreatedAt(t))
	}
	palette := make([]gumdrop.Color, 0, len(f.Palette))
	for i, pc := range f.Palette {
		c, err := pc.color()
		if err != nil {
			return nil, fmt.Errorf("project: palette %d: %w", i, err)
		}
		palette = append(palette, c)
	}
	opts = append(opts, gumdrop.WithPalette(palette...))

	if f.ActiveLayerIndex < 0 || f.ActiveLayerIndex >= len(layers) {
		return nil, fmt.Errorf("project: active layer %d of %d: %w",
			f.ActiveLayerIndex, len(layers), gumdrop.ErrEncodingFailure)
	}
	doc, err := gumdrop.NewDocumentWithLayers(f.Width, f.Height, layers, f.ActiveLayerIndex, opts...)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return doc, nil
}

func (fl *fileLayer) layer(w, h int) (*gumdrop.Layer, error) {
	if len(fl.Pixels) != w*h {
		return nil, fmt.Errorf("%d pixels for %dx%d canvas: %w", len(fl.Pixels), w, h, gumdrop.ErrEncodingFailure)
	}
	mode := gumdrop.BlendNormal
	if fl.BlendMode != "" {
		var err error
		if mode, err = gumdrop.ParseBlendMode(fl.BlendMode); err != nil {
			return nil, err
		}
	}
	buf, err := gumdrop.NewBuffer(w, h)
	if err != nil {
		return nil, err
	}
	for i, pc := range fl.Pixels {
		c, err := pc.color()
		if err != nil {
			return nil, fmt.Errorf("pixel %d: %w", i, err)
		}
		_ = buf.Set(i%w, i/w, c)
	}
	return gumdrop.NewLayerWithProps(gumdrop.LayerProps{
		Name:      fl.Name,
		Visible:   fl.Visible,
		Opacity:   fl.Opacity,
		BlendMode: mode,
	}, buf)
}
