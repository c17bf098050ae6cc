package project

import (
	"encoding/json"
	"fmt"
	"image"
	"math"

	"github.com/pinkpixel/gumdrop"
	"github.com/pinkpixel/gumdrop/internal/blend"
	"github.com/pinkpixel/gumdrop/raster"
)

const (
	// LegacyLayerName names the layer holding a legacy file's pixel grid.
	LegacyLayerName = "Layer 1"
	// LegacyAccentLayerName names the layer accent-pen strokes are drawn
	// into, above the pixel grid.
	LegacyAccentLayerName = "Accent"
)

// legacyFile covers both single-canvas layouts: the export form
// {w, h, pixels, overlayPaths} and the saved-project form
// {name, gridW, gridH, pixels, overlayPaths}.
type legacyFile struct {
	Name         string           `json:"name"`
	W            int              `json:"w"`
	H            int              `json:"h"`
	GridW        int              `json:"gridW"`
	GridH        int              `json:"gridH"`
	Pixels       [][]*legacyPixel `json:"pixels"`
	OverlayPaths []legacyPath     `json:"overlayPaths"`
}

// legacyPath is one accent-pen stroke in cell coordinates.
type legacyPath struct {
	Points []legacyPoint `json:"points"`
	Color  *legacyPixel  `json:"color"`
	Width  float64       `json:"width"`
}

type legacyPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// legacyPixel has 0..255 color channels and alpha in [0, 1].
type legacyPixel struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// DecodeLegacy imports a file whose pixels are a pixels[y][x] grid of
// {r,g,b,a} objects or null. Missing rows and cells are transparent.
// Accent-pen strokes, if any, are rasterized in order into a second layer
// named LegacyAccentLayerName.
func DecodeLegacy(data []byte) (*gumdrop.Document, error) {
	var f legacyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("project: legacy: %v: %w", err, gumdrop.ErrEncodingFailure)
	}
	w, h := f.W, f.H
	if w == 0 {
		w = f.GridW
	}
	if h == 0 {
		h = f.GridH
	}
	if f.Pixels == nil {
		return nil, fmt.Errorf("project: legacy: no pixels: %w", gumdrop.ErrEncodingFailure)
	}

	buf, err := gumdrop.NewBuffer(w, h)
	if err != nil {
		return nil, fmt.Errorf("project: legacy: %w", err)
	}
	for y, row := range f.Pixels {
		if y >= h {
			break
		}
		for x, p := range row {
			if x >= w {
				break
			}
			if p == nil {
				continue
			}
			_ = buf.Set(x, y, p.color())
		}
	}

	layers := []*gumdrop.Layer{gumdrop.NewLayer(LegacyLayerName, buf)}
	if accent := f.accent(w, h); accent != nil {
		layers = append(layers, gumdrop.NewLayer(LegacyAccentLayerName, accent))
	}

	var opts []gumdrop.DocumentOption
	if f.Name != "" {
		opts = append(opts, gumdrop.WithTitle(f.Name))
	}
	doc, err := gumdrop.NewDocumentWithLayers(w, h, layers, 0, opts...)
	if err != nil {
		return nil, fmt.Errorf("project: legacy: %w", err)
	}
	return doc, nil
}

// accent draws each overlay stroke with a square pen of the stroke's
// width centered on every cell of its polyline. Later strokes composite
// over earlier ones. It returns nil when no stroke has points and color.
func (f *legacyFile) accent(w, h int) *gumdrop.Buffer {
	var buf *gumdrop.Buffer
	for _, p := range f.OverlayPaths {
		if len(p.Points) == 0 || p.Color == nil {
			continue
		}
		c := p.Color.color()
		if c.IsTransparent() {
			continue
		}
		pts := make([]image.Point, len(p.Points))
		for i, pt := range p.Points {
			pts[i] = image.Pt(int(math.Floor(pt.X)), int(math.Floor(pt.Y)))
		}
		pen := max(1, int(math.Round(p.Width)))
		lo := -(pen - 1) / 2
		hi := lo + pen - 1

		if buf == nil {
			buf, _ = gumdrop.NewBuffer(w, h)
		}
		seen := make(map[image.Point]struct{})
		for _, center := range raster.Polyline(pts...) {
			for _, cell := range raster.FillRect(center.X+lo, center.Y+lo, center.X+hi, center.Y+hi) {
				if _, ok := seen[cell]; ok || !buf.InBounds(cell.X, cell.Y) {
					continue
				}
				seen[cell] = struct{}{}
				under, _ := buf.Get(cell.X, cell.Y)
				_ = buf.Set(cell.X, cell.Y, blend.Blend(c, 1, under, gumdrop.BlendNormal))
			}
		}
	}
	return buf
}

func (p *legacyPixel) color() gumdrop.Color {
	return gumdrop.Color{
		R: channel(p.R),
		G: channel(p.G),
		B: channel(p.B),
		A: channel(p.A * 255),
	}
}

func channel(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
