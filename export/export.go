// Package export encodes documents as PNG, JPEG, SVG, JSON and HTML.
//
// Raster formats (PNG, JPEG, HTML) encode the flattened composite. SVG
// keeps one group per visible layer but is not re-editable. JSON is the
// project format and the only one that round-trips layers.
//
// Encoding happens in memory and the output is written only once it is
// complete, so a failed or cancelled export never leaves a partial file
// behind in w.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"

	"github.com/pinkpixel/gumdrop"
	"github.com/pinkpixel/gumdrop/composite"
	"github.com/pinkpixel/gumdrop/internal/blend"
	"github.com/pinkpixel/gumdrop/project"
)

// DefaultQuality is the JPEG quality used when Options.Quality is zero.
const DefaultQuality = 92

// MaxDimension bounds each side of the encoded output after scaling.
const MaxDimension = 1 << 14

// Options control an export. The zero value exports at 1:1 with
// transparency kept.
type Options struct {
	// Background, when set, is painted under the composite. It is
	// required for JPEG output of documents with translucent pixels.
	// Its alpha is ignored.
	Background *gumdrop.Color

	// Quality is the JPEG quality, 1..100. Zero means DefaultQuality.
	Quality int

	// Scale is the integer upscale factor for raster and SVG output.
	// Zero means 1.
	Scale int

	// Title overrides the document title in SVG and HTML output.
	Title string

	// Compositor, when set, flattens the document. Otherwise the
	// document is flattened on the calling goroutine.
	Compositor *composite.Compositor
}

func (o Options) scale() int {
	return max(o.Scale, 1)
}

func (o Options) quality() int {
	if o.Quality == 0 {
		return DefaultQuality
	}
	return o.Quality
}

func (o Options) title(doc *gumdrop.Document) string {
	if o.Title != "" {
		return o.Title
	}
	return doc.Metadata().Title
}

func (o Options) validate(doc *gumdrop.Document) error {
	if o.Quality < 0 || o.Quality > 100 {
		return fmt.Errorf("export: jpeg quality %d: %w", o.Quality, gumdrop.ErrInvalidValue)
	}
	if o.Scale < 0 {
		return fmt.Errorf("export: scale %d: %w", o.Scale, gumdrop.ErrInvalidValue)
	}
	w, h := doc.Width(), doc.Height()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("export: %dx%d: %w", w, h, gumdrop.ErrUnsupportedDimensions)
	}
	s := o.scale()
	if w > MaxDimension/s || h > MaxDimension/s {
		return fmt.Errorf("export: %dx%d at scale %d exceeds %d: %w", w, h, s, MaxDimension, gumdrop.ErrUnsupportedDimensions)
	}
	return nil
}

// Encode writes doc to w in the given format. On error or cancellation
// nothing is written.
func Encode(ctx context.Context, w io.Writer, f Format, doc *gumdrop.Document, opts Options) error {
	data, err := Bytes(ctx, f, doc, opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export: write %s: %v: %w", f, err, gumdrop.ErrIOFailure)
	}
	return nil
}

// Bytes returns the encoding of doc in the given format.
func Bytes(ctx context.Context, f Format, doc *gumdrop.Document, opts Options) ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("export: %s: %w", f, gumdrop.ErrUnsupportedFormat)
	}
	if err := opts.validate(doc); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	out := &ctxWriter{ctx: ctx, w: &buf}
	var err error
	switch f {
	case PNG:
		err = encodePNG(ctx, out, doc, opts)
	case JPEG:
		err = encodeJPEG(ctx, out, doc, opts)
	case SVG:
		err = encodeSVG(ctx, out, doc, opts)
	case JSON:
		err = project.Encode(out, doc)
	case HTML:
		err = encodeHTML(ctx, out, doc, opts)
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		gumdrop.Logger().Warn("export: failed", "format", f, "err", err)
		return nil, err
	}

	gumdrop.Logger().Info("export: encoded", "format", f, "bytes", buf.Len(),
		"width", doc.Width(), "height", doc.Height(), "scale", opts.scale())
	return buf.Bytes(), nil
}

// Raster returns the flattened, background-filled and scaled image that
// the raster formats encode.
func Raster(ctx context.Context, doc *gumdrop.Document, opts Options) (*image.NRGBA, error) {
	if err := opts.validate(doc); err != nil {
		return nil, err
	}
	return raster(ctx, doc, opts)
}

func raster(ctx context.Context, doc *gumdrop.Document, opts Options) (*image.NRGBA, error) {
	var img *image.NRGBA
	if opts.Compositor != nil {
		var err error
		if img, err = opts.Compositor.CompositeContext(ctx, doc); err != nil {
			return nil, err
		}
	} else {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img = composite.Flatten(doc)
	}
	if len(img.Pix) != doc.Width()*doc.Height()*4 {
		return nil, fmt.Errorf("export: raster has %d bytes for %dx%d: %w",
			len(img.Pix), doc.Width(), doc.Height(), gumdrop.ErrEncodingFailure)
	}

	if opts.Background != nil {
		underlay(img, *opts.Background)
	}
	if s := opts.scale(); s > 1 {
		img = upscale(img, s)
	}
	return img, nil
}

// underlay composites img over an opaque background in place.
func underlay(img *image.NRGBA, bg gumdrop.Color) {
	bg.A = 255
	for i := 0; i < len(img.Pix); i += 4 {
		px := gumdrop.Color{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
		c := blend.Blend(px, 1, bg, gumdrop.BlendNormal)
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// upscale enlarges img by an integer factor, keeping hard pixel edges.
func upscale(img *image.NRGBA, s int) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*s, b.Dy()*s))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func encodePNG(ctx context.Context, w io.Writer, doc *gumdrop.Document, opts Options) error {
	img, err := raster(ctx, doc, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return encodeErr(PNG, err)
	}
	return nil
}

func encodeJPEG(ctx context.Context, w io.Writer, doc *gumdrop.Document, opts Options) error {
	img, err := raster(ctx, doc, opts)
	if err != nil {
		return err
	}
	if opts.Background == nil && !img.Opaque() {
		return fmt.Errorf("export: jpg of translucent pixels without a background: %w", gumdrop.ErrUnsupportedAlpha)
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: opts.quality()}); err != nil {
		return encodeErr(JPEG, err)
	}
	return nil
}

// encodeErr classifies an encoder failure. Cancellation passes through.
func encodeErr(f Format, err error) error {
	var ce ctxError
	if errors.As(err, &ce) {
		return ce.err
	}
	return fmt.Errorf("export: %s: %v: %w", f, err, gumdrop.ErrEncodingFailure)
}

// ctxWriter fails writes once ctx is done, which aborts an encoder
// mid-stream.
type ctxWriter struct {
	ctx context.Context
	w   io.Writer
}

type ctxError struct{ err error }

func (e ctxError) Error() string { return e.err.Error() }
func (e ctxError) Unwrap() error { return e.err }

func (c *ctxWriter) Write(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, ctxError{err}
	}
	return c.w.Write(p)
}
