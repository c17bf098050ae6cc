// Package composite flattens a document's layer stack into one raster.
//
// Layers are painted bottom to top. Each visible layer is blended into the
// accumulator with its blend mode after its alpha is scaled by its
// opacity; invisible layers contribute nothing. The result starts fully
// transparent, so a blank document flattens to transparent cells.
//
// A Compositor caches results keyed by document and version. Every
// document mutation advances the version, so a cached raster is served only
// while it still matches the document.
package composite

import (
	"context"
	"image"
	"sync"

	"github.com/pinkpixel/gumdrop"
	"github.com/pinkpixel/gumdrop/internal/blend"
	"github.com/pinkpixel/gumdrop/internal/cache"
	"github.com/pinkpixel/gumdrop/internal/parallel"
)

// DefaultParallelThreshold is the pixel count from which compositing is
// split into bands across the worker pool.
const DefaultParallelThreshold = 256 * 256

// cacheSize is the number of documents whose composite is kept. A session
// holds the live document and at most one export snapshot.
const cacheSize = 4

// Option configures a Compositor.
type Option func(*Compositor)

// WithWorkers sets the number of band workers. Zero or negative means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Compositor) {
		c.workers = n
	}
}

// WithParallelThreshold sets the canvas size in pixels from which bands
// are composited in parallel. Values below 1 disable parallel compositing.
func WithParallelThreshold(pixels int) Option {
	return func(c *Compositor) {
		c.threshold = pixels
	}
}

// Compositor flattens documents and caches the results.
//
// Compositor is safe for concurrent use. The documents it reads must not
// be mutated while a call is in progress; pass a Clone from another
// goroutine.
type Compositor struct {
	workers   int
	threshold int

	cache *cache.Cache[*gumdrop.Document, *image.NRGBA]

	poolOnce sync.Once
	pool     *parallel.WorkerPool
}

// New creates a compositor.
func New(opts ...Option) *Compositor {
	c := &Compositor{
		threshold: DefaultParallelThreshold,
		cache:     cache.New[*gumdrop.Document, *image.NRGBA](cacheSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Composite returns the flattened raster of doc. The returned image is a
// copy the caller may modify.
func (c *Compositor) Composite(doc *gumdrop.Document) *image.NRGBA {
	img, _ := c.CompositeContext(context.Background(), doc)
	return img
}

// CompositeContext is Composite with cancellation. On cancellation the
// partial raster is discarded and ctx.Err() is returned.
func (c *Compositor) CompositeContext(ctx context.Context, doc *gumdrop.Document) (*image.NRGBA, error) {
	version := doc.Version()
	if img, ok := c.cache.Get(doc, version); ok {
		gumdrop.Logger().Debug("composite: cache hit", "version", version)
		return cloneNRGBA(img), nil
	}

	img, err := c.flatten(ctx, doc)
	if err != nil {
		return nil, err
	}
	c.cache.Set(doc, version, img)
	gumdrop.Logger().Debug("composite: rendered",
		"width", doc.Width(), "height", doc.Height(), "layers", doc.Layers().Len(), "version", version)
	return cloneNRGBA(img), nil
}

// Forget drops any cached raster for doc, as when the document is closed.
func (c *Compositor) Forget(doc *gumdrop.Document) {
	c.cache.Delete(doc)
}

// Stats returns cache statistics.
func (c *Compositor) Stats() cache.Stats {
	return c.cache.Stats()
}

// Close releases the worker pool. The compositor keeps working after
// Close, compositing on the calling goroutine.
func (c *Compositor) Close() {
	c.poolOnce.Do(func() {}) // no pool is started after Close
	if c.pool != nil {
		c.pool.Close()
	}
}

func (c *Compositor) flatten(ctx context.Context, doc *gumdrop.Document) (*image.NRGBA, error) {
	w, h := doc.Width(), doc.Height()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	layers := doc.Layers().All()

	pool := c.workerPool(w * h)
	if pool == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		flattenRows(img.Pix, layers, w, 0, h)
		return img, nil
	}

	bands := bandCount(h, pool.Workers())
	rows := (h + bands - 1) / bands
	work := make([]func(), 0, bands)
	for y0 := 0; y0 < h; y0 += rows {
		y1 := min(y0+rows, h)
		work = append(work, func() { flattenRows(img.Pix, layers, w, y0, y1) })
	}
	gumdrop.Logger().Debug("composite: parallel bands", "bands", len(work), "rows", rows)
	if err := pool.ExecuteAll(ctx, work); err != nil {
		return nil, err
	}
	return img, nil
}

// workerPool returns the band pool, starting it on first use, or nil when
// a canvas of the given size is composited inline.
func (c *Compositor) workerPool(pixels int) *parallel.WorkerPool {
	if c.threshold < 1 || pixels < c.threshold {
		return nil
	}
	c.poolOnce.Do(func() {
		c.pool = parallel.NewWorkerPool(c.workers)
	})
	return c.pool
}

// bandCount returns the number of horizontal bands for h rows: two per
// worker so a slow band does not idle the others, never more than h.
func bandCount(h, workers int) int {
	return max(1, min(h, workers*2))
}

// flattenRows composites rows [y0, y1) of every visible layer into dst.
// dst must be transparent in that range.
func flattenRows(dst []byte, layers []*gumdrop.Layer, w, y0, y1 int) {
	lo, hi := y0*w*4, y1*w*4
	for _, l := range layers {
		if !l.Visible() || l.Opacity() <= 0 {
			continue
		}
		src := l.Buffer().Data()
		blend.Row(dst[lo:hi], src[lo:hi], (y1-y0)*w, l.Opacity(), l.BlendMode())
	}
}

// Flatten composites doc on the calling goroutine without caching.
func Flatten(doc *gumdrop.Document) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, doc.Width(), doc.Height()))
	flattenRows(img.Pix, doc.Layers().All(), doc.Width(), 0, doc.Height())
	return img
}

// At returns the flattened color of one cell without compositing the
// whole canvas.
func At(doc *gumdrop.Document, x, y int) (gumdrop.Color, error) {
	var out gumdrop.Color
	for _, l := range doc.Layers().All() {
		c, err := l.Pixel(x, y)
		if err != nil {
			return gumdrop.Color{}, err
		}
		if l.Visible() {
			out = blend.Blend(c, l.Opacity(), out, l.BlendMode())
		}
	}
	return out, nil
}

func cloneNRGBA(img *image.NRGBA) *image.NRGBA {
	out := *img
	out.Pix = append([]uint8(nil), img.Pix...)
	return &out
}
