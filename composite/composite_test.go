package composite

import (
	"context"
	"errors"
	"image"
	"strconv"
	"testing"

	"github.com/pinkpixel/gumdrop"
)

func newDoc(t testing.TB, w, h int) *gumdrop.Document {
	t.Helper()
	doc, err := gumdrop.NewDocument(w, h)
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

func addLayer(t testing.TB, doc *gumdrop.Document, name string) int {
	t.Helper()
	i := doc.Layers().Len()
	if err := doc.InsertLayer(i, doc.NewBlankLayer(name)); err != nil {
		t.Fatalf("InsertLayer: %v", err)
	}
	return i
}

func fill(t testing.TB, doc *gumdrop.Document, layer int, c gumdrop.Color) {
	t.Helper()
	writes := make([]gumdrop.PixelWrite, 0, doc.Width()*doc.Height())
	for y := range doc.Height() {
		for x := range doc.Width() {
			writes = append(writes, gumdrop.PixelWrite{Layer: layer, X: x, Y: y, Color: c})
		}
	}
	if err := doc.WritePixels(writes); err != nil {
		t.Fatalf("WritePixels: %v", err)
	}
}

func setProp(t testing.TB, doc *gumdrop.Document, layer int, prop gumdrop.Property, v any) {
	t.Helper()
	l, _ := doc.Layers().At(layer)
	p, err := l.Props().With(prop, v)
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if err := doc.SetLayerProps(layer, p); err != nil {
		t.Fatalf("SetLayerProps: %v", err)
	}
}

func colorAt(img *image.NRGBA, x, y int) gumdrop.Color {
	return gumdrop.FromColor(img.NRGBAAt(x, y))
}

func allEqual(t *testing.T, img *image.NRGBA, want gumdrop.Color) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if got := colorAt(img, x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestSingleOpaqueLayer(t *testing.T) {
	for _, c := range []gumdrop.Color{gumdrop.Red, gumdrop.RGB(12, 200, 99), gumdrop.White} {
		doc := newDoc(t, 7, 5)
		fill(t, doc, 0, c)
		img := New().Composite(doc)
		if img.Bounds() != image.Rect(0, 0, 7, 5) {
			t.Fatalf("bounds = %v", img.Bounds())
		}
		allEqual(t, img, c)
	}
}

func TestBlankDocumentIsTransparent(t *testing.T) {
	allEqual(t, New().Composite(newDoc(t, 3, 3)), gumdrop.Transparent)
}

func TestZeroOpacityTopLayer(t *testing.T) {
	doc := newDoc(t, 4, 4)
	fill(t, doc, 0, gumdrop.RGB(10, 20, 30))
	_ = doc.SetPixel(0, 1, 1, gumdrop.Color{R: 200, G: 0, B: 0, A: 100})
	bottomOnly := Flatten(doc)

	top := addLayer(t, doc, "top")
	fill(t, doc, top, gumdrop.Blue)
	setProp(t, doc, top, gumdrop.PropOpacity, 0.0)

	got := New().Composite(doc)
	if string(got.Pix) != string(bottomOnly.Pix) {
		t.Error("opacity-0 top layer changed the composite")
	}
}

func TestInvisibleLayerContributesNothing(t *testing.T) {
	doc := newDoc(t, 2, 2)
	fill(t, doc, 0, gumdrop.Green)
	top := addLayer(t, doc, "hidden")
	fill(t, doc, top, gumdrop.Red)
	setProp(t, doc, top, gumdrop.PropVisible, false)
	allEqual(t, New().Composite(doc), gumdrop.Green)
}

func TestRedBlueScenario(t *testing.T) {
	doc := newDoc(t, 64, 64)
	top := addLayer(t, doc, "Layer 2")
	_ = doc.SetPixel(0, 5, 5, gumdrop.Red)
	_ = doc.SetPixel(top, 5, 5, gumdrop.Blue)

	c := New()
	if got := colorAt(c.Composite(doc), 5, 5); got != gumdrop.Blue {
		t.Errorf("(5,5) = %v, want blue", got)
	}
	_ = doc.SetPixel(top, 5, 5, gumdrop.Transparent)
	if got := colorAt(c.Composite(doc), 5, 5); got != gumdrop.Red {
		t.Errorf("(5,5) after clearing top = %v, want red", got)
	}
}

func TestBlendModes(t *testing.T) {
	gray := gumdrop.RGB(128, 128, 128)
	tests := []struct {
		mode gumdrop.BlendMode
		want gumdrop.Color
	}{
		{gumdrop.BlendNormal, gray},
		{gumdrop.BlendMultiply, gumdrop.RGB(128, 0, 0)},
		{gumdrop.BlendScreen, gumdrop.RGB(255, 128, 128)},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			doc := newDoc(t, 2, 2)
			fill(t, doc, 0, gumdrop.Red)
			top := addLayer(t, doc, "top")
			fill(t, doc, top, gray)
			setProp(t, doc, top, gumdrop.PropBlendMode, tt.mode)
			allEqual(t, New().Composite(doc), tt.want)
		})
	}
}

func TestAtMatchesComposite(t *testing.T) {
	doc := newDoc(t, 3, 2)
	fill(t, doc, 0, gumdrop.RGB(50, 100, 150))
	top := addLayer(t, doc, "top")
	_ = doc.SetPixel(top, 2, 1, gumdrop.Color{R: 255, G: 255, B: 0, A: 128})
	setProp(t, doc, top, gumdrop.PropOpacity, 0.75)
	setProp(t, doc, top, gumdrop.PropBlendMode, gumdrop.BlendScreen)

	img := Flatten(doc)
	for y := range 2 {
		for x := range 3 {
			got, err := At(doc, x, y)
			if err != nil {
				t.Fatal(err)
			}
			if want := colorAt(img, x, y); got != want {
				t.Errorf("At(%d,%d) = %v, composite has %v", x, y, got, want)
			}
		}
	}
	if _, err := At(doc, 3, 0); !errors.Is(err, gumdrop.ErrOutOfBounds) {
		t.Errorf("At out of bounds error = %v", err)
	}
}

func TestCacheFollowsVersion(t *testing.T) {
	doc := newDoc(t, 4, 4)
	c := New()
	first := c.Composite(doc)
	_ = c.Composite(doc)
	if st := c.Stats(); st.Hits != 1 {
		t.Errorf("Hits = %d after repeated composite, want 1", st.Hits)
	}

	// the returned raster is a copy
	first.Pix[3] = 255
	if colorAt(c.Composite(doc), 0, 0) != gumdrop.Transparent {
		t.Error("mutating a result changed the cache")
	}

	_ = doc.SetPixel(0, 0, 0, gumdrop.Red)
	if got := colorAt(c.Composite(doc), 0, 0); got != gumdrop.Red {
		t.Errorf("stale composite served after edit: %v", got)
	}

	c.Forget(doc)
	if c.Stats().Len != 0 {
		t.Error("Forget left an entry")
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	doc := newDoc(t, 37, 53)
	top := addLayer(t, doc, "top")
	for y := range 53 {
		for x := range 37 {
			_ = doc.SetPixel(0, x, y, gumdrop.Color{R: uint8(x * 7), G: uint8(y * 5), B: 90, A: 255})
			if (x+y)%3 == 0 {
				_ = doc.SetPixel(top, x, y, gumdrop.Color{R: 200, G: uint8(x), B: uint8(y), A: 180})
			}
		}
	}
	setProp(t, doc, top, gumdrop.PropOpacity, 0.6)
	setProp(t, doc, top, gumdrop.PropBlendMode, gumdrop.BlendMultiply)

	want := Flatten(doc)
	for _, workers := range []int{1, 3, 8} {
		c := New(WithWorkers(workers), WithParallelThreshold(1))
		got := c.Composite(doc)
		c.Close()
		if string(got.Pix) != string(want.Pix) {
			t.Errorf("workers=%d: parallel composite differs from sequential", workers)
		}
	}
}

func TestCompositeContextCancelled(t *testing.T) {
	doc := newDoc(t, 16, 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, threshold := range []int{0, 1} {
		c := New(WithParallelThreshold(threshold), WithWorkers(2))
		img, err := c.CompositeContext(ctx, doc)
		if !errors.Is(err, context.Canceled) || img != nil {
			t.Errorf("threshold %d: got %v, %v; want nil, context.Canceled", threshold, img, err)
		}
		if c.Stats().Len != 0 {
			t.Errorf("threshold %d: cancelled composite was cached", threshold)
		}
		c.Close()
	}
}

func TestCloseKeepsWorking(t *testing.T) {
	doc := newDoc(t, 8, 8)
	fill(t, doc, 0, gumdrop.Red)
	c := New(WithParallelThreshold(1))
	c.Close()
	allEqual(t, c.Composite(doc), gumdrop.Red)
}

func TestBandCount(t *testing.T) {
	tests := []struct{ h, workers, want int }{
		{1, 8, 1},
		{100, 4, 8},
		{5, 4, 5},
		{10, 0, 1},
	}
	for _, tt := range tests {
		if got := bandCount(tt.h, tt.workers); got != tt.want {
			t.Errorf("bandCount(%d, %d) = %d, want %d", tt.h, tt.workers, got, tt.want)
		}
	}
}

func BenchmarkComposite(b *testing.B) {
	for _, size := range []int{64, 512} {
		doc := newDoc(b, size, size)
		for range 3 {
			l := addLayer(b, doc, "layer")
			fill(b, doc, l, gumdrop.Color{R: 120, G: 60, B: 200, A: 160})
			setProp(b, doc, l, gumdrop.PropOpacity, 0.8)
		}
		b.Run(strconv.Itoa(size)+"px", func(b *testing.B) {
			c := New(WithParallelThreshold(1))
			defer c.Close()
			for b.Loop() {
				c.Forget(doc)
				c.Composite(doc)
			}
		})
	}
}
