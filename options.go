package gumdrop

import "time"

// DocumentOption configures a Document during creation.
//
// Example:
//
//	doc, err := gumdrop.NewDocument(64, 64,
//	    gumdrop.WithTitle("Pixel Pet"),
//	    gumdrop.WithPalette(gumdrop.Red, gumdrop.Blue),
//	)
type DocumentOption func(*documentOptions)

type documentOptions struct {
	title     string
	layerName string
	palette   []Color
	now       func() time.Time
	createdAt time.Time
}

func defaultDocumentOptions() documentOptions {
	return documentOptions{
		title:     "Untitled",
		layerName: defaultLayerName,
		now:       time.Now,
	}
}

// WithTitle sets the document title.
func WithTitle(title string) DocumentOption {
	return func(o *documentOptions) {
		o.title = title
	}
}

// WithLayerName names the initial layer.
func WithLayerName(name string) DocumentOption {
	return func(o *documentOptions) {
		o.layerName = name
	}
}

// WithPalette seeds the quick-pick palette. Duplicates are dropped.
func WithPalette(colors ...Color) DocumentOption {
	return func(o *documentOptions) {
		o.palette = append(o.palette, colors...)
	}
}

// WithClock sets the clock used for the creation timestamp.
func WithClock(now func() time.Time) DocumentOption {
	return func(o *documentOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithCreatedAt fixes the creation timestamp, as when reconstructing a
// saved document.
func WithCreatedAt(t time.Time) DocumentOption {
	return func(o *documentOptions) {
		o.createdAt = t
	}
}
