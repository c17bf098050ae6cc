// Package gumdrop is the data engine of a pixel-art editor: a fixed-size
// canvas made of layers, each a grid of straight-alpha RGBA cells.
//
// # Overview
//
// A Document holds the canvas dimensions, a LayerStack, the active layer,
// a quick-pick palette and metadata. Every layer shares the document's
// width and height. The stack is never empty: removing the last layer
// swaps in a blank one.
//
// # Quick Start
//
//	import "github.com/pinkpixel/gumdrop"
//
//	doc, err := gumdrop.NewDocument(40, 40, gumdrop.WithTitle("My Pixel Pet"))
//	if err != nil {
//	    return err
//	}
//	eng := history.New(doc)
//	e, _, _ := history.Paint(doc, 0, raster.Line(0, 0, 39, 39), gumdrop.Red)
//	eng.Apply(e)
//	img := composite.New().Composite(doc)
//
// # Architecture
//
// The module is organized into:
//   - gumdrop: Color, Buffer, Layer, LayerStack, Document, errors, logging
//   - history: reversible entries, undo/redo, stroke groups
//   - composite: flattening with per-layer blend mode and opacity
//   - export: PNG, JPEG, SVG, JSON and HTML encoders
//   - project: the JSON project format and a project store
//   - session and dispatch: the owner of a document and the command surface
//
// # Coordinate System
//
// Origin (0,0) is the top-left cell; x grows right and y grows down.
// Layer index 0 is the bottom of the stack.
//
// # Mutation
//
// Document mutators validate before they change anything and advance
// Version on success. Interactive edits go through history.Engine so they
// can be undone; Document methods are the mechanism it drives.
package gumdrop

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
