package export

import (
	"fmt"
	"strings"

	"github.com/pinkpixel/gumdrop"
)

// Format identifies an export encoding.
type Format int

// Export formats.
const (
	PNG Format = iota
	JPEG
	SVG
	JSON
	HTML
)

var formatInfo = [...]struct {
	name, ext, mediaType string
}{
	PNG:  {"png", ".png", "image/png"},
	JPEG: {"jpg", ".jpg", "image/jpeg"},
	SVG:  {"svg", ".svg", "image/svg+xml"},
	JSON: {"json", ".json", "application/json"},
	HTML: {"html", ".html", "text/html; charset=utf-8"},
}

// Formats returns every export format in command order.
func Formats() []Format {
	return []Format{PNG, JPEG, SVG, JSON, HTML}
}

// String returns the command name of the format.
func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatInfo[f].name
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f >= PNG && f <= HTML
}

// Extension returns the conventional file extension, including the dot.
func (f Format) Extension() string {
	if !f.Valid() {
		return ""
	}
	return formatInfo[f].ext
}

// MediaType returns the MIME type of the encoding.
func (f Format) MediaType() string {
	if !f.Valid() {
		return "application/octet-stream"
	}
	return formatInfo[f].mediaType
}

// Layered reports whether the format keeps the layer structure.
func (f Format) Layered() bool {
	return f == JSON
}

// ParseFormat looks up a format by name. Matching ignores case and a
// leading dot, and accepts "jpeg" for JPEG.
func ParseFormat(s string) (Format, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	if name == "jpeg" {
		return JPEG, nil
	}
	for _, f := range Formats() {
		if formatInfo[f].name == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("export: format %q: %w", s, gumdrop.ErrUnsupportedFormat)
}
