package gumdrop

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// BlendMode selects how a layer combines with the pixels beneath it.
// The set is closed: every mode has an entry in the compositor's table.
type BlendMode uint8

const (
	// BlendNormal is straight alpha compositing (source over).
	BlendNormal BlendMode = iota
	// BlendMultiply multiplies channels: S * D.
	BlendMultiply
	// BlendScreen inverts, multiplies and inverts: 1 - (1-S)*(1-D).
	BlendScreen

	blendModeCount
)

var blendModeNames = [...]string{
	BlendNormal:   "normal",
	BlendMultiply: "multiply",
	BlendScreen:   "screen",
}

// String returns the wire name of the mode.
func (m BlendMode) String() string {
	if int(m) < len(blendModeNames) {
		return blendModeNames[m]
	}
	return fmt.Sprintf("BlendMode(%d)", m)
}

// Valid reports whether m is a known mode.
func (m BlendMode) Valid() bool {
	return m < blendModeCount
}

// BlendModes returns all known modes in declaration order.
func BlendModes() []BlendMode {
	modes := make([]BlendMode, 0, blendModeCount)
	for m := BlendMode(0); m < blendModeCount; m++ {
		modes = append(modes, m)
	}
	return modes
}

// ParseBlendMode parses a wire name such as "multiply".
func ParseBlendMode(s string) (BlendMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range blendModeNames {
		if name == s {
			return BlendMode(i), nil
		}
	}
	return 0, fmt.Errorf("blend mode %q: %w", s, ErrInvalidValue)
}

// Property identifies one editable layer attribute.
type Property uint8

const (
	PropName Property = iota
	PropVisible
	PropOpacity
	PropBlendMode
)

var propertyNames = [...]string{
	PropName:      "name",
	PropVisible:   "visible",
	PropOpacity:   "opacity",
	PropBlendMode: "blendMode",
}

// String returns the property name.
func (p Property) String() string {
	if int(p) < len(propertyNames) {
		return propertyNames[p]
	}
	return "unknown"
}

// LayerProps is the metadata of a layer, everything except its pixels.
type LayerProps struct {
	Name      string
	Visible   bool
	Opacity   float64
	BlendMode BlendMode
}

// DefaultLayerProps returns a visible, fully opaque, normal layer.
func DefaultLayerProps(name string) LayerProps {
	return LayerProps{Name: name, Visible: true, Opacity: 1, BlendMode: BlendNormal}
}

// Validate checks value ranges. Out-of-range opacity is rejected rather
// than clamped.
func (p LayerProps) Validate() error {
	if math.IsNaN(p.Opacity) || p.Opacity < 0 || p.Opacity > 1 {
		return fmt.Errorf("opacity %v outside [0,1]: %w", p.Opacity, ErrInvalidValue)
	}
	if !p.BlendMode.Valid() {
		return fmt.Errorf("blend mode %d: %w", p.BlendMode, ErrInvalidValue)
	}
	return nil
}

// With returns a copy of p with one property replaced. The value must have
// the property's type: string, bool, float64 or BlendMode.
func (p LayerProps) With(prop Property, value any) (LayerProps, error) {
	ok := false
	switch prop {
	case PropName:
		var v string
		if v, ok = value.(string); ok {
			p.Name = normalizeName(v)
		}
	case PropVisible:
		var v bool
		if v, ok = value.(bool); ok {
			p.Visible = v
		}
	case PropOpacity:
		var v float64
		if v, ok = value.(float64); ok {
			p.Opacity = v
		}
	case PropBlendMode:
		var v BlendMode
		if v, ok = value.(BlendMode); ok {
			p.BlendMode = v
		}
	default:
		return p, fmt.Errorf("property %d: %w", prop, ErrInvalidValue)
	}
	if !ok {
		return p, fmt.Errorf("property %s: value of type %T: %w", prop, value, ErrInvalidValue)
	}
	return p, p.Validate()
}

// Layer is one pixel buffer plus its metadata. Layers are owned by a
// LayerStack; mutate them through the Document so its version advances.
type Layer struct {
	props  LayerProps
	buffer *Buffer
}

// NewLayer wraps buf in a layer with default properties.
func NewLayer(name string, buf *Buffer) *Layer {
	return &Layer{props: DefaultLayerProps(normalizeName(name)), buffer: buf}
}

// NewLayerWithProps wraps buf in a layer with the given metadata.
func NewLayerWithProps(p LayerProps, buf *Buffer) (*Layer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Name = normalizeName(p.Name)
	return &Layer{props: p, buffer: buf}, nil
}

// Name returns the layer name.
func (l *Layer) Name() string { return l.props.Name }

// Visible reports whether the layer contributes to the composite.
func (l *Layer) Visible() bool { return l.props.Visible }

// Opacity returns the layer opacity in [0, 1].
func (l *Layer) Opacity() float64 { return l.props.Opacity }

// BlendMode returns the layer's blend mode.
func (l *Layer) BlendMode() BlendMode { return l.props.BlendMode }

// Props returns a copy of the layer metadata.
func (l *Layer) Props() LayerProps { return l.props }

// Buffer returns the layer's pixels. The buffer is live and must be
// treated as read-only by callers outside the Document.
func (l *Layer) Buffer() *Buffer { return l.buffer }

// Pixel returns the pixel at (x, y).
func (l *Layer) Pixel(x, y int) (Color, error) { return l.buffer.Get(x, y) }

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	return &Layer{props: l.props, buffer: l.buffer.Clone()}
}

// Equal reports whether two layers have identical metadata and pixels.
func (l *Layer) Equal(o *Layer) bool {
	if l == nil || o == nil {
		return l == o
	}
	return l.props == o.props && l.buffer.Equal(o.buffer)
}

// normalizeName trims and NFC-normalizes user-visible names so that
// visually identical names compare equal after a round trip.
func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
