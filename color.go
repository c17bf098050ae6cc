package gumdrop

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Color is a single pixel value: straight (non-premultiplied) 8-bit RGBA.
// A zero alpha marks the cell as transparent; the zero value is the
// transparent sentinel used for blank canvas cells.
type Color struct {
	R, G, B, A uint8
}

// Common colors.
var (
	Transparent = Color{}
	Black       = RGB(0, 0, 0)
	White       = RGB(255, 255, 255)
	Red         = RGB(255, 0, 0)
	Green       = RGB(0, 255, 0)
	Blue        = RGB(0, 0, 255)
)

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// IsTransparent reports whether the color contributes nothing when composited.
func (c Color) IsTransparent() bool {
	return c.A == 0
}

// IsOpaque reports whether the alpha channel is fully set.
func (c Color) IsOpaque() bool {
	return c.A == 255
}

// NRGBA converts the color to the standard library's straight-alpha type.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// FromColor converts any color.Color to a Color.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

// Hex returns "#rrggbb" for opaque colors and "#rrggbbaa" otherwise.
func (c Color) Hex() string {
	if c.IsOpaque() {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// ParseColor parses "#rgb", "#rrggbb", "#rrggbbaa", "transparent" or a
// CSS/SVG color name such as "skyblue".
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Color{}, fmt.Errorf("parse color: empty string: %w", ErrInvalidValue)
	}
	if s == "transparent" || s == "none" {
		return Transparent, nil
	}

	if s[0] != '#' {
		rgba, ok := colornames.Map[s]
		if !ok {
			return Color{}, fmt.Errorf("parse color %q: unknown name: %w", s, ErrInvalidValue)
		}
		return Color{R: rgba.R, G: rgba.G, B: rgba.B, A: rgba.A}, nil
	}

	alpha := uint8(255)
	switch len(s) {
	case 4, 7:
	case 9:
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("parse color %q: %w", s, ErrInvalidValue)
		}
		alpha = uint8(a)
		s = s[:7]
	default:
		return Color{}, fmt.Errorf("parse color %q: bad length: %w", s, ErrInvalidValue)
	}

	cf, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %v: %w", s, err, ErrInvalidValue)
	}
	r, g, b := cf.RGB255()
	return Color{R: r, G: g, B: b, A: alpha}, nil
}

// MustParseColor is like ParseColor but panics on error. Intended for
// package-level tables of known-good literals.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// HSV creates an opaque color from hue in degrees, saturation and value
// in [0, 1]. This is the conversion used by the color wheel.
func HSV(h, s, v float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsv(h, clampUnit(s), clampUnit(v)).Clamped().RGB255()
	return RGB(r, g, b)
}

func clampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
