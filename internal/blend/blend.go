// Package blend implements the per-channel blend modes used by the
// compositor, following the separable formulas of W3C Compositing and
// Blending Level 1.
//
// All colors here are straight (non-premultiplied) RGBA. The layer's
// opacity scales the source alpha before blending.
//
// References:
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

import (
	"math"

	"github.com/pinkpixel/gumdrop"
)

// ChannelFunc is a separable blend function B(Cb, Cs) on unit-range
// channel values, where Cb is the backdrop and Cs the source.
type ChannelFunc func(cb, cs float64) float64

// funcs is indexed by gumdrop.BlendMode. Every mode must have an entry.
var funcs = [...]ChannelFunc{
	gumdrop.BlendNormal:   normal,
	gumdrop.BlendMultiply: multiply,
	gumdrop.BlendScreen:   screen,
}

// normal: B(Cb, Cs) = Cs
func normal(_, cs float64) float64 { return cs }

// multiply: B(Cb, Cs) = Cb * Cs
func multiply(cb, cs float64) float64 { return cb * cs }

// screen: B(Cb, Cs) = 1 - (1-Cb)*(1-Cs)
func screen(cb, cs float64) float64 { return cb + cs - cb*cs }

// Func returns the channel function for mode. Unknown modes fall back to
// normal; callers validate modes before they reach the compositor.
func Func(mode gumdrop.BlendMode) ChannelFunc {
	if int(mode) < len(funcs) {
		return funcs[mode]
	}
	return normal
}

// Blend composites src over dst with the given opacity and mode and
// returns the result.
//
// With αs the scaled source alpha and αb the backdrop alpha:
//
//	Cs' = (1 - αb)·Cs + αb·B(Cb, Cs)
//	αo  = αs + αb·(1 - αs)
//	Co  = (αs·Cs' + αb·Cb·(1 - αs)) / αo
func Blend(src gumdrop.Color, opacity float64, dst gumdrop.Color, mode gumdrop.BlendMode) gumdrop.Color {
	r, g, b, a := blendPixel(src.R, src.G, src.B, src.A, dst.R, dst.G, dst.B, dst.A, opacity, Func(mode))
	return gumdrop.Color{R: r, G: g, B: b, A: a}
}

// Row blends n straight-RGBA pixels of src over dst in place.
func Row(dst, src []byte, n int, opacity float64, mode gumdrop.BlendMode) {
	if n <= 0 || opacity <= 0 {
		return
	}
	fn := Func(mode)
	for i := 0; i < n*4; i += 4 {
		if src[i+3] == 0 {
			continue
		}
		dst[i], dst[i+1], dst[i+2], dst[i+3] = blendPixel(
			src[i], src[i+1], src[i+2], src[i+3],
			dst[i], dst[i+1], dst[i+2], dst[i+3],
			opacity, fn,
		)
	}
}

func blendPixel(sr, sg, sb, sa, dr, dg, db, da byte, opacity float64, fn ChannelFunc) (byte, byte, byte, byte) {
	as := float64(sa) / 255 * opacity
	if as <= 0 {
		return dr, dg, db, da
	}
	ab := float64(da) / 255
	ao := as + ab*(1-as)
	if ao <= 0 {
		return 0, 0, 0, 0
	}

	channel := func(s, d byte) byte {
		cs := float64(s) / 255
		cb := float64(d) / 255
		csp := (1-ab)*cs + ab*fn(cb, cs)
		co := (as*csp + ab*cb*(1-as)) / ao
		return unit8(co)
	}
	return channel(sr, dr), channel(sg, dg), channel(sb, db), unit8(ao)
}

// unit8 maps [0, 1] to [0, 255] with rounding and clamping.
func unit8(x float64) byte {
	v := math.Round(x * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
