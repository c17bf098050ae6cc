package blend

import (
	"testing"

	"github.com/pinkpixel/gumdrop"
)

func TestEveryModeHasFunc(t *testing.T) {
	for _, m := range gumdrop.BlendModes() {
		if int(m) >= len(funcs) || funcs[m] == nil {
			t.Errorf("mode %s has no blend function", m)
		}
	}
}

func TestBlend(t *testing.T) {
	red := gumdrop.RGB(255, 0, 0)
	blue := gumdrop.RGB(0, 0, 255)
	white := gumdrop.RGB(255, 255, 255)
	gray := gumdrop.RGB(128, 128, 128)

	tests := []struct {
		name    string
		src     gumdrop.Color
		opacity float64
		dst     gumdrop.Color
		mode    gumdrop.BlendMode
		want    gumdrop.Color
	}{
		{"opaque over transparent", red, 1, gumdrop.Transparent, gumdrop.BlendNormal, red},
		{"opaque over opaque", blue, 1, red, gumdrop.BlendNormal, blue},
		{"zero opacity keeps backdrop", blue, 0, red, gumdrop.BlendNormal, red},
		{"transparent source keeps backdrop", gumdrop.Transparent, 1, red, gumdrop.BlendNormal, red},
		{"half opacity", blue, 0.5, red, gumdrop.BlendNormal, gumdrop.Color{R: 128, G: 0, B: 128, A: 255}},
		{"multiply white is identity", white, 1, red, gumdrop.BlendMultiply, red},
		{"multiply red by blue is black", blue, 1, red, gumdrop.BlendMultiply, gumdrop.RGB(0, 0, 0)},
		{"multiply over transparent is source", gray, 1, gumdrop.Transparent, gumdrop.BlendMultiply, gray},
		{"screen red and blue", blue, 1, red, gumdrop.BlendScreen, gumdrop.RGB(255, 0, 255)},
		{"screen over transparent is source", gray, 1, gumdrop.Transparent, gumdrop.BlendScreen, gray},
		{"screen black is identity", gumdrop.RGB(0, 0, 0), 1, gray, gumdrop.BlendScreen, gray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Blend(tt.src, tt.opacity, tt.dst, tt.mode)
			if got != tt.want {
				t.Errorf("Blend(%v, %v, %v, %s) = %v, want %v", tt.src, tt.opacity, tt.dst, tt.mode, got, tt.want)
			}
		})
	}
}

func TestRowMatchesBlend(t *testing.T) {
	src := []byte{255, 0, 0, 255, 0, 0, 0, 0, 10, 20, 30, 128}
	dst := []byte{0, 0, 255, 255, 1, 2, 3, 4, 200, 100, 50, 255}
	want := make([]gumdrop.Color, 3)
	for i := range want {
		s := gumdrop.Color{R: src[i*4], G: src[i*4+1], B: src[i*4+2], A: src[i*4+3]}
		d := gumdrop.Color{R: dst[i*4], G: dst[i*4+1], B: dst[i*4+2], A: dst[i*4+3]}
		want[i] = Blend(s, 0.75, d, gumdrop.BlendMultiply)
	}

	Row(dst, src, 3, 0.75, gumdrop.BlendMultiply)

	for i, w := range want {
		got := gumdrop.Color{R: dst[i*4], G: dst[i*4+1], B: dst[i*4+2], A: dst[i*4+3]}
		if got != w {
			t.Errorf("pixel %d: got %v, want %v", i, got, w)
		}
	}
}

func TestUnit8(t *testing.T) {
	tests := []struct {
		in   float64
		want byte
	}{
		{-0.5, 0}, {0, 0}, {0.5, 128}, {1, 255}, {1.5, 255},
	}
	for _, tt := range tests {
		if got := unit8(tt.in); got != tt.want {
			t.Errorf("unit8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
