package gumdrop

import (
	"errors"
	"math"
	"testing"
)

func TestBlendModeNames(t *testing.T) {
	for _, m := range BlendModes() {
		got, err := ParseBlendMode(m.String())
		if err != nil {
			t.Fatalf("ParseBlendMode(%q): %v", m.String(), err)
		}
		if got != m {
			t.Errorf("ParseBlendMode(%q) = %v, want %v", m.String(), got, m)
		}
	}
	if got, _ := ParseBlendMode(" Screen "); got != BlendScreen {
		t.Errorf("ParseBlendMode is not case-insensitive: got %v", got)
	}
	if _, err := ParseBlendMode("overlay"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("ParseBlendMode(overlay) error = %v, want ErrInvalidValue", err)
	}
	if BlendMode(200).Valid() {
		t.Error("BlendMode(200).Valid() = true")
	}
}

func TestLayerPropsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       LayerProps
		wantErr bool
	}{
		{"default", DefaultLayerProps("a"), false},
		{"zero opacity", LayerProps{Opacity: 0}, false},
		{"full opacity", LayerProps{Opacity: 1, BlendMode: BlendScreen}, false},
		{"negative opacity", LayerProps{Opacity: -0.1}, true},
		{"opacity above one", LayerProps{Opacity: 1.01}, true},
		{"NaN opacity", LayerProps{Opacity: math.NaN()}, true},
		{"unknown mode", LayerProps{Opacity: 1, BlendMode: blendModeCount}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidValue) {
				t.Errorf("Validate() = %v, want ErrInvalidValue", err)
			}
		})
	}
}

func TestLayerPropsWith(t *testing.T) {
	base := DefaultLayerProps("base")
	tests := []struct {
		name    string
		prop    Property
		value   any
		check   func(LayerProps) bool
		wantErr bool
	}{
		{"name", PropName, "  Outline ", func(p LayerProps) bool { return p.Name == "Outline" }, false},
		{"visible", PropVisible, false, func(p LayerProps) bool { return !p.Visible }, false},
		{"opacity", PropOpacity, 0.25, func(p LayerProps) bool { return p.Opacity == 0.25 }, false},
		{"blend", PropBlendMode, BlendMultiply, func(p LayerProps) bool { return p.BlendMode == BlendMultiply }, false},
		{"opacity out of range", PropOpacity, 2.0, nil, true},
		{"wrong type", PropOpacity, "half", nil, true},
		{"unknown property", Property(9), 1, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.With(tt.prop, tt.value)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidValue) {
					t.Fatalf("With(%v, %v) error = %v, want ErrInvalidValue", tt.prop, tt.value, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("With(%v, %v): %v", tt.prop, tt.value, err)
			}
			if !tt.check(got) {
				t.Errorf("With(%v, %v) = %+v", tt.prop, tt.value, got)
			}
		})
	}
	if base.Name != "base" {
		t.Error("With modified the receiver")
	}
}

func TestLayerNameNormalization(t *testing.T) {
	// "é" as e + combining acute must equal the precomposed form.
	l := NewLayer("Cafe\u0301 ", mustBuffer(t, 1, 1))
	if l.Name() != "Caf\u00e9" {
		t.Errorf("Name() = %q, want NFC form", l.Name())
	}
}

func TestNewLayerWithProps(t *testing.T) {
	p := LayerProps{Name: "glow", Visible: false, Opacity: 0.5, BlendMode: BlendScreen}
	l, err := NewLayerWithProps(p, mustBuffer(t, 2, 2))
	if err != nil {
		t.Fatalf("NewLayerWithProps: %v", err)
	}
	if l.Props() != p {
		t.Errorf("Props() = %+v, want %+v", l.Props(), p)
	}
	if _, err := NewLayerWithProps(LayerProps{Opacity: 3}, mustBuffer(t, 2, 2)); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("invalid props error = %v, want ErrInvalidValue", err)
	}
}

func TestLayerCloneEqual(t *testing.T) {
	l := NewLayer("a", mustBuffer(t, 2, 2))
	_ = l.Buffer().Set(1, 1, Red)
	c := l.Clone()
	if !c.Equal(l) {
		t.Fatal("clone not equal")
	}
	_ = c.Buffer().Set(0, 0, Blue)
	if c.Equal(l) {
		t.Error("clone shares its buffer")
	}
	var nilLayer *Layer
	if nilLayer.Equal(l) || !nilLayer.Equal(nil) {
		t.Error("nil layer comparison is wrong")
	}
}

func mustBuffer(t *testing.T, w, h int) *Buffer {
	t.Helper()
	b, err := NewBuffer(w, h)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	return b
}
