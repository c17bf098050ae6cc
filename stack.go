package gumdrop

import "fmt"

// LayerStack is the ordered list of layers; index 0 is painted first.
// The stack is never empty and the active index always addresses a layer.
//
// LayerStack has no undo awareness. Its mutators are reached through the
// Document, which versions every change.
type LayerStack struct {
	width  int
	height int
	layers []*Layer
	active int
}

// Len returns the number of layers (always at least one).
func (s *LayerStack) Len() int {
	return len(s.layers)
}

// Active returns the active layer index.
func (s *LayerStack) Active() int {
	return s.active
}

// At returns the layer at index i.
func (s *LayerStack) At(i int) (*Layer, error) {
	if err := s.check(i); err != nil {
		return nil, err
	}
	return s.layers[i], nil
}

// All returns the layers bottom to top. The slice is a copy; the layers
// are not.
func (s *LayerStack) All() []*Layer {
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

func (s *LayerStack) check(i int) error {
	if i < 0 || i >= len(s.layers) {
		return fmt.Errorf("layer %d of %d: %w", i, len(s.layers), ErrInvalidIndex)
	}
	return nil
}

// blankLayer returns the replacement used when the last layer is removed.
func (s *LayerStack) blankLayer() *Layer {
	buf, _ := NewBuffer(s.width, s.height)
	return NewLayer(defaultLayerName, buf)
}

// insert places l at pos, which may equal Len. The new layer becomes active.
func (s *LayerStack) insert(pos int, l *Layer) error {
	if pos < 0 || pos > len(s.layers) {
		return fmt.Errorf("insert at %d of %d: %w", pos, len(s.layers), ErrInvalidIndex)
	}
	if l == nil || l.buffer == nil {
		return fmt.Errorf("insert nil layer: %w", ErrInvalidValue)
	}
	if l.buffer.width != s.width || l.buffer.height != s.height {
		return fmt.Errorf("layer %dx%d on %dx%d canvas: %w",
			l.buffer.width, l.buffer.height, s.width, s.height, ErrInvalidValue)
	}
	if err := l.props.Validate(); err != nil {
		return err
	}
	s.layers = append(s.layers, nil)
	copy(s.layers[pos+1:], s.layers[pos:])
	s.layers[pos] = l
	s.active = pos
	return nil
}

// remove deletes layer i. Removing the sole layer swaps in a blank one and
// reports replaced=true, so the stack is never empty even transiently.
func (s *LayerStack) remove(i int) (removed *Layer, replaced bool, err error) {
	if err := s.check(i); err != nil {
		return nil, false, err
	}
	removed = s.layers[i]
	if len(s.layers) == 1 {
		s.layers[0] = s.blankLayer()
		s.active = 0
		return removed, true, nil
	}
	copy(s.layers[i:], s.layers[i+1:])
	s.layers[len(s.layers)-1] = nil
	s.layers = s.layers[:len(s.layers)-1]
	if s.active > i {
		s.active--
	}
	if s.active >= len(s.layers) {
		s.active = len(s.layers) - 1
	}
	return removed, false, nil
}

// replace swaps layer i for l and returns the previous one.
func (s *LayerStack) replace(i int, l *Layer) (*Layer, error) {
	if err := s.check(i); err != nil {
		return nil, err
	}
	old := s.layers[i]
	s.layers[i] = l
	return old, nil
}

// move takes the layer at from and reinserts it at to. The active index
// follows the layer it pointed at.
func (s *LayerStack) move(from, to int) error {
	if err := s.check(from); err != nil {
		return err
	}
	if err := s.check(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	l := s.layers[from]
	if from < to {
		copy(s.layers[from:to], s.layers[from+1:to+1])
	} else {
		copy(s.layers[to+1:from+1], s.layers[to:from])
	}
	s.layers[to] = l

	switch {
	case s.active == from:
		s.active = to
	case from < s.active && s.active <= to:
		s.active--
	case to <= s.active && s.active < from:
		s.active++
	}
	return nil
}

func (s *LayerStack) setActive(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.active = i
	return nil
}

func (s *LayerStack) setProps(i int, p LayerProps) error {
	if err := s.check(i); err != nil {
		return err
	}
	p.Name = normalizeName(p.Name)
	if err := p.Validate(); err != nil {
		return err
	}
	s.layers[i].props = p
	return nil
}

func (s *LayerStack) clone() *LayerStack {
	layers := make([]*Layer, len(s.layers))
	for i, l := range s.layers {
		layers[i] = l.Clone()
	}
	return &LayerStack{width: s.width, height: s.height, layers: layers, active: s.active}
}
