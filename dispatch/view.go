package dispatch

// ViewState is presentation state that never touches the document.
type ViewState struct {
	Zoom     int
	MinZoom  int
	MaxZoom  int
	ZoomStep int
	Grid     bool
	Dark     bool
}

// ZoomIn increases the zoom by one step, clamped to MaxZoom.
func (v *ViewState) ZoomIn() {
	v.Zoom = v.clamp(v.Zoom + v.ZoomStep)
}

// ZoomOut decreases the zoom by one step, clamped to MinZoom.
func (v *ViewState) ZoomOut() {
	v.Zoom = v.clamp(v.Zoom - v.ZoomStep)
}

// ToggleGrid flips grid visibility.
func (v *ViewState) ToggleGrid() { v.Grid = !v.Grid }

// ToggleDark flips the dark theme.
func (v *ViewState) ToggleDark() { v.Dark = !v.Dark }

func (v *ViewState) clamp(z int) int {
	return min(max(z, v.MinZoom), v.MaxZoom)
}
