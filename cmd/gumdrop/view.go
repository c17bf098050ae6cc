package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"path/filepath"

	"github.com/gdamore/tcell/v2"

	"github.com/pinkpixel/gumdrop"
	"github.com/pinkpixel/gumdrop/config"
	"github.com/pinkpixel/gumdrop/dispatch"
	"github.com/pinkpixel/gumdrop/export"
	"github.com/pinkpixel/gumdrop/history"
	"github.com/pinkpixel/gumdrop/internal/blend"
	"github.com/pinkpixel/gumdrop/session"
)

const viewHelp = "arrows move  space paint  x erase  v stroke  c color  u/r undo/redo  +/- zoom  g grid  d dark  s save  e export  q quit"

func viewCmd(ctx context.Context, cfg config.Config, args []string) error {
	fset := flag.NewFlagSet("view", flag.ContinueOnError)
	dir := fset.String("dir", "", "directory for saved and exported files (default: the project's directory, or .)")
	if err := fset.Parse(args); err != nil {
		return err
	}

	doc, err := cfg.NewDocument()
	if err != nil {
		return err
	}
	base := *dir
	if base == "" {
		base = "."
		if fset.NArg() > 0 {
			base = filepath.Dir(fset.Arg(0))
		}
	}
	sh := newShell(cfg, base, doc)
	defer sh.sess.Close()

	if fset.NArg() > 0 {
		sh.files.next = filepath.Base(fset.Arg(0))
		if err := sh.disp.Dispatch(ctx, dispatch.CmdOpen); err != nil {
			return err
		}
	}

	palette, _ := cfg.PaletteColors()
	if len(palette) == 0 {
		palette = []gumdrop.Color{gumdrop.Black}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	v := &viewer{shell: sh, screen: screen, palette: palette, status: viewHelp}
	return v.loop(ctx)
}

// viewer draws the composite with half-block cells: each terminal cell
// shows two vertically stacked canvas pixels.
type viewer struct {
	*shell
	screen  tcell.Screen
	palette []gumdrop.Color
	color   int
	cursor  image.Point
	stroke  *session.Group
	status  string
}

func (v *viewer) loop(ctx context.Context) error {
	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	v.draw(ctx)
	for {
		select {
		case <-ctx.Done():
			v.endStroke()
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				v.screen.Sync()
			case *tcell.EventKey:
				if !v.key(ctx, ev) {
					v.endStroke()
					return nil
				}
			}
			v.draw(ctx)
		}
	}
}

// key handles one key press and reports whether the viewer keeps running.
func (v *viewer) key(ctx context.Context, ev *tcell.EventKey) bool {
	move := map[tcell.Key]image.Point{
		tcell.KeyUp: {0, -1}, tcell.KeyDown: {0, 1}, tcell.KeyLeft: {-1, 0}, tcell.KeyRight: {1, 0},
	}
	if d, ok := move[ev.Key()]; ok {
		v.moveCursor(d)
		if v.stroke != nil {
			v.paint(v.palette[v.color])
		}
		return true
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	var cmd string
	var args []string
	switch ev.Rune() {
	case 'q':
		return false
	case ' ':
		v.paint(v.palette[v.color])
	case 'x':
		v.paint(gumdrop.Transparent)
	case 'c':
		v.color = (v.color + 1) % len(v.palette)
		v.status = "color " + v.palette[v.color].Hex()
	case 'v':
		if v.stroke == nil {
			v.stroke = v.sess.BeginGroup()
			v.status = "stroke started"
			v.paint(v.palette[v.color])
		} else {
			v.endStroke()
			v.status = "stroke ended"
		}
	case 'u':
		cmd = dispatch.CmdUndo
	case 'r':
		cmd = dispatch.CmdRedo
	case '+', '=':
		cmd = dispatch.CmdZoomIn
	case '-':
		cmd = dispatch.CmdZoomOut
	case 'g':
		cmd = dispatch.CmdToggleGrid
	case 'd':
		cmd = dispatch.CmdToggleDark
	case 's':
		cmd = dispatch.CmdSave
	case 'e':
		cmd, args = dispatch.CmdExport, []string{export.PNG.String()}
	case 'n':
		cmd = dispatch.CmdNew
	}
	if cmd == "" {
		return true
	}
	if v.stroke != nil {
		v.endStroke()
	}
	switch err := v.disp.Dispatch(ctx, cmd, args...); {
	case errors.Is(err, gumdrop.ErrEmptyHistory):
		v.status = "nothing to " + cmd
	case err != nil:
		v.status = err.Error()
	default:
		v.status = cmd
	}
	return true
}

func (v *viewer) endStroke() {
	if v.stroke != nil {
		v.stroke.End()
		v.stroke = nil
	}
}

func (v *viewer) moveCursor(d image.Point) {
	var w, h int
	v.sess.Read(func(doc *gumdrop.Document) { w, h = doc.Width(), doc.Height() })
	p := v.cursor.Add(d)
	v.cursor = image.Pt(min(max(p.X, 0), w-1), min(max(p.Y, 0), h-1))
}

func (v *viewer) paint(c gumdrop.Color) {
	_, err := v.sess.Edit(func(doc *gumdrop.Document) (history.Entry, bool, error) {
		return history.Paint(doc, doc.ActiveIndex(), []image.Point{v.cursor}, c)
	})
	if err != nil {
		v.status = err.Error()
	}
}

// pixelsPerCell is how many terminal columns one canvas pixel spans at
// the given zoom.
func pixelsPerCell(zoom int) int {
	return max(1, zoom/8)
}

func (v *viewer) draw(ctx context.Context) {
	v.screen.Clear()
	view := v.disp.View()
	img, err := v.sess.Composite(ctx)
	if err != nil {
		v.status = err.Error()
		return
	}
	k := pixelsPerCell(view.Zoom)
	b := img.Bounds()
	sw, sh := v.screen.Size()

	for ty := 0; ty < sh-1; ty++ {
		top, bottom := (2*ty)/k, (2*ty+1)/k
		if top >= b.Dy() {
			break
		}
		for tx := 0; tx < sw; tx++ {
			x := tx / k
			if x >= b.Dx() {
				break
			}
			fg := v.cell(img, x, top, view)
			bg := fg
			if bottom < b.Dy() {
				bg = v.cell(img, x, bottom, view)
			}
			if view.Grid && k >= 3 && tx%k == 0 {
				fg, bg = shade(fg), shade(bg)
			}
			v.screen.SetContent(tx, ty, '▀', nil, tcell.StyleDefault.Foreground(tc(fg)).Background(tc(bg)))
		}
	}
	v.screen.ShowCursor(v.cursor.X*k, (v.cursor.Y*k)/2)

	stats := v.sess.HistoryStats()
	line := fmt.Sprintf("(%d,%d) %s zoom %d undo %d redo %d | %s",
		v.cursor.X, v.cursor.Y, v.palette[v.color].Hex(), view.Zoom, stats.UndoLen, stats.RedoLen, v.status)
	for i, r := range []rune(line) {
		if i >= sw {
			break
		}
		v.screen.SetContent(i, sh-1, r, nil, tcell.StyleDefault)
	}
	v.screen.Show()
}

// cell returns the composite color of pixel (x, y) over a checkerboard.
func (v *viewer) cell(img *image.NRGBA, x, y int, view dispatch.ViewState) gumdrop.Color {
	checker := [2]gumdrop.Color{gumdrop.RGB(0xf1, 0xeb, 0xe0), gumdrop.RGB(0xfb, 0xf7, 0xef)}
	if view.Dark {
		checker = [2]gumdrop.Color{gumdrop.RGB(0x0b, 0x0b, 0x12), gumdrop.RGB(0x16, 0x16, 0x20)}
	}
	under := checker[(x+y)%2]
	return blend.Blend(gumdrop.FromColor(img.NRGBAAt(x, y)), 1, under, gumdrop.BlendNormal)
}

func shade(c gumdrop.Color) gumdrop.Color {
	return gumdrop.Color{R: c.R / 4 * 3, G: c.G / 4 * 3, B: c.B / 4 * 3, A: c.A}
}

func tc(c gumdrop.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
