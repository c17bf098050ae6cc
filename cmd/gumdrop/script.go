package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pinkpixel/gumdrop"
	"github.com/pinkpixel/gumdrop/config"
	"github.com/pinkpixel/gumdrop/dispatch"
	"github.com/pinkpixel/gumdrop/history"
	"github.com/pinkpixel/gumdrop/project"
	"github.com/pinkpixel/gumdrop/raster"
	"github.com/pinkpixel/gumdrop/session"
)

// shell bundles what the render and view commands share.
type shell struct {
	sess  *session.Session
	disp  *dispatch.Dispatcher
	files *dirFiles
}

func newShell(cfg config.Config, dir string, doc *gumdrop.Document) *shell {
	files := &dirFiles{dir: dir}
	sess := session.New(doc, cfg.SessionOptions()...)
	disp := dispatch.New(sess, files,
		dispatch.WithNewDocument(cfg.NewDocument),
		dispatch.WithExportOptions(cfg.ExportOptions()),
		dispatch.WithView(viewState(cfg.View)),
	)
	return &shell{sess: sess, disp: disp, files: files}
}

func viewState(v config.View) dispatch.ViewState {
	return dispatch.ViewState{
		Zoom:     v.Zoom,
		MinZoom:  v.MinZoom,
		MaxZoom:  v.MaxZoom,
		ZoomStep: v.ZoomStep,
		Grid:     v.Grid,
		Dark:     v.Dark,
	}
}

func renderCmd(ctx context.Context, cfg config.Config, args []string) error {
	fset := flag.NewFlagSet("render", flag.ContinueOnError)
	dir := fset.String("dir", ".", "directory for opened, saved and exported files")
	store := fset.String("store", "", "project store file to auto-save into")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return errors.New("render: want one script file")
	}

	doc, err := cfg.NewDocument()
	if err != nil {
		return err
	}
	sh := newShell(cfg, *dir, doc)
	defer sh.sess.Close()

	f, err := os.Open(fset.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	r := &runner{shell: sh, color: gumdrop.Black}
	if palette, _ := cfg.PaletteColors(); len(palette) > 0 {
		r.color = palette[0]
	}
	if err := r.run(ctx, f); err != nil {
		return err
	}

	if *store != "" {
		snap, _ := sh.sess.Snapshot()
		id, err := project.NewStore(fileBackend{path: *store}).Save(ctx, "", "", snap)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved %q as %s\n", snap.Metadata().Title, id)
	}
	return nil
}

// runner executes a script. Drawing commands paint with the current
// color on the active layer; anything else goes to the dispatcher.
type runner struct {
	*shell
	color gumdrop.Color
	group *session.Group
}

func (r *runner) run(ctx context.Context, src io.Reader) error {
	sc := bufio.NewScanner(src)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := r.exec(ctx, line); err != nil {
			if r.group != nil {
				_ = r.group.Abort()
				r.group = nil
			}
			return fmt.Errorf("line %d: %s: %w", n, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if r.group != nil {
		r.group.End()
		r.group = nil
	}
	return nil
}

func (r *runner) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "color":
		if len(args) != 1 {
			return errArgs
		}
		c, err := gumdrop.ParseColor(args[0])
		if err != nil {
			return err
		}
		r.color = c
		return nil

	case "pixel", "line", "rect", "fillrect", "circle", "quad", "erase":
		pts, err := shape(cmd, args)
		if err != nil {
			return err
		}
		c := r.color
		if cmd == "erase" {
			c = gumdrop.Transparent
		}
		_, err = r.sess.Edit(func(doc *gumdrop.Document) (history.Entry, bool, error) {
			return history.Paint(doc, doc.ActiveIndex(), pts, c)
		})
		return err

	case "fill":
		_, err := r.sess.Edit(func(doc *gumdrop.Document) (history.Entry, bool, error) {
			return history.Fill(doc, doc.ActiveIndex(), r.color)
		})
		return err

	case "layer":
		return r.layer(args)

	case "resize":
		n, err := ints(args, 2)
		if err != nil {
			return err
		}
		return r.sess.Apply(history.Resize(n[0], n[1]))

	case "title":
		r.sess.SetTitle(strings.TrimSpace(strings.TrimPrefix(line, "title")))
		return nil

	case "palette":
		if len(args) != 2 {
			return errArgs
		}
		c, err := gumdrop.ParseColor(args[1])
		if err != nil {
			return err
		}
		switch args[0] {
		case "add":
			r.sess.AddPaletteColor(c)
		case "remove":
			r.sess.RemovePaletteColor(c)
		default:
			return errArgs
		}
		return nil

	case "begin":
		if r.group != nil {
			return gumdrop.ErrGroupOpen
		}
		r.group = r.sess.BeginGroup()
		return nil

	case "end", "abort":
		if r.group == nil {
			return errors.New("no open group")
		}
		g := r.group
		r.group = nil
		if cmd == "abort" {
			return g.Abort()
		}
		g.End()
		return nil

	case dispatch.CmdOpen, dispatch.CmdSaveAs:
		if len(args) > 0 {
			r.files.next = args[0]
		}
		return r.disp.Dispatch(ctx, cmd)

	case dispatch.CmdExport:
		if len(args) == 0 {
			return errArgs
		}
		if len(args) > 1 {
			r.files.next = args[1]
		}
		return r.disp.Dispatch(ctx, cmd, args[0])

	case dispatch.CmdUndo, dispatch.CmdRedo:
		err := r.disp.Dispatch(ctx, cmd)
		if errors.Is(err, gumdrop.ErrEmptyHistory) {
			gumdrop.Logger().Info("script: nothing to " + cmd)
			return nil
		}
		return err
	}
	return r.disp.Dispatch(ctx, cmd, args...)
}

var errArgs = errors.New("wrong arguments")

func (r *runner) layer(args []string) error {
	if len(args) == 0 {
		return errArgs
	}
	sub, args := args[0], args[1:]
	if sub == "add" {
		name := strings.Join(args, " ")
		_, err := r.sess.Edit(func(doc *gumdrop.Document) (history.Entry, bool, error) {
			if name == "" {
				name = fmt.Sprintf("Layer %d", doc.Layers().Len()+1)
			}
			return history.AddBlankLayer(doc, name), true, nil
		})
		return err
	}

	if len(args) == 0 {
		return errArgs
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	rest := args[1:]
	switch sub {
	case "dup":
		_, err = r.sess.Edit(func(doc *gumdrop.Document) (history.Entry, bool, error) {
			e, err := history.DuplicateLayer(doc, i)
			return e, err == nil, err
		})
	case "remove":
		err = r.sess.Apply(history.RemoveLayer(i))
	case "move":
		var to []int
		if to, err = ints(rest, 1); err == nil {
			err = r.sess.Apply(history.ReorderLayer(i, to[0]))
		}
	case "active":
		err = r.sess.SetActive(i)
	case "opacity", "blend", "hide", "show", "name":
		err = r.setProperty(sub, i, rest)
	default:
		err = errArgs
	}
	return err
}

func (r *runner) setProperty(sub string, i int, args []string) error {
	var (
		prop  gumdrop.Property
		value any
	)
	switch sub {
	case "opacity":
		if len(args) != 1 {
			return errArgs
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return err
		}
		prop, value = gumdrop.PropOpacity, v
	case "blend":
		if len(args) != 1 {
			return errArgs
		}
		m, err := gumdrop.ParseBlendMode(args[0])
		if err != nil {
			return err
		}
		prop, value = gumdrop.PropBlendMode, m
	case "hide", "show":
		prop, value = gumdrop.PropVisible, sub == "show"
	case "name":
		prop, value = gumdrop.PropName, strings.Join(args, " ")
	}
	_, err := r.sess.Edit(func(doc *gumdrop.Document) (history.Entry, bool, error) {
		e, err := history.SetProperty(doc, i, prop, value)
		return e, err == nil, err
	})
	return err
}

// shape rasterizes a drawing command's arguments.
func shape(cmd string, args []string) ([]image.Point, error) {
	arity := map[string]int{"pixel": 2, "erase": 2, "line": 4, "rect": 4, "fillrect": 4, "circle": 3, "quad": 6}[cmd]
	n, err := ints(args, arity)
	if err != nil {
		return nil, err
	}
	switch cmd {
	case "pixel", "erase":
		return []image.Point{image.Pt(n[0], n[1])}, nil
	case "line":
		return raster.Line(n[0], n[1], n[2], n[3]), nil
	case "rect":
		return raster.Rect(n[0], n[1], n[2], n[3]), nil
	case "fillrect":
		return raster.FillRect(n[0], n[1], n[2], n[3]), nil
	case "circle":
		return raster.Circle(n[0], n[1], n[2]), nil
	default:
		return raster.Quad(n[0], n[1], n[2], n[3], n[4], n[5]), nil
	}
}

func ints(args []string, want int) ([]int, error) {
	if len(args) != want {
		return nil, fmt.Errorf("want %d numbers, got %d: %w", want, len(args), errArgs)
	}
	out := make([]int, want)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
