package export

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pinkpixel/gumdrop"
)

// encodeSVG writes one group per visible layer, bottom to top. Each row of
// a layer is split into runs of equal non-transparent cells and each run
// becomes a rect in canvas coordinates; the viewBox maps them to the
// scaled output size.
func encodeSVG(ctx context.Context, w io.Writer, doc *gumdrop.Document, opts Options) error {
	bw := bufio.NewWriter(w)
	cw, ch := doc.Width(), doc.Height()
	s := opts.scale()

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`+"\n",
		cw*s, ch*s, cw, ch)
	if title := opts.title(doc); title != "" {
		fmt.Fprintf(bw, "<title>%s</title>\n", escape(title))
	}
	if opts.Background != nil {
		fmt.Fprintf(bw, `<rect width="%d" height="%d" fill="%s"/>`+"\n", cw, ch, opaqueHex(*opts.Background))
	}

	for i, l := range doc.Layers().All() {
		if !l.Visible() || l.Opacity() <= 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(bw, `<g id="layer-%d" data-name="%s"`, i, escape(l.Name()))
		if l.Opacity() < 1 {
			fmt.Fprintf(bw, ` opacity="%s"`, strconv.FormatFloat(l.Opacity(), 'f', -1, 64))
		}
		if l.BlendMode() != gumdrop.BlendNormal {
			fmt.Fprintf(bw, ` style="mix-blend-mode:%s"`, l.BlendMode())
		}
		bw.WriteString(">\n")
		writeRuns(bw, l.Buffer())
		bw.WriteString("</g>\n")
	}
	bw.WriteString("</svg>\n")

	if err := bw.Flush(); err != nil {
		return encodeErr(SVG, err)
	}
	return nil
}

func writeRuns(w *bufio.Writer, buf *gumdrop.Buffer) {
	data := buf.Data()
	width := buf.Width()
	for y := range buf.Height() {
		row := data[y*width*4 : (y+1)*width*4]
		for x := 0; x < width; {
			c := cellAt(row, x)
			n := 1
			for x+n < width && cellAt(row, x+n) == c {
				n++
			}
			if !c.IsTransparent() {
				fmt.Fprintf(w, `<rect x="%d" y="%d" width="%d" height="1" fill="%s"`, x, y, n, opaqueHex(c))
				if !c.IsOpaque() {
					fmt.Fprintf(w, ` fill-opacity="%s"`, alpha(c.A))
				}
				w.WriteString("/>\n")
			}
			x += n
		}
	}
}

func cellAt(row []byte, x int) gumdrop.Color {
	i := x * 4
	return gumdrop.Color{R: row[i], G: row[i+1], B: row[i+2], A: row[i+3]}
}

func opaqueHex(c gumdrop.Color) string {
	c.A = 255
	return c.Hex()
}

// alpha formats an 8-bit alpha as a unit fraction with three decimals.
func alpha(a uint8) string {
	return strconv.FormatFloat(math.Round(float64(a)/255*1000)/1000, 'f', -1, 64)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
