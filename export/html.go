package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"html/template"
	"image/png"
	"io"

	"github.com/pinkpixel/gumdrop"
)

// DefaultHTMLTitle is used when neither the options nor the document
// carry a title.
const DefaultHTMLTitle = "Pixel Pet Snippet"

var htmlPage = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
html, body { margin: 0; height: 100%; background: #0b0b12; }
body { display: flex; align-items: center; justify-content: center; }
img { image-rendering: pixelated; image-rendering: crisp-edges; }
</style>
</head>
<body>
<img src="{{.Src}}" width="{{.Width}}" height="{{.Height}}" alt="{{.Title}}">
</body>
</html>
`))

type htmlData struct {
	Title         string
	Src           template.URL
	Width, Height int
}

// encodeHTML embeds the PNG raster as a data URI in a standalone page.
func encodeHTML(ctx context.Context, w io.Writer, doc *gumdrop.Document, opts Options) error {
	img, err := raster(ctx, doc, opts)
	if err != nil {
		return err
	}
	var payload bytes.Buffer
	if err := png.Encode(&payload, img); err != nil {
		return encodeErr(HTML, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	title := opts.title(doc)
	if title == "" {
		title = DefaultHTMLTitle
	}
	b := img.Bounds()
	data := htmlData{
		Title:  title,
		Src:    template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(payload.Bytes())),
		Width:  b.Dx(),
		Height: b.Dy(),
	}
	if err := htmlPage.Execute(w, data); err != nil {
		return encodeErr(HTML, err)
	}
	return nil
}
