// Package canvasrenderer draws layout results into a PDF via
// github.com/tdewolff/canvas. The layout works in points from the top-left
// corner; canvas works in millimeters, so coordinates convert here and the
// context uses the CartesianIV coordinate system to keep y growing
// downward.
package canvasrenderer

import (
	"bytes"
	"fmt"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/burrodoc/burro/fontmap"
	"github.com/burrodoc/burro/layout"
	"github.com/burrodoc/burro/renderer"
	"github.com/burrodoc/burro/units"
)

// Renderer emits one PDF page per layout page.
type Renderer struct {
	fonts *fontmap.Map
}

var _ renderer.Renderer = (*Renderer)(nil)

// New creates a renderer resolving faces through the given font map.
func New(fonts *fontmap.Map) *Renderer {
	return &Renderer{fonts: fonts}
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("render: nil result")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("render: no pages")
	}

	wMM := result.PageWidth * units.MMPerPt
	hMM := result.PageHeight * units.MMPerPt

	var buf bytes.Buffer
	writer := pdf.New(&buf, wMM, hMM, nil)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(wMM, hMM)
		}
		c := canvas.New(wMM, hMM)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV)

		for _, t := range page.Texts {
			face, err := r.fonts.Face(t.Family, t.Style, t.Size)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", page.Number, err)
			}
			line := canvas.NewTextLine(face, t.Text, canvas.Left)
			ctx.DrawText(t.X*units.MMPerPt, t.Y*units.MMPerPt, line)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}
