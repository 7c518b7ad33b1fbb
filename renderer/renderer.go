package renderer

import "github.com/burrodoc/burro/layout"

// Renderer turns a layout result into a final artifact, typically a PDF.
// Render returns the generated bytes.
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}
