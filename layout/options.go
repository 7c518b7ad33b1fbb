package layout

import "github.com/burrodoc/burro/typeset"

// BuildOptions configures the dependencies of the layout stage.
type BuildOptions struct {
	Metrics Metrics
}

// Metrics measures text in a resolved font face. Advance returns the
// horizontal extent of text set in the given family, style and size, in
// points. Implementations report an error when the family or style cannot
// be resolved.
type Metrics interface {
	Advance(family string, style typeset.FontStyle, size float64, text string) (float64, error)
}
