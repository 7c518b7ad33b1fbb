// Package units parses typographic length arguments.
//
// Internally everything is kept in points, but arguments are accepted in
// several units: points, picas, millimeters, inches, and bare numbers
// (treated as points). A leading + or - marks the value as relative to the
// current setting instead of replacing it.
package units

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Conversion factors into points.
const (
	PtPerInch = 72.0
	PtPerPica = 12.0
	PtPerMM   = 2.83464576

	// MMPerPt converts points to the millimeter space used by the PDF
	// emitter.
	MMPerPt = 25.4 / 72.0
)

// Value is a resolved length. Relative values adjust the current setting
// rather than replacing it.
type Value struct {
	Points   float64
	Relative bool
}

var (
	unitLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
		{Name: "Unit", Pattern: `[a-zA-Z%]+`},
		{Name: "Sign", Pattern: `[+-]`},
	})

	unitParser = participle.MustBuild[lengthExpr](
		participle.Lexer(unitLexer),
	)
)

// lengthExpr is the unit grammar: an optional sign, a number, and an
// optional unit suffix.
type lengthExpr struct {
	Sign string  `parser:"@Sign?"`
	Num  float64 `parser:"@Number"`
	Unit string  `parser:"@Unit?"`
}

// Parse converts an argument string like "12", "0.5in", "2P", or "-3mm"
// into points.
func Parse(input string) (Value, error) {
	expr, err := unitParser.ParseString("", input)
	if err != nil {
		return Value{}, fmt.Errorf("invalid measurement %q: %w", input, err)
	}

	pts := expr.Num
	switch expr.Unit {
	case "", "pt":
	case "in":
		pts *= PtPerInch
	case "P":
		pts *= PtPerPica
	case "mm":
		pts *= PtPerMM
	case "%":
		pts /= 100
	default:
		return Value{}, fmt.Errorf("invalid unit %q in measurement %q", expr.Unit, input)
	}

	switch expr.Sign {
	case "":
		return Value{Points: pts}, nil
	case "+":
		return Value{Points: pts, Relative: true}, nil
	default: // "-"
		return Value{Points: -pts, Relative: true}, nil
	}
}
