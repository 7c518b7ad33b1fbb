package units_test

import (
	"math"
	"testing"

	"github.com/burrodoc/burro/units"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in       string
		points   float64
		relative bool
	}{
		{"12", 12, false},
		{"12pt", 12, false},
		{"0.5in", 36, false},
		{"2P", 24, false},
		{"10mm", 10 * units.PtPerMM, false},
		{"75%", 0.75, false},
		{"+2", 2, true},
		{"+0.5in", 36, true},
		{"-3mm", -3 * units.PtPerMM, true},
	}
	for _, tc := range cases {
		got, err := units.Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", tc.in, err)
			continue
		}
		if math.Abs(got.Points-tc.points) > 1e-9 {
			t.Errorf("Parse(%q) = %v points, want %v", tc.in, got.Points, tc.points)
		}
		if got.Relative != tc.relative {
			t.Errorf("Parse(%q) relative = %v, want %v", tc.in, got.Relative, tc.relative)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "12xy", "1.2.3", "++2", "12 pt"} {
		if _, err := units.Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}
