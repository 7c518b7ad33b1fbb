package layout

import (
	"errors"
	"math"
	"testing"
	"unicode/utf8"

	"github.com/burrodoc/burro/parser"
	"github.com/burrodoc/burro/typeset"
)

// fixedMetrics is a minimal Metrics for tests: every rune, including the
// space, advances half the point size. It keeps expected coordinates easy
// to compute by hand.
type fixedMetrics struct{}

func (fixedMetrics) Advance(family string, style typeset.FontStyle, size float64, text string) (float64, error) {
	if family == "missing" {
		return 0, errors.New("unknown family")
	}
	return 0.5 * size * float64(utf8.RuneCountInString(text)), nil
}

func build(t *testing.T, src string) *Result {
	t.Helper()
	doc, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	res, err := Build(doc, BuildOptions{Metrics: fixedMetrics{}})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return res
}

func buildErr(t *testing.T, src string) error {
	t.Helper()
	doc, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Build(doc, BuildOptions{Metrics: fixedMetrics{}})
	if err == nil {
		t.Fatal("expected build error")
	}
	return err
}

func approx(t *testing.T, what string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", what, got, want)
	}
}

func allTexts(res *Result) []Placement {
	var out []Placement
	for _, p := range res.Pages {
		out = append(out, p.Texts...)
	}
	return out
}

func TestBuildSingleLine(t *testing.T) {
	// default page: 612x792, 72pt margins, 12pt type, 14.4pt leading.
	res := build(t, "Hello world")
	if len(res.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(res.Pages))
	}
	texts := res.Pages[0].Texts
	if len(texts) != 2 {
		t.Fatalf("got %d placements: %+v", len(texts), texts)
	}
	approx(t, "first baseline", texts[0].Y, 72+14.4)
	approx(t, "Hello x", texts[0].X, 72)
	// "Hello" is 30pt wide at 6pt per rune, plus a 6pt space
	approx(t, "world x", texts[1].X, 72+30+6)
	approx(t, "world y", texts[1].Y, texts[0].Y)
	if texts[0].Size != 12 || texts[0].Family != DefaultFamily {
		t.Errorf("placement face: %+v", texts[0])
	}
}

func TestBuildGreedyWrap(t *testing.T) {
	// usable width 200-144 = 56pt; each 4-rune word is 24pt, gaps 6pt.
	res := build(t, ".page_width[200]\n.start\n\naaaa bbbb cccc")
	texts := res.Pages[0].Texts
	if len(texts) != 3 {
		t.Fatalf("got %d placements", len(texts))
	}
	approx(t, "line 1 y", texts[0].Y, 86.4)
	approx(t, "line 1 y", texts[1].Y, 86.4)
	approx(t, "wrapped word y", texts[2].Y, 86.4+14.4)
	approx(t, "wrapped word x", texts[2].X, 72)
}

func TestBuildOverlongWordOverflows(t *testing.T) {
	res := build(t, ".page_width[200]\n.start\n\naaaaaaaaaaaaaaaa bb")
	texts := res.Pages[0].Texts
	if len(texts) != 2 {
		t.Fatalf("got %d placements", len(texts))
	}
	// the 96pt word exceeds the 56pt column but still occupies one line
	approx(t, "overlong word y", texts[0].Y, 86.4)
	approx(t, "next word y", texts[1].Y, 86.4+14.4)
}

func TestBuildParagraphSpacing(t *testing.T) {
	res := build(t, "one\n\ntwo")
	texts := res.Pages[0].Texts
	approx(t, "paragraph 1", texts[0].Y, 86.4)
	// paragraph spacing defaults to the leading
	approx(t, "paragraph 2", texts[1].Y, 86.4+14.4+14.4)
}

func TestBuildPtSizeStack(t *testing.T) {
	res := build(t, ".pt_size[24]Big\n\n.pt_size[-]small")
	texts := allTexts(res)
	if texts[0].Size != 24 {
		t.Errorf("pushed size: got %v", texts[0].Size)
	}
	if texts[1].Size != 12 {
		t.Errorf("size after reset: got %v", texts[1].Size)
	}
}

func TestBuildRelativePtSize(t *testing.T) {
	res := build(t, ".pt_size[+6]word")
	if got := allTexts(res)[0].Size; got != 18 {
		t.Errorf("relative adjustment: got %v, want 18", got)
	}
}

func TestBuildEmptyResetFails(t *testing.T) {
	err := buildErr(t, ".pt_size[-]text")
	if !errors.Is(err, typeset.ErrEmptyReset) {
		t.Fatalf("got %v, want ErrEmptyReset", err)
	}
}

func TestBuildStyledSpans(t *testing.T) {
	res := build(t, ".bold[Hi] there")
	texts := res.Pages[0].Texts
	if texts[0].Style != typeset.StyleBold {
		t.Errorf("span style: got %v", texts[0].Style)
	}
	if texts[1].Style != typeset.StyleRoman {
		t.Errorf("style after span: got %v", texts[1].Style)
	}
}

func TestBuildBareDirectivePersists(t *testing.T) {
	res := build(t, ".bold|one\n\ntwo")
	texts := allTexts(res)
	for i, p := range texts {
		if p.Style != typeset.StyleBold {
			t.Errorf("placement %d: got %v, want bold", i, p.Style)
		}
	}
}

func TestBuildMixedWordStaysGlued(t *testing.T) {
	res := build(t, "ab.bold[cd]ef")
	texts := res.Pages[0].Texts
	if len(texts) != 3 {
		t.Fatalf("got %d placements: %+v", len(texts), texts)
	}
	approx(t, "seg 1 x", texts[0].X, 72)
	approx(t, "seg 2 x", texts[1].X, 84)
	approx(t, "seg 3 x", texts[2].X, 96)
	for i := 1; i < 3; i++ {
		approx(t, "shared baseline", texts[i].Y, texts[0].Y)
	}
	if texts[1].Style != typeset.StyleBold || texts[2].Style != typeset.StyleRoman {
		t.Errorf("segment styles: %+v", texts)
	}
}

func TestBuildQuoteWrapsArgument(t *testing.T) {
	res := build(t, ".quote[word]")
	texts := res.Pages[0].Texts
	if len(texts) != 1 {
		t.Fatalf("got %d placements: %+v", len(texts), texts)
	}
	if texts[0].Text != "“word”" {
		t.Errorf("quoted text: got %q", texts[0].Text)
	}
}

func TestBuildAlignments(t *testing.T) {
	// usable width 56pt, "mid" is 18pt wide
	res := build(t, ".page_width[200]\n.align[center]\n.start\n\nmid")
	approx(t, "centered x", res.Pages[0].Texts[0].X, 72+(56-18)/2)

	res = build(t, ".page_width[200]\n.align[right]\n.start\n\nmid")
	approx(t, "right x", res.Pages[0].Texts[0].X, 72+56-18)
}

func TestBuildJustify(t *testing.T) {
	res := build(t, ".page_width[200]\n.align[justify]\n.start\n\naaaa bbbb cccc")
	texts := res.Pages[0].Texts
	// line 1 holds "aaaa bbbb" (54pt of 56); the 2pt slack widens the gap
	approx(t, "justified gap", texts[1].X, 72+24+6+2)
	// the final line stays flush left
	approx(t, "last line x", texts[2].X, 72)
}

func TestBuildPageBreakCommand(t *testing.T) {
	res := build(t, "one\n\n.page_break\n\ntwo")
	if len(res.Pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(res.Pages))
	}
	approx(t, "page 2 baseline", res.Pages[1].Texts[0].Y, 86.4)
	if res.Pages[1].Number != 2 {
		t.Errorf("page number: got %d", res.Pages[1].Number)
	}
}

func TestBuildPageOverflow(t *testing.T) {
	// content bottom at 144-36 = 108; baselines land at 50.4, 79.2, 108,
	// then the fourth paragraph moves to page 2.
	res := build(t, ".page_height[144]\n.margins[36]\n.start\n\na\n\nb\n\nc\n\nd")
	if len(res.Pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(res.Pages))
	}
	if len(res.Pages[0].Texts) != 3 || len(res.Pages[1].Texts) != 1 {
		t.Fatalf("page split: %d + %d placements",
			len(res.Pages[0].Texts), len(res.Pages[1].Texts))
	}
	approx(t, "page 2 baseline", res.Pages[1].Texts[0].Y, 36+14.4)
}

const tabConfig = `.tab{.indent[0] .length[200] .direction[left]}[left]
.tab{.indent[220] .length[200] .direction[right]}[right]
.tab_list{.tab[left] .tab[right]}[cols]
.start

`

func TestBuildTabColumns(t *testing.T) {
	res := build(t, tabConfig+".load_tabs[cols]\n\n.tab[left]\n\nL1\n\n.tab[right]\n\nR1\n\n.quit_tabs\n\nafter")
	texts := res.Pages[0].Texts
	if len(texts) != 3 {
		t.Fatalf("got %d placements: %+v", len(texts), texts)
	}

	l1, r1, after := texts[0], texts[1], texts[2]
	approx(t, "left column x", l1.X, 72)
	approx(t, "left column y", l1.Y, 86.4)
	// the right column starts level with the left one
	approx(t, "right column y", r1.Y, 86.4)
	// right-aligned within a 200pt column indented 220pt; "R1" is 12pt
	approx(t, "right column x", r1.X, 72+220+200-12)
	// quitting resumes below the deepest column
	approx(t, "after tabs y", after.Y, 86.4+14.4+14.4)
	approx(t, "after tabs x", after.X, 72)
}

func TestBuildNextPreviousTab(t *testing.T) {
	res := build(t, tabConfig+".load_tabs[cols]\n\n.next_tab\n\nL\n\n.next_tab\n\nR\n\n.quit_tabs")
	texts := res.Pages[0].Texts
	approx(t, "first column x", texts[0].X, 72)
	approx(t, "second column y", texts[1].Y, texts[0].Y)
	if texts[1].X <= texts[0].X {
		t.Errorf("second column should sit right of the first: %+v", texts)
	}
}

func TestBuildTabErrors(t *testing.T) {
	err := buildErr(t, ".tab[left]")
	if !errors.Is(err, typeset.ErrNoTabsLoaded) {
		t.Fatalf("tab without load: got %v", err)
	}
	err = buildErr(t, ".load_tabs[nope]")
	if !errors.Is(err, typeset.ErrUndefinedTabList) {
		t.Fatalf("unknown list: got %v", err)
	}
	err = buildErr(t, tabConfig+".load_tabs[cols]\n\n.previous_tab")
	if !errors.Is(err, typeset.ErrTabOutOfRange) {
		t.Fatalf("previous before first: got %v", err)
	}
}

func TestBuildTabOverflowWarning(t *testing.T) {
	res := build(t, `.tab{.indent[100] .length[400]}[wide]
.tab_list{.tab[wide]}[w]
.start

.load_tabs[w]

.tab[wide]

x

.quit_tabs`)
	if len(res.Warnings) != 1 {
		t.Fatalf("got %d warnings: %+v", len(res.Warnings), res.Warnings)
	}
}

func TestBuildNoQuadTabDoesNotWrap(t *testing.T) {
	res := build(t, `.tab{.indent[0] .length[30] .quad[false]}[narrow]
.tab_list{.tab[narrow]}[n]
.start

.load_tabs[n]

.tab[narrow]

one two three four

.quit_tabs`)
	texts := res.Pages[0].Texts
	y := texts[0].Y
	for _, p := range texts {
		approx(t, "single baseline", p.Y, y)
	}
}

func TestBuildSpaceWidthOverride(t *testing.T) {
	res := build(t, ".space_width[20]\n\na b")
	texts := allTexts(res)
	approx(t, "widened gap", texts[1].X, 72+6+20)
}

func TestBuildMetricsErrorSurfaces(t *testing.T) {
	err := buildErr(t, ".family[missing]text")
	if err == nil {
		t.Fatal("expected error from metrics")
	}
}
