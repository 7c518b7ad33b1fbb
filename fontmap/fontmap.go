// Package fontmap resolves abstract family names and styles to concrete
// font files. The mapping lives in a YAML file next to the document:
//
//	families:
//	  default:
//	    roman: fonts/Regular.ttf
//	    bold: fonts/Bold.ttf
//	    italic: fonts/Italic.ttf
//	    bold_italic: fonts/BoldItalic.ttf
//
// Font paths are resolved relative to the map file. A family may omit
// styles; requesting an omitted style is an error, not a silent fallback.
package fontmap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tdewolff/canvas"
	"gopkg.in/yaml.v3"

	"github.com/burrodoc/burro/layout"
	"github.com/burrodoc/burro/typeset"
	"github.com/burrodoc/burro/units"
)

// MapFileName is the font map looked for next to a document when no map
// path is given explicitly.
const MapFileName = "burro.yml"

var (
	ErrUnknownFamily = errors.New("font family not in the font map")
	ErrMissingStyle  = errors.New("font style not provided by the family")
)

type mapFile struct {
	Families map[string]styleFiles `yaml:"families"`
}

type styleFiles struct {
	Roman      string `yaml:"roman"`
	Bold       string `yaml:"bold"`
	Italic     string `yaml:"italic"`
	BoldItalic string `yaml:"bold_italic"`
}

// Map holds the loaded font families and caches the faces cut from them.
type Map struct {
	mu       sync.Mutex
	families map[string]*familyEntry
	faces    map[faceKey]*canvas.FontFace
}

var _ layout.Metrics = (*Map)(nil)

type familyEntry struct {
	family *canvas.FontFamily
	styles map[typeset.FontStyle]bool
}

type faceKey struct {
	family string
	style  typeset.FontStyle
	size   float64
}

// Load reads a font map file and loads every declared font.
func Load(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("font map: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var mf mapFile
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("font map %s: %w", path, err)
	}
	if len(mf.Families) == 0 {
		return nil, fmt.Errorf("font map %s: no families defined", path)
	}

	dir := filepath.Dir(path)
	m := &Map{
		families: make(map[string]*familyEntry, len(mf.Families)),
		faces:    map[faceKey]*canvas.FontFace{},
	}
	for name, files := range mf.Families {
		entry := &familyEntry{
			family: canvas.NewFontFamily(name),
			styles: map[typeset.FontStyle]bool{},
		}
		for style, file := range map[typeset.FontStyle]string{
			typeset.StyleRoman:      files.Roman,
			typeset.StyleBold:       files.Bold,
			typeset.StyleItalic:     files.Italic,
			typeset.StyleBoldItalic: files.BoldItalic,
		} {
			if file == "" {
				continue
			}
			fontPath := file
			if !filepath.IsAbs(fontPath) {
				fontPath = filepath.Join(dir, fontPath)
			}
			data, err := os.ReadFile(fontPath)
			if err != nil {
				return nil, fmt.Errorf("font map %s: family %q: %w", path, name, err)
			}
			if err := entry.family.LoadFont(data, 0, canvasStyle(style)); err != nil {
				return nil, fmt.Errorf("font map %s: family %q: loading %s: %w", path, name, file, err)
			}
			entry.styles[style] = true
		}
		if len(entry.styles) == 0 {
			return nil, fmt.Errorf("font map %s: family %q declares no styles", path, name)
		}
		m.families[name] = entry
	}
	return m, nil
}

// Discover returns the path of the conventional font map sitting next to
// the document, or "" when there is none.
func Discover(docPath string) string {
	path := filepath.Join(filepath.Dir(docPath), MapFileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Face cuts a font face at the given size in points, caching the result.
func (m *Map) Face(family string, style typeset.FontStyle, size float64) (*canvas.FontFace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := faceKey{family: family, style: style, size: size}
	if face, ok := m.faces[key]; ok {
		return face, nil
	}

	entry, ok := m.families[family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	if !entry.styles[style] {
		return nil, fmt.Errorf("%w: %q has no %s", ErrMissingStyle, family, style)
	}
	face := entry.family.Face(size, canvas.Black, canvasStyle(style), canvas.FontNormal)
	m.faces[key] = face
	return face, nil
}

// Advance measures text in points. The canvas face reports widths in
// millimeters, so the value converts at the package boundary.
func (m *Map) Advance(family string, style typeset.FontStyle, size float64, text string) (float64, error) {
	face, err := m.Face(family, style, size)
	if err != nil {
		return 0, err
	}
	return face.TextWidth(text) / units.MMPerPt, nil
}

func canvasStyle(style typeset.FontStyle) canvas.FontStyle {
	switch style {
	case typeset.StyleBold:
		return canvas.FontBold
	case typeset.StyleItalic:
		return canvas.FontItalic
	case typeset.StyleBoldItalic:
		return canvas.FontBold | canvas.FontItalic
	default:
		return canvas.FontRegular
	}
}
