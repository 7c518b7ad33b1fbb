package fontmap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/burrodoc/burro/fontmap"
)

func writeMap(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, fontmap.MapFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing map: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := fontmap.Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for a missing map file")
	}
}

func TestLoadEmptyMap(t *testing.T) {
	path := writeMap(t, t.TempDir(), "families: {}\n")
	if _, err := fontmap.Load(path); err == nil {
		t.Fatal("expected error for a map with no families")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeMap(t, t.TempDir(), "fammilies:\n  default:\n    roman: a.ttf\n")
	if _, err := fontmap.Load(path); err == nil {
		t.Fatal("expected error for a misspelled top-level key")
	}
}

func TestLoadMissingFontFile(t *testing.T) {
	path := writeMap(t, t.TempDir(), "families:\n  default:\n    roman: nosuch.ttf\n")
	if _, err := fontmap.Load(path); err == nil {
		t.Fatal("expected error for an unreadable font file")
	}
}

func TestLoadFamilyWithoutStyles(t *testing.T) {
	path := writeMap(t, t.TempDir(), "families:\n  default: {}\n")
	if _, err := fontmap.Load(path); err == nil {
		t.Fatal("expected error for a family declaring no styles")
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.bur")

	if got := fontmap.Discover(doc); got != "" {
		t.Fatalf("discover without a map: got %q", got)
	}

	want := writeMap(t, dir, "families:\n")
	if got := fontmap.Discover(doc); got != want {
		t.Fatalf("discover: got %q, want %q", got, want)
	}
}
