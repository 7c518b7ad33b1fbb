package typeset

import (
	"errors"
	"fmt"
)

var (
	// ErrUndefinedTab is returned when a tab name is not part of the
	// active list.
	ErrUndefinedTab = errors.New("tab not defined in the loaded list")
	// ErrUndefinedTabList is returned by Load for an unknown list name.
	ErrUndefinedTabList = errors.New("tab list not defined")
	// ErrNoTabsLoaded is returned when a tab command runs outside an
	// active environment.
	ErrNoTabsLoaded = errors.New("no tab list loaded")
	// ErrTabsActive is returned when load_tabs runs while an environment
	// is already active; environments do not nest.
	ErrTabsActive = errors.New("a tab list is already loaded")
	// ErrTabOutOfRange is returned when next_tab or previous_tab would
	// move past either end of the list.
	ErrTabOutOfRange = errors.New("tab cursor out of range")
)

// environment is one active tabular section: the resolved tabs of the
// loaded list, a cursor, and the state snapshot taken at load-time.
type environment struct {
	list   string
	tabs   []Tab
	cursor int // index into tabs, -1 before the first selection
	saved  map[Key][]Value
}

// Tabs stores the document's named tab definitions and tab lists, and
// tracks at most one active tab environment.
type Tabs struct {
	defs  map[string]Tab
	lists map[string][]string
	env   *environment
}

// NewTabs builds the subsystem from the definitions collected at parse
// time. The maps are read-only from here on.
func NewTabs(defs map[string]Tab, lists map[string][]string) *Tabs {
	return &Tabs{defs: defs, lists: lists}
}

// Load activates the named tab list. It snapshots the alignment and margin
// state so Quit can restore it exactly, and leaves the cursor unset.
func (t *Tabs) Load(list string, st *State) error {
	if t.env != nil {
		return fmt.Errorf("cannot load %q: %w", list, ErrTabsActive)
	}
	names, ok := t.lists[list]
	if !ok {
		return fmt.Errorf("%q: %w", list, ErrUndefinedTabList)
	}
	tabs := make([]Tab, 0, len(names))
	for _, name := range names {
		def, ok := t.defs[name]
		if !ok {
			return fmt.Errorf("%q in list %q: %w", name, list, ErrUndefinedTab)
		}
		tabs = append(tabs, def)
	}
	keys := append([]Key{KeyAlign}, MarginKeys...)
	t.env = &environment{
		list:   list,
		tabs:   tabs,
		cursor: -1,
		saved:  st.Snapshot(keys...),
	}
	return nil
}

// Select moves the cursor to the named tab of the active list.
func (t *Tabs) Select(name string) (Tab, error) {
	if t.env == nil {
		return Tab{}, fmt.Errorf("tab %q: %w", name, ErrNoTabsLoaded)
	}
	for i, tab := range t.env.tabs {
		if tab.Name == name {
			t.env.cursor = i
			return tab, nil
		}
	}
	return Tab{}, fmt.Errorf("%q in list %q: %w", name, t.env.list, ErrUndefinedTab)
}

// Next advances the cursor by one position. Moving past the last tab fails
// and leaves the environment unchanged.
func (t *Tabs) Next() (Tab, error) {
	return t.step(1)
}

// Previous retreats the cursor by one position. Moving before the first tab
// fails and leaves the environment unchanged.
func (t *Tabs) Previous() (Tab, error) {
	return t.step(-1)
}

func (t *Tabs) step(delta int) (Tab, error) {
	if t.env == nil {
		return Tab{}, ErrNoTabsLoaded
	}
	next := t.env.cursor + delta
	if next < 0 || next >= len(t.env.tabs) {
		return Tab{}, fmt.Errorf("position %d of list %q: %w", next+1, t.env.list, ErrTabOutOfRange)
	}
	t.env.cursor = next
	return t.env.tabs[next], nil
}

// Current returns the tab under the cursor, if one has been selected.
func (t *Tabs) Current() (Tab, bool) {
	if t.env == nil || t.env.cursor < 0 {
		return Tab{}, false
	}
	return t.env.tabs[t.env.cursor], true
}

// Active reports whether a tab environment is loaded.
func (t *Tabs) Active() bool { return t.env != nil }

// Quit discards the active environment and restores the alignment and
// margin state captured by Load.
func (t *Tabs) Quit(st *State) error {
	if t.env == nil {
		return ErrNoTabsLoaded
	}
	st.Restore(t.env.saved)
	t.env = nil
	return nil
}
