package typeset

import (
	"errors"
	"fmt"
)

// Key names a typesetting setting.
type Key string

const (
	KeyMarginTop    Key = "margin_top"
	KeyMarginBottom Key = "margin_bottom"
	KeyMarginLeft   Key = "margin_left"
	KeyMarginRight  Key = "margin_right"
	KeyPtSize       Key = "pt_size"
	KeyLeading      Key = "leading"
	KeyParSpace     Key = "par_space"
	KeyParIndent    Key = "par_indent"
	KeySpaceWidth   Key = "space_width"
	KeyAlign        Key = "align"
	KeyFamily       Key = "family"
	KeyFont         Key = "font"
)

// MarginKeys lists the per-side margin settings in top/right/bottom/left
// order.
var MarginKeys = []Key{KeyMarginTop, KeyMarginRight, KeyMarginBottom, KeyMarginLeft}

// ErrEmptyReset is returned when a reset would pop a setting's sole
// remaining value.
var ErrEmptyReset = errors.New("reset without any previous value")

// Value is the union of setting value shapes. Each key uses exactly one
// field: lengths use Pts, alignment Align, family names Str, and font
// styles Style. Auto marks a derived default (leading and paragraph spacing
// track the point size until set explicitly).
type Value struct {
	Pts   float64
	Align Alignment
	Str   string
	Style FontStyle
	Auto  bool
}

// Points builds a length value.
func Points(pts float64) Value { return Value{Pts: pts} }

// State maps each setting key to a non-empty stack of values. Commands push
// new values; the literal "-" argument pops. The stack discipline is
// deliberate: resets are placed by the author independent of any syntactic
// nesting, so scoping cannot be tied to the tree structure.
type State struct {
	stacks map[Key][]Value
}

// NewState seeds every key's stack with its default value.
func NewState(defaults map[Key]Value) *State {
	stacks := make(map[Key][]Value, len(defaults))
	for key, val := range defaults {
		stacks[key] = []Value{val}
	}
	return &State{stacks: stacks}
}

// Push makes v the current value for key.
func (s *State) Push(key Key, v Value) {
	s.stacks[key] = append(s.stacks[key], v)
}

// Pop restores key's previous value. Popping the documented default is an
// error.
func (s *State) Pop(key Key) error {
	stack := s.stacks[key]
	if len(stack) <= 1 {
		return fmt.Errorf("%q: %w", key, ErrEmptyReset)
	}
	s.stacks[key] = stack[:len(stack)-1]
	return nil
}

// Get returns the current value for key.
func (s *State) Get(key Key) Value {
	stack := s.stacks[key]
	if len(stack) == 0 {
		return Value{}
	}
	return stack[len(stack)-1]
}

// Snapshot deep-copies the stacks of the given keys.
func (s *State) Snapshot(keys ...Key) map[Key][]Value {
	saved := make(map[Key][]Value, len(keys))
	for _, key := range keys {
		stack := s.stacks[key]
		saved[key] = append([]Value(nil), stack...)
	}
	return saved
}

// Restore replaces the affected stacks with a snapshot taken earlier.
func (s *State) Restore(saved map[Key][]Value) {
	for key, stack := range saved {
		s.stacks[key] = append([]Value(nil), stack...)
	}
}
