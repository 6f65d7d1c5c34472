// Package preview renders a live form from a field list and the values typed
// into it so far, validates it with the synthesized schema, and hands valid
// submissions to a caller supplied handler.
package preview

import (
	"maps"
	"slices"

	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

// State is the input collected by a preview and the errors of the last submit.
type State struct {
	Input  map[string]any `json:"input"`
	Errors *schema.Errors `json:"errors,omitempty"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{Input: map[string]any{}}
}

// Set stores a value.
func (s *State) Set(name string, v any) {
	if s.Input == nil {
		s.Input = map[string]any{}
	}
	s.Input[name] = v
}

// Clear removes a value.
func (s *State) Clear(name string) {
	delete(s.Input, name)
}

// Value returns the current value of a field.
func (s *State) Value(name string) (any, bool) {
	v, ok := s.Input[name]
	return v, ok
}

// Values returns a copy of the collected input.
func (s *State) Values() map[string]any {
	return maps.Clone(s.Input)
}

// Toggle switches one option of a choice field. Multi-value fields keep a list
// in which the option is added at the end or removed, leaving the other
// entries in place. Single-value fields hold the chosen option as a string.
func (s *State) Toggle(f field.Field, value string, on bool) {
	if !f.Type.IsMultiValue() {
		cur, _ := s.Input[f.Name].(string)
		switch {
		case on:
			s.Set(f.Name, value)
		case cur == value:
			s.Clear(f.Name)
		}
		return
	}

	list := s.List(f.Name)
	i := slices.Index(list, value)
	switch {
	case on && i < 0:
		list = append(list, value)
	case !on && i >= 0:
		list = slices.Delete(list, i, i+1)
	}
	s.Set(f.Name, list)
}

// List returns the value of a multi-value field as a fresh string slice.
func (s *State) List(name string) []string {
	switch v := s.Input[name].(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return []string{}
}

// Error returns the message recorded for a field by the last submit.
func (s *State) Error(name string) (schema.FieldError, bool) {
	return s.Errors.Get(name)
}
