// Package field defines the form field model: the closed set of field types,
// the per-type attribute payloads, and the form definition aggregate that the
// builder edits and the generators consume.
package field

import (
	"errors"
	"fmt"
)

// ErrUnknownType is returned when a type tag is not one of the known field types.
var ErrUnknownType = errors.New("unknown field type")

// Type is the tag of a field. It decides which attribute payload is meaningful
// and which validation rule applies.
type Type string

const (
	Text          Type = "text"
	Number        Type = "number"
	Email         Type = "email"
	TextArea      Type = "textarea"
	Select        Type = "select"
	MultiSelect   Type = "multiple-select"
	Radio         Type = "radio"
	Checkbox      Type = "checkbox"
	CheckboxGroup Type = "checkbox-group"
	Date          Type = "date"
	DateTime      Type = "datetime"
	Time          Type = "time"
	File          Type = "file"
	Switch        Type = "switch"
	Slider        Type = "slider"
	Label         Type = "label"
	LabelShow     Type = "label-show"
	Section       Type = "section"
	Sign          Type = "sign"
	Hidden        Type = "hidden"
)

// TypeInfo is a palette entry shown by the builder.
type TypeInfo struct {
	Type  Type   `json:"type"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// palette lists every type in the order the builder offers them.
var palette = []TypeInfo{
	{Section, "Section Header", "📑"},
	{Text, "Text Input", "📝"},
	{Number, "Number Input", "🔢"},
	{Email, "Email Input", "📧"},
	{TextArea, "Text Area", "📄"},
	{Select, "Select", "📋"},
	{MultiSelect, "Multiple Select", "☑️"},
	{Radio, "Radio Group", "🔘"},
	{Checkbox, "Checkbox", "✅"},
	{CheckboxGroup, "Checkbox Group", "☑️"},
	{Date, "Date Picker", "📅"},
	{DateTime, "Date Time Picker", "🕐"},
	{Time, "Time Picker", "⏰"},
	{File, "File Upload", "📁"},
	{Switch, "Switch", "🔀"},
	{Slider, "Slider", "🎚️"},
	{Label, "Label", "🏷️"},
	{LabelShow, "Label Display", "👁️"},
	{Sign, "Digital Signature", "✍️"},
	{Hidden, "Hidden Field", "🔒"},
}

// Palette returns the builder palette in display order.
func Palette() []TypeInfo {
	out := make([]TypeInfo, len(palette))
	copy(out, palette)
	return out
}

// Types returns every known type in palette order.
func Types() []Type {
	out := make([]Type, len(palette))
	for i, p := range palette {
		out[i] = p.Type
	}
	return out
}

// ParseType validates a raw type tag.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	for _, p := range palette {
		if p.Type == t {
			return true
		}
	}
	return false
}

// IsChoice reports whether the type carries an option list.
func (t Type) IsChoice() bool {
	switch t {
	case Select, MultiSelect, Radio, CheckboxGroup:
		return true
	}
	return false
}

// IsMultiValue reports whether the type stores a list of option values.
func (t Type) IsMultiValue() bool {
	return t == MultiSelect || t == CheckboxGroup
}

// IsNumeric reports whether min/max/step apply.
func (t Type) IsNumeric() bool {
	return t == Number || t == Slider
}

// IsStructural reports whether the type is display-only and never part of
// the validation schema or the submitted object.
func (t Type) IsStructural() bool {
	switch t {
	case Section, Label, LabelShow:
		return true
	}
	return false
}

// IsDisplayExcluded reports whether the type is skipped when list columns
// are derived automatically.
func (t Type) IsDisplayExcluded() bool {
	switch t {
	case Section, Label, Hidden:
		return true
	}
	return false
}
