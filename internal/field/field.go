package field

import (
	"encoding/json"
	"fmt"
)

// Grid is the number of units in one layout row.
const Grid = 24

// Option is one choice of a select, radio or checkbox group.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Direction is the radio group layout.
type Direction string

const (
	DirectionRow    Direction = "row"
	DirectionColumn Direction = "column"
)

// Attrs is the type-specific payload of a field. Exactly one concrete payload
// applies per type; types without extra attributes carry none.
type Attrs interface {
	appliesTo(t Type) bool
}

// ChoiceAttrs belongs to select, multiple-select, radio and checkbox-group.
type ChoiceAttrs struct {
	Options   []Option
	Direction Direction // radio only
}

func (ChoiceAttrs) appliesTo(t Type) bool { return t.IsChoice() }

// NumericAttrs belongs to number and slider.
type NumericAttrs struct {
	Min  *float64
	Max  *float64
	Step *float64
}

func (NumericAttrs) appliesTo(t Type) bool { return t.IsNumeric() }

// TextAreaAttrs belongs to textarea.
type TextAreaAttrs struct {
	Rows int
}

func (TextAreaAttrs) appliesTo(t Type) bool { return t == TextArea }

// FileAttrs belongs to file.
type FileAttrs struct {
	Accept   string
	Multiple bool
}

func (FileAttrs) appliesTo(t Type) bool { return t == File }

// DisplayAttrs belongs to label and label-show.
type DisplayAttrs struct {
	Value string
}

func (DisplayAttrs) appliesTo(t Type) bool { return t == Label || t == LabelShow }

// DetailLayout controls the read-only detail view only.
type DetailLayout struct {
	DescSpan  int
	ValueSpan int
	Label     string
}

// Field is one atomic unit of a form definition.
type Field struct {
	ID          string
	Type        Type
	Name        string
	Label       string
	Placeholder string
	Description string
	Section     string
	GroupBorder string
	Span        int
	Required    bool
	Detail      DetailLayout
	Attrs       Attrs
}

// Float returns a pointer to v, for numeric bounds.
func Float(v float64) *float64 { return &v }

// Options returns the option list, or nil for non-choice types.
func (f Field) Options() []Option {
	if a, ok := f.Attrs.(ChoiceAttrs); ok && a.appliesTo(f.Type) {
		return a.Options
	}
	return nil
}

// Direction returns the radio layout, defaulting to column.
func (f Field) Direction() Direction {
	if a, ok := f.Attrs.(ChoiceAttrs); ok && f.Type == Radio && a.Direction != "" {
		return a.Direction
	}
	return DirectionColumn
}

// Numeric returns the numeric bounds; all nil for non-numeric types.
func (f Field) Numeric() NumericAttrs {
	if a, ok := f.Attrs.(NumericAttrs); ok && a.appliesTo(f.Type) {
		return a
	}
	return NumericAttrs{}
}

// Rows returns the textarea height, defaulting to 4.
func (f Field) Rows() int {
	if a, ok := f.Attrs.(TextAreaAttrs); ok && a.appliesTo(f.Type) && a.Rows > 0 {
		return a.Rows
	}
	return 4
}

// File returns the upload attributes.
func (f Field) File() FileAttrs {
	if a, ok := f.Attrs.(FileAttrs); ok && a.appliesTo(f.Type) {
		return a
	}
	return FileAttrs{}
}

// DisplayText is what a label or label-show badge shows: its value, else its label.
func (f Field) DisplayText() string {
	if a, ok := f.Attrs.(DisplayAttrs); ok && a.appliesTo(f.Type) && a.Value != "" {
		return a.Value
	}
	return f.Label
}

// Caption is the label, or the name when no label is set.
func (f Field) Caption() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// ColumnSpan returns the span clamped into [1, Grid].
func (f Field) ColumnSpan() int {
	return clampSpan(f.Span)
}

// Normalize drops an attribute payload that does not belong to the field type
// and clamps the span.
func (f Field) Normalize() Field {
	if f.Attrs != nil && !f.Attrs.appliesTo(f.Type) {
		f.Attrs = nil
	}
	f.Span = clampSpan(f.Span)
	return f
}

func clampSpan(span int) int {
	switch {
	case span <= 0:
		return Grid
	case span > Grid:
		return Grid
	}
	return span
}

// wireField is the flat JSON shape used by the builder and the generated pages.
type wireField struct {
	ID              string    `json:"id"`
	Type            Type      `json:"type"`
	Name            string    `json:"name"`
	Label           string    `json:"label,omitempty"`
	Placeholder     string    `json:"placeholder,omitempty"`
	Description     string    `json:"description,omitempty"`
	Section         string    `json:"section,omitempty"`
	GroupBorder     string    `json:"groupBorder,omitempty"`
	Span            int       `json:"span"`
	IsRequired      bool      `json:"isRequired"`
	Options         []Option  `json:"options,omitempty"`
	Min             *float64  `json:"min,omitempty"`
	Max             *float64  `json:"max,omitempty"`
	Step            *float64  `json:"step,omitempty"`
	Rows            int       `json:"rows,omitempty"`
	Accept          string    `json:"accept,omitempty"`
	Multiple        *bool     `json:"multiple,omitempty"`
	Direction       Direction `json:"direction,omitempty"`
	DetailDescSpan  int       `json:"detailDescSpan,omitempty"`
	DetailValueSpan int       `json:"detailValueSpan,omitempty"`
	DetailLabel     string    `json:"detailLabel,omitempty"`
	Value           string    `json:"value,omitempty"`
}

// MarshalJSON flattens the attribute payload into the builder's field shape.
func (f Field) MarshalJSON() ([]byte, error) {
	f = f.Normalize()
	w := wireField{
		ID:              f.ID,
		Type:            f.Type,
		Name:            f.Name,
		Label:           f.Label,
		Placeholder:     f.Placeholder,
		Description:     f.Description,
		Section:         f.Section,
		GroupBorder:     f.GroupBorder,
		Span:            f.Span,
		IsRequired:      f.Required,
		DetailDescSpan:  f.Detail.DescSpan,
		DetailValueSpan: f.Detail.ValueSpan,
		DetailLabel:     f.Detail.Label,
	}
	switch a := f.Attrs.(type) {
	case ChoiceAttrs:
		w.Options = a.Options
		if f.Type == Radio {
			w.Direction = a.Direction
		}
	case NumericAttrs:
		w.Min, w.Max, w.Step = a.Min, a.Max, a.Step
	case TextAreaAttrs:
		w.Rows = a.Rows
	case FileAttrs:
		multiple := a.Multiple
		w.Accept, w.Multiple = a.Accept, &multiple
	case DisplayAttrs:
		w.Value = a.Value
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the flat shape and keeps only the attributes that are
// meaningful for the decoded type.
func (f *Field) UnmarshalJSON(data []byte) error {
	var w wireField
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t, err := ParseType(string(w.Type))
	if err != nil {
		return fmt.Errorf("field %q: %w", w.Name, err)
	}
	*f = Field{
		ID:          w.ID,
		Type:        t,
		Name:        w.Name,
		Label:       w.Label,
		Placeholder: w.Placeholder,
		Description: w.Description,
		Section:     w.Section,
		GroupBorder: w.GroupBorder,
		Span:        clampSpan(w.Span),
		Required:    w.IsRequired,
		Detail: DetailLayout{
			DescSpan:  w.DetailDescSpan,
			ValueSpan: w.DetailValueSpan,
			Label:     w.DetailLabel,
		},
	}
	switch {
	case t.IsChoice():
		a := ChoiceAttrs{Options: w.Options}
		if t == Radio {
			a.Direction = w.Direction
		}
		f.Attrs = a
	case t.IsNumeric():
		f.Attrs = NumericAttrs{Min: w.Min, Max: w.Max, Step: w.Step}
	case t == TextArea:
		f.Attrs = TextAreaAttrs{Rows: w.Rows}
	case t == File:
		a := FileAttrs{Accept: w.Accept}
		if w.Multiple != nil {
			a.Multiple = *w.Multiple
		}
		f.Attrs = a
	case t == Label || t == LabelShow:
		f.Attrs = DisplayAttrs{Value: w.Value}
	}
	return nil
}
