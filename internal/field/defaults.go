package field

import (
	"strings"

	"github.com/google/uuid"
)

// NewDefault creates a field of type t with a fresh id and the builder defaults.
func NewDefault(t Type) Field {
	return NewDefaultWithID(t, uuid.NewString())
}

// NewDefaultWithID is NewDefault with a caller-supplied id.
func NewDefaultWithID(t Type, id string) Field {
	prefix := id
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	f := Field{
		ID:       id,
		Type:     t,
		Name:     string(t) + "_" + prefix,
		Label:    capitalize(string(t)) + " Field",
		Span:     Grid,
		Required: true,
	}

	switch {
	case t.IsChoice():
		a := ChoiceAttrs{Options: []Option{
			{Label: "Option 1", Value: "option1"},
			{Label: "Option 2", Value: "option2"},
			{Label: "Option 3", Value: "option3"},
		}}
		if t == Radio {
			a.Direction = DirectionColumn
		}
		f.Attrs = a
	case t == TextArea:
		f.Attrs = TextAreaAttrs{Rows: 4}
	case t.IsNumeric():
		f.Attrs = NumericAttrs{Min: Float(0), Max: Float(100), Step: Float(1)}
	case t == File:
		f.Attrs = FileAttrs{Accept: "*", Multiple: false}
	case t == LabelShow:
		f.Attrs = DisplayAttrs{Value: "Label text"}
	case t == Label:
		f.Attrs = DisplayAttrs{}
	}

	if t == Section {
		f.Label = "Section Title"
		f.Required = false
	}
	return f
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
