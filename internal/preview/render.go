package preview

import (
	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/layout"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

// ControlKind separates inputs from display-only controls.
type ControlKind string

const (
	KindInput   ControlKind = "input"
	KindHeading ControlKind = "heading"
	KindBadge   ControlKind = "badge"
)

// Widget is the input control used for a field type.
type Widget string

const (
	WidgetText          Widget = "text"
	WidgetNumber        Widget = "number"
	WidgetEmail         Widget = "email"
	WidgetTextArea      Widget = "textarea"
	WidgetSelect        Widget = "select"
	WidgetMultiSelect   Widget = "multi_select"
	WidgetRadio         Widget = "radio"
	WidgetCheckbox      Widget = "checkbox"
	WidgetCheckboxGroup Widget = "checkbox_group"
	WidgetDate          Widget = "date"
	WidgetDateTime      Widget = "datetime"
	WidgetTime          Widget = "time"
	WidgetFile          Widget = "file"
	WidgetSwitch        Widget = "switch"
	WidgetSlider        Widget = "slider"
	WidgetHidden        Widget = "hidden"
	WidgetSignature     Widget = "signature"
)

var widgets = map[field.Type]Widget{
	field.Text:          WidgetText,
	field.Number:        WidgetNumber,
	field.Email:         WidgetEmail,
	field.TextArea:      WidgetTextArea,
	field.Select:        WidgetSelect,
	field.MultiSelect:   WidgetMultiSelect,
	field.Radio:         WidgetRadio,
	field.Checkbox:      WidgetCheckbox,
	field.CheckboxGroup: WidgetCheckboxGroup,
	field.Date:          WidgetDate,
	field.DateTime:      WidgetDateTime,
	field.Time:          WidgetTime,
	field.File:          WidgetFile,
	field.Switch:        WidgetSwitch,
	field.Slider:        WidgetSlider,
	field.Hidden:        WidgetHidden,
	field.Sign:          WidgetSignature,
}

// WidgetOf returns the widget of an input field type.
func WidgetOf(t field.Type) (Widget, bool) {
	w, ok := widgets[t]
	return w, ok
}

// OptionView is one option of a choice control.
type OptionView struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// Control is one rendered field.
type Control struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Kind        ControlKind      `json:"kind"`
	Widget      Widget           `json:"widget,omitempty"`
	Label       string           `json:"label"`
	Required    bool             `json:"required,omitempty"`
	Placeholder string           `json:"placeholder,omitempty"`
	Description string           `json:"description,omitempty"`
	Span        int              `json:"span"`
	Options     []OptionView     `json:"options,omitempty"`
	Direction   field.Direction  `json:"direction,omitempty"`
	Min         *float64         `json:"min,omitempty"`
	Max         *float64         `json:"max,omitempty"`
	Step        *float64         `json:"step,omitempty"`
	Rows        int              `json:"rows,omitempty"`
	Accept      string           `json:"accept,omitempty"`
	Multiple    bool             `json:"multiple,omitempty"`
	Value       any              `json:"value,omitempty"`
	Error       string           `json:"error,omitempty"`
	ErrorKind   schema.ErrorKind `json:"errorKind,omitempty"`
}

// GroupView is a boxed group of controls.
type GroupView struct {
	Name     string    `json:"name"`
	Controls []Control `json:"controls"`
}

// SectionView is a section of the rendered form.
type SectionView struct {
	Key      string      `json:"key"`
	Title    string      `json:"title,omitempty"`
	Controls []Control   `json:"controls"`
	Groups   []GroupView `json:"groups,omitempty"`
}

// View is the rendered form.
type View struct {
	Sections []SectionView `json:"sections"`
}

// Controls returns every control in display order.
func (v View) Controls() []Control {
	var out []Control
	for _, s := range v.Sections {
		out = append(out, s.Controls...)
		for _, g := range s.Groups {
			out = append(out, g.Controls...)
		}
	}
	return out
}

// Render lays out the fields with the current state. It does not modify state.
func Render(fields []field.Field, state *State) View {
	if state == nil {
		state = NewState()
	}
	sections := layout.Partition(fields)
	view := View{Sections: make([]SectionView, 0, len(sections))}
	for _, s := range sections {
		sv := SectionView{
			Key:      s.Key,
			Title:    s.Title(),
			Controls: make([]Control, 0, len(s.Ungrouped)),
		}
		for _, f := range s.Ungrouped {
			sv.Controls = append(sv.Controls, control(f, state))
		}
		for _, g := range s.Groups {
			gv := GroupView{Name: g.Name}
			for _, f := range g.Fields {
				gv.Controls = append(gv.Controls, control(f, state))
			}
			sv.Groups = append(sv.Groups, gv)
		}
		view.Sections = append(view.Sections, sv)
	}
	return view
}

func control(f field.Field, state *State) Control {
	c := Control{
		ID:   f.ID,
		Name: f.Name,
		Span: f.ColumnSpan(),
	}
	switch f.Type {
	case field.Section:
		c.Kind, c.Label = KindHeading, f.Label
		return c
	case field.Label, field.LabelShow:
		c.Kind, c.Label = KindBadge, f.DisplayText()
		return c
	}

	c.Kind = KindInput
	c.Widget, _ = WidgetOf(f.Type)
	c.Label = f.Caption()
	c.Required = f.Required
	c.Placeholder = f.Placeholder
	c.Description = f.Description

	value, hasValue := state.Value(f.Name)
	if hasValue {
		c.Value = value
	}

	if f.Type.IsChoice() {
		selected := map[string]bool{}
		if f.Type.IsMultiValue() {
			for _, v := range state.List(f.Name) {
				selected[v] = true
			}
		} else if s, ok := value.(string); ok {
			selected[s] = true
		}
		for _, o := range f.Options() {
			c.Options = append(c.Options, OptionView{Label: o.Label, Value: o.Value, Selected: selected[o.Value]})
		}
		if f.Type == field.Radio {
			c.Direction = f.Direction()
		}
	}

	if f.Type.IsNumeric() {
		n := f.Numeric()
		c.Min, c.Max, c.Step = n.Min, n.Max, n.Step
	}
	if f.Type == field.TextArea {
		c.Rows = f.Rows()
	}
	if f.Type == field.File {
		fa := f.File()
		c.Accept, c.Multiple = fa.Accept, fa.Multiple
	}

	if fe, ok := state.Error(f.Name); ok {
		c.Error, c.ErrorKind = fe.Message, fe.Kind
	}
	return c
}
