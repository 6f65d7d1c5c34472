// Package schema derives the validation schema of a form from its fields.
//
// KindOf is the only mapping from field type to rule kind. The preview, the
// HTTP API and the script generator all go through it, so the rules checked
// live and the rules embedded in generated pages cannot drift apart.
package schema

import (
	"github.com/matthewbaird/formbuilder/internal/field"
)

// Kind is the base shape a value must have.
type Kind string

const (
	KindString     Kind = "string"
	KindEmail      Kind = "email"
	KindNumber     Kind = "number"
	KindBoolean    Kind = "boolean"
	KindDate       Kind = "date"
	KindStringList Kind = "string_list"
)

// KindOf maps a field type to its rule kind. It reports false for the
// structural types, which never take part in validation. Slider values are
// strings; their bounds live on the control only.
func KindOf(t field.Type) (Kind, bool) {
	switch t {
	case field.Section, field.Label, field.LabelShow:
		return "", false
	case field.Number:
		return KindNumber, true
	case field.Email:
		return KindEmail, true
	case field.Checkbox, field.Switch:
		return KindBoolean, true
	case field.Date, field.DateTime, field.Time:
		return KindDate, true
	case field.MultiSelect, field.CheckboxGroup:
		return KindStringList, true
	}
	return KindString, true
}

// stringLike reports whether an empty string counts as a missing value.
func (k Kind) stringLike() bool {
	return k == KindString || k == KindEmail || k == KindDate
}

// Rule is the constraint for one field.
type Rule struct {
	Field    string     `json:"field"`
	Label    string     `json:"label,omitempty"`
	Type     field.Type `json:"type"`
	Kind     Kind       `json:"kind"`
	Required bool       `json:"required"`
	Min      *float64   `json:"min,omitempty"`
	Max      *float64   `json:"max,omitempty"`
}

// caption is the name used in messages.
func (r Rule) caption() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Field
}

// Schema is the ordered rule set of a form.
type Schema struct {
	Rules []Rule `json:"rules"`
	index map[string]int
}

// Synthesize builds the schema for fields. It never fails. Structural fields
// are skipped. When names repeat, the last rule wins but keeps the position of
// the first one; callers run Definition.Check to reject that beforehand.
func Synthesize(fields []field.Field) *Schema {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		kind, ok := KindOf(f.Type)
		if !ok {
			continue
		}
		r := Rule{
			Field:    f.Name,
			Label:    f.Label,
			Type:     f.Type,
			Kind:     kind,
			Required: f.Required,
		}
		if kind == KindNumber {
			n := f.Numeric()
			r.Min, r.Max = n.Min, n.Max
		}
		if i, dup := s.index[f.Name]; dup {
			s.Rules[i] = r
			continue
		}
		s.index[f.Name] = len(s.Rules)
		s.Rules = append(s.Rules, r)
	}
	return s
}

// Lookup returns the rule for a field name.
func (s *Schema) Lookup(name string) (Rule, bool) {
	if s.index == nil {
		for _, r := range s.Rules {
			if r.Field == name {
				return r, true
			}
		}
		return Rule{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Rule{}, false
	}
	return s.Rules[i], true
}

// Names returns the rule keys in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Rules))
	for i, r := range s.Rules {
		out[i] = r.Field
	}
	return out
}

// Required returns the names of the required rules in order.
func (s *Schema) Required() []string {
	var out []string
	for _, r := range s.Rules {
		if r.Required {
			out = append(out, r.Field)
		}
	}
	return out
}
