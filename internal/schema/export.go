package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matthewbaird/formbuilder/internal/field"
)

// Property is one entry of the JSON Schema export.
type Property struct {
	Type      string    `json:"type"`
	Title     string    `json:"title,omitempty"`
	Format    string    `json:"format,omitempty"`
	Items     *Property `json:"items,omitempty"`
	Minimum   *float64  `json:"minimum,omitempty"`
	Maximum   *float64  `json:"maximum,omitempty"`
	MinLength *int      `json:"minLength,omitempty"`
}

// Document is the JSON Schema export of a form.
type Document struct {
	Schema     string              `json:"$schema"`
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// JSONSchema exports the rules as a JSON Schema object.
func (s *Schema) JSONSchema() Document {
	doc := Document{
		Schema:     "https://json-schema.org/draft/2020-12/schema",
		Type:       "object",
		Properties: make(map[string]Property, len(s.Rules)),
		Required:   s.Required(),
	}
	for _, r := range s.Rules {
		p := Property{Title: r.Label}
		switch r.Kind {
		case KindNumber:
			p.Type = "number"
			p.Minimum, p.Maximum = r.Min, r.Max
		case KindEmail:
			p.Type, p.Format = "string", "email"
		case KindBoolean:
			p.Type = "boolean"
		case KindDate:
			p.Type = "string"
			switch r.Type {
			case field.Time:
				p.Format = "time"
			case field.Date:
				p.Format = "date"
			default:
				p.Format = "date-time"
			}
		case KindStringList:
			p.Type = "array"
			p.Items = &Property{Type: "string"}
		default:
			p.Type = "string"
		}
		if r.Required && r.Kind.stringLike() {
			one := 1
			p.MinLength = &one
		}
		doc.Properties[r.Field] = p
	}
	return doc
}

// ZodProperty is one key of the generated zod object.
type ZodProperty struct {
	Name string
	Expr string
}

// Zod returns the zod expression of every rule, in rule order. The
// expressions encode the same required, range and format checks as Validate.
func (s *Schema) Zod() []ZodProperty {
	out := make([]ZodProperty, len(s.Rules))
	for i, r := range s.Rules {
		out[i] = ZodProperty{Name: r.Field, Expr: r.Zod()}
	}
	return out
}

// Zod returns the zod expression of a single rule.
func (r Rule) Zod() string {
	var b strings.Builder
	switch r.Kind {
	case KindNumber:
		b.WriteString("z.coerce.number()")
		if r.Min != nil {
			fmt.Fprintf(&b, ".min(%s, %s)", formatFloat(*r.Min), jsQuote(fmt.Sprintf("%s must be at least %s", r.caption(), formatFloat(*r.Min))))
		}
		if r.Max != nil {
			fmt.Fprintf(&b, ".max(%s, %s)", formatFloat(*r.Max), jsQuote(fmt.Sprintf("%s must be at most %s", r.caption(), formatFloat(*r.Max))))
		}
	case KindBoolean:
		b.WriteString("z.boolean()")
	case KindStringList:
		b.WriteString("z.array(z.string())")
	default:
		b.WriteString("z.string()")
		if r.Required {
			fmt.Fprintf(&b, ".min(1, %s)", jsQuote(r.caption()+" is required"))
		}
		switch r.Kind {
		case KindEmail:
			b.WriteString(`.email("Invalid email address")`)
		case KindDate:
			fmt.Fprintf(&b, ".regex(/%s/, %s)", datePattern, jsQuote(r.caption()+" must be a date or time"))
		}
	}

	switch {
	case r.Required:
	case r.Kind.stringLike():
		// Empty inputs submit "" and count as missing.
		b.WriteString(`.optional().or(z.literal(""))`)
	default:
		b.WriteString(".optional()")
	}
	return b.String()
}

// jsQuote renders s as a double-quoted JavaScript string literal.
func jsQuote(s string) string {
	out, _ := json.Marshal(s)
	return string(out)
}
