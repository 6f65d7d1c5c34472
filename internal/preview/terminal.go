package preview

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/layout"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

// binding copies one huh value back into the state after the form ran.
type binding func(state *State) error

// TerminalForm builds a huh form for the fields, prefilled from state. Each
// section and each group box becomes one form page. The returned function
// writes the answers back into state.
func TerminalForm(fields []field.Field, state *State) (*huh.Form, func() error, error) {
	if state == nil {
		return nil, nil, errors.New("terminal form: nil state")
	}
	s := schema.Synthesize(fields)

	var (
		groups   []*huh.Group
		bindings []binding
	)
	addGroup := func(title string, fs []field.Field) {
		var hf []huh.Field
		for _, f := range fs {
			item, b := terminalField(f, control(f, state), s, state)
			if item == nil {
				continue
			}
			hf = append(hf, item)
			if b != nil {
				bindings = append(bindings, b)
			}
		}
		if len(hf) == 0 {
			return
		}
		g := huh.NewGroup(hf...)
		if title != "" {
			g = g.Title(title)
		}
		groups = append(groups, g)
	}

	// Fields are paired with their controls by position, so duplicate or
	// missing ids still bind each control to its own field.
	for _, sec := range layout.Partition(fields) {
		addGroup(sec.Title(), sec.Ungrouped)
		for _, g := range sec.Groups {
			title := g.Name
			if sec.Title() != "" {
				title = sec.Title() + " / " + g.Name
			}
			addGroup(title, g.Fields)
		}
	}
	if len(groups) == 0 {
		return nil, nil, errors.New("terminal form: no fields to show")
	}

	form := huh.NewForm(groups...).WithShowHelp(true)
	apply := func() error {
		for _, b := range bindings {
			if err := b(state); err != nil {
				return err
			}
		}
		return nil
	}
	return form, apply, nil
}

func terminalField(f field.Field, c Control, s *schema.Schema, state *State) (huh.Field, binding) {
	title := c.Label
	if c.Required {
		title += " *"
	}

	if c.Kind != KindInput {
		return huh.NewNote().Title(c.Label), nil
	}

	rule, _ := s.Lookup(f.Name)
	name := f.Name

	switch f.Type {
	case field.Checkbox, field.Switch:
		val, _ := c.Value.(bool)
		confirm := huh.NewConfirm().
			Title(title).
			Description(c.Description).
			Value(&val)
		return confirm, func(st *State) error { st.Set(name, val); return nil }

	case field.Select, field.Radio:
		val, _ := c.Value.(string)
		sel := huh.NewSelect[string]().
			Title(title).
			Description(c.Description).
			Options(huhOptions(f.Options())...).
			Value(&val)
		return sel, func(st *State) error { setString(st, name, val); return nil }

	case field.MultiSelect, field.CheckboxGroup:
		val := state.List(name)
		multi := huh.NewMultiSelect[string]().
			Title(title).
			Description(c.Description).
			Options(huhOptions(f.Options())...).
			Value(&val)
		return multi, func(st *State) error { st.Set(name, val); return nil }

	case field.TextArea:
		val, _ := c.Value.(string)
		text := huh.NewText().
			Title(title).
			Description(c.Description).
			Placeholder(c.Placeholder).
			Lines(f.Rows()).
			Validate(stringCheck(rule)).
			Value(&val)
		return text, func(st *State) error { setString(st, name, val); return nil }

	case field.Number:
		val := ""
		if c.Value != nil {
			val = fmt.Sprint(c.Value)
		}
		input := huh.NewInput().
			Title(title).
			Description(c.Description).
			Placeholder(c.Placeholder).
			Validate(numberCheck(rule)).
			Value(&val)
		return input, func(st *State) error {
			val = strings.TrimSpace(val)
			if val == "" {
				st.Clear(name)
				return nil
			}
			n, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			st.Set(name, n)
			return nil
		}
	}

	val, _ := c.Value.(string)
	input := huh.NewInput().
		Title(title).
		Description(c.Description).
		Placeholder(c.Placeholder).
		Validate(stringCheck(rule)).
		Value(&val)
	return input, func(st *State) error { setString(st, name, val); return nil }
}

func setString(st *State, name, val string) {
	if val == "" {
		st.Clear(name)
		return
	}
	st.Set(name, val)
}

func huhOptions(opts []field.Option) []huh.Option[string] {
	out := make([]huh.Option[string], len(opts))
	for i, o := range opts {
		out[i] = huh.NewOption(o.Label, o.Value)
	}
	return out
}

func stringCheck(r schema.Rule) func(string) error {
	return func(s string) error {
		if fe := r.Check(s, s != ""); fe != nil {
			return errors.New(fe.Message)
		}
		return nil
	}
}

func numberCheck(r schema.Rule) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if fe := r.Check(nil, false); fe != nil {
				return errors.New(fe.Message)
			}
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%s must be a number", r.Field)
		}
		if fe := r.Check(n, true); fe != nil {
			return errors.New(fe.Message)
		}
		return nil
	}
}
