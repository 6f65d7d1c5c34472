package field

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFieldNotFound   = errors.New("field not found")
	ErrEmptyModuleName = errors.New("module name is required")
	ErrNoFields        = errors.New("at least one field is required")
	ErrEmptyFieldName  = errors.New("field name is required")
)

// DuplicateNameError reports fields that share a name.
type DuplicateNameError struct {
	Name string
	IDs  []string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("field name %q is used by %d fields", e.Name, len(e.IDs))
}

// Definition is the form being built and the export target of the generator.
type Definition struct {
	ID          string    `json:"id,omitempty"`
	ModuleName  string    `json:"moduleName"`
	Endpoint    string    `json:"endpoint,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Fields      []Field   `json:"fields"`
	ListFields  []string  `json:"listFields"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

// Clone returns a copy whose slices can be edited independently.
func (d Definition) Clone() Definition {
	d.Fields = slices.Clone(d.Fields)
	d.ListFields = slices.Clone(d.ListFields)
	return d
}

// Index returns the position of the field with the given id, or -1.
func (d Definition) Index(id string) int {
	return slices.IndexFunc(d.Fields, func(f Field) bool { return f.ID == id })
}

// Add appends a field.
func (d Definition) Add(f Field) Definition {
	d = d.Clone()
	d.Fields = append(d.Fields, f.Normalize())
	return d
}

// Replace swaps the field with the same id for f.
func (d Definition) Replace(f Field) (Definition, error) {
	i := d.Index(f.ID)
	if i < 0 {
		return d, fmt.Errorf("replace %s: %w", f.ID, ErrFieldNotFound)
	}
	d = d.Clone()
	d.Fields[i] = f.Normalize()
	return d, nil
}

// Move relocates the field fromID to the position currently held by toID,
// shifting the fields in between.
func (d Definition) Move(fromID, toID string) (Definition, error) {
	from, to := d.Index(fromID), d.Index(toID)
	if from < 0 {
		return d, fmt.Errorf("move %s: %w", fromID, ErrFieldNotFound)
	}
	if to < 0 {
		return d, fmt.Errorf("move to %s: %w", toID, ErrFieldNotFound)
	}
	if from == to {
		return d, nil
	}
	d = d.Clone()
	f := d.Fields[from]
	d.Fields = slices.Delete(d.Fields, from, from+1)
	d.Fields = slices.Insert(d.Fields, to, f)
	return d, nil
}

// Remove drops the field with the given id.
func (d Definition) Remove(id string) (Definition, error) {
	i := d.Index(id)
	if i < 0 {
		return d, fmt.Errorf("remove %s: %w", id, ErrFieldNotFound)
	}
	d = d.Clone()
	d.Fields = slices.Delete(d.Fields, i, i+1)
	return d, nil
}

// Duplicate appends a copy of the field with a new id and a "_copy" name suffix.
func (d Definition) Duplicate(id string) (Definition, Field, error) {
	i := d.Index(id)
	if i < 0 {
		return d, Field{}, fmt.Errorf("duplicate %s: %w", id, ErrFieldNotFound)
	}
	cp := d.Fields[i]
	cp.ID = uuid.NewString()
	cp.Name += "_copy"
	if a, ok := cp.Attrs.(ChoiceAttrs); ok {
		a.Options = slices.Clone(a.Options)
		cp.Attrs = a
	}
	return d.Add(cp), cp, nil
}

// Check validates the preconditions for generating or saving a definition.
// All problems are reported together.
func (d Definition) Check() error {
	var errs []error
	if strings.TrimSpace(d.ModuleName) == "" {
		errs = append(errs, ErrEmptyModuleName)
	}
	if len(d.Fields) == 0 {
		errs = append(errs, ErrNoFields)
	}
	ids := map[string][]string{}
	var order []string
	for i, f := range d.Fields {
		if strings.TrimSpace(f.Name) == "" {
			errs = append(errs, fmt.Errorf("field %d (%s): %w", i+1, f.Type, ErrEmptyFieldName))
			continue
		}
		if _, seen := ids[f.Name]; !seen {
			order = append(order, f.Name)
		}
		ids[f.Name] = append(ids[f.Name], f.ID)
	}
	for _, name := range order {
		if len(ids[name]) > 1 {
			errs = append(errs, &DuplicateNameError{Name: name, IDs: ids[name]})
		}
	}
	return errors.Join(errs...)
}

// Dedupe renames later fields that reuse an earlier name by appending _2, _3, ...
func (d Definition) Dedupe() Definition {
	d = d.Clone()
	taken := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		taken[f.Name] = true
	}
	seen := make(map[string]bool, len(d.Fields))
	for i, f := range d.Fields {
		if !seen[f.Name] {
			seen[f.Name] = true
			continue
		}
		for n := 2; ; n++ {
			candidate := f.Name + "_" + strconv.Itoa(n)
			if !taken[candidate] {
				d.Fields[i].Name = candidate
				taken[candidate] = true
				seen[candidate] = true
				break
			}
		}
	}
	return d
}

// ResolveListFields keeps only list field names that exist in Fields.
func (d Definition) ResolveListFields() []string {
	names := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		names[f.Name] = true
	}
	var out []string
	for _, n := range d.ListFields {
		if names[n] {
			out = append(out, n)
		}
	}
	return out
}

// ConfigField is one entry of the JSON configuration view.
type ConfigField struct {
	Name        string   `json:"name"`
	Type        Type     `json:"type"`
	Label       string   `json:"label,omitempty"`
	Required    bool     `json:"required"`
	Span        int      `json:"span"`
	Options     []string `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Config is the condensed JSON view of a definition shown next to the builder.
type Config struct {
	ModuleName string        `json:"moduleName"`
	Title      string        `json:"title"`
	Fields     []ConfigField `json:"fields"`
	ListFields []string      `json:"listFields"`
}

// JSONConfig returns the condensed configuration view.
func (d Definition) JSONConfig() Config {
	cfg := Config{
		ModuleName: d.ModuleName,
		Title:      d.Title,
		Fields:     make([]ConfigField, 0, len(d.Fields)),
		ListFields: slices.Clone(d.ListFields),
	}
	for _, f := range d.Fields {
		cf := ConfigField{
			Name:        f.Name,
			Type:        f.Type,
			Label:       f.Label,
			Required:    f.Required,
			Span:        f.ColumnSpan(),
			Placeholder: f.Placeholder,
			Description: f.Description,
		}
		for _, o := range f.Options() {
			cf.Options = append(cf.Options, o.Label)
		}
		cfg.Fields = append(cfg.Fields, cf)
	}
	if cfg.ListFields == nil {
		cfg.ListFields = []string{}
	}
	return cfg
}
