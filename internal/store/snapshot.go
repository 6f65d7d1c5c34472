package store

import (
	"fmt"
	"slices"

	"github.com/matthewbaird/formbuilder/internal/field"
)

// SnapshotField is the persisted part of a field.
type SnapshotField struct {
	Name  string     `json:"name"`
	Label string     `json:"label"`
	Type  field.Type `json:"type"`
}

// Snapshot is the persisted form config. It keeps only names, labels, types
// and the list columns; every other attribute is dropped.
type Snapshot struct {
	Fields     []SnapshotField `json:"fields"`
	ListFields []string        `json:"listFields"`
}

// SnapshotOf captures the persisted shape of def.
func SnapshotOf(def field.Definition) Snapshot {
	s := Snapshot{
		Fields:     make([]SnapshotField, 0, len(def.Fields)),
		ListFields: slices.Clone(def.ListFields),
	}
	if s.ListFields == nil {
		s.ListFields = []string{}
	}
	for _, f := range def.Fields {
		s.Fields = append(s.Fields, SnapshotField{Name: f.Name, Label: f.Label, Type: f.Type})
	}
	return s
}

// Apply restores the snapshot into def. Fields of def with the same name and
// type keep their other attributes; the rest start from the type defaults.
func (s Snapshot) Apply(def field.Definition) (field.Definition, error) {
	existing := make(map[string]field.Field, len(def.Fields))
	for _, f := range def.Fields {
		if _, ok := existing[f.Name]; !ok {
			existing[f.Name] = f
		}
	}

	def = def.Clone()
	def.Fields = make([]field.Field, 0, len(s.Fields))
	for _, sf := range s.Fields {
		t, err := field.ParseType(string(sf.Type))
		if err != nil {
			return def, fmt.Errorf("restoring field %q: %w", sf.Name, err)
		}
		f, ok := existing[sf.Name]
		if !ok || f.Type != t {
			f = field.NewDefault(t)
		}
		f.Name, f.Label = sf.Name, sf.Label
		def.Fields = append(def.Fields, f)
	}
	def.ListFields = slices.Clone(s.ListFields)
	return def, nil
}
