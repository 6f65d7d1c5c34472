// Package layout groups fields for display. The live preview and the
// generated detail page both render from Partition, and the list preview and
// the generated list page both take their columns from DisplayFields.
package layout

import (
	"github.com/matthewbaird/formbuilder/internal/field"
)

// DefaultSection is the key of fields without a section.
const DefaultSection = "default"

// MaxDisplayFields is the number of list columns derived when none are chosen.
const MaxDisplayFields = 5

// Group is a set of fields boxed together under a group border heading.
type Group struct {
	Name   string        `json:"name"`
	Fields []field.Field `json:"fields"`
}

// Section is the fields sharing one section value, in their original order.
// Ungrouped fields render first, then each group in first-seen order.
type Section struct {
	Key       string        `json:"key"`
	Fields    []field.Field `json:"fields"`
	Ungrouped []field.Field `json:"ungrouped"`
	Groups    []Group       `json:"groups"`
}

// Title is the heading shown for the section; empty for the default section.
func (s Section) Title() string {
	if s.Key == DefaultSection {
		return ""
	}
	return s.Key
}

// Partition splits fields by section and, within a section, by group border.
// Keys keep the order in which they are first seen.
func Partition(fields []field.Field) []Section {
	var sections []Section
	bySection := map[string]int{}
	for _, f := range fields {
		key := f.Section
		if key == "" {
			key = DefaultSection
		}
		i, ok := bySection[key]
		if !ok {
			i = len(sections)
			bySection[key] = i
			sections = append(sections, Section{Key: key})
		}
		sections[i].Fields = append(sections[i].Fields, f)
	}

	for i := range sections {
		s := &sections[i]
		byGroup := map[string]int{}
		for _, f := range s.Fields {
			if f.GroupBorder == "" {
				s.Ungrouped = append(s.Ungrouped, f)
				continue
			}
			g, ok := byGroup[f.GroupBorder]
			if !ok {
				g = len(s.Groups)
				byGroup[f.GroupBorder] = g
				s.Groups = append(s.Groups, Group{Name: f.GroupBorder})
			}
			s.Groups[g].Fields = append(s.Groups[g].Fields, f)
		}
	}
	return sections
}

// Keys returns the section keys in order.
func Keys(sections []Section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.Key
	}
	return out
}

// Rows packs fields into rows of the 24 unit grid. A field that does not fit
// in the remaining width starts a new row.
func Rows(fields []field.Field) [][]field.Field {
	var (
		rows  [][]field.Field
		row   []field.Field
		width int
	)
	for _, f := range fields {
		span := f.ColumnSpan()
		if width+span > field.Grid && len(row) > 0 {
			rows = append(rows, row)
			row, width = nil, 0
		}
		row = append(row, f)
		width += span
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

// DisplayFields returns the list view columns: the chosen list fields that
// exist, or when none remain, the first five fields that are not sections,
// labels or hidden.
func DisplayFields(fields []field.Field, listFields []string) []string {
	if len(listFields) > 0 {
		exists := make(map[string]bool, len(fields))
		for _, f := range fields {
			exists[f.Name] = true
		}
		var out []string
		for _, name := range listFields {
			if exists[name] {
				out = append(out, name)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	var out []string
	for _, f := range fields {
		if f.Type.IsDisplayExcluded() {
			continue
		}
		out = append(out, f.Name)
		if len(out) == MaxDisplayFields {
			break
		}
	}
	return out
}
