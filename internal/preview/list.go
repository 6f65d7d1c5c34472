package preview

import (
	"fmt"
	"strings"

	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/layout"
)

// Column is a list view column.
type Column struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// ListView is the mocked list page of a definition.
type ListView struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ListPreview renders records as the generated list page would show them.
func ListPreview(def field.Definition, records []map[string]any) ListView {
	byName := make(map[string]field.Field, len(def.Fields))
	for _, f := range def.Fields {
		if _, ok := byName[f.Name]; !ok {
			byName[f.Name] = f
		}
	}

	lv := ListView{Title: def.Title, Rows: make([][]string, 0, len(records))}
	for _, name := range layout.DisplayFields(def.Fields, def.ListFields) {
		lv.Columns = append(lv.Columns, Column{Name: name, Label: byName[name].Caption()})
	}
	for _, rec := range records {
		row := make([]string, len(lv.Columns))
		for i, col := range lv.Columns {
			row[i] = cell(rec[col.Name])
		}
		lv.Rows = append(lv.Rows, row)
	}
	return lv
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
