// Package codegen turns a form definition into the module scaffold script:
// a shell script whose heredocs hold the generated list, form and detail
// pages, followed by integration instructions.
//
// The script is built as a Script value and serialized with shell quoting.
// Page sources are rendered from embedded templates whose helpers escape
// every user supplied string for the context it lands in.
package codegen

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/layout"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

// Version is stamped into the script header unless overridden.
const Version = "2.0.0"

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("codegen").Funcs(template.FuncMap{
	"jsString": jsString,
	"jsJSON":   jsJSON,
	"jsxText":  jsxText,
	"jsProp":   jsProp,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Input is what the generator needs from a definition.
type Input struct {
	ModuleName string
	Title      string
	Fields     []field.Field
	ListFields []string
}

// InputOf returns the generator input of a definition.
func InputOf(def field.Definition) Input {
	return Input{
		ModuleName: def.ModuleName,
		Title:      def.Title,
		Fields:     def.Fields,
		ListFields: def.ListFields,
	}
}

type options struct {
	now     func() time.Time
	version string
}

// Option configures Generate.
type Option func(*options)

// WithClock sets the time source for the header timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithVersion sets the generator version shown in the header.
func WithVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.version = v
		}
	}
}

// Plan is everything the generated pages derive from the input. The preview
// derives the same values through the same functions.
type Plan struct {
	ModuleName    string
	Identifier    string
	Title         string
	Schema        *schema.Schema
	DisplayFields []string
	Sections      []layout.Section
	// Columns are the storage columns: every field that holds a value.
	Columns []string
}

// NewPlan derives the plan of in.
func NewPlan(in Input) Plan {
	s := schema.Synthesize(in.Fields)
	return Plan{
		ModuleName:    in.ModuleName,
		Identifier:    DisplayIdentifier(in.ModuleName),
		Title:         in.Title,
		Schema:        s,
		DisplayFields: layout.DisplayFields(in.Fields, in.ListFields),
		Sections:      layout.Partition(in.Fields),
		Columns:       s.Names(),
	}
}

type column struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type detailField struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	DescSpan  int    `json:"descSpan"`
	ValueSpan int    `json:"valueSpan"`
}

type detailGroup struct {
	Name   string        `json:"name"`
	Fields []detailField `json:"fields"`
}

type detailSection struct {
	Title  string        `json:"title"`
	Fields []detailField `json:"fields"`
	Groups []detailGroup `json:"groups"`
}

// pageData is the template input shared by the three pages.
type pageData struct {
	Module          string
	BasePath        string
	Title           string
	ListComponent   string
	FormComponent   string
	DetailComponent string
	Columns         []column
	Fields          []field.Field
	Zod             []schema.ZodProperty
	Sections        []detailSection
}

func newPageData(in Input, p Plan) pageData {
	byName := make(map[string]field.Field, len(in.Fields))
	for _, f := range in.Fields {
		if _, ok := byName[f.Name]; !ok {
			byName[f.Name] = f
		}
	}

	d := pageData{
		Module:          in.ModuleName,
		BasePath:        "/" + in.ModuleName,
		Title:           in.Title,
		ListComponent:   componentName(in.ModuleName, "List"),
		FormComponent:   componentName(in.ModuleName, "Form"),
		DetailComponent: componentName(in.ModuleName, "Detail"),
		Columns:         make([]column, 0, len(p.DisplayFields)),
		Fields:          in.Fields,
		Zod:             p.Schema.Zod(),
		Sections:        make([]detailSection, 0, len(p.Sections)),
	}
	if d.Fields == nil {
		d.Fields = []field.Field{}
	}
	for _, name := range p.DisplayFields {
		d.Columns = append(d.Columns, column{Name: name, Label: byName[name].Caption()})
	}
	for _, s := range p.Sections {
		ds := detailSection{
			Title:  s.Title(),
			Fields: detailFields(s.Ungrouped),
			Groups: make([]detailGroup, 0, len(s.Groups)),
		}
		for _, g := range s.Groups {
			ds.Groups = append(ds.Groups, detailGroup{Name: g.Name, Fields: detailFields(g.Fields)})
		}
		d.Sections = append(d.Sections, ds)
	}
	return d
}

func detailFields(fields []field.Field) []detailField {
	out := make([]detailField, 0, len(fields))
	for _, f := range fields {
		df := detailField{
			Name:      f.Name,
			Label:     f.Caption(),
			Type:      string(f.Type),
			DescSpan:  8,
			ValueSpan: 16,
		}
		if f.Detail.Label != "" {
			df.Label = f.Detail.Label
		}
		if f.Detail.DescSpan > 0 {
			df.DescSpan = f.Detail.DescSpan
		}
		if f.Detail.ValueSpan > 0 {
			df.ValueSpan = f.Detail.ValueSpan
		}
		if f.Type == field.Label || f.Type == field.LabelShow {
			df.Text = f.DisplayText()
		}
		out = append(out, df)
	}
	return out
}

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return b.String(), nil
}

// Build assembles the script of in without serializing it.
func Build(in Input, opts ...Option) (Script, error) {
	o := options{now: time.Now, version: Version}
	for _, opt := range opts {
		opt(&o)
	}

	p := NewPlan(in)
	data := newPageData(in, p)

	list, err := render("list.tsx.tmpl", data)
	if err != nil {
		return Script{}, err
	}
	form, err := render("form.tsx.tmpl", data)
	if err != nil {
		return Script{}, err
	}
	detail, err := render("detail.tsx.tmpl", data)
	if err != nil {
		return Script{}, err
	}

	m := in.ModuleName
	return Script{
		Header: []string{
			"Form Builder - Generated Script v" + o.version,
			"Module: " + m,
			"Generated: " + o.now().UTC().Format(time.RFC3339),
		},
		Vars: []Var{
			{Name: "module", Value: m},
			{Name: "module_camel", Value: p.Identifier},
			{Name: "title", Value: in.Title},
		},
		Preamble: []string{
			`routePath="$(cd "$(dirname "${BASH_SOURCE[0]}")" && pwd)"`,
			``,
			`echo "🚀 Generating Full-Stack Module: ${module_camel}"`,
			`echo "📁 Base Path: ${routePath}"`,
		},
		Steps: []Step{
			{
				Title: "Create List Page (/" + m + ")",
				Commands: []string{
					`output_dir="${routePath}/src/pages/${module}"`,
					`mkdir -p "$output_dir"`,
				},
				Files: []Heredoc{{Path: "index.tsx", Body: list}},
			},
			{
				Title: "Create Form Page (Add/Edit)",
				Files: []Heredoc{{Path: "form.tsx", Body: form}},
			},
			{
				Title: "Create Detail Page",
				Files: []Heredoc{{Path: "detail.tsx", Body: detail}},
			},
			{
				Title: "Update App Routes",
				Echo:  instructions(m, data, p),
			},
		},
	}, nil
}

func instructions(m string, d pageData, p Plan) []string {
	return []string{
		"",
		"✅ Module files generated successfully!",
		"",
		"📝 Next Steps:",
		"1. Add these routes to your src/App.tsx:",
		"",
		fmt.Sprintf("   import %s from '@/pages/%s';", d.ListComponent, m),
		fmt.Sprintf("   import %s from '@/pages/%s/form';", d.FormComponent, m),
		fmt.Sprintf("   import %s from '@/pages/%s/detail';", d.DetailComponent, m),
		"",
		fmt.Sprintf(`   <Route path="/%s" element={<%s />} />`, m, d.ListComponent),
		fmt.Sprintf(`   <Route path="/%s/new" element={<%s />} />`, m, d.FormComponent),
		fmt.Sprintf(`   <Route path="/%s/edit/:id" element={<%s />} />`, m, d.FormComponent),
		fmt.Sprintf(`   <Route path="/%s/detail/:id" element={<%s />} />`, m, d.DetailComponent),
		"",
		"2. Create the database table:",
		"   Table name: " + m,
		"   Columns: " + strings.Join(p.Columns, ", "),
		"",
		"3. Test your module at: http://localhost:5173/" + m,
		"",
		"🎉 Done! Your full-stack module is ready to use!",
	}
}

// Generate renders the scaffold script. Empty field lists still produce a
// complete script; rejecting them is up to the caller (see
// field.Definition.Check). Errors only come from template execution.
func Generate(in Input, opts ...Option) (string, error) {
	s, err := Build(in, opts...)
	if err != nil {
		return "", err
	}
	return s.String(), nil
}

// FormComponent renders the standalone GeneratedForm component for fields.
func FormComponent(fields []field.Field) (string, error) {
	if fields == nil {
		fields = []field.Field{}
	}
	return render("component.tsx.tmpl", struct {
		Fields []field.Field
		Zod    []schema.ZodProperty
	}{
		Fields: fields,
		Zod:    schema.Synthesize(fields).Zod(),
	})
}

// ZodSchema renders the zod object declaration used by the generated pages.
func ZodSchema(fields []field.Field) (string, error) {
	src, err := render("schema", schema.Synthesize(fields).Zod())
	if err != nil {
		return "", err
	}
	return src + "\n", nil
}
