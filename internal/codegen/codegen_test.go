package codegen

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/layout"
	"github.com/matthewbaird/formbuilder/internal/preview"
	"github.com/matthewbaird/formbuilder/internal/schema"
)

var fixedClock = WithClock(func() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
})

func sampleInput() Input {
	return Input{
		ModuleName: "user-profile",
		Title:      "Profiles",
		Fields: []field.Field{
			{ID: "1", Type: field.Email, Name: "email", Label: "Email", Required: true, Span: 24},
			{ID: "2", Type: field.Number, Name: "age", Label: "Age", Span: 12, Section: "Details",
				Attrs: field.NumericAttrs{Min: field.Float(0), Max: field.Float(120)}},
			{ID: "3", Type: field.Section, Name: "sec", Label: "More", Span: 24},
			{ID: "4", Type: field.Text, Name: "city", Label: "City", Required: true, Span: 12, Section: "Details", GroupBorder: "Address"},
		},
	}
}

func TestDisplayIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"user-profile", "UserProfile"},
		{"orders", "Orders"},
		{"a--b", "AB"},
		{"", ""},
		{"élan-vital", "ÉlanVital"},
	}
	for _, tc := range tests {
		if got := DisplayIdentifier(tc.in); got != tc.want {
			t.Errorf("DisplayIdentifier(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "orders-module.sh", Filename("orders"))
}

func TestGenerate_Structure(t *testing.T) {
	out, err := Generate(sampleInput(), fixedClock)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "#!/bin/bash\n"))
	assert.Contains(t, out, "# Generated: 2024-05-01T12:00:00Z")
	assert.Contains(t, out, "module='user-profile'\n")
	assert.Contains(t, out, "module_camel='UserProfile'\n")

	markers := []string{
		"# STEP 1: Create List Page (/user-profile)",
		`cat <<'EOL' > "$output_dir/index.tsx"`,
		"# STEP 2: Create Form Page (Add/Edit)",
		`cat <<'EOL' > "$output_dir/form.tsx"`,
		"# STEP 3: Create Detail Page",
		`cat <<'EOL' > "$output_dir/detail.tsx"`,
		"# STEP 4: Update App Routes",
		"echo '3. Test your module at: http://localhost:5173/user-profile'",
	}
	last := -1
	for _, m := range markers {
		i := strings.Index(out, m)
		require.GreaterOrEqual(t, i, 0, "missing %q", m)
		assert.Greater(t, i, last, "%q out of order", m)
		last = i
	}

	assert.Contains(t, out, "export default function UserProfileList()")
	assert.Contains(t, out, "export default function UserProfileForm()")
	assert.Contains(t, out, "export default function UserProfileDetail()")
	assert.Contains(t, out, `<Route path="/user-profile/edit/:id" element={<UserProfileForm />} />`)
	assert.Contains(t, out, "Columns: email, age, city")
}

func TestGenerate_StableAcrossRuns(t *testing.T) {
	a, err := Generate(sampleInput(), fixedClock)
	require.NoError(t, err)
	b, err := Generate(sampleInput(), fixedClock)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Generate(sampleInput(), WithClock(func() time.Time { return time.Unix(0, 0) }))
	require.NoError(t, err)
	stamp := regexp.MustCompile(`(?m)^# Generated: .*$`)
	assert.Equal(t, stamp.ReplaceAllString(a, ""), stamp.ReplaceAllString(c, ""))
}

func TestGenerate_SchemaParity(t *testing.T) {
	in := sampleInput()
	in.Fields = append(in.Fields, field.Field{ID: "5", Type: field.Date, Name: "born", Label: "Born", Span: 12})
	out, err := Generate(in, fixedClock)
	require.NoError(t, err)

	s := schema.Synthesize(in.Fields)
	for _, p := range s.Zod() {
		assert.Contains(t, out, fmt.Sprintf("  %s: %s,\n", jsProp(p.Name), p.Expr))
	}
	for _, name := range s.Required() {
		r, _ := s.Lookup(name)
		assert.NotContains(t, r.Zod(), ".optional()")
	}
	assert.NotContains(t, out, "  sec: ")
	assert.Contains(t, out, `  email: z.string().min(1, "Email is required").email("Invalid email address"),`)
	assert.Contains(t, out, `  age: z.coerce.number().min(0, "Age must be at least 0").max(120, "Age must be at most 120").optional(),`)
	assert.Contains(t, out, `  born: z.string().regex(/^(\d{4}-`)
	assert.Contains(t, out, `, "Born must be a date or time").optional().or(z.literal("")),`)
}

func TestGenerate_RequiredDisplayFieldsStayOutOfSchema(t *testing.T) {
	in := sampleInput()
	in.Fields = append(in.Fields,
		field.Field{ID: "6", Type: field.Label, Name: "banner", Label: "Banner", Required: true, Span: 24},
		field.Field{ID: "7", Type: field.LabelShow, Name: "notice", Label: "Notice", Required: true, Span: 24},
	)
	out, err := Generate(in, fixedClock)
	require.NoError(t, err)

	s := schema.Synthesize(in.Fields)
	assert.Equal(t, []string{"email", "city"}, s.Required())
	assert.NotContains(t, out, "  banner: ")
	assert.NotContains(t, out, "  notice: ")
}

func TestPlan_DisplayFieldFallback(t *testing.T) {
	var fields []field.Field
	for i, typ := range []field.Type{field.Section, field.Text, field.Email, field.Section, field.Number, field.Date, field.Select} {
		fields = append(fields, field.Field{ID: fmt.Sprint(i), Type: typ, Name: fmt.Sprintf("f%d", i)})
	}
	p := NewPlan(Input{ModuleName: "orders", Fields: fields})
	assert.Equal(t, []string{"f1", "f2", "f4", "f5", "f6"}, p.DisplayFields)
	assert.Equal(t, "Orders", p.Identifier)

	lv := preview.ListPreview(field.Definition{Fields: fields}, nil)
	var cols []string
	for _, c := range lv.Columns {
		cols = append(cols, c.Name)
	}
	assert.Equal(t, p.DisplayFields, cols)
}

func TestPlan_MatchesPreview(t *testing.T) {
	in := sampleInput()
	p := NewPlan(in)
	view := preview.Render(in.Fields, preview.NewState())

	require.Len(t, view.Sections, len(p.Sections))
	for i, s := range p.Sections {
		assert.Equal(t, s.Key, view.Sections[i].Key)
		require.Len(t, view.Sections[i].Groups, len(s.Groups))
	}
	assert.Equal(t, []string{"default", "Details"}, layout.Keys(p.Sections))
}

func TestGenerate_EmptyFields(t *testing.T) {
	out, err := Generate(Input{ModuleName: "empty", Title: "Empty"}, fixedClock)
	require.NoError(t, err)
	assert.Contains(t, out, "const formSchema = z.object({\n});")
	assert.Contains(t, out, "const fields = [];")
	assert.Contains(t, out, "# STEP 4: Update App Routes")
}

func TestGenerate_HostileNames(t *testing.T) {
	in := Input{
		ModuleName: "it's-bad",
		Title:      "Tit\"le {x} </h1> $(rm -rf /)",
		Fields: []field.Field{
			{ID: "1", Type: field.Text, Name: `we"ird name`, Label: "EOL", Required: true, Span: 24},
		},
	}
	out, err := Generate(in, fixedClock)
	require.NoError(t, err)

	assert.Contains(t, out, `module='it'"'"'s-bad'`)
	assert.Contains(t, out, `const TITLE = "Tit\"le {x} </h1> $(rm -rf /)";`)
	assert.Contains(t, out, `  "we\"ird name": z.string().min(1, "EOL is required"),`)
	assert.Contains(t, out, "export default function ItsBadList()")
	assert.NotContains(t, out, "\nEOL\nEOL\n")
}

func TestGenerate_ShellSyntax(t *testing.T) {
	bash, err := exec.LookPath("bash")
	if err != nil {
		t.Skip("bash not available")
	}
	in := sampleInput()
	in.Title = "Quote ' \" $HOME `id`"
	out, err := Generate(in, fixedClock)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), Filename(in.ModuleName))
	require.NoError(t, os.WriteFile(path, []byte(out), 0o755))
	cmd := exec.Command(bash, "-n", path)
	outb, err := cmd.CombinedOutput()
	assert.NoError(t, err, string(outb))
}

func TestDelimiter(t *testing.T) {
	assert.Equal(t, "EOL", Delimiter("a\nb\n"))
	assert.Equal(t, "EOL_1", Delimiter("a\nEOL\nb"))
	assert.Equal(t, "EOL_2", Delimiter("EOL\nEOL_1\n"))
	assert.Equal(t, "EOL", Delimiter(" EOL\n"))
}

func TestScript_String(t *testing.T) {
	s := Script{
		Header: []string{"multi\nline"},
		Vars:   []Var{{Name: "x", Value: "a'b"}},
		Steps: []Step{{
			Title: "One",
			Files: []Heredoc{{Path: "f.txt", Body: "hello\nEOL\n"}},
			Echo:  []string{"", "hi"},
		}},
	}
	got := s.String()
	assert.Contains(t, got, "# multi line\n")
	assert.Contains(t, got, "x='a'\"'\"'b'\n")
	assert.Contains(t, got, "cat <<'EOL_1' > \"$output_dir/f.txt\"\nhello\nEOL\nEOL_1\n")
	assert.Contains(t, got, "echo \"\"\necho 'hi'\n")
}

func TestEscapers(t *testing.T) {
	assert.Equal(t, "name", jsProp("name"))
	assert.Equal(t, `"first-name"`, jsProp("first-name"))
	assert.Equal(t, `"class"`, jsProp("class"))
	assert.Equal(t, `"1st"`, jsProp("1st"))
	assert.Equal(t, "a &lt;b&gt; &#123;c&#125; &amp;", jsxText("a <b> {c} &"))
	assert.Equal(t, `'it'"'"'s'`, shQuote("it's"))
}

func TestFormComponent(t *testing.T) {
	out, err := FormComponent(sampleInput().Fields)
	require.NoError(t, err)
	assert.Contains(t, out, "export function GeneratedForm()")
	assert.Contains(t, out, "  city: z.string().min(1, \"City is required\"),")
	assert.NotContains(t, out, "  sec:")
}

func TestZodSchema(t *testing.T) {
	out, err := ZodSchema(sampleInput().Fields)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "const formSchema = z.object({\n"))
	assert.True(t, strings.HasSuffix(out, "});\n"))
	assert.Contains(t, out, "  age: z.coerce.number().min(0, \"Age must be at least 0\").max(120, \"Age must be at most 120\")")
	assert.NotContains(t, out, "  sec:")
}
