package codegen

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultShebang   = "#!/bin/bash"
	defaultDelimiter = "EOL"
	rule             = "# =============================================================================="
)

// Var is a shell variable assignment. Values are always single-quoted.
type Var struct {
	Name  string
	Value string
}

// Heredoc writes Body to Path inside $output_dir.
type Heredoc struct {
	Path string
	Body string
}

// Step is one numbered block of the script.
type Step struct {
	Title string
	// Commands are trusted shell lines built by the generator, never user text.
	Commands []string
	Files    []Heredoc
	// Echo lines are printed verbatim; they are quoted when rendered.
	Echo []string
}

// Script is the intermediate form of the generated artifact. Everything user
// supplied reaches the output through a quoting rule of the serializer.
type Script struct {
	Shebang  string
	Header   []string
	Vars     []Var
	Preamble []string
	Steps    []Step
}

// String serializes the script.
func (s Script) String() string {
	var b strings.Builder
	shebang := s.Shebang
	if shebang == "" {
		shebang = defaultShebang
	}
	b.WriteString(shebang + "\n\n")
	b.WriteString("# Exit on any error\n")
	b.WriteString("set -e\n\n")

	for _, line := range s.Header {
		b.WriteString("# " + commentText(line) + "\n")
	}
	if len(s.Header) > 0 {
		b.WriteString("\n")
	}

	for _, v := range s.Vars {
		fmt.Fprintf(&b, "%s=%s\n", v.Name, shQuote(v.Value))
	}
	if len(s.Vars) > 0 {
		b.WriteString("\n")
	}

	for _, line := range s.Preamble {
		b.WriteString(line + "\n")
	}
	if len(s.Preamble) > 0 {
		b.WriteString("\n")
	}

	for i, step := range s.Steps {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(rule + "\n")
		fmt.Fprintf(&b, "# STEP %d: %s\n", i+1, commentText(step.Title))
		b.WriteString(rule + "\n")
		for _, c := range step.Commands {
			b.WriteString(c + "\n")
		}
		for j, f := range step.Files {
			if j > 0 || len(step.Commands) > 0 {
				b.WriteString("\n")
			}
			writeHeredoc(&b, f)
		}
		for _, line := range step.Echo {
			if line == "" {
				b.WriteString("echo \"\"\n")
				continue
			}
			b.WriteString("echo " + shQuote(line) + "\n")
		}
	}
	return b.String()
}

func writeHeredoc(b *strings.Builder, f Heredoc) {
	delim := Delimiter(f.Body)
	fmt.Fprintf(b, "cat <<'%s' > \"$output_dir/%s\"\n", delim, f.Path)
	b.WriteString(f.Body)
	if !strings.HasSuffix(f.Body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(delim + "\n")
}

// Delimiter returns a heredoc terminator that does not occur as a line of body.
func Delimiter(body string) string {
	lines := map[string]bool{}
	for _, l := range strings.Split(body, "\n") {
		lines[l] = true
	}
	delim := defaultDelimiter
	for n := 1; lines[delim]; n++ {
		delim = defaultDelimiter + "_" + strconv.Itoa(n)
	}
	return delim
}
