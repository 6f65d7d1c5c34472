package codegen

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DisplayIdentifier turns a module name into the name of its generated
// components: "user-profile" becomes "UserProfile".
func DisplayIdentifier(moduleName string) string {
	parts := strings.Split(moduleName, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, "")
}

// Filename is the download name of the generated script.
func Filename(moduleName string) string {
	return moduleName + "-module.sh"
}

// componentName is DisplayIdentifier restricted to characters that are legal
// in a JavaScript identifier.
func componentName(moduleName, suffix string) string {
	var b strings.Builder
	for _, r := range DisplayIdentifier(moduleName) {
		if r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || unicode.IsDigit([]rune(name)[0]) {
		name = "Module" + name
	}
	return name + suffix
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}

// jsJSON renders v as a JavaScript expression.
func jsJSON(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

var jsxEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"{", "&#123;",
	"}", "&#125;",
)

// jsxText escapes s for use as JSX element text.
func jsxText(s string) string {
	return jsxEscaper.Replace(s)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "let": true, "static": true, "await": true,
}

// jsProp renders an object key: bare when it is a plain identifier, quoted otherwise.
func jsProp(s string) string {
	if identPattern.MatchString(s) && !reservedWords[s] {
		return s
	}
	return jsString(s)
}

// shQuote quotes s for the shell.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// commentText flattens s onto one line so it can sit in a shell comment.
func commentText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
