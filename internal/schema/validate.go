package schema

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrorKind classifies a validation failure.
type ErrorKind string

const (
	ErrRequired     ErrorKind = "required"
	ErrTypeMismatch ErrorKind = "type_mismatch"
	ErrRange        ErrorKind = "range"
	ErrFormat       ErrorKind = "format"
)

// FieldError is the failure of one field.
type FieldError struct {
	Field   string    `json:"-"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors maps field names to their failure. It is returned as a value and
// also satisfies error so callers can wrap it.
type Errors struct {
	byField map[string]FieldError
}

func (e *Errors) add(fe FieldError) {
	if e.byField == nil {
		e.byField = make(map[string]FieldError)
	}
	e.byField[fe.Field] = fe
}

// Len returns the number of failed fields.
func (e *Errors) Len() int {
	if e == nil {
		return 0
	}
	return len(e.byField)
}

// Fields returns the failed field names in sorted order.
func (e *Errors) Fields() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.byField))
	for name := range e.byField {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Get returns the failure of one field.
func (e *Errors) Get(name string) (FieldError, bool) {
	if e == nil {
		return FieldError{}, false
	}
	fe, ok := e.byField[name]
	return fe, ok
}

func (e *Errors) Error() string {
	parts := make([]string, 0, e.Len())
	for _, name := range e.Fields() {
		parts = append(parts, e.byField[name].Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// MarshalJSON encodes the errors as {"name": {"kind": ..., "message": ...}}.
func (e *Errors) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.byField)
}

// UnmarshalJSON reads the shape written by MarshalJSON.
func (e *Errors) UnmarshalJSON(data []byte) error {
	var m map[string]FieldError
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	e.byField = make(map[string]FieldError, len(m))
	for name, fe := range m {
		fe.Field = name
		e.byField[name] = fe
	}
	return nil
}

// Validate checks input against every rule. It returns nil when the input
// passes. Keys without a rule are ignored.
func (s *Schema) Validate(input map[string]any) *Errors {
	var errs Errors
	for _, r := range s.Rules {
		v, ok := input[r.Field]
		if fe, failed := r.check(v, ok); failed {
			errs.add(fe)
		}
	}
	if errs.Len() == 0 {
		return nil
	}
	return &errs
}

// Check validates a single value. present is false when the key is missing.
func (r Rule) Check(v any, present bool) *FieldError {
	if fe, failed := r.check(v, present); failed {
		return &fe
	}
	return nil
}

func (r Rule) absent(v any, present bool) bool {
	if !present || v == nil {
		return true
	}
	if s, ok := v.(string); ok && s == "" && r.Kind.stringLike() {
		return true
	}
	return false
}

func (r Rule) check(v any, present bool) (FieldError, bool) {
	fail := func(kind ErrorKind, format string, args ...any) (FieldError, bool) {
		return FieldError{Field: r.Field, Kind: kind, Message: fmt.Sprintf(format, args...)}, true
	}
	name := r.caption()

	if r.absent(v, present) {
		if r.Required {
			return fail(ErrRequired, "%s is required", name)
		}
		return FieldError{}, false
	}

	switch r.Kind {
	case KindNumber:
		n, ok := toFloat(v)
		if !ok {
			return fail(ErrTypeMismatch, "%s must be a number", name)
		}
		if r.Min != nil && n < *r.Min {
			return fail(ErrRange, "%s must be at least %s", name, formatFloat(*r.Min))
		}
		if r.Max != nil && n > *r.Max {
			return fail(ErrRange, "%s must be at most %s", name, formatFloat(*r.Max))
		}
	case KindEmail:
		s, ok := v.(string)
		if !ok {
			return fail(ErrTypeMismatch, "%s must be a string", name)
		}
		if !validEmail(s) {
			return fail(ErrFormat, "Invalid email address")
		}
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return fail(ErrTypeMismatch, "%s must be true or false", name)
		}
	case KindDate:
		if !validDate(v) {
			return fail(ErrTypeMismatch, "%s must be a date or time", name)
		}
	case KindStringList:
		if !stringList(v) {
			return fail(ErrTypeMismatch, "%s must be a list of strings", name)
		}
	default:
		if _, ok := v.(string); !ok {
			return fail(ErrTypeMismatch, "%s must be a string", name)
		}
	}
	return FieldError{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// DateLayouts are the string forms accepted for date, datetime and time values.
var DateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"15:04:05",
	"15:04",
}

var dateRe = regexp.MustCompile(datePattern)

func validDate(v any) bool {
	switch d := v.(type) {
	case time.Time:
		return !d.IsZero()
	case string:
		if !dateRe.MatchString(d) {
			return false
		}
		for _, layout := range DateLayouts {
			if _, err := time.Parse(layout, d); err == nil {
				return true
			}
		}
	}
	return false
}

func stringList(v any) bool {
	switch l := v.(type) {
	case []string:
		return true
	case []any:
		for _, item := range l {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	}
	return false
}
