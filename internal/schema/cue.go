package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/token"
)

const (
	emailPattern = `^[^@\s]+@[^@\s.]+(\.[^@\s.]+)+$`
	// datePattern matches the shapes of DateLayouts with their field ranges.
	// Calendar validity (Feb 30) is left to time.Parse.
	datePattern = `^(` + dayPattern + `(T` + clockPattern + `)?|` + clockPattern + `)$`

	dayPattern   = `\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])`
	clockPattern = `([01]\d|2[0-3]):[0-5]\d(:[0-5]\d(\.\d+)?(Z|[+-]([01]\d|2[0-3]):[0-5]\d)?)?`
)

// CUEFile builds the CUE syntax tree of the schema. Required rules become
// required fields (name!) and optional rules optional fields (name?).
func (s *Schema) CUEFile() *ast.File {
	f := &ast.File{}
	for _, r := range s.Rules {
		var label ast.Label
		if ast.IsValidIdent(r.Field) && !strings.HasPrefix(r.Field, "_") && !strings.HasPrefix(r.Field, "#") {
			label = ast.NewIdent(r.Field)
		} else {
			label = ast.NewString(r.Field)
		}
		constraint := token.OPTION
		if r.Required {
			constraint = token.NOT
		}
		f.Decls = append(f.Decls, &ast.Field{
			Label:      label,
			Constraint: constraint,
			Value:      r.cueExpr(),
		})
	}
	return f
}

func (r Rule) cueExpr() ast.Expr {
	switch r.Kind {
	case KindNumber:
		exprs := []ast.Expr{ast.NewIdent("number")}
		if r.Min != nil {
			exprs = append(exprs, &ast.UnaryExpr{Op: token.GEQ, X: numberLit(*r.Min)})
		}
		if r.Max != nil {
			exprs = append(exprs, &ast.UnaryExpr{Op: token.LEQ, X: numberLit(*r.Max)})
		}
		return ast.NewBinExpr(token.AND, exprs...)
	case KindEmail:
		return ast.NewBinExpr(token.AND, ast.NewIdent("string"),
			&ast.UnaryExpr{Op: token.MAT, X: ast.NewString(emailPattern)})
	case KindBoolean:
		return ast.NewIdent("bool")
	case KindDate:
		return ast.NewBinExpr(token.AND, ast.NewIdent("string"),
			&ast.UnaryExpr{Op: token.MAT, X: ast.NewString(datePattern)})
	case KindStringList:
		return ast.NewList(&ast.Ellipsis{Type: ast.NewIdent("string")})
	}
	return ast.NewIdent("string")
}

func numberLit(v float64) ast.Expr {
	s := formatFloat(v)
	tok := token.INT
	if strings.ContainsAny(s, ".eE") {
		tok = token.FLOAT
	}
	if v < 0 {
		return &ast.UnaryExpr{Op: token.SUB, X: ast.NewLit(tok, strings.TrimPrefix(s, "-"))}
	}
	return ast.NewLit(tok, s)
}

// CUE returns the schema as formatted CUE source.
func (s *Schema) CUE() (string, error) {
	out, err := format.Node(s.CUEFile())
	if err != nil {
		return "", fmt.Errorf("formatting cue schema: %w", err)
	}
	return string(out), nil
}

// ValidateCUE checks input by unifying it with the CUE form of the schema.
// It applies the same absent-value rules as Validate, so both agree on which
// inputs pass; the CUE evaluator is used as an independent check. Date strings
// are checked by shape only, so an impossible day such as 2024-02-30 passes
// here and fails Validate.
func (s *Schema) ValidateCUE(input map[string]any) error {
	src, err := s.CUE()
	if err != nil {
		return err
	}
	ctx := cuecontext.New()
	sv := ctx.CompileString(src, cue.Filename("schema.cue"))
	if err := sv.Err(); err != nil {
		return fmt.Errorf("compiling cue schema: %w", err)
	}

	pruned := make(map[string]any, len(input))
	for _, r := range s.Rules {
		v, ok := input[r.Field]
		if r.absent(v, ok) {
			continue
		}
		pruned[r.Field] = cueValue(v)
	}
	iv := ctx.Encode(pruned)
	if err := iv.Err(); err != nil {
		return fmt.Errorf("encoding input: %w", err)
	}
	if err := sv.Unify(iv).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

// cueValue converts values the encoder does not treat the way Validate does.
func cueValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case float32:
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(x), 'g', -1, 32), 64)
		return f
	}
	return v
}
