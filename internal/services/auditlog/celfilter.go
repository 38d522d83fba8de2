package auditsvc

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/rzbill/auditlog/internal/audit"
)

// celFilter wraps a compiled CEL program evaluated against each entry of a
// retrieved sequence. When disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("title", cel.StringType),
		cel.Variable("content", cel.StringType),
		cel.Variable("timestamp", cel.StringType),
		cel.Variable("reporter", cel.StringType),
		// position in the sequence, 0-based
		cel.Variable("index", cel.IntType),
		cel.Variable("size", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return celFilter{}, fmt.Errorf("%w: expression must evaluate to bool, got %s", ErrInvalidFilter, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return celFilter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval reports whether e at position index matches. Evaluation errors count
// as no match.
func (f celFilter) Eval(index int, e audit.Entry) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"title":     string(e.Title),
		"content":   string(e.Content),
		"timestamp": string(e.Timestamp),
		"reporter":  string(e.Reporter),
		"index":     int64(index),
		"size":      int64(len(e.Title) + len(e.Content) + len(e.Timestamp)),
		"now_ms":    time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
