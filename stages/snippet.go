package stages

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	recs "github.com/MullinsLab/App-RecordStream-Pipeline"
)

// Snippet is one compiled expression in the stage configuration
// micro-language. The language is expr (expr-lang.org) with two
// additions the engine's host-function bridge relies on:
//
//   - the current record is bound under recs.RecordBinding ("record")
//     as a plain map, so "record.status" reads a field;
//   - a call(token, record) builtin resolves a bridged host function
//     through the runner's FuncRegistry and invokes it with the actual
//     record, giving the closure full read/write access.
//
// Lines starting with "#" are comments; the bridge uses one to carry a
// best-effort source-symbol annotation for debugging.
type Snippet struct {
	src   string
	prog  *vm.Program
	funcs *recs.FuncRegistry
}

// CompileSnippet compiles snippet source against a host-function
// registry. The registry may be nil for snippets that never use call.
func CompileSnippet(src string, funcs *recs.FuncRegistry) (*Snippet, error) {
	prog, err := expr.Compile(stripComments(src), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile snippet %q: %w", src, err)
	}
	return &Snippet{src: src, prog: prog, funcs: funcs}, nil
}

// Eval evaluates the snippet against one record.
func (s *Snippet) Eval(rec *recs.Record) (any, error) {
	env := map[string]any{
		recs.RecordBinding: rec.Map(),
		recs.CallFunction: func(token string, _ any) (any, error) {
			fn, ok := s.funcs.Lookup(recs.Token(token))
			if !ok {
				return nil, fmt.Errorf("unknown host function token %q", token)
			}
			return fn(rec), nil
		},
	}
	out, err := expr.Run(s.prog, env)
	if err != nil {
		return nil, fmt.Errorf("eval snippet %q: %w", s.src, err)
	}
	return out, nil
}

// Source returns the original snippet text, comments included.
func (s *Snippet) Source() string {
	return s.src
}

// stripComments removes "#" comment lines before handing the source to
// the expression compiler.
func stripComments(src string) string {
	lines := strings.Split(src, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// truthy applies the micro-language's truth convention to a snippet
// result: nil, false, empty strings, and numeric zero are false,
// everything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case uint64:
		return x != 0
	case float64:
		return x != 0
	case float32:
		return x != 0
	default:
		return true
	}
}
