package recs

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"
)

// RecordFunc is a caller-supplied closure usable as a stage argument:
// it receives the current record and returns an arbitrary value whose
// interpretation (predicate, replacement record, computed field) is up
// to the stage evaluating it.
type RecordFunc func(*Record) any

// Token is an opaque key identifying one registered host function.
type Token string

// RecordBinding is the well-known name the current record is bound to
// in snippet text. The bridge emits invocation instructions against this
// binding, and every snippet evaluator must provide it.
const RecordBinding = "record"

// CallFunction is the name of the builtin a snippet evaluator must
// support to resolve bridged host functions: call(token, record) looks
// up the token and invokes the registered function with the current
// record.
const CallFunction = "call"

// FuncRegistry maps tokens to registered host functions. It is the
// escape hatch that lets host closures ride through a stage argument
// channel that only understands text: Bridge registers the closure and
// emits snippet text instructing the stage's evaluator to call it back.
//
// A registry is scoped to one Runner. Registration is append-only and
// tokens are never reclaimed during the registry's lifetime; unbounded
// growth is an accepted limitation for short-lived batch runs and a
// liability for long-lived embeddings that keep bridging fresh closures
// into the same runner.
//
// The engine itself is single-threaded, but registration is guarded by
// a mutex so concurrent embeddings that share a runner do not need
// their own synchronization.
type FuncRegistry struct {
	mu      sync.Mutex
	seq     int
	byToken map[Token]RecordFunc
	// Keyed by reflect.Value, which compares by the closure's identity
	// rather than its code pointer: two closures created from the same
	// function literal capture different state and must not collide.
	byFn map[reflect.Value]Token
}

// NewFuncRegistry creates an empty host-function registry.
func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{
		byToken: make(map[Token]RecordFunc),
		byFn:    make(map[reflect.Value]Token),
	}
}

// Register adds a host function and returns its token. Registering the
// same function instance again returns the original token.
func (g *FuncRegistry) Register(fn RecordFunc) (Token, error) {
	if g == nil {
		return "", &RegistrationError{Err: errors.New("no function registry available")}
	}
	if fn == nil {
		return "", &RegistrationError{Err: errors.New("function is nil")}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := reflect.ValueOf(fn)
	if tok, ok := g.byFn[key]; ok {
		return tok, nil
	}
	g.seq++
	tok := Token(fmt.Sprintf("fn-%d", g.seq))
	g.byToken[tok] = fn
	g.byFn[key] = tok
	return tok, nil
}

// Lookup resolves a token to its registered function. Snippet
// evaluators use this to execute the bridge's invocation instruction.
func (g *FuncRegistry) Lookup(tok Token) (RecordFunc, bool) {
	if g == nil {
		return nil, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	fn, ok := g.byToken[tok]
	return fn, ok
}

// Len returns the number of registered functions.
func (g *FuncRegistry) Len() int {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.byToken)
}

// Bridge registers a host function and returns snippet text encoding an
// invocation instruction for it: call the registered function with the
// current record as the argument. The emitted text is valid in the
// snippet micro-language the builtin stages evaluate, and any external
// evaluator only has to support the call builtin and the record binding
// to honor it.
//
// The leading comment line names the function's source symbol when the
// runtime can recover it, purely as a debugging aid.
func (g *FuncRegistry) Bridge(fn RecordFunc) (string, error) {
	tok, err := g.Register(fn)
	if err != nil {
		return "", err
	}

	instruction := fmt.Sprintf("%s(%q, %s)", CallFunction, string(tok), RecordBinding)
	if sym := funcSymbol(fn); sym != "" {
		return fmt.Sprintf("# host function %s\n%s", sym, instruction), nil
	}
	return instruction, nil
}

// funcSymbol returns a best-effort source-symbol name for a function
// value, or "" when unavailable.
func funcSymbol(fn RecordFunc) string {
	rf := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if rf == nil {
		return ""
	}
	return rf.Name()
}
