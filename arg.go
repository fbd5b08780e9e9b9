package recs

// Arg is one argument to a stage call: a tagged union of a literal
// configuration string or a host function. Stage implementations only
// understand textual configuration, so host-function arguments are
// bridged into snippet text at compilation time (see FuncRegistry).
// An Arg is immutable once created.
type Arg struct {
	literal string
	fn      RecordFunc
}

// String creates a literal string argument.
func String(s string) Arg {
	return Arg{literal: s}
}

// Func creates a host-function argument. The function is not registered
// until the pipeline is compiled.
func Func(fn RecordFunc) Arg {
	return Arg{fn: fn}
}

// IsFunc reports whether the argument carries a host function rather
// than a literal.
func (a Arg) IsFunc() bool {
	return a.fn != nil
}

// resolve produces the textual form of the argument, bridging host
// functions through the given registry.
func (a Arg) resolve(funcs *FuncRegistry) (string, error) {
	if a.fn == nil {
		return a.literal, nil
	}
	return funcs.Bridge(a.fn)
}
