package recs

import "context"

// Name is a type alias for stage and pipeline names.
// Using this type encourages storing names as constants rather than
// using inline strings throughout your code.
type Name = string

// Consumer is the downstream half of the stage contract: the operations
// a stage uses to push output to whatever comes next in the chain.
//
// Both compiled chain nodes and sinks implement Consumer, which is what
// lets a chain terminate uniformly - a sink is substitutable anywhere a
// "next" is expected.
//
// Accept methods return a continue flag and an error. Returning false
// with a nil error is the stop signal: the caller should stop supplying
// further units (for example a stage that only wants the first N
// records). Returning a non-nil error aborts the entire run; errors are
// never downgraded to stop signals.
type Consumer interface {
	// AcceptLine consumes one line of raw text, already stripped of its
	// trailing line terminator.
	AcceptLine(ctx context.Context, line string) (bool, error)

	// AcceptRecord consumes one structured record.
	AcceptRecord(ctx context.Context, rec *Record) (bool, error)
}

// Stage is the capability contract every stage implementation must
// satisfy. The engine only depends on this interface; concrete stages
// live outside the core (see the stages package for the builtin catalog).
//
// A stage is constructed by its Factory with its downstream already
// known and pushes output eagerly via that downstream's Accept methods.
// Stage instances may hold internal mutable state (buffering stages) and
// are never reused across runs.
type Stage interface {
	Consumer

	// WantsInput reports whether this stage expects pushed input at all.
	// Self-generating source stages (for example a file-reading stage
	// given its files as arguments) return false; the driving loop then
	// feeds nothing and relies on Finish to produce output.
	WantsInput() bool

	// Finish is called exactly once after input is exhausted or an early
	// stop, and is where buffering stages (sort, group-by, table
	// rendering) flush accumulated output downstream. A stage only
	// flushes its own buffer; the chain cascades Finish to downstream
	// nodes after the upstream flush completes.
	Finish(ctx context.Context) error
}

// Env carries runner-scoped services available to stage factories at
// compilation time. Scoping the host-function registry here, rather than
// in process-wide state, keeps unrelated pipelines from leaking
// registrations into each other.
type Env struct {
	// Funcs resolves host-function tokens embedded in snippet arguments.
	Funcs *FuncRegistry
}

// Factory constructs one stage instance from its resolved arguments and
// downstream. Argument lists contain only literals by the time a factory
// sees them: host-function arguments have already been bridged into
// snippet text. Factories should validate their arguments and fail
// construction rather than deferring bad configuration to run time.
type Factory func(env Env, args []string, next Consumer) (Stage, error)
