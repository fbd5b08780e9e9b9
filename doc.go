// Package recs provides a programmatic builder and execution engine for
// pipelines of record-transformation stages - the in-process equivalent
// of composing a sequence of command-line filters.
//
// # Overview
//
// Callers declare an ordered sequence of named stages with arguments,
// then execute that sequence against one input. The declaration is
// cheap and unvalidated; compilation resolves stage names against a
// registry, links stage instances tail-first into a chain ending in a
// sink, and a runner drives input units through the chain one push at a
// time until the sink materializes a result.
//
//	p := recs.NewPipeline().
//	    Call("grep", recs.String(`record.status == "ok"`)).
//	    Call("sort", recs.String("name")).
//	    Call("totable")
//
//	runner := recs.NewRunner(registry)
//	result, err := runner.Run(ctx, p, recs.FromReader(os.Stdin))
//
// # Core Concepts
//
//   - Pipeline: an immutable, ordered list of stage calls. Builder
//     operations return new values, so partial pipelines can branch and
//     be reused. Concatenation is associative.
//   - Stage: the capability contract a stage implementation satisfies -
//     accept a line, accept a record, report whether it wants input at
//     all, and finish. Concrete stages are external; the stages
//     subpackage ships a reference catalog.
//   - Chain: the compiled form, one node per stage call, terminating in
//     exactly one sink. Compilation is tail-first because every stage is
//     constructed with its downstream already known and pushes eagerly.
//   - Sink: the terminal consumer, either collecting records as plain
//     mappings or streaming lines to a writer. Sinks satisfy the same
//     two-operation contract as a chain node's downstream, which is what
//     lets a chain terminate uniformly.
//   - Host-function bridge: a runner-scoped registry that converts Go
//     closures supplied as stage arguments into snippet text a stage's
//     expression evaluator can call back through, since stages only
//     understand textual configuration.
//
// # Execution Model
//
// Execution is single-threaded, synchronous, and push-based: one input
// unit pushed into the head results in nested calls all the way to the
// sink before the next unit is read. There is no buffering between
// stages beyond what a stage retains internally. Early termination is a
// return value, not a cancellation signal - a stage returning false
// stops the driving loop from supplying further input, and for
// streaming sources stops reads entirely, but the head's Finish always
// runs after a clean exhaustion or a stop. Errors abort the whole run
// synchronously; there are no retries or partial results.
//
// # Result Policy
//
// Run infers the result shape rather than asking the caller up front:
// an explicit output writer wins, a text-producing final stage (by
// naming convention, "to"-prefixed with "topn" excepted) yields
// accumulated text, and anything else yields the collected records. See
// Runner.Run for details.
package recs
