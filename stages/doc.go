// Package stages ships the builtin stage catalog for the pipeline
// engine: JSON and CSV sources, expression-driven filtering and
// transformation, sorting, truncation, grouping, and text formatters.
//
// Expression arguments ("snippets") are evaluated per record with the
// current record bound as "record", and support the host-function
// invocation instruction emitted by the engine's bridge, so Go closures
// passed with recs.Func ride through any snippet-taking stage:
//
//	reg := stages.DefaultRegistry()
//	runner := recs.NewRunner(reg)
//	p := recs.NewPipeline().
//	    Call("grep", recs.Func(func(r *recs.Record) any {
//	        v, _ := r.Get("count")
//	        n, _ := v.(float64)
//	        return n > 10
//	    })).
//	    Call("totable")
//
// Stage names follow the recs convention the runner's result policy
// relies on: "to"-prefixed stages format records into text, except
// topn, which produces records.
package stages
