package recs

// Call is one stage invocation in a pipeline: a stage name plus its
// ordered arguments. Immutable once created.
type Call struct {
	Name Name
	Args []Arg
}

// Pipeline is an immutable, ordered sequence of stage calls. Every
// builder operation returns a new value, so a partially-built pipeline
// can branch into several variants without interference:
//
//	base := recs.NewPipeline().Call("grep", recs.String(`record.ok`))
//	asTable := base.Call("totable")
//	asCSV := base.Call("tocsv")
//
// Execution order equals call order: p.Call("sort").Call("head") sorts
// before truncating. No validation of stage names or arguments happens
// here - a pipeline may be declared before the stage registry is
// populated; names resolve at compilation, when a run begins.
type Pipeline struct {
	calls []Call
}

// NewPipeline creates a pipeline with no stages.
func NewPipeline() Pipeline {
	return Pipeline{}
}

// Call returns a new pipeline with the named stage appended after all
// of the receiver's existing stages.
func (p Pipeline) Call(name Name, args ...Arg) Pipeline {
	calls := make([]Call, len(p.calls), len(p.calls)+1)
	copy(calls, p.calls)
	return Pipeline{calls: append(calls, Call{Name: name, Args: args})}
}

// Concat returns a new pipeline running the receiver's stages followed
// by other's stages. Concat is associative: grouping does not change
// execution order.
func (p Pipeline) Concat(other Pipeline) Pipeline {
	calls := make([]Call, 0, len(p.calls)+len(other.calls))
	calls = append(calls, p.calls...)
	calls = append(calls, other.calls...)
	return Pipeline{calls: calls}
}

// Calls returns the pipeline's stage calls in execution order. The
// returned slice is a copy.
func (p Pipeline) Calls() []Call {
	calls := make([]Call, len(p.calls))
	copy(calls, p.calls)
	return calls
}

// Len returns the number of stage calls.
func (p Pipeline) Len() int {
	return len(p.calls)
}

// last returns the final stage call, the one the runner's result policy
// inspects.
func (p Pipeline) last() (Call, bool) {
	if len(p.calls) == 0 {
		return Call{}, false
	}
	return p.calls[len(p.calls)-1], true
}
