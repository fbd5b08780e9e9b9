package recs

import "context"

// chainNode is one compiled, linked unit of a chain: a stage instance
// plus its downstream, which is either the next node or the terminal
// sink. The stage was constructed with the downstream already known and
// pushes into it directly; the node exists to delegate accepts and to
// cascade Finish down the chain, since sinks carry no Finish of their
// own.
type chainNode struct {
	name  Name
	stage Stage
	next  Consumer
}

// AcceptLine implements Consumer.
func (n *chainNode) AcceptLine(ctx context.Context, line string) (bool, error) {
	return n.stage.AcceptLine(ctx, line)
}

// AcceptRecord implements Consumer.
func (n *chainNode) AcceptRecord(ctx context.Context, rec *Record) (bool, error) {
	return n.stage.AcceptRecord(ctx, rec)
}

// Finish flushes this node's stage and then finalizes downstream nodes,
// so a buffering stage's flush lands before the stage below it
// finalizes.
func (n *chainNode) Finish(ctx context.Context) error {
	if err := n.stage.Finish(ctx); err != nil {
		return err
	}
	if next, ok := n.next.(*chainNode); ok {
		return next.Finish(ctx)
	}
	return nil
}

// chain is a compiled pipeline: a linked sequence of nodes terminating
// in exactly one sink. head is nil when the pipeline had zero stages,
// in which case input units flow straight into the sink.
type chain struct {
	head *chainNode
	sink Consumer
}

// consumer returns where input units should be pushed.
func (c *chain) consumer() Consumer {
	if c.head == nil {
		return c.sink
	}
	return c.head
}

// compile turns a pipeline plus a terminal sink into a runnable chain.
//
// Compilation is tail-first: the node for stage i needs the node for
// stage i+1 (or the sink) to exist first, because each stage instance
// is constructed with its downstream already known. Host-function
// arguments are bridged into snippet text here, before the factory sees
// them, so factories only ever receive literals. Unknown stage names
// and failed registrations surface from this step; nothing is validated
// earlier.
//
// Each run compiles afresh - stage instances may hold mutable state and
// are never shared between runs.
func compile(p Pipeline, reg *Registry, env Env, sink Consumer) (*chain, error) {
	calls := p.Calls()
	next := sink

	var head *chainNode
	for i := len(calls) - 1; i >= 0; i-- {
		call := calls[i]

		args := make([]string, len(call.Args))
		for j, arg := range call.Args {
			text, err := arg.resolve(env.Funcs)
			if err != nil {
				return nil, err
			}
			args[j] = text
		}

		factory, err := reg.Resolve(call.Name)
		if err != nil {
			return nil, err
		}
		stage, err := factory(env, args, next)
		if err != nil {
			return nil, err
		}

		head = &chainNode{name: call.Name, stage: stage, next: next}
		next = head
	}

	return &chain{head: head, sink: sink}, nil
}
