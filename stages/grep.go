package stages

import (
	"context"
	"fmt"

	recs "github.com/MullinsLab/App-RecordStream-Pipeline"
)

// grepStage keeps records whose snippet evaluates truthy.
type grepStage struct {
	next recs.Consumer
	expr *Snippet
}

func newGrep(env recs.Env, args []string, next recs.Consumer) (recs.Stage, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("grep: want one expression argument, got %d", len(args))
	}
	snip, err := CompileSnippet(args[0], env.Funcs)
	if err != nil {
		return nil, fmt.Errorf("grep: %w", err)
	}
	return &grepStage{next: next, expr: snip}, nil
}

func (s *grepStage) WantsInput() bool { return true }

func (s *grepStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	return acceptLineAsRecord(ctx, s, line)
}

func (s *grepStage) AcceptRecord(ctx context.Context, rec *recs.Record) (bool, error) {
	v, err := s.expr.Eval(rec)
	if err != nil {
		return false, err
	}
	if !truthy(v) {
		return true, nil
	}
	return s.next.AcceptRecord(ctx, rec)
}

func (s *grepStage) Finish(context.Context) error { return nil }
