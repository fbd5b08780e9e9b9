package stages

import (
	"context"
	"fmt"

	recs "github.com/MullinsLab/App-RecordStream-Pipeline"
)

// xformStage rewrites records through a snippet. A snippet returning a
// mapping replaces the record; a nil result keeps the record, which is
// how host functions that mutate the record in place are used.
type xformStage struct {
	next recs.Consumer
	expr *Snippet
}

func newXform(env recs.Env, args []string, next recs.Consumer) (recs.Stage, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("xform: want one expression argument, got %d", len(args))
	}
	snip, err := CompileSnippet(args[0], env.Funcs)
	if err != nil {
		return nil, fmt.Errorf("xform: %w", err)
	}
	return &xformStage{next: next, expr: snip}, nil
}

func (s *xformStage) WantsInput() bool { return true }

func (s *xformStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	return acceptLineAsRecord(ctx, s, line)
}

func (s *xformStage) AcceptRecord(ctx context.Context, rec *recs.Record) (bool, error) {
	v, err := s.expr.Eval(rec)
	if err != nil {
		return false, err
	}
	switch out := v.(type) {
	case nil:
		return s.next.AcceptRecord(ctx, rec)
	case *recs.Record:
		return s.next.AcceptRecord(ctx, out)
	case map[string]any:
		return s.next.AcceptRecord(ctx, recs.RecordFromMap(out))
	default:
		return false, fmt.Errorf("xform: snippet %q returned %T, want record, mapping, or nil", s.expr.Source(), v)
	}
}

func (s *xformStage) Finish(context.Context) error { return nil }
