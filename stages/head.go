package stages

import (
	"context"
	"fmt"
	"strconv"

	recs "github.com/MullinsLab/App-RecordStream-Pipeline"
)

// headStage passes the first N units downstream and then signals the
// driving loop to stop supplying input. It is format-agnostic: lines
// and records both count and both pass through untouched.
type headStage struct {
	next  recs.Consumer
	limit int
	seen  int
}

func newHead(_ recs.Env, args []string, next recs.Consumer) (recs.Stage, error) {
	limit := 10
	switch {
	case len(args) == 0:
	case len(args) == 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("head: bad count %q: %w", args[0], err)
		}
		limit = n
	case len(args) == 2 && args[0] == "-n":
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("head: bad count %q: %w", args[1], err)
		}
		limit = n
	default:
		return nil, fmt.Errorf("head: want [-n] count, got %v", args)
	}
	if limit < 0 {
		return nil, fmt.Errorf("head: count must be non-negative, got %d", limit)
	}
	return &headStage{next: next, limit: limit}, nil
}

func (s *headStage) WantsInput() bool { return true }

func (s *headStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	if s.seen >= s.limit {
		return false, nil
	}
	s.seen++
	more, err := s.next.AcceptLine(ctx, line)
	if err != nil {
		return false, err
	}
	return more && s.seen < s.limit, nil
}

func (s *headStage) AcceptRecord(ctx context.Context, rec *recs.Record) (bool, error) {
	if s.seen >= s.limit {
		return false, nil
	}
	s.seen++
	more, err := s.next.AcceptRecord(ctx, rec)
	if err != nil {
		return false, err
	}
	return more && s.seen < s.limit, nil
}

func (s *headStage) Finish(context.Context) error { return nil }
