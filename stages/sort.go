package stages

import (
	"context"
	"fmt"
	"sort"
	"strings"

	recs "github.com/MullinsLab/App-RecordStream-Pipeline"
)

// sortStage buffers the whole stream and flushes it in field order
// during Finish. Numbers compare numerically, everything else compares
// as text; missing fields sort first.
type sortStage struct {
	next    recs.Consumer
	fields  []string
	reverse bool
	buf     []*recs.Record
}

func newSort(_ recs.Env, args []string, next recs.Consumer) (recs.Stage, error) {
	s := &sortStage{next: next}
	for _, arg := range args {
		if arg == "-r" {
			s.reverse = true
			continue
		}
		s.fields = append(s.fields, arg)
	}
	if len(s.fields) == 0 {
		return nil, fmt.Errorf("sort: want at least one field to sort by")
	}
	return s, nil
}

func (s *sortStage) WantsInput() bool { return true }

func (s *sortStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	return acceptLineAsRecord(ctx, s, line)
}

func (s *sortStage) AcceptRecord(_ context.Context, rec *recs.Record) (bool, error) {
	s.buf = append(s.buf, rec)
	return true, nil
}

func (s *sortStage) Finish(ctx context.Context) error {
	sort.SliceStable(s.buf, func(i, j int) bool {
		c := s.compare(s.buf[i], s.buf[j])
		if s.reverse {
			return c > 0
		}
		return c < 0
	})
	for _, rec := range s.buf {
		more, err := s.next.AcceptRecord(ctx, rec)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	s.buf = nil
	return nil
}

func (s *sortStage) compare(a, b *recs.Record) int {
	for _, field := range s.fields {
		av, aok := a.Get(field)
		bv, bok := b.Get(field)
		if !aok || !bok {
			if aok != bok {
				if !aok {
					return -1
				}
				return 1
			}
			continue
		}
		if c := compareValues(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

// compareValues orders two field values: numerically when both are
// numbers, textually otherwise.
func compareValues(a, b any) int {
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
