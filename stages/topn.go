package stages

import (
	"context"
	"fmt"
	"strconv"

	recs "github.com/MullinsLab/App-RecordStream-Pipeline"
)

// topnStage passes the first N records of each key group downstream,
// preserving arrival order. Despite the "to" prefix it produces
// records, not text - it is the reserved exception in the runner's
// text-stage naming convention.
type topnStage struct {
	next   recs.Consumer
	key    string
	limit  int
	counts map[string]int
}

func newTopN(_ recs.Env, args []string, next recs.Consumer) (recs.Stage, error) {
	s := &topnStage{next: next, limit: 10, counts: make(map[string]int)}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-k", "--key":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("topn: %s needs a field name", args[i])
			}
			i++
			s.key = args[i]
		case "-n":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("topn: -n needs a count")
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return nil, fmt.Errorf("topn: bad count %q: %w", args[i], err)
			}
			s.limit = n
		default:
			return nil, fmt.Errorf("topn: unknown argument %q", args[i])
		}
	}
	if s.key == "" {
		return nil, fmt.Errorf("topn: want a key field (-k)")
	}
	return s, nil
}

func (s *topnStage) WantsInput() bool { return true }

func (s *topnStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	return acceptLineAsRecord(ctx, s, line)
}

func (s *topnStage) AcceptRecord(ctx context.Context, rec *recs.Record) (bool, error) {
	v, _ := rec.Get(s.key)
	group := fmt.Sprint(v)
	if s.counts[group] >= s.limit {
		return true, nil
	}
	s.counts[group]++
	return s.next.AcceptRecord(ctx, rec)
}

func (s *topnStage) Finish(context.Context) error { return nil }
