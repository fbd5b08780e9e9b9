package stages

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	recs "github.com/MullinsLab/App-RecordStream-Pipeline"
)

// fromJSONStage parses JSON lines into records. Given file arguments it
// becomes a self-generating source: it wants no pushed input and reads
// its files when finalized.
type fromJSONStage struct {
	next  recs.Consumer
	files []string
}

func newFromJSON(_ recs.Env, args []string, next recs.Consumer) (recs.Stage, error) {
	return &fromJSONStage{next: next, files: args}, nil
}

func (s *fromJSONStage) WantsInput() bool { return len(s.files) == 0 }

func (s *fromJSONStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	rec, err := recs.ParseRecord(line)
	if err != nil {
		return false, err
	}
	return s.next.AcceptRecord(ctx, rec)
}

func (s *fromJSONStage) AcceptRecord(ctx context.Context, rec *recs.Record) (bool, error) {
	return s.next.AcceptRecord(ctx, rec)
}

func (s *fromJSONStage) Finish(ctx context.Context) error {
	for _, path := range s.files {
		more, err := s.emitFile(ctx, path)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

func (s *fromJSONStage) emitFile(ctx context.Context, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, &recs.IOError{Op: "open", Target: path, Err: err}
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		rec, err := recs.ParseRecord(scanner.Text())
		if err != nil {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		more, err := s.next.AcceptRecord(ctx, rec)
		if err != nil {
			return false, err
		}
		if !more {
			return false, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, &recs.IOError{Op: "read", Target: path, Err: err}
	}
	return true, nil
}

// fromCSVStage parses CSV into records, the first row of each source
// naming the fields. Like fromjson, file arguments turn it into a
// self-generating source.
type fromCSVStage struct {
	next   recs.Consumer
	files  []string
	header []string
}

func newFromCSV(_ recs.Env, args []string, next recs.Consumer) (recs.Stage, error) {
	return &fromCSVStage{next: next, files: args}, nil
}

func (s *fromCSVStage) WantsInput() bool { return len(s.files) == 0 }

func (s *fromCSVStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	fields, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return false, fmt.Errorf("parse csv line: %w", err)
	}
	if s.header == nil {
		s.header = fields
		return true, nil
	}
	return s.next.AcceptRecord(ctx, csvRecord(s.header, fields))
}

func (s *fromCSVStage) AcceptRecord(ctx context.Context, rec *recs.Record) (bool, error) {
	return s.next.AcceptRecord(ctx, rec)
}

func (s *fromCSVStage) Finish(ctx context.Context) error {
	for _, path := range s.files {
		more, err := s.emitFile(ctx, path)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

func (s *fromCSVStage) emitFile(ctx context.Context, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, &recs.IOError{Op: "open", Target: path, Err: err}
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fields, err := r.Read()
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		more, err := s.next.AcceptRecord(ctx, csvRecord(header, fields))
		if err != nil {
			return false, err
		}
		if !more {
			return false, nil
		}
	}
}

// csvRecord pairs header names with row fields in column order; short
// rows leave trailing fields empty.
func csvRecord(header, fields []string) *recs.Record {
	rec := recs.NewRecord()
	for i, key := range header {
		if i < len(fields) {
			rec.Set(key, fields[i])
		} else {
			rec.Set(key, "")
		}
	}
	return rec
}
