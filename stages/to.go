package stages

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	recs "github.com/MullinsLab/App-RecordStream-Pipeline"
)

// toJSONStage renders each record as one JSON line.
type toJSONStage struct {
	next recs.Consumer
}

func newToJSON(_ recs.Env, args []string, next recs.Consumer) (recs.Stage, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("tojson: takes no arguments, got %v", args)
	}
	return &toJSONStage{next: next}, nil
}

func (s *toJSONStage) WantsInput() bool { return true }

func (s *toJSONStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	return acceptLineAsRecord(ctx, s, line)
}

func (s *toJSONStage) AcceptRecord(ctx context.Context, rec *recs.Record) (bool, error) {
	b, err := rec.MarshalJSON()
	if err != nil {
		return false, err
	}
	return s.next.AcceptLine(ctx, string(b))
}

func (s *toJSONStage) Finish(context.Context) error { return nil }

// toCSVStage renders records as CSV lines. The header comes from the
// first record's field order; later records are projected onto it,
// missing fields rendering empty.
type toCSVStage struct {
	next    recs.Consumer
	header  []string
	emitted bool
}

func newToCSV(_ recs.Env, args []string, next recs.Consumer) (recs.Stage, error) {
	// Explicit columns may be given as arguments; otherwise the first
	// record decides.
	return &toCSVStage{next: next, header: args}, nil
}

func (s *toCSVStage) WantsInput() bool { return true }

func (s *toCSVStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	return acceptLineAsRecord(ctx, s, line)
}

func (s *toCSVStage) AcceptRecord(ctx context.Context, rec *recs.Record) (bool, error) {
	if len(s.header) == 0 {
		s.header = rec.Keys()
	}
	if !s.emitted {
		line, err := csvLine(s.header)
		if err != nil {
			return false, err
		}
		more, err := s.next.AcceptLine(ctx, line)
		if err != nil || !more {
			return more, err
		}
		s.emitted = true
	}
	fields := make([]string, len(s.header))
	for i, key := range s.header {
		v, ok := rec.Get(key)
		if ok {
			fields[i] = formatValue(v)
		}
	}
	line, err := csvLine(fields)
	if err != nil {
		return false, err
	}
	return s.next.AcceptLine(ctx, line)
}

func (s *toCSVStage) Finish(context.Context) error { return nil }

// toTableStage buffers the whole stream and renders an aligned text
// table during Finish: header row, separator, one row per record.
// Columns are the union of all field names in first-seen order.
type toTableStage struct {
	next recs.Consumer
	buf  []*recs.Record
}

func newToTable(_ recs.Env, args []string, next recs.Consumer) (recs.Stage, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("totable: takes no arguments, got %v", args)
	}
	return &toTableStage{next: next}, nil
}

func (s *toTableStage) WantsInput() bool { return true }

func (s *toTableStage) AcceptLine(ctx context.Context, line string) (bool, error) {
	return acceptLineAsRecord(ctx, s, line)
}

func (s *toTableStage) AcceptRecord(_ context.Context, rec *recs.Record) (bool, error) {
	s.buf = append(s.buf, rec)
	return true, nil
}

func (s *toTableStage) Finish(ctx context.Context) error {
	if len(s.buf) == 0 {
		return nil
	}

	var columns []string
	seen := make(map[string]bool)
	for _, rec := range s.buf {
		for _, key := range rec.Keys() {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}
	rows := make([][]string, len(s.buf))
	for ri, rec := range s.buf {
		row := make([]string, len(columns))
		for ci, col := range columns {
			if v, ok := rec.Get(col); ok {
				row[ci] = formatValue(v)
			}
			if len(row[ci]) > widths[ci] {
				widths[ci] = len(row[ci])
			}
		}
		rows[ri] = row
	}

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, tableRow(columns, widths))
	seps := make([]string, len(columns))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	lines = append(lines, tableRow(seps, widths))
	for _, row := range rows {
		lines = append(lines, tableRow(row, widths))
	}

	for _, line := range lines {
		more, err := s.next.AcceptLine(ctx, line)
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

// tableRow joins cells padded to their column widths.
func tableRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
	}
	return strings.TrimRight(strings.Join(padded, "   "), " ")
}

// csvLine renders one CSV row without a trailing line terminator.
func csvLine(fields []string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(fields); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(sb.String(), "\r\n"), nil
}

// formatValue renders a field value as cell text; nil renders empty.
func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
