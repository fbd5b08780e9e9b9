package recs

import (
	"context"
	"io"
)

// RecordSink collects records as plain mappings, in arrival order. It
// satisfies the same Consumer contract as a chain node, so it can
// terminate any chain. A line pushed at a record sink is decoded from
// the JSON-line wire format before collection.
type RecordSink struct {
	Records []map[string]any
}

// NewRecordSink creates an empty record-collecting sink.
func NewRecordSink() *RecordSink {
	return &RecordSink{}
}

// AcceptRecord implements Consumer, appending the record's plain-map
// conversion.
func (s *RecordSink) AcceptRecord(_ context.Context, rec *Record) (bool, error) {
	s.Records = append(s.Records, rec.Map())
	return true, nil
}

// AcceptLine implements Consumer, decoding the line as a JSON record.
func (s *RecordSink) AcceptLine(_ context.Context, line string) (bool, error) {
	rec, err := ParseRecord(line)
	if err != nil {
		return false, err
	}
	s.Records = append(s.Records, rec.Map())
	return true, nil
}

// LineSink streams lines to a destination writer, appending exactly one
// line terminator per accept. A record pushed at a line sink is written
// as its JSON-line encoding. The sink never closes the destination: the
// writer is caller-owned, except for the in-memory buffer the runner
// allocates for text-producing pipelines, which the runner itself
// flushes.
type LineSink struct {
	w      io.Writer
	target string
}

// NewLineSink creates a streaming sink bound to a destination.
func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: w, target: sinkLabel(w)}
}

// AcceptLine implements Consumer.
func (s *LineSink) AcceptLine(_ context.Context, line string) (bool, error) {
	if _, err := io.WriteString(s.w, line+"\n"); err != nil {
		return false, &IOError{Op: "write", Target: s.target, Err: err}
	}
	return true, nil
}

// AcceptRecord implements Consumer.
func (s *LineSink) AcceptRecord(ctx context.Context, rec *Record) (bool, error) {
	b, err := rec.MarshalJSON()
	if err != nil {
		return false, err
	}
	return s.AcceptLine(ctx, string(b))
}

// sinkLabel names a writer for error attribution, mirroring sourceLabel
// on the input side.
func sinkLabel(w io.Writer) string {
	if n, ok := w.(interface{ Name() string }); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return "output"
}
