package recs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// maxLine bounds the length of a single streamed input line.
const maxLine = 1 << 20

// Input is one source of units to drive through a compiled chain. The
// three shapes a run accepts are fixed by construction - FromReader,
// FromLines, and FromRecords/FromMaps - so there is no runtime shape
// sniffing and no "unrecognized input" failure mode.
//
// Every shape honors the stop signal: once the head stage returns
// false, no further units are pushed, and for streaming sources no
// further lines are read at all.
type Input interface {
	// drive pushes the input's units into dst in order. It reports the
	// number of units pushed and whether the consumer stopped early.
	drive(ctx context.Context, dst Consumer) (units int, stopped bool, err error)
}

// FromReader creates a line-streaming input: one unit per line, with
// the trailing line terminator stripped. Lines are read lazily, so a
// stop signal from the chain saves the remaining reads - this is what
// lets a "first N" stage avoid consuming an entire stream.
//
// The source is labeled for error attribution: "<stdin>" for the
// process standard input, the file name for files, and a label
// synthesized from the value's type otherwise.
func FromReader(r io.Reader) Input {
	return &streamInput{r: r, label: sourceLabel(r)}
}

// FromLines creates an input from already-materialized lines. There are
// no reads to save, but stop signals are still honored for uniformity
// with streaming sources.
func FromLines(lines ...string) Input {
	return linesInput(lines)
}

// FromRecords creates an input from already-materialized records,
// pushed via the record-accepting operation in order.
func FromRecords(records ...*Record) Input {
	return recordsInput(records)
}

// FromMaps creates a record input from plain mappings, wrapping each as
// a Record (fields in sorted order, as with RecordFromMap).
func FromMaps(maps ...map[string]any) Input {
	records := make([]*Record, len(maps))
	for i, m := range maps {
		records[i] = RecordFromMap(m)
	}
	return recordsInput(records)
}

type streamInput struct {
	r     io.Reader
	label string
}

func (in *streamInput) drive(ctx context.Context, dst Consumer) (int, bool, error) {
	scanner := bufio.NewScanner(in.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	units := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return units, false, err
		}
		more, err := dst.AcceptLine(ctx, scanner.Text())
		if err != nil {
			return units, false, err
		}
		units++
		if !more {
			return units, true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return units, false, &IOError{Op: "read", Target: in.label, Err: err}
	}
	return units, false, nil
}

type linesInput []string

func (in linesInput) drive(ctx context.Context, dst Consumer) (int, bool, error) {
	units := 0
	for _, line := range in {
		if err := ctx.Err(); err != nil {
			return units, false, err
		}
		more, err := dst.AcceptLine(ctx, line)
		if err != nil {
			return units, false, err
		}
		units++
		if !more {
			return units, true, nil
		}
	}
	return units, false, nil
}

type recordsInput []*Record

func (in recordsInput) drive(ctx context.Context, dst Consumer) (int, bool, error) {
	units := 0
	for _, rec := range in {
		if err := ctx.Err(); err != nil {
			return units, false, err
		}
		more, err := dst.AcceptRecord(ctx, rec)
		if err != nil {
			return units, false, err
		}
		units++
		if !more {
			return units, true, nil
		}
	}
	return units, false, nil
}

// sourceLabel names a reader for error attribution, best-effort.
func sourceLabel(r io.Reader) string {
	if f, ok := r.(*os.File); ok {
		if f == os.Stdin {
			return "<stdin>"
		}
		if name := f.Name(); name != "" {
			return name
		}
	}
	if n, ok := r.(interface{ Name() string }); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%T", r)
}
