package stages

import (
	"context"

	recs "github.com/MullinsLab/App-RecordStream-Pipeline"
)

// Register installs the builtin stage catalog into a registry.
func Register(r *recs.Registry) {
	r.Register("fromjson", newFromJSON)
	r.Register("fromcsv", newFromCSV)
	r.Register("grep", newGrep)
	r.Register("xform", newXform)
	r.Register("head", newHead)
	r.Register("sort", newSort)
	r.Register("topn", newTopN)
	r.Register("tojson", newToJSON)
	r.Register("tocsv", newToCSV)
	r.Register("totable", newToTable)
}

// DefaultRegistry returns a fresh registry holding the builtin catalog.
func DefaultRegistry() *recs.Registry {
	r := recs.NewRegistry()
	Register(r)
	return r
}

// acceptLineAsRecord adapts a pushed line for a record-oriented stage by
// decoding it from the JSON-line wire format and re-dispatching to the
// stage's record operation.
func acceptLineAsRecord(ctx context.Context, s recs.Consumer, line string) (bool, error) {
	rec, err := recs.ParseRecord(line)
	if err != nil {
		return false, err
	}
	return s.AcceptRecord(ctx, rec)
}
