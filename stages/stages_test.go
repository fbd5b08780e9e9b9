package stages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	recs "github.com/MullinsLab/App-RecordStream-Pipeline"
)

// runPipeline drives input through a pipeline over the builtin catalog
// and returns the materialized result.
func runPipeline(t *testing.T, p recs.Pipeline, in recs.Input, opts ...recs.RunOption) *recs.Result {
	t.Helper()
	runner := recs.NewRunner(DefaultRegistry())
	t.Cleanup(runner.Close)

	result, err := runner.Run(context.Background(), p, in, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func runPipelineErr(t *testing.T, p recs.Pipeline, in recs.Input) error {
	t.Helper()
	runner := recs.NewRunner(DefaultRegistry())
	t.Cleanup(runner.Close)

	_, err := runner.Run(context.Background(), p, in)
	if err == nil {
		t.Fatal("expected an error")
	}
	return err
}

func TestGrep(t *testing.T) {
	t.Run("Keeps Matching Records", func(t *testing.T) {
		p := recs.NewPipeline().Call("grep", recs.String(`record.status == "ok"`))
		in := recs.FromLines(
			`{"status":"ok","n":1}`,
			`{"status":"bad","n":2}`,
			`{"status":"ok","n":3}`,
		)

		result := runPipeline(t, p, in)
		want := []map[string]any{
			{"status": "ok", "n": float64(1)},
			{"status": "ok", "n": float64(3)},
		}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Host Function Predicate", func(t *testing.T) {
		p := recs.NewPipeline().Call("grep", recs.Func(func(rec *recs.Record) any {
			v, _ := rec.Get("n")
			return v.(float64) > 1
		}))
		in := recs.FromLines(`{"n":1}`, `{"n":2}`)

		result := runPipeline(t, p, in)
		want := []map[string]any{{"n": float64(2)}}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Wants One Argument", func(t *testing.T) {
		err := runPipelineErr(t, recs.NewPipeline().Call("grep"), recs.FromLines())
		if !strings.Contains(err.Error(), "grep") {
			t.Errorf("expected grep in error, got %v", err)
		}
	})
}

func TestXform(t *testing.T) {
	t.Run("Mapping Result Replaces Record", func(t *testing.T) {
		p := recs.NewPipeline().Call("xform", recs.String(`{doubled: record.n * 2}`))
		in := recs.FromLines(`{"n":3}`)

		result := runPipeline(t, p, in)
		want := []map[string]any{{"doubled": float64(6)}}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Host Function Mutates In Place", func(t *testing.T) {
		p := recs.NewPipeline().Call("xform", recs.Func(func(rec *recs.Record) any {
			rec.Set("tag", "seen")
			return nil
		}))
		in := recs.FromLines(`{"n":1}`)

		result := runPipeline(t, p, in)
		want := []map[string]any{{"n": float64(1), "tag": "seen"}}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Scalar Result Is An Error", func(t *testing.T) {
		p := recs.NewPipeline().Call("xform", recs.String(`record.n`))
		err := runPipelineErr(t, p, recs.FromLines(`{"n":1}`))
		if !strings.Contains(err.Error(), "xform") {
			t.Errorf("expected xform in error, got %v", err)
		}
	})
}

func TestHead(t *testing.T) {
	t.Run("Truncates After Count", func(t *testing.T) {
		p := recs.NewPipeline().Call("head", recs.String("2"))
		in := recs.FromLines(`{"n":1}`, `{"n":2}`, `{"n":3}`, `{"n":4}`)

		result := runPipeline(t, p, in)
		want := []map[string]any{{"n": float64(1)}, {"n": float64(2)}}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Flag Form", func(t *testing.T) {
		p := recs.NewPipeline().Call("head", recs.String("-n"), recs.String("1"))
		in := recs.FromLines(`{"n":1}`, `{"n":2}`)

		result := runPipeline(t, p, in)
		if len(result.Records) != 1 {
			t.Errorf("expected 1 record, got %d", len(result.Records))
		}
	})

	t.Run("Bad Count Fails At Compilation", func(t *testing.T) {
		p := recs.NewPipeline().Call("head", recs.String("many"))
		err := runPipelineErr(t, p, recs.FromLines())
		if !strings.Contains(err.Error(), "head") {
			t.Errorf("expected head in error, got %v", err)
		}
	})
}

func TestSort(t *testing.T) {
	t.Run("Orders Numbers Numerically", func(t *testing.T) {
		p := recs.NewPipeline().Call("sort", recs.String("n"))
		in := recs.FromLines(`{"n":10}`, `{"n":2}`, `{"n":1}`)

		result := runPipeline(t, p, in)
		want := []map[string]any{{"n": float64(1)}, {"n": float64(2)}, {"n": float64(10)}}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Reverse Flag", func(t *testing.T) {
		p := recs.NewPipeline().Call("sort", recs.String("-r"), recs.String("n"))
		in := recs.FromLines(`{"n":1}`, `{"n":3}`, `{"n":2}`)

		result := runPipeline(t, p, in)
		want := []map[string]any{{"n": float64(3)}, {"n": float64(2)}, {"n": float64(1)}}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Missing Field Sorts First", func(t *testing.T) {
		p := recs.NewPipeline().Call("sort", recs.String("n"))
		in := recs.FromLines(`{"n":1}`, `{"other":true}`)

		result := runPipeline(t, p, in)
		want := []map[string]any{{"other": true}, {"n": float64(1)}}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Wants A Field", func(t *testing.T) {
		err := runPipelineErr(t, recs.NewPipeline().Call("sort"), recs.FromLines())
		if !strings.Contains(err.Error(), "sort") {
			t.Errorf("expected sort in error, got %v", err)
		}
	})
}

func TestTopN(t *testing.T) {
	t.Run("Keeps First N Per Group", func(t *testing.T) {
		p := recs.NewPipeline().Call("topn",
			recs.String("-k"), recs.String("host"),
			recs.String("-n"), recs.String("1"),
		)
		in := recs.FromLines(
			`{"host":"a","n":1}`,
			`{"host":"a","n":2}`,
			`{"host":"b","n":3}`,
			`{"host":"a","n":4}`,
			`{"host":"b","n":5}`,
		)

		result := runPipeline(t, p, in)
		want := []map[string]any{
			{"host": "a", "n": float64(1)},
			{"host": "b", "n": float64(3)},
		}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Produces Records Despite Its Prefix", func(t *testing.T) {
		p := recs.NewPipeline().Call("topn", recs.String("-k"), recs.String("host"))
		result := runPipeline(t, p, recs.FromLines(`{"host":"a"}`))
		if result.Kind != recs.ResultRecords {
			t.Errorf("expected ResultRecords, got %v", result.Kind)
		}
	})

	t.Run("Key Is Required", func(t *testing.T) {
		err := runPipelineErr(t, recs.NewPipeline().Call("topn"), recs.FromLines())
		if !strings.Contains(err.Error(), "topn") {
			t.Errorf("expected topn in error, got %v", err)
		}
	})
}

func TestToJSON(t *testing.T) {
	t.Run("Preserves Field Order", func(t *testing.T) {
		p := recs.NewPipeline().Call("tojson")
		in := recs.FromLines(`{"b":1,"a":2}`)

		result := runPipeline(t, p, in)
		if result.Kind != recs.ResultText {
			t.Fatalf("expected ResultText, got %v", result.Kind)
		}
		if result.Text != `{"b":1,"a":2}`+"\n" {
			t.Errorf("unexpected text: %q", result.Text)
		}
	})
}

func TestToCSV(t *testing.T) {
	t.Run("First Record Decides The Header", func(t *testing.T) {
		p := recs.NewPipeline().Call("tocsv")
		in := recs.FromLines(
			`{"name":"amy","age":35}`,
			`{"name":"bob"}`,
		)

		result := runPipeline(t, p, in)
		want := "name,age\namy,35\nbob,\n"
		if result.Text != want {
			t.Errorf("expected %q, got %q", want, result.Text)
		}
	})

	t.Run("Explicit Columns", func(t *testing.T) {
		p := recs.NewPipeline().Call("tocsv", recs.String("age"), recs.String("name"))
		in := recs.FromLines(`{"name":"amy","age":35}`)

		result := runPipeline(t, p, in)
		want := "age,name\n35,amy\n"
		if result.Text != want {
			t.Errorf("expected %q, got %q", want, result.Text)
		}
	})

	t.Run("Quotes Fields When Needed", func(t *testing.T) {
		p := recs.NewPipeline().Call("tocsv")
		in := recs.FromLines(`{"note":"a, b"}`)

		result := runPipeline(t, p, in)
		want := "note\n\"a, b\"\n"
		if result.Text != want {
			t.Errorf("expected %q, got %q", want, result.Text)
		}
	})
}

func TestToTable(t *testing.T) {
	t.Run("Aligned Columns", func(t *testing.T) {
		p := recs.NewPipeline().Call("totable")
		in := recs.FromLines(
			`{"name":"amy","n":1}`,
			`{"name":"bo","n":10}`,
		)

		result := runPipeline(t, p, in)
		want := strings.Join([]string{
			"name   n",
			"----   --",
			"amy    1",
			"bo     10",
		}, "\n") + "\n"
		if result.Text != want {
			t.Errorf("expected:\n%s\ngot:\n%s", want, result.Text)
		}
	})

	t.Run("Columns Union In First Seen Order", func(t *testing.T) {
		p := recs.NewPipeline().Call("totable")
		in := recs.FromLines(
			`{"a":"x"}`,
			`{"a":"y","b":"z"}`,
		)

		result := runPipeline(t, p, in)
		want := strings.Join([]string{
			"a   b",
			"-   -",
			"x",
			"y   z",
		}, "\n") + "\n"
		if result.Text != want {
			t.Errorf("expected:\n%s\ngot:\n%s", want, result.Text)
		}
	})

	t.Run("Empty Stream Renders Nothing", func(t *testing.T) {
		p := recs.NewPipeline().Call("totable")
		result := runPipeline(t, p, recs.FromLines())
		if result.Text != "" {
			t.Errorf("expected empty text, got %q", result.Text)
		}
	})
}

func TestFromJSON(t *testing.T) {
	t.Run("Line Mode Parses Pushed Lines", func(t *testing.T) {
		p := recs.NewPipeline().Call("fromjson").Call("grep", recs.String(`record.n > 1`))
		in := recs.FromLines(`{"n":1}`, `{"n":2}`)

		result := runPipeline(t, p, in)
		want := []map[string]any{{"n": float64(2)}}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("File Mode Is Self Generating", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "events.jsonl")
		data := `{"n":1}` + "\n" + `{"n":2}` + "\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p := recs.NewPipeline().Call("fromjson", recs.String(path))
		result := runPipeline(t, p, nil)
		want := []map[string]any{{"n": float64(1)}, {"n": float64(2)}}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Missing File Is An IOError", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "absent.jsonl")
		p := recs.NewPipeline().Call("fromjson", recs.String(path))
		err := runPipelineErr(t, p, nil)

		var ioErr *recs.IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("expected IOError, got %v", err)
		}
		if ioErr.Op != "open" || ioErr.Target != path {
			t.Errorf("unexpected IOError: %v", ioErr)
		}
	})
}

func TestFromCSV(t *testing.T) {
	t.Run("Line Mode Takes Header From First Line", func(t *testing.T) {
		p := recs.NewPipeline().Call("fromcsv")
		in := recs.FromLines("name,age", "amy,35", "bob,41")

		result := runPipeline(t, p, in)
		want := []map[string]any{
			{"name": "amy", "age": "35"},
			{"name": "bob", "age": "41"},
		}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Short Rows Fill Empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "people.csv")
		if err := os.WriteFile(path, []byte("name,age\namy\n"), 0o644); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p := recs.NewPipeline().Call("fromcsv", recs.String(path))
		result := runPipeline(t, p, nil)
		want := []map[string]any{{"name": "amy", "age": ""}}
		if diff := cmp.Diff(want, result.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCatalogComposition(t *testing.T) {
	t.Run("Filter Sort Format", func(t *testing.T) {
		p := recs.NewPipeline().
			Call("grep", recs.String(`record.host == "a"`)).
			Call("sort", recs.String("-r"), recs.String("latency")).
			Call("head", recs.String("1")).
			Call("tojson")
		in := recs.FromLines(
			`{"host":"a","latency":12}`,
			`{"host":"b","latency":90}`,
			`{"host":"a","latency":44}`,
		)

		result := runPipeline(t, p, in)
		if result.Kind != recs.ResultText {
			t.Fatalf("expected ResultText, got %v", result.Kind)
		}
		if result.Text != `{"host":"a","latency":44}`+"\n" {
			t.Errorf("unexpected text: %q", result.Text)
		}
	})

	t.Run("Stream To Caller Destination", func(t *testing.T) {
		var sb strings.Builder
		p := recs.NewPipeline().Call("grep", recs.String(`record.n > 1`))
		in := recs.FromLines(`{"n":1}`, `{"n":2}`)

		result := runPipeline(t, p, in, recs.WithOutput(&sb))
		if result.Kind != recs.ResultWriter {
			t.Fatalf("expected ResultWriter, got %v", result.Kind)
		}
		if sb.String() != `{"n":2}`+"\n" {
			t.Errorf("unexpected output: %q", sb.String())
		}
	})
}
