package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePipeline(t *testing.T) {
	t.Run("Stages In Declaration Order", func(t *testing.T) {
		src := `
pipeline:
  - name: grep
    args: ['record.status == "ok"']
  - name: totable
`
		p, err := parsePipeline([]byte(src))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		calls := p.Calls()
		names := make([]string, len(calls))
		for i, c := range calls {
			names[i] = c.Name
		}
		if diff := cmp.Diff([]string{"grep", "totable"}, names); diff != "" {
			t.Errorf("stage order mismatch (-want +got):\n%s", diff)
		}
		if len(calls[0].Args) != 1 || calls[0].Args[0].IsFunc() {
			t.Error("expected one literal argument for grep")
		}
	})

	t.Run("No Stages Is An Error", func(t *testing.T) {
		if _, err := parsePipeline([]byte("pipeline: []")); err == nil {
			t.Error("expected an error for an empty pipeline")
		}
	})

	t.Run("Bad YAML Is An Error", func(t *testing.T) {
		if _, err := parsePipeline([]byte("pipeline: [unclosed")); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestOpenInput(t *testing.T) {
	t.Run("No Files Means Stdin", func(t *testing.T) {
		in, cleanup, err := openInput(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer cleanup()
		if in == nil {
			t.Error("expected an input over standard input")
		}
	})

	t.Run("Missing File Fails", func(t *testing.T) {
		if _, _, err := openInput([]string{"definitely-absent.jsonl"}); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}
