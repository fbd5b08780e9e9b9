package recs

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecord(t *testing.T) {
	t.Run("Set Preserves Insertion Order", func(t *testing.T) {
		rec := NewRecord().Set("b", 1).Set("a", 2).Set("c", 3)

		want := []string{"b", "a", "c"}
		if diff := cmp.Diff(want, rec.Keys()); diff != "" {
			t.Errorf("keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Set Existing Field Keeps Position", func(t *testing.T) {
		rec := NewRecord().Set("b", 1).Set("a", 2)
		rec.Set("b", 99)

		want := []string{"b", "a"}
		if diff := cmp.Diff(want, rec.Keys()); diff != "" {
			t.Errorf("keys mismatch (-want +got):\n%s", diff)
		}
		v, ok := rec.Get("b")
		if !ok || v != 99 {
			t.Errorf("expected b=99, got %v (present: %v)", v, ok)
		}
	})

	t.Run("Delete Removes Field And Order Slot", func(t *testing.T) {
		rec := NewRecord().Set("a", 1).Set("b", 2).Set("c", 3)

		if !rec.Delete("b") {
			t.Fatal("expected Delete to report presence")
		}
		if rec.Delete("b") {
			t.Error("expected second Delete to report absence")
		}
		want := []string{"a", "c"}
		if diff := cmp.Diff(want, rec.Keys()); diff != "" {
			t.Errorf("keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("RecordFromMap Sorts Keys", func(t *testing.T) {
		rec := RecordFromMap(map[string]any{"z": 1, "a": 2, "m": 3})

		want := []string{"a", "m", "z"}
		if diff := cmp.Diff(want, rec.Keys()); diff != "" {
			t.Errorf("keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Map Conversion", func(t *testing.T) {
		rec := NewRecord().Set("x", 1).Set("y", "two")

		want := map[string]any{"x": 1, "y": "two"}
		if diff := cmp.Diff(want, rec.Map()); diff != "" {
			t.Errorf("map mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("JSON Round Trip Preserves Order", func(t *testing.T) {
		in := `{"zebra":1,"apple":{"nested":true},"mango":[1,2]}`

		rec, err := ParseRecord(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"zebra", "apple", "mango"}
		if diff := cmp.Diff(want, rec.Keys()); diff != "" {
			t.Errorf("keys mismatch (-want +got):\n%s", diff)
		}

		out, err := json.Marshal(rec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(out) != in {
			t.Errorf("expected %s, got %s", in, out)
		}
	})

	t.Run("ParseRecord Rejects Non Objects", func(t *testing.T) {
		for _, bad := range []string{`[1,2]`, `"text"`, `42`, `not json`} {
			if _, err := ParseRecord(bad); err == nil {
				t.Errorf("expected error parsing %q", bad)
			}
		}
	})

	t.Run("Clone Is Independent", func(t *testing.T) {
		rec := NewRecord().Set("a", 1)
		dup := rec.Clone()
		dup.Set("b", 2)

		if rec.Len() != 1 {
			t.Errorf("expected original to keep 1 field, got %d", rec.Len())
		}
		if dup.Len() != 2 {
			t.Errorf("expected clone to have 2 fields, got %d", dup.Len())
		}
	})
}
