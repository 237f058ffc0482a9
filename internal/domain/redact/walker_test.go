package redact

import (
	"reflect"
	"testing"
)

func TestRedactValue_StringLeaf(t *testing.T) {
	out, sum := RedactValue("mail me at a@b.io")
	if out != "mail me at a***@b.io" {
		t.Errorf("out = %v", out)
	}
	if sum.Count != 1 {
		t.Errorf("count = %d, want 1", sum.Count)
	}
}

func TestRedactValue_NestedStructure(t *testing.T) {
	in := map[string]any{
		"user": map[string]any{
			"email": "john@example.com",
			"age":   42,
		},
		"notes": []any{"SSN 123-45-6789", true, nil, 3.14},
	}

	out, sum := RedactValue(in)

	want := map[string]any{
		"user": map[string]any{
			"email": "j***@example.com",
			"age":   42,
		},
		"notes": []any{"SSN ***-**-****", true, nil, 3.14},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("out = %#v, want %#v", out, want)
	}
	if sum.Count != 2 {
		t.Errorf("count = %d, want 2", sum.Count)
	}
}

func TestRedactValue_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"email": "john@example.com"}
	_, _ = RedactValue(in)
	if in["email"] != "john@example.com" {
		t.Errorf("input mutated: %v", in["email"])
	}
}

func TestRedactValue_KeysNotRedacted(t *testing.T) {
	// A PII-shaped map key stays intact; only values are masked.
	in := map[string]any{"john@example.com": "john@example.com"}
	out, sum := RedactValue(in)

	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("out is %T, want map", out)
	}
	v, ok := m["john@example.com"]
	if !ok {
		t.Fatal("key was altered")
	}
	if v != "j***@example.com" {
		t.Errorf("value = %v", v)
	}
	if sum.Count != 1 {
		t.Errorf("count = %d, want 1", sum.Count)
	}
}

func TestRedactValue_NonStringLeavesPassThrough(t *testing.T) {
	leaves := []any{42, int64(7), 3.14, true, nil}
	for _, leaf := range leaves {
		out, sum := RedactValue(leaf)
		if !reflect.DeepEqual(out, leaf) {
			t.Errorf("leaf %#v changed to %#v", leaf, out)
		}
		if sum.Count != 0 {
			t.Errorf("leaf %#v reported count %d", leaf, sum.Count)
		}
	}
}

func TestRedactValue_ListLengthPreserved(t *testing.T) {
	in := []any{"a@b.io", "plain", "c@d.io"}
	out, sum := RedactValue(in)
	list, ok := out.([]any)
	if !ok || len(list) != 3 {
		t.Fatalf("out = %#v, want 3-element list", out)
	}
	if sum.Count != 2 {
		t.Errorf("count = %d, want 2", sum.Count)
	}
}

func TestSummary_Monotone(t *testing.T) {
	sum := NewSummary()
	sum.Record(TagEmail, 2)
	sum.Record(TagEmail, 0) // rejected: no-op
	sum.Record(TagSSN, 1)

	if sum.Count != 3 {
		t.Errorf("count = %d, want 3", sum.Count)
	}
	if types := sum.Types(); !reflect.DeepEqual(types, []string{TagEmail, TagSSN}) {
		t.Errorf("types = %v", types)
	}

	other := NewSummary()
	other.Record(TagSSN, 1)
	other.Record(TagPhone, 1)
	sum.Merge(other)

	if sum.Count != 5 {
		t.Errorf("merged count = %d, want 5", sum.Count)
	}
	if types := sum.Types(); !reflect.DeepEqual(types, []string{TagEmail, TagSSN, TagPhone}) {
		t.Errorf("merged types = %v", types)
	}
}
