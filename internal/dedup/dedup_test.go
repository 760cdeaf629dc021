package dedup

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	t.Parallel()

	a := Fingerprint("same text")
	b := Fingerprint("same text")
	if a != b {
		t.Fatalf("fingerprints differ: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if Fingerprint("same text ") == a {
		t.Fatalf("different inputs produced the same fingerprint")
	}
	// sha256("") is a well-known constant.
	if got := Fingerprint(""); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("unexpected empty digest %s", got)
	}
}

func TestIsDuplicateSequence(t *testing.T) {
	t.Parallel()

	d := New()
	seq := []string{"a", "b", "a", "c", "b", "a"}
	want := []bool{false, false, true, false, true, true}

	for i, text := range seq {
		if got := d.IsDuplicate(text); got != want[i] {
			t.Fatalf("call %d (%q): got %v, want %v", i, text, got, want[i])
		}
	}
	if d.Seen() != 3 {
		t.Fatalf("expected 3 distinct fingerprints, got %d", d.Seen())
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	t.Parallel()

	first := New()
	first.IsDuplicate("payload")

	second := New()
	if second.IsDuplicate("payload") {
		t.Fatalf("fresh deduplicator must not share state")
	}
}

func TestZeroValueUsable(t *testing.T) {
	t.Parallel()

	var d Deduplicator
	if d.Check("x") {
		t.Fatalf("first check should be false")
	}
	if !d.Check("x") {
		t.Fatalf("second check should be true")
	}
}
