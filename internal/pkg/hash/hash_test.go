package hash

import "testing"

func TestSHA256(t *testing.T) {
	// Known vector for the empty input.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := SHA256(nil); got != want {
		t.Errorf("SHA256(nil) = %s", got)
	}
	if SHA256String("abc") != SHA256([]byte("abc")) {
		t.Error("SHA256String should match SHA256 on the same bytes")
	}
}

func TestSHA256Short(t *testing.T) {
	full := SHA256([]byte("payload"))
	if got := SHA256Short([]byte("payload"), 8); got != full[:8] {
		t.Errorf("SHA256Short = %s, want %s", got, full[:8])
	}
	if got := SHA256Short([]byte("payload"), 1000); got != full {
		t.Errorf("oversized n should return the full hash, got %s", got)
	}
}

func TestIDsDeterministic(t *testing.T) {
	a := ArtifactID("ranker", "3", "deadbeef")
	b := ArtifactID("ranker", "3", "deadbeef")
	if a != b {
		t.Error("ArtifactID should be deterministic")
	}
	if len(a) != 16 {
		t.Errorf("ArtifactID length = %d, want 16", len(a))
	}
	if ArtifactID("ranker", "4", "deadbeef") == a {
		t.Error("different versions should produce different IDs")
	}

	if RecordID("q1", "https://a.example", 0) == RecordID("q1", "https://a.example", 1) {
		t.Error("different rows should produce different record IDs")
	}
}
