package hashing

import "testing"

func TestChecksum_Deterministic(t *testing.T) {
	a := Checksum("some document text")
	b := Checksum("some document text")
	if a != b {
		t.Errorf("Same input produced different checksums: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(a))
	}
}

func TestChecksum_SingleCharacterDifference(t *testing.T) {
	a := Checksum("some document text")
	b := Checksum("some document text!")
	if a == b {
		t.Error("Documents differing by one character must hash differently")
	}
}

func TestChecksum_NormalizesLineEndingsAndPadding(t *testing.T) {
	base := Checksum("line one\nline two")
	crlf := Checksum("line one\r\nline two")
	padded := Checksum("  line one\nline two\n\n")

	if base != crlf {
		t.Error("CRLF and LF content must hash identically")
	}
	if base != padded {
		t.Error("Leading/trailing whitespace must not affect the checksum")
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("\r\n hello\r\nworld \n")
	want := "hello\nworld"
	if got != want {
		t.Errorf("Normalize: expected %q, got %q", want, got)
	}
}
