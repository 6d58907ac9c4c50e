package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDv7_ValidAndUnique(t *testing.T) {
	gen := UUIDv7()
	a, b := gen(), gen()
	if a == b {
		t.Fatal("two IDs are equal")
	}
	for _, id := range []string{a, b} {
		parsed, err := uuid.Parse(id)
		if err != nil {
			t.Fatalf("parse %q: %v", id, err)
		}
		if parsed.Version() != 7 {
			t.Fatalf("version = %d, want 7", parsed.Version())
		}
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("ntf_", UUIDv7())
	id := gen()
	if !strings.HasPrefix(id, "ntf_") {
		t.Fatalf("id = %q, want ntf_ prefix", id)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, "ntf_")); err != nil {
		t.Fatalf("suffix not a UUID: %v", err)
	}
}
