package core

import "testing"

func TestEnsureLen(t *testing.T) {
	t.Parallel()

	buf := make([]float64, 4, 8)
	buf[0] = 7

	out := EnsureLen(buf, 6)
	if len(out) != 6 || &out[0] != &buf[0] {
		t.Fatalf("EnsureLen(6) len=%d, reused=%v; want 6, true", len(out), &out[0] == &buf[0])
	}
	if out[0] != 7 {
		t.Fatalf("out[0] = %v, want 7", out[0])
	}

	grown := EnsureLen(buf, 16)
	if len(grown) != 16 || cap(grown) < 16 {
		t.Fatalf("EnsureLen(16) len=%d cap=%d", len(grown), cap(grown))
	}

	if got := EnsureLen(buf, -1); len(got) != 0 {
		t.Fatalf("EnsureLen(-1) len = %d, want 0", len(got))
	}
}
