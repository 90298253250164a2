package fingerprint

import "testing"

func TestBytes(t *testing.T) {
	a := Bytes([]byte("AUTH secret"))
	b := Bytes([]byte("AUTH secret"))
	c := Bytes([]byte("AUTH other"))

	if a != b {
		t.Errorf("Bytes not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different inputs should not collide")
	}
	if len(a) != Size*2 {
		t.Errorf("len = %d, want %d hex chars", len(a), Size*2)
	}
}

func TestCommand(t *testing.T) {
	a := Command("auth", []string{"secret"})
	b := Command("auth", []string{"secret"})
	if a != b {
		t.Errorf("Command not deterministic: %q vs %q", a, b)
	}
	if len(a) != Size*2 {
		t.Errorf("len = %d, want %d hex chars", len(a), Size*2)
	}
}

func TestCommand_FramingPreventsCollisions(t *testing.T) {
	// Without length framing these would hash the same byte stream.
	pairs := [][2]string{
		{Command("set", []string{"a b"}), Command("set", []string{"a", "b"})},
		{Command("set", []string{"ab"}), Command("set", []string{"a", "b"})},
		{Command("seta", []string{"b"}), Command("set", []string{"ab"})},
		{Command("ping", nil), Command("ping", []string{""})},
	}
	for i, p := range pairs {
		if p[0] == p[1] {
			t.Errorf("pair %d collides: %q", i, p[0])
		}
	}
}
