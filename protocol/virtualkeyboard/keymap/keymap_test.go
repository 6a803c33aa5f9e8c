package keymap

import "testing"

func TestKeycodeForAssignsSequentially(t *testing.T) {
	k := New(nil)

	code, sym, err := k.KeycodeFor("a")
	if err != nil {
		t.Fatalf("KeycodeFor(a) error: %v", err)
	}
	if code != 9 {
		t.Errorf("first keycode = %d, want 9 (index 1 + 8)", code)
	}
	if sym != 'a' {
		t.Errorf("symbol for 'a' = %#x, want %#x", sym, uint32('a'))
	}

	code2, _, err := k.KeycodeFor("b")
	if err != nil {
		t.Fatalf("KeycodeFor(b) error: %v", err)
	}
	if code2 != 10 {
		t.Errorf("second keycode = %d, want 10", code2)
	}
}

func TestKeycodeForIsStableOnRepeat(t *testing.T) {
	k := New(nil)
	first, _, _ := k.KeycodeFor("x")
	second, _, _ := k.KeycodeFor("x")
	if first != second {
		t.Errorf("repeated KeycodeFor(x) = %d then %d, want stable", first, second)
	}
}

func TestKeycodeForUnresolvableName(t *testing.T) {
	k := New(nil)
	if _, _, err := k.KeycodeFor("not-a-real-key"); err == nil {
		t.Fatal("expected an error for an unresolvable key name")
	}
}

func TestKeycodeForUnicodePlaneFallback(t *testing.T) {
	k := New(nil)
	_, sym, err := k.KeycodeFor("é") // é, outside the built-in table
	if err != nil {
		t.Fatalf("KeycodeFor(é) error: %v", err)
	}
	want := uint32(0x010000e9)
	if sym != want {
		t.Errorf("symbol for é = %#x, want %#x", sym, want)
	}
}

func TestChangedFlag(t *testing.T) {
	k := New(nil)
	if k.Changed() {
		t.Fatal("empty keymap should not report changed")
	}
	k.KeycodeFor("a")
	if !k.Changed() {
		t.Fatal("assigning a new keycode should set changed")
	}
	k.Serialize()
	if k.Changed() {
		t.Fatal("Serialize should clear the changed flag")
	}
}

func TestSerializeEnumeratesAssignedKeycodesOnly(t *testing.T) {
	k := New(nil)
	k.KeycodeFor("a")
	k.KeycodeFor("b")
	text := k.Serialize()

	if want := "maximum = 10;"; !contains(text, want) {
		t.Errorf("Serialize() missing %q in:\n%s", want, text)
	}
	if want := "<K1> = 9;"; !contains(text, want) {
		t.Errorf("Serialize() missing %q in:\n%s", want, text)
	}
	if want := "<K2> = 10;"; !contains(text, want) {
		t.Errorf("Serialize() missing %q in:\n%s", want, text)
	}
}

func TestPlatformLookupTakesPriority(t *testing.T) {
	k := New(func(name string) (uint32, bool) {
		if name == "a" {
			return 0xABCDEF, true
		}
		return 0, false
	})
	_, sym, err := k.KeycodeFor("a")
	if err != nil {
		t.Fatalf("KeycodeFor(a) error: %v", err)
	}
	if sym != 0xABCDEF {
		t.Errorf("symbol = %#x, want platform override %#x", sym, 0xABCDEF)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
