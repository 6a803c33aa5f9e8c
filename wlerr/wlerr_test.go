package wlerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByKindNotMessage(t *testing.T) {
	err := New(KindDisconnected, "socket read returned EOF")
	if !errors.Is(err, Disconnected) {
		t.Fatal("errors.Is should match on Kind regardless of message")
	}
	if errors.Is(err, CodecError) {
		t.Fatal("errors.Is should not match a different Kind")
	}
}

func TestWrapUnwrapsUnderlying(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(KindConnectFailed, "dial failed", cause)
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should find the wrapped cause")
	}
}

func TestErrorStringIncludesKindAndMessage(t *testing.T) {
	err := New(KindInvalidArgument, "unknown shm format")
	got := err.Error()
	want := "invalid-argument: unknown shm format"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindStringUnknown(t *testing.T) {
	var k Kind = 99
	if k.String() != "unknown" {
		t.Errorf("String() for out-of-range Kind = %q, want %q", k.String(), "unknown")
	}
}
