package pointerconstraints

import (
	"errors"
	"testing"

	"github.com/corvidwl/wlgo/wlerr"
)

func TestLockPointerRejectsInvalidLifetime(t *testing.T) {
	m := &Manager{}
	if _, err := m.LockPointer(nil, nil, nil, 99); err == nil {
		t.Fatal("expected an error for an invalid lifetime")
	} else if !errors.Is(err, wlerr.InvalidArgument) {
		t.Fatalf("error = %v, want InvalidArgument", err)
	}
}

func TestConfinePointerRejectsInvalidLifetime(t *testing.T) {
	m := &Manager{}
	if _, err := m.ConfinePointer(nil, nil, nil, 0); err == nil {
		t.Fatal("expected an error for lifetime 0")
	}
}

func TestValidLifetimeAccepted(t *testing.T) {
	if !validLifetime(LifetimeOneshot) {
		t.Error("LifetimeOneshot should be valid")
	}
	if !validLifetime(LifetimePersistent) {
		t.Error("LifetimePersistent should be valid")
	}
	if validLifetime(3) {
		t.Error("3 should not be a valid lifetime")
	}
}

func TestLockedPointerDispatchFiresCallbacks(t *testing.T) {
	lp := &LockedPointer{}
	locked, unlocked := false, false
	lp.OnLocked(func() { locked = true })
	lp.OnUnlocked(func() { unlocked = true })

	if err := lp.Dispatch(lockedEventLocked, nil); err != nil {
		t.Fatalf("Dispatch(locked): %v", err)
	}
	if !locked {
		t.Fatal("OnLocked callback did not fire")
	}
	if err := lp.Dispatch(lockedEventUnlocked, nil); err != nil {
		t.Fatalf("Dispatch(unlocked): %v", err)
	}
	if !unlocked {
		t.Fatal("OnUnlocked callback did not fire")
	}
}

func TestConfinedPointerDispatchFiresCallbacks(t *testing.T) {
	cp := &ConfinedPointer{}
	confined, unconfined := false, false
	cp.OnConfined(func() { confined = true })
	cp.OnUnconfined(func() { unconfined = true })

	cp.Dispatch(confinedEventConfined, nil)
	if !confined {
		t.Fatal("OnConfined callback did not fire")
	}
	cp.Dispatch(confinedEventUnconfined, nil)
	if !unconfined {
		t.Fatal("OnUnconfined callback did not fire")
	}
}

func TestLockedPointerDispatchUnknownOpcodeIgnored(t *testing.T) {
	lp := &LockedPointer{}
	fired := false
	lp.OnLocked(func() { fired = true })
	if err := lp.Dispatch(99, nil); err != nil {
		t.Fatalf("Dispatch(unknown): %v", err)
	}
	if fired {
		t.Fatal("an unrelated opcode must not fire OnLocked")
	}
}
