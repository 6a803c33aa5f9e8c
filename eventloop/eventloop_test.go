package eventloop

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestPollFiresOneShotTimer(t *testing.T) {
	p := NewPoll(10 * time.Millisecond)
	fired := 0
	if _, err := p.ScheduleTimer(5*time.Millisecond, func() { fired++ }, true); err != nil {
		t.Fatalf("ScheduleTimer: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for fired == 0 && time.Now().Before(deadline) {
		if err := p.RunOnce(); err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
	}
	if fired != 1 {
		t.Fatalf("one-shot timer fired %d times, want 1", fired)
	}

	// A one-shot timer must not be rescheduled.
	for i := 0; i < 3; i++ {
		p.RunOnce()
	}
	if fired != 1 {
		t.Fatalf("one-shot timer fired again: %d", fired)
	}
}

func TestPollRepeatingTimerReschedules(t *testing.T) {
	p := NewPoll(5 * time.Millisecond)
	fired := 0
	if _, err := p.ScheduleTimer(5*time.Millisecond, func() { fired++ }, false); err != nil {
		t.Fatalf("ScheduleTimer: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for fired < 3 && time.Now().Before(deadline) {
		if err := p.RunOnce(); err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
	}
	if fired < 3 {
		t.Fatalf("repeating timer fired %d times in one second, want >= 3", fired)
	}
}

func TestPollCancelTimerPreventsFiring(t *testing.T) {
	p := NewPoll(5 * time.Millisecond)
	fired := false
	id, err := p.ScheduleTimer(5*time.Millisecond, func() { fired = true }, true)
	if err != nil {
		t.Fatalf("ScheduleTimer: %v", err)
	}
	if err := p.CancelTimer(id); err != nil {
		t.Fatalf("CancelTimer: %v", err)
	}

	deadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(deadline) {
		p.RunOnce()
	}
	if fired {
		t.Fatal("cancelled timer fired")
	}
}

func TestPollRegisterReaderFiresOnReadable(t *testing.T) {
	p := NewPoll(50 * time.Millisecond)
	r, w, err := unixPipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(r)
	defer unix.Close(w)

	called := make(chan struct{}, 1)
	if err := p.RegisterReader(r, func() { called <- struct{}{} }); err != nil {
		t.Fatalf("RegisterReader: %v", err)
	}
	if !p.HasReader(r) {
		t.Fatal("HasReader should report true after RegisterReader")
	}

	if _, err := unix.Write(w, []byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := p.RunOnce(); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	select {
	case <-called:
	default:
		t.Fatal("reader callback was not invoked after the FD became readable")
	}

	if err := p.UnregisterReader(r); err != nil {
		t.Fatalf("UnregisterReader: %v", err)
	}
	if p.HasReader(r) {
		t.Fatal("HasReader should report false after UnregisterReader")
	}
}

func TestPollRegisterWriterFiresOnWritable(t *testing.T) {
	p := NewPoll(50 * time.Millisecond)
	r, w, err := unixPipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(r)
	defer unix.Close(w)

	called := make(chan struct{}, 1)
	if err := p.RegisterWriter(w, func() { called <- struct{}{} }); err != nil {
		t.Fatalf("RegisterWriter: %v", err)
	}
	if err := p.RunOnce(); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	select {
	case <-called:
	default:
		t.Fatal("writer callback was not invoked for an always-writable pipe")
	}

	if err := p.UnregisterWriter(w); err != nil {
		t.Fatalf("UnregisterWriter: %v", err)
	}
}

func TestNullAdapterReturnsErrNotImplemented(t *testing.T) {
	n := Null{}
	if err := n.RegisterReader(0, func() {}); err != ErrNotImplemented {
		t.Errorf("RegisterReader = %v, want ErrNotImplemented", err)
	}
	if err := n.UnregisterReader(0); err != ErrNotImplemented {
		t.Errorf("UnregisterReader = %v, want ErrNotImplemented", err)
	}
	if _, err := n.ScheduleTimer(0, func() {}, true); err != ErrNotImplemented {
		t.Errorf("ScheduleTimer = %v, want ErrNotImplemented", err)
	}
	if err := n.CancelTimer(0); err != ErrNotImplemented {
		t.Errorf("CancelTimer = %v, want ErrNotImplemented", err)
	}
}

func unixPipe() (r, w int, err error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}
