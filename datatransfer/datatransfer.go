// Package datatransfer implements the clipboard payload-reception
// helper (C7): it turns an offer's receive request and the resulting
// pipe into a single completion callback, supervised by a 5-second idle
// timer so a compositor that never writes never leaks a reader.
package datatransfer

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/corvidwl/wlgo/eventloop"
)

// IdleTimeout is the one-shot idle window per §4.7: if no readable event
// arrives (or resumes arriving) within this window, the transfer
// completes with a nil buffer.
const IdleTimeout = 5 * time.Second

const readChunk = 1 << 20 // 1 MiB

// Offer is the subset of datacontrol.Offer this package needs: sending
// its own write-end FD to the compositor without importing datacontrol,
// which would create an import cycle.
type Offer interface {
	Receive(mimeType string, writeFD int) error
}

// Receive implements the five-step algorithm: create a pipe, hand the
// write end to the offer, accumulate reads from the read end under an
// idle timer, and invoke done exactly once with the accumulated bytes
// (or nil on idle timeout).
func Receive(loop eventloop.Adapter, offer Offer, mimeType string, done func(data []byte)) error {
	fds, err := unixPipe()
	if err != nil {
		return err
	}
	readFD, writeFD := fds[0], fds[1]

	if err := offer.Receive(mimeType, writeFD); err != nil {
		unix.Close(readFD)
		unix.Close(writeFD)
		return err
	}
	unix.Close(writeFD)

	if err := unix.SetNonblock(readFD, true); err != nil {
		unix.Close(readFD)
		return err
	}

	t := &transfer{loop: loop, readFD: readFD, done: done}
	return t.start()
}

type transfer struct {
	loop    eventloop.Adapter
	readFD  int
	done    func(data []byte)
	buf     []byte
	timerID eventloop.TimerID
	closed  bool
}

func (t *transfer) start() error {
	if err := t.loop.RegisterReader(t.readFD, t.onReadable); err != nil {
		unix.Close(t.readFD)
		return err
	}
	id, err := t.loop.ScheduleTimer(IdleTimeout, t.onIdle, true)
	if err != nil {
		t.loop.UnregisterReader(t.readFD)
		unix.Close(t.readFD)
		return err
	}
	t.timerID = id
	return nil
}

func (t *transfer) onReadable() {
	if t.closed {
		return
	}
	chunk := make([]byte, readChunk)
	n, err := unix.Read(t.readFD, chunk)
	if err != nil {
		if err == unix.EAGAIN {
			return
		}
		t.finish(nil)
		return
	}
	if n == 0 {
		t.finish(t.buf)
		return
	}
	t.buf = append(t.buf, chunk[:n]...)
	t.loop.CancelTimer(t.timerID)
	id, err := t.loop.ScheduleTimer(IdleTimeout, t.onIdle, true)
	if err == nil {
		t.timerID = id
	}
}

func (t *transfer) onIdle() {
	if t.closed {
		return
	}
	t.finish(nil)
}

// finish is called from exactly one of onReadable's EOF/error paths or
// onIdle, never both, because each unregisters the reader and cancels
// the timer before invoking the callback.
func (t *transfer) finish(result []byte) {
	t.closed = true
	t.loop.CancelTimer(t.timerID)
	t.loop.UnregisterReader(t.readFD)
	unix.Close(t.readFD)
	if t.done != nil {
		t.done(result)
	}
}

func unixPipe() ([2]int, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return fds, err
	}
	return fds, nil
}
