// Package eventloop defines the event-loop adapter surface (C2): the
// uniform interface the connection uses to ask "call me when this FD is
// readable" and "call me in N seconds", plus four concrete adapters.
package eventloop

import (
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// ErrNotImplemented is returned by every method of the Null adapter.
var ErrNotImplemented = errors.New("eventloop: not implemented")

// ReaderFunc is invoked when a registered FD becomes readable.
type ReaderFunc func()

// TimerFunc is invoked when a scheduled timer expires.
type TimerFunc func()

// TimerID identifies a scheduled timer for cancellation.
type TimerID uint64

// Adapter is the exact four-operation surface every concrete adapter
// implements.
type Adapter interface {
	RegisterReader(fd int, cb ReaderFunc) error
	UnregisterReader(fd int) error
	ScheduleTimer(interval time.Duration, cb TimerFunc, oneShot bool) (TimerID, error)
	CancelTimer(id TimerID) error
}

var nextTimerID uint64

func newTimerID() TimerID {
	return TimerID(atomic.AddUint64(&nextTimerID, 1))
}

// timerEntry is shared by the Poll and Coroutine-scheduler adapters.
type timerEntry struct {
	id       TimerID
	deadline time.Time
	interval time.Duration
	oneShot  bool
	cb       TimerFunc
	cancelled bool
}

// Poll is the FD-multiplexing adapter: it owns a poll set, a callback map
// keyed by FD, and a timer map whose expired entries fire in deadline
// order. RunOnce blocks in poll with a bounded timeout so expired timers
// are always serviced promptly.
type Poll struct {
	readers     map[int]ReaderFunc
	writers     map[int]ReaderFunc
	timers      map[TimerID]*timerEntry
	maxWait     time.Duration
	extraPollFD func() []unix.PollFd
}

// NewPoll constructs a Poll adapter. maxWait bounds how long a single
// RunOnce call blocks, so timers never fire later than maxWait past
// their deadline; it defaults to 1 second when zero.
func NewPoll(maxWait time.Duration) *Poll {
	if maxWait <= 0 {
		maxWait = time.Second
	}
	return &Poll{
		readers: make(map[int]ReaderFunc),
		writers: make(map[int]ReaderFunc),
		timers:  make(map[TimerID]*timerEntry),
		maxWait: maxWait,
	}
}

func (p *Poll) RegisterReader(fd int, cb ReaderFunc) error {
	p.readers[fd] = cb
	return nil
}

func (p *Poll) UnregisterReader(fd int) error {
	delete(p.readers, fd)
	return nil
}

// RegisterWriter and UnregisterWriter are Poll-specific extensions beyond
// the four-operation Adapter surface, in the same spirit as its
// caller-supplied poll set: the data-control source's send request needs
// write-readiness, which the portable Adapter interface does not model.
func (p *Poll) RegisterWriter(fd int, cb ReaderFunc) error {
	p.writers[fd] = cb
	return nil
}

func (p *Poll) UnregisterWriter(fd int) error {
	delete(p.writers, fd)
	return nil
}

func (p *Poll) ScheduleTimer(interval time.Duration, cb TimerFunc, oneShot bool) (TimerID, error) {
	id := newTimerID()
	p.timers[id] = &timerEntry{
		id:       id,
		deadline: time.Now().Add(interval),
		interval: interval,
		oneShot:  oneShot,
		cb:       cb,
	}
	return id, nil
}

func (p *Poll) CancelTimer(id TimerID) error {
	if t, ok := p.timers[id]; ok {
		t.cancelled = true
		delete(p.timers, id)
	}
	return nil
}

// HasReader reports whether fd is currently registered, letting an
// embedding application multiplex additional FDs onto the same set
// without guessing at adapter internals.
func (p *Poll) HasReader(fd int) bool {
	_, ok := p.readers[fd]
	return ok
}

// WithExtraPollFDs installs a callback the adapter consults on every
// iteration for caller-supplied FDs to poll alongside its own. Those FDs
// are reported back via the returned revents but not dispatched — the
// caller is responsible for acting on them.
func (p *Poll) WithExtraPollFDs(fn func() []unix.PollFd) {
	p.extraPollFD = fn
}

// RunOnce blocks in poll for at most maxWait, services any ready FDs,
// then services any expired timers.
func (p *Poll) RunOnce() error {
	wait := p.nextTimeout()

	fds := make([]unix.PollFd, 0, len(p.readers)+len(p.writers))
	order := make([]int, 0, len(p.readers)+len(p.writers))
	kinds := make([]bool, 0, len(p.readers)+len(p.writers)) // true = writer

	for fd := range p.readers {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
		order = append(order, fd)
		kinds = append(kinds, false)
	}
	for fd := range p.writers {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLOUT})
		order = append(order, fd)
		kinds = append(kinds, true)
	}
	var extra []unix.PollFd
	if p.extraPollFD != nil {
		extra = p.extraPollFD()
		fds = append(fds, extra...)
	}

	timeoutMs := int(wait / time.Millisecond)
	if timeoutMs <= 0 {
		timeoutMs = 1
	}
	n, err := unix.Poll(fds, timeoutMs)
	if err != nil && err != unix.EINTR {
		return err
	}
	copy(extra, fds[len(order):])
	if n > 0 {
		for i, fd := range order {
			if kinds[i] {
				if fds[i].Revents&(unix.POLLOUT|unix.POLLHUP|unix.POLLERR) != 0 {
					if cb, ok := p.writers[fd]; ok {
						cb()
					}
				}
				continue
			}
			if fds[i].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
				if cb, ok := p.readers[fd]; ok {
					cb()
				}
			}
		}
	}
	p.fireExpiredTimers()
	return nil
}

func (p *Poll) nextTimeout() time.Duration {
	wait := p.maxWait
	now := time.Now()
	for _, t := range p.timers {
		if t.cancelled {
			continue
		}
		if d := t.deadline.Sub(now); d < wait {
			if d < 0 {
				d = 0
			}
			wait = d
		}
	}
	return wait
}

func (p *Poll) fireExpiredTimers() {
	now := time.Now()
	var expired []*timerEntry
	for _, t := range p.timers {
		if !t.cancelled && !now.Before(t.deadline) {
			expired = append(expired, t)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].deadline.Before(expired[j].deadline) })
	for _, t := range expired {
		if t.cancelled {
			continue
		}
		if t.oneShot {
			delete(p.timers, t.id)
		} else {
			t.deadline = now.Add(t.interval)
		}
		t.cb()
	}
}

// CoroutineScheduler defers FD waits and timers to a host cooperative
// scheduler. SpawnReader/SpawnTimer are supplied by the host; the adapter
// only tracks bookkeeping (cancellation, non-one-shot rescheduling).
type CoroutineScheduler struct {
	spawnReader func(fd int, cb ReaderFunc) (stop func())
	spawnTimer  func(d time.Duration, cb TimerFunc) (stop func())

	readerStops map[int]func()
	timers      map[TimerID]*coroutineTimer
}

type coroutineTimer struct {
	cancelled bool
	stop      func()
}

// NewCoroutineScheduler wires the adapter to a host scheduler's primitives.
func NewCoroutineScheduler(
	spawnReader func(fd int, cb ReaderFunc) (stop func()),
	spawnTimer func(d time.Duration, cb TimerFunc) (stop func()),
) *CoroutineScheduler {
	return &CoroutineScheduler{
		spawnReader: spawnReader,
		spawnTimer:  spawnTimer,
		readerStops: make(map[int]func()),
		timers:      make(map[TimerID]*coroutineTimer),
	}
}

func (c *CoroutineScheduler) RegisterReader(fd int, cb ReaderFunc) error {
	c.readerStops[fd] = c.spawnReader(fd, cb)
	return nil
}

func (c *CoroutineScheduler) UnregisterReader(fd int) error {
	if stop, ok := c.readerStops[fd]; ok {
		stop()
		delete(c.readerStops, fd)
	}
	return nil
}

func (c *CoroutineScheduler) ScheduleTimer(interval time.Duration, cb TimerFunc, oneShot bool) (TimerID, error) {
	id := newTimerID()
	entry := &coroutineTimer{}
	c.timers[id] = entry

	var wrapped TimerFunc
	wrapped = func() {
		if entry.cancelled {
			return
		}
		cb()
		if !oneShot && !entry.cancelled {
			entry.stop = c.spawnTimer(interval, wrapped)
		}
	}
	entry.stop = c.spawnTimer(interval, wrapped)
	return id, nil
}

func (c *CoroutineScheduler) CancelTimer(id TimerID) error {
	if t, ok := c.timers[id]; ok {
		t.cancelled = true
		if t.stop != nil {
			t.stop()
		}
		delete(c.timers, id)
	}
	return nil
}

// MainLoop defers to a host main loop (e.g. a GLib-style loop) that
// exposes FD watches and millisecond timers directly.
type MainLoop struct {
	addWatch    func(fd int, cb ReaderFunc) (handle any)
	removeWatch func(handle any)
	addTimer    func(ms int, oneShot bool, cb TimerFunc) (handle any)
	removeTimer func(handle any)

	watchHandles map[int]any
	timerHandles map[TimerID]any
}

// NewMainLoop wires the adapter to a host main loop's primitives.
func NewMainLoop(
	addWatch func(fd int, cb ReaderFunc) any,
	removeWatch func(handle any),
	addTimer func(ms int, oneShot bool, cb TimerFunc) any,
	removeTimer func(handle any),
) *MainLoop {
	return &MainLoop{
		addWatch:     addWatch,
		removeWatch:  removeWatch,
		addTimer:     addTimer,
		removeTimer:  removeTimer,
		watchHandles: make(map[int]any),
		timerHandles: make(map[TimerID]any),
	}
}

func (m *MainLoop) RegisterReader(fd int, cb ReaderFunc) error {
	m.watchHandles[fd] = m.addWatch(fd, cb)
	return nil
}

func (m *MainLoop) UnregisterReader(fd int) error {
	if h, ok := m.watchHandles[fd]; ok {
		m.removeWatch(h)
		delete(m.watchHandles, fd)
	}
	return nil
}

func (m *MainLoop) ScheduleTimer(interval time.Duration, cb TimerFunc, oneShot bool) (TimerID, error) {
	id := newTimerID()
	m.timerHandles[id] = m.addTimer(int(interval/time.Millisecond), oneShot, cb)
	return id, nil
}

func (m *MainLoop) CancelTimer(id TimerID) error {
	if h, ok := m.timerHandles[id]; ok {
		m.removeTimer(h)
		delete(m.timerHandles, id)
	}
	return nil
}

// Null raises ErrNotImplemented from every method; it is used when the
// caller owns I/O entirely and drives dispatch manually.
type Null struct{}

func (Null) RegisterReader(int, ReaderFunc) error                              { return ErrNotImplemented }
func (Null) UnregisterReader(int) error                                        { return ErrNotImplemented }
func (Null) ScheduleTimer(time.Duration, TimerFunc, bool) (TimerID, error)     { return 0, ErrNotImplemented }
func (Null) CancelTimer(TimerID) error                                         { return ErrNotImplemented }
