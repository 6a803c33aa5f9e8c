// Package wlctlcmd implements the wlctl CLI (C10): a cobra-based command
// line for listing and controlling toplevel windows and inspecting the
// clipboard, grounded on the reference wlctrl/wl_monitor scripts.
package wlctlcmd

import (
	"fmt"
	"time"

	"github.com/corvidwl/wlgo/eventloop"
	"github.com/corvidwl/wlgo/internal/wlog"
	"github.com/corvidwl/wlgo/protocol/core"
	"github.com/corvidwl/wlgo/protocol/datacontrol"
	"github.com/corvidwl/wlgo/protocol/foreigntoplevel"
	"github.com/corvidwl/wlgo/wlclient"
)

// session bundles the connection and the protocol managers every
// subcommand needs, torn down in one place.
type session struct {
	poll *eventloop.Poll
	conn *wlclient.Connection
	seat *core.Seat

	toplevels *foreigntoplevel.Manager
}

// connect brings up a connection, installs wl_output auto-bind, runs the
// initial registry sync, and binds the seat and foreign-toplevel
// manager. onToplevel, if non-nil, is wired before the sync so it sees
// toplevels announced during it.
func connect(onToplevel func(*foreigntoplevel.TopLevel)) (*session, error) {
	poll := eventloop.NewPoll(200 * time.Millisecond)
	conn, err := wlclient.Connect(poll)
	if err != nil {
		return nil, fmt.Errorf("connect to compositor: %w", err)
	}
	core.InstallAutoBind(conn)

	s := &session{poll: poll, conn: conn}

	syncDone := make(chan error, 1)
	if err := conn.RunInitialSync(func() {
		seat, err := core.BindSeat(conn)
		if err != nil {
			syncDone <- err
			return
		}
		s.seat = seat

		toplevels, err := foreigntoplevel.Bind(conn, onToplevel)
		if err != nil {
			syncDone <- err
			return
		}
		s.toplevels = toplevels
		syncDone <- nil
	}); err != nil {
		return nil, err
	}

	if err := s.pumpUntil(syncDone, 5*time.Second); err != nil {
		return nil, err
	}
	return s, nil
}

// pumpUntil runs the poll loop until done is signaled or timeout
// elapses, since wlctl is a one-shot CLI rather than a long-lived
// service. All dispatch happens on this goroutine, so done only ever
// receives from a callback invoked inside poll.RunOnce.
func (s *session) pumpUntil(done <-chan error, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case err := <-done:
			return err
		default:
		}
		if err := s.poll.RunOnce(); err != nil {
			wlog.L().Debug().Err(err).Msg("poll iteration error")
		}
	}
	return fmt.Errorf("timed out waiting for compositor")
}

// pumpForever runs the poll loop until stop is closed (e.g. by an
// interrupt signal), for subcommands with no natural completion point.
func (s *session) pumpForever(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if err := s.poll.RunOnce(); err != nil {
			wlog.L().Debug().Err(err).Msg("poll iteration error")
		}
	}
}

// roundtrip blocks until a sync reply comes back, letting a request's
// effects land before wlctl exits.
func (s *session) roundtrip() error {
	return wlclient.Roundtrip(s.conn, s.poll)
}

func (s *session) bindDataControl() (*datacontrol.Manager, *datacontrol.Device, error) {
	mgr, err := datacontrol.Bind(s.conn)
	if err != nil {
		return nil, nil, err
	}
	if s.seat == nil {
		return nil, nil, fmt.Errorf("no seat bound")
	}
	dev, err := mgr.GetDataDevice(s.seat)
	if err != nil {
		return nil, nil, err
	}
	return mgr, dev, nil
}

func (s *session) close() {
	s.conn.Shutdown()
}
