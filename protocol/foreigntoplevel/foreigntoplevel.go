// Package foreigntoplevel implements the wlr-foreign-toplevel-management
// extension (C6): a manager that reports one TopLevel proxy per
// application window, accumulating app-id/title/output/state until a
// done event delivers a synced snapshot.
package foreigntoplevel

import (
	"github.com/corvidwl/wlgo/wire"
	"github.com/corvidwl/wlgo/wlclient"
)

const (
	managerInterface = "zwlr_foreign_toplevel_manager_v1"
	maxVersion       = 3
)

const (
	managerOpcodeStop uint16 = 0
)

const (
	managerEventToplevel uint16 = 0
	managerEventFinished uint16 = 1
)

const (
	toplevelOpcodeSetMaximized   uint16 = 0
	toplevelOpcodeUnsetMaximized uint16 = 1
	toplevelOpcodeSetMinimized   uint16 = 2
	toplevelOpcodeUnsetMinimized uint16 = 3
	toplevelOpcodeActivate       uint16 = 4
	toplevelOpcodeClose          uint16 = 5
	toplevelOpcodeSetFullscreen  uint16 = 8
	toplevelOpcodeUnsetFullscreen uint16 = 9
	toplevelOpcodeDestroy        uint16 = 7
)

const (
	toplevelEventTitle        uint16 = 0
	toplevelEventAppID        uint16 = 1
	toplevelEventOutputEnter  uint16 = 2
	toplevelEventOutputLeave  uint16 = 3
	toplevelEventState        uint16 = 4
	toplevelEventDone         uint16 = 5
	toplevelEventClosed       uint16 = 6
	toplevelEventParent       uint16 = 7
)

// State flag values from the protocol's state enum; unknown values
// decoded from the wire are ignored per §4.6.
const (
	StateMaximized uint32 = 0
	StateMinimized uint32 = 1
	StateActivated uint32 = 2
	StateFullscreen uint32 = 3
)

// Snapshot is the accumulated state delivered by a toplevel's "synced"
// callback once a done event arrives.
type Snapshot struct {
	AppID   string
	Title   string
	Parent  *TopLevel
	Outputs map[uint32]struct{}
	States  map[uint32]bool
}

// Manager tracks every live toplevel by object ID.
type Manager struct {
	wlclient.BaseProxy

	toplevels map[uint32]*TopLevel
	onToplevel func(*TopLevel)
}

// Bind binds the foreign-toplevel manager global. onToplevel, if set, is
// invoked for every new TopLevel the compositor announces, before its
// first synced snapshot arrives.
func Bind(conn *wlclient.Connection, onToplevel func(*TopLevel)) (*Manager, error) {
	p, err := conn.Bind(managerInterface, 0, maxVersion, func(id, version uint32) wlclient.Proxy {
		m := &Manager{toplevels: make(map[uint32]*TopLevel), onToplevel: onToplevel}
		m.InitBaseProxy(conn, id, managerInterface, version)
		return m
	})
	if err != nil {
		return nil, err
	}
	return p.(*Manager), nil
}

// TopLevels returns a snapshot slice of currently tracked toplevels.
func (m *Manager) TopLevels() []*TopLevel {
	out := make([]*TopLevel, 0, len(m.toplevels))
	for _, t := range m.toplevels {
		out = append(out, t)
	}
	return out
}

// Stop requests the compositor cease sending toplevel events (version
// dependent destructor-style request).
func (m *Manager) Stop() error {
	return m.SendRequest(managerOpcodeStop, wire.NewBuilder())
}

func (m *Manager) Dispatch(opcode uint16, r *wire.Reader) error {
	switch opcode {
	case managerEventToplevel:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		t := &TopLevel{
			outputs: make(map[uint32]struct{}),
			states:  make(map[uint32]bool),
			manager: m,
		}
		t.InitBaseProxy(m.Connection(), id, "zwlr_foreign_toplevel_handle_v1", m.Version())
		m.Connection().RegisterProxy(t)
		m.toplevels[id] = t
		if m.onToplevel != nil {
			m.onToplevel(t)
		}
		return nil
	case managerEventFinished:
		return nil
	default:
		return nil
	}
}

func (m *Manager) OnDestroyed() {}

// TopLevel is one application window.
type TopLevel struct {
	wlclient.BaseProxy

	manager *Manager
	appID   string
	title   string
	parent  *TopLevel
	outputs map[uint32]struct{}
	states  map[uint32]bool

	onSynced func(Snapshot)
	onClosed func()
}

// OnSynced registers the callback invoked once per done event with the
// accumulated snapshot.
func (t *TopLevel) OnSynced(cb func(Snapshot)) { t.onSynced = cb }

// OnClosed registers the callback invoked exactly once when the
// compositor closes this toplevel.
func (t *TopLevel) OnClosed(cb func()) { t.onClosed = cb }

// AppID and Title return the most recently dispatched values, valid
// once a synced snapshot has been delivered at least once.
func (t *TopLevel) AppID() string { return t.appID }
func (t *TopLevel) Title() string { return t.title }

func (t *TopLevel) Activate(seat wlclient.Proxy) error {
	return t.SendRequest(toplevelOpcodeActivate, wire.NewBuilder().PutUint32(seat.ID()))
}

func (t *TopLevel) Close() error {
	return t.SendRequest(toplevelOpcodeClose, wire.NewBuilder())
}

func (t *TopLevel) SetMaximized(on bool) error {
	if on {
		return t.SendRequest(toplevelOpcodeSetMaximized, wire.NewBuilder())
	}
	return t.SendRequest(toplevelOpcodeUnsetMaximized, wire.NewBuilder())
}

func (t *TopLevel) SetMinimized(on bool) error {
	if on {
		return t.SendRequest(toplevelOpcodeSetMinimized, wire.NewBuilder())
	}
	return t.SendRequest(toplevelOpcodeUnsetMinimized, wire.NewBuilder())
}

func (t *TopLevel) SetFullscreen(on bool, output wlclient.Proxy) error {
	if on {
		b := wire.NewBuilder()
		if output != nil {
			b.PutUint32(output.ID())
		} else {
			b.PutUint32(0)
		}
		return t.SendRequest(toplevelOpcodeSetFullscreen, b)
	}
	return t.SendRequest(toplevelOpcodeUnsetFullscreen, wire.NewBuilder())
}

func (t *TopLevel) Destroy() error {
	err := t.SendRequest(toplevelOpcodeDestroy, wire.NewBuilder())
	t.Connection().Unregister(t.ID())
	delete(t.manager.toplevels, t.ID())
	return err
}

func (t *TopLevel) Dispatch(opcode uint16, r *wire.Reader) error {
	switch opcode {
	case toplevelEventTitle:
		v, err := r.String()
		if err != nil {
			return err
		}
		t.title = v
		return nil
	case toplevelEventAppID:
		v, err := r.String()
		if err != nil {
			return err
		}
		t.appID = v
		return nil
	case toplevelEventOutputEnter:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		t.outputs[id] = struct{}{}
		return nil
	case toplevelEventOutputLeave:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		delete(t.outputs, id)
		return nil
	case toplevelEventState:
		raw, err := r.Array()
		if err != nil {
			return err
		}
		newStates := make(map[uint32]bool)
		for i := 0; i+4 <= len(raw); i += 4 {
			v := uint32(raw[i]) | uint32(raw[i+1])<<8 | uint32(raw[i+2])<<16 | uint32(raw[i+3])<<24
			switch v {
			case StateMaximized, StateMinimized, StateActivated, StateFullscreen:
				newStates[v] = true
			default:
				t.Connection().Logger().Debug().Uint32("state", v).Msg("unknown toplevel state, ignoring")
			}
		}
		t.states = newStates
		return nil
	case toplevelEventParent:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		if id == 0 {
			t.parent = nil
			return nil
		}
		if p, ok := t.manager.toplevels[id]; ok {
			t.parent = p
		}
		return nil
	case toplevelEventDone:
		if t.onSynced != nil {
			t.onSynced(t.snapshot())
		}
		return nil
	case toplevelEventClosed:
		if t.onClosed != nil {
			t.onClosed()
		}
		t.Connection().Unregister(t.ID())
		delete(t.manager.toplevels, t.ID())
		return nil
	default:
		return nil
	}
}

func (t *TopLevel) snapshot() Snapshot {
	outputs := make(map[uint32]struct{}, len(t.outputs))
	for k := range t.outputs {
		outputs[k] = struct{}{}
	}
	states := make(map[uint32]bool, len(t.states))
	for k, v := range t.states {
		states[k] = v
	}
	return Snapshot{AppID: t.appID, Title: t.title, Parent: t.parent, Outputs: outputs, States: states}
}

func (t *TopLevel) OnDestroyed() {}
