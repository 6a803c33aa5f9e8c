// Package cosmicworkspaces implements the Cosmic workspace management
// extension (C6): a three-level manager → group → workspace hierarchy
// with a batched commit request.
package cosmicworkspaces

import (
	"github.com/corvidwl/wlgo/wire"
	"github.com/corvidwl/wlgo/wlclient"
)

const (
	managerInterface = "zcosmic_workspace_manager_v1"
	maxVersion       = 1
)

const (
	managerOpcodeCommit uint16 = 0
	managerOpcodeStop   uint16 = 1
)

const (
	managerEventWorkspaceGroup uint16 = 0
	managerEventDone           uint16 = 1
	managerEventFinished       uint16 = 2
)

const (
	groupEventOutputEnter  uint16 = 0
	groupEventOutputLeave  uint16 = 1
	groupEventWorkspace    uint16 = 2
	groupEventRemoved      uint16 = 3
	groupEventCapabilities uint16 = 4
)

const (
	workspaceEventName         uint16 = 0
	workspaceEventCoordinates  uint16 = 1
	workspaceEventState        uint16 = 2
	workspaceEventCapabilities uint16 = 3
	workspaceEventRemoved      uint16 = 4
)

const (
	workspaceOpcodeDestroy    uint16 = 0
	workspaceOpcodeActivate   uint16 = 1
	workspaceOpcodeDeactivate uint16 = 2
	workspaceOpcodeRemove     uint16 = 3
)

const (
	groupOpcodeCreateWorkspace uint16 = 0
	groupOpcodeDestroy         uint16 = 1
)

// Workspace capability opcodes; unknown values from the wire are logged
// and skipped per §4.6. Wire value 0 is unused.
const (
	CapabilityActivate   uint32 = 1
	CapabilityDeactivate uint32 = 2
	CapabilityRemove     uint32 = 3
)

// Group capability opcodes. This is a distinct wire value space from the
// workspace's own capabilities above; wire value 0 is unused.
const (
	CapabilityCreateWorkspace uint32 = 1
)

// Workspace state flags.
const (
	WorkspaceActive uint32 = 0
	WorkspaceUrgent uint32 = 1
	WorkspaceHidden uint32 = 2
)

// Manager is the root of the hierarchy.
type Manager struct {
	wlclient.BaseProxy

	groups     map[uint32]*Group
	onGroup    func(*Group)
}

func Bind(conn *wlclient.Connection, onGroup func(*Group)) (*Manager, error) {
	p, err := conn.Bind(managerInterface, 0, maxVersion, func(id, version uint32) wlclient.Proxy {
		m := &Manager{groups: make(map[uint32]*Group), onGroup: onGroup}
		m.InitBaseProxy(conn, id, managerInterface, version)
		return m
	})
	if err != nil {
		return nil, err
	}
	return p.(*Manager), nil
}

// Commit flushes any pending operations issued against this manager's
// groups and workspaces.
func (m *Manager) Commit() error {
	return m.SendRequest(managerOpcodeCommit, wire.NewBuilder())
}

// Stop requests the compositor cease sending workspace events.
func (m *Manager) Stop() error {
	return m.SendRequest(managerOpcodeStop, wire.NewBuilder())
}

func (m *Manager) Groups() []*Group {
	out := make([]*Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	return out
}

func (m *Manager) Dispatch(opcode uint16, r *wire.Reader) error {
	switch opcode {
	case managerEventWorkspaceGroup:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		g := &Group{
			manager:    m,
			outputs:    make(map[uint32]struct{}),
			workspaces: make(map[uint32]*Workspace),
		}
		g.InitBaseProxy(m.Connection(), id, "zcosmic_workspace_group_handle_v1", m.Version())
		m.Connection().RegisterProxy(g)
		m.groups[id] = g
		if m.onGroup != nil {
			m.onGroup(g)
		}
		return nil
	case managerEventDone, managerEventFinished:
		return nil
	default:
		return nil
	}
}

func (m *Manager) OnDestroyed() {}

// Group tracks one workspace group's outputs, workspaces, and parsed
// capability set.
type Group struct {
	wlclient.BaseProxy

	manager      *Manager
	outputs      map[uint32]struct{}
	workspaces   map[uint32]*Workspace
	capabilities map[uint32]bool
	onWorkspace  func(*Workspace)
}

// OnWorkspace registers the callback invoked for every new workspace
// this group announces.
func (g *Group) OnWorkspace(cb func(*Workspace)) { g.onWorkspace = cb }

func (g *Group) Outputs() map[uint32]struct{} { return g.outputs }
func (g *Group) Workspaces() []*Workspace {
	out := make([]*Workspace, 0, len(g.workspaces))
	for _, w := range g.workspaces {
		out = append(out, w)
	}
	return out
}
func (g *Group) HasCapability(c uint32) bool { return g.capabilities[c] }

// CreateWorkspace asks the compositor to create a new workspace within
// this group with the given name.
func (g *Group) CreateWorkspace(name string) error {
	return g.SendRequest(groupOpcodeCreateWorkspace, wire.NewBuilder().PutString(name))
}

// Destroy destroys this workspace group.
func (g *Group) Destroy() error {
	err := g.SendRequest(groupOpcodeDestroy, wire.NewBuilder())
	g.Connection().Unregister(g.ID())
	delete(g.manager.groups, g.ID())
	return err
}

func (g *Group) Dispatch(opcode uint16, r *wire.Reader) error {
	switch opcode {
	case groupEventOutputEnter:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		g.outputs[id] = struct{}{}
		return nil
	case groupEventOutputLeave:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		delete(g.outputs, id)
		return nil
	case groupEventWorkspace:
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		w := &Workspace{
			group:        g,
			capabilities: make(map[uint32]bool),
			states:       make(map[uint32]bool),
		}
		w.InitBaseProxy(g.Connection(), id, "zcosmic_workspace_handle_v1", g.Version())
		g.Connection().RegisterProxy(w)
		g.workspaces[id] = w
		if g.onWorkspace != nil {
			g.onWorkspace(w)
		}
		return nil
	case groupEventCapabilities:
		raw, err := r.Array()
		if err != nil {
			return err
		}
		g.capabilities = parseGroupCapabilities(g.Connection(), raw)
		return nil
	case groupEventRemoved:
		g.Connection().Unregister(g.ID())
		delete(g.manager.groups, g.ID())
		return nil
	default:
		return nil
	}
}

func (g *Group) OnDestroyed() {}

func parseCapabilities(conn *wlclient.Connection, raw []byte) map[uint32]bool {
	caps := make(map[uint32]bool)
	for i := 0; i+4 <= len(raw); i += 4 {
		v := uint32(raw[i]) | uint32(raw[i+1])<<8 | uint32(raw[i+2])<<16 | uint32(raw[i+3])<<24
		switch v {
		case CapabilityActivate, CapabilityDeactivate, CapabilityRemove:
			caps[v] = true
		default:
			conn.Logger().Debug().Uint32("capability", v).Msg("unknown workspace capability, skipping")
		}
	}
	return caps
}

func parseGroupCapabilities(conn *wlclient.Connection, raw []byte) map[uint32]bool {
	caps := make(map[uint32]bool)
	for i := 0; i+4 <= len(raw); i += 4 {
		v := uint32(raw[i]) | uint32(raw[i+1])<<8 | uint32(raw[i+2])<<16 | uint32(raw[i+3])<<24
		switch v {
		case CapabilityCreateWorkspace:
			caps[v] = true
		default:
			conn.Logger().Debug().Uint32("capability", v).Msg("unknown workspace group capability, skipping")
		}
	}
	return caps
}

// Workspace is one virtual desktop within a group.
type Workspace struct {
	wlclient.BaseProxy

	group        *Group
	name         string
	capabilities map[uint32]bool
	states       map[uint32]bool

	onRemoved func()
}

func (w *Workspace) Name() string          { return w.name }
func (w *Workspace) HasState(s uint32) bool { return w.states[s] }
func (w *Workspace) OnRemoved(cb func())   { w.onRemoved = cb }

func (w *Workspace) Activate() error {
	return w.SendRequest(workspaceOpcodeActivate, wire.NewBuilder())
}

func (w *Workspace) Deactivate() error {
	return w.SendRequest(workspaceOpcodeDeactivate, wire.NewBuilder())
}

func (w *Workspace) Remove() error {
	return w.SendRequest(workspaceOpcodeRemove, wire.NewBuilder())
}

func (w *Workspace) Destroy() error {
	err := w.SendRequest(workspaceOpcodeDestroy, wire.NewBuilder())
	w.Connection().Unregister(w.ID())
	delete(w.group.workspaces, w.ID())
	return err
}

func (w *Workspace) Dispatch(opcode uint16, r *wire.Reader) error {
	switch opcode {
	case workspaceEventName:
		v, err := r.String()
		if err != nil {
			return err
		}
		w.name = v
		return nil
	case workspaceEventCoordinates:
		_, err := r.Array()
		return err
	case workspaceEventState:
		raw, err := r.Array()
		if err != nil {
			return err
		}
		states := make(map[uint32]bool)
		for i := 0; i+4 <= len(raw); i += 4 {
			v := uint32(raw[i]) | uint32(raw[i+1])<<8 | uint32(raw[i+2])<<16 | uint32(raw[i+3])<<24
			switch v {
			case WorkspaceActive, WorkspaceUrgent, WorkspaceHidden:
				states[v] = true
			default:
				w.Connection().Logger().Debug().Uint32("state", v).Msg("unknown workspace state, skipping")
			}
		}
		w.states = states
		return nil
	case workspaceEventCapabilities:
		raw, err := r.Array()
		if err != nil {
			return err
		}
		w.capabilities = parseCapabilities(w.Connection(), raw)
		return nil
	case workspaceEventRemoved:
		// The "workspace_removed" callback is delivered before the
		// proxy destroys itself and is dropped from its group's set,
		// per §4.6 — the library stays policy-neutral here and does not
		// reactivate any other workspace on removal.
		if w.onRemoved != nil {
			w.onRemoved()
		}
		w.Connection().Unregister(w.ID())
		delete(w.group.workspaces, w.ID())
		return nil
	default:
		return nil
	}
}

func (w *Workspace) OnDestroyed() {}
