package wlclient

import "github.com/corvidwl/wlgo/wire"

const (
	registryOpcodeBind uint16 = 0
)

const (
	registryEventGlobal       uint16 = 0
	registryEventGlobalRemove uint16 = 1
)

const outputInterfaceName = "wl_output"

// GlobalEntry is one registry entry: a global ID mapped to the interface
// name and version the compositor advertised for it.
type GlobalEntry struct {
	Name      uint32
	Interface string
	Version   uint32
}

// OutputFactory constructs and registers an Output-like proxy for a
// wl_output global. protocol/core supplies this via
// Registry.SetOutputFactory so wlclient never imports protocol packages.
type OutputFactory func(conn *Connection, globalID uint32, version uint32) Proxy

// Registry maintains the two indices described in §3 and is the sole
// gateway to binding new interfaces.
type Registry struct {
	BaseProxy

	globals     map[uint32]GlobalEntry
	byInterface map[string][]uint32

	syncCompleted bool
	outputFactory OutputFactory
	outputs       map[uint32]Proxy // keyed by global ID
}

func newRegistry(conn *Connection) *Registry {
	r := &Registry{
		globals:     make(map[uint32]GlobalEntry),
		byInterface: make(map[string][]uint32),
		outputs:     make(map[uint32]Proxy),
	}
	id := conn.NewObjectID()
	r.InitBaseProxy(conn, id, "wl_registry", 1)
	conn.RegisterProxy(r)
	if err := conn.display.getRegistry(id); err != nil {
		conn.log.Error().Err(err).Msg("failed to send get_registry")
	}
	return r
}

// SetOutputFactory installs the callback used to auto-bind wl_output
// globals as they are advertised, bypassing the initial-sync guard.
func (r *Registry) SetOutputFactory(f OutputFactory) {
	r.outputFactory = f
}

// MarkInitialSyncComplete is called by Connection once the first sync
// barrier after construction resolves. Bind refuses calls before this,
// except for the eager wl_output auto-bind.
func (r *Registry) MarkInitialSyncComplete() {
	r.syncCompleted = true
}

// Globals returns a snapshot of every currently advertised global.
func (r *Registry) Globals() []GlobalEntry {
	out := make([]GlobalEntry, 0, len(r.globals))
	for _, g := range r.globals {
		out = append(out, g)
	}
	return out
}

// FindGlobal returns the first-advertised global ID for the given
// interface name.
func (r *Registry) FindGlobal(iface string) (uint32, bool) {
	ids, ok := r.byInterface[iface]
	if !ok || len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// Outputs returns the currently bound output proxies.
func (r *Registry) Outputs() []Proxy {
	out := make([]Proxy, 0, len(r.outputs))
	for _, o := range r.outputs {
		out = append(out, o)
	}
	return out
}

// OutputByObjectID looks an auto-bound output up by its proxy object ID.
func (r *Registry) OutputByObjectID(objectID uint32) (Proxy, bool) {
	for _, o := range r.outputs {
		if o.ID() == objectID {
			return o, true
		}
	}
	return nil, false
}

// Bind negotiates and sends a bind request for the named interface.
// globalID, if non-zero, pins the specific global to bind; 0 selects the
// first-advertised global for iface. clientMax is the caller's maximum
// supported version. Bind allocates the new object's ID itself; the
// caller must construct its typed proxy with the returned ID and then
// call Connection.RegisterProxy before any event for it can arrive.
func (r *Registry) Bind(iface string, globalID uint32, clientMax uint32) (proxyID uint32, version uint32, err error) {
	if !r.syncCompleted && !bypassesInitialSync(iface) {
		return 0, 0, programmerErr("bind attempted before initial sync completed")
	}
	var entry GlobalEntry
	if globalID != 0 {
		g, ok := r.globals[globalID]
		if !ok || g.Interface != iface {
			return 0, 0, unsupportedProtocolErr(iface)
		}
		entry = g
	} else {
		id, ok := r.FindGlobal(iface)
		if !ok {
			return 0, 0, unsupportedProtocolErr(iface)
		}
		entry = r.globals[id]
	}

	negotiated := entry.Version
	if clientMax < negotiated {
		negotiated = clientMax
	}

	newID := r.Connection().NewObjectID()
	b := wire.NewBuilder().
		PutUint32(entry.Name).
		PutString(iface).
		PutUint32(negotiated).
		PutUint32(newID)
	if err := r.SendRequest(registryOpcodeBind, b); err != nil {
		return 0, 0, err
	}
	return newID, negotiated, nil
}

// bypassesInitialSync is true only for wl_output, whose instances the
// registry constructs eagerly as globals are advertised (§4.5).
func bypassesInitialSync(iface string) bool {
	return iface == outputInterfaceName
}

func (r *Registry) Dispatch(opcode uint16, rd *wire.Reader) error {
	switch opcode {
	case registryEventGlobal:
		return r.handleGlobal(rd)
	case registryEventGlobalRemove:
		return r.handleGlobalRemove(rd)
	default:
		return nil
	}
}

func (r *Registry) handleGlobal(rd *wire.Reader) error {
	name, err := rd.Uint32()
	if err != nil {
		return err
	}
	iface, err := rd.String()
	if err != nil {
		return err
	}
	version, err := rd.Uint32()
	if err != nil {
		return err
	}

	if _, dup := r.globals[name]; dup {
		r.Connection().log.Warn().Uint32("name", name).Msg("duplicate global id advertised, ignoring")
		return nil
	}
	entry := GlobalEntry{Name: name, Interface: iface, Version: version}
	r.globals[name] = entry
	r.byInterface[iface] = append(r.byInterface[iface], name)

	if iface == outputInterfaceName && r.outputFactory != nil {
		out := r.outputFactory(r.Connection(), name, version)
		if out != nil {
			r.outputs[name] = out
		}
	}
	return nil
}

func (r *Registry) handleGlobalRemove(rd *wire.Reader) error {
	name, err := rd.Uint32()
	if err != nil {
		return err
	}
	entry, ok := r.globals[name]
	if !ok {
		return nil
	}
	delete(r.globals, name)
	ids := r.byInterface[entry.Interface]
	for i, id := range ids {
		if id == name {
			r.byInterface[entry.Interface] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	// Open question resolved (b): instances already bound are left
	// live; the server is expected to close them itself if it intends
	// to tear them down. See SPEC_FULL.md.
	delete(r.outputs, name)
	r.Connection().log.Debug().Uint32("name", name).Str("interface", entry.Interface).
		Msg("global removed")
	return nil
}

func (r *Registry) OnDestroyed() {}
