package wlclient

import "github.com/corvidwl/wlgo/wire"

// Proxy is the shared behavior of every typed object bound to a server
// object (C4): naming, version, opcode dispatch, and a destruction hook.
// Concrete protocol packages embed BaseProxy and implement Dispatch.
type Proxy interface {
	ID() uint32
	Interface() string
	Version() uint32
	// Dispatch routes one inbound event by opcode. Implementations
	// switch on opcode and decode arguments from r.
	Dispatch(opcode uint16, r *wire.Reader) error
	// OnDestroyed is invoked when the connection removes this proxy from
	// the object table, whether by local destroy or a server-issued
	// removal event.
	OnDestroyed()
}

// BaseProxy implements the bookkeeping every interface shares: embed it
// and implement Dispatch/OnDestroyed (a no-op OnDestroyed is usually
// fine) to satisfy Proxy.
type BaseProxy struct {
	conn    *Connection
	id      uint32
	iface   string
	version uint32
}

// InitBaseProxy wires a freshly allocated proxy's identity fields. Called
// by constructors once an ID has been obtained from the connection.
func (b *BaseProxy) InitBaseProxy(conn *Connection, id uint32, iface string, version uint32) {
	b.conn = conn
	b.id = id
	b.iface = iface
	b.version = version
}

func (b *BaseProxy) ID() uint32          { return b.id }
func (b *BaseProxy) Interface() string   { return b.iface }
func (b *BaseProxy) Version() uint32     { return b.version }
func (b *BaseProxy) Connection() *Connection { return b.conn }

// OnDestroyed is the default no-op hook; embedders needing cleanup
// override it by defining their own method (Go's method promotion means
// a type that defines OnDestroyed itself shadows this one).
func (b *BaseProxy) OnDestroyed() {}

// SendRequest marshals a request through the owning connection and
// writes it to the socket before returning.
func (b *BaseProxy) SendRequest(opcode uint16, builder *wire.Builder) error {
	return b.conn.sendRequest(b.id, opcode, builder)
}
