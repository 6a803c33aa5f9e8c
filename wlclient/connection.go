// Package wlclient implements the protocol runtime: the Connection (C3)
// that owns the socket, the object table, and the ID allocator, and the
// Proxy base (C4) that every typed interface embeds.
package wlclient

import (
	"net"
	"os"

	"github.com/rs/zerolog"

	"github.com/corvidwl/wlgo/eventloop"
	"github.com/corvidwl/wlgo/internal/wlog"
	"github.com/corvidwl/wlgo/wire"
)

// displayObjectID is reserved for the Display proxy; client-allocated IDs
// start at 2.
const displayObjectID uint32 = 1
const firstClientID uint32 = 2

// syncCallback is a one-shot handler registered against a synthetic ID for
// a sync() barrier reply. It is the "callback" variant of the object
// table's sum type described in §9.
type syncCallback func()

// tableEntry is the object table's sum type: either a typed proxy or a
// one-shot sync callback.
type tableEntry struct {
	proxy Proxy
	sync  syncCallback
}

// Connection is the singleton runtime per socket (C3).
type Connection struct {
	conn      *net.UnixConn
	transport *wire.Transport
	framer    wire.Framer
	loop      eventloop.Adapter
	log       zerolog.Logger

	objects   map[uint32]tableEntry
	reusePool []uint32
	nextID    uint32

	display  *Display
	registry *Registry

	closed bool
}

// Option configures Connection construction.
type Option func(*Connection)

// WithLogger overrides the default package logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Connection) { c.log = l }
}

// Connect resolves the socket path from XDG_RUNTIME_DIR and
// WAYLAND_DISPLAY, dials it, installs the Display proxy at ID 1, and
// registers the socket with loop. It does not perform the initial sync;
// call RunInitialSync and drive the event loop until its callback runs.
func Connect(loop eventloop.Adapter, opts ...Option) (*Connection, error) {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	displayName := os.Getenv("WAYLAND_DISPLAY")
	if runtimeDir == "" || displayName == "" {
		return nil, envMissingErr()
	}
	socketPath := runtimeDir + "/" + displayName

	addr, err := net.ResolveUnixAddr("unix", socketPath)
	if err != nil {
		return nil, connectFailedErr(err)
	}
	conn, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		return nil, connectFailedErr(err)
	}

	return Wrap(loop, conn, opts...)
}

// Wrap builds a Connection over an already-established Wayland socket
// instead of dialing one itself. This is the path Connect uses internally
// after resolving XDG_RUNTIME_DIR/WAYLAND_DISPLAY; it is also exported
// for callers that obtain their socket another way, such as systemd
// socket activation or a test harness driving a fake compositor over a
// socketpair.
func Wrap(loop eventloop.Adapter, conn *net.UnixConn, opts ...Option) (*Connection, error) {
	c := &Connection{
		conn:      conn,
		transport: wire.NewTransport(conn),
		loop:      loop,
		log:       *wlog.L(),
		objects:   make(map[uint32]tableEntry),
		nextID:    firstClientID,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.display = newDisplay(c)
	c.registerProxy(c.display)
	c.registry = newRegistry(c)

	rawConn, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, connectFailedErr(err)
	}
	var fd int
	rawConn.Control(func(f uintptr) { fd = int(f) })
	if err := loop.RegisterReader(fd, c.onReadable); err != nil {
		conn.Close()
		return nil, connectFailedErr(err)
	}

	return c, nil
}

// Display returns the pre-installed display proxy (object ID 1).
func (c *Connection) Display() *Display { return c.display }

// Registry returns the connection's single registry proxy.
func (c *Connection) Registry() *Registry { return c.registry }

// Logger returns the connection's logger, for protocol packages that want
// to log with the same sink.
func (c *Connection) Logger() *zerolog.Logger { return &c.log }

// NewObjectID allocates an ID: pops from the reuse pool if non-empty
// (FIFO), otherwise returns nextID and increments it.
func (c *Connection) NewObjectID() uint32 {
	if len(c.reusePool) > 0 {
		id := c.reusePool[0]
		c.reusePool = c.reusePool[1:]
		return id
	}
	id := c.nextID
	c.nextID++
	return id
}

// registerProxy registers a proxy under its own ID. Double registration
// is a fatal programmer error per §3's invariants.
func (c *Connection) registerProxy(p Proxy) {
	if _, exists := c.objects[p.ID()]; exists {
		panic(programmerErr("double registration of object id " + itoa(p.ID())).Error())
	}
	c.objects[p.ID()] = tableEntry{proxy: p}
}

// RegisterProxy is the public entry point protocol packages call once
// they have obtained an ID via NewObjectID.
func (c *Connection) RegisterProxy(p Proxy) {
	c.registerProxy(p)
}

// registerSyncCallback registers a one-shot callback under id.
func (c *Connection) registerSyncCallback(id uint32, cb syncCallback) {
	if _, exists := c.objects[id]; exists {
		panic(programmerErr("double registration of object id " + itoa(id)).Error())
	}
	c.objects[id] = tableEntry{sync: cb}
}

// Unregister removes id from the object table and invokes its
// destruction hook, without yet returning the ID to the reuse pool: per
// §3's lifecycle, a client-initiated destroy still awaits delete_id
// before the ID may be reused. Proxies call this right after sending
// their interface's destructor request.
func (c *Connection) Unregister(id uint32) {
	entry, ok := c.objects[id]
	if !ok {
		return
	}
	delete(c.objects, id)
	if entry.proxy != nil {
		entry.proxy.OnDestroyed()
	}
}

// unregisterAndReuse handles a delete_id acknowledgement: if the object
// is still present in the table (a server-issued removal the client
// never explicitly destroyed), it is unregistered first; either way the
// ID is now returned to the reuse pool.
func (c *Connection) unregisterAndReuse(id uint32) {
	if _, ok := c.objects[id]; ok {
		c.Unregister(id)
	}
	c.reusePool = append(c.reusePool, id)
}

// sendRequest marshals and writes one outbound message for the given
// object/opcode.
func (c *Connection) sendRequest(objectID uint32, opcode uint16, builder *wire.Builder) error {
	msg := builder.Build(objectID, opcode)
	return c.transport.Write(msg)
}

// Bind is the convenience path every protocol package uses: negotiate a
// bind through the registry, construct the typed proxy with the
// resulting ID and version, and register it. globalID of 0 selects the
// first-advertised global for iface.
func (c *Connection) Bind(iface string, globalID uint32, clientMax uint32, construct func(id, version uint32) Proxy) (Proxy, error) {
	id, version, err := c.registry.Bind(iface, globalID, clientMax)
	if err != nil {
		return nil, err
	}
	p := construct(id, version)
	c.RegisterProxy(p)
	return p, nil
}

// Sync allocates an ID, registers cb against it, and sends the display's
// sync request. The server replies with a done event on that ID, which
// invokes cb and removes the callback from the table. This is the
// runtime's only barrier primitive.
func (c *Connection) Sync(cb func()) error {
	id := c.NewObjectID()
	c.registerSyncCallback(id, syncCallback(cb))
	b := wire.NewBuilder().PutUint32(id)
	return c.sendRequest(displayObjectID, displayOpcodeSync, b)
}

// RunInitialSync issues the first sync barrier after construction. Its
// completion marks the registry ready for Bind calls (other than the
// eager wl_output auto-bind) and invokes onReady once that has happened.
func (c *Connection) RunInitialSync(onReady func()) error {
	return c.Sync(func() {
		c.registry.MarkInitialSyncComplete()
		if onReady != nil {
			onReady()
		}
	})
}

// onReadable is the event-loop callback registered for the socket FD.
func (c *Connection) onReadable() {
	buf := make([]byte, 64*1024)
	n, fds, err := c.transport.ReadChunk(buf)
	if err != nil {
		c.handleFatal(err)
		return
	}
	c.framer.Feed(buf[:n], fds)
	for {
		msg, ok, ferr := c.framer.Next()
		if ferr != nil {
			c.handleFatal(ferr)
			return
		}
		if !ok {
			return
		}
		c.dispatch(msg)
	}
}

func (c *Connection) dispatch(msg wire.Message) {
	entry, ok := c.objects[msg.ObjectID]
	if !ok {
		c.log.Warn().Uint32("object_id", msg.ObjectID).Msg("dropping event for unknown object")
		return
	}
	if entry.sync != nil {
		delete(c.objects, msg.ObjectID)
		entry.sync()
		return
	}
	r := wire.NewReader(msg.Payload, msg.FDs)
	if err := entry.proxy.Dispatch(msg.Opcode, r); err != nil {
		c.log.Error().Err(err).Uint32("object_id", msg.ObjectID).Uint16("opcode", msg.Opcode).
			Str("interface", entry.proxy.Interface()).Msg("event dispatch failed")
	}
}

// Roundtrip blocks, pumping poll, until a sync barrier issued right now
// has completed. It is the synchronous convenience path example programs
// and the CLI use instead of driving the Poll adapter themselves; it is
// not used internally by the runtime, which is otherwise purely
// callback-driven.
func Roundtrip(c *Connection, poll *eventloop.Poll) error {
	done := false
	if err := c.Sync(func() { done = true }); err != nil {
		return err
	}
	for !done && !c.closed {
		if err := poll.RunOnce(); err != nil {
			return err
		}
	}
	if c.closed {
		return wlDisconnectedDuringRoundtrip()
	}
	return nil
}

// handleDeleteID implements wl_display.delete_id handling (§4.3): removes
// the object, fires its destruction hook, and frees the ID for reuse.
func (c *Connection) handleDeleteID(id uint32) {
	c.unregisterAndReuse(id)
}

func (c *Connection) handleFatal(err error) {
	c.log.Error().Err(err).Msg("connection fatal error")
	c.Shutdown()
}

// Shutdown removes the socket FD from the event loop and closes the
// socket.
func (c *Connection) Shutdown() {
	if c.closed {
		return
	}
	c.closed = true
	rawConn, err := c.conn.SyscallConn()
	if err == nil {
		var fd int
		rawConn.Control(func(f uintptr) { fd = int(f) })
		c.loop.UnregisterReader(fd)
	}
	c.conn.Close()
}
