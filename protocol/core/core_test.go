package core

import (
	"net"
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/corvidwl/wlgo/eventloop"
	"github.com/corvidwl/wlgo/wire"
	"github.com/corvidwl/wlgo/wlclient"
)

// newFakeCompositor wires a wlclient.Connection over a socketpair to a
// real eventloop.Poll, returning the connection, the poll driving it, and
// the peer socket end standing in for the compositor. Connect's
// XDG_RUNTIME_DIR/WAYLAND_DISPLAY-driven dial is bypassed via Wrap.
func newFakeCompositor(t *testing.T) (*wlclient.Connection, *eventloop.Poll, *net.UnixConn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	clientFile := os.NewFile(uintptr(fds[0]), "core-test-client")
	serverFile := os.NewFile(uintptr(fds[1]), "core-test-server")
	defer clientFile.Close()
	defer serverFile.Close()

	clientGeneric, err := net.FileConn(clientFile)
	if err != nil {
		t.Fatalf("FileConn(client): %v", err)
	}
	serverGeneric, err := net.FileConn(serverFile)
	if err != nil {
		t.Fatalf("FileConn(server): %v", err)
	}
	clientConn := clientGeneric.(*net.UnixConn)
	serverConn := serverGeneric.(*net.UnixConn)

	poll := eventloop.NewPoll(5 * time.Millisecond)
	conn, err := wlclient.Wrap(poll, clientConn)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
	})
	return conn, poll, serverConn
}

const (
	registryEventGlobal uint16 = 0 // wl_registry.global, wire-protocol-stable
	registryOpcodeBind  uint16 = 0 // wl_registry.bind
)

func drainMessage(t *testing.T, server *net.UnixConn) wire.Message {
	t.Helper()
	tr := wire.NewTransport(server)
	var framer wire.Framer
	buf := make([]byte, 4096)
	for {
		n, fds, err := tr.ReadChunk(buf)
		if err != nil {
			t.Fatalf("ReadChunk: %v", err)
		}
		framer.Feed(buf[:n], fds)
		if msg, ok, err := framer.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		} else if ok {
			return msg
		}
	}
}

func advertiseGlobal(t *testing.T, server *net.UnixConn, registryID, name uint32, iface string, version uint32) {
	t.Helper()
	tr := wire.NewTransport(server)
	msg := wire.NewBuilder().PutUint32(name).PutString(iface).PutUint32(version).
		Build(registryID, registryEventGlobal)
	if err := tr.Write(msg); err != nil {
		t.Fatalf("advertiseGlobal write: %v", err)
	}
}

// completeInitialSync drives conn.RunInitialSync to completion against
// the fake compositor: drains the sync request it sends, replies as the
// done event, and pumps the poll until the registry's ready flag flips.
func completeInitialSync(t *testing.T, conn *wlclient.Connection, poll *eventloop.Poll, server *net.UnixConn) {
	t.Helper()
	ready := false
	if err := conn.RunInitialSync(func() { ready = true }); err != nil {
		t.Fatalf("RunInitialSync: %v", err)
	}
	syncReq := drainMessage(t, server)
	r := wire.NewReader(syncReq.Payload, nil)
	cbID, err := r.Uint32()
	if err != nil {
		t.Fatalf("decode sync callback id: %v", err)
	}
	tr := wire.NewTransport(server)
	if err := tr.Write(wire.NewBuilder().Build(cbID, 0)); err != nil {
		t.Fatalf("reply to sync: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for !ready && time.Now().Before(deadline) {
		if err := poll.RunOnce(); err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
	}
	if !ready {
		t.Fatal("initial sync did not complete")
	}
}

func pumpUntilDrained(t *testing.T, poll *eventloop.Poll) {
	t.Helper()
	// A couple of idle iterations are enough to let any already-buffered
	// socket bytes reach the dispatch loop once, since the test writes
	// to the peer before calling this and the poll's maxWait is short.
	for i := 0; i < 3; i++ {
		if err := poll.RunOnce(); err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
	}
}

func TestBindSeatDispatchesCapabilitiesAndName(t *testing.T) {
	conn, poll, server := newFakeCompositor(t)
	drainMessage(t, server) // get_registry

	advertiseGlobal(t, server, conn.Registry().ID(), 1, "wl_seat", 9)
	completeInitialSync(t, conn, poll, server)

	seat, err := BindSeat(conn)
	if err != nil {
		t.Fatalf("BindSeat: %v", err)
	}
	bindReq := drainMessage(t, server)
	if bindReq.Opcode != registryOpcodeBind {
		t.Fatalf("opcode = %d, want bind", bindReq.Opcode)
	}

	tr := wire.NewTransport(server)
	capsMsg := wire.NewBuilder().PutUint32(SeatCapabilityPointer | SeatCapabilityKeyboard).
		Build(seat.ID(), seatEventCapabilities)
	if err := tr.Write(capsMsg); err != nil {
		t.Fatalf("write capabilities: %v", err)
	}
	nameMsg := wire.NewBuilder().PutString("seat0").Build(seat.ID(), seatEventName)
	if err := tr.Write(nameMsg); err != nil {
		t.Fatalf("write name: %v", err)
	}
	pumpUntilDrained(t, poll)

	if seat.Capabilities&SeatCapabilityPointer == 0 || seat.Capabilities&SeatCapabilityKeyboard == 0 {
		t.Fatalf("Capabilities = %#x, want pointer|keyboard bits set", seat.Capabilities)
	}
	if seat.Name != "seat0" {
		t.Fatalf("Name = %q, want seat0", seat.Name)
	}
}

func TestSeatReleaseNoOpBelowVersion5(t *testing.T) {
	conn, poll, server := newFakeCompositor(t)
	drainMessage(t, server)
	advertiseGlobal(t, server, conn.Registry().ID(), 1, "wl_seat", 3)
	completeInitialSync(t, conn, poll, server)

	seat, err := BindSeat(conn)
	if err != nil {
		t.Fatalf("BindSeat: %v", err)
	}
	drainMessage(t, server) // the bind request

	if err := seat.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	// A version-3 seat must not have sent a release request; the next
	// thing the server receives should be the following sync, not a
	// release request in between.
	if err := conn.Sync(func() {}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	msg := drainMessage(t, server)
	if msg.ObjectID != conn.Display().ID() {
		t.Fatalf("expected only the sync request to have been sent, got object=%d opcode=%d", msg.ObjectID, msg.Opcode)
	}
}

func TestShmCreatePoolAndBufferValidation(t *testing.T) {
	conn, poll, server := newFakeCompositor(t)
	drainMessage(t, server)
	advertiseGlobal(t, server, conn.Registry().ID(), 1, "wl_shm", 1)
	completeInitialSync(t, conn, poll, server)

	shm, err := BindShm(conn)
	if err != nil {
		t.Fatalf("BindShm: %v", err)
	}
	drainMessage(t, server) // bind request

	tr := wire.NewTransport(server)
	formatMsg := wire.NewBuilder().PutUint32(ShmFormatArgb8888).Build(shm.ID(), shmEventFormat)
	if err := tr.Write(formatMsg); err != nil {
		t.Fatalf("write format: %v", err)
	}
	pumpUntilDrained(t, poll)
	if !shm.SupportsFormat(ShmFormatArgb8888) {
		t.Fatal("SupportsFormat should report true after a format event")
	}

	memFd, err := unix.MemfdCreate("core-test-pool", 0)
	if err != nil {
		t.Fatalf("MemfdCreate: %v", err)
	}
	defer unix.Close(memFd)
	if err := unix.Ftruncate(memFd, 4096); err != nil {
		t.Fatalf("Ftruncate: %v", err)
	}

	pool, err := shm.CreatePool(memFd, 4096)
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	drainMessage(t, server) // create_pool request

	if _, err := pool.CreateBuffer(shm, 0, 64, 4, 256, ShmFormatXrgb8888); err == nil {
		t.Fatal("CreateBuffer should reject an unadvertised format")
	}
	if _, err := pool.CreateBuffer(shm, 0, 64, -1, 256, ShmFormatArgb8888); err == nil {
		t.Fatal("CreateBuffer should reject a negative dimension")
	}
	if _, err := pool.CreateBuffer(shm, 4096, 64, 64, 256, ShmFormatArgb8888); err == nil {
		t.Fatal("CreateBuffer should reject a buffer extending past the pool size")
	}
	buf, err := pool.CreateBuffer(shm, 0, 64, 4, 256, ShmFormatArgb8888)
	if err != nil {
		t.Fatalf("CreateBuffer with valid arguments: %v", err)
	}
	drainMessage(t, server) // create_buffer request

	if buf.Released() {
		t.Fatal("a fresh buffer should not report released")
	}
	releaseMsg := wire.NewBuilder().Build(buf.ID(), bufferEventRelease)
	if err := tr.Write(releaseMsg); err != nil {
		t.Fatalf("write release: %v", err)
	}
	pumpUntilDrained(t, poll)
	if !buf.Released() {
		t.Fatal("Released() should report true after the release event")
	}
}

func TestOutputAutoBindTracksCurrentMode(t *testing.T) {
	conn, poll, server := newFakeCompositor(t)
	drainMessage(t, server)
	InstallAutoBind(conn)

	advertiseGlobal(t, server, conn.Registry().ID(), 1, "wl_output", 4)
	pumpUntilDrained(t, poll)
	drainMessage(t, server) // the auto-bind request

	outputs := conn.Registry().Outputs()
	if len(outputs) != 1 {
		t.Fatalf("Outputs() = %d entries, want 1", len(outputs))
	}
	out := outputs[0].(*Output)

	tr := wire.NewTransport(server)
	modeMsg := wire.NewBuilder().PutUint32(ModeCurrent).PutInt32(1920).PutInt32(1080).PutInt32(60000).
		Build(out.ID(), outputEventMode)
	if err := tr.Write(modeMsg); err != nil {
		t.Fatalf("write mode: %v", err)
	}
	pumpUntilDrained(t, poll)
	if out.Width != 1920 || out.Height != 1080 || out.RefreshMilliHz != 60000 {
		t.Fatalf("mode not applied: width=%d height=%d refresh=%d", out.Width, out.Height, out.RefreshMilliHz)
	}
}
