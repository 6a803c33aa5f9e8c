package virtualpointer

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

// fakeSeat is a minimal wlclient.Proxy standing in for a bound wl_seat,
// since these tests only need an object ID to encode, not a real seat.
type fakeSeat struct{ wlclient.BaseProxy }

func (fakeSeat) Dispatch(uint16, *wire.Reader) error { return nil }
func (fakeSeat) OnDestroyed()                         {}

func newFakeConnection(t *testing.T) (*wlclient.Connection, *net.UnixConn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	clientFile := os.NewFile(uintptr(fds[0]), "vp-test-client")
	serverFile := os.NewFile(uintptr(fds[1]), "vp-test-server")
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

	conn, err := wlclient.Wrap(eventloop.NewPoll(5*time.Millisecond), clientConn)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	t.Cleanup(func() {
		clientConn.Close()
		serverConn.Close()
	})
	return conn, serverConn
}

func drainAll(t *testing.T, server *net.UnixConn, n int) []wire.Message {
	t.Helper()
	tr := wire.NewTransport(server)
	var framer wire.Framer
	buf := make([]byte, 4096)
	msgs := make([]wire.Message, 0, n)
	for len(msgs) < n {
		nread, fds, err := tr.ReadChunk(buf)
		if err != nil {
			t.Fatalf("ReadChunk: %v", err)
		}
		framer.Feed(buf[:nread], fds)
		for {
			msg, ok, err := framer.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if !ok {
				break
			}
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func newTestPointer(t *testing.T, conn *wlclient.Connection) *Pointer {
	t.Helper()
	p := &Pointer{}
	p.InitBaseProxy(conn, conn.NewObjectID(), "zwlr_virtual_pointer_v1", 2)
	conn.RegisterProxy(p)
	return p
}

func TestClickSendsPressReleaseFrame(t *testing.T) {
	conn, server := newFakeConnection(t)
	drainAll(t, server, 1) // get_registry
	p := newTestPointer(t, conn)

	if err := p.Click(BtnLeft); err != nil {
		t.Fatalf("Click: %v", err)
	}
	msgs := drainAll(t, server, 3)

	wantOpcodes := []uint16{pointerOpcodeButton, pointerOpcodeButton, pointerOpcodeFrame}
	for i, op := range wantOpcodes {
		if msgs[i].Opcode != op {
			t.Fatalf("message %d opcode = %d, want %d", i, msgs[i].Opcode, op)
		}
	}

	r := wire.NewReader(msgs[0].Payload, nil)
	r.Uint32() // timestamp
	button, _ := r.Uint32()
	state, _ := r.Uint32()
	if button != BtnLeft || state != ButtonStatePressed {
		t.Fatalf("press = (button=%d state=%d), want (%d, %d)", button, state, BtnLeft, ButtonStatePressed)
	}

	r2 := wire.NewReader(msgs[1].Payload, nil)
	r2.Uint32()
	button2, _ := r2.Uint32()
	state2, _ := r2.Uint32()
	if button2 != BtnLeft || state2 != ButtonStateReleased {
		t.Fatalf("release = (button=%d state=%d), want (%d, %d)", button2, state2, BtnLeft, ButtonStateReleased)
	}
}

func TestScrollSendsAxisThenFrame(t *testing.T) {
	conn, server := newFakeConnection(t)
	drainAll(t, server, 1)
	p := newTestPointer(t, conn)

	if err := p.Scroll(AxisVertical, 10.5); err != nil {
		t.Fatalf("Scroll: %v", err)
	}
	msgs := drainAll(t, server, 2)
	if msgs[0].Opcode != pointerOpcodeAxis || msgs[1].Opcode != pointerOpcodeFrame {
		t.Fatalf("opcodes = (%d, %d), want (axis, frame)", msgs[0].Opcode, msgs[1].Opcode)
	}
	r := wire.NewReader(msgs[0].Payload, nil)
	r.Uint32()
	axis, _ := r.Uint32()
	value, _ := r.Fixed()
	if axis != AxisVertical || value.Float64() != 10.5 {
		t.Fatalf("axis event = (axis=%d value=%v), want (%d, 10.5)", axis, value.Float64(), AxisVertical)
	}
}

func TestMoveRelativeSendsMotionThenFrame(t *testing.T) {
	conn, server := newFakeConnection(t)
	drainAll(t, server, 1)
	p := newTestPointer(t, conn)

	if err := p.MoveRelative(3, -4); err != nil {
		t.Fatalf("MoveRelative: %v", err)
	}
	msgs := drainAll(t, server, 2)
	if msgs[0].Opcode != pointerOpcodeMotion || msgs[1].Opcode != pointerOpcodeFrame {
		t.Fatalf("opcodes = (%d, %d), want (motion, frame)", msgs[0].Opcode, msgs[1].Opcode)
	}
	r := wire.NewReader(msgs[0].Payload, nil)
	r.Uint32()
	dx, _ := r.Fixed()
	dy, _ := r.Fixed()
	if dx.Float64() != 3 || dy.Float64() != -4 {
		t.Fatalf("motion = (%v, %v), want (3, -4)", dx.Float64(), dy.Float64())
	}
}

func TestCreatePointerSendsSeatAndNewID(t *testing.T) {
	conn, server := newFakeConnection(t)
	drainAll(t, server, 1)

	m := &Manager{}
	m.InitBaseProxy(conn, conn.NewObjectID(), "zwlr_virtual_pointer_manager_v1", 2)
	conn.RegisterProxy(m)

	seat := &fakeSeat{}
	seat.InitBaseProxy(conn, conn.NewObjectID(), "wl_seat", 9)

	pointer, err := m.CreatePointer(seat)
	if err != nil {
		t.Fatalf("CreatePointer: %v", err)
	}
	msg := drainAll(t, server, 1)[0]
	if msg.Opcode != managerOpcodeCreateVirtualPointer {
		t.Fatalf("opcode = %d, want create_virtual_pointer", msg.Opcode)
	}
	r := wire.NewReader(msg.Payload, nil)
	seatID, _ := r.Uint32()
	newID, _ := r.Uint32()
	if seatID != seat.ID() || newID != pointer.ID() {
		t.Fatalf("request = (seat=%d new_id=%d), want (%d, %d)", seatID, newID, seat.ID(), pointer.ID())
	}
}
