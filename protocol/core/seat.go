package core

import (
	"github.com/corvidwl/wlgo/wire"
	"github.com/corvidwl/wlgo/wlclient"
)

const seatMaxVersion uint32 = 9

const (
	seatOpcodeGetPointer  uint16 = 0
	seatOpcodeGetKeyboard uint16 = 1
	seatOpcodeGetTouch    uint16 = 2
	seatOpcodeRelease     uint16 = 3
)

const (
	seatEventCapabilities uint16 = 0
	seatEventName         uint16 = 1
)

// Seat capability bits, per wl_seat.capability.
const (
	SeatCapabilityPointer  uint32 = 1
	SeatCapabilityKeyboard uint32 = 2
	SeatCapabilityTouch    uint32 = 4
)

// Seat is the abstraction of a user's input devices.
type Seat struct {
	wlclient.BaseProxy

	Capabilities uint32
	Name         string
}

// BindSeat binds the first-advertised wl_seat global. Must be called
// after initial sync per §4.5.
func BindSeat(conn *wlclient.Connection) (*Seat, error) {
	p, err := conn.Bind("wl_seat", 0, seatMaxVersion, func(id, version uint32) wlclient.Proxy {
		s := &Seat{}
		s.InitBaseProxy(conn, id, "wl_seat", version)
		return s
	})
	if err != nil {
		return nil, err
	}
	return p.(*Seat), nil
}

// GetPointer returns an opaque handle to the seat's pointer capability.
// Decoding further pointer events is toolkit territory and out of scope.
func (s *Seat) GetPointer() (*Capability, error) {
	return s.getCapability(seatOpcodeGetPointer, "wl_pointer")
}

func (s *Seat) GetKeyboard() (*Capability, error) {
	return s.getCapability(seatOpcodeGetKeyboard, "wl_keyboard")
}

func (s *Seat) GetTouch() (*Capability, error) {
	return s.getCapability(seatOpcodeGetTouch, "wl_touch")
}

func (s *Seat) getCapability(opcode uint16, iface string) (*Capability, error) {
	id := s.Connection().NewObjectID()
	b := wire.NewBuilder().PutUint32(id)
	if err := s.SendRequest(opcode, b); err != nil {
		return nil, err
	}
	c := &Capability{}
	c.InitBaseProxy(s.Connection(), id, iface, s.Version())
	s.Connection().RegisterProxy(c)
	return c, nil
}

// Release requests destruction of the seat (version >= 5 only).
func (s *Seat) Release() error {
	if s.Version() < 5 {
		return nil
	}
	return s.SendRequest(seatOpcodeRelease, wire.NewBuilder())
}

func (s *Seat) Dispatch(opcode uint16, r *wire.Reader) error {
	switch opcode {
	case seatEventCapabilities:
		v, err := r.Uint32()
		if err != nil {
			return err
		}
		s.Capabilities = v
		return nil
	case seatEventName:
		v, err := r.String()
		if err != nil {
			return err
		}
		s.Name = v
		return nil
	default:
		return nil
	}
}

func (s *Seat) OnDestroyed() {}

// Capability is an opaque handle for wl_pointer/wl_keyboard/wl_touch:
// correctly opcode-addressed for release, but deliberately does not
// decode motion/key/touch events, which belong to a graphical toolkit
// (a Non-goal here).
type Capability struct {
	wlclient.BaseProxy
}

func (c *Capability) Dispatch(uint16, *wire.Reader) error { return nil }
func (c *Capability) OnDestroyed()                         {}

func (c *Capability) Release() error {
	opcode := uint16(0)
	if c.Interface() == "wl_pointer" {
		opcode = 1 // wl_pointer.set_cursor occupies opcode 0
	}
	return c.SendRequest(opcode, wire.NewBuilder())
}
