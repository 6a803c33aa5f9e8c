// Package virtualpointer implements the wlr-virtual-pointer-unstable-v1
// extension (C6): a manager that creates virtual pointer devices and
// injects relative/absolute motion, button, and scroll-axis events.
package virtualpointer

import (
	"time"

	"github.com/corvidwl/wlgo/wire"
	"github.com/corvidwl/wlgo/wlclient"
)

const (
	managerInterface = "zwlr_virtual_pointer_manager_v1"
	maxVersion       = 2
)

const (
	managerOpcodeCreateVirtualPointer           uint16 = 0
	managerOpcodeCreateVirtualPointerWithOutput uint16 = 1
	managerOpcodeDestroy                        uint16 = 2
)

const (
	pointerOpcodeMotion         uint16 = 0
	pointerOpcodeMotionAbsolute uint16 = 1
	pointerOpcodeButton         uint16 = 2
	pointerOpcodeAxis           uint16 = 3
	pointerOpcodeFrame          uint16 = 4
	pointerOpcodeAxisSource     uint16 = 5
	pointerOpcodeAxisStop       uint16 = 6
	pointerOpcodeAxisDiscrete   uint16 = 7
	pointerOpcodeDestroy        uint16 = 8
)

// Linux evdev button codes, per the wl_pointer.button convention.
const (
	BtnLeft   uint32 = 0x110
	BtnRight  uint32 = 0x111
	BtnMiddle uint32 = 0x112
	BtnSide   uint32 = 0x113
	BtnExtra  uint32 = 0x114
)

const (
	ButtonStateReleased uint32 = 0
	ButtonStatePressed  uint32 = 1
)

const (
	AxisVertical   uint32 = 0
	AxisHorizontal uint32 = 1
)

const (
	AxisSourceWheel      uint32 = 0
	AxisSourceFinger     uint32 = 1
	AxisSourceContinuous uint32 = 2
	AxisSourceWheelTilt  uint32 = 3
)

// Manager creates virtual pointers bound to a seat, optionally confined
// to a specific output.
type Manager struct {
	wlclient.BaseProxy
}

func Bind(conn *wlclient.Connection) (*Manager, error) {
	p, err := conn.Bind(managerInterface, 0, maxVersion, func(id, version uint32) wlclient.Proxy {
		m := &Manager{}
		m.InitBaseProxy(conn, id, managerInterface, version)
		return m
	})
	if err != nil {
		return nil, err
	}
	return p.(*Manager), nil
}

// CreatePointer creates a pointer tied to seat.
func (m *Manager) CreatePointer(seat wlclient.Proxy) (*Pointer, error) {
	id := m.Connection().NewObjectID()
	b := wire.NewBuilder().PutUint32(seat.ID()).PutUint32(id)
	if err := m.SendRequest(managerOpcodeCreateVirtualPointer, b); err != nil {
		return nil, err
	}
	return m.wrap(id), nil
}

// CreatePointerForOutput creates a pointer tied to seat, confined to
// output (only version 2 of the manager supports this request).
func (m *Manager) CreatePointerForOutput(seat, output wlclient.Proxy) (*Pointer, error) {
	id := m.Connection().NewObjectID()
	b := wire.NewBuilder().PutUint32(seat.ID()).PutUint32(output.ID()).PutUint32(id)
	if err := m.SendRequest(managerOpcodeCreateVirtualPointerWithOutput, b); err != nil {
		return nil, err
	}
	return m.wrap(id), nil
}

func (m *Manager) wrap(id uint32) *Pointer {
	p := &Pointer{}
	p.InitBaseProxy(m.Connection(), id, "zwlr_virtual_pointer_v1", m.Version())
	m.Connection().RegisterProxy(p)
	return p
}

func (m *Manager) Destroy() error {
	err := m.SendRequest(managerOpcodeDestroy, wire.NewBuilder())
	m.Connection().Unregister(m.ID())
	return err
}

func (m *Manager) Dispatch(uint16, *wire.Reader) error { return nil }
func (m *Manager) OnDestroyed()                         {}

// Pointer is a single virtual pointer device.
type Pointer struct {
	wlclient.BaseProxy
}

func nowMillis() uint32 { return uint32(time.Now().UnixMilli()) }

func (p *Pointer) Motion(dx, dy float64) error {
	b := wire.NewBuilder().PutUint32(nowMillis()).PutFixed(wire.NewFixed(dx)).PutFixed(wire.NewFixed(dy))
	return p.SendRequest(pointerOpcodeMotion, b)
}

func (p *Pointer) MotionAbsolute(x, y, xExtent, yExtent uint32) error {
	b := wire.NewBuilder().PutUint32(nowMillis()).PutUint32(x).PutUint32(y).PutUint32(xExtent).PutUint32(yExtent)
	return p.SendRequest(pointerOpcodeMotionAbsolute, b)
}

func (p *Pointer) Button(button, state uint32) error {
	b := wire.NewBuilder().PutUint32(nowMillis()).PutUint32(button).PutUint32(state)
	return p.SendRequest(pointerOpcodeButton, b)
}

func (p *Pointer) Axis(axis uint32, value float64) error {
	b := wire.NewBuilder().PutUint32(nowMillis()).PutUint32(axis).PutFixed(wire.NewFixed(value))
	return p.SendRequest(pointerOpcodeAxis, b)
}

func (p *Pointer) Frame() error {
	return p.SendRequest(pointerOpcodeFrame, wire.NewBuilder())
}

func (p *Pointer) AxisSource(source uint32) error {
	b := wire.NewBuilder().PutUint32(source)
	return p.SendRequest(pointerOpcodeAxisSource, b)
}

func (p *Pointer) AxisStop(axis uint32) error {
	b := wire.NewBuilder().PutUint32(nowMillis()).PutUint32(axis)
	return p.SendRequest(pointerOpcodeAxisStop, b)
}

func (p *Pointer) AxisDiscrete(axis uint32, value float64, discrete int32) error {
	b := wire.NewBuilder().PutUint32(nowMillis()).PutUint32(axis).PutFixed(wire.NewFixed(value)).PutInt32(discrete)
	return p.SendRequest(pointerOpcodeAxisDiscrete, b)
}

// MoveRelative is a Motion+Frame convenience pair.
func (p *Pointer) MoveRelative(dx, dy float64) error {
	if err := p.Motion(dx, dy); err != nil {
		return err
	}
	return p.Frame()
}

// Click is a Button press+release+Frame convenience triple.
func (p *Pointer) Click(button uint32) error {
	if err := p.Button(button, ButtonStatePressed); err != nil {
		return err
	}
	if err := p.Button(button, ButtonStateReleased); err != nil {
		return err
	}
	return p.Frame()
}

// Scroll is an Axis+Frame convenience pair.
func (p *Pointer) Scroll(axis uint32, amount float64) error {
	if err := p.Axis(axis, amount); err != nil {
		return err
	}
	return p.Frame()
}

func (p *Pointer) Destroy() error {
	err := p.SendRequest(pointerOpcodeDestroy, wire.NewBuilder())
	p.Connection().Unregister(p.ID())
	return err
}

func (p *Pointer) Dispatch(uint16, *wire.Reader) error { return nil }
func (p *Pointer) OnDestroyed()                         {}
