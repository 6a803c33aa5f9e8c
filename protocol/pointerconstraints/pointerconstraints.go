// Package pointerconstraints implements the pointer-constraints-unstable-v1
// extension (C6): locking the pointer to its current position or
// confining it to a region, each with oneshot or persistent lifetime.
package pointerconstraints

import (
	"github.com/corvidwl/wlgo/wire"
	"github.com/corvidwl/wlgo/wlclient"
	"github.com/corvidwl/wlgo/wlerr"
)

const (
	managerInterface = "zwp_pointer_constraints_v1"
	maxVersion       = 1
)

const (
	managerOpcodeDestroy        uint16 = 0
	managerOpcodeLockPointer    uint16 = 1
	managerOpcodeConfinePointer uint16 = 2
)

const (
	LifetimeOneshot    uint32 = 1
	LifetimePersistent uint32 = 2
)

const ErrorAlreadyConstrained uint32 = 1

const (
	lockedOpcodeDestroy               uint16 = 0
	lockedOpcodeSetCursorPositionHint uint16 = 1
	lockedOpcodeSetRegion             uint16 = 2
)

const (
	lockedEventLocked   uint16 = 0
	lockedEventUnlocked uint16 = 1
)

const (
	confinedOpcodeDestroy   uint16 = 0
	confinedOpcodeSetRegion uint16 = 1
)

const (
	confinedEventConfined   uint16 = 0
	confinedEventUnconfined uint16 = 1
)

// Manager is the global exposing pointer-locking and pointer-confining
// functionality.
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

func validLifetime(l uint32) bool {
	return l == LifetimeOneshot || l == LifetimePersistent
}

// LockPointer locks the pointer to its current position on surface. A
// nil region means the lock applies regardless of where the pointer
// currently sits.
func (m *Manager) LockPointer(surface, pointer, region wlclient.Proxy, lifetime uint32) (*LockedPointer, error) {
	if !validLifetime(lifetime) {
		return nil, wlerr.New(wlerr.KindInvalidArgument, "pointer constraint lifetime must be oneshot or persistent")
	}
	id := m.Connection().NewObjectID()
	regionID := uint32(0)
	if region != nil {
		regionID = region.ID()
	}
	b := wire.NewBuilder().PutUint32(id).PutUint32(surface.ID()).PutUint32(pointer.ID()).PutUint32(regionID).PutUint32(lifetime)
	if err := m.SendRequest(managerOpcodeLockPointer, b); err != nil {
		return nil, err
	}
	lp := &LockedPointer{}
	lp.InitBaseProxy(m.Connection(), id, "zwp_locked_pointer_v1", m.Version())
	m.Connection().RegisterProxy(lp)
	return lp, nil
}

// ConfinePointer confines the pointer to region on surface.
func (m *Manager) ConfinePointer(surface, pointer, region wlclient.Proxy, lifetime uint32) (*ConfinedPointer, error) {
	if !validLifetime(lifetime) {
		return nil, wlerr.New(wlerr.KindInvalidArgument, "pointer constraint lifetime must be oneshot or persistent")
	}
	id := m.Connection().NewObjectID()
	regionID := uint32(0)
	if region != nil {
		regionID = region.ID()
	}
	b := wire.NewBuilder().PutUint32(id).PutUint32(surface.ID()).PutUint32(pointer.ID()).PutUint32(regionID).PutUint32(lifetime)
	if err := m.SendRequest(managerOpcodeConfinePointer, b); err != nil {
		return nil, err
	}
	cp := &ConfinedPointer{}
	cp.InitBaseProxy(m.Connection(), id, "zwp_confined_pointer_v1", m.Version())
	m.Connection().RegisterProxy(cp)
	return cp, nil
}

func (m *Manager) Destroy() error {
	err := m.SendRequest(managerOpcodeDestroy, wire.NewBuilder())
	m.Connection().Unregister(m.ID())
	return err
}

func (m *Manager) Dispatch(uint16, *wire.Reader) error { return nil }
func (m *Manager) OnDestroyed()                         {}

// LockedPointer fires Locked when the compositor activates the lock and
// Unlocked when it releases it (deactivation, not destruction).
type LockedPointer struct {
	wlclient.BaseProxy

	onLocked   func()
	onUnlocked func()
}

func (l *LockedPointer) OnLocked(cb func())   { l.onLocked = cb }
func (l *LockedPointer) OnUnlocked(cb func()) { l.onUnlocked = cb }

func (l *LockedPointer) SetCursorPositionHint(surfaceX, surfaceY float64) error {
	b := wire.NewBuilder().PutFixed(wire.NewFixed(surfaceX)).PutFixed(wire.NewFixed(surfaceY))
	return l.SendRequest(lockedOpcodeSetCursorPositionHint, b)
}

func (l *LockedPointer) SetRegion(region wlclient.Proxy) error {
	regionID := uint32(0)
	if region != nil {
		regionID = region.ID()
	}
	return l.SendRequest(lockedOpcodeSetRegion, wire.NewBuilder().PutUint32(regionID))
}

func (l *LockedPointer) Destroy() error {
	err := l.SendRequest(lockedOpcodeDestroy, wire.NewBuilder())
	l.Connection().Unregister(l.ID())
	return err
}

func (l *LockedPointer) Dispatch(opcode uint16, _ *wire.Reader) error {
	switch opcode {
	case lockedEventLocked:
		if l.onLocked != nil {
			l.onLocked()
		}
	case lockedEventUnlocked:
		if l.onUnlocked != nil {
			l.onUnlocked()
		}
	}
	return nil
}

func (l *LockedPointer) OnDestroyed() {}

// ConfinedPointer fires Confined when the compositor activates the
// confinement and Unconfined when it releases it.
type ConfinedPointer struct {
	wlclient.BaseProxy

	onConfined   func()
	onUnconfined func()
}

func (c *ConfinedPointer) OnConfined(cb func())   { c.onConfined = cb }
func (c *ConfinedPointer) OnUnconfined(cb func()) { c.onUnconfined = cb }

func (c *ConfinedPointer) SetRegion(region wlclient.Proxy) error {
	regionID := uint32(0)
	if region != nil {
		regionID = region.ID()
	}
	return c.SendRequest(confinedOpcodeSetRegion, wire.NewBuilder().PutUint32(regionID))
}

func (c *ConfinedPointer) Destroy() error {
	err := c.SendRequest(confinedOpcodeDestroy, wire.NewBuilder())
	c.Connection().Unregister(c.ID())
	return err
}

func (c *ConfinedPointer) Dispatch(opcode uint16, _ *wire.Reader) error {
	switch opcode {
	case confinedEventConfined:
		if c.onConfined != nil {
			c.onConfined()
		}
	case confinedEventUnconfined:
		if c.onUnconfined != nil {
			c.onUnconfined()
		}
	}
	return nil
}

func (c *ConfinedPointer) OnDestroyed() {}
