// Package idlenotify implements idle notification (C6): an adaptive
// front-end that binds the KDE variant (org_kde_kwin_idle) first, then
// falls back to the standards-track variant
// (ext_idle_notifier_v1), since the two differ in argument order and in
// whether they support destroying the manager and simulating user
// activity.
package idlenotify

import (
	"github.com/corvidwl/wlgo/wire"
	"github.com/corvidwl/wlgo/wlclient"
	"github.com/corvidwl/wlgo/wlerr"
)

const (
	kdeManagerInterface = "org_kde_kwin_idle"
	kdeMaxVersion       = 1

	extManagerInterface = "ext_idle_notifier_v1"
	extMaxVersion       = 1
)

// variant distinguishes which wire layout the bound manager speaks.
type variant int

const (
	variantKDE variant = iota
	variantStandard
)

const (
	kdeOpcodeGetIdleTimeout uint16 = 0
	// org_kde_kwin_idle has no destructor and supports
	// simulate_user_activity.
	kdeOpcodeSimulateUserActivity uint16 = 1
)

const (
	kdeTimeoutEventIdle   uint16 = 0
	kdeTimeoutEventResume uint16 = 1
)

const (
	extOpcodeDestroy        uint16 = 0
	extOpcodeGetIdleNotification uint16 = 1
)

const (
	extNotificationEventIdled  uint16 = 0
	extNotificationEventResumed uint16 = 1
)

// Manager is the adaptive front-end over both variants.
type Manager struct {
	wlclient.BaseProxy
	variant variant
}

// Bind attempts the KDE variant first, then the standards-track variant.
func Bind(conn *wlclient.Connection) (*Manager, error) {
	if p, err := conn.Bind(kdeManagerInterface, 0, kdeMaxVersion, func(id, version uint32) wlclient.Proxy {
		m := &Manager{variant: variantKDE}
		m.InitBaseProxy(conn, id, kdeManagerInterface, version)
		return m
	}); err == nil {
		return p.(*Manager), nil
	}

	p, err := conn.Bind(extManagerInterface, 0, extMaxVersion, func(id, version uint32) wlclient.Proxy {
		m := &Manager{variant: variantStandard}
		m.InitBaseProxy(conn, id, extManagerInterface, version)
		return m
	})
	if err != nil {
		return nil, err
	}
	return p.(*Manager), nil
}

// GetNotification creates a notifier for the given timeout (milliseconds)
// tied to the seat. The KDE variant sends (id, seat, timeout); the
// standards-track variant sends (id, timeout, seat).
func (m *Manager) GetNotification(timeoutMillis uint32, seat wlclient.Proxy) (*Notifier, error) {
	id := m.Connection().NewObjectID()
	var b *wire.Builder
	switch m.variant {
	case variantKDE:
		b = wire.NewBuilder().PutUint32(id).PutUint32(seat.ID()).PutUint32(timeoutMillis)
		if err := m.SendRequest(kdeOpcodeGetIdleTimeout, b); err != nil {
			return nil, err
		}
	case variantStandard:
		b = wire.NewBuilder().PutUint32(id).PutUint32(timeoutMillis).PutUint32(seat.ID())
		if err := m.SendRequest(extOpcodeGetIdleNotification, b); err != nil {
			return nil, err
		}
	}
	n := &Notifier{variant: m.variant}
	n.InitBaseProxy(m.Connection(), id, "idle_notification", m.Version())
	m.Connection().RegisterProxy(n)
	return n, nil
}

// SimulateUserActivity is available only with the KDE variant.
func (m *Manager) SimulateUserActivity() error {
	if m.variant != variantKDE {
		return wlerr.New(wlerr.KindUnsupportedProtocol, "simulate_user_activity requires the KDE idle variant")
	}
	return m.SendRequest(kdeOpcodeSimulateUserActivity, wire.NewBuilder())
}

// Destroy is available only with the standards-track variant; the KDE
// manager has no destructor request.
func (m *Manager) Destroy() error {
	if m.variant != variantStandard {
		return wlerr.New(wlerr.KindUnsupportedProtocol, "destroy requires the standards-track idle variant")
	}
	err := m.SendRequest(extOpcodeDestroy, wire.NewBuilder())
	m.Connection().Unregister(m.ID())
	return err
}

func (m *Manager) Dispatch(uint16, *wire.Reader) error { return nil }
func (m *Manager) OnDestroyed()                         {}

// Notifier exposes idle/resume callbacks regardless of which variant it
// was created from.
type Notifier struct {
	wlclient.BaseProxy
	variant variant

	onIdle   func()
	onResume func()
}

func (n *Notifier) OnIdle(cb func())   { n.onIdle = cb }
func (n *Notifier) OnResume(cb func()) { n.onResume = cb }

func (n *Notifier) Dispatch(opcode uint16, _ *wire.Reader) error {
	var idleOp, resumeOp uint16
	switch n.variant {
	case variantKDE:
		idleOp, resumeOp = kdeTimeoutEventIdle, kdeTimeoutEventResume
	case variantStandard:
		idleOp, resumeOp = extNotificationEventIdled, extNotificationEventResumed
	}
	switch opcode {
	case idleOp:
		if n.onIdle != nil {
			n.onIdle()
		}
	case resumeOp:
		if n.onResume != nil {
			n.onResume()
		}
	}
	return nil
}

func (n *Notifier) OnDestroyed() {}
