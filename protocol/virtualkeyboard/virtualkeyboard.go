// Package virtualkeyboard implements the virtual-keyboard-unstable-v1
// extension (C6): a manager that creates per-seat virtual keyboards which
// type text and named keys by growing an on-demand XKB keymap (C8) and
// publishing it to the compositor through a memory-backed file
// descriptor.
package virtualkeyboard

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/corvidwl/wlgo/protocol/virtualkeyboard/keymap"
	"github.com/corvidwl/wlgo/wire"
	"github.com/corvidwl/wlgo/wlclient"
)

const (
	managerInterface = "zwp_virtual_keyboard_manager_v1"
	maxVersion       = 1
)

const managerOpcodeCreateVirtualKeyboard uint16 = 0

const (
	keyboardOpcodeKeymap    uint16 = 0
	keyboardOpcodeKey       uint16 = 1
	keyboardOpcodeModifiers uint16 = 2
	keyboardOpcodeDestroy   uint16 = 3
)

// XKB_KEYMAP_FORMAT_TEXT_V1, the only format this runtime produces.
const keymapFormatTextV1 uint32 = 1

const (
	KeyStateReleased uint32 = 0
	KeyStatePressed  uint32 = 1
)

// Modifier bits, per the wl_keyboard modifiers layout. Bits 4 and 5 are
// left unassigned: the Open Question about them is resolved by not
// guessing a meaning no protocol test exercises (SPEC_FULL.md).
const (
	ModShift   uint32 = 1 << 0
	ModCapsLock uint32 = 1 << 1
	ModCtrl    uint32 = 1 << 2
	ModAlt     uint32 = 1 << 3
	ModUnknown1 uint32 = 1 << 4
	ModUnknown2 uint32 = 1 << 5
	ModLogo    uint32 = 1 << 6
)

// Manager creates virtual keyboards bound to a seat.
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

// CreateVirtualKeyboard creates a keyboard tied to seat, starting with an
// empty keymap. lookup overrides the platform symbol lookup; pass
// keymap.PlatformLookup to use libxkbcommon when present, or nil to rely
// solely on the built-in table and Unicode-plane fallback.
func (m *Manager) CreateVirtualKeyboard(seat wlclient.Proxy, lookup keymap.SymbolLookup) (*Keyboard, error) {
	id := m.Connection().NewObjectID()
	b := wire.NewBuilder().PutUint32(seat.ID()).PutUint32(id)
	if err := m.SendRequest(managerOpcodeCreateVirtualKeyboard, b); err != nil {
		return nil, err
	}
	k := &Keyboard{keymap: keymap.New(lookup)}
	k.InitBaseProxy(m.Connection(), id, "zwp_virtual_keyboard_v1", m.Version())
	m.Connection().RegisterProxy(k)
	return k, nil
}

func (m *Manager) Dispatch(uint16, *wire.Reader) error { return nil }
func (m *Manager) OnDestroyed()                         {}

// Keyboard injects key events and maintains the keymap they reference.
type Keyboard struct {
	wlclient.BaseProxy

	keymap         *keymap.Keymap
	keymapUploaded bool
	depressedMods  uint32
}

// TypeString maps each rune through the keymap (assigning a fresh
// keycode on first use), republishes the keymap if it grew, then emits a
// pressed/released pair per character with a monotonic millisecond
// timestamp modulo 2^32.
func (k *Keyboard) TypeString(s string) error {
	for _, r := range s {
		if err := k.TypeKey(string(r)); err != nil {
			return err
		}
	}
	return nil
}

// TypeKey types one named key (a single character, or a name like "tab"
// or "home" resolved through the keymap's symbol lookup).
func (k *Keyboard) TypeKey(name string) error {
	xkbKeycode, _, err := k.keymap.KeycodeFor(name)
	if err != nil {
		return err
	}
	if err := k.ensureKeymapUploaded(); err != nil {
		return err
	}

	evdevKeycode := xkbKeycode - 8
	ts := nowMillis()
	if err := k.sendKey(ts, evdevKeycode, KeyStatePressed); err != nil {
		return err
	}
	return k.sendKey(ts, evdevKeycode, KeyStateReleased)
}

func (k *Keyboard) sendKey(timeMillis, key, state uint32) error {
	b := wire.NewBuilder().PutUint32(timeMillis).PutUint32(key).PutUint32(state)
	return k.SendRequest(keyboardOpcodeKey, b)
}

// ensureKeymapUploaded regenerates and republishes the keymap only when
// it changed since the last upload, per §4.8's changed flag and §4.6's
// "uploaded exactly once for the session's first keystrokes" contract.
func (k *Keyboard) ensureKeymapUploaded() error {
	if k.keymapUploaded && !k.keymap.Changed() {
		return nil
	}
	text := k.keymap.Serialize()
	return k.uploadKeymap(text)
}

// uploadKeymap publishes the keymap text via a memory-backed file
// descriptor, truncated and written to the keymap's byte size, closing
// the FD after the request returns (the compositor keeps its own
// reference via mmap during the request).
func (k *Keyboard) uploadKeymap(text string) error {
	fd, err := unix.MemfdCreate("wlgo-keymap", 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(len(text))); err != nil {
		return err
	}
	if _, err := unix.Write(fd, []byte(text)); err != nil {
		return err
	}
	if _, err := unix.Seek(fd, 0, 0); err != nil {
		return err
	}

	b := wire.NewBuilder().PutUint32(keymapFormatTextV1).PutFD(fd).PutUint32(uint32(len(text)))
	if err := k.SendRequest(keyboardOpcodeKeymap, b); err != nil {
		return err
	}
	k.keymapUploaded = true
	return nil
}

// WithModifiers is the scoped "set-on-enter, clear-on-exit" acquisition
// (§9): it sets the depressed modifier mask, invokes fn, then clears it
// on every exit path including a panic unwinding through fn. Caps-lock
// is the only modifier that participates in the "locked" field.
func (k *Keyboard) WithModifiers(mods uint32, fn func() error) error {
	if err := k.setModifiers(mods, 0); err != nil {
		return err
	}
	defer k.setModifiers(0, 0)
	return fn()
}

func (k *Keyboard) setModifiers(depressed, locked uint32) error {
	lockedMask := locked
	if depressed&ModCapsLock != 0 {
		lockedMask |= ModCapsLock
	}
	k.depressedMods = depressed
	b := wire.NewBuilder().PutUint32(depressed).PutUint32(0).PutUint32(lockedMask).PutUint32(0)
	return k.SendRequest(keyboardOpcodeModifiers, b)
}

func (k *Keyboard) Destroy() error {
	err := k.SendRequest(keyboardOpcodeDestroy, wire.NewBuilder())
	k.Connection().Unregister(k.ID())
	return err
}

func (k *Keyboard) Dispatch(uint16, *wire.Reader) error { return nil }
func (k *Keyboard) OnDestroyed()                         {}

func nowMillis() uint32 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return uint32(time.Now().UnixMilli())
	}
	return uint32(ts.Nano() / int64(time.Millisecond))
}
