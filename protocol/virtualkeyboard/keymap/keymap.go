// Package keymap implements the on-demand XKB keymap serializer (C8): it
// maintains an insertion-ordered mapping from character or named key to
// (keycode index, symbol), resolving symbols via an optional platform
// library call, a built-in table, or the Unicode-plane encoding, and
// renders a deterministic textual XKB keymap enumerating only the
// keycodes used so far.
package keymap

import (
	"fmt"
	"strings"
)

// entry is one assigned keycode.
type entry struct {
	name   string
	symbol uint32
}

// Keymap assigns keycodes lazily as new characters or named keys are
// used, and regenerates its textual form only when something changed
// since the last Serialize call.
type Keymap struct {
	order   []string
	byName  map[string]*entry
	changed bool

	lookup SymbolLookup
}

// SymbolLookup resolves a key name to an XKB keysym value. It returns
// ok=false if the name is not recognized.
type SymbolLookup func(name string) (symbol uint32, ok bool)

// New constructs an empty keymap. lookup is consulted first for every
// name before the built-in table and the Unicode-plane fallback; pass
// nil to skip the platform lookup entirely.
func New(lookup SymbolLookup) *Keymap {
	return &Keymap{byName: make(map[string]*entry), lookup: lookup}
}

// KeycodeFor returns the XKB keycode (index+8, per the wire convention)
// and symbol for name, assigning a fresh keycode on first use.
func (k *Keymap) KeycodeFor(name string) (keycode uint32, symbol uint32, err error) {
	if e, ok := k.byName[name]; ok {
		idx := k.indexOf(name)
		return uint32(idx) + 8, e.symbol, nil
	}

	sym, ok := k.resolve(name)
	if !ok {
		return 0, 0, fmt.Errorf("keymap: unresolvable key name %q", name)
	}

	k.order = append(k.order, name)
	k.byName[name] = &entry{name: name, symbol: sym}
	k.changed = true
	return uint32(len(k.order)) + 8, sym, nil
}

func (k *Keymap) indexOf(name string) int {
	for i, n := range k.order {
		if n == name {
			return i + 1
		}
	}
	return 0
}

// resolve implements the three-tier lookup: platform call, built-in
// table, Unicode-plane encoding for code points >= 0xa0.
func (k *Keymap) resolve(name string) (uint32, bool) {
	if k.lookup != nil {
		if sym, ok := k.lookup(name); ok {
			return sym, true
		}
	}
	if sym, ok := builtinSymbols[name]; ok {
		return sym, true
	}
	if r := []rune(name); len(r) == 1 && r[0] >= 0xa0 {
		return 0x01000000 + uint32(r[0]), true
	}
	return 0, false
}

// Changed reports whether any new keycode has been assigned since the
// last Serialize call.
func (k *Keymap) Changed() bool { return k.changed }

// Serialize renders the deterministic textual XKB keymap for every
// keycode assigned so far and clears the changed flag.
func (k *Keymap) Serialize() string {
	k.changed = false

	var sb strings.Builder
	sb.WriteString("xkb_keymap {\n")
	sb.WriteString("\txkb_keycodes \"(unnamed)\" {\n")
	sb.WriteString("\t\tminimum = 8;\n")
	sb.WriteString(fmt.Sprintf("\t\tmaximum = %d;\n", len(k.order)+8))
	for i := range k.order {
		sb.WriteString(fmt.Sprintf("\t\t<K%d> = %d;\n", i+1, i+9))
	}
	sb.WriteString("\t};\n")
	sb.WriteString("\txkb_types \"(unnamed)\" { include \"complete\" };\n")
	sb.WriteString("\txkb_compat \"(unnamed)\" { include \"complete\" };\n")
	sb.WriteString("\txkb_symbols \"(unnamed)\" {\n")
	for i, name := range k.order {
		e := k.byName[name]
		sb.WriteString(fmt.Sprintf("\t\tkey <K%d> { [ 0x%08x ] };\n", i+1, e.symbol))
	}
	sb.WriteString("\t};\n")
	sb.WriteString("};\n")
	return sb.String()
}

// builtinSymbols is the built-in table of named keys used when no
// platform lookup is installed or it does not recognize the name.
// Values are real XKB keysym constants from keysymdef.h.
var builtinSymbols = map[string]uint32{
	"backspace": 0xff08,
	"tab":       0xff09,
	"return":    0xff0d,
	"enter":     0xff0d,
	"escape":    0xff1b,
	"space":     0x0020,
	"delete":    0xffff,
	"home":      0xff50,
	"end":       0xff57,
	"left":      0xff51,
	"up":        0xff52,
	"right":     0xff53,
	"down":      0xff54,
	"pageup":    0xff55,
	"pagedown":  0xff56,
	"shift_l":   0xffe1,
	"shift_r":   0xffe2,
	"control_l": 0xffe3,
	"control_r": 0xffe4,
	"alt_l":     0xffe9,
	"alt_r":     0xffea,
	"super_l":   0xffeb,
	"super_r":   0xffec,
	"caps_lock": 0xffe5,
	"f1":        0xffbe,
	"f2":        0xffbf,
	"f3":        0xffc0,
	"f4":        0xffc1,
	"f5":        0xffc2,
	"f6":        0xffc3,
	"f7":        0xffc4,
	"f8":        0xffc5,
	"f9":        0xffc6,
	"f10":       0xffc7,
	"f11":       0xffc8,
	"f12":       0xffc9,
}

func init() {
	for r := rune('a'); r <= 'z'; r++ {
		builtinSymbols[string(r)] = uint32(r)
	}
	for r := rune('A'); r <= 'Z'; r++ {
		builtinSymbols[string(r)] = uint32(r) // XKB uppercase letters share their ASCII value
	}
	for r := rune('0'); r <= '9'; r++ {
		builtinSymbols[string(r)] = uint32(r)
	}
	for _, r := range "!@#$%^&*()-_=+[]{}\\|;:'\",.<>/?`~ " {
		builtinSymbols[string(r)] = uint32(r)
	}
}
