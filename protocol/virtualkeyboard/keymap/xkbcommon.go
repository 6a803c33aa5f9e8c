//go:build linux

package keymap

import (
	"sync"

	"github.com/ebitengine/purego"
)

var (
	xkbOnce   sync.Once
	xkbHandle uintptr
	xkbKeysymFromName func(name *byte, flags uint32) uint32
)

// xkbKeysymCaseInsensitive mirrors XKB_KEYSYM_CASE_INSENSITIVE from
// xkbcommon-keysyms.h.
const xkbKeysymCaseInsensitive uint32 = 1 << 0

func loadXKBCommon() {
	lib, err := purego.Dlopen("libxkbcommon.so.0", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		lib, err = purego.Dlopen("libxkbcommon.so", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			return
		}
	}
	xkbHandle = lib
	purego.RegisterLibFunc(&xkbKeysymFromName, lib, "xkb_keysym_from_name")
}

// PlatformLookup resolves key names via libxkbcommon's
// xkb_keysym_from_name when the library is present on the system,
// falling back to "not found" (letting the built-in table and the
// Unicode-plane fallback in Keymap.resolve take over) when it is not.
// This mirrors the original implementation's ctypes-based dlopen of the
// same library, done the Go-native-binding way.
func PlatformLookup(name string) (symbol uint32, ok bool) {
	xkbOnce.Do(loadXKBCommon)
	if xkbHandle == 0 || xkbKeysymFromName == nil {
		return 0, false
	}
	cname := append([]byte(name), 0)
	sym := xkbKeysymFromName(&cname[0], xkbKeysymCaseInsensitive)
	if sym == 0 {
		return 0, false
	}
	return sym, true
}
